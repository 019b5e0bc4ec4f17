package ui

import (
	"go.uber.org/zap"

	"github.com/OmerShlush/trustx-migration/internal/httpexec"
)

const clientErrorStatusThresholdConstant = 400

// ConsoleRequestEventLogger renders request lifecycle events using a zap logger configured for human-readable output.
type ConsoleRequestEventLogger struct {
	logger    *zap.Logger
	formatter httpexec.RequestMessageFormatter
}

// NewConsoleRequestEventLogger constructs a console event logger backed by the provided zap logger.
func NewConsoleRequestEventLogger(logger *zap.Logger) *ConsoleRequestEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleRequestEventLogger{logger: logger, formatter: httpexec.NewRequestMessageFormatter()}
}

// RequestStarted implements httpexec.RequestEventObserver by logging request start notifications.
func (eventLogger *ConsoleRequestEventLogger) RequestStarted(details httpexec.RequestDetails) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(eventLogger.formatter.FormatStart(details))
}

// RequestCompleted implements httpexec.RequestEventObserver by logging completion notifications.
func (eventLogger *ConsoleRequestEventLogger) RequestCompleted(details httpexec.RequestDetails, result httpexec.RequestResult) {
	if eventLogger == nil {
		return
	}
	if result.StatusCode < clientErrorStatusThresholdConstant {
		eventLogger.logger.Info(eventLogger.formatter.FormatCompletion(details, result))
		return
	}
	eventLogger.logger.Warn(eventLogger.formatter.FormatCompletion(details, result))
}

// RequestFailed implements httpexec.RequestEventObserver by logging requests that produced no result.
func (eventLogger *ConsoleRequestEventLogger) RequestFailed(details httpexec.RequestDetails, failure error) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Error(eventLogger.formatter.FormatFailure(details, failure))
}
