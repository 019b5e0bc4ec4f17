package httpexec

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"
	"go.uber.org/zap"
)

const (
	defaultRequestTimeout        = 30 * time.Second
	defaultRetryAttempts         = 3
	defaultRetryDelay            = 500 * time.Millisecond
	failureBodyExcerptLimit      = 512
	requestStartedLogMessage     = "issuing request"
	requestCompletedLogMessage   = "request completed"
	requestRetryLogMessage       = "retrying request"
	requestFailedLogMessage      = "request failed"
	methodLogField               = "method"
	urlLogField                  = "url"
	statusCodeLogField           = "status_code"
	attemptLogField              = "attempt"
	requestFailedErrorTemplate   = "%s %s failed with status %d: %s"
	transportErrorTemplate       = "%s %s failed: %v"
	missingMethodMessage         = "request method must be provided"
	missingURLMessage            = "request URL must be provided"
	invalidRequestErrorTemplate  = "invalid request: %s"
	statusCodeTooManyRequests    = http.StatusTooManyRequests
	statusCodeServerErrorMinimum = http.StatusInternalServerError
)

// Sentinel errors reported when the executor is assembled without its collaborators.
var (
	ErrLoggerNotConfigured        = errors.New("logger not configured")
	ErrRequestRunnerNotConfigured = errors.New("request runner not configured")
)

// RequestDetails describes a single REST invocation.
type RequestDetails struct {
	Method      string
	URL         string
	Query       map[string]string
	Headers     map[string]string
	Body        []byte
	Description string
}

// RequestResult captures the observable results of executing a request.
type RequestResult struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	Duration   time.Duration
	Attempts   int
}

// RequestRunner represents the ability to perform a prepared request against a transport.
type RequestRunner interface {
	Run(executionContext context.Context, details RequestDetails) (RequestResult, error)
}

// ExecutionPolicy bounds every request issued by the executor.
type ExecutionPolicy struct {
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	Clock         clock.Clock
}

// DefaultExecutionPolicy returns the policy applied when callers do not override one.
func DefaultExecutionPolicy() ExecutionPolicy {
	return ExecutionPolicy{
		Timeout:       defaultRequestTimeout,
		RetryAttempts: defaultRetryAttempts,
		RetryDelay:    defaultRetryDelay,
		Clock:         clock.WallClock,
	}
}

func (policy ExecutionPolicy) normalized() ExecutionPolicy {
	defaults := DefaultExecutionPolicy()
	if policy.Timeout <= 0 {
		policy.Timeout = defaults.Timeout
	}
	if policy.RetryAttempts <= 0 {
		policy.RetryAttempts = defaults.RetryAttempts
	}
	if policy.RetryDelay <= 0 {
		policy.RetryDelay = defaults.RetryDelay
	}
	if policy.Clock == nil {
		policy.Clock = defaults.Clock
	}
	return policy
}

// RequestFailedError reports a response whose status code indicates failure.
type RequestFailedError struct {
	Details RequestDetails
	Result  RequestResult
}

// Error describes the failed request including a body excerpt.
func (failure RequestFailedError) Error() string {
	return fmt.Sprintf(requestFailedErrorTemplate, failure.Details.Method, failure.Details.URL, failure.Result.StatusCode, bodyExcerpt(failure.Result.Body))
}

// TransportError reports a request that never produced a usable response.
type TransportError struct {
	Details RequestDetails
	Cause   error
}

// Error describes the transport failure.
func (failure TransportError) Error() string {
	return fmt.Sprintf(transportErrorTemplate, failure.Details.Method, failure.Details.URL, failure.Cause)
}

// Unwrap exposes the underlying transport failure.
func (failure TransportError) Unwrap() error {
	return failure.Cause
}

// RequestExecutor coordinates request execution with logging, per-call
// deadlines, bounded retries, and observer notifications.
type RequestExecutor struct {
	logger        *zap.Logger
	runner        RequestRunner
	policy        ExecutionPolicy
	eventObserver RequestEventObserver
}

// NewRequestExecutor builds an executor from the provided collaborators.
func NewRequestExecutor(logger *zap.Logger, runner RequestRunner, policy ExecutionPolicy) (*RequestExecutor, error) {
	return NewRequestExecutorWithObserver(logger, runner, policy, nil)
}

// NewRequestExecutorWithObserver builds an executor that publishes request
// lifecycle events to the supplied observer.
func NewRequestExecutorWithObserver(logger *zap.Logger, runner RequestRunner, policy ExecutionPolicy, eventObserver RequestEventObserver) (*RequestExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrRequestRunnerNotConfigured
	}
	if eventObserver == nil {
		eventObserver = NewNoopRequestEventObserver()
	}

	return &RequestExecutor{
		logger:        logger,
		runner:        runner,
		policy:        policy.normalized(),
		eventObserver: eventObserver,
	}, nil
}

// Execute performs the request under the executor's policy. Responses with a
// failing status code surface as RequestFailedError; transient failures
// (transport errors, attempt timeouts, HTTP 5xx, HTTP 429) are retried with a
// doubling delay until the attempt budget is spent. Cancellation of the
// caller's context always wins over retrying.
func (executor *RequestExecutor) Execute(executionContext context.Context, details RequestDetails) (RequestResult, error) {
	if validationError := validateDetails(details); validationError != nil {
		return RequestResult{}, validationError
	}

	executor.logger.Debug(requestStartedLogMessage,
		zap.String(methodLogField, details.Method),
		zap.String(urlLogField, details.URL),
	)
	executor.eventObserver.RequestStarted(details)

	startedAt := time.Now()
	attemptCount := 0
	var lastResult RequestResult
	var lastError error

	retryError := retry.Call(retry.CallArgs{
		Func: func() error {
			attemptCount++
			attemptResult, attemptError := executor.performAttempt(executionContext, details)
			lastResult = attemptResult
			lastError = attemptError
			return attemptError
		},
		IsFatalError: func(attemptError error) bool {
			return !isTransient(attemptError)
		},
		NotifyFunc: func(attemptError error, attempt int) {
			executor.logger.Warn(requestRetryLogMessage,
				zap.String(methodLogField, details.Method),
				zap.String(urlLogField, details.URL),
				zap.Int(attemptLogField, attempt),
				zap.Error(attemptError),
			)
		},
		Attempts:    executor.policy.RetryAttempts,
		Delay:       executor.policy.RetryDelay,
		BackoffFunc: retry.DoubleDelay,
		Clock:       executor.policy.Clock,
		Stop:        executionContext.Done(),
	})

	lastResult.Duration = time.Since(startedAt)
	lastResult.Attempts = attemptCount

	if retryError != nil {
		executionError := retryError
		if retry.IsAttemptsExceeded(retryError) && lastError != nil {
			executionError = lastError
		} else if lastError != nil && !retry.IsRetryStopped(retryError) {
			executionError = lastError
		}
		if contextError := executionContext.Err(); contextError != nil {
			executionError = contextError
		}

		executor.logger.Debug(requestFailedLogMessage,
			zap.String(methodLogField, details.Method),
			zap.String(urlLogField, details.URL),
			zap.Int(attemptLogField, attemptCount),
			zap.Error(executionError),
		)
		executor.eventObserver.RequestFailed(details, executionError)
		return lastResult, executionError
	}

	executor.logger.Debug(requestCompletedLogMessage,
		zap.String(methodLogField, details.Method),
		zap.String(urlLogField, details.URL),
		zap.Int(statusCodeLogField, lastResult.StatusCode),
		zap.Int(attemptLogField, attemptCount),
	)
	executor.eventObserver.RequestCompleted(details, lastResult)
	return lastResult, nil
}

func (executor *RequestExecutor) performAttempt(executionContext context.Context, details RequestDetails) (RequestResult, error) {
	attemptContext, cancelAttempt := context.WithTimeout(executionContext, executor.policy.Timeout)
	defer cancelAttempt()

	attemptResult, runError := executor.runner.Run(attemptContext, details)
	if runError != nil {
		if contextError := executionContext.Err(); contextError != nil {
			return attemptResult, contextError
		}
		return attemptResult, TransportError{Details: details, Cause: runError}
	}

	if attemptResult.StatusCode >= http.StatusBadRequest {
		return attemptResult, RequestFailedError{Details: details, Result: attemptResult}
	}

	return attemptResult, nil
}

func validateDetails(details RequestDetails) error {
	if len(strings.TrimSpace(details.Method)) == 0 {
		return fmt.Errorf(invalidRequestErrorTemplate, missingMethodMessage)
	}
	if len(strings.TrimSpace(details.URL)) == 0 {
		return fmt.Errorf(invalidRequestErrorTemplate, missingURLMessage)
	}
	return nil
}

// isTransient classifies attempt failures. Transport failures, including
// per-attempt timeouts, are transient; response failures are transient only
// for throttling and server-side status codes. Bare context errors mean the
// caller's context ended and are never retried.
func isTransient(attemptError error) bool {
	if attemptError == nil {
		return false
	}

	var requestFailure RequestFailedError
	if errors.As(attemptError, &requestFailure) {
		statusCode := requestFailure.Result.StatusCode
		return statusCode == statusCodeTooManyRequests || statusCode >= statusCodeServerErrorMinimum
	}

	var transportFailure TransportError
	return errors.As(attemptError, &transportFailure)
}

func bodyExcerpt(responseBody []byte) string {
	excerpt := strings.TrimSpace(string(responseBody))
	if len(excerpt) > failureBodyExcerptLimit {
		excerpt = excerpt[:failureBodyExcerptLimit]
	}
	return excerpt
}
