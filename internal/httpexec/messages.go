package httpexec

import (
	"fmt"
	"net/url"
	"time"
)

const (
	requestStartTemplateConstant      = "%s"
	requestCompletionTemplateConstant = "%s (status %d, %s)"
	requestFailureTemplateConstant    = "%s failed: %v"
	requestLabelTemplateConstant      = "%s %s"
	unknownRequestLabelConstant       = "request"
	timeRoundingUnit                  = time.Millisecond
)

// RequestMessageFormatter renders human-readable descriptions of request
// lifecycle events for console output.
type RequestMessageFormatter struct{}

// NewRequestMessageFormatter constructs a formatter instance.
func NewRequestMessageFormatter() RequestMessageFormatter {
	return RequestMessageFormatter{}
}

// FormatStart renders the message announcing a request.
func (formatter RequestMessageFormatter) FormatStart(details RequestDetails) string {
	return fmt.Sprintf(requestStartTemplateConstant, formatter.requestLabel(details))
}

// FormatCompletion renders the message for a finished request.
func (formatter RequestMessageFormatter) FormatCompletion(details RequestDetails, result RequestResult) string {
	return fmt.Sprintf(requestCompletionTemplateConstant, formatter.requestLabel(details), result.StatusCode, result.Duration.Round(timeRoundingUnit))
}

// FormatFailure renders the message for a request that produced no result.
func (formatter RequestMessageFormatter) FormatFailure(details RequestDetails, failure error) string {
	return fmt.Sprintf(requestFailureTemplateConstant, formatter.requestLabel(details), failure)
}

func (formatter RequestMessageFormatter) requestLabel(details RequestDetails) string {
	if len(details.Description) > 0 {
		return details.Description
	}

	parsedURL, parseError := url.Parse(details.URL)
	if parseError != nil || len(details.Method) == 0 {
		return unknownRequestLabelConstant
	}
	return fmt.Sprintf(requestLabelTemplateConstant, details.Method, parsedURL.Path)
}
