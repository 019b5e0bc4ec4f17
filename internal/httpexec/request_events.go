package httpexec

// RequestEventObserver receives lifecycle notifications for request execution.
type RequestEventObserver interface {
	// RequestStarted notifies observers that a request is being issued.
	RequestStarted(details RequestDetails)
	// RequestCompleted notifies observers that a request finished and supplies the result.
	RequestCompleted(details RequestDetails, result RequestResult)
	// RequestFailed reports requests that produced no successful result.
	RequestFailed(details RequestDetails, failure error)
}

// noopRequestEventObserver discards all request events.
type noopRequestEventObserver struct{}

// NewNoopRequestEventObserver returns an observer that ignores every event.
func NewNoopRequestEventObserver() RequestEventObserver {
	return noopRequestEventObserver{}
}

// RequestStarted implements RequestEventObserver for the no-op observer.
func (noopRequestEventObserver) RequestStarted(RequestDetails) {}

// RequestCompleted implements RequestEventObserver for the no-op observer.
func (noopRequestEventObserver) RequestCompleted(RequestDetails, RequestResult) {}

// RequestFailed implements RequestEventObserver for the no-op observer.
func (noopRequestEventObserver) RequestFailed(RequestDetails, error) {}
