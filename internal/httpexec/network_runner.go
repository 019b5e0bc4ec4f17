package httpexec

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"
)

const networkRunnerResponseBodyLimit = 64 << 20

// NetworkRequestRunner performs requests using net/http facilities.
type NetworkRequestRunner struct {
	httpClient *http.Client
}

// NewNetworkRequestRunner constructs a runner backed by a dedicated http.Client.
// Per-request deadlines are owned by the executor, so the client itself carries
// no timeout.
func NewNetworkRequestRunner() *NetworkRequestRunner {
	return &NetworkRequestRunner{httpClient: &http.Client{}}
}

// NewNetworkRequestRunnerWithClient constructs a runner around the provided client.
func NewNetworkRequestRunnerWithClient(httpClient *http.Client) *NetworkRequestRunner {
	if httpClient == nil {
		return NewNetworkRequestRunner()
	}
	return &NetworkRequestRunner{httpClient: httpClient}
}

// Run executes the supplied request details against the network.
func (runner *NetworkRequestRunner) Run(executionContext context.Context, details RequestDetails) (RequestResult, error) {
	requestURL, parseError := url.Parse(details.URL)
	if parseError != nil {
		return RequestResult{}, parseError
	}

	if len(details.Query) > 0 {
		queryValues := requestURL.Query()
		for queryKey, queryValue := range details.Query {
			queryValues.Set(queryKey, queryValue)
		}
		requestURL.RawQuery = queryValues.Encode()
	}

	var requestBody io.Reader
	if len(details.Body) > 0 {
		requestBody = bytes.NewReader(details.Body)
	}

	httpRequest, buildError := http.NewRequestWithContext(executionContext, details.Method, requestURL.String(), requestBody)
	if buildError != nil {
		return RequestResult{}, buildError
	}

	for headerName, headerValue := range details.Headers {
		httpRequest.Header.Set(headerName, headerValue)
	}

	requestStartedAt := time.Now()
	httpResponse, executionError := runner.httpClient.Do(httpRequest)
	if executionError != nil {
		return RequestResult{}, executionError
	}
	defer httpResponse.Body.Close()

	responseBody, readError := io.ReadAll(io.LimitReader(httpResponse.Body, networkRunnerResponseBodyLimit))
	if readError != nil {
		return RequestResult{}, readError
	}

	return RequestResult{
		StatusCode: httpResponse.StatusCode,
		Body:       responseBody,
		Header:     httpResponse.Header,
		Duration:   time.Since(requestStartedAt),
	}, nil
}
