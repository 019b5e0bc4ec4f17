package trustxapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/OmerShlush/trustx-migration/internal/httpexec"
)

const (
	authorizationHeaderName = "Authorization"
	bearerTokenPrefix       = "Bearer "
	acceptHeaderName        = "Accept"
	contentTypeHeaderName   = "Content-Type"
	jsonContentType         = "application/json"

	editableStatus      = "EDITABLE"
	saveAndDeployOption = "Save & Deploy"
)

// Sentinel errors reported when the client is assembled without its collaborators.
var (
	ErrLoggerNotConfigured   = errors.New("logger not configured")
	ErrExecutorNotConfigured = errors.New("request executor not configured")
	ErrBaseURLRequired       = errors.New("tenant base url required")
	ErrTokenRequired         = errors.New("bearer token required")
)

// RequestExecutor abstracts the retrying HTTP executor all calls run through.
type RequestExecutor interface {
	Execute(executionContext context.Context, details httpexec.RequestDetails) (httpexec.RequestResult, error)
}

// Client binds one tenant: base URL, bearer token, executor, and logger.
type Client struct {
	logger   *zap.Logger
	executor RequestExecutor
	baseURL  string
	token    string
}

// NewClient constructs a tenant client and validates its collaborators.
func NewClient(logger *zap.Logger, executor RequestExecutor, baseURL string, bearerToken string) (*Client, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if len(strings.TrimSpace(baseURL)) == 0 {
		return nil, ErrBaseURLRequired
	}
	if len(strings.TrimSpace(bearerToken)) == 0 {
		return nil, ErrTokenRequired
	}

	return &Client{
		logger:   logger,
		executor: executor,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		token:    bearerToken,
	}, nil
}

// execute performs one authenticated JSON call against the tenant and returns
// the raw response body. Payloads are marshalled here; nil means no body.
func (client *Client) execute(executionContext context.Context, method string, requestPath string, query map[string]string, payload any, description string) ([]byte, error) {
	var encodedPayload []byte
	if payload != nil {
		var marshalError error
		encodedPayload, marshalError = json.Marshal(payload)
		if marshalError != nil {
			return nil, fmt.Errorf("encode request payload: %w", marshalError)
		}
	}

	requestResult, executionError := client.executor.Execute(executionContext, httpexec.RequestDetails{
		Method:      method,
		URL:         client.baseURL + requestPath,
		Query:       query,
		Headers:     client.requestHeaders(payload != nil),
		Body:        encodedPayload,
		Description: description,
	})
	if executionError != nil {
		return nil, executionError
	}
	return requestResult.Body, nil
}

func (client *Client) requestHeaders(hasBody bool) map[string]string {
	headers := map[string]string{
		authorizationHeaderName: bearerTokenPrefix + client.token,
		acceptHeaderName:        jsonContentType,
	}
	if hasBody {
		headers[contentTypeHeaderName] = jsonContentType
	}
	return headers
}

type metadataEnvelope struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version int    `json:"version"`
}

// decodeMetadataEnvelope decodes a creation/activation response into the
// common id/name/version envelope plus the raw document. Identifier presence
// is enforced when the response will address a follow-up call.
func decodeMetadataEnvelope(operation string, responseBody []byte, identifierRequired bool) (metadataEnvelope, map[string]any, error) {
	var envelope metadataEnvelope
	if decodeError := json.Unmarshal(responseBody, &envelope); decodeError != nil {
		return metadataEnvelope{}, nil, MalformedPayloadError{Operation: operation, Reason: fmt.Sprintf("response is not valid JSON: %v", decodeError)}
	}
	if identifierRequired && len(envelope.ID) == 0 {
		return metadataEnvelope{}, nil, MalformedPayloadError{Operation: operation, Reason: "response did not contain an id"}
	}

	var rawDocument map[string]any
	if decodeError := json.Unmarshal(responseBody, &rawDocument); decodeError != nil {
		return metadataEnvelope{}, nil, MalformedPayloadError{Operation: operation, Reason: fmt.Sprintf("response is not a JSON document: %v", decodeError)}
	}
	return envelope, rawDocument, nil
}
