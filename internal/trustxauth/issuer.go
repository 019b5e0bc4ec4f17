// Package trustxauth exchanges a tenant API key for the bearer token every
// other platform call authenticates with. One token is issued per tenant per
// run.
package trustxauth

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
	tokenIssuancePath     = "/api/arthr/apiKeys/issue"
	apiKeyHeaderName      = "X-API-Key"
	contentTypeHeaderName = "Content-Type"
	jsonContentType       = "application/json"

	issueTokenDescription  = "issue api token"
	issuingTokenLogMessage = "issuing tenant token"
	baseURLLogField        = "base_url"
)

var (
	// ErrLoggerNotConfigured indicates the issuer was constructed without a logger.
	ErrLoggerNotConfigured = errors.New("logger not configured")
	// ErrExecutorNotConfigured indicates the issuer was constructed without a request executor.
	ErrExecutorNotConfigured = errors.New("request executor not configured")
	// ErrBaseURLRequired indicates tenant credentials without a base URL.
	ErrBaseURLRequired = errors.New("tenant base url required")
	// ErrAPIKeyRequired indicates tenant credentials without an API key.
	ErrAPIKeyRequired = errors.New("tenant api key required")
)

// MissingTokenError reports an issuance response without a usable token field.
type MissingTokenError struct {
	BaseURL string
}

func (missingTokenError MissingTokenError) Error() string {
	return fmt.Sprintf("token issuance response from %s did not contain a token", missingTokenError.BaseURL)
}

// RequestExecutor abstracts the retrying HTTP executor the issuer posts through.
type RequestExecutor interface {
	Execute(executionContext context.Context, details httpexec.RequestDetails) (httpexec.RequestResult, error)
}

// TenantCredentials identify one tenant for token issuance.
type TenantCredentials struct {
	BaseURL string
	APIKey  string
}

// TokenIssuer trades tenant API keys for bearer tokens.
type TokenIssuer struct {
	logger   *zap.Logger
	executor RequestExecutor
}

// NewTokenIssuer constructs a TokenIssuer and validates its collaborators.
func NewTokenIssuer(logger *zap.Logger, executor RequestExecutor) (*TokenIssuer, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &TokenIssuer{logger: logger, executor: executor}, nil
}

// Issue posts the tenant API key to the issuance endpoint and returns the
// bearer token. Neither the API key nor the token is ever logged.
func (issuer *TokenIssuer) Issue(executionContext context.Context, credentials TenantCredentials) (string, error) {
	if len(strings.TrimSpace(credentials.BaseURL)) == 0 {
		return "", ErrBaseURLRequired
	}
	if len(strings.TrimSpace(credentials.APIKey)) == 0 {
		return "", ErrAPIKeyRequired
	}

	issuer.logger.Debug(issuingTokenLogMessage, zap.String(baseURLLogField, credentials.BaseURL))

	requestDetails := httpexec.RequestDetails{
		Method: "POST",
		URL:    strings.TrimSuffix(credentials.BaseURL, "/") + tokenIssuancePath,
		Headers: map[string]string{
			apiKeyHeaderName:      credentials.APIKey,
			contentTypeHeaderName: jsonContentType,
		},
		Body:        []byte("{}"),
		Description: issueTokenDescription,
	}

	requestResult, executionError := issuer.executor.Execute(executionContext, requestDetails)
	if executionError != nil {
		return "", fmt.Errorf("issue token: %w", executionError)
	}

	var issuanceResponse struct {
		Token string `json:"token"`
	}
	if decodeError := json.Unmarshal(requestResult.Body, &issuanceResponse); decodeError != nil {
		return "", fmt.Errorf("decode token response: %w", decodeError)
	}
	if len(issuanceResponse.Token) == 0 {
		return "", MissingTokenError{BaseURL: credentials.BaseURL}
	}

	return issuanceResponse.Token, nil
}
