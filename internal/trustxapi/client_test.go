package trustxapi_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/OmerShlush/trustx-migration/internal/httpexec"
	"github.com/OmerShlush/trustx-migration/internal/trustxapi"
)

type scriptedExecutor struct {
	results          []httpexec.RequestResult
	failure          error
	recordedRequests []httpexec.RequestDetails
}

func (executor *scriptedExecutor) Execute(_ context.Context, details httpexec.RequestDetails) (httpexec.RequestResult, error) {
	executor.recordedRequests = append(executor.recordedRequests, details)
	if executor.failure != nil {
		return httpexec.RequestResult{}, executor.failure
	}
	callIndex := len(executor.recordedRequests) - 1
	if callIndex < len(executor.results) {
		return executor.results[callIndex], nil
	}
	return httpexec.RequestResult{StatusCode: 200, Body: []byte("{}")}, nil
}

func jsonResult(responseBody string) httpexec.RequestResult {
	return httpexec.RequestResult{StatusCode: 200, Body: []byte(responseBody)}
}

func newTestClient(testInstance *testing.T, executor *scriptedExecutor) *trustxapi.Client {
	testInstance.Helper()
	client, constructionError := trustxapi.NewClient(zap.NewNop(), executor, "https://tenant.trustx.example/", "token-1")
	require.NoError(testInstance, constructionError)
	return client
}

func TestNewClientValidatesCollaborators(testInstance *testing.T) {
	testCases := []struct {
		name          string
		logger        *zap.Logger
		executor      trustxapi.RequestExecutor
		baseURL       string
		bearerToken   string
		expectedError error
	}{
		{name: "missing_logger", logger: nil, executor: &scriptedExecutor{}, baseURL: "https://tenant", bearerToken: "token", expectedError: trustxapi.ErrLoggerNotConfigured},
		{name: "missing_executor", logger: zap.NewNop(), executor: nil, baseURL: "https://tenant", bearerToken: "token", expectedError: trustxapi.ErrExecutorNotConfigured},
		{name: "missing_base_url", logger: zap.NewNop(), executor: &scriptedExecutor{}, baseURL: "  ", bearerToken: "token", expectedError: trustxapi.ErrBaseURLRequired},
		{name: "missing_token", logger: zap.NewNop(), executor: &scriptedExecutor{}, baseURL: "https://tenant", bearerToken: "", expectedError: trustxapi.ErrTokenRequired},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtestInstance *testing.T) {
			client, constructionError := trustxapi.NewClient(testCase.logger, testCase.executor, testCase.baseURL, testCase.bearerToken)

			require.Nil(subtestInstance, client)
			require.ErrorIs(subtestInstance, constructionError, testCase.expectedError)
		})
	}
}

func TestClientSendsAuthenticatedJSONHeaders(testInstance *testing.T) {
	executor := &scriptedExecutor{results: []httpexec.RequestResult{jsonResult(`{"content":[],"last":true}`), jsonResult(`{"id":"cf-new"}`)}}
	client := newTestClient(testInstance, executor)

	_, listError := client.ListAssetVersions(context.Background(), trustxapi.CloudFunctionKind, "score-device", 0, 20)
	require.NoError(testInstance, listError)

	_, createError := client.CreateAsset(context.Background(), trustxapi.CloudFunctionKind, trustxapi.CreateAssetRequest{Name: "score-device"})
	require.NoError(testInstance, createError)

	require.Len(testInstance, executor.recordedRequests, 2)

	listRequest := executor.recordedRequests[0]
	require.Equal(testInstance, "Bearer token-1", listRequest.Headers["Authorization"])
	require.Equal(testInstance, "application/json", listRequest.Headers["Accept"])
	require.NotContains(testInstance, listRequest.Headers, "Content-Type")

	createRequest := executor.recordedRequests[1]
	require.Equal(testInstance, "Bearer token-1", createRequest.Headers["Authorization"])
	require.Equal(testInstance, "application/json", createRequest.Headers["Content-Type"])
}

func TestDownloadResourceOmitsAuthentication(testInstance *testing.T) {
	executor := &scriptedExecutor{results: []httpexec.RequestResult{{StatusCode: 200, Body: []byte("body {}")}}}
	client := newTestClient(testInstance, executor)

	content, downloadError := client.DownloadResource(context.Background(), "https://cdn.trustx.example/styles/main.css")

	require.NoError(testInstance, downloadError)
	require.Equal(testInstance, "body {}", string(content))
	require.Len(testInstance, executor.recordedRequests, 1)
	require.Equal(testInstance, "GET", executor.recordedRequests[0].Method)
	require.Equal(testInstance, "https://cdn.trustx.example/styles/main.css", executor.recordedRequests[0].URL)
	require.Empty(testInstance, executor.recordedRequests[0].Headers)
}
