package trustxapi_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OmerShlush/trustx-migration/internal/httpexec"
	"github.com/OmerShlush/trustx-migration/internal/trustxapi"
)

func TestGetProcessDefinitionDecodesEmbeddedDocument(testInstance *testing.T) {
	documentXML := `<?xml version="1.0"?><definitions/>`
	encodedDocument := base64.StdEncoding.EncodeToString([]byte(documentXML))
	executor := &scriptedExecutor{results: []httpexec.RequestResult{jsonResult(fmt.Sprintf(
		`{"id":"pd-1","name":"device-verification","themeId":"th-9","resources":{"bpmn":{"data":%q,"type":"BPMN"}}}`, encodedDocument))}}
	client := newTestClient(testInstance, executor)

	definition, fetchError := client.GetProcessDefinition(context.Background(), "pd-1")

	require.NoError(testInstance, fetchError)
	require.Equal(testInstance, "pd-1", definition.ID)
	require.Equal(testInstance, "device-verification", definition.Name)
	require.Equal(testInstance, "th-9", definition.ThemeID)
	require.Equal(testInstance, documentXML, string(definition.Document))
	require.Equal(testInstance, "device-verification", definition.Raw["name"])

	require.Len(testInstance, executor.recordedRequests, 1)
	require.Equal(testInstance, "GET", executor.recordedRequests[0].Method)
	require.Equal(testInstance, "https://tenant.trustx.example/api/process-manager/processDefinitions/pd-1", executor.recordedRequests[0].URL)
}

func TestGetProcessDefinitionRejectsMalformedResponses(testInstance *testing.T) {
	testCases := []struct {
		name           string
		responseBody   string
		expectedReason string
	}{
		{name: "document_missing", responseBody: `{"id":"pd-1","name":"device-verification"}`, expectedReason: "embedded bpmn document missing"},
		{name: "document_not_base64", responseBody: `{"resources":{"bpmn":{"data":"%%not-base64%%"}}}`, expectedReason: "not valid base64"},
		{name: "response_not_json", responseBody: `<html>gateway</html>`, expectedReason: "not valid JSON"},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtestInstance *testing.T) {
			executor := &scriptedExecutor{results: []httpexec.RequestResult{jsonResult(testCase.responseBody)}}
			client := newTestClient(subtestInstance, executor)

			_, fetchError := client.GetProcessDefinition(context.Background(), "pd-1")

			var malformedError trustxapi.MalformedPayloadError
			require.ErrorAs(subtestInstance, fetchError, &malformedError)
			require.Contains(subtestInstance, malformedError.Reason, testCase.expectedReason)
		})
	}
}

func TestCreateProcessDefinitionBuildsPayload(testInstance *testing.T) {
	executor := &scriptedExecutor{results: []httpexec.RequestResult{jsonResult(`{"id":"pd-new","name":"device-verification","version":1}`)}}
	client := newTestClient(testInstance, executor)
	documentBytes := []byte(`<?xml version="1.0"?><definitions/>`)

	createdMetadata, createError := client.CreateProcessDefinition(context.Background(), trustxapi.CreateProcessDefinitionRequest{
		Name:     "device-verification",
		Document: documentBytes,
		ThemeID:  "th-new",
	})

	require.NoError(testInstance, createError)
	require.Equal(testInstance, "pd-new", createdMetadata.ID)
	require.Equal(testInstance, 1, createdMetadata.Version)

	require.Len(testInstance, executor.recordedRequests, 1)
	recordedRequest := executor.recordedRequests[0]
	require.Equal(testInstance, "POST", recordedRequest.Method)
	require.Equal(testInstance, "https://tenant.trustx.example/api/process-manager/processDefinitions", recordedRequest.URL)

	var recordedPayload map[string]any
	require.NoError(testInstance, json.Unmarshal(recordedRequest.Body, &recordedPayload))
	require.Equal(testInstance, map[string]any{
		"name":        "device-verification",
		"description": "",
		"serverType":  "P1",
		"resources": map[string]any{
			"bpmn": map[string]any{
				"data": base64.StdEncoding.EncodeToString(documentBytes),
				"type": "BPMN",
			},
		},
		"processDefinitionType": "VERIFICATION",
		"attributes":            map[string]any{"searchable": true},
		"themeId":               "th-new",
	}, recordedPayload)
}

func TestCreateProcessDefinitionOmitsAbsentTheme(testInstance *testing.T) {
	executor := &scriptedExecutor{results: []httpexec.RequestResult{jsonResult(`{"id":"pd-new"}`)}}
	client := newTestClient(testInstance, executor)

	_, createError := client.CreateProcessDefinition(context.Background(), trustxapi.CreateProcessDefinitionRequest{
		Name:     "device-verification",
		Document: []byte("<definitions/>"),
	})

	require.NoError(testInstance, createError)
	var recordedPayload map[string]any
	require.NoError(testInstance, json.Unmarshal(executor.recordedRequests[0].Body, &recordedPayload))
	require.NotContains(testInstance, recordedPayload, "themeId")
}

func TestCreateProcessDefinitionRequiresIdentifier(testInstance *testing.T) {
	executor := &scriptedExecutor{results: []httpexec.RequestResult{jsonResult(`{"name":"device-verification"}`)}}
	client := newTestClient(testInstance, executor)

	_, createError := client.CreateProcessDefinition(context.Background(), trustxapi.CreateProcessDefinitionRequest{
		Name:     "device-verification",
		Document: []byte("<definitions/>"),
	})

	var malformedError trustxapi.MalformedPayloadError
	require.ErrorAs(testInstance, createError, &malformedError)
	require.Contains(testInstance, malformedError.Reason, "did not contain an id")
}

func TestActivateProcessDefinitionPostsCreatedMetadata(testInstance *testing.T) {
	executor := &scriptedExecutor{results: []httpexec.RequestResult{jsonResult(`{"id":"pd-new","name":"device-verification","version":1,"status":"DEPLOYED_ACTIVE"}`)}}
	client := newTestClient(testInstance, executor)
	createdMetadata := map[string]any{"id": "pd-new", "name": "device-verification", "version": float64(1)}

	activatedMetadata, activateError := client.ActivateProcessDefinition(context.Background(), "pd-new", createdMetadata)

	require.NoError(testInstance, activateError)
	require.Equal(testInstance, "pd-new", activatedMetadata.ID)
	require.Equal(testInstance, "DEPLOYED_ACTIVE", activatedMetadata.Raw["status"])

	recordedRequest := executor.recordedRequests[0]
	require.Equal(testInstance, "https://tenant.trustx.example/api/process-manager/processDefinitions/pd-new/status/DEPLOYED_ACTIVE", recordedRequest.URL)

	var recordedPayload map[string]any
	require.NoError(testInstance, json.Unmarshal(recordedRequest.Body, &recordedPayload))
	require.Equal(testInstance, createdMetadata, recordedPayload)
}
