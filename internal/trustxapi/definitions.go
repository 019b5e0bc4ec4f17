package trustxapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/OmerShlush/trustx-migration/internal/versions"
)

const (
	processDefinitionsPath = processManagerServicePrefix + "/processDefinitions"

	serverTypeP1               = "P1"
	verificationDefinitionType = "VERIFICATION"
	bpmnResourceType           = "BPMN"

	getProcessDefinitionOperation      = "get process definition"
	createProcessDefinitionOperation   = "create process definition"
	activateProcessDefinitionOperation = "activate process definition"
)

// ProcessDefinition is a fetched source definition with its embedded document
// already base64-decoded.
type ProcessDefinition struct {
	ID       string
	Name     string
	ThemeID  string
	Document []byte
	Raw      map[string]any
}

// ProcessDefinitionMetadata is the platform's record of a created or
// activated definition.
type ProcessDefinitionMetadata struct {
	ID      string
	Name    string
	Version int
	Raw     map[string]any
}

// CreateProcessDefinitionRequest carries everything needed to re-create a
// definition on the destination tenant. Document holds raw BPMN bytes; the
// client encodes them for transport. ThemeID is optional.
type CreateProcessDefinitionRequest struct {
	Name        string
	Description string
	Document    []byte
	ThemeID     string
}

// GetProcessDefinition fetches a definition and decodes its embedded BPMN
// document. A missing or undecodable document is a malformed payload.
func (client *Client) GetProcessDefinition(executionContext context.Context, definitionIdentifier string) (ProcessDefinition, error) {
	responseBody, requestError := client.execute(executionContext, http.MethodGet,
		processDefinitionsPath+"/"+url.PathEscape(definitionIdentifier), nil, nil,
		"fetch process definition "+definitionIdentifier)
	if requestError != nil {
		return ProcessDefinition{}, requestError
	}

	var envelope struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		ThemeID   string `json:"themeId"`
		Resources struct {
			BPMN struct {
				Data string `json:"data"`
			} `json:"bpmn"`
		} `json:"resources"`
	}
	if decodeError := json.Unmarshal(responseBody, &envelope); decodeError != nil {
		return ProcessDefinition{}, MalformedPayloadError{Operation: getProcessDefinitionOperation, Reason: fmt.Sprintf("response is not valid JSON: %v", decodeError)}
	}
	if len(envelope.Resources.BPMN.Data) == 0 {
		return ProcessDefinition{}, MalformedPayloadError{Operation: getProcessDefinitionOperation, Reason: "embedded bpmn document missing"}
	}

	decodedDocument, base64Error := base64.StdEncoding.DecodeString(envelope.Resources.BPMN.Data)
	if base64Error != nil {
		return ProcessDefinition{}, MalformedPayloadError{Operation: getProcessDefinitionOperation, Reason: fmt.Sprintf("embedded bpmn document is not valid base64: %v", base64Error)}
	}

	var rawDocument map[string]any
	if decodeError := json.Unmarshal(responseBody, &rawDocument); decodeError != nil {
		return ProcessDefinition{}, MalformedPayloadError{Operation: getProcessDefinitionOperation, Reason: fmt.Sprintf("response is not a JSON document: %v", decodeError)}
	}

	definitionID := envelope.ID
	if len(definitionID) == 0 {
		definitionID = definitionIdentifier
	}

	return ProcessDefinition{
		ID:       definitionID,
		Name:     envelope.Name,
		ThemeID:  envelope.ThemeID,
		Document: decodedDocument,
		Raw:      rawDocument,
	}, nil
}

// CreateProcessDefinition creates an editable definition on the tenant with
// the supplied document embedded.
func (client *Client) CreateProcessDefinition(executionContext context.Context, request CreateProcessDefinitionRequest) (ProcessDefinitionMetadata, error) {
	payload := map[string]any{
		"name":        request.Name,
		"description": request.Description,
		"serverType":  serverTypeP1,
		"resources": map[string]any{
			"bpmn": map[string]any{
				"data": base64.StdEncoding.EncodeToString(request.Document),
				"type": bpmnResourceType,
			},
		},
		"processDefinitionType": verificationDefinitionType,
		"attributes":            map[string]any{"searchable": true},
	}
	if len(request.ThemeID) > 0 {
		payload["themeId"] = request.ThemeID
	}

	responseBody, requestError := client.execute(executionContext, http.MethodPost, processDefinitionsPath, nil, payload,
		"create process definition "+request.Name)
	if requestError != nil {
		return ProcessDefinitionMetadata{}, requestError
	}

	envelope, rawDocument, decodeError := decodeMetadataEnvelope(createProcessDefinitionOperation, responseBody, true)
	if decodeError != nil {
		return ProcessDefinitionMetadata{}, decodeError
	}
	return ProcessDefinitionMetadata{ID: envelope.ID, Name: envelope.Name, Version: envelope.Version, Raw: rawDocument}, nil
}

// ActivateProcessDefinition promotes a created definition to deployed-active,
// posting the created metadata back as the activation body.
func (client *Client) ActivateProcessDefinition(executionContext context.Context, definitionIdentifier string, createdMetadata map[string]any) (ProcessDefinitionMetadata, error) {
	if createdMetadata == nil {
		createdMetadata = map[string]any{}
	}

	responseBody, requestError := client.execute(executionContext, http.MethodPost,
		processDefinitionsPath+"/"+url.PathEscape(definitionIdentifier)+"/status/"+versions.DeployedActiveStatus, nil, createdMetadata,
		"activate process definition "+definitionIdentifier)
	if requestError != nil {
		return ProcessDefinitionMetadata{}, requestError
	}

	envelope, rawDocument, decodeError := decodeMetadataEnvelope(activateProcessDefinitionOperation, responseBody, false)
	if decodeError != nil {
		return ProcessDefinitionMetadata{}, decodeError
	}
	return ProcessDefinitionMetadata{ID: envelope.ID, Name: envelope.Name, Version: envelope.Version, Raw: rawDocument}, nil
}
