package trustxapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/OmerShlush/trustx-migration/internal/versions"
)

const (
	pageQueryKey          = "page"
	sizeQueryKey          = "size"
	sortQueryKey          = "sort"
	versionDescendingSort = "version,desc"

	resourceFieldName       = "resource"
	scriptFieldName         = "script"
	formDefinitionFieldName = "formDefinition"

	pythonFunctionType = "PYTHON39V1"

	listAssetVersionsOperation = "list asset versions"
	getAssetDetailOperation    = "get asset detail"
	createAssetOperation       = "create asset"
	activateAssetOperation     = "activate asset"
)

// AssetMetadata is the platform's record of a created or activated asset.
type AssetMetadata struct {
	ID      string
	Name    string
	Version int
	Raw     map[string]any
}

// AssetDetail is a fetched asset detail with its payload resolved into the
// tagged union once.
type AssetDetail struct {
	Payload ResourcePayload
	Raw     map[string]any
}

// CreateAssetRequest carries the kind-specific creation material: Resource
// for cloud functions and data forms, Archive for custom-page bundles.
type CreateAssetRequest struct {
	Name        string
	Description string
	Resource    string
	Archive     []byte
}

// ListAssetVersions fetches one page of an asset's version history, newest
// versions first. A response without a last flag is treated as the last page.
func (client *Client) ListAssetVersions(executionContext context.Context, kind AssetKind, assetName string, pageNumber int, pageSize int) (versions.Page, error) {
	query := map[string]string{
		pageQueryKey: strconv.Itoa(pageNumber),
		sizeQueryKey: strconv.Itoa(pageSize),
		sortQueryKey: versionDescendingSort,
	}

	responseBody, requestError := client.execute(executionContext, http.MethodGet, kind.versionsPath(assetName), query, nil,
		fmt.Sprintf("list %s versions for %s (page %d)", kind, assetName, pageNumber))
	if requestError != nil {
		return versions.Page{}, requestError
	}

	var envelope struct {
		Content []struct {
			ID      string `json:"id"`
			Version int    `json:"version"`
			Status  string `json:"status"`
		} `json:"content"`
		Last *bool `json:"last"`
	}
	if decodeError := json.Unmarshal(responseBody, &envelope); decodeError != nil {
		return versions.Page{}, MalformedPayloadError{Operation: listAssetVersionsOperation, Reason: fmt.Sprintf("response is not valid JSON: %v", decodeError)}
	}

	page := versions.Page{Last: true}
	if envelope.Last != nil {
		page.Last = *envelope.Last
	}
	for _, versionEntry := range envelope.Content {
		page.Records = append(page.Records, versions.Record{
			ID:      versionEntry.ID,
			Version: versionEntry.Version,
			Status:  versionEntry.Status,
		})
	}
	return page, nil
}

// GetAssetDetail fetches an asset's detail document and resolves its resource
// payload. Cloud functions resolve to the script text, data forms to the
// form-definition text, custom pages to the whole structured document.
func (client *Client) GetAssetDetail(executionContext context.Context, kind AssetKind, assetIdentifier string) (AssetDetail, error) {
	responseBody, requestError := client.execute(executionContext, http.MethodGet, kind.itemPath(assetIdentifier), nil, nil,
		fmt.Sprintf("fetch %s detail", kind))
	if requestError != nil {
		return AssetDetail{}, requestError
	}

	var rawDocument map[string]any
	if decodeError := json.Unmarshal(responseBody, &rawDocument); decodeError != nil {
		return AssetDetail{}, MalformedPayloadError{Operation: getAssetDetailOperation, Reason: fmt.Sprintf("response is not valid JSON: %v", decodeError)}
	}

	resolvedPayload, resolveError := resolveResourcePayload(kind, rawDocument)
	if resolveError != nil {
		return AssetDetail{}, resolveError
	}
	return AssetDetail{Payload: resolvedPayload, Raw: rawDocument}, nil
}

// resolveResourcePayload applies the per-kind payload shape rules at the
// client boundary.
func resolveResourcePayload(kind AssetKind, rawDocument map[string]any) (ResourcePayload, error) {
	if kind == CustomPageKind {
		return StructuredPayload(rawDocument), nil
	}

	resourceValue, resourcePresent := rawDocument[resourceFieldName]
	if !resourcePresent || resourceValue == nil {
		return ResourcePayload{}, MalformedPayloadError{Operation: getAssetDetailOperation, Reason: fmt.Sprintf("%s field missing in %s detail", resourceFieldName, kind)}
	}

	switch typedResource := resourceValue.(type) {
	case string:
		return RawTextPayload(typedResource), nil
	case map[string]any:
		innerFieldName := scriptFieldName
		if kind == CustomFormKind {
			innerFieldName = formDefinitionFieldName
		}
		innerText, innerIsText := typedResource[innerFieldName].(string)
		if !innerIsText || len(innerText) == 0 {
			return ResourcePayload{}, MalformedPayloadError{Operation: getAssetDetailOperation, Reason: fmt.Sprintf("%s document missing %s in %s detail", resourceFieldName, innerFieldName, kind)}
		}
		return RawTextPayload(innerText), nil
	default:
		return ResourcePayload{}, MalformedPayloadError{Operation: getAssetDetailOperation, Reason: fmt.Sprintf("%s field has unexpected shape in %s detail", resourceFieldName, kind)}
	}
}

// CreateAsset creates an asset on the tenant in its editable state.
func (client *Client) CreateAsset(executionContext context.Context, kind AssetKind, request CreateAssetRequest) (AssetMetadata, error) {
	payload := map[string]any{
		"name":        request.Name,
		"description": request.Description,
	}
	switch kind {
	case CloudFunctionKind:
		payload["status"] = editableStatus
		payload["type"] = pythonFunctionType
		payload[resourceFieldName] = request.Resource
	case CustomFormKind:
		payload["status"] = editableStatus
		payload[resourceFieldName] = request.Resource
		payload["creationOption"] = saveAndDeployOption
	case CustomPageKind:
		payload["archive"] = base64.StdEncoding.EncodeToString(request.Archive)
		payload["creationOption"] = saveAndDeployOption
	}

	responseBody, requestError := client.execute(executionContext, http.MethodPost, kind.collectionPath(), nil, payload,
		fmt.Sprintf("create %s %s", kind, request.Name))
	if requestError != nil {
		return AssetMetadata{}, requestError
	}

	envelope, rawDocument, decodeError := decodeMetadataEnvelope(createAssetOperation, responseBody, true)
	if decodeError != nil {
		return AssetMetadata{}, decodeError
	}
	return AssetMetadata{ID: envelope.ID, Name: envelope.Name, Version: envelope.Version, Raw: rawDocument}, nil
}

// ActivateAsset promotes a created asset to deployed-active. Custom pages
// post their created metadata back as the activation body; other kinds post
// an empty object.
func (client *Client) ActivateAsset(executionContext context.Context, kind AssetKind, assetIdentifier string, activationBody map[string]any) (AssetMetadata, error) {
	if activationBody == nil {
		activationBody = map[string]any{}
	}

	responseBody, requestError := client.execute(executionContext, http.MethodPost, kind.activationPath(assetIdentifier), nil, activationBody,
		fmt.Sprintf("activate %s %s", kind, assetIdentifier))
	if requestError != nil {
		return AssetMetadata{}, requestError
	}

	envelope, rawDocument, decodeError := decodeMetadataEnvelope(activateAssetOperation, responseBody, false)
	if decodeError != nil {
		return AssetMetadata{}, decodeError
	}
	return AssetMetadata{ID: envelope.ID, Name: envelope.Name, Version: envelope.Version, Raw: rawDocument}, nil
}
