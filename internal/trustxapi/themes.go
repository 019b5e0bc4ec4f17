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
	themesPath = themeServerServicePrefix + "/themes"

	defaultThemeName = "theme"

	getThemeOperation      = "get theme"
	createThemeOperation   = "create theme"
	activateThemeOperation = "activate theme"
)

// ThemeDocument is the full theme definition fetched from the source tenant.
// AssetURLs lists the downloadable global asset files referenced by the
// document; entries without a path are dropped.
type ThemeDocument struct {
	ID          string
	Name        string
	Description string
	Version     int
	Palette     any
	AssetURLs   []string
	Raw         map[string]any
}

// CreateThemeRequest is the minimal envelope a theme is created from; the
// full document is applied afterwards by UpdateTheme.
type CreateThemeRequest struct {
	Name        string
	Description string
	Palette     any
}

// ThemeAssetUpload carries one theme asset file for upload.
type ThemeAssetUpload struct {
	Name          string
	ContentType   string
	FileExtension string
	Content       []byte
}

// GetTheme fetches a theme with all its constituent parts.
func (client *Client) GetTheme(executionContext context.Context, themeIdentifier string) (ThemeDocument, error) {
	responseBody, requestError := client.execute(executionContext, http.MethodGet,
		themesPath+"/"+url.PathEscape(themeIdentifier)+"/all", nil, nil,
		"fetch theme "+themeIdentifier)
	if requestError != nil {
		return ThemeDocument{}, requestError
	}

	var envelope struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Version     int    `json:"version"`
	}
	if decodeError := json.Unmarshal(responseBody, &envelope); decodeError != nil {
		return ThemeDocument{}, MalformedPayloadError{Operation: getThemeOperation, Reason: fmt.Sprintf("response is not valid JSON: %v", decodeError)}
	}

	var rawDocument map[string]any
	if decodeError := json.Unmarshal(responseBody, &rawDocument); decodeError != nil {
		return ThemeDocument{}, MalformedPayloadError{Operation: getThemeOperation, Reason: fmt.Sprintf("response is not a JSON document: %v", decodeError)}
	}

	themeName := envelope.Name
	if len(themeName) == 0 {
		themeName = defaultThemeName
	}
	themeID := envelope.ID
	if len(themeID) == 0 {
		themeID = themeIdentifier
	}

	return ThemeDocument{
		ID:          themeID,
		Name:        themeName,
		Description: envelope.Description,
		Version:     envelope.Version,
		Palette:     rawDocument["palette"],
		AssetURLs:   globalAssetURLs(rawDocument),
		Raw:         rawDocument,
	}, nil
}

// globalAssetURLs walks raw["assets"]["global"] and collects the path of
// every entry that has one.
func globalAssetURLs(rawDocument map[string]any) []string {
	assetsValue, assetsPresent := rawDocument["assets"].(map[string]any)
	if !assetsPresent {
		return nil
	}
	globalEntries, globalPresent := assetsValue["global"].([]any)
	if !globalPresent {
		return nil
	}

	var assetURLs []string
	for _, entryValue := range globalEntries {
		entryDocument, entryIsDocument := entryValue.(map[string]any)
		if !entryIsDocument {
			continue
		}
		assetPath, pathIsText := entryDocument["path"].(string)
		if !pathIsText || len(assetPath) == 0 {
			continue
		}
		assetURLs = append(assetURLs, assetPath)
	}
	return assetURLs
}

// CreateTheme creates an editable theme from the minimal envelope.
func (client *Client) CreateTheme(executionContext context.Context, request CreateThemeRequest) (AssetMetadata, error) {
	payload := map[string]any{
		"palette":     request.Palette,
		"status":      editableStatus,
		"description": request.Description,
		"name":        request.Name,
	}

	responseBody, requestError := client.execute(executionContext, http.MethodPost, themesPath, nil, payload,
		"create theme "+request.Name)
	if requestError != nil {
		return AssetMetadata{}, requestError
	}

	envelope, rawDocument, decodeError := decodeMetadataEnvelope(createThemeOperation, responseBody, true)
	if decodeError != nil {
		return AssetMetadata{}, decodeError
	}
	return AssetMetadata{ID: envelope.ID, Name: envelope.Name, Version: envelope.Version, Raw: rawDocument}, nil
}

// UploadThemeAsset uploads one asset file to a created theme.
func (client *Client) UploadThemeAsset(executionContext context.Context, themeIdentifier string, upload ThemeAssetUpload) error {
	payload := map[string]any{
		"name":          upload.Name,
		"contentType":   upload.ContentType,
		"fileExtension": upload.FileExtension,
		"assetResource": base64.StdEncoding.EncodeToString(upload.Content),
	}

	_, requestError := client.execute(executionContext, http.MethodPost,
		themesPath+"/"+url.PathEscape(themeIdentifier)+"/assets/", nil, payload,
		fmt.Sprintf("upload theme asset %s", upload.Name))
	return requestError
}

// UpdateTheme applies the full theme document to a created theme.
func (client *Client) UpdateTheme(executionContext context.Context, themeIdentifier string, themeDocument map[string]any) error {
	_, requestError := client.execute(executionContext, http.MethodPost,
		themesPath+"/"+url.PathEscape(themeIdentifier), nil, themeDocument,
		"update theme "+themeIdentifier)
	return requestError
}

// ActivateTheme promotes a created theme to deployed-active.
func (client *Client) ActivateTheme(executionContext context.Context, themeIdentifier string) (AssetMetadata, error) {
	responseBody, requestError := client.execute(executionContext, http.MethodPost,
		themesPath+"/"+url.PathEscape(themeIdentifier)+"/status/"+versions.DeployedActiveStatus, nil, map[string]any{},
		"activate theme "+themeIdentifier)
	if requestError != nil {
		return AssetMetadata{}, requestError
	}

	envelope, rawDocument, decodeError := decodeMetadataEnvelope(activateThemeOperation, responseBody, false)
	if decodeError != nil {
		return AssetMetadata{}, decodeError
	}
	return AssetMetadata{ID: envelope.ID, Name: envelope.Name, Version: envelope.Version, Raw: rawDocument}, nil
}
