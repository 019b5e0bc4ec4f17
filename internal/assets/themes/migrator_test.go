package themes_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/OmerShlush/trustx-migration/internal/assets/themes"
	"github.com/OmerShlush/trustx-migration/internal/staging"
	"github.com/OmerShlush/trustx-migration/internal/trustxapi"
)

const (
	logoAssetURL = "https://cdn.trustx.example/themes/th-9/logo.png"
	fontAssetURL = "https://cdn.trustx.example/themes/th-9/brand-font.ttf"
)

type scriptedThemeReader struct {
	document trustxapi.ThemeDocument
	failure  error

	recordedIdentifier string
}

func (reader *scriptedThemeReader) GetTheme(_ context.Context, themeIdentifier string) (trustxapi.ThemeDocument, error) {
	reader.recordedIdentifier = themeIdentifier
	if reader.failure != nil {
		return trustxapi.ThemeDocument{}, reader.failure
	}
	return reader.document, nil
}

type scriptedDownloader struct {
	responses map[string][]byte
	failures  map[string]error
}

func (downloader *scriptedDownloader) DownloadResource(_ context.Context, absoluteURL string) ([]byte, error) {
	if failure, failurePresent := downloader.failures[absoluteURL]; failurePresent {
		return nil, failure
	}
	content, contentPresent := downloader.responses[absoluteURL]
	if !contentPresent {
		return nil, fmt.Errorf("no scripted response for %s", absoluteURL)
	}
	return content, nil
}

type scriptedThemeWriter struct {
	createdMetadata   trustxapi.AssetMetadata
	createFailure     error
	activatedMetadata trustxapi.AssetMetadata
	uploadFailures    map[string]error

	recordedCreateRequest  trustxapi.CreateThemeRequest
	recordedUploads        []trustxapi.ThemeAssetUpload
	recordedUploadThemeID  string
	recordedUpdateThemeID  string
	recordedUpdateDocument map[string]any
	recordedActivateID     string
}

func (writer *scriptedThemeWriter) CreateTheme(_ context.Context, request trustxapi.CreateThemeRequest) (trustxapi.AssetMetadata, error) {
	writer.recordedCreateRequest = request
	if writer.createFailure != nil {
		return trustxapi.AssetMetadata{}, writer.createFailure
	}
	return writer.createdMetadata, nil
}

func (writer *scriptedThemeWriter) UploadThemeAsset(_ context.Context, themeIdentifier string, upload trustxapi.ThemeAssetUpload) error {
	writer.recordedUploadThemeID = themeIdentifier
	writer.recordedUploads = append(writer.recordedUploads, upload)
	return writer.uploadFailures[upload.Name]
}

func (writer *scriptedThemeWriter) UpdateTheme(_ context.Context, themeIdentifier string, themeDocument map[string]any) error {
	writer.recordedUpdateThemeID = themeIdentifier
	writer.recordedUpdateDocument = themeDocument
	return nil
}

func (writer *scriptedThemeWriter) ActivateTheme(_ context.Context, themeIdentifier string) (trustxapi.AssetMetadata, error) {
	writer.recordedActivateID = themeIdentifier
	return writer.activatedMetadata, nil
}

func sourceThemeDocument() trustxapi.ThemeDocument {
	return trustxapi.ThemeDocument{
		ID:          "th-9",
		Name:        "midnight",
		Description: "dark checkout styling",
		Version:     4,
		Palette:     map[string]any{"primary": "#222222"},
		AssetURLs:   []string{logoAssetURL, fontAssetURL},
		Raw: map[string]any{
			"id":      "th-9",
			"name":    "midnight",
			"version": float64(4),
			"palette": map[string]any{"primary": "#222222"},
		},
	}
}

func TestMigratorFetchStagesDocumentAndAssets(testInstance *testing.T) {
	reader := &scriptedThemeReader{document: sourceThemeDocument()}
	downloader := &scriptedDownloader{responses: map[string][]byte{
		logoAssetURL: {0x89, 0x50, 0x4e, 0x47},
		fontAssetURL: {0x00, 0x01, 0x00, 0x00},
	}}
	workspace := staging.NewWorkspace(testInstance.TempDir())
	migrator := themes.NewMigrator(themes.Dependencies{
		Reader:     reader,
		Downloader: downloader,
		Writer:     &scriptedThemeWriter{},
		Workspace:  workspace,
	})

	staged, fetchError := migrator.Fetch(context.Background(), "th-9")

	require.NoError(testInstance, fetchError)
	require.Equal(testInstance, "th-9", reader.recordedIdentifier)
	require.Equal(testInstance, workspace.ThemeDocumentPath("midnight", "th-9", 4), staged.DocumentPath)
	require.Equal(testInstance, workspace.ThemeAssetsDirectory("midnight", "th-9", 4), staged.AssetsDirectory)

	documentContent, documentReadError := workspace.ReadFile(staged.DocumentPath)
	require.NoError(testInstance, documentReadError)
	require.JSONEq(testInstance,
		`{"id":"th-9","name":"midnight","version":4,"palette":{"primary":"#222222"}}`,
		string(documentContent))

	logoContent, logoReadError := os.ReadFile(filepath.Join(staged.AssetsDirectory, "logo.png"))
	require.NoError(testInstance, logoReadError)
	require.Equal(testInstance, []byte{0x89, 0x50, 0x4e, 0x47}, logoContent)
	_, fontStatError := os.Stat(filepath.Join(staged.AssetsDirectory, "brand-font.ttf"))
	require.NoError(testInstance, fontStatError)
}

func TestMigratorFetchSkipsFailingAssets(testInstance *testing.T) {
	reader := &scriptedThemeReader{document: sourceThemeDocument()}
	downloader := &scriptedDownloader{
		responses: map[string][]byte{fontAssetURL: {0x00, 0x01, 0x00, 0x00}},
		failures:  map[string]error{logoAssetURL: errors.New("upstream returned 404")},
	}
	observedCore, observedLogs := observer.New(zap.WarnLevel)
	workspace := staging.NewWorkspace(testInstance.TempDir())
	migrator := themes.NewMigrator(themes.Dependencies{
		Logger:     zap.New(observedCore),
		Reader:     reader,
		Downloader: downloader,
		Writer:     &scriptedThemeWriter{},
		Workspace:  workspace,
	})

	staged, fetchError := migrator.Fetch(context.Background(), "th-9")

	require.NoError(testInstance, fetchError)
	_, logoStatError := os.Stat(filepath.Join(staged.AssetsDirectory, "logo.png"))
	require.Error(testInstance, logoStatError)
	_, fontStatError := os.Stat(filepath.Join(staged.AssetsDirectory, "brand-font.ttf"))
	require.NoError(testInstance, fontStatError)

	warnEntries := observedLogs.FilterMessage("failed to download theme asset").All()
	require.Len(testInstance, warnEntries, 1)
	require.Equal(testInstance, logoAssetURL, warnEntries[0].ContextMap()["url"])
}

func TestMigratorFetchStagesThemesWithoutAssets(testInstance *testing.T) {
	document := sourceThemeDocument()
	document.AssetURLs = nil
	reader := &scriptedThemeReader{document: document}
	workspace := staging.NewWorkspace(testInstance.TempDir())
	migrator := themes.NewMigrator(themes.Dependencies{
		Reader:     reader,
		Downloader: &scriptedDownloader{},
		Writer:     &scriptedThemeWriter{},
		Workspace:  workspace,
	})

	staged, fetchError := migrator.Fetch(context.Background(), "th-9")

	require.NoError(testInstance, fetchError)
	directoryEntries, readError := os.ReadDir(staged.AssetsDirectory)
	require.NoError(testInstance, readError)
	require.Empty(testInstance, directoryEntries)
}

func stageThemeForPush(testInstance *testing.T, workspace *staging.Workspace) themes.StagedTheme {
	document := sourceThemeDocument()
	assetsDirectory := workspace.ThemeAssetsDirectory(document.Name, document.ID, document.Version)
	require.NoError(testInstance, workspace.WriteFile(filepath.Join(assetsDirectory, "logo.png"), []byte{0x89, 0x50, 0x4e, 0x47}))
	require.NoError(testInstance, workspace.WriteFile(filepath.Join(assetsDirectory, "brand-font.ttf"), []byte{0x00, 0x01, 0x00, 0x00}))

	return themes.StagedTheme{
		Document:        document,
		DocumentPath:    workspace.ThemeDocumentPath(document.Name, document.ID, document.Version),
		AssetsDirectory: assetsDirectory,
	}
}

func TestMigratorPushRunsCreateUploadUpdateActivate(testInstance *testing.T) {
	activationDocument := map[string]any{"id": "th-new", "name": "midnight", "version": float64(1), "status": "DEPLOYED_ACTIVE"}
	writer := &scriptedThemeWriter{
		createdMetadata:   trustxapi.AssetMetadata{ID: "th-new", Name: "midnight", Version: 1},
		activatedMetadata: trustxapi.AssetMetadata{ID: "th-new", Name: "midnight", Version: 1, Raw: activationDocument},
	}
	workspace := staging.NewWorkspace(testInstance.TempDir())
	migrator := themes.NewMigrator(themes.Dependencies{
		Reader:     &scriptedThemeReader{},
		Downloader: &scriptedDownloader{},
		Writer:     writer,
		Workspace:  workspace,
	})
	staged := stageThemeForPush(testInstance, workspace)

	outcome, pushError := migrator.Push(context.Background(), staged)

	require.NoError(testInstance, pushError)
	require.Equal(testInstance, trustxapi.CreateThemeRequest{
		Name:        "midnight",
		Description: "dark checkout styling",
		Palette:     map[string]any{"primary": "#222222"},
	}, writer.recordedCreateRequest)

	// staged files upload in lexical order
	require.Len(testInstance, writer.recordedUploads, 2)
	require.Equal(testInstance, trustxapi.ThemeAssetUpload{
		Name:          "brand-font",
		ContentType:   "font/ttf",
		FileExtension: "ttf",
		Content:       []byte{0x00, 0x01, 0x00, 0x00},
	}, writer.recordedUploads[0])
	require.Equal(testInstance, trustxapi.ThemeAssetUpload{
		Name:          "logo",
		ContentType:   "image/png",
		FileExtension: "png",
		Content:       []byte{0x89, 0x50, 0x4e, 0x47},
	}, writer.recordedUploads[1])
	require.Equal(testInstance, "th-new", writer.recordedUploadThemeID)

	require.Equal(testInstance, "th-new", writer.recordedUpdateThemeID)
	require.Equal(testInstance, "th-new", writer.recordedUpdateDocument["id"])
	require.Equal(testInstance, "midnight", writer.recordedUpdateDocument["name"])
	require.Equal(testInstance, "th-9", staged.Document.Raw["id"])

	require.Equal(testInstance, "th-new", writer.recordedActivateID)
	require.Equal(testInstance, "th-new", outcome.ID)
	require.Equal(testInstance, 1, outcome.Version)

	snapshotContent, snapshotReadError := workspace.ReadFile(workspace.ResultPath("midnight"))
	require.NoError(testInstance, snapshotReadError)
	require.JSONEq(testInstance,
		`{"id":"th-new","name":"midnight","version":1,"status":"DEPLOYED_ACTIVE"}`,
		string(snapshotContent))
}

func TestMigratorPushContinuesAfterUploadFailure(testInstance *testing.T) {
	writer := &scriptedThemeWriter{
		createdMetadata:   trustxapi.AssetMetadata{ID: "th-new", Name: "midnight", Version: 1},
		activatedMetadata: trustxapi.AssetMetadata{ID: "th-new", Name: "midnight", Version: 1},
		uploadFailures:    map[string]error{"logo": errors.New("asset store rejected the file")},
	}
	observedCore, observedLogs := observer.New(zap.WarnLevel)
	workspace := staging.NewWorkspace(testInstance.TempDir())
	migrator := themes.NewMigrator(themes.Dependencies{
		Logger:     zap.New(observedCore),
		Reader:     &scriptedThemeReader{},
		Downloader: &scriptedDownloader{},
		Writer:     writer,
		Workspace:  workspace,
	})
	staged := stageThemeForPush(testInstance, workspace)

	outcome, pushError := migrator.Push(context.Background(), staged)

	require.NoError(testInstance, pushError)
	require.Equal(testInstance, "th-new", outcome.ID)
	require.Equal(testInstance, "th-new", writer.recordedUpdateThemeID)
	require.Equal(testInstance, "th-new", writer.recordedActivateID)

	warnEntries := observedLogs.FilterMessage("failed to upload theme asset").All()
	require.Len(testInstance, warnEntries, 1)
	require.Equal(testInstance, "logo.png", warnEntries[0].ContextMap()["file"])
}

func TestMigratorPushStopsAfterCreateFailure(testInstance *testing.T) {
	createFailure := errors.New("palette rejected")
	writer := &scriptedThemeWriter{createFailure: createFailure}
	workspace := staging.NewWorkspace(testInstance.TempDir())
	migrator := themes.NewMigrator(themes.Dependencies{
		Reader:     &scriptedThemeReader{},
		Downloader: &scriptedDownloader{},
		Writer:     writer,
		Workspace:  workspace,
	})
	staged := stageThemeForPush(testInstance, workspace)

	_, pushError := migrator.Push(context.Background(), staged)

	require.ErrorIs(testInstance, pushError, createFailure)
	require.Empty(testInstance, writer.recordedUploads)
}
