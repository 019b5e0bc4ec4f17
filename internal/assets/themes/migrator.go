// Package themes migrates the theme linked to a process definition: the full
// theme document plus its downloadable asset files, recreated on the
// destination tenant through the create, upload, update, activate sequence.
package themes

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/OmerShlush/trustx-migration/internal/assets/shared"
	"github.com/OmerShlush/trustx-migration/internal/staging"
	"github.com/OmerShlush/trustx-migration/internal/trustxapi"
)

const (
	identifierFieldName = "id"

	fontNameMarker         = "font"
	fontContentType        = "font/ttf"
	imageContentTypePrefix = "image/"

	themeStagedMessage           = "staged theme"
	themeMigratedMessage         = "migrated theme"
	themeAssetFailedWarnMessage  = "failed to download theme asset"
	themeUploadFailedWarnMessage = "failed to upload theme asset"

	nameLogField       = "name"
	identifierLogField = "id"
	versionLogField    = "version"
	pathLogField       = "path"
	urlLogField        = "url"
	fileLogField       = "file"
)

// Dependencies captures the collaborators the theme migrator needs.
type Dependencies struct {
	Logger     *zap.Logger
	Reader     shared.ThemeReader
	Downloader shared.ResourceDownloader
	Writer     shared.ThemeWriter
	Workspace  *staging.Workspace
}

// StagedTheme is one fetched theme: the staged document plus the directory of
// downloaded asset files.
type StagedTheme struct {
	Document        trustxapi.ThemeDocument
	DocumentPath    string
	AssetsDirectory string
}

// Migrator fetches and pushes themes.
type Migrator struct {
	dependencies Dependencies
}

// NewMigrator constructs a Migrator.
func NewMigrator(dependencies Dependencies) *Migrator {
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	return &Migrator{dependencies: dependencies}
}

// Fetch loads the full theme document from the source tenant, stages it, and
// downloads its asset files next to it. Assets that cannot be downloaded are
// logged and skipped.
func (migrator *Migrator) Fetch(executionContext context.Context, themeIdentifier string) (StagedTheme, error) {
	themeDocument, fetchError := migrator.dependencies.Reader.GetTheme(executionContext, themeIdentifier)
	if fetchError != nil {
		return StagedTheme{}, fetchError
	}

	workspace := migrator.dependencies.Workspace
	documentPath := workspace.ThemeDocumentPath(themeDocument.Name, themeDocument.ID, themeDocument.Version)
	if writeError := workspace.WriteJSON(documentPath, themeDocument.Raw); writeError != nil {
		return StagedTheme{}, writeError
	}

	assetsDirectory := workspace.ThemeAssetsDirectory(themeDocument.Name, themeDocument.ID, themeDocument.Version)
	if directoryError := workspace.EnsureDirectory(assetsDirectory); directoryError != nil {
		return StagedTheme{}, directoryError
	}

	for _, assetURL := range themeDocument.AssetURLs {
		if stageError := migrator.stageAsset(executionContext, assetURL, assetsDirectory); stageError != nil {
			if shared.IsCancellation(stageError) {
				return StagedTheme{}, stageError
			}
			migrator.dependencies.Logger.Warn(themeAssetFailedWarnMessage,
				zap.String(urlLogField, assetURL),
				zap.Error(stageError),
			)
		}
	}

	migrator.dependencies.Logger.Info(themeStagedMessage,
		zap.String(nameLogField, themeDocument.Name),
		zap.String(identifierLogField, themeDocument.ID),
		zap.Int(versionLogField, themeDocument.Version),
		zap.String(pathLogField, documentPath),
	)

	return StagedTheme{
		Document:        themeDocument,
		DocumentPath:    documentPath,
		AssetsDirectory: assetsDirectory,
	}, nil
}

func (migrator *Migrator) stageAsset(executionContext context.Context, assetURL string, assetsDirectory string) error {
	parsedAssetURL, parseError := url.Parse(assetURL)
	if parseError != nil {
		return fmt.Errorf("parse theme asset url: %w", parseError)
	}
	assetFileName := path.Base(parsedAssetURL.Path)
	if assetFileName == "." || assetFileName == "/" {
		return fmt.Errorf("theme asset url %q has no file name", assetURL)
	}

	assetContent, downloadError := migrator.dependencies.Downloader.DownloadResource(executionContext, assetURL)
	if downloadError != nil {
		return downloadError
	}
	return migrator.dependencies.Workspace.WriteFile(filepath.Join(assetsDirectory, assetFileName), assetContent)
}

// Push recreates the staged theme on the destination tenant: create a minimal
// envelope, upload each staged asset file, apply the full source document
// re-keyed to the created theme's id, then activate. Asset upload failures
// are logged and skipped; every other step aborts the push.
func (migrator *Migrator) Push(executionContext context.Context, staged StagedTheme) (shared.MigrationOutcome, error) {
	document := staged.Document
	createdMetadata, createError := migrator.dependencies.Writer.CreateTheme(executionContext, trustxapi.CreateThemeRequest{
		Name:        document.Name,
		Description: document.Description,
		Palette:     document.Palette,
	})
	if createError != nil {
		return shared.MigrationOutcome{}, createError
	}

	assetEntries, listError := os.ReadDir(staged.AssetsDirectory)
	if listError != nil {
		return shared.MigrationOutcome{}, fmt.Errorf("list staged theme assets: %w", listError)
	}
	for _, assetEntry := range assetEntries {
		if assetEntry.IsDir() {
			continue
		}
		if uploadError := migrator.uploadAsset(executionContext, createdMetadata.ID, staged.AssetsDirectory, assetEntry.Name()); uploadError != nil {
			if shared.IsCancellation(uploadError) {
				return shared.MigrationOutcome{}, uploadError
			}
			migrator.dependencies.Logger.Warn(themeUploadFailedWarnMessage,
				zap.String(fileLogField, assetEntry.Name()),
				zap.Error(uploadError),
			)
		}
	}

	updatedDocument := make(map[string]any, len(document.Raw)+1)
	for fieldName, fieldValue := range document.Raw {
		updatedDocument[fieldName] = fieldValue
	}
	updatedDocument[identifierFieldName] = createdMetadata.ID

	if updateError := migrator.dependencies.Writer.UpdateTheme(executionContext, createdMetadata.ID, updatedDocument); updateError != nil {
		return shared.MigrationOutcome{}, updateError
	}

	activatedMetadata, activateError := migrator.dependencies.Writer.ActivateTheme(executionContext, createdMetadata.ID)
	if activateError != nil {
		return shared.MigrationOutcome{}, activateError
	}

	outcome := shared.NewMigrationOutcome(document.Name, createdMetadata, activatedMetadata)
	resultPath := migrator.dependencies.Workspace.ResultPath(document.Name)
	if persistError := migrator.dependencies.Workspace.WriteJSON(resultPath, outcome); persistError != nil {
		return shared.MigrationOutcome{}, persistError
	}

	migrator.dependencies.Logger.Info(themeMigratedMessage,
		zap.String(nameLogField, document.Name),
		zap.String(identifierLogField, outcome.ID),
		zap.Int(versionLogField, outcome.Version),
	)

	return outcome, nil
}

func (migrator *Migrator) uploadAsset(executionContext context.Context, themeIdentifier string, assetsDirectory string, assetFileName string) error {
	assetContent, readError := migrator.dependencies.Workspace.ReadFile(filepath.Join(assetsDirectory, assetFileName))
	if readError != nil {
		return readError
	}

	return migrator.dependencies.Writer.UploadThemeAsset(executionContext, themeIdentifier, trustxapi.ThemeAssetUpload{
		Name:          assetStem(assetFileName),
		ContentType:   assetContentType(assetFileName),
		FileExtension: assetExtension(assetFileName),
		Content:       assetContent,
	})
}

// assetExtension is the segment after the last dot, or the whole name for
// undotted files.
func assetExtension(assetFileName string) string {
	segments := strings.Split(assetFileName, ".")
	return segments[len(segments)-1]
}

func assetStem(assetFileName string) string {
	return strings.TrimSuffix(assetFileName, filepath.Ext(assetFileName))
}

// assetContentType labels font files by name marker; everything else is
// treated as an image of its extension.
func assetContentType(assetFileName string) string {
	if strings.Contains(strings.ToLower(assetFileName), fontNameMarker) {
		return fontContentType
	}
	return imageContentTypePrefix + assetExtension(assetFileName)
}
