package pages

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/OmerShlush/trustx-migration/internal/assets/shared"
	"github.com/OmerShlush/trustx-migration/internal/bpmn"
	"github.com/OmerShlush/trustx-migration/internal/staging"
	"github.com/OmerShlush/trustx-migration/internal/trustxapi"
	"github.com/OmerShlush/trustx-migration/internal/versions"
)

const (
	previewURLFieldName = "previewUrl"

	bundlePageOperation = "bundle custom page"

	pageStagedMessage   = "staged custom page"
	pageMigratedMessage = "migrated custom page"

	nameLogField       = "name"
	versionLogField    = "version"
	archiveLogField    = "archive"
	identifierLogField = "id"
)

// Dependencies captures the collaborators the custom-page migrator needs.
type Dependencies struct {
	Logger     *zap.Logger
	Reader     shared.AssetReader
	Downloader shared.ResourceDownloader
	Writer     shared.AssetWriter
	Resolver   *versions.Resolver
	Workspace  *staging.Workspace
}

// StagedPage is one fetched custom page: the staged metadata document plus
// the archived preview bundle ready for recreation.
type StagedPage struct {
	Name         string
	SourceRecord versions.Record
	Metadata     map[string]any
	MetadataPath string
	ArchivePath  string
	Archive      []byte
}

// Migrator fetches and pushes custom pages.
type Migrator struct {
	dependencies Dependencies
	bundler      *PreviewBundler
}

// NewMigrator constructs a Migrator.
func NewMigrator(dependencies Dependencies) *Migrator {
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	return &Migrator{
		dependencies: dependencies,
		bundler:      NewPreviewBundler(dependencies.Logger, dependencies.Downloader, dependencies.Workspace),
	}
}

// Fetch resolves the referenced version on the source tenant, stages the
// page's metadata document, and archives a self-contained bundle built from
// its rendered preview.
func (migrator *Migrator) Fetch(executionContext context.Context, reference bpmn.AssetReference) (StagedPage, error) {
	resolution, resolveError := migrator.dependencies.Resolver.Resolve(executionContext,
		shared.NewKindPageLister(migrator.dependencies.Reader, trustxapi.CustomPageKind), reference.Name, reference.Version)
	if resolveError != nil {
		return StagedPage{}, resolveError
	}

	pageDetail, detailError := migrator.dependencies.Reader.GetAssetDetail(executionContext, trustxapi.CustomPageKind, resolution.Record.ID)
	if detailError != nil {
		return StagedPage{}, detailError
	}
	pageMetadata := pageDetail.Payload.Document()

	workspace := migrator.dependencies.Workspace
	metadataPath := workspace.PageMetadataPath(reference.Name, resolution.Record.Version)
	if writeError := workspace.WriteJSON(metadataPath, pageMetadata); writeError != nil {
		return StagedPage{}, writeError
	}

	previewURL, previewIsText := pageMetadata[previewURLFieldName].(string)
	if !previewIsText || len(previewURL) == 0 {
		return StagedPage{}, trustxapi.MalformedPayloadError{
			Operation: bundlePageOperation,
			Reason:    fmt.Sprintf("%s missing for custom page %q", previewURLFieldName, reference.Name),
		}
	}

	bundleDirectory := workspace.PageBundleDirectory(reference.Name)
	if bundleError := migrator.bundler.Bundle(executionContext, previewURL, bundleDirectory); bundleError != nil {
		return StagedPage{}, bundleError
	}

	archivePath := workspace.PageArchivePath(reference.Name, resolution.Record.Version)
	if archiveError := staging.BuildArchive(bundleDirectory, archivePath); archiveError != nil {
		return StagedPage{}, archiveError
	}
	archiveContent, readError := workspace.ReadFile(archivePath)
	if readError != nil {
		return StagedPage{}, readError
	}

	migrator.dependencies.Logger.Info(pageStagedMessage,
		zap.String(nameLogField, reference.Name),
		zap.Int(versionLogField, resolution.Record.Version),
		zap.String(archiveLogField, archivePath),
	)

	return StagedPage{
		Name:         reference.Name,
		SourceRecord: resolution.Record,
		Metadata:     pageMetadata,
		MetadataPath: metadataPath,
		ArchivePath:  archivePath,
		Archive:      archiveContent,
	}, nil
}

// Push recreates the staged page on the destination tenant from its archived
// bundle, activates it with the created metadata as the activation body, and
// persists the activation snapshot under results/.
func (migrator *Migrator) Push(executionContext context.Context, staged StagedPage) (shared.MigrationOutcome, error) {
	createdMetadata, createError := migrator.dependencies.Writer.CreateAsset(executionContext, trustxapi.CustomPageKind, trustxapi.CreateAssetRequest{
		Name:    staged.Name,
		Archive: staged.Archive,
	})
	if createError != nil {
		return shared.MigrationOutcome{}, createError
	}

	activatedMetadata, activateError := migrator.dependencies.Writer.ActivateAsset(executionContext, trustxapi.CustomPageKind, createdMetadata.ID, createdMetadata.Raw)
	if activateError != nil {
		return shared.MigrationOutcome{}, activateError
	}

	outcome := shared.NewMigrationOutcome(staged.Name, createdMetadata, activatedMetadata)
	resultPath := migrator.dependencies.Workspace.ResultPath(staged.Name)
	if persistError := migrator.dependencies.Workspace.WriteJSON(resultPath, outcome); persistError != nil {
		return shared.MigrationOutcome{}, persistError
	}

	migrator.dependencies.Logger.Info(pageMigratedMessage,
		zap.String(nameLogField, staged.Name),
		zap.String(identifierLogField, outcome.ID),
		zap.Int(versionLogField, outcome.Version),
	)

	return outcome, nil
}
