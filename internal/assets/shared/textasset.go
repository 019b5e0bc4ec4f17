package shared

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/OmerShlush/trustx-migration/internal/bpmn"
	"github.com/OmerShlush/trustx-migration/internal/staging"
	"github.com/OmerShlush/trustx-migration/internal/trustxapi"
	"github.com/OmerShlush/trustx-migration/internal/versions"
)

const (
	assetStagedMessage   = "staged asset"
	assetMigratedMessage = "migrated asset"

	kindLogField       = "kind"
	nameLogField       = "name"
	versionLogField    = "version"
	pathLogField       = "path"
	identifierLogField = "id"
)

// TextAssetStrategy fixes the per-kind choices of a raw-text asset migration:
// the collection the asset lives in and where its payload is staged.
type TextAssetStrategy struct {
	Kind      trustxapi.AssetKind
	StagePath func(workspace *staging.Workspace, assetName string) string
}

// TextAssetDependencies captures the collaborators the raw-text asset
// migrators share.
type TextAssetDependencies struct {
	Logger    *zap.Logger
	Reader    AssetReader
	Writer    AssetWriter
	Resolver  *versions.Resolver
	Workspace *staging.Workspace
}

// StagedTextAsset is one fetched raw-text asset persisted into the staging
// workspace and ready for recreation on the destination tenant.
type StagedTextAsset struct {
	Name         string
	SourceRecord versions.Record
	Text         string
	StagedPath   string
}

// TextAssetMigrator fetches and pushes assets whose payload is a single text
// document: cloud functions and custom data forms.
type TextAssetMigrator struct {
	strategy     TextAssetStrategy
	dependencies TextAssetDependencies
}

// NewTextAssetMigrator builds a migrator for the given strategy.
func NewTextAssetMigrator(strategy TextAssetStrategy, dependencies TextAssetDependencies) *TextAssetMigrator {
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	return &TextAssetMigrator{strategy: strategy, dependencies: dependencies}
}

// Fetch resolves the referenced version on the source tenant, fetches the
// asset's text payload, and stages it in the workspace.
func (migrator *TextAssetMigrator) Fetch(executionContext context.Context, reference bpmn.AssetReference) (StagedTextAsset, error) {
	resolution, resolveError := migrator.dependencies.Resolver.Resolve(executionContext,
		NewKindPageLister(migrator.dependencies.Reader, migrator.strategy.Kind), reference.Name, reference.Version)
	if resolveError != nil {
		return StagedTextAsset{}, resolveError
	}

	assetDetail, detailError := migrator.dependencies.Reader.GetAssetDetail(executionContext, migrator.strategy.Kind, resolution.Record.ID)
	if detailError != nil {
		return StagedTextAsset{}, detailError
	}

	stagedText := strings.TrimSpace(assetDetail.Payload.Text())
	stagedPath := migrator.strategy.StagePath(migrator.dependencies.Workspace, reference.Name)
	if writeError := migrator.dependencies.Workspace.WriteFile(stagedPath, []byte(stagedText)); writeError != nil {
		return StagedTextAsset{}, writeError
	}

	migrator.dependencies.Logger.Info(assetStagedMessage,
		zap.String(kindLogField, migrator.strategy.Kind.String()),
		zap.String(nameLogField, reference.Name),
		zap.Int(versionLogField, resolution.Record.Version),
		zap.String(pathLogField, stagedPath),
	)

	return StagedTextAsset{
		Name:         reference.Name,
		SourceRecord: resolution.Record,
		Text:         stagedText,
		StagedPath:   stagedPath,
	}, nil
}

// Push recreates the staged asset on the destination tenant, activates it,
// and persists the activation snapshot under results/.
func (migrator *TextAssetMigrator) Push(executionContext context.Context, staged StagedTextAsset) (MigrationOutcome, error) {
	createdMetadata, createError := migrator.dependencies.Writer.CreateAsset(executionContext, migrator.strategy.Kind, trustxapi.CreateAssetRequest{
		Name:     staged.Name,
		Resource: staged.Text,
	})
	if createError != nil {
		return MigrationOutcome{}, createError
	}

	activatedMetadata, activateError := migrator.dependencies.Writer.ActivateAsset(executionContext, migrator.strategy.Kind, createdMetadata.ID, nil)
	if activateError != nil {
		return MigrationOutcome{}, activateError
	}

	outcome := NewMigrationOutcome(staged.Name, createdMetadata, activatedMetadata)
	resultPath := migrator.dependencies.Workspace.ResultPath(staged.Name)
	if persistError := migrator.dependencies.Workspace.WriteJSON(resultPath, outcome); persistError != nil {
		return MigrationOutcome{}, persistError
	}

	migrator.dependencies.Logger.Info(assetMigratedMessage,
		zap.String(kindLogField, migrator.strategy.Kind.String()),
		zap.String(nameLogField, staged.Name),
		zap.String(identifierLogField, outcome.ID),
		zap.Int(versionLogField, outcome.Version),
	)

	return outcome, nil
}
