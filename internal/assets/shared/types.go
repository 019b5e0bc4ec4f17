// Package shared holds the collaborator contracts and common value types the
// per-kind asset migrators build on.
package shared

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/OmerShlush/trustx-migration/internal/trustxapi"
	"github.com/OmerShlush/trustx-migration/internal/versions"
)

// VersionLister pages through an asset's version history on a tenant.
type VersionLister interface {
	ListAssetVersions(executionContext context.Context, kind trustxapi.AssetKind, assetName string, pageNumber int, pageSize int) (versions.Page, error)
}

// AssetReader is the source-tenant surface asset fetches read from.
type AssetReader interface {
	VersionLister
	GetAssetDetail(executionContext context.Context, kind trustxapi.AssetKind, assetIdentifier string) (trustxapi.AssetDetail, error)
}

// AssetWriter is the destination-tenant surface asset pushes write to.
type AssetWriter interface {
	CreateAsset(executionContext context.Context, kind trustxapi.AssetKind, request trustxapi.CreateAssetRequest) (trustxapi.AssetMetadata, error)
	ActivateAsset(executionContext context.Context, kind trustxapi.AssetKind, assetIdentifier string, activationBody map[string]any) (trustxapi.AssetMetadata, error)
}

// ResourceDownloader fetches files the platform serves without authentication.
type ResourceDownloader interface {
	DownloadResource(executionContext context.Context, absoluteURL string) ([]byte, error)
}

// ThemeReader loads full theme documents from the source tenant.
type ThemeReader interface {
	GetTheme(executionContext context.Context, themeIdentifier string) (trustxapi.ThemeDocument, error)
}

// ThemeWriter recreates themes on the destination tenant.
type ThemeWriter interface {
	CreateTheme(executionContext context.Context, request trustxapi.CreateThemeRequest) (trustxapi.AssetMetadata, error)
	UploadThemeAsset(executionContext context.Context, themeIdentifier string, upload trustxapi.ThemeAssetUpload) error
	UpdateTheme(executionContext context.Context, themeIdentifier string, themeDocument map[string]any) error
	ActivateTheme(executionContext context.Context, themeIdentifier string) (trustxapi.AssetMetadata, error)
}

// KindPageLister binds a tenant client and an asset kind into the page-lister
// shape the version resolver scans through.
type KindPageLister struct {
	lister VersionLister
	kind   trustxapi.AssetKind
}

// NewKindPageLister binds lister to kind.
func NewKindPageLister(lister VersionLister, kind trustxapi.AssetKind) KindPageLister {
	return KindPageLister{lister: lister, kind: kind}
}

// ListVersionPage implements versions.PageLister for the bound kind.
func (pageLister KindPageLister) ListVersionPage(executionContext context.Context, assetName string, pageNumber int, pageSize int) (versions.Page, error) {
	return pageLister.lister.ListAssetVersions(executionContext, pageLister.kind, assetName, pageNumber, pageSize)
}

// MigrationOutcome records one asset successfully recreated and activated on
// the destination tenant.
type MigrationOutcome struct {
	Name    string
	ID      string
	Version int
	Raw     map[string]any
}

// NewMigrationOutcome combines creation and activation metadata into the
// record of one migrated asset. Activation fields win where both responses
// carry a value.
func NewMigrationOutcome(assetName string, createdMetadata trustxapi.AssetMetadata, activatedMetadata trustxapi.AssetMetadata) MigrationOutcome {
	outcome := MigrationOutcome{
		Name:    assetName,
		ID:      createdMetadata.ID,
		Version: activatedMetadata.Version,
		Raw:     activatedMetadata.Raw,
	}
	if len(activatedMetadata.ID) > 0 {
		outcome.ID = activatedMetadata.ID
	}
	if outcome.Version == 0 {
		outcome.Version = createdMetadata.Version
	}
	return outcome
}

// MarshalJSON renders the platform's own activation document when one was
// captured, falling back to the summary fields.
func (outcome MigrationOutcome) MarshalJSON() ([]byte, error) {
	if len(outcome.Raw) > 0 {
		return json.Marshal(outcome.Raw)
	}

	type outcomeSummary struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Version int    `json:"version"`
	}
	return json.Marshal(outcomeSummary{ID: outcome.ID, Name: outcome.Name, Version: outcome.Version})
}

// IsCancellation reports whether the error is the caller's context being
// cancelled or timing out. Per-asset isolation must let these through so a
// cancelled run is not mistaken for a string of asset failures.
func IsCancellation(candidate error) bool {
	return errors.Is(candidate, context.Canceled) || errors.Is(candidate, context.DeadlineExceeded)
}
