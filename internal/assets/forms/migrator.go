// Package forms migrates the custom data forms a process definition
// references: resolve the referenced version on the source tenant, stage the
// form definition under data/forms, and recreate it on the destination
// tenant.
package forms

import (
	"github.com/OmerShlush/trustx-migration/internal/assets/shared"
	"github.com/OmerShlush/trustx-migration/internal/staging"
	"github.com/OmerShlush/trustx-migration/internal/trustxapi"
)

// NewMigrator builds the data-form migrator over the shared raw-text asset
// flow.
func NewMigrator(dependencies shared.TextAssetDependencies) *shared.TextAssetMigrator {
	return shared.NewTextAssetMigrator(shared.TextAssetStrategy{
		Kind:      trustxapi.CustomFormKind,
		StagePath: stagePath,
	}, dependencies)
}

func stagePath(workspace *staging.Workspace, formName string) string {
	return workspace.FormPath(formName)
}
