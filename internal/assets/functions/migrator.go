// Package functions migrates the Python cloud functions a process definition
// references: resolve the referenced version on the source tenant, stage the
// script under data/cf, and recreate it on the destination tenant.
package functions

import (
	"github.com/OmerShlush/trustx-migration/internal/assets/shared"
	"github.com/OmerShlush/trustx-migration/internal/staging"
	"github.com/OmerShlush/trustx-migration/internal/trustxapi"
)

// NewMigrator builds the cloud-function migrator over the shared raw-text
// asset flow.
func NewMigrator(dependencies shared.TextAssetDependencies) *shared.TextAssetMigrator {
	return shared.NewTextAssetMigrator(shared.TextAssetStrategy{
		Kind:      trustxapi.CloudFunctionKind,
		StagePath: stagePath,
	}, dependencies)
}

func stagePath(workspace *staging.Workspace, functionName string) string {
	return workspace.CloudFunctionPath(functionName)
}
