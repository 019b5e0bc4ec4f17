package trustxapi

import (
	"net/url"

	"github.com/OmerShlush/trustx-migration/internal/versions"
)

const (
	processManagerServicePrefix = "/api/process-manager"
	themeServerServicePrefix    = "/api/theme-server"

	cloudFunctionCollection = "cloudFunctions"
	customFormCollection    = "customDataForms"
	customPageCollection    = "customPages"
)

// AssetKind binds an asset family to the service prefix and collection
// segment its endpoints live under. Cloud functions and data forms are served
// by the process manager, custom pages by the theme server.
type AssetKind struct {
	label         string
	servicePrefix string
	collection    string
}

var (
	// CloudFunctionKind addresses server-side function assets.
	CloudFunctionKind = AssetKind{label: "cloud function", servicePrefix: processManagerServicePrefix, collection: cloudFunctionCollection}
	// CustomFormKind addresses data-entry form assets.
	CustomFormKind = AssetKind{label: "custom data form", servicePrefix: processManagerServicePrefix, collection: customFormCollection}
	// CustomPageKind addresses custom UI page assets.
	CustomPageKind = AssetKind{label: "custom page", servicePrefix: themeServerServicePrefix, collection: customPageCollection}
)

func (kind AssetKind) String() string {
	return kind.label
}

func (kind AssetKind) collectionPath() string {
	return kind.servicePrefix + "/" + kind.collection
}

func (kind AssetKind) itemPath(identifier string) string {
	return kind.collectionPath() + "/" + url.PathEscape(identifier)
}

func (kind AssetKind) versionsPath(assetName string) string {
	return kind.itemPath(assetName) + "/versions"
}

func (kind AssetKind) activationPath(identifier string) string {
	return kind.itemPath(identifier) + "/status/" + versions.DeployedActiveStatus
}
