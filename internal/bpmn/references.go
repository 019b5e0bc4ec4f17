package bpmn

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const (
	functionNameParameter      = "functionName"
	functionVersionParameter   = "functionVersion"
	dataFormNameParameter      = "dataFormName"
	dataFormVersionParameter   = "dataFormVersion"
	customPageNameParameter    = "customPageName"
	customPageVersionParameter = "customPageVersion"
	customPageKeyParameter     = "customPageKey"
	watchlistNameParameter     = "watchlistName"

	placeholderPrefix = "${"
	placeholderSuffix = "}"
)

// AssetReference is a named, optionally versioned mention of an asset inside
// an extension block. A nil Version means "use the currently active version".
// PageKey is populated for custom-page references only.
type AssetReference struct {
	Name    string
	Version *int
	PageKey string
}

// WatchlistReference names a watchlist the destination tenant must already
// hold; the platform offers no creation API for watchlists.
type WatchlistReference struct {
	Name string
}

// References groups the extracted asset references by kind, each list in
// document order. Duplicate references are kept; every occurrence is migrated
// independently.
type References struct {
	CloudFunctions []AssetReference
	CustomForms    []AssetReference
	CustomPages    []AssetReference
	Watchlists     []WatchlistReference
}

// IsEmpty reports whether extraction found no references of any kind.
func (references References) IsEmpty() bool {
	return len(references.CloudFunctions) == 0 &&
		len(references.CustomForms) == 0 &&
		len(references.CustomPages) == 0 &&
		len(references.Watchlists) == 0
}

// ExtractReferences scans every camunda extension block and classifies it by
// its recognized name parameters. One block may yield several references, one
// per recognized name key.
func (document *Document) ExtractReferences() References {
	var references References
	for _, block := range document.parameterBlocks() {
		parameterText := document.blockParameterText(block)

		if functionName, found := parameterText[functionNameParameter]; found {
			references.CloudFunctions = append(references.CloudFunctions, AssetReference{
				Name:    strings.TrimSpace(functionName),
				Version: ParseVersionText(parameterText[functionVersionParameter]),
			})
		}
		if dataFormName, found := parameterText[dataFormNameParameter]; found {
			references.CustomForms = append(references.CustomForms, AssetReference{
				Name:    strings.TrimSpace(dataFormName),
				Version: ParseVersionText(parameterText[dataFormVersionParameter]),
			})
		}
		if customPageName, found := parameterText[customPageNameParameter]; found {
			references.CustomPages = append(references.CustomPages, AssetReference{
				Name:    strings.TrimSpace(customPageName),
				Version: ParseVersionText(parameterText[customPageVersionParameter]),
				PageKey: strings.TrimSpace(parameterText[customPageKeyParameter]),
			})
		}
		if watchlistName, found := parameterText[watchlistNameParameter]; found {
			references.Watchlists = append(references.Watchlists, WatchlistReference{
				Name: strings.TrimSpace(watchlistName),
			})
		}
	}
	return references
}

func (document *Document) blockParameterText(block *etree.Element) map[string]string {
	parameterText := map[string]string{}
	for parameterName, parameterElement := range document.blockParameterElements(block) {
		parameterText[parameterName] = parameterElement.Text()
	}
	return parameterText
}

// ParseVersionText evaluates a version parameter's text: surrounding space is
// trimmed, one ${...} placeholder wrapper is stripped, and the remainder is
// parsed as an integer. Absent or non-numeric text degrades to nil, never to
// an error.
func ParseVersionText(versionText string) *int {
	trimmedText := strings.TrimSpace(versionText)
	if strings.HasPrefix(trimmedText, placeholderPrefix) && strings.HasSuffix(trimmedText, placeholderSuffix) {
		trimmedText = strings.TrimSpace(trimmedText[len(placeholderPrefix) : len(trimmedText)-len(placeholderSuffix)])
	}
	parsedVersion, parseError := strconv.Atoi(trimmedText)
	if parseError != nil {
		return nil
	}
	return &parsedVersion
}
