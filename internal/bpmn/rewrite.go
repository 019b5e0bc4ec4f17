package bpmn

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	parameterRewrittenDebugMessage = "rewrote version parameter"
	missingOutcomeWarnMessage      = "no migration outcome for referenced asset, version parameter left unchanged"
	referenceNameLogField          = "name"
	referenceVersionLogField       = "version"
	referenceParameterKindLogField = "parameter"
)

// VersionUpdates carries the per-kind name→new-version lookups built from a
// migration aggregation. Watchlists carry no version and have no entry here.
type VersionUpdates struct {
	CloudFunctions map[string]int
	CustomForms    map[string]int
	CustomPages    map[string]int
}

// RewriteReport summarizes one rewrite pass.
type RewriteReport struct {
	RewrittenParameters int
	UnmatchedReferences []string
}

// Rewriter overwrites version parameters in a parsed document using migration
// outcomes, leaving every other node untouched.
type Rewriter struct {
	logger *zap.Logger
}

// NewRewriter constructs a Rewriter; a nil logger is replaced by a no-op one.
func NewRewriter(logger *zap.Logger) *Rewriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rewriter{logger: logger}
}

// Apply walks the same extension blocks as extraction. For each block holding
// both a recognized name parameter and its paired version parameter, where the
// trimmed name matches an update entry, only the version parameter's text is
// replaced. Blocks whose asset has no outcome are left as-is: the document
// then references a version that may not exist on the destination, which is
// accepted and logged rather than fatal.
func (rewriter *Rewriter) Apply(document *Document, updates VersionUpdates) RewriteReport {
	report := RewriteReport{}
	pairings := []struct {
		parameterKind    string
		nameParameter    string
		versionParameter string
		newVersions      map[string]int
	}{
		{parameterKind: functionVersionParameter, nameParameter: functionNameParameter, versionParameter: functionVersionParameter, newVersions: updates.CloudFunctions},
		{parameterKind: dataFormVersionParameter, nameParameter: dataFormNameParameter, versionParameter: dataFormVersionParameter, newVersions: updates.CustomForms},
		{parameterKind: customPageVersionParameter, nameParameter: customPageNameParameter, versionParameter: customPageVersionParameter, newVersions: updates.CustomPages},
	}

	for _, block := range document.parameterBlocks() {
		parameterElements := document.blockParameterElements(block)
		for _, pairing := range pairings {
			nameElement, nameFound := parameterElements[pairing.nameParameter]
			versionElement, versionFound := parameterElements[pairing.versionParameter]
			if !nameFound || !versionFound {
				continue
			}

			referenceName := strings.TrimSpace(nameElement.Text())
			newVersion, outcomeFound := pairing.newVersions[referenceName]
			if !outcomeFound {
				report.UnmatchedReferences = append(report.UnmatchedReferences, referenceName)
				rewriter.logger.Warn(missingOutcomeWarnMessage,
					zap.String(referenceNameLogField, referenceName),
					zap.String(referenceParameterKindLogField, pairing.parameterKind),
				)
				continue
			}

			versionElement.SetText(strconv.Itoa(newVersion))
			report.RewrittenParameters++
			rewriter.logger.Debug(parameterRewrittenDebugMessage,
				zap.String(referenceNameLogField, referenceName),
				zap.Int(referenceVersionLogField, newVersion),
				zap.String(referenceParameterKindLogField, pairing.parameterKind),
			)
		}
	}

	return report
}
