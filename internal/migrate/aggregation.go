package migrate

import (
	"github.com/OmerShlush/trustx-migration/internal/assets/shared"
	"github.com/OmerShlush/trustx-migration/internal/bpmn"
)

// Aggregation accumulates the outcomes of a run, one field per asset kind.
// Failed assets produce no entry. The JSON field names match the durable
// aggregation artifact consumed by downstream tooling: a missing theme
// serializes as null, empty kinds as empty lists.
type Aggregation struct {
	Theme          *shared.MigrationOutcome  `json:"theme"`
	CloudFunctions []shared.MigrationOutcome `json:"cloud_functions"`
	CustomForms    []shared.MigrationOutcome `json:"custom_forms"`
	CustomPages    []shared.MigrationOutcome `json:"custom_pages"`
	Watchlists     []string                  `json:"watchlists"`
}

// NewAggregation returns an aggregation whose list fields serialize as empty
// lists rather than null.
func NewAggregation() Aggregation {
	return Aggregation{
		CloudFunctions: []shared.MigrationOutcome{},
		CustomForms:    []shared.MigrationOutcome{},
		CustomPages:    []shared.MigrationOutcome{},
		Watchlists:     []string{},
	}
}

// RecordTheme stores the theme outcome.
func (aggregation *Aggregation) RecordTheme(outcome shared.MigrationOutcome) {
	aggregation.Theme = &outcome
}

// RecordCloudFunction appends a cloud-function outcome.
func (aggregation *Aggregation) RecordCloudFunction(outcome shared.MigrationOutcome) {
	aggregation.CloudFunctions = append(aggregation.CloudFunctions, outcome)
}

// RecordCustomForm appends a custom-form outcome.
func (aggregation *Aggregation) RecordCustomForm(outcome shared.MigrationOutcome) {
	aggregation.CustomForms = append(aggregation.CustomForms, outcome)
}

// RecordCustomPage appends a custom-page outcome.
func (aggregation *Aggregation) RecordCustomPage(outcome shared.MigrationOutcome) {
	aggregation.CustomPages = append(aggregation.CustomPages, outcome)
}

// RecordWatchlists stores the referenced watchlist names. Watchlists are
// never migrated by the tool; their names are carried into the aggregation as
// the record of what the operator confirmed.
func (aggregation *Aggregation) RecordWatchlists(references []bpmn.WatchlistReference) {
	for _, reference := range references {
		aggregation.Watchlists = append(aggregation.Watchlists, reference.Name)
	}
}

// VersionUpdates projects the aggregation into the per-kind name→version maps
// the document rewriter consumes. When a name was migrated more than once the
// last outcome wins.
func (aggregation Aggregation) VersionUpdates() bpmn.VersionUpdates {
	return bpmn.VersionUpdates{
		CloudFunctions: outcomeVersionsByName(aggregation.CloudFunctions),
		CustomForms:    outcomeVersionsByName(aggregation.CustomForms),
		CustomPages:    outcomeVersionsByName(aggregation.CustomPages),
	}
}

func outcomeVersionsByName(outcomes []shared.MigrationOutcome) map[string]int {
	versionsByName := make(map[string]int, len(outcomes))
	for _, outcome := range outcomes {
		versionsByName[outcome.Name] = outcome.Version
	}
	return versionsByName
}
