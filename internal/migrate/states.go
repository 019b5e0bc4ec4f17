package migrate

import (
	"fmt"
	"strings"

	"github.com/OmerShlush/trustx-migration/internal/bpmn"
	"github.com/OmerShlush/trustx-migration/internal/trustxapi"
)

// State identifies one phase of a migration run. Runs advance through the
// states in declaration order; a structural failure leaves the run in the
// state it reached.
type State string

// Migration run states in execution order.
const (
	StateFetchSourceDocument           State = "FetchSourceDocument"
	StateExtractReferences             State = "ExtractReferences"
	StateConfirmManualPrerequisites    State = "ConfirmManualPrerequisites"
	StateMigrateTheme                  State = "MigrateTheme"
	StateMigrateCloudFunctions         State = "MigrateCloudFunctions"
	StateMigrateCustomForms            State = "MigrateCustomForms"
	StateMigrateCustomPages            State = "MigrateCustomPages"
	StatePersistAggregation            State = "PersistAggregation"
	StateRewriteDocument               State = "RewriteDocument"
	StateCreateDestinationDefinition   State = "CreateDestinationDefinition"
	StateActivateDestinationDefinition State = "ActivateDestinationDefinition"
	StateDone                          State = "Done"
	StateAwaitingWatchlistConfirmation State = "AwaitingWatchlistConfirmation"
)

const watchlistNamesJoinSeparator = ", "

// ManualPrerequisiteUnconfirmedError terminates a run whose document
// references watchlists that were neither confirmed by flag nor by prompt.
// Watchlists cannot be created through the platform API, so the run must not
// proceed until an operator vouches that they exist on the destination.
type ManualPrerequisiteUnconfirmedError struct {
	Watchlists []string
}

// Error names the unconfirmed watchlists.
func (unconfirmedError ManualPrerequisiteUnconfirmedError) Error() string {
	return fmt.Sprintf("watchlists must be created manually on the destination tenant before migrating: %s",
		strings.Join(unconfirmedError.Watchlists, watchlistNamesJoinSeparator))
}

// Result reports the observable outcome of one migration run.
type Result struct {
	RunIdentifier         string
	FinalState            State
	References            bpmn.References
	Aggregation           Aggregation
	RewrittenDocumentPath string
	CreatedDefinition     trustxapi.ProcessDefinitionMetadata
	ActivatedDefinition   trustxapi.ProcessDefinitionMetadata
}
