package migrate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/OmerShlush/trustx-migration/internal/assets/pages"
	"github.com/OmerShlush/trustx-migration/internal/assets/shared"
	"github.com/OmerShlush/trustx-migration/internal/assets/themes"
	"github.com/OmerShlush/trustx-migration/internal/bpmn"
	"github.com/OmerShlush/trustx-migration/internal/staging"
	"github.com/OmerShlush/trustx-migration/internal/trustxapi"
)

const (
	sourceDefinitionFieldNameOptionConstant = "source_definition_id"
	destinationNameFieldNameOptionConstant  = "destination_name"

	fetchSourceDocumentErrorTemplateConstant      = "fetch source process definition: %w"
	stageSourceDocumentErrorTemplateConstant      = "stage source document: %w"
	confirmWatchlistsErrorTemplateConstant        = "confirm watchlists: %w"
	persistAggregationErrorTemplateConstant       = "persist aggregation: %w"
	serializeDocumentErrorTemplateConstant        = "serialize rewritten document: %w"
	stageRewrittenDocumentErrorTemplateConstant   = "stage rewritten document: %w"
	createDefinitionErrorTemplateConstant         = "create destination process definition: %w"
	persistCreatedDefinitionErrorTemplateConstant = "persist created definition snapshot: %w"
	activateDefinitionErrorTemplateConstant       = "activate destination process definition: %w"
	persistActivatedSnapshotErrorTemplateConstant = "persist activated definition snapshot: %w"
	watchlistPromptTemplateConstant               = "The document references watchlists that must already exist on the destination tenant: %s.\nConfirm they were created manually [y/N]: "

	runStartedMessageConstant           = "migration run started"
	stateEnteredMessageConstant         = "entering state"
	referencesExtractedMessageConstant  = "extracted document references"
	dryRunCompletedMessageConstant      = "dry run completed, nothing was pushed"
	watchlistsConfirmedMessageConstant  = "watchlist prerequisites confirmed"
	themeAbsentMessageConstant          = "source definition carries no theme"
	themeFetchFailedWarnMessageConstant = "failed to fetch theme, continuing without it"
	themePushFailedWarnMessageConstant  = "failed to migrate theme, continuing without it"
	themePassthroughWarnMessageConstant = "theme was not migrated, passing the source theme id through"
	assetFetchFailedWarnMessageConstant = "failed to fetch asset, skipping"
	assetPushFailedWarnMessageConstant  = "failed to migrate asset, skipping"
	documentRewrittenMessageConstant    = "rewrote version parameters"
	runCompletedMessageConstant         = "migration run completed"

	runIdentifierLogFieldConstant        = "run_id"
	stateLogFieldConstant                = "state"
	nameLogFieldConstant                 = "name"
	themeIdentifierLogFieldConstant      = "theme_id"
	definitionIdentifierLogFieldConstant = "definition_id"
	versionLogFieldConstant              = "version"
	pathLogFieldConstant                 = "path"
	cloudFunctionCountLogFieldConstant   = "cloud_functions"
	customFormCountLogFieldConstant      = "custom_forms"
	customPageCountLogFieldConstant      = "custom_pages"
	watchlistCountLogFieldConstant       = "watchlists"
	watchlistNamesLogFieldConstant       = "names"
	rewrittenCountLogFieldConstant       = "rewritten_parameters"
)

// Sentinel errors reported when the service is assembled without its collaborators.
var (
	errSourceDefinitionReaderMissing      = errors.New("source definition reader not configured")
	errDestinationDefinitionWriterMissing = errors.New("destination definition writer not configured")
	errCloudFunctionMigratorMissing       = errors.New("cloud function migrator not configured")
	errCustomFormMigratorMissing          = errors.New("custom form migrator not configured")
	errCustomPageMigratorMissing          = errors.New("custom page migrator not configured")
	errThemeMigratorMissing               = errors.New("theme migrator not configured")
	errWorkspaceMissing                   = errors.New("staging workspace not configured")
)

// InvalidInputError describes migration option validation failures.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s", inputError.FieldName, inputError.Message)
}

// SourceDefinitionReader fetches process definitions from the source tenant.
type SourceDefinitionReader interface {
	GetProcessDefinition(executionContext context.Context, definitionIdentifier string) (trustxapi.ProcessDefinition, error)
}

// DestinationDefinitionWriter recreates and activates process definitions on
// the destination tenant.
type DestinationDefinitionWriter interface {
	CreateProcessDefinition(executionContext context.Context, request trustxapi.CreateProcessDefinitionRequest) (trustxapi.ProcessDefinitionMetadata, error)
	ActivateProcessDefinition(executionContext context.Context, definitionIdentifier string, createdMetadata map[string]any) (trustxapi.ProcessDefinitionMetadata, error)
}

// TextAssetMigration migrates assets whose payload is a single text document.
type TextAssetMigration interface {
	Fetch(executionContext context.Context, reference bpmn.AssetReference) (shared.StagedTextAsset, error)
	Push(executionContext context.Context, staged shared.StagedTextAsset) (shared.MigrationOutcome, error)
}

// CustomPageMigration migrates custom pages with their preview bundles.
type CustomPageMigration interface {
	Fetch(executionContext context.Context, reference bpmn.AssetReference) (pages.StagedPage, error)
	Push(executionContext context.Context, staged pages.StagedPage) (shared.MigrationOutcome, error)
}

// ThemeMigration migrates the theme linked to the source definition.
type ThemeMigration interface {
	Fetch(executionContext context.Context, themeIdentifier string) (themes.StagedTheme, error)
	Push(executionContext context.Context, staged themes.StagedTheme) (shared.MigrationOutcome, error)
}

// ConfirmationPrompter asks the operator a yes/no question.
type ConfirmationPrompter interface {
	Confirm(prompt string) (bool, error)
}

// ServiceDependencies describes required collaborators for a migration run.
type ServiceDependencies struct {
	Logger                 *zap.Logger
	SourceDefinitions      SourceDefinitionReader
	DestinationDefinitions DestinationDefinitionWriter
	CloudFunctions         TextAssetMigration
	CustomForms            TextAssetMigration
	CustomPages            CustomPageMigration
	Themes                 ThemeMigration
	Rewriter               *bpmn.Rewriter
	Workspace              *staging.Workspace
	Prompter               ConfirmationPrompter
	RunIdentifierProvider  func() string
}

// MigrationOptions configures one migration run.
type MigrationOptions struct {
	SourceDefinitionID     string
	DestinationName        string
	DestinationDescription string
	WatchlistsConfirmed    bool
	DryRun                 bool
}

// Service drives the migration state machine.
type Service struct {
	logger                 *zap.Logger
	sourceDefinitions      SourceDefinitionReader
	destinationDefinitions DestinationDefinitionWriter
	cloudFunctions         TextAssetMigration
	customForms            TextAssetMigration
	customPages            CustomPageMigration
	themes                 ThemeMigration
	rewriter               *bpmn.Rewriter
	workspace              *staging.Workspace
	prompter               ConfirmationPrompter
	runIdentifierProvider  func() string
}

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.SourceDefinitions == nil {
		return nil, errSourceDefinitionReaderMissing
	}
	if dependencies.DestinationDefinitions == nil {
		return nil, errDestinationDefinitionWriterMissing
	}
	if dependencies.CloudFunctions == nil {
		return nil, errCloudFunctionMigratorMissing
	}
	if dependencies.CustomForms == nil {
		return nil, errCustomFormMigratorMissing
	}
	if dependencies.CustomPages == nil {
		return nil, errCustomPageMigratorMissing
	}
	if dependencies.Themes == nil {
		return nil, errThemeMigratorMissing
	}
	if dependencies.Workspace == nil {
		return nil, errWorkspaceMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rewriter := dependencies.Rewriter
	if rewriter == nil {
		rewriter = bpmn.NewRewriter(logger)
	}
	runIdentifierProvider := dependencies.RunIdentifierProvider
	if runIdentifierProvider == nil {
		runIdentifierProvider = uuid.NewString
	}

	return &Service{
		logger:                 logger,
		sourceDefinitions:      dependencies.SourceDefinitions,
		destinationDefinitions: dependencies.DestinationDefinitions,
		cloudFunctions:         dependencies.CloudFunctions,
		customForms:            dependencies.CustomForms,
		customPages:            dependencies.CustomPages,
		themes:                 dependencies.Themes,
		rewriter:               rewriter,
		workspace:              dependencies.Workspace,
		prompter:               dependencies.Prompter,
		runIdentifierProvider:  runIdentifierProvider,
	}, nil
}

// Execute runs the migration state machine. Structural failures terminate the
// run with the result reporting the state reached; per-asset failures are
// logged and skipped. Cancellation always terminates the run.
func (service *Service) Execute(executionContext context.Context, options MigrationOptions) (Result, error) {
	if validationError := service.validateOptions(options); validationError != nil {
		return Result{}, validationError
	}

	result := Result{RunIdentifier: service.runIdentifierProvider()}
	runLogger := service.logger.With(zap.String(runIdentifierLogFieldConstant, result.RunIdentifier))
	runLogger.Info(runStartedMessageConstant,
		zap.String(definitionIdentifierLogFieldConstant, options.SourceDefinitionID),
		zap.String(nameLogFieldConstant, options.DestinationName),
	)

	service.enterState(&result, runLogger, StateFetchSourceDocument)
	if cleanError := service.workspace.Clean(); cleanError != nil {
		return result, cleanError
	}

	sourceDefinition, fetchError := service.sourceDefinitions.GetProcessDefinition(executionContext, options.SourceDefinitionID)
	if fetchError != nil {
		return result, fmt.Errorf(fetchSourceDocumentErrorTemplateConstant, fetchError)
	}
	sourceDocumentPath := service.workspace.SourceDocumentPath(sourceDefinition.ID)
	if stageError := service.workspace.WriteFile(sourceDocumentPath, sourceDefinition.Document); stageError != nil {
		return result, fmt.Errorf(stageSourceDocumentErrorTemplateConstant, stageError)
	}
	document, parseError := bpmn.Parse(sourceDefinition.Document)
	if parseError != nil {
		return result, parseError
	}

	service.enterState(&result, runLogger, StateExtractReferences)
	references := document.ExtractReferences()
	result.References = references
	runLogger.Info(referencesExtractedMessageConstant,
		zap.Int(cloudFunctionCountLogFieldConstant, len(references.CloudFunctions)),
		zap.Int(customFormCountLogFieldConstant, len(references.CustomForms)),
		zap.Int(customPageCountLogFieldConstant, len(references.CustomPages)),
		zap.Int(watchlistCountLogFieldConstant, len(references.Watchlists)),
	)
	if options.DryRun {
		runLogger.Info(dryRunCompletedMessageConstant)
		return result, nil
	}

	service.enterState(&result, runLogger, StateConfirmManualPrerequisites)
	if confirmError := service.confirmWatchlists(&result, runLogger, references.Watchlists, options); confirmError != nil {
		return result, confirmError
	}

	result.Aggregation = NewAggregation()
	result.Aggregation.RecordWatchlists(references.Watchlists)

	service.enterState(&result, runLogger, StateMigrateTheme)
	if themeError := service.migrateTheme(executionContext, runLogger, sourceDefinition.ThemeID, &result.Aggregation); themeError != nil {
		return result, themeError
	}

	service.enterState(&result, runLogger, StateMigrateCloudFunctions)
	if migrationError := service.migrateTextAssets(executionContext, runLogger, service.cloudFunctions, references.CloudFunctions, result.Aggregation.RecordCloudFunction); migrationError != nil {
		return result, migrationError
	}

	service.enterState(&result, runLogger, StateMigrateCustomForms)
	if migrationError := service.migrateTextAssets(executionContext, runLogger, service.customForms, references.CustomForms, result.Aggregation.RecordCustomForm); migrationError != nil {
		return result, migrationError
	}

	service.enterState(&result, runLogger, StateMigrateCustomPages)
	if migrationError := service.migrateCustomPages(executionContext, runLogger, references.CustomPages, &result.Aggregation); migrationError != nil {
		return result, migrationError
	}

	service.enterState(&result, runLogger, StatePersistAggregation)
	if persistError := service.workspace.WriteJSON(service.workspace.AggregationPath(), result.Aggregation); persistError != nil {
		return result, fmt.Errorf(persistAggregationErrorTemplateConstant, persistError)
	}

	service.enterState(&result, runLogger, StateRewriteDocument)
	rewriteReport := service.rewriter.Apply(document, result.Aggregation.VersionUpdates())
	rewrittenDocument, serializeError := document.Serialize()
	if serializeError != nil {
		return result, fmt.Errorf(serializeDocumentErrorTemplateConstant, serializeError)
	}
	rewrittenDocumentPath := service.workspace.RewrittenDocumentPath(options.DestinationName)
	if stageError := service.workspace.WriteFile(rewrittenDocumentPath, rewrittenDocument); stageError != nil {
		return result, fmt.Errorf(stageRewrittenDocumentErrorTemplateConstant, stageError)
	}
	result.RewrittenDocumentPath = rewrittenDocumentPath
	runLogger.Info(documentRewrittenMessageConstant,
		zap.Int(rewrittenCountLogFieldConstant, rewriteReport.RewrittenParameters),
		zap.String(pathLogFieldConstant, rewrittenDocumentPath),
	)

	service.enterState(&result, runLogger, StateCreateDestinationDefinition)
	createdDefinition, createError := service.destinationDefinitions.CreateProcessDefinition(executionContext, trustxapi.CreateProcessDefinitionRequest{
		Name:        options.DestinationName,
		Description: options.DestinationDescription,
		Document:    rewrittenDocument,
		ThemeID:     service.linkedThemeIdentifier(runLogger, sourceDefinition.ThemeID, result.Aggregation),
	})
	if createError != nil {
		return result, fmt.Errorf(createDefinitionErrorTemplateConstant, createError)
	}
	result.CreatedDefinition = createdDefinition
	if persistError := service.workspace.WriteJSON(service.workspace.CreatedDefinitionPath(), createdDefinition.Raw); persistError != nil {
		return result, fmt.Errorf(persistCreatedDefinitionErrorTemplateConstant, persistError)
	}

	service.enterState(&result, runLogger, StateActivateDestinationDefinition)
	activatedDefinition, activateError := service.destinationDefinitions.ActivateProcessDefinition(executionContext, createdDefinition.ID, createdDefinition.Raw)
	if activateError != nil {
		return result, fmt.Errorf(activateDefinitionErrorTemplateConstant, activateError)
	}
	result.ActivatedDefinition = activatedDefinition
	if persistError := service.workspace.WriteJSON(service.workspace.ActivatedDefinitionPath(), activatedDefinition.Raw); persistError != nil {
		return result, fmt.Errorf(persistActivatedSnapshotErrorTemplateConstant, persistError)
	}

	service.enterState(&result, runLogger, StateDone)
	runLogger.Info(runCompletedMessageConstant,
		zap.String(definitionIdentifierLogFieldConstant, createdDefinition.ID),
		zap.Int(versionLogFieldConstant, activatedDefinition.Version),
	)
	return result, nil
}

func (service *Service) validateOptions(options MigrationOptions) error {
	if len(strings.TrimSpace(options.SourceDefinitionID)) == 0 {
		return InvalidInputError{FieldName: sourceDefinitionFieldNameOptionConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(options.DestinationName)) == 0 {
		return InvalidInputError{FieldName: destinationNameFieldNameOptionConstant, Message: requiredValueMessageConstant}
	}
	return nil
}

func (service *Service) enterState(result *Result, runLogger *zap.Logger, nextState State) {
	result.FinalState = nextState
	runLogger.Debug(stateEnteredMessageConstant, zap.String(stateLogFieldConstant, string(nextState)))
}

// confirmWatchlists gates the run on watchlist prerequisites. Confirmation
// comes from the pre-supplied option or, when a prompter is configured, from
// asking the operator once.
func (service *Service) confirmWatchlists(result *Result, runLogger *zap.Logger, watchlists []bpmn.WatchlistReference, options MigrationOptions) error {
	if len(watchlists) == 0 {
		return nil
	}

	watchlistNames := make([]string, 0, len(watchlists))
	for _, watchlist := range watchlists {
		watchlistNames = append(watchlistNames, watchlist.Name)
	}

	confirmed := options.WatchlistsConfirmed
	if !confirmed && service.prompter != nil {
		promptedConfirmation, promptError := service.prompter.Confirm(fmt.Sprintf(watchlistPromptTemplateConstant, strings.Join(watchlistNames, watchlistNamesJoinSeparator)))
		if promptError != nil {
			return fmt.Errorf(confirmWatchlistsErrorTemplateConstant, promptError)
		}
		confirmed = promptedConfirmation
	}
	if !confirmed {
		result.FinalState = StateAwaitingWatchlistConfirmation
		return ManualPrerequisiteUnconfirmedError{Watchlists: watchlistNames}
	}

	runLogger.Info(watchlistsConfirmedMessageConstant, zap.Strings(watchlistNamesLogFieldConstant, watchlistNames))
	return nil
}

// migrateTheme fetches and recreates the linked theme. Theme failures leave
// the aggregation without a theme entry and the run continues; only
// cancellation terminates it.
func (service *Service) migrateTheme(executionContext context.Context, runLogger *zap.Logger, themeIdentifier string, aggregation *Aggregation) error {
	if len(themeIdentifier) == 0 {
		runLogger.Info(themeAbsentMessageConstant)
		return nil
	}

	stagedTheme, fetchError := service.themes.Fetch(executionContext, themeIdentifier)
	if fetchError != nil {
		if shared.IsCancellation(fetchError) {
			return fetchError
		}
		runLogger.Warn(themeFetchFailedWarnMessageConstant,
			zap.String(themeIdentifierLogFieldConstant, themeIdentifier),
			zap.Error(fetchError),
		)
		return nil
	}

	themeOutcome, pushError := service.themes.Push(executionContext, stagedTheme)
	if pushError != nil {
		if shared.IsCancellation(pushError) {
			return pushError
		}
		runLogger.Warn(themePushFailedWarnMessageConstant,
			zap.String(themeIdentifierLogFieldConstant, themeIdentifier),
			zap.Error(pushError),
		)
		return nil
	}

	aggregation.RecordTheme(themeOutcome)
	return nil
}

// migrateTextAssets runs the fetch-all-then-push-all loop for one asset kind.
// Failed assets are logged and skipped; cancellation passes through.
func (service *Service) migrateTextAssets(executionContext context.Context, runLogger *zap.Logger, migrator TextAssetMigration, references []bpmn.AssetReference, record func(shared.MigrationOutcome)) error {
	stagedAssets := make([]shared.StagedTextAsset, 0, len(references))
	for _, reference := range references {
		stagedAsset, fetchError := migrator.Fetch(executionContext, reference)
		if fetchError != nil {
			if shared.IsCancellation(fetchError) {
				return fetchError
			}
			runLogger.Warn(assetFetchFailedWarnMessageConstant,
				zap.String(nameLogFieldConstant, reference.Name),
				zap.Error(fetchError),
			)
			continue
		}
		stagedAssets = append(stagedAssets, stagedAsset)
	}

	for _, stagedAsset := range stagedAssets {
		outcome, pushError := migrator.Push(executionContext, stagedAsset)
		if pushError != nil {
			if shared.IsCancellation(pushError) {
				return pushError
			}
			runLogger.Warn(assetPushFailedWarnMessageConstant,
				zap.String(nameLogFieldConstant, stagedAsset.Name),
				zap.Error(pushError),
			)
			continue
		}
		record(outcome)
	}
	return nil
}

func (service *Service) migrateCustomPages(executionContext context.Context, runLogger *zap.Logger, references []bpmn.AssetReference, aggregation *Aggregation) error {
	stagedPages := make([]pages.StagedPage, 0, len(references))
	for _, reference := range references {
		stagedPage, fetchError := service.customPages.Fetch(executionContext, reference)
		if fetchError != nil {
			if shared.IsCancellation(fetchError) {
				return fetchError
			}
			runLogger.Warn(assetFetchFailedWarnMessageConstant,
				zap.String(nameLogFieldConstant, reference.Name),
				zap.Error(fetchError),
			)
			continue
		}
		stagedPages = append(stagedPages, stagedPage)
	}

	for _, stagedPage := range stagedPages {
		outcome, pushError := service.customPages.Push(executionContext, stagedPage)
		if pushError != nil {
			if shared.IsCancellation(pushError) {
				return pushError
			}
			runLogger.Warn(assetPushFailedWarnMessageConstant,
				zap.String(nameLogFieldConstant, stagedPage.Name),
				zap.Error(pushError),
			)
			continue
		}
		aggregation.RecordCustomPage(outcome)
	}
	return nil
}

// linkedThemeIdentifier picks the theme id the destination definition links:
// the migrated theme's new id when migration succeeded, the source id as a
// logged passthrough when the source had a theme that failed to migrate, and
// nothing otherwise.
func (service *Service) linkedThemeIdentifier(runLogger *zap.Logger, sourceThemeIdentifier string, aggregation Aggregation) string {
	if aggregation.Theme != nil {
		return aggregation.Theme.ID
	}
	if len(sourceThemeIdentifier) > 0 {
		runLogger.Warn(themePassthroughWarnMessageConstant, zap.String(themeIdentifierLogFieldConstant, sourceThemeIdentifier))
		return sourceThemeIdentifier
	}
	return ""
}
