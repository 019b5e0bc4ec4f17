package migrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/OmerShlush/trustx-migration/internal/assets/forms"
	"github.com/OmerShlush/trustx-migration/internal/assets/functions"
	"github.com/OmerShlush/trustx-migration/internal/assets/pages"
	"github.com/OmerShlush/trustx-migration/internal/assets/shared"
	"github.com/OmerShlush/trustx-migration/internal/assets/themes"
	"github.com/OmerShlush/trustx-migration/internal/httpexec"
	"github.com/OmerShlush/trustx-migration/internal/staging"
	"github.com/OmerShlush/trustx-migration/internal/trustxapi"
	"github.com/OmerShlush/trustx-migration/internal/trustxauth"
	"github.com/OmerShlush/trustx-migration/internal/ui"
	"github.com/OmerShlush/trustx-migration/internal/utils"
	"github.com/OmerShlush/trustx-migration/internal/versions"
)

const (
	commandUseConstant              = "migrate"
	commandShortDescriptionConstant = "Migrate a process definition between tenants"
	commandLongDescriptionConstant  = "migrate copies a process definition and its referenced assets (cloud functions, data forms, custom pages, theme) from the source tenant to the destination tenant, rewrites the version references inside the document, and activates the recreated definition."

	processDefinitionFlagNameConstant  = "process-definition"
	processDefinitionFlagUsageConstant = "Identifier of the process definition to migrate from the source tenant"
	destinationNameFlagNameConstant    = "name"
	destinationNameFlagUsageConstant   = "Name the migrated process definition receives on the destination tenant"
	outputFlagNameConstant             = "output"
	outputFlagUsageConstant            = "Directory staging fetched and rewritten artifacts"
	confirmWatchlistsFlagNameConstant  = "confirm-watchlists"
	confirmWatchlistsFlagUsageConstant = "Confirm referenced watchlists already exist on the destination tenant"
	dryRunFlagNameConstant             = "dry-run"
	dryRunFlagUsageConstant            = "Fetch the document and report extracted references without migrating anything"

	migrateCommandExecutionErrorTemplateConstant   = "migration failed: %w"
	requestExecutorCreationErrorTemplateConstant   = "unable to construct request executor: %w"
	tokenIssuerCreationErrorTemplateConstant       = "unable to construct token issuer: %w"
	sourceAuthenticationErrorTemplateConstant      = "authenticate against source tenant: %w"
	destinationAuthenticationErrorTemplateConstant = "authenticate against destination tenant: %w"
	sourceClientCreationErrorTemplateConstant      = "unable to construct source tenant client: %w"
	destinationClientCreationErrorTemplateConstant = "unable to construct destination tenant client: %w"

	migrationFailedMessageConstant  = "migration failed"
	migrationSummaryMessageConstant = "process definition migrated"
	outputDirectoryLogFieldConstant = "output_dir"
)

// MigrationExecutor runs migrations on behalf of the command layer.
type MigrationExecutor interface {
	Execute(executionContext context.Context, options MigrationOptions) (Result, error)
}

// ServiceProvider constructs a migration executor from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (MigrationExecutor, error)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// PrompterProvider supplies the confirmation prompter the watchlist gate uses.
type PrompterProvider func() ConfirmationPrompter

type commandOptions struct {
	debugLoggingEnabled bool
	configuration       CommandConfiguration
	migration           MigrationOptions
}

// CommandBuilder assembles the migrate Cobra command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ServiceProvider              ServiceProvider
	PrompterProvider             PrompterProvider
	ConfigurationProvider        func() CommandConfiguration
	HumanReadableLoggingProvider func() bool
}

// Build constructs the migrate command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runMigrate,
	}

	command.Flags().String(processDefinitionFlagNameConstant, "", processDefinitionFlagUsageConstant)
	command.Flags().String(destinationNameFlagNameConstant, "", destinationNameFlagUsageConstant)
	command.Flags().String(outputFlagNameConstant, "", outputFlagUsageConstant)
	command.Flags().Bool(confirmWatchlistsFlagNameConstant, false, confirmWatchlistsFlagUsageConstant)
	command.Flags().Bool(dryRunFlagNameConstant, false, dryRunFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) runMigrate(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger(options.debugLoggingEnabled)

	service, serviceError := builder.resolveService(command.Context(), logger, options.configuration)
	if serviceError != nil {
		return serviceError
	}

	result, migrationError := service.Execute(command.Context(), options.migration)
	if migrationError != nil {
		if errors.Is(migrationError, context.Canceled) || errors.Is(migrationError, context.DeadlineExceeded) {
			return migrationError
		}
		logger.Error(
			migrationFailedMessageConstant,
			zap.String(stateLogFieldConstant, string(result.FinalState)),
			zap.Error(migrationError),
		)
		return fmt.Errorf(migrateCommandExecutionErrorTemplateConstant, migrationError)
	}

	builder.logSummary(logger, options, result)
	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (commandOptions, error) {
	configuration := builder.resolveConfiguration()

	debugEnabled := false
	if command != nil {
		contextAccessor := utils.NewCommandContextAccessor()
		if logLevel, available := contextAccessor.LogLevel(command.Context()); available {
			if strings.EqualFold(string(logLevel), string(utils.LogLevelDebug)) {
				debugEnabled = true
			}
		}
	}

	dryRunEnabled := false
	if command != nil {
		flags := command.Flags()
		if flags.Changed(processDefinitionFlagNameConstant) {
			flagValue, _ := flags.GetString(processDefinitionFlagNameConstant)
			configuration.Source.ProcessDefinitionID = strings.TrimSpace(flagValue)
		}
		if flags.Changed(destinationNameFlagNameConstant) {
			flagValue, _ := flags.GetString(destinationNameFlagNameConstant)
			configuration.Destination.ProcessDefinitionName = strings.TrimSpace(flagValue)
		}
		if flags.Changed(outputFlagNameConstant) {
			flagValue, _ := flags.GetString(outputFlagNameConstant)
			configuration.OutputDirectory = commandConfigurationOutputPathResolver.Resolve(flagValue, defaultOutputDirectoryConstant)
		}
		if flags.Changed(confirmWatchlistsFlagNameConstant) {
			flagValue, _ := flags.GetBool(confirmWatchlistsFlagNameConstant)
			configuration.Migration.ConfirmWatchlists = flagValue
		}
		if flags.Changed(dryRunFlagNameConstant) {
			dryRunEnabled, _ = flags.GetBool(dryRunFlagNameConstant)
		}
	}

	if validationError := configuration.Validate(); validationError != nil {
		return commandOptions{}, validationError
	}

	return commandOptions{
		debugLoggingEnabled: debugEnabled,
		configuration:       configuration,
		migration: MigrationOptions{
			SourceDefinitionID:  configuration.Source.ProcessDefinitionID,
			DestinationName:     configuration.Destination.ProcessDefinitionName,
			WatchlistsConfirmed: configuration.Migration.ConfirmWatchlists,
			DryRun:              dryRunEnabled,
		},
	}, nil
}

func (builder *CommandBuilder) resolveLogger(enableDebug bool) *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if enableDebug {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.DebugLevel))
	}
	return logger
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}

	provided := builder.ConfigurationProvider()
	return provided.Sanitize()
}

func (builder *CommandBuilder) resolvePrompter() ConfirmationPrompter {
	if builder.PrompterProvider != nil {
		return builder.PrompterProvider()
	}
	return ui.NewIOConfirmationPrompter(os.Stdin, os.Stdout)
}

func (builder *CommandBuilder) resolveRequestObserver(logger *zap.Logger) httpexec.RequestEventObserver {
	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}
	if humanReadableLogging {
		return ui.NewConsoleRequestEventLogger(logger)
	}
	return httpexec.NewNoopRequestEventObserver()
}

// resolveService assembles the tenant clients and asset migrators, issuing a
// bearer token per tenant up front. An injected ServiceProvider bypasses the
// network-backed assembly entirely.
func (builder *CommandBuilder) resolveService(executionContext context.Context, logger *zap.Logger, configuration CommandConfiguration) (MigrationExecutor, error) {
	prompter := builder.resolvePrompter()
	if builder.ServiceProvider != nil {
		return builder.ServiceProvider(ServiceDependencies{Logger: logger, Prompter: prompter})
	}

	requestExecutor, executorError := httpexec.NewRequestExecutorWithObserver(logger, httpexec.NewNetworkRequestRunner(), configuration.Migration.HTTP.ExecutionPolicy(), builder.resolveRequestObserver(logger))
	if executorError != nil {
		return nil, fmt.Errorf(requestExecutorCreationErrorTemplateConstant, executorError)
	}

	tokenIssuer, issuerError := trustxauth.NewTokenIssuer(logger, requestExecutor)
	if issuerError != nil {
		return nil, fmt.Errorf(tokenIssuerCreationErrorTemplateConstant, issuerError)
	}

	sourceToken, sourceTokenError := tokenIssuer.Issue(executionContext, trustxauth.TenantCredentials{BaseURL: configuration.Source.BaseURL, APIKey: configuration.Source.APIKey})
	if sourceTokenError != nil {
		return nil, fmt.Errorf(sourceAuthenticationErrorTemplateConstant, sourceTokenError)
	}
	destinationToken, destinationTokenError := tokenIssuer.Issue(executionContext, trustxauth.TenantCredentials{BaseURL: configuration.Destination.BaseURL, APIKey: configuration.Destination.APIKey})
	if destinationTokenError != nil {
		return nil, fmt.Errorf(destinationAuthenticationErrorTemplateConstant, destinationTokenError)
	}

	sourceClient, sourceClientError := trustxapi.NewClient(logger, requestExecutor, configuration.Source.BaseURL, sourceToken)
	if sourceClientError != nil {
		return nil, fmt.Errorf(sourceClientCreationErrorTemplateConstant, sourceClientError)
	}
	destinationClient, destinationClientError := trustxapi.NewClient(logger, requestExecutor, configuration.Destination.BaseURL, destinationToken)
	if destinationClientError != nil {
		return nil, fmt.Errorf(destinationClientCreationErrorTemplateConstant, destinationClientError)
	}

	workspace := staging.NewWorkspace(configuration.OutputDirectory)
	versionResolver := versions.NewResolver(logger, versions.ResolverOptions{MaxPages: configuration.Migration.MaxVersionPages})

	textAssetDependencies := shared.TextAssetDependencies{
		Logger:    logger,
		Reader:    sourceClient,
		Writer:    destinationClient,
		Resolver:  versionResolver,
		Workspace: workspace,
	}

	return NewService(ServiceDependencies{
		Logger:                 logger,
		SourceDefinitions:      sourceClient,
		DestinationDefinitions: destinationClient,
		CloudFunctions:         functions.NewMigrator(textAssetDependencies),
		CustomForms:            forms.NewMigrator(textAssetDependencies),
		CustomPages: pages.NewMigrator(pages.Dependencies{
			Logger:     logger,
			Reader:     sourceClient,
			Downloader: sourceClient,
			Writer:     destinationClient,
			Resolver:   versionResolver,
			Workspace:  workspace,
		}),
		Themes: themes.NewMigrator(themes.Dependencies{
			Logger:     logger,
			Reader:     sourceClient,
			Downloader: sourceClient,
			Writer:     destinationClient,
			Workspace:  workspace,
		}),
		Workspace: workspace,
		Prompter:  prompter,
	})
}

func (builder *CommandBuilder) logSummary(logger *zap.Logger, options commandOptions, result Result) {
	if logger == nil || options.migration.DryRun {
		return
	}

	logger.Info(
		migrationSummaryMessageConstant,
		zap.String(runIdentifierLogFieldConstant, result.RunIdentifier),
		zap.String(definitionIdentifierLogFieldConstant, result.ActivatedDefinition.ID),
		zap.Int(versionLogFieldConstant, result.ActivatedDefinition.Version),
		zap.String(outputDirectoryLogFieldConstant, options.configuration.OutputDirectory),
	)
}
