package migrate

import (
	"errors"
	"strings"
	"time"

	"github.com/OmerShlush/trustx-migration/internal/httpexec"
	pathutils "github.com/OmerShlush/trustx-migration/internal/utils/path"
)

const (
	defaultOutputDirectoryConstant      = "output"
	defaultHTTPTimeoutSecondsConstant   = 30
	defaultHTTPRetryAttemptsConstant    = 3
	defaultHTTPRetryDelayMillisConstant = 500
	defaultMaxVersionPagesConstant      = 50
	sourceBaseURLFieldNameConstant      = "source.base_url"
	sourceAPIKeyFieldNameConstant       = "source.api_key"
	sourceDefinitionFieldNameConstant   = "source.process_definition_id"
	destinationBaseURLFieldNameConstant = "dest.base_url"
	destinationAPIKeyFieldNameConstant  = "dest.api_key"
	destinationNameFieldNameConstant    = "dest.process_definition_name"
	requiredValueMessageConstant        = "value required"
)

var commandConfigurationOutputPathResolver = pathutils.NewOutputPathResolver()

// SourceConfiguration identifies the tenant and process definition the run
// migrates from.
type SourceConfiguration struct {
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	ProcessDefinitionID string `mapstructure:"process_definition_id"`
}

// DestinationConfiguration identifies the tenant migrated to and the name the
// recreated process definition is given there.
type DestinationConfiguration struct {
	BaseURL               string `mapstructure:"base_url"`
	APIKey                string `mapstructure:"api_key"`
	ProcessDefinitionName string `mapstructure:"process_definition_name"`
}

// HTTPConfiguration bounds every platform request issued during a run.
type HTTPConfiguration struct {
	TimeoutSeconds         int `mapstructure:"timeout_seconds"`
	RetryAttempts          int `mapstructure:"retry_attempts"`
	RetryDelayMilliseconds int `mapstructure:"retry_delay_milliseconds"`
}

// ExecutionPolicy converts the configured bounds into the executor policy.
func (configuration HTTPConfiguration) ExecutionPolicy() httpexec.ExecutionPolicy {
	policy := httpexec.DefaultExecutionPolicy()
	if configuration.TimeoutSeconds > 0 {
		policy.Timeout = time.Duration(configuration.TimeoutSeconds) * time.Second
	}
	if configuration.RetryAttempts > 0 {
		policy.RetryAttempts = configuration.RetryAttempts
	}
	if configuration.RetryDelayMilliseconds > 0 {
		policy.RetryDelay = time.Duration(configuration.RetryDelayMilliseconds) * time.Millisecond
	}
	return policy
}

// MigrationSettings captures run behavior that is configuration rather than
// tenant identity.
type MigrationSettings struct {
	ConfirmWatchlists bool              `mapstructure:"confirm_watchlists"`
	HTTP              HTTPConfiguration `mapstructure:"http"`
	MaxVersionPages   int               `mapstructure:"max_version_pages"`
}

// CommandConfiguration captures persisted configuration for the migrate
// command.
type CommandConfiguration struct {
	Source          SourceConfiguration      `mapstructure:"source"`
	Destination     DestinationConfiguration `mapstructure:"dest"`
	OutputDirectory string                   `mapstructure:"output_dir"`
	Migration       MigrationSettings        `mapstructure:"migration"`
}

// DefaultCommandConfiguration returns baseline configuration values for the
// migrate command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		OutputDirectory: defaultOutputDirectoryConstant,
		Migration: MigrationSettings{
			HTTP: HTTPConfiguration{
				TimeoutSeconds:         defaultHTTPTimeoutSecondsConstant,
				RetryAttempts:          defaultHTTPRetryAttemptsConstant,
				RetryDelayMilliseconds: defaultHTTPRetryDelayMillisConstant,
			},
			MaxVersionPages: defaultMaxVersionPagesConstant,
		},
	}
}

// Sanitize trims configured values, resolves the output directory, and
// normalizes non-positive bounds back to their defaults.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Source.BaseURL = strings.TrimSpace(configuration.Source.BaseURL)
	sanitized.Source.APIKey = strings.TrimSpace(configuration.Source.APIKey)
	sanitized.Source.ProcessDefinitionID = strings.TrimSpace(configuration.Source.ProcessDefinitionID)
	sanitized.Destination.BaseURL = strings.TrimSpace(configuration.Destination.BaseURL)
	sanitized.Destination.APIKey = strings.TrimSpace(configuration.Destination.APIKey)
	sanitized.Destination.ProcessDefinitionName = strings.TrimSpace(configuration.Destination.ProcessDefinitionName)
	sanitized.OutputDirectory = commandConfigurationOutputPathResolver.Resolve(configuration.OutputDirectory, defaultOutputDirectoryConstant)
	if sanitized.Migration.HTTP.TimeoutSeconds <= 0 {
		sanitized.Migration.HTTP.TimeoutSeconds = defaultHTTPTimeoutSecondsConstant
	}
	if sanitized.Migration.HTTP.RetryAttempts <= 0 {
		sanitized.Migration.HTTP.RetryAttempts = defaultHTTPRetryAttemptsConstant
	}
	if sanitized.Migration.HTTP.RetryDelayMilliseconds <= 0 {
		sanitized.Migration.HTTP.RetryDelayMilliseconds = defaultHTTPRetryDelayMillisConstant
	}
	if sanitized.Migration.MaxVersionPages <= 0 {
		sanitized.Migration.MaxVersionPages = defaultMaxVersionPagesConstant
	}
	return sanitized
}

// Validate reports every missing required field in a single error so an
// operator can fix the configuration in one pass.
func (configuration CommandConfiguration) Validate() error {
	var validationErrors []error
	appendMissing := func(fieldName string, fieldValue string) {
		if len(strings.TrimSpace(fieldValue)) == 0 {
			validationErrors = append(validationErrors, InvalidInputError{FieldName: fieldName, Message: requiredValueMessageConstant})
		}
	}

	appendMissing(sourceBaseURLFieldNameConstant, configuration.Source.BaseURL)
	appendMissing(sourceAPIKeyFieldNameConstant, configuration.Source.APIKey)
	appendMissing(sourceDefinitionFieldNameConstant, configuration.Source.ProcessDefinitionID)
	appendMissing(destinationBaseURLFieldNameConstant, configuration.Destination.BaseURL)
	appendMissing(destinationAPIKeyFieldNameConstant, configuration.Destination.APIKey)
	appendMissing(destinationNameFieldNameConstant, configuration.Destination.ProcessDefinitionName)

	return errors.Join(validationErrors...)
}
