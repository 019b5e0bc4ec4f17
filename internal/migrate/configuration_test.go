package migrate

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/OmerShlush/trustx-migration/internal/httpexec"
)

func TestDefaultCommandConfigurationProvidesBaselines(testInstance *testing.T) {
	configuration := DefaultCommandConfiguration()

	require.Equal(testInstance, "output", configuration.OutputDirectory)
	require.Equal(testInstance, 30, configuration.Migration.HTTP.TimeoutSeconds)
	require.Equal(testInstance, 3, configuration.Migration.HTTP.RetryAttempts)
	require.Equal(testInstance, 500, configuration.Migration.HTTP.RetryDelayMilliseconds)
	require.Equal(testInstance, 50, configuration.Migration.MaxVersionPages)
	require.False(testInstance, configuration.Migration.ConfirmWatchlists)
}

func TestCommandConfigurationSanitizeNormalizesValues(testInstance *testing.T) {
	configuration := CommandConfiguration{
		Source: SourceConfiguration{
			BaseURL:             "  https://source.trustx.example  ",
			APIKey:              " key-a ",
			ProcessDefinitionID: " pd-1 ",
		},
		Destination: DestinationConfiguration{
			BaseURL:               "\thttps://dest.trustx.example\n",
			APIKey:                " key-b ",
			ProcessDefinitionName: " checkout copy ",
		},
		OutputDirectory: "  staged//artifacts  ",
		Migration: MigrationSettings{
			HTTP:            HTTPConfiguration{TimeoutSeconds: -1, RetryAttempts: 0, RetryDelayMilliseconds: -10},
			MaxVersionPages: 0,
		},
	}

	sanitized := configuration.Sanitize()

	require.Equal(testInstance, "https://source.trustx.example", sanitized.Source.BaseURL)
	require.Equal(testInstance, "key-a", sanitized.Source.APIKey)
	require.Equal(testInstance, "pd-1", sanitized.Source.ProcessDefinitionID)
	require.Equal(testInstance, "https://dest.trustx.example", sanitized.Destination.BaseURL)
	require.Equal(testInstance, "key-b", sanitized.Destination.APIKey)
	require.Equal(testInstance, "checkout copy", sanitized.Destination.ProcessDefinitionName)
	require.Equal(testInstance, filepath.Join("staged", "artifacts"), sanitized.OutputDirectory)
	require.Equal(testInstance, 30, sanitized.Migration.HTTP.TimeoutSeconds)
	require.Equal(testInstance, 3, sanitized.Migration.HTTP.RetryAttempts)
	require.Equal(testInstance, 500, sanitized.Migration.HTTP.RetryDelayMilliseconds)
	require.Equal(testInstance, 50, sanitized.Migration.MaxVersionPages)
}

func TestCommandConfigurationSanitizeFallsBackToDefaultOutput(testInstance *testing.T) {
	sanitized := CommandConfiguration{OutputDirectory: "   "}.Sanitize()

	require.Equal(testInstance, "output", sanitized.OutputDirectory)
}

func TestCommandConfigurationValidateReportsEveryMissingField(testInstance *testing.T) {
	validationError := CommandConfiguration{}.Validate()

	require.Error(testInstance, validationError)
	missingFieldNames := []string{
		"source.base_url",
		"source.api_key",
		"source.process_definition_id",
		"dest.base_url",
		"dest.api_key",
		"dest.process_definition_name",
	}
	for _, fieldName := range missingFieldNames {
		require.ErrorContains(testInstance, validationError, fieldName+": value required")
	}
}

func TestCommandConfigurationValidateAcceptsCompleteConfiguration(testInstance *testing.T) {
	configuration := CommandConfiguration{
		Source: SourceConfiguration{
			BaseURL:             "https://source.trustx.example",
			APIKey:              "key-a",
			ProcessDefinitionID: "pd-1",
		},
		Destination: DestinationConfiguration{
			BaseURL:               "https://dest.trustx.example",
			APIKey:                "key-b",
			ProcessDefinitionName: "checkout copy",
		},
	}

	require.NoError(testInstance, configuration.Validate())
}

func TestHTTPConfigurationExecutionPolicyAppliesBounds(testInstance *testing.T) {
	policy := HTTPConfiguration{TimeoutSeconds: 5, RetryAttempts: 1, RetryDelayMilliseconds: 200}.ExecutionPolicy()

	require.Equal(testInstance, 5*time.Second, policy.Timeout)
	require.Equal(testInstance, 1, policy.RetryAttempts)
	require.Equal(testInstance, 200*time.Millisecond, policy.RetryDelay)
}

func TestHTTPConfigurationExecutionPolicyKeepsDefaultsForZeroValues(testInstance *testing.T) {
	policy := HTTPConfiguration{}.ExecutionPolicy()
	defaultPolicy := httpexec.DefaultExecutionPolicy()

	require.Equal(testInstance, defaultPolicy.Timeout, policy.Timeout)
	require.Equal(testInstance, defaultPolicy.RetryAttempts, policy.RetryAttempts)
	require.Equal(testInstance, defaultPolicy.RetryDelay, policy.RetryDelay)
}
