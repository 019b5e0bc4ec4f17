package docs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-viper/mapstructure/v2"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/OmerShlush/trustx-migration/cmd/cli"
	"github.com/OmerShlush/trustx-migration/internal/migrate"
	"github.com/OmerShlush/trustx-migration/internal/utils"
)

const (
	readmeFileNameConstant           = "README.md"
	yamlFenceStartConstant           = "```yaml"
	yamlFenceEndConstant             = "```"
	configHeaderMarkerConstant       = "# config.yaml"
	parentDirectoryReferenceConstant = ".."
	snippetFileNameConstant          = "config.yaml"
	testConfigurationNameConstant    = "config"
	testConfigurationTypeConstant    = "yaml"
	testEnvironmentPrefixConstant    = "TRUSTXDOCS"
	missingHeaderMessageConstant     = "README example missing config header marker"
	missingStartFenceMessageConstant = "README example missing yaml fence start"
	missingEndFenceMessageConstant   = "README example missing yaml fence end"
)

func readmeConfigurationSnippet(testInstance *testing.T) string {
	testInstance.Helper()

	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	readmePath := filepath.Join(workingDirectory, parentDirectoryReferenceConstant, readmeFileNameConstant)
	contentBytes, readError := os.ReadFile(readmePath)
	require.NoError(testInstance, readError)

	contentText := string(contentBytes)
	headerIndex := strings.Index(contentText, configHeaderMarkerConstant)
	require.NotEqual(testInstance, -1, headerIndex, missingHeaderMessageConstant)

	fenceStartIndex := strings.LastIndex(contentText[:headerIndex], yamlFenceStartConstant)
	require.NotEqual(testInstance, -1, fenceStartIndex, missingStartFenceMessageConstant)

	fenceEndRelativeIndex := strings.Index(contentText[headerIndex:], yamlFenceEndConstant)
	require.NotEqual(testInstance, -1, fenceEndRelativeIndex, missingEndFenceMessageConstant)
	fenceEndIndex := headerIndex + fenceEndRelativeIndex

	return strings.TrimSpace(contentText[fenceStartIndex+len(yamlFenceStartConstant) : fenceEndIndex])
}

func loadReadmeConfiguration(testInstance *testing.T, snippetContent string) cli.ApplicationConfiguration {
	testInstance.Helper()

	snippetPath := filepath.Join(testInstance.TempDir(), snippetFileNameConstant)
	require.NoError(testInstance, os.WriteFile(snippetPath, []byte(snippetContent), 0o600))

	configurationLoader := utils.NewConfigurationLoader(utils.ConfigurationLoaderOptions{
		ConfigurationName: testConfigurationNameConstant,
		ConfigurationType: testConfigurationTypeConstant,
		EnvironmentPrefix: testEnvironmentPrefixConstant,
	})

	loadedConfiguration := cli.ApplicationConfiguration{}
	metadata, loadError := configurationLoader.Load(snippetPath, nil, &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, snippetPath, metadata.ConfigFileUsed)
	return loadedConfiguration
}

func TestReadmeConfigurationExampleLoads(testInstance *testing.T) {
	snippetContent := readmeConfigurationSnippet(testInstance)
	loadedConfiguration := loadReadmeConfiguration(testInstance, snippetContent)

	commandConfiguration := migrate.CommandConfiguration{
		Source:          loadedConfiguration.Source,
		Destination:     loadedConfiguration.Dest,
		OutputDirectory: loadedConfiguration.OutputDir,
		Migration:       loadedConfiguration.Migration,
	}
	require.NoError(testInstance, commandConfiguration.Validate())

	defaults := migrate.DefaultCommandConfiguration()
	require.Equal(testInstance, defaults.OutputDirectory, loadedConfiguration.OutputDir)
	require.Equal(testInstance, defaults.Migration, loadedConfiguration.Migration)
}

func TestReadmeConfigurationExampleMatchesDirectDecode(testInstance *testing.T) {
	snippetContent := readmeConfigurationSnippet(testInstance)
	loadedConfiguration := loadReadmeConfiguration(testInstance, snippetContent)

	rawConfiguration := map[string]any{}
	require.NoError(testInstance, yaml.Unmarshal([]byte(snippetContent), &rawConfiguration))

	decodedConfiguration := cli.ApplicationConfiguration{}
	require.NoError(testInstance, mapstructure.Decode(rawConfiguration, &decodedConfiguration))

	require.Equal(testInstance, decodedConfiguration, loadedConfiguration)
}
