// Package staging owns the on-disk artifact tree for one migration run:
// fetched source material under data/, durable outcome snapshots under
// results/, and the ZIP archives built from custom-page bundles.
package staging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dataDirectoryName    = "data"
	resultsDirectoryName = "results"

	cloudFunctionDirectoryName = "cf"
	formDirectoryName          = "forms"
	customPageDirectoryName    = "custom_pages"
	themeDirectoryName         = "theme"
	themeAssetsDirectoryName   = "assets"

	themeDocumentFileName            = "theme.json"
	aggregationFileName              = "aggregation.json"
	createdDefinitionFileName        = "created_process_definition.json"
	activatedDefinitionFileName      = "activated_process_definition.json"
	documentFileExtension            = ".bpmn"
	cloudFunctionSourceFileExtension = ".py"
	jsonFileExtension                = ".json"
	archiveFileExtension             = ".zip"

	directoryPermissions = 0o755
	filePermissions      = 0o644
)

// Workspace resolves artifact paths under one root directory and performs the
// file writes the migration phases need. Paths are derived, never created,
// until a write helper touches them.
type Workspace struct {
	rootDirectory string
}

// NewWorkspace wraps an already resolved root directory.
func NewWorkspace(rootDirectory string) *Workspace {
	return &Workspace{rootDirectory: rootDirectory}
}

// Root returns the workspace root directory.
func (workspace *Workspace) Root() string {
	return workspace.rootDirectory
}

// Clean removes the workspace root and recreates it empty. Runs call it once
// before fetching so stale artifacts from earlier runs never leak forward.
func (workspace *Workspace) Clean() error {
	if removeError := os.RemoveAll(workspace.rootDirectory); removeError != nil {
		return fmt.Errorf("clean staging workspace: %w", removeError)
	}
	if createError := os.MkdirAll(workspace.rootDirectory, directoryPermissions); createError != nil {
		return fmt.Errorf("create staging workspace: %w", createError)
	}
	return nil
}

// SourceDocumentPath locates the fetched source process-definition document.
func (workspace *Workspace) SourceDocumentPath(definitionIdentifier string) string {
	return filepath.Join(workspace.rootDirectory, definitionIdentifier+documentFileExtension)
}

// RewrittenDocumentPath locates the rewritten document staged for the
// destination definition.
func (workspace *Workspace) RewrittenDocumentPath(destinationName string) string {
	return filepath.Join(workspace.rootDirectory, dataDirectoryName, destinationName+documentFileExtension)
}

// CloudFunctionPath locates a staged cloud-function source file.
func (workspace *Workspace) CloudFunctionPath(functionName string) string {
	return filepath.Join(workspace.rootDirectory, dataDirectoryName, cloudFunctionDirectoryName, functionName+cloudFunctionSourceFileExtension)
}

// FormPath locates a staged data-form definition.
func (workspace *Workspace) FormPath(formName string) string {
	return filepath.Join(workspace.rootDirectory, dataDirectoryName, formDirectoryName, formName+jsonFileExtension)
}

// PageMetadataPath locates a staged custom-page metadata document.
func (workspace *Workspace) PageMetadataPath(pageName string, pageVersion int) string {
	return filepath.Join(workspace.rootDirectory, dataDirectoryName, customPageDirectoryName,
		fmt.Sprintf("%s_v%d%s", pageName, pageVersion, jsonFileExtension))
}

// PageBundleDirectory locates the self-contained preview bundle for a page.
func (workspace *Workspace) PageBundleDirectory(pageName string) string {
	return filepath.Join(workspace.rootDirectory, dataDirectoryName, customPageDirectoryName, pageName)
}

// PageArchivePath locates the ZIP built from a page bundle.
func (workspace *Workspace) PageArchivePath(pageName string, pageVersion int) string {
	return filepath.Join(workspace.rootDirectory, dataDirectoryName, customPageDirectoryName,
		fmt.Sprintf("%s_v%d%s", pageName, pageVersion, archiveFileExtension))
}

// ThemeDirectory locates the staging directory for one fetched theme.
func (workspace *Workspace) ThemeDirectory(themeName string, themeIdentifier string, themeVersion int) string {
	return filepath.Join(workspace.rootDirectory, dataDirectoryName, themeDirectoryName,
		fmt.Sprintf("%s_%s_v%d", themeName, themeIdentifier, themeVersion))
}

// ThemeDocumentPath locates the staged theme document inside a theme directory.
func (workspace *Workspace) ThemeDocumentPath(themeName string, themeIdentifier string, themeVersion int) string {
	return filepath.Join(workspace.ThemeDirectory(themeName, themeIdentifier, themeVersion), themeDocumentFileName)
}

// ThemeAssetsDirectory locates the downloaded asset files of a staged theme.
func (workspace *Workspace) ThemeAssetsDirectory(themeName string, themeIdentifier string, themeVersion int) string {
	return filepath.Join(workspace.ThemeDirectory(themeName, themeIdentifier, themeVersion), themeAssetsDirectoryName)
}

// ResultPath locates the per-asset activation snapshot for an asset name.
func (workspace *Workspace) ResultPath(assetName string) string {
	return filepath.Join(workspace.rootDirectory, resultsDirectoryName, assetName+jsonFileExtension)
}

// AggregationPath locates the persisted aggregation result.
func (workspace *Workspace) AggregationPath() string {
	return filepath.Join(workspace.rootDirectory, resultsDirectoryName, aggregationFileName)
}

// CreatedDefinitionPath locates the destination-creation snapshot.
func (workspace *Workspace) CreatedDefinitionPath() string {
	return filepath.Join(workspace.rootDirectory, resultsDirectoryName, createdDefinitionFileName)
}

// ActivatedDefinitionPath locates the destination-activation snapshot.
func (workspace *Workspace) ActivatedDefinitionPath() string {
	return filepath.Join(workspace.rootDirectory, resultsDirectoryName, activatedDefinitionFileName)
}

// EnsureDirectory creates directoryPath and any missing parents.
func (workspace *Workspace) EnsureDirectory(directoryPath string) error {
	if directoryError := os.MkdirAll(directoryPath, directoryPermissions); directoryError != nil {
		return fmt.Errorf("create staging directory: %w", directoryError)
	}
	return nil
}

// WriteFile writes content to targetPath, creating parent directories.
func (workspace *Workspace) WriteFile(targetPath string, content []byte) error {
	if directoryError := os.MkdirAll(filepath.Dir(targetPath), directoryPermissions); directoryError != nil {
		return fmt.Errorf("create staging directory: %w", directoryError)
	}
	if writeError := os.WriteFile(targetPath, content, filePermissions); writeError != nil {
		return fmt.Errorf("write staging file: %w", writeError)
	}
	return nil
}

// WriteJSON marshals document with two-space indentation and writes it to
// targetPath, creating parent directories.
func (workspace *Workspace) WriteJSON(targetPath string, document any) error {
	encodedDocument, marshalError := json.MarshalIndent(document, "", "  ")
	if marshalError != nil {
		return fmt.Errorf("encode staging document: %w", marshalError)
	}
	return workspace.WriteFile(targetPath, encodedDocument)
}

// ReadFile reads a staged file back.
func (workspace *Workspace) ReadFile(targetPath string) ([]byte, error) {
	content, readError := os.ReadFile(targetPath)
	if readError != nil {
		return nil, fmt.Errorf("read staging file: %w", readError)
	}
	return content, nil
}
