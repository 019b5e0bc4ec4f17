package staging

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// BuildArchive zips the directory tree rooted at sourceDirectory into a new
// archive at archivePath. Entry names are relative to sourceDirectory with
// forward-slash separators, so archives unpack identically across platforms.
func BuildArchive(sourceDirectory string, archivePath string) error {
	archiveFile, createError := os.Create(archivePath)
	if createError != nil {
		return fmt.Errorf("create archive: %w", createError)
	}
	defer archiveFile.Close()

	archiveWriter := zip.NewWriter(archiveFile)

	walkError := filepath.WalkDir(sourceDirectory, func(currentPath string, directoryEntry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return entryError
		}
		if directoryEntry.IsDir() {
			return nil
		}

		relativePath, relativeError := filepath.Rel(sourceDirectory, currentPath)
		if relativeError != nil {
			return relativeError
		}

		entryWriter, entryCreateError := archiveWriter.Create(filepath.ToSlash(relativePath))
		if entryCreateError != nil {
			return entryCreateError
		}

		sourceFile, openError := os.Open(currentPath)
		if openError != nil {
			return openError
		}
		defer sourceFile.Close()

		_, copyError := io.Copy(entryWriter, sourceFile)
		return copyError
	})
	if walkError != nil {
		archiveWriter.Close()
		return fmt.Errorf("archive %s: %w", sourceDirectory, walkError)
	}

	if closeError := archiveWriter.Close(); closeError != nil {
		return fmt.Errorf("finalize archive: %w", closeError)
	}
	return nil
}
