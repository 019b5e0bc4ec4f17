// Package versions resolves an asset name plus an optional explicit version
// into a concrete version record by scanning the paginated, version-descending
// history a tenant exposes for that asset.
package versions

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	// DeployedActiveStatus marks the version currently serving on a tenant.
	DeployedActiveStatus = "DEPLOYED_ACTIVE"
	// DefaultPageSize is the platform's version-listing page size.
	DefaultPageSize = 20
	// DefaultMaxPages bounds a single resolution scan.
	DefaultMaxPages = 50

	fullHistoryMissingWarnMessage = "version 1 not observed while scanning version history"
	nameLogField                  = "name"
	pagesScannedLogField          = "pages_scanned"
)

// Record identifies one version of a named asset on a tenant.
type Record struct {
	ID      string
	Version int
	Status  string
}

// Page is one slice of a version listing, newest versions first.
type Page struct {
	Records []Record
	Last    bool
}

// PageLister supplies version pages for a named asset.
type PageLister interface {
	ListVersionPage(executionContext context.Context, name string, pageNumber int, pageSize int) (Page, error)
}

// Resolution reports the chosen record and how the scan terminated.
type Resolution struct {
	Record          Record
	FullHistorySeen bool
	PagesScanned    int
}

// NoVersionsError reports an asset with an empty version history.
type NoVersionsError struct {
	Name string
}

func (resolutionError NoVersionsError) Error() string {
	return fmt.Sprintf("no versions found for %q", resolutionError.Name)
}

// VersionNotFoundError reports an explicitly requested version missing from the history.
type VersionNotFoundError struct {
	Name    string
	Version int
}

func (resolutionError VersionNotFoundError) Error() string {
	return fmt.Sprintf("version %d not found for %q", resolutionError.Version, resolutionError.Name)
}

// NoActiveVersionError reports a history without a deployed-active record.
type NoActiveVersionError struct {
	Name string
}

func (resolutionError NoActiveVersionError) Error() string {
	return fmt.Sprintf("no %s version found for %q", DeployedActiveStatus, resolutionError.Name)
}

// ScanBudgetExceededError reports a scan that ran past its page budget without terminating.
type ScanBudgetExceededError struct {
	Name         string
	PagesScanned int
}

func (resolutionError ScanBudgetExceededError) Error() string {
	return fmt.Sprintf("version scan for %q exceeded the page budget after %d pages", resolutionError.Name, resolutionError.PagesScanned)
}

// IsNotFound reports whether the error represents one of the resolution
// not-found conditions: empty history, missing explicit version, or no active
// version.
func IsNotFound(candidate error) bool {
	switch candidate.(type) {
	case NoVersionsError, VersionNotFoundError, NoActiveVersionError:
		return true
	}
	return false
}

// ResolverOptions bounds the resolver's scanning behavior.
type ResolverOptions struct {
	PageSize int
	MaxPages int
}

// Resolver performs the paginated backward search over version histories.
type Resolver struct {
	logger   *zap.Logger
	pageSize int
	maxPages int
}

// NewResolver constructs a Resolver; zero option fields fall back to defaults.
func NewResolver(logger *zap.Logger, options ResolverOptions) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options.PageSize <= 0 {
		options.PageSize = DefaultPageSize
	}
	if options.MaxPages <= 0 {
		options.MaxPages = DefaultMaxPages
	}

	return &Resolver{logger: logger, pageSize: options.PageSize, maxPages: options.MaxPages}
}

// Resolve scans the version history for name and selects a record. Scanning
// accumulates pages newest-first and stops as soon as a page contains version 1
// (the full history is then in hand), the backend marks a page as last, or a
// page comes back empty. When the full-history heuristic never fires the
// resolution still succeeds and the condition is logged.
//
// With an explicit version the exact record is required; otherwise the first
// DEPLOYED_ACTIVE record in scan order wins, which is the highest active
// version.
func (resolver *Resolver) Resolve(executionContext context.Context, lister PageLister, name string, explicitVersion *int) (Resolution, error) {
	var collectedRecords []Record
	fullHistorySeen := false
	scanTerminated := false
	pagesScanned := 0

	for pageNumber := 0; pageNumber < resolver.maxPages; pageNumber++ {
		currentPage, listError := lister.ListVersionPage(executionContext, name, pageNumber, resolver.pageSize)
		if listError != nil {
			return Resolution{}, listError
		}
		pagesScanned++

		if len(currentPage.Records) == 0 {
			scanTerminated = true
			break
		}

		collectedRecords = append(collectedRecords, currentPage.Records...)

		if containsInitialVersion(currentPage.Records) {
			fullHistorySeen = true
			scanTerminated = true
			break
		}

		if currentPage.Last {
			scanTerminated = true
			break
		}
	}

	if !scanTerminated {
		return Resolution{}, ScanBudgetExceededError{Name: name, PagesScanned: pagesScanned}
	}

	if !fullHistorySeen {
		resolver.logger.Warn(fullHistoryMissingWarnMessage,
			zap.String(nameLogField, name),
			zap.Int(pagesScannedLogField, pagesScanned),
		)
	}

	if len(collectedRecords) == 0 {
		return Resolution{}, NoVersionsError{Name: name}
	}

	selectedRecord, selectionError := selectRecord(collectedRecords, name, explicitVersion)
	if selectionError != nil {
		return Resolution{}, selectionError
	}

	return Resolution{
		Record:          selectedRecord,
		FullHistorySeen: fullHistorySeen,
		PagesScanned:    pagesScanned,
	}, nil
}

func selectRecord(collectedRecords []Record, name string, explicitVersion *int) (Record, error) {
	if explicitVersion != nil {
		for _, candidateRecord := range collectedRecords {
			if candidateRecord.Version == *explicitVersion {
				return candidateRecord, nil
			}
		}
		return Record{}, VersionNotFoundError{Name: name, Version: *explicitVersion}
	}

	for _, candidateRecord := range collectedRecords {
		if candidateRecord.Status == DeployedActiveStatus {
			return candidateRecord, nil
		}
	}
	return Record{}, NoActiveVersionError{Name: name}
}

func containsInitialVersion(pageRecords []Record) bool {
	for _, candidateRecord := range pageRecords {
		if candidateRecord.Version == 1 {
			return true
		}
	}
	return false
}
