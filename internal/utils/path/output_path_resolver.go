package pathutils

import (
	"path/filepath"
	"strings"
)

// OutputPathResolver normalizes operator-provided output directory paths
// consistently across commands.
type OutputPathResolver struct {
	homeExpander *HomeExpander
}

// NewOutputPathResolver constructs an OutputPathResolver with the operating
// system home lookup.
func NewOutputPathResolver() *OutputPathResolver {
	return NewOutputPathResolverWithExpander(nil)
}

// NewOutputPathResolverWithExpander constructs an OutputPathResolver using the
// provided expander.
func NewOutputPathResolverWithExpander(homeExpander *HomeExpander) *OutputPathResolver {
	resolvedExpander := homeExpander
	if resolvedExpander == nil {
		resolvedExpander = NewHomeExpander()
	}
	return &OutputPathResolver{homeExpander: resolvedExpander}
}

// Resolve trims whitespace, expands the user's home directory, and cleans the
// candidate path. When the candidate is empty after trimming, fallbackPath is
// resolved instead; an empty result means neither value was usable.
func (resolver *OutputPathResolver) Resolve(candidatePath string, fallbackPath string) string {
	trimmedCandidate := strings.TrimSpace(candidatePath)
	if len(trimmedCandidate) == 0 {
		trimmedCandidate = strings.TrimSpace(fallbackPath)
	}
	if len(trimmedCandidate) == 0 {
		return ""
	}

	expander := resolver.expander()
	return filepath.Clean(expander.Expand(trimmedCandidate))
}

func (resolver *OutputPathResolver) expander() *HomeExpander {
	if resolver == nil || resolver.homeExpander == nil {
		return NewHomeExpander()
	}
	return resolver.homeExpander
}
