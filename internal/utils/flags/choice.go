// Package flags provides helpers shared by the command-line flag surface.
package flags

import (
	"fmt"
	"strings"
)

const (
	choiceListSeparatorConstant   = "|"
	choiceOnlyUsageTemplate       = "`<%s>`"
	choiceWithDescriptionTemplate = "`<%s>` %s"
)

// FormatChoiceUsage renders a flag usage string that lists the accepted choices
// inside a placeholder, capitalizing the default so it stands out in help output.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	choiceList := strings.Join(annotatedChoices(defaultChoice, choices), choiceListSeparatorConstant)
	if len(strings.TrimSpace(description)) == 0 {
		return fmt.Sprintf(choiceOnlyUsageTemplate, choiceList)
	}
	return fmt.Sprintf(choiceWithDescriptionTemplate, choiceList, description)
}

func annotatedChoices(defaultChoice string, choices []string) []string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	annotated := make([]string, 0, len(choices))
	seenChoices := make(map[string]struct{}, len(choices))

	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		if len(trimmedChoice) == 0 {
			continue
		}

		normalizedChoice := strings.ToLower(trimmedChoice)
		if _, alreadySeen := seenChoices[normalizedChoice]; alreadySeen {
			continue
		}
		seenChoices[normalizedChoice] = struct{}{}

		if normalizedChoice == normalizedDefault {
			trimmedChoice = strings.ToUpper(trimmedChoice)
		}
		annotated = append(annotated, trimmedChoice)
	}

	return annotated
}
