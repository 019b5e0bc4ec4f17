package ui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OmerShlush/trustx-migration/internal/ui"
)

const testPromptMessageConstant = "Confirm they were created manually [y/N]: "

type failingPromptWriter struct {
	failure error
}

func (writer failingPromptWriter) Write([]byte) (int, error) {
	return 0, writer.failure
}

func TestIOConfirmationPrompterInterpretsResponses(testInstance *testing.T) {
	testCases := []struct {
		name            string
		response        string
		expectedOutcome bool
	}{
		{name: "short_affirmative", response: "y\n", expectedOutcome: true},
		{name: "full_affirmative", response: "yes\n", expectedOutcome: true},
		{name: "uppercase_affirmative", response: "YES\n", expectedOutcome: true},
		{name: "padded_affirmative", response: "  y  \n", expectedOutcome: true},
		{name: "negative", response: "n\n", expectedOutcome: false},
		{name: "empty_line", response: "\n", expectedOutcome: false},
		{name: "end_of_input", response: "", expectedOutcome: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			output := &bytes.Buffer{}
			prompter := ui.NewIOConfirmationPrompter(strings.NewReader(testCase.response), output)

			confirmed, confirmError := prompter.Confirm(testPromptMessageConstant)

			require.NoError(testInstance, confirmError)
			require.Equal(testInstance, testCase.expectedOutcome, confirmed)
			require.Equal(testInstance, testPromptMessageConstant, output.String())
		})
	}
}

func TestIOConfirmationPrompterReportsWriteFailures(testInstance *testing.T) {
	writeFailure := assert.AnError
	prompter := ui.NewIOConfirmationPrompter(strings.NewReader("y\n"), failingPromptWriter{failure: writeFailure})

	confirmed, confirmError := prompter.Confirm(testPromptMessageConstant)

	require.ErrorIs(testInstance, confirmError, writeFailure)
	require.False(testInstance, confirmed)
}
