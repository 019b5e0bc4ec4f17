package bpmn_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OmerShlush/trustx-migration/internal/bpmn"
)

func loadProcessDefinitionFixture(testInstance *testing.T) []byte {
	testInstance.Helper()
	fixtureBytes, readError := os.ReadFile(filepath.Join("testdata", "process_definition.bpmn"))
	require.NoError(testInstance, readError)
	return fixtureBytes
}

func intPointer(value int) *int {
	return &value
}

func TestParseRejectsMalformedDocuments(testInstance *testing.T) {
	testCases := []struct {
		name          string
		documentBytes []byte
	}{
		{name: "mismatched_tags", documentBytes: []byte("<definitions><task></definitions>")},
		{name: "empty_input", documentBytes: nil},
		{name: "whitespace_only", documentBytes: []byte("   \n\t")},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtestInstance *testing.T) {
			parsedDocument, parseError := bpmn.Parse(testCase.documentBytes)

			require.Nil(subtestInstance, parsedDocument)
			var typedError bpmn.ParseError
			require.ErrorAs(subtestInstance, parseError, &typedError)
		})
	}
}

func TestDocumentRoundTripPreservesBytes(testInstance *testing.T) {
	fixtureBytes := loadProcessDefinitionFixture(testInstance)

	parsedDocument, parseError := bpmn.Parse(fixtureBytes)
	require.NoError(testInstance, parseError)

	serializedBytes, serializeError := parsedDocument.Serialize()
	require.NoError(testInstance, serializeError)
	require.Equal(testInstance, string(fixtureBytes), string(serializedBytes))
}

func TestDocumentRoundTripPreservesCData(testInstance *testing.T) {
	documentXML := `<?xml version="1.0"?>
<definitions xmlns:camunda="http://camunda.org/schema/1.0/bpmn">
  <camunda:inputOutput>
    <camunda:inputParameter name="functionName"><![CDATA[score-device]]></camunda:inputParameter>
  </camunda:inputOutput>
</definitions>`

	parsedDocument, parseError := bpmn.Parse([]byte(documentXML))
	require.NoError(testInstance, parseError)

	references := parsedDocument.ExtractReferences()
	require.Len(testInstance, references.CloudFunctions, 1)
	require.Equal(testInstance, "score-device", references.CloudFunctions[0].Name)

	serializedBytes, serializeError := parsedDocument.Serialize()
	require.NoError(testInstance, serializeError)
	require.Contains(testInstance, string(serializedBytes), "<![CDATA[score-device]]>")
}
