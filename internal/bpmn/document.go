package bpmn

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"
)

const (
	camundaNamespaceURI  = "http://camunda.org/schema/1.0/bpmn"
	defaultCamundaPrefix = "camunda"

	inputOutputTag    = "inputOutput"
	inputParameterTag = "inputParameter"
	nameAttributeKey  = "name"

	xmlnsAttributeSpace = "xmlns"
)

// ParseError reports process-definition XML that could not be parsed.
type ParseError struct {
	Cause error
}

func (parseError ParseError) Error() string {
	return fmt.Sprintf("parse process definition: %v", parseError.Cause)
}

func (parseError ParseError) Unwrap() error {
	return parseError.Cause
}

// Document is an order- and namespace-preserving process-definition tree.
// Mutations through RewriteVersions touch only the targeted parameter text;
// serialization reproduces everything else, including prefix bindings,
// attribute order, and surrounding whitespace.
type Document struct {
	tree          *etree.Document
	camundaPrefix string
}

// Parse builds a Document from raw XML bytes. The camunda extension prefix is
// resolved from the root element's namespace declarations so any prefix bound
// to the camunda namespace is recognized; without a declaration the
// conventional prefix is assumed.
func Parse(documentBytes []byte) (*Document, error) {
	tree := etree.NewDocument()
	tree.ReadSettings = etree.ReadSettings{PreserveCData: true}
	if readError := tree.ReadFromBytes(documentBytes); readError != nil {
		return nil, ParseError{Cause: readError}
	}
	rootElement := tree.Root()
	if rootElement == nil {
		return nil, ParseError{Cause: errors.New("document has no root element")}
	}

	return &Document{tree: tree, camundaPrefix: resolveCamundaPrefix(rootElement)}, nil
}

// Serialize renders the document back to bytes. A parse followed by an
// immediate serialize reproduces the input up to normalized serialization.
func (document *Document) Serialize() ([]byte, error) {
	return document.tree.WriteToBytes()
}

func resolveCamundaPrefix(rootElement *etree.Element) string {
	for _, attribute := range rootElement.Attr {
		if attribute.Space == xmlnsAttributeSpace && attribute.Value == camundaNamespaceURI {
			return attribute.Key
		}
	}
	return defaultCamundaPrefix
}

// parameterBlocks walks the whole tree and returns every camunda inputOutput
// extension block in document order.
func (document *Document) parameterBlocks() []*etree.Element {
	var blocks []*etree.Element
	var walk func(element *etree.Element)
	walk = func(element *etree.Element) {
		if element.Space == document.camundaPrefix && element.Tag == inputOutputTag {
			blocks = append(blocks, element)
		}
		for _, childElement := range element.ChildElements() {
			walk(childElement)
		}
	}
	walk(document.tree.Root())
	return blocks
}

// blockParameterElements maps parameter names to their elements for one
// extension block. A name repeated within a block keeps the last occurrence.
func (document *Document) blockParameterElements(block *etree.Element) map[string]*etree.Element {
	parameterElements := map[string]*etree.Element{}
	for _, childElement := range block.ChildElements() {
		if childElement.Space != document.camundaPrefix || childElement.Tag != inputParameterTag {
			continue
		}
		parameterName := childElement.SelectAttrValue(nameAttributeKey, "")
		if len(parameterName) == 0 {
			continue
		}
		parameterElements[parameterName] = childElement
	}
	return parameterElements
}
