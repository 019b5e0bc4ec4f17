// Package bpmn parses process-definition XML, extracts the asset references
// embedded in camunda input/output extension blocks, and rewrites reference
// version parameters in place while preserving the rest of the document.
package bpmn
