package trustxapi

import "fmt"

// ResourcePayload is the tagged union of asset detail payload shapes: raw
// text (function scripts, form-definition documents serialized as strings) or
// a structured document (custom-page metadata). The shape is resolved once at
// the client boundary.
type ResourcePayload struct {
	text       string
	document   map[string]any
	structured bool
}

// RawTextPayload wraps a raw text payload.
func RawTextPayload(text string) ResourcePayload {
	return ResourcePayload{text: text}
}

// StructuredPayload wraps a structured document payload.
func StructuredPayload(document map[string]any) ResourcePayload {
	return ResourcePayload{document: document, structured: true}
}

// IsStructured reports whether the payload is a structured document.
func (payload ResourcePayload) IsStructured() bool {
	return payload.structured
}

// Text returns the raw text of a non-structured payload.
func (payload ResourcePayload) Text() string {
	return payload.text
}

// Document returns the structured document of a structured payload.
func (payload ResourcePayload) Document() map[string]any {
	return payload.document
}

// MalformedPayloadError reports a response that decoded but did not carry the
// expected shape for the attempted operation.
type MalformedPayloadError struct {
	Operation string
	Reason    string
}

func (malformedError MalformedPayloadError) Error() string {
	return fmt.Sprintf("%s: %s", malformedError.Operation, malformedError.Reason)
}
