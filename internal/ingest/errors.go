package ingest

import (
	"fmt"
	"strings"
)

// Kind classifies terminal ingest failures. Per-row problems are never
// errors; they are counted in Stats.
type Kind string

const (
	// KindFormatRejected means the input could not be read as CSV at all:
	// wrong file type or a structural parse error such as an unterminated
	// quote. Nothing is aggregated.
	KindFormatRejected Kind = "format_rejected"

	// KindSchemaValidationFailed means the header row did not resolve the
	// minimum canonical fields (order id and product title).
	KindSchemaValidationFailed Kind = "schema_validation_failed"
)

// Error is a terminal ingest failure.
type Error struct {
	Kind    Kind
	Message string
	Headers []string // raw headers present in the file, for diagnostics
	Found   []Field  // canonical fields that resolved
	Missing []Field  // canonical fields that did not
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Diagnostic renders the user-facing explanation for a schema failure:
// which field groups resolved, which did not, the aliases tried, and the
// headers actually present in the file.
func (e *Error) Diagnostic() string {
	if e.Kind != KindSchemaValidationFailed {
		return e.Message
	}
	var b strings.Builder
	b.WriteString("CSV validation failed: the file must contain order and product columns.\n")
	for _, f := range e.Missing {
		fmt.Fprintf(&b, "  missing %s (accepted headers: %s)\n", f, strings.Join(aliasesFor(f), ", "))
	}
	for _, f := range e.Found {
		fmt.Fprintf(&b, "  found %s\n", f)
	}
	fmt.Fprintf(&b, "  headers in your file: %s\n", strings.Join(e.Headers, ", "))
	return b.String()
}

func formatRejected(msg string, err error) *Error {
	return &Error{Kind: KindFormatRejected, Message: msg, Err: err}
}
