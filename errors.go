package yamlbind

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/yamlbind/event"
	"github.com/reoring/yamlbind/internal/engine"
)

// Error codes (exported consts for IDE completion and type safety by
// convention).
const (
	CodeIO                 = "io_error"
	CodeParse              = "parse_error"
	CodeUnknownAnchor      = "unknown_anchor"
	CodeDuplicateKey       = "duplicate_key"
	CodeBudgetExceeded     = "budget_exceeded"
	CodeInvalidBoolean     = "invalid_boolean"
	CodeInvalidInteger     = "invalid_integer"
	CodeInvalidFloat       = "invalid_float"
	CodeInvalidBinary      = "invalid_binary"
	CodeQuotingRequired    = "quoting_required"
	CodeUnexpectedEvent    = "unexpected_event"
	CodeTypeMismatch       = "type_mismatch"
	CodeMissingField       = "missing_field"
	CodeUnknownField       = "unknown_field"
	CodeTaggedEnumMismatch = "tagged_enum_mismatch"
	CodeCustom             = "custom"
)

// Related points at a secondary source location, e.g. the first
// occurrence of a duplicated key or the definition of an anchor.
type Related struct {
	Span event.Span
	Note string
}

// Error is the single error shape every entry point returns. Code is one
// of the constants above; Params carries structured parameters (e.g.
// {"kind":"aliases","got":65537,"limit":65536}) for observability.
type Error struct {
	Code    string
	Message string
	Span    event.Span
	Related []Related
	Params  map[string]any
	Snippet string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Code)
	if !e.Span.IsZero() {
		fmt.Fprintf(&b, " at %s", e.Span)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Snippet != "" {
		b.WriteString("\n")
		b.WriteString(e.Snippet)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// CodeOf extracts the code from any error returned by this package, or
// "" for foreign errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// wrapError converts an internal fault into the public shape, rendering
// a source snippet when requested and the input is available.
func wrapError(err error, src []byte, withSnippet bool) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	var f *engine.Fault
	if !errors.As(err, &f) {
		return &Error{Code: CodeIO, Message: err.Error(), Cause: err}
	}
	out := &Error{
		Code:    f.Code,
		Message: f.Message,
		Span:    f.Span,
		Params:  f.Params,
		Cause:   f.Cause,
	}
	for _, r := range f.Related {
		out.Related = append(out.Related, Related{Span: r.Span, Note: r.Note})
	}
	if withSnippet && src != nil {
		out.Snippet = renderSnippet(src, f.Span)
	}
	return out
}

// renderSnippet produces a one-line excerpt with a caret:
//
//	 --> input:3:8
//	  |
//	3 | replicas: oops
//	  |        ^
func renderSnippet(src []byte, span event.Span) string {
	if span.Line <= 0 {
		return ""
	}
	lines := strings.Split(string(src), "\n")
	if span.Line > len(lines) {
		return ""
	}
	text := strings.TrimRight(lines[span.Line-1], "\r")
	num := fmt.Sprintf("%d", span.Line)
	pad := strings.Repeat(" ", len(num))
	var b strings.Builder
	fmt.Fprintf(&b, " --> input:%d:%d\n", span.Line, span.Column)
	fmt.Fprintf(&b, "%s |\n", pad)
	fmt.Fprintf(&b, "%s | %s\n", num, text)
	col := span.Column
	if col < 1 {
		col = 1
	}
	if col > len(text)+1 {
		col = len(text) + 1
	}
	fmt.Fprintf(&b, "%s | %s^", pad, strings.Repeat(" ", col-1))
	return b.String()
}
