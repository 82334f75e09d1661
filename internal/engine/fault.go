package engine

import (
	"fmt"

	"github.com/reoring/yamlbind/event"
)

// Issue codes shared between the engine, the deserialiser and the public
// error surface.
const (
	CodeIO                 = "io_error"
	CodeParse              = "parse_error"
	CodeUnknownAnchor      = "unknown_anchor"
	CodeDuplicateKey       = "duplicate_key"
	CodeBudget             = "budget_exceeded"
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

// Related points at a secondary location, e.g. the anchor definition for
// an alias error or the first occurrence of a duplicated key.
type Related struct {
	Span event.Span
	Note string
}

// Fault is the internal error type. The root package converts it into the
// public error model, attaching snippets when requested.
type Fault struct {
	Code    string
	Message string
	Span    event.Span
	Related []Related
	Params  map[string]any
	Cause   error
}

func (f *Fault) Error() string {
	if f.Span.IsZero() {
		return fmt.Sprintf("%s: %s", f.Code, f.Message)
	}
	return fmt.Sprintf("%s: %s at %s", f.Code, f.Message, f.Span)
}

func (f *Fault) Unwrap() error { return f.Cause }

// Faultf builds a Fault with a formatted message.
func Faultf(code string, span event.Span, format string, args ...any) *Fault {
	return &Fault{Code: code, Message: fmt.Sprintf(format, args...), Span: span}
}
