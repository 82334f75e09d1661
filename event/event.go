// Package event defines the event stream vocabulary shared by the raw
// parser drivers, the materialising adapter, the deserialiser and the
// emitter. A driver turns YAML text into a flat sequence of events; the
// adapter rewrites that sequence (alias replay, merge keys, duplicate-key
// policy) before typed decoding consumes it.
package event

import "fmt"

// Kind enumerates event kinds.
type Kind int

const (
	KindStreamStart Kind = iota
	KindStreamEnd
	KindDocStart
	KindDocEnd
	KindScalar
	KindSequenceStart
	KindSequenceEnd
	KindMappingStart
	KindMappingEnd
	KindAlias
)

func (k Kind) String() string {
	switch k {
	case KindStreamStart:
		return "stream-start"
	case KindStreamEnd:
		return "stream-end"
	case KindDocStart:
		return "doc-start"
	case KindDocEnd:
		return "doc-end"
	case KindScalar:
		return "scalar"
	case KindSequenceStart:
		return "sequence-start"
	case KindSequenceEnd:
		return "sequence-end"
	case KindMappingStart:
		return "mapping-start"
	case KindMappingEnd:
		return "mapping-end"
	case KindAlias:
		return "alias"
	default:
		return fmt.Sprintf("event.Kind(%d)", int(k))
	}
}

// ScalarStyle records the surface syntax a scalar was written in. The
// deserialiser uses it to decide whether content-based resolution applies:
// only plain scalars resolve to null/bool/int/float.
type ScalarStyle int

const (
	StylePlain ScalarStyle = iota
	StyleSingleQuoted
	StyleDoubleQuoted
	StyleLiteral
	StyleFolded
)

// CollectionStyle distinguishes block from flow collections.
type CollectionStyle int

const (
	StyleBlock CollectionStyle = iota
	StyleFlow
)

// Span is a source position. Line and Column are 1-indexed; Offset is a
// byte offset into the input, -1 when the driver cannot provide one.
type Span struct {
	Line   int
	Column int
	Offset int
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsZero reports whether the span carries no position at all.
func (s Span) IsZero() bool {
	return s.Line == 0 && s.Column == 0 && s.Offset == 0
}

// AnchorID identifies an anchor definition within one document. Zero means
// "no anchor". IDs are assigned by the adapter in declaration order.
type AnchorID int

// Event is one element of the (raw or materialised) event stream.
//
// In the raw stream produced by a driver, Anchor carries the anchor name on
// a definition site and the referenced name on a KindAlias event; AnchorID
// and FromAlias are unset. In the materialised stream KindAlias never
// appears: the adapter has replaced it with the recorded subtree, stamping
// FromAlias, RefSpan and (on the first spliced event) the AnchorID of the
// source anchor.
type Event struct {
	Kind  Kind
	Span  Span
	Value string      // scalar text, escape/folding already applied
	Style ScalarStyle // scalars only
	Coll  CollectionStyle
	Tag   string // "" means resolve by content; "!!str" forms or "!Name"
	Anchor string

	// Materialisation metadata, set by the adapter.
	AnchorID  AnchorID
	FromAlias bool
	RefSpan   Span // alias-site span; zero when the event was not replayed
}

// RefOrSpan returns the span a user-facing attribution should point at:
// the alias site when the event was replayed, the definition otherwise.
func (e Event) RefOrSpan() Span {
	if e.FromAlias && !e.RefSpan.IsZero() {
		return e.RefSpan
	}
	return e.Span
}

// IsNodeStart reports whether the event opens a node for the purposes of
// node counting: scalars and collection starts.
func (e Event) IsNodeStart() bool {
	switch e.Kind {
	case KindScalar, KindSequenceStart, KindMappingStart:
		return true
	}
	return false
}
