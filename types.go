package yamlbind

import "github.com/reoring/yamlbind/event"

// Anchor is a shared-ownership handle. When a document anchors a node and
// aliases it from several places, every Anchor decoded from the same
// anchor shares one underlying allocation, so the aliasing structure of
// the document is observable after decoding. Marshalling writes the first
// occurrence with an &idN anchor and later occurrences as *idN aliases.
//
// The zero Anchor is empty; Get reports nil.
type Anchor[T any] struct {
	ptr *T
}

// NewAnchor allocates a fresh element holding v.
func NewAnchor[T any](v T) Anchor[T] {
	return Anchor[T]{ptr: &v}
}

// Share wraps an existing allocation so several handles can point at it.
func Share[T any](p *T) Anchor[T] {
	return Anchor[T]{ptr: p}
}

// Get returns the shared element, or nil for an empty handle.
func (a Anchor[T]) Get() *T { return a.ptr }

// Value returns the shared element by value, or the zero T when empty.
func (a Anchor[T]) Value() T {
	if a.ptr == nil {
		var zero T
		return zero
	}
	return *a.ptr
}

// IsZero reports whether the handle is empty.
func (a Anchor[T]) IsZero() bool { return a.ptr == nil }

// NewElem, Bind and Elem are the decoder and serializer contract; user
// code normally has no reason to call them.

func (a Anchor[T]) NewElem() any { return new(T) }

func (a *Anchor[T]) Bind(elem any) bool {
	p, ok := elem.(*T)
	if ok {
		a.ptr = p
	}
	return ok
}

func (a Anchor[T]) Elem() any {
	if a.ptr == nil {
		return nil
	}
	return a.ptr
}

// WeakAnchor is a non-owning view of an element already bound to an
// Anchor earlier in the document. Decoding a WeakAnchor from an alias
// whose anchor has not produced a strong handle yet fails with
// CodeUnknownAnchor.
type WeakAnchor[T any] struct {
	ptr *T
}

// Weak derives a weak handle from a strong one.
func Weak[T any](a Anchor[T]) WeakAnchor[T] {
	return WeakAnchor[T]{ptr: a.ptr}
}

// Get returns the referenced element, or nil for an empty handle.
func (w WeakAnchor[T]) Get() *T { return w.ptr }

// IsZero reports whether the handle is empty.
func (w WeakAnchor[T]) IsZero() bool { return w.ptr == nil }

func (w *WeakAnchor[T]) BindWeak(elem any) bool {
	p, ok := elem.(*T)
	if ok {
		w.ptr = p
	}
	return ok
}

func (w WeakAnchor[T]) Elem() any {
	if w.ptr == nil {
		return nil
	}
	return w.ptr
}

// Spanned carries a decoded value together with its source position. Span
// is where the value is defined; when the value arrived through an alias,
// RefSpan is the alias site and Span the anchored definition, otherwise
// RefSpan equals Span.
type Spanned[T any] struct {
	Value   T
	Span    event.Span
	RefSpan event.Span
}

func (s *Spanned[T]) Inner() any { return &s.Value }

func (s *Spanned[T]) SetSpans(def, ref event.Span) {
	s.Span = def
	s.RefSpan = ref
}

// LitString is a string that prefers the literal block style (|) when
// marshalled, falling back to quoting when the content cannot be carried
// by a block scalar. Decoding treats it as a plain string.
type LitString string

func (LitString) YAMLScalarStyle() event.ScalarStyle { return event.StyleLiteral }

// FoldString is a string that prefers the folded block style (>) when
// marshalled.
type FoldString string

func (FoldString) YAMLScalarStyle() event.ScalarStyle { return event.StyleFolded }

// TaggedUnion is implemented by closed sum types. Decoding accepts four
// spellings: a bare variant name for unit variants, a !!Name tagged
// scalar, a single-entry mapping {Variant: payload}, and for unions that
// also implement InternallyTagged a flat mapping carrying the variant in
// a designated field.
type TaggedUnion interface {
	// UnionName is the type name matched against !!Name tagged scalars.
	UnionName() string
	// VariantNames lists every variant, for diagnostics.
	VariantNames() []string
	// NewPayload allocates the decode target for a variant's payload;
	// known is false for variant names outside the union, and payload is
	// nil for unit variants.
	NewPayload(variant string) (payload any, known bool)
	// SetVariant stores a decoded variant.
	SetVariant(variant string, payload any) error
	// Variant reports the current variant; payload is nil for unit
	// variants.
	Variant() (string, any)
}

// InternallyTagged marks a TaggedUnion whose variant discriminator lives
// in a field of the payload mapping instead of wrapping it.
type InternallyTagged interface {
	TaggedUnion
	// TagField names the discriminator key.
	TagField() string
}
