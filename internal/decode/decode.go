// Package decode implements the typed deserialiser core: a pull-mode
// driver over a materialised event stream that dispatches events into the
// requested Go shapes. Alias replay, merge keys, duplicate-key policy and
// budgets have already been applied by the engine adapter; this package
// only sees balanced, alias-free documents.
package decode

import (
	"encoding"
	"fmt"
	"reflect"
	"unicode/utf8"

	"github.com/reoring/yamlbind/event"
	"github.com/reoring/yamlbind/internal/engine"
	"github.com/reoring/yamlbind/scalar"
)

var byteSliceType = reflect.TypeOf([]byte(nil))

// Options is the deserialisation-time configuration subset the decoder
// cares about.
type Options struct {
	StrictBooleans           bool
	IgnoreBinaryTagForString bool
	KnownFieldsOnly          bool
}

// SharedCell is implemented by shared-ownership handle targets. The
// decoder caches the materialised element per anchor id and rebinds the
// same allocation on subsequent aliases.
type SharedCell interface {
	NewElem() any        // freshly allocated *T
	Bind(elem any) bool  // false when elem is not a *T
	Elem() any
}

// WeakCell is implemented by weak handle targets, which require the strong
// handle to have been materialised earlier in stream order.
type WeakCell interface {
	BindWeak(elem any) bool
}

// SpanCarrier is implemented by span-capturing targets.
type SpanCarrier interface {
	Inner() any // pointer at the wrapped value
	SetSpans(def, ref event.Span)
}

// Union is implemented by tagged-union targets.
type Union interface {
	UnionName() string
	VariantNames() []string
	NewPayload(variant string) (payload any, known bool)
	SetVariant(variant string, payload any) error
	Variant() (string, any)
}

// InternallyTagged marks a Union whose variant is selected by a tag field
// inside the mapping payload.
type InternallyTagged interface {
	TagField() string
}

// Decoder consumes one materialised document.
type Decoder struct {
	evs    []event.Event
	pos    int
	opts   Options
	shared map[event.AnchorID]any
}

func New(evs []event.Event, opts Options) *Decoder {
	return &Decoder{evs: evs, opts: opts, shared: make(map[event.AnchorID]any)}
}

// Decode materialises the document into v, which must be a non-nil pointer.
func (d *Decoder) Decode(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return engine.Faultf(engine.CodeTypeMismatch, event.Span{},
			"decode target must be a non-nil pointer, got %T", v)
	}
	if f := d.value(rv.Elem()); f != nil {
		return f
	}
	if d.pos != len(d.evs) {
		return engine.Faultf(engine.CodeUnexpectedEvent, d.evs[d.pos].RefOrSpan(),
			"trailing %s after document node", d.evs[d.pos].Kind)
	}
	return nil
}

func (d *Decoder) peek() (event.Event, *Fault) {
	if d.pos >= len(d.evs) {
		return event.Event{}, engine.Faultf(engine.CodeParse, event.Span{}, "unexpected end of event stream")
	}
	return d.evs[d.pos], nil
}

func (d *Decoder) next() (event.Event, *Fault) {
	ev, f := d.peek()
	if f == nil {
		d.pos++
	}
	return ev, f
}

func (d *Decoder) skipNode() {
	d.pos = engine.NodeEnd(d.evs, d.pos)
}

// Fault aliases the engine fault for brevity.
type Fault = engine.Fault

func (d *Decoder) value(rv reflect.Value) *Fault {
	ev, f := d.peek()
	if f != nil {
		return f
	}

	if rv.CanAddr() {
		pa := rv.Addr()
		if pa.CanInterface() {
			switch cell := pa.Interface().(type) {
			case SharedCell:
				return d.sharedCell(cell, ev)
			case WeakCell:
				return d.weakCell(cell, ev)
			case SpanCarrier:
				return d.spanned(cell, ev)
			case Union:
				return d.union(cell, ev)
			}
			if tu, ok := pa.Interface().(encoding.TextUnmarshaler); ok && rv.Kind() != reflect.String {
				return d.textUnmarshal(tu, ev)
			}
		}
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.NumMethod() != 0 {
			return engine.Faultf(engine.CodeTypeMismatch, ev.RefOrSpan(),
				"cannot decode into non-empty interface %s", rv.Type())
		}
		v, f := d.anyValue()
		if f != nil {
			return f
		}
		if v == nil {
			rv.SetZero()
		} else {
			rv.Set(reflect.ValueOf(v))
		}
		return nil

	case reflect.Pointer:
		if isNull(ev) {
			d.skipNode()
			rv.SetZero()
			return nil
		}
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return d.value(rv.Elem())

	case reflect.Bool:
		res, f := d.scalarValue(ev, engine.CodeInvalidBoolean)
		if f != nil {
			return f
		}
		if res.Kind != scalar.KindBool {
			return d.mismatch(ev, "boolean", res)
		}
		rv.SetBool(res.Bool)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		res, f := d.scalarValue(ev, engine.CodeInvalidInteger)
		if f != nil {
			return f
		}
		if res.Kind != scalar.KindInt {
			return d.mismatch(ev, "integer", res)
		}
		n, err := scalar.ParseInt(ev.Value, rv.Type().Bits())
		if err != nil {
			return engine.Faultf(engine.CodeInvalidInteger, ev.RefOrSpan(), "%v", err)
		}
		rv.SetInt(n)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		res, f := d.scalarValue(ev, engine.CodeInvalidInteger)
		if f != nil {
			return f
		}
		if res.Kind != scalar.KindInt {
			return d.mismatch(ev, "integer", res)
		}
		n, err := scalar.ParseUint(ev.Value, rv.Type().Bits())
		if err != nil {
			return engine.Faultf(engine.CodeInvalidInteger, ev.RefOrSpan(), "%v", err)
		}
		rv.SetUint(n)
		return nil

	case reflect.Float32, reflect.Float64:
		res, f := d.scalarValue(ev, engine.CodeInvalidFloat)
		if f != nil {
			return f
		}
		switch res.Kind {
		case scalar.KindFloat:
			rv.SetFloat(res.Float)
		case scalar.KindInt:
			if res.IsU {
				rv.SetFloat(float64(res.Uint))
			} else {
				rv.SetFloat(float64(res.Int))
			}
		default:
			return d.mismatch(ev, "float", res)
		}
		return nil

	case reflect.String:
		s, f := d.stringValue(ev)
		if f != nil {
			return f
		}
		rv.SetString(s)
		return nil

	case reflect.Slice:
		if rv.Type() == byteSliceType {
			return d.bytesValue(rv, ev)
		}
		return d.sequence(rv, ev)

	case reflect.Array:
		return d.array(rv, ev)

	case reflect.Map:
		return d.mapping(rv, ev)

	case reflect.Struct:
		return d.structure(rv, ev)

	default:
		return engine.Faultf(engine.CodeTypeMismatch, ev.RefOrSpan(),
			"unsupported decode target %s", rv.Type())
	}
}

// scalarValue consumes the next event, requires it to be a scalar and
// resolves it under the current options.
func (d *Decoder) scalarValue(ev event.Event, code string) (scalar.Resolved, *Fault) {
	if ev.Kind != event.KindScalar {
		return scalar.Resolved{}, engine.Faultf(engine.CodeTypeMismatch, ev.RefOrSpan(),
			"expected scalar, found %s", describe(ev))
	}
	d.pos++
	res, err := scalar.Resolve(ev.Value, ev.Style, effectiveTag(ev), d.opts.StrictBooleans)
	if err != nil {
		return scalar.Resolved{}, engine.Faultf(code, ev.RefOrSpan(), "%v", err)
	}
	return res, nil
}

func (d *Decoder) stringValue(ev event.Event) (string, *Fault) {
	if ev.Kind != event.KindScalar {
		return "", engine.Faultf(engine.CodeTypeMismatch, ev.RefOrSpan(),
			"expected string, found %s", describe(ev))
	}
	d.pos++
	switch effectiveTag(ev) {
	case event.TagBinary:
		if d.opts.IgnoreBinaryTagForString {
			return ev.Value, nil
		}
		raw, err := scalar.DecodeBase64(ev.Value)
		if err != nil {
			return "", engine.Faultf(engine.CodeInvalidBinary, ev.RefOrSpan(), "%v", err)
		}
		if !utf8.Valid(raw) {
			return "", engine.Faultf(engine.CodeInvalidBinary, ev.RefOrSpan(),
				"binary data is not valid UTF-8 and cannot decode into a string")
		}
		return string(raw), nil
	case event.TagInt, event.TagBool, event.TagFloat, event.TagNull:
		return "", engine.Faultf(engine.CodeTypeMismatch, ev.RefOrSpan(),
			"cannot decode %s-tagged scalar into a string", effectiveTag(ev))
	}
	if ev.Style == event.StylePlain && ev.Tag == "" && scalar.IsNull(ev.Value) {
		return "", engine.Faultf(engine.CodeTypeMismatch, ev.RefOrSpan(),
			"expected string, found null")
	}
	return ev.Value, nil
}

func (d *Decoder) bytesValue(rv reflect.Value, ev event.Event) *Fault {
	switch ev.Kind {
	case event.KindScalar:
		if isNull(ev) {
			d.pos++
			rv.SetZero()
			return nil
		}
		if effectiveTag(ev) != event.TagBinary {
			return engine.Faultf(engine.CodeTypeMismatch, ev.RefOrSpan(),
				"expected !!binary scalar or sequence of bytes, found %s", describe(ev))
		}
		d.pos++
		raw, err := scalar.DecodeBase64(ev.Value)
		if err != nil {
			return engine.Faultf(engine.CodeInvalidBinary, ev.RefOrSpan(), "%v", err)
		}
		rv.SetBytes(raw)
		return nil
	case event.KindSequenceStart:
		d.pos++
		out := []byte{}
		for {
			nev, f := d.peek()
			if f != nil {
				return f
			}
			if nev.Kind == event.KindSequenceEnd {
				d.pos++
				break
			}
			res, f := d.scalarValue(nev, engine.CodeInvalidInteger)
			if f != nil {
				return f
			}
			if res.Kind != scalar.KindInt || res.IsU || res.Int < 0 || res.Int > 255 {
				return engine.Faultf(engine.CodeInvalidInteger, nev.RefOrSpan(),
					"byte sequence elements must be integers in 0..255")
			}
			out = append(out, byte(res.Int))
		}
		rv.SetBytes(out)
		return nil
	default:
		return engine.Faultf(engine.CodeTypeMismatch, ev.RefOrSpan(),
			"expected !!binary scalar or sequence of bytes, found %s", describe(ev))
	}
}

func (d *Decoder) sequence(rv reflect.Value, ev event.Event) *Fault {
	if isNull(ev) {
		d.skipNode()
		rv.SetZero()
		return nil
	}
	if ev.Kind != event.KindSequenceStart {
		return engine.Faultf(engine.CodeTypeMismatch, ev.RefOrSpan(),
			"expected sequence, found %s", describe(ev))
	}
	d.pos++
	out := reflect.MakeSlice(rv.Type(), 0, 4)
	for {
		nev, f := d.peek()
		if f != nil {
			return f
		}
		if nev.Kind == event.KindSequenceEnd {
			d.pos++
			break
		}
		elem := reflect.New(rv.Type().Elem()).Elem()
		if f := d.value(elem); f != nil {
			return f
		}
		out = reflect.Append(out, elem)
	}
	rv.Set(out)
	return nil
}

func (d *Decoder) array(rv reflect.Value, ev event.Event) *Fault {
	if ev.Kind != event.KindSequenceStart {
		return engine.Faultf(engine.CodeTypeMismatch, ev.RefOrSpan(),
			"expected sequence, found %s", describe(ev))
	}
	d.pos++
	i := 0
	for {
		nev, f := d.peek()
		if f != nil {
			return f
		}
		if nev.Kind == event.KindSequenceEnd {
			d.pos++
			break
		}
		if i >= rv.Len() {
			return engine.Faultf(engine.CodeTypeMismatch, nev.RefOrSpan(),
				"sequence has more than %d elements for array target %s", rv.Len(), rv.Type())
		}
		if f := d.value(rv.Index(i)); f != nil {
			return f
		}
		i++
	}
	for ; i < rv.Len(); i++ {
		rv.Index(i).SetZero()
	}
	return nil
}

func (d *Decoder) mapping(rv reflect.Value, ev event.Event) *Fault {
	if isNull(ev) {
		d.skipNode()
		rv.SetZero()
		return nil
	}
	if ev.Kind != event.KindMappingStart {
		return engine.Faultf(engine.CodeTypeMismatch, ev.RefOrSpan(),
			"expected mapping, found %s", describe(ev))
	}
	d.pos++
	t := rv.Type()
	if rv.IsNil() {
		rv.Set(reflect.MakeMap(t))
	}
	for {
		nev, f := d.peek()
		if f != nil {
			return f
		}
		if nev.Kind == event.KindMappingEnd {
			d.pos++
			return nil
		}
		// Complex keys are buffered into the key type before the value is
		// touched, so non-scalar keys work for any comparable key type.
		key := reflect.New(t.Key()).Elem()
		if f := d.value(key); f != nil {
			return f
		}
		if !key.Comparable() {
			return engine.Faultf(engine.CodeUnexpectedEvent, nev.RefOrSpan(),
				"mapping key of type %s is not hashable", t.Key())
		}
		val := reflect.New(t.Elem()).Elem()
		if f := d.value(val); f != nil {
			return f
		}
		rv.SetMapIndex(key, val)
	}
}

func (d *Decoder) textUnmarshal(tu encoding.TextUnmarshaler, ev event.Event) *Fault {
	if ev.Kind != event.KindScalar {
		return engine.Faultf(engine.CodeTypeMismatch, ev.RefOrSpan(),
			"expected scalar, found %s", describe(ev))
	}
	d.pos++
	if isNull(ev) {
		return nil
	}
	if err := tu.UnmarshalText([]byte(ev.Value)); err != nil {
		return engine.Faultf(engine.CodeCustom, ev.RefOrSpan(), "%v", err)
	}
	return nil
}

func (d *Decoder) mismatch(ev event.Event, expected string, res scalar.Resolved) *Fault {
	f := engine.Faultf(engine.CodeTypeMismatch, ev.RefOrSpan(),
		"expected %s, found %s %q", expected, res.Kind, ev.Value)
	f.Params = map[string]any{"expected": expected, "found": res.Kind.String()}
	return f
}

// effectiveTag hides local tags from scalar resolution; only standard tags
// influence it.
func effectiveTag(ev event.Event) string {
	if event.IsStandardTag(ev.Tag) {
		return ev.Tag
	}
	return ""
}

func isNull(ev event.Event) bool {
	if ev.Kind != event.KindScalar {
		return false
	}
	switch ev.Tag {
	case event.TagNull:
		return true
	case "":
		return ev.Style == event.StylePlain && scalar.IsNull(ev.Value)
	}
	return false
}

func describe(ev event.Event) string {
	switch ev.Kind {
	case event.KindScalar:
		if isNull(ev) {
			return "null"
		}
		if ev.Style == event.StylePlain && ev.Tag == "" {
			return fmt.Sprintf("%s scalar", scalar.Classify(ev.Value))
		}
		return "string scalar"
	case event.KindSequenceStart:
		return "sequence"
	case event.KindMappingStart:
		return "mapping"
	default:
		return ev.Kind.String()
	}
}

// scalarKeyText renders a scalar key event into its field-name text.
func scalarKeyText(ev event.Event) (string, bool) {
	if ev.Kind != event.KindScalar {
		return "", false
	}
	return ev.Value, true
}
