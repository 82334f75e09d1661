// Package emit renders Go values to YAML text with deterministic
// formatting: block style for non-empty collections, literal blocks for
// multiline strings, double quotes for anything a plain reading would
// resolve to a different kind, and &idN/*idN pairs for shared handles
// encountered more than once.
//
// Rendering runs in two phases, build then print: the build phase lowers
// the value into a small node tree (resolving handles, unions and text
// marshalers), the print phase walks the tree writing lines.
package emit

import (
	"encoding"
	"fmt"
	"reflect"
	"sort"

	"github.com/reoring/yamlbind/event"
	"github.com/reoring/yamlbind/internal/engine"
)

// Options mirror the public serializer options.
type Options struct {
	IndentStep         int // 1..9, 0 means 2
	IndentArray        int // 0 means IndentStep
	CompactListIndent  bool
	PreferBlockScalars bool
	TaggedEnums        bool
}

func (o Options) normalized() (Options, error) {
	if o.IndentStep == 0 {
		o.IndentStep = 2
	}
	if o.IndentStep < 1 || o.IndentStep > 9 {
		return o, engine.Faultf(engine.CodeCustom, event.Span{},
			"indent step %d out of range 1..9", o.IndentStep)
	}
	if o.IndentArray == 0 {
		o.IndentArray = o.IndentStep
	}
	if o.IndentArray < 1 || o.IndentArray > 9 {
		return o, engine.Faultf(engine.CodeCustom, event.Span{},
			"array indent %d out of range 1..9", o.IndentArray)
	}
	return o, nil
}

// Interfaces the build phase recognises. They structurally match the
// methods on the public handle types.
type (
	sharedElem interface{ Elem() any }
	union      interface {
		UnionName() string
		Variant() (string, any)
	}
	spannedValue interface {
		Inner() any
		SetSpans(def, ref event.Span)
	}
	styledString interface {
		YAMLScalarStyle() event.ScalarStyle
	}
)

type nodeKind int

const (
	scalarNode nodeKind = iota
	seqNode
	mapNode
	refNode
)

type node struct {
	kind    nodeKind
	val     any // nil, bool, int64, uint64, float64, string, []byte
	style   event.ScalarStyle
	tag     string
	items   []*node
	entries []entry
	anchor  string     // assigned when the node is aliased at least once
	rec     *sharedRec // refNode only
}

// sharedRec tracks one shared handle target. All occurrences build into
// refNodes pointing at the same record; whichever occurrence the printer
// reaches first becomes the anchored definition, later ones aliases.
// Anchor placement therefore stays valid even after map keys are sorted.
type sharedRec struct {
	n       *node
	count   int
	name    string
	printed bool
}

type entry struct {
	key     *node
	val     *node
	sortKey sortKey
}

type sortKey struct {
	rank int
	num  float64
	str  string
}

type builder struct {
	opts   Options
	shared map[any]*sharedRec
}

// Marshal renders v as one YAML document ending in a newline.
func Marshal(v any, opts Options) ([]byte, error) {
	opts, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	b := &builder{opts: opts, shared: make(map[any]*sharedRec)}
	rv := reflect.ValueOf(v)
	if rv.IsValid() && !rv.CanAddr() {
		// Copy into an addressable slot so pointer-receiver methods on
		// handle types are visible anywhere in the tree.
		slot := reflect.New(rv.Type())
		slot.Elem().Set(rv)
		rv = slot.Elem()
	}
	n, err := b.build(rv)
	if err != nil {
		return nil, err
	}
	p := &printer{opts: opts}
	p.root(n)
	return p.buf, nil
}

func (b *builder) build(rv reflect.Value) (*node, error) {
	if !rv.IsValid() {
		return &node{kind: scalarNode}, nil
	}

	if rv.CanInterface() {
		if n, ok, err := b.special(rv.Interface(), rv); ok || err != nil {
			return n, err
		}
	}
	if rv.CanAddr() && rv.Addr().CanInterface() {
		if n, ok, err := b.special(rv.Addr().Interface(), rv); ok || err != nil {
			return n, err
		}
	}

	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return &node{kind: scalarNode}, nil
		}
		return b.build(rv.Elem())

	case reflect.Bool:
		return &node{kind: scalarNode, val: rv.Bool()}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &node{kind: scalarNode, val: rv.Int()}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return &node{kind: scalarNode, val: rv.Uint()}, nil
	case reflect.Float32, reflect.Float64:
		return &node{kind: scalarNode, val: rv.Float()}, nil
	case reflect.String:
		n := &node{kind: scalarNode, val: rv.String()}
		if ss, ok := rv.Interface().(styledString); ok {
			n.style = ss.YAMLScalarStyle()
		}
		return n, nil

	case reflect.Slice:
		if rv.Type() == byteSliceType {
			return &node{kind: scalarNode, val: rv.Bytes(), tag: event.TagBinary}, nil
		}
		fallthrough
	case reflect.Array:
		n := &node{kind: seqNode}
		for i := 0; i < rv.Len(); i++ {
			item, err := b.build(rv.Index(i))
			if err != nil {
				return nil, err
			}
			n.items = append(n.items, item)
		}
		return n, nil

	case reflect.Map:
		n := &node{kind: mapNode}
		iter := rv.MapRange()
		for iter.Next() {
			kn, err := b.build(iter.Key())
			if err != nil {
				return nil, err
			}
			vn, err := b.build(iter.Value())
			if err != nil {
				return nil, err
			}
			n.entries = append(n.entries, entry{key: kn, val: vn, sortKey: keySort(kn)})
		}
		sort.SliceStable(n.entries, func(i, j int) bool {
			return lessKey(n.entries[i].sortKey, n.entries[j].sortKey)
		})
		return n, nil

	case reflect.Struct:
		return b.structNode(rv)

	default:
		return nil, engine.Faultf(engine.CodeTypeMismatch, event.Span{},
			"cannot marshal value of type %s", rv.Type())
	}
}

// special handles the handle types and text marshalers, given either the
// value or its address as iv.
func (b *builder) special(iv any, rv reflect.Value) (*node, bool, error) {
	switch t := iv.(type) {
	case sharedElem:
		ptr := t.Elem()
		if ptr == nil {
			return &node{kind: scalarNode}, true, nil
		}
		pv := reflect.ValueOf(ptr)
		if pv.Kind() != reflect.Pointer {
			return nil, false, nil
		}
		if rec, ok := b.shared[ptr]; ok {
			rec.count++
			return &node{kind: refNode, rec: rec}, true, nil
		}
		rec := &sharedRec{count: 1}
		b.shared[ptr] = rec
		n, err := b.build(pv.Elem())
		if err != nil {
			return nil, true, err
		}
		rec.n = n
		return &node{kind: refNode, rec: rec}, true, nil

	case union:
		name, payload := t.Variant()
		if name == "" {
			return &node{kind: scalarNode}, true, nil
		}
		if payload == nil {
			n := &node{kind: scalarNode, val: name}
			if b.opts.TaggedEnums {
				n.tag = "!!" + t.UnionName()
			}
			return n, true, nil
		}
		pn, err := b.build(reflect.ValueOf(payload))
		if err != nil {
			return nil, true, err
		}
		key := &node{kind: scalarNode, val: name}
		return &node{kind: mapNode, entries: []entry{{key: key, val: pn}}}, true, nil

	case spannedValue:
		inner := t.Inner()
		if inner == nil {
			return &node{kind: scalarNode}, true, nil
		}
		n, err := b.build(reflect.ValueOf(inner).Elem())
		return n, true, err

	case encoding.TextMarshaler:
		// Styled strings take priority over a text marshaler they may
		// also implement.
		if _, isStyled := iv.(styledString); isStyled {
			return nil, false, nil
		}
		text, err := t.MarshalText()
		if err != nil {
			return nil, true, engine.Faultf(engine.CodeCustom, event.Span{}, "%v", err)
		}
		return &node{kind: scalarNode, val: string(text)}, true, nil
	}
	return nil, false, nil
}

func (b *builder) structNode(rv reflect.Value) (*node, error) {
	n := &node{kind: mapNode}
	if err := b.structFields(rv, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (b *builder) structFields(rv reflect.Value, n *node) error {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" && !f.Anonymous {
			continue
		}
		tag := f.Tag.Get("yaml")
		if tag == "-" {
			continue
		}
		name, opts, _ := cutTag(tag)
		fv := rv.Field(i)
		if hasTagOpt(opts, "inline") || (name == "" && f.Anonymous && f.Type.Kind() == reflect.Struct) {
			switch f.Type.Kind() {
			case reflect.Struct:
				if err := b.structFields(fv, n); err != nil {
					return err
				}
			case reflect.Map:
				iter := fv.MapRange()
				for iter.Next() {
					kn, err := b.build(iter.Key())
					if err != nil {
						return err
					}
					vn, err := b.build(iter.Value())
					if err != nil {
						return err
					}
					n.entries = append(n.entries, entry{key: kn, val: vn, sortKey: keySort(kn)})
				}
			}
			continue
		}
		if hasTagOpt(opts, "omitempty") && fv.IsZero() {
			continue
		}
		if name == "" {
			name = lowerName(f.Name)
		}
		vn, err := b.build(fv)
		if err != nil {
			return err
		}
		kn := &node{kind: scalarNode, val: name}
		n.entries = append(n.entries, entry{key: kn, val: vn, sortKey: keySort(kn)})
	}
	return nil
}

var byteSliceType = reflect.TypeOf([]byte(nil))

func keySort(k *node) sortKey {
	switch v := k.val.(type) {
	case nil:
		return sortKey{rank: 3}
	case bool:
		s := "false"
		if v {
			s = "true"
		}
		return sortKey{rank: 2, str: s}
	case int64:
		return sortKey{rank: 0, num: float64(v)}
	case uint64:
		return sortKey{rank: 0, num: float64(v)}
	case float64:
		return sortKey{rank: 0, num: v}
	case string:
		return sortKey{rank: 1, str: v}
	default:
		return sortKey{rank: 4, str: fmt.Sprintf("%v", v)}
	}
}

func lessKey(a, b sortKey) bool {
	if a.rank != b.rank {
		return a.rank < b.rank
	}
	if a.rank == 0 {
		return a.num < b.num
	}
	return a.str < b.str
}
