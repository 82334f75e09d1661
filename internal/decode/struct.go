package decode

import (
	"reflect"
	"strings"
	"sync"

	"github.com/reoring/yamlbind/event"
	"github.com/reoring/yamlbind/internal/engine"
)

// field describes one addressable struct field, possibly reached through
// inlined sub-structs.
type field struct {
	name  string
	index []int
}

type structInfo struct {
	fields    map[string]field
	inlineMap []int // index path of a ",inline" map field, nil when absent
	typeName  string
}

var structCache sync.Map // reflect.Type -> *structInfo

func infoFor(t reflect.Type) *structInfo {
	if v, ok := structCache.Load(t); ok {
		return v.(*structInfo)
	}
	si := &structInfo{fields: make(map[string]field), typeName: t.String()}
	collectFields(t, nil, si)
	structCache.Store(t, si)
	return si
}

func collectFields(t reflect.Type, prefix []int, si *structInfo) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" && !f.Anonymous {
			continue // unexported
		}
		tag := f.Tag.Get("yaml")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		index := append(append([]int(nil), prefix...), i)
		if hasOpt(opts, "inline") {
			switch f.Type.Kind() {
			case reflect.Struct:
				collectFields(f.Type, index, si)
			case reflect.Map:
				si.inlineMap = index
			}
			continue
		}
		if name == "" {
			if f.Anonymous && f.Type.Kind() == reflect.Struct {
				// Untagged embedded structs inline their fields, matching
				// the yaml.v3 convention.
				collectFields(f.Type, index, si)
				continue
			}
			name = strings.ToLower(f.Name)
		}
		if _, dup := si.fields[name]; !dup {
			si.fields[name] = field{name: name, index: index}
		}
	}
}

func hasOpt(opts, want string) bool {
	for opts != "" {
		var o string
		o, opts, _ = strings.Cut(opts, ",")
		if o == want {
			return true
		}
	}
	return false
}

func (d *Decoder) structure(rv reflect.Value, ev event.Event) *Fault {
	if isNull(ev) {
		d.skipNode()
		return nil
	}
	if ev.Kind != event.KindMappingStart {
		return engine.Faultf(engine.CodeTypeMismatch, ev.RefOrSpan(),
			"expected mapping, found %s", describe(ev))
	}
	d.pos++
	si := infoFor(rv.Type())
	for {
		nev, f := d.peek()
		if f != nil {
			return f
		}
		if nev.Kind == event.KindMappingEnd {
			d.pos++
			return nil
		}
		key, ok := scalarKeyText(nev)
		if !ok {
			if d.opts.KnownFieldsOnly {
				return engine.Faultf(engine.CodeUnknownField, nev.RefOrSpan(),
					"struct %s cannot accept a collection-valued key", si.typeName)
			}
			d.skipNode() // key
			d.skipNode() // value
			continue
		}
		d.pos++
		fi, found := si.fields[key]
		switch {
		case found:
			fv := rv.FieldByIndex(fi.index)
			if f := d.value(fv); f != nil {
				return f
			}
		case si.inlineMap != nil:
			mv := rv.FieldByIndex(si.inlineMap)
			if mv.IsNil() {
				mv.Set(reflect.MakeMap(mv.Type()))
			}
			val := reflect.New(mv.Type().Elem()).Elem()
			if f := d.value(val); f != nil {
				return f
			}
			mv.SetMapIndex(reflect.ValueOf(key).Convert(mv.Type().Key()), val)
		case d.opts.KnownFieldsOnly:
			return engine.Faultf(engine.CodeUnknownField, nev.RefOrSpan(),
				"unknown field %q in struct %s", key, si.typeName)
		default:
			d.skipNode()
		}
	}
}
