package decode

import (
	"math"

	"github.com/reoring/yamlbind/event"
	"github.com/reoring/yamlbind/internal/engine"
	"github.com/reoring/yamlbind/scalar"
)

// anyValue builds the generic representation of the next node: scalars by
// resolved kind, sequences as []any, mappings as map[string]any when every
// key is a string and map[any]any otherwise.
func (d *Decoder) anyValue() (any, *Fault) {
	ev, f := d.peek()
	if f != nil {
		return nil, f
	}
	switch ev.Kind {
	case event.KindScalar:
		res, f := d.scalarValue(ev, engine.CodeParse)
		if f != nil {
			return nil, f
		}
		switch res.Kind {
		case scalar.KindNull:
			return nil, nil
		case scalar.KindBool:
			return res.Bool, nil
		case scalar.KindInt:
			if res.IsU {
				return res.Uint, nil
			}
			if res.Int >= math.MinInt && res.Int <= math.MaxInt {
				return int(res.Int), nil
			}
			return res.Int, nil
		case scalar.KindFloat:
			return res.Float, nil
		default:
			if res.Bytes != nil {
				return res.Bytes, nil
			}
			return res.Str, nil
		}

	case event.KindSequenceStart:
		d.pos++
		out := []any{}
		for {
			nev, f := d.peek()
			if f != nil {
				return nil, f
			}
			if nev.Kind == event.KindSequenceEnd {
				d.pos++
				return out, nil
			}
			v, f := d.anyValue()
			if f != nil {
				return nil, f
			}
			out = append(out, v)
		}

	case event.KindMappingStart:
		d.pos++
		type kv struct {
			k any
			v any
		}
		var entries []kv
		allStrings := true
		for {
			nev, f := d.peek()
			if f != nil {
				return nil, f
			}
			if nev.Kind == event.KindMappingEnd {
				d.pos++
				break
			}
			k, f := d.anyValue()
			if f != nil {
				return nil, f
			}
			if _, ok := k.(string); !ok {
				allStrings = false
			}
			switch k.(type) {
			case []any, map[string]any, map[any]any, []byte:
				return nil, engine.Faultf(engine.CodeUnexpectedEvent, nev.RefOrSpan(),
					"collection-valued mapping key is not hashable for a generic target")
			}
			v, f := d.anyValue()
			if f != nil {
				return nil, f
			}
			entries = append(entries, kv{k, v})
		}
		if allStrings {
			m := make(map[string]any, len(entries))
			for _, e := range entries {
				m[e.k.(string)] = e.v
			}
			return m, nil
		}
		m := make(map[any]any, len(entries))
		for _, e := range entries {
			m[e.k] = e.v
		}
		return m, nil

	default:
		return nil, engine.Faultf(engine.CodeUnexpectedEvent, ev.RefOrSpan(),
			"unexpected %s", ev.Kind)
	}
}
