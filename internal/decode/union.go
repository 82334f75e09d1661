package decode

import (
	"reflect"

	"github.com/reoring/yamlbind/event"
	"github.com/reoring/yamlbind/internal/engine"
)

// union drives tagged-union dispatch over the supported shapes: explicit
// YAML tags, the externally-tagged string / single-entry-mapping forms and
// the internally-tagged form when the target names a tag field.
func (d *Decoder) union(u Union, ev event.Event) *Fault {
	if name, secondary, ok := event.LocalTagName(ev.Tag); ok {
		if secondary {
			// "!!EnumName VariantName" spells out the enum; it must match
			// the target.
			if name != u.UnionName() {
				return engine.Faultf(engine.CodeTaggedEnumMismatch, ev.RefOrSpan(),
					"tagged enum %s does not match target enum %s", name, u.UnionName())
			}
			if ev.Kind != event.KindScalar {
				return engine.Faultf(engine.CodeUnexpectedEvent, ev.RefOrSpan(),
					"expected variant name after enum tag, found %s", describe(ev))
			}
			d.pos++
			return d.setUnit(u, ev.Value, ev)
		}
		// "!Variant payload" selects the variant directly.
		return d.tagVariant(u, name, ev)
	}

	switch ev.Kind {
	case event.KindScalar:
		d.pos++
		return d.setUnit(u, ev.Value, ev)
	case event.KindMappingStart:
		if it, ok := u.(InternallyTagged); ok {
			return d.internalVariant(u, it.TagField(), ev)
		}
		return d.externalVariant(u, ev)
	default:
		return engine.Faultf(engine.CodeUnexpectedEvent, ev.RefOrSpan(),
			"cannot decode %s into enum %s", describe(ev), u.UnionName())
	}
}

func (d *Decoder) setUnit(u Union, variant string, ev event.Event) *Fault {
	if _, known := u.NewPayload(variant); !known {
		return d.unknownVariant(u, variant, ev)
	}
	if err := u.SetVariant(variant, nil); err != nil {
		return engine.Faultf(engine.CodeCustom, ev.RefOrSpan(), "%v", err)
	}
	return nil
}

func (d *Decoder) tagVariant(u Union, variant string, ev event.Event) *Fault {
	payload, known := u.NewPayload(variant)
	if !known {
		return d.unknownVariant(u, variant, ev)
	}
	if payload == nil {
		d.skipNode()
		if err := u.SetVariant(variant, nil); err != nil {
			return engine.Faultf(engine.CodeCustom, ev.RefOrSpan(), "%v", err)
		}
		return nil
	}
	if f := d.value(reflect.ValueOf(payload).Elem()); f != nil {
		return f
	}
	if err := u.SetVariant(variant, payload); err != nil {
		return engine.Faultf(engine.CodeCustom, ev.RefOrSpan(), "%v", err)
	}
	return nil
}

// externalVariant decodes the {Variant: payload} single-entry form.
func (d *Decoder) externalVariant(u Union, start event.Event) *Fault {
	d.pos++ // mapping start
	kev, f := d.peek()
	if f != nil {
		return f
	}
	if kev.Kind == event.KindMappingEnd {
		return engine.Faultf(engine.CodeUnexpectedEvent, start.RefOrSpan(),
			"externally tagged enum %s requires a single-entry mapping", u.UnionName())
	}
	variant, ok := scalarKeyText(kev)
	if !ok {
		return engine.Faultf(engine.CodeUnexpectedEvent, kev.RefOrSpan(),
			"enum variant key must be a scalar")
	}
	d.pos++
	payload, known := u.NewPayload(variant)
	if !known {
		return d.unknownVariant(u, variant, kev)
	}
	if payload == nil {
		d.skipNode()
	} else if f := d.value(reflect.ValueOf(payload).Elem()); f != nil {
		return f
	}
	end, f := d.peek()
	if f != nil {
		return f
	}
	if end.Kind != event.KindMappingEnd {
		return engine.Faultf(engine.CodeUnexpectedEvent, end.RefOrSpan(),
			"externally tagged enum %s requires a single-entry mapping", u.UnionName())
	}
	d.pos++
	if err := u.SetVariant(variant, payload); err != nil {
		return engine.Faultf(engine.CodeCustom, kev.RefOrSpan(), "%v", err)
	}
	return nil
}

// internalVariant handles the internally tagged form: the mapping carries
// the variant under tagField and the remaining entries are the payload.
func (d *Decoder) internalVariant(u Union, tagField string, start event.Event) *Fault {
	mapEnd := engine.NodeEnd(d.evs, d.pos)
	evs := d.evs[d.pos:mapEnd]

	variant := ""
	found := false
	payload := []event.Event{evs[0]}
	j := 1
	for j < len(evs)-1 {
		kend := engine.NodeEnd(evs, j)
		vend := engine.NodeEnd(evs, kend)
		key, ok := scalarKeyText(evs[j])
		if ok && key == tagField && !found {
			if vend-kend != 1 || evs[kend].Kind != event.KindScalar {
				return engine.Faultf(engine.CodeUnexpectedEvent, evs[j].RefOrSpan(),
					"enum tag field %q must hold a scalar variant name", tagField)
			}
			variant = evs[kend].Value
			found = true
		} else {
			payload = append(payload, evs[j:vend]...)
		}
		j = vend
	}
	payload = append(payload, evs[len(evs)-1])
	if !found {
		return engine.Faultf(engine.CodeMissingField, start.RefOrSpan(),
			"missing enum tag field %q for %s", tagField, u.UnionName())
	}

	pv, known := u.NewPayload(variant)
	if !known {
		return d.unknownVariant(u, variant, start)
	}
	if pv != nil {
		sub := &Decoder{evs: payload, opts: d.opts, shared: d.shared}
		if f := sub.Decode(pv); f != nil {
			if ff, ok := f.(*Fault); ok {
				return ff
			}
			return engine.Faultf(engine.CodeCustom, start.RefOrSpan(), "%v", f)
		}
	}
	d.pos = mapEnd
	if err := u.SetVariant(variant, pv); err != nil {
		return engine.Faultf(engine.CodeCustom, start.RefOrSpan(), "%v", err)
	}
	return nil
}

func (d *Decoder) unknownVariant(u Union, variant string, ev event.Event) *Fault {
	f := engine.Faultf(engine.CodeTaggedEnumMismatch, ev.RefOrSpan(),
		"unknown variant %q of enum %s", variant, u.UnionName())
	f.Params = map[string]any{"variants": u.VariantNames()}
	return f
}
