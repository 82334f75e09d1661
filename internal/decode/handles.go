package decode

import (
	"reflect"

	"github.com/reoring/yamlbind/event"
	"github.com/reoring/yamlbind/internal/engine"
)

// sharedCell decodes into a shared-ownership handle. The first
// materialisation of an anchored subtree populates the per-call cache;
// later aliases rebind the cached allocation instead of re-decoding.
func (d *Decoder) sharedCell(cell SharedCell, ev event.Event) *Fault {
	if ev.FromAlias && ev.AnchorID != 0 {
		if cached, ok := d.shared[ev.AnchorID]; ok {
			if !cell.Bind(cached) {
				return engine.Faultf(engine.CodeTypeMismatch, ev.RefOrSpan(),
					"anchor reused with an incompatible shared handle type")
			}
			d.skipNode()
			return nil
		}
	}
	elem := cell.NewElem()
	id := ev.AnchorID
	if f := d.value(reflect.ValueOf(elem).Elem()); f != nil {
		return f
	}
	cell.Bind(elem)
	if id != 0 {
		d.shared[id] = elem
	}
	return nil
}

// weakCell requires the strong handle for the same anchor to have been
// materialised earlier in stream order.
func (d *Decoder) weakCell(cell WeakCell, ev event.Event) *Fault {
	if ev.AnchorID != 0 {
		if cached, ok := d.shared[ev.AnchorID]; ok {
			if !cell.BindWeak(cached) {
				return engine.Faultf(engine.CodeTypeMismatch, ev.RefOrSpan(),
					"anchor reused with an incompatible weak handle type")
			}
			d.skipNode()
			return nil
		}
	}
	return engine.Faultf(engine.CodeUnknownAnchor, ev.RefOrSpan(),
		"weak handle requires a strong handle materialised earlier in the stream")
}

// spanned captures the definition span of the decoded value and, when the
// value arrived through an alias, the span of the alias reference.
func (d *Decoder) spanned(sc SpanCarrier, ev event.Event) *Fault {
	def := ev.Span
	ref := ev.RefOrSpan()
	inner := sc.Inner()
	if f := d.value(reflect.ValueOf(inner).Elem()); f != nil {
		return f
	}
	sc.SetSpans(def, ref)
	return nil
}
