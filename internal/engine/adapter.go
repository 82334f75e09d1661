package engine

import (
	"io"

	"github.com/reoring/yamlbind/event"
)

// RawSource is the pull interface a parser driver implements. Next returns
// io.EOF once the stream is exhausted.
type RawSource interface {
	Next() (event.Event, error)
}

// DuplicatePolicy controls how duplicated mapping keys materialise.
type DuplicatePolicy int

const (
	DupError DuplicatePolicy = iota
	DupFirstWins
	DupLastWins
)

// Config bundles the adapter's knobs.
type Config struct {
	Duplicates DuplicatePolicy
	Limits     Limits
}

// streamState tracks the stream-level machine:
// beforeStream -> inStream -> inDoc -> inStream -> ... -> endStream.
type streamState int

const (
	beforeStream streamState = iota
	inStream
	endStream
)

// Adapter wraps a raw event source and produces materialised documents:
// aliases replayed inline, merge keys expanded, duplicate keys resolved,
// budgets enforced. Anchor records live from their defining event until
// the enclosing document ends; the budget meter spans the whole stream.
type Adapter struct {
	src     RawSource
	meter   *Meter
	anchors *Store
	dup     DuplicatePolicy
	state   streamState
}

// NewAdapter builds an adapter over src.
func NewAdapter(src RawSource, cfg Config) *Adapter {
	return &Adapter{
		src:     src,
		meter:   NewMeter(cfg.Limits),
		anchors: NewStore(),
		dup:     cfg.Duplicates,
	}
}

// Meter exposes the budget meter, for input pre-checks and usage reports.
func (a *Adapter) Meter() *Meter { return a.meter }

// SetSource installs the raw source. Callers that pre-check the input
// budget build the adapter first and attach the parsed source after.
func (a *Adapter) SetSource(src RawSource) { a.src = src }

// NextDocument materialises the next document's node into a flat, balanced
// event sequence (document markers stripped). It returns io.EOF when the
// stream has no more documents.
func (a *Adapter) NextDocument() ([]event.Event, error) {
	if a.state == endStream {
		return nil, io.EOF
	}
	for {
		ev, err := a.src.Next()
		if err == io.EOF {
			a.state = endStream
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
		switch ev.Kind {
		case event.KindStreamStart:
			if a.state != beforeStream {
				return nil, Faultf(CodeUnexpectedEvent, ev.Span, "unexpected stream start")
			}
			a.state = inStream
		case event.KindStreamEnd:
			a.state = endStream
			return nil, io.EOF
		case event.KindDocStart:
			if a.state == beforeStream {
				a.state = inStream
			}
			a.anchors = NewStore() // anchor records are scoped to the document
			return a.document()
		default:
			// Drivers that skip stream/document markers hand us the root
			// node directly.
			if a.state == beforeStream {
				a.state = inStream
			}
			a.anchors = NewStore()
			out, f := a.bareDocument(ev)
			if f != nil {
				return nil, f
			}
			return out, nil
		}
	}
}

func (a *Adapter) document() ([]event.Event, error) {
	ev, err := a.src.Next()
	if err == io.EOF {
		return nil, Faultf(CodeParse, event.Span{}, "unexpected end of stream inside document")
	}
	if err != nil {
		return nil, err
	}
	if ev.Kind == event.KindDocEnd {
		// Empty document materialises as a null scalar.
		return []event.Event{{Kind: event.KindScalar, Span: ev.Span}}, nil
	}
	out, f := a.bareDocument(ev)
	if f != nil {
		return nil, f
	}
	end, err := a.src.Next()
	if err == io.EOF {
		return nil, Faultf(CodeParse, event.Span{}, "unexpected end of stream inside document")
	}
	if err != nil {
		return nil, err
	}
	if end.Kind != event.KindDocEnd {
		return nil, Faultf(CodeUnexpectedEvent, end.Span, "expected end of document, got %s", end.Kind)
	}
	return out, nil
}

func (a *Adapter) bareDocument(first event.Event) ([]event.Event, *Fault) {
	var out []event.Event
	if f := a.expandNode(first, &out); f != nil {
		return nil, f
	}
	return a.rewriteNode(out)
}

// expandNode materialises one node rooted at ev into out, recording anchor
// buffers and replaying aliases. Every materialised node and scalar byte is
// charged against the budget, so amplification chains breach before they
// allocate.
func (a *Adapter) expandNode(ev event.Event, out *[]event.Event) *Fault {
	switch ev.Kind {
	case event.KindScalar:
		if f := a.meter.AddNode(ev.Span); f != nil {
			return f
		}
		if f := a.meter.AddScalarBytes(len(ev.Value), ev.Span); f != nil {
			return f
		}
		if ev.Anchor != "" {
			id := a.anchors.Register(ev.Anchor, ev.Span)
			ev.AnchorID = id
			a.anchors.SetBuffer(id, []event.Event{ev})
		}
		*out = append(*out, ev)
		return nil

	case event.KindSequenceStart, event.KindMappingStart:
		if f := a.meter.AddNode(ev.Span); f != nil {
			return f
		}
		if f := a.meter.Enter(ev.Span); f != nil {
			return f
		}
		var id event.AnchorID
		if ev.Anchor != "" {
			id = a.anchors.Register(ev.Anchor, ev.Span)
			ev.AnchorID = id
		}
		start := len(*out)
		*out = append(*out, ev)
		endKind := event.KindSequenceEnd
		if ev.Kind == event.KindMappingStart {
			endKind = event.KindMappingEnd
		}
		for {
			child, err := a.src.Next()
			if err == io.EOF {
				return Faultf(CodeParse, ev.Span, "unexpected end of stream inside %s", ev.Kind)
			}
			if err != nil {
				return asFault(err)
			}
			if child.Kind == endKind {
				a.meter.Leave()
				*out = append(*out, child)
				break
			}
			switch child.Kind {
			case event.KindSequenceEnd, event.KindMappingEnd, event.KindDocEnd,
				event.KindDocStart, event.KindStreamStart, event.KindStreamEnd:
				return Faultf(CodeUnexpectedEvent, child.Span, "unexpected %s inside %s", child.Kind, ev.Kind)
			}
			if f := a.expandNode(child, out); f != nil {
				return f
			}
		}
		if id != 0 {
			buf := make([]event.Event, len(*out)-start)
			copy(buf, (*out)[start:])
			a.anchors.SetBuffer(id, buf)
		}
		return nil

	case event.KindAlias:
		id, ok := a.anchors.Resolve(ev.Anchor)
		if !ok {
			return Faultf(CodeUnknownAnchor, ev.Span, "unknown anchor %q (aliases may only refer backwards)", ev.Anchor)
		}
		if f := a.meter.AddAlias(ev.Span); f != nil {
			return f
		}
		return a.replay(id, ev.Span, out)

	default:
		return Faultf(CodeUnexpectedEvent, ev.Span, "unexpected %s", ev.Kind)
	}
}

// replay splices the recorded buffer for id into out. Inner spans keep
// pointing at the definition; RefSpan is stamped with the alias site so
// span-aware targets can attribute the reference. Replayed events are
// charged against the budget at their materialised size.
func (a *Adapter) replay(id event.AnchorID, ref event.Span, out *[]event.Event) *Fault {
	buf := a.anchors.Buffer(id)
	for i, rev := range buf {
		switch rev.Kind {
		case event.KindScalar:
			if f := a.meter.AddNode(rev.Span); f != nil {
				return f
			}
			if f := a.meter.AddScalarBytes(len(rev.Value), rev.Span); f != nil {
				return f
			}
		case event.KindSequenceStart, event.KindMappingStart:
			if f := a.meter.AddNode(rev.Span); f != nil {
				return f
			}
			if f := a.meter.Enter(rev.Span); f != nil {
				return f
			}
		case event.KindSequenceEnd, event.KindMappingEnd:
			a.meter.Leave()
		}
		cp := rev
		cp.FromAlias = true
		cp.RefSpan = ref
		if i == 0 {
			cp.AnchorID = id
		}
		*out = append(*out, cp)
	}
	return nil
}

// DefSpan exposes the definition site of an anchor, for secondary spans in
// diagnostics.
func (a *Adapter) DefSpan(id event.AnchorID) event.Span {
	return a.anchors.DefSpan(id)
}

func (a *Adapter) rewriteNode(evs []event.Event) ([]event.Event, *Fault) {
	r := rewriter{pol: a.dup}
	out, next, f := r.node(evs, 0)
	if f != nil {
		return nil, f
	}
	if next != len(evs) {
		return nil, Faultf(CodeUnexpectedEvent, evs[next].Span, "trailing %s after document node", evs[next].Kind)
	}
	return out, nil
}

func asFault(err error) *Fault {
	if f, ok := err.(*Fault); ok {
		return f
	}
	return &Fault{Code: CodeParse, Message: err.Error(), Cause: err}
}
