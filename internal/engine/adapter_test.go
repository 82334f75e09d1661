package engine_test

import (
	"errors"
	"io"
	"testing"

	"github.com/reoring/yamlbind/event"
	"github.com/reoring/yamlbind/internal/engine"
)

type sliceSource struct {
	evs []event.Event
	pos int
}

func (s *sliceSource) Next() (event.Event, error) {
	if s.pos >= len(s.evs) {
		return event.Event{}, io.EOF
	}
	ev := s.evs[s.pos]
	s.pos++
	return ev, nil
}

func sc(v string) event.Event {
	return event.Event{Kind: event.KindScalar, Value: v}
}

func scAt(v string, line, col int) event.Event {
	return event.Event{Kind: event.KindScalar, Value: v, Span: event.Span{Line: line, Column: col}}
}

func anchored(ev event.Event, name string) event.Event {
	ev.Anchor = name
	return ev
}

func alias(name string, line, col int) event.Event {
	return event.Event{Kind: event.KindAlias, Anchor: name, Span: event.Span{Line: line, Column: col}}
}

var (
	seqS = event.Event{Kind: event.KindSequenceStart}
	seqE = event.Event{Kind: event.KindSequenceEnd}
	mapS = event.Event{Kind: event.KindMappingStart}
	mapE = event.Event{Kind: event.KindMappingEnd}
	docS = event.Event{Kind: event.KindDocStart}
	docE = event.Event{Kind: event.KindDocEnd}
	strS = event.Event{Kind: event.KindStreamStart}
	strE = event.Event{Kind: event.KindStreamEnd}
)

func stream(body ...event.Event) *sliceSource {
	evs := []event.Event{strS, docS}
	evs = append(evs, body...)
	evs = append(evs, docE, strE)
	return &sliceSource{evs: evs}
}

func materialise(t *testing.T, cfg engine.Config, body ...event.Event) []event.Event {
	t.Helper()
	a := engine.NewAdapter(stream(body...), cfg)
	out, err := a.NextDocument()
	if err != nil {
		t.Fatalf("NextDocument: %v", err)
	}
	return out
}

// scalarPairs reads a flat mapping of scalar keys to scalar values.
func scalarPairs(t *testing.T, evs []event.Event, i int) ([]string, map[string]string) {
	t.Helper()
	if evs[i].Kind != event.KindMappingStart {
		t.Fatalf("event %d is %s, want mapping start", i, evs[i].Kind)
	}
	var order []string
	pairs := map[string]string{}
	j := i + 1
	for evs[j].Kind != event.KindMappingEnd {
		k := evs[j]
		if k.Kind != event.KindScalar {
			t.Fatalf("non-scalar key %s", k.Kind)
		}
		vEnd := engine.NodeEnd(evs, j+1)
		if vEnd != j+2 || evs[j+1].Kind != event.KindScalar {
			t.Fatalf("value for %q is not a scalar", k.Value)
		}
		order = append(order, k.Value)
		pairs[k.Value] = evs[j+1].Value
		j = vEnd
	}
	return order, pairs
}

func TestAliasReplayMaterialises(t *testing.T) {
	// seq: [&A [1,2,3], *A, *A]
	out := materialise(t, engine.Config{},
		mapS,
		sc("seq"),
		seqS,
		anchored(event.Event{Kind: event.KindSequenceStart, Span: event.Span{Line: 2, Column: 5}}, "A"),
		sc("1"), sc("2"), sc("3"),
		seqE,
		alias("A", 3, 5),
		alias("A", 4, 5),
		seqE,
		mapE,
	)

	var starts, replayed int
	for _, ev := range out {
		if ev.Kind == event.KindSequenceStart && ev.Span.Line == 2 {
			starts++
		}
		if ev.FromAlias {
			replayed++
			if ev.RefSpan.IsZero() {
				t.Fatalf("replayed event lacks a reference span")
			}
			if ev.Span.Line == 2 && ev.RefSpan.Line == 2 {
				t.Fatalf("replayed event should keep the definition span and carry the alias span")
			}
		}
	}
	if starts != 3 {
		t.Fatalf("anchored sequence materialised %d times, want 3", starts)
	}
	// Each replay covers the five events of the anchored subtree.
	if replayed != 10 {
		t.Fatalf("replayed %d events, want 10", replayed)
	}
}

func TestMergeKeys(t *testing.T) {
	// defaults: &d {a: 1, b: 2}
	// actual: {<<: *d, c: 3}
	out := materialise(t, engine.Config{},
		mapS,
		sc("defaults"),
		anchored(mapS, "d"), sc("a"), sc("1"), sc("b"), sc("2"), mapE,
		sc("actual"),
		mapS, sc("<<"), alias("d", 3, 3), sc("c"), sc("3"), mapE,
		mapE,
	)

	// Find the "actual" mapping.
	idx := -1
	for i, ev := range out {
		if ev.Kind == event.KindScalar && ev.Value == "actual" && !ev.FromAlias {
			idx = i + 1
		}
	}
	if idx < 0 {
		t.Fatalf("actual key not found")
	}
	order, pairs := scalarPairs(t, out, idx)
	want := map[string]string{"a": "1", "b": "2", "c": "3"}
	if len(pairs) != len(want) {
		t.Fatalf("actual = %v, want %v", pairs, want)
	}
	for k, v := range want {
		if pairs[k] != v {
			t.Fatalf("actual[%s] = %q, want %q", k, pairs[k], v)
		}
	}
	// Merged entries splice at the << position, ahead of later outer keys.
	if order[len(order)-1] != "c" {
		t.Fatalf("key order = %v, want c last", order)
	}
}

func TestMergePrecedence(t *testing.T) {
	// x: {<<: [*a, *b], k: outer}
	// where a = {k: fromA, m: fromA}, b = {m: fromB, n: fromB}
	out := materialise(t, engine.Config{},
		mapS,
		sc("srcs"),
		seqS,
		anchored(mapS, "a"), sc("k"), sc("fromA"), sc("m"), sc("fromA"), mapE,
		anchored(mapS, "b"), sc("m"), sc("fromB"), sc("n"), sc("fromB"), mapE,
		seqE,
		sc("x"),
		mapS,
		sc("<<"), seqS, alias("a", 5, 1), alias("b", 5, 5), seqE,
		sc("k"), sc("outer"),
		mapE,
		mapE,
	)

	idx := -1
	for i, ev := range out {
		if ev.Kind == event.KindScalar && ev.Value == "x" && !ev.FromAlias {
			idx = i + 1
		}
	}
	_, pairs := scalarPairs(t, out, idx)
	if pairs["k"] != "outer" {
		t.Fatalf("outer key must beat merged: k = %q", pairs["k"])
	}
	if pairs["m"] != "fromA" {
		t.Fatalf("earlier merge source must win: m = %q", pairs["m"])
	}
	if pairs["n"] != "fromB" {
		t.Fatalf("n = %q, want fromB", pairs["n"])
	}
}

func TestDuplicateKeyPolicies(t *testing.T) {
	body := func() []event.Event {
		return []event.Event{
			mapS,
			scAt("a", 1, 1), sc("1"),
			scAt("a", 2, 1), sc("2"),
			mapE,
		}
	}

	a := engine.NewAdapter(stream(body()...), engine.Config{})
	_, err := a.NextDocument()
	var f *engine.Fault
	if !errors.As(err, &f) || f.Code != engine.CodeDuplicateKey {
		t.Fatalf("default policy: got %v, want duplicate_key", err)
	}
	if len(f.Related) != 1 || f.Related[0].Span.Line != 1 {
		t.Fatalf("duplicate_key should point back at the first occurrence, got %+v", f.Related)
	}

	out := materialise(t, engine.Config{Duplicates: engine.DupFirstWins}, body()...)
	if _, pairs := scalarPairs(t, out, 0); pairs["a"] != "1" {
		t.Fatalf("first-wins kept %q", pairs["a"])
	}

	out = materialise(t, engine.Config{Duplicates: engine.DupLastWins}, body()...)
	if _, pairs := scalarPairs(t, out, 0); pairs["a"] != "2" {
		t.Fatalf("last-wins kept %q", pairs["a"])
	}
}

func TestForwardAliasRejected(t *testing.T) {
	a := engine.NewAdapter(stream(
		mapS, sc("x"), alias("later", 1, 4), sc("later"), anchored(sc("v"), "later"), mapE,
	), engine.Config{})
	_, err := a.NextDocument()
	var f *engine.Fault
	if !errors.As(err, &f) || f.Code != engine.CodeUnknownAnchor {
		t.Fatalf("got %v, want unknown_anchor", err)
	}
}

func TestAnchorRebinding(t *testing.T) {
	// a: &x 1, b: *x, c: &x 2, d: *x
	out := materialise(t, engine.Config{},
		mapS,
		sc("a"), anchored(sc("1"), "x"),
		sc("b"), alias("x", 1, 1),
		sc("c"), anchored(sc("2"), "x"),
		sc("d"), alias("x", 2, 1),
		mapE,
	)
	_, pairs := scalarPairs(t, out, 0)
	if pairs["b"] != "1" || pairs["d"] != "2" {
		t.Fatalf("rebinding: b=%q d=%q, want 1 and 2", pairs["b"], pairs["d"])
	}
}

func TestAnchorsScopedToDocument(t *testing.T) {
	src := &sliceSource{evs: []event.Event{
		strS,
		docS, anchored(sc("v"), "x"), docE,
		docS, alias("x", 1, 1), docE,
		strE,
	}}
	a := engine.NewAdapter(src, engine.Config{})
	if _, err := a.NextDocument(); err != nil {
		t.Fatalf("first document: %v", err)
	}
	_, err := a.NextDocument()
	var f *engine.Fault
	if !errors.As(err, &f) || f.Code != engine.CodeUnknownAnchor {
		t.Fatalf("second document: got %v, want unknown_anchor", err)
	}
}

func TestAliasBudget(t *testing.T) {
	// Two-level fan-out: &b [*a, *a, *a] over &a [1,1,1]. Six alias sites
	// in total; the limit cuts the chain off at the sixth.
	body := []event.Event{
		seqS,
		anchored(seqS, "a"), sc("1"), sc("1"), sc("1"), seqE,
		anchored(seqS, "b"), alias("a", 2, 1), alias("a", 2, 2), alias("a", 2, 3), seqE,
		alias("b", 3, 1), alias("b", 3, 2), alias("b", 3, 3),
		seqE,
	}
	a := engine.NewAdapter(stream(body...), engine.Config{
		Limits: engine.Limits{MaxAliases: 5},
	})
	_, err := a.NextDocument()
	var f *engine.Fault
	if !errors.As(err, &f) || f.Code != engine.CodeBudget {
		t.Fatalf("got %v, want budget_exceeded", err)
	}
	if f.Params["kind"] != "aliases" {
		t.Fatalf("breach params = %v", f.Params)
	}
}

func TestNodeBudgetCountsReplays(t *testing.T) {
	// The anchored subtree holds 4 nodes; each replay charges 4 more.
	body := []event.Event{
		seqS,
		anchored(seqS, "a"), sc("1"), sc("2"), sc("3"), seqE,
		alias("a", 2, 1),
		alias("a", 2, 2),
		seqE,
	}
	a := engine.NewAdapter(stream(body...), engine.Config{
		Limits: engine.Limits{MaxNodes: 10},
	})
	_, err := a.NextDocument()
	var f *engine.Fault
	if !errors.As(err, &f) || f.Code != engine.CodeBudget {
		t.Fatalf("got %v, want budget_exceeded", err)
	}
	if f.Params["kind"] != "nodes" {
		t.Fatalf("breach params = %v", f.Params)
	}
}

func TestDepthBudget(t *testing.T) {
	var body []event.Event
	for i := 0; i < 5; i++ {
		body = append(body, seqS)
	}
	body = append(body, sc("leaf"))
	for i := 0; i < 5; i++ {
		body = append(body, seqE)
	}
	a := engine.NewAdapter(stream(body...), engine.Config{
		Limits: engine.Limits{MaxDepth: 3},
	})
	_, err := a.NextDocument()
	var f *engine.Fault
	if !errors.As(err, &f) || f.Code != engine.CodeBudget || f.Params["kind"] != "depth" {
		t.Fatalf("got %v, want depth breach", err)
	}
}

func TestEmptyDocumentIsNullScalar(t *testing.T) {
	src := &sliceSource{evs: []event.Event{strS, docS, docE, strE}}
	a := engine.NewAdapter(src, engine.Config{})
	out, err := a.NextDocument()
	if err != nil {
		t.Fatalf("NextDocument: %v", err)
	}
	if len(out) != 1 || out[0].Kind != event.KindScalar || out[0].Value != "" {
		t.Fatalf("empty document = %+v", out)
	}
	if _, err := a.NextDocument(); err != io.EOF {
		t.Fatalf("want io.EOF after last document, got %v", err)
	}
}
