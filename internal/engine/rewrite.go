package engine

import "github.com/reoring/yamlbind/event"

// Merge-key expansion and duplicate-key policy, applied to materialised
// (alias-free) event sequences so the deserialiser observes one effective
// value per key.
//
// Precedence follows the YAML merge-key convention: keys written in the
// target mapping win over merged ones regardless of position, and among a
// sequence of merges earlier sources win over later ones.

type rewriter struct {
	pol DuplicatePolicy
}

type mapEntry struct {
	key []event.Event
	val []event.Event
	// scalarKey is the identity used for duplicate detection and merge
	// precedence. Collection-valued keys have no scalar identity and are
	// exempt from both.
	scalarKey    string
	hasScalarKey bool
	isMerge      bool
	keySpan      event.Span
}

// node rewrites the node starting at evs[i] and returns the index just
// past it.
func (r *rewriter) node(evs []event.Event, i int) ([]event.Event, int, *Fault) {
	if i >= len(evs) {
		return nil, i, Faultf(CodeParse, event.Span{}, "truncated event stream")
	}
	switch evs[i].Kind {
	case event.KindScalar:
		return evs[i : i+1], i + 1, nil
	case event.KindSequenceStart:
		out := []event.Event{evs[i]}
		j := i + 1
		for j < len(evs) && evs[j].Kind != event.KindSequenceEnd {
			item, nj, f := r.node(evs, j)
			if f != nil {
				return nil, 0, f
			}
			out = append(out, item...)
			j = nj
		}
		if j >= len(evs) {
			return nil, 0, Faultf(CodeParse, evs[i].Span, "unterminated sequence")
		}
		out = append(out, evs[j])
		return out, j + 1, nil
	case event.KindMappingStart:
		return r.mapping(evs, i)
	default:
		return nil, 0, Faultf(CodeUnexpectedEvent, evs[i].Span, "unexpected %s", evs[i].Kind)
	}
}

func (r *rewriter) mapping(evs []event.Event, i int) ([]event.Event, int, *Fault) {
	start := evs[i]
	entries, end, next, f := r.entries(evs, i)
	if f != nil {
		return nil, 0, f
	}

	outerKeys := make(map[string]struct{})
	for _, e := range entries {
		if !e.isMerge && e.hasScalarKey {
			outerKeys[e.scalarKey] = struct{}{}
		}
	}

	seen := make(map[string]int)
	firstAt := make(map[string]event.Span)
	merged := make(map[string]struct{})
	var out []mapEntry

	for _, e := range entries {
		if e.isMerge {
			sources, f := mergeSources(e.val, e.keySpan)
			if f != nil {
				return nil, 0, f
			}
			for _, src := range sources {
				for _, me := range src {
					if me.hasScalarKey {
						if _, ok := outerKeys[me.scalarKey]; ok {
							continue
						}
						if _, ok := merged[me.scalarKey]; ok {
							continue
						}
						merged[me.scalarKey] = struct{}{}
					}
					out = append(out, me)
				}
			}
			continue
		}
		if e.hasScalarKey {
			if j, dup := seen[e.scalarKey]; dup {
				switch r.pol {
				case DupFirstWins:
				case DupLastWins:
					out[j].val = e.val
				default:
					f := Faultf(CodeDuplicateKey, e.keySpan, "duplicate mapping key %q", e.scalarKey)
					f.Related = []Related{{Span: firstAt[e.scalarKey], Note: "first defined here"}}
					return nil, 0, f
				}
				continue
			}
			seen[e.scalarKey] = len(out)
			firstAt[e.scalarKey] = e.keySpan
		}
		out = append(out, e)
	}

	flat := []event.Event{start}
	for _, e := range out {
		flat = append(flat, e.key...)
		flat = append(flat, e.val...)
	}
	flat = append(flat, end)
	return flat, next, nil
}

// entries parses and rewrites the key/value pairs of the mapping starting
// at evs[i], returning the entries, the mapping-end event and the index
// just past the mapping.
func (r *rewriter) entries(evs []event.Event, i int) ([]mapEntry, event.Event, int, *Fault) {
	j := i + 1
	var entries []mapEntry
	for j < len(evs) && evs[j].Kind != event.KindMappingEnd {
		keyEv := evs[j]
		key, nj, f := r.node(evs, j)
		if f != nil {
			return nil, event.Event{}, 0, f
		}
		j = nj
		if j >= len(evs) || evs[j].Kind == event.KindMappingEnd {
			return nil, event.Event{}, 0, Faultf(CodeParse, keyEv.Span, "mapping key without a value")
		}
		val, nj2, f := r.node(evs, j)
		if f != nil {
			return nil, event.Event{}, 0, f
		}
		j = nj2

		e := mapEntry{key: key, val: val, keySpan: keyEv.RefOrSpan()}
		if len(key) == 1 && key[0].Kind == event.KindScalar {
			k := key[0]
			e.scalarKey = k.Value
			e.hasScalarKey = true
			e.isMerge = k.Tag == event.TagMerge ||
				(k.Tag == "" && k.Style == event.StylePlain && k.Value == "<<")
		}
		entries = append(entries, e)
	}
	if j >= len(evs) {
		return nil, event.Event{}, 0, Faultf(CodeParse, evs[i].Span, "unterminated mapping")
	}
	return entries, evs[j], j + 1, nil
}

// mergeSources extracts the entry lists referenced by a merge value: a
// single mapping or a sequence of mappings. The events are already
// rewritten, so nested merges have been resolved.
func mergeSources(val []event.Event, at event.Span) ([][]mapEntry, *Fault) {
	if len(val) == 0 {
		return nil, Faultf(CodeParse, at, "empty merge value")
	}
	switch val[0].Kind {
	case event.KindMappingStart:
		entries, f := parsedEntries(val)
		if f != nil {
			return nil, f
		}
		return [][]mapEntry{entries}, nil
	case event.KindSequenceStart:
		var out [][]mapEntry
		j := 1
		for j < len(val) && val[j].Kind != event.KindSequenceEnd {
			if val[j].Kind != event.KindMappingStart {
				return nil, Faultf(CodeUnexpectedEvent, val[j].RefOrSpan(),
					"merge value must be a mapping or a sequence of mappings")
			}
			end := NodeEnd(val, j)
			entries, f := parsedEntries(val[j:end])
			if f != nil {
				return nil, f
			}
			out = append(out, entries)
			j = end
		}
		return out, nil
	default:
		return nil, Faultf(CodeUnexpectedEvent, val[0].RefOrSpan(),
			"merge value must be a mapping or a sequence of mappings")
	}
}

// parsedEntries splits an already-rewritten mapping into entries without
// re-applying policy.
func parsedEntries(evs []event.Event) ([]mapEntry, *Fault) {
	var entries []mapEntry
	j := 1
	for j < len(evs)-1 {
		keyEv := evs[j]
		kend := NodeEnd(evs, j)
		vend := NodeEnd(evs, kend)
		if kend >= len(evs) || vend > len(evs)-1 {
			return nil, Faultf(CodeParse, keyEv.Span, "malformed mapping")
		}
		e := mapEntry{key: evs[j:kend], val: evs[kend:vend], keySpan: keyEv.RefOrSpan()}
		if kend-j == 1 && keyEv.Kind == event.KindScalar {
			e.scalarKey = keyEv.Value
			e.hasScalarKey = true
		}
		entries = append(entries, e)
		j = vend
	}
	return entries, nil
}

// NodeEnd returns the index just past the node starting at i, assuming a
// balanced event sequence.
func NodeEnd(evs []event.Event, i int) int {
	if i >= len(evs) {
		return i
	}
	switch evs[i].Kind {
	case event.KindSequenceStart, event.KindMappingStart:
		depth := 0
		for j := i; j < len(evs); j++ {
			switch evs[j].Kind {
			case event.KindSequenceStart, event.KindMappingStart:
				depth++
			case event.KindSequenceEnd, event.KindMappingEnd:
				depth--
				if depth == 0 {
					return j + 1
				}
			}
		}
		return len(evs)
	default:
		return i + 1
	}
}
