// Package yamlbind provides:
//
// - YAML deserialisation into typed Go values (Unmarshal/NewDecoder)
// - YAML serialisation in a deterministic block style (Marshal/NewEncoder)
// - Anchor/alias materialisation with resource budgets, << merge keys and
//   a configurable duplicate-key policy
// - Handle types that preserve document structure: Anchor/WeakAnchor for
//   shared nodes, Spanned for source positions, LitString/FoldString for
//   block scalar styles, TaggedUnion for closed sum types
// - A stable error model via Error (code, span, related spans, params)
//
// Design policy:
// - Keep only public APIs in the root package; put detailed implementations
//   under internal/.
// - Place the event model under event/, scalar resolution under scalar/,
//   parser drivers under source/, and the CLI under cmd/yamlbind.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	var cfg Config
//	err := yamlbind.Unmarshal(data, &cfg)
//
//	dec := yamlbind.NewDecoder(r, yamlbind.Options{DuplicateKeys: yamlbind.DuplicateLastWins})
//	for {
//		var doc Config
//		if err := dec.Decode(&doc); err == io.EOF {
//			break
//		}
//	}
//
//	out, err := yamlbind.Marshal(cfg)
package yamlbind
