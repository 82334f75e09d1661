// Package goccyast adapts the github.com/goccy/go-yaml parser into the
// raw event stream the adapter consumes. The goccy AST keeps aliases
// unresolved and carries byte-accurate token positions, so spans from this
// driver include byte offsets.
//
// The goccy parser rejects duplicate mapping keys and complex keys before
// building its AST, so under this driver the duplicate-key policies never
// see a duplicate and explicit-key form documents fail to parse. The
// default yaml.v3 driver has neither restriction.
package goccyast

import (
	"io"

	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/token"

	"github.com/reoring/yamlbind/event"
)

// Source replays the events built from one parsed input.
type Source struct {
	evs []event.Event
	pos int
}

// Next implements the raw event source contract; io.EOF ends the stream.
func (s *Source) Next() (event.Event, error) {
	if s.pos >= len(s.evs) {
		return event.Event{}, io.EOF
	}
	ev := s.evs[s.pos]
	s.pos++
	return ev, nil
}

// Parse turns YAML text into a raw event stream.
func Parse(data []byte) (*Source, error) {
	f, err := parser.ParseBytes(data, 0)
	if err != nil {
		return nil, err
	}
	b := &builder{}
	b.emit(event.Event{Kind: event.KindStreamStart})
	for _, doc := range f.Docs {
		if doc.Start == nil && doc.Body == nil {
			// Empty or comment-only input parses as a document with no
			// content and no marker; it holds no node.
			continue
		}
		span := event.Span{}
		if doc.Start != nil {
			span = spanOf(doc.Start)
		}
		b.emit(event.Event{Kind: event.KindDocStart, Span: span})
		if doc.Body == nil {
			b.emit(event.Event{Kind: event.KindScalar, Span: span})
		} else if err := b.walk(doc.Body, "", ""); err != nil {
			return nil, err
		}
		b.emit(event.Event{Kind: event.KindDocEnd, Span: span})
	}
	b.emit(event.Event{Kind: event.KindStreamEnd})
	return &Source{evs: b.evs}, nil
}

type builder struct {
	evs []event.Event
}

func (b *builder) emit(ev event.Event) { b.evs = append(b.evs, ev) }

// walk lowers one AST node, carrying tag and anchor properties down
// through their wrapper nodes.
func (b *builder) walk(n ast.Node, tag, anchor string) error {
	switch t := n.(type) {
	case *ast.AnchorNode:
		name := ""
		if t.Name != nil {
			name = t.Name.GetToken().Value
		}
		return b.walk(t.Value, tag, name)

	case *ast.TagNode:
		tg := tag
		if t.Start != nil {
			tg = event.ShortTag(t.Start.Value)
		}
		return b.walk(t.Value, tg, anchor)

	case *ast.AliasNode:
		name := t.Value.GetToken().Value
		b.emit(event.Event{
			Kind:   event.KindAlias,
			Span:   spanOf(n.GetToken()),
			Anchor: name,
		})
		return nil

	case *ast.MappingNode:
		style := event.StyleBlock
		if t.IsFlowStyle {
			style = event.StyleFlow
		}
		b.emit(event.Event{
			Kind: event.KindMappingStart, Span: spanOf(n.GetToken()),
			Coll: style, Tag: tag, Anchor: anchor,
		})
		for _, mv := range t.Values {
			if err := b.entry(mv); err != nil {
				return err
			}
		}
		b.emit(event.Event{Kind: event.KindMappingEnd, Span: spanOf(n.GetToken())})
		return nil

	case *ast.MappingValueNode:
		// A single `key: value` pair can appear bare as a document body.
		b.emit(event.Event{
			Kind: event.KindMappingStart, Span: spanOf(n.GetToken()),
			Tag: tag, Anchor: anchor,
		})
		if err := b.entry(t); err != nil {
			return err
		}
		b.emit(event.Event{Kind: event.KindMappingEnd, Span: spanOf(n.GetToken())})
		return nil

	case *ast.SequenceNode:
		style := event.StyleBlock
		if t.IsFlowStyle {
			style = event.StyleFlow
		}
		b.emit(event.Event{
			Kind: event.KindSequenceStart, Span: spanOf(n.GetToken()),
			Coll: style, Tag: tag, Anchor: anchor,
		})
		for _, item := range t.Values {
			if item == nil {
				b.emit(event.Event{Kind: event.KindScalar, Span: spanOf(n.GetToken())})
				continue
			}
			if err := b.walk(item, "", ""); err != nil {
				return err
			}
		}
		b.emit(event.Event{Kind: event.KindSequenceEnd, Span: spanOf(n.GetToken())})
		return nil

	case *ast.MappingKeyNode:
		// "? key" complex-key marker; the wrapped node is the key itself.
		return b.walk(t.Value, tag, anchor)

	case *ast.MergeKeyNode:
		b.emit(event.Event{
			Kind: event.KindScalar, Span: spanOf(n.GetToken()),
			Value: "<<", Tag: event.TagMerge,
		})
		return nil

	case *ast.StringNode:
		b.emit(event.Event{
			Kind: event.KindScalar, Span: spanOf(t.Token),
			Value: t.Value, Style: stringStyle(t.Token), Tag: tag, Anchor: anchor,
		})
		return nil

	case *ast.LiteralNode:
		style := event.StyleLiteral
		if t.Start != nil && len(t.Start.Value) > 0 && t.Start.Value[0] == '>' {
			style = event.StyleFolded
		}
		val := ""
		if t.Value != nil {
			val = t.Value.Value
		}
		b.emit(event.Event{
			Kind: event.KindScalar, Span: spanOf(n.GetToken()),
			Value: val, Style: style, Tag: tag, Anchor: anchor,
		})
		return nil

	case *ast.NullNode, *ast.IntegerNode, *ast.FloatNode, *ast.BoolNode,
		*ast.InfinityNode, *ast.NanNode:
		tok := n.GetToken()
		b.emit(event.Event{
			Kind: event.KindScalar, Span: spanOf(tok),
			Value: rawScalar(tok), Style: event.StylePlain, Tag: tag, Anchor: anchor,
		})
		return nil

	default:
		// Comments and directives carry no data relevant to binding.
		return nil
	}
}

func (b *builder) entry(mv *ast.MappingValueNode) error {
	if mv.Key == nil {
		b.emit(event.Event{Kind: event.KindScalar, Span: spanOf(mv.GetToken())})
	} else if err := b.walk(mv.Key, "", ""); err != nil {
		return err
	}
	if mv.Value == nil {
		b.emit(event.Event{Kind: event.KindScalar, Span: spanOf(mv.GetToken())})
	} else if err := b.walk(mv.Value, "", ""); err != nil {
		return err
	}
	return nil
}

func stringStyle(tok *token.Token) event.ScalarStyle {
	if tok == nil {
		return event.StylePlain
	}
	switch tok.Type {
	case token.SingleQuoteType:
		return event.StyleSingleQuoted
	case token.DoubleQuoteType:
		return event.StyleDoubleQuoted
	default:
		return event.StylePlain
	}
}

// rawScalar returns the scalar's source text so the resolver applies its
// own YAML 1.1 rules instead of inheriting the parser's resolution.
func rawScalar(tok *token.Token) string {
	if tok == nil {
		return ""
	}
	return tok.Value
}

func spanOf(tok *token.Token) event.Span {
	if tok == nil || tok.Position == nil {
		return event.Span{Offset: -1}
	}
	return event.Span{
		Line:   tok.Position.Line,
		Column: tok.Position.Column,
		Offset: tok.Position.Offset,
	}
}
