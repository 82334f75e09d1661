// Package yamlv3 adapts gopkg.in/yaml.v3 into the raw event stream. The
// yaml.v3 node model resolves tags eagerly and reports line/column but no
// byte offsets, so spans from this driver carry Offset -1. Forward aliases
// are rejected by yaml.v3 itself before we ever see them.
package yamlv3

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reoring/yamlbind/event"
)

// Source replays events built from the decoded node trees.
type Source struct {
	evs []event.Event
	pos int
}

func (s *Source) Next() (event.Event, error) {
	if s.pos >= len(s.evs) {
		return event.Event{}, io.EOF
	}
	ev := s.evs[s.pos]
	s.pos++
	return ev, nil
}

// Parse decodes every document into yaml.Node trees and lowers them to
// events.
func Parse(data []byte) (*Source, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	b := &builder{}
	b.emit(event.Event{Kind: event.KindStreamStart})
	for {
		var root yaml.Node
		if err := dec.Decode(&root); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		span := spanOf(&root)
		b.emit(event.Event{Kind: event.KindDocStart, Span: span})
		if len(root.Content) == 0 {
			b.emit(event.Event{Kind: event.KindScalar, Span: span})
		} else {
			b.walk(root.Content[0])
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

func (b *builder) walk(n *yaml.Node) {
	switch n.Kind {
	case yaml.AliasNode:
		b.emit(event.Event{Kind: event.KindAlias, Span: spanOf(n), Anchor: n.Value})

	case yaml.ScalarNode:
		b.emit(event.Event{
			Kind: event.KindScalar, Span: spanOf(n),
			Value: n.Value, Style: scalarStyle(n), Tag: explicitTag(n), Anchor: n.Anchor,
		})

	case yaml.SequenceNode:
		style := event.StyleBlock
		if n.Style&yaml.FlowStyle != 0 {
			style = event.StyleFlow
		}
		b.emit(event.Event{
			Kind: event.KindSequenceStart, Span: spanOf(n),
			Coll: style, Tag: explicitTag(n), Anchor: n.Anchor,
		})
		for _, c := range n.Content {
			b.walk(c)
		}
		b.emit(event.Event{Kind: event.KindSequenceEnd, Span: spanOf(n)})

	case yaml.MappingNode:
		style := event.StyleBlock
		if n.Style&yaml.FlowStyle != 0 {
			style = event.StyleFlow
		}
		b.emit(event.Event{
			Kind: event.KindMappingStart, Span: spanOf(n),
			Coll: style, Tag: explicitTag(n), Anchor: n.Anchor,
		})
		for _, c := range n.Content {
			b.walk(c)
		}
		b.emit(event.Event{Kind: event.KindMappingEnd, Span: spanOf(n)})
	}
}

// explicitTag surfaces only tags the author wrote: local tags, !!merge on
// merge keys, and any standard tag written with explicit tag style. The
// implicitly resolved tags yaml.v3 attaches to every node are dropped so
// the scalar resolver stays in charge of content-based resolution.
func explicitTag(n *yaml.Node) string {
	tag := event.ShortTag(n.Tag)
	switch {
	case n.Style&yaml.TaggedStyle != 0:
		return tag
	case tag == event.TagMerge:
		return tag
	case tag != "" && !strings.HasPrefix(tag, "!!"):
		return tag
	}
	return ""
}

func scalarStyle(n *yaml.Node) event.ScalarStyle {
	switch {
	case n.Style&yaml.SingleQuotedStyle != 0:
		return event.StyleSingleQuoted
	case n.Style&yaml.DoubleQuotedStyle != 0:
		return event.StyleDoubleQuoted
	case n.Style&yaml.LiteralStyle != 0:
		return event.StyleLiteral
	case n.Style&yaml.FoldedStyle != 0:
		return event.StyleFolded
	default:
		return event.StylePlain
	}
}

func spanOf(n *yaml.Node) event.Span {
	return event.Span{Line: n.Line, Column: n.Column, Offset: -1}
}
