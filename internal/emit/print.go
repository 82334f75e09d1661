package emit

import "fmt"

type printer struct {
	opts    Options
	buf     []byte
	anchors int
}

// take resolves a refNode. The first call for a record returns the
// underlying node, anchored when more occurrences follow; later calls
// return the alias name instead.
func (p *printer) take(n *node) (*node, string) {
	rec := n.rec
	if rec.printed {
		return nil, rec.name
	}
	rec.printed = true
	if rec.count > 1 {
		p.anchors++
		rec.name = fmt.Sprintf("id%d", p.anchors)
		rec.n.anchor = rec.name
	}
	return rec.n, ""
}

func (p *printer) line(indent int, text string) {
	if text == "" {
		p.buf = append(p.buf, '\n')
		return
	}
	for i := 0; i < indent; i++ {
		p.buf = append(p.buf, ' ')
	}
	p.buf = append(p.buf, text...)
	p.buf = append(p.buf, '\n')
}

func (p *printer) root(n *node) {
	p.node(n, 0, "")
}

func anchorPrefix(n *node) string {
	if n.anchor == "" {
		return ""
	}
	return "&" + n.anchor + " "
}

// node prints n as a block. The first line starts at column indent with
// lead prepended ("- " for sequence items, "? "/": " for complex keys);
// nested content lines up under the lead, at indent+len(lead).
func (p *printer) node(n *node, indent int, lead string) {
	inner := indent + len(lead)
	switch n.kind {
	case refNode:
		if target, alias := p.take(n); target != nil {
			p.node(target, indent, lead)
		} else {
			p.line(indent, lead+"*"+alias)
		}

	case scalarNode:
		head, body := p.scalarValue(n, bodyIndent(indent, lead, p.opts.IndentStep))
		p.line(indent, lead+anchorPrefix(n)+head)
		p.lines(body)

	case seqNode:
		if len(n.items) == 0 {
			p.line(indent, lead+anchorPrefix(n)+"[]")
			return
		}
		if n.anchor != "" {
			p.line(indent, lead+"&"+n.anchor)
			for _, item := range n.items {
				p.node(item, inner, "- ")
			}
			return
		}
		for i, item := range n.items {
			if i == 0 {
				p.node(item, indent, lead+"- ")
			} else {
				p.node(item, inner, "- ")
			}
		}

	case mapNode:
		if len(n.entries) == 0 {
			p.line(indent, lead+anchorPrefix(n)+"{}")
			return
		}
		if n.anchor != "" {
			p.line(indent, lead+"&"+n.anchor)
			for _, e := range n.entries {
				p.entry(e, inner, "")
			}
			return
		}
		for i, e := range n.entries {
			if i == 0 {
				p.entry(e, indent, lead)
			} else {
				p.entry(e, inner, "")
			}
		}
	}
}

// entry prints one mapping entry whose first line starts at column
// indent with lead prepended; everything nested aligns under the lead.
func (p *printer) entry(e entry, indent int, lead string) {
	inner := indent + len(lead)
	if e.key.kind == refNode {
		target, alias := p.take(e.key)
		if target == nil {
			p.line(indent, lead+"? *"+alias)
			p.node(e.val, inner, ": ")
			return
		}
		p.entry(entry{key: target, val: e.val}, indent, lead)
		return
	}
	if k, ok := p.simpleKey(e.key); ok {
		p.value(e.val, indent, inner, lead+anchorPrefix(e.key)+k+":")
		return
	}
	p.node(e.key, indent, lead+"? ")
	p.node(e.val, inner, ": ")
}

// value prints a mapping value after head, which ends in ":". The head
// line is emitted at column lineIndent; nested content at bodyIndent
// plus the configured step.
func (p *printer) value(n *node, lineIndent, bodyIndent int, head string) {
	switch n.kind {
	case refNode:
		if target, alias := p.take(n); target != nil {
			p.value(target, lineIndent, bodyIndent, head)
		} else {
			p.line(lineIndent, head+" *"+alias)
		}

	case scalarNode:
		sh, body := p.scalarValue(n, bodyIndent+p.opts.IndentStep)
		p.line(lineIndent, head+" "+anchorPrefix(n)+sh)
		p.lines(body)

	case seqNode:
		if len(n.items) == 0 {
			p.line(lineIndent, head+" "+anchorPrefix(n)+"[]")
			return
		}
		if n.anchor != "" {
			p.line(lineIndent, head+" &"+n.anchor)
		} else {
			p.line(lineIndent, head)
		}
		item := bodyIndent + p.opts.IndentArray
		if p.opts.CompactListIndent {
			item = bodyIndent
		}
		for _, c := range n.items {
			p.node(c, item, "- ")
		}

	case mapNode:
		if len(n.entries) == 0 {
			p.line(lineIndent, head+" "+anchorPrefix(n)+"{}")
			return
		}
		if n.anchor != "" {
			p.line(lineIndent, head+" &"+n.anchor)
		} else {
			p.line(lineIndent, head)
		}
		for _, e := range n.entries {
			p.entry(e, bodyIndent+p.opts.IndentStep, "")
		}
	}
}

type bodyLine struct {
	indent int
	text   string
}

func (p *printer) lines(body []bodyLine) {
	for _, bl := range body {
		p.line(bl.indent, bl.text)
	}
}

// bodyIndent picks the indentation for a block scalar body whose header
// line carries the given lead at the given indent.
func bodyIndent(indent int, lead string, step int) int {
	if lead == "" {
		return indent + step
	}
	return indent + len(lead)
}
