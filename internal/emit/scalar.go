package emit

import (
	"encoding/base64"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/reoring/yamlbind/event"
	"github.com/reoring/yamlbind/scalar"
)

const foldWidth = 80

// scalarValue renders a scalar node for a value position: a head placed
// on the current line, plus body lines for block scalars.
func (p *printer) scalarValue(n *node, bodyAt int) (string, []bodyLine) {
	switch v := n.val.(type) {
	case nil:
		return "null", nil
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	case int64:
		return p.tagged(n, strconv.FormatInt(v, 10)), nil
	case uint64:
		return p.tagged(n, strconv.FormatUint(v, 10)), nil
	case float64:
		return formatFloat(v), nil
	case []byte:
		return event.TagBinary + " " + base64.StdEncoding.EncodeToString(v), nil
	case string:
		if n.tag != "" && n.tag != event.TagBinary {
			return n.tag + " " + plainOrQuoted(v), nil
		}
		return p.stringValue(v, n.style, bodyAt)
	default:
		return plainOrQuoted("null"), nil
	}
}

func (p *printer) tagged(n *node, text string) string {
	if n.tag != "" && n.tag != event.TagBinary {
		return n.tag + " " + text
	}
	return text
}

func (p *printer) stringValue(s string, style event.ScalarStyle, bodyAt int) (string, []bodyLine) {
	wantBlock := style == event.StyleLiteral || style == event.StyleFolded ||
		(p.opts.PreferBlockScalars && strings.Contains(s, "\n"))
	if wantBlock && blockSuitable(s) {
		if style == event.StyleFolded && foldSuitable(s) {
			return foldedScalar(s, bodyAt)
		}
		return literalScalar(s, bodyAt)
	}
	return plainOrQuoted(s), nil
}

// simpleKey renders a scalar key on a single line. Non-scalar keys and
// keys that would need a block rendering report false and take the
// explicit "? " form.
func (p *printer) simpleKey(n *node) (string, bool) {
	if n.kind != scalarNode {
		return "", false
	}
	if s, ok := n.val.(string); ok && n.tag == "" {
		return plainOrQuoted(s), true
	}
	head, body := p.scalarValue(n, 0)
	if len(body) != 0 {
		return "", false
	}
	return head, true
}

func plainOrQuoted(s string) string {
	if needsQuote(s) {
		return quoteDouble(s)
	}
	return s
}

// needsQuote reports whether s must be double-quoted to survive a plain
// reading: anything a YAML 1.1 resolver would not read back as exactly
// this string, plus anything with layout-sensitive characters.
func needsQuote(s string) bool {
	if s == "" {
		return true
	}
	if scalar.Classify(s) != scalar.KindStr {
		return true
	}
	if s[0] == ' ' || s[len(s)-1] == ' ' {
		return true
	}
	switch s[0] {
	case '!', '&', '*', '?', '|', '>', '%', '@', '`', '"', '\'', '{', '}', '[', ']', ',', '-', ':', '#':
		return true
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c == 0x7f {
			return true
		}
		if c == ':' && (i == len(s)-1 || s[i+1] == ' ') {
			return true
		}
		if c == '#' && i > 0 && s[i-1] == ' ' {
			return true
		}
	}
	return false
}

func quoteDouble(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case 0:
			b.WriteString(`\0`)
		default:
			if r < 0x20 || r == 0x7f {
				b.WriteString(`\x`)
				const hex = "0123456789abcdef"
				b.WriteByte(hex[r>>4&0xf])
				b.WriteByte(hex[r&0xf])
			} else if r == utf8.RuneError {
				b.WriteString(`�`)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// blockSuitable reports whether a string can be carried by a block
// scalar without an indentation indicator or escape sequences.
func blockSuitable(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 0x20 && c != '\n') || c == 0x7f {
			return false
		}
	}
	return s[0] != ' ' && s[0] != '\n'
}

// foldSuitable additionally rules out lines whose leading or trailing
// spaces folding would not round-trip.
func foldSuitable(s string) bool {
	trail := len(s) - len(strings.TrimRight(s, "\n"))
	if trail > 1 {
		return false
	}
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		if line == "" {
			continue
		}
		if line[0] == ' ' || line[len(line)-1] == ' ' {
			return false
		}
	}
	return true
}

// literalScalar renders s as "|" with a chomping indicator chosen from
// the number of trailing newlines.
func literalScalar(s string, bodyAt int) (string, []bodyLine) {
	content := strings.TrimRight(s, "\n")
	trail := len(s) - len(content)
	head := "|"
	switch {
	case trail == 0:
		head = "|-"
	case trail > 1:
		head = "|+"
	}
	var body []bodyLine
	for _, line := range strings.Split(content, "\n") {
		if line == "" {
			body = append(body, bodyLine{0, ""})
		} else {
			body = append(body, bodyLine{bodyAt, line})
		}
	}
	for i := 1; i < trail; i++ {
		body = append(body, bodyLine{0, ""})
	}
	return head, body
}

// foldedScalar renders s as ">", wrapping long lines at spaces and
// writing each source newline as a blank line so folding restores it.
func foldedScalar(s string, bodyAt int) (string, []bodyLine) {
	content := strings.TrimRight(s, "\n")
	trail := len(s) - len(content)
	head := ">"
	if trail == 0 {
		head = ">-"
	}
	var body []bodyLine
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if i > 0 {
			body = append(body, bodyLine{0, ""})
		}
		for _, piece := range wrapLine(line, foldWidth) {
			body = append(body, bodyLine{bodyAt, piece})
		}
	}
	return head, body
}

func wrapLine(line string, width int) []string {
	if line == "" {
		return nil
	}
	var out []string
	for len(line) > width {
		cut := strings.LastIndexByte(line[:width+1], ' ')
		if cut <= 0 {
			cut = strings.IndexByte(line, ' ')
			if cut < 0 {
				break
			}
		}
		out = append(out, line[:cut])
		line = line[cut+1:]
	}
	if line != "" {
		out = append(out, line)
	}
	return out
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs < 1e-4 || abs >= 1e16 {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

func cutTag(tag string) (name string, opts []string, ok bool) {
	if tag == "" {
		return "", nil, false
	}
	parts := strings.Split(tag, ",")
	return parts[0], parts[1:], true
}

func hasTagOpt(opts []string, want string) bool {
	for _, o := range opts {
		if o == want {
			return true
		}
	}
	return false
}

func lowerName(s string) string {
	return strings.ToLower(s)
}
