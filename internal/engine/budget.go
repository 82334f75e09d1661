package engine

import "github.com/reoring/yamlbind/event"

// Limits bounds resource use during materialisation. Zero fields use the
// defaults; negative fields lift the bound entirely.
type Limits struct {
	MaxInputBytes       int64
	MaxNodes            int64
	MaxDepth            int64
	MaxAliases          int64
	MaxTotalScalarBytes int64
}

// DefaultLimits permit ordinary configuration files and reject pathological
// inputs such as alias amplification chains.
func DefaultLimits() Limits {
	return Limits{
		MaxInputBytes:       64 << 20,
		MaxNodes:            1 << 20,
		MaxDepth:            256,
		MaxAliases:          1 << 16,
		MaxTotalScalarBytes: 64 << 20,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	pick := func(v, def int64) int64 {
		switch {
		case v == 0:
			return def
		case v < 0:
			return 0 // unlimited
		default:
			return v
		}
	}
	return Limits{
		MaxInputBytes:       pick(l.MaxInputBytes, d.MaxInputBytes),
		MaxNodes:            pick(l.MaxNodes, d.MaxNodes),
		MaxDepth:            pick(l.MaxDepth, d.MaxDepth),
		MaxAliases:          pick(l.MaxAliases, d.MaxAliases),
		MaxTotalScalarBytes: pick(l.MaxTotalScalarBytes, d.MaxTotalScalarBytes),
	}
}

// Usage carries the monotonic counters the meter accumulates. It is
// surfaced through the budget-report callback.
type Usage struct {
	InputBytes  int64
	Nodes       int64
	Depth       int64 // deepest nesting observed
	Aliases     int64
	ScalarBytes int64
}

// Meter enforces Limits. Every counter is monotonic and a single breach is
// terminal for the document.
type Meter struct {
	lim   Limits
	use   Usage
	depth int64
}

// NewMeter builds a meter; zero limit fields fall back to defaults and
// negative fields disable the corresponding bound.
func NewMeter(l Limits) *Meter {
	return &Meter{lim: l.withDefaults()}
}

// Usage returns the counters observed so far.
func (m *Meter) Usage() Usage { return m.use }

// CheckInput validates the total input length before any parsing happens.
func (m *Meter) CheckInput(n int64) *Fault {
	m.use.InputBytes = n
	if m.lim.MaxInputBytes > 0 && n > m.lim.MaxInputBytes {
		return m.breach("input bytes", n, m.lim.MaxInputBytes, event.Span{})
	}
	return nil
}

// AddNode charges one materialised node.
func (m *Meter) AddNode(span event.Span) *Fault {
	m.use.Nodes++
	if m.lim.MaxNodes > 0 && m.use.Nodes > m.lim.MaxNodes {
		return m.breach("nodes", m.use.Nodes, m.lim.MaxNodes, span)
	}
	return nil
}

// AddScalarBytes charges the byte length of a materialised scalar.
func (m *Meter) AddScalarBytes(n int, span event.Span) *Fault {
	m.use.ScalarBytes += int64(n)
	if m.lim.MaxTotalScalarBytes > 0 && m.use.ScalarBytes > m.lim.MaxTotalScalarBytes {
		return m.breach("scalar bytes", m.use.ScalarBytes, m.lim.MaxTotalScalarBytes, span)
	}
	return nil
}

// AddAlias charges one alias expansion.
func (m *Meter) AddAlias(span event.Span) *Fault {
	m.use.Aliases++
	if m.lim.MaxAliases > 0 && m.use.Aliases > m.lim.MaxAliases {
		return m.breach("aliases", m.use.Aliases, m.lim.MaxAliases, span)
	}
	return nil
}

// Enter charges one nesting level; Leave undoes it. The peak is recorded
// in Usage.Depth.
func (m *Meter) Enter(span event.Span) *Fault {
	m.depth++
	if m.depth > m.use.Depth {
		m.use.Depth = m.depth
	}
	if m.lim.MaxDepth > 0 && m.depth > m.lim.MaxDepth {
		return m.breach("depth", m.depth, m.lim.MaxDepth, span)
	}
	return nil
}

func (m *Meter) Leave() {
	if m.depth > 0 {
		m.depth--
	}
}

func (m *Meter) breach(kind string, got, limit int64, span event.Span) *Fault {
	f := Faultf(CodeBudget, span, "%s budget exceeded (%d > %d)", kind, got, limit)
	f.Params = map[string]any{"kind": kind, "got": got, "limit": limit}
	return f
}
