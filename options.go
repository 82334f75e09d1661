package yamlbind

import "github.com/reoring/yamlbind/internal/engine"

// DuplicateKeyPolicy decides what happens when a mapping repeats a key,
// including keys arriving through << merges.
type DuplicateKeyPolicy int

const (
	// DuplicateError rejects the document at the second occurrence.
	DuplicateError DuplicateKeyPolicy = iota
	// DuplicateFirstWins keeps the first occurrence.
	DuplicateFirstWins
	// DuplicateLastWins keeps the last occurrence, at the position of the
	// first.
	DuplicateLastWins
)

// Budget bounds resource use while a document is materialised. Alias
// expansion is metered on materialised output, so amplification chains
// breach the budget long before the expansion is allocated.
//
// Zero fields use the defaults; negative fields lift the bound entirely.
type Budget struct {
	// MaxInputBytes caps the raw input size. Default 64 MiB.
	MaxInputBytes int64
	// MaxNodes caps materialised nodes, aliases counted at every
	// expansion. Default 1Mi.
	MaxNodes int64
	// MaxDepth caps nesting depth. Default 256.
	MaxDepth int64
	// MaxAliases caps the number of alias expansions. Default 64Ki.
	MaxAliases int64
	// MaxTotalScalarBytes caps the total materialised scalar payload.
	// Default 64 MiB.
	MaxTotalScalarBytes int64
}

// DefaultBudget returns the limits applied when Options.Budget is left
// zero.
func DefaultBudget() Budget {
	return budgetFromLimits(engine.DefaultLimits())
}

func (b Budget) limits() engine.Limits {
	return engine.Limits{
		MaxInputBytes:       b.MaxInputBytes,
		MaxNodes:            b.MaxNodes,
		MaxDepth:            b.MaxDepth,
		MaxAliases:          b.MaxAliases,
		MaxTotalScalarBytes: b.MaxTotalScalarBytes,
	}
}

func budgetFromLimits(l engine.Limits) Budget {
	return Budget{
		MaxInputBytes:       l.MaxInputBytes,
		MaxNodes:            l.MaxNodes,
		MaxDepth:            l.MaxDepth,
		MaxAliases:          l.MaxAliases,
		MaxTotalScalarBytes: l.MaxTotalScalarBytes,
	}
}

// BudgetUsage reports the counters accumulated while materialising, even
// when materialisation failed part-way.
type BudgetUsage struct {
	InputBytes  int64
	Nodes       int64
	Depth       int64
	Aliases     int64
	ScalarBytes int64
}

func usageFrom(u engine.Usage) BudgetUsage {
	return BudgetUsage{
		InputBytes:  u.InputBytes,
		Nodes:       u.Nodes,
		Depth:       u.Depth,
		Aliases:     u.Aliases,
		ScalarBytes: u.ScalarBytes,
	}
}

// Options configure deserialisation. The zero value is the default
// configuration. Entry points take options variadically and use the last
// one given.
type Options struct {
	// DuplicateKeys selects the duplicate-key policy.
	DuplicateKeys DuplicateKeyPolicy
	// StrictBooleans restricts plain-scalar booleans to the literals
	// "true" and "false"; yes/no/on/off, the single letters and the
	// capitalised spellings then read as strings.
	StrictBooleans bool
	// IgnoreBinaryTagForString leaves a !!binary scalar's base64 text
	// untouched when the target is a string instead of decoding it.
	IgnoreBinaryTagForString bool
	// KnownFieldsOnly rejects mapping keys that match no struct field.
	KnownFieldsOnly bool
	// WithSnippet renders a source excerpt with a caret under the
	// offending position into error messages.
	WithSnippet bool
	// Budget bounds materialisation; the zero value means DefaultBudget.
	Budget Budget
	// BudgetReport, when non-nil, receives the usage counters after each
	// document, whether materialisation succeeded or not.
	BudgetReport *BudgetUsage
}

func pickOptions(opts []Options) Options {
	if len(opts) == 0 {
		return Options{}
	}
	return opts[len(opts)-1]
}

func (o Options) engineConfig() engine.Config {
	cfg := engine.Config{Limits: o.Budget.limits()}
	switch o.DuplicateKeys {
	case DuplicateFirstWins:
		cfg.Duplicates = engine.DupFirstWins
	case DuplicateLastWins:
		cfg.Duplicates = engine.DupLastWins
	default:
		cfg.Duplicates = engine.DupError
	}
	return cfg
}

// EncodeOptions configure serialisation. The zero value renders block
// style with two-space indentation.
type EncodeOptions struct {
	// IndentStep is the indentation per nesting level, 1 through 9.
	// Zero means 2.
	IndentStep int
	// IndentArray is the extra indentation of sequence items under a
	// mapping key. Zero means IndentStep.
	IndentArray int
	// CompactListIndent drops the extra indentation of sequence items
	// under a mapping key.
	CompactListIndent bool
	// NoBlockScalars double-quotes multiline strings instead of the
	// default literal-block rendering. LitString and FoldString still
	// take their block forms.
	NoBlockScalars bool
	// TaggedEnums writes unit variants of tagged unions as !!Name tagged
	// scalars instead of bare names.
	TaggedEnums bool
}

func pickEncodeOptions(opts []EncodeOptions) EncodeOptions {
	if len(opts) == 0 {
		return EncodeOptions{}
	}
	return opts[len(opts)-1]
}
