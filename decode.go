package yamlbind

import (
	"errors"
	"io"
	"strings"

	"github.com/reoring/yamlbind/internal/decode"
	"github.com/reoring/yamlbind/internal/engine"
)

// Unmarshal decodes exactly one YAML document from data into v, which
// must be a non-nil pointer. Inputs carrying more than one document are
// rejected; use NewDecoder for multi-document streams. Empty input
// leaves v untouched.
func Unmarshal(data []byte, v any, opts ...Options) error {
	d, err := newBytesDecoder(data, pickOptions(opts))
	if err != nil {
		return err
	}
	if err := d.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if _, err := d.adapter.NextDocument(); err == nil {
		return &Error{
			Code:    CodeUnexpectedEvent,
			Message: "input holds more than one document; use NewDecoder",
		}
	} else if !errors.Is(err, io.EOF) {
		return d.wrap(err)
	}
	return nil
}

// UnmarshalString is Unmarshal over a string.
func UnmarshalString(s string, v any, opts ...Options) error {
	return Unmarshal([]byte(s), v, opts...)
}

// Decoder reads a stream of YAML documents. Decode materialises one
// document per call and reports io.EOF when the stream is exhausted.
// A Decoder must not be shared between goroutines.
type Decoder struct {
	adapter *engine.Adapter
	opt     Options
	input   []byte
	broken  error
}

// NewDecoder buffers r and prepares a document stream over it. Read
// errors and inputs over the byte budget surface at the first Decode.
func NewDecoder(r io.Reader, opts ...Options) *Decoder {
	opt := pickOptions(opts)
	data, err := readLimited(r, opt.Budget.MaxInputBytes)
	if err != nil {
		return &Decoder{opt: opt, broken: &Error{Code: CodeIO, Message: err.Error(), Cause: err}}
	}
	d, err := newBytesDecoder(data, opt)
	if err != nil {
		return &Decoder{opt: opt, broken: err}
	}
	return d
}

// NewDecoderBytes is NewDecoder over an in-memory input.
func NewDecoderBytes(data []byte, opts ...Options) *Decoder {
	d, err := newBytesDecoder(data, pickOptions(opts))
	if err != nil {
		return &Decoder{opt: pickOptions(opts), broken: err}
	}
	return d
}

func newBytesDecoder(data []byte, opt Options) (*Decoder, error) {
	a := engine.NewAdapter(nil, opt.engineConfig())
	d := &Decoder{adapter: a, opt: opt, input: data}
	if f := a.Meter().CheckInput(int64(len(data))); f != nil {
		d.report()
		return nil, d.wrap(f)
	}
	src, err := getDriver().NewBytes(data)
	if err != nil {
		return nil, driverError(err)
	}
	a.SetSource(src)
	return d, nil
}

// Decode materialises the next document into v. io.EOF signals a cleanly
// exhausted stream.
func (d *Decoder) Decode(v any) error {
	if d.broken != nil {
		return d.broken
	}
	evs, err := d.adapter.NextDocument()
	d.report()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return d.wrap(err)
	}
	dec := decode.New(evs, decode.Options{
		StrictBooleans:           d.opt.StrictBooleans,
		IgnoreBinaryTagForString: d.opt.IgnoreBinaryTagForString,
		KnownFieldsOnly:          d.opt.KnownFieldsOnly,
	})
	if err := dec.Decode(v); err != nil {
		return d.wrap(err)
	}
	return nil
}

// Usage reports the budget counters accumulated so far.
func (d *Decoder) Usage() BudgetUsage {
	if d.adapter == nil {
		return BudgetUsage{}
	}
	return usageFrom(d.adapter.Meter().Usage())
}

func (d *Decoder) report() {
	if d.opt.BudgetReport != nil && d.adapter != nil {
		*d.opt.BudgetReport = usageFrom(d.adapter.Meter().Usage())
	}
}

func (d *Decoder) wrap(err error) error {
	return wrapError(err, d.input, d.opt.WithSnippet)
}

// driverError converts a parser failure into the public shape. yaml.v3
// resolves aliases while composing its node tree, so a forward alias
// surfaces here rather than from the adapter.
func driverError(err error) error {
	code := CodeParse
	if strings.Contains(err.Error(), "unknown anchor") {
		code = CodeUnknownAnchor
	}
	return &Error{Code: code, Message: err.Error(), Cause: err}
}

// readLimited buffers r, stopping one byte past the input budget so the
// meter can report the breach with the real limit.
func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes == 0 {
		maxBytes = DefaultBudget().MaxInputBytes
	}
	if maxBytes < 0 {
		return io.ReadAll(r)
	}
	return io.ReadAll(io.LimitReader(r, maxBytes+1))
}
