package yamlbind

import (
	"io"

	"github.com/reoring/yamlbind/internal/emit"
)

// Marshal renders v as one YAML document in block style, ending in a
// newline. Shared Anchor handles reached more than once come out as an
// &idN definition plus *idN aliases; mapping keys are emitted in a
// stable sorted order.
func Marshal(v any, opts ...EncodeOptions) ([]byte, error) {
	out, err := emit.Marshal(v, emitOptions(pickEncodeOptions(opts)))
	if err != nil {
		return nil, wrapError(err, nil, false)
	}
	return out, nil
}

// MarshalString is Marshal returning a string.
func MarshalString(v any, opts ...EncodeOptions) (string, error) {
	out, err := Marshal(v, opts...)
	return string(out), err
}

// Encoder writes a stream of YAML documents separated by --- markers.
// An Encoder must not be shared between goroutines.
type Encoder struct {
	w     io.Writer
	opt   EncodeOptions
	wrote bool
}

func NewEncoder(w io.Writer, opts ...EncodeOptions) *Encoder {
	return &Encoder{w: w, opt: pickEncodeOptions(opts)}
}

// Encode appends one document to the stream.
func (e *Encoder) Encode(v any) error {
	out, err := emit.Marshal(v, emitOptions(e.opt))
	if err != nil {
		return wrapError(err, nil, false)
	}
	if e.wrote {
		if _, err := io.WriteString(e.w, "---\n"); err != nil {
			return &Error{Code: CodeIO, Message: err.Error(), Cause: err}
		}
	}
	if _, err := e.w.Write(out); err != nil {
		return &Error{Code: CodeIO, Message: err.Error(), Cause: err}
	}
	e.wrote = true
	return nil
}

func emitOptions(o EncodeOptions) emit.Options {
	return emit.Options{
		IndentStep:         o.IndentStep,
		IndentArray:        o.IndentArray,
		CompactListIndent:  o.CompactListIndent,
		PreferBlockScalars: !o.NoBlockScalars,
		TaggedEnums:        o.TaggedEnums,
	}
}
