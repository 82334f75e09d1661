package yamlbind

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// ToJSON converts one YAML document into compact JSON. Non-string
// mapping keys are stringified the way JSON requires; !!binary payloads
// come out as base64 strings.
func ToJSON(data []byte, opts ...Options) ([]byte, error) {
	var v any
	if err := Unmarshal(data, &v, opts...); err != nil {
		return nil, err
	}
	out, err := json.Marshal(jsonReady(v))
	if err != nil {
		return nil, &Error{Code: CodeCustom, Message: err.Error(), Cause: err}
	}
	return out, nil
}

// FromJSON renders a JSON document as YAML. Numbers without a fraction
// or exponent stay integers rather than collapsing to floats.
func FromJSON(data []byte, opts ...EncodeOptions) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &Error{Code: CodeParse, Message: err.Error(), Cause: err}
	}
	return Marshal(yamlReady(v), opts...)
}

// yamlReady resolves json.Number values left by UseNumber.
func yamlReady(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, e := range t {
			t[k] = yamlReady(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = yamlReady(e)
		}
		return t
	default:
		return v
	}
}

// jsonReady rewrites map[any]any mappings, which JSON cannot carry, into
// map[string]any with stringified keys.
func jsonReady(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = jsonReady(e)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[jsonKey(k)] = jsonReady(e)
		}
		return out
	case []any:
		for i, e := range t {
			t[i] = jsonReady(e)
		}
		return t
	default:
		return v
	}
}

func jsonKey(k any) string {
	switch t := k.(type) {
	case string:
		return t
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", t)
	}
}
