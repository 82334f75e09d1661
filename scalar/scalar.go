// Package scalar implements YAML 1.1 scalar resolution: classifying plain
// scalars as null/bool/int/float/string and parsing the numeric and binary
// forms. Quoted and block scalars never resolve by content; the classifier
// only ever sees plain text.
package scalar

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/reoring/yamlbind/event"
)

// Kind is the resolved kind of a scalar.
type Kind int

const (
	KindStr Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "string"
	}
}

// IsNull reports whether a plain scalar is one of the null literals.
func IsNull(raw string) bool {
	switch raw {
	case "", "~", "null", "Null", "NULL":
		return true
	}
	return false
}

// boolLiterals is the YAML 1.1 boolean set honoured under loose resolution.
var boolLiterals = map[string]bool{
	"true": true, "True": true, "TRUE": true,
	"false": false, "False": false, "FALSE": false,
	"yes": true, "Yes": true, "Y": true,
	"no": false, "No": false, "N": false,
	"on": true, "ON": true,
	"off": false, "OFF": false,
}

// ParseBool parses a plain scalar as a boolean. Under strict mode only the
// literals "true" and "false" are accepted.
func ParseBool(raw string, strict bool) (bool, error) {
	if strict {
		switch raw {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return false, fmt.Errorf("invalid boolean %q (strict mode accepts only true/false)", raw)
	}
	if b, ok := boolLiterals[raw]; ok {
		return b, nil
	}
	return false, fmt.Errorf("invalid boolean %q", raw)
}

// IsBool reports whether raw is a boolean literal under the given strictness.
func IsBool(raw string, strict bool) bool {
	_, err := ParseBool(raw, strict)
	return err == nil
}

// Classify determines the resolved kind of a plain scalar under loose
// YAML 1.1 rules. Strict boolean handling is a deserialisation-time concern;
// Classify always uses the full 1.1 boolean set so the emitter can quote
// anything that any reader might resolve as a non-string.
func Classify(raw string) Kind {
	return classify(raw, false)
}

// ClassifyStrict is Classify under strict booleans: only true/false count
// as booleans and the remaining 1.1 literals classify as strings.
func ClassifyStrict(raw string) Kind {
	return classify(raw, true)
}

func classify(raw string, strictBools bool) Kind {
	if IsNull(raw) {
		return KindNull
	}
	if IsBool(raw, strictBools) {
		return KindBool
	}
	if IsIntText(raw) {
		return KindInt
	}
	if IsFloatText(raw) {
		return KindFloat
	}
	return KindStr
}

// IsIntText reports whether raw matches the YAML 1.1 integer grammar:
// optional sign, then decimal, 0x hex, 0o/0 octal or 0b binary digits with
// underscores allowed between digits.
func IsIntText(raw string) bool {
	s := raw
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	digits := func(body string, ok func(byte) bool) bool {
		seen := false
		for i := 0; i < len(body); i++ {
			c := body[i]
			if c == '_' {
				continue
			}
			if !ok(c) {
				return false
			}
			seen = true
		}
		return seen
	}
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		return digits(s[2:], isHexDigit)
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		return digits(s[2:], func(c byte) bool { return c == '0' || c == '1' })
	case strings.HasPrefix(s, "0o") || strings.HasPrefix(s, "0O"):
		return digits(s[2:], isOctDigit)
	case len(s) > 1 && s[0] == '0':
		// Leading-zero octal per YAML 1.1.
		return digits(s[1:], isOctDigit)
	default:
		if s[0] < '0' || s[0] > '9' {
			return false
		}
		return digits(s, isDecDigit)
	}
}

// IsFloatText reports whether raw matches the float grammar, including
// the signed .inf and .nan spellings.
func IsFloatText(raw string) bool {
	if isInfText(raw) || isNanText(raw) {
		return true
	}
	s := raw
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	mantissa, exponent, hasExp := s, "", false
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mantissa, exponent, hasExp = s[:i], s[i+1:], true
	}
	dot := strings.IndexByte(mantissa, '.')
	if dot < 0 && !hasExp {
		return false // integer form
	}
	intPart, fracPart := mantissa, ""
	if dot >= 0 {
		intPart, fracPart = mantissa[:dot], mantissa[dot+1:]
	}
	okDigits := func(body string) bool {
		for i := 0; i < len(body); i++ {
			if body[i] != '_' && !isDecDigit(body[i]) {
				return false
			}
		}
		return true
	}
	if !okDigits(intPart) || !okDigits(fracPart) {
		return false
	}
	if countDigits(intPart)+countDigits(fracPart) == 0 {
		return false
	}
	if hasExp {
		e := exponent
		if len(e) > 0 && (e[0] == '+' || e[0] == '-') {
			e = e[1:]
		}
		if countDigits(e) == 0 || !okDigits(e) {
			return false
		}
	}
	return true
}

func isInfText(raw string) bool {
	s := raw
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	return strings.EqualFold(s, ".inf")
}

func isNanText(raw string) bool {
	s := raw
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	return strings.EqualFold(s, ".nan")
}

// ParseInt parses a YAML integer into an int64, honouring sign, base
// prefixes and underscores. bitSize follows strconv semantics.
func ParseInt(raw string, bitSize int) (int64, error) {
	neg, body, base, err := splitInt(raw)
	if err != nil {
		return 0, err
	}
	u, err := strconv.ParseUint(body, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", raw, unwrapNum(err))
	}
	if neg {
		if u > uint64(math.MaxInt64)+1 {
			return 0, rangeErr(raw)
		}
		v := -int64(u) // MinInt64-safe two's-complement negation
		if u == uint64(math.MaxInt64)+1 {
			v = math.MinInt64
		}
		if bitSize < 64 && (v < -(int64(1)<<(bitSize-1)) || v > int64(1)<<(bitSize-1)-1) {
			return 0, rangeErr(raw)
		}
		return v, nil
	}
	if u > uint64(math.MaxInt64) {
		return 0, rangeErr(raw)
	}
	v := int64(u)
	if bitSize < 64 && v > int64(1)<<(bitSize-1)-1 {
		return 0, rangeErr(raw)
	}
	return v, nil
}

// ParseUint parses a YAML integer into a uint64; negative values are a
// range error.
func ParseUint(raw string, bitSize int) (uint64, error) {
	neg, body, base, err := splitInt(raw)
	if err != nil {
		return 0, err
	}
	u, err := strconv.ParseUint(body, base, bitSize)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", raw, unwrapNum(err))
	}
	if neg {
		if u == 0 {
			return 0, nil
		}
		return 0, rangeErr(raw)
	}
	return u, nil
}

func splitInt(raw string) (neg bool, body string, base int, err error) {
	s := raw
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	base = 10
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		s, base = s[2:], 16
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		s, base = s[2:], 2
	case strings.HasPrefix(s, "0o") || strings.HasPrefix(s, "0O"):
		s, base = s[2:], 8
	case len(s) > 1 && s[0] == '0' && IsIntText(raw):
		s, base = s[1:], 8
	}
	s = strings.ReplaceAll(s, "_", "")
	if s == "" {
		return false, "", 0, fmt.Errorf("invalid integer %q", raw)
	}
	return neg, s, base, nil
}

// ParseFloat parses a YAML float, including .inf/.nan spellings and
// underscores in the digits.
func ParseFloat(raw string) (float64, error) {
	switch {
	case isNanText(raw):
		return math.NaN(), nil
	case isInfText(raw):
		if strings.HasPrefix(raw, "-") {
			return math.Inf(-1), nil
		}
		return math.Inf(1), nil
	}
	s := strings.ReplaceAll(raw, "_", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float %q: %w", raw, unwrapNum(err))
	}
	return f, nil
}

// DecodeBase64 decodes a !!binary scalar body. Whitespace and newlines are
// ignored; both padded and unpadded encodings are accepted.
func DecodeBase64(raw string) ([]byte, error) {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		}
		b.WriteRune(r)
	}
	s := b.String()
	if out, err := base64.StdEncoding.DecodeString(s); err == nil {
		return out, nil
	}
	out, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 data: %w", err)
	}
	return out, nil
}

// Resolved is the outcome of resolving one scalar for generic inference.
type Resolved struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Uint  uint64 // set when the value only fits unsigned
	IsU   bool
	Float float64
	Str   string
	Bytes []byte // !!binary only
}

// Resolve classifies and parses a scalar given its style and optional tag.
// Non-plain styles always yield strings unless an explicit standard tag
// forces a different kind.
func Resolve(raw string, style event.ScalarStyle, tag string, strictBools bool) (Resolved, error) {
	switch tag {
	case event.TagStr:
		return Resolved{Kind: KindStr, Str: raw}, nil
	case event.TagNull:
		if style == event.StylePlain && IsNull(raw) {
			return Resolved{Kind: KindNull}, nil
		}
		return Resolved{}, fmt.Errorf("cannot read %q as null", raw)
	case event.TagBool:
		b, err := ParseBool(raw, strictBools)
		if err != nil {
			return Resolved{}, err
		}
		return Resolved{Kind: KindBool, Bool: b}, nil
	case event.TagInt:
		return resolveInt(raw)
	case event.TagFloat:
		f, err := ParseFloat(raw)
		if err != nil {
			return Resolved{}, err
		}
		return Resolved{Kind: KindFloat, Float: f}, nil
	case event.TagBinary:
		out, err := DecodeBase64(raw)
		if err != nil {
			return Resolved{}, err
		}
		return Resolved{Kind: KindStr, Bytes: out}, nil
	}
	if style != event.StylePlain {
		return Resolved{Kind: KindStr, Str: raw}, nil
	}
	switch classify(raw, strictBools) {
	case KindNull:
		return Resolved{Kind: KindNull}, nil
	case KindBool:
		b, _ := ParseBool(raw, strictBools)
		return Resolved{Kind: KindBool, Bool: b}, nil
	case KindInt:
		return resolveInt(raw)
	case KindFloat:
		f, err := ParseFloat(raw)
		if err != nil {
			return Resolved{}, err
		}
		return Resolved{Kind: KindFloat, Float: f}, nil
	default:
		return Resolved{Kind: KindStr, Str: raw}, nil
	}
}

func resolveInt(raw string) (Resolved, error) {
	if v, err := ParseInt(raw, 64); err == nil {
		return Resolved{Kind: KindInt, Int: v}, nil
	}
	u, err := ParseUint(raw, 64)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{Kind: KindInt, Uint: u, IsU: true}, nil
}

func isDecDigit(c byte) bool { return c >= '0' && c <= '9' }
func isOctDigit(c byte) bool { return c >= '0' && c <= '7' }
func isHexDigit(c byte) bool {
	return isDecDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if isDecDigit(s[i]) {
			n++
		}
	}
	return n
}

func rangeErr(raw string) error {
	return fmt.Errorf("integer %q overflows target type", raw)
}

func unwrapNum(err error) error {
	if ne, ok := err.(*strconv.NumError); ok {
		return ne.Err
	}
	return err
}
