package scalar_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/reoring/yamlbind/event"
	"github.com/reoring/yamlbind/scalar"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		raw  string
		want scalar.Kind
	}{
		{"", scalar.KindNull},
		{"~", scalar.KindNull},
		{"null", scalar.KindNull},
		{"NULL", scalar.KindNull},
		{"nULL", scalar.KindStr},
		{"true", scalar.KindBool},
		{"TRUE", scalar.KindBool},
		{"yes", scalar.KindBool},
		{"Y", scalar.KindBool},
		{"off", scalar.KindBool},
		{"y", scalar.KindStr},
		{"yEs", scalar.KindStr},
		{"0", scalar.KindInt},
		{"-42", scalar.KindInt},
		{"+7", scalar.KindInt},
		{"0x1F", scalar.KindInt},
		{"0b101", scalar.KindInt},
		{"0o17", scalar.KindInt},
		{"010", scalar.KindInt},
		{"1_000_000", scalar.KindInt},
		{"1.5", scalar.KindFloat},
		{"-0.0", scalar.KindFloat},
		{"1e3", scalar.KindFloat},
		{"6.02e+23", scalar.KindFloat},
		{".inf", scalar.KindFloat},
		{"-.Inf", scalar.KindFloat},
		{".nan", scalar.KindFloat},
		{"hello", scalar.KindStr},
		{"1.2.3", scalar.KindStr},
		{"0x", scalar.KindStr},
		{"-", scalar.KindStr},
		{"08", scalar.KindStr}, // 8 is not an octal digit
		{"e3", scalar.KindStr},
	}
	for _, tc := range cases {
		if got := scalar.Classify(tc.raw); got != tc.want {
			t.Errorf("Classify(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestClassifyStrict(t *testing.T) {
	if got := scalar.ClassifyStrict("yes"); got != scalar.KindStr {
		t.Fatalf("strict Classify(yes) = %v, want string", got)
	}
	if got := scalar.ClassifyStrict("True"); got != scalar.KindStr {
		t.Fatalf("strict Classify(True) = %v, want string", got)
	}
	if got := scalar.ClassifyStrict("true"); got != scalar.KindBool {
		t.Fatalf("strict Classify(true) = %v, want bool", got)
	}
}

func TestParseInt(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
	}{
		{"0", 0},
		{"42", 42},
		{"-42", -42},
		{"0x1F", 31},
		{"-0x10", -16},
		{"0b101", 5},
		{"0o17", 15},
		{"010", 8},
		{"1_000_000", 1000000},
		{"-9223372036854775808", math.MinInt64},
		{"9223372036854775807", math.MaxInt64},
	}
	for _, tc := range cases {
		got, err := scalar.ParseInt(tc.raw, 64)
		if err != nil {
			t.Errorf("ParseInt(%q): %v", tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseInt(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}

	if _, err := scalar.ParseInt("128", 8); err == nil {
		t.Errorf("ParseInt(128, bits=8) accepted out-of-range value")
	}
	if _, err := scalar.ParseInt("9223372036854775808", 64); err == nil {
		t.Errorf("ParseInt accepted value above MaxInt64")
	}
	if v, err := scalar.ParseUint("18446744073709551615", 64); err != nil || v != math.MaxUint64 {
		t.Errorf("ParseUint(MaxUint64) = %d, %v", v, err)
	}
	if _, err := scalar.ParseUint("-1", 64); err == nil {
		t.Errorf("ParseUint(-1) should fail")
	}
}

func TestParseFloat(t *testing.T) {
	if f, err := scalar.ParseFloat(".inf"); err != nil || !math.IsInf(f, 1) {
		t.Fatalf("ParseFloat(.inf) = %v, %v", f, err)
	}
	if f, err := scalar.ParseFloat("-.INF"); err != nil || !math.IsInf(f, -1) {
		t.Fatalf("ParseFloat(-.INF) = %v, %v", f, err)
	}
	if f, err := scalar.ParseFloat(".nan"); err != nil || !math.IsNaN(f) {
		t.Fatalf("ParseFloat(.nan) = %v, %v", f, err)
	}
	if f, err := scalar.ParseFloat("6.852_301_5e+5"); err != nil || f != 685230.15 {
		t.Fatalf("ParseFloat with underscores = %v, %v", f, err)
	}
}

func TestParseBoolStrict(t *testing.T) {
	if _, err := scalar.ParseBool("yes", true); err == nil {
		t.Fatalf("strict ParseBool(yes) should fail")
	}
	if b, err := scalar.ParseBool("yes", false); err != nil || !b {
		t.Fatalf("loose ParseBool(yes) = %v, %v", b, err)
	}
}

func TestDecodeBase64(t *testing.T) {
	got, err := scalar.DecodeBase64("aGVs\n  bG8=")
	if err != nil {
		t.Fatalf("DecodeBase64: %v", err)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("DecodeBase64 = %q", got)
	}
	if got, err = scalar.DecodeBase64("aGVsbG8"); err != nil || !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("unpadded DecodeBase64 = %q, %v", got, err)
	}
	if _, err := scalar.DecodeBase64("!!!"); err == nil {
		t.Fatalf("DecodeBase64 accepted garbage")
	}
}

func TestResolveStyles(t *testing.T) {
	r, err := scalar.Resolve("123", event.StyleSingleQuoted, "", false)
	if err != nil || r.Kind != scalar.KindStr || r.Str != "123" {
		t.Fatalf("quoted 123 resolved as %+v, %v", r, err)
	}
	r, err = scalar.Resolve("123", event.StylePlain, event.TagStr, false)
	if err != nil || r.Kind != scalar.KindStr {
		t.Fatalf("!!str 123 resolved as %+v, %v", r, err)
	}
	r, err = scalar.Resolve("0x10", event.StylePlain, event.TagInt, false)
	if err != nil || r.Kind != scalar.KindInt || r.Int != 16 {
		t.Fatalf("!!int 0x10 resolved as %+v, %v", r, err)
	}
	if _, err := scalar.Resolve("nope", event.StylePlain, event.TagInt, false); err == nil {
		t.Fatalf("!!int nope should fail")
	}
	r, err = scalar.Resolve("18446744073709551615", event.StylePlain, "", false)
	if err != nil || !r.IsU || r.Uint != math.MaxUint64 {
		t.Fatalf("huge int resolved as %+v, %v", r, err)
	}
}
