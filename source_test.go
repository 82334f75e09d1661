package yamlbind_test

import (
	"testing"

	yamlbind "github.com/reoring/yamlbind"
	"github.com/reoring/yamlbind/source/goccyast"
)

type goccyDriver struct{}

func (goccyDriver) NewBytes(b []byte) (yamlbind.EventSource, error) {
	src, err := goccyast.Parse(b)
	if err != nil {
		return nil, err
	}
	return src, nil
}

func (goccyDriver) Name() string { return "goccy-ast" }

// The duplicate-key policies and complex keys depend on the default
// driver delivering those constructs to the adapter instead of rejecting
// them at parse time; yaml.v3 is the only bundled parser that does.
func TestDefaultDriver(t *testing.T) {
	if got := yamlbind.DriverName(); got != "yaml-v3" {
		t.Fatalf("DriverName() = %q, want yaml-v3", got)
	}

	var m map[string]int
	in := "a: 1\na: 2\n"
	if err := yamlbind.UnmarshalString(in, &m, yamlbind.Options{DuplicateKeys: yamlbind.DuplicateLastWins}); err != nil {
		t.Fatalf("LastWins through the default driver: %v", err)
	}
	if m["a"] != 2 {
		t.Fatalf("m[a] = %d, want 2", m["a"])
	}
}

func TestSetDriver(t *testing.T) {
	yamlbind.SetDriver(goccyDriver{})
	defer yamlbind.UseDefaultDriver()

	if got := yamlbind.DriverName(); got != "goccy-ast" {
		t.Fatalf("DriverName() = %q, want goccy-ast", got)
	}
	var s server
	if err := yamlbind.UnmarshalString("host: h\nport: 1\n", &s); err != nil {
		t.Fatalf("Unmarshal through goccy driver: %v", err)
	}
	if s.Host != "h" || s.Port != 1 {
		t.Fatalf("decoded %+v", s)
	}

	// The goccy parser rejects duplicate keys itself, so the policy
	// cannot apply under this driver.
	var m map[string]int
	err := yamlbind.UnmarshalString("a: 1\na: 2\n", &m, yamlbind.Options{DuplicateKeys: yamlbind.DuplicateLastWins})
	if err == nil {
		t.Fatalf("goccy driver should reject duplicate keys at parse time")
	}
	if yamlbind.CodeOf(err) != yamlbind.CodeParse {
		t.Fatalf("got %v, want %s", err, yamlbind.CodeParse)
	}

	yamlbind.UseDefaultDriver()
	if got := yamlbind.DriverName(); got != "yaml-v3" {
		t.Fatalf("DriverName() after reset = %q, want yaml-v3", got)
	}
}
