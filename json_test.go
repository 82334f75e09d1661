package yamlbind_test

import (
	"strings"
	"testing"

	yamlbind "github.com/reoring/yamlbind"
)

func TestToJSON(t *testing.T) {
	in := "name: demo\nport: 0x1F90\nenabled: yes\nempty: ~\nitems: [1, 2.5, two]\n"
	out, err := yamlbind.ToJSON([]byte(in))
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	for _, want := range []string{`"name":"demo"`, `"port":8080`, `"enabled":true`, `"empty":null`, `[1,2.5,"two"]`} {
		if !strings.Contains(string(out), want) {
			t.Fatalf("missing %s in %s", want, out)
		}
	}
}

func TestToJSONStringifiesKeys(t *testing.T) {
	out, err := yamlbind.ToJSON([]byte("1: one\ntrue: yes\nnull: empty\n"))
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	for _, want := range []string{`"1":"one"`, `"true":true`, `"null":"empty"`} {
		if !strings.Contains(string(out), want) {
			t.Fatalf("missing %s in %s", want, out)
		}
	}
}

func TestToJSONBinary(t *testing.T) {
	out, err := yamlbind.ToJSON([]byte("data: !!binary aGk=\n"))
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if !strings.Contains(string(out), `"data":"aGk="`) {
		t.Fatalf("binary payload must surface as base64: %s", out)
	}
}

func TestToJSONRespectsOptions(t *testing.T) {
	_, err := yamlbind.ToJSON([]byte("a: 1\na: 2\n"))
	if code := yamlbind.CodeOf(err); code != yamlbind.CodeDuplicateKey {
		t.Fatalf("CodeOf = %q, want %q", code, yamlbind.CodeDuplicateKey)
	}
	out, err := yamlbind.ToJSON([]byte("a: 1\na: 2\n"), yamlbind.Options{DuplicateKeys: yamlbind.DuplicateLastWins})
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if !strings.Contains(string(out), `"a":2`) {
		t.Fatalf("last-wins value missing: %s", out)
	}
}

func TestFromJSON(t *testing.T) {
	out, err := yamlbind.FromJSON([]byte(`{"name":"demo","count":3,"nested":{"ok":true},"list":["x"]}`))
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	want := "count: 3\nlist:\n  - x\nname: demo\nnested:\n  ok: true\n"
	if string(out) != want {
		t.Fatalf("rendered:\n%s\nwant:\n%s", out, want)
	}
}

func TestJSONRoundtrip(t *testing.T) {
	in := "svc:\n  replicas: 2\n  labels:\n    env: prod\n"
	j, err := yamlbind.ToJSON([]byte(in))
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	y, err := yamlbind.FromJSON(j)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if string(y) != "svc:\n  labels:\n    env: prod\n  replicas: 2\n" {
		t.Fatalf("roundtrip:\n%s", y)
	}
}
