package yamlbind_test

import (
	"fmt"
	"strings"
	"testing"

	yamlbind "github.com/reoring/yamlbind"
)

// value is a two-variant union carrying a string payload, in the shape of
// a templating engine's expression-or-template choice.
type value struct {
	variant string
	payload any
}

func (value) UnionName() string { return "Value" }

func (value) VariantNames() []string { return []string{"Expression", "Template"} }

func (value) NewPayload(variant string) (any, bool) {
	switch variant {
	case "Expression", "Template":
		return new(string), true
	}
	return nil, false
}

func (v *value) SetVariant(variant string, payload any) error {
	v.variant = variant
	v.payload = payload
	return nil
}

func (v value) Variant() (string, any) { return v.variant, v.payload }

var _ yamlbind.TaggedUnion = (*value)(nil)

// mode is a unit-only union.
type mode struct {
	name string
}

func (mode) UnionName() string { return "Mode" }

func (mode) VariantNames() []string { return []string{"Fast", "Safe"} }

func (mode) NewPayload(variant string) (any, bool) {
	switch variant {
	case "Fast", "Safe":
		return nil, true
	}
	return nil, false
}

func (m *mode) SetVariant(variant string, _ any) error {
	m.name = variant
	return nil
}

func (m mode) Variant() (string, any) { return m.name, nil }

// action is internally tagged: the mapping carries the variant in "kind".
type action struct {
	variant string
	payload any
}

type moveAction struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type sayAction struct {
	Text string `yaml:"text"`
}

func (action) UnionName() string { return "Action" }

func (action) TagField() string { return "kind" }

func (action) VariantNames() []string { return []string{"move", "say"} }

func (action) NewPayload(variant string) (any, bool) {
	switch variant {
	case "move":
		return new(moveAction), true
	case "say":
		return new(sayAction), true
	}
	return nil, false
}

func (a *action) SetVariant(variant string, payload any) error {
	a.variant = variant
	a.payload = payload
	return nil
}

func (a action) Variant() (string, any) { return a.variant, a.payload }

var _ yamlbind.InternallyTagged = (*action)(nil)

func TestTaggedEnumSelection(t *testing.T) {
	var doc struct {
		Value value `yaml:"value"`
	}
	if err := yamlbind.UnmarshalString("value: !Expression \"1 + 1\"\n", &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if doc.Value.variant != "Expression" {
		t.Fatalf("variant = %q", doc.Value.variant)
	}
	if got := *doc.Value.payload.(*string); got != "1 + 1" {
		t.Fatalf("payload = %q", got)
	}
}

func TestUnionExternalMapping(t *testing.T) {
	var doc struct {
		Value value `yaml:"value"`
	}
	if err := yamlbind.UnmarshalString("value:\n  Template: \"{{ name }}\"\n", &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if doc.Value.variant != "Template" || *doc.Value.payload.(*string) != "{{ name }}" {
		t.Fatalf("decoded %+v", doc.Value)
	}

	err := yamlbind.UnmarshalString("value:\n  Template: a\n  Expression: b\n", &doc)
	if yamlbind.CodeOf(err) != yamlbind.CodeUnexpectedEvent {
		t.Fatalf("two-entry mapping: got %v", err)
	}
}

func TestUnionUnitVariants(t *testing.T) {
	var doc struct {
		Mode mode `yaml:"mode"`
	}
	if err := yamlbind.UnmarshalString("mode: Fast\n", &doc); err != nil {
		t.Fatalf("bare name: %v", err)
	}
	if doc.Mode.name != "Fast" {
		t.Fatalf("mode = %q", doc.Mode.name)
	}

	if err := yamlbind.UnmarshalString("mode: !!Mode Safe\n", &doc); err != nil {
		t.Fatalf("tagged name: %v", err)
	}
	if doc.Mode.name != "Safe" {
		t.Fatalf("mode = %q", doc.Mode.name)
	}

	err := yamlbind.UnmarshalString("mode: !!Color Safe\n", &doc)
	if yamlbind.CodeOf(err) != yamlbind.CodeTaggedEnumMismatch {
		t.Fatalf("wrong enum tag: got %v", err)
	}

	err = yamlbind.UnmarshalString("mode: Turbo\n", &doc)
	if yamlbind.CodeOf(err) != yamlbind.CodeTaggedEnumMismatch {
		t.Fatalf("unknown variant: got %v", err)
	}
}

func TestUnionInternallyTagged(t *testing.T) {
	in := "do:\n  kind: move\n  x: 3\n  y: 4\n"
	var doc struct {
		Do action `yaml:"do"`
	}
	if err := yamlbind.UnmarshalString(in, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	mv, ok := doc.Do.payload.(*moveAction)
	if doc.Do.variant != "move" || !ok || mv.X != 3 || mv.Y != 4 {
		t.Fatalf("decoded %+v payload %+v", doc.Do, doc.Do.payload)
	}

	err := yamlbind.UnmarshalString("do:\n  x: 3\n", &doc)
	if yamlbind.CodeOf(err) != yamlbind.CodeMissingField {
		t.Fatalf("missing tag field: got %v", err)
	}
}

func TestUnionMarshal(t *testing.T) {
	var doc struct {
		Mode  mode  `yaml:"mode"`
		Value value `yaml:"value"`
	}
	doc.Mode.name = "Fast"
	doc.Value.variant = "Expression"
	expr := "1 + 1"
	doc.Value.payload = &expr

	out, err := yamlbind.MarshalString(&doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := "mode: Fast\nvalue:\n  Expression: 1 + 1\n"
	if out != want {
		t.Fatalf("marshalled:\n%s\nwant:\n%s", out, want)
	}

	tagged, err := yamlbind.MarshalString(&doc, yamlbind.EncodeOptions{TaggedEnums: true})
	if err != nil {
		t.Fatalf("Marshal tagged: %v", err)
	}
	if !strings.Contains(tagged, "mode: !!Mode Fast") {
		t.Fatalf("tagged output:\n%s", tagged)
	}

	// Tagged output decodes back.
	var back struct {
		Mode  mode  `yaml:"mode"`
		Value value `yaml:"value"`
	}
	if err := yamlbind.UnmarshalString(tagged, &back); err != nil {
		t.Fatalf("roundtrip: %v", err)
	}
	if back.Mode.name != "Fast" || back.Value.variant != "Expression" {
		t.Fatalf("roundtrip decoded %+v / %+v", back.Mode, back.Value)
	}
	if fmt.Sprint(*back.Value.payload.(*string)) != "1 + 1" {
		t.Fatalf("roundtrip payload mismatch")
	}
}
