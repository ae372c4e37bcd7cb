package template

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestJSONRoundTripPreservesVariantsAndOrder(t *testing.T) {
	want := validTemplate()
	want.Tags = []string{"modern", "blue"}

	data, err := Marshal(want)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalWritesTypeDiscriminator(t *testing.T) {
	data, err := Marshal(validTemplate())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"type": "shape"`, `"type": "text"`, `"type": "image"`, `"isBinding": true`, `"referenceWidth": 800`} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %s:\n%s", want, s)
		}
	}
}

func TestUnmarshalElementErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"unknown type", `{"id":"x","design":{"elements":[{"type":"video","id":"v"}]}}`},
		{"missing type", `{"id":"x","design":{"elements":[{"id":"v"}]}}`},
		{"not an array", `{"id":"x","design":{"elements":{"type":"text"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unmarshal([]byte(tt.json)); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}

func TestUnmarshalIgnoresUnknownKeys(t *testing.T) {
	doc := `{"id":"x","owner":"admin","design":{"aspectRatio":"square","referenceWidth":100,"referenceHeight":100,
		"elements":[{"type":"text","id":"t","content":"Hi","fontSize":12,"rotation":45}]}}`

	got, err := Unmarshal([]byte(doc))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	el, ok := got.Design.Elements[0].(Text)
	if !ok {
		t.Fatalf("element type = %T, want Text", got.Design.Elements[0])
	}
	if el.Content != "Hi" || el.FontSize != 12 {
		t.Errorf("decoded text = %+v", el)
	}
}

func TestDecodeYAML(t *testing.T) {
	doc := `
id: yaml-card
name: YAML Card
tags: [minimal]
isActive: true
design:
  aspectRatio: "3:2"
  referenceWidth: 600
  referenceHeight: 400
  textColor: "#111111"
  elements:
    - type: shape
      id: band
      x: 0
      y: 0
      width: 600
      height: 80
      fill: "#0ea5e9"
    - type: text
      id: title
      x: 24
      y: 120
      content: jobTitle
      isBinding: true
      fontSize: 18
`
	got, err := Decode(strings.NewReader(doc), FormatYAML)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := Template{
		ID:       "yaml-card",
		Name:     "YAML Card",
		Tags:     []string{"minimal"},
		IsActive: true,
		Design: Design{
			AspectRatio:     "3:2",
			ReferenceWidth:  600,
			ReferenceHeight: 400,
			TextColor:       "#111111",
			Elements: Elements{
				Shape{ID: "band", Width: 600, Height: 80, Fill: "#0ea5e9"},
				Text{ID: "title", X: 24, Y: 120, Content: "jobTitle", IsBinding: true, FontSize: 18},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decode(yaml) mismatch (-want +got):\n%s", diff)
	}
}

func TestReadWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "default.json")

	if err := WriteFile(Default(), path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if diff := cmp.Diff(Default(), got); diff != "" {
		t.Errorf("file round trip mismatch (-want +got):\n%s", diff)
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("ReadFile of missing file should fail")
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.yml"), []byte("id: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(filepath.Join(dir, "bad.yml")); err == nil {
		t.Error("ReadFile of malformed yaml should fail")
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"a.json": FormatJSON,
		"a.YAML": FormatYAML,
		"a.yml":  FormatYAML,
		"a":      FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	orig := validTemplate()
	orig.Tags = []string{"a"}

	c := orig.Clone()
	c.Tags[0] = "changed"
	c.Design.Elements[0] = Shape{ID: "replaced", Width: 1, Height: 1}

	if orig.Tags[0] != "a" {
		t.Error("Clone shares Tags with the original")
	}
	if orig.Design.Elements[0].ElementID() != "bg" {
		t.Error("Clone shares Elements with the original")
	}
}

func TestOrDefault(t *testing.T) {
	if got := OrDefault(nil); got.ID != DefaultID {
		t.Errorf("OrDefault(nil).ID = %q, want %q", got.ID, DefaultID)
	}
	tpl := validTemplate()
	if got := OrDefault(&tpl); got.ID != tpl.ID {
		t.Errorf("OrDefault(&t).ID = %q, want %q", got.ID, tpl.ID)
	}
}

func TestElementLookupAndWithID(t *testing.T) {
	tpl := validTemplate()
	el, idx, ok := tpl.Element("name")
	if !ok || idx != 1 || el.Kind() != KindText {
		t.Fatalf("Element(name) = %v, %d, %v", el, idx, ok)
	}
	if _, _, ok := tpl.Element("ghost"); ok {
		t.Error("Element(ghost) should not be found")
	}

	renamed := WithID(el, "headline")
	if renamed.ElementID() != "headline" || el.ElementID() != "name" {
		t.Error("WithID should return a renamed copy")
	}
}
