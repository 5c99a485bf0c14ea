package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const catalogYAML = `
shapes:
  - name: Point
    fields:
      - {name: x, type: float64}
      - {name: y, type: float64}
  - name: SimpleData
    fields:
      - {name: id, type: int32}
      - {name: name, type: text, capacity: 8}
      - {name: flags, type: array, element: uint8, count: 4}
  - name: Person
    fields:
      - {name: name, type: text, capacity: 32}
      - {name: age, type: int32}
      - {name: origin, type: nested, shape: Point}
      - {name: email, type: optional_text, capacity: 64}
      - {name: favorite_number, type: optional, element: int64}
      - {name: callback, type: skip}
`

func TestLoad_Catalog(t *testing.T) {
	cat, err := Load([]byte(catalogYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cat.Len() != 3 {
		t.Fatalf("Len = %d, want 3", cat.Len())
	}
	if got := cat.Names(); strings.Join(got, ",") != "Person,Point,SimpleData" {
		t.Errorf("Names = %v", got)
	}

	person := cat.Get("Person")
	if person == nil {
		t.Fatal("Get(Person) = nil")
	}
	if person.Len() != 6 {
		t.Errorf("Person has %d fields, want 6", person.Len())
	}
	if person.WireCount() != 5 {
		t.Errorf("Person wire count = %d, want 5", person.WireCount())
	}

	origin := person.Field(person.Index("origin"))
	if origin.Kind != KindNested || origin.Shape != cat.Get("Point") {
		t.Error("origin does not reference the catalog's Point shape")
	}
	email := person.Field(person.Index("email"))
	if email.Kind != KindOptionalText || email.Capacity != 64 {
		t.Errorf("email = %+v", email)
	}
	fav := person.Field(person.Index("favorite_number"))
	if fav.Kind != KindOptionalScalar || fav.Elem != KindInt64 {
		t.Errorf("favorite_number = %+v", fav)
	}

	if cat.Get("Missing") != nil {
		t.Error("Get(Missing) returned a shape")
	}
}

func TestLoad_ForwardReference(t *testing.T) {
	// Outer is declared before the shape it nests.
	doc := `
shapes:
  - name: Outer
    fields:
      - {name: inner, type: nested, shape: Inner}
  - name: Inner
    fields:
      - {name: v, type: int32}
`
	cat, err := Load([]byte(doc))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	outer := cat.Get("Outer")
	if outer.Field(0).Shape != cat.Get("Inner") {
		t.Error("forward reference not resolved to the catalog's Inner")
	}
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
		want string
	}{
		{"not yaml", "{{{", "parse shape file"},
		{"no shapes", "shapes: []", "no shapes"},
		{"unnamed shape", "shapes:\n  - fields: [{name: a, type: bool}]", "name must not be empty"},
		{"duplicate shape", `
shapes:
  - name: S
    fields: [{name: a, type: bool}]
  - name: S
    fields: [{name: b, type: bool}]
`, "duplicate shape"},
		{"unknown field type", `
shapes:
  - name: S
    fields: [{name: a, type: varint}]
`, "unknown field type"},
		{"unknown element type", `
shapes:
  - name: S
    fields: [{name: a, type: array, element: blob, count: 2}]
`, "unknown element type"},
		{"unknown nested shape", `
shapes:
  - name: S
    fields: [{name: a, type: nested, shape: Ghost}]
`, "unknown nested shape"},
		{"cyclic reference", `
shapes:
  - name: A
    fields: [{name: b, type: nested, shape: B}]
  - name: B
    fields: [{name: a, type: nested, shape: A}]
`, "cyclic"},
		{"self reference", `
shapes:
  - name: A
    fields: [{name: a, type: nested, shape: A}]
`, "cyclic"},
		{"bad capacity", `
shapes:
  - name: S
    fields: [{name: a, type: text, capacity: 1}]
`, "capacity"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load([]byte(tc.doc))
			if err == nil {
				t.Fatal("Load succeeded, want error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shapes.yaml")
	if err := os.WriteFile(path, []byte(catalogYAML), 0o644); err != nil {
		t.Fatalf("write shape file: %v", err)
	}

	cat, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cat.Get("SimpleData") == nil {
		t.Error("catalog missing SimpleData")
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadFile succeeded on a missing file")
	}
}
