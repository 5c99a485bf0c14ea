package schema

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Catalog is a set of named Shapes loaded from a shape file.
type Catalog struct {
	shapes map[string]*Shape
}

// Get returns the named shape, or nil if the catalog has no such shape.
func (c *Catalog) Get(name string) *Shape { return c.shapes[name] }

// Names returns the catalog's shape names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.shapes))
	for name := range c.shapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of shapes in the catalog.
func (c *Catalog) Len() int { return len(c.shapes) }

type fileDoc struct {
	Shapes []shapeDoc `yaml:"shapes"`
}

type shapeDoc struct {
	Name   string     `yaml:"name"`
	Fields []fieldDoc `yaml:"fields"`
}

type fieldDoc struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Capacity int    `yaml:"capacity,omitempty"`
	Element  string `yaml:"element,omitempty"`
	Count    int    `yaml:"count,omitempty"`
	Shape    string `yaml:"shape,omitempty"`
}

var kindByName = map[string]Kind{
	"bool":          KindBool,
	"int32":         KindInt32,
	"int64":         KindInt64,
	"uint8":         KindUint8,
	"uint32":        KindUint32,
	"uint64":        KindUint64,
	"float32":       KindFloat32,
	"float64":       KindFloat64,
	"text":          KindFixedText,
	"array":         KindFixedArray,
	"nested":        KindNested,
	"optional_text": KindOptionalText,
	"optional":      KindOptionalScalar,
	"skip":          KindSkip,
}

// ParseKind returns the Kind with the given shape-file type name.
func ParseKind(name string) (Kind, bool) {
	k, ok := kindByName[name]
	return k, ok
}

// Load parses a YAML shape catalog. Shapes may reference each other
// through nested fields in any declaration order; unresolvable or
// cyclic references are rejected with a *SchemaError.
func Load(data []byte) (*Catalog, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse shape file: %w", err)
	}
	if len(doc.Shapes) == 0 {
		return nil, &SchemaError{Reason: "shape file declares no shapes"}
	}

	pending := make(map[string]shapeDoc, len(doc.Shapes))
	for _, sd := range doc.Shapes {
		if sd.Name == "" {
			return nil, &SchemaError{Reason: "shape name must not be empty"}
		}
		if _, dup := pending[sd.Name]; dup {
			return nil, &SchemaError{Shape: sd.Name, Reason: "duplicate shape name"}
		}
		pending[sd.Name] = sd
	}

	cat := &Catalog{shapes: make(map[string]*Shape, len(pending))}

	// Build shapes leaves-first: each pass constructs every shape whose
	// nested references are already resolved. No progress means the
	// remaining shapes reference something unknown or form a cycle.
	for len(pending) > 0 {
		progressed := false
		for name, sd := range pending {
			shape, err := buildShape(sd, cat)
			if err != nil {
				if _, unresolved := err.(errUnresolved); unresolved {
					continue
				}
				return nil, err
			}
			cat.shapes[name] = shape
			delete(pending, name)
			progressed = true
		}
		if !progressed {
			for name, sd := range pending {
				for _, fd := range sd.Fields {
					if fd.Type == "nested" {
						if _, known := pending[fd.Shape]; !known && cat.shapes[fd.Shape] == nil {
							return nil, &SchemaError{Shape: name, Field: fd.Name,
								Reason: fmt.Sprintf("unknown nested shape %q", fd.Shape)}
						}
					}
				}
			}
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			sort.Strings(names)
			return nil, &SchemaError{Shape: names[0], Reason: "cyclic shape reference"}
		}
	}

	return cat, nil
}

// LoadFile reads and parses a YAML shape catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shape file: %w", err)
	}
	return Load(data)
}

// errUnresolved signals that a shape's nested reference is not built
// yet; the loader retries it on a later pass.
type errUnresolved struct{}

func (errUnresolved) Error() string { return "unresolved nested shape" }

func buildShape(sd shapeDoc, cat *Catalog) (*Shape, error) {
	fields := make([]Field, 0, len(sd.Fields))
	for _, fd := range sd.Fields {
		kind, ok := kindByName[fd.Type]
		if !ok {
			return nil, &SchemaError{Shape: sd.Name, Field: fd.Name,
				Reason: fmt.Sprintf("unknown field type %q", fd.Type)}
		}

		f := Field{Name: fd.Name, Kind: kind, Capacity: fd.Capacity, Count: fd.Count}
		switch kind {
		case KindFixedArray, KindOptionalScalar:
			elem, ok := kindByName[fd.Element]
			if !ok {
				return nil, &SchemaError{Shape: sd.Name, Field: fd.Name,
					Reason: fmt.Sprintf("unknown element type %q", fd.Element)}
			}
			f.Elem = elem
		case KindNested:
			nested := cat.Get(fd.Shape)
			if nested == nil {
				return nil, errUnresolved{}
			}
			f.Shape = nested
		}
		fields = append(fields, f)
	}
	return New(sd.Name, fields...)
}
