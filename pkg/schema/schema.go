package schema

import "fmt"

// Kind identifies the wire representation and storage policy of a field.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt32
	KindInt64
	KindUint8
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindFixedText
	KindFixedArray
	KindNested
	KindOptionalText
	KindOptionalScalar
	KindSkip
)

var kindNames = map[Kind]string{
	KindInvalid:        "invalid",
	KindBool:           "bool",
	KindInt32:          "int32",
	KindInt64:          "int64",
	KindUint8:          "uint8",
	KindUint32:         "uint32",
	KindUint64:         "uint64",
	KindFloat32:        "float32",
	KindFloat64:        "float64",
	KindFixedText:      "text",
	KindFixedArray:     "array",
	KindNested:         "nested",
	KindOptionalText:   "optional_text",
	KindOptionalScalar: "optional",
	KindSkip:           "skip",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsScalar reports whether k is a fixed-width scalar kind.
func (k Kind) IsScalar() bool {
	return k >= KindBool && k <= KindFloat64
}

// Field describes one member of a Shape: its name (diagnostics only),
// wire kind, and the kind-specific parameters.
type Field struct {
	Name     string
	Kind     Kind
	Capacity int    // KindFixedText, KindOptionalText: buffer size including terminator slot
	Elem     Kind   // KindFixedArray, KindOptionalScalar: element kind
	Count    int    // KindFixedArray: element count
	Shape    *Shape // KindNested: embedded shape
}

// Bool describes a boolean scalar field.
func Bool(name string) Field { return Field{Name: name, Kind: KindBool} }

// Int32 describes a 32-bit signed scalar field.
func Int32(name string) Field { return Field{Name: name, Kind: KindInt32} }

// Int64 describes a 64-bit signed scalar field.
func Int64(name string) Field { return Field{Name: name, Kind: KindInt64} }

// Uint8 describes an 8-bit unsigned scalar field.
func Uint8(name string) Field { return Field{Name: name, Kind: KindUint8} }

// Uint32 describes a 32-bit unsigned scalar field.
func Uint32(name string) Field { return Field{Name: name, Kind: KindUint32} }

// Uint64 describes a 64-bit unsigned scalar field.
func Uint64(name string) Field { return Field{Name: name, Kind: KindUint64} }

// Float32 describes a single-precision scalar field.
func Float32(name string) Field { return Field{Name: name, Kind: KindFloat32} }

// Float64 describes a double-precision scalar field.
func Float64(name string) Field { return Field{Name: name, Kind: KindFloat64} }

// Text describes a fixed-capacity text field. Content may be at most
// capacity-1 bytes, matching a null-terminated buffer of capacity bytes.
func Text(name string, capacity int) Field {
	return Field{Name: name, Kind: KindFixedText, Capacity: capacity}
}

// Array describes a fixed-length array of exactly count scalar elements.
func Array(name string, elem Kind, count int) Field {
	return Field{Name: name, Kind: KindFixedArray, Elem: elem, Count: count}
}

// Nested describes an embedded record of another Shape.
func Nested(name string, shape *Shape) Field {
	return Field{Name: name, Kind: KindNested, Shape: shape}
}

// OptionalText describes a text field that may be absent. The capacity
// bounds the content the caller's pre-allocated storage can hold.
func OptionalText(name string, capacity int) Field {
	return Field{Name: name, Kind: KindOptionalText, Capacity: capacity}
}

// OptionalScalar describes a scalar field that may be absent.
func OptionalScalar(name string, elem Kind) Field {
	return Field{Name: name, Kind: KindOptionalScalar, Elem: elem}
}

// Skip describes a member with no wire representation. It exists only
// so field positions stay aligned with the host record layout.
func Skip(name string) Field { return Field{Name: name, Kind: KindSkip} }

// SchemaError reports a malformed Shape definition. It is only ever
// returned at Shape construction time, never from a codec call.
type SchemaError struct {
	Shape  string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema: shape %q: %s", e.Shape, e.Reason)
	}
	return fmt.Sprintf("schema: shape %q field %q: %s", e.Shape, e.Field, e.Reason)
}

// Shape is an ordered, immutable field list describing one composite
// record type. Field order is encoding order. Shapes are safe to share
// across any number of concurrent encode/decode calls.
type Shape struct {
	name      string
	fields    []Field
	wireCount int
}

// New validates the field list and constructs a Shape. Nested fields
// must reference already-constructed Shapes; a shape that reaches
// itself through nesting is rejected.
func New(name string, fields ...Field) (*Shape, error) {
	if name == "" {
		return nil, &SchemaError{Shape: name, Reason: "shape name must not be empty"}
	}

	s := &Shape{name: name, fields: make([]Field, len(fields))}
	copy(s.fields, fields)

	seen := make(map[string]bool, len(fields))
	for _, f := range s.fields {
		if f.Name == "" {
			return nil, &SchemaError{Shape: name, Reason: "field name must not be empty"}
		}
		if seen[f.Name] {
			return nil, &SchemaError{Shape: name, Field: f.Name, Reason: "duplicate field name"}
		}
		seen[f.Name] = true

		if err := validateField(name, f); err != nil {
			return nil, err
		}
		if f.Kind != KindSkip {
			s.wireCount++
		}
	}

	for _, f := range s.fields {
		if f.Kind == KindNested && f.Shape.reaches(s) {
			return nil, &SchemaError{Shape: name, Field: f.Name, Reason: "cyclic shape reference"}
		}
	}

	return s, nil
}

func validateField(shape string, f Field) error {
	switch f.Kind {
	case KindBool, KindInt32, KindInt64, KindUint8, KindUint32, KindUint64,
		KindFloat32, KindFloat64, KindSkip:
		// no parameters
	case KindFixedText, KindOptionalText:
		if f.Capacity < 2 {
			return &SchemaError{Shape: shape, Field: f.Name, Reason: "text capacity must be at least 2"}
		}
	case KindFixedArray:
		if !f.Elem.IsScalar() {
			return &SchemaError{Shape: shape, Field: f.Name,
				Reason: fmt.Sprintf("array element kind %s is not a scalar", f.Elem)}
		}
		if f.Count < 1 {
			return &SchemaError{Shape: shape, Field: f.Name, Reason: "array count must be at least 1"}
		}
	case KindNested:
		if f.Shape == nil {
			return &SchemaError{Shape: shape, Field: f.Name, Reason: "nested field has no shape"}
		}
	case KindOptionalScalar:
		if !f.Elem.IsScalar() {
			return &SchemaError{Shape: shape, Field: f.Name,
				Reason: fmt.Sprintf("optional element kind %s is not a scalar", f.Elem)}
		}
	default:
		return &SchemaError{Shape: shape, Field: f.Name,
			Reason: fmt.Sprintf("unsupported field kind %s", f.Kind)}
	}
	return nil
}

// reaches reports whether target is reachable from s through nested
// fields. Shapes are immutable after New, so this terminates.
func (s *Shape) reaches(target *Shape) bool {
	if s == target {
		return true
	}
	for _, f := range s.fields {
		if f.Kind == KindNested && f.Shape.reaches(target) {
			return true
		}
	}
	return false
}

// Name returns the shape's name.
func (s *Shape) Name() string { return s.name }

// Len returns the number of fields, including Skip fields.
func (s *Shape) Len() int { return len(s.fields) }

// Field returns the descriptor at position i.
func (s *Shape) Field(i int) Field { return s.fields[i] }

// Fields returns the ordered descriptor list. Callers must treat the
// returned slice as read-only.
func (s *Shape) Fields() []Field { return s.fields }

// WireCount returns the number of fields with a wire representation,
// which is the element count of the record's top-level item.
func (s *Shape) WireCount() int { return s.wireCount }

// Index returns the position of the named field, or -1 if absent.
func (s *Shape) Index(name string) int {
	for i, f := range s.fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}
