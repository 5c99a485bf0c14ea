package codec

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/ssargent/sigil/pkg/schema"
)

// value is the storage slot for one field. Scalars live in the class
// slot for their kind (signed, unsigned, float, bool); text content
// lives in a buffer sized to the field's capacity; arrays and nested
// records hold pre-allocated element storage.
type value struct {
	b       bool
	i       int64
	u       uint64
	f       float64
	buf     []byte // text content buffer, len == field capacity
	n       int    // text content length
	elems   []value
	rec     *Record
	present bool
}

// Record is one instance of a Shape. All field storage, including the
// buffers behind text and optional members, is allocated once by
// NewRecord; encode and decode only read and populate it. A Record is
// not safe for concurrent use.
type Record struct {
	shape  *schema.Shape
	fields []value
}

// NewRecord constructs a zero-valued Record with every field's storage
// pre-allocated, ready to be populated or used as a decode target.
func NewRecord(s *schema.Shape) *Record {
	r := &Record{shape: s, fields: make([]value, s.Len())}
	for i, f := range s.Fields() {
		switch f.Kind {
		case schema.KindFixedText, schema.KindOptionalText:
			r.fields[i].buf = make([]byte, f.Capacity)
		case schema.KindFixedArray:
			r.fields[i].elems = make([]value, f.Count)
		case schema.KindNested:
			r.fields[i].rec = NewRecord(f.Shape)
		}
	}
	return r
}

// Shape returns the shape this record is an instance of.
func (r *Record) Shape() *schema.Shape { return r.shape }

// field returns the storage slot at position i, panicking if the field
// is not of the wanted kind. Kind misuse is a programming error, not a
// data error.
func (r *Record) field(i int, want schema.Kind) *value {
	f := r.shape.Field(i)
	if f.Kind != want {
		panic(fmt.Sprintf("codec: field %d (%s) of shape %s is %s, not %s",
			i, f.Name, r.shape.Name(), f.Kind, want))
	}
	return &r.fields[i]
}

// SetBool sets a bool field.
func (r *Record) SetBool(i int, v bool) { r.field(i, schema.KindBool).b = v }

// Bool returns a bool field.
func (r *Record) Bool(i int) bool { return r.field(i, schema.KindBool).b }

// SetInt32 sets an int32 field.
func (r *Record) SetInt32(i int, v int32) { r.field(i, schema.KindInt32).i = int64(v) }

// Int32 returns an int32 field.
func (r *Record) Int32(i int) int32 { return int32(r.field(i, schema.KindInt32).i) }

// SetInt64 sets an int64 field.
func (r *Record) SetInt64(i int, v int64) { r.field(i, schema.KindInt64).i = v }

// Int64 returns an int64 field.
func (r *Record) Int64(i int) int64 { return r.field(i, schema.KindInt64).i }

// SetUint8 sets a uint8 field.
func (r *Record) SetUint8(i int, v uint8) { r.field(i, schema.KindUint8).u = uint64(v) }

// Uint8 returns a uint8 field.
func (r *Record) Uint8(i int) uint8 { return uint8(r.field(i, schema.KindUint8).u) }

// SetUint32 sets a uint32 field.
func (r *Record) SetUint32(i int, v uint32) { r.field(i, schema.KindUint32).u = uint64(v) }

// Uint32 returns a uint32 field.
func (r *Record) Uint32(i int) uint32 { return uint32(r.field(i, schema.KindUint32).u) }

// SetUint64 sets a uint64 field.
func (r *Record) SetUint64(i int, v uint64) { r.field(i, schema.KindUint64).u = v }

// Uint64 returns a uint64 field.
func (r *Record) Uint64(i int) uint64 { return r.field(i, schema.KindUint64).u }

// SetFloat32 sets a float32 field.
func (r *Record) SetFloat32(i int, v float32) { r.field(i, schema.KindFloat32).f = float64(v) }

// Float32 returns a float32 field.
func (r *Record) Float32(i int) float32 { return float32(r.field(i, schema.KindFloat32).f) }

// SetFloat64 sets a float64 field.
func (r *Record) SetFloat64(i int, v float64) { r.field(i, schema.KindFloat64).f = v }

// Float64 returns a float64 field.
func (r *Record) Float64(i int) float64 { return r.field(i, schema.KindFloat64).f }

// SetText copies content into a fixed text field's buffer. It fails
// with ErrCapacity if the content does not leave room for the
// terminator slot (content must be at most capacity-1 bytes).
func (r *Record) SetText(i int, content string) error {
	f := r.shape.Field(i)
	v := r.field(i, schema.KindFixedText)
	if len(content) > f.Capacity-1 {
		return errors.Wrapf(ErrCapacity, "field %q: %d bytes, capacity %d", f.Name, len(content), f.Capacity)
	}
	copy(v.buf, content)
	v.n = len(content)
	return nil
}

// Text returns a fixed text field's content.
func (r *Record) Text(i int) string {
	v := r.field(i, schema.KindFixedText)
	return string(v.buf[:v.n])
}

func (r *Record) arraySlot(i, j int) (*value, schema.Field) {
	f := r.shape.Field(i)
	v := r.field(i, schema.KindFixedArray)
	if j < 0 || j >= f.Count {
		panic(fmt.Sprintf("codec: element %d out of range for field %q of count %d", j, f.Name, f.Count))
	}
	return &v.elems[j], f
}

// SetElemInt sets element j of a signed-integer array field. The value
// must fit the declared element width.
func (r *Record) SetElemInt(i, j int, v int64) {
	slot, f := r.arraySlot(i, j)
	checkSigned(f, v)
	slot.i = v
}

// ElemInt returns element j of a signed-integer array field.
func (r *Record) ElemInt(i, j int) int64 {
	slot, f := r.arraySlot(i, j)
	checkClass(f, schema.KindInt32, schema.KindInt64)
	return slot.i
}

// SetElemUint sets element j of an unsigned-integer array field. The
// value must fit the declared element width.
func (r *Record) SetElemUint(i, j int, v uint64) {
	slot, f := r.arraySlot(i, j)
	checkUnsigned(f, v)
	slot.u = v
}

// ElemUint returns element j of an unsigned-integer array field.
func (r *Record) ElemUint(i, j int) uint64 {
	slot, f := r.arraySlot(i, j)
	checkClass(f, schema.KindUint8, schema.KindUint32, schema.KindUint64)
	return slot.u
}

// SetElemFloat sets element j of a float array field.
func (r *Record) SetElemFloat(i, j int, v float64) {
	slot, f := r.arraySlot(i, j)
	checkClass(f, schema.KindFloat32, schema.KindFloat64)
	slot.f = v
}

// ElemFloat returns element j of a float array field.
func (r *Record) ElemFloat(i, j int) float64 {
	slot, f := r.arraySlot(i, j)
	checkClass(f, schema.KindFloat32, schema.KindFloat64)
	return slot.f
}

// SetElemBool sets element j of a bool array field.
func (r *Record) SetElemBool(i, j int, v bool) {
	slot, f := r.arraySlot(i, j)
	checkClass(f, schema.KindBool)
	slot.b = v
}

// ElemBool returns element j of a bool array field.
func (r *Record) ElemBool(i, j int) bool {
	slot, f := r.arraySlot(i, j)
	checkClass(f, schema.KindBool)
	return slot.b
}

// Nested returns the pre-allocated record behind a nested field.
func (r *Record) Nested(i int) *Record { return r.field(i, schema.KindNested).rec }

// SetOptionalText marks an optional text field present and copies
// content into its buffer, failing with ErrCapacity on overflow.
func (r *Record) SetOptionalText(i int, content string) error {
	f := r.shape.Field(i)
	v := r.field(i, schema.KindOptionalText)
	if len(content) > f.Capacity-1 {
		return errors.Wrapf(ErrCapacity, "field %q: %d bytes, capacity %d", f.Name, len(content), f.Capacity)
	}
	copy(v.buf, content)
	v.n = len(content)
	v.present = true
	return nil
}

// OptionalText returns an optional text field's content and whether
// the field is present.
func (r *Record) OptionalText(i int) (string, bool) {
	v := r.field(i, schema.KindOptionalText)
	if !v.present {
		return "", false
	}
	return string(v.buf[:v.n]), true
}

func (r *Record) optionalScalar(i int) (*value, schema.Field) {
	f := r.shape.Field(i)
	return r.field(i, schema.KindOptionalScalar), f
}

// SetOptionalInt marks an optional signed-integer field present.
func (r *Record) SetOptionalInt(i int, v int64) {
	slot, f := r.optionalScalar(i)
	checkSigned(f, v)
	slot.i = v
	slot.present = true
}

// OptionalInt returns an optional signed-integer field's value and
// whether it is present.
func (r *Record) OptionalInt(i int) (int64, bool) {
	slot, f := r.optionalScalar(i)
	checkClass(f, schema.KindInt32, schema.KindInt64)
	return slot.i, slot.present
}

// SetOptionalUint marks an optional unsigned-integer field present.
func (r *Record) SetOptionalUint(i int, v uint64) {
	slot, f := r.optionalScalar(i)
	checkUnsigned(f, v)
	slot.u = v
	slot.present = true
}

// OptionalUint returns an optional unsigned-integer field's value and
// whether it is present.
func (r *Record) OptionalUint(i int) (uint64, bool) {
	slot, f := r.optionalScalar(i)
	checkClass(f, schema.KindUint8, schema.KindUint32, schema.KindUint64)
	return slot.u, slot.present
}

// SetOptionalFloat marks an optional float field present.
func (r *Record) SetOptionalFloat(i int, v float64) {
	slot, f := r.optionalScalar(i)
	checkClass(f, schema.KindFloat32, schema.KindFloat64)
	slot.f = v
	slot.present = true
}

// OptionalFloat returns an optional float field's value and whether it
// is present.
func (r *Record) OptionalFloat(i int) (float64, bool) {
	slot, f := r.optionalScalar(i)
	checkClass(f, schema.KindFloat32, schema.KindFloat64)
	return slot.f, slot.present
}

// SetOptionalBool marks an optional bool field present.
func (r *Record) SetOptionalBool(i int, v bool) {
	slot, f := r.optionalScalar(i)
	checkClass(f, schema.KindBool)
	slot.b = v
	slot.present = true
}

// OptionalBool returns an optional bool field's value and whether it
// is present.
func (r *Record) OptionalBool(i int) (bool, bool) {
	slot, f := r.optionalScalar(i)
	checkClass(f, schema.KindBool)
	return slot.b, slot.present
}

// ClearOptional marks an optional field absent and zeroes its storage.
func (r *Record) ClearOptional(i int) {
	f := r.shape.Field(i)
	if f.Kind != schema.KindOptionalText && f.Kind != schema.KindOptionalScalar {
		panic(fmt.Sprintf("codec: field %d (%s) of shape %s is %s, not optional",
			i, f.Name, r.shape.Name(), f.Kind))
	}
	v := &r.fields[i]
	v.present = false
	v.n = 0
	v.b, v.i, v.u, v.f = false, 0, 0, 0
}

// OptionalPresent reports whether an optional field is present.
func (r *Record) OptionalPresent(i int) bool {
	f := r.shape.Field(i)
	if f.Kind != schema.KindOptionalText && f.Kind != schema.KindOptionalScalar {
		panic(fmt.Sprintf("codec: field %d (%s) of shape %s is %s, not optional",
			i, f.Name, r.shape.Name(), f.Kind))
	}
	return r.fields[i].present
}

// Reset zeroes every field, marking optional fields absent. Buffers
// and nested records are retained, not reallocated.
func (r *Record) Reset() {
	for i := range r.fields {
		v := &r.fields[i]
		v.b, v.i, v.u, v.f = false, 0, 0, 0
		v.n = 0
		v.present = false
		for j := range v.elems {
			e := &v.elems[j]
			e.b, e.i, e.u, e.f = false, 0, 0, 0
		}
		if v.rec != nil {
			v.rec.Reset()
		}
	}
}

// Equal reports whether two records of the same shape hold the same
// field values. Records of different shapes are never equal.
func (r *Record) Equal(o *Record) bool {
	if r.shape != o.shape {
		return false
	}
	for i, f := range r.shape.Fields() {
		a, b := &r.fields[i], &o.fields[i]
		switch f.Kind {
		case schema.KindSkip:
			continue
		case schema.KindFixedText:
			if a.n != b.n || string(a.buf[:a.n]) != string(b.buf[:b.n]) {
				return false
			}
		case schema.KindFixedArray:
			for j := range a.elems {
				if !scalarEqual(f.Elem, &a.elems[j], &b.elems[j]) {
					return false
				}
			}
		case schema.KindNested:
			if !a.rec.Equal(b.rec) {
				return false
			}
		case schema.KindOptionalText:
			if a.present != b.present {
				return false
			}
			if a.present && (a.n != b.n || string(a.buf[:a.n]) != string(b.buf[:b.n])) {
				return false
			}
		case schema.KindOptionalScalar:
			if a.present != b.present {
				return false
			}
			if a.present && !scalarEqual(f.Elem, a, b) {
				return false
			}
		default:
			if !scalarEqual(f.Kind, a, b) {
				return false
			}
		}
	}
	return true
}

func scalarEqual(k schema.Kind, a, b *value) bool {
	switch k {
	case schema.KindBool:
		return a.b == b.b
	case schema.KindInt32, schema.KindInt64:
		return a.i == b.i
	case schema.KindUint8, schema.KindUint32, schema.KindUint64:
		return a.u == b.u
	default:
		return a.f == b.f
	}
}

// checkClass panics unless the field's element kind is one of allowed.
func checkClass(f schema.Field, allowed ...schema.Kind) {
	for _, k := range allowed {
		if f.Elem == k {
			return
		}
	}
	panic(fmt.Sprintf("codec: field %q has element kind %s", f.Name, f.Elem))
}

func checkSigned(f schema.Field, v int64) {
	checkClass(f, schema.KindInt32, schema.KindInt64)
	if f.Elem == schema.KindInt32 && (v < math.MinInt32 || v > math.MaxInt32) {
		panic(fmt.Sprintf("codec: value %d out of range for int32 field %q", v, f.Name))
	}
}

func checkUnsigned(f schema.Field, v uint64) {
	checkClass(f, schema.KindUint8, schema.KindUint32, schema.KindUint64)
	switch f.Elem {
	case schema.KindUint8:
		if v > math.MaxUint8 {
			panic(fmt.Sprintf("codec: value %d out of range for uint8 field %q", v, f.Name))
		}
	case schema.KindUint32:
		if v > math.MaxUint32 {
			panic(fmt.Sprintf("codec: value %d out of range for uint32 field %q", v, f.Name))
		}
	}
}
