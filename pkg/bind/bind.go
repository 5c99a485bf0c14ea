package bind

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ssargent/sigil/pkg/codec"
	"github.com/ssargent/sigil/pkg/schema"
)

// ShapeFor derives a Shape from a struct type. The prototype may be a
// struct value or a pointer to one; only exported fields participate.
//
// Field mapping:
//
//   - bool, int32, int/int64, uint8, uint32, uint/uint64, float32,
//     float64 map to the corresponding scalar kind
//   - string requires a `sigil:"name,cap=N"` tag and maps to a fixed
//     text field of capacity N
//   - [N]T of a scalar type maps to a fixed array
//   - a named struct type maps to a nested shape, derived recursively
//   - *string (with cap=N) and pointers to scalars map to optional
//     fields
//   - func-typed fields and fields tagged `sigil:"-"` map to Skip
//
// The tag's first element overrides the field name used in
// diagnostics.
func ShapeFor(name string, prototype any) (*schema.Shape, error) {
	t := reflect.TypeOf(prototype)
	if t == nil {
		return nil, errors.New("bind: nil prototype")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, errors.Newf("bind: prototype %s is not a struct", t)
	}
	return shapeForType(name, t)
}

func shapeForType(name string, t reflect.Type) (*schema.Shape, error) {
	var fields []schema.Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		f, err := fieldFor(sf)
		if err != nil {
			return nil, errors.Wrapf(err, "struct %s field %s", t.Name(), sf.Name)
		}
		fields = append(fields, f)
	}
	return schema.New(name, fields...)
}

func fieldFor(sf reflect.StructField) (schema.Field, error) {
	name, capacity, skip, err := parseTag(sf)
	if err != nil {
		return schema.Field{}, err
	}
	if skip {
		return schema.Skip(name), nil
	}

	t := sf.Type
	if k, ok := scalarKindOf(t.Kind()); ok {
		return schema.Field{Name: name, Kind: k}, nil
	}

	switch t.Kind() {
	case reflect.String:
		if capacity == 0 {
			return schema.Field{}, errors.New("string field needs a cap=N tag option")
		}
		return schema.Text(name, capacity), nil

	case reflect.Array:
		elem, ok := scalarKindOf(t.Elem().Kind())
		if !ok {
			return schema.Field{}, errors.Newf("array element type %s is not a supported scalar", t.Elem())
		}
		return schema.Array(name, elem, t.Len()), nil

	case reflect.Struct:
		if t.Name() == "" {
			return schema.Field{}, errors.New("nested struct types must be named")
		}
		nested, err := shapeForType(t.Name(), t)
		if err != nil {
			return schema.Field{}, err
		}
		return schema.Nested(name, nested), nil

	case reflect.Pointer:
		if t.Elem().Kind() == reflect.String {
			if capacity == 0 {
				return schema.Field{}, errors.New("optional string field needs a cap=N tag option")
			}
			return schema.OptionalText(name, capacity), nil
		}
		elem, ok := scalarKindOf(t.Elem().Kind())
		if !ok {
			return schema.Field{}, errors.Newf("pointer to %s is not a supported optional", t.Elem())
		}
		return schema.OptionalScalar(name, elem), nil

	case reflect.Func:
		// Function-valued members have no binary representation.
		return schema.Skip(name), nil

	default:
		return schema.Field{}, errors.Newf("unsupported field type %s", t)
	}
}

func parseTag(sf reflect.StructField) (name string, capacity int, skip bool, err error) {
	name = sf.Name
	tag, ok := sf.Tag.Lookup("sigil")
	if !ok {
		return name, 0, false, nil
	}
	parts := strings.Split(tag, ",")
	if parts[0] == "-" {
		return name, 0, true, nil
	}
	if parts[0] != "" {
		name = parts[0]
	}
	for _, opt := range parts[1:] {
		value, found := strings.CutPrefix(opt, "cap=")
		if !found {
			return "", 0, false, errors.Newf("unknown tag option %q", opt)
		}
		capacity, err = strconv.Atoi(value)
		if err != nil {
			return "", 0, false, errors.Newf("bad capacity %q", value)
		}
	}
	return name, capacity, false, nil
}

func scalarKindOf(k reflect.Kind) (schema.Kind, bool) {
	switch k {
	case reflect.Bool:
		return schema.KindBool, true
	case reflect.Int32:
		return schema.KindInt32, true
	case reflect.Int, reflect.Int64:
		return schema.KindInt64, true
	case reflect.Uint8:
		return schema.KindUint8, true
	case reflect.Uint32:
		return schema.KindUint32, true
	case reflect.Uint, reflect.Uint64:
		return schema.KindUint64, true
	case reflect.Float32:
		return schema.KindFloat32, true
	case reflect.Float64:
		return schema.KindFloat64, true
	default:
		return schema.KindInvalid, false
	}
}

// Fill copies a struct's exported fields into a record of the shape
// ShapeFor derived from the same struct type.
func Fill(rec *codec.Record, src any) error {
	v := reflect.ValueOf(src)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return errors.Newf("bind: source %s is not a struct", v.Type())
	}
	return fillStruct(rec, v)
}

func fillStruct(rec *codec.Record, v reflect.Value) error {
	t := v.Type()
	if err := checkArity(t, rec); err != nil {
		return err
	}
	idx := 0
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if err := fillField(rec, idx, rec.Shape().Field(idx), v.Field(i)); err != nil {
			return errors.Wrapf(err, "struct %s field %s", t.Name(), sf.Name)
		}
		idx++
	}
	return nil
}

// checkArity verifies the struct's exported field count matches the
// shape's field count before any positional access.
func checkArity(t reflect.Type, rec *codec.Record) error {
	n := 0
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).IsExported() {
			n++
		}
	}
	if n != rec.Shape().Len() {
		return errors.Newf("bind: struct %s has %d usable fields, shape %s has %d",
			t.Name(), n, rec.Shape().Name(), rec.Shape().Len())
	}
	return nil
}

func fillField(rec *codec.Record, i int, f schema.Field, v reflect.Value) error {
	switch f.Kind {
	case schema.KindSkip:
		return nil
	case schema.KindBool:
		rec.SetBool(i, v.Bool())
	case schema.KindInt32:
		rec.SetInt32(i, int32(v.Int()))
	case schema.KindInt64:
		rec.SetInt64(i, v.Int())
	case schema.KindUint8:
		rec.SetUint8(i, uint8(v.Uint()))
	case schema.KindUint32:
		rec.SetUint32(i, uint32(v.Uint()))
	case schema.KindUint64:
		rec.SetUint64(i, v.Uint())
	case schema.KindFloat32:
		rec.SetFloat32(i, float32(v.Float()))
	case schema.KindFloat64:
		rec.SetFloat64(i, v.Float())
	case schema.KindFixedText:
		return rec.SetText(i, v.String())
	case schema.KindFixedArray:
		for j := 0; j < v.Len(); j++ {
			setElem(rec, i, j, f.Elem, v.Index(j))
		}
	case schema.KindNested:
		return fillStruct(rec.Nested(i), v)
	case schema.KindOptionalText:
		if v.IsNil() {
			rec.ClearOptional(i)
			return nil
		}
		return rec.SetOptionalText(i, v.Elem().String())
	case schema.KindOptionalScalar:
		if v.IsNil() {
			rec.ClearOptional(i)
			return nil
		}
		setOptional(rec, i, f.Elem, v.Elem())
	}
	return nil
}

func setElem(rec *codec.Record, i, j int, elem schema.Kind, v reflect.Value) {
	switch elem {
	case schema.KindBool:
		rec.SetElemBool(i, j, v.Bool())
	case schema.KindInt32, schema.KindInt64:
		rec.SetElemInt(i, j, v.Int())
	case schema.KindUint8, schema.KindUint32, schema.KindUint64:
		rec.SetElemUint(i, j, v.Uint())
	default:
		rec.SetElemFloat(i, j, v.Float())
	}
}

func setOptional(rec *codec.Record, i int, elem schema.Kind, v reflect.Value) {
	switch elem {
	case schema.KindBool:
		rec.SetOptionalBool(i, v.Bool())
	case schema.KindInt32, schema.KindInt64:
		rec.SetOptionalInt(i, v.Int())
	case schema.KindUint8, schema.KindUint32, schema.KindUint64:
		rec.SetOptionalUint(i, v.Uint())
	default:
		rec.SetOptionalFloat(i, v.Float())
	}
}

// Extract copies a record's fields into a struct of the type the
// record's shape was derived from. dst must be a non-nil struct
// pointer. Absent optional fields set the destination pointer to nil;
// present ones allocate the pointee if needed.
func Extract(dst any, rec *codec.Record) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return errors.Newf("bind: destination must be a non-nil struct pointer, got %T", dst)
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return errors.Newf("bind: destination %s is not a struct", v.Type())
	}
	return extractStruct(v, rec)
}

func extractStruct(v reflect.Value, rec *codec.Record) error {
	t := v.Type()
	if err := checkArity(t, rec); err != nil {
		return err
	}
	idx := 0
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if err := extractField(v.Field(i), rec, idx, rec.Shape().Field(idx)); err != nil {
			return errors.Wrapf(err, "struct %s field %s", t.Name(), sf.Name)
		}
		idx++
	}
	return nil
}

func extractField(v reflect.Value, rec *codec.Record, i int, f schema.Field) error {
	switch f.Kind {
	case schema.KindSkip:
		return nil
	case schema.KindBool:
		v.SetBool(rec.Bool(i))
	case schema.KindInt32:
		v.SetInt(int64(rec.Int32(i)))
	case schema.KindInt64:
		v.SetInt(rec.Int64(i))
	case schema.KindUint8:
		v.SetUint(uint64(rec.Uint8(i)))
	case schema.KindUint32:
		v.SetUint(uint64(rec.Uint32(i)))
	case schema.KindUint64:
		v.SetUint(rec.Uint64(i))
	case schema.KindFloat32:
		v.SetFloat(float64(rec.Float32(i)))
	case schema.KindFloat64:
		v.SetFloat(rec.Float64(i))
	case schema.KindFixedText:
		v.SetString(rec.Text(i))
	case schema.KindFixedArray:
		for j := 0; j < v.Len(); j++ {
			getElem(v.Index(j), rec, i, j, f.Elem)
		}
	case schema.KindNested:
		return extractStruct(v, rec.Nested(i))
	case schema.KindOptionalText:
		content, present := rec.OptionalText(i)
		if !present {
			v.SetZero()
			return nil
		}
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		v.Elem().SetString(content)
	case schema.KindOptionalScalar:
		if !rec.OptionalPresent(i) {
			v.SetZero()
			return nil
		}
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		getOptional(v.Elem(), rec, i, f.Elem)
	}
	return nil
}

func getElem(v reflect.Value, rec *codec.Record, i, j int, elem schema.Kind) {
	switch elem {
	case schema.KindBool:
		v.SetBool(rec.ElemBool(i, j))
	case schema.KindInt32, schema.KindInt64:
		v.SetInt(rec.ElemInt(i, j))
	case schema.KindUint8, schema.KindUint32, schema.KindUint64:
		v.SetUint(rec.ElemUint(i, j))
	default:
		v.SetFloat(rec.ElemFloat(i, j))
	}
}

func getOptional(v reflect.Value, rec *codec.Record, i int, elem schema.Kind) {
	switch elem {
	case schema.KindBool:
		b, _ := rec.OptionalBool(i)
		v.SetBool(b)
	case schema.KindInt32, schema.KindInt64:
		n, _ := rec.OptionalInt(i)
		v.SetInt(n)
	case schema.KindUint8, schema.KindUint32, schema.KindUint64:
		u, _ := rec.OptionalUint(i)
		v.SetUint(u)
	default:
		x, _ := rec.OptionalFloat(i)
		v.SetFloat(x)
	}
}
