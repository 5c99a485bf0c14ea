package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/ssargent/sigil/pkg/codec"
	"github.com/ssargent/sigil/pkg/schema"
)

// maxEncodedSize bounds the encode buffer growth.
const maxEncodedSize = 1 << 20

// encodeRecord encodes rec into a freshly sized buffer, doubling on
// ErrBufferFull.
func encodeRecord(rec *codec.Record) ([]byte, error) {
	size := 256
	for {
		buf := make([]byte, size)
		n, err := codec.Encode(buf, rec)
		if err == nil {
			return buf[:n], nil
		}
		if !errors.Is(err, codec.ErrBufferFull) || size >= maxEncodedSize {
			return nil, err
		}
		size *= 2
	}
}

// recordFromJSON populates rec from a JSON object keyed by field name.
// Missing keys leave scalar fields zero and mark optional fields
// absent; explicit null also marks an optional field absent.
func recordFromJSON(rec *codec.Record, data []byte) error {
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parse record JSON: %w", err)
	}
	return fillFromMap(rec, values)
}

func fillFromMap(rec *codec.Record, values map[string]any) error {
	for i, f := range rec.Shape().Fields() {
		raw, ok := values[f.Name]
		if err := fillFieldFromJSON(rec, i, f, raw, ok); err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
	}
	return nil
}

func fillFieldFromJSON(rec *codec.Record, i int, f schema.Field, raw any, ok bool) error {
	switch f.Kind {
	case schema.KindSkip:
		return nil

	case schema.KindOptionalText:
		if !ok || raw == nil {
			rec.ClearOptional(i)
			return nil
		}
		s, good := raw.(string)
		if !good {
			return fmt.Errorf("expected string, got %T", raw)
		}
		return rec.SetOptionalText(i, s)

	case schema.KindOptionalScalar:
		if !ok || raw == nil {
			rec.ClearOptional(i)
			return nil
		}
		return setOptionalFromJSON(rec, i, f.Elem, raw)
	}

	if !ok {
		return nil
	}

	switch f.Kind {
	case schema.KindBool:
		b, good := raw.(bool)
		if !good {
			return fmt.Errorf("expected bool, got %T", raw)
		}
		rec.SetBool(i, b)

	case schema.KindInt32, schema.KindInt64, schema.KindUint8, schema.KindUint32,
		schema.KindUint64, schema.KindFloat32, schema.KindFloat64:
		num, good := raw.(float64)
		if !good {
			return fmt.Errorf("expected number, got %T", raw)
		}
		return setScalarFromNumber(rec, i, f.Kind, num)

	case schema.KindFixedText:
		s, good := raw.(string)
		if !good {
			return fmt.Errorf("expected string, got %T", raw)
		}
		return rec.SetText(i, s)

	case schema.KindFixedArray:
		arr, good := raw.([]any)
		if !good {
			return fmt.Errorf("expected array, got %T", raw)
		}
		if len(arr) != f.Count {
			return fmt.Errorf("expected %d elements, got %d", f.Count, len(arr))
		}
		for j, e := range arr {
			num, good := e.(float64)
			if f.Elem == schema.KindBool {
				b, bok := e.(bool)
				if !bok {
					return fmt.Errorf("element %d: expected bool, got %T", j, e)
				}
				rec.SetElemBool(i, j, b)
				continue
			}
			if !good {
				return fmt.Errorf("element %d: expected number, got %T", j, e)
			}
			if err := setElemFromNumber(rec, i, j, f.Elem, num); err != nil {
				return fmt.Errorf("element %d: %w", j, err)
			}
		}

	case schema.KindNested:
		m, good := raw.(map[string]any)
		if !good {
			return fmt.Errorf("expected object, got %T", raw)
		}
		return fillFromMap(rec.Nested(i), m)
	}
	return nil
}

// checkNumber verifies a JSON number fits the target kind before any
// narrowing conversion. Out-of-range or fractional values fail instead
// of silently wrapping.
func checkNumber(k schema.Kind, num float64) error {
	if k == schema.KindFloat32 || k == schema.KindFloat64 {
		return nil
	}
	if num != math.Trunc(num) {
		return fmt.Errorf("number %v is not an integer", num)
	}
	// The 64-bit bounds are the largest float64 values at or below the
	// integer maxima; float64 cannot represent any value between them
	// and the true maxima.
	var lo, hi float64
	switch k {
	case schema.KindInt32:
		lo, hi = math.MinInt32, math.MaxInt32
	case schema.KindInt64:
		lo, hi = -(1 << 63), 1<<63 - 1<<10
	case schema.KindUint8:
		lo, hi = 0, math.MaxUint8
	case schema.KindUint32:
		lo, hi = 0, math.MaxUint32
	case schema.KindUint64:
		lo, hi = 0, 1<<64 - 1<<11
	}
	if num < lo || num > hi {
		return fmt.Errorf("number %v out of range for %s", num, k)
	}
	return nil
}

func setScalarFromNumber(rec *codec.Record, i int, k schema.Kind, num float64) error {
	if err := checkNumber(k, num); err != nil {
		return err
	}
	switch k {
	case schema.KindInt32:
		rec.SetInt32(i, int32(num))
	case schema.KindInt64:
		rec.SetInt64(i, int64(num))
	case schema.KindUint8:
		rec.SetUint8(i, uint8(num))
	case schema.KindUint32:
		rec.SetUint32(i, uint32(num))
	case schema.KindUint64:
		rec.SetUint64(i, uint64(num))
	case schema.KindFloat32:
		rec.SetFloat32(i, float32(num))
	default:
		rec.SetFloat64(i, num)
	}
	return nil
}

func setElemFromNumber(rec *codec.Record, i, j int, elem schema.Kind, num float64) error {
	if err := checkNumber(elem, num); err != nil {
		return err
	}
	switch elem {
	case schema.KindInt32, schema.KindInt64:
		rec.SetElemInt(i, j, int64(num))
	case schema.KindUint8, schema.KindUint32, schema.KindUint64:
		rec.SetElemUint(i, j, uint64(num))
	default:
		rec.SetElemFloat(i, j, num)
	}
	return nil
}

func setOptionalFromJSON(rec *codec.Record, i int, elem schema.Kind, raw any) error {
	if elem == schema.KindBool {
		b, good := raw.(bool)
		if !good {
			return fmt.Errorf("expected bool, got %T", raw)
		}
		rec.SetOptionalBool(i, b)
		return nil
	}
	num, good := raw.(float64)
	if !good {
		return fmt.Errorf("expected number, got %T", raw)
	}
	if err := checkNumber(elem, num); err != nil {
		return err
	}
	switch elem {
	case schema.KindInt32, schema.KindInt64:
		rec.SetOptionalInt(i, int64(num))
	case schema.KindUint8, schema.KindUint32, schema.KindUint64:
		rec.SetOptionalUint(i, uint64(num))
	default:
		rec.SetOptionalFloat(i, num)
	}
	return nil
}

// recordToJSON renders rec as an indented JSON object keyed by field
// name. Absent optional fields are omitted; Skip fields never appear.
func recordToJSON(rec *codec.Record) ([]byte, error) {
	return json.MarshalIndent(recordToMap(rec), "", "  ")
}

func recordToMap(rec *codec.Record) map[string]any {
	out := make(map[string]any)
	for i, f := range rec.Shape().Fields() {
		switch f.Kind {
		case schema.KindSkip:
			// no value
		case schema.KindBool:
			out[f.Name] = rec.Bool(i)
		case schema.KindInt32:
			out[f.Name] = rec.Int32(i)
		case schema.KindInt64:
			out[f.Name] = rec.Int64(i)
		case schema.KindUint8:
			out[f.Name] = rec.Uint8(i)
		case schema.KindUint32:
			out[f.Name] = rec.Uint32(i)
		case schema.KindUint64:
			out[f.Name] = rec.Uint64(i)
		case schema.KindFloat32:
			out[f.Name] = rec.Float32(i)
		case schema.KindFloat64:
			out[f.Name] = rec.Float64(i)
		case schema.KindFixedText:
			out[f.Name] = rec.Text(i)
		case schema.KindFixedArray:
			arr := make([]any, f.Count)
			for j := 0; j < f.Count; j++ {
				arr[j] = elemToAny(rec, i, j, f.Elem)
			}
			out[f.Name] = arr
		case schema.KindNested:
			out[f.Name] = recordToMap(rec.Nested(i))
		case schema.KindOptionalText:
			if s, present := rec.OptionalText(i); present {
				out[f.Name] = s
			}
		case schema.KindOptionalScalar:
			if rec.OptionalPresent(i) {
				out[f.Name] = optionalToAny(rec, i, f.Elem)
			}
		}
	}
	return out
}

func elemToAny(rec *codec.Record, i, j int, elem schema.Kind) any {
	switch elem {
	case schema.KindBool:
		return rec.ElemBool(i, j)
	case schema.KindInt32, schema.KindInt64:
		return rec.ElemInt(i, j)
	case schema.KindUint8, schema.KindUint32, schema.KindUint64:
		return rec.ElemUint(i, j)
	default:
		return rec.ElemFloat(i, j)
	}
}

func optionalToAny(rec *codec.Record, i int, elem schema.Kind) any {
	switch elem {
	case schema.KindBool:
		v, _ := rec.OptionalBool(i)
		return v
	case schema.KindInt32, schema.KindInt64:
		v, _ := rec.OptionalInt(i)
		return v
	case schema.KindUint8, schema.KindUint32, schema.KindUint64:
		v, _ := rec.OptionalUint(i)
		return v
	default:
		v, _ := rec.OptionalFloat(i)
		return v
	}
}
