package codec

import (
	"math"

	"github.com/cockroachdb/errors"

	"github.com/ssargent/sigil/pkg/schema"
	"github.com/ssargent/sigil/pkg/wire"
)

// Decode populates rec from a record encoded by Encode. The target
// record supplies all storage; Decode allocates nothing. Decode is
// all-or-nothing per record: on error, fields decoded before the
// failure may already be populated and the caller must discard the
// whole record. Input that does not match rec's shape fails with
// ErrShapeMismatch or ErrTypeMismatch; truncated or malformed input
// fails with ErrTruncated; text content that would not fit a declared
// capacity fails with ErrOverflow before any out-of-bounds write.
func Decode(data []byte, rec *Record) error {
	r := wire.NewReader(data)
	if err := decodeRecord(r, rec); err != nil {
		return err
	}
	if r.Remaining() > 0 {
		return errors.Wrapf(ErrShapeMismatch, "%d trailing bytes after record", r.Remaining())
	}
	return nil
}

func decodeRecord(r *wire.Reader, rec *Record) error {
	s := rec.shape
	n, err := r.ReadArrayHeader()
	if err != nil {
		return errors.Wrapf(coerceWireErr(err), "shape %q", s.Name())
	}
	if n != s.WireCount() {
		return errors.Wrapf(ErrShapeMismatch, "shape %q: wire count %d, schema count %d",
			s.Name(), n, s.WireCount())
	}
	for i, f := range s.Fields() {
		if err := decodeField(r, f, &rec.fields[i]); err != nil {
			return errors.Wrapf(err, "shape %q field %q", s.Name(), f.Name)
		}
	}
	return nil
}

func decodeField(r *wire.Reader, f schema.Field, v *value) error {
	switch f.Kind {
	case schema.KindSkip:
		return nil
	case schema.KindFixedText:
		return decodeText(r, f, v)
	case schema.KindFixedArray:
		n, err := r.ReadArrayHeader()
		if err != nil {
			return coerceWireErr(err)
		}
		if n != f.Count {
			return errors.Wrapf(ErrShapeMismatch, "wire count %d, schema count %d", n, f.Count)
		}
		for j := range v.elems {
			if err := decodeScalar(r, f.Elem, &v.elems[j]); err != nil {
				return err
			}
		}
		return nil
	case schema.KindNested:
		return decodeRecord(r, v.rec)
	case schema.KindOptionalText:
		t, err := r.PeekType()
		if err != nil {
			return coerceWireErr(err)
		}
		if t == wire.TypeNull {
			if err := r.ReadNull(); err != nil {
				return coerceWireErr(err)
			}
			v.present = false
			v.n = 0
			return nil
		}
		if err := decodeText(r, f, v); err != nil {
			return err
		}
		v.present = true
		return nil
	case schema.KindOptionalScalar:
		t, err := r.PeekType()
		if err != nil {
			return coerceWireErr(err)
		}
		if t == wire.TypeNull {
			if err := r.ReadNull(); err != nil {
				return coerceWireErr(err)
			}
			v.present = false
			v.b, v.i, v.u, v.f = false, 0, 0, 0
			return nil
		}
		if err := decodeScalar(r, f.Elem, v); err != nil {
			return err
		}
		v.present = true
		return nil
	default:
		return decodeScalar(r, f.Kind, v)
	}
}

// decodeText reads a text item into the field's buffer. The length
// check runs before the copy so content can never overrun the buffer.
func decodeText(r *wire.Reader, f schema.Field, v *value) error {
	content, err := r.ReadText()
	if err != nil {
		return coerceWireErr(err)
	}
	if len(content) > f.Capacity-1 {
		return errors.Wrapf(ErrOverflow, "%d bytes, capacity %d", len(content), f.Capacity)
	}
	copy(v.buf, content)
	v.n = len(content)
	return nil
}

func decodeScalar(r *wire.Reader, k schema.Kind, v *value) error {
	switch k {
	case schema.KindBool:
		b, err := r.ReadBool()
		if err != nil {
			return coerceWireErr(err)
		}
		v.b = b
	case schema.KindInt32:
		n, err := r.ReadInt()
		if err != nil {
			return coerceWireErr(err)
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return errors.Wrapf(ErrTypeMismatch, "value %d out of range for int32", n)
		}
		v.i = n
	case schema.KindInt64:
		n, err := r.ReadInt()
		if err != nil {
			return coerceWireErr(err)
		}
		v.i = n
	case schema.KindUint8:
		n, err := r.ReadUint()
		if err != nil {
			return coerceWireErr(err)
		}
		if n > math.MaxUint8 {
			return errors.Wrapf(ErrTypeMismatch, "value %d out of range for uint8", n)
		}
		v.u = n
	case schema.KindUint32:
		n, err := r.ReadUint()
		if err != nil {
			return coerceWireErr(err)
		}
		if n > math.MaxUint32 {
			return errors.Wrapf(ErrTypeMismatch, "value %d out of range for uint32", n)
		}
		v.u = n
	case schema.KindUint64:
		n, err := r.ReadUint()
		if err != nil {
			return coerceWireErr(err)
		}
		v.u = n
	case schema.KindFloat32:
		x, err := r.ReadFloat()
		if err != nil {
			return coerceWireErr(err)
		}
		v.f = float64(float32(x))
	default:
		x, err := r.ReadFloat()
		if err != nil {
			return coerceWireErr(err)
		}
		v.f = x
	}
	return nil
}
