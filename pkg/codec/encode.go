package codec

import (
	"github.com/cockroachdb/errors"

	"github.com/ssargent/sigil/pkg/schema"
	"github.com/ssargent/sigil/pkg/wire"
)

// Encode serializes rec into buf as a single top-level CBOR array item
// and returns the number of bytes written. The array holds one element
// per non-Skip field, in descriptor order. Encode fails with
// ErrCapacity if a text field's content exceeds its declared capacity
// and with ErrBufferFull if buf cannot hold the record; the caller may
// retry with a larger buffer. Encode never writes outside buf.
func Encode(buf []byte, rec *Record) (int, error) {
	w := wire.NewWriter(buf)
	if err := encodeRecord(w, rec); err != nil {
		return 0, err
	}
	return w.Len(), nil
}

func encodeRecord(w *wire.Writer, rec *Record) error {
	s := rec.shape
	if err := w.WriteArrayHeader(s.WireCount()); err != nil {
		return errors.Wrapf(err, "shape %q", s.Name())
	}
	for i, f := range s.Fields() {
		if err := encodeField(w, f, &rec.fields[i]); err != nil {
			return errors.Wrapf(err, "shape %q field %q", s.Name(), f.Name)
		}
	}
	return nil
}

func encodeField(w *wire.Writer, f schema.Field, v *value) error {
	switch f.Kind {
	case schema.KindSkip:
		return nil
	case schema.KindFixedText:
		if v.n > f.Capacity-1 {
			return errors.Wrapf(ErrCapacity, "%d bytes, capacity %d", v.n, f.Capacity)
		}
		return w.WriteText(v.buf[:v.n])
	case schema.KindFixedArray:
		if err := w.WriteArrayHeader(f.Count); err != nil {
			return err
		}
		for j := range v.elems {
			if err := encodeScalar(w, f.Elem, &v.elems[j]); err != nil {
				return err
			}
		}
		return nil
	case schema.KindNested:
		return encodeRecord(w, v.rec)
	case schema.KindOptionalText:
		if !v.present {
			return w.WriteNull()
		}
		if v.n > f.Capacity-1 {
			return errors.Wrapf(ErrCapacity, "%d bytes, capacity %d", v.n, f.Capacity)
		}
		return w.WriteText(v.buf[:v.n])
	case schema.KindOptionalScalar:
		if !v.present {
			return w.WriteNull()
		}
		return encodeScalar(w, f.Elem, v)
	default:
		return encodeScalar(w, f.Kind, v)
	}
}

func encodeScalar(w *wire.Writer, k schema.Kind, v *value) error {
	switch k {
	case schema.KindBool:
		return w.WriteBool(v.b)
	case schema.KindInt32, schema.KindInt64:
		return w.WriteInt(v.i)
	case schema.KindUint8, schema.KindUint32, schema.KindUint64:
		return w.WriteUint(v.u)
	case schema.KindFloat32:
		return w.WriteFloat32(float32(v.f))
	default:
		return w.WriteFloat64(v.f)
	}
}
