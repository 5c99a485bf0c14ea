package wire

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/x448/float16"
)

// Reader consumes CBOR items from an in-memory buffer. Reads advance a
// cursor; a failed read leaves the cursor where it was so the caller
// can report the offset.
type Reader struct {
	data []byte
	off  int
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the cursor position in bytes.
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.off }

// PeekType classifies the item at the cursor without consuming it.
func (r *Reader) PeekType() (Type, error) {
	if r.off >= len(r.data) {
		return TypeInvalid, errors.Wrapf(ErrUnexpectedEOF, "at offset %d", r.off)
	}
	b := r.data[r.off]
	switch b >> 5 {
	case majorUint:
		return TypeUint, nil
	case majorNegInt:
		return TypeNegInt, nil
	case majorBytes:
		return TypeBytes, nil
	case majorText:
		return TypeText, nil
	case majorArray:
		return TypeArray, nil
	case majorMap:
		return TypeMap, nil
	case majorTag:
		return TypeTag, nil
	default:
		switch b {
		case simpleFalse, simpleTrue:
			return TypeBool, nil
		case simpleNull:
			return TypeNull, nil
		case headerFloat16, headerFloat32, headerFloat64:
			return TypeFloat, nil
		default:
			return TypeOther, nil
		}
	}
}

// readHeader consumes an item header and returns its major type and
// argument. Non-shortest-form arguments, indefinite lengths, and
// reserved additional-information values are rejected.
func (r *Reader) readHeader() (byte, uint64, error) {
	if r.off >= len(r.data) {
		return 0, 0, errors.Wrapf(ErrUnexpectedEOF, "at offset %d", r.off)
	}
	b := r.data[r.off]
	major := b >> 5
	info := b & 0x1f

	var arg uint64
	var size int
	switch {
	case info < 24:
		arg, size = uint64(info), 1
	case info == 24:
		if r.off+2 > len(r.data) {
			return 0, 0, errors.Wrapf(ErrUnexpectedEOF, "at offset %d", r.off)
		}
		arg, size = uint64(r.data[r.off+1]), 2
		if arg < 24 {
			return 0, 0, errors.Wrapf(ErrMalformed, "non-shortest header at offset %d", r.off)
		}
	case info == 25:
		if r.off+3 > len(r.data) {
			return 0, 0, errors.Wrapf(ErrUnexpectedEOF, "at offset %d", r.off)
		}
		arg, size = uint64(binary.BigEndian.Uint16(r.data[r.off+1:])), 3
		if major != majorSimple && arg <= math.MaxUint8 {
			return 0, 0, errors.Wrapf(ErrMalformed, "non-shortest header at offset %d", r.off)
		}
	case info == 26:
		if r.off+5 > len(r.data) {
			return 0, 0, errors.Wrapf(ErrUnexpectedEOF, "at offset %d", r.off)
		}
		arg, size = uint64(binary.BigEndian.Uint32(r.data[r.off+1:])), 5
		if major != majorSimple && arg <= math.MaxUint16 {
			return 0, 0, errors.Wrapf(ErrMalformed, "non-shortest header at offset %d", r.off)
		}
	case info == 27:
		if r.off+9 > len(r.data) {
			return 0, 0, errors.Wrapf(ErrUnexpectedEOF, "at offset %d", r.off)
		}
		arg, size = binary.BigEndian.Uint64(r.data[r.off+1:]), 9
		if major != majorSimple && arg <= math.MaxUint32 {
			return 0, 0, errors.Wrapf(ErrMalformed, "non-shortest header at offset %d", r.off)
		}
	default:
		// 28-30 are reserved; 31 is indefinite length, which this
		// format never produces.
		return 0, 0, errors.Wrapf(ErrMalformed, "additional info %d at offset %d", info, r.off)
	}

	r.off += size
	return major, arg, nil
}

// ReadUint consumes an unsigned integer item.
func (r *Reader) ReadUint() (uint64, error) {
	t, err := r.PeekType()
	if err != nil {
		return 0, err
	}
	if t != TypeUint {
		return 0, errors.Wrapf(ErrWrongType, "got %s, want unsigned integer at offset %d", t, r.off)
	}
	_, arg, err := r.readHeader()
	return arg, err
}

// ReadInt consumes a signed integer item (major type 0 or 1).
func (r *Reader) ReadInt() (int64, error) {
	t, err := r.PeekType()
	if err != nil {
		return 0, err
	}
	if t != TypeUint && t != TypeNegInt {
		return 0, errors.Wrapf(ErrWrongType, "got %s, want integer at offset %d", t, r.off)
	}
	major, arg, err := r.readHeader()
	if err != nil {
		return 0, err
	}
	if major == majorUint {
		if arg > math.MaxInt64 {
			return 0, errors.Wrapf(ErrWrongType, "integer %d overflows int64", arg)
		}
		return int64(arg), nil
	}
	if arg > math.MaxInt64 {
		return 0, errors.Wrapf(ErrWrongType, "negative integer -%d overflows int64", arg)
	}
	return -1 - int64(arg), nil
}

// ReadBool consumes a boolean item.
func (r *Reader) ReadBool() (bool, error) {
	t, err := r.PeekType()
	if err != nil {
		return false, err
	}
	if t != TypeBool {
		return false, errors.Wrapf(ErrWrongType, "got %s, want bool at offset %d", t, r.off)
	}
	v := r.data[r.off] == simpleTrue
	r.off++
	return v, nil
}

// ReadNull consumes a null item.
func (r *Reader) ReadNull() error {
	t, err := r.PeekType()
	if err != nil {
		return err
	}
	if t != TypeNull {
		return errors.Wrapf(ErrWrongType, "got %s, want null at offset %d", t, r.off)
	}
	r.off++
	return nil
}

// ReadFloat consumes a float item of any width (16, 32, or 64 bits)
// and returns it as float64.
func (r *Reader) ReadFloat() (float64, error) {
	t, err := r.PeekType()
	if err != nil {
		return 0, err
	}
	if t != TypeFloat {
		return 0, errors.Wrapf(ErrWrongType, "got %s, want float at offset %d", t, r.off)
	}

	switch r.data[r.off] {
	case headerFloat16:
		if r.off+3 > len(r.data) {
			return 0, errors.Wrapf(ErrUnexpectedEOF, "at offset %d", r.off)
		}
		v := float16.Frombits(binary.BigEndian.Uint16(r.data[r.off+1:])).Float32()
		r.off += 3
		return float64(v), nil
	case headerFloat32:
		if r.off+5 > len(r.data) {
			return 0, errors.Wrapf(ErrUnexpectedEOF, "at offset %d", r.off)
		}
		v := math.Float32frombits(binary.BigEndian.Uint32(r.data[r.off+1:]))
		r.off += 5
		return float64(v), nil
	default:
		if r.off+9 > len(r.data) {
			return 0, errors.Wrapf(ErrUnexpectedEOF, "at offset %d", r.off)
		}
		v := math.Float64frombits(binary.BigEndian.Uint64(r.data[r.off+1:]))
		r.off += 9
		return v, nil
	}
}

// ReadText consumes a text string item and returns its content as a
// subslice of the input buffer. The content is only valid while the
// input buffer is.
func (r *Reader) ReadText() ([]byte, error) {
	t, err := r.PeekType()
	if err != nil {
		return nil, err
	}
	if t != TypeText {
		return nil, errors.Wrapf(ErrWrongType, "got %s, want text string at offset %d", t, r.off)
	}
	start := r.off
	_, n, err := r.readHeader()
	if err != nil {
		return nil, err
	}
	if n > uint64(len(r.data)-r.off) {
		r.off = start
		return nil, errors.Wrapf(ErrUnexpectedEOF, "text of %d bytes at offset %d", n, start)
	}
	content := r.data[r.off : r.off+int(n)]
	r.off += int(n)
	return content, nil
}

// ReadArrayHeader consumes an array item header and returns the
// declared element count. The caller consumes the element items.
func (r *Reader) ReadArrayHeader() (int, error) {
	t, err := r.PeekType()
	if err != nil {
		return 0, err
	}
	if t != TypeArray {
		return 0, errors.Wrapf(ErrWrongType, "got %s, want array at offset %d", t, r.off)
	}
	start := r.off
	_, n, err := r.readHeader()
	if err != nil {
		return 0, err
	}
	// An element needs at least one byte, so a count beyond the
	// remaining input cannot be satisfied.
	if n > uint64(len(r.data)-r.off) {
		r.off = start
		return 0, errors.Wrapf(ErrUnexpectedEOF, "array of %d elements at offset %d", n, start)
	}
	return int(n), nil
}
