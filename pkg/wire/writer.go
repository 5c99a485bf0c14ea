package wire

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
)

// Writer appends CBOR items into a caller-supplied buffer. It never
// grows or reallocates the buffer; when the buffer cannot hold the
// next item the write fails with ErrBufferFull and the buffer is left
// as it was before that write.
type Writer struct {
	buf []byte
	off int
}

// NewWriter returns a Writer that appends into buf starting at offset 0.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return w.off }

// Bytes returns the written prefix of the buffer.
func (w *Writer) Bytes() []byte { return w.buf[:w.off] }

func (w *Writer) writeByte(b byte) error {
	if w.off+1 > len(w.buf) {
		return errors.Wrapf(ErrBufferFull, "need 1 byte at offset %d", w.off)
	}
	w.buf[w.off] = b
	w.off++
	return nil
}

// writeHeader emits a shortest-form header for the given major type
// and argument.
func (w *Writer) writeHeader(major byte, arg uint64) error {
	var need int
	switch {
	case arg < 24:
		need = 1
	case arg <= math.MaxUint8:
		need = 2
	case arg <= math.MaxUint16:
		need = 3
	case arg <= math.MaxUint32:
		need = 5
	default:
		need = 9
	}
	if w.off+need > len(w.buf) {
		return errors.Wrapf(ErrBufferFull, "need %d bytes at offset %d", need, w.off)
	}

	hi := major << 5
	switch need {
	case 1:
		w.buf[w.off] = hi | byte(arg)
	case 2:
		w.buf[w.off] = hi | 24
		w.buf[w.off+1] = byte(arg)
	case 3:
		w.buf[w.off] = hi | 25
		binary.BigEndian.PutUint16(w.buf[w.off+1:], uint16(arg))
	case 5:
		w.buf[w.off] = hi | 26
		binary.BigEndian.PutUint32(w.buf[w.off+1:], uint32(arg))
	case 9:
		w.buf[w.off] = hi | 27
		binary.BigEndian.PutUint64(w.buf[w.off+1:], arg)
	}
	w.off += need
	return nil
}

// WriteUint emits an unsigned integer item.
func (w *Writer) WriteUint(v uint64) error {
	return w.writeHeader(majorUint, v)
}

// WriteInt emits a signed integer item: major type 0 for non-negative
// values, major type 1 otherwise.
func (w *Writer) WriteInt(v int64) error {
	if v >= 0 {
		return w.writeHeader(majorUint, uint64(v))
	}
	return w.writeHeader(majorNegInt, uint64(-1-v))
}

// WriteBool emits a boolean item.
func (w *Writer) WriteBool(v bool) error {
	if v {
		return w.writeByte(simpleTrue)
	}
	return w.writeByte(simpleFalse)
}

// WriteNull emits a null item.
func (w *Writer) WriteNull() error {
	return w.writeByte(simpleNull)
}

// WriteFloat32 emits a single-precision float item.
func (w *Writer) WriteFloat32(v float32) error {
	if w.off+5 > len(w.buf) {
		return errors.Wrapf(ErrBufferFull, "need 5 bytes at offset %d", w.off)
	}
	w.buf[w.off] = headerFloat32
	binary.BigEndian.PutUint32(w.buf[w.off+1:], math.Float32bits(v))
	w.off += 5
	return nil
}

// WriteFloat64 emits a double-precision float item.
func (w *Writer) WriteFloat64(v float64) error {
	if w.off+9 > len(w.buf) {
		return errors.Wrapf(ErrBufferFull, "need 9 bytes at offset %d", w.off)
	}
	w.buf[w.off] = headerFloat64
	binary.BigEndian.PutUint64(w.buf[w.off+1:], math.Float64bits(v))
	w.off += 9
	return nil
}

// WriteText emits a text string item with the given content.
func (w *Writer) WriteText(content []byte) error {
	if err := w.writeHeader(majorText, uint64(len(content))); err != nil {
		return err
	}
	if w.off+len(content) > len(w.buf) {
		// Roll back the header so the buffer holds only whole items.
		w.off -= headerSize(uint64(len(content)))
		return errors.Wrapf(ErrBufferFull, "need %d bytes at offset %d", len(content), w.off)
	}
	copy(w.buf[w.off:], content)
	w.off += len(content)
	return nil
}

// WriteArrayHeader opens an array item of exactly n elements. The
// caller is responsible for emitting the n element items.
func (w *Writer) WriteArrayHeader(n int) error {
	return w.writeHeader(majorArray, uint64(n))
}

func headerSize(arg uint64) int {
	switch {
	case arg < 24:
		return 1
	case arg <= math.MaxUint8:
		return 2
	case arg <= math.MaxUint16:
		return 3
	case arg <= math.MaxUint32:
		return 5
	default:
		return 9
	}
}
