package codec

import (
	"github.com/cockroachdb/errors"

	"github.com/ssargent/sigil/pkg/wire"
)

var (
	// ErrTypeMismatch reports that a wire item's type does not match
	// the field kind the shape declares at that position.
	ErrTypeMismatch = errors.New("codec: wire type does not match field kind")

	// ErrShapeMismatch reports that a composite item's declared
	// element count disagrees with the shape.
	ErrShapeMismatch = errors.New("codec: wire shape does not match schema")

	// ErrOverflow reports decoded text content that would not fit the
	// field's declared capacity. The caller's buffer is never written
	// past its bounds.
	ErrOverflow = errors.New("codec: text exceeds field capacity")

	// ErrTruncated reports input that ends inside a record, or an item
	// header this codec does not accept.
	ErrTruncated = errors.New("codec: truncated or malformed input")

	// ErrCapacity reports encode-side content that exceeds a field's
	// declared capacity. Content is never silently truncated.
	ErrCapacity = errors.New("codec: content exceeds declared capacity")

	// ErrBufferFull reports an exhausted output buffer. The caller may
	// re-encode into a larger buffer.
	ErrBufferFull = wire.ErrBufferFull
)

// coerceWireErr marks errors surfaced by the wire layer with the codec
// error kind callers test for with errors.Is.
func coerceWireErr(err error) error {
	switch {
	case errors.Is(err, wire.ErrWrongType):
		return errors.Mark(err, ErrTypeMismatch)
	case errors.Is(err, wire.ErrUnexpectedEOF), errors.Is(err, wire.ErrMalformed):
		return errors.Mark(err, ErrTruncated)
	default:
		return err
	}
}
