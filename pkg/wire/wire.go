// Package wire implements the byte-oriented CBOR item primitives the
// Sigil codec engine is built on: a bounds-checked Writer that appends
// typed items into a caller-supplied buffer, and a Reader that consumes
// typed items from one.
//
// Items follow RFC 8949: a one-byte header carrying the major type and
// a short argument, followed by up to eight bytes of big-endian
// argument for larger values. The Writer always emits shortest-form
// (canonical) headers; the Reader rejects non-shortest forms and
// indefinite-length items.
//
// The package never allocates on behalf of the caller: the Writer
// fails with ErrBufferFull instead of growing its buffer, and the
// Reader returns subslices of its input.
package wire

import "github.com/cockroachdb/errors"

var (
	// ErrBufferFull reports that the Writer's buffer cannot hold the
	// next item. The caller may retry with a larger buffer.
	ErrBufferFull = errors.New("wire: output buffer full")

	// ErrUnexpectedEOF reports that the input ended inside an item.
	ErrUnexpectedEOF = errors.New("wire: unexpected end of input")

	// ErrMalformed reports a header this package does not accept:
	// non-shortest-form arguments, indefinite lengths, or reserved
	// additional-information values.
	ErrMalformed = errors.New("wire: malformed item header")

	// ErrWrongType reports that the next item's type does not match
	// the requested read.
	ErrWrongType = errors.New("wire: item type mismatch")
)

// CBOR major types (RFC 8949 §3).
const (
	majorUint   = 0
	majorNegInt = 1
	majorBytes  = 2
	majorText   = 3
	majorArray  = 4
	majorMap    = 5
	majorTag    = 6
	majorSimple = 7
)

// Simple values and float headers within major type 7.
const (
	simpleFalse   = 0xf4
	simpleTrue    = 0xf5
	simpleNull    = 0xf6
	headerFloat16 = 0xf9
	headerFloat32 = 0xfa
	headerFloat64 = 0xfb
)

// Type classifies the item at the reader's cursor.
type Type uint8

const (
	TypeInvalid Type = iota
	TypeUint
	TypeNegInt
	TypeBytes
	TypeText
	TypeArray
	TypeMap
	TypeTag
	TypeBool
	TypeNull
	TypeFloat
	TypeOther
)

var typeNames = map[Type]string{
	TypeInvalid: "invalid",
	TypeUint:    "unsigned integer",
	TypeNegInt:  "negative integer",
	TypeBytes:   "byte string",
	TypeText:    "text string",
	TypeArray:   "array",
	TypeMap:     "map",
	TypeTag:     "tag",
	TypeBool:    "bool",
	TypeNull:    "null",
	TypeFloat:   "float",
	TypeOther:   "simple value",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}
