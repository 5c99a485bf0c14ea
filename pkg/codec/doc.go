// Package codec implements Sigil's schema-driven record codec.
//
// The codec translates in-memory composite records into a compact,
// self-describing CBOR encoding and back. A Shape (see pkg/schema)
// fixes the field list; records encode as one top-level CBOR array
// item holding one element per non-Skip field, in descriptor order.
// Fields are positional: no names appear on the wire.
//
// # Wire Format
//
// Each record is a single RFC 8949 array item:
//
//	array(WireCount) [ field items in descriptor order ]
//
// Field kinds map to CBOR items as follows:
//
//   - bool: simple value true/false
//   - signed integers: major type 0 or 1, shortest-form header
//   - unsigned integers: major type 0, shortest-form header
//   - float32/float64: major type 7, 4- or 8-byte payload
//   - text: text string of the actual (not padded) content length
//   - array: nested array item of exactly the schema-fixed count
//   - nested: the nested shape's record item, recursively
//   - optional: the payload item when present, null when absent
//   - skip: nothing
//
// Encoding an absent optional field as a null item keeps exactly one
// wire item per non-Skip field, so positional alignment holds at every
// field position regardless of which optional fields are present.
//
// # Ownership
//
// Records own all field storage. NewRecord pre-allocates every buffer,
// array slot, and nested record up front; Encode and Decode only read
// and populate caller-supplied storage and never retain a reference to
// it past the call. Decode performs no allocation.
//
// # Failure Policy
//
// Decode is all-or-nothing per record: the first failing field aborts
// the call with a typed error (ErrTypeMismatch, ErrShapeMismatch,
// ErrOverflow, ErrTruncated). Fields decoded before the failure may
// already be populated; callers discard the whole record on error.
// Content is never silently truncated in either direction: encode
// fails with ErrCapacity and decode with ErrOverflow before any
// capacity is exceeded.
//
// # Thread Safety
//
// The engine is stateless and reentrant: concurrent calls on distinct
// records and buffers need no synchronization. A single Record or
// buffer must not be shared between concurrent calls.
package codec
