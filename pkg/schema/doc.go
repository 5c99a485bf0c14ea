// Package schema defines the field descriptor model for Sigil shapes.
//
// A Shape is an ordered list of field descriptors describing one
// composite record type. The descriptor list is pure data: it names
// each member (for diagnostics only), fixes its wire kind, and carries
// the kind-specific parameters: capacity for bounded text, element kind
// and count for fixed arrays, a shape reference for nested records, and
// an element kind for optional scalars.
//
// Field order is encoding order. Position, not name, disambiguates
// fields on the wire: records encode as positional CBOR arrays with no
// field names.
//
// Shapes are constructed once with New (or loaded from a YAML catalog
// with Load/LoadFile), validated at construction, and immutable
// afterwards. Malformed definitions (bad capacities, non-scalar array
// elements, cyclic nested references) are rejected with a *SchemaError
// at construction time, so codec calls never see them.
package schema
