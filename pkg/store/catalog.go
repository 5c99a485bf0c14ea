package store

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/fxamacker/cbor/v2"

	"github.com/ssargent/sigil/pkg/schema"
)

// encMode serializes shape definitions with Core Deterministic
// Encoding (RFC 8949 §4.2) so the same catalog entry always produces
// identical bytes.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("store: CBOR encoder initialization failed: " + err.Error())
	}
}

// shapeDef is the persisted form of a shape. Nested shapes are stored
// by name and resolved against the catalog on load.
type shapeDef struct {
	Name   string     `cbor:"name"`
	Fields []fieldDef `cbor:"fields"`
}

type fieldDef struct {
	Name     string `cbor:"name"`
	Kind     string `cbor:"kind"`
	Capacity int    `cbor:"capacity,omitempty"`
	Elem     string `cbor:"elem,omitempty"`
	Count    int    `cbor:"count,omitempty"`
	Shape    string `cbor:"shape,omitempty"`
}

// RegisterShape persists a shape definition, registering nested shapes
// first so the catalog is always resolvable leaves-first.
func (s *RecordStore) RegisterShape(sh *schema.Shape) error {
	def := shapeDef{Name: sh.Name(), Fields: make([]fieldDef, 0, sh.Len())}
	for _, f := range sh.Fields() {
		fd := fieldDef{Name: f.Name, Kind: f.Kind.String(), Capacity: f.Capacity, Count: f.Count}
		switch f.Kind {
		case schema.KindFixedArray, schema.KindOptionalScalar:
			fd.Elem = f.Elem.String()
		case schema.KindNested:
			fd.Shape = f.Shape.Name()
			if err := s.RegisterShape(f.Shape); err != nil {
				return err
			}
		}
		def.Fields = append(def.Fields, fd)
	}

	data, err := encMode.Marshal(def)
	if err != nil {
		return errors.Wrapf(err, "marshal shape %q", sh.Name())
	}
	if err := s.db.Set(shapeKey(sh.Name()), data, pebble.NoSync); err != nil {
		return errors.Wrapf(err, "store shape %q", sh.Name())
	}
	return nil
}

// Shape rebuilds a registered shape, resolving nested references
// through the catalog.
func (s *RecordStore) Shape(name string) (*schema.Shape, error) {
	return s.loadShape(name, make(map[string]bool))
}

// loadShape resolves one catalog entry. RegisterShape cannot persist a
// cyclic definition, but the database contents are not trusted: a
// nested reference back into an entry still being resolved fails
// instead of recursing without bound.
func (s *RecordStore) loadShape(name string, resolving map[string]bool) (*schema.Shape, error) {
	if resolving[name] {
		return nil, errors.Newf("store: shape %q reaches itself through nested references", name)
	}
	resolving[name] = true
	defer delete(resolving, name)

	data, closer, err := s.db.Get(shapeKey(name))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "shape %q", name)
		}
		return nil, errors.Wrapf(err, "load shape %q", name)
	}
	defer closer.Close()

	var def shapeDef
	if err := cbor.Unmarshal(data, &def); err != nil {
		return nil, errors.Wrapf(err, "unmarshal shape %q", name)
	}

	fields := make([]schema.Field, 0, len(def.Fields))
	for _, fd := range def.Fields {
		kind, ok := schema.ParseKind(fd.Kind)
		if !ok {
			return nil, errors.Newf("store: shape %q field %q has unknown kind %q", name, fd.Name, fd.Kind)
		}
		f := schema.Field{Name: fd.Name, Kind: kind, Capacity: fd.Capacity, Count: fd.Count}
		switch kind {
		case schema.KindFixedArray, schema.KindOptionalScalar:
			elem, ok := schema.ParseKind(fd.Elem)
			if !ok {
				return nil, errors.Newf("store: shape %q field %q has unknown element kind %q", name, fd.Name, fd.Elem)
			}
			f.Elem = elem
		case schema.KindNested:
			nested, err := s.loadShape(fd.Shape, resolving)
			if err != nil {
				return nil, err
			}
			f.Shape = nested
		}
		fields = append(fields, f)
	}
	return schema.New(name, fields...)
}

// ShapeNames lists the registered shape names.
func (s *RecordStore) ShapeNames() ([]string, error) {
	upper := append(append([]byte{}, shapePrefix...), 0xff)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: shapePrefix, UpperBound: upper})
	if err != nil {
		return nil, errors.Wrap(err, "iterate shapes")
	}
	defer iter.Close()

	var names []string
	for iter.First(); iter.Valid(); iter.Next() {
		names = append(names, string(iter.Key()[len(shapePrefix):]))
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "iterate shapes")
	}
	return names, nil
}
