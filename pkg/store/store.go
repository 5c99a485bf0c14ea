package store

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/sigil/pkg/codec"
)

// maxRecordSize bounds the encode buffer growth in Put.
const maxRecordSize = 1 << 20

var (
	recordPrefix = []byte("record/")
	shapePrefix  = []byte("shape/")
)

// ErrNotFound reports a missing record or shape.
var ErrNotFound = errors.New("store: not found")

// RecordStore persists encoded records in a pebble database, keyed by
// ksuid. Shape definitions registered with the store are persisted
// alongside the records so a reader can rebuild the catalog.
type RecordStore struct {
	db *pebble.DB
}

// Open opens (or creates) a record store at path.
func Open(path string) (*RecordStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "open store at %s", path)
	}
	return &RecordStore{db: db}, nil
}

// Close closes the underlying database.
func (s *RecordStore) Close() error {
	return s.db.Close()
}

// Put encodes rec and stores it under a fresh ksuid. The encode buffer
// starts small and doubles on ErrBufferFull, the retry policy the
// codec leaves to its callers.
func (s *RecordStore) Put(rec *codec.Record) (ksuid.KSUID, error) {
	size := 256
	var encoded []byte
	for {
		buf := make([]byte, size)
		n, err := codec.Encode(buf, rec)
		if err == nil {
			encoded = buf[:n]
			break
		}
		if !errors.Is(err, codec.ErrBufferFull) || size >= maxRecordSize {
			return ksuid.Nil, errors.Wrapf(err, "encode record of shape %q", rec.Shape().Name())
		}
		size *= 2
	}

	id := ksuid.New()
	if err := s.db.Set(recordKey(id), encoded, pebble.NoSync); err != nil {
		return ksuid.Nil, errors.Wrapf(err, "store record %s", id)
	}
	return id, nil
}

// Get decodes the stored record into the caller's pre-allocated rec,
// which fixes the shape the bytes are decoded against.
func (s *RecordStore) Get(id ksuid.KSUID, rec *codec.Record) error {
	data, closer, err := s.db.Get(recordKey(id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return errors.Wrapf(ErrNotFound, "record %s", id)
		}
		return errors.Wrapf(err, "load record %s", id)
	}
	defer closer.Close()

	if err := codec.Decode(data, rec); err != nil {
		return errors.Wrapf(err, "decode record %s", id)
	}
	return nil
}

// Delete removes a stored record.
func (s *RecordStore) Delete(id ksuid.KSUID) error {
	return s.db.Delete(recordKey(id), pebble.NoSync)
}

func recordKey(id ksuid.KSUID) []byte {
	return append(append([]byte{}, recordPrefix...), id.Bytes()...)
}

func shapeKey(name string) []byte {
	return append(append([]byte{}, shapePrefix...), name...)
}
