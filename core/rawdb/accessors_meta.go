package rawdb

import (
	"errors"
	"fmt"

	"github.com/tenebra-network/gtenebra/tenebradb"
)

// Reader combines point reads with range iteration.
type Reader interface {
	tenebradb.KeyValueReader
	tenebradb.Iteratee
}

// Store is what the write accessors need: reads to maintain indexes,
// writes to apply them. Both the database itself and an open
// transaction satisfy it.
type Store interface {
	Reader
	tenebradb.KeyValueWriter
}

func readCounter(db tenebradb.KeyValueReader, key []byte) (uint64, error) {
	data, err := db.Get(key)
	if errors.Is(err, tenebradb.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return decodeUint64(data), nil
}

func writeCounter(db tenebradb.KeyValueWriter, key []byte, v uint64) error {
	return db.Put(key, encodeUint64(v))
}

func incCounter(db Store, key []byte, delta int64) (uint64, error) {
	v, err := readCounter(db, key)
	if err != nil {
		return 0, err
	}
	if delta < 0 && uint64(-delta) > v {
		return 0, fmt.Errorf("rawdb: counter %q underflow (%d%+d)", key, v, delta)
	}
	v = uint64(int64(v) + delta)
	return v, writeCounter(db, key, v)
}

// ReadSchemaVersion returns the stored key schema version, zero on a
// fresh database.
func ReadSchemaVersion(db tenebradb.KeyValueReader) (uint64, error) {
	return readCounter(db, schemaKey)
}

// WriteSchemaVersion stamps the database with the current schema
// version.
func WriteSchemaVersion(db tenebradb.KeyValueWriter) error {
	return writeCounter(db, schemaKey, schemaVersion)
}

// CheckSchemaVersion verifies the database was written by a compatible
// node, stamping fresh databases.
func CheckSchemaVersion(db Store) error {
	v, err := ReadSchemaVersion(db)
	if err != nil {
		return err
	}
	switch v {
	case 0:
		return WriteSchemaVersion(db)
	case schemaVersion:
		return nil
	default:
		return fmt.Errorf("rawdb: database schema v%d, node expects v%d", v, schemaVersion)
	}
}

// ReadSupply returns the circulating supply counter.
func ReadSupply(db tenebradb.KeyValueReader) (uint64, error) {
	return readCounter(db, supplyKey)
}

// AdjustSupply moves the circulating supply counter by delta.
func AdjustSupply(db Store, delta int64) error {
	_, err := incCounter(db, supplyKey, delta)
	return err
}
