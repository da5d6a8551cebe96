// Package tenebradb defines the key-value database interfaces the node
// stores its chain state in. Backends live in subpackages; the rest of
// the tree only sees these interfaces.
package tenebradb

import (
	"errors"
	"io"
)

// ErrNotFound is returned by Get when the key is absent. Backends
// translate their native sentinel to this one.
var ErrNotFound = errors.New("tenebradb: not found")

// KeyValueReader wraps the Has and Get method of a backing data store.
type KeyValueReader interface {
	// Has retrieves if a key is present in the key-value data store.
	Has(key []byte) (bool, error)

	// Get retrieves the given key if it's present in the key-value data store.
	Get(key []byte) ([]byte, error)
}

// KeyValueWriter wraps the Put method of a backing data store.
type KeyValueWriter interface {
	// Put inserts the given value into the key-value data store.
	Put(key []byte, value []byte) error

	// Delete removes the key from the key-value data store.
	Delete(key []byte) error
}

// Iterator iterates over a database's key/value pairs in ascending key
// order. The returned key and value are only valid until the next call
// to Next.
type Iterator interface {
	// Next moves the iterator to the next key/value pair. It returns whether
	// the iterator is exhausted.
	Next() bool

	// Error returns any accumulated error.
	Error() error

	// Key returns the key of the current key/value pair, or nil if done.
	Key() []byte

	// Value returns the value of the current key/value pair, or nil if done.
	Value() []byte

	// Release releases associated resources. Release should always succeed
	// and can be called multiple times without causing error.
	Release()
}

// Iteratee wraps the NewIterator methods of a backing data store.
type Iteratee interface {
	// NewIterator creates a binary-alphabetical iterator over a subset
	// of database content with a particular key prefix, starting at a
	// particular initial key (or after, if it does not exist).
	NewIterator(prefix []byte, start []byte) Iterator
}

// Batch is a write-only database that commits changes to its host
// database when Write is called. A batch cannot be used concurrently.
type Batch interface {
	KeyValueWriter

	// ValueSize retrieves the amount of data queued up for writing.
	ValueSize() int

	// Write flushes any accumulated data to disk.
	Write() error

	// Reset resets the batch for reuse.
	Reset()

	// Replay replays the batch contents.
	Replay(w KeyValueWriter) error
}

// Batcher wraps the NewBatch method of a backing data store.
type Batcher interface {
	// NewBatch creates a write-only database that buffers changes to its host db
	// until a final write is called.
	NewBatch() Batch
}

// Transaction is an exclusive read-write transaction. While one is
// open, every other writer to the database blocks; reads outside the
// transaction keep seeing the pre-transaction state. This is the
// serialisation point the ledger's single-writer rule rests on.
type Transaction interface {
	KeyValueReader
	KeyValueWriter
	Iteratee

	// Commit atomically applies the transaction's writes.
	Commit() error

	// Discard throws the transaction away. Safe to call after Commit,
	// which makes it usable with defer.
	Discard()
}

// Transactioner wraps the OpenTransaction method of a backing data store.
type Transactioner interface {
	// OpenTransaction starts an exclusive write transaction. It blocks
	// until any previous transaction is committed or discarded.
	OpenTransaction() (Transaction, error)
}

// Stater wraps the Stat method of a backing data store.
type Stater interface {
	// Stat returns a particular internal stat of the database.
	Stat(property string) (string, error)
}

// Compacter wraps the Compact method of a backing data store.
type Compacter interface {
	// Compact flattens the underlying data store for the given key range.
	Compact(start []byte, limit []byte) error
}

// Database contains all the methods required by the chain to store and
// read its data.
type Database interface {
	KeyValueReader
	KeyValueWriter
	Iteratee
	Batcher
	Transactioner
	Stater
	Compacter
	io.Closer
}
