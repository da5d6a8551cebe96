// Package memorydb implements the tenebradb interfaces on a plain map,
// for tests and throwaway nodes.
package memorydb

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/tenebra-network/gtenebra/tenebradb"
)

var (
	// errMemorydbClosed is returned if a memory database was already closed at the
	// invocation of a data access operation.
	errMemorydbClosed = errors.New("database closed")
)

// Database is an ephemeral key-value store. Apart from basic data storage
// functionality it also supports batch writes and iterating over the keyspace in
// binary-alphabetical order.
type Database struct {
	db   map[string][]byte
	lock sync.RWMutex

	// txLock serialises transactions: only one may be open at a time,
	// mirroring the exclusive write transaction of the disk backend.
	txLock sync.Mutex
}

// New returns a wrapped map with all the required database interface methods
// implemented.
func New() *Database {
	return &Database{
		db: make(map[string][]byte),
	}
}

// Close deallocates the internal map and ensures any consecutive data access op
// fails with an error.
func (db *Database) Close() error {
	db.lock.Lock()
	defer db.lock.Unlock()

	db.db = nil
	return nil
}

// Has retrieves if a key is present in the key-value store.
func (db *Database) Has(key []byte) (bool, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.db == nil {
		return false, errMemorydbClosed
	}
	_, ok := db.db[string(key)]
	return ok, nil
}

// Get retrieves the given key if it's present in the key-value store.
func (db *Database) Get(key []byte) ([]byte, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.db == nil {
		return nil, errMemorydbClosed
	}
	if entry, ok := db.db[string(key)]; ok {
		return append([]byte(nil), entry...), nil
	}
	return nil, tenebradb.ErrNotFound
}

// Put inserts the given value into the key-value store.
func (db *Database) Put(key []byte, value []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.db == nil {
		return errMemorydbClosed
	}
	db.db[string(key)] = append([]byte(nil), value...)
	return nil
}

// Delete removes the key from the key-value store.
func (db *Database) Delete(key []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.db == nil {
		return errMemorydbClosed
	}
	delete(db.db, string(key))
	return nil
}

// NewBatch creates a write-only key-value store that buffers changes to its host
// database until a final write is called.
func (db *Database) NewBatch() tenebradb.Batch {
	return &batch{
		db: db,
	}
}

// NewIterator creates a binary-alphabetical iterator over a subset
// of database content with a particular key prefix, starting at a particular
// initial key (or after, if it does not exist).
func (db *Database) NewIterator(prefix []byte, start []byte) tenebradb.Iterator {
	db.lock.RLock()
	defer db.lock.RUnlock()

	return newIterator(db.db, prefix, start)
}

// OpenTransaction starts an exclusive write transaction. It blocks
// until any previous transaction finished.
func (db *Database) OpenTransaction() (tenebradb.Transaction, error) {
	db.txLock.Lock()

	db.lock.RLock()
	closed := db.db == nil
	db.lock.RUnlock()
	if closed {
		db.txLock.Unlock()
		return nil, errMemorydbClosed
	}
	return &transaction{
		db:      db,
		writes:  make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}, nil
}

// Stat returns a particular internal stat of the database.
func (db *Database) Stat(property string) (string, error) {
	return "", errors.New("unknown property")
}

// Compact is not supported on a memory database, but there's no need either as
// a memory database doesn't waste space anyway.
func (db *Database) Compact(start []byte, limit []byte) error {
	return nil
}

// Len returns the number of entries currently present in the memory database.
//
// Note, this method is only used for testing (i.e. not public in general) and
// does not have explicit checks for closed-ness to allow simpler testing code.
func (db *Database) Len() int {
	db.lock.RLock()
	defer db.lock.RUnlock()

	return len(db.db)
}

// transaction buffers writes until Commit. Reads see the buffered
// writes layered over the base map.
type transaction struct {
	db      *Database
	writes  map[string][]byte
	deletes map[string]struct{}
	done    bool
}

func (t *transaction) Has(key []byte) (bool, error) {
	if _, ok := t.deletes[string(key)]; ok {
		return false, nil
	}
	if _, ok := t.writes[string(key)]; ok {
		return true, nil
	}
	return t.db.Has(key)
}

func (t *transaction) Get(key []byte) ([]byte, error) {
	if _, ok := t.deletes[string(key)]; ok {
		return nil, tenebradb.ErrNotFound
	}
	if entry, ok := t.writes[string(key)]; ok {
		return append([]byte(nil), entry...), nil
	}
	return t.db.Get(key)
}

func (t *transaction) Put(key []byte, value []byte) error {
	delete(t.deletes, string(key))
	t.writes[string(key)] = append([]byte(nil), value...)
	return nil
}

func (t *transaction) Delete(key []byte) error {
	delete(t.writes, string(key))
	t.deletes[string(key)] = struct{}{}
	return nil
}

// NewIterator merges the base content with the transaction overlay at
// call time.
func (t *transaction) NewIterator(prefix []byte, start []byte) tenebradb.Iterator {
	t.db.lock.RLock()
	merged := make(map[string][]byte, len(t.db.db)+len(t.writes))
	for k, v := range t.db.db {
		merged[k] = v
	}
	t.db.lock.RUnlock()

	for k := range t.deletes {
		delete(merged, k)
	}
	for k, v := range t.writes {
		merged[k] = v
	}
	return newIterator(merged, prefix, start)
}

// Commit applies the buffered writes atomically and releases the
// transaction slot.
func (t *transaction) Commit() error {
	if t.done {
		return nil
	}
	t.done = true

	t.db.lock.Lock()
	if t.db.db == nil {
		t.db.lock.Unlock()
		t.db.txLock.Unlock()
		return errMemorydbClosed
	}
	for k := range t.deletes {
		delete(t.db.db, k)
	}
	for k, v := range t.writes {
		t.db.db[k] = v
	}
	t.db.lock.Unlock()

	t.db.txLock.Unlock()
	return nil
}

// Discard drops the buffered writes and releases the transaction slot.
// Calling it after Commit is a no-op.
func (t *transaction) Discard() {
	if t.done {
		return
	}
	t.done = true
	t.db.txLock.Unlock()
}

// keyvalue is a key-value tuple tagged with a deletion field to allow creating
// memory-database write batches.
type keyvalue struct {
	key    []byte
	value  []byte
	delete bool
}

// batch is a write-only memory batch that commits changes to its host
// database when Write is called. A batch cannot be used concurrently.
type batch struct {
	db     *Database
	writes []keyvalue
	size   int
}

// Put inserts the given value into the batch for later committing.
func (b *batch) Put(key, value []byte) error {
	b.writes = append(b.writes, keyvalue{append([]byte(nil), key...), append([]byte(nil), value...), false})
	b.size += len(key) + len(value)
	return nil
}

// Delete inserts the a key removal into the batch for later committing.
func (b *batch) Delete(key []byte) error {
	b.writes = append(b.writes, keyvalue{append([]byte(nil), key...), nil, true})
	b.size += len(key)
	return nil
}

// ValueSize retrieves the amount of data queued up for writing.
func (b *batch) ValueSize() int {
	return b.size
}

// Write flushes any accumulated data to the memory database.
func (b *batch) Write() error {
	b.db.lock.Lock()
	defer b.db.lock.Unlock()

	if b.db.db == nil {
		return errMemorydbClosed
	}
	for _, keyvalue := range b.writes {
		if keyvalue.delete {
			delete(b.db.db, string(keyvalue.key))
			continue
		}
		b.db.db[string(keyvalue.key)] = keyvalue.value
	}
	return nil
}

// Reset resets the batch for reuse.
func (b *batch) Reset() {
	b.writes = b.writes[:0]
	b.size = 0
}

// Replay replays the batch contents.
func (b *batch) Replay(w tenebradb.KeyValueWriter) error {
	for _, keyvalue := range b.writes {
		if keyvalue.delete {
			if err := w.Delete(keyvalue.key); err != nil {
				return err
			}
			continue
		}
		if err := w.Put(keyvalue.key, keyvalue.value); err != nil {
			return err
		}
	}
	return nil
}

// iterator can walk over the (potentially partial) keyspace of a memory key
// value store. Internally it is a deep copy of the entire iterated state,
// sorted by keys.
type iterator struct {
	index  int
	keys   []string
	values [][]byte
}

func newIterator(db map[string][]byte, prefix []byte, start []byte) *iterator {
	var (
		pr     = string(prefix)
		st     = string(append(prefix, start...))
		keys   = make([]string, 0, len(db))
		values = make([][]byte, 0, len(db))
	)
	// Collect the keys from the memory database corresponding to the given prefix
	// and start
	for key := range db {
		if !strings.HasPrefix(key, pr) {
			continue
		}
		if key >= st {
			keys = append(keys, key)
		}
	}
	// Sort the items and retrieve the associated values
	sort.Strings(keys)
	for _, key := range keys {
		values = append(values, append([]byte(nil), db[key]...))
	}
	return &iterator{
		index:  -1,
		keys:   keys,
		values: values,
	}
}

// Next moves the iterator to the next key/value pair. It returns whether the
// iterator is exhausted.
func (it *iterator) Next() bool {
	// Short circuit if iterator is already exhausted in the forward direction.
	if it.index >= len(it.keys) {
		return false
	}
	it.index += 1
	return it.index < len(it.keys)
}

// Error returns any accumulated error. Exhausting all the key/value pairs
// is not considered to be an error. A memory iterator cannot encounter errors.
func (it *iterator) Error() error {
	return nil
}

// Key returns the key of the current key/value pair, or nil if done. The caller
// should not modify the contents of the returned slice, and its contents may
// change on the next call to Next.
func (it *iterator) Key() []byte {
	if it.index < 0 || it.index >= len(it.keys) {
		return nil
	}
	return []byte(it.keys[it.index])
}

// Value returns the value of the current key/value pair, or nil if done. The
// caller should not modify the contents of the returned slice, and its contents
// may change on the next call to Next.
func (it *iterator) Value() []byte {
	if it.index < 0 || it.index >= len(it.values) {
		return nil
	}
	return it.values[it.index]
}

// Release releases associated resources. Release should always succeed and can
// be called multiple times without causing error.
func (it *iterator) Release() {
	it.index, it.keys, it.values = -1, nil, nil
}
