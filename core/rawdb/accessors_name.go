package rawdb

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tenebra-network/gtenebra/tenebradb"
	"github.com/tenebra-network/gtenebra/types"
)

// ReadName returns the stored row for a name, or nil when unregistered.
func ReadName(db tenebradb.KeyValueReader, name string) (*types.Name, error) {
	data, err := db.Get(nameKey(name))
	if errors.Is(err, tenebradb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	n := new(types.Name)
	if err := json.Unmarshal(data, n); err != nil {
		return nil, fmt.Errorf("rawdb: corrupt name row %s: %w", name, err)
	}
	return n, nil
}

// WriteName stores a name row and maintains the owner, registration
// time and unpaid indexes plus the name counters.
func WriteName(db Store, n *types.Name) error {
	old, err := ReadName(db, n.Name)
	if err != nil {
		return err
	}
	if old == nil {
		if _, err := incCounter(db, nameCountKey, 1); err != nil {
			return err
		}
		if err := db.Put(nameRegKey(uint64(n.Registered.UnixMilli()), n.Name), nil); err != nil {
			return err
		}
		if err := db.Put(nameOwnerKey(n.Owner, n.Name), nil); err != nil {
			return err
		}
		if _, err := incCounter(db, nameOwnerCountKey(n.Owner), 1); err != nil {
			return err
		}
	} else if old.Owner != n.Owner {
		if err := db.Delete(nameOwnerKey(old.Owner, n.Name)); err != nil {
			return err
		}
		if _, err := incCounter(db, nameOwnerCountKey(old.Owner), -1); err != nil {
			return err
		}
		if err := db.Put(nameOwnerKey(n.Owner, n.Name), nil); err != nil {
			return err
		}
		if _, err := incCounter(db, nameOwnerCountKey(n.Owner), 1); err != nil {
			return err
		}
	}
	if err := maintainFlag(db, nameUnpaidKey(n.Name), old != nil && old.Unpaid > 0, n.Unpaid > 0, unpaidCountKey); err != nil {
		return err
	}

	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return db.Put(nameKey(n.Name), data)
}

// ReadNameCount returns the number of registered names.
func ReadNameCount(db tenebradb.KeyValueReader) (uint64, error) {
	return readCounter(db, nameCountKey)
}

// ReadUnpaidNameCount returns how many names still have unpaid > 0.
// This is the name bonus added to every block reward.
func ReadUnpaidNameCount(db tenebradb.KeyValueReader) (uint64, error) {
	return readCounter(db, unpaidCountKey)
}

// ReadOwnerNameCount returns how many names an address owns.
func ReadOwnerNameCount(db tenebradb.KeyValueReader, owner string) (uint64, error) {
	return readCounter(db, nameOwnerCountKey(owner))
}

// ListNames returns registered names in alphabetical order.
func ListNames(db Reader, limit, offset uint64) ([]*types.Name, error) {
	it := db.NewIterator(namePrefix, nil)
	defer it.Release()

	out := make([]*types.Name, 0, limit)
	var seen uint64
	for it.Next() {
		if seen < offset {
			seen++
			continue
		}
		if uint64(len(out)) >= limit {
			break
		}
		n := new(types.Name)
		if err := json.Unmarshal(it.Value(), n); err != nil {
			return nil, fmt.Errorf("rawdb: corrupt name row %q: %w", it.Key(), err)
		}
		out = append(out, n)
		seen++
	}
	return out, it.Error()
}

// ListNewestNames returns names ordered by registration time, newest
// first.
func ListNewestNames(db Reader, limit, offset uint64) ([]*types.Name, error) {
	it := db.NewIterator(nameRegPrefix, nil)
	defer it.Release()

	out := make([]*types.Name, 0, limit)
	var seen uint64
	skip := len(nameRegPrefix) + 8
	for it.Next() {
		if seen < offset {
			seen++
			continue
		}
		if uint64(len(out)) >= limit {
			break
		}
		key := it.Key()
		if len(key) <= skip {
			return nil, fmt.Errorf("rawdb: malformed name index key %q", key)
		}
		n, err := ReadName(db, string(key[skip:]))
		if err != nil {
			return nil, err
		}
		if n == nil {
			return nil, fmt.Errorf("rawdb: dangling name index key %q", key)
		}
		out = append(out, n)
		seen++
	}
	return out, it.Error()
}

// ListOwnerNames returns the names owned by an address, alphabetical.
func ListOwnerNames(db Reader, owner string, limit, offset uint64) ([]*types.Name, error) {
	prefix := append(nameOwnerPrefix[:len(nameOwnerPrefix):len(nameOwnerPrefix)], owner+":"...)
	it := db.NewIterator(prefix, nil)
	defer it.Release()

	out := make([]*types.Name, 0, limit)
	var seen uint64
	for it.Next() {
		if seen < offset {
			seen++
			continue
		}
		if uint64(len(out)) >= limit {
			break
		}
		n, err := ReadName(db, string(it.Key()[len(prefix):]))
		if err != nil {
			return nil, err
		}
		if n == nil {
			return nil, fmt.Errorf("rawdb: dangling owner index key %q", it.Key())
		}
		out = append(out, n)
		seen++
	}
	return out, it.Error()
}

// ListUnpaidNames returns the names with unpaid > 0, for the per-block
// decay sweep.
func ListUnpaidNames(db Reader) ([]string, error) {
	it := db.NewIterator(nameUnpaidPfx, nil)
	defer it.Release()

	var out []string
	for it.Next() {
		out = append(out, string(it.Key()[len(nameUnpaidPfx):]))
	}
	return out, it.Error()
}
