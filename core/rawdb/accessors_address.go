package rawdb

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tenebra-network/gtenebra/tenebradb"
	"github.com/tenebra-network/gtenebra/types"
)

// ReadAddress returns the stored row for addr, or nil when the address
// has never been seen.
func ReadAddress(db tenebradb.KeyValueReader, addr string) (*types.Address, error) {
	data, err := db.Get(addressKey(addr))
	if errors.Is(err, tenebradb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a := new(types.Address)
	if err := json.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("rawdb: corrupt address row %s: %w", addr, err)
	}
	return a, nil
}

// WriteAddress stores an address row and maintains the balance, first
// seen, stake and penalty indexes plus the address counter. It reads
// the previous row itself, so callers just hand in the new state.
func WriteAddress(db Store, a *types.Address) error {
	old, err := ReadAddress(db, a.Address)
	if err != nil {
		return err
	}
	if old == nil {
		if _, err := incCounter(db, addressCountKey, 1); err != nil {
			return err
		}
		if err := db.Put(addrSeenKey(uint64(a.FirstSeen.UnixMilli()), a.Address), nil); err != nil {
			return err
		}
	} else if old.Balance != a.Balance {
		if err := db.Delete(balanceKey(old.Balance, a.Address)); err != nil {
			return err
		}
	}
	if err := db.Put(balanceKey(a.Balance, a.Address), nil); err != nil {
		return err
	}

	if err := maintainFlag(db, stakeKey(a.Address), old != nil && old.Stake > 0, a.Stake > 0, nil); err != nil {
		return err
	}
	penCount := penaltyCountKey
	if err := maintainFlag(db, penaltyKey(a.Address), old != nil && old.Penalty > 0, a.Penalty > 0, penCount); err != nil {
		return err
	}

	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return db.Put(addressKey(a.Address), data)
}

// maintainFlag keeps a membership key and optional counter in sync with
// a boolean transition.
func maintainFlag(db Store, key []byte, was, is bool, counter []byte) error {
	switch {
	case is && !was:
		if counter != nil {
			if _, err := incCounter(db, counter, 1); err != nil {
				return err
			}
		}
		return db.Put(key, nil)
	case !is && was:
		if counter != nil {
			if _, err := incCounter(db, counter, -1); err != nil {
				return err
			}
		}
		return db.Delete(key)
	default:
		return nil
	}
}

// ReadAddressCount returns the number of known addresses.
func ReadAddressCount(db tenebradb.KeyValueReader) (uint64, error) {
	return readCounter(db, addressCountKey)
}

// ListAddresses returns addresses ordered by first appearance.
func ListAddresses(db Reader, limit, offset uint64) ([]*types.Address, error) {
	return readAddressIndex(db, addrSeenPrefix, len(addrSeenPrefix)+8, limit, offset)
}

// ListRichAddresses returns addresses ordered by balance, richest
// first.
func ListRichAddresses(db Reader, limit, offset uint64) ([]*types.Address, error) {
	return readAddressIndex(db, balancePrefix, len(balancePrefix)+8, limit, offset)
}

func readAddressIndex(db Reader, prefix []byte, skip int, limit, offset uint64) ([]*types.Address, error) {
	it := db.NewIterator(prefix, nil)
	defer it.Release()

	out := make([]*types.Address, 0, limit)
	var seen uint64
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
			return nil, fmt.Errorf("rawdb: malformed address index key %q", key)
		}
		a, err := ReadAddress(db, string(key[skip:]))
		if err != nil {
			return nil, err
		}
		if a == nil {
			return nil, fmt.Errorf("rawdb: dangling address index key %q", key)
		}
		out = append(out, a)
		seen++
	}
	return out, it.Error()
}

// ListStakes returns every address currently holding stake.
func ListStakes(db Reader) ([]*types.Address, error) {
	it := db.NewIterator(stakePrefix, nil)
	defer it.Release()

	var out []*types.Address
	for it.Next() {
		addr := string(it.Key()[len(stakePrefix):])
		a, err := ReadAddress(db, addr)
		if err != nil {
			return nil, err
		}
		if a == nil {
			return nil, fmt.Errorf("rawdb: dangling stake index key %q", it.Key())
		}
		out = append(out, a)
	}
	return out, it.Error()
}

// ListPenalties returns every address with an outstanding penalty.
func ListPenalties(db Reader) ([]*types.Address, error) {
	it := db.NewIterator(penaltyPrefix, nil)
	defer it.Release()

	var out []*types.Address
	for it.Next() {
		addr := string(it.Key()[len(penaltyPrefix):])
		a, err := ReadAddress(db, addr)
		if err != nil {
			return nil, err
		}
		if a == nil {
			return nil, fmt.Errorf("rawdb: dangling penalty index key %q", it.Key())
		}
		out = append(out, a)
	}
	return out, it.Error()
}

// ReadPenaltyCount returns the number of addresses with penalty > 0.
func ReadPenaltyCount(db tenebradb.KeyValueReader) (uint64, error) {
	return readCounter(db, penaltyCountKey)
}
