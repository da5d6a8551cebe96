package rawdb

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tenebra-network/gtenebra/tenebradb"
	"github.com/tenebra-network/gtenebra/types"
)

// ReadLastTxID returns the id of the newest transaction, zero when the
// log is empty.
func ReadLastTxID(db tenebradb.KeyValueReader) (uint64, error) {
	return readCounter(db, lastTxKey)
}

// ReadTransaction returns the transaction with the given id, or nil.
func ReadTransaction(db tenebradb.KeyValueReader, id uint64) (*types.Transaction, error) {
	data, err := db.Get(txKey(id))
	if errors.Is(err, tenebradb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	tx := new(types.Transaction)
	if err := json.Unmarshal(data, tx); err != nil {
		return nil, fmt.Errorf("rawdb: corrupt transaction row %d: %w", id, err)
	}
	return tx, nil
}

// WriteTransaction appends a transaction row, allocating its id, and
// indexes it under both real address parties. Pseudo recipients and the
// empty mined sender are not indexed; nothing looks them up by party.
func WriteTransaction(db Store, tx *types.Transaction) error {
	id, err := incCounter(db, lastTxKey, 1)
	if err != nil {
		return err
	}
	tx.ID = id

	data, err := json.Marshal(tx)
	if err != nil {
		return err
	}
	if err := db.Put(txKey(id), data); err != nil {
		return err
	}
	for _, party := range txParties(tx) {
		if err := db.Put(txAddrKey(party, id), nil); err != nil {
			return err
		}
		if _, err := incCounter(db, txAddrCountKey(party), 1); err != nil {
			return err
		}
	}
	return nil
}

func txParties(tx *types.Transaction) []string {
	var parties []string
	if isAddressParty(tx.From) {
		parties = append(parties, tx.From)
	}
	if isAddressParty(tx.To) && tx.To != tx.From {
		parties = append(parties, tx.To)
	}
	return parties
}

func isAddressParty(s string) bool {
	switch s {
	case "", types.RecipientName, types.RecipientARecord, types.RecipientStaking:
		return false
	}
	return true
}

// ReadTransactionCount returns the total number of transactions.
func ReadTransactionCount(db tenebradb.KeyValueReader) (uint64, error) {
	return readCounter(db, lastTxKey)
}

// ReadAddressTransactionCount returns how many transactions an address
// participated in.
func ReadAddressTransactionCount(db tenebradb.KeyValueReader, addr string) (uint64, error) {
	return readCounter(db, txAddrCountKey(addr))
}

// ListTransactions pages through the global log. Ids are dense, so
// paging is point reads. When excludeMined is set, offset and limit
// apply to the filtered sequence.
func ListTransactions(db tenebradb.KeyValueReader, limit, offset uint64, newestFirst, excludeMined bool) ([]*types.Transaction, error) {
	last, err := ReadLastTxID(db)
	if err != nil || last == 0 {
		return nil, err
	}
	out := make([]*types.Transaction, 0, limit)

	next := func(id uint64) uint64 {
		if newestFirst {
			return id - 1
		}
		return id + 1
	}
	id := uint64(1)
	if newestFirst {
		id = last
	}

	var skipped uint64
	for id >= 1 && id <= last && uint64(len(out)) < limit {
		tx, err := ReadTransaction(db, id)
		if err != nil {
			return nil, err
		}
		if tx == nil {
			return nil, fmt.Errorf("rawdb: missing transaction %d below last %d", id, last)
		}
		id = next(id)
		if excludeMined && tx.Type() == types.TxMined {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

// ForEachTransaction streams the whole log in id order. Search scans
// ride on this; the log is dense so it is plain point reads.
func ForEachTransaction(db tenebradb.KeyValueReader, fn func(*types.Transaction) error) error {
	last, err := ReadLastTxID(db)
	if err != nil {
		return err
	}
	for id := uint64(1); id <= last; id++ {
		tx, err := ReadTransaction(db, id)
		if err != nil {
			return err
		}
		if tx == nil {
			return fmt.Errorf("rawdb: missing transaction %d below last %d", id, last)
		}
		if err := fn(tx); err != nil {
			return err
		}
	}
	return nil
}

// ListAddressTransactions pages through one address's transactions,
// newest first.
func ListAddressTransactions(db Reader, addr string, limit, offset uint64, excludeMined bool) ([]*types.Transaction, error) {
	prefix := append(txAddrPrefix[:len(txAddrPrefix):len(txAddrPrefix)], addr...)
	it := db.NewIterator(prefix, nil)
	defer it.Release()

	out := make([]*types.Transaction, 0, limit)
	var skipped uint64
	for it.Next() && uint64(len(out)) < limit {
		key := it.Key()
		if len(key) != len(prefix)+8 {
			return nil, fmt.Errorf("rawdb: malformed transaction index key %q", key)
		}
		id := ^decodeUint64(key[len(prefix):])
		tx, err := ReadTransaction(db, id)
		if err != nil {
			return nil, err
		}
		if tx == nil {
			return nil, fmt.Errorf("rawdb: dangling transaction index key %q", key)
		}
		if excludeMined && tx.Type() == types.TxMined {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, tx)
	}
	return out, it.Error()
}
