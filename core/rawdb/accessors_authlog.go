package rawdb

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tenebra-network/gtenebra/tenebradb"
	"github.com/tenebra-network/gtenebra/types"
)

// AppendAuthLog records an authentication attempt. Keys are time
// ordered so retention pruning is a bounded range scan.
func AppendAuthLog(db Store, e *types.AuthLogEntry) error {
	seq, err := incCounter(db, authLogSeqKey, 1)
	if err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return db.Put(authLogKey(uint64(e.Time.UnixMilli()), seq), data)
}

// PruneAuthLog deletes entries older than cutoff and reports how many
// were removed.
func PruneAuthLog(db tenebradb.Database, cutoff time.Time) (int, error) {
	it := db.NewIterator(authLogPrefix, nil)
	defer it.Release()

	limit := uint64(cutoff.UnixMilli())
	batch := db.NewBatch()
	removed := 0
	for it.Next() {
		key := it.Key()
		if len(key) != len(authLogPrefix)+16 {
			return removed, fmt.Errorf("rawdb: malformed auth log key %q", key)
		}
		if decodeUint64(key[len(authLogPrefix):len(authLogPrefix)+8]) >= limit {
			break
		}
		if err := batch.Delete(key); err != nil {
			return removed, err
		}
		removed++
	}
	if err := it.Error(); err != nil {
		return removed, err
	}
	if removed > 0 {
		if err := batch.Write(); err != nil {
			return 0, err
		}
	}
	return removed, nil
}

// ListAuthLog returns entries newest last, for tests and inspection.
func ListAuthLog(db Reader, limit uint64) ([]*types.AuthLogEntry, error) {
	it := db.NewIterator(authLogPrefix, nil)
	defer it.Release()

	var out []*types.AuthLogEntry
	for it.Next() && uint64(len(out)) < limit {
		e := new(types.AuthLogEntry)
		if err := json.Unmarshal(it.Value(), e); err != nil {
			return nil, fmt.Errorf("rawdb: corrupt auth log row %q: %w", it.Key(), err)
		}
		out = append(out, e)
	}
	return out, it.Error()
}
