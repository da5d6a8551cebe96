package rawdb

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tenebra-network/gtenebra/tenebradb"
	"github.com/tenebra-network/gtenebra/types"
)

// ReadLastBlockHeight returns the height of the newest block, zero on
// an empty chain.
func ReadLastBlockHeight(db tenebradb.KeyValueReader) (uint64, error) {
	return readCounter(db, lastBlockKey)
}

// ReadBlock returns the block at the given height, or nil if the chain
// has not reached it.
func ReadBlock(db tenebradb.KeyValueReader, height uint64) (*types.Block, error) {
	data, err := db.Get(blockKey(height))
	if errors.Is(err, tenebradb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b := new(types.Block)
	if err := json.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("rawdb: corrupt block row %d: %w", height, err)
	}
	return b, nil
}

// ReadBlockByHash resolves a full block hash to its block.
func ReadBlockByHash(db tenebradb.KeyValueReader, hash string) (*types.Block, error) {
	data, err := db.Get(blockHashKey(hash))
	if errors.Is(err, tenebradb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ReadBlock(db, decodeUint64(data))
}

// HasBlockHash reports whether a solution hash is already on the chain.
func HasBlockHash(db tenebradb.KeyValueReader, hash string) (bool, error) {
	return db.Has(blockHashKey(hash))
}

// WriteBlock appends a block. The hash index doubles as the uniqueness
// constraint: a re-submitted solution fails with ErrBlockHashExists
// before anything is written.
func WriteBlock(db Store, b *types.Block) error {
	exists, err := HasBlockHash(db, b.Hash)
	if err != nil {
		return err
	}
	if exists {
		return ErrBlockHashExists
	}
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	if err := db.Put(blockKey(b.Height), data); err != nil {
		return err
	}
	if err := db.Put(blockHashKey(b.Hash), encodeUint64(b.Height)); err != nil {
		return err
	}
	return writeCounter(db, lastBlockKey, b.Height)
}

// ListBlocks returns up to limit blocks starting offset away from the
// chain edge. Heights are dense, so listing is plain point reads.
func ListBlocks(db tenebradb.KeyValueReader, limit, offset uint64, newestFirst bool) ([]*types.Block, error) {
	last, err := ReadLastBlockHeight(db)
	if err != nil || last == 0 {
		return nil, err
	}
	out := make([]*types.Block, 0, limit)
	if newestFirst {
		if offset >= last {
			return out, nil
		}
		for h := last - offset; h >= 1 && uint64(len(out)) < limit; h-- {
			b, err := ReadBlock(db, h)
			if err != nil {
				return nil, err
			}
			if b == nil {
				return nil, fmt.Errorf("rawdb: missing block %d below head %d", h, last)
			}
			out = append(out, b)
		}
		return out, nil
	}
	for h := offset + 1; h <= last && uint64(len(out)) < limit; h++ {
		b, err := ReadBlock(db, h)
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, fmt.Errorf("rawdb: missing block %d below head %d", h, last)
		}
		out = append(out, b)
	}
	return out, nil
}

// ForEachBlockHash streams every solution hash on the chain, in hash
// order. Used to warm the duplicate-solution filter at boot.
func ForEachBlockHash(db Reader, fn func(hash string) error) error {
	it := db.NewIterator(blockHashPrefix, nil)
	defer it.Release()

	for it.Next() {
		if err := fn(string(it.Key()[len(blockHashPrefix):])); err != nil {
			return err
		}
	}
	return it.Error()
}

// ReadLowestHashBlock returns the block with the lexicographically
// smallest hash. The hash index is already hash ordered, so this is the
// first key under it.
func ReadLowestHashBlock(db Reader) (*types.Block, error) {
	it := db.NewIterator(blockHashPrefix, nil)
	defer it.Release()

	if !it.Next() {
		return nil, it.Error()
	}
	return ReadBlock(db, decodeUint64(it.Value()))
}
