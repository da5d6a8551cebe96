package core

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tenebra-network/gtenebra/core/rawdb"
	"github.com/tenebra-network/gtenebra/crypto"
	"github.com/tenebra-network/gtenebra/log"
	"github.com/tenebra-network/gtenebra/types"
)

// ShortHashLen is how much of a block hash the next solution hashes
// against.
const ShortHashLen = 12

// SubmitBlock validates a solution for the configured chain mode and,
// if acceptable, appends the block, mints its reward and retargets the
// work. It returns the new block and the work for the next one.
//
// Under proof of work the solution hash must not exceed the current
// work; under proof of stake the submitting address must be the
// elected validator. The whole submission is serialised so the gate,
// the append and the work update form one unit.
func (c *Core) SubmitBlock(address string, nonce []byte, meta RequestMeta) (*types.Block, uint64, error) {
	mining, staking := c.fast.MiningEnabled(), c.fast.StakingEnabled()
	if !mining && !staking {
		return nil, 0, ErrMiningDisabled
	}
	if address == "" {
		return nil, 0, ErrMissingParameter("address")
	}
	if !crypto.IsValidV2Address(c.cfg.AddressPrefix, address) {
		return nil, 0, ErrInvalidParameter("address")
	}
	if len(nonce) == 0 {
		return nil, 0, ErrMissingParameter("nonce")
	}
	if len(nonce) > c.cfg.NonceMaxSize {
		return nil, 0, ErrLargeParameter("nonce")
	}
	c.logAuth(address, types.AuthTypeMining, meta)

	c.submitMu.Lock()
	defer c.submitMu.Unlock()

	lastHeight, lastShort, lastTime, err := c.chainHead()
	if err != nil {
		return nil, 0, err
	}
	hash := crypto.Sha256Hex([]byte(address), []byte(lastShort), nonce)
	work := c.fast.Work()

	if mining {
		if solutionValue(hash) > work && !c.fast.FreeNonce() {
			return nil, 0, ErrSolutionIncorrect
		}
	} else if address != c.fast.Validator() {
		return nil, 0, ErrUnselectedValidator
	}
	if seen, err := c.seenSolution(hash); err != nil {
		return nil, 0, err
	} else if seen {
		return nil, 0, ErrSolutionDuplicate
	}

	now := c.now()
	dbtx, err := c.db.OpenTransaction()
	if err != nil {
		return nil, 0, err
	}
	defer dbtx.Discard()

	unpaid, err := rawdb.ReadUnpaidNameCount(dbtx)
	if err != nil {
		return nil, 0, err
	}
	penalties, err := rawdb.ReadPenaltyCount(dbtx)
	if err != nil {
		return nil, 0, err
	}
	value := c.cfg.BaseBlockValue(lastHeight) + unpaid + penalties
	newWork := retargetWork(c.cfg, work, now.Sub(lastTime))

	block := &types.Block{
		Height:     lastHeight + 1,
		Address:    address,
		Hash:       hash,
		Nonce:      hex.EncodeToString(nonce),
		Value:      value,
		Time:       now,
		Difficulty: work,
		UserAgent:  meta.UserAgent,
		Origin:     meta.Origin,
	}
	if err := rawdb.WriteBlock(dbtx, block); err != nil {
		if err == rawdb.ErrBlockHashExists {
			return nil, 0, ErrSolutionDuplicate
		}
		return nil, 0, err
	}

	minedTx := &types.Transaction{
		To:        address,
		Value:     value,
		Time:      now,
		UserAgent: meta.UserAgent,
		Origin:    meta.Origin,
	}
	if err := rawdb.WriteTransaction(dbtx, minedTx); err != nil {
		return nil, 0, err
	}

	if err := sweepUnpaidNames(dbtx); err != nil {
		return nil, 0, err
	}
	if err := sweepPenalties(dbtx); err != nil {
		return nil, 0, err
	}
	if _, err := CreditAddress(dbtx, address, value, now); err != nil {
		return nil, 0, err
	}
	if err := rawdb.AdjustSupply(dbtx, int64(value)); err != nil {
		return nil, 0, err
	}
	if err := dbtx.Commit(); err != nil {
		return nil, 0, err
	}

	c.fast.SetWork(newWork)
	c.addSolution(hash)
	produced := !mining
	if produced {
		// The validator produced its slot. Clearing it here keeps the
		// next election tick from treating it as a miss.
		c.fast.SetValidator("")
	}
	log.Info("Accepted block", "height", block.Height, "address", address,
		"value", value, "work", newWork)

	c.Broadcast(Event{Kind: EventBlock, Block: block, NewWork: newWork})
	c.Broadcast(Event{Kind: EventTransaction, Transaction: minedTx})
	if produced {
		c.Broadcast(Event{Kind: EventValidator, Validator: ""})
	}
	return block, newWork, nil
}

// chainHead returns the height, short hash and time of the newest
// block. An empty chain yields the all-zero short hash so solutions can
// anchor before genesis exists.
func (c *Core) chainHead() (uint64, string, time.Time, error) {
	last, err := rawdb.ReadLastBlockHeight(c.db)
	if err != nil {
		return 0, "", time.Time{}, err
	}
	if last == 0 {
		return 0, strings.Repeat("0", ShortHashLen), c.now(), nil
	}
	b, err := rawdb.ReadBlock(c.db, last)
	if err != nil {
		return 0, "", time.Time{}, err
	}
	if b == nil {
		return 0, "", time.Time{}, fmt.Errorf("core: missing head block %d", last)
	}
	return b.Height, b.Hash[:ShortHashLen], b.Time, nil
}

// seenSolution checks the bloom filter for a solution hash, confirming
// positives against the database.
func (c *Core) seenSolution(hash string) (bool, error) {
	v, err := strconv.ParseUint(hash[:16], 16, 64)
	if err != nil {
		return false, nil
	}
	if !c.solutions.ContainsHash(v) {
		return false, nil
	}
	return rawdb.HasBlockHash(c.db, hash)
}

func (c *Core) addSolution(hash string) {
	if v, err := strconv.ParseUint(hash[:16], 16, 64); err == nil {
		c.solutions.AddHash(v)
	}
}

// sweepUnpaidNames pays one block toward every unpaid name.
func sweepUnpaidNames(dbtx rawdb.Store) error {
	names, err := rawdb.ListUnpaidNames(dbtx)
	if err != nil {
		return err
	}
	for _, name := range names {
		n, err := rawdb.ReadName(dbtx, name)
		if err != nil {
			return err
		}
		if n == nil || n.Unpaid == 0 {
			continue
		}
		n.Unpaid--
		if err := rawdb.WriteName(dbtx, n); err != nil {
			return err
		}
	}
	return nil
}

// sweepPenalties pays one block toward every outstanding penalty.
func sweepPenalties(dbtx rawdb.Store) error {
	addrs, err := rawdb.ListPenalties(dbtx)
	if err != nil {
		return err
	}
	for _, a := range addrs {
		if a.Penalty == 0 {
			continue
		}
		a.Penalty--
		if err := rawdb.WriteAddress(dbtx, a); err != nil {
			return err
		}
	}
	return nil
}

// GetLastBlock returns the newest block or ErrBlockNotFound on an empty
// chain.
func (c *Core) GetLastBlock() (*types.Block, error) {
	last, err := rawdb.ReadLastBlockHeight(c.db)
	if err != nil {
		return nil, err
	}
	if last == 0 {
		return nil, ErrBlockNotFound
	}
	b, err := rawdb.ReadBlock(c.db, last)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBlockNotFound
	}
	return b, nil
}

// GetBlock returns the block at height or ErrBlockNotFound.
func (c *Core) GetBlock(height uint64) (*types.Block, error) {
	b, err := rawdb.ReadBlock(c.db, height)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBlockNotFound
	}
	return b, nil
}

// ListBlocks pages through the chain plus the total block count.
func (c *Core) ListBlocks(limit, offset uint64, newestFirst bool) ([]*types.Block, uint64, error) {
	total, err := rawdb.ReadLastBlockHeight(c.db)
	if err != nil {
		return nil, 0, err
	}
	out, err := rawdb.ListBlocks(c.db, limit, offset, newestFirst)
	return out, total, err
}

// LowestHashBlock returns the block whose hash sorts lowest, the
// all-time best solution.
func (c *Core) LowestHashBlock() (*types.Block, error) {
	b, err := rawdb.ReadLowestHashBlock(c.db)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBlockNotFound
	}
	return b, nil
}
