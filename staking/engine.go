// Package staking implements the proof of stake side of block
// production: stake deposits and withdrawals, the validator lottery and
// the penalty ladder for validators that miss their slot.
package staking

import (
	crand "crypto/rand"
	"math/big"

	"github.com/tenebra-network/gtenebra/core"
	"github.com/tenebra-network/gtenebra/core/rawdb"
	"github.com/tenebra-network/gtenebra/log"
	"github.com/tenebra-network/gtenebra/types"
)

// Engine owns the staking state transitions. The elected validator
// itself lives in the fast state store; everything else is ledger rows.
type Engine struct {
	c *core.Core

	// randUint64 draws uniformly from [0, n). Swapped out in tests.
	randUint64 func(n uint64) uint64
}

// NewEngine binds a staking engine to a core.
func NewEngine(c *core.Core) *Engine {
	return &Engine{c: c, randUint64: cryptoUint64n}
}

func cryptoUint64n(n uint64) uint64 {
	v, err := crand.Int(crand.Reader, new(big.Int).SetUint64(n))
	if err != nil {
		log.Error("Validator lottery randomness failed", "err", err)
		return 0
	}
	return v.Uint64()
}

// Deposit moves amount from the key's balance into stake and activates
// it. The move is recorded as a staking transaction from the staking
// pool to the depositor.
func (e *Engine) Deposit(privatekey string, amount uint64, meta core.RequestMeta) (*types.Stake, error) {
	if amount < 1 {
		return nil, core.ErrInvalidParameter("amount")
	}
	sender, authed, err := e.c.Authenticate(privatekey, meta)
	if err != nil {
		return nil, err
	}
	if !authed {
		return nil, core.ErrAuthFailed
	}
	if sender.Balance < amount {
		return nil, core.ErrInsufficientFunds
	}

	dbtx, err := e.c.DB().OpenTransaction()
	if err != nil {
		return nil, err
	}
	defer dbtx.Discard()

	row, err := rawdb.ReadAddress(dbtx, sender.Address)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, core.ErrAddressNotFound
	}
	if row.Balance < amount {
		return nil, core.ErrInsufficientFunds
	}
	row.Balance -= amount
	row.Stake += amount
	row.StakeActive = true
	if err := rawdb.WriteAddress(dbtx, row); err != nil {
		return nil, err
	}

	tx := &types.Transaction{
		From:      types.RecipientStaking,
		To:        row.Address,
		Value:     amount,
		Time:      e.c.Now(),
		UserAgent: meta.UserAgent,
		Origin:    meta.Origin,
	}
	if err := rawdb.WriteTransaction(dbtx, tx); err != nil {
		return nil, err
	}
	if err := dbtx.Commit(); err != nil {
		return nil, err
	}

	stake := stakeOf(row)
	e.c.Broadcast(core.Event{Kind: core.EventTransaction, Transaction: tx})
	e.c.Broadcast(core.Event{Kind: core.EventStake, Stake: stake})
	return stake, nil
}

// Withdraw moves amount of stake back into the balance. Stake left at
// zero deactivates the staker.
func (e *Engine) Withdraw(privatekey string, amount uint64, meta core.RequestMeta) (*types.Stake, error) {
	if amount < 1 {
		return nil, core.ErrInvalidParameter("amount")
	}
	sender, authed, err := e.c.Authenticate(privatekey, meta)
	if err != nil {
		return nil, err
	}
	if !authed {
		return nil, core.ErrAuthFailed
	}
	if sender.Stake < amount {
		return nil, core.ErrInsufficientFunds
	}

	dbtx, err := e.c.DB().OpenTransaction()
	if err != nil {
		return nil, err
	}
	defer dbtx.Discard()

	row, err := rawdb.ReadAddress(dbtx, sender.Address)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, core.ErrAddressNotFound
	}
	if row.Stake < amount {
		return nil, core.ErrInsufficientFunds
	}
	row.Stake -= amount
	row.Balance += amount
	row.StakeActive = row.Stake > 0
	if err := rawdb.WriteAddress(dbtx, row); err != nil {
		return nil, err
	}

	tx := &types.Transaction{
		From:      row.Address,
		To:        types.RecipientStaking,
		Value:     amount,
		Time:      e.c.Now(),
		UserAgent: meta.UserAgent,
		Origin:    meta.Origin,
	}
	if err := rawdb.WriteTransaction(dbtx, tx); err != nil {
		return nil, err
	}
	if err := dbtx.Commit(); err != nil {
		return nil, err
	}

	stake := stakeOf(row)
	e.c.Broadcast(core.Event{Kind: core.EventTransaction, Transaction: tx})
	e.c.Broadcast(core.Event{Kind: core.EventStake, Stake: stake})
	return stake, nil
}

// Get returns the staking projection of an address.
func (e *Engine) Get(addr string) (*types.Stake, error) {
	a, err := e.c.GetAddress(addr)
	if err != nil {
		return nil, err
	}
	return stakeOf(a), nil
}

// List returns every address holding stake, address ordered, plus the
// total count.
func (e *Engine) List(limit, offset uint64) ([]*types.Stake, uint64, error) {
	addrs, err := rawdb.ListStakes(e.c.DB())
	if err != nil {
		return nil, 0, err
	}
	total := uint64(len(addrs))
	if offset >= total {
		return nil, total, nil
	}
	addrs = addrs[offset:]
	if uint64(len(addrs)) > limit {
		addrs = addrs[:limit]
	}
	out := make([]*types.Stake, len(addrs))
	for i, a := range addrs {
		out[i] = stakeOf(a)
	}
	return out, total, nil
}

// Penalties returns every address still paying off a penalty.
func (e *Engine) Penalties() ([]*types.Penalty, error) {
	addrs, err := rawdb.ListPenalties(e.c.DB())
	if err != nil {
		return nil, err
	}
	out := make([]*types.Penalty, len(addrs))
	for i, a := range addrs {
		out[i] = &types.Penalty{Address: a.Address, Amount: a.Penalty}
	}
	return out, nil
}

// Validator returns the address elected for the current slot, empty
// when none is.
func (e *Engine) Validator() string {
	return e.c.Fast().Validator()
}

func stakeOf(a *types.Address) *types.Stake {
	return &types.Stake{Owner: a.Address, Stake: a.Stake, Active: a.StakeActive}
}
