package staking

import (
	"github.com/tenebra-network/gtenebra/core"
	"github.com/tenebra-network/gtenebra/core/rawdb"
	"github.com/tenebra-network/gtenebra/log"
	"github.com/tenebra-network/gtenebra/types"
)

// Tick runs one validator election epoch: the previous validator is
// penalised for missing its slot, then a new one is drawn by stake
// weight. A validator that did produce was already cleared by the
// chain, so production escapes the penalty.
func (e *Engine) Tick() error {
	prev := e.c.Fast().Validator()

	dbtx, err := e.c.DB().OpenTransaction()
	if err != nil {
		return err
	}
	defer dbtx.Discard()

	var penalized *types.Stake
	if prev != "" {
		penalized, err = penalize(dbtx, prev, e.c.Config().ValidatorPenalty)
		if err != nil {
			return err
		}
	}

	next, err := e.elect(dbtx)
	if err != nil {
		return err
	}
	if err := dbtx.Commit(); err != nil {
		return err
	}

	e.c.Fast().SetValidator(next)
	if penalized != nil {
		log.Info("Penalised absent validator", "address", prev, "stake", penalized.Stake)
		e.c.Broadcast(core.Event{Kind: core.EventStake, Stake: penalized})
	}
	e.c.Broadcast(core.Event{Kind: core.EventValidator, Validator: next})
	return nil
}

// elect draws the next validator from the active stakers, weighted by
// stake. An empty pool elects nobody.
func (e *Engine) elect(dbtx rawdb.Store) (string, error) {
	stakers, err := rawdb.ListStakes(dbtx)
	if err != nil {
		return "", err
	}

	var total uint64
	cumulative := make([]uint64, 0, len(stakers))
	active := make([]*types.Address, 0, len(stakers))
	for _, a := range stakers {
		if !a.StakeActive || a.Stake == 0 {
			continue
		}
		total += a.Stake
		cumulative = append(cumulative, total)
		active = append(active, a)
	}
	if total == 0 {
		return "", nil
	}

	r := e.randUint64(total)
	for i, sum := range cumulative {
		if sum > r {
			return active[i].Address, nil
		}
	}
	// r < total, so the loop always terminates above.
	return active[len(active)-1].Address, nil
}

// penalize moves min(penalty, stake) out of an address's stake into its
// penalty counter and deactivates it. The forfeited stake leaves
// circulation until blocks pay the penalty back down.
func penalize(dbtx rawdb.Store, addr string, penalty uint64) (*types.Stake, error) {
	row, err := rawdb.ReadAddress(dbtx, addr)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	p := penalty
	if row.Stake < p {
		p = row.Stake
	}
	row.Stake -= p
	row.Penalty += p
	row.StakeActive = false
	if err := rawdb.WriteAddress(dbtx, row); err != nil {
		return nil, err
	}
	if p > 0 {
		if err := rawdb.AdjustSupply(dbtx, -int64(p)); err != nil {
			return nil, err
		}
	}
	return stakeOf(row), nil
}
