package core

import (
	"math"
	"strconv"
	"time"

	"github.com/tenebra-network/gtenebra/core/rawdb"
	"github.com/tenebra-network/gtenebra/params"
)

// solutionValue interprets the first twelve hex digits of a solution
// hash as an integer. A solution is acceptable when this does not
// exceed the current work.
func solutionValue(hash string) uint64 {
	v, err := strconv.ParseUint(hash[:12], 16, 64)
	if err != nil {
		return math.MaxUint64
	}
	return v
}

// retargetWork moves work a fixed fraction toward the value that would
// have made the last block take exactly the target spacing. An on-time
// block leaves work unchanged.
func retargetWork(cfg *params.ChainConfig, work uint64, elapsed time.Duration) uint64 {
	seconds := elapsed.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	target := seconds * float64(work) / float64(cfg.SecondsPerBlock)
	next := math.Round(float64(work) + (target-float64(work))*cfg.WorkFactor)
	if next < 0 {
		next = 0
	}
	return cfg.ClampWork(uint64(next))
}

// CurrentWork returns the live work value.
func (c *Core) CurrentWork() uint64 {
	return c.fast.Work()
}

// SampleWork appends the current work to the rolling day window. The
// node calls this once a minute.
func (c *Core) SampleWork() {
	c.fast.PushWorkSample(c.fast.Work())
}

// WorkOverTime returns the sampled work history, oldest first.
func (c *Core) WorkOverTime() []uint64 {
	return c.fast.WorkOverTime()
}

// DetailedWork is the work endpoint's expanded payload: the live work
// plus a breakdown of the next block's value and how the unpaid name
// bonus will decay.
type DetailedWork struct {
	Work       uint64 `json:"work"`
	Unpaid     uint64 `json:"unpaid"`
	BaseValue  uint64 `json:"base_value"`
	BlockValue uint64 `json:"block_value"`

	Decrease struct {
		Value  uint64 `json:"value"`
		Blocks uint64 `json:"blocks"`
		Reset  uint64 `json:"reset"`
	} `json:"decrease"`
}

// GetDetailedWork assembles the detailed work payload. Decrease.Value
// is how much the block value drops once the soonest expiring names
// stop paying, Decrease.Blocks is how many blocks away that is and
// Decrease.Reset is when the whole name bonus is gone.
func (c *Core) GetDetailedWork() (*DetailedWork, error) {
	d := &DetailedWork{Work: c.fast.Work()}

	last, err := rawdb.ReadLastBlockHeight(c.db)
	if err != nil {
		return nil, err
	}
	d.BaseValue = c.cfg.BaseBlockValue(last)

	unpaid, err := rawdb.ReadUnpaidNameCount(c.db)
	if err != nil {
		return nil, err
	}
	penalties, err := rawdb.ReadPenaltyCount(c.db)
	if err != nil {
		return nil, err
	}
	d.Unpaid = unpaid
	d.BlockValue = d.BaseValue + unpaid + penalties

	names, err := rawdb.ListUnpaidNames(c.db)
	if err != nil {
		return nil, err
	}
	var soonest, latest uint64
	for _, name := range names {
		n, err := rawdb.ReadName(c.db, name)
		if err != nil {
			return nil, err
		}
		if n == nil || n.Unpaid == 0 {
			continue
		}
		if soonest == 0 || n.Unpaid < soonest {
			soonest = n.Unpaid
			d.Decrease.Value = 1
		} else if n.Unpaid == soonest {
			d.Decrease.Value++
		}
		if n.Unpaid > latest {
			latest = n.Unpaid
		}
	}
	d.Decrease.Blocks = soonest
	d.Decrease.Reset = latest
	return d, nil
}
