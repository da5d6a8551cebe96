package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tenebra-network/gtenebra/params"
)

func TestSolutionValue(t *testing.T) {
	assert.Equal(t, uint64(0), solutionValue("000000000000ffff"))
	assert.Equal(t, uint64(1), solutionValue("000000000001ffff"))
	assert.Equal(t, uint64(0xffffffffffff), solutionValue("ffffffffffff0000"))
	assert.Equal(t, uint64(0x100000), solutionValue("000000100000"))
}

func TestRetargetWork(t *testing.T) {
	cfg := params.TestChainConfig.Copy()

	// An exactly on-time block is a fixed point.
	assert.Equal(t, uint64(1000), retargetWork(cfg, 1000, 60*time.Second))
	assert.Equal(t, cfg.MaxWork, retargetWork(cfg, cfg.MaxWork, 60*time.Second))

	// Twice the spacing eases work up by the damping factor.
	// target = 2000, next = 1000 + 1000*0.025 = 1025.
	assert.Equal(t, uint64(1025), retargetWork(cfg, 1000, 120*time.Second))

	// An instant block pulls work down toward zero.
	// target = 0, next = 1000 - 1000*0.025 = 975.
	assert.Equal(t, uint64(975), retargetWork(cfg, 1000, 0))

	// Results clamp to the configured bounds.
	assert.Equal(t, cfg.MinWork, retargetWork(cfg, cfg.MinWork, 0))
	assert.Equal(t, cfg.MaxWork, retargetWork(cfg, cfg.MaxWork, time.Hour))

	// Negative elapsed times behave like zero.
	assert.Equal(t, uint64(975), retargetWork(cfg, 1000, -time.Minute))
}

func TestRetargetWorkConverges(t *testing.T) {
	cfg := params.TestChainConfig.Copy()

	// Persistent fast blocks walk work down to the floor.
	w := cfg.MaxWork
	for i := 0; i < 5000; i++ {
		w = retargetWork(cfg, w, time.Second)
	}
	assert.Equal(t, cfg.MinWork, w)

	// Persistent slow blocks walk it back up to the ceiling.
	for i := 0; i < 5000; i++ {
		w = retargetWork(cfg, w, 10*time.Minute)
	}
	assert.Equal(t, cfg.MaxWork, w)
}
