package core

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenebra-network/gtenebra/core/rawdb"
	"github.com/tenebra-network/gtenebra/crypto"
	"github.com/tenebra-network/gtenebra/types"
)

func TestSubmitBlockDisabled(t *testing.T) {
	env := newTestCore(t, true)

	_, _, err := env.c.SubmitBlock(testAddrA, []byte("n"), RequestMeta{})
	assert.ErrorIs(t, err, ErrMiningDisabled)
}

func TestSubmitBlockValidation(t *testing.T) {
	env := newTestCore(t, true)
	env.fast.SetMiningEnabled(true)

	_, _, err := env.c.SubmitBlock("", []byte("n"), RequestMeta{})
	assert.ErrorIs(t, err, ErrMissingParameter("address"))

	_, _, err = env.c.SubmitBlock("kxxxxxxxxx", []byte("n"), RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidParameter("address"))

	// v1 addresses cannot mine.
	_, _, err = env.c.SubmitBlock("a5dfb396d3", []byte("n"), RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidParameter("address"))

	_, _, err = env.c.SubmitBlock(testAddrA, nil, RequestMeta{})
	assert.ErrorIs(t, err, ErrMissingParameter("nonce"))

	_, _, err = env.c.SubmitBlock(testAddrA, []byte(strings.Repeat("x", 25)), RequestMeta{})
	assert.ErrorIs(t, err, ErrLargeParameter("nonce"))
}

func TestSubmitBlockPoW(t *testing.T) {
	env := newTestCore(t, true)
	rec := &eventRecorder{}
	env.c.SetBroadcaster(rec)
	env.fast.SetMiningEnabled(true)
	env.fast.SetFreeNonce(true)

	block, work, err := env.c.SubmitBlock(testAddrA, []byte("n1"), RequestMeta{IP: "10.0.0.1", UserAgent: "miner/2"})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), block.Height)
	assert.Equal(t, testAddrA, block.Address)
	assert.Equal(t, uint64(25), block.Value)
	assert.Equal(t, "6e31", block.Nonce)
	assert.Equal(t, env.c.cfg.MaxWork, block.Difficulty)
	assert.Equal(t, "miner/2", block.UserAgent)

	// Instant block: work steps down by the damping factor.
	assert.Equal(t, uint64(97500), work)
	assert.Equal(t, uint64(97500), env.fast.Work())

	// The solution hashes the miner, the previous short hash and the
	// nonce.
	expected := crypto.Sha256Hex([]byte(testAddrA), []byte(strings.Repeat("0", 12)), []byte("n1"))
	assert.Equal(t, expected, block.Hash)

	// Reward is minted to the miner alongside a mined transaction row.
	miner, err := env.c.GetAddress(testAddrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(25), miner.Balance)

	txs, _, err := env.c.ListAddressTransactions(testAddrA, 10, 0, false)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, types.TxMined, txs[0].Type())
	assert.Equal(t, uint64(25), txs[0].Value)

	supply, err := env.c.Supply()
	require.NoError(t, err)
	assert.Equal(t, uint64(75), supply)

	assert.Equal(t, []EventKind{EventBlock, EventTransaction}, rec.kinds())

	// The submission shows up in the auth log as mining use.
	entries, err := env.c.AuthLog(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, types.AuthTypeMining, entries[0].Type)
	assert.Equal(t, testAddrA, entries[0].Address)
}

func TestSubmitBlockWorkGate(t *testing.T) {
	env := newTestCore(t, true)
	env.fast.SetMiningEnabled(true)

	// Work zero rejects effectively every hash.
	env.fast.SetWork(0)
	_, _, err := env.c.SubmitBlock(testAddrA, []byte("n1"), RequestMeta{})
	assert.ErrorIs(t, err, ErrSolutionIncorrect)

	// The full 48 bit range accepts every hash.
	env.fast.SetWork(1<<48 - 1)
	_, _, err = env.c.SubmitBlock(testAddrA, []byte("n1"), RequestMeta{})
	require.NoError(t, err)
}

func TestSubmitBlockDuplicateSolution(t *testing.T) {
	env := newTestCore(t, true)
	env.fast.SetMiningEnabled(true)
	env.fast.SetFreeNonce(true)

	// Plant an old block carrying the exact hash a replayed submission
	// would produce, then one whose short hash matches genesis so the
	// replay anchors identically.
	replayed := crypto.Sha256Hex([]byte(testAddrA), []byte(strings.Repeat("0", 12)), []byte("replay"))
	dbtx, err := env.db.OpenTransaction()
	require.NoError(t, err)
	require.NoError(t, rawdb.WriteBlock(dbtx, &types.Block{
		Height: 2, Address: testAddrB, Hash: replayed, Time: env.now,
	}))
	require.NoError(t, rawdb.WriteBlock(dbtx, &types.Block{
		Height: 3, Address: testAddrB,
		Hash: strings.Repeat("0", 12) + strings.Repeat("ab", 26), Time: env.now,
	}))
	require.NoError(t, dbtx.Commit())

	_, _, err = env.c.SubmitBlock(testAddrA, []byte("replay"), RequestMeta{})
	assert.ErrorIs(t, err, ErrSolutionDuplicate)

	// Chain is untouched.
	last, err := env.c.GetLastBlock()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), last.Height)
}

func TestSubmitBlockConcurrent(t *testing.T) {
	env := newTestCore(t, true)
	env.fast.SetMiningEnabled(true)
	env.fast.SetFreeNonce(true)

	const (
		workers = 8
		rounds  = 4
	)
	var wg sync.WaitGroup
	errs := make(chan error, workers*rounds)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				nonce := []byte(fmt.Sprintf("w%d-r%d", w, r))
				if _, _, err := env.c.SubmitBlock(testAddrA, nonce, RequestMeta{}); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent submit: %v", err)
	}

	// Submissions serialise into a dense chain with no skipped or doubled
	// heights.
	last, err := env.c.GetLastBlock()
	require.NoError(t, err)
	assert.Equal(t, uint64(1+workers*rounds), last.Height)
	seen := make(map[string]bool)
	for h := uint64(2); h <= last.Height; h++ {
		b, err := env.c.GetBlock(h)
		require.NoError(t, err)
		assert.False(t, seen[b.Hash], "hash repeated at height %d", h)
		seen[b.Hash] = true
	}

	// Every accepted block minted exactly its reward.
	supply, err := env.c.Supply()
	require.NoError(t, err)
	assert.Equal(t, uint64(50+25*workers*rounds), supply)
}

func TestSubmitBlockPoS(t *testing.T) {
	env := newTestCore(t, true)
	rec := &eventRecorder{}
	env.c.SetBroadcaster(rec)
	env.fast.SetStakingEnabled(true)
	env.fast.SetValidator(testAddrB)

	_, _, err := env.c.SubmitBlock(testAddrA, []byte("n"), RequestMeta{})
	assert.ErrorIs(t, err, ErrUnselectedValidator)

	block, _, err := env.c.SubmitBlock(testAddrB, []byte("n"), RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), block.Height)
	assert.Equal(t, testAddrB, block.Address)

	// Producing the slot clears the validator.
	assert.Equal(t, "", env.fast.Validator())
	assert.Equal(t, []EventKind{EventBlock, EventTransaction, EventValidator}, rec.kinds())
}

func TestSubmitBlockBonuses(t *testing.T) {
	env := newTestCore(t, true)
	env.fast.SetMiningEnabled(true)
	env.fast.SetFreeNonce(true)

	env.writeName(t, &types.Name{Name: "shop", Owner: testAddrB, Registered: env.now, Unpaid: 3})
	env.writeName(t, &types.Name{Name: "mall", Owner: testAddrB, Registered: env.now, Unpaid: 1})

	dbtx, err := env.db.OpenTransaction()
	require.NoError(t, err)
	require.NoError(t, rawdb.WriteAddress(dbtx, &types.Address{
		Address: testAddrC, FirstSeen: env.now, Penalty: 2,
	}))
	require.NoError(t, dbtx.Commit())

	block, _, err := env.c.SubmitBlock(testAddrA, []byte("n"), RequestMeta{})
	require.NoError(t, err)

	// 25 base + 2 unpaid names + 1 penalised address.
	assert.Equal(t, uint64(28), block.Value)

	// Each block pays one unit toward names and penalties.
	shop, err := rawdb.ReadName(env.db, "shop")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), shop.Unpaid)

	mall, err := rawdb.ReadName(env.db, "mall")
	require.NoError(t, err)
	assert.Zero(t, mall.Unpaid)

	c, err := env.c.GetAddress(testAddrC)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), c.Penalty)

	// The paid-off name no longer counts toward the next block.
	block, _, err = env.c.SubmitBlock(testAddrA, []byte("n2"), RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, uint64(27), block.Value)
}

func TestSubmitBlockRetarget(t *testing.T) {
	env := newTestCore(t, true)
	env.fast.SetMiningEnabled(true)
	env.fast.SetFreeNonce(true)
	env.fast.SetWork(1000)

	env.advance(120 * time.Second)
	block, work, err := env.c.SubmitBlock(testAddrA, []byte("n"), RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), block.Difficulty)
	assert.Equal(t, uint64(1025), work)

	// On-time follow-up leaves work alone.
	env.advance(60 * time.Second)
	_, work, err = env.c.SubmitBlock(testAddrA, []byte("n2"), RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1025), work)
}

func TestSubmitBlockRewardCliff(t *testing.T) {
	env := newTestCore(t, true)
	env.c.cfg.RewardCliff = 2
	env.fast.SetMiningEnabled(true)
	env.fast.SetFreeNonce(true)

	block, _, err := env.c.SubmitBlock(testAddrA, []byte("n"), RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, uint64(25), block.Value)

	block, _, err = env.c.SubmitBlock(testAddrA, []byte("n2"), RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), block.Value)
}

func TestSubmitBlockEmptyChain(t *testing.T) {
	env := newTestCore(t, false)
	env.fast.SetMiningEnabled(true)
	env.fast.SetFreeNonce(true)

	block, _, err := env.c.SubmitBlock(testAddrA, []byte("n"), RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), block.Height)

	expected := crypto.Sha256Hex([]byte(testAddrA), []byte(strings.Repeat("0", 12)), []byte("n"))
	assert.Equal(t, expected, block.Hash)
}

func TestLowestHashBlock(t *testing.T) {
	env := newTestCore(t, true)
	env.fast.SetMiningEnabled(true)
	env.fast.SetFreeNonce(true)

	for _, nonce := range []string{"a", "b", "c"} {
		_, _, err := env.c.SubmitBlock(testAddrA, []byte(nonce), RequestMeta{})
		require.NoError(t, err)
	}

	lowest, err := env.c.LowestHashBlock()
	require.NoError(t, err)
	// Genesis is all zeroes, nothing sorts below it.
	assert.Equal(t, uint64(1), lowest.Height)
}
