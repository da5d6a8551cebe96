package staking

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenebra-network/gtenebra/core"
	"github.com/tenebra-network/gtenebra/core/rawdb"
	"github.com/tenebra-network/gtenebra/kvstore"
	"github.com/tenebra-network/gtenebra/params"
	"github.com/tenebra-network/gtenebra/tenebradb/memorydb"
	"github.com/tenebra-network/gtenebra/types"
)

// Address order matters for the lottery tests: testAddrB sorts before
// testAddrA in the stake index.
const (
	testKeyA  = "pw123"
	testAddrA = "tv0r7bk67m"
	testKeyB  = "hello"
	testAddrB = "tuf03bap3u"
)

func newTestEngine(t *testing.T) (*Engine, *core.Core, *memorydb.Database, *kvstore.Store) {
	t.Helper()
	db := memorydb.New()
	fast := kvstore.New()
	c, err := core.New(params.TestChainConfig.Copy(), db, fast, "test")
	require.NoError(t, err)
	require.NoError(t, c.Setup(false))
	return NewEngine(c), c, db, fast
}

func mint(t *testing.T, db *memorydb.Database, addr string, amount uint64) {
	t.Helper()
	dbtx, err := db.OpenTransaction()
	require.NoError(t, err)
	defer dbtx.Discard()
	_, err = core.CreditAddress(dbtx, addr, amount, time.Now())
	require.NoError(t, err)
	require.NoError(t, rawdb.AdjustSupply(dbtx, int64(amount)))
	require.NoError(t, dbtx.Commit())
}

type eventRecorder struct {
	mu     sync.Mutex
	events []core.Event
}

func (r *eventRecorder) Broadcast(ev core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) kinds() []core.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func TestDeposit(t *testing.T) {
	e, c, db, _ := newTestEngine(t)
	rec := &eventRecorder{}
	c.SetBroadcaster(rec)
	mint(t, db, testAddrA, 1000)

	stake, err := e.Deposit(testKeyA, 400, core.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, testAddrA, stake.Owner)
	assert.Equal(t, uint64(400), stake.Stake)
	assert.True(t, stake.Active)

	a, err := c.GetAddress(testAddrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(600), a.Balance)
	assert.Equal(t, uint64(400), a.Stake)
	assert.True(t, a.StakeActive)

	// Staked value is still circulating.
	supply, err := c.Supply()
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), supply)

	txs, _, err := c.ListAddressTransactions(testAddrA, 10, 0, false)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, types.TxStaking, txs[0].Type())
	assert.Equal(t, types.RecipientStaking, txs[0].From)
	assert.Equal(t, testAddrA, txs[0].To)
	assert.Equal(t, uint64(400), txs[0].Value)

	assert.Equal(t, []core.EventKind{core.EventTransaction, core.EventStake}, rec.kinds())
}

func TestDepositValidation(t *testing.T) {
	e, _, db, _ := newTestEngine(t)
	mint(t, db, testAddrA, 100)

	_, err := e.Deposit(testKeyA, 0, core.RequestMeta{})
	assert.ErrorIs(t, err, core.ErrInvalidParameter("amount"))

	_, err = e.Deposit(testKeyA, 101, core.RequestMeta{})
	assert.ErrorIs(t, err, core.ErrInsufficientFunds)
}

func TestWithdraw(t *testing.T) {
	e, c, db, _ := newTestEngine(t)
	mint(t, db, testAddrA, 1000)

	_, err := e.Deposit(testKeyA, 400, core.RequestMeta{})
	require.NoError(t, err)

	stake, err := e.Withdraw(testKeyA, 150, core.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, uint64(250), stake.Stake)
	assert.True(t, stake.Active)

	// Withdrawing the rest deactivates and restores the full balance.
	stake, err = e.Withdraw(testKeyA, 250, core.RequestMeta{})
	require.NoError(t, err)
	assert.Zero(t, stake.Stake)
	assert.False(t, stake.Active)

	a, err := c.GetAddress(testAddrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), a.Balance)
	assert.Zero(t, a.Stake)

	txs, _, err := c.ListAddressTransactions(testAddrA, 10, 0, false)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, testAddrA, txs[0].From)
	assert.Equal(t, types.RecipientStaking, txs[0].To)
}

func TestWithdrawValidation(t *testing.T) {
	e, _, db, _ := newTestEngine(t)
	mint(t, db, testAddrA, 1000)

	_, err := e.Deposit(testKeyA, 400, core.RequestMeta{})
	require.NoError(t, err)

	_, err = e.Withdraw(testKeyA, 0, core.RequestMeta{})
	assert.ErrorIs(t, err, core.ErrInvalidParameter("amount"))

	_, err = e.Withdraw(testKeyA, 401, core.RequestMeta{})
	assert.ErrorIs(t, err, core.ErrInsufficientFunds)
}

func TestTickElectsByWeight(t *testing.T) {
	e, _, db, fast := newTestEngine(t)
	mint(t, db, testAddrA, 1000)
	mint(t, db, testAddrB, 1000)

	_, err := e.Deposit(testKeyA, 400, core.RequestMeta{})
	require.NoError(t, err)
	_, err = e.Deposit(testKeyB, 100, core.RequestMeta{})
	require.NoError(t, err)

	// Stake index is address ordered: B (100) then A (400), cumulative
	// sums 100 and 500.
	cases := []struct {
		r    uint64
		want string
	}{
		{0, testAddrB},
		{99, testAddrB},
		{100, testAddrA},
		{499, testAddrA},
	}
	for _, tc := range cases {
		fast.SetValidator("")
		e.randUint64 = func(n uint64) uint64 {
			require.Equal(t, uint64(500), n)
			return tc.r
		}
		require.NoError(t, e.Tick())
		assert.Equal(t, tc.want, e.Validator(), "r=%d", tc.r)
	}
}

func TestTickPenalizesAbsentValidator(t *testing.T) {
	e, c, db, fast := newTestEngine(t)
	rec := &eventRecorder{}
	c.SetBroadcaster(rec)
	mint(t, db, testAddrA, 1000)

	_, err := e.Deposit(testKeyA, 400, core.RequestMeta{})
	require.NoError(t, err)
	fast.SetValidator(testAddrA)

	require.NoError(t, e.Tick())

	a, err := c.GetAddress(testAddrA)
	require.NoError(t, err)
	assert.Zero(t, a.Stake, "penalty is capped at the stake")
	assert.Equal(t, uint64(400), a.Penalty)
	assert.False(t, a.StakeActive)

	// Forfeited stake leaves circulation.
	supply, err := c.Supply()
	require.NoError(t, err)
	assert.Equal(t, uint64(600), supply)

	// Nobody active is left, so no validator is elected.
	assert.Equal(t, "", e.Validator())
	assert.Equal(t, []core.EventKind{core.EventTransaction, core.EventStake, core.EventStake, core.EventValidator}, rec.kinds())

	penalties, err := e.Penalties()
	require.NoError(t, err)
	require.Len(t, penalties, 1)
	assert.Equal(t, testAddrA, penalties[0].Address)
	assert.Equal(t, uint64(400), penalties[0].Amount)
}

func TestTickPenaltyCappedByConfig(t *testing.T) {
	e, c, db, fast := newTestEngine(t)
	mint(t, db, testAddrA, 1000)

	_, err := e.Deposit(testKeyA, 900, core.RequestMeta{})
	require.NoError(t, err)
	fast.SetValidator(testAddrA)

	require.NoError(t, e.Tick())

	a, err := c.GetAddress(testAddrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), a.Stake)
	assert.Equal(t, uint64(500), a.Penalty)
	assert.False(t, a.StakeActive)
}

func TestTickEmptyPool(t *testing.T) {
	e, _, _, fast := newTestEngine(t)

	require.NoError(t, e.Tick())
	assert.Equal(t, "", fast.Validator())
}

func TestProducedSlotEscapesPenalty(t *testing.T) {
	e, c, db, fast := newTestEngine(t)
	mint(t, db, testAddrA, 1000)

	_, err := e.Deposit(testKeyA, 400, core.RequestMeta{})
	require.NoError(t, err)

	fast.SetStakingEnabled(true)
	fast.SetValidator(testAddrA)

	// Producing the slot clears the validator, so the following tick
	// penalises nobody.
	_, _, err = c.SubmitBlock(testAddrA, []byte("pos"), core.RequestMeta{})
	require.NoError(t, err)
	require.Equal(t, "", fast.Validator())

	e.randUint64 = func(n uint64) uint64 { return 0 }
	require.NoError(t, e.Tick())

	a, err := c.GetAddress(testAddrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), a.Stake)
	assert.Zero(t, a.Penalty)
	assert.True(t, a.StakeActive)

	// And it is immediately electable again.
	assert.Equal(t, testAddrA, e.Validator())
}

func TestStakeLifecycleScenario(t *testing.T) {
	e, c, db, fast := newTestEngine(t)
	mint(t, db, testAddrA, 1000)

	stake, err := e.Deposit(testKeyA, 400, core.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, uint64(400), stake.Stake)
	assert.True(t, stake.Active)

	a, err := c.GetAddress(testAddrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(600), a.Balance)

	e.randUint64 = func(n uint64) uint64 { return 0 }
	require.NoError(t, e.Tick())
	require.Equal(t, testAddrA, fast.Validator())

	// No block produced before the next tick: the validator pays.
	require.NoError(t, e.Tick())

	a, err = c.GetAddress(testAddrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(600), a.Balance)
	assert.Zero(t, a.Stake)
	assert.Equal(t, uint64(400), a.Penalty)
	assert.False(t, a.StakeActive)
	assert.Equal(t, "", fast.Validator())
}

func TestGetAndList(t *testing.T) {
	e, _, db, _ := newTestEngine(t)
	mint(t, db, testAddrA, 1000)
	mint(t, db, testAddrB, 1000)

	_, err := e.Deposit(testKeyA, 300, core.RequestMeta{})
	require.NoError(t, err)
	_, err = e.Deposit(testKeyB, 200, core.RequestMeta{})
	require.NoError(t, err)

	stake, err := e.Get(testAddrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), stake.Stake)

	_, err = e.Get("tnotexists1")
	assert.ErrorIs(t, err, core.ErrAddressNotFound)

	stakes, total, err := e.List(10, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	require.Len(t, stakes, 2)
	assert.Equal(t, testAddrB, stakes[0].Owner)
	assert.Equal(t, testAddrA, stakes[1].Owner)

	stakes, total, err = e.List(10, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	require.Len(t, stakes, 1)
	assert.Equal(t, testAddrA, stakes[0].Owner)
}
