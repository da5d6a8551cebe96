package names

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

const (
	testKeyA  = "pw123"
	testAddrA = "tv0r7bk67m"
	testKeyB  = "hello"
	testAddrB = "tuf03bap3u"
)

func newTestRegistry(t *testing.T) (*Registry, *core.Core, *memorydb.Database) {
	t.Helper()
	db := memorydb.New()
	c, err := core.New(params.TestChainConfig.Copy(), db, kvstore.New(), "test")
	require.NoError(t, err)
	require.NoError(t, c.Setup(false))
	return NewRegistry(c), c, db
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

func TestPurchase(t *testing.T) {
	r, c, db := newTestRegistry(t)
	rec := &eventRecorder{}
	c.SetBroadcaster(rec)
	mint(t, db, testAddrA, 1000)

	n, err := r.Purchase(testKeyA, "shop", core.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "shop", n.Name)
	assert.Equal(t, testAddrA, n.Owner)
	assert.Equal(t, testAddrA, n.OriginalOwner)
	assert.Equal(t, uint64(500), n.Unpaid)
	assert.False(t, n.Registered.IsZero())

	buyer, err := c.GetAddress(testAddrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), buyer.Balance)
	assert.Equal(t, uint64(500), buyer.TotalOut)

	// The purchase burns the cost until blocks pay it back.
	supply, err := c.Supply()
	require.NoError(t, err)
	assert.Equal(t, uint64(500), supply)

	bonus, err := r.Bonus()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), bonus)

	txs, _, err := c.ListAddressTransactions(testAddrA, 10, 0, false)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, types.TxNamePurchase, txs[0].Type())
	assert.Equal(t, uint64(500), txs[0].Value)
	assert.Equal(t, "shop", txs[0].Name)

	assert.Equal(t, []core.EventKind{core.EventName, core.EventTransaction}, rec.kinds())
}

func TestPurchaseStripsSuffix(t *testing.T) {
	r, _, db := newTestRegistry(t)
	mint(t, db, testAddrA, 1000)

	n, err := r.Purchase(testKeyA, "Shop.tst", core.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "shop", n.Name)
}

func TestPurchaseValidation(t *testing.T) {
	r, _, db := newTestRegistry(t)
	mint(t, db, testAddrA, 1000)

	_, err := r.Purchase(testKeyA, "", core.RequestMeta{})
	assert.ErrorIs(t, err, core.ErrMissingParameter("name"))

	_, err = r.Purchase(testKeyA, "bad name!", core.RequestMeta{})
	assert.ErrorIs(t, err, core.ErrInvalidParameter("name"))

	_, err = r.Purchase(testKeyA, "xn--punycode", core.RequestMeta{})
	assert.ErrorIs(t, err, core.ErrInvalidParameter("name"),
		"punycode prefix is fetch-only, not registrable")
}

func TestPurchaseTaken(t *testing.T) {
	r, _, db := newTestRegistry(t)
	mint(t, db, testAddrA, 2000)
	mint(t, db, testAddrB, 2000)

	_, err := r.Purchase(testKeyA, "shop", core.RequestMeta{})
	require.NoError(t, err)

	_, err = r.Purchase(testKeyB, "shop", core.RequestMeta{})
	assert.ErrorIs(t, err, core.ErrNameTaken)
}

func TestPurchaseInsufficientFunds(t *testing.T) {
	r, c, db := newTestRegistry(t)
	mint(t, db, testAddrA, 499)

	_, err := r.Purchase(testKeyA, "shop", core.RequestMeta{})
	assert.ErrorIs(t, err, core.ErrInsufficientFunds)

	available, err := r.Available("shop")
	require.NoError(t, err)
	assert.True(t, available)

	buyer, err := c.GetAddress(testAddrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(499), buyer.Balance)
}

func TestTransfer(t *testing.T) {
	r, c, db := newTestRegistry(t)
	mint(t, db, testAddrA, 1000)

	_, err := r.Purchase(testKeyA, "shop", core.RequestMeta{})
	require.NoError(t, err)

	// Warm the resolver cache so the transfer has something to
	// invalidate.
	addr, _, _, err := c.ResolveRecipient("shop.tst")
	require.NoError(t, err)
	require.Equal(t, testAddrA, addr)

	n, err := r.Transfer(testKeyA, "shop", testAddrB, core.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, testAddrB, n.Owner)
	assert.Equal(t, testAddrA, n.OriginalOwner)

	addr, _, _, err = c.ResolveRecipient("shop.tst")
	require.NoError(t, err)
	assert.Equal(t, testAddrB, addr)

	// The transfer row carries the name and no value.
	txs, _, err := c.ListAddressTransactions(testAddrB, 10, 0, false)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, types.TxNameTransfer, txs[0].Type())
	assert.Zero(t, txs[0].Value)
	assert.Equal(t, "shop", txs[0].Name)

	_, total, err := r.ByOwner(testAddrB, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	_, total, err = r.ByOwner(testAddrA, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestTransferNotOwner(t *testing.T) {
	r, _, db := newTestRegistry(t)
	mint(t, db, testAddrA, 1000)
	mint(t, db, testAddrB, 1000)

	_, err := r.Purchase(testKeyA, "shop", core.RequestMeta{})
	require.NoError(t, err)

	_, err = r.Transfer(testKeyB, "shop", testAddrB, core.RequestMeta{})
	assert.ErrorIs(t, err, core.ErrNotNameOwner)

	_, err = r.Transfer(testKeyA, "ghost", testAddrB, core.RequestMeta{})
	assert.ErrorIs(t, err, core.ErrNameNotFound)

	_, err = r.Transfer(testKeyA, "shop", "invalid", core.RequestMeta{})
	assert.ErrorIs(t, err, core.ErrInvalidParameter("address"))
}

func TestUpdateARecord(t *testing.T) {
	r, c, db := newTestRegistry(t)
	mint(t, db, testAddrA, 1000)

	_, err := r.Purchase(testKeyA, "shop", core.RequestMeta{})
	require.NoError(t, err)

	n, err := r.UpdateARecord(testKeyA, "shop", "tenebra.example.com", core.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "tenebra.example.com", n.A)
	assert.False(t, n.Updated.Before(n.Registered))

	txs, _, err := c.ListAddressTransactions(testAddrA, 10, 0, false)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, types.TxNameARecord, txs[0].Type())
	assert.Equal(t, "tenebra.example.com", txs[0].Metadata)

	// Clearing is allowed.
	n, err = r.UpdateARecord(testKeyA, "shop", "", core.RequestMeta{})
	require.NoError(t, err)
	assert.Empty(t, n.A)

	_, err = r.UpdateARecord(testKeyA, "shop", "has spaces", core.RequestMeta{})
	assert.ErrorIs(t, err, core.ErrInvalidParameter("a"))

	_, err = r.UpdateARecord(testKeyB, "shop", "x.example.com", core.RequestMeta{})
	assert.ErrorIs(t, err, core.ErrNotNameOwner)
}

func TestGetAndAvailable(t *testing.T) {
	r, _, db := newTestRegistry(t)
	mint(t, db, testAddrA, 1000)

	_, err := r.Purchase(testKeyA, "shop", core.RequestMeta{})
	require.NoError(t, err)

	n, err := r.Get("shop")
	require.NoError(t, err)
	assert.Equal(t, "shop", n.Name)

	// Lookups tolerate the suffix and the punycode prefix.
	n, err = r.Get("shop.tst")
	require.NoError(t, err)
	assert.Equal(t, "shop", n.Name)

	_, err = r.Get("xn--shop")
	assert.ErrorIs(t, err, core.ErrNameNotFound)

	_, err = r.Get("bad name")
	assert.ErrorIs(t, err, core.ErrInvalidParameter("name"))

	available, err := r.Available("shop")
	require.NoError(t, err)
	assert.False(t, available)

	available, err = r.Available("other")
	require.NoError(t, err)
	assert.True(t, available)
}

func TestListOrdering(t *testing.T) {
	r, _, db := newTestRegistry(t)
	mint(t, db, testAddrA, 2000)

	for _, name := range []string{"zebra", "apple"} {
		_, err := r.Purchase(testKeyA, name, core.RequestMeta{})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	names, total, err := r.List(10, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	require.Len(t, names, 2)
	assert.Equal(t, "apple", names[0].Name)
	assert.Equal(t, "zebra", names[1].Name)

	newest, _, err := r.Newest(10, 0)
	require.NoError(t, err)
	require.Len(t, newest, 2)
	assert.Equal(t, "apple", newest[0].Name)
	assert.Equal(t, "zebra", newest[1].Name)

	assert.Equal(t, uint64(500), r.Cost())
}
