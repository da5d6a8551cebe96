package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenebra-network/gtenebra/types"
)

func TestMakeTransaction(t *testing.T) {
	env := newTestCore(t, false)
	rec := &eventRecorder{}
	env.c.SetBroadcaster(rec)
	env.mint(t, testAddrA, 1000)

	tx, err := env.c.MakeTransaction(testKeyA, testAddrB, 250, "", RequestMeta{UserAgent: "test/1.0"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tx.ID)
	assert.Equal(t, testAddrA, tx.From)
	assert.Equal(t, testAddrB, tx.To)
	assert.Equal(t, uint64(250), tx.Value)
	assert.Equal(t, types.TxTransfer, tx.Type())
	assert.Equal(t, "test/1.0", tx.UserAgent)

	sender, err := env.c.GetAddress(testAddrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(750), sender.Balance)
	assert.Equal(t, uint64(250), sender.TotalOut)

	recipient, err := env.c.GetAddress(testAddrB)
	require.NoError(t, err)
	assert.Equal(t, uint64(250), recipient.Balance)
	assert.Equal(t, uint64(250), recipient.TotalIn)

	// Transfers move value, supply is unchanged.
	supply, err := env.c.Supply()
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), supply)

	require.Equal(t, []EventKind{EventTransaction}, rec.kinds())
}

func TestMakeTransactionInsufficientFunds(t *testing.T) {
	env := newTestCore(t, false)
	env.mint(t, testAddrA, 100)

	_, err := env.c.MakeTransaction(testKeyA, testAddrB, 101, "", RequestMeta{})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// Nothing moved.
	sender, err := env.c.GetAddress(testAddrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), sender.Balance)
	_, err = env.c.GetAddress(testAddrB)
	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestMakeTransactionValidation(t *testing.T) {
	env := newTestCore(t, false)
	env.mint(t, testAddrA, 100)

	_, err := env.c.MakeTransaction(testKeyA, "", 10, "", RequestMeta{})
	assert.ErrorIs(t, err, ErrMissingParameter("to"))

	_, err = env.c.MakeTransaction(testKeyA, testAddrB, 0, "", RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidParameter("amount"))

	_, err = env.c.MakeTransaction(testKeyA, "not an address", 10, "", RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidParameter("to"))

	_, err = env.c.MakeTransaction(testKeyA, testAddrB, 10, "bad\xffmeta", RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidParameter("metadata"))

	_, err = env.c.MakeTransaction("", testAddrB, 10, "", RequestMeta{})
	assert.ErrorIs(t, err, ErrMissingParameter("privatekey"))
}

func TestMakeTransactionToSelf(t *testing.T) {
	env := newTestCore(t, false)
	env.mint(t, testAddrA, 100)

	_, err := env.c.MakeTransaction(testKeyA, testAddrA, 40, "", RequestMeta{})
	require.NoError(t, err)

	a, err := env.c.GetAddress(testAddrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), a.Balance)
	assert.Equal(t, uint64(140), a.TotalIn)
	assert.Equal(t, uint64(40), a.TotalOut)
}

func TestMakeTransactionToName(t *testing.T) {
	env := newTestCore(t, false)
	env.mint(t, testAddrA, 1000)
	env.writeName(t, &types.Name{
		Name: "shop", Owner: testAddrB, OriginalOwner: testAddrB,
		Registered: env.now, Updated: env.now,
	})

	tx, err := env.c.MakeTransaction(testKeyA, "shop.tst", 100, "", RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, testAddrB, tx.To)
	assert.Equal(t, "shop", tx.SentName)
	assert.Empty(t, tx.SentMetaname)

	tx, err = env.c.MakeTransaction(testKeyA, "till@shop.tst", 50, "", RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, testAddrB, tx.To)
	assert.Equal(t, "shop", tx.SentName)
	assert.Equal(t, "till", tx.SentMetaname)

	owner, err := env.c.GetAddress(testAddrB)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), owner.Balance)
}

func TestMakeTransactionToMissingName(t *testing.T) {
	env := newTestCore(t, false)
	env.mint(t, testAddrA, 100)

	_, err := env.c.MakeTransaction(testKeyA, "ghost.tst", 10, "", RequestMeta{})
	assert.ErrorIs(t, err, ErrNameNotFound)

	_, err = env.c.MakeTransaction(testKeyA, "UPPER CASE@x.tst", 10, "", RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidParameter("to"))
}

func TestResolveRecipientCache(t *testing.T) {
	env := newTestCore(t, false)
	env.writeName(t, &types.Name{Name: "shop", Owner: testAddrB, Registered: env.now})

	addr, _, _, err := env.c.ResolveRecipient("shop.tst")
	require.NoError(t, err)
	assert.Equal(t, testAddrB, addr)

	// A transfer of the name invalidates the cached owner.
	env.writeName(t, &types.Name{Name: "shop", Owner: testAddrC, Registered: env.now})
	addr, _, _, err = env.c.ResolveRecipient("shop.tst")
	require.NoError(t, err)
	assert.Equal(t, testAddrB, addr, "stale until invalidated")

	env.c.InvalidateName("shop")
	addr, _, _, err = env.c.ResolveRecipient("shop.tst")
	require.NoError(t, err)
	assert.Equal(t, testAddrC, addr)
}

func TestListTransactions(t *testing.T) {
	env := newTestCore(t, false)
	env.mint(t, testAddrA, 1000)

	for i := 0; i < 3; i++ {
		_, err := env.c.MakeTransaction(testKeyA, testAddrB, 10, "", RequestMeta{})
		require.NoError(t, err)
	}

	txs, total, err := env.c.ListTransactions(10, 0, true, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	require.Len(t, txs, 3)
	assert.Equal(t, uint64(3), txs[0].ID)

	txs, total, err = env.c.ListAddressTransactions(testAddrB, 10, 0, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	assert.Len(t, txs, 3)

	_, _, err = env.c.ListAddressTransactions("tnotexists1", 10, 0, false)
	assert.ErrorIs(t, err, ErrAddressNotFound)

	tx, err := env.c.GetTransaction(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), tx.ID)

	_, err = env.c.GetTransaction(99)
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}
