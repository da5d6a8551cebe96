package core

import (
	"time"

	"github.com/tenebra-network/gtenebra/core/rawdb"
	"github.com/tenebra-network/gtenebra/crypto"
	"github.com/tenebra-network/gtenebra/log"
	"github.com/tenebra-network/gtenebra/types"
)

const (
	// authDedupWindow suppresses repeat auth log rows for the same
	// (ip, address, type) triple.
	authDedupWindow = 30 * time.Minute

	// AuthLogRetention is how long auth log rows are kept.
	AuthLogRetention = 30 * 24 * time.Hour
)

// Authenticate runs the address authentication contract for a private
// key and reports whether the key now controls the address. A never
// seen address is created and bound to the key; an unbound address
// adopts the key; otherwise the stored digest must match and the
// address must not be locked. The attempt is appended to the auth log
// either way.
func (c *Core) Authenticate(privatekey string, meta RequestMeta) (*types.Address, bool, error) {
	if privatekey == "" {
		return nil, false, ErrMissingParameter("privatekey")
	}
	address := crypto.MakeV2Address(privatekey, c.cfg.AddressPrefix)
	digest := crypto.AuthDigest(address, privatekey)

	dbtx, err := c.db.OpenTransaction()
	if err != nil {
		return nil, false, err
	}
	defer dbtx.Discard()

	a, err := rawdb.ReadAddress(dbtx, address)
	if err != nil {
		return nil, false, err
	}
	authed := false
	switch {
	case a == nil:
		a = &types.Address{Address: address, FirstSeen: c.now(), Auth: digest}
		authed = true
	case a.Auth == "":
		a.Auth = digest
		authed = true
	default:
		authed = !a.Locked && a.Auth == digest
	}
	if authed {
		if err := rawdb.WriteAddress(dbtx, a); err != nil {
			return nil, false, err
		}
	}
	if err := dbtx.Commit(); err != nil {
		return nil, false, err
	}

	c.logAuth(address, types.AuthTypeAuth, meta)
	return a, authed, nil
}

// logAuth appends an auth log row unless the same (ip, address, type)
// was logged within the dedup window. Logging is best effort.
func (c *Core) logAuth(address, kind string, meta RequestMeta) {
	now := c.now()
	key := meta.IP + "|" + address + "|" + kind
	if prev, ok := c.authDedup.Get(key); ok {
		if now.Sub(prev.(time.Time)) < authDedupWindow {
			return
		}
	}
	c.authDedup.Add(key, now)

	err := func() error {
		dbtx, err := c.db.OpenTransaction()
		if err != nil {
			return err
		}
		defer dbtx.Discard()
		e := &types.AuthLogEntry{
			IP:        meta.IP,
			Address:   address,
			Time:      now,
			Type:      kind,
			UserAgent: meta.UserAgent,
			Origin:    meta.Origin,
		}
		if err := rawdb.AppendAuthLog(dbtx, e); err != nil {
			return err
		}
		return dbtx.Commit()
	}()
	if err != nil {
		log.Warn("Failed to append auth log", "address", address, "type", kind, "err", err)
	}
}

// PruneAuthLog drops auth log rows past the retention horizon.
func (c *Core) PruneAuthLog() (int, error) {
	return rawdb.PruneAuthLog(c.db, c.now().Add(-AuthLogRetention))
}

// AuthLog returns recent auth log rows, oldest first.
func (c *Core) AuthLog(limit uint64) ([]*types.AuthLogEntry, error) {
	return rawdb.ListAuthLog(c.db, limit)
}

// GetAddress returns the row for addr or ErrAddressNotFound.
func (c *Core) GetAddress(addr string) (*types.Address, error) {
	a, err := rawdb.ReadAddress(c.db, addr)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAddressNotFound
	}
	return a, nil
}

// NamesOwned returns how many names an address currently owns.
func (c *Core) NamesOwned(addr string) (uint64, error) {
	return rawdb.ReadOwnerNameCount(c.db, addr)
}

// ListAddresses returns known addresses in first-seen order plus the
// total count.
func (c *Core) ListAddresses(limit, offset uint64) ([]*types.Address, uint64, error) {
	total, err := rawdb.ReadAddressCount(c.db)
	if err != nil {
		return nil, 0, err
	}
	out, err := rawdb.ListAddresses(c.db, limit, offset)
	return out, total, err
}

// ListRichAddresses returns addresses by balance, richest first, plus
// the total count.
func (c *Core) ListRichAddresses(limit, offset uint64) ([]*types.Address, uint64, error) {
	total, err := rawdb.ReadAddressCount(c.db)
	if err != nil {
		return nil, 0, err
	}
	out, err := rawdb.ListRichAddresses(c.db, limit, offset)
	return out, total, err
}

// Supply returns the circulating supply counter.
func (c *Core) Supply() (uint64, error) {
	return rawdb.ReadSupply(c.db)
}

// CreditAddress adds amount to an address inside an open transaction,
// creating the row on first touch. Total in is maintained; the caller
// adjusts supply if the credit mints rather than moves.
func CreditAddress(dbtx rawdb.Store, addr string, amount uint64, now time.Time) (*types.Address, error) {
	a, err := rawdb.ReadAddress(dbtx, addr)
	if err != nil {
		return nil, err
	}
	if a == nil {
		a = &types.Address{Address: addr, FirstSeen: now}
	}
	a.Balance += amount
	a.TotalIn += amount
	if err := rawdb.WriteAddress(dbtx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// DebitAddress removes amount from a row inside an open transaction,
// maintaining total out. The row must already be loaded from the same
// transaction.
func DebitAddress(dbtx rawdb.Store, a *types.Address, amount uint64) error {
	if a.Balance < amount {
		return ErrInsufficientFunds
	}
	a.Balance -= amount
	a.TotalOut += amount
	return rawdb.WriteAddress(dbtx, a)
}
