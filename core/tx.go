package core

import (
	"strings"

	"github.com/tenebra-network/gtenebra/core/rawdb"
	"github.com/tenebra-network/gtenebra/crypto"
	"github.com/tenebra-network/gtenebra/types"
)

// MakeTransaction moves amount from the key's address to a recipient,
// which is either an address or a name in the [metaname@]name.suffix
// form. The debit, credit and transfer row are committed atomically.
func (c *Core) MakeTransaction(privatekey, to string, amount uint64, metadata string, meta RequestMeta) (*types.Transaction, error) {
	if to == "" {
		return nil, ErrMissingParameter("to")
	}
	if amount < 1 {
		return nil, ErrInvalidParameter("amount")
	}
	if metadata != "" && !crypto.IsValidMetadata(metadata, c.cfg.MaxMetadataSize) {
		return nil, ErrInvalidParameter("metadata")
	}
	recipient, sentMetaname, sentName, err := c.ResolveRecipient(to)
	if err != nil {
		return nil, err
	}

	sender, authed, err := c.Authenticate(privatekey, meta)
	if err != nil {
		return nil, err
	}
	if !authed {
		return nil, ErrAuthFailed
	}
	if sender.Balance < amount {
		return nil, ErrInsufficientFunds
	}

	dbtx, err := c.db.OpenTransaction()
	if err != nil {
		return nil, err
	}
	defer dbtx.Discard()

	// Re-read inside the transaction; the pre-check only fails fast.
	row, err := rawdb.ReadAddress(dbtx, sender.Address)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrAddressNotFound
	}
	if err := DebitAddress(dbtx, row, amount); err != nil {
		return nil, err
	}
	if _, err := CreditAddress(dbtx, recipient, amount, c.now()); err != nil {
		return nil, err
	}

	tx := &types.Transaction{
		From:         sender.Address,
		To:           recipient,
		Value:        amount,
		Time:         c.now(),
		Metadata:     metadata,
		SentMetaname: sentMetaname,
		SentName:     sentName,
		UserAgent:    meta.UserAgent,
		Origin:       meta.Origin,
	}
	if err := rawdb.WriteTransaction(dbtx, tx); err != nil {
		return nil, err
	}
	if err := dbtx.Commit(); err != nil {
		return nil, err
	}

	c.Broadcast(Event{Kind: EventTransaction, Transaction: tx})
	return tx, nil
}

// ResolveRecipient turns a transfer target into a concrete address.
// Targets carrying the name suffix resolve through the name registry
// and report the metaname and name parts for the transfer row.
func (c *Core) ResolveRecipient(to string) (addr, sentMetaname, sentName string, err error) {
	raw := strings.ToLower(strings.TrimSpace(to))
	if !strings.HasSuffix(raw, "."+c.cfg.NameSuffix) {
		if !crypto.IsValidAddress(c.cfg.AddressPrefix, raw) {
			return "", "", "", ErrInvalidParameter("to")
		}
		return raw, "", "", nil
	}

	namePart := raw
	if i := strings.LastIndexByte(raw, '@'); i >= 0 {
		sentMetaname, namePart = raw[:i], raw[i+1:]
	}
	name := crypto.CleanName(namePart, c.cfg.NameSuffix)
	if !crypto.IsValidName(name) {
		return "", "", "", ErrInvalidParameter("to")
	}
	if sentMetaname != "" && !crypto.IsValidMetaname(sentMetaname) {
		return "", "", "", ErrInvalidParameter("to")
	}
	owner, err := c.nameOwner(name)
	if err != nil {
		return "", "", "", err
	}
	return owner, sentMetaname, name, nil
}

// nameOwner resolves a name to its owner through the owner cache.
func (c *Core) nameOwner(name string) (string, error) {
	if owner := c.nameOwners.Get(nil, []byte(name)); len(owner) > 0 {
		return string(owner), nil
	}
	n, err := rawdb.ReadName(c.db, name)
	if err != nil {
		return "", err
	}
	if n == nil {
		return "", ErrNameNotFound
	}
	c.nameOwners.Set([]byte(name), []byte(n.Owner))
	return n.Owner, nil
}

// InvalidateName drops a name from the owner cache. The registry calls
// this whenever ownership changes.
func (c *Core) InvalidateName(name string) {
	c.nameOwners.Del([]byte(name))
}

// GetTransaction returns the transfer with the given id or
// ErrTransactionNotFound.
func (c *Core) GetTransaction(id uint64) (*types.Transaction, error) {
	tx, err := rawdb.ReadTransaction(c.db, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ErrTransactionNotFound
	}
	return tx, nil
}

// ListTransactions pages through the global transfer log plus the total
// count.
func (c *Core) ListTransactions(limit, offset uint64, newestFirst, excludeMined bool) ([]*types.Transaction, uint64, error) {
	total, err := rawdb.ReadTransactionCount(c.db)
	if err != nil {
		return nil, 0, err
	}
	out, err := rawdb.ListTransactions(c.db, limit, offset, newestFirst, excludeMined)
	return out, total, err
}

// ForEachTransaction streams the whole transfer log in id order.
func (c *Core) ForEachTransaction(fn func(*types.Transaction) error) error {
	return rawdb.ForEachTransaction(c.db, fn)
}

// ListAddressTransactions pages through an address's transfers, newest
// first, plus the address's total.
func (c *Core) ListAddressTransactions(addr string, limit, offset uint64, excludeMined bool) ([]*types.Transaction, uint64, error) {
	if _, err := c.GetAddress(addr); err != nil {
		return nil, 0, err
	}
	total, err := rawdb.ReadAddressTransactionCount(c.db, addr)
	if err != nil {
		return nil, 0, err
	}
	out, err := rawdb.ListAddressTransactions(c.db, addr, limit, offset, excludeMined)
	return out, total, err
}
