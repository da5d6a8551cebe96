// Package names implements the purchasable name registry on top of the
// core ledger: registration, ownership transfer and data record
// updates, each recorded in the transfer log.
package names

import (
	"time"

	"github.com/tenebra-network/gtenebra/core"
	"github.com/tenebra-network/gtenebra/core/rawdb"
	"github.com/tenebra-network/gtenebra/crypto"
	"github.com/tenebra-network/gtenebra/types"
)

// Registry exposes the name operations. All mutations run through the
// core's database and authentication contract.
type Registry struct {
	c *core.Core
}

// NewRegistry binds a registry to a core.
func NewRegistry(c *core.Core) *Registry {
	return &Registry{c: c}
}

// Cost returns the purchase price of a name.
func (r *Registry) Cost() uint64 {
	return r.c.Config().NameCost
}

// Bonus returns the number of names still paying out through block
// rewards.
func (r *Registry) Bonus() (uint64, error) {
	return rawdb.ReadUnpaidNameCount(r.c.DB())
}

// Get looks a name up by its registrable form. Lookups tolerate the
// punycode prefix and the network suffix.
func (r *Registry) Get(name string) (*types.Name, error) {
	cleaned := crypto.CleanName(name, r.c.Config().NameSuffix)
	if !crypto.IsValidFetchName(cleaned) {
		return nil, core.ErrInvalidParameter("name")
	}
	n, err := rawdb.ReadName(r.c.DB(), cleaned)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, core.ErrNameNotFound
	}
	return n, nil
}

// Available reports whether a name can still be purchased.
func (r *Registry) Available(name string) (bool, error) {
	cleaned := crypto.CleanName(name, r.c.Config().NameSuffix)
	if !crypto.IsValidName(cleaned) {
		return false, core.ErrInvalidParameter("name")
	}
	n, err := rawdb.ReadName(r.c.DB(), cleaned)
	if err != nil {
		return false, err
	}
	return n == nil, nil
}

// List returns registered names alphabetically plus the total count.
func (r *Registry) List(limit, offset uint64) ([]*types.Name, uint64, error) {
	total, err := rawdb.ReadNameCount(r.c.DB())
	if err != nil {
		return nil, 0, err
	}
	out, err := rawdb.ListNames(r.c.DB(), limit, offset)
	return out, total, err
}

// Newest returns names by registration time, newest first, plus the
// total count.
func (r *Registry) Newest(limit, offset uint64) ([]*types.Name, uint64, error) {
	total, err := rawdb.ReadNameCount(r.c.DB())
	if err != nil {
		return nil, 0, err
	}
	out, err := rawdb.ListNewestNames(r.c.DB(), limit, offset)
	return out, total, err
}

// ByOwner returns the names an address owns plus its total. The address
// must exist.
func (r *Registry) ByOwner(addr string, limit, offset uint64) ([]*types.Name, uint64, error) {
	if _, err := r.c.GetAddress(addr); err != nil {
		return nil, 0, err
	}
	total, err := rawdb.ReadOwnerNameCount(r.c.DB(), addr)
	if err != nil {
		return nil, 0, err
	}
	out, err := rawdb.ListOwnerNames(r.c.DB(), addr, limit, offset)
	return out, total, err
}

// Purchase registers a name to the key's address, burning the name
// cost. The cost re-enters circulation one unit per block through the
// unpaid counter.
func (r *Registry) Purchase(privatekey, name string, meta core.RequestMeta) (*types.Name, error) {
	cfg := r.c.Config()
	if name == "" {
		return nil, core.ErrMissingParameter("name")
	}
	cleaned := crypto.CleanName(name, cfg.NameSuffix)
	if !crypto.IsValidName(cleaned) {
		return nil, core.ErrInvalidParameter("name")
	}

	sender, authed, err := r.c.Authenticate(privatekey, meta)
	if err != nil {
		return nil, err
	}
	if !authed {
		return nil, core.ErrAuthFailed
	}
	if sender.Balance < cfg.NameCost {
		return nil, core.ErrInsufficientFunds
	}

	dbtx, err := r.c.DB().OpenTransaction()
	if err != nil {
		return nil, err
	}
	defer dbtx.Discard()

	existing, err := rawdb.ReadName(dbtx, cleaned)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, core.ErrNameTaken
	}
	row, err := rawdb.ReadAddress(dbtx, sender.Address)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, core.ErrAddressNotFound
	}
	if err := core.DebitAddress(dbtx, row, cfg.NameCost); err != nil {
		return nil, err
	}

	now := r.now()
	n := &types.Name{
		Name:          cleaned,
		Owner:         sender.Address,
		OriginalOwner: sender.Address,
		Registered:    now,
		Updated:       now,
		Unpaid:        cfg.NameCost,
	}
	if err := rawdb.WriteName(dbtx, n); err != nil {
		return nil, err
	}

	tx := &types.Transaction{
		From:      sender.Address,
		To:        types.RecipientName,
		Value:     cfg.NameCost,
		Time:      now,
		Name:      cleaned,
		UserAgent: meta.UserAgent,
		Origin:    meta.Origin,
	}
	if err := rawdb.WriteTransaction(dbtx, tx); err != nil {
		return nil, err
	}

	// The cost leaves circulation until blocks pay it back out.
	if err := rawdb.AdjustSupply(dbtx, -int64(cfg.NameCost)); err != nil {
		return nil, err
	}
	if err := dbtx.Commit(); err != nil {
		return nil, err
	}

	r.c.Broadcast(core.Event{Kind: core.EventName, Name: n})
	r.c.Broadcast(core.Event{Kind: core.EventTransaction, Transaction: tx})
	return n, nil
}

// Transfer hands a name to another address. Only the current owner may
// transfer; the recorded transfer row carries no value.
func (r *Registry) Transfer(privatekey, name, newOwner string, meta core.RequestMeta) (*types.Name, error) {
	cfg := r.c.Config()
	if name == "" {
		return nil, core.ErrMissingParameter("name")
	}
	cleaned := crypto.CleanName(name, cfg.NameSuffix)
	if !crypto.IsValidName(cleaned) {
		return nil, core.ErrInvalidParameter("name")
	}
	if newOwner == "" {
		return nil, core.ErrMissingParameter("address")
	}
	if !crypto.IsValidAddress(cfg.AddressPrefix, newOwner) {
		return nil, core.ErrInvalidParameter("address")
	}

	sender, authed, err := r.c.Authenticate(privatekey, meta)
	if err != nil {
		return nil, err
	}
	if !authed {
		return nil, core.ErrAuthFailed
	}

	dbtx, err := r.c.DB().OpenTransaction()
	if err != nil {
		return nil, err
	}
	defer dbtx.Discard()

	n, err := rawdb.ReadName(dbtx, cleaned)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, core.ErrNameNotFound
	}
	if n.Owner != sender.Address {
		return nil, core.ErrNotNameOwner
	}

	now := r.now()
	previous := n.Owner
	n.Owner = newOwner
	n.Updated = now
	if err := rawdb.WriteName(dbtx, n); err != nil {
		return nil, err
	}

	tx := &types.Transaction{
		From:      previous,
		To:        newOwner,
		Time:      now,
		Name:      cleaned,
		UserAgent: meta.UserAgent,
		Origin:    meta.Origin,
	}
	if err := rawdb.WriteTransaction(dbtx, tx); err != nil {
		return nil, err
	}
	if err := dbtx.Commit(); err != nil {
		return nil, err
	}

	r.c.InvalidateName(cleaned)
	r.c.Broadcast(core.Event{Kind: core.EventName, Name: n})
	r.c.Broadcast(core.Event{Kind: core.EventTransaction, Transaction: tx})
	return n, nil
}

// UpdateARecord sets or clears a name's data record.
func (r *Registry) UpdateARecord(privatekey, name, record string, meta core.RequestMeta) (*types.Name, error) {
	cfg := r.c.Config()
	if name == "" {
		return nil, core.ErrMissingParameter("name")
	}
	cleaned := crypto.CleanName(name, cfg.NameSuffix)
	if !crypto.IsValidName(cleaned) {
		return nil, core.ErrInvalidParameter("name")
	}
	if record != "" && !crypto.IsValidARecord(record, cfg.MaxMetadataSize) {
		return nil, core.ErrInvalidParameter("a")
	}

	sender, authed, err := r.c.Authenticate(privatekey, meta)
	if err != nil {
		return nil, err
	}
	if !authed {
		return nil, core.ErrAuthFailed
	}

	dbtx, err := r.c.DB().OpenTransaction()
	if err != nil {
		return nil, err
	}
	defer dbtx.Discard()

	n, err := rawdb.ReadName(dbtx, cleaned)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, core.ErrNameNotFound
	}
	if n.Owner != sender.Address {
		return nil, core.ErrNotNameOwner
	}

	now := r.now()
	n.A = record
	n.Updated = now
	if err := rawdb.WriteName(dbtx, n); err != nil {
		return nil, err
	}

	tx := &types.Transaction{
		From:      n.Owner,
		To:        types.RecipientARecord,
		Time:      now,
		Name:      cleaned,
		Metadata:  record,
		UserAgent: meta.UserAgent,
		Origin:    meta.Origin,
	}
	if err := rawdb.WriteTransaction(dbtx, tx); err != nil {
		return nil, err
	}
	if err := dbtx.Commit(); err != nil {
		return nil, err
	}

	r.c.Broadcast(core.Event{Kind: core.EventName, Name: n})
	r.c.Broadcast(core.Event{Kind: core.EventTransaction, Transaction: tx})
	return n, nil
}

func (r *Registry) now() time.Time {
	return r.c.Now()
}
