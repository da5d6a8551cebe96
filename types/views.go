package types

import (
	"time"
)

// AddressView is the public projection of an Address row.
type AddressView struct {
	Address   string    `json:"address"`
	Balance   uint64    `json:"balance"`
	TotalIn   uint64    `json:"totalin"`
	TotalOut  uint64    `json:"totalout"`
	FirstSeen time.Time `json:"firstseen"`
	Names     *uint64   `json:"names,omitempty"`
}

// View returns the public projection of the address. The names count is
// attached only when the caller resolved it.
func (a *Address) View(names *uint64) *AddressView {
	return &AddressView{
		Address:   a.Address,
		Balance:   a.Balance,
		TotalIn:   a.TotalIn,
		TotalOut:  a.TotalOut,
		FirstSeen: a.FirstSeen,
		Names:     names,
	}
}

// BlockView is the public projection of a Block row.
type BlockView struct {
	Height     uint64    `json:"height"`
	Address    string    `json:"address"`
	Hash       string    `json:"hash"`
	ShortHash  string    `json:"short_hash"`
	Value      uint64    `json:"value"`
	Time       time.Time `json:"time"`
	Difficulty uint64    `json:"difficulty"`
}

func (b *Block) View() *BlockView {
	short := b.Hash
	if len(short) > 12 {
		short = short[:12]
	}
	return &BlockView{
		Height:     b.Height,
		Address:    b.Address,
		Hash:       b.Hash,
		ShortHash:  short,
		Value:      b.Value,
		Time:       b.Time,
		Difficulty: b.Difficulty,
	}
}

// TransactionView is the public projection of a Transaction row. From
// and the name fields are nullable in client facing JSON.
type TransactionView struct {
	ID           uint64    `json:"id"`
	From         *string   `json:"from"`
	To           string    `json:"to"`
	Value        uint64    `json:"value"`
	Time         time.Time `json:"time"`
	Name         *string   `json:"name"`
	Metadata     *string   `json:"metadata"`
	SentMetaname *string   `json:"sent_metaname"`
	SentName     *string   `json:"sent_name"`
	Type         string    `json:"type"`
}

func (tx *Transaction) View() *TransactionView {
	return &TransactionView{
		ID:           tx.ID,
		From:         nullable(tx.From),
		To:           tx.To,
		Value:        tx.Value,
		Time:         tx.Time,
		Name:         nullable(tx.Name),
		Metadata:     nullable(tx.Metadata),
		SentMetaname: nullable(tx.SentMetaname),
		SentName:     nullable(tx.SentName),
		Type:         tx.Type(),
	}
}

// NameView is the public projection of a Name row.
type NameView struct {
	Name          string    `json:"name"`
	Owner         string    `json:"owner"`
	OriginalOwner string    `json:"original_owner"`
	Registered    time.Time `json:"registered"`
	Updated       time.Time `json:"updated"`
	A             *string   `json:"a"`
	Unpaid        uint64    `json:"unpaid"`
}

func (n *Name) View() *NameView {
	return &NameView{
		Name:          n.Name,
		Owner:         n.Owner,
		OriginalOwner: n.OriginalOwner,
		Registered:    n.Registered,
		Updated:       n.Updated,
		A:             nullable(n.A),
		Unpaid:        n.Unpaid,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
