// Package types holds the ledger row types and their public API
// projections. Rows are what the database stores; views are what the
// HTTP and websocket surfaces emit. The split exists because rows carry
// private fields, the authentication digest above all, that must never
// reach a client.
package types

import (
	"time"
)

// Well known pseudo recipients on the transaction log.
const (
	RecipientName    = "name"
	RecipientARecord = "a"
	RecipientStaking = "staking"
)

// Transaction type labels, derived from row shape.
const (
	TxMined        = "mined"
	TxTransfer     = "transfer"
	TxNamePurchase = "name_purchase"
	TxNameARecord  = "name_a_record"
	TxNameTransfer = "name_transfer"
	TxStaking      = "staking"
)

// Address is the stored per-address row. Balance, stake and penalty are
// whole currency units; the ledger has no fractional denomination.
type Address struct {
	Address   string    `json:"address"`
	Balance   uint64    `json:"balance"`
	TotalIn   uint64    `json:"totalin"`
	TotalOut  uint64    `json:"totalout"`
	FirstSeen time.Time `json:"firstseen"`

	// Auth is the sha256 of address plus private key, bound on first
	// authenticated use. Empty until then.
	Auth   string `json:"auth,omitempty"`
	Locked bool   `json:"locked,omitempty"`

	Stake       uint64 `json:"stake,omitempty"`
	StakeActive bool   `json:"stake_active,omitempty"`
	Penalty     uint64 `json:"penalty,omitempty"`
}

// Block is a stored block row. Height is assigned by the chain engine,
// Difficulty records the work value the solution was checked against.
// The nonce is stored hex encoded; clients never read it back.
type Block struct {
	Height     uint64    `json:"height"`
	Address    string    `json:"address"`
	Hash       string    `json:"hash"`
	Nonce      string    `json:"nonce"`
	Value      uint64    `json:"value"`
	Time       time.Time `json:"time"`
	Difficulty uint64    `json:"difficulty"`
	UserAgent  string    `json:"useragent,omitempty"`
	Origin     string    `json:"origin,omitempty"`
}

// Transaction is a stored transfer log row. From is empty on mined
// rewards. Name carries the name a name transaction operated on;
// SentMetaname and SentName preserve the metaname form the sender used
// to route the payment. Metadata is stored under the historical "op"
// column name.
type Transaction struct {
	ID           uint64    `json:"id"`
	From         string    `json:"from,omitempty"`
	To           string    `json:"to"`
	Value        uint64    `json:"value"`
	Time         time.Time `json:"time"`
	Name         string    `json:"name,omitempty"`
	Metadata     string    `json:"op,omitempty"`
	SentMetaname string    `json:"sent_metaname,omitempty"`
	SentName     string    `json:"sent_name,omitempty"`
	UserAgent    string    `json:"useragent,omitempty"`
	Origin       string    `json:"origin,omitempty"`
}

// Type classifies a transaction row for API output and event routing.
func (tx *Transaction) Type() string {
	switch {
	case tx.From == "":
		return TxMined
	case tx.Name != "" && tx.To == RecipientName:
		return TxNamePurchase
	case tx.Name != "" && tx.To == RecipientARecord:
		return TxNameARecord
	case tx.Name != "":
		return TxNameTransfer
	case tx.From == RecipientStaking || tx.To == RecipientStaking:
		return TxStaking
	default:
		return TxTransfer
	}
}

// Name is a stored name row. Names are stored without the network
// suffix. Unpaid counts down one per mined block after a purchase.
type Name struct {
	Name          string    `json:"name"`
	Owner         string    `json:"owner"`
	OriginalOwner string    `json:"original_owner"`
	Registered    time.Time `json:"registered"`
	Updated       time.Time `json:"updated"`
	A             string    `json:"a,omitempty"`
	Unpaid        uint64    `json:"unpaid"`
}

// Stake is the staking projection of an address.
type Stake struct {
	Owner  string `json:"owner"`
	Stake  uint64 `json:"stake"`
	Active bool   `json:"active"`
}

// Penalty is the outstanding penalty of a validator that missed its
// slot. It counts down one unit per mined block.
type Penalty struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

// Auth log entry types.
const (
	AuthTypeAuth   = "auth"
	AuthTypeMining = "mining"
)

// AuthLogEntry records an authentication attempt against an address.
type AuthLogEntry struct {
	IP        string    `json:"ip"`
	Address   string    `json:"address"`
	Time      time.Time `json:"time"`
	Type      string    `json:"type"` // "auth" or "mining"
	UserAgent string    `json:"useragent,omitempty"`
	Origin    string    `json:"origin,omitempty"`
}
