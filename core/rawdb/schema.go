// Package rawdb contains the low level accessors the ledger state is
// read and written through. Rows are JSON encoded; ordering and
// uniqueness come from the key schema, not the codec.
//
// The schema keeps one primary row per entity plus the secondary index
// keys the API needs for its listing orders. Index keys carry no value;
// the information is in the key itself. Counters live under the meta
// prefix so totals never require a scan.
package rawdb

import (
	"encoding/binary"
	"errors"
)

// Current version of the key schema. Bumped when a migration is needed.
const schemaVersion = 1

var (
	// ErrBlockHashExists is returned when writing a block whose hash is
	// already indexed. The chain engine maps it to a duplicate solution.
	ErrBlockHashExists = errors.New("rawdb: block hash exists")
)

var (
	addressPrefix   = []byte("addr:")   // addressPrefix + address -> address row
	addrSeenPrefix  = []byte("addrfs:") // addrSeenPrefix + be64(firstseen ms) + address -> nil
	balancePrefix   = []byte("bali:")   // balancePrefix + be64(^balance) + address -> nil
	blockPrefix     = []byte("blk:")    // blockPrefix + be64(height) -> block row
	blockHashPrefix = []byte("blkh:")   // blockHashPrefix + hash -> be64(height)
	txPrefix        = []byte("tx:")     // txPrefix + be64(id) -> transaction row
	txAddrPrefix    = []byte("txa:")    // txAddrPrefix + address + be64(^id) -> nil
	txAddrCountPfx  = []byte("txac:")   // txAddrCountPfx + address -> be64(count)
	namePrefix      = []byte("name:")   // namePrefix + name -> name row
	nameOwnerPrefix = []byte("nameo:")  // nameOwnerPrefix + owner + ":" + name -> nil
	nameOwnerCount  = []byte("nameoc:") // nameOwnerCount + owner -> be64(count)
	nameRegPrefix   = []byte("namer:")  // nameRegPrefix + be64(^registered ms) + name -> nil
	nameUnpaidPfx   = []byte("nameu:")  // nameUnpaidPfx + name -> nil, while unpaid > 0
	stakePrefix     = []byte("stake:")  // stakePrefix + address -> nil, while stake > 0
	penaltyPrefix   = []byte("pen:")    // penaltyPrefix + address -> nil, while penalty > 0
	authLogPrefix   = []byte("authlog:") // authLogPrefix + be64(time ms) + be64(seq) -> entry row
)

// Counter and singleton keys under the meta prefix.
var (
	lastBlockKey    = []byte("meta:lastblock")
	lastTxKey       = []byte("meta:lasttx")
	addressCountKey = []byte("meta:addresses")
	nameCountKey    = []byte("meta:names")
	unpaidCountKey  = []byte("meta:unpaidnames")
	penaltyCountKey = []byte("meta:penalties")
	supplyKey       = []byte("meta:supply")
	authLogSeqKey   = []byte("meta:authlogseq")
	schemaKey       = []byte("meta:schema")
)

func encodeUint64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func decodeUint64(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func addressKey(addr string) []byte {
	return append(addressPrefix[:len(addressPrefix):len(addressPrefix)], addr...)
}

func addrSeenKey(ms uint64, addr string) []byte {
	key := append(addrSeenPrefix[:len(addrSeenPrefix):len(addrSeenPrefix)], encodeUint64(ms)...)
	return append(key, addr...)
}

// balanceKey orders richest first: the balance is bit-inverted so
// bigger balances sort earlier, ties break on address.
func balanceKey(balance uint64, addr string) []byte {
	key := append(balancePrefix[:len(balancePrefix):len(balancePrefix)], encodeUint64(^balance)...)
	return append(key, addr...)
}

func blockKey(height uint64) []byte {
	return append(blockPrefix[:len(blockPrefix):len(blockPrefix)], encodeUint64(height)...)
}

func blockHashKey(hash string) []byte {
	return append(blockHashPrefix[:len(blockHashPrefix):len(blockHashPrefix)], hash...)
}

func txKey(id uint64) []byte {
	return append(txPrefix[:len(txPrefix):len(txPrefix)], encodeUint64(id)...)
}

// txAddrKey orders a party's transactions newest first via the
// bit-inverted id.
func txAddrKey(addr string, id uint64) []byte {
	key := append(txAddrPrefix[:len(txAddrPrefix):len(txAddrPrefix)], addr...)
	return append(key, encodeUint64(^id)...)
}

func txAddrCountKey(addr string) []byte {
	return append(txAddrCountPfx[:len(txAddrCountPfx):len(txAddrCountPfx)], addr...)
}

func nameKey(name string) []byte {
	return append(namePrefix[:len(namePrefix):len(namePrefix)], name...)
}

func nameOwnerKey(owner, name string) []byte {
	key := append(nameOwnerPrefix[:len(nameOwnerPrefix):len(nameOwnerPrefix)], owner...)
	key = append(key, ':')
	return append(key, name...)
}

func nameOwnerCountKey(owner string) []byte {
	return append(nameOwnerCount[:len(nameOwnerCount):len(nameOwnerCount)], owner...)
}

func nameRegKey(ms uint64, name string) []byte {
	key := append(nameRegPrefix[:len(nameRegPrefix):len(nameRegPrefix)], encodeUint64(^ms)...)
	return append(key, name...)
}

func nameUnpaidKey(name string) []byte {
	return append(nameUnpaidPfx[:len(nameUnpaidPfx):len(nameUnpaidPfx)], name...)
}

func stakeKey(addr string) []byte {
	return append(stakePrefix[:len(stakePrefix):len(stakePrefix)], addr...)
}

func penaltyKey(addr string) []byte {
	return append(penaltyPrefix[:len(penaltyPrefix):len(penaltyPrefix)], addr...)
}

func authLogKey(ms, seq uint64) []byte {
	key := append(authLogPrefix[:len(authLogPrefix):len(authLogPrefix)], encodeUint64(ms)...)
	return append(key, encodeUint64(seq)...)
}
