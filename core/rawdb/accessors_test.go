package rawdb

import (
	"errors"
	"testing"
	"time"

	"github.com/tenebra-network/gtenebra/tenebradb/memorydb"
	"github.com/tenebra-network/gtenebra/types"
)

func ts(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func TestAddressRoundTripAndIndexes(t *testing.T) {
	db := memorydb.New()
	defer db.Close()

	a := &types.Address{Address: "t8juvewcui", Balance: 100, FirstSeen: ts(10)}
	if err := WriteAddress(db, a); err != nil {
		t.Fatal(err)
	}
	b := &types.Address{Address: "tuf03bap3u", Balance: 500, FirstSeen: ts(20)}
	if err := WriteAddress(db, b); err != nil {
		t.Fatal(err)
	}

	got, err := ReadAddress(db, "t8juvewcui")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Balance != 100 {
		t.Fatalf("round trip failed: %+v", got)
	}
	if missing, err := ReadAddress(db, "t4k6ha0hlw"); err != nil || missing != nil {
		t.Fatalf("missing address should be nil, nil; got %+v, %v", missing, err)
	}

	if n, _ := ReadAddressCount(db); n != 2 {
		t.Fatalf("address count = %d", n)
	}

	// First seen order.
	list, err := ListAddresses(db, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Address != "t8juvewcui" {
		t.Fatalf("first-seen order wrong: %v", addrsOf(list))
	}

	// Rich order, then rewrite a balance and verify the index moved.
	rich, err := ListRichAddresses(db, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if rich[0].Address != "tuf03bap3u" {
		t.Fatalf("rich order wrong: %v", addrsOf(rich))
	}
	a.Balance = 1000
	if err := WriteAddress(db, a); err != nil {
		t.Fatal(err)
	}
	rich, err = ListRichAddresses(db, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if rich[0].Address != "t8juvewcui" {
		t.Fatalf("balance index not updated: %v", addrsOf(rich))
	}
	if n, _ := ReadAddressCount(db); n != 2 {
		t.Fatalf("rewrite bumped the address count to %d", n)
	}
}

func addrsOf(list []*types.Address) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.Address
	}
	return out
}

func TestPenaltyAndStakeSets(t *testing.T) {
	db := memorydb.New()
	defer db.Close()

	a := &types.Address{Address: "t8juvewcui", FirstSeen: ts(1), Stake: 50, Penalty: 10}
	if err := WriteAddress(db, a); err != nil {
		t.Fatal(err)
	}
	if n, _ := ReadPenaltyCount(db); n != 1 {
		t.Fatalf("penalty count = %d", n)
	}
	stakes, err := ListStakes(db)
	if err != nil || len(stakes) != 1 {
		t.Fatalf("stakes = %v, %v", stakes, err)
	}

	a.Stake, a.Penalty = 0, 0
	if err := WriteAddress(db, a); err != nil {
		t.Fatal(err)
	}
	if n, _ := ReadPenaltyCount(db); n != 0 {
		t.Fatalf("penalty count after clear = %d", n)
	}
	if stakes, _ := ListStakes(db); len(stakes) != 0 {
		t.Fatalf("stake set not cleared: %v", stakes)
	}
}

func TestBlockUniqueHash(t *testing.T) {
	db := memorydb.New()
	defer db.Close()

	b1 := &types.Block{Height: 1, Address: "t8juvewcui", Hash: "aa11", Value: 25, Time: ts(1), Difficulty: 100000}
	if err := WriteBlock(db, b1); err != nil {
		t.Fatal(err)
	}
	b2 := &types.Block{Height: 2, Address: "t8juvewcui", Hash: "aa11", Value: 25, Time: ts(2), Difficulty: 100000}
	if err := WriteBlock(db, b2); !errors.Is(err, ErrBlockHashExists) {
		t.Fatalf("duplicate hash accepted: %v", err)
	}
	if last, _ := ReadLastBlockHeight(db); last != 1 {
		t.Fatalf("last height = %d", last)
	}

	byHash, err := ReadBlockByHash(db, "aa11")
	if err != nil || byHash == nil || byHash.Height != 1 {
		t.Fatalf("hash lookup failed: %+v, %v", byHash, err)
	}
}

func TestListBlocksPaging(t *testing.T) {
	db := memorydb.New()
	defer db.Close()

	hashes := []string{"cc", "bb", "dd", "aa", "ee"}
	for i := uint64(1); i <= 5; i++ {
		b := &types.Block{Height: i, Hash: hashes[i-1], Time: ts(int64(i))}
		if err := WriteBlock(db, b); err != nil {
			t.Fatal(err)
		}
	}

	newest, err := ListBlocks(db, 2, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(newest) != 2 || newest[0].Height != 5 || newest[1].Height != 4 {
		t.Fatalf("newest paging wrong: %+v", newest)
	}
	older, err := ListBlocks(db, 2, 2, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(older) != 2 || older[0].Height != 3 {
		t.Fatalf("offset paging wrong: %+v", older)
	}
	asc, err := ListBlocks(db, 3, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(asc) != 3 || asc[0].Height != 2 {
		t.Fatalf("ascending paging wrong: %+v", asc)
	}

	lowest, err := ReadLowestHashBlock(db)
	if err != nil {
		t.Fatal(err)
	}
	if lowest == nil || lowest.Hash != "aa" {
		t.Fatalf("lowest hash block = %+v", lowest)
	}
}

func TestTransactionIndexes(t *testing.T) {
	db := memorydb.New()
	defer db.Close()

	txs := []*types.Transaction{
		{To: "t8juvewcui", Value: 25, Time: ts(1)},                                        // mined
		{From: "t8juvewcui", To: "tuf03bap3u", Value: 10, Time: ts(2)},                    // transfer
		{From: "t8juvewcui", To: types.RecipientName, Value: 500, Time: ts(3), Name: "x"}, // purchase
	}
	for _, tx := range txs {
		if err := WriteTransaction(db, tx); err != nil {
			t.Fatal(err)
		}
	}
	if txs[2].ID != 3 {
		t.Fatalf("id allocation wrong: %d", txs[2].ID)
	}

	if n, _ := ReadAddressTransactionCount(db, "t8juvewcui"); n != 3 {
		t.Fatalf("party count = %d", n)
	}
	if n, _ := ReadAddressTransactionCount(db, types.RecipientName); n != 0 {
		t.Fatal("pseudo recipient was indexed")
	}

	list, err := ListAddressTransactions(db, "t8juvewcui", 10, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].ID != 3 || list[2].ID != 1 {
		t.Fatalf("address listing not newest first: %+v", list)
	}

	noMined, err := ListAddressTransactions(db, "t8juvewcui", 10, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(noMined) != 2 {
		t.Fatalf("excludeMined kept %d rows", len(noMined))
	}

	global, err := ListTransactions(db, 2, 1, true, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(global) != 2 || global[0].ID != 2 {
		t.Fatalf("global paging wrong: %+v", global)
	}
}

func TestNameIndexes(t *testing.T) {
	db := memorydb.New()
	defer db.Close()

	n1 := &types.Name{Name: "beta", Owner: "t8juvewcui", OriginalOwner: "t8juvewcui", Registered: ts(10), Updated: ts(10), Unpaid: 500}
	n2 := &types.Name{Name: "alpha", Owner: "t8juvewcui", OriginalOwner: "t8juvewcui", Registered: ts(20), Updated: ts(20)}
	for _, n := range []*types.Name{n1, n2} {
		if err := WriteName(db, n); err != nil {
			t.Fatal(err)
		}
	}

	if c, _ := ReadNameCount(db); c != 2 {
		t.Fatalf("name count = %d", c)
	}
	if c, _ := ReadUnpaidNameCount(db); c != 1 {
		t.Fatalf("unpaid count = %d", c)
	}
	if c, _ := ReadOwnerNameCount(db, "t8juvewcui"); c != 2 {
		t.Fatalf("owner count = %d", c)
	}

	alpha, err := ListNames(db, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if alpha[0].Name != "alpha" {
		t.Fatal("alphabetical order wrong")
	}
	newest, err := ListNewestNames(db, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if newest[0].Name != "alpha" {
		t.Fatal("newest order wrong")
	}

	// Transfer moves the owner index.
	n1.Owner = "tuf03bap3u"
	if err := WriteName(db, n1); err != nil {
		t.Fatal(err)
	}
	if c, _ := ReadOwnerNameCount(db, "t8juvewcui"); c != 1 {
		t.Fatalf("old owner count = %d", c)
	}
	mine, err := ListOwnerNames(db, "tuf03bap3u", 10, 0)
	if err != nil || len(mine) != 1 || mine[0].Name != "beta" {
		t.Fatalf("owner listing wrong: %+v, %v", mine, err)
	}

	// Paying down the unpaid counter clears the set on zero.
	n1.Unpaid = 0
	if err := WriteName(db, n1); err != nil {
		t.Fatal(err)
	}
	if c, _ := ReadUnpaidNameCount(db); c != 0 {
		t.Fatalf("unpaid count after clear = %d", c)
	}
	unpaid, err := ListUnpaidNames(db)
	if err != nil || len(unpaid) != 0 {
		t.Fatalf("unpaid set not cleared: %v, %v", unpaid, err)
	}
}

func TestAuthLogPrune(t *testing.T) {
	db := memorydb.New()
	defer db.Close()

	old := &types.AuthLogEntry{IP: "10.0.0.1", Address: "t8juvewcui", Time: ts(100), Type: "auth"}
	recent := &types.AuthLogEntry{IP: "10.0.0.1", Address: "t8juvewcui", Time: ts(5000), Type: "mining"}
	for _, e := range []*types.AuthLogEntry{old, recent} {
		if err := AppendAuthLog(db, e); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := PruneAuthLog(db, ts(1000))
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d", removed)
	}
	left, err := ListAuthLog(db, 10)
	if err != nil || len(left) != 1 || left[0].Type != "mining" {
		t.Fatalf("wrong survivor: %+v, %v", left, err)
	}
}

func TestSchemaVersion(t *testing.T) {
	db := memorydb.New()
	defer db.Close()

	if err := CheckSchemaVersion(db); err != nil {
		t.Fatal(err)
	}
	v, err := ReadSchemaVersion(db)
	if err != nil || v != schemaVersion {
		t.Fatalf("schema = %d, %v", v, err)
	}
	// A second check against the stamped database passes.
	if err := CheckSchemaVersion(db); err != nil {
		t.Fatal(err)
	}
}
