package memorydb

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/tenebra-network/gtenebra/tenebradb"
)

func TestPutGetDelete(t *testing.T) {
	db := New()
	defer db.Close()

	if err := db.Put([]byte("key"), []byte("value")); err != nil {
		t.Fatal(err)
	}
	got, err := db.Get([]byte("key"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("value")) {
		t.Fatalf("got %q", got)
	}
	if err := db.Delete([]byte("key")); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Get([]byte("key")); !errors.Is(err, tenebradb.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIteratorOrder(t *testing.T) {
	db := New()
	defer db.Close()

	for _, k := range []string{"b:2", "a:1", "b:1", "c:1", "b:3"} {
		if err := db.Put([]byte(k), []byte(k)); err != nil {
			t.Fatal(err)
		}
	}
	it := db.NewIterator([]byte("b:"), nil)
	defer it.Release()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	want := []string{"b:1", "b:2", "b:3"}
	if len(keys) != len(want) {
		t.Fatalf("got %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("got %v, want %v", keys, want)
		}
	}

	it = db.NewIterator([]byte("b:"), []byte("2"))
	defer it.Release()
	keys = keys[:0]
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	if len(keys) != 2 || keys[0] != "b:2" {
		t.Fatalf("start offset ignored: %v", keys)
	}
}

func TestBatch(t *testing.T) {
	db := New()
	defer db.Close()

	b := db.NewBatch()
	b.Put([]byte("1"), []byte("a"))
	b.Put([]byte("2"), []byte("b"))
	b.Delete([]byte("1"))
	if err := b.Write(); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Get([]byte("1")); !errors.Is(err, tenebradb.ErrNotFound) {
		t.Fatal("deleted key survived batch write")
	}
	if got, _ := db.Get([]byte("2")); string(got) != "b" {
		t.Fatalf("got %q", got)
	}
}

func TestTransactionCommit(t *testing.T) {
	db := New()
	defer db.Close()
	db.Put([]byte("old"), []byte("1"))

	tx, err := db.OpenTransaction()
	if err != nil {
		t.Fatal(err)
	}
	tx.Put([]byte("new"), []byte("2"))
	tx.Delete([]byte("old"))

	// Outside the transaction the old state is still visible.
	if _, err := db.Get([]byte("new")); !errors.Is(err, tenebradb.ErrNotFound) {
		t.Fatal("uncommitted write visible outside transaction")
	}
	// Inside, the overlay wins.
	if got, _ := tx.Get([]byte("new")); string(got) != "2" {
		t.Fatal("transaction cannot read its own write")
	}
	if _, err := tx.Get([]byte("old")); !errors.Is(err, tenebradb.ErrNotFound) {
		t.Fatal("transaction sees its own delete undone")
	}

	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
	if got, _ := db.Get([]byte("new")); string(got) != "2" {
		t.Fatal("commit did not apply")
	}
	if _, err := db.Get([]byte("old")); !errors.Is(err, tenebradb.ErrNotFound) {
		t.Fatal("commit did not delete")
	}
}

func TestTransactionDiscard(t *testing.T) {
	db := New()
	defer db.Close()

	tx, err := db.OpenTransaction()
	if err != nil {
		t.Fatal(err)
	}
	tx.Put([]byte("k"), []byte("v"))
	tx.Discard()

	if _, err := db.Get([]byte("k")); !errors.Is(err, tenebradb.ErrNotFound) {
		t.Fatal("discarded write applied")
	}
}

func TestTransactionExclusive(t *testing.T) {
	db := New()
	defer db.Close()

	tx, err := db.OpenTransaction()
	if err != nil {
		t.Fatal(err)
	}

	opened := make(chan struct{})
	go func() {
		tx2, err := db.OpenTransaction()
		if err == nil {
			tx2.Discard()
		}
		close(opened)
	}()

	select {
	case <-opened:
		t.Fatal("second transaction opened while first still active")
	case <-time.After(50 * time.Millisecond):
	}

	tx.Discard()
	select {
	case <-opened:
	case <-time.After(time.Second):
		t.Fatal("second transaction never unblocked")
	}
}

func TestTransactionIteratorOverlay(t *testing.T) {
	db := New()
	defer db.Close()
	db.Put([]byte("n:a"), []byte("1"))
	db.Put([]byte("n:b"), []byte("2"))

	tx, err := db.OpenTransaction()
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Discard()
	tx.Put([]byte("n:c"), []byte("3"))
	tx.Delete([]byte("n:a"))

	it := tx.NewIterator([]byte("n:"), nil)
	defer it.Release()
	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	if len(keys) != 2 || keys[0] != "n:b" || keys[1] != "n:c" {
		t.Fatalf("overlay iterator got %v", keys)
	}
}
