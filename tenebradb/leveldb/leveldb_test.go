package leveldb

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tenebra-network/gtenebra/tenebradb"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := New(t.TempDir(), 0, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPutGetDelete(t *testing.T) {
	db := newTestDB(t)

	if err := db.Put([]byte("key"), []byte("value")); err != nil {
		t.Fatal(err)
	}
	if ok, _ := db.Has([]byte("key")); !ok {
		t.Fatal("Has answered false for present key")
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

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := New(dir, 0, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Put([]byte("durable"), []byte("yes")); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db, err = New(dir, 0, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	got, err := db.Get([]byte("durable"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "yes" {
		t.Fatalf("got %q after reopen", got)
	}
}

func TestIteratorPrefixAndStart(t *testing.T) {
	db := newTestDB(t)

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

func TestBatchAndReplay(t *testing.T) {
	db := newTestDB(t)

	b := db.NewBatch()
	b.Put([]byte("1"), []byte("a"))
	b.Put([]byte("2"), []byte("b"))
	b.Delete([]byte("1"))
	if b.ValueSize() == 0 {
		t.Fatal("batch reports zero queued bytes")
	}
	if err := b.Write(); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Get([]byte("1")); !errors.Is(err, tenebradb.ErrNotFound) {
		t.Fatal("deleted key survived batch write")
	}
	if got, _ := db.Get([]byte("2")); string(got) != "b" {
		t.Fatalf("got %q", got)
	}

	var rec replayRecorder
	if err := b.Replay(&rec); err != nil {
		t.Fatal(err)
	}
	if rec.puts != 2 || rec.deletes != 1 {
		t.Fatalf("replay saw %d puts, %d deletes", rec.puts, rec.deletes)
	}

	b.Reset()
	if b.ValueSize() != 0 {
		t.Fatal("reset batch still reports queued bytes")
	}
}

type replayRecorder struct {
	puts    int
	deletes int
}

func (r *replayRecorder) Put(key, value []byte) error {
	r.puts++
	return nil
}

func (r *replayRecorder) Delete(key []byte) error {
	r.deletes++
	return nil
}

func TestTransactionCommitAndDiscard(t *testing.T) {
	db := newTestDB(t)
	db.Put([]byte("old"), []byte("1"))

	tx, err := db.OpenTransaction()
	if err != nil {
		t.Fatal(err)
	}
	tx.Put([]byte("new"), []byte("2"))
	tx.Delete([]byte("old"))
	if got, _ := tx.Get([]byte("new")); string(got) != "2" {
		t.Fatal("transaction cannot read its own write")
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

	tx, err = db.OpenTransaction()
	if err != nil {
		t.Fatal(err)
	}
	tx.Put([]byte("gone"), []byte("3"))
	tx.Discard()
	if _, err := db.Get([]byte("gone")); !errors.Is(err, tenebradb.ErrNotFound) {
		t.Fatal("discarded write applied")
	}
}

func TestStatAndCompact(t *testing.T) {
	db := newTestDB(t)

	for i := 0; i < 64; i++ {
		key := []byte{byte(i)}
		if err := db.Put(key, bytes.Repeat([]byte("x"), 128)); err != nil {
			t.Fatal(err)
		}
	}
	stats, err := db.Stat("leveldb.stats")
	if err != nil {
		t.Fatal(err)
	}
	if stats == "" {
		t.Fatal("empty leveldb.stats property")
	}
	if err := db.Compact(nil, nil); err != nil {
		t.Fatal(err)
	}
	if got, _ := db.Get([]byte{7}); len(got) != 128 {
		t.Fatalf("value lost after compaction: %d bytes", len(got))
	}
}
