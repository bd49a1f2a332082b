package storage

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
)

// newTestStorage opens a storage in a per-test temp directory.
func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "db"), Options{SyncWrites: true})
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	t.Cleanup(func() { s.Close() })

	return s
}

func TestSetAndGet(t *testing.T) {
	s := newTestStorage(t)

	key := []byte("test-key")
	value := []byte("test-value")

	if err := s.Set(key, value); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if !bytes.Equal(got, value) {
		t.Errorf("Get returned %q, want %q", got, value)
	}
}

func TestGetNonExistent(t *testing.T) {
	s := newTestStorage(t)

	got, err := s.Get([]byte("non-existent"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got != nil {
		t.Errorf("Get returned %q, want nil", got)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStorage(t)

	key := []byte("to-delete")

	if err := s.Set(key, []byte("value")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := s.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got != nil {
		t.Errorf("Get after Delete returned %q, want nil", got)
	}
}

func TestSetBatch(t *testing.T) {
	s := newTestStorage(t)

	pairs := []KeyValue{
		{Key: []byte("batch-1"), Value: []byte("value-1")},
		{Key: []byte("batch-2"), Value: []byte("value-2")},
		{Key: []byte("batch-3"), Value: []byte("value-3")},
	}

	if err := s.SetBatch(pairs); err != nil {
		t.Fatalf("SetBatch failed: %v", err)
	}

	for _, kv := range pairs {
		got, err := s.Get(kv.Key)
		if err != nil {
			t.Fatalf("Get failed for %q: %v", kv.Key, err)
		}

		if !bytes.Equal(got, kv.Value) {
			t.Errorf("Get(%q) = %q, want %q", kv.Key, got, kv.Value)
		}
	}
}

func TestBatchMixedWrites(t *testing.T) {
	s := newTestStorage(t)

	if err := s.Set([]byte("old"), []byte("x")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	b := s.NewBatch()
	b.Set([]byte("new"), []byte("y"))
	b.Delete([]byte("old"))

	if b.Len() != 2 {
		t.Errorf("Len = %d, want 2", b.Len())
	}

	if err := b.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	b.Close()

	if got, _ := s.Get([]byte("old")); got != nil {
		t.Errorf("old key still present: %q", got)
	}

	if got, _ := s.Get([]byte("new")); !bytes.Equal(got, []byte("y")) {
		t.Errorf("new key = %q, want %q", got, "y")
	}
}

func TestBatchDiscardedOnClose(t *testing.T) {
	s := newTestStorage(t)

	b := s.NewBatch()
	b.Set([]byte("never"), []byte("written"))
	b.Close()

	if got, _ := s.Get([]byte("never")); got != nil {
		t.Errorf("uncommitted batch leaked value %q", got)
	}
}

func TestIteratePrefix(t *testing.T) {
	s := newTestStorage(t)

	pairs := []KeyValue{
		{Key: []byte("a:1"), Value: []byte("1")},
		{Key: []byte("a:2"), Value: []byte("2")},
		{Key: []byte("b:1"), Value: []byte("3")},
		{Key: []byte{'a', 0xFF}, Value: []byte("4")},
	}

	if err := s.SetBatch(pairs); err != nil {
		t.Fatalf("SetBatch failed: %v", err)
	}

	var keys []string
	err := s.IteratePrefix([]byte("a:"), func(key, value []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	if err != nil {
		t.Fatalf("IteratePrefix failed: %v", err)
	}

	if len(keys) != 2 || keys[0] != "a:1" || keys[1] != "a:2" {
		t.Errorf("IteratePrefix keys = %q, want [a:1 a:2]", keys)
	}
}

func TestIterateStopsOnError(t *testing.T) {
	s := newTestStorage(t)

	_ = s.SetBatch([]KeyValue{
		{Key: []byte("k1"), Value: []byte("v")},
		{Key: []byte("k2"), Value: []byte("v")},
	})

	stop := errors.New("stop")
	visited := 0

	err := s.Iterate(func(key, value []byte) error {
		visited++
		return stop
	})

	if !errors.Is(err, stop) {
		t.Errorf("Iterate error = %v, want %v", err, stop)
	}

	if visited != 1 {
		t.Errorf("visited %d keys, want 1", visited)
	}
}

func TestPrefixUpperBound(t *testing.T) {
	cases := []struct {
		prefix []byte
		want   []byte
	}{
		{[]byte("r:"), []byte("r;")},
		{[]byte{0x01, 0xFF}, []byte{0x02}},
		{[]byte{0xFF, 0xFF}, nil},
	}

	for _, c := range cases {
		if got := prefixUpperBound(c.prefix); !bytes.Equal(got, c.want) {
			t.Errorf("prefixUpperBound(%x) = %x, want %x", c.prefix, got, c.want)
		}
	}
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := s.Set([]byte("durable"), []byte("yes")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = New(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	got, err := s.Get([]byte("durable"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if !bytes.Equal(got, []byte("yes")) {
		t.Errorf("after reopen got %q, want %q", got, "yes")
	}
}
