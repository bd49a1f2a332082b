package storage

import (
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
)

const (
	// defaultSyncInterval is the default interval between WAL syncs.
	defaultSyncInterval = 100 * time.Millisecond
)

// KeyValue represents a key-value pair for batch operations.
type KeyValue struct {
	Key   []byte // Key is the key to store
	Value []byte // Value is the value to store
}

// Options tunes how the store trades durability for latency.
type Options struct {
	// SyncWrites commits every batch with a WAL sync. When false, writes are
	// buffered and a background goroutine syncs every SyncInterval.
	SyncWrites bool

	// SyncInterval is the background sync period (default 100ms).
	SyncInterval time.Duration
}

// Storage provides a key-value store backed by Pebble.
type Storage struct {
	db        *pebble.DB           // db is the underlying Pebble database
	writeOpts *pebble.WriteOptions // writeOpts is applied to every write
	stopSync  chan struct{}        // stopSync signals the sync goroutine to stop
	wg        sync.WaitGroup
}

// New opens a Storage at path with buffered writes and periodic WAL syncs.
func New(path string) (*Storage, error) {
	return Open(path, Options{})
}

// Open opens a Storage at path with the given options.
func Open(path string, o Options) (*Storage, error) {
	opts := &pebble.Options{
		Cache:                       pebble.NewCache(32 << 20), // 32 MB cache
		MemTableSize:                16 << 20,                  // 16 MB memtable
		MemTableStopWritesThreshold: 2,
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, err
	}

	s := &Storage{
		db:        db,
		writeOpts: pebble.NoSync,
		stopSync:  make(chan struct{}),
	}

	if o.SyncWrites {
		s.writeOpts = pebble.Sync
		return s, nil
	}

	interval := o.SyncInterval
	if interval <= 0 {
		interval = defaultSyncInterval
	}

	s.startSyncLoop(interval)

	return s, nil
}

// Get retrieves the value for the given key.
// Returns nil if the key does not exist.
func (s *Storage) Get(key []byte) ([]byte, error) {
	value, closer, err := s.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	// Copy the value since it's invalid after closer.Close()
	result := make([]byte, len(value))
	copy(result, value)

	return result, nil
}

// Set stores a single key-value pair.
func (s *Storage) Set(key, value []byte) error {
	return s.db.Set(key, value, s.writeOpts)
}

// Delete removes a key from the store.
func (s *Storage) Delete(key []byte) error {
	return s.db.Delete(key, s.writeOpts)
}

// SetBatch atomically stores multiple key-value pairs.
// Either all pairs are written or none.
func (s *Storage) SetBatch(pairs []KeyValue) error {
	b := s.NewBatch()
	defer b.Close()

	for _, kv := range pairs {
		b.Set(kv.Key, kv.Value)
	}

	return b.Commit()
}

// Batch collects writes that are applied atomically on Commit.
// Write errors are deferred and reported by Commit.
type Batch struct {
	s     *Storage
	batch *pebble.Batch
	err   error
}

// NewBatch starts a new atomic write batch.
func (s *Storage) NewBatch() *Batch {
	return &Batch{s: s, batch: s.db.NewBatch()}
}

// Set queues a key-value write.
func (b *Batch) Set(key, value []byte) {
	if b.err != nil {
		return
	}

	b.err = b.batch.Set(key, value, nil)
}

// Delete queues a key deletion.
func (b *Batch) Delete(key []byte) {
	if b.err != nil {
		return
	}

	b.err = b.batch.Delete(key, nil)
}

// Len returns the number of queued operations.
func (b *Batch) Len() int {
	return int(b.batch.Count())
}

// Commit applies every queued write, or none of them.
func (b *Batch) Commit() error {
	if b.err != nil {
		return b.err
	}

	return b.batch.Commit(b.s.writeOpts)
}

// Close releases the batch. Uncommitted writes are discarded.
func (b *Batch) Close() {
	_ = b.batch.Close()
}

// Iterate calls fn for each key-value pair in the database.
// If fn returns an error, iteration stops and the error is returned.
// Keys are visited in lexicographic order.
func (s *Storage) Iterate(fn func(key, value []byte) error) error {
	return s.iterate(nil, fn)
}

// IteratePrefix calls fn for each key-value pair with the given prefix.
// Uses Pebble's iterator bounds for efficient prefix scanning.
func (s *Storage) IteratePrefix(prefix []byte, fn func(key, value []byte) error) error {
	return s.iterate(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	}, fn)
}

// iterate walks the keys selected by opts. Keys and values passed to fn are
// only valid until fn returns.
func (s *Storage) iterate(opts *pebble.IterOptions, fn func(key, value []byte) error) error {
	iter, err := s.db.NewIter(opts)
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		value, err := iter.ValueAndErr()
		if err != nil {
			return err
		}

		if err := fn(iter.Key(), value); err != nil {
			return err
		}
	}

	return iter.Error()
}

// prefixUpperBound computes the exclusive upper bound for a prefix scan.
// Increments the last byte; returns nil if prefix is all 0xFF (full range).
func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)

	for i := len(upper) - 1; i >= 0; i-- {
		upper[i]++
		if upper[i] != 0 {
			return upper[:i+1]
		}
	}

	return nil // all 0xFF: unbounded
}

// Close stops the sync goroutine and closes the database.
// It performs a final sync before closing to ensure durability.
func (s *Storage) Close() error {
	close(s.stopSync)
	s.wg.Wait()

	if err := s.sync(); err != nil {
		return err
	}

	return s.db.Close()
}

// startSyncLoop starts the background goroutine that periodically syncs the WAL.
func (s *Storage) startSyncLoop(interval time.Duration) {
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				_ = s.sync()
			case <-s.stopSync:
				return
			}
		}
	}()
}

// sync forces a WAL sync to disk.
func (s *Storage) sync() error {
	return s.db.LogData(nil, pebble.Sync)
}
