package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"VRFOracle/internal/logger"
	"VRFOracle/internal/storage"
)

const (
	// defaultInterval is the default interval between snapshots.
	defaultInterval = time.Minute

	// latestFile is the name of the snapshot file in the output directory.
	latestFile = "latest.snapshot.zst"
)

// Source exposes the committed ledger to the manager.
type Source interface {
	// Revision returns a counter that grows on every committed mutation.
	Revision() uint64

	// View runs fn while no mutation can commit.
	View(fn func(db *storage.Storage) error) error
}

// Manager writes periodic compressed snapshots of the ledger to disk.
type Manager struct {
	src      Source
	dir      string
	interval time.Duration

	mu      sync.RWMutex
	current []byte // compressed snapshot data
	rev     uint64 // rev is the source revision covered by current
	taken   bool   // taken is set once a snapshot exists

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewManager creates a manager writing to dir every interval (default 1m).
func NewManager(src Source, dir string, interval time.Duration) *Manager {
	if interval <= 0 {
		interval = defaultInterval
	}

	return &Manager{
		src:      src,
		dir:      dir,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start begins the periodic snapshot loop.
func (m *Manager) Start() {
	m.wg.Add(1)
	go m.loop()
}

// Stop stops the loop, takes a final snapshot and waits for it to finish.
func (m *Manager) Stop() {
	close(m.stop)
	m.wg.Wait()
}

// Latest returns the most recent compressed snapshot and the source revision
// it covers. Returns nil if no snapshot has been taken yet.
func (m *Manager) Latest() (data []byte, rev uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.current, m.rev
}

// Path returns the file the manager writes.
func (m *Manager) Path() string {
	return filepath.Join(m.dir, latestFile)
}

// loop runs the periodic snapshot creation.
func (m *Manager) loop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			m.tick()
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

// tick takes a snapshot and logs failures.
func (m *Manager) tick() {
	if err := m.TakeSnapshot(); err != nil {
		logger.Error("snapshot failed", "error", err)
	}
}

// TakeSnapshot exports the ledger and writes it to disk, unless nothing
// changed since the last snapshot.
func (m *Manager) TakeSnapshot() error {
	start := time.Now()

	m.mu.RLock()
	lastRev, taken := m.rev, m.taken
	m.mu.RUnlock()

	// Read before exporting: a commit in between only makes the next tick
	// export again.
	rev := m.src.Revision()
	if taken && rev == lastRev {
		return nil
	}

	var data []byte

	err := m.src.View(func(db *storage.Storage) error {
		var err error
		data, err = Export(db)
		return err
	})
	if err != nil {
		return fmt.Errorf("export:\n%w", err)
	}

	if err := writeAtomic(m.Path(), data); err != nil {
		return err
	}

	m.mu.Lock()
	m.current, m.rev, m.taken = data, rev, true
	m.mu.Unlock()

	logger.Debug("snapshot written", "revision", rev, "bytes", len(data), logger.Timed(start))

	return nil
}

// writeAtomic writes data to path through a temp file and rename.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create snapshot directory:\n%w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write snapshot:\n%w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename snapshot:\n%w", err)
	}

	return nil
}
