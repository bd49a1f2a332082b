package api

import (
	"sync"
	"time"

	"github.com/zeebo/blake3"
)

const (
	// cleanupInterval is the interval between cleanup runs.
	cleanupInterval = 10 * time.Second
)

// replayGuard remembers the digests of accepted signed bodies so a captured
// call cannot be submitted twice while its timestamp is still fresh.
type replayGuard struct {
	seen map[[32]byte]int64 // seen maps body digest to first-seen time (unix nano)
	mu   sync.Mutex         // mu protects the seen map
	ttl  int64              // ttl in nanoseconds
	stop chan struct{}      // stop signals the cleanup goroutine to stop
	wg   sync.WaitGroup     // wg waits for the cleanup goroutine
}

// newReplayGuard creates a guard that forgets digests after ttl.
func newReplayGuard(ttl time.Duration) *replayGuard {
	g := &replayGuard{
		seen: make(map[[32]byte]int64),
		ttl:  int64(ttl),
		stop: make(chan struct{}),
	}

	g.startCleanup()

	return g
}

// check returns true if body was not accepted within the TTL and records it.
func (g *replayGuard) check(body []byte) bool {
	hash := blake3.Sum256(body)
	now := time.Now().UnixNano()

	g.mu.Lock()
	defer g.mu.Unlock()

	if ts, exists := g.seen[hash]; exists && now-ts < g.ttl {
		return false
	}

	g.seen[hash] = now

	return true
}

// close stops the cleanup goroutine.
func (g *replayGuard) close() {
	close(g.stop)
	g.wg.Wait()
}

// startCleanup starts the background cleanup goroutine.
func (g *replayGuard) startCleanup() {
	g.wg.Add(1)

	go func() {
		defer g.wg.Done()

		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				g.cleanup()
			case <-g.stop:
				return
			}
		}
	}()
}

// cleanup removes expired entries from the seen map.
func (g *replayGuard) cleanup() {
	now := time.Now().UnixNano()

	g.mu.Lock()

	for hash, ts := range g.seen {
		if now-ts >= g.ttl {
			delete(g.seen, hash)
		}
	}

	g.mu.Unlock()
}
