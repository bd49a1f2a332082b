package oracle

import (
	"bytes"
	"fmt"
	"log/slog"
	"math/bits"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"VRFOracle/internal/logger"
	"VRFOracle/internal/storage"
)

const (
	// MaxAuthorities bounds the fulfillment authority set.
	MaxAuthorities = 10

	// MaxPageSize bounds GetRequests and GetEvents page sizes.
	MaxPageSize = 100

	// defaultCacheSize is the number of randomness records kept decoded.
	defaultCacheSize = 4096
)

// Options configures a Ledger's collaborators.
type Options struct {
	Verifier   Verifier   // Verifier checks attestations (default Ed25519Verifier)
	Transferer Transferer // Transferer pays out withdrawals (default: no-op)
	CacheSize  int        // CacheSize is the randomness LRU size (default 4096)
}

// Payment is the value attached to a request.
type Payment struct {
	Asset  AssetID // Asset is the asset being paid with
	Amount uint64  // Amount is the attached amount
}

// Ledger is the oracle's request/fulfillment engine.
// Mutations are serialized and commit as one storage batch; reads run
// concurrently against the last committed state.
type Ledger struct {
	mu       sync.RWMutex
	db       *storage.Storage
	verifier Verifier
	transfer Transferer
	cache    *lru.Cache   // cache maps Seed to *Randomness
	log      *slog.Logger // log carries the component attribute

	// Committed mirrors of persisted state.
	cfg         settings
	fees        map[AssetID]uint64
	balances    map[AssetID]uint64
	numRequests uint64
	numEvents   uint64
	revision    uint64 // revision counts commits since open
}

// New opens a ledger on db, loading any previously committed state.
func New(db *storage.Storage, opts Options) (*Ledger, error) {
	if opts.Verifier == nil {
		opts.Verifier = Ed25519Verifier{}
	}

	if opts.Transferer == nil {
		opts.Transferer = nopTransferer{}
	}

	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}

	cache, err := lru.New(opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create cache:\n%w", err)
	}

	l := &Ledger{
		db:       db,
		verifier: opts.Verifier,
		transfer: opts.Transferer,
		cache:    cache,
		log:      logger.With("component", "ledger"),
		fees:     make(map[AssetID]uint64),
		balances: make(map[AssetID]uint64),
	}

	if err := l.load(); err != nil {
		return nil, fmt.Errorf("load ledger:\n%w", err)
	}

	return l, nil
}

// load rebuilds the in-memory mirrors from storage.
func (l *Ledger) load() error {
	data, err := l.db.Get(keyConfig)
	if err != nil {
		return err
	}

	if data != nil {
		cfg, err := decodeSettings(data)
		if err != nil {
			return fmt.Errorf("config:\n%w", err)
		}
		l.cfg = *cfg
	}

	if l.numRequests, err = l.loadCounter(keyNumRequests); err != nil {
		return fmt.Errorf("request counter:\n%w", err)
	}

	if l.numEvents, err = l.loadCounter(keyNumEvents); err != nil {
		return fmt.Errorf("event counter:\n%w", err)
	}

	if err := l.loadAmounts(prefixFee, l.fees); err != nil {
		return fmt.Errorf("fees:\n%w", err)
	}

	if err := l.loadAmounts(prefixBalance, l.balances); err != nil {
		return fmt.Errorf("balances:\n%w", err)
	}

	return nil
}

func (l *Ledger) loadCounter(key []byte) (uint64, error) {
	data, err := l.db.Get(key)
	if err != nil || data == nil {
		return 0, err
	}

	return decodeBE(data)
}

func (l *Ledger) loadAmounts(prefix []byte, into map[AssetID]uint64) error {
	return l.db.IteratePrefix(prefix, func(key, value []byte) error {
		var asset AssetID
		if err := copyFixed(asset[:], key[len(prefix):], "asset key"); err != nil {
			return err
		}

		amount, err := decodeAmount(value)
		if err != nil {
			return err
		}

		into[asset] = amount

		return nil
	})
}

// change accumulates the writes and facts of one mutation.
type change struct {
	batch  *storage.Batch
	events []Event
	next   uint64 // next is the index of the next emitted event
}

// begin starts a mutation. Callers hold the write lock.
func (l *Ledger) begin() *change {
	return &change{batch: l.db.NewBatch(), next: l.numEvents}
}

// emit appends an event to the pending change.
func (c *change) emit(e Event) {
	e.Index = c.next
	c.next++

	c.batch.Set(eventKey(e.Index), encodeEvent(&e))
	c.events = append(c.events, e)
}

// commit writes the change atomically. Mirrors must only be updated by the
// caller after commit succeeds.
func (l *Ledger) commit(c *change) error {
	defer c.batch.Close()

	if len(c.events) > 0 {
		c.batch.Set(keyNumEvents, encodeBE(c.next))
	}

	if err := c.batch.Commit(); err != nil {
		l.log.Error("commit failed", "error", err)
		return fmt.Errorf("commit:\n%w", err)
	}

	l.numEvents = c.next
	l.revision++

	for _, e := range c.events {
		l.log.Debug("event", "index", e.Index, "fact", e.String())
	}

	return nil
}

// Request registers a randomness request for seed paid with payment and
// returns its sequence number.
func (l *Ledger) Request(caller Identity, seed Seed, payment Payment) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cfg.owner.State == OwnerUninitialized {
		return 0, ErrContractNotConfigured
	}

	fee, ok := l.fees[payment.Asset]
	if !ok || fee == 0 {
		return 0, ErrAssetNotConfigured
	}

	if payment.Amount == 0 {
		return 0, ErrNoFeePaid
	}

	if payment.Amount != fee {
		return 0, ErrWrongFeePaid
	}

	existing, err := l.loadRandomness(seed)
	if err != nil {
		return 0, err
	}

	if existing != nil {
		return 0, ErrSeedInUse
	}

	balance, carry := bits.Add64(l.balances[payment.Asset], fee, 0)
	if carry != 0 {
		return 0, ErrBalanceOverflow
	}

	num := l.numRequests
	rec := &Randomness{Seed: seed, Client: caller, Num: num, State: Unfulfilled}

	c := l.begin()
	c.batch.Set(seedKey(seed), encodeRandomness(rec))
	c.batch.Set(numKey(num), seed[:])
	c.batch.Set(keyNumRequests, encodeBE(num+1))
	c.batch.Set(balanceKey(payment.Asset), encodeAmount(balance))
	c.emit(Event{Kind: EventRequest, Seed: seed, Client: caller, Num: num})

	if err := l.commit(c); err != nil {
		return 0, err
	}

	l.numRequests = num + 1
	l.balances[payment.Asset] = balance
	l.cache.Add(seed, rec)

	l.log.Debug("request accepted", "num", num, "seed", seed, "client", caller)

	return num, nil
}

// loadRandomness returns the committed record for seed, or nil.
// The returned record is shared; callers clone before mutating.
func (l *Ledger) loadRandomness(seed Seed) (*Randomness, error) {
	if v, ok := l.cache.Get(seed); ok {
		return v.(*Randomness), nil
	}

	data, err := l.db.Get(seedKey(seed))
	if err != nil {
		return nil, fmt.Errorf("read request:\n%w", err)
	}

	if data == nil {
		return nil, nil
	}

	rec, err := decodeRandomness(data)
	if err != nil {
		return nil, fmt.Errorf("decode request %s:\n%w", seed, err)
	}

	if !bytes.Equal(rec.Seed[:], seed[:]) {
		return nil, fmt.Errorf("request %s stored under wrong key", seed)
	}

	l.cache.Add(seed, rec)

	return rec, nil
}
