package fulfiller

import (
	"context"
	"errors"
	"sync"
	"time"

	"VRFOracle/internal/logger"
	"VRFOracle/internal/oracle"
)

const (
	// defaultInterval is the polling period when none is configured.
	defaultInterval = 2 * time.Second

	// pageSize is the number of requests fetched per page.
	pageSize = oracle.MaxPageSize
)

// Oracle is the subset of the oracle client used by the worker.
type Oracle interface {
	GetNumRequests(ctx context.Context) (uint64, error)
	GetRequests(ctx context.Context, offset, limit uint64) ([]*oracle.Randomness, error)
	GetRequestBySeed(ctx context.Context, seed oracle.Seed) (*oracle.Randomness, error)
	GetEvents(ctx context.Context, offset, limit uint64) ([]oracle.Event, uint64, error)
	Fulfill(ctx context.Context, seed oracle.Seed) (*oracle.Randomness, error)
}

// Worker polls the request log and contributes an attestation for every
// pending request this authority has not answered yet.
type Worker struct {
	oracle   Oracle          // oracle is the node being served
	self     oracle.Identity // self is the authority identity the oracle signs as
	interval time.Duration   // interval between polls

	mu     sync.Mutex // mu protects the cursors
	cursor uint64     // cursor is the lowest request number not yet settled
	events uint64     // events is the number of log entries already scanned

	stop chan struct{}
	wg   sync.WaitGroup
}

// New creates a worker for the authority self.
func New(o Oracle, self oracle.Identity, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = defaultInterval
	}

	return &Worker{
		oracle:   o,
		self:     self,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start begins polling in a goroutine.
func (w *Worker) Start() {
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go func() {
			<-w.stop
			cancel()
		}()

		for {
			if _, err := w.Poll(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("poll failed", "error", err)
			}

			select {
			case <-w.stop:
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop halts polling and waits for the current round to end.
func (w *Worker) Stop() {
	close(w.stop)
	w.wg.Wait()
}

// Cursor returns the lowest request number not yet settled.
func (w *Worker) Cursor() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.cursor
}

// Poll runs one round and returns the number of attestations submitted.
// Requests are settled once fulfilled or answered by self; the cursor only
// moves past a contiguous run of settled requests.
func (w *Worker) Poll(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	total, err := w.oracle.GetNumRequests(ctx)
	if err != nil {
		return 0, err
	}

	submitted := 0
	advancing := true

	for offset := w.cursor; offset < total; offset += pageSize {
		page, err := w.oracle.GetRequests(ctx, offset, pageSize)
		if err != nil {
			return submitted, err
		}

		for i, rec := range page {
			num := offset + uint64(i)
			if num >= total {
				break
			}

			settled, sent, err := w.handle(ctx, rec)
			if err != nil {
				return submitted, err
			}

			if sent {
				submitted++
			}

			if advancing && settled {
				w.cursor = num + 1
			} else {
				advancing = false
			}
		}
	}

	resent, err := w.replayResets(ctx)

	return submitted + resent, err
}

// replayResets answers again every request reset since the last round,
// since a reset discards the contributions already made.
func (w *Worker) replayResets(ctx context.Context) (int, error) {
	submitted := 0

	for {
		events, count, err := w.oracle.GetEvents(ctx, w.events, pageSize)
		if err != nil {
			return submitted, err
		}

		for _, e := range events {
			w.events = e.Index + 1

			if e.Kind != oracle.EventReset {
				continue
			}

			rec, err := w.oracle.GetRequestBySeed(ctx, e.Seed)
			if err != nil {
				return submitted, err
			}

			_, sent, err := w.handle(ctx, rec)
			if err != nil {
				return submitted, err
			}

			if sent {
				submitted++
			}
		}

		if len(events) == 0 || w.events >= count {
			return submitted, nil
		}
	}
}

// handle answers rec if needed and reports whether it is settled.
func (w *Worker) handle(ctx context.Context, rec *oracle.Randomness) (settled, sent bool, err error) {
	if rec == nil {
		return false, false, nil
	}

	if rec.State == oracle.Fulfilled || rec.HasContribution(w.self) {
		return true, false, nil
	}

	_, err = w.oracle.Fulfill(ctx, rec.Seed)

	switch {
	case err == nil:
		logger.Debug("request answered", "seed", rec.Seed, "num", rec.Num)
		return true, true, nil
	case errors.Is(err, oracle.ErrFulfilled), errors.Is(err, oracle.ErrResponded):
		return true, false, nil
	case errors.Is(err, oracle.ErrNotAuthorized):
		// Not in the current authority set; a later reconfigure may add us.
		return false, false, nil
	case errors.Is(err, oracle.ErrUnknownRequest), errors.Is(err, oracle.ErrInvalidResponse):
		logger.Warn("request rejected", "seed", rec.Seed, "error", err)
		return false, false, nil
	default:
		return false, false, err
	}
}
