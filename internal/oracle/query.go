package oracle

import (
	"fmt"
	"sort"

	"VRFOracle/internal/storage"
)

// AssetFee is one fee schedule entry.
type AssetFee struct {
	Asset   AssetID `json:"asset"`
	Fee     uint64  `json:"fee"`
	Balance uint64  `json:"balance"`
}

// GetAuthority returns the governing authority.
func (l *Ledger) GetAuthority() Owner {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.cfg.owner
}

// GetAsset returns the preferred additional fee asset, or the base asset
// when none was configured.
func (l *Ledger) GetAsset() AssetID {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.cfg.preferredAsset
}

// GetFee returns the configured fee for asset. Zero means disabled.
func (l *Ledger) GetFee(asset AssetID) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	fee, ok := l.fees[asset]
	if !ok {
		return 0, ErrAssetNotConfigured
	}

	return fee, nil
}

// GetBalance returns the escrowed fees held for asset.
func (l *Ledger) GetBalance(asset AssetID) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.fees[asset]; !ok {
		return 0, ErrAssetNotConfigured
	}

	return l.balances[asset], nil
}

// GetAssets returns the whole fee schedule sorted by asset id.
func (l *Ledger) GetAssets() []AssetFee {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]AssetFee, 0, len(l.fees))
	for asset, fee := range l.fees {
		out = append(out, AssetFee{Asset: asset, Fee: fee, Balance: l.balances[asset]})
	}

	sort.Slice(out, func(i, j int) bool {
		return string(out[i].Asset[:]) < string(out[j].Asset[:])
	})

	return out
}

// GetFulfillmentAuthorities returns the configured authorities in slot order.
func (l *Ledger) GetFulfillmentAuthorities() []Identity {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]Identity(nil), l.cfg.authorities...)
}

// GetNumRequests returns the number of accepted requests.
func (l *Ledger) GetNumRequests() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.numRequests
}

// GetRequestBySeed returns the request for seed, or nil if there is none.
func (l *Ledger) GetRequestBySeed(seed Seed) (*Randomness, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, err := l.loadRandomness(seed)
	if err != nil || rec == nil {
		return nil, err
	}

	return rec.clone(), nil
}

// GetRequestByNum returns the request with sequence number num, or nil.
func (l *Ledger) GetRequestByNum(num uint64) (*Randomness, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.requestByNum(num)
}

// GetRequests returns up to limit requests starting at offset. Numbers
// with no request yield nil entries; the page never extends past
// MaxPageSize.
func (l *Ledger) GetRequests(offset, limit uint64) ([]*Randomness, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	out := make([]*Randomness, 0, limit)

	for i := uint64(0); i < limit; i++ {
		num := offset + i
		if num < offset {
			break // overflow
		}

		rec, err := l.requestByNum(num)
		if err != nil {
			return nil, err
		}

		out = append(out, rec)
	}

	return out, nil
}

// requestByNum resolves the num index. Callers hold the read lock.
func (l *Ledger) requestByNum(num uint64) (*Randomness, error) {
	if num >= l.numRequests {
		return nil, nil
	}

	seedBytes, err := l.db.Get(numKey(num))
	if err != nil {
		return nil, fmt.Errorf("read request index %d:\n%w", num, err)
	}

	if seedBytes == nil {
		return nil, nil
	}

	var seed Seed
	if err := copyFixed(seed[:], seedBytes, "seed index"); err != nil {
		return nil, err
	}

	rec, err := l.loadRandomness(seed)
	if err != nil || rec == nil {
		return nil, err
	}

	return rec.clone(), nil
}

// Revision returns the number of commits since the ledger was opened. It
// grows on every mutation, including those that emit no event.
func (l *Ledger) Revision() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.revision
}

// GetNumEvents returns the length of the event log.
func (l *Ledger) GetNumEvents() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.numEvents
}

// GetEvents returns up to limit events starting at offset.
func (l *Ledger) GetEvents(offset, limit uint64) ([]Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	var out []Event

	for i := offset; i < l.numEvents && uint64(len(out)) < limit; i++ {
		data, err := l.db.Get(eventKey(i))
		if err != nil {
			return nil, fmt.Errorf("read event %d:\n%w", i, err)
		}

		if data == nil {
			continue
		}

		e, err := decodeEvent(i, data)
		if err != nil {
			return nil, fmt.Errorf("decode event %d:\n%w", i, err)
		}

		out = append(out, e)
	}

	return out, nil
}

// View runs fn against the underlying store while no mutation can commit.
// fn must not write.
func (l *Ledger) View(fn func(db *storage.Storage) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return fn(l.db)
}
