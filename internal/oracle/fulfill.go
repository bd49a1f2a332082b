package oracle

// Fulfill records caller's attestation for seed. Once every configured
// fulfillment authority has contributed, the contributions are combined
// and the request becomes Fulfilled. Returns the updated record.
func (l *Ledger) Fulfill(caller Identity, seed Seed, signature Bytes64) (*Randomness, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, err := l.loadRandomness(seed)
	if err != nil {
		return nil, err
	}

	if rec == nil {
		return nil, ErrUnknownRequest
	}

	if rec.State == Fulfilled {
		return nil, ErrFulfilled
	}

	if rec.HasContribution(caller) {
		return nil, ErrResponded
	}

	if !l.verifier.Verify(caller, seed[:], signature[:]) {
		return nil, ErrInvalidResponse
	}

	slot := l.slotOf(caller)
	if slot < 0 {
		return nil, ErrNotAuthorized
	}

	next := rec.clone()
	next.addContribution(Contribution{Authority: caller, Slot: uint32(slot), Value: signature})

	c := l.begin()
	c.emit(Event{Kind: EventResponse, Seed: seed, Authority: caller, Randomness: signature})

	if finalize(next, l.cfg.authorities) {
		c.emit(Event{Kind: EventFulfill, Seed: seed, Randomness: next.Value})
	}

	c.batch.Set(seedKey(seed), encodeRandomness(next))

	if err := l.commit(c); err != nil {
		return nil, err
	}

	l.cache.Add(seed, next)

	if next.State == Fulfilled {
		l.log.Info("request fulfilled", "num", next.Num, "seed", seed, "authorities", len(next.Contributions))
	} else {
		l.log.Debug("response recorded", "num", next.Num, "seed", seed, "authority", caller)
	}

	return next.clone(), nil
}

// slotOf returns id's index in the authority set, or -1.
func (l *Ledger) slotOf(id Identity) int {
	for i, a := range l.cfg.authorities {
		if a == id {
			return i
		}
	}
	return -1
}

// finalize fulfills r when every member of authorities has contributed.
// Contributions from identities outside the set are dropped and the rest
// are re-slotted to it before combining.
func finalize(r *Randomness, authorities []Identity) bool {
	bySigner := make(map[Identity]Bytes64, len(r.Contributions))
	for _, c := range r.Contributions {
		bySigner[c.Authority] = c.Value
	}

	contributions := make([]Contribution, 0, len(authorities))
	values := make([]Bytes64, 0, len(authorities))

	for i, a := range authorities {
		v, ok := bySigner[a]
		if !ok {
			return false
		}

		contributions = append(contributions, Contribution{Authority: a, Slot: uint32(i), Value: v})
		values = append(values, v)
	}

	r.Contributions = contributions
	r.Value = Combine(r.Seed, values)
	r.State = Fulfilled

	return true
}

// Reset clears the contributions of an unfulfilled request.
// Only the governing authority may reset. Resetting a request nobody has
// answered yet is a no-op and emits no event.
func (l *Ledger) Reset(caller Identity, seed Seed) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.authorize(caller); err != nil {
		return err
	}

	rec, err := l.loadRandomness(seed)
	if err != nil {
		return err
	}

	if rec == nil {
		return ErrUnknownRequest
	}

	if rec.State == Fulfilled {
		return ErrFulfilled
	}

	if len(rec.Contributions) == 0 {
		return nil
	}

	next := rec.clone()
	next.Contributions = nil

	c := l.begin()
	c.batch.Set(seedKey(seed), encodeRandomness(next))
	c.emit(Event{Kind: EventReset, Seed: seed})

	if err := l.commit(c); err != nil {
		return err
	}

	l.cache.Add(seed, next)

	l.log.Info("request reset", "num", next.Num, "seed", seed, "dropped", len(rec.Contributions))

	return nil
}
