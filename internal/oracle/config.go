package oracle

import (
	"fmt"
	"slices"
)

// Configure sets the governing authority, the base asset fee and the
// fulfillment authority set. The first call bootstraps the oracle; later
// calls must come from the current authority.
func (l *Ledger) Configure(caller, authority Identity, fee uint64, fulfillmentAuthorities []Identity) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.cfg.owner.State {
	case OwnerRevoked:
		return ErrNotAuthorized
	case OwnerInitialized:
		if !l.cfg.owner.Is(caller) {
			return ErrNotAuthorized
		}
	}

	if authority.IsZero() {
		return ErrZeroAuthority
	}

	if fee == 0 {
		return ErrZeroFee
	}

	if err := validateAuthorities(fulfillmentAuthorities); err != nil {
		return err
	}

	next := l.cfg
	next.owner = Owner{State: OwnerInitialized, Identity: authority}
	next.authorities = append([]Identity(nil), fulfillmentAuthorities...)

	c := l.begin()
	c.batch.Set(keyConfig, encodeSettings(&next))
	c.batch.Set(feeKey(BaseAsset), encodeAmount(fee))

	var completed []*Randomness
	if !slices.Equal(l.cfg.authorities, next.authorities) {
		var err error
		if completed, err = l.completePending(c, next.authorities); err != nil {
			c.batch.Close()
			return err
		}
	}

	if err := l.commit(c); err != nil {
		return err
	}

	l.cfg = next
	l.fees[BaseAsset] = fee

	for _, r := range completed {
		l.cache.Add(r.Seed, r)
		l.log.Info("request fulfilled", "num", r.Num, "seed", r.Seed, "authorities", len(r.Contributions))
	}

	l.log.Info("oracle configured",
		"authority", authority,
		"fee", fee,
		"fulfillment_authorities", len(next.authorities),
	)

	return nil
}

// completePending fulfills, within c, every pending request whose
// contributions already cover authorities.
func (l *Ledger) completePending(c *change, authorities []Identity) ([]*Randomness, error) {
	var completed []*Randomness

	err := l.db.IteratePrefix(prefixSeed, func(_, value []byte) error {
		rec, err := decodeRandomness(value)
		if err != nil {
			return fmt.Errorf("decode request:\n%w", err)
		}

		if rec.State == Fulfilled || len(rec.Contributions) == 0 {
			return nil
		}

		if !finalize(rec, authorities) {
			return nil
		}

		c.emit(Event{Kind: EventFulfill, Seed: rec.Seed, Randomness: rec.Value})
		c.batch.Set(seedKey(rec.Seed), encodeRandomness(rec))
		completed = append(completed, rec)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("complete pending requests:\n%w", err)
	}

	return completed, nil
}

// validateAuthorities checks the fulfillment authority set invariants.
func validateAuthorities(ids []Identity) error {
	if len(ids) == 0 || len(ids) > MaxAuthorities {
		return ErrInvalidAuthorities
	}

	seen := make(map[Identity]struct{}, len(ids))

	for _, id := range ids {
		if id.IsZero() {
			return ErrZeroAuthority
		}

		if _, dup := seen[id]; dup {
			return ErrInvalidAuthorities
		}

		seen[id] = struct{}{}
	}

	return nil
}

// authorize checks that caller is the governing authority.
// Callers hold the write lock.
func (l *Ledger) authorize(caller Identity) error {
	switch l.cfg.owner.State {
	case OwnerUninitialized:
		return ErrContractNotConfigured
	case OwnerRevoked:
		return ErrNotAuthorized
	}

	if !l.cfg.owner.Is(caller) {
		return ErrNotAuthorized
	}

	return nil
}

// ConfigureAsset adds or updates a fee asset. A zero fee disables an
// existing non-base asset; the base asset and new assets require a fee.
// Changing an enabled non-base asset's fee takes two calls: disable it,
// then set the new fee.
func (l *Ledger) ConfigureAsset(caller Identity, asset AssetID, fee uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.authorize(caller); err != nil {
		return err
	}

	current, known := l.fees[asset]

	if fee == 0 && (asset == BaseAsset || !known) {
		return ErrZeroFee
	}

	if asset != BaseAsset && fee != 0 && current != 0 {
		return ErrNonZeroFee
	}

	next := l.cfg
	if asset != BaseAsset && fee != 0 {
		next.preferredAsset = asset
	}

	c := l.begin()
	c.batch.Set(feeKey(asset), encodeAmount(fee))
	if next.preferredAsset != l.cfg.preferredAsset {
		c.batch.Set(keyConfig, encodeSettings(&next))
	}

	if err := l.commit(c); err != nil {
		return err
	}

	l.cfg = next
	l.fees[asset] = fee

	l.log.Info("asset configured", "asset", asset, "fee", fee)

	return nil
}

// RemoveAsset drops a disabled, fully withdrawn asset from the schedule.
func (l *Ledger) RemoveAsset(caller Identity, asset AssetID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.authorize(caller); err != nil {
		return err
	}

	fee, known := l.fees[asset]
	if !known {
		return ErrAssetNotConfigured
	}

	if asset == BaseAsset || fee != 0 {
		return ErrNonZeroFee
	}

	if l.balances[asset] != 0 {
		return ErrRemainingAssets
	}

	next := l.cfg
	if next.preferredAsset == asset {
		next.preferredAsset = BaseAsset
	}

	c := l.begin()
	c.batch.Delete(feeKey(asset))
	c.batch.Delete(balanceKey(asset))
	if next.preferredAsset != l.cfg.preferredAsset {
		c.batch.Set(keyConfig, encodeSettings(&next))
	}

	if err := l.commit(c); err != nil {
		return err
	}

	l.cfg = next
	delete(l.fees, asset)
	delete(l.balances, asset)

	l.log.Info("asset removed", "asset", asset)

	return nil
}

// RevokeAuthority renounces governance. Requests and fulfillment keep
// working; every governing operation fails afterwards.
func (l *Ledger) RevokeAuthority(caller Identity) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.authorize(caller); err != nil {
		return err
	}

	next := l.cfg
	next.owner = Owner{State: OwnerRevoked}

	c := l.begin()
	c.batch.Set(keyConfig, encodeSettings(&next))

	if err := l.commit(c); err != nil {
		return err
	}

	l.cfg = next

	l.log.Warn("authority revoked", "previous", caller)

	return nil
}
