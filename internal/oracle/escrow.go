package oracle

import (
	"context"
	"fmt"
)

// WithdrawFees pays amount of asset out of the escrow to recipient.
// The ledger is debited only once the transfer succeeded.
func (l *Ledger) WithdrawFees(ctx context.Context, caller Identity, asset AssetID, amount uint64, recipient Identity) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.authorize(caller); err != nil {
		return err
	}

	if amount == 0 {
		return ErrNoAmountSpecified
	}

	if _, known := l.fees[asset]; !known {
		return ErrAssetNotConfigured
	}

	balance := l.balances[asset]
	if balance < amount {
		return ErrNotEnoughFunds
	}

	if err := l.transfer.Transfer(ctx, asset, amount, recipient); err != nil {
		return fmt.Errorf("transfer %d of %s:\n%w", amount, asset, err)
	}

	remaining := balance - amount

	c := l.begin()
	c.batch.Set(balanceKey(asset), encodeAmount(remaining))

	if err := l.commit(c); err != nil {
		// Funds already left custody; the operator must reconcile.
		l.log.Error("withdrawal transferred but not recorded",
			"asset", asset,
			"amount", amount,
			"recipient", recipient,
			"error", err,
		)
		return err
	}

	l.balances[asset] = remaining

	l.log.Info("fees withdrawn", "asset", asset, "amount", amount, "recipient", recipient)

	return nil
}
