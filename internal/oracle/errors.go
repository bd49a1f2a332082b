package oracle

import "errors"

// Code is the stable name of a ledger rejection.
type Code string

// Error is a ledger rejection. Every Error leaves the ledger unchanged.
type Error struct {
	Code Code   // Code is the stable machine-readable name
	msg  string // msg is the human-readable description
}

// Error implements error.
func (e *Error) Error() string {
	return e.msg
}

func newError(code Code, msg string) *Error {
	return &Error{Code: code, msg: msg}
}

// Configuration errors.
var (
	ErrContractNotConfigured = newError("ContractNotConfigured", "contract is not configured")
	ErrAssetNotConfigured    = newError("AssetNotConfigured", "the asset is not configured")
	ErrZeroAuthority         = newError("ZeroAuthority", "zero authority is not allowed")
	ErrZeroFee               = newError("ZeroFee", "zero fee is not allowed")
	ErrNonZeroFee            = newError("NonZeroFee", "set fee to 0 when disabling the asset")
	ErrRemainingAssets       = newError("RemainingAssets", "withdraw asset fees before changing the asset")
	ErrInvalidAuthorities    = newError("InvalidAuthorities", "fulfillment authorities must be a non-empty set of distinct identities")
)

// Authorization errors.
var (
	ErrNotAuthorized = newError("NotAuthorized", "not authorized")
)

// Payment errors.
var (
	ErrNoFeePaid         = newError("NoFeePaid", "client must pay the fee")
	ErrWrongFeePaid      = newError("WrongFeePaid", "client must pay the correct fee")
	ErrNoAmountSpecified = newError("NoAmountSpecified", "you should specify an amount")
	ErrNotEnoughFunds    = newError("NotEnoughFunds", "not enough funds to withdraw")
	ErrBalanceOverflow   = newError("BalanceOverflow", "asset balance would overflow")
)

// Request lifecycle errors.
var (
	ErrSeedInUse      = newError("SeedInUse", "seed is in use")
	ErrUnknownRequest = newError("UnknownRequest", "request seed is unknown")
	ErrFulfilled      = newError("Fulfilled", "request is fulfilled")
	ErrResponded      = newError("Responded", "authority already responded")
)

// Attestation errors.
var (
	ErrInvalidResponse = newError("InvalidResponse", "randomness response is invalid")
)

var allErrors = []*Error{
	ErrContractNotConfigured, ErrAssetNotConfigured, ErrZeroAuthority, ErrZeroFee,
	ErrNonZeroFee, ErrRemainingAssets, ErrInvalidAuthorities, ErrNotAuthorized,
	ErrNoFeePaid, ErrWrongFeePaid, ErrNoAmountSpecified, ErrNotEnoughFunds,
	ErrBalanceOverflow, ErrSeedInUse, ErrUnknownRequest, ErrFulfilled,
	ErrResponded, ErrInvalidResponse,
}

// CodeOf returns the Code of a ledger rejection anywhere in err's chain,
// or "" for infrastructure failures.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ""
}

// ErrorForCode returns the sentinel for a code, or nil if unknown.
func ErrorForCode(code Code) error {
	for _, e := range allErrors {
		if e.Code == code {
			return e
		}
	}

	return nil
}
