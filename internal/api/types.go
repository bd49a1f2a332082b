package api

import (
	"crypto/rand"
	"encoding/binary"
	"time"

	"VRFOracle/internal/oracle"
)

// Signed is the envelope every mutating call carries. The whole JSON body
// is signed by Caller's Ed25519 key; Timestamp bounds replay and Nonce
// keeps otherwise identical calls distinct.
type Signed struct {
	Caller    oracle.Identity `json:"caller"`
	Timestamp int64           `json:"ts"` // unix milliseconds
	Nonce     uint64          `json:"nonce,omitempty"`
}

// NewSigned returns an envelope for caller stamped with the current time
// and a random nonce.
func NewSigned(caller oracle.Identity) Signed {
	var nonce [8]byte
	rand.Read(nonce[:])

	return Signed{
		Caller:    caller,
		Timestamp: time.Now().UnixMilli(),
		Nonce:     binary.LittleEndian.Uint64(nonce[:]),
	}
}

// ConfigureBody is the body of POST /configure.
type ConfigureBody struct {
	Signed
	Authority   oracle.Identity   `json:"authority"`
	Fee         uint64            `json:"fee"`
	Authorities []oracle.Identity `json:"authorities"`
}

// AssetBody is the body of POST /assets.
type AssetBody struct {
	Signed
	Asset oracle.AssetID `json:"asset"`
	Fee   uint64         `json:"fee"`
}

// RemoveAssetBody is the body of POST /assets/remove.
type RemoveAssetBody struct {
	Signed
	Asset oracle.AssetID `json:"asset"`
}

// WithdrawBody is the body of POST /withdraw.
type WithdrawBody struct {
	Signed
	Asset     oracle.AssetID  `json:"asset"`
	Amount    uint64          `json:"amount"`
	Recipient oracle.Identity `json:"recipient"`
}

// RequestBody is the body of POST /requests.
type RequestBody struct {
	Signed
	Seed   oracle.Seed    `json:"seed"`
	Asset  oracle.AssetID `json:"asset"`
	Amount uint64         `json:"amount"`
}

// FulfillBody is the body of POST /fulfill.
type FulfillBody struct {
	Signed
	Seed      oracle.Seed    `json:"seed"`
	Signature oracle.Bytes64 `json:"signature"`
}

// ResetBody is the body of POST /reset.
type ResetBody struct {
	Signed
	Seed oracle.Seed `json:"seed"`
}

// RequestResponse is returned by POST /requests.
type RequestResponse struct {
	Num uint64 `json:"num"`
}

// AssetResponse is returned by GET /asset.
type AssetResponse struct {
	Asset oracle.AssetID `json:"asset"`
}

// FeeResponse is returned by GET /fee/{asset}.
type FeeResponse struct {
	Asset oracle.AssetID `json:"asset"`
	Fee   uint64         `json:"fee"`
}

// BalanceResponse is returned by GET /balance/{asset}.
type BalanceResponse struct {
	Asset   oracle.AssetID `json:"asset"`
	Balance uint64         `json:"balance"`
}

// CountResponse is returned by GET /requests/count.
type CountResponse struct {
	Count uint64 `json:"count"`
}

// EventsResponse is returned by GET /events.
type EventsResponse struct {
	Count  uint64         `json:"count"`
	Events []oracle.Event `json:"events"`
}

// ErrorResponse is the body of every failed call. Code is an oracle error
// code, or one of the transport codes below.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Transport error codes.
const (
	CodeBadRequest      = "BadRequest"
	CodeUnauthenticated = "Unauthenticated"
	CodeNotFound        = "NotFound"
	CodeInternal        = "Internal"
)
