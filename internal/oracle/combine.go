package oracle

import (
	"context"
	"crypto/ed25519"

	"github.com/zeebo/blake3"
)

// combineContext is the blake3 derive-key context for final randomness.
const combineContext = "vrf-oracle randomness combine v1"

// Combine folds slot-ordered contributions into the final randomness.
// The output depends on the seed and on every value in order, and is
// independent of how many authorities the oracle is configured with.
func Combine(seed Seed, values []Bytes64) Bytes64 {
	h := blake3.NewDeriveKey(combineContext)
	h.Write(seed[:])

	for _, v := range values {
		h.Write(v[:])
	}

	var out Bytes64
	_, _ = h.Digest().Read(out[:])

	return out
}

// Verifier checks an authority's attestation over a message.
type Verifier interface {
	Verify(id Identity, message, signature []byte) bool
}

// Ed25519Verifier treats account identities as Ed25519 public keys.
// Contract identities hold no key and never verify.
type Ed25519Verifier struct{}

// Verify implements Verifier.
func (Ed25519Verifier) Verify(id Identity, message, signature []byte) bool {
	if id.Kind != Account || len(signature) != ed25519.SignatureSize {
		return false
	}

	return ed25519.Verify(ed25519.PublicKey(id.Value[:]), message, signature)
}

// SignSeed produces the attestation an account authority submits for seed.
func SignSeed(key ed25519.PrivateKey, seed Seed) Bytes64 {
	var sig Bytes64
	copy(sig[:], ed25519.Sign(key, seed[:]))
	return sig
}

// Transferer moves withdrawn fees out of the oracle's custody.
type Transferer interface {
	Transfer(ctx context.Context, asset AssetID, amount uint64, recipient Identity) error
}

// TransferFunc adapts a function to Transferer.
type TransferFunc func(ctx context.Context, asset AssetID, amount uint64, recipient Identity) error

// Transfer implements Transferer.
func (f TransferFunc) Transfer(ctx context.Context, asset AssetID, amount uint64, recipient Identity) error {
	return f(ctx, asset, amount, recipient)
}

// nopTransferer accepts every transfer without side effects.
type nopTransferer struct{}

func (nopTransferer) Transfer(context.Context, AssetID, uint64, Identity) error {
	return nil
}
