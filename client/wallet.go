package client

import (
	"crypto/ed25519"
	"crypto/rand"

	"VRFOracle/internal/oracle"
)

// Wallet holds the Ed25519 keypair that signs calls and attestations.
type Wallet struct {
	privKey ed25519.PrivateKey // privKey is the Ed25519 private key
	pubKey  ed25519.PublicKey  // pubKey is the Ed25519 public key
}

// NewWallet creates a new wallet with a random Ed25519 keypair.
func NewWallet() *Wallet {
	_, priv, _ := ed25519.GenerateKey(rand.Reader)
	return WalletFromKey(priv)
}

// WalletFromKey wraps an existing private key.
func WalletFromKey(priv ed25519.PrivateKey) *Wallet {
	return &Wallet{
		privKey: priv,
		pubKey:  priv.Public().(ed25519.PublicKey),
	}
}

// Identity returns the wallet's account identity.
func (w *Wallet) Identity() oracle.Identity {
	return oracle.AccountFromKey(w.pubKey)
}

// PublicKey returns the wallet's public key.
func (w *Wallet) PublicKey() ed25519.PublicKey {
	return w.pubKey
}

// SignSeed produces this wallet's attestation for seed.
func (w *Wallet) SignSeed(seed oracle.Seed) oracle.Bytes64 {
	return oracle.SignSeed(w.privKey, seed)
}
