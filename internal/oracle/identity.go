package oracle

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"
)

// IdentityKind tags which side of the Identity union a value belongs to.
type IdentityKind uint8

const (
	// Account identities are externally owned; the value is an Ed25519 public key.
	Account IdentityKind = iota
	// Contract identities are code-owned and cannot sign attestations.
	Contract
)

// String returns the lowercase kind name used in the text encoding.
func (k IdentityKind) String() string {
	switch k {
	case Account:
		return "account"
	case Contract:
		return "contract"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Identity attributes authorities and clients.
type Identity struct {
	Kind  IdentityKind // Kind selects account or contract
	Value [32]byte     // Value is the 32-byte address
}

// AccountID returns the account identity for a 32-byte address.
func AccountID(addr [32]byte) Identity {
	return Identity{Kind: Account, Value: addr}
}

// AccountFromKey returns the account identity of an Ed25519 public key.
func AccountFromKey(pub ed25519.PublicKey) Identity {
	id := Identity{Kind: Account}
	copy(id.Value[:], pub)
	return id
}

// ContractID returns the contract identity for a 32-byte contract address.
func ContractID(addr [32]byte) Identity {
	return Identity{Kind: Contract, Value: addr}
}

// IsZero reports whether the identity value is all zeros, whatever its kind.
func (id Identity) IsZero() bool {
	return id.Value == [32]byte{}
}

// String renders the identity as "kind:hex".
func (id Identity) String() string {
	return id.Kind.String() + ":" + hex.EncodeToString(id.Value[:])
}

// MarshalText implements encoding.TextMarshaler.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}

	*id = parsed

	return nil
}

// ParseIdentity parses "account:<hex>", "contract:<hex>" or a bare hex
// value, which is read as an account.
func ParseIdentity(s string) (Identity, error) {
	kind := Account
	value := s

	if prefix, rest, ok := strings.Cut(s, ":"); ok {
		switch prefix {
		case "account":
			kind = Account
		case "contract":
			kind = Contract
		default:
			return Identity{}, fmt.Errorf("unknown identity kind %q", prefix)
		}

		value = rest
	}

	raw, err := decodeHex32(value)
	if err != nil {
		return Identity{}, fmt.Errorf("identity value:\n%w", err)
	}

	return Identity{Kind: kind, Value: raw}, nil
}

// AssetID identifies a fungible fee asset. The zero value is the base asset.
type AssetID [32]byte

// BaseAsset is the network base asset.
var BaseAsset = AssetID{}

// String returns the hex encoding.
func (a AssetID) String() string {
	return hex.EncodeToString(a[:])
}

// MarshalText implements encoding.TextMarshaler.
func (a AssetID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AssetID) UnmarshalText(text []byte) error {
	raw, err := decodeHex32(string(text))
	if err != nil {
		return fmt.Errorf("asset id:\n%w", err)
	}

	*a = raw

	return nil
}

// ParseAssetID decodes a hex asset id.
func ParseAssetID(s string) (AssetID, error) {
	var a AssetID
	err := a.UnmarshalText([]byte(s))
	return a, err
}

// Seed is the caller-chosen 256-bit request key.
type Seed [32]byte

// String returns the hex encoding.
func (s Seed) String() string {
	return hex.EncodeToString(s[:])
}

// MarshalText implements encoding.TextMarshaler.
func (s Seed) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Seed) UnmarshalText(text []byte) error {
	raw, err := decodeHex32(string(text))
	if err != nil {
		return fmt.Errorf("seed:\n%w", err)
	}

	*s = raw

	return nil
}

// ParseSeed decodes a hex seed.
func ParseSeed(s string) (Seed, error) {
	var seed Seed
	err := seed.UnmarshalText([]byte(s))
	return seed, err
}

// Bytes64 is a 512-bit value: an attestation signature or final randomness.
type Bytes64 [64]byte

// String returns the hex encoding.
func (b Bytes64) String() string {
	return hex.EncodeToString(b[:])
}

// MarshalText implements encoding.TextMarshaler.
func (b Bytes64) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Bytes64) UnmarshalText(text []byte) error {
	raw, err := hex.DecodeString(strings.TrimPrefix(string(text), "0x"))
	if err != nil {
		return err
	}

	if len(raw) != len(b) {
		return fmt.Errorf("invalid length: got %d, want %d", len(raw), len(b))
	}

	copy(b[:], raw)

	return nil
}

// Halves splits the value into its two 32-byte limbs.
func (b Bytes64) Halves() (fst, snd [32]byte) {
	copy(fst[:], b[:32])
	copy(snd[:], b[32:])
	return fst, snd
}

// OwnerState is the governing authority's lifecycle state.
type OwnerState uint8

const (
	// OwnerUninitialized means the oracle was never configured.
	OwnerUninitialized OwnerState = iota
	// OwnerInitialized means an identity governs the oracle.
	OwnerInitialized
	// OwnerRevoked means governance was renounced for good.
	OwnerRevoked
)

// String returns the state name.
func (s OwnerState) String() string {
	switch s {
	case OwnerUninitialized:
		return "uninitialized"
	case OwnerInitialized:
		return "initialized"
	case OwnerRevoked:
		return "revoked"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s OwnerState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *OwnerState) UnmarshalText(text []byte) error {
	for state := OwnerUninitialized; state <= OwnerRevoked; state++ {
		if state.String() == string(text) {
			*s = state
			return nil
		}
	}

	return fmt.Errorf("unknown owner state %q", text)
}

// Owner is the governing authority. Identity is only meaningful when
// State is OwnerInitialized.
type Owner struct {
	State    OwnerState `json:"state"`
	Identity Identity   `json:"identity"`
}

// Is reports whether id currently governs the oracle.
func (o Owner) Is(id Identity) bool {
	return o.State == OwnerInitialized && o.Identity == id
}

// decodeHex32 decodes exactly 32 bytes of hex, with an optional 0x prefix.
func decodeHex32(s string) ([32]byte, error) {
	var out [32]byte

	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return out, err
	}

	if len(raw) != 32 {
		return out, fmt.Errorf("invalid length: got %d, want 32", len(raw))
	}

	copy(out[:], raw)

	return out, nil
}
