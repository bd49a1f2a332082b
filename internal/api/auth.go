package api

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zeebo/blake3"

	"VRFOracle/internal/oracle"
)

const (
	// SignatureHeader carries the hex Ed25519 signature of the body digest.
	SignatureHeader = "X-Signature"

	// maxClockSkew is how far a call timestamp may drift from the server clock.
	maxClockSkew = 2 * time.Minute

	// signatureSize is the expected size of an Ed25519 signature.
	signatureSize = 64
)

// Digest returns the blake3 digest a caller signs for body.
func Digest(body []byte) [32]byte {
	return blake3.Sum256(body)
}

// SignBody signs body with key and returns the X-Signature header value.
func SignBody(key ed25519.PrivateKey, body []byte) string {
	digest := Digest(body)
	return hex.EncodeToString(ed25519.Sign(key, digest[:]))
}

// authenticate verifies the signed envelope of a mutating call and returns
// the caller identity.
func (s *Server) authenticate(r *http.Request, body []byte) (oracle.Identity, error) {
	var env Signed
	if err := json.Unmarshal(body, &env); err != nil {
		return oracle.Identity{}, fmt.Errorf("invalid envelope: %v", err)
	}

	if env.Caller.Kind != oracle.Account || env.Caller.IsZero() {
		return oracle.Identity{}, errors.New("caller must be a non-zero account")
	}

	sig, err := hex.DecodeString(r.Header.Get(SignatureHeader))
	if err != nil || len(sig) != signatureSize {
		return oracle.Identity{}, fmt.Errorf("missing or malformed %s header", SignatureHeader)
	}

	digest := Digest(body)
	if !ed25519.Verify(env.Caller.Value[:], digest[:], sig) {
		return oracle.Identity{}, errors.New("invalid signature")
	}

	skew := s.now().Sub(time.UnixMilli(env.Timestamp))
	if skew > maxClockSkew || skew < -maxClockSkew {
		return oracle.Identity{}, errors.New("stale timestamp")
	}

	if !s.replay.check(body) {
		return oracle.Identity{}, errors.New("replayed call")
	}

	return env.Caller, nil
}
