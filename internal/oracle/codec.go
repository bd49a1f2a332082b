package oracle

import (
	"encoding/binary"
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"

	"VRFOracle/internal/types"
)

// Storage key layout.
var (
	keyConfig      = []byte("m:config") // OracleConfig record
	keyNumRequests = []byte("m:count")  // u64 BE request counter
	keyNumEvents   = []byte("m:events") // u64 BE event counter

	prefixSeed    = []byte("s:") // seed -> Randomness record
	prefixNum     = []byte("n:") // u64 BE num -> seed
	prefixFee     = []byte("f:") // asset -> u64 LE fee
	prefixBalance = []byte("b:") // asset -> u64 LE balance
	prefixEvent   = []byte("e:") // u64 BE index -> Event record
)

// authorityEntrySize is the packed size of one authority: kind || value.
const authorityEntrySize = 33

func seedKey(seed Seed) []byte {
	return append(append([]byte{}, prefixSeed...), seed[:]...)
}

func numKey(num uint64) []byte {
	return append(append([]byte{}, prefixNum...), encodeBE(num)...)
}

func feeKey(asset AssetID) []byte {
	return append(append([]byte{}, prefixFee...), asset[:]...)
}

func balanceKey(asset AssetID) []byte {
	return append(append([]byte{}, prefixBalance...), asset[:]...)
}

func eventKey(index uint64) []byte {
	return append(append([]byte{}, prefixEvent...), encodeBE(index)...)
}

// encodeBE encodes counters and index keys; big-endian keeps keys sorted.
func encodeBE(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func decodeBE(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("invalid counter length %d", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// encodeAmount encodes fee and balance values.
func encodeAmount(v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return buf
}

func decodeAmount(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("invalid amount length %d", len(data))
	}
	return binary.LittleEndian.Uint64(data), nil
}

// encodeRandomness serializes a request record.
func encodeRandomness(r *Randomness) []byte {
	builder := flatbuffers.NewBuilder(256 + 128*len(r.Contributions))

	contribOffsets := make([]flatbuffers.UOffsetT, len(r.Contributions))
	for i, c := range r.Contributions {
		authVec := builder.CreateByteVector(c.Authority.Value[:])
		valueVec := builder.CreateByteVector(c.Value[:])

		types.ContributionStart(builder)
		types.ContributionAddAuthorityKind(builder, byte(c.Authority.Kind))
		types.ContributionAddAuthority(builder, authVec)
		types.ContributionAddSlot(builder, c.Slot)
		types.ContributionAddValue(builder, valueVec)
		contribOffsets[i] = types.ContributionEnd(builder)
	}

	types.RandomnessStartContributionsVector(builder, len(contribOffsets))
	for i := len(contribOffsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(contribOffsets[i])
	}
	contribVec := builder.EndVector(len(contribOffsets))

	seedVec := builder.CreateByteVector(r.Seed[:])
	clientVec := builder.CreateByteVector(r.Client.Value[:])

	var valueVec flatbuffers.UOffsetT
	if r.State == Fulfilled {
		valueVec = builder.CreateByteVector(r.Value[:])
	}

	types.RandomnessStart(builder)
	types.RandomnessAddSeed(builder, seedVec)
	types.RandomnessAddClientKind(builder, byte(r.Client.Kind))
	types.RandomnessAddClient(builder, clientVec)
	types.RandomnessAddNum(builder, r.Num)
	types.RandomnessAddFulfilled(builder, r.State == Fulfilled)
	if r.State == Fulfilled {
		types.RandomnessAddRandomness(builder, valueVec)
	}
	types.RandomnessAddContributions(builder, contribVec)
	builder.Finish(types.RandomnessEnd(builder))

	return builder.FinishedBytes()
}

// decodeRandomness parses a request record.
func decodeRandomness(data []byte) (r *Randomness, retErr error) {
	// FlatBuffers panics on malformed data, recover gracefully
	defer func() {
		if p := recover(); p != nil {
			r, retErr = nil, fmt.Errorf("malformed randomness record")
		}
	}()

	if len(data) < 8 {
		return nil, fmt.Errorf("randomness record too short")
	}

	fb := types.GetRootAsRandomness(data, 0)

	r = &Randomness{Num: fb.Num()}

	if err := copyFixed(r.Seed[:], fb.SeedBytes(), "seed"); err != nil {
		return nil, err
	}

	r.Client.Kind = IdentityKind(fb.ClientKind())
	if err := copyFixed(r.Client.Value[:], fb.ClientBytes(), "client"); err != nil {
		return nil, err
	}

	if fb.Fulfilled() {
		r.State = Fulfilled
		if err := copyFixed(r.Value[:], fb.RandomnessBytes(), "randomness"); err != nil {
			return nil, err
		}
	}

	var c types.Contribution
	for i := 0; i < fb.ContributionsLength(); i++ {
		if !fb.Contributions(&c, i) {
			continue
		}

		contrib := Contribution{Slot: c.Slot()}
		contrib.Authority.Kind = IdentityKind(c.AuthorityKind())

		if err := copyFixed(contrib.Authority.Value[:], c.AuthorityBytes(), "authority"); err != nil {
			return nil, err
		}

		if err := copyFixed(contrib.Value[:], c.ValueBytes(), "contribution"); err != nil {
			return nil, err
		}

		r.Contributions = append(r.Contributions, contrib)
	}

	return r, nil
}

// encodeEvent serializes an event log entry.
func encodeEvent(e *Event) []byte {
	builder := flatbuffers.NewBuilder(256)

	seedVec := builder.CreateByteVector(e.Seed[:])
	clientVec := builder.CreateByteVector(e.Client.Value[:])
	authVec := builder.CreateByteVector(e.Authority.Value[:])
	rndVec := builder.CreateByteVector(e.Randomness[:])

	types.EventStart(builder)
	types.EventAddKind(builder, byte(e.Kind))
	types.EventAddSeed(builder, seedVec)
	types.EventAddClientKind(builder, byte(e.Client.Kind))
	types.EventAddClient(builder, clientVec)
	types.EventAddNum(builder, e.Num)
	types.EventAddAuthorityKind(builder, byte(e.Authority.Kind))
	types.EventAddAuthority(builder, authVec)
	types.EventAddRandomness(builder, rndVec)
	builder.Finish(types.EventEnd(builder))

	return builder.FinishedBytes()
}

// decodeEvent parses an event log entry; index comes from the key.
func decodeEvent(index uint64, data []byte) (e Event, retErr error) {
	defer func() {
		if p := recover(); p != nil {
			e, retErr = Event{}, fmt.Errorf("malformed event record")
		}
	}()

	if len(data) < 8 {
		return Event{}, fmt.Errorf("event record too short")
	}

	fb := types.GetRootAsEvent(data, 0)

	e = Event{
		Index: index,
		Kind:  EventKind(fb.Kind()),
		Num:   fb.Num(),
	}
	e.Client.Kind = IdentityKind(fb.ClientKind())
	e.Authority.Kind = IdentityKind(fb.AuthorityKind())

	if err := copyFixed(e.Seed[:], fb.SeedBytes(), "seed"); err != nil {
		return Event{}, err
	}

	if err := copyFixed(e.Client.Value[:], fb.ClientBytes(), "client"); err != nil {
		return Event{}, err
	}

	if err := copyFixed(e.Authority.Value[:], fb.AuthorityBytes(), "authority"); err != nil {
		return Event{}, err
	}

	if err := copyFixed(e.Randomness[:], fb.RandomnessBytes(), "randomness"); err != nil {
		return Event{}, err
	}

	return e, nil
}

// settings is the persisted Configuration Store state besides fees.
type settings struct {
	owner          Owner
	authorities    []Identity
	preferredAsset AssetID
}

// encodeSettings serializes the configuration record.
func encodeSettings(s *settings) []byte {
	builder := flatbuffers.NewBuilder(128 + authorityEntrySize*len(s.authorities))

	packed := make([]byte, 0, authorityEntrySize*len(s.authorities))
	for _, a := range s.authorities {
		packed = append(packed, byte(a.Kind))
		packed = append(packed, a.Value[:]...)
	}

	ownerVec := builder.CreateByteVector(s.owner.Identity.Value[:])
	authVec := builder.CreateByteVector(packed)
	assetVec := builder.CreateByteVector(s.preferredAsset[:])

	types.OracleConfigStart(builder)
	types.OracleConfigAddOwnerState(builder, byte(s.owner.State))
	types.OracleConfigAddOwnerKind(builder, byte(s.owner.Identity.Kind))
	types.OracleConfigAddOwner(builder, ownerVec)
	types.OracleConfigAddAuthorities(builder, authVec)
	types.OracleConfigAddPreferredAsset(builder, assetVec)
	builder.Finish(types.OracleConfigEnd(builder))

	return builder.FinishedBytes()
}

// decodeSettings parses the configuration record.
func decodeSettings(data []byte) (s *settings, retErr error) {
	defer func() {
		if p := recover(); p != nil {
			s, retErr = nil, fmt.Errorf("malformed config record")
		}
	}()

	if len(data) < 8 {
		return nil, fmt.Errorf("config record too short")
	}

	fb := types.GetRootAsOracleConfig(data, 0)

	s = &settings{}
	s.owner.State = OwnerState(fb.OwnerState())
	s.owner.Identity.Kind = IdentityKind(fb.OwnerKind())

	if err := copyFixed(s.owner.Identity.Value[:], fb.OwnerBytes(), "owner"); err != nil {
		return nil, err
	}

	if err := copyFixed(s.preferredAsset[:], fb.PreferredAssetBytes(), "preferred asset"); err != nil {
		return nil, err
	}

	packed := fb.AuthoritiesBytes()
	if len(packed)%authorityEntrySize != 0 {
		return nil, fmt.Errorf("authorities length %d is not a multiple of %d", len(packed), authorityEntrySize)
	}

	for i := 0; i < len(packed); i += authorityEntrySize {
		id := Identity{Kind: IdentityKind(packed[i])}
		copy(id.Value[:], packed[i+1:i+authorityEntrySize])
		s.authorities = append(s.authorities, id)
	}

	return s, nil
}

// copyFixed copies src into dst, requiring an exact length match.
func copyFixed(dst, src []byte, field string) error {
	if len(src) != len(dst) {
		return fmt.Errorf("invalid %s size: got %d, want %d", field, len(src), len(dst))
	}

	copy(dst, src)

	return nil
}
