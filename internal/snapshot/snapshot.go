package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"VRFOracle/internal/storage"
	"VRFOracle/internal/types"
)

const (
	// snapshotVersion is the current snapshot format version.
	snapshotVersion = 1
)

// ErrNotEmpty is returned when restoring into a store that already holds data.
var ErrNotEmpty = errors.New("target store is not empty")

// entry holds one key-value pair of the ledger store.
type entry struct {
	key   []byte
	value []byte
}

// Create serializes every key of db into a checksummed snapshot.
// Keys come out of Pebble in order, so the checksum is deterministic.
func Create(db *storage.Storage) ([]byte, error) {
	entries, err := collectEntries(db)
	if err != nil {
		return nil, fmt.Errorf("collect entries:\n%w", err)
	}

	return buildSnapshot(entries), nil
}

// collectEntries copies every pair out of the store.
func collectEntries(db *storage.Storage) ([]entry, error) {
	var entries []entry

	err := db.Iterate(func(key, value []byte) error {
		// Copy key and value to avoid iterator invalidation
		entries = append(entries, entry{
			key:   bytes.Clone(key),
			value: bytes.Clone(value),
		})

		return nil
	})

	if err != nil {
		return nil, err
	}

	return entries, nil
}

// buildSnapshot creates the FlatBuffers snapshot with checksum.
func buildSnapshot(entries []entry) []byte {
	checksum := computeChecksum(snapshotVersion, entries)

	builder := flatbuffers.NewBuilder(1024)

	offsets := make([]flatbuffers.UOffsetT, len(entries))
	for i, e := range entries {
		keyOffset := builder.CreateByteVector(e.key)
		valueOffset := builder.CreateByteVector(e.value)

		types.SnapshotEntryStart(builder)
		types.SnapshotEntryAddKey(builder, keyOffset)
		types.SnapshotEntryAddValue(builder, valueOffset)
		offsets[i] = types.SnapshotEntryEnd(builder)
	}

	types.SnapshotStartEntriesVector(builder, len(offsets))
	for i := len(offsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(offsets[i])
	}
	entriesVector := builder.EndVector(len(offsets))

	checksumOffset := builder.CreateByteVector(checksum[:])

	types.SnapshotStart(builder)
	types.SnapshotAddVersion(builder, snapshotVersion)
	types.SnapshotAddEntries(builder, entriesVector)
	types.SnapshotAddChecksum(builder, checksumOffset)
	offset := types.SnapshotEnd(builder)
	builder.Finish(offset)

	return builder.FinishedBytes()
}

// computeChecksum computes a blake3 checksum over canonical snapshot data.
// Format: version (4 bytes) + for each entry: key len + key + value len + value
func computeChecksum(version uint32, entries []entry) [32]byte {
	hasher := blake3.New()

	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], version)
	hasher.Write(buf[:])

	for _, e := range entries {
		binary.BigEndian.PutUint32(buf[:], uint32(len(e.key)))
		hasher.Write(buf[:])
		hasher.Write(e.key)

		binary.BigEndian.PutUint32(buf[:], uint32(len(e.value)))
		hasher.Write(buf[:])
		hasher.Write(e.value)
	}

	var checksum [32]byte
	hasher.Sum(checksum[:0])

	return checksum
}

// Compress compresses snapshot data using zstd.
func Compress(data []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create encoder:\n%w", err)
	}
	defer encoder.Close()

	return encoder.EncodeAll(data, nil), nil
}

// Decompress decompresses zstd-compressed snapshot data.
func Decompress(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create decoder:\n%w", err)
	}
	defer decoder.Close()

	return decoder.DecodeAll(data, nil)
}

// Export creates a compressed snapshot of db.
func Export(db *storage.Storage) ([]byte, error) {
	data, err := Create(db)
	if err != nil {
		return nil, err
	}

	return Compress(data)
}

// Import restores a compressed snapshot into an empty store and returns the
// number of restored keys.
func Import(db *storage.Storage, compressed []byte) (int, error) {
	data, err := Decompress(compressed)
	if err != nil {
		return 0, fmt.Errorf("decompress:\n%w", err)
	}

	return Apply(db, data)
}

// Apply verifies an uncompressed snapshot and writes it into db in a
// single batch. db must be empty.
func Apply(db *storage.Storage, data []byte) (int, error) {
	empty, err := isEmpty(db)
	if err != nil {
		return 0, fmt.Errorf("inspect target:\n%w", err)
	}

	if !empty {
		return 0, ErrNotEmpty
	}

	entries, err := readSnapshot(data)
	if err != nil {
		return 0, err
	}

	pairs := make([]storage.KeyValue, len(entries))
	for i, e := range entries {
		pairs[i] = storage.KeyValue{Key: e.key, Value: e.value}
	}

	if err := db.SetBatch(pairs); err != nil {
		return 0, fmt.Errorf("write entries:\n%w", err)
	}

	return len(entries), nil
}

// readSnapshot parses data and verifies its version and checksum.
func readSnapshot(data []byte) (entries []entry, err error) {
	if len(data) < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("snapshot too short: %d bytes", len(data))
	}

	defer func() {
		if r := recover(); r != nil {
			entries, err = nil, fmt.Errorf("malformed snapshot: %v", r)
		}
	}()

	snap := types.GetRootAsSnapshot(data, 0)

	if v := snap.Version(); v != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", v)
	}

	stored := snap.ChecksumBytes()
	if len(stored) != 32 {
		return nil, fmt.Errorf("invalid checksum length: %d", len(stored))
	}

	entries = make([]entry, snap.EntriesLength())
	var e types.SnapshotEntry

	for i := range entries {
		if !snap.Entries(&e, i) {
			return nil, fmt.Errorf("read entry %d", i)
		}

		// Copy bytes as FlatBuffers reuses the buffer
		entries[i] = entry{
			key:   bytes.Clone(e.KeyBytes()),
			value: bytes.Clone(e.ValueBytes()),
		}
	}

	computed := computeChecksum(snap.Version(), entries)
	if !bytes.Equal(computed[:], stored) {
		return nil, fmt.Errorf("checksum mismatch")
	}

	return entries, nil
}

// errStop ends an iteration early.
var errStop = errors.New("stop")

// isEmpty reports whether db holds no keys.
func isEmpty(db *storage.Storage) (bool, error) {
	empty := true

	err := db.Iterate(func(key, value []byte) error {
		empty = false
		return errStop
	})

	if err != nil && !errors.Is(err, errStop) {
		return false, err
	}

	return empty, nil
}
