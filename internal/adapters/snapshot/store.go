// Package snapshot persists configured builds in the build directory.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/zerr"
)

// FormatVersion is the version of the on-disk envelope.
const FormatVersion uint32 = 1

var magic = [4]byte{'W', 'E', 'L', 'D'}

// header is magic, format version and the xxhash64 of the payload.
const headerSize = 4 + 4 + 8

// Store implements ports.SnapshotStore. A snapshot is a small header
// followed by the zstd-compressed msgpack encoding of domain.State.
type Store struct{}

// NewStore creates a new snapshot Store.
func NewStore() *Store {
	return &Store{}
}

// Save writes the frozen build b to the snapshot path of buildDir,
// replacing any previous snapshot atomically.
func (s *Store) Save(buildDir string, b *domain.Build) error {
	state, err := b.Export()
	if err != nil {
		return zerr.Wrap(err, domain.ErrSnapshotWriteFailed.Error())
	}
	data, err := Encode(state)
	if err != nil {
		return err
	}

	path := domain.DefaultSnapshotPath(buildDir)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrSnapshotWriteFailed.Error()), "path", dir)
	}

	tmpFile, err := os.CreateTemp(dir, domain.SnapshotFileName+"-*.tmp")
	if err != nil {
		return zerr.Wrap(err, domain.ErrSnapshotWriteFailed.Error())
	}
	tmpName := tmpFile.Name()
	defer func() {
		if _, err := os.Stat(tmpName); err == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return zerr.Wrap(err, domain.ErrSnapshotWriteFailed.Error())
	}
	if err := tmpFile.Close(); err != nil {
		return zerr.Wrap(err, domain.ErrSnapshotWriteFailed.Error())
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrSnapshotWriteFailed.Error())
	}
	if err := os.Rename(tmpName, path); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrSnapshotWriteFailed.Error()), "path", path)
	}
	return nil
}

// Load reads the snapshot of buildDir and rebuilds the frozen build.
func (s *Store) Load(buildDir string) (*domain.Build, error) {
	path := domain.DefaultSnapshotPath(buildDir)
	//nolint:gosec // Path is derived from the build directory
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrSnapshotNotFound, "no configured build"), "path", path)
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read build snapshot"), "path", path)
	}

	state, err := Decode(data)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, ""), "path", path)
	}
	return domain.Import(state)
}

// Encode serializes state into the snapshot format.
func Encode(state *domain.State) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(state); err != nil {
		return nil, zerr.Wrap(err, domain.ErrSnapshotWriteFailed.Error())
	}

	zw, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrSnapshotWriteFailed.Error())
	}
	payload := zw.EncodeAll(buf.Bytes(), nil)
	_ = zw.Close()

	out := make([]byte, headerSize, headerSize+len(payload))
	copy(out, magic[:])
	binary.BigEndian.PutUint32(out[4:8], FormatVersion)
	binary.BigEndian.PutUint64(out[8:16], xxhash.Sum64(payload))
	return append(out, payload...), nil
}

// Decode verifies and deserializes a snapshot produced by Encode.
func Decode(data []byte) (*domain.State, error) {
	if len(data) < headerSize || !bytes.Equal(data[:4], magic[:]) {
		return nil, zerr.Wrap(domain.ErrSnapshotCorrupt, "not a weld snapshot")
	}
	if v := binary.BigEndian.Uint32(data[4:8]); v != FormatVersion {
		return nil, zerr.With(zerr.Wrap(domain.ErrSnapshotStale,
			fmt.Sprintf("snapshot format %d, expected %d", v, FormatVersion)), "format", v)
	}
	payload := data[headerSize:]
	if binary.BigEndian.Uint64(data[8:16]) != xxhash.Sum64(payload) {
		return nil, zerr.Wrap(domain.ErrSnapshotCorrupt, "checksum mismatch")
	}

	zr, err := zstd.NewReader(nil)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create decompressor")
	}
	defer zr.Close()
	raw, err := zr.DecodeAll(payload, nil)
	if err != nil {
		return nil, zerr.Wrap(domain.ErrSnapshotCorrupt, err.Error())
	}

	var state domain.State
	if err := msgpack.NewDecoder(bytes.NewReader(raw)).Decode(&state); err != nil {
		return nil, zerr.Wrap(domain.ErrSnapshotCorrupt, err.Error())
	}
	return &state, nil
}
