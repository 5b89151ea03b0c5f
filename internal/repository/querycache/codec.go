package querycache

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
)

// snapshotVersion is bumped whenever snapshotFile changes incompatibly.
const snapshotVersion = 1

// ErrSnapshotVersion is returned when decoding a snapshot written by another format version.
var ErrSnapshotVersion = errors.New("unsupported query cache snapshot version")

type snapshotFile struct {
	Version int
	Entries []Entry
}

// EncodeSnapshot serializes entries with gob.
func EncodeSnapshot(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snapshotFile{Version: snapshotVersion, Entries: entries}); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot parses data produced by EncodeSnapshot.
func DecodeSnapshot(data []byte) ([]Entry, error) {
	var f snapshotFile
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if f.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrSnapshotVersion, f.Version)
	}
	return f.Entries, nil
}
