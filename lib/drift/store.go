// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package drift

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/conveyor-ci/conveyor/lib/artifact"
)

// Snapshot files use deterministic CBOR: the same snapshot always
// serializes to the same bytes, so snapshot files themselves never
// show up as drift when regenerated.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("drift: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("drift: CBOR decoder initialization failed: " + err.Error())
	}
}

// WriteSnapshot serializes a snapshot to path as a compressed blob.
func WriteSnapshot(path string, snapshot *Snapshot, tag artifact.CompressionTag) error {
	encoded, err := encMode.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if _, err := artifact.WriteBlob(path, encoded, tag); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot reads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (*Snapshot, error) {
	encoded, err := artifact.ReadBlob(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := decMode.Unmarshal(encoded, &snapshot); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", path, err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot %s has version %d, want %d",
			path, snapshot.Version, SnapshotVersion)
	}
	return &snapshot, nil
}

// WritePatch persists a drift patch captured by lib/git as a
// compressed blob. Returns the compression tag actually used.
func WritePatch(path string, patch []byte, tag artifact.CompressionTag) (artifact.CompressionTag, error) {
	return artifact.WriteBlob(path, patch, tag)
}

// ReadPatch reads a patch written by WritePatch.
func ReadPatch(path string) ([]byte, error) {
	return artifact.ReadBlob(path)
}
