// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package drift detects build-produced repository drift locally,
// mirroring the semantics the synthesized workflow applies remotely:
// a diff exists if and only if the tree content after the build
// differs from the content before it. The comparison is structural —
// file bytes, not timestamps.
//
// A [Snapshot] records a keyed BLAKE3 hash per file. Taking a
// snapshot before the build and comparing after yields a [Report] of
// added, removed, and modified paths; the captured patch (lib/git)
// plus the report is everything the self-mutation path needs to fix
// drift without re-running the build.
package drift

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 digest.
type Hash [32]byte

// domainKey is a 32-byte key for BLAKE3 keyed hashing. Domain
// separation ensures the same input bytes produce different hashes in
// different contexts. The byte values are the ASCII encoding of the
// domain name, zero-padded to 32 bytes, so the keys are inspectable
// in hex dumps without sacrificing any cryptographic property.
type domainKey [32]byte

var (
	fileDomainKey = domainKey{
		'c', 'o', 'n', 'v', 'e', 'y', 'o', 'r', '.', 'd', 'r', 'i', 'f', 't', '.',
		'f', 'i', 'l', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	treeDomainKey = domainKey{
		'c', 'o', 'n', 'v', 'e', 'y', 'o', 'r', '.', 'd', 'r', 'i', 'f', 't', '.',
		't', 'r', 'e', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// HashFileContent computes the file-domain keyed hash of a file's
// bytes. This is the per-path value stored in snapshots.
func HashFileContent(data []byte) Hash {
	return keyedHash(fileDomainKey, data)
}

// FormatHash returns the hex-encoded string representation of a hash,
// the canonical format for logs and CLI output.
func FormatHash(hash Hash) string {
	return hex.EncodeToString(hash[:])
}

// ParseHash parses a 64-character hex string into a Hash.
func ParseHash(hexString string) (Hash, error) {
	var hash Hash
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return hash, fmt.Errorf("parsing drift hash: %w", err)
	}
	if len(decoded) != 32 {
		return hash, fmt.Errorf("drift hash is %d bytes, want 32", len(decoded))
	}
	copy(hash[:], decoded)
	return hash, nil
}

// keyedHash computes a BLAKE3 keyed hash with the given domain key.
func keyedHash(key domainKey, data []byte) Hash {
	// NewKeyed requires exactly 32 bytes, which domainKey guarantees.
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("drift: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}
