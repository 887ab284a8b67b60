// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package drift

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// SnapshotVersion is the current snapshot format version.
const SnapshotVersion = 1

// Snapshot records the content hash of every file under a repository
// root at a point in time. Paths are repository-relative with forward
// slashes regardless of platform.
type Snapshot struct {
	Version int             `cbor:"version"`
	Files   map[string]Hash `cbor:"files"`
}

// Take walks the tree at root and hashes every regular file. The .git
// directory is always skipped; ignoreDirs lists additional top-level
// directories to exclude (typically the artifacts directory, whose
// content is a build product rather than tracked source).
func Take(root string, ignoreDirs []string) (*Snapshot, error) {
	ignored := make(map[string]bool, len(ignoreDirs)+1)
	ignored[".git"] = true
	for _, dir := range ignoreDirs {
		ignored[filepath.ToSlash(filepath.Clean(dir))] = true
	}

	snapshot := &Snapshot{
		Version: SnapshotVersion,
		Files:   map[string]Hash{},
	}

	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relative, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		relative = filepath.ToSlash(relative)

		if entry.IsDir() {
			if ignored[relative] {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			// Sockets, pipes, and symlinks have no stable content to
			// hash. Symlinked build outputs are not supported.
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}
		snapshot.Files[relative] = HashFileContent(data)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("snapshotting %s: %w", root, walkErr)
	}
	return snapshot, nil
}

// TreeHash computes a single tree-domain hash summarizing the whole
// snapshot. Two snapshots have equal tree hashes exactly when they
// cover the same paths with the same content.
func (snapshot *Snapshot) TreeHash() Hash {
	paths := make([]string, 0, len(snapshot.Files))
	for path := range snapshot.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var input []byte
	for _, path := range paths {
		hash := snapshot.Files[path]
		input = append(input, path...)
		input = append(input, 0)
		input = append(input, hash[:]...)
	}
	return keyedHash(treeDomainKey, input)
}

// Report lists the paths that differ between two snapshots, each slice
// in sorted order.
type Report struct {
	Added    []string
	Removed  []string
	Modified []string
}

// Compare diffs two snapshots, conventionally the pre-build state
// against the post-build state. An empty report means the build left
// the tree untouched.
func Compare(before, after *Snapshot) *Report {
	report := &Report{}

	for path, afterHash := range after.Files {
		beforeHash, existed := before.Files[path]
		switch {
		case !existed:
			report.Added = append(report.Added, path)
		case beforeHash != afterHash:
			report.Modified = append(report.Modified, path)
		}
	}
	for path := range before.Files {
		if _, exists := after.Files[path]; !exists {
			report.Removed = append(report.Removed, path)
		}
	}

	sort.Strings(report.Added)
	sort.Strings(report.Removed)
	sort.Strings(report.Modified)
	return report
}

// Clean reports whether the comparison found no drift.
func (report *Report) Clean() bool {
	return len(report.Added) == 0 && len(report.Removed) == 0 && len(report.Modified) == 0
}

// Paths returns every drifted path in a single sorted slice, suitable
// for log output.
func (report *Report) Paths() []string {
	paths := make([]string, 0, len(report.Added)+len(report.Removed)+len(report.Modified))
	paths = append(paths, report.Added...)
	paths = append(paths, report.Removed...)
	paths = append(paths, report.Modified...)
	sort.Strings(paths)
	return paths
}
