// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package drift implements the "conveyor drift" command group: local
// drift detection mirroring what the synthesized workflow does
// remotely. Snapshot the tree before a build, run it, then check
// whether the build changed anything and capture the fix as a patch.
package drift

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/conveyor-ci/conveyor/cmd/conveyor/cli"
	"github.com/conveyor-ci/conveyor/lib/artifact"
	"github.com/conveyor-ci/conveyor/lib/project"
)

// stateDirectory holds Conveyor's local working files. Always excluded
// from snapshots.
const stateDirectory = ".conveyor"

// defaultSnapshotPath is where "drift snapshot" writes and
// "drift check" reads unless overridden.
const defaultSnapshotPath = stateDirectory + "/snapshot"

// defaultPatchPath is where "drift patch" writes unless overridden.
const defaultPatchPath = stateDirectory + "/repo.patch"

// Command returns the "drift" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "drift",
		Summary: "Detect build-produced repository drift locally",
		Description: `Detect drift the same way the synthesized workflow does: a build that
changes any file in the repository has drifted, whether the change is a
regenerated lockfile, formatted code, or an updated snapshot.

The local loop:

  conveyor drift snapshot      # record the pre-build tree
  conveyor tasks run build     # run the build
  conveyor drift check         # compare; non-zero exit on drift
  conveyor drift patch         # capture the fix as a compressed patch

Snapshots hash file content, not timestamps, so rebuilding without
changes is always clean.`,
		Subcommands: []*cli.Command{
			snapshotCommand(),
			checkCommand(),
			patchCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Record the tree, build, and check for drift",
				Command:     "conveyor drift snapshot && conveyor tasks run build && conveyor drift check",
			},
		},
	}
}

// loadSettings reads the project file when present and derives the
// snapshot settings from it. A missing project file is fine for local
// drift work; the defaults apply.
func loadSettings(projectPath string) (ignoreDirs []string, tag artifact.CompressionTag, err error) {
	ignoreDirs = []string{stateDirectory}
	tag = artifact.CompressionZstd

	config, readErr := project.ReadFile(projectPath)
	if readErr != nil {
		if errors.Is(readErr, fs.ErrNotExist) {
			return ignoreDirs, tag, nil
		}
		return nil, 0, readErr
	}

	if config.ArtifactsDirectory != "" {
		// Build outputs are products, not sources; they never count as
		// drift.
		ignoreDirs = append(ignoreDirs, config.ArtifactsDirectory)
	}
	tag, err = artifact.ParseCompressionTag(config.ArtifactCompression)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", projectPath, err)
	}
	return ignoreDirs, tag, nil
}
