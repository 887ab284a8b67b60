// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package artifact implements the "conveyor artifact" command group:
// packing the build output directory into a single compressed archive
// and extracting it again. This is the local counterpart of the build
// artifact the synthesized workflow uploads for post-build jobs.
package artifact

import (
	"github.com/conveyor-ci/conveyor/cmd/conveyor/cli"
)

// defaultArchivePath is where "artifact pack" writes and
// "artifact unpack" reads unless overridden. Lives in Conveyor's local
// state directory, which drift snapshots exclude.
const defaultArchivePath = ".conveyor/build-artifact"

// Command returns the "artifact" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "artifact",
		Summary: "Pack and unpack build output archives",
		Description: `Pack the project's artifacts directory into a single deterministic
compressed archive, or extract a previously packed archive.

The archive is what a post-build consumer sees: the same tree always
produces identical bytes, so archives are comparable across builds.
Pack after a clean "conveyor drift check"; build outputs captured from
a drifted tree are stale by definition.`,
		Subcommands: []*cli.Command{
			packCommand(),
			unpackCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Pack the build output after a clean build",
				Command:     "conveyor tasks run build && conveyor drift check && conveyor artifact pack",
			},
			{
				Description: "Extract a packed archive elsewhere",
				Command:     "conveyor artifact unpack --dest /tmp/artifact",
			},
		},
	}
}
