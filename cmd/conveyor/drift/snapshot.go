// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package drift

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/conveyor-ci/conveyor/cmd/conveyor/cli"
	libdrift "github.com/conveyor-ci/conveyor/lib/drift"
	"github.com/conveyor-ci/conveyor/lib/project"
)

// snapshotCommand returns the "snapshot" subcommand.
func snapshotCommand() *cli.Command {
	var projectPath string
	var outputPath string

	return &cli.Command{
		Name:    "snapshot",
		Summary: "Record the current tree state",
		Description: `Hash every file in the repository and write the snapshot to the local
state directory. "conveyor drift check" compares the tree against the
most recent snapshot.

The .git directory, the state directory, and the configured artifacts
directory are excluded.`,
		Usage: "conveyor drift snapshot [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("snapshot", pflag.ContinueOnError)
			flagSet.StringVar(&projectPath, "project", project.DefaultFileName, "project configuration file")
			flagSet.StringVar(&outputPath, "output", defaultSnapshotPath, "snapshot file")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: conveyor drift snapshot [flags]")
			}
			logger := cli.NewCommandLogger().With("command", "drift/snapshot")

			ignoreDirs, tag, err := loadSettings(projectPath)
			if err != nil {
				return err
			}

			snapshot, err := libdrift.Take(".", ignoreDirs)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", filepath.Dir(outputPath), err)
			}
			if err := libdrift.WriteSnapshot(outputPath, snapshot, tag); err != nil {
				return err
			}

			logger.Info("snapshot written",
				"path", outputPath,
				"files", len(snapshot.Files),
				"tree", libdrift.FormatHash(snapshot.TreeHash()),
			)
			return nil
		},
	}
}
