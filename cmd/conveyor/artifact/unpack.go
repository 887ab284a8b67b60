// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/conveyor-ci/conveyor/cmd/conveyor/cli"
	libartifact "github.com/conveyor-ci/conveyor/lib/artifact"
)

// unpackCommand returns the "unpack" subcommand.
func unpackCommand() *cli.Command {
	var archivePath string
	var destination string

	return &cli.Command{
		Name:    "unpack",
		Summary: "Extract a packed build artifact",
		Description: `Extract an archive produced by "conveyor artifact pack" into the
destination directory, creating it if needed. Entries are confined to
the destination; a malformed archive whose entries would escape it is
rejected.`,
		Usage: "conveyor artifact unpack [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("unpack", pflag.ContinueOnError)
			flagSet.StringVar(&archivePath, "archive", defaultArchivePath, "archive file to read")
			flagSet.StringVar(&destination, "dest", "", "destination directory (required)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: conveyor artifact unpack [flags]")
			}
			if destination == "" {
				return fmt.Errorf("--dest is required")
			}
			logger := cli.NewCommandLogger().With("command", "artifact/unpack")

			if err := libartifact.Unpack(archivePath, destination); err != nil {
				return err
			}

			logger.Info("artifact unpacked", "path", archivePath, "dest", destination)
			return nil
		},
	}
}
