// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/conveyor-ci/conveyor/cmd/conveyor/cli"
	libartifact "github.com/conveyor-ci/conveyor/lib/artifact"
	"github.com/conveyor-ci/conveyor/lib/project"
)

// packCommand returns the "pack" subcommand.
func packCommand() *cli.Command {
	var projectPath string
	var directory string
	var outputPath string

	return &cli.Command{
		Name:    "pack",
		Summary: "Archive the build output directory",
		Description: `Archive the project's artifacts directory into a single compressed
file. The directory and compression come from the project
configuration; --dir overrides the directory.

Entries are written in sorted order with fixed metadata, so packing
the same tree twice produces identical archives.`,
		Usage: "conveyor artifact pack [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("pack", pflag.ContinueOnError)
			flagSet.StringVar(&projectPath, "project", project.DefaultFileName, "project configuration file")
			flagSet.StringVar(&directory, "dir", "", "directory to pack (default: the configured artifacts directory)")
			flagSet.StringVar(&outputPath, "output", defaultArchivePath, "archive file to write")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: conveyor artifact pack [flags]")
			}
			logger := cli.NewCommandLogger().With("command", "artifact/pack")

			directory, tag, err := resolvePackSettings(projectPath, directory)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", filepath.Dir(outputPath), err)
			}
			usedTag, err := libartifact.Pack(directory, outputPath, tag)
			if err != nil {
				return err
			}

			logger.Info("artifact packed",
				"dir", directory,
				"path", outputPath,
				"compression", usedTag.String(),
			)
			return nil
		},
	}
}

// resolvePackSettings determines the directory to pack and the
// compression tag. The --dir override works without a project file;
// otherwise the project configuration must name an artifacts
// directory.
func resolvePackSettings(projectPath, override string) (string, libartifact.CompressionTag, error) {
	config, readErr := project.ReadFile(projectPath)
	if readErr != nil {
		if override == "" {
			return "", 0, readErr
		}
		return override, libartifact.CompressionZstd, nil
	}

	tag, err := libartifact.ParseCompressionTag(config.ArtifactCompression)
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", projectPath, err)
	}

	directory := override
	if directory == "" {
		directory = config.ArtifactsDirectory
	}
	if directory == "" {
		return "", 0, fmt.Errorf(
			"%s has no artifacts_directory: set it or pass --dir", projectPath)
	}
	return directory, tag, nil
}
