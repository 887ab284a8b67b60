// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package drift

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/conveyor-ci/conveyor/cmd/conveyor/cli"
	libdrift "github.com/conveyor-ci/conveyor/lib/drift"
	"github.com/conveyor-ci/conveyor/lib/git"
	"github.com/conveyor-ci/conveyor/lib/project"
)

// patchCommand returns the "patch" subcommand.
func patchCommand() *cli.Command {
	var projectPath string
	var outputPath string
	var applyPath string

	return &cli.Command{
		Name:    "patch",
		Summary: "Capture or apply a drift patch",
		Description: `Capture the working tree's uncommitted changes (including untracked
files) as a compressed binary patch, or apply a previously captured
patch with --apply.

This is the local equivalent of the patch the build job uploads on
drift: capture after "conveyor drift check" reports drift, apply on a
clean checkout to reproduce the fix without re-running the build.`,
		Usage: "conveyor drift patch [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("patch", pflag.ContinueOnError)
			flagSet.StringVar(&projectPath, "project", project.DefaultFileName, "project configuration file")
			flagSet.StringVar(&outputPath, "output", defaultPatchPath, "patch file to write")
			flagSet.StringVar(&applyPath, "apply", "", "apply this patch file instead of capturing")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Capture the current drift",
				Command:     "conveyor drift patch",
			},
			{
				Description: "Apply a captured patch on a clean checkout",
				Command:     "conveyor drift patch --apply .conveyor/repo.patch",
			},
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: conveyor drift patch [flags]")
			}
			ctx := context.Background()
			logger := cli.NewCommandLogger().With("command", "drift/patch")
			repository := git.NewRepository(".")

			if applyPath != "" {
				patch, err := libdrift.ReadPatch(applyPath)
				if err != nil {
					return err
				}
				if len(patch) == 0 {
					fmt.Fprintln(os.Stdout, "empty patch: nothing to apply")
					return nil
				}
				if err := repository.ApplyPatch(ctx, patch); err != nil {
					return err
				}
				logger.Info("patch applied", "path", applyPath, "bytes", len(patch))
				return nil
			}

			_, tag, err := loadSettings(projectPath)
			if err != nil {
				return err
			}

			patch, err := repository.StagedPatch(ctx)
			if err != nil {
				return err
			}
			if len(patch) == 0 {
				fmt.Fprintln(os.Stdout, "clean tree: no patch to capture")
				return nil
			}

			if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", filepath.Dir(outputPath), err)
			}
			usedTag, err := libdrift.WritePatch(outputPath, patch, tag)
			if err != nil {
				return err
			}

			logger.Info("patch written",
				"path", outputPath,
				"bytes", len(patch),
				"compression", usedTag.String(),
			)
			return nil
		},
	}
}
