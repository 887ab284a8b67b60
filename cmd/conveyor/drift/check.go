// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package drift

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/conveyor-ci/conveyor/cmd/conveyor/cli"
	libdrift "github.com/conveyor-ci/conveyor/lib/drift"
	"github.com/conveyor-ci/conveyor/lib/project"
)

// checkCommand returns the "check" subcommand.
func checkCommand() *cli.Command {
	var projectPath string
	var snapshotPath string
	var asJSON bool

	return &cli.Command{
		Name:    "check",
		Summary: "Compare the tree against the last snapshot",
		Description: `Compare the current tree against the snapshot recorded by
"conveyor drift snapshot" and list the paths that changed.

Exits 0 when the tree is clean and 1 when drift is found, matching the
diff_exists signal the synthesized workflow computes remotely. Run the
build between snapshot and check to answer "does the build change
anything?".`,
		Usage: "conveyor drift check [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("check", pflag.ContinueOnError)
			flagSet.StringVar(&projectPath, "project", project.DefaultFileName, "project configuration file")
			flagSet.StringVar(&snapshotPath, "snapshot", defaultSnapshotPath, "snapshot file to compare against")
			flagSet.BoolVar(&asJSON, "json", false, "output the report as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: conveyor drift check [flags]")
			}

			ignoreDirs, _, err := loadSettings(projectPath)
			if err != nil {
				return err
			}

			before, err := libdrift.ReadSnapshot(snapshotPath)
			if err != nil {
				return fmt.Errorf("%w (run \"conveyor drift snapshot\" first)", err)
			}
			after, err := libdrift.Take(".", ignoreDirs)
			if err != nil {
				return err
			}

			report := libdrift.Compare(before, after)

			if asJSON {
				if err := cli.WriteJSON(struct {
					DiffExists bool     `json:"diff_exists"`
					Added      []string `json:"added"`
					Removed    []string `json:"removed"`
					Modified   []string `json:"modified"`
				}{
					DiffExists: !report.Clean(),
					Added:      orEmpty(report.Added),
					Removed:    orEmpty(report.Removed),
					Modified:   orEmpty(report.Modified),
				}); err != nil {
					return err
				}
				if !report.Clean() {
					return &cli.ExitError{Code: 1}
				}
				return nil
			}

			if report.Clean() {
				fmt.Fprintln(os.Stdout, "clean: no drift")
				return nil
			}

			for _, path := range report.Added {
				fmt.Fprintf(os.Stderr, "  added:    %s\n", path)
			}
			for _, path := range report.Removed {
				fmt.Fprintf(os.Stderr, "  removed:  %s\n", path)
			}
			for _, path := range report.Modified {
				fmt.Fprintf(os.Stderr, "  modified: %s\n", path)
			}
			fmt.Fprintf(os.Stderr, "drift: %d path(s) changed\n", len(report.Paths()))
			return &cli.ExitError{Code: 1}
		},
	}
}

func orEmpty(paths []string) []string {
	if paths == nil {
		return []string{}
	}
	return paths
}
