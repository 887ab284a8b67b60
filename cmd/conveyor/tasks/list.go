// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package tasks

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/conveyor-ci/conveyor/cmd/conveyor/cli"
	"github.com/conveyor-ci/conveyor/lib/task"
)

// listCommand returns the "list" subcommand.
func listCommand() *cli.Command {
	var taskfilePath string
	var asJSON bool

	return &cli.Command{
		Name:    "list",
		Summary: "List tasks from the taskfile",
		Usage:   "conveyor tasks list [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flagSet.StringVar(&taskfilePath, "taskfile", task.DefaultFileName, "taskfile")
			flagSet.BoolVar(&asJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: conveyor tasks list [flags]")
			}

			file, err := task.ReadFile(taskfilePath)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(file.Tasks))
			for name := range file.Tasks {
				names = append(names, name)
			}
			sort.Strings(names)

			if asJSON {
				type entry struct {
					Name        string `json:"name"`
					Description string `json:"description,omitempty"`
					Commands    int    `json:"commands"`
				}
				entries := make([]entry, 0, len(names))
				for _, name := range names {
					t := file.Tasks[name]
					entries = append(entries, entry{
						Name:        name,
						Description: t.Description,
						Commands:    len(t.Exec),
					})
				}
				return cli.WriteJSON(entries)
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			for _, name := range names {
				fmt.Fprintf(tw, "%s\t%s\n", name, file.Tasks[name].Description)
			}
			return tw.Flush()
		},
	}
}
