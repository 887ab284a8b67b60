// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package tasks implements the "conveyor tasks" command group: list
// and run the tasks defined in the project's taskfile. The synthesized
// workflow invokes the build through "conveyor tasks run", so the
// commands here are what executes in CI as well as locally.
package tasks

import (
	"github.com/conveyor-ci/conveyor/cmd/conveyor/cli"
)

// Command returns the "tasks" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "tasks",
		Summary: "List and run project tasks",
		Description: `List and run the tasks defined in the project taskfile
(conveyor.tasks.jsonc).

A task is an ordered list of shell commands with optional environment
variables and a working directory. The build workflow runs the
configured build task through "conveyor tasks run", so CI and local
builds execute exactly the same commands.

Taskfiles use JSONC: JSON extended with // line comments,
/* block comments */, and trailing commas.`,
		Subcommands: []*cli.Command{
			listCommand(),
			runCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "List available tasks",
				Command:     "conveyor tasks list",
			},
			{
				Description: "Run the build task",
				Command:     "conveyor tasks run build",
			},
		},
	}
}
