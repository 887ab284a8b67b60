// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package tasks

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/conveyor-ci/conveyor/cmd/conveyor/cli"
	"github.com/conveyor-ci/conveyor/lib/task"
)

// runCommand returns the "run" subcommand.
func runCommand() *cli.Command {
	var taskfilePath string

	return &cli.Command{
		Name:    "run",
		Summary: "Run a task",
		Description: `Run a named task from the taskfile. The task's commands execute in
order via /bin/sh -c; a failing command stops the task and the command
exits non-zero.

Interrupting (Ctrl-C) cancels the running command.`,
		Usage: "conveyor tasks run <task> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			flagSet.StringVar(&taskfilePath, "taskfile", task.DefaultFileName, "taskfile")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Run the build task",
				Command:     "conveyor tasks run build",
			},
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: conveyor tasks run <task>")
			}
			name := args[0]
			logger := cli.NewCommandLogger().With("command", "tasks/run", "task", name)

			file, err := task.ReadFile(taskfilePath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner := task.NewRunner(file, ".")
			if err := runner.Run(ctx, name); err != nil {
				return err
			}

			logger.Info("task complete", "task", name)
			return nil
		},
	}
}
