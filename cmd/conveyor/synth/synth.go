// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package synth implements the "conveyor synth" command: render the
// project's build workflow to the workflows directory.
package synth

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/conveyor-ci/conveyor/cmd/conveyor/cli"
	"github.com/conveyor-ci/conveyor/lib/buildflow"
	"github.com/conveyor-ci/conveyor/lib/project"
	"github.com/conveyor-ci/conveyor/lib/task"
)

// Command returns the "synth" command.
func Command() *cli.Command {
	var projectPath string
	var taskfilePath string
	var outputPath string
	var check bool

	return &cli.Command{
		Name:    "synth",
		Summary: "Render the build workflow file",
		Description: `Render the project's build workflow and write it to the workflows
directory (.github/workflows by default).

The workflow contains the build job plus the drift policy jobs derived
from the project configuration: anti-tamper when builds are immutable,
self-mutation when mutable_build is set. The build task must exist in
the taskfile; the workflow invokes it as "conveyor tasks run <task>".

Rendering is deterministic: synthesizing twice from the same
configuration produces byte-identical output, so the workflow file
itself never shows up as drift.`,
		Usage: "conveyor synth [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("synth", pflag.ContinueOnError)
			flagSet.StringVar(&projectPath, "project", project.DefaultFileName, "project configuration file")
			flagSet.StringVar(&taskfilePath, "taskfile", task.DefaultFileName, "taskfile")
			flagSet.StringVar(&outputPath, "output", "", "write the workflow here instead of the configured directory")
			flagSet.BoolVar(&check, "check", false, "verify the checked-in workflow file is current; do not write")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Write .github/workflows/build.yml",
				Command:     "conveyor synth",
			},
			{
				Description: "Fail if the checked-in workflow is stale",
				Command:     "conveyor synth --check",
			},
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: conveyor synth [flags]")
			}
			logger := cli.NewCommandLogger().With("command", "synth")

			config, err := project.ReadFile(projectPath)
			if err != nil {
				return err
			}

			taskfile, err := task.ReadFile(taskfilePath)
			if err != nil {
				return err
			}
			buildTask := config.BuildTask
			if buildTask == "" {
				buildTask = project.DefaultBuildTask
			}
			if _, ok := taskfile.Get(buildTask); !ok {
				return fmt.Errorf("%s: build task %q not found in %s", projectPath, buildTask, taskfilePath)
			}

			rendered, err := Render(config)
			if err != nil {
				return err
			}

			target := outputPath
			if target == "" {
				applied := *config
				applied.ApplyDefaults()
				target = filepath.Join(applied.WorkflowsDirectory, applied.WorkflowName+".yml")
			}

			if check {
				existing, readErr := os.ReadFile(target)
				if readErr != nil {
					return fmt.Errorf("reading %s: %w (run \"conveyor synth\" to create it)", target, readErr)
				}
				if !bytes.Equal(existing, rendered) {
					fmt.Fprintf(os.Stderr, "%s is stale: run \"conveyor synth\" and commit the result\n", target)
					return &cli.ExitError{Code: 1}
				}
				fmt.Fprintf(os.Stdout, "%s is current\n", target)
				return nil
			}

			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
			}
			if err := os.WriteFile(target, rendered, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", target, err)
			}

			logger.Info("workflow written", "path", target, "bytes", len(rendered))
			return nil
		},
	}
}

// Render builds and renders the workflow for a project configuration.
// Shared with "conveyor validate", which renders without writing.
func Render(config *project.Content) ([]byte, error) {
	flow, err := buildflow.New(config)
	if err != nil {
		return nil, err
	}
	graph, err := flow.Finalize()
	if err != nil {
		return nil, err
	}
	return graph.Render()
}
