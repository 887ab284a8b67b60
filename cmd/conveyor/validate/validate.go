// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package validate implements the "conveyor validate" command: local
// structural checks over the project configuration and taskfile.
package validate

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/conveyor-ci/conveyor/cmd/conveyor/cli"
	"github.com/conveyor-ci/conveyor/cmd/conveyor/synth"
	"github.com/conveyor-ci/conveyor/lib/project"
	"github.com/conveyor-ci/conveyor/lib/task"
)

// Command returns the "validate" command.
func Command() *cli.Command {
	var projectPath string
	var taskfilePath string
	var asJSON bool

	return &cli.Command{
		Name:    "validate",
		Summary: "Validate the project configuration and taskfile",
		Description: `Validate the project configuration and taskfile, then dry-run the
workflow synthesis to catch construction errors (missing repository,
unknown build task, malformed jobs).

Purely local — no file is written and no hosting service is contacted.

Both files use JSONC: JSON extended with // line comments,
/* block comments */, and trailing commas.`,
		Usage: "conveyor validate [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("validate", pflag.ContinueOnError)
			flagSet.StringVar(&projectPath, "project", project.DefaultFileName, "project configuration file")
			flagSet.StringVar(&taskfilePath, "taskfile", task.DefaultFileName, "taskfile")
			flagSet.BoolVar(&asJSON, "json", false, "output issues as JSON")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Validate the current project",
				Command:     "conveyor validate",
			},
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: conveyor validate [flags]")
			}

			var issues []string

			config, err := project.ReadFile(projectPath)
			if err != nil {
				return err
			}
			for _, issue := range config.Validate() {
				issues = append(issues, fmt.Sprintf("%s: %s", projectPath, issue))
			}

			taskfile, err := task.ReadFile(taskfilePath)
			if err != nil {
				return err
			}
			for _, issue := range taskfile.Validate() {
				issues = append(issues, fmt.Sprintf("%s: %s", taskfilePath, issue))
			}

			// Cross-file check: the configured build task must exist.
			buildTask := config.BuildTask
			if buildTask == "" {
				buildTask = project.DefaultBuildTask
			}
			if _, ok := taskfile.Get(buildTask); !ok {
				issues = append(issues, fmt.Sprintf(
					"%s: build task %q not found in %s", projectPath, buildTask, taskfilePath))
			}

			// Dry-run the synthesis only when the inputs are clean; a
			// malformed config would just fail construction twice.
			if len(issues) == 0 {
				if _, err := synth.Render(config); err != nil {
					issues = append(issues, fmt.Sprintf("workflow synthesis: %v", err))
				}
			}

			if asJSON {
				if err := cli.WriteJSON(issues); err != nil {
					return err
				}
				if len(issues) > 0 {
					return &cli.ExitError{Code: 1}
				}
				return nil
			}

			if len(issues) > 0 {
				for _, issue := range issues {
					fmt.Fprintf(os.Stderr, "  - %s\n", issue)
				}
				return fmt.Errorf("%d validation issue(s) found", len(issues))
			}

			fmt.Fprintf(os.Stdout, "%s, %s: valid\n", projectPath, taskfilePath)
			return nil
		},
	}
}
