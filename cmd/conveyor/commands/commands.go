// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete Conveyor CLI command tree.
package commands

import (
	"fmt"

	artifactcmd "github.com/conveyor-ci/conveyor/cmd/conveyor/artifact"
	"github.com/conveyor-ci/conveyor/cmd/conveyor/cli"
	driftcmd "github.com/conveyor-ci/conveyor/cmd/conveyor/drift"
	synthcmd "github.com/conveyor-ci/conveyor/cmd/conveyor/synth"
	taskscmd "github.com/conveyor-ci/conveyor/cmd/conveyor/tasks"
	validatecmd "github.com/conveyor-ci/conveyor/cmd/conveyor/validate"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// Root builds and returns the complete Conveyor CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "conveyor",
		Description: `Conveyor: CI build workflow synthesizer.

Generate the build pipeline for a hosted repository and enforce a
safe-mutation policy over build-produced drift: fail on it
(anti-tamper), push it back (self-mutation), or proceed only when the
build is clean (post-build jobs).`,
		Subcommands: []*cli.Command{
			synthcmd.Command(),
			validatecmd.Command(),
			driftcmd.Command(),
			artifactcmd.Command(),
			taskscmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("conveyor %s\n", version)
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Render the build workflow file",
				Command:     "conveyor synth",
			},
			{
				Description: "Validate the project configuration",
				Command:     "conveyor validate",
			},
			{
				Description: "Check for build-produced drift locally",
				Command:     "conveyor drift check",
			},
		},
	}
}
