// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "conveyor",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(args []string) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "synth",
				Run: func(args []string) error {
					called = "synth"
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"synth"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "synth" {
		t.Errorf("dispatched to %q, want %q", called, "synth")
	}
}

func TestCommand_Execute_NestedSubcommands(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "conveyor",
		Subcommands: []*Command{
			{
				Name: "drift",
				Subcommands: []*Command{
					{
						Name: "check",
						Run: func(args []string) error {
							called = "drift check"
							receivedArgs = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute([]string{"drift", "check", "extra-arg"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "drift check" {
		t.Errorf("dispatched to %q, want %q", called, "drift check")
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "extra-arg" {
		t.Errorf("args = %v, want [extra-arg]", receivedArgs)
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var outputPath string
	var target string

	command := &Command{
		Name: "synth",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("synth", pflag.ContinueOnError)
			flagSet.StringVar(&outputPath, "output", "", "output path")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				target = args[0]
			}
			return nil
		},
	}

	if err := command.Execute([]string{"--output", "build.yml", "."}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if outputPath != "build.yml" {
		t.Errorf("outputPath = %q, want %q", outputPath, "build.yml")
	}
	if target != "." {
		t.Errorf("target = %q, want %q", target, ".")
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "synth",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("synth", pflag.ContinueOnError)
			flagSet.Bool("check", false, "verify without writing")
			flagSet.String("output", "", "output path")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--chekc"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "did you mean --check") {
		t.Errorf("error = %q, want suggestion for '--check'", errStr)
	}
	// Suggestion should be on the same line as the error, not buried.
	if !strings.Contains(errStr, "chekc") {
		t.Errorf("error = %q, should mention the bad flag", errStr)
	}
	// Should include a pointer to --help.
	if !strings.Contains(errStr, "--help") {
		t.Errorf("error = %q, should point to --help", errStr)
	}
}

func TestCommand_Execute_UnknownFlagNoSuggestion(t *testing.T) {
	command := &Command{
		Name: "synth",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("synth", pflag.ContinueOnError)
			flagSet.Bool("check", false, "verify without writing")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--zzzzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not suggest for distant flag", err.Error())
	}
	if !strings.Contains(err.Error(), "--help") {
		t.Errorf("error = %q, should point to --help", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "conveyor",
		Subcommands: []*Command{
			{Name: "synth"},
			{Name: "validate"},
			{Name: "version"},
		},
	}

	err := root.Execute([]string{"validte"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), "did you mean \"validate\"") {
		t.Errorf("error = %q, want suggestion for 'validate'", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandNoSuggestion(t *testing.T) {
	root := &Command{
		Name: "conveyor",
		Subcommands: []*Command{
			{Name: "synth"},
			{Name: "validate"},
		},
	}

	err := root.Execute([]string{"zzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not contain suggestion for distant input", err.Error())
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	for _, helpArg := range []string{"-h", "--help", "help"} {
		t.Run(helpArg, func(t *testing.T) {
			root := &Command{
				Name:    "conveyor",
				Summary: "CI workflow synthesizer",
				Subcommands: []*Command{
					{Name: "synth", Summary: "Render the build workflow"},
				},
			}

			err := root.Execute([]string{helpArg})
			if err != nil {
				t.Errorf("Execute(%q) error: %v", helpArg, err)
			}
		})
	}
}

func TestCommand_Execute_NoArgsShowsHelp(t *testing.T) {
	root := &Command{
		Name: "conveyor",
		Subcommands: []*Command{
			{Name: "synth", Summary: "Render the build workflow"},
		},
	}

	err := root.Execute([]string{})
	if err == nil {
		t.Fatal("Execute() = nil, want error for missing subcommand")
	}
	if !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %q, want 'subcommand required'", err.Error())
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	command := &Command{
		Name:        "conveyor",
		Description: "CI build workflow synthesizer.",
		Subcommands: []*Command{
			{Name: "synth", Summary: "Render the build workflow"},
			{Name: "drift", Summary: "Local drift detection"},
			{Name: "version", Summary: "Print version information"},
		},
		Examples: []Example{
			{
				Description: "Write the workflow file",
				Command:     "conveyor synth",
			},
			{
				Description: "Check for build-produced drift",
				Command:     "conveyor drift check",
			},
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	// Verify structural elements are present.
	for _, want := range []string{
		"CI build workflow synthesizer.",
		"Usage:",
		"conveyor <command> [flags]",
		"Commands:",
		"synth",
		"Render the build workflow",
		"drift",
		"Local drift detection",
		"Examples:",
		"conveyor synth",
		"conveyor drift check",
		"Run 'conveyor <command> --help'",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_PrintHelp_WithFlags(t *testing.T) {
	command := &Command{
		Name:    "synth",
		Summary: "Render the build workflow",
		Usage:   "conveyor synth [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("synth", pflag.ContinueOnError)
			flagSet.String("output", "", "write the workflow to this path")
			flagSet.Bool("check", false, "verify the checked-in file is current")
			return flagSet
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"conveyor synth [flags]",
		"Flags:",
		"output",
		"check",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_FullName(t *testing.T) {
	root := &Command{Name: "conveyor"}
	drift := &Command{Name: "drift", parent: root}
	check := &Command{Name: "check", parent: drift}

	if got := root.fullName(); got != "conveyor" {
		t.Errorf("root.fullName() = %q, want %q", got, "conveyor")
	}
	if got := drift.fullName(); got != "conveyor drift" {
		t.Errorf("drift.fullName() = %q, want %q", got, "conveyor drift")
	}
	if got := check.fullName(); got != "conveyor drift check" {
		t.Errorf("check.fullName() = %q, want %q", got, "conveyor drift check")
	}
}
