// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// Runner executes tasks from a taskfile against a repository root.
type Runner struct {
	file *File
	root string

	// Stdout and Stderr receive command output. Default to the
	// process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner returns a Runner for the given taskfile and repository
// root directory.
func NewRunner(file *File, root string) *Runner {
	return &Runner{
		file:   file,
		root:   root,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run executes the named task's commands in order via /bin/sh -c.
// The first failing command stops the task; the error names the task
// and the command index. A missing task is an error, not a no-op —
// the workflow invoking a task that was renamed away must fail loudly.
func (r *Runner) Run(ctx context.Context, name string) error {
	task, ok := r.file.Get(name)
	if !ok {
		return fmt.Errorf("no task named %q in taskfile", name)
	}

	directory := r.root
	if task.Cwd != "" {
		directory = filepath.Join(r.root, task.Cwd)
	}

	environment := os.Environ()
	for key, value := range task.Env {
		environment = append(environment, key+"="+value)
	}

	for index, line := range task.Exec {
		command := exec.CommandContext(ctx, "/bin/sh", "-c", line)
		command.Dir = directory
		command.Env = environment
		command.Stdout = r.Stdout
		command.Stderr = r.Stderr

		if err := command.Run(); err != nil {
			return fmt.Errorf("task %q: exec[%d] %q: %w", name, index, line, err)
		}
	}

	return nil
}
