// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package task provides the task-execution abstraction: named build
// tasks resolved to runnable shell commands.
//
// Tasks are authored in conveyor.tasks.jsonc (JSONC, same format as
// the project file). The synthesized workflow never embeds a task's
// commands — it invokes "conveyor tasks run <name>", so the workflow
// file stays stable while task contents evolve. The same runner is
// used locally by the drift commands to reproduce the build.
package task

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/tidwall/jsonc"
)

// FileVersion is the current schema version for File.
const FileVersion = 1

// DefaultFileName is the taskfile name looked up at the repository
// root.
const DefaultFileName = "conveyor.tasks.jsonc"

// taskNamePattern matches valid task names. Colons separate
// namespaces (e.g. "test:integration").
var taskNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*(:[A-Za-z0-9_-]+)*$`)

// File is a parsed taskfile: a named collection of tasks.
type File struct {
	// Version is the schema version (see FileVersion).
	Version int `json:"version"`

	// Tasks maps task names to definitions.
	Tasks map[string]Task `json:"tasks"`
}

// Task is a named sequence of shell commands.
type Task struct {
	// Description is a human-readable summary shown by
	// "conveyor tasks list".
	Description string `json:"description,omitempty"`

	// Exec is the ordered list of shell commands, each run via
	// /bin/sh -c. A failing command stops the task.
	Exec []string `json:"exec"`

	// Env sets additional environment variables for every command in
	// this task, merged over the process environment.
	Env map[string]string `json:"env,omitempty"`

	// Cwd is the working directory for the task's commands, relative
	// to the repository root. Empty means the repository root itself.
	Cwd string `json:"cwd,omitempty"`
}

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into a File.
func Parse(data []byte) (*File, error) {
	stripped := jsonc.ToJSON(data)

	var file File
	if err := json.Unmarshal(stripped, &file); err != nil {
		return nil, fmt.Errorf("parsing taskfile: %w", err)
	}

	return &file, nil
}

// ReadFile reads a JSONC taskfile from disk and parses it.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	file, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return file, nil
}

// Get returns the named task. The boolean reports whether it exists.
func (f *File) Get(name string) (Task, bool) {
	task, ok := f.Tasks[name]
	return task, ok
}

// Command returns the single shell invocation the rendered workflow
// uses to run the named task. The workflow embeds this string, not
// the task's commands, so editing a task does not change the
// workflow file.
func Command(name string) string {
	return "conveyor tasks run " + name
}

// Validate checks the taskfile for structural issues. Returns a list
// of human-readable issue descriptions; an empty list means the
// taskfile is valid.
func (f *File) Validate() []string {
	var issues []string

	if f.Version < 1 {
		issues = append(issues, fmt.Sprintf("version must be >= 1, got %d", f.Version))
	}
	if f.Version > FileVersion {
		issues = append(issues, fmt.Sprintf(
			"version %d is newer than this tool understands (max %d)", f.Version, FileVersion))
	}

	if len(f.Tasks) == 0 {
		issues = append(issues, "taskfile has no tasks (at least one task is required)")
	}

	for name, task := range f.Tasks {
		prefix := fmt.Sprintf("tasks[%q]", name)
		if !taskNamePattern.MatchString(name) {
			issues = append(issues, fmt.Sprintf("%s: task name must be a valid identifier", prefix))
		}
		if len(task.Exec) == 0 {
			issues = append(issues, fmt.Sprintf("%s: exec is required (at least one command)", prefix))
		}
		for index, command := range task.Exec {
			if command == "" {
				issues = append(issues, fmt.Sprintf("%s: exec[%d] is empty", prefix, index))
			}
		}
		for key := range task.Env {
			if key == "" {
				issues = append(issues, fmt.Sprintf("%s: env has an empty variable name", prefix))
			}
		}
	}

	return issues
}
