// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import "github.com/conveyor-ci/conveyor/lib/expr"

// PermissionLevel is the access level for a single permission scope.
type PermissionLevel string

const (
	// PermissionNone grants no access. The zero value — jobs that do
	// not ask for a scope do not get it.
	PermissionNone PermissionLevel = ""

	// PermissionRead grants read access.
	PermissionRead PermissionLevel = "read"

	// PermissionWrite grants write access. Only the self-mutation job
	// should ever hold contents:write.
	PermissionWrite PermissionLevel = "write"
)

// Permissions is the capability set granted to a job's default
// credential. The zero value grants nothing, which renders as an
// explicit empty permissions block so the executor does not fall back
// to its permissive repository default.
type Permissions struct {
	// Contents controls repository content access (checkout needs
	// read, push needs write).
	Contents PermissionLevel
}

// Step is a single execution unit within a job. Exactly one of Uses
// (a named external action invocation) or Run (an inline command)
// must be set.
type Step struct {
	// ID identifies the step for output references
	// (steps.<id>.outputs.<field>). Required when the step is the
	// source of a job output, optional otherwise.
	ID string

	// Name is the display name shown by the executor. Optional.
	Name string

	// If gates the step. A zero condition means the step always runs
	// (subject to earlier step outcomes).
	If expr.Expr

	// Uses references an external action (e.g. "actions/checkout@v4").
	// Mutually exclusive with Run.
	Uses string

	// With holds parameters for Uses. Keys are rendered in sorted
	// order for deterministic output.
	With map[string]string

	// Run is an inline shell command. Multi-line strings render as a
	// YAML literal block. Mutually exclusive with Uses.
	Run string

	// Env sets additional environment variables for this step only.
	Env map[string]string

	// WorkingDirectory sets the directory Run executes in. Only
	// meaningful with Run.
	WorkingDirectory string
}

// Output declares a job output sourced from a step output. Downstream
// jobs reference it as needs.<job>.outputs.<name>; the value is
// unknown until the producing step has run.
type Output struct {
	// StepID is the id of the producing step within the same job.
	StepID string

	// Field is the output field name written by that step.
	Field string
}

// Job is a single node in the workflow graph: an id, the jobs it
// depends on, a run condition, a minimal permission set, and an
// ordered step list. Jobs are declarative — the external executor
// schedules them, running independent jobs in parallel and honoring
// Needs edges.
type Job struct {
	// ID is the unique job identifier within the workflow.
	ID string

	// Name is the display name. Optional; the executor falls back to
	// the id.
	Name string

	// RunsOn selects the execution target. When empty, the workflow
	// default ("ubuntu-latest") is used at render time.
	RunsOn []string

	// ContainerImage runs the job's steps inside the given container
	// image. Optional.
	ContainerImage string

	// Needs lists ids of jobs that must complete before this job
	// becomes runnable. Every id must already be registered in the
	// workflow when the job is added — this ordering rule is what
	// keeps the graph acyclic by construction.
	Needs []string

	// If gates the job. Evaluated by the executor once all Needs have
	// completed; a zero condition means "always run".
	If expr.Expr

	// Permissions is the job's credential capability set. The zero
	// value grants nothing.
	Permissions Permissions

	// Env sets environment variables for all steps in the job.
	Env map[string]string

	// Steps is the ordered step list. At least one step is required.
	Steps []Step

	// Outputs maps output names to their producing step outputs.
	Outputs map[string]Output
}
