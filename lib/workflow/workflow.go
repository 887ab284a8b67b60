// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package workflow models the job graph of a CI build pipeline and
// renders it into the GitHub Actions workflow format.
//
// A Workflow is a DAG of Jobs. Registration is ordered: a job may only
// depend on jobs that are already registered, which makes cycles
// impossible to construct. The graph has an explicit two-phase
// lifecycle — jobs are accumulated, then Finalize freezes the set.
// Registration after Finalize is an error, never a silent no-op, so a
// caller that contributes jobs too late finds out at construction
// time rather than by missing jobs in the rendered file.
//
// All validation here is construction-time. The rendered YAML contains
// run-time conditions (job and step `if:` fields) that only the
// external executor can evaluate; this package checks their structure
// (a condition may only reference outputs of jobs the referencing job
// depends on) but never their value.
package workflow

import (
	"fmt"
	"regexp"
)

// jobIDPattern matches valid job and step ids: start with a letter or
// underscore, followed by letters, digits, underscores, or dashes.
var jobIDPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// needsReferencePattern extracts job ids referenced through the needs
// context in a rendered condition. Used to verify that conditions only
// reference outputs of declared dependencies.
var needsReferencePattern = regexp.MustCompile(`needs\.([A-Za-z0-9_-]+)\.outputs`)

// Triggers declares the events that start the workflow.
type Triggers struct {
	// PullRequest triggers on pull request activity.
	PullRequest *PullRequestTrigger

	// Push triggers on branch pushes.
	Push *PushTrigger

	// WorkflowDispatch enables manual runs from the executor's UI.
	WorkflowDispatch *WorkflowDispatchTrigger
}

// PullRequestTrigger configures the pull_request event.
type PullRequestTrigger struct {
	// Branches restricts the trigger to the given base branches. Empty
	// means all branches.
	Branches []string
}

// PushTrigger configures the push event.
type PushTrigger struct {
	// Branches restricts the trigger to the given branches.
	Branches []string
}

// WorkflowDispatchTrigger configures the workflow_dispatch event. It
// has no parameters.
type WorkflowDispatchTrigger struct{}

// DefaultRunsOn is the execution target used for jobs that do not set
// their own.
const DefaultRunsOn = "ubuntu-latest"

// Workflow is the aggregate job graph. It owns all registered Jobs
// and exposes the final id list for downstream consumers. Not safe
// for concurrent use — graph construction is synchronous by design.
type Workflow struct {
	// Name is the workflow display name.
	Name string

	// On declares the triggering events.
	On Triggers

	jobs      []*Job
	index     map[string]*Job
	finalized bool
}

// New creates an empty workflow with the given name and triggers.
func New(name string, on Triggers) *Workflow {
	return &Workflow{
		Name:  name,
		On:    on,
		index: make(map[string]*Job),
	}
}

// AddJob registers a job in the graph. All structural requirements are
// enforced here, immediately: a unique well-formed id, dependencies
// that are already registered, exactly one action per step, and
// conditions that only reference outputs of declared dependencies.
// Returns an error after Finalize has been called.
func (w *Workflow) AddJob(job *Job) error {
	if w.finalized {
		return fmt.Errorf("workflow %q is finalized: job %q registered too late", w.Name, job.ID)
	}

	if !jobIDPattern.MatchString(job.ID) {
		return fmt.Errorf("invalid job id %q", job.ID)
	}
	if _, exists := w.index[job.ID]; exists {
		return fmt.Errorf("duplicate job id %q", job.ID)
	}
	for _, need := range job.Needs {
		if _, exists := w.index[need]; !exists {
			return fmt.Errorf("job %q depends on unregistered job %q", job.ID, need)
		}
	}

	if issues := validateJob(job); len(issues) > 0 {
		return fmt.Errorf("job %q is malformed: %s (and %d more issue(s))",
			job.ID, issues[0], len(issues)-1)
	}

	w.jobs = append(w.jobs, job)
	w.index[job.ID] = job
	return nil
}

// Job returns the registered job with the given id.
func (w *Workflow) Job(id string) (*Job, bool) {
	job, ok := w.index[id]
	return job, ok
}

// JobIDs returns all registered job ids in registration order.
func (w *Workflow) JobIDs() []string {
	ids := make([]string, len(w.jobs))
	for i, job := range w.jobs {
		ids[i] = job.ID
	}
	return ids
}

// Jobs returns the registered jobs in registration order. The slice
// is shared — callers must not mutate it after Finalize.
func (w *Workflow) Jobs() []*Job {
	return w.jobs
}

// Finalized reports whether Finalize has completed.
func (w *Workflow) Finalized() bool {
	return w.finalized
}

// Finalize freezes the job set after a full-graph validation pass.
// AddJob's ordering rule already prevents cycles; the explicit walk
// here re-checks the invariant over the assembled graph so a future
// registration path cannot silently regress it.
func (w *Workflow) Finalize() error {
	if w.finalized {
		return fmt.Errorf("workflow %q already finalized", w.Name)
	}
	if len(w.jobs) == 0 {
		return fmt.Errorf("workflow %q has no jobs", w.Name)
	}

	if err := w.checkAcyclic(); err != nil {
		return err
	}

	w.finalized = true
	return nil
}

// checkAcyclic verifies the dependency graph contains no cycle using
// a depth-first walk with a three-color marking.
func (w *Workflow) checkAcyclic() error {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current path
		black = 2 // fully explored
	)
	colors := make(map[string]int, len(w.jobs))

	var visit func(id string) error
	visit = func(id string) error {
		switch colors[id] {
		case gray:
			return fmt.Errorf("dependency cycle through job %q", id)
		case black:
			return nil
		}
		colors[id] = gray
		for _, need := range w.index[id].Needs {
			if err := visit(need); err != nil {
				return err
			}
		}
		colors[id] = black
		return nil
	}

	for _, job := range w.jobs {
		if err := visit(job.ID); err != nil {
			return err
		}
	}
	return nil
}

// validateJob checks a single job's internal structure. Returns a list
// of human-readable issues; empty means valid.
func validateJob(job *Job) []string {
	var issues []string

	if len(job.Steps) == 0 {
		issues = append(issues, "job has no steps (at least one step is required)")
	}

	stepIDs := make(map[string]int, len(job.Steps))
	for index, step := range job.Steps {
		prefix := fmt.Sprintf("steps[%d]", index)
		if step.ID != "" {
			if firstIndex, exists := stepIDs[step.ID]; exists {
				issues = append(issues, fmt.Sprintf(
					"%s: duplicate step id %q (first used at steps[%d])",
					prefix, step.ID, firstIndex,
				))
			} else {
				stepIDs[step.ID] = index
			}
			if !jobIDPattern.MatchString(step.ID) {
				issues = append(issues, fmt.Sprintf("%s: invalid step id %q", prefix, step.ID))
			}
		}

		hasUses := step.Uses != ""
		hasRun := step.Run != ""
		switch {
		case hasUses && hasRun:
			issues = append(issues, fmt.Sprintf("%s: uses and run are mutually exclusive (set exactly one)", prefix))
		case !hasUses && !hasRun:
			issues = append(issues, fmt.Sprintf("%s: must set exactly one of uses or run", prefix))
		}
		if len(step.With) > 0 && !hasUses {
			issues = append(issues, fmt.Sprintf("%s: with is only valid on uses steps", prefix))
		}
		if step.WorkingDirectory != "" && !hasRun {
			issues = append(issues, fmt.Sprintf("%s: working-directory is only valid on run steps", prefix))
		}
	}

	// Job outputs must be sourced from steps that exist and carry ids.
	for name, output := range job.Outputs {
		if output.StepID == "" || output.Field == "" {
			issues = append(issues, fmt.Sprintf("outputs[%q]: step id and field are required", name))
			continue
		}
		if _, exists := stepIDs[output.StepID]; !exists {
			issues = append(issues, fmt.Sprintf(
				"outputs[%q]: no step with id %q in this job", name, output.StepID))
		}
	}

	// Conditions may only reference outputs of declared dependencies.
	// Referencing a job outside Needs is a structural defect: the
	// referenced output would not be available when the condition is
	// evaluated.
	declared := make(map[string]bool, len(job.Needs))
	for _, need := range job.Needs {
		declared[need] = true
	}
	checkReferences := func(condition, where string) {
		for _, match := range needsReferencePattern.FindAllStringSubmatch(condition, -1) {
			if !declared[match[1]] {
				issues = append(issues, fmt.Sprintf(
					"%s: condition references output of job %q which is not in needs", where, match[1]))
			}
		}
	}
	checkReferences(job.If.String(), "if")
	for index, step := range job.Steps {
		checkReferences(step.If.String(), fmt.Sprintf("steps[%d].if", index))
	}

	return issues
}
