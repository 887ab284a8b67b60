// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package buildflow assembles the build pipeline's job graph and its
// safe-mutation policy.
//
// A BuildWorkflow owns one root build job plus the policy jobs derived
// from the project's mutation configuration:
//
//   - anti-tamper: fails the pipeline when the build changed files,
//     optionally only for fork-originated changes;
//   - self-mutation: pushes the change back to the source branch with
//     an elevated credential, never for forks and never for changes
//     carrying the auto-approve label;
//   - post-build jobs: caller-supplied jobs that run only when the
//     build produced no drift.
//
// Construction is two-phase. Callers contribute pre/post build steps
// and post-build jobs, then Finalize fixes the step lists, assembles
// the jobs into a lib/workflow graph, and freezes it. Contributions
// after Finalize are an error, never a silent no-op.
//
// Nothing here executes. The graph is rendered to a workflow file and
// evaluated by GitHub Actions; the one run-time fact the jobs share is
// the build job's diff_exists output.
package buildflow

import (
	"fmt"

	"github.com/conveyor-ci/conveyor/lib/expr"
	"github.com/conveyor-ci/conveyor/lib/project"
	"github.com/conveyor-ci/conveyor/lib/workflow"
)

// Well-known names in the rendered workflow. The artifact names and
// the diff output are protocol constants shared between the build job
// and its consumers; renaming them orphans in-flight pipeline runs.
const (
	// BuildJobID is the root job's id.
	BuildJobID = "build"

	// AntiTamperJobID is the anti-tamper guard job's id.
	AntiTamperJobID = "anti-tamper"

	// SelfMutationJobID is the self-mutation job's id.
	SelfMutationJobID = "self-mutation"

	// DiffOutputName is the build job output carrying the drift signal.
	// Downstream conditions reference it as
	// needs.build.outputs.diff_exists.
	DiffOutputName = "diff_exists"

	// diffStepID is the build job step that produces DiffOutputName.
	diffStepID = "diff"

	// PatchArtifactName is the uploaded artifact holding the drift
	// patch.
	PatchArtifactName = "repo.patch"

	// BuildArtifactName is the uploaded artifact holding the build
	// output directory for post-build jobs.
	BuildArtifactName = "build-artifact"

	// MutationCommitMessage is the fixed message stamped on
	// self-mutation commits.
	MutationCommitMessage = "chore: self-mutation"
)

// BuildWorkflow accumulates the build pipeline's contents and, at
// Finalize, produces the finished job graph. Not safe for concurrent
// use — synthesis is synchronous.
type BuildWorkflow struct {
	config *project.Content

	preBuildSteps  []workflow.Step
	postBuildSteps []workflow.Step
	postBuildJobs  []*workflow.Job
	postBuildIndex map[string]bool

	finalized bool
	graph     *workflow.Workflow
}

// New creates a BuildWorkflow for the given project configuration.
//
// The configuration must name the hosted repository: the pipeline's
// fork test, checkout steps, and push target are all defined relative
// to it, so its absence is a fatal construction error surfaced here,
// not at render time.
func New(config *project.Content) (*BuildWorkflow, error) {
	if config.Repository == "" {
		return nil, fmt.Errorf("project %q has no repository: a hosted repository (owner/name) is required to build a workflow", config.Name)
	}
	if issues := config.Validate(); len(issues) > 0 {
		return nil, fmt.Errorf("project configuration is invalid: %s (and %d more issue(s))",
			issues[0], len(issues)-1)
	}

	applied := *config
	applied.ApplyDefaults()

	b := &BuildWorkflow{
		config:         &applied,
		postBuildIndex: make(map[string]bool),
	}
	for _, command := range applied.PreBuildCommands {
		b.preBuildSteps = append(b.preBuildSteps, workflow.Step{Run: command})
	}
	for _, command := range applied.PostBuildCommands {
		b.postBuildSteps = append(b.postBuildSteps, workflow.Step{Run: command})
	}
	return b, nil
}

// AddPreBuildSteps appends steps that run after checkout and before
// the build task. Returns an error after Finalize.
func (b *BuildWorkflow) AddPreBuildSteps(steps ...workflow.Step) error {
	if b.finalized {
		return fmt.Errorf("build workflow is finalized: pre-build steps registered too late")
	}
	b.preBuildSteps = append(b.preBuildSteps, steps...)
	return nil
}

// AddPostBuildSteps appends steps that run after the build task and
// before drift detection. Returns an error after Finalize.
func (b *BuildWorkflow) AddPostBuildSteps(steps ...workflow.Step) error {
	if b.finalized {
		return fmt.Errorf("build workflow is finalized: post-build steps registered too late")
	}
	b.postBuildSteps = append(b.postBuildSteps, steps...)
	return nil
}

// AddPostBuildJob registers a job that depends on a clean build. The
// caller supplies the id, permissions, and steps; the dependency on
// the build job and the no-drift condition are wired in at Finalize,
// composed with any condition the caller set. When the project
// declares an artifacts directory, a download step for the build
// artifact is prepended to the job's steps.
//
// Returns an error after Finalize, for the reserved pipeline job ids,
// and for a duplicate id.
func (b *BuildWorkflow) AddPostBuildJob(job *workflow.Job) error {
	if b.finalized {
		return fmt.Errorf("build workflow is finalized: job %q registered too late", job.ID)
	}
	switch job.ID {
	case BuildJobID, AntiTamperJobID, SelfMutationJobID:
		return fmt.Errorf("job id %q is reserved for the pipeline", job.ID)
	}
	if b.postBuildIndex[job.ID] {
		return fmt.Errorf("duplicate post-build job id %q", job.ID)
	}

	b.postBuildJobs = append(b.postBuildJobs, job)
	b.postBuildIndex[job.ID] = true
	return nil
}

// Finalize fixes the accumulated step lists, assembles the complete
// job graph, validates it, and freezes it. The returned workflow is
// finalized and ready to render. Finalize may be called once.
func (b *BuildWorkflow) Finalize() (*workflow.Workflow, error) {
	if b.finalized {
		return nil, fmt.Errorf("build workflow already finalized")
	}

	// Pull request runs exercise the full drift policy. Pushes to the
	// default branch rebuild post-merge, and the manual trigger exists
	// for re-running a pipeline after a mutation push failure.
	// Conditions over the pull_request context evaluate false outside
	// pull request runs, so the policy jobs simply skip there.
	graph := workflow.New(b.config.WorkflowName, workflow.Triggers{
		PullRequest:      &workflow.PullRequestTrigger{},
		Push:             &workflow.PushTrigger{Branches: []string{b.config.DefaultBranch}},
		WorkflowDispatch: &workflow.WorkflowDispatchTrigger{},
	})

	if err := graph.AddJob(b.buildJob()); err != nil {
		return nil, fmt.Errorf("assembling build job: %w", err)
	}
	if b.antiTamperEnabled() {
		if err := graph.AddJob(b.antiTamperJob()); err != nil {
			return nil, fmt.Errorf("assembling anti-tamper job: %w", err)
		}
	}
	if b.config.MutableBuild {
		if err := graph.AddJob(b.selfMutationJob()); err != nil {
			return nil, fmt.Errorf("assembling self-mutation job: %w", err)
		}
	}
	for _, job := range b.postBuildJobs {
		b.decoratePostBuildJob(job)
		if err := graph.AddJob(job); err != nil {
			return nil, fmt.Errorf("assembling post-build job %q: %w", job.ID, err)
		}
	}

	if err := graph.Finalize(); err != nil {
		return nil, err
	}

	b.finalized = true
	b.graph = graph
	return graph, nil
}

// Finalized reports whether Finalize has completed.
func (b *BuildWorkflow) Finalized() bool {
	return b.finalized
}

// BuildJobIDs returns the canonical set of job ids that constitute
// "the build" for downstream consumers (branch protection rules,
// status checks): the build job plus every registered post-build job.
// The guard jobs are policy, not build, and are excluded.
func (b *BuildWorkflow) BuildJobIDs() []string {
	ids := make([]string, 0, 1+len(b.postBuildJobs))
	ids = append(ids, BuildJobID)
	for _, job := range b.postBuildJobs {
		ids = append(ids, job.ID)
	}
	return ids
}

// antiTamperEnabled reports whether the anti-tamper job is part of
// this pipeline. With immutable builds it is the sole drift policy.
// With mutable builds it is added only when the project restricts it
// to forks: self-mutation fixes non-fork drift, and the guard catches
// fork drift that self-mutation must not touch.
func (b *BuildWorkflow) antiTamperEnabled() bool {
	if !b.config.MutableBuild {
		return true
	}
	return b.config.OnlyForksAntiTamper
}

// diffCondition references the build job's drift signal from a
// downstream job.
func diffCondition() expr.Expr {
	return expr.OutputTrue(BuildJobID, DiffOutputName)
}
