// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package buildflow

import (
	"fmt"

	"github.com/conveyor-ci/conveyor/lib/expr"
	"github.com/conveyor-ci/conveyor/lib/task"
	"github.com/conveyor-ci/conveyor/lib/workflow"
)

// Context expressions resolved by the executor at run time. The head
// ref/repository pair makes the checkout follow the triggering change
// even when it comes from a fork.
const (
	headRefContext        = "${{ github.event.pull_request.head.ref }}"
	headRepositoryContext = "${{ github.event.pull_request.head.repo.full_name }}"
	runnerTempContext     = "${{ runner.temp }}"
)

// buildJob assembles the root job: checkout, pre-build steps, the
// build task, post-build steps, drift detection, and the conditional
// artifact uploads. Called once, from Finalize, after all caller
// contributions are in.
func (b *BuildWorkflow) buildJob() *workflow.Job {
	steps := []workflow.Step{checkoutStep(nil)}
	steps = append(steps, b.preBuildSteps...)
	steps = append(steps, workflow.Step{
		Name: b.config.BuildTask,
		Run:  task.Command(b.config.BuildTask),
	})
	steps = append(steps, b.postBuildSteps...)

	// The diff step never fails: a non-zero diff becomes the
	// diff_exists output instead, so downstream jobs can apply policy
	// to it. A failing build task, by contrast, stops the job before
	// this step and nothing downstream runs.
	steps = append(steps, workflow.Step{
		ID:   diffStepID,
		Name: "Detect drift",
		Run: "git add -A\n" +
			"git diff --staged --binary --exit-code > " + PatchArtifactName +
			" || echo \"" + DiffOutputName + "=true\" >> \"$GITHUB_OUTPUT\"",
	})

	steps = append(steps, workflow.Step{
		Name: "Upload patch",
		If:   expr.StepOutputTrue(diffStepID, DiffOutputName),
		Uses: "actions/upload-artifact@v4",
		With: map[string]string{
			"name":      PatchArtifactName,
			"path":      PatchArtifactName,
			"overwrite": "true",
		},
	})

	// The build artifact exists solely for post-build jobs, and those
	// skip on drift, so upload only a clean build's output.
	if b.config.ArtifactsDirectory != "" && len(b.postBuildJobs) > 0 {
		steps = append(steps, workflow.Step{
			Name: "Upload build artifact",
			If:   expr.Not(expr.StepOutputTrue(diffStepID, DiffOutputName)),
			Uses: "actions/upload-artifact@v4",
			With: map[string]string{
				"name": BuildArtifactName,
				"path": b.config.ArtifactsDirectory,
			},
		})
	}

	return &workflow.Job{
		ID:             BuildJobID,
		Name:           "build",
		ContainerImage: b.config.ContainerImage,
		Permissions:    workflow.Permissions{Contents: workflow.PermissionRead},
		Env:            b.config.Env,
		Steps:          steps,
		Outputs: map[string]workflow.Output{
			DiffOutputName: {StepID: diffStepID, Field: DiffOutputName},
		},
	}
}

// antiTamperJob assembles the guard that fails the pipeline on drift.
// It checks out the triggering ref fresh rather than reusing any state
// from the build job: the guard sits on a trust boundary and must not
// inherit a tree the build (or a malicious step) may have altered
// beyond the captured patch.
func (b *BuildWorkflow) antiTamperJob() *workflow.Job {
	condition := diffCondition()
	if b.config.OnlyForksAntiTamper {
		condition = expr.And(condition, expr.IsFork())
	}

	return &workflow.Job{
		ID:          AntiTamperJobID,
		Name:        "anti-tamper",
		Needs:       []string{BuildJobID},
		If:          condition,
		Permissions: workflow.Permissions{Contents: workflow.PermissionRead},
		Steps: []workflow.Step{
			checkoutStep(nil),
			downloadPatchStep(),
			{
				Name: "Apply drift patch",
				Run:  fmt.Sprintf("git apply --binary \"$RUNNER_TEMP/%s\"", PatchArtifactName),
			},
			{
				// Applying a non-empty patch dirties the tree, so the
				// staged diff is non-empty and --exit-code fails the
				// job, printing the drift the contributor must commit.
				Name: "Fail on drift",
				Run:  "git add -A\ngit diff --staged --exit-code",
			},
		},
	}
}

// selfMutationJob assembles the job that pushes drift back to the
// source branch. It is the only job holding contents:write and the
// only place the mutation token secret is referenced; push failure is
// fatal with no retry — the recovery is a fresh pipeline run.
func (b *BuildWorkflow) selfMutationJob() *workflow.Job {
	operands := []expr.Expr{
		diffCondition(),
		expr.Not(expr.IsFork()),
	}
	if b.config.AutoApproveLabel != "" {
		// An auto-approved change is merged without further review;
		// mutating it after approval would land an unreviewed commit.
		operands = append(operands, expr.Not(expr.HasLabel(b.config.AutoApproveLabel)))
	}

	pushCommands := fmt.Sprintf(
		"git apply --binary \"$RUNNER_TEMP/%s\"\n"+
			"git add -A\n"+
			"git -c user.name=%q -c user.email=%q commit -m %q\n"+
			"git push origin HEAD:%s",
		PatchArtifactName,
		b.config.Git.Name, b.config.Git.Email, MutationCommitMessage,
		headRefContext,
	)

	return &workflow.Job{
		ID:          SelfMutationJobID,
		Name:        "self-mutation",
		Needs:       []string{BuildJobID},
		If:          expr.And(operands...),
		Permissions: workflow.Permissions{Contents: workflow.PermissionWrite},
		Steps: []workflow.Step{
			checkoutStep(map[string]string{
				"token": fmt.Sprintf("${{ secrets.%s }}", b.config.MutationTokenSecret),
			}),
			downloadPatchStep(),
			{
				Name: "Apply patch and push",
				Run:  pushCommands,
			},
		},
	}
}

// decoratePostBuildJob wires a caller-supplied job into the pipeline:
// it gains a dependency on the build job and a condition that skips it
// on drift. On drift, either a human fix is pending (anti-tamper) or a
// mutation push is about to trigger a fresh run (self-mutation);
// either way this run's results are stale, so the work is skipped
// rather than discarded later. When the project declares an artifacts
// directory, the build output download is prepended to the steps.
func (b *BuildWorkflow) decoratePostBuildJob(job *workflow.Job) {
	hasBuildDependency := false
	for _, need := range job.Needs {
		if need == BuildJobID {
			hasBuildDependency = true
			break
		}
	}
	if !hasBuildDependency {
		job.Needs = append([]string{BuildJobID}, job.Needs...)
	}

	noDrift := expr.Not(diffCondition())
	if job.If.IsZero() {
		job.If = noDrift
	} else {
		job.If = expr.And(noDrift, job.If)
	}

	if b.config.ArtifactsDirectory != "" {
		download := workflow.Step{
			Name: "Download build artifact",
			Uses: "actions/download-artifact@v4",
			With: map[string]string{
				"name": BuildArtifactName,
				"path": b.config.ArtifactsDirectory,
			},
		}
		job.Steps = append([]workflow.Step{download}, job.Steps...)
	}
}

// checkoutStep checks out the triggering ref from the triggering
// repository, so fork-originated changes check out the fork's tree.
// Credentials are not persisted: only the self-mutation job, which
// passes its token through extraWith, may leave a usable credential in
// the work tree.
func checkoutStep(extraWith map[string]string) workflow.Step {
	with := map[string]string{
		"ref":                 headRefContext,
		"repository":          headRepositoryContext,
		"persist-credentials": "false",
	}
	for key, value := range extraWith {
		with[key] = value
		if key == "token" {
			// Pushing from the work tree needs the credential to
			// survive the checkout step.
			with["persist-credentials"] = "true"
		}
	}
	return workflow.Step{
		Name: "Checkout",
		Uses: "actions/checkout@v4",
		With: with,
	}
}

// downloadPatchStep retrieves the drift patch the build job uploaded.
// The patch lands in the runner's temporary directory, outside the
// work tree, so it never shows up as drift itself.
func downloadPatchStep() workflow.Step {
	return workflow.Step{
		Name: "Download patch",
		Uses: "actions/download-artifact@v4",
		With: map[string]string{
			"name": PatchArtifactName,
			"path": runnerTempContext,
		},
	}
}
