// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/conveyor-ci/conveyor/lib/expr"
)

// buildTestWorkflow assembles a small two-job workflow covering every
// rendered field.
func buildTestWorkflow(t *testing.T) *Workflow {
	t.Helper()

	w := New("build", Triggers{
		PullRequest:      &PullRequestTrigger{},
		WorkflowDispatch: &WorkflowDispatchTrigger{},
	})

	buildJob := &Job{
		ID:          "build",
		Name:        "build",
		Permissions: Permissions{Contents: PermissionRead},
		Env:         map[string]string{"CI": "true", "A_FIRST": "1"},
		Steps: []Step{
			{
				Uses: "actions/checkout@v4",
				With: map[string]string{
					"ref":        "${{ github.event.pull_request.head.ref }}",
					"repository": "${{ github.event.pull_request.head.repo.full_name }}",
				},
			},
			{ID: "diff", Name: "Detect drift", Run: "git add -A\ngit diff --staged --exit-code"},
		},
		Outputs: map[string]Output{
			"diff_exists": {StepID: "diff", Field: "diff_exists"},
		},
	}
	if err := w.AddJob(buildJob); err != nil {
		t.Fatalf("AddJob(build): %v", err)
	}

	verifyJob := &Job{
		ID:             "verify",
		Needs:          []string{"build"},
		If:             expr.Not(expr.OutputTrue("build", "diff_exists")),
		ContainerImage: "golang:1.25",
		Steps: []Step{
			{Run: "make verify", WorkingDirectory: "dist"},
		},
	}
	if err := w.AddJob(verifyJob); err != nil {
		t.Fatalf("AddJob(verify): %v", err)
	}

	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return w
}

func TestRenderStructure(t *testing.T) {
	t.Parallel()

	rendered, err := buildTestWorkflow(t).Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	// The output must be well-formed YAML with the expected shape.
	var decoded struct {
		Name string `yaml:"name"`
		On   struct {
			PullRequest      *struct{} `yaml:"pull_request"`
			WorkflowDispatch *struct{} `yaml:"workflow_dispatch"`
		} `yaml:"on"`
		Jobs map[string]struct {
			RunsOn      string            `yaml:"runs-on"`
			Needs       []string          `yaml:"needs"`
			If          string            `yaml:"if"`
			Permissions map[string]string `yaml:"permissions"`
			Outputs     map[string]string `yaml:"outputs"`
			Container   struct {
				Image string `yaml:"image"`
			} `yaml:"container"`
			Steps []map[string]any `yaml:"steps"`
		} `yaml:"jobs"`
	}
	if err := yaml.Unmarshal(rendered, &decoded); err != nil {
		t.Fatalf("rendered workflow is not valid YAML: %v\n%s", err, rendered)
	}

	if decoded.Name != "build" {
		t.Errorf("name = %q, want %q", decoded.Name, "build")
	}
	if decoded.On.PullRequest == nil || decoded.On.WorkflowDispatch == nil {
		t.Error("missing pull_request or workflow_dispatch trigger")
	}

	build, ok := decoded.Jobs["build"]
	if !ok {
		t.Fatal("missing build job")
	}
	if build.RunsOn != DefaultRunsOn {
		t.Errorf("build runs-on = %q, want default %q", build.RunsOn, DefaultRunsOn)
	}
	if build.Permissions["contents"] != "read" {
		t.Errorf("build permissions = %v, want contents: read", build.Permissions)
	}
	if got := build.Outputs["diff_exists"]; got != "${{ steps.diff.outputs.diff_exists }}" {
		t.Errorf("build output diff_exists = %q", got)
	}

	verify, ok := decoded.Jobs["verify"]
	if !ok {
		t.Fatal("missing verify job")
	}
	if len(verify.Needs) != 1 || verify.Needs[0] != "build" {
		t.Errorf("verify needs = %v, want [build]", verify.Needs)
	}
	if verify.If != "${{ !needs.build.outputs.diff_exists }}" {
		t.Errorf("verify if = %q", verify.If)
	}
	if verify.Container.Image != "golang:1.25" {
		t.Errorf("verify container image = %q", verify.Container.Image)
	}
	if len(verify.Permissions) != 0 {
		t.Errorf("verify permissions = %v, want empty set", verify.Permissions)
	}
	if got := verify.Steps[0]["working-directory"]; got != "dist" {
		t.Errorf("verify step working-directory = %v", got)
	}
}

func TestRenderDeterministicKeyOrder(t *testing.T) {
	t.Parallel()

	first, err := buildTestWorkflow(t).Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	second, err := buildTestWorkflow(t).Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(first) != string(second) {
		t.Error("two renders of the same workflow differ")
	}

	// Env maps render with sorted keys.
	text := string(first)
	if strings.Index(text, "A_FIRST") > strings.Index(text, "CI:") {
		t.Error("env keys are not sorted")
	}
}

func TestRenderRequiresFinalize(t *testing.T) {
	t.Parallel()

	w := New("build", Triggers{})
	if err := w.AddJob(&Job{ID: "build", Steps: []Step{runStep("compile")}}); err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if _, err := w.Render(); err == nil || !strings.Contains(err.Error(), "not finalized") {
		t.Errorf("Render before Finalize = %v, want not-finalized error", err)
	}
}

func TestRenderMultilineRunUsesLiteralBlock(t *testing.T) {
	t.Parallel()

	rendered, err := buildTestWorkflow(t).Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(rendered), "run: |") {
		t.Errorf("multi-line run command not rendered as literal block:\n%s", rendered)
	}
}
