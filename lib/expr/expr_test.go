// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package expr

import (
	"strings"
	"testing"
)

func TestPrimitiveSurfaces(t *testing.T) {
	t.Parallel()

	// These strings are protocol constants consumed by the external
	// executor. A change here breaks workflows already checked in to
	// repositories.
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{
			name: "job output reference",
			expr: OutputTrue("build", "diff_exists"),
			want: "needs.build.outputs.diff_exists",
		},
		{
			name: "step output reference",
			expr: StepOutputTrue("diff", "diff_exists"),
			want: "steps.diff.outputs.diff_exists",
		},
		{
			name: "fork test",
			expr: IsFork(),
			want: "github.event.pull_request.head.repo.full_name != github.repository",
		},
		{
			name: "label membership",
			expr: HasLabel("auto-approve"),
			want: "contains(github.event.pull_request.labels.*.name, 'auto-approve')",
		},
		{
			name: "label with embedded single quote",
			expr: HasLabel("don't-merge"),
			want: "contains(github.event.pull_request.labels.*.name, 'don''t-merge')",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := test.expr.String(); got != test.want {
				t.Errorf("String() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestNot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{
			name: "negated call stays bare",
			expr: Not(HasLabel("auto-approve")),
			want: "!contains(github.event.pull_request.labels.*.name, 'auto-approve')",
		},
		{
			name: "negated output reference stays bare",
			expr: Not(OutputTrue("build", "diff_exists")),
			want: "!needs.build.outputs.diff_exists",
		},
		{
			name: "negated comparison is grouped",
			expr: Not(IsFork()),
			want: "!(github.event.pull_request.head.repo.full_name != github.repository)",
		},
		{
			name: "negated conjunction is grouped",
			expr: Not(And(OutputTrue("build", "diff_exists"), HasLabel("wip"))),
			want: "!(needs.build.outputs.diff_exists && contains(github.event.pull_request.labels.*.name, 'wip'))",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := test.expr.String(); got != test.want {
				t.Errorf("String() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestAndGrouping(t *testing.T) {
	t.Parallel()

	// Comparisons and nested conjunctions are parenthesized inside
	// And; atomic terms are joined bare.
	got := And(
		OutputTrue("build", "diff_exists"),
		IsFork(),
		Not(HasLabel("auto-approve")),
	).String()

	want := "needs.build.outputs.diff_exists" +
		" && (github.event.pull_request.head.repo.full_name != github.repository)" +
		" && !contains(github.event.pull_request.labels.*.name, 'auto-approve')"
	if got != want {
		t.Errorf("And rendering:\n got %q\nwant %q", got, want)
	}
}

func TestAndSingleOperand(t *testing.T) {
	t.Parallel()

	single := And(OutputTrue("build", "diff_exists"))
	if got := single.String(); got != "needs.build.outputs.diff_exists" {
		t.Errorf("And with one operand = %q, want the operand unchanged", got)
	}
}

func TestAndEmptyPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		recovered := recover()
		if recovered == nil {
			t.Fatal("And() with no operands did not panic")
		}
		if !strings.Contains(recovered.(string), "empty operand list") {
			t.Errorf("panic message = %v, want mention of empty operand list", recovered)
		}
	}()
	And()
}

func TestRenderWrapsTemplate(t *testing.T) {
	t.Parallel()

	got := OutputTrue("build", "diff_exists").Render()
	want := "${{ needs.build.outputs.diff_exists }}"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestIsZero(t *testing.T) {
	t.Parallel()

	var zero Expr
	if !zero.IsZero() {
		t.Error("zero value should report IsZero")
	}
	if IsFork().IsZero() {
		t.Error("constructed expression should not report IsZero")
	}
}
