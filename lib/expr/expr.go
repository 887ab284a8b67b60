// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package expr builds boolean condition expressions for GitHub Actions
// job and step `if:` fields.
//
// Conditions are composed from typed primitives (job output references,
// the fork test, label membership) and combinators (And, Not), then
// rendered once into the executor's expression syntax. No evaluation
// happens locally — the rendered string is opaque to Conveyor and is
// interpreted by GitHub Actions at run time. Building conditions as a
// tree instead of concatenating strings makes operator precedence
// explicit and eliminates escaping mistakes.
//
// The rendered primitive surfaces are protocol constants. Changing
// them breaks compatibility with workflows already checked in to
// repositories:
//
//	fork:   github.event.pull_request.head.repo.full_name != github.repository
//	output: needs.<job>.outputs.<name>
//	label:  contains(github.event.pull_request.labels.*.name, '<label>')
package expr

import (
	"fmt"
	"strings"
)

// precedence orders expression nodes for parenthesization. A node is
// wrapped in parentheses when it appears under an operator of equal or
// higher binding strength and the grouping would otherwise be
// ambiguous to a reader.
type precedence int

const (
	// precAnd is the && combinator, the loosest binding.
	precAnd precedence = iota
	// precCompare is a binary comparison (the fork test's !=).
	precCompare
	// precAtom is an indivisible term: an output reference, a
	// function call, or a negation.
	precAtom
)

// Expr is a boolean condition over facts known only to the executor.
// Obtain one from the constructors in this package; the zero value is
// not a valid expression.
type Expr struct {
	text string
	prec precedence
}

// OutputTrue references a named output of another job. The expression
// is truthy when the referenced job produced a non-empty, non-"false"
// value for that output. The referencing job must list jobID in its
// dependencies — lib/workflow validates this structurally.
func OutputTrue(jobID, outputName string) Expr {
	return Expr{
		text: fmt.Sprintf("needs.%s.outputs.%s", jobID, outputName),
		prec: precAtom,
	}
}

// StepOutputTrue references a named output of an earlier step within
// the same job. Used for intra-job conditions such as "upload the
// patch only when the diff step reported drift".
func StepOutputTrue(stepID, field string) Expr {
	return Expr{
		text: fmt.Sprintf("steps.%s.outputs.%s", stepID, field),
		prec: precAtom,
	}
}

// IsFork is true when the triggering change originates from a
// repository other than the canonical one. Fork-originated changes are
// untrusted: no write credential is available for them.
func IsFork() Expr {
	return Expr{
		text: "github.event.pull_request.head.repo.full_name != github.repository",
		prec: precCompare,
	}
}

// HasLabel is true when the triggering pull request carries the given
// label. The label is embedded in a single-quoted literal; single
// quotes in the label itself are doubled per the executor's escaping
// rules.
func HasLabel(label string) Expr {
	escaped := strings.ReplaceAll(label, "'", "''")
	return Expr{
		text: fmt.Sprintf("contains(github.event.pull_request.labels.*.name, '%s')", escaped),
		prec: precAtom,
	}
}

// Not negates an expression. Composite operands are parenthesized so
// the negation unambiguously covers the whole operand; atomic operands
// (output references, function calls) are negated bare, matching the
// executor's conventional "!contains(...)" form.
func Not(operand Expr) Expr {
	return Expr{
		text: "!" + operand.grouped(precAtom),
		prec: precAtom,
	}
}

// And combines operands with logical AND. Every non-atomic operand is
// parenthesized, so the rendered expression never depends on the
// executor's precedence rules.
//
// Panics if operands is empty: an AND over nothing is a malformed
// composition and always a programming error at graph construction
// time, never a run-time condition.
func And(operands ...Expr) Expr {
	if len(operands) == 0 {
		panic("expr.And: empty operand list")
	}
	if len(operands) == 1 {
		return operands[0]
	}

	parts := make([]string, len(operands))
	for i, operand := range operands {
		parts[i] = operand.grouped(precAtom)
	}
	return Expr{
		text: strings.Join(parts, " && "),
		prec: precAnd,
	}
}

// String returns the bare expression text without the template
// wrapper. Useful in tests and error messages.
func (e Expr) String() string {
	return e.text
}

// Render returns the expression wrapped as a single templated boolean
// for use in a job or step `if:` field.
func (e Expr) Render() string {
	return "${{ " + e.text + " }}"
}

// IsZero reports whether e is the zero value (no expression). Jobs and
// steps treat a zero condition as "always run".
func (e Expr) IsZero() bool {
	return e.text == ""
}

// grouped returns the expression text, parenthesized when this node
// binds at or below the given precedence threshold.
func (e Expr) grouped(threshold precedence) string {
	if e.prec < threshold {
		return "(" + e.text + ")"
	}
	return e.text
}
