// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Conveyor packages.
//
// [GitRepo] initializes a throwaway git repository with an initial
// commit, the fixture most drift and mutation tests start from.
// [WriteFile] and [Commit] mutate and record repository state. All
// helpers call t.Fatal on failure rather than returning errors, since
// test setup failures are not recoverable.
//
// This package has no Conveyor-internal dependencies beyond lib/git.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/conveyor-ci/conveyor/lib/git"
)

// TestIdentity is the committer identity used for fixture commits.
var TestIdentity = git.Identity{
	Name:  "conveyor-test",
	Email: "conveyor-test@example.com",
}

// GitRepo initializes a git repository in a temporary directory with
// a single initial commit (a README), and returns a Repository
// targeting it. The directory is removed when the test completes.
func GitRepo(t *testing.T) *git.Repository {
	t.Helper()

	directory := t.TempDir()
	repository := git.NewRepository(directory)
	ctx := context.Background()

	if _, err := repository.Run(ctx, "init", "--initial-branch=main"); err != nil {
		t.Fatalf("git init: %v", err)
	}

	WriteFile(t, directory, "README.md", "# fixture\n")
	Commit(t, repository, "initial commit")

	return repository
}

// WriteFile writes content to name under directory, creating parent
// directories as needed.
func WriteFile(t *testing.T, directory, name, content string) {
	t.Helper()

	path := filepath.Join(directory, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

// Commit stages everything and commits under [TestIdentity].
func Commit(t *testing.T, repository *git.Repository, message string) {
	t.Helper()

	if err := repository.CommitAll(context.Background(), TestIdentity, message); err != nil {
		t.Fatalf("committing %q: %v", message, err)
	}
}
