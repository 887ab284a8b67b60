// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package git provides typed access to the git CLI for the repository
// operations Conveyor needs: drift detection (did the build change
// files), patch capture and application, and the commit/push pair
// used by the self-mutation path. All commands target a specific
// repository directory via the -C flag, which is automatically
// injected by all Repository methods.
//
// These are the same operations the synthesized workflow performs
// remotely via inline shell steps; having them as a library keeps the
// local drift commands and the rendered scripts semantically aligned.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Identity is the committer name/email pair stamped on commits.
type Identity struct {
	Name  string
	Email string
}

// Repository represents a git repository at a specific directory. All
// operations target this directory via "git -C <dir>". There is no
// default directory — callers must always specify which repository
// they mean.
type Repository struct {
	dir string
}

// NewRepository returns a Repository targeting the given directory.
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Dir returns the repository directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Run executes a git command targeting this repository and returns
// stdout. Stderr is captured separately and included in error messages
// on failure.
func (r *Repository) Run(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{"-C", r.dir}, args...)
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, "git", fullArgs...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("git %s in %s: %w (stderr: %s)",
			strings.Join(args, " "), r.dir, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Command returns an *exec.Cmd for a git command without running it.
// The caller gets full control over Stdin, Stdout, and Stderr before
// starting the process. The -C flag targeting this repository is
// automatically prepended.
func (r *Repository) Command(ctx context.Context, args ...string) *exec.Cmd {
	fullArgs := append([]string{"-C", r.dir}, args...)
	return exec.CommandContext(ctx, "git", fullArgs...)
}

// Head returns the commit hash of HEAD.
func (r *Repository) Head(ctx context.Context) (string, error) {
	output, err := r.Run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// Checkout switches the working tree to the given ref.
func (r *Repository) Checkout(ctx context.Context, ref string) error {
	if _, err := r.Run(ctx, "checkout", ref); err != nil {
		return err
	}
	return nil
}

// HasChanges reports whether the working tree differs from HEAD,
// including untracked files. This is the structural drift test: tree
// content, not timestamps — "git status --porcelain" prints nothing
// for touch-only changes.
func (r *Repository) HasChanges(ctx context.Context) (bool, error) {
	output, err := r.Run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(output) != "", nil
}

// StagedPatch stages every change (including untracked files) and
// returns the staged diff as a binary-safe patch. The index is
// restored afterwards so the call is observationally read-only. This
// mirrors the diff step the synthesized workflow runs: stage
// everything, diff against HEAD, capture the result.
func (r *Repository) StagedPatch(ctx context.Context) ([]byte, error) {
	if _, err := r.Run(ctx, "add", "-A"); err != nil {
		return nil, err
	}

	patch, diffErr := r.Run(ctx, "diff", "--staged", "--binary")

	// Unstage regardless of the diff outcome; a failed diff must not
	// leave the index dirty.
	if _, err := r.Run(ctx, "reset"); err != nil {
		return nil, err
	}
	if diffErr != nil {
		return nil, diffErr
	}
	return []byte(patch), nil
}

// ApplyPatch applies a patch produced by StagedPatch to the working
// tree.
func (r *Repository) ApplyPatch(ctx context.Context, patch []byte) error {
	command := r.Command(ctx, "apply", "--binary")
	command.Stdin = bytes.NewReader(patch)
	var stderr bytes.Buffer
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return fmt.Errorf("git apply in %s: %w (stderr: %s)",
			r.dir, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// CommitAll stages every change and commits it under the given
// identity. The identity is passed with -c overrides rather than
// written to the repository config, so it applies to exactly this
// commit.
func (r *Repository) CommitAll(ctx context.Context, identity Identity, message string) error {
	if _, err := r.Run(ctx, "add", "-A"); err != nil {
		return err
	}
	_, err := r.Run(ctx,
		"-c", "user.name="+identity.Name,
		"-c", "user.email="+identity.Email,
		"commit", "-m", message,
	)
	return err
}

// Push pushes the given refspec to the remote. Failures (concurrent
// update, missing permission) are returned as-is: the correct
// recovery for a failed mutation push is a fresh pipeline run, not a
// retry loop.
func (r *Repository) Push(ctx context.Context, remote, refspec string) error {
	if _, err := r.Run(ctx, "push", remote, refspec); err != nil {
		return err
	}
	return nil
}
