// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package project provides parsing, validation, and defaulting for
// Conveyor project configuration.
//
// A project is described by a conveyor.jsonc file at the repository
// root: JSON extended with // line comments, /* block comments */,
// and trailing commas. The file names the hosted repository, the
// build task, the artifacts directory, and the mutation policy that
// decides what happens when running the build changes files.
//
// The typical flow:
//
//  1. ReadFile or Parse: JSONC bytes → Content
//  2. Validate: structural checks (repository format, identity, etc.)
//  3. ApplyDefaults: fill unset fields with their documented defaults
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"
)

// ConfigVersion is the current schema version for Content.
const ConfigVersion = 1

// DefaultFileName is the project configuration file name looked up at
// the repository root.
const DefaultFileName = "conveyor.jsonc"

// repositoryPattern matches a repository full name: owner/name, each
// segment the character set GitHub allows.
var repositoryPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*/[A-Za-z0-9._-]+$`)

// namePattern matches valid project, task, and workflow names.
var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Content is the parsed conveyor.jsonc configuration.
type Content struct {
	// Version is the schema version (see ConfigVersion).
	Version int `json:"version"`

	// Name is the project name, used as the workflow display name
	// prefix and in log output.
	Name string `json:"name"`

	// Repository is the canonical repository full name (owner/name)
	// on the hosting service. Required: the build workflow is
	// meaningless without a hosting collaborator, so its absence is a
	// fatal construction error, surfaced when the workflow is built —
	// never deferred to render time.
	Repository string `json:"repository"`

	// DefaultBranch is the branch the push trigger watches. Defaults
	// to "main".
	DefaultBranch string `json:"default_branch,omitempty"`

	// BuildTask names the task (from the taskfile) that the build job
	// runs. Defaults to "build".
	BuildTask string `json:"build_task,omitempty"`

	// ArtifactsDirectory is the build output directory uploaded for
	// post-build jobs. Empty means the build produces no shared
	// artifact.
	ArtifactsDirectory string `json:"artifacts_directory,omitempty"`

	// ContainerImage runs the build job inside the given container
	// image. Optional.
	ContainerImage string `json:"container_image,omitempty"`

	// Env sets environment variables for all build job steps.
	Env map[string]string `json:"env,omitempty"`

	// PreBuildCommands are shell commands run before the build task.
	PreBuildCommands []string `json:"pre_build,omitempty"`

	// PostBuildCommands are shell commands run after the build task,
	// before drift detection.
	PostBuildCommands []string `json:"post_build,omitempty"`

	// WorkflowsDirectory is where synthesized workflow files are
	// written. Defaults to ".github/workflows".
	WorkflowsDirectory string `json:"workflows_directory,omitempty"`

	// WorkflowName is the synthesized workflow's name and file stem.
	// Defaults to "build".
	WorkflowName string `json:"workflow_name,omitempty"`

	// MutableBuild enables self-mutation: drift produced by the build
	// is pushed back to the source branch instead of failing the
	// pipeline. Fork-originated changes are never pushed to.
	MutableBuild bool `json:"mutable_build,omitempty"`

	// OnlyForksAntiTamper restricts the anti-tamper job to
	// fork-originated changes. The default (false) fails the pipeline
	// on any drift when mutable builds are disabled. With mutable
	// builds enabled, setting this keeps a fork safety net alongside
	// self-mutation.
	OnlyForksAntiTamper bool `json:"only_forks_anti_tamper,omitempty"`

	// AutoApproveLabel, when set, excludes changes carrying this
	// label from self-mutation. Auto-approved changes must not be
	// silently mutated post-approval — the mutation itself would
	// bypass review.
	AutoApproveLabel string `json:"auto_approve_label,omitempty"`

	// MutationTokenSecret is the name of the executor secret holding
	// the elevated write credential used by the self-mutation job.
	// Defaults to "MUTATION_TOKEN". The secret is referenced by name
	// in the rendered workflow; Conveyor never holds its value.
	MutationTokenSecret string `json:"mutation_token_secret,omitempty"`

	// Git is the identity stamped on self-mutation commits.
	Git GitIdentity `json:"git,omitempty"`

	// ArtifactCompression selects the compression for locally packed
	// build artifacts: "zstd" (default), "lz4", or "none".
	ArtifactCompression string `json:"artifact_compression,omitempty"`
}

// GitIdentity is the name/email pair used to attribute self-mutation
// commits. Immutable once the workflow is constructed.
type GitIdentity struct {
	// Name is the committer name.
	Name string `json:"name,omitempty"`

	// Email is the committer email.
	Email string `json:"email,omitempty"`
}

// Defaults for unset configuration fields.
const (
	DefaultBranchName          = "main"
	DefaultBuildTask           = "build"
	DefaultWorkflowsDirectory  = ".github/workflows"
	DefaultWorkflowName        = "build"
	DefaultMutationTokenSecret = "MUTATION_TOKEN"
	DefaultGitIdentityName     = "conveyor[bot]"
	DefaultGitIdentityEmail    = "conveyor[bot]@users.noreply.github.com"
)

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into a Content.
func Parse(data []byte) (*Content, error) {
	stripped := jsonc.ToJSON(data)

	var content Content
	if err := json.Unmarshal(stripped, &content); err != nil {
		return nil, fmt.Errorf("parsing project configuration: %w", err)
	}

	return &content, nil
}

// ReadFile reads a JSONC project file from disk and parses it.
func ReadFile(path string) (*Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	content, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return content, nil
}

// ApplyDefaults fills unset fields with their documented defaults.
// Call after Validate — defaulting a malformed config would mask
// issues.
func (c *Content) ApplyDefaults() {
	if c.DefaultBranch == "" {
		c.DefaultBranch = DefaultBranchName
	}
	if c.BuildTask == "" {
		c.BuildTask = DefaultBuildTask
	}
	if c.WorkflowsDirectory == "" {
		c.WorkflowsDirectory = DefaultWorkflowsDirectory
	}
	if c.WorkflowName == "" {
		c.WorkflowName = DefaultWorkflowName
	}
	if c.MutationTokenSecret == "" {
		c.MutationTokenSecret = DefaultMutationTokenSecret
	}
	if c.Git.Name == "" {
		c.Git.Name = DefaultGitIdentityName
	}
	if c.Git.Email == "" {
		c.Git.Email = DefaultGitIdentityEmail
	}
}

// Validate checks a Content for structural issues. Returns a list of
// human-readable issue descriptions; an empty list means the
// configuration is valid.
func (c *Content) Validate() []string {
	var issues []string

	if c.Version < 1 {
		issues = append(issues, fmt.Sprintf("version must be >= 1, got %d", c.Version))
	}
	if c.Version > ConfigVersion {
		issues = append(issues, fmt.Sprintf(
			"version %d is newer than this tool understands (max %d)", c.Version, ConfigVersion))
	}

	if c.Name == "" {
		issues = append(issues, "name is required")
	} else if !namePattern.MatchString(c.Name) {
		issues = append(issues, fmt.Sprintf("name %q must be a valid identifier", c.Name))
	}

	if c.Repository == "" {
		issues = append(issues, "repository is required (owner/name on the hosting service)")
	} else if !repositoryPattern.MatchString(c.Repository) {
		issues = append(issues, fmt.Sprintf("repository %q must be in owner/name form", c.Repository))
	}

	if c.BuildTask != "" && !namePattern.MatchString(c.BuildTask) {
		issues = append(issues, fmt.Sprintf("build_task %q must be a valid identifier", c.BuildTask))
	}
	if c.WorkflowName != "" && !namePattern.MatchString(c.WorkflowName) {
		issues = append(issues, fmt.Sprintf("workflow_name %q must be a valid identifier", c.WorkflowName))
	}

	if c.AutoApproveLabel != "" && strings.TrimSpace(c.AutoApproveLabel) != c.AutoApproveLabel {
		issues = append(issues, "auto_approve_label must not have leading or trailing whitespace")
	}

	if c.Git.Email != "" && !strings.Contains(c.Git.Email, "@") {
		issues = append(issues, fmt.Sprintf("git.email %q is not an email address", c.Git.Email))
	}

	// The identity is interpolated into the rendered push script inside
	// shell double quotes, where $ and backticks stay live.
	for _, identity := range []struct{ field, value string }{
		{"git.name", c.Git.Name},
		{"git.email", c.Git.Email},
	} {
		if strings.ContainsAny(identity.value, "\"\\$`\n") {
			issues = append(issues, fmt.Sprintf(
				"%s %q must not contain quotes, backslashes, or shell expansion characters",
				identity.field, identity.value))
		}
	}

	switch c.ArtifactCompression {
	case "", "zstd", "lz4", "none":
		// Valid.
	default:
		issues = append(issues, fmt.Sprintf(
			"artifact_compression must be \"zstd\", \"lz4\", or \"none\", got %q", c.ArtifactCompression))
	}

	return issues
}

// CanModify returns true if this tool's code understands the config
// version. Callers performing read-modify-write should check CanModify
// before writing back to avoid silently dropping fields added in newer
// versions.
func (c *Content) CanModify() bool {
	return c.Version <= ConfigVersion
}
