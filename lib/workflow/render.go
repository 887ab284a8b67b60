// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Render serializes the finalized workflow into the executor's YAML
// format. The output is deterministic: key order is fixed by
// construction (yaml.Node mappings preserve insertion order) and all
// unordered Go maps are emitted with sorted keys. Rendering an
// unfinalized workflow is an error — the step lists of lazily
// assembled jobs are only complete after Finalize.
func (w *Workflow) Render() ([]byte, error) {
	if !w.finalized {
		return nil, fmt.Errorf("workflow %q not finalized: render would miss late registrations", w.Name)
	}

	root := newMapping()
	root.add("name", scalar(w.Name))
	root.add("on", w.renderTriggers())

	jobs := newMapping()
	for _, job := range w.jobs {
		jobs.add(job.ID, renderJob(job))
	}
	root.add("jobs", jobs.node)

	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(2)
	if err := encoder.Encode(root.node); err != nil {
		return nil, fmt.Errorf("encoding workflow %q: %w", w.Name, err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("encoding workflow %q: %w", w.Name, err)
	}
	return buffer.Bytes(), nil
}

// renderTriggers builds the "on" mapping.
func (w *Workflow) renderTriggers() *yaml.Node {
	on := newMapping()
	if w.On.PullRequest != nil {
		trigger := newMapping()
		if len(w.On.PullRequest.Branches) > 0 {
			trigger.add("branches", stringSequence(w.On.PullRequest.Branches))
		}
		on.add("pull_request", trigger.node)
	}
	if w.On.Push != nil {
		trigger := newMapping()
		if len(w.On.Push.Branches) > 0 {
			trigger.add("branches", stringSequence(w.On.Push.Branches))
		}
		on.add("push", trigger.node)
	}
	if w.On.WorkflowDispatch != nil {
		on.add("workflow_dispatch", newMapping().node)
	}
	return on.node
}

// renderJob builds a single job mapping in the executor's field order:
// name, runs-on, container, needs, if, permissions, env, outputs,
// steps.
func renderJob(job *Job) *yaml.Node {
	mapping := newMapping()

	if job.Name != "" {
		mapping.add("name", scalar(job.Name))
	}

	runsOn := job.RunsOn
	if len(runsOn) == 0 {
		runsOn = []string{DefaultRunsOn}
	}
	if len(runsOn) == 1 {
		mapping.add("runs-on", scalar(runsOn[0]))
	} else {
		mapping.add("runs-on", stringSequence(runsOn))
	}

	if job.ContainerImage != "" {
		container := newMapping()
		container.add("image", scalar(job.ContainerImage))
		mapping.add("container", container.node)
	}

	if len(job.Needs) > 0 {
		mapping.add("needs", stringSequence(job.Needs))
	}

	if !job.If.IsZero() {
		mapping.add("if", scalar(job.If.Render()))
	}

	// Permissions are always rendered, even when empty: an explicit
	// empty block pins the job to zero capabilities instead of the
	// executor's permissive repository default.
	mapping.add("permissions", renderPermissions(job.Permissions))

	if len(job.Env) > 0 {
		mapping.add("env", sortedStringMapping(job.Env))
	}

	if len(job.Outputs) > 0 {
		outputs := newMapping()
		for _, name := range sortedKeys(job.Outputs) {
			output := job.Outputs[name]
			outputs.add(name, scalar(fmt.Sprintf(
				"${{ steps.%s.outputs.%s }}", output.StepID, output.Field)))
		}
		mapping.add("outputs", outputs.node)
	}

	steps := &yaml.Node{Kind: yaml.SequenceNode}
	for _, step := range job.Steps {
		steps.Content = append(steps.Content, renderStep(step))
	}
	mapping.add("steps", steps)

	return mapping.node
}

// renderStep builds a single step mapping: id, name, if, uses, with,
// run, env, working-directory.
func renderStep(step Step) *yaml.Node {
	mapping := newMapping()

	if step.ID != "" {
		mapping.add("id", scalar(step.ID))
	}
	if step.Name != "" {
		mapping.add("name", scalar(step.Name))
	}
	if !step.If.IsZero() {
		mapping.add("if", scalar(step.If.Render()))
	}
	if step.Uses != "" {
		mapping.add("uses", scalar(step.Uses))
		if len(step.With) > 0 {
			mapping.add("with", sortedStringMapping(step.With))
		}
	}
	if step.Run != "" {
		mapping.add("run", commandScalar(step.Run))
	}
	if len(step.Env) > 0 {
		mapping.add("env", sortedStringMapping(step.Env))
	}
	if step.WorkingDirectory != "" {
		mapping.add("working-directory", scalar(step.WorkingDirectory))
	}

	return mapping.node
}

// renderPermissions builds the permissions block. An empty set renders
// as the flow-style empty mapping "{}".
func renderPermissions(permissions Permissions) *yaml.Node {
	if permissions.Contents == PermissionNone {
		empty := newMapping()
		empty.node.Style = yaml.FlowStyle
		return empty.node
	}
	mapping := newMapping()
	mapping.add("contents", scalar(string(permissions.Contents)))
	return mapping.node
}

// mapBuilder accumulates an insertion-ordered YAML mapping.
type mapBuilder struct {
	node *yaml.Node
}

func newMapping() mapBuilder {
	return mapBuilder{node: &yaml.Node{Kind: yaml.MappingNode}}
}

func (b mapBuilder) add(key string, value *yaml.Node) {
	b.node.Content = append(b.node.Content, scalar(key), value)
}

// scalar returns a plain string scalar node.
func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: value}
}

// commandScalar returns a scalar node for a shell command, using a
// literal block for multi-line commands so the rendered file stays
// readable and whitespace-exact.
func commandScalar(command string) *yaml.Node {
	node := scalar(command)
	if strings.Contains(command, "\n") {
		node.Style = yaml.LiteralStyle
	}
	return node
}

// stringSequence returns a sequence node of string scalars.
func stringSequence(values []string) *yaml.Node {
	node := &yaml.Node{Kind: yaml.SequenceNode}
	for _, value := range values {
		node.Content = append(node.Content, scalar(value))
	}
	return node
}

// sortedStringMapping returns a mapping node with keys in sorted order.
func sortedStringMapping(values map[string]string) *yaml.Node {
	mapping := newMapping()
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		mapping.add(key, scalar(values[key]))
	}
	return mapping.node
}

// sortedKeys returns the keys of a map in sorted order.
func sortedKeys[V any](values map[string]V) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
