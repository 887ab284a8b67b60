// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const projectFixture = `{
	// Demo project with build outputs.
	"version": 1,
	"name": "demo",
	"repository": "conveyor-ci/demo",
	"artifacts_directory": "dist",
}`

// writeOutputs creates a project file and a populated artifacts
// directory, returning the project path and the artifacts directory.
func writeOutputs(t *testing.T) (projectPath, outputDir string) {
	t.Helper()
	dir := t.TempDir()
	projectPath = filepath.Join(dir, "conveyor.jsonc")
	if err := os.WriteFile(projectPath, []byte(projectFixture), 0o644); err != nil {
		t.Fatalf("write project: %v", err)
	}

	outputDir = filepath.Join(dir, "dist")
	for name, content := range map[string]string{
		"app":            "binary contents\n",
		"docs/index.txt": "generated docs\n",
	} {
		path := filepath.Join(outputDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return projectPath, outputDir
}

func TestPackAndUnpackRoundTrip(t *testing.T) {
	projectPath, outputDir := writeOutputs(t)
	archivePath := filepath.Join(t.TempDir(), "build-artifact")

	err := Command().Execute([]string{
		"pack",
		"--project", projectPath,
		"--dir", outputDir,
		"--output", archivePath,
	})
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	destination := filepath.Join(t.TempDir(), "extracted")
	err = Command().Execute([]string{
		"unpack",
		"--archive", archivePath,
		"--dest", destination,
	})
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}

	extracted, err := os.ReadFile(filepath.Join(destination, "docs", "index.txt"))
	if err != nil {
		t.Fatalf("read extracted file: %v", err)
	}
	if string(extracted) != "generated docs\n" {
		t.Errorf("extracted content = %q", extracted)
	}
}

func TestPackDeterministic(t *testing.T) {
	projectPath, outputDir := writeOutputs(t)
	first := filepath.Join(t.TempDir(), "first")
	second := filepath.Join(t.TempDir(), "second")

	for _, archivePath := range []string{first, second} {
		err := Command().Execute([]string{
			"pack",
			"--project", projectPath,
			"--dir", outputDir,
			"--output", archivePath,
		})
		if err != nil {
			t.Fatalf("pack: %v", err)
		}
	}

	firstData, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	secondData, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(firstData, secondData) {
		t.Error("two pack runs produced different archives")
	}
}

func TestPackRequiresArtifactsDirectory(t *testing.T) {
	dir := t.TempDir()
	projectPath := filepath.Join(dir, "conveyor.jsonc")
	stripped := strings.Replace(projectFixture, `"artifacts_directory": "dist",`, "", 1)
	if err := os.WriteFile(projectPath, []byte(stripped), 0o644); err != nil {
		t.Fatalf("write project: %v", err)
	}

	err := Command().Execute([]string{
		"pack",
		"--project", projectPath,
		"--output", filepath.Join(dir, "out"),
	})
	if err == nil || !strings.Contains(err.Error(), "artifacts_directory") {
		t.Errorf("pack without artifacts directory = %v, want configuration error", err)
	}
}

func TestPackWithoutProjectFile(t *testing.T) {
	_, outputDir := writeOutputs(t)
	dir := t.TempDir()
	missingProject := filepath.Join(dir, "conveyor.jsonc")

	// No project file and no --dir: nothing to pack.
	err := Command().Execute([]string{
		"pack",
		"--project", missingProject,
		"--output", filepath.Join(dir, "out"),
	})
	if err == nil {
		t.Error("pack without project file or --dir should fail")
	}

	// An explicit --dir works without a project file.
	err = Command().Execute([]string{
		"pack",
		"--project", missingProject,
		"--dir", outputDir,
		"--output", filepath.Join(dir, "out"),
	})
	if err != nil {
		t.Errorf("pack with explicit --dir: %v", err)
	}
}

func TestUnpackRequiresDestination(t *testing.T) {
	err := Command().Execute([]string{"unpack", "--archive", "nowhere"})
	if err == nil || !strings.Contains(err.Error(), "--dest") {
		t.Errorf("unpack without --dest = %v, want flag error", err)
	}
}
