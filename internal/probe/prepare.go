package probe

import (
	"fmt"
	"os"
	"strings"

	"github.com/matrixhub/mcpb/internal/archive"
	"github.com/matrixhub/mcpb/internal/detect"
	"github.com/matrixhub/mcpb/internal/manifest"
)

// A run target resolved to a launchable working directory.
type Target struct {
	Runner  *manifest.Runner // Runner specification, loaded or inferred.
	WorkDir string           // Directory the server runs in.
	tempDir string           // Extraction directory to remove, if any.
}

// Removes the temporary extraction directory, if one was created.
//
// Removal errors are ignored; the directory lives under the system temp
// root and will be reclaimed eventually regardless.
func (t *Target) Cleanup() {
	if t.tempDir != "" {
		os.RemoveAll(t.tempDir)
	}
}

// Resolves a run target path into a runner and working directory.
//
// Directories are used in place. Zip archives are extracted into a fresh
// temporary directory, which the caller must release via [Target.Cleanup].
// When the target lacks a runner.json, a runner is inferred from project
// detection so bare source trees remain runnable.
func PrepareTarget(path string) (*Target, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSupervisor, err)
	}

	if info.IsDir() {
		runner, err := loadOrInferRunner(path)
		if err != nil {
			return nil, err
		}
		return &Target{Runner: runner, WorkDir: path}, nil
	}

	if !strings.HasSuffix(strings.ToLower(path), ".zip") {
		return nil, fmt.Errorf("%w: unsupported target %s", ErrSupervisor, path)
	}

	tempDir, err := os.MkdirTemp("", "mcpb-run-")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSupervisor, err)
	}

	if err := archive.Extract(path, tempDir); err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}

	runner, err := loadOrInferRunner(tempDir)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}

	return &Target{Runner: runner, WorkDir: tempDir, tempDir: tempDir}, nil
}

// Loads runner.json from dir, falling back to detection-based inference.
func loadOrInferRunner(dir string) (*manifest.Runner, error) {
	runner, err := manifest.LoadRunner(dir)
	if err == nil {
		return runner, nil
	}

	report := detect.Project(dir)
	if report.Transport == "" {
		return nil, fmt.Errorf("%w: no runner.json and no recognizable server in %s", ErrSupervisor, dir)
	}

	inferred, _ := manifest.Scaffold(manifest.ScaffoldOptions{
		Transport: report.Transport,
		Lang:      report.Lang,
		Name:      "inferred",
	})
	return inferred, nil
}
