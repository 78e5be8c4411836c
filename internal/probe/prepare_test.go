package probe

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matrixhub/mcpb/internal/manifest"
)

func TestPrepareTargetDirectoryWithRunner(t *testing.T) {
	dir := t.TempDir()
	runner := manifest.Runner{
		Type:    manifest.TransportStdio,
		Command: []string{"python", "server.py"},
	}
	if err := runner.Write(dir); err != nil {
		t.Fatal(err)
	}

	target, err := PrepareTarget(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer target.Cleanup()

	if target.WorkDir != dir {
		t.Fatalf("workdir = %s, want %s (in place)", target.WorkDir, dir)
	}
	if target.Runner.Type != manifest.TransportStdio {
		t.Fatalf("runner type = %s", target.Runner.Type)
	}
}

func TestPrepareTargetBareDirectoryInfersRunner(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "server_sse.py"), []byte("#"), 0o644); err != nil {
		t.Fatal(err)
	}

	target, err := PrepareTarget(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer target.Cleanup()

	if target.Runner.Type != manifest.TransportSSE {
		t.Fatalf("inferred type = %s, want sse", target.Runner.Type)
	}
}

func TestPrepareTargetZip(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "bundle.zip")
	out, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(out)
	w, err := zw.Create("server.py")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("print('hi')")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	target, err := PrepareTarget(zipPath)
	if err != nil {
		t.Fatal(err)
	}

	if target.WorkDir == filepath.Dir(zipPath) {
		t.Fatal("zip target must extract into a fresh directory")
	}
	if _, err := os.Stat(filepath.Join(target.WorkDir, "server.py")); err != nil {
		t.Fatalf("extracted file missing: %v", err)
	}
	if target.Runner.Type != manifest.TransportStdio {
		t.Fatalf("inferred type = %s, want stdio", target.Runner.Type)
	}

	workDir := target.WorkDir
	target.Cleanup()
	if _, err := os.Stat(workDir); !os.IsNotExist(err) {
		t.Fatalf("cleanup left %s behind", workDir)
	}
}

func TestPrepareTargetUnrecognized(t *testing.T) {
	dir := t.TempDir()

	if _, err := PrepareTarget(filepath.Join(dir, "absent")); !errors.Is(err, ErrSupervisor) {
		t.Fatalf("err = %v, want ErrSupervisor for a missing target", err)
	}

	if _, err := PrepareTarget(dir); !errors.Is(err, ErrSupervisor) {
		t.Fatalf("err = %v, want ErrSupervisor for an empty tree", err)
	}
}
