package bundle

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matrixhub/mcpb/internal/integrity"
	"github.com/matrixhub/mcpb/internal/manifest"
)

func pythonProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func zipEntries(t *testing.T, zipPath string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	entries := map[string]string{}
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		entries[f.Name] = string(data)
	}
	return entries
}

func TestBuildPythonSSE(t *testing.T) {
	root := pythonProject(t, map[string]string{
		"server_sse.py":    "print('sse')",
		"requirements.txt": "mcp\n",
	})

	artifact, err := Build(root, Options{Name: "weather", OutDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	if filepath.Base(artifact.ZipPath) != "weather-sse.zip" {
		t.Fatalf("zip = %s, want weather-sse.zip", filepath.Base(artifact.ZipPath))
	}
	if artifact.Report.Transport != manifest.TransportSSE {
		t.Fatalf("transport = %s, want sse", artifact.Report.Transport)
	}

	entries := zipEntries(t, artifact.ZipPath)
	for _, want := range []string{"server_sse.py", "requirements.txt", manifest.RunnerFile, manifest.ManifestFile} {
		if _, ok := entries[want]; !ok {
			t.Fatalf("bundle missing entry %s (has %v)", want, keys(entries))
		}
	}

	if !strings.Contains(entries[manifest.ManifestFile], `"weather"`) {
		t.Fatalf("manifest does not carry the name:\n%s", entries[manifest.ManifestFile])
	}

	digest, err := integrity.Digest(artifact.ZipPath)
	if err != nil {
		t.Fatal(err)
	}
	if artifact.Digest != digest {
		t.Fatalf("artifact digest = %s, want %s", artifact.Digest, digest)
	}
	if _, err := os.Stat(artifact.Sidecar); err != nil {
		t.Fatalf("sidecar missing: %v", err)
	}
}

func TestBuildKeepsAuthoredMetadata(t *testing.T) {
	root := pythonProject(t, map[string]string{"server.py": "print('x')"})
	if _, _, err := manifest.WriteScaffolds(root, manifest.ScaffoldOptions{
		Transport: manifest.TransportStdio,
		Lang:      "python",
		Name:      "authored",
		Version:   "2.0.0",
	}); err != nil {
		t.Fatal(err)
	}

	artifact, err := Build(root, Options{Name: "ignored", OutDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	entries := zipEntries(t, artifact.ZipPath)
	if !strings.Contains(entries[manifest.ManifestFile], `"authored"`) {
		t.Fatal("authored manifest was replaced by a synthesized one")
	}
	if filepath.Base(artifact.ZipPath) != "authored-stdio.zip" {
		t.Fatalf("zip = %s, want authored-stdio.zip", filepath.Base(artifact.ZipPath))
	}
}

func TestBuildMissingRoot(t *testing.T) {
	_, err := Build(filepath.Join(t.TempDir(), "absent"), Options{OutDir: t.TempDir()})
	if !errors.Is(err, ErrBuild) {
		t.Fatalf("err = %v, want ErrBuild", err)
	}
}

func TestToolchain(t *testing.T) {
	root := t.TempDir()
	if got := toolchain(root, "python"); got != "pip" {
		t.Fatalf("toolchain = %q, want pip", got)
	}
	if err := os.WriteFile(filepath.Join(root, "uv.lock"), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := toolchain(root, "python"); got != "uv" {
		t.Fatalf("toolchain = %q, want uv", got)
	}
	if got := toolchain(root, "node"); got != "npm" {
		t.Fatalf("toolchain = %q, want npm", got)
	}
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
