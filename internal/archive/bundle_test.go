package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matrixhub/mcpb/internal/integrity"
	"github.com/matrixhub/mcpb/internal/manifest"
)

func scaffoldPair(t *testing.T) (*manifest.Runner, *manifest.Manifest) {
	t.Helper()
	runner, m := manifest.Scaffold(manifest.ScaffoldOptions{
		Transport: manifest.TransportSSE,
		Lang:      "python",
		Name:      "demo",
	})
	return runner, m
}

func TestWriteBundle(t *testing.T) {
	srcDir := t.TempDir()
	server := filepath.Join(srcDir, "server_sse.py")
	if err := os.WriteFile(server, []byte("print('sse')"), 0o644); err != nil {
		t.Fatal(err)
	}

	runner, m := scaffoldPair(t)
	outDir := t.TempDir()

	zipPath, err := WriteBundle(outDir, BundleSpec{
		Name:     "demo-sse",
		Files:    []string{server, server}, // Duplicates collapse to one entry.
		Runner:   runner,
		Manifest: m,
	})
	if err != nil {
		t.Fatal(err)
	}

	if filepath.Base(zipPath) != "demo-sse.zip" {
		t.Fatalf("zip path = %s, want demo-sse.zip", zipPath)
	}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	names := map[string]int{}
	for _, f := range r.File {
		names[f.Name]++
	}
	for _, want := range []string{"server_sse.py", manifest.RunnerFile, manifest.ManifestFile} {
		if names[want] != 1 {
			t.Fatalf("entry %s appears %d times, want 1", want, names[want])
		}
	}

	sidecar, err := os.ReadFile(zipPath + ".sha256")
	if err != nil {
		t.Fatalf("missing sidecar: %v", err)
	}
	digest, err := integrity.Digest(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(sidecar)) != digest {
		t.Fatalf("sidecar = %q, want %q", strings.TrimSpace(string(sidecar)), digest)
	}
}

func TestWriteBundleNameHandling(t *testing.T) {
	runner, m := scaffoldPair(t)

	tests := []struct {
		name     string
		specName string
		want     string
	}{
		{name: "plain name", specName: "weather", want: "weather.zip"},
		{name: "zip suffix trimmed once", specName: "weather.zip", want: "weather.zip"},
		{name: "inner zip kept", specName: "my.zip.backup", want: "my.zip.backup.zip"},
		{name: "empty defaults", specName: "", want: "bundle.zip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zipPath, err := WriteBundle(t.TempDir(), BundleSpec{
				Name:     tt.specName,
				Runner:   runner,
				Manifest: m,
			})
			if err != nil {
				t.Fatal(err)
			}
			if filepath.Base(zipPath) != tt.want {
				t.Fatalf("zip = %s, want %s", filepath.Base(zipPath), tt.want)
			}
		})
	}
}

func TestWriteBundleSkipsMissingFiles(t *testing.T) {
	runner, m := scaffoldPair(t)

	zipPath, err := WriteBundle(t.TempDir(), BundleSpec{
		Name:     "sparse",
		Files:    []string{filepath.Join(t.TempDir(), "never-existed.py")},
		Runner:   runner,
		Manifest: m,
	})
	if err != nil {
		t.Fatal(err)
	}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if len(r.File) != 2 {
		t.Fatalf("entries = %d, want just the two metadata files", len(r.File))
	}
}
