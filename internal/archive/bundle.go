package archive

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matrixhub/mcpb/internal/integrity"
	"github.com/matrixhub/mcpb/internal/manifest"
	"github.com/matrixhub/mcpb/internal/paths"
)

// Describes the contents of a bundle archive to be written.
type BundleSpec struct {
	Name     string             // Archive name without extension. Empty means "bundle".
	Files    []string           // Server files, stored at the archive root by base name.
	Runner   *manifest.Runner   // Runner specification, stored as runner.json.
	Manifest *manifest.Manifest // Bundle manifest, stored as mcp.server.json.
}

// Writes a zip bundle and its digest sidecar into outDir.
//
// Entries are sorted for stable output. The runner specification and bundle
// manifest are serialized into the archive alongside the server files. A
// sibling "<name>.zip.sha256" file holding the archive's lowercase hex
// digest is written last. Returns the path to the created archive.
func WriteBundle(outDir string, spec BundleSpec) (string, error) {
	if err := os.MkdirAll(outDir, paths.DefaultDirMode); err != nil {
		return "", fmt.Errorf("%w: %w", ErrBundle, err)
	}

	name := strings.TrimSuffix(spec.Name, ".zip")
	if name == "" {
		name = "bundle"
	}
	zipPath := filepath.Join(outDir, name+".zip")

	if err := writeZip(zipPath, spec); err != nil {
		os.Remove(zipPath)
		return "", err
	}

	digest, err := integrity.Digest(zipPath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBundle, err)
	}

	sidecar := zipPath + ".sha256"
	if err := os.WriteFile(sidecar, []byte(digest+"\n"), paths.DefaultFileMode); err != nil {
		return "", fmt.Errorf("%w: %w", ErrBundle, err)
	}

	return zipPath, nil
}

// Writes the archive itself.
func writeZip(zipPath string, spec BundleSpec) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBundle, err)
	}

	zw := zip.NewWriter(out)
	if err := writeEntries(zw, spec); err != nil {
		out.Close()
		return err
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("%w: %w", ErrBundle, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrBundle, err)
	}
	return nil
}

// Adds the server files and metadata entries to the archive.
func writeEntries(zw *zip.Writer, spec BundleSpec) error {
	for _, file := range dedupeSorted(spec.Files) {
		info, err := os.Stat(file)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if err := addFile(zw, file); err != nil {
			return err
		}
	}

	if err := addJSON(zw, manifest.RunnerFile, spec.Runner); err != nil {
		return err
	}
	return addJSON(zw, manifest.ManifestFile, spec.Manifest)
}

// Adds a host file to the archive under its base name.
func addFile(zw *zip.Writer, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBundle, err)
	}

	w, err := zw.Create(filepath.Base(file))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBundle, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%w: %w", ErrBundle, err)
	}
	return nil
}

// Serializes v as indented JSON and adds it to the archive under name.
func addJSON(zw *zip.Writer, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBundle, err)
	}

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBundle, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%w: %w", ErrBundle, err)
	}
	return nil
}

// Returns the unique absolute paths from files, sorted.
func dedupeSorted(files []string) []string {
	seen := make(map[string]bool, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			abs = f
		}
		if !seen[abs] {
			seen[abs] = true
			out = append(out, abs)
		}
	}
	sort.Strings(out)
	return out
}
