package bundle

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/matrixhub/mcpb/internal/archive"
	"github.com/matrixhub/mcpb/internal/detect"
	"github.com/matrixhub/mcpb/internal/integrity"
	"github.com/matrixhub/mcpb/internal/manifest"
	"github.com/matrixhub/mcpb/internal/paths"
)

// Controls a bundle build.
type Options struct {
	Name    string // Server name recorded in the manifest. Empty uses an existing manifest's name or "unnamed".
	Version string // Server version. Empty uses the manifest default.
	OutDir  string // Output directory for the archive. Empty uses the platform dist dir.
}

// A built bundle on disk.
type Artifact struct {
	ZipPath string        // Path to the archive.
	Sidecar string        // Path to the digest sidecar.
	Digest  string        // Lowercase hex digest of the archive.
	Report  detect.Report // The detection report the build was based on.
}

// Builds a distributable bundle from the project at root.
//
// Detection picks the language and transport, the buildpack selects the
// server files to ship, and metadata is loaded from the project when
// present or synthesized otherwise. The synthesized metadata is embedded
// in the archive only; the source tree is never modified. The archive is
// written together with its digest sidecar.
func Build(root string, opts Options) (*Artifact, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: project root %s", ErrBuild, root)
	}

	report := detect.Project(root)
	slog.Debug("project detected",
		"lang", report.Lang,
		"transport", report.Transport,
		"score", report.Score,
	)

	runner, m, err := projectMetadata(root, report, opts)
	if err != nil {
		return nil, err
	}

	outDir := opts.OutDir
	if outDir == "" {
		outDir = paths.DistDir()
	}

	zipPath, err := archive.WriteBundle(outDir, archive.BundleSpec{
		Name:     bundleName(m.Name, runner.Type),
		Files:    collectFiles(root, report),
		Runner:   runner,
		Manifest: m,
	})
	if err != nil {
		return nil, err
	}

	digest, err := integrity.Digest(zipPath)
	if err != nil {
		return nil, err
	}

	slog.Info("bundle written", "path", zipPath, "digest", digest)

	return &Artifact{
		ZipPath: zipPath,
		Sidecar: zipPath + ".sha256",
		Digest:  digest,
		Report:  report,
	}, nil
}

// Loads the project's metadata pair, synthesizing it when absent.
func projectMetadata(root string, report detect.Report, opts Options) (*manifest.Runner, *manifest.Manifest, error) {
	if manifest.HasMetadata(root) {
		runner, err := manifest.LoadRunner(root)
		if err != nil {
			return nil, nil, err
		}
		m, err := manifest.LoadManifest(root)
		if err != nil {
			return nil, nil, err
		}
		return runner, m, nil
	}

	lang := report.Lang
	if lang == "" {
		lang = "python"
	}
	transport := report.Transport
	if transport == "" {
		transport = manifest.TransportStdio
	}
	name := opts.Name
	if name == "" {
		name = "unnamed"
	}

	runner, m := manifest.Scaffold(manifest.ScaffoldOptions{
		Transport: transport,
		Lang:      lang,
		Name:      name,
		Version:   opts.Version,
		Command:   launchCommand(root, lang, transport, report),
	})
	m.Build.Runner = toolchain(root, lang)
	return runner, m, nil
}

// Returns the server files to ship, per language.
//
// Python bundles ship the entry file plus requirements.txt when present;
// node bundles ship the entry file plus package.json. Missing files are
// dropped silently; the archive writer skips paths it cannot stat anyway.
func collectFiles(root string, report detect.Report) []string {
	lang := report.Lang
	if lang == "" {
		lang = "python"
	}

	files := []string{filepath.Join(root, entryFile(root, lang, report))}

	extra := "requirements.txt"
	if lang == "node" {
		extra = "package.json"
	}
	if _, err := os.Stat(filepath.Join(root, extra)); err == nil {
		files = append(files, filepath.Join(root, extra))
	}

	return files
}

// Picks the server entry file relative to root.
func entryFile(root, lang string, report detect.Report) string {
	if len(report.Entrypoints) > 0 {
		return report.Entrypoints[0]
	}

	if lang == "node" {
		for _, candidate := range []string{"server.js", filepath.Join("src", "server.js"), "index.js"} {
			if _, err := os.Stat(filepath.Join(root, candidate)); err == nil {
				return candidate
			}
		}
		return "server.js"
	}

	if report.Transport == manifest.TransportSSE {
		return "server_sse.py"
	}
	return "server.py"
}

// Returns the launch command for the bundled entry file.
func launchCommand(root, lang string, transport manifest.Transport, report detect.Report) []string {
	interpreter := "python"
	if lang == "node" {
		interpreter = "node"
	}
	// Entries are stored flat in the archive, so only the base name runs.
	return []string{interpreter, filepath.Base(entryFile(root, lang, report))}
}

// Identifies the package toolchain for the build info block.
func toolchain(root, lang string) string {
	if lang == "node" {
		return "npm"
	}
	if _, err := os.Stat(filepath.Join(root, "uv.lock")); err == nil {
		return "uv"
	}
	return "pip"
}

// Returns "<name>-<transport>" with spaces flattened, the conventional
// archive base name.
func bundleName(name string, transport manifest.Transport) string {
	if name == "" {
		name = "bundle"
	}
	return strings.ReplaceAll(name, " ", "-") + "-" + string(transport)
}
