package installer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/matrixhub/mcpb/internal/detect"
	"github.com/matrixhub/mcpb/internal/manifest"
	"github.com/matrixhub/mcpb/internal/paths"
	"github.com/matrixhub/mcpb/internal/probe"
	"github.com/matrixhub/mcpb/internal/surface"
)

// Installs server bundles into a versioned on-disk store.
//
// The installs root is an explicit field rather than ambient state so that
// callers (and tests) can isolate stores. Staging directories default to a
// hidden sibling under the root, keeping them on the same filesystem as the
// final paths so the commit rename stays atomic.
type Installer struct {
	Root       string           // Root of the installation store. Empty uses the platform default.
	Staging    string           // Directory for staging trees. Empty uses <root>/.staging.
	Client     *http.Client     // HTTP client for downloads and digest side-channels. Nil uses a default.
	Handshaker probe.Handshaker // Optional handshake passed through to probes.
}

// Creates an installer backed by the platform-default store locations.
func New() *Installer {
	return &Installer{
		Root:    paths.InstallsRoot(),
		Staging: paths.StagingRoot(),
	}
}

// Controls a single install invocation.
type Options struct {
	Source  string        // Install source: zip path/URL, directory, or git reference.
	Alias   string        // Alias the installation is stored under.
	Verify  bool          // Whether an available digest source must match.
	Probe   bool          // Whether to smoke-test the installed server after commit.
	Force   bool          // Whether to replace an existing installation.
	Timeout time.Duration // Readiness deadline for the probe.
	Env     []string      // KEY=VAL overrides for the probe. Later entries win.
	Port    int           // Port injected during the probe, when non-zero.
}

// Outcome of a successful install.
//
// ProbeErr reports an advisory post-commit probe failure: the installation
// is committed and recorded, but the server did not come up healthy.
type Result struct {
	Record   *manifest.Record // The persisted install record.
	Path     string           // Final installation directory.
	ProbeErr error            // Non-nil when the advisory probe failed.
}

// Installs a source into the store under <root>/<alias>/<version>.
//
// The pipeline is strictly sequential: resolve the surface, stage its
// content into a fresh disposable directory, synthesize metadata if the
// tree carries none, commit the staging directory into place with a single
// atomic rename, optionally probe the committed install, and write the
// lock record. Any failure before the commit removes the staging directory
// so no trace of the attempt remains.
//
// Re-installing an existing alias/version without force fails with
// [ErrAlreadyInstalled] and leaves the existing installation untouched;
// force removes it before the rename.
func (inst *Installer) Install(ctx context.Context, opts Options) (*Result, error) {
	surf := surface.Resolve(opts.Source)

	slog.Info("installing",
		"source", opts.Source,
		"alias", opts.Alias,
		"surface", surf.Kind,
	)

	stagingDir, err := inst.newStagingDir()
	if err != nil {
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			os.RemoveAll(stagingDir)
		}
	}()

	bundleSHA, err := inst.stage(ctx, surf, stagingDir, opts.Verify)
	if err != nil {
		return nil, err
	}

	runner, m, err := inst.ensureMetadata(stagingDir, opts.Alias)
	if err != nil {
		return nil, err
	}

	version := m.EffectiveVersion()
	finalDir := filepath.Join(inst.Root, opts.Alias, version)

	if err := inst.commit(stagingDir, finalDir, opts.Force); err != nil {
		return nil, err
	}
	committed = true

	slog.Info("committed", "path", finalDir, "version", version)

	var probeErr error
	if opts.Probe {
		probeErr = probe.Run(ctx, runner, probe.Options{
			WorkDir:    finalDir,
			Env:        opts.Env,
			Port:       opts.Port,
			Timeout:    opts.Timeout,
			Mode:       probe.ModeProbe,
			Handshaker: inst.Handshaker,
		})
		if probeErr != nil {
			slog.Warn("post-install probe failed", "error", probeErr)
		}
	}

	record := &manifest.Record{
		Alias:        opts.Alias,
		Version:      version,
		InstalledAt:  time.Now().UTC(),
		Source:       opts.Source,
		BundleSHA256: bundleSHA,
		Runner:       *runner,
	}
	if err := record.Write(finalDir); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInstall, err)
	}

	return &Result{Record: record, Path: finalDir, ProbeErr: probeErr}, nil
}

// Creates a fresh staging directory under the configured staging parent.
func (inst *Installer) newStagingDir() (string, error) {
	parent := inst.Staging
	if parent == "" {
		parent = filepath.Join(inst.Root, ".staging")
	}

	if err := os.MkdirAll(parent, paths.DefaultDirMode); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInstall, err)
	}

	dir, err := os.MkdirTemp(parent, "install-")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInstall, err)
	}
	return dir, nil
}

// Loads metadata from the staged tree, synthesizing it when absent.
//
// Synthesis runs only when both the runner specification and the bundle
// manifest are missing; a tree with either file present is loaded as-is so
// partial metadata is never silently completed.
func (inst *Installer) ensureMetadata(stagingDir, alias string) (*manifest.Runner, *manifest.Manifest, error) {
	if manifest.HasMetadata(stagingDir) {
		runner, err := manifest.LoadRunner(stagingDir)
		if err != nil {
			return nil, nil, err
		}
		m, err := manifest.LoadManifest(stagingDir)
		if err != nil {
			return nil, nil, err
		}
		return runner, m, nil
	}

	report := detect.Project(stagingDir)

	transport := report.Transport
	if transport == "" {
		transport = manifest.TransportStdio
	}
	lang := report.Lang
	if lang == "" {
		lang = "python"
	}

	slog.Debug("synthesizing metadata",
		"alias", alias,
		"lang", lang,
		"transport", transport,
		"score", report.Score,
	)

	runner, m, err := manifest.WriteScaffolds(stagingDir, manifest.ScaffoldOptions{
		Transport: transport,
		Lang:      lang,
		Name:      alias,
		Command:   entryCommand(lang, report.Entrypoints),
	})
	if err != nil {
		return nil, nil, err
	}
	return runner, m, nil
}

// Moves the staged tree into its final location.
//
// The rename is the only operation that creates or replaces the final path,
// so the installation is never observable half-populated. With force, an
// existing installation is removed first; without it, an existing path is a
// conflict.
func (inst *Installer) commit(stagingDir, finalDir string, force bool) error {
	if err := os.MkdirAll(filepath.Dir(finalDir), paths.DefaultDirMode); err != nil {
		return fmt.Errorf("%w: %w", ErrInstall, err)
	}

	if _, err := os.Stat(finalDir); err == nil {
		if !force {
			return fmt.Errorf("%w: %s", ErrAlreadyInstalled, finalDir)
		}
		if err := os.RemoveAll(finalDir); err != nil {
			return fmt.Errorf("%w: %w", ErrInstall, err)
		}
	}

	if err := os.Rename(stagingDir, finalDir); err != nil {
		return fmt.Errorf("%w: %w", ErrInstall, err)
	}
	return nil
}

// Returns the launch command for a detected entry file, or nil to let
// scaffolding pick the language default.
func entryCommand(lang string, entrypoints []string) []string {
	if len(entrypoints) == 0 {
		return nil
	}

	interpreter := "python"
	if lang == "node" {
		interpreter = "node"
	}
	return []string{interpreter, entrypoints[0]}
}
