package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (

	// File name of the bundle manifest inside a bundle.
	ManifestFile = "mcp.server.json"

	// Schema version written into new manifests.
	SchemaVersion = "1.0"

	// Version assumed when a manifest does not declare one. The effective
	// version determines the installation path, so two installs without an
	// explicit version land on the same directory.
	DefaultVersion = "0.0.0"
)

// Describes one transport endpoint an installed server exposes.
type TransportDesc struct {
	Type Transport `json:"type"` // Transport kind: "sse" or "stdio".
	URL  *string   `json:"url"`  // Endpoint URL, null for stdio.
}

// Records how a bundle was produced.
type BuildInfo struct {
	Lang   string `json:"lang"`   // Source language (e.g., "python", "node").
	Runner string `json:"runner"` // Toolchain used for dependencies (e.g., "pip", "npm").
}

// Self-describing metadata for an installed server.
type Manifest struct {
	SchemaVersion string          `json:"schemaVersion"` // Manifest schema version.
	Name          string          `json:"name"`          // Server name.
	Version       string          `json:"version"`       // Semantic version string. Empty means [DefaultVersion].
	Transports    []TransportDesc `json:"transports"`    // Exposed transport endpoints.
	Tools         []string        `json:"tools"`         // Declared tool names.
	Limits        Limits          `json:"limits"`        // Resource limits.
	Security      Security        `json:"security"`      // Security posture.
	Build         BuildInfo       `json:"build"`         // Build provenance.
}

// Checks the manifest's structural invariants.
func (m *Manifest) Validate() error {
	if m.SchemaVersion == "" {
		return fmt.Errorf("%w: schemaVersion is required", ErrInvalidManifest)
	}
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidManifest)
	}
	if len(m.Transports) == 0 {
		return fmt.Errorf("%w: at least one transport is required", ErrInvalidManifest)
	}
	for _, tr := range m.Transports {
		switch tr.Type {
		case TransportSSE, TransportStdio:
		default:
			return fmt.Errorf("%w: unknown transport %q", ErrInvalidManifest, tr.Type)
		}
	}
	return nil
}

// Returns the declared version, or [DefaultVersion] if none is set.
func (m *Manifest) EffectiveVersion() string {
	if m.Version == "" {
		return DefaultVersion
	}
	return m.Version
}

// Loads and validates the bundle manifest from a bundle directory.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Writes the bundle manifest into a bundle directory.
func (m *Manifest) Write(dir string) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, ManifestFile), m)
}

// Reports whether a directory contains both a runner specification and a
// bundle manifest.
//
// Synthesis is all-or-nothing: a directory with only one of the two files is
// treated as missing metadata so the pair is never partially synthesized.
func HasMetadata(dir string) bool {
	return fileExists(filepath.Join(dir, RunnerFile)) &&
		fileExists(filepath.Join(dir, ManifestFile))
}

// Whether path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
