package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matrixhub/mcpb/internal/paths"
)

// Transport kinds supported by runner specifications.
type Transport string

const (
	// Long-lived HTTP connection transport (server-sent events).
	TransportSSE Transport = "sse"

	// Standard stream transport (stdin/stdout).
	TransportStdio Transport = "stdio"
)

// File name of the runner specification inside a bundle.
const RunnerFile = "runner.json"

// Default callback URL for SSE servers that do not declare one.
const DefaultSSEURL = "http://127.0.0.1:8000/messages/"

// Resource limits applied to an installed server.
type Limits struct {
	TimeoutMs   int `json:"timeoutMs"`   // Per-request timeout in milliseconds.
	MaxInputKB  int `json:"maxInputKB"`  // Maximum request size in KiB.
	MaxOutputKB int `json:"maxOutputKB"` // Maximum response size in KiB.
}

// Security posture declared for an installed server.
type Security struct {
	ReadOnlyDefault bool     `json:"readOnlyDefault"` // Whether tools default to read-only.
	FSAllowlist     []string `json:"fsAllowlist"`     // Filesystem paths the server may touch.
	EgressAllowlist []string `json:"egressAllowlist"` // Hosts the server may reach.
}

// Describes how to start an installed server.
//
// A runner is immutable once loaded: the installer and supervisor read it
// but never modify it. URL is a pointer so that stdio runners serialize the
// field as null, matching the on-disk format.
type Runner struct {
	Type     Transport         `json:"type"`     // Transport kind: "sse" or "stdio".
	Command  []string          `json:"command"`  // Program and arguments. Must be non-empty.
	URL      *string           `json:"url"`      // Callback URL. Required for sse, null for stdio.
	Env      map[string]string `json:"env"`      // Environment overrides applied at launch.
	Limits   Limits            `json:"limits"`   // Resource limits.
	Security Security          `json:"security"` // Security posture.
}

// Checks the runner's structural invariants.
//
// The command must be non-empty, the transport must be a known kind, and the
// URL must be present exactly when the transport is sse. Violations are
// wrapped in [ErrInvalidRunner] with the offending field named.
func (r *Runner) Validate() error {
	switch r.Type {
	case TransportSSE, TransportStdio:
	default:
		return fmt.Errorf("%w: unknown transport %q", ErrInvalidRunner, r.Type)
	}

	if len(r.Command) == 0 {
		return fmt.Errorf("%w: command must be a non-empty list", ErrInvalidRunner)
	}
	for _, arg := range r.Command {
		if arg == "" {
			return fmt.Errorf("%w: command contains an empty token", ErrInvalidRunner)
		}
	}

	hasURL := r.URL != nil && *r.URL != ""
	if r.Type == TransportSSE && !hasURL {
		return fmt.Errorf("%w: sse transport requires a url", ErrInvalidRunner)
	}
	if r.Type == TransportStdio && hasURL {
		return fmt.Errorf("%w: stdio transport must not set a url", ErrInvalidRunner)
	}

	return nil
}

// Loads and validates the runner specification from a bundle directory.
func LoadRunner(dir string) (*Runner, error) {
	data, err := os.ReadFile(filepath.Join(dir, RunnerFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRunner, err)
	}

	var r Runner
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRunner, err)
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	return &r, nil
}

// Writes the runner specification into a bundle directory.
//
// The runner is validated first so that invalid specifications are rejected
// at construction time rather than discovered by a later load.
func (r *Runner) Write(dir string) error {
	if err := r.Validate(); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, RunnerFile), r)
}

// Serializes v as indented JSON and writes it with the default file mode.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, byte(10))
	return os.WriteFile(path, data, paths.DefaultFileMode)
}
