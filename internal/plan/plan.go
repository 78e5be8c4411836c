package plan

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/matrixhub/mcpb/internal/integrity"
	"github.com/matrixhub/mcpb/internal/manifest"
	"github.com/matrixhub/mcpb/internal/paths"
)

// Digest prefix used in plan artifact references.
const digestPrefix = "sha256:"

// Where an artifact's content lives and how to check it.
type ArtifactSpec struct {
	URL    string `json:"url"`
	Digest string `json:"digest"` // "sha256:<hex>"
	Dest   string `json:"dest"`
}

// One fetchable artifact in a plan.
type Artifact struct {
	Kind string       `json:"kind"` // Only "zip" is emitted today.
	Spec ArtifactSpec `json:"spec"`
}

// Registration details a registry can use to pre-register the server.
type Registration struct {
	Server RegisteredServer `json:"server"`
}

type RegisteredServer struct {
	Name      string             `json:"name"`
	Transport manifest.Transport `json:"transport"`
	URL       string             `json:"url,omitempty"`
}

// An install plan: an addressable bundle plus registration hints.
type Plan struct {
	ID           string       `json:"id"` // "mcp_server:<name>@<version>"
	Artifacts    []Artifact   `json:"artifacts"`
	Registration Registration `json:"mcp_registration"`
}

// Checks the structural requirements a consumer relies on.
func (p *Plan) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidPlan)
	}
	if len(p.Artifacts) == 0 {
		return fmt.Errorf("%w: no artifacts", ErrInvalidPlan)
	}
	for _, a := range p.Artifacts {
		if a.Spec.URL == "" {
			return fmt.Errorf("%w: artifact %q has no url", ErrInvalidPlan, a.Kind)
		}
		hex := strings.TrimPrefix(a.Spec.Digest, digestPrefix)
		if !integrity.IsHex(hex) {
			return fmt.Errorf("%w: artifact %q has malformed digest %q", ErrInvalidPlan, a.Kind, a.Spec.Digest)
		}
	}
	return nil
}

// Returns the plan's zip artifact, or nil when it carries none.
func (p *Plan) Archive() *Artifact {
	for i := range p.Artifacts {
		if p.Artifacts[i].Kind == "zip" {
			return &p.Artifacts[i]
		}
	}
	return nil
}

// Returns the artifact's digest without its algorithm prefix.
func (a *Artifact) DigestHex() string {
	return strings.TrimPrefix(a.Spec.Digest, digestPrefix)
}

// Builds an install plan for a local bundle archive.
//
// The archive is referenced by file:// URL and pinned to the digest read
// from its .sha256 sidecar; a bundle without a sidecar cannot be planned.
func Emit(zipPath, name, version string, transport manifest.Transport) (*Plan, error) {
	abs, err := filepath.Abs(zipPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlan, err)
	}

	body, err := os.ReadFile(abs + ".sha256")
	if err != nil {
		return nil, fmt.Errorf("%w: missing digest sidecar for %s: %w", ErrPlan, abs, err)
	}
	hex := integrity.Normalize(string(body))
	if !integrity.IsHex(hex) {
		return nil, fmt.Errorf("%w: sidecar for %s does not hold a digest", ErrPlan, abs)
	}

	if name == "" {
		name = "unnamed"
	}
	if version == "" {
		version = manifest.DefaultVersion
	}

	server := RegisteredServer{Name: name, Transport: transport}
	if transport == manifest.TransportSSE {
		server.URL = manifest.DefaultSSEURL
	}

	fileURL := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}

	p := &Plan{
		ID: fmt.Sprintf("mcp_server:%s@%s", name, version),
		Artifacts: []Artifact{{
			Kind: "zip",
			Spec: ArtifactSpec{
				URL:    fileURL.String(),
				Digest: digestPrefix + hex,
				Dest:   "server",
			},
		}},
		Registration: Registration{Server: server},
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Serializes the plan as indented JSON with a trailing newline.
func (p *Plan) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlan, err)
	}
	return append(data, '\n'), nil
}

// Writes the plan to path.
func (p *Plan) Write(path string) error {
	data, err := p.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, paths.DefaultFileMode); err != nil {
		return fmt.Errorf("%w: %w", ErrPlan, err)
	}
	return nil
}

// Loads and validates a plan file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlan, err)
	}

	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
