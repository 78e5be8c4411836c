package plan

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matrixhub/mcpb/internal/manifest"
)

const testDigest = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// Writes a fake bundle and its sidecar, returning the zip path.
func fakeBundle(t *testing.T, sidecar string) string {
	t.Helper()
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "weather-sse.zip")
	if err := os.WriteFile(zipPath, []byte("zip bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if sidecar != "" {
		if err := os.WriteFile(zipPath+".sha256", []byte(sidecar), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return zipPath
}

func TestEmit(t *testing.T) {
	zipPath := fakeBundle(t, testDigest+"\n")

	p, err := Emit(zipPath, "weather", "0.2.0", manifest.TransportSSE)
	if err != nil {
		t.Fatal(err)
	}

	if p.ID != "mcp_server:weather@0.2.0" {
		t.Fatalf("id = %q", p.ID)
	}

	artifact := p.Archive()
	if artifact == nil {
		t.Fatal("plan has no zip artifact")
	}
	if artifact.Spec.Digest != "sha256:"+testDigest {
		t.Fatalf("digest = %q, want prefixed sidecar digest", artifact.Spec.Digest)
	}
	if artifact.DigestHex() != testDigest {
		t.Fatalf("DigestHex() = %q", artifact.DigestHex())
	}
	if !strings.HasPrefix(artifact.Spec.URL, "file://") {
		t.Fatalf("url = %q, want a file URL", artifact.Spec.URL)
	}
	if artifact.Spec.Dest != "server" {
		t.Fatalf("dest = %q, want server", artifact.Spec.Dest)
	}

	if p.Registration.Server.URL != manifest.DefaultSSEURL {
		t.Fatalf("registration url = %q, want the default SSE endpoint", p.Registration.Server.URL)
	}
}

func TestEmitStdioOmitsURL(t *testing.T) {
	p, err := Emit(fakeBundle(t, testDigest), "tool", "", manifest.TransportStdio)
	if err != nil {
		t.Fatal(err)
	}
	if p.Registration.Server.URL != "" {
		t.Fatalf("stdio registration url = %q, want empty", p.Registration.Server.URL)
	}
	if p.ID != "mcp_server:tool@"+manifest.DefaultVersion {
		t.Fatalf("id = %q, want the default version", p.ID)
	}
}

func TestEmitRequiresSidecar(t *testing.T) {
	if _, err := Emit(fakeBundle(t, ""), "x", "1.0.0", manifest.TransportSSE); !errors.Is(err, ErrPlan) {
		t.Fatalf("err = %v, want ErrPlan for a missing sidecar", err)
	}
}

func TestEmitRejectsGarbageSidecar(t *testing.T) {
	if _, err := Emit(fakeBundle(t, "404 not found"), "x", "1.0.0", manifest.TransportSSE); !errors.Is(err, ErrPlan) {
		t.Fatalf("err = %v, want ErrPlan for a non-digest sidecar", err)
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	p, err := Emit(fakeBundle(t, testDigest), "weather", "0.2.0", manifest.TransportSSE)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "install.json")
	if err := p.Write(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.ID != p.ID {
		t.Fatalf("id = %q, want %q", loaded.ID, p.ID)
	}
	if loaded.Archive() == nil || loaded.Archive().DigestHex() != testDigest {
		t.Fatal("artifact did not survive the round trip")
	}
}

func TestValidate(t *testing.T) {
	valid := Plan{
		ID: "mcp_server:x@1.0.0",
		Artifacts: []Artifact{{
			Kind: "zip",
			Spec: ArtifactSpec{URL: "file:///tmp/x.zip", Digest: "sha256:" + testDigest, Dest: "server"},
		}},
	}

	tests := []struct {
		name    string
		mutate  func(p *Plan)
		wantErr bool
	}{
		{name: "valid", mutate: func(p *Plan) {}},
		{name: "missing id", mutate: func(p *Plan) { p.ID = "" }, wantErr: true},
		{name: "no artifacts", mutate: func(p *Plan) { p.Artifacts = nil }, wantErr: true},
		{name: "missing url", mutate: func(p *Plan) { p.Artifacts[0].Spec.URL = "" }, wantErr: true},
		{name: "malformed digest", mutate: func(p *Plan) { p.Artifacts[0].Spec.Digest = "sha256:short" }, wantErr: true},
		{name: "unprefixed digest accepted", mutate: func(p *Plan) { p.Artifacts[0].Spec.Digest = testDigest }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			p.Artifacts = append([]Artifact{}, valid.Artifacts...)
			tt.mutate(&p)

			err := p.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPlan) {
					t.Fatalf("err = %v, want ErrInvalidPlan", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("err = %v, want ErrInvalidPlan", err)
	}
}
