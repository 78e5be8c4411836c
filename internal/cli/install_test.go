package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultAlias(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{name: "zip path", source: "./dist/weather-sse.zip", want: "weather-sse"},
		{name: "zip url", source: "https://example.com/bundles/weather.zip", want: "weather"},
		{name: "directory", source: "/srv/projects/helper/", want: "helper"},
		{name: "git with ref", source: "https://github.com/acme/server.git@v1", want: "server"},
		{name: "git without ref", source: "https://github.com/acme/server.git", want: "server"},
		{name: "degenerate", source: "/", want: "server"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := defaultAlias(tt.source); got != tt.want {
				t.Fatalf("defaultAlias(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestResolveTarget(t *testing.T) {
	root := t.TempDir()
	RootCmd.Root = root
	defer func() { RootCmd.Root = "" }()

	older := filepath.Join(root, "svc", "1.0.0")
	newer := filepath.Join(root, "svc", "1.1.0")
	for _, dir := range []string{older, newer} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatal(err)
	}

	if got := resolveTarget("svc"); got != newer {
		t.Fatalf("resolveTarget(svc) = %s, want newest version %s", got, newer)
	}

	// Existing paths pass through untouched.
	if got := resolveTarget(older); got != older {
		t.Fatalf("resolveTarget(%s) = %s, want unchanged", older, got)
	}

	// Unknown aliases pass through for the supervisor to report.
	if got := resolveTarget("ghost"); got != "ghost" {
		t.Fatalf("resolveTarget(ghost) = %q, want passthrough", got)
	}
}
