package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/matrixhub/mcpb/internal/detect"
	"github.com/matrixhub/mcpb/internal/manifest"
	"github.com/matrixhub/mcpb/internal/paths"
)

// Represents the 'mcpb init' command.
type InitCmd struct {
	Path      string `arg:"" optional:"" default:"." help:"Path to the project root. Created if missing."`
	Transport string `default:"auto" enum:"auto,sse,stdio" help:"Transport to scaffold, or auto to infer from the tree."`
	Name      string `default:"unnamed" help:"Server name for the scaffolds."`
	Version   string `name:"server-version" default:"0.0.0" help:"Server version for the scaffolds."`
}

// Executes the init command.
//
// An explicit transport wins over detection; auto prefers what the tree
// looks like and falls back to SSE for empty projects.
func (c *InitCmd) Run(ctx context.Context) error {
	if err := os.MkdirAll(c.Path, paths.DefaultDirMode); err != nil {
		return err
	}

	report := detect.Project(c.Path)

	transport := manifest.Transport(c.Transport)
	if c.Transport == "auto" {
		transport = report.Transport
		if transport == "" {
			transport = manifest.TransportSSE
		}
	}

	var command []string
	if len(report.Entrypoints) > 0 {
		interpreter := "python"
		if report.Lang == "node" {
			interpreter = "node"
		}
		command = []string{interpreter, report.Entrypoints[0]}
	}

	if _, _, err := manifest.WriteScaffolds(c.Path, manifest.ScaffoldOptions{
		Transport: transport,
		Lang:      report.Lang,
		Name:      c.Name,
		Version:   c.Version,
		Command:   command,
	}); err != nil {
		return err
	}

	fmt.Printf("scaffolded: %s, %s\n", manifest.RunnerFile, manifest.ManifestFile)
	return nil
}
