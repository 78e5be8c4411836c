package cli

import (
	"context"
	"fmt"

	"github.com/matrixhub/mcpb/internal/bundle"
)

// Represents the 'mcpb build' command.
type BuildCmd struct {
	Path    string `arg:"" optional:"" default:"." help:"Path to the project root."`
	Name    string `help:"Server name recorded in the bundle manifest." placeholder:"NAME"`
	Version string `name:"server-version" help:"Server version recorded in the bundle manifest." placeholder:"X.Y.Z"`
	Out     string `help:"Output directory for the archive. Defaults to the dist cache." placeholder:"DIR"`
}

// Executes the build command.
func (c *BuildCmd) Run(ctx context.Context) error {
	artifact, err := bundle.Build(c.Path, bundle.Options{
		Name:    c.Name,
		Version: c.Version,
		OutDir:  c.Out,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s\nsha256:%s\n", artifact.ZipPath, artifact.Digest)
	return nil
}
