package cli

import (
	"context"
	"fmt"

	"github.com/matrixhub/mcpb/internal/manifest"
	"github.com/matrixhub/mcpb/internal/plan"
)

// Represents the 'mcpb plan' command.
type PlanCmd struct {
	Bundle    string `arg:"" help:"Path to the bundle archive. Its .sha256 sidecar must exist."`
	Name      string `default:"unnamed" help:"Server name for the plan id and registration."`
	Version   string `name:"server-version" default:"0.0.0" help:"Server version for the plan id."`
	Transport string `default:"sse" enum:"sse,stdio" help:"Transport recorded in the registration."`
	Out       string `help:"Write the plan to a file instead of stdout." placeholder:"PATH"`
}

// Executes the plan command.
func (c *PlanCmd) Run(ctx context.Context) error {
	p, err := plan.Emit(c.Bundle, c.Name, c.Version, manifest.Transport(c.Transport))
	if err != nil {
		return err
	}

	if c.Out != "" {
		if err := p.Write(c.Out); err != nil {
			return err
		}
		fmt.Printf("plan written: %s\n", c.Out)
		return nil
	}

	data, err := p.Encode()
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}
