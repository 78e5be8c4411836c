package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matrixhub/mcpb/internal/detect"
)

// Represents the 'mcpb detect' command.
type DetectCmd struct {
	Path string `arg:"" optional:"" default:"." help:"Path to a source directory."`
}

// Executes the detect command.
func (c *DetectCmd) Run(ctx context.Context) error {
	report := detect.Project(c.Path)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
