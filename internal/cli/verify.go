package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/matrixhub/mcpb/internal/integrity"
)

// Represents the 'mcpb verify' command.
type VerifyCmd struct {
	Bundle string `arg:"" help:"Path to the bundle archive."`
	Sha256 string `arg:"" optional:"" help:"Expected digest, hex or sha256:<hex>. Defaults to the .sha256 sidecar."`
}

// Executes the verify command.
func (c *VerifyCmd) Run(ctx context.Context) error {
	expected := c.Sha256
	if expected == "" {
		sidecar, err := readDigestFile(c.Bundle + ".sha256")
		if err != nil {
			return err
		}
		expected = sidecar
	}

	if err := integrity.Verify(c.Bundle, expected); err != nil {
		return err
	}

	fmt.Println("sha256 verified")
	return nil
}

// Reads a digest from a sidecar file.
func readDigestFile(path string) (string, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("no expected digest given and no sidecar at %s: %w", path, err)
	}

	digest := integrity.Normalize(string(body))
	if !integrity.IsHex(digest) {
		return "", fmt.Errorf("sidecar %s does not hold a sha256 digest", path)
	}
	return digest, nil
}
