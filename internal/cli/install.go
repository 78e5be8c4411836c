package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/matrixhub/mcpb/internal/installer"
)

// Represents the 'mcpb install' command.
type InstallCmd struct {
	Source   string        `arg:"" help:"Bundle zip (path or URL), project directory, or install plan."`
	As       string        `name:"as" help:"Alias to install under. Defaults to the source's base name." placeholder:"ALIAS"`
	Force    bool          `help:"Replace an existing installation."`
	NoProbe  bool          `help:"Skip the post-install smoke probe."`
	NoVerify bool          `help:"Skip digest verification."`
	Env      []string      `short:"e" help:"Environment overrides for the probe. Repeatable; later entries win." placeholder:"KEY=VAL"`
	Port     int           `help:"Port exported to the server during the probe." placeholder:"N"`
	Timeout  time.Duration `default:"10s" help:"Probe readiness deadline."`
}

// Executes the install command.
func (c *InstallCmd) Run(ctx context.Context) error {
	inst := newInstaller()

	alias := c.As
	if alias == "" {
		alias = defaultAlias(c.Source)
	}

	result, err := inst.Install(ctx, installer.Options{
		Source:  c.Source,
		Alias:   alias,
		Verify:  !c.NoVerify,
		Probe:   !c.NoProbe,
		Force:   c.Force,
		Timeout: c.Timeout,
		Env:     c.Env,
		Port:    c.Port,
	})
	if err != nil {
		return err
	}

	if result.ProbeErr != nil {
		slog.Warn("installed, but the server did not come up healthy", "error", result.ProbeErr)
	}

	fmt.Printf("installed %s@%s at %s\n", result.Record.Alias, result.Record.Version, result.Path)
	return nil
}

// Creates an installer honoring the root override flag.
func newInstaller() *installer.Installer {
	inst := installer.New()
	if RootCmd.Root != "" {
		inst.Root = RootCmd.Root
		inst.Staging = "" // Keep staging on the same filesystem as the override.
	}
	return inst
}

// Derives an alias from an install source.
func defaultAlias(source string) string {
	base := path.Base(strings.TrimSuffix(strings.TrimRight(source, "/"), ".zip"))
	if i := strings.LastIndex(base, "@"); i > 0 {
		base = base[:i]
	}
	base = strings.TrimSuffix(base, ".git")
	if base == "" || base == "." || base == "/" {
		return "server"
	}
	return base
}
