package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matrixhub/mcpb/internal/probe"
)

// Represents the 'mcpb run' command.
type RunCmd struct {
	Target  string        `arg:"" help:"Bundle zip, server directory, or installed alias."`
	Env     []string      `short:"e" help:"Environment overrides. Repeatable; later entries win." placeholder:"KEY=VAL"`
	Port    int           `help:"Port exported to the server." placeholder:"N"`
	Timeout time.Duration `default:"10s" help:"Readiness deadline."`
}

// Executes the run command.
//
// The server is supervised to readiness and then left running until it
// exits or the process is interrupted.
func (c *RunCmd) Run(ctx context.Context) error {
	return supervise(ctx, c.Target, c.Env, c.Port, c.Timeout, probe.ModeForeground)
}

// Resolves a target and supervises it in the given mode.
func supervise(ctx context.Context, targetArg string, env []string, port int, timeout time.Duration, mode probe.Mode) error {
	target, err := probe.PrepareTarget(resolveTarget(targetArg))
	if err != nil {
		return err
	}
	defer target.Cleanup()

	return probe.Run(ctx, target.Runner, probe.Options{
		WorkDir: target.WorkDir,
		Env:     env,
		Port:    port,
		Timeout: timeout,
		Mode:    mode,
	})
}

// Maps an installed alias to its newest version directory.
//
// Paths that exist on disk are used as-is; anything else is tried as an
// alias under the installation root. An alias with multiple installed
// versions resolves to the most recently committed one. Unresolvable
// targets pass through unchanged so the supervisor reports the miss.
func resolveTarget(target string) string {
	if _, err := os.Stat(target); err == nil {
		return target
	}

	aliasDir := filepath.Join(newInstaller().Root, target)
	entries, err := os.ReadDir(aliasDir)
	if err != nil {
		return target
	}

	newest := ""
	var newestTime time.Time
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = entry.Name()
			newestTime = info.ModTime()
		}
	}
	if newest == "" {
		return target
	}

	return filepath.Join(aliasDir, newest)
}

// Represents the 'mcpb probe' command.
type ProbeCmd struct {
	Target  string        `arg:"" help:"Bundle zip, server directory, or installed alias."`
	Env     []string      `short:"e" help:"Environment overrides. Repeatable; later entries win." placeholder:"KEY=VAL"`
	Port    int           `help:"Port exported to the server." placeholder:"N"`
	Timeout time.Duration `default:"10s" help:"Readiness deadline."`
}

// Executes the probe command.
func (c *ProbeCmd) Run(ctx context.Context) error {
	if err := supervise(ctx, c.Target, c.Env, c.Port, c.Timeout, probe.ModeProbe); err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}
