package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/matrixhub/mcpb/internal"
)

// Represents the root command for the mcpb tool.
var RootCmd struct {
	Quiet   bool   `short:"q" help:"Suppress informational output."`
	Verbose bool   `short:"v" help:"Enable verbose output."`
	Debug   bool   `short:"d" help:"Enable debug output."`
	Root    string `help:"Override the default installation root." placeholder:"DIR"`

	Detect  DetectCmd  `cmd:"" help:"Inspect a project and report language and transport."`
	Init    InitCmd    `cmd:"" help:"Scaffold runner.json and mcp.server.json in a project."`
	Build   BuildCmd   `cmd:"" help:"Build a distributable bundle from a project."`
	Plan    PlanCmd    `cmd:"" help:"Emit an install plan for a built bundle."`
	Install InstallCmd `cmd:"" help:"Install a bundle, directory, or plan under an alias."`
	Run     RunCmd     `cmd:"" help:"Run an installed or packaged server in the foreground."`
	Probe   ProbeCmd   `cmd:"" help:"Smoke-test a server and exit."`
	Verify  VerifyCmd  `cmd:"" help:"Verify a bundle against a SHA-256 digest."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// Parses arguments, configures logging, and runs the selected subcommand.
func Execute() error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("Build, package, and install self-describing MCP server bundles."),
		kong.UsageOnError(),
		kong.Vars{
			"version": internal.VersionString(),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	configureLogger()

	return kongCtx.Run()
}

// Configures the global logger based on CLI flags.
func configureLogger() {
	debug := RootCmd.Debug || internal.IsDebug()
	quiet := RootCmd.Quiet || internal.IsQuiet()

	level := slog.LevelInfo
	if debug || RootCmd.Verbose {
		level = slog.LevelDebug
	} else if quiet {
		level = slog.LevelWarn
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	slog.SetDefault(slog.New(handler))
}
