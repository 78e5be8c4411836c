package probe

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/matrixhub/mcpb/internal/manifest"
)

const (

	// Interval between liveness checks.
	pollInterval = 250 * time.Millisecond

	// How long a stdio server must survive to count as ready. No protocol
	// handshake is attempted; surviving startup is the readiness signal.
	stdioReadyAfter = time.Second

	// Grace period between SIGTERM and SIGKILL when stopping the child.
	terminateGrace = 2 * time.Second

	// Environment variable used to inject the requested port.
	portVariable = "PORT"
)

// Supervision mode.
type Mode string

const (
	// Terminate the child once it is ready and return.
	ModeProbe Mode = "probe"

	// Block until the child exits on its own once it is ready.
	ModeForeground Mode = "foreground"
)

// Controls a supervised run.
type Options struct {
	WorkDir    string        // Working directory for the child, typically the install root.
	Env        []string      // Extra KEY=VAL overrides. Later entries win on collision.
	Port       int           // When non-zero, injected as the PORT variable.
	Timeout    time.Duration // Readiness deadline.
	Mode       Mode          // Probe or foreground.
	Handshaker Handshaker    // Optional protocol handshake. Nil means no handshake.
	Client     *http.Client  // HTTP client for SSE health checks. Nil uses a short-timeout default.
}

// Performs an optional protocol-level handshake against a ready server.
//
// Implementations must treat failure as advisory: the supervisor logs a
// handshake error but never turns it into a fatal result.
type Handshaker interface {
	Handshake(ctx context.Context, runner *manifest.Runner, workDir string) error
}

// Launches the server described by runner and supervises it to readiness.
//
// The child starts in opts.WorkDir with the ambient environment merged with
// the runner's declared env, then opts.Env (later entries win), then the
// injected port variable. The supervisor polls every 250 ms: a child exit
// before readiness is always fatal with [ErrEarlyExit], SSE servers become
// ready on a 200 from their health endpoint, stdio servers become ready by
// surviving one second, and [ErrReadinessTimeout] is returned when the
// deadline passes first.
//
// In probe mode the child is terminated once ready; in foreground mode Run
// blocks until the child exits on its own and propagates its exit. The
// child is cleaned up on every path.
func Run(ctx context.Context, runner *manifest.Runner, opts Options) error {
	if err := runner.Validate(); err != nil {
		return err
	}

	cmd := exec.Command(runner.Command[0], runner.Command[1:]...)
	cmd.Dir = opts.WorkDir
	cmd.Env = buildEnv(runner, opts)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %w", ErrSupervisor, err)
	}

	slog.Debug("server started", "pid", cmd.Process.Pid, "command", runner.Command, "mode", opts.Mode)

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	terminated := false
	defer func() {
		if !terminated {
			terminate(cmd, done)
		}
	}()

	if err := awaitReady(ctx, runner, opts, cmd, done); err != nil {
		return err
	}

	if opts.Handshaker != nil {
		if err := opts.Handshaker.Handshake(ctx, runner, opts.WorkDir); err != nil {
			slog.Warn("handshake failed", "error", err)
		}
	}

	if opts.Mode == ModeForeground {
		terminated = true
		return waitForeground(ctx, cmd, done)
	}

	terminate(cmd, done)
	terminated = true

	slog.Info("probe complete", "command", runner.Command)
	return nil
}

// Polls the child until it is ready, exits, or the deadline passes.
func awaitReady(ctx context.Context, runner *manifest.Runner, opts Options, cmd *exec.Cmd, done <-chan error) error {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: pollInterval}
	}

	healthURL := ""
	if runner.Type == manifest.TransportSSE {
		healthURL = HealthURL(*runner.URL)
	}

	deadline := time.Now().Add(opts.Timeout)
	started := time.Now()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrSupervisor, ctx.Err())

		case err := <-done:
			return fmt.Errorf("%w: exit code %d", ErrEarlyExit, exitCode(cmd, err))

		case <-ticker.C:
			// The child may have exited in the same instant the tick fired;
			// the select picks arbitrarily, so check the exit channel before
			// declaring readiness.
			select {
			case err := <-done:
				return fmt.Errorf("%w: exit code %d", ErrEarlyExit, exitCode(cmd, err))
			default:
			}

			switch runner.Type {
			case manifest.TransportSSE:
				if healthy(ctx, client, healthURL) {
					slog.Debug("server ready", "health", healthURL)
					return nil
				}
			case manifest.TransportStdio:
				if time.Since(started) >= stdioReadyAfter {
					slog.Debug("server ready", "alive", time.Since(started).Truncate(time.Millisecond))
					return nil
				}
			}

			if time.Now().After(deadline) {
				return fmt.Errorf("%w: not ready after %s", ErrReadinessTimeout, opts.Timeout)
			}
		}
	}
}

// Blocks until the child exits on its own and propagates its exit status.
// Context cancellation stops the child first.
func waitForeground(ctx context.Context, cmd *exec.Cmd, done <-chan error) error {
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSupervisor, err)
		}
		return nil
	case <-ctx.Done():
		terminate(cmd, done)
		return fmt.Errorf("%w: %w", ErrSupervisor, ctx.Err())
	}
}

// Performs a single liveness check against the health endpoint.
func healthy(ctx context.Context, client *http.Client, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Stops the child, escalating from SIGTERM to SIGKILL.
//
// Termination is best-effort: the child's own subprocesses, if any, are not
// reaped.
func terminate(cmd *exec.Cmd, done <-chan error) {
	if cmd.Process == nil {
		return
	}

	if cmd.ProcessState != nil {
		return // Already exited.
	}

	cmd.Process.Signal(syscall.SIGTERM)

	select {
	case <-done:
	case <-time.After(terminateGrace):
		cmd.Process.Kill()
		<-done
	}
}

// Returns the child's exit code from a wait result.
func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}

// Derives the readiness URL from an SSE runner's callback URL.
//
// The conventional message endpoint suffix is replaced with the health
// path; URLs without the suffix probe the server root's health path.
func HealthURL(callbackURL string) string {
	const messageSuffix = "/messages/"
	const healthPath = "/healthz"

	if strings.HasSuffix(callbackURL, messageSuffix) {
		return strings.TrimSuffix(callbackURL, messageSuffix) + healthPath
	}
	return strings.TrimRight(callbackURL, "/") + healthPath
}

// Builds the child environment.
//
// Later sources win on key collision: ambient process environment, then the
// runner's declared env, then explicit overrides, then the injected port.
func buildEnv(runner *manifest.Runner, opts Options) []string {
	overrides := make([]string, 0, len(runner.Env)+len(opts.Env)+1)
	for k, v := range runner.Env {
		overrides = append(overrides, k+"="+v)
	}
	overrides = append(overrides, opts.Env...)
	if opts.Port != 0 {
		overrides = append(overrides, portVariable+"="+strconv.Itoa(opts.Port))
	}

	return mergeEnv(os.Environ(), overrides)
}

// Merges override env vars on top of a base env slice.
//
// Entries are KEY=VAL strings; later entries win on key collision and
// malformed entries are skipped. Relative order of overrides is preserved
// so that repeatable CLI flags behave predictably.
func mergeEnv(base, overrides []string) []string {
	index := make(map[string]int, len(base)+len(overrides))
	merged := make([]string, 0, len(base)+len(overrides))

	for _, entry := range append(append([]string{}, base...), overrides...) {
		k, _, ok := strings.Cut(entry, "=")
		if !ok || k == "" {
			continue
		}
		if i, seen := index[k]; seen {
			merged[i] = entry
			continue
		}
		index[k] = len(merged)
		merged = append(merged, entry)
	}

	return merged
}
