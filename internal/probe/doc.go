// Package probe launches installed servers and supervises them to
// readiness.
//
// A supervised run moves through a small state machine: starting, then
// ready, exited, or timed out. The supervisor polls on a fixed interval; an
// early child exit is always fatal, SSE servers signal readiness through
// their HTTP health endpoint, and stdio servers signal readiness by
// surviving startup. Probe mode stops the child once it is ready, which is
// the post-install smoke check; foreground mode keeps it running for
// interactive use.
//
// A deeper protocol handshake is an optional extension point via the
// [Handshaker] interface. Handshake failures are logged and never fatal.
//
// Example usage:
//
//	target, err := probe.PrepareTarget(installDir)
//	if err != nil {
//	    return err
//	}
//	defer target.Cleanup()
//
//	err = probe.Run(ctx, target.Runner, probe.Options{
//	    WorkDir: target.WorkDir,
//	    Timeout: 10 * time.Second,
//	    Mode:    probe.ModeProbe,
//	})
package probe
