// Package installer commits server bundles into a versioned local store.
//
// An install stages its source into a disposable directory, completes the
// metadata there, and then publishes the result with a single directory
// rename. The store at <root>/<alias>/<version> therefore only ever holds
// fully formed installations; a crash mid-install leaves at worst a stale
// staging directory, never a partial install.
//
// Example usage:
//
//	inst := installer.New()
//	result, err := inst.Install(ctx, installer.Options{
//	    Source: "./dist/weather-0.2.0.zip",
//	    Alias:  "weather",
//	    Verify: true,
//	    Probe:  true,
//	    Timeout: 10 * time.Second,
//	})
//	if errdefs.IsAlreadyExists(err) {
//	    // Pass Force to replace the existing installation.
//	}
package installer
