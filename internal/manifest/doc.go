// Package manifest defines the typed metadata carried by server bundles.
//
// A bundle is described by two JSON files: runner.json (the [Runner]
// specification, which tells the supervisor how to launch the server) and
// mcp.server.json (the [Manifest], self-describing capability metadata).
// After a successful install a third file, runner.lock.json (the [Record]),
// captures provenance: alias, version, timestamp, source, and digest.
//
// Structural invariants are enforced at construction time via Validate
// rather than discovered later through schema validation: a runner's
// command must be non-empty, and a callback URL is required for the sse
// transport and forbidden for stdio.
//
// Example usage:
//
//	runner, err := manifest.LoadRunner(dir)
//	if err != nil {
//	    return err
//	}
//
//	m, err := manifest.LoadManifest(dir)
//	if err != nil {
//	    return err
//	}
//
//	fmt.Println(m.Name, m.EffectiveVersion(), runner.Type)
package manifest
