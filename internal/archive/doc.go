// Package archive packs and unpacks zip server bundles.
//
// Extraction treats archive content as untrusted. Member paths are rejected
// when absolute or containing parent-directory segments, resolved targets
// must remain strict descendants of the canonicalized destination (closing
// symlink tricks that string-prefix checks miss), individual members are
// capped in size, and restored permissions are stripped of setuid/setgid
// bits. Extraction is not transactional; callers extract into disposable
// staging directories.
//
// The bundle writer produces the inverse artifact at build time: a zip
// containing the server files plus runner.json and mcp.server.json, with a
// ".sha256" digest sidecar for later verification.
package archive
