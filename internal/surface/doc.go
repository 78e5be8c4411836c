// Package surface classifies install source strings.
//
// An install source may be a local or remote zip archive, a local or remote
// install-plan document, a local directory, or a source-control reference
// of the form "https://…repo.git@ref". Resolution is a pure classification:
// no network access, no side effects, only filesystem existence checks.
// Every input resolves to some surface; unresolvable strings fall back to a
// directory path so the caller can report a uniform not-found error.
package surface
