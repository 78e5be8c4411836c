// Package integrity computes and verifies content digests of bundle
// archives.
//
// Digests are SHA-256 and are streamed in fixed-size chunks so memory use
// stays bounded for arbitrarily large archives. Expected values accept both
// bare hex and the prefixed "sha256:<hex>" form; comparison is
// case-insensitive.
package integrity
