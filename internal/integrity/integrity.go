package integrity

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/opencontainers/go-digest"
)

// Chunk size for streaming digest computation. Memory use is bounded by
// this regardless of file size.
const chunkSize = 1024 * 1024

// Computes the SHA-256 digest of the file at path.
//
// The file is streamed through the hash in fixed-size chunks. Returns the
// lowercase hex encoding without an algorithm prefix.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDigest, err)
	}
	defer f.Close()

	digester := digest.SHA256.Digester()
	if _, err := io.CopyBuffer(digester.Hash(), f, make([]byte, chunkSize)); err != nil {
		return "", fmt.Errorf("%w: %w", ErrDigest, err)
	}

	return digester.Digest().Encoded(), nil
}

// Verifies that the file at path matches the expected digest.
//
// The expected value may be bare hex or prefixed ("sha256:<hex>");
// comparison is case-insensitive. Returns [ErrDigestMismatch] carrying both
// values when they differ.
func Verify(path, expected string) error {
	got, err := Digest(path)
	if err != nil {
		return err
	}

	want := Normalize(expected)
	if got != want {
		return fmt.Errorf("%w: got %s, expected %s", ErrDigestMismatch, got, want)
	}

	return nil
}

// Normalizes an expected digest string for comparison.
//
// Strips surrounding whitespace and an optional "sha256:" prefix, and
// lowercases the hex.
func Normalize(expected string) string {
	s := strings.ToLower(strings.TrimSpace(expected))
	return strings.TrimPrefix(s, digest.SHA256.String()+":")
}

// Reports whether s is a bare lowercase hex SHA-256, the form [Normalize]
// produces.
//
// Used to reject garbage fetched from digest side-channels before it is
// treated as an expected value.
func IsHex(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}
