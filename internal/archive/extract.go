package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/matrixhub/mcpb/internal/paths"
)

// Maximum uncompressed size of a single archive member.
const MaxMemberBytes = 128 << 20 // 128 MiB

// Unpacks a zip archive into the destination directory.
//
// Guards against hostile archive content: members with absolute paths or
// parent-directory segments fail with [ErrUnsafeMember], members whose
// resolved target escapes the destination (including via symlinked parents)
// fail with [ErrUnsafeMember], and members larger than [MaxMemberBytes]
// fail with [ErrOversizedMember]. Directory entries are skipped; directories
// are created implicitly as file entries need them.
//
// Extraction is not transactional. A failure partway through leaves the
// destination partially populated, so callers extract into a disposable
// staging directory and discard it wholesale on error.
func Extract(zipPath, dest string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArchive, err)
	}
	defer r.Close()

	if err := os.MkdirAll(dest, paths.DefaultDirMode); err != nil {
		return fmt.Errorf("%w: %w", ErrArchive, err)
	}

	destReal, err := canonicalize(dest)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArchive, err)
	}

	for _, member := range r.File {
		if err := extractMember(member, destReal); err != nil {
			return err
		}
	}

	return nil
}

// Extracts a single archive member into the canonicalized destination.
func extractMember(member *zip.File, destReal string) error {
	name := member.Name
	if name == "" || name == "." || member.FileInfo().IsDir() {
		return nil
	}

	rel, err := safeRelPath(name)
	if err != nil {
		return err
	}

	if member.UncompressedSize64 > MaxMemberBytes {
		return fmt.Errorf("%w: %s (%d bytes)", ErrOversizedMember, name, member.UncompressedSize64)
	}

	target := filepath.Join(destReal, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(target), paths.DefaultDirMode); err != nil {
		return fmt.Errorf("%w: %w", ErrArchive, err)
	}

	// Canonicalize the parent after creating it. String checks on the raw
	// member path do not catch a previously planted symlink redirecting a
	// subdirectory outside the destination.
	parentReal, err := canonicalize(filepath.Dir(target))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArchive, err)
	}
	if !within(destReal, parentReal) {
		return fmt.Errorf("%w: %s escapes destination", ErrUnsafeMember, name)
	}

	if err := writeMember(member, filepath.Join(parentReal, filepath.Base(target))); err != nil {
		return err
	}

	return nil
}

// Validates a member path and returns it as a clean, slash-separated
// relative path.
//
// Rejects absolute paths, drive-prefixed paths, and any path containing a
// parent-directory segment.
func safeRelPath(name string) (string, error) {
	slashed := filepath.ToSlash(name)
	if strings.HasPrefix(slashed, "/") || filepath.VolumeName(name) != "" {
		return "", fmt.Errorf("%w: absolute path %s", ErrUnsafeMember, name)
	}

	cleaned := path.Clean(slashed)
	for _, part := range strings.Split(cleaned, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: traversal in %s", ErrUnsafeMember, name)
		}
	}

	return cleaned, nil
}

// Copies the member's bytes to target and normalizes permissions.
//
// The copy is capped one byte past [MaxMemberBytes] so a member whose header
// understates its size is still caught; the partial file is removed before
// the error is returned. Restored permission bits are stripped of setuid and
// setgid. Permission restoration failures are tolerated.
func writeMember(member *zip.File, target string) error {
	src, err := member.Open()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArchive, err)
	}
	defer src.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, paths.DefaultFileMode)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArchive, err)
	}

	written, err := io.Copy(out, io.LimitReader(src, MaxMemberBytes+1))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(target)
		return fmt.Errorf("%w: %w", ErrArchive, err)
	}
	if written > MaxMemberBytes {
		os.Remove(target)
		return fmt.Errorf("%w: %s", ErrOversizedMember, member.Name)
	}

	mode := member.Mode() &^ (os.ModeSetuid | os.ModeSetgid)
	_ = os.Chmod(target, mode.Perm())

	return nil
}

// Resolves a path to its canonical absolute form with symlinks evaluated.
func canonicalize(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// Whether p is base itself or a strict descendant of base.
func within(base, p string) bool {
	if p == base {
		return true
	}
	return strings.HasPrefix(p, base+string(filepath.Separator))
}
