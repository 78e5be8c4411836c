package surface

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Classified shape of an install source.
type Kind string

const (
	// Zip archive, local or remote.
	KindArchive Kind = "archive"

	// Local source directory.
	KindDirectory Kind = "directory"

	// Source-control reference (repository plus ref).
	KindGit Kind = "git"

	// Install-plan document, local or remote.
	KindPlan Kind = "plan"
)

// Ref used for source-control surfaces when none is specified.
const DefaultRef = "HEAD"

// A resolved install source.
//
// Exactly one addressing form is populated for the kind: Path for local
// archives, plans, and directories; URL for remote archives and plans; Repo
// and Ref for source-control references.
type Surface struct {
	Kind Kind   // Classified source kind.
	Path string // Local filesystem path.
	URL  string // Remote URL.
	Repo string // Source-control repository URL.
	Ref  string // Source-control ref. [DefaultRef] when unspecified.
}

// Whether the surface addresses a remote location.
func (s Surface) Remote() bool {
	return s.URL != ""
}

// Classifies an install source string into a surface.
//
// Resolution is total: every input produces a surface, falling back to a
// directory path when nothing else matches (a later stage reports the
// missing path). Classification order: source-control pattern, then URL by
// extension, then local file by extension, then existing directory. The
// only I/O performed is filesystem existence checks.
func Resolve(source string) Surface {
	if s, ok := parseGit(source); ok {
		return s
	}

	if looksLikeURL(source) {
		lower := strings.ToLower(source)
		switch {
		case strings.HasSuffix(lower, ".zip"):
			if p, ok := filePath(source); ok {
				return Surface{Kind: KindArchive, Path: p}
			}
			return Surface{Kind: KindArchive, URL: source}
		case strings.HasSuffix(lower, ".json"):
			if p, ok := filePath(source); ok {
				return Surface{Kind: KindPlan, Path: p}
			}
			return Surface{Kind: KindPlan, URL: source}
		}
		// Unrecognized URL extensions fall through to path handling.
	}

	abs := source
	if a, err := filepath.Abs(source); err == nil {
		abs = a
	}

	if info, err := os.Stat(abs); err == nil {
		lower := strings.ToLower(abs)
		switch {
		case info.Mode().IsRegular() && strings.HasSuffix(lower, ".zip"):
			return Surface{Kind: KindArchive, Path: abs}
		case info.Mode().IsRegular() && strings.HasSuffix(lower, ".json"):
			return Surface{Kind: KindPlan, Path: abs}
		case info.IsDir():
			return Surface{Kind: KindDirectory, Path: abs}
		}
	}

	// Nonexistent or unrecognized: treat as a directory path and let the
	// caller fail with a not-found error.
	return Surface{Kind: KindDirectory, Path: abs}
}

// Parses a source-control reference of the form "https://…git…[@ref]".
//
// The ref follows a trailing "@" after the repository suffix marker and
// defaults to [DefaultRef] when absent.
func parseGit(source string) (Surface, bool) {
	if !strings.HasPrefix(source, "http") {
		return Surface{}, false
	}

	gitIdx := strings.Index(source, ".git")
	if gitIdx < 0 {
		return Surface{}, false
	}

	repo, ref := source, DefaultRef
	if at := strings.LastIndex(source, "@"); at > gitIdx {
		repo, ref = source[:at], source[at+1:]
	}

	return Surface{Kind: KindGit, Repo: repo, Ref: ref}, true
}

// Extracts the local path from a file URL. file:// sources address the
// local filesystem and must not reach the download path.
func filePath(source string) (string, bool) {
	u, err := url.Parse(source)
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	return filepath.FromSlash(u.Path), true
}

// Whether s parses as an absolute http, https, or file URL.
func looksLikeURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https":
		return u.Host != ""
	case "file":
		return true
	default:
		return false
	}
}
