package installer

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/matrixhub/mcpb/internal/archive"
	"github.com/matrixhub/mcpb/internal/integrity"
	"github.com/matrixhub/mcpb/internal/paths"
	"github.com/matrixhub/mcpb/internal/plan"
	"github.com/matrixhub/mcpb/internal/surface"
)

// Timeout for fetching a remote digest side-channel. Kept short so a
// missing sidecar does not stall the install.
const digestFetchTimeout = 10 * time.Second

// Materializes the resolved surface into the staging directory.
//
// Archives are extracted and their content digest is always computed;
// the returned pointer carries it so the lock record can pin the bundle.
// Directory sources are copied file by file and have no bundle digest.
// Git surfaces are recognized but not yet supported.
func (inst *Installer) stage(ctx context.Context, surf surface.Surface, stagingDir string, verify bool) (*string, error) {
	switch surf.Kind {
	case surface.KindArchive:
		return inst.stageArchive(ctx, surf, stagingDir, verify, "")

	case surface.KindPlan:
		return inst.stagePlan(ctx, surf, stagingDir)

	case surface.KindDirectory:
		info, err := os.Stat(surf.Path)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, surf.Path)
		}
		if err := copyTree(surf.Path, stagingDir); err != nil {
			return nil, err
		}
		return nil, nil

	case surface.KindGit:
		return nil, fmt.Errorf("%w: git source %s@%s", ErrUnsupportedSurface, surf.Repo, surf.Ref)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSurface, surf.Kind)
	}
}

// Stages a plan surface by fetching and extracting the archive it pins.
//
// The plan's digest is authoritative: the fetched archive must match it
// regardless of the install's verify flag.
func (inst *Installer) stagePlan(ctx context.Context, surf surface.Surface, stagingDir string) (*string, error) {
	if surf.Remote() {
		return nil, fmt.Errorf("%w: remote plan %s", ErrUnsupportedSurface, surf.URL)
	}

	p, err := plan.Load(surf.Path)
	if err != nil {
		return nil, err
	}
	artifact := p.Archive()
	if artifact == nil {
		return nil, fmt.Errorf("%w: plan %s carries no zip artifact", ErrInstall, surf.Path)
	}

	archiveSurf, err := artifactSurface(artifact.Spec.URL)
	if err != nil {
		return nil, err
	}
	return inst.stageArchive(ctx, archiveSurf, stagingDir, true, artifact.DigestHex())
}

// Maps a plan artifact URL to an archive surface.
func artifactSurface(rawURL string) (surface.Surface, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return surface.Surface{}, fmt.Errorf("%w: %w", ErrInstall, err)
	}

	switch u.Scheme {
	case "file":
		return surface.Surface{Kind: surface.KindArchive, Path: filepath.FromSlash(u.Path)}, nil
	case "http", "https":
		return surface.Surface{Kind: surface.KindArchive, URL: rawURL}, nil
	default:
		return surface.Surface{}, fmt.Errorf("%w: artifact url %s", ErrUnsupportedSurface, rawURL)
	}
}

// Stages a zip surface: fetches it if remote, checks the digest
// side-channel, and extracts it.
//
// Verification is opportunistic unless a digest is pinned. A local archive
// checks against its .sha256 sidecar file, a remote one against
// <url>.sha256; when no digest source exists the check is skipped. With
// verify set, a digest source that disagrees with the archive is fatal.
func (inst *Installer) stageArchive(ctx context.Context, surf surface.Surface, stagingDir string, verify bool, pinned string) (*string, error) {
	zipPath := surf.Path
	expected := pinned

	if surf.Remote() {
		downloaded, err := inst.download(ctx, surf.URL)
		if err != nil {
			return nil, err
		}
		defer os.Remove(downloaded)
		zipPath = downloaded

		if verify && expected == "" {
			expected = inst.fetchRemoteDigest(ctx, surf.URL+".sha256")
		}
	} else {
		if _, err := os.Stat(zipPath); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, zipPath)
		}
		if verify && expected == "" {
			expected = readSidecarDigest(zipPath + ".sha256")
		}
	}

	if expected != "" {
		if err := integrity.Verify(zipPath, expected); err != nil {
			return nil, err
		}
		slog.Debug("digest verified", "digest", expected)
	}

	sha, err := integrity.Digest(zipPath)
	if err != nil {
		return nil, err
	}

	if err := archive.Extract(zipPath, stagingDir); err != nil {
		return nil, err
	}

	return &sha, nil
}

// Downloads a remote archive to a temporary file and returns its path.
func (inst *Installer) download(ctx context.Context, url string) (string, error) {
	slog.Info("downloading", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInstall, err)
	}

	resp, err := inst.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInstall, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: fetching %s: %s", ErrInstall, url, resp.Status)
	}

	tmp, err := os.CreateTemp("", "mcpb-download-*.zip")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInstall, err)
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %w", ErrInstall, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %w", ErrInstall, err)
	}

	return tmp.Name(), nil
}

// Fetches a digest side-channel for a remote archive.
//
// Any failure, including a body that is not a digest, yields an empty
// string: the side-channel is advisory and its absence is not an error.
func (inst *Installer) fetchRemoteDigest(ctx context.Context, url string) string {
	ctx, cancel := context.WithTimeout(ctx, digestFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}

	resp, err := inst.httpClient().Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return ""
	}

	candidate := integrity.Normalize(string(body))
	if !integrity.IsHex(candidate) {
		return ""
	}
	return candidate
}

func (inst *Installer) httpClient() *http.Client {
	if inst.Client != nil {
		return inst.Client
	}
	return &http.Client{Timeout: time.Minute}
}

// Reads a local .sha256 sidecar file, returning "" when absent or not a
// recognizable digest.
func readSidecarDigest(path string) string {
	body, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	candidate := integrity.Normalize(string(body))
	if !integrity.IsHex(candidate) {
		return ""
	}
	return candidate
}

// Copies the directory tree at src into dst.
//
// Regular files and directories are copied with their permission bits;
// symlinks and other special files are skipped so a source tree cannot
// smuggle links into the store.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInstall, err)
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInstall, err)
		}
		target := filepath.Join(dst, rel)

		if entry.IsDir() {
			if err := os.MkdirAll(target, paths.DefaultDirMode); err != nil {
				return fmt.Errorf("%w: %w", ErrInstall, err)
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		return copyFile(path, target, entry)
	})
}

func copyFile(src, dst string, entry fs.DirEntry) error {
	info, err := entry.Info()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInstall, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInstall, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInstall, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("%w: %w", ErrInstall, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrInstall, err)
	}
	return nil
}
