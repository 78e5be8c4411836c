package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	toolName = "mcpb"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Path to the root directory holding installed server bundles.
//
// Each installation lives at <root>/<alias>/<version>.
//
//	Linux:   ~/.local/share/mcpb/runners
//	macOS:   ~/Library/Application Support/mcpb/runners
func InstallsRoot() string {
	return filepath.Join(xdg.DataHome, toolName, "runners")
}

// Path to the directory for disposable staging trees and downloads.
//
// Staging directories must live on the same filesystem as the installs
// root so the final rename is atomic, so this is a sibling of it rather
// than the system temp directory.
//
//	Linux:   ~/.local/share/mcpb/staging
//	macOS:   ~/Library/Application Support/mcpb/staging
func StagingRoot() string {
	return filepath.Join(xdg.DataHome, toolName, "staging")
}

// Path to the directory for build outputs when none is specified.
//
//	Linux:   ~/.cache/mcpb/dist
//	macOS:   ~/Library/Caches/mcpb/dist
func DistDir() string {
	return filepath.Join(xdg.CacheHome, toolName, "dist")
}
