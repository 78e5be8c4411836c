package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// File name of the install record written after a successful commit.
const LockFile = "runner.lock.json"

// Persisted provenance for a committed installation.
//
// A record is written once per successful install and never mutated. A
// forced re-install replaces it wholesale. BundleSHA256 is a pointer so
// that directory-sourced installs serialize the field as null.
type Record struct {
	Alias        string    `json:"alias"`         // Installation alias.
	Version      string    `json:"version"`       // Installed version.
	InstalledAt  time.Time `json:"installed_at"`  // Commit timestamp, UTC.
	Source       string    `json:"source"`        // Originating source string.
	BundleSHA256 *string   `json:"bundle_sha256"` // Archive digest, null for directory sources.
	Runner       Runner    `json:"runner"`        // Committed runner specification.
}

// Writes the install record into the installation directory.
//
// The timestamp is normalized to UTC before serialization.
func (rec *Record) Write(dir string) error {
	rec.InstalledAt = rec.InstalledAt.UTC()
	return writeJSON(filepath.Join(dir, LockFile), rec)
}

// Loads the install record from an installation directory.
func LoadRecord(dir string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(dir, LockFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	return &rec, nil
}
