package detect

import (
	"github.com/matrixhub/mcpb/internal/manifest"
)

// Normalized detection result for a source tree.
type Report struct {
	Score       float64            `json:"score"`                 // Confidence, 0..1. Higher is better.
	Lang        string             `json:"lang,omitempty"`        // Primary language (e.g., "python", "node").
	Transport   manifest.Transport `json:"transport,omitempty"`   // Guessed transport.
	Entrypoints []string           `json:"entrypoints,omitempty"` // Candidate entry files, relative paths.
	Notes       []string           `json:"notes,omitempty"`       // Free-form detector observations.
}

// Examines a detector's report against a source tree.
type Detector interface {
	Detect(root string) Report
}

// Runs all detectors against the source tree and returns the
// highest-confidence report.
//
// Detection is heuristic: file-existence checks and light parsing, never
// execution of project code. Ties go to the earlier detector (Python
// first).
func Project(root string) Report {
	detectors := []Detector{pythonDetector{}, nodeDetector{}}

	var best Report
	for _, d := range detectors {
		report := d.Detect(root)
		if report.Score > best.Score {
			best = report
		}
	}

	return best
}
