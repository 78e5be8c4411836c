package detect

import (
	"os"
	"path/filepath"

	"github.com/matrixhub/mcpb/internal/manifest"
)

// Detects Python server projects by conventional entry file names.
//
// "server_sse.py" marks an SSE server, "server.py" a stdio server. A tree
// with neither but with pyproject.toml or requirements.txt is reported as
// Python with low confidence and no transport.
type pythonDetector struct{}

func (pythonDetector) Detect(root string) Report {
	if fileExists(filepath.Join(root, "server_sse.py")) {
		return Report{
			Score:       0.95,
			Lang:        "python",
			Transport:   manifest.TransportSSE,
			Entrypoints: []string{"server_sse.py"},
			Notes:       []string{"found server_sse.py (sse)"},
		}
	}

	if fileExists(filepath.Join(root, "server.py")) {
		return Report{
			Score:       0.85,
			Lang:        "python",
			Transport:   manifest.TransportStdio,
			Entrypoints: []string{"server.py"},
			Notes:       []string{"found server.py (stdio)"},
		}
	}

	if fileExists(filepath.Join(root, "pyproject.toml")) || fileExists(filepath.Join(root, "requirements.txt")) {
		return Report{
			Score: 0.4,
			Lang:  "python",
			Notes: []string{"python project hints present"},
		}
	}

	return Report{Notes: []string{"no python indicators found"}}
}

// Whether path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
