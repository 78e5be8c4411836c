package detect

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/matrixhub/mcpb/internal/manifest"
)

// Dependency names that identify an MCP Node project.
var nodeHintDeps = []string{
	"@modelcontextprotocol/sdk",
	"modelcontextprotocol",
}

// Web framework dependencies that suggest an SSE transport.
var nodeWebDeps = []string{"express", "h3", "fastify", "koa"}

// Entry file candidates in preference order.
var nodeEntryCandidates = []string{
	"server.js",
	filepath.Join("src", "server.js"),
	"index.js",
}

// Detects Node server projects from package.json.
//
// Confidence depends on whether an MCP SDK dependency is declared. The
// transport guess is stdio unless a web framework dependency is present and
// an entry file references the conventional "/messages/" endpoint.
type nodeDetector struct{}

func (nodeDetector) Detect(root string) Report {
	pkg := readPackageJSON(root)
	if pkg == nil {
		return Report{Notes: []string{"no package.json found"}}
	}

	deps := make(map[string]bool)
	for name := range pkg.Dependencies {
		deps[name] = true
	}
	for name := range pkg.DevDependencies {
		deps[name] = true
	}

	if !anyDep(deps, nodeHintDeps) {
		return Report{
			Score: 0.3,
			Lang:  "node",
			Notes: []string{"no MCP SDK dependency detected"},
		}
	}

	var entries []string
	for _, candidate := range nodeEntryCandidates {
		if fileExists(filepath.Join(root, candidate)) {
			entries = append(entries, candidate)
		}
	}

	transport := manifest.TransportStdio
	if anyDep(deps, nodeWebDeps) && entriesMentionMessages(root, entries) {
		transport = manifest.TransportSSE
	}

	score := 0.6
	if len(entries) > 0 {
		score = 0.8
	} else {
		entries = []string{"server.js"}
	}

	return Report{
		Score:       score,
		Lang:        "node",
		Transport:   transport,
		Entrypoints: entries,
		Notes:       []string{"detected Node MCP project"},
	}
}

// Subset of package.json the detector cares about.
type packageJSON struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// Reads and parses package.json, returning nil when absent or malformed.
func readPackageJSON(root string) *packageJSON {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return nil
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil
	}
	return &pkg
}

// Whether any of the named dependencies is declared.
func anyDep(deps map[string]bool, names []string) bool {
	for _, name := range names {
		if deps[name] {
			return true
		}
	}
	return false
}

// Best-effort text search for the SSE message endpoint in entry files.
func entriesMentionMessages(root string, entries []string) bool {
	for _, entry := range entries {
		data, err := os.ReadFile(filepath.Join(root, entry))
		if err != nil {
			continue
		}
		if strings.Contains(string(data), "/messages/") {
			return true
		}
	}
	return false
}
