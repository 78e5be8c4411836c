package manifest

// Default resource limits written into synthesized metadata.
var defaultLimits = Limits{
	TimeoutMs:   15000,
	MaxInputKB:  128,
	MaxOutputKB: 256,
}

// Default security posture written into synthesized metadata.
var defaultSecurity = Security{
	ReadOnlyDefault: true,
	FSAllowlist:     []string{},
	EgressAllowlist: []string{},
}

// Describes the inputs for synthesizing a minimal runner/manifest pair.
type ScaffoldOptions struct {
	Transport Transport // Transport kind for the server.
	Lang      string    // Source language (e.g., "python", "node").
	Name      string    // Server name, typically the install alias.
	Version   string    // Version string. Empty means [DefaultVersion].
	Command   []string  // Launch command. Empty selects a language default.
}

// Synthesizes a minimal, valid runner specification and bundle manifest.
//
// Used when a source tree ships without metadata: the detector guesses the
// transport and language, and the pair is generated with conservative
// defaults (read-only security posture, modest limits).
func Scaffold(opts ScaffoldOptions) (*Runner, *Manifest) {
	version := opts.Version
	if version == "" {
		version = DefaultVersion
	}

	command := opts.Command
	if len(command) == 0 {
		command = defaultCommand(opts.Lang, opts.Transport)
	}

	var url *string
	if opts.Transport == TransportSSE {
		u := DefaultSSEURL
		url = &u
	}

	runner := &Runner{
		Type:     opts.Transport,
		Command:  command,
		URL:      url,
		Env:      map[string]string{},
		Limits:   defaultLimits,
		Security: defaultSecurity,
	}

	m := &Manifest{
		SchemaVersion: SchemaVersion,
		Name:          opts.Name,
		Version:       version,
		Transports:    []TransportDesc{{Type: opts.Transport, URL: url}},
		Tools:         []string{},
		Limits:        runner.Limits,
		Security:      runner.Security,
		Build:         BuildInfo{Lang: opts.Lang, Runner: "unknown"},
	}

	return runner, m
}

// Synthesizes metadata and writes both files into dir.
func WriteScaffolds(dir string, opts ScaffoldOptions) (*Runner, *Manifest, error) {
	runner, m := Scaffold(opts)

	if err := runner.Write(dir); err != nil {
		return nil, nil, err
	}
	if err := m.Write(dir); err != nil {
		return nil, nil, err
	}

	return runner, m, nil
}

// Returns the conventional launch command for a language and transport.
func defaultCommand(lang string, transport Transport) []string {
	switch lang {
	case "node":
		return []string{"node", "server.js"}
	default:
		if transport == TransportSSE {
			return []string{"python", "server_sse.py"}
		}
		return []string{"python", "server.py"}
	}
}
