// Package bundle turns a server project into a distributable archive.
//
// A build detects the project's language and transport, selects the files
// a server of that shape needs at runtime, and writes them into a zip
// together with the runner specification and bundle manifest. Projects
// that already carry metadata keep it verbatim; bare projects get a
// synthesized pair embedded in the archive without touching the source
// tree.
//
// Example usage:
//
//	artifact, err := bundle.Build("./my-server", bundle.Options{Name: "weather"})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(artifact.ZipPath, artifact.Digest)
package bundle
