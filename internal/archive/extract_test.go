package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// Writes a zip with the given name -> content entries.
func writeZipFixture(t *testing.T, entries map[string]string) string {
	t.Helper()

	zipPath := filepath.Join(t.TempDir(), "fixture.zip")
	out, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return zipPath
}

func TestExtract(t *testing.T) {
	zipPath := writeZipFixture(t, map[string]string{
		"server.py":        "print('hi')",
		"lib/util.py":      "# util",
		"runner.json":      "{}",
		"requirements.txt": "mcp\n",
	})

	dest := t.TempDir()
	if err := Extract(zipPath, dest); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"server.py", "lib/util.py", "runner.json", "requirements.txt"} {
		if _, err := os.Stat(filepath.Join(dest, filepath.FromSlash(name))); err != nil {
			t.Fatalf("missing extracted file %s: %v", name, err)
		}
	}

	content, err := os.ReadFile(filepath.Join(dest, "server.py"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "print('hi')" {
		t.Fatalf("server.py content = %q", content)
	}
}

func TestExtractUnsafeMembers(t *testing.T) {
	tests := []struct {
		name   string
		member string
	}{
		{name: "parent traversal", member: "../evil.txt"},
		{name: "nested traversal", member: "lib/../../evil.txt"},
		{name: "absolute path", member: "/etc/evil.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zipPath := writeZipFixture(t, map[string]string{
				"ok.txt":  "fine",
				tt.member: "nope",
			})

			err := Extract(zipPath, t.TempDir())
			if !errors.Is(err, ErrUnsafeMember) {
				t.Fatalf("err = %v, want ErrUnsafeMember", err)
			}
		})
	}
}

func TestExtractOversizedMember(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "big.zip")
	out, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	payload := []byte("tiny")
	// A raw member whose header overstates its uncompressed size past the
	// cap. The extractor must refuse it from the header alone.
	w, err := zw.CreateRaw(&zip.FileHeader{
		Name:               "huge.bin",
		Method:             zip.Store,
		UncompressedSize64: MaxMemberBytes + 1,
		CompressedSize64:   uint64(len(payload)),
		CRC32:              0,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	if err := Extract(zipPath, t.TempDir()); !errors.Is(err, ErrOversizedMember) {
		t.Fatalf("err = %v, want ErrOversizedMember", err)
	}
}

func TestExtractSkipsDirectoryEntries(t *testing.T) {
	zipPath := writeZipFixture(t, map[string]string{
		"lib/":         "",
		"lib/util.py":  "# util",
		"lib/deep/x.y": "z",
	})

	dest := t.TempDir()
	if err := Extract(zipPath, dest); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dest, "lib", "deep", "x.y")); err != nil {
		t.Fatalf("nested file missing: %v", err)
	}
}

func TestSafeRelPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain file", input: "server.py", want: "server.py"},
		{name: "nested", input: "lib/util.py", want: "lib/util.py"},
		{name: "redundant segments", input: "lib/./util.py", want: "lib/util.py"},
		{name: "leading slash", input: "/etc/passwd", wantErr: true},
		{name: "leading dotdot", input: "../outside", wantErr: true},
		{name: "inner dotdot escaping", input: "a/../../outside", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := safeRelPath(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsafeMember) {
					t.Fatalf("err = %v, want ErrUnsafeMember", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("safeRelPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
