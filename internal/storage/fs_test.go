package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) (*FS, string) {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir, nil)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs, dir
}

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	full := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRead(t *testing.T) {
	s, dir := tempStore(t)
	content := []byte("\\*File list\r\n\\Version: 0x05120130\r\n")
	writeFile(t, dir, "scan.spm", content)

	got, err := s.Read("scan.spm")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestOpenSeeks(t *testing.T) {
	s, dir := tempStore(t)
	writeFile(t, dir, "scan.spm", []byte("0123456789"))

	f, err := s.Open("scan.spm")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	if _, err := f.Seek(4, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	buf := make([]byte, 3)
	if _, err := io.ReadFull(f, buf); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if string(buf) != "456" {
		t.Errorf("read after seek = %q, want %q", buf, "456")
	}
}

func TestAccepts(t *testing.T) {
	s, _ := tempStore(t)

	cases := []struct {
		name string
		want bool
	}{
		{"sample.spm", true},
		{"sample.001", true},
		{"SAMPLE.SPM", true},
		{"readme.txt", false},
		{"sample.spm.bak", false},
		{"noext", false},
	}
	for _, c := range cases {
		if got := s.Accepts(c.name); got != c.want {
			t.Errorf("Accepts(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestAccepts_CustomExtensions(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFS(dir, []string{".nano"})
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if !s.Accepts("a.nano") {
		t.Error("custom extension not accepted")
	}
	if s.Accepts("a.spm") {
		t.Error("default extension should be replaced by custom list")
	}
}

func TestList(t *testing.T) {
	s, dir := tempStore(t)
	writeFile(t, dir, "a.spm", []byte("a"))
	writeFile(t, dir, "session/b.001", []byte("b"))
	writeFile(t, dir, "readme.txt", []byte("not a scan"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	for _, it := range items {
		if it.Checksum == "" {
			t.Errorf("%s: empty checksum", it.Path)
		}
		if it.Size == 0 {
			t.Errorf("%s: zero size", it.Path)
		}
	}
}

func TestList_ChecksumTracksContent(t *testing.T) {
	s, dir := tempStore(t)
	writeFile(t, dir, "a.spm", []byte("one"))

	before, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	writeFile(t, dir, "a.spm", []byte("two"))
	after, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if before[0].Checksum == after[0].Checksum {
		t.Error("checksum did not change with content")
	}
}

func TestTraversalBlocked(t *testing.T) {
	s, _ := tempStore(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.spm",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Resolve(p); err == nil {
			t.Errorf("expected error resolving %q", p)
		}
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error reading %q", p)
		}
	}
}

func TestResolve_RelativeStaysUnderRoot(t *testing.T) {
	s, dir := tempStore(t)
	abs, err := s.Resolve("session/scan.spm")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := filepath.Join(dir, "session", "scan.spm")
	if abs != want {
		t.Errorf("Resolve = %q, want %q", abs, want)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/nanofield-does-not-exist-"+t.Name(), nil)
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "nanofield-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name(), nil)
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
