package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempRepo(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir, DefaultIgnore...)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempRepo(t)
	content := []byte("package main\n")
	if err := s.Write("main.go", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("main.go")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempRepo(t)
	if err := s.Write("a/b/c.go", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.go")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestReadMissingIsNotExist(t *testing.T) {
	s := tempRepo(t)
	_, err := s.Read("missing.go")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestListIncludesDirsAndSkipsIgnored(t *testing.T) {
	s := tempRepo(t)
	_ = s.Write("a.go", []byte("a"))
	_ = s.Write("sub/b.go", []byte("bb"))
	_ = s.Write(".git/HEAD", []byte("ref"))
	_ = s.Write("node_modules/x/index.js", []byte("x"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := map[string]bool{}
	for _, it := range items {
		got[it.Path] = it.IsDir
	}
	if len(got) != 3 {
		t.Errorf("entries = %v, want a.go, sub, sub/b.go", got)
	}
	if isDir, ok := got["sub"]; !ok || !isDir {
		t.Error("sub directory missing")
	}
	if _, ok := got["sub/b.go"]; !ok {
		t.Error("sub/b.go missing")
	}
	for _, it := range items {
		if it.Path == "sub/b.go" && it.Size != 2 {
			t.Errorf("size = %d, want 2", it.Size)
		}
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempRepo(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.go",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteLeavesNoTemp(t *testing.T) {
	s := tempRepo(t)
	_ = s.Write("atomic.go", []byte("original"))
	if err := s.Write("atomic.go", []byte("updated")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.go")
	if string(got) != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(s.Root(), tmpPrefix+"*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "orrery-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
