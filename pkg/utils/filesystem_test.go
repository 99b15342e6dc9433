package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/poltergeist/bundler/pkg/utils"
)

func TestOSFileSystem(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "excel_diff.spec")
	if err := os.WriteFile(file, []byte("# spec"), 0644); err != nil {
		t.Fatal(err)
	}

	fs := utils.NewFileSystem()

	tests := []struct {
		name      string
		path      string
		exists    bool
		isDir     bool
		isRegular bool
	}{
		{"directory", dir, true, true, false},
		{"regular file", file, true, false, true},
		{"missing", filepath.Join(dir, "missing"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fs.Exists(tt.path); got != tt.exists {
				t.Errorf("Exists = %v, want %v", got, tt.exists)
			}
			if got := fs.IsDirectory(tt.path); got != tt.isDir {
				t.Errorf("IsDirectory = %v, want %v", got, tt.isDir)
			}
			if got := fs.IsRegularFile(tt.path); got != tt.isRegular {
				t.Errorf("IsRegularFile = %v, want %v", got, tt.isRegular)
			}
		})
	}
}

func TestOSFileSystem_RemoveAll(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "build", "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "f.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	fs := utils.NewFileSystem()
	if err := fs.RemoveAll(filepath.Join(dir, "build")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if fs.Exists(filepath.Join(dir, "build")) {
		t.Error("expected build to be gone")
	}

	// Removing again is a no-op
	if err := fs.RemoveAll(filepath.Join(dir, "build")); err != nil {
		t.Errorf("second remove should succeed, got %v", err)
	}
}

func TestNormalizePath(t *testing.T) {
	dir := t.TempDir()

	got, err := utils.NormalizePath(filepath.Join(dir, "x", ".."))
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Clean(dir) {
		t.Errorf("expected %s, got %s", dir, got)
	}

	home, err := os.UserHomeDir()
	if err == nil {
		got, err := utils.NormalizePath("~/project")
		if err != nil {
			t.Fatal(err)
		}
		if got != filepath.Join(home, "project") {
			t.Errorf("expected home expansion, got %s", got)
		}
	}

	rel, err := utils.NormalizePath(".")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(rel) {
		t.Errorf("expected absolute path, got %s", rel)
	}
}

func TestIsWithin(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "project")

	tests := []struct {
		name   string
		target string
		want   bool
	}{
		{"child", filepath.Join(root, "build"), true},
		{"nested child", filepath.Join(root, "a", "b"), true},
		{"root itself", root, false},
		{"parent", filepath.Dir(root), false},
		{"sibling", filepath.Join(filepath.Dir(root), "other"), false},
		{"dotdot prefixed name", filepath.Join(root, "..build"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := utils.IsWithin(root, tt.target); got != tt.want {
				t.Errorf("IsWithin(%s, %s) = %v, want %v", root, tt.target, got, tt.want)
			}
		})
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "last-build.json")

	if err := utils.WriteFileAtomic(path, []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("unexpected content %q", data)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not remain")
	}
}
