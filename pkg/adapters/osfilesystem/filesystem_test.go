package osfilesystem

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSystem_WriteAndReadFile(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "nested", "dir", "frame.png")

	if err := fs.WriteFile(path, []byte("pixels")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "pixels" {
		t.Errorf("expected %q, got %q", "pixels", data)
	}
}

func TestFileSystem_Exists(t *testing.T) {
	fs := New()
	dir := t.TempDir()
	existing := filepath.Join(dir, "a.gif")
	if err := os.WriteFile(existing, []byte("x"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"file", existing, true},
		{"directory", dir, true},
		{"missing", filepath.Join(dir, "missing.gif"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fs.Exists(tt.path)
			if err != nil {
				t.Fatalf("Exists failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Exists(%s) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestFileSystem_RenameReplacesTarget(t *testing.T) {
	fs := New()
	dir := t.TempDir()
	tmp := filepath.Join(dir, "out.png.tmp")
	final := filepath.Join(dir, "out.png")

	if err := fs.WriteFile(final, []byte("old")); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := fs.WriteFile(tmp, []byte("new")); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := fs.Rename(tmp, final); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	data, _ := fs.ReadFile(final)
	if string(data) != "new" {
		t.Errorf("expected replaced contents, got %q", data)
	}
	if exists, _ := fs.Exists(tmp); exists {
		t.Error("expected temp file to be gone after rename")
	}
}

func TestFileSystem_MkdirAllAndRemove(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "a", "b")

	if err := fs.MkdirAll(path); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := fs.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if exists, _ := fs.Exists(path); exists {
		t.Error("expected directory to be removed")
	}
}
