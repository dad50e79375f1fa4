package osfilesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestFileSystem_WriteAndReadFile(t *testing.T) {
	fsys := New()
	testPath := filepath.Join(t.TempDir(), "poster.png")
	testData := []byte("png bytes")

	if err := fsys.WriteFile(testPath, testData); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := fsys.ReadFile(testPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != string(testData) {
		t.Errorf("expected %q, got %q", testData, data)
	}
}

func TestFileSystem_WriteFileCreatesParentDirs(t *testing.T) {
	fsys := New()
	testPath := filepath.Join(t.TempDir(), "out", "2024", "poster.png")

	if err := fsys.WriteFile(testPath, []byte("test")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	exists, err := fsys.Exists(testPath)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected file to exist")
	}
}

func TestFileSystem_MkdirAll(t *testing.T) {
	fsys := New()
	testPath := filepath.Join(t.TempDir(), "a", "b", "c")

	if err := fsys.MkdirAll(testPath); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	exists, err := fsys.Exists(testPath)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected directory to exist")
	}
}

func TestFileSystem_Exists(t *testing.T) {
	fsys := New()
	tmpDir := t.TempDir()

	testPath := filepath.Join(tmpDir, "font.ttf")
	if err := os.WriteFile(testPath, []byte("test"), 0o644); err != nil {
		t.Fatal(err)
	}

	exists, err := fsys.Exists(testPath)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected file to exist")
	}

	exists, err = fsys.Exists(filepath.Join(tmpDir, "nonexistent.ttf"))
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("expected file to not exist")
	}
}

func TestFileSystem_ReadMissing(t *testing.T) {
	fsys := New()

	_, err := fsys.ReadFile(filepath.Join(t.TempDir(), "missing.png"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestFileSystem_WriteFileReplacesAtomically(t *testing.T) {
	fsys := New()
	dir := t.TempDir()
	path := filepath.Join(dir, "poster.png")

	if err := fsys.WriteFile(path, []byte("first")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := fsys.WriteFile(path, []byte("second")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("expected replaced content, got %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only poster.png, found %v", names)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0o644 {
		t.Errorf("expected mode 0644, got %v", info.Mode().Perm())
	}
}

func TestFileSystem_WriteFileIntoFile(t *testing.T) {
	fsys := New()
	dir := t.TempDir()
	blocker := filepath.Join(dir, "out")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := fsys.WriteFile(filepath.Join(blocker, "poster.png"), []byte("data")); err == nil {
		t.Error("expected error when the parent is a file")
	}
}
