package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_StatAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.bin")
	if err := os.WriteFile(path, []byte{1, 0, 0, 0}, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	var fsys FileSystem = OSFileSystem{}
	info, err := fsys.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 4 {
		t.Errorf("expected size 4, got %d", info.Size())
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) != 4 || data[0] != 1 {
		t.Errorf("unexpected content %v", data)
	}
}

func TestMemoryFileSystem_OpenReadsAll(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.WriteFile("/data/labels.bin", []byte("abcdef"))

	f, err := mfs.Open("/data/../data/labels.bin")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "abcdef" {
		t.Errorf("expected abcdef, got %q", data)
	}

	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Name() != "labels.bin" || info.Size() != 6 || info.IsDir() {
		t.Errorf("unexpected file info %+v", info)
	}
}

func TestMemoryFileSystem_Missing(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if _, err := mfs.Open("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open: expected ErrNotExist, got %v", err)
	}
	if _, err := mfs.Stat("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat: expected ErrNotExist, got %v", err)
	}
	if _, err := mfs.ReadFile("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile: expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_WriteFileCopies(t *testing.T) {
	mfs := NewMemoryFileSystem()
	src := []byte("xyz")
	mfs.WriteFile("/f", src)
	src[0] = 'Q'

	data, err := mfs.ReadFile("/f")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "xyz" {
		t.Errorf("expected stored copy to be unaffected, got %q", data)
	}
}
