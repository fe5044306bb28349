package clean

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	if err := os.WriteFile(src, []byte("original"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dest := filepath.Join(dir, "dest.png")

	if err := copyFile(slog.Default(), src, dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "original" {
		t.Errorf("got %q, want %q", data, "original")
	}

	if err := copyFile(slog.Default(), src, dest); err == nil {
		t.Errorf("expected an error when the destination exists")
	}
}

func TestWriteCopyRemovesPartial(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "dest.png")
	readErr := errors.New("disk went away")
	r := io.MultiReader(strings.NewReader("partial"), iotest.ErrReader(readErr))

	err := writeCopy(slog.Default(), r, dest)
	if !errors.Is(err, readErr) {
		t.Fatalf("got error %v, want %v", err, readErr)
	}
	if _, err := os.Stat(dest); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected the partial file to be removed, stat returned %v", err)
	}
}
