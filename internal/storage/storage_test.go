package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/innatolkaneva/weather/internal/config"
)

func TestLocal_CreateOverwritesAndOpen(t *testing.T) {
	fs := NewLocal(t.TempDir())

	for _, content := range []string{"first version, longer", "second"} {
		w, err := fs.Create("/user/inna/weather_data.parquet")
		if err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
		if _, err := io.WriteString(w, content); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close() unexpected error: %v", err)
		}
	}

	f, err := fs.Open("/user/inna/weather_data.parquet")
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	defer f.Close()

	buf := make([]byte, 64)
	n, _ := f.ReadAt(buf, 0)
	if got := string(buf[:n]); got != "second" {
		t.Errorf("content = %q, want %q", got, "second")
	}
}

func TestLocal_OpenMissing(t *testing.T) {
	fs := NewLocal(t.TempDir())
	if _, err := fs.Open("/nope.parquet"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Open() error = %v, want os.ErrNotExist", err)
	}
}

func TestNew_UnknownKind(t *testing.T) {
	if _, err := New(&config.Config{RemoteFS: "s3"}, zap.NewNop()); err == nil {
		t.Fatal("New() expected error for unknown kind, got nil")
	}
}

func TestWriteFileAtomic_Success(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "city,date,avg_temp\n")
		return err
	})
	if err != nil {
		t.Fatalf("WriteFileAtomic() unexpected error: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(b) != "city,date,avg_temp\n" {
		t.Errorf("content = %q", b)
	}
}

func TestWriteFileAtomic_FailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	boom := errors.New("boom")

	err := WriteFileAtomic(path, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WriteFileAtomic() error = %v, want %v", err, boom)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("directory has %d entries after failed write, want 0", len(entries))
	}
}

func TestWriteFilesAtomic_SecondFailureRemovesFirst(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "weather_data.csv")
	parquetPath := filepath.Join(dir, "missing", "weather_data.parquet")

	err := WriteFilesAtomic(
		FileWrite{Path: csvPath, Write: func(w io.Writer) error {
			_, err := io.WriteString(w, "city,date,avg_temp\n")
			return err
		}},
		FileWrite{Path: parquetPath, Write: func(w io.Writer) error { return nil }},
	)
	if err == nil {
		t.Fatal("WriteFilesAtomic() expected error for a missing directory, got nil")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("directory has %d entries after failed write, want 0", len(entries))
	}
}

func TestWriteFilesAtomic_WritesAll(t *testing.T) {
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.parquet")}

	var files []FileWrite
	for _, p := range paths {
		p := p // per-iteration copy; go directive is 1.21 for the local toolchain
		files = append(files, FileWrite{Path: p, Write: func(w io.Writer) error {
			_, err := io.WriteString(w, filepath.Base(p))
			return err
		}})
	}
	if err := WriteFilesAtomic(files...); err != nil {
		t.Fatalf("WriteFilesAtomic() unexpected error: %v", err)
	}
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", p, err)
		}
		if string(b) != filepath.Base(p) {
			t.Errorf("%s content = %q", p, b)
		}
	}
}

func TestHDFS_DialsOnFirstUse(t *testing.T) {
	fs, err := New(&config.Config{RemoteFS: "hdfs", HDFSHost: "127.0.0.1", HDFSPort: 1, HDFSUser: "inna"}, zap.NewNop())
	if err != nil {
		t.Fatalf("New() unexpected error for an unreachable namenode: %v", err)
	}
	defer fs.Close()

	if _, err := fs.Create("/user/inna/weather_data.parquet"); err == nil {
		t.Fatal("Create() expected a connection error, got nil")
	}
	if _, err := fs.Open("/user/inna/weather_data.parquet"); err == nil {
		t.Fatal("Open() expected a connection error, got nil")
	}
}
