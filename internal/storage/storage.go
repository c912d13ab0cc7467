// Package storage abstracts the remote filesystem the dataset is persisted
// to, and writes local output files.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/innatolkaneva/weather/internal/config"
)

// File is a remote file opened for random-access reading, as columnar
// readers need.
type File interface {
	io.ReaderAt
	io.Seeker
	io.Closer
}

// FileSystem is the subset of a distributed filesystem the pipeline uses.
type FileSystem interface {
	// Create opens path for writing, replacing any existing content.
	Create(path string) (io.WriteCloser, error)
	Open(path string) (File, error)
	Close() error
}

// New returns the filesystem selected by cfg.RemoteFS.
func New(cfg *config.Config, logger *zap.Logger) (FileSystem, error) {
	switch cfg.RemoteFS {
	case "local":
		logger.Info("using local remote filesystem", zap.String("dir", cfg.RemoteLocalDir))
		return NewLocal(cfg.RemoteLocalDir), nil
	case "hdfs", "":
		return NewHDFS(cfg.HDFSAddr(), cfg.HDFSUser, logger), nil
	default:
		return nil, fmt.Errorf("unknown REMOTE_FS %q", cfg.RemoteFS)
	}
}

// Local is a FileSystem rooted at a local directory.
type Local struct {
	root string
}

func NewLocal(root string) *Local {
	return &Local{root: root}
}

func (l *Local) resolve(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(path))
}

func (l *Local) Create(path string) (io.WriteCloser, error) {
	full := l.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	f, err := os.Create(full)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (l *Local) Open(path string) (File, error) {
	f, err := os.Open(l.resolve(path))
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (l *Local) Close() error { return nil }

// FileWrite is one file produced by WriteFilesAtomic.
type FileWrite struct {
	Path  string
	Write func(w io.Writer) error
}

// WriteFileAtomic writes path through a temporary file in the same directory
// and renames it into place once write succeeds, so a failed write leaves no
// file behind and never a truncated one.
func WriteFileAtomic(path string, write func(w io.Writer) error) error {
	return WriteFilesAtomic(FileWrite{Path: path, Write: write})
}

// WriteFilesAtomic writes every file to a temporary sibling first and renames
// them into place only after all writes succeeded. On failure none of the
// paths is left behind.
func WriteFilesAtomic(files ...FileWrite) (err error) {
	staged := make([]string, 0, len(files))
	defer func() {
		if err != nil {
			for _, tmp := range staged {
				os.Remove(tmp)
			}
		}
	}()

	for _, f := range files {
		tmp, err := stage(f)
		if err != nil {
			return err
		}
		staged = append(staged, tmp)
	}

	for i, tmp := range staged {
		if err = os.Rename(tmp, files[i].Path); err != nil {
			for _, done := range files[:i] {
				os.Remove(done.Path)
			}
			return fmt.Errorf("rename into %s: %w", files[i].Path, err)
		}
	}
	return nil
}

// stage writes f to a temporary file next to f.Path and returns its name.
func stage(f FileWrite) (name string, err error) {
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), "."+filepath.Base(f.Path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file for %s: %w", f.Path, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(0o644); err != nil {
		return "", fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err = f.Write(tmp); err != nil {
		return "", err
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	return tmp.Name(), nil
}
