package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const backupTimeLayout = "20060102150405"

// FileSystem wraps an afero.Fs with the write patterns used when resolving files in place.
type FileSystem struct {
	fs  afero.Fs
	now func() time.Time
}

// NewFileSystem returns a FileSystem backed by the operating system.
func NewFileSystem() *FileSystem {
	return New(afero.NewOsFs())
}

// NewMemFileSystem returns an in-memory FileSystem.
func NewMemFileSystem() *FileSystem {
	return New(afero.NewMemMapFs())
}

func New(fs afero.Fs) *FileSystem {
	return &FileSystem{fs: fs, now: time.Now}
}

// Afero exposes the underlying afero.Fs.
func (f *FileSystem) Afero() afero.Fs {
	return f.fs
}

func (f *FileSystem) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(f.fs, path)
}

func (f *FileSystem) Stat(path string) (os.FileInfo, error) {
	return f.fs.Stat(path)
}

func (f *FileSystem) MkdirAll(path string, perm os.FileMode) error {
	return f.fs.MkdirAll(path, perm)
}

func (f *FileSystem) Remove(path string) error {
	return f.fs.Remove(path)
}

func (f *FileSystem) Exists(path string) bool {
	ok, err := afero.Exists(f.fs, path)
	return err == nil && ok
}

func (f *FileSystem) Walk(root string, fn filepath.WalkFunc) error {
	return afero.Walk(f.fs, root, fn)
}

// WriteFile replaces path atomically: data goes to a temporary file in the same directory
// which is then renamed over the target.
func (f *FileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := afero.TempFile(f.fs, dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() { _ = f.fs.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := f.fs.Chmod(tmpName, perm); err != nil {
		cleanup()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := f.fs.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}

// Backup copies data next to path under a name that cannot collide with an existing file:
// <path>.<yyyymmddhhmmss>-<8 hex chars>.bak. It returns the backup path.
func (f *FileSystem) Backup(path string, data []byte, perm os.FileMode) (string, error) {
	backupPath := BackupPath(path, f.now(), uuid.NewString()[:8])

	file, err := f.fs.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	return backupPath, nil
}

// BackupPath builds the backup file name for path.
func BackupPath(path string, at time.Time, suffix string) string {
	return fmt.Sprintf("%s.%s-%s.bak", path, at.Format(backupTimeLayout), suffix)
}
