package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/afero"
)

// Local is a filesystem-based storage backend
type Local struct {
	fs       afero.Fs
	rootPath string
	lockable bool
}

// NewLocal creates a backend on the operating system filesystem
func NewLocal(rootPath string) (*Local, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	return NewLocalFs(afero.NewOsFs(), absPath)
}

// NewLocalFs creates a backend on any afero filesystem
func NewLocalFs(fsys afero.Fs, rootPath string) (*Local, error) {
	info, err := fsys.Stat(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", rootPath)
	}

	// Releasing a sidecar lock removes a file that is still open
	_, onDisk := fsys.(*afero.OsFs)
	onDisk = onDisk && runtime.GOOS != "windows"

	return &Local{fs: fsys, rootPath: rootPath, lockable: onDisk}, nil
}

// ReadDir lists entry names sorted by name
func (l *Local) ReadDir(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	infos, err := afero.ReadDir(l.fs, l.full(path))
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}

	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}
	return names, nil
}

// Read opens a file for reading
func (l *Local) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	file, err := l.fs.Open(l.full(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Lock holds the sidecar lock of path until the returned func is called.
// Only the OS filesystem is locked; elsewhere the unlock func is a no-op.
func (l *Local) Lock(ctx context.Context, path string) (func(), error) {
	if !l.lockable {
		return func() {}, nil
	}

	lock := NewPathLock(SidecarPath(l.full(path)))
	if err := lock.LockContext(ctx); err != nil {
		return nil, err
	}
	return func() { lock.Release() }, nil
}

// Write replaces a file through a temp file in the same directory and a
// rename
func (l *Local) Write(ctx context.Context, path string, reader io.Reader, size int64, metadata *FileInfo) error {
	fullPath := l.full(path)

	dir := filepath.Dir(fullPath)
	tmp, err := afero.TempFile(l.fs, dir, ".textnorris-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	// Remove the temp file unless it was renamed into place
	defer func() {
		if tmp != nil {
			tmp.Close()
			l.fs.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmp, reader)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if written != size {
		return fmt.Errorf("incomplete write: expected %d bytes, wrote %d", size, written)
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	perm := os.FileMode(0644)
	if metadata != nil && metadata.Permissions != 0 {
		perm = os.FileMode(metadata.Permissions)
	}
	if err := l.fs.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := l.fs.Rename(tmpPath, fullPath); err != nil {
		return fmt.Errorf("failed to replace %s: %w", fullPath, err)
	}
	tmp = nil

	return nil
}

// Stat returns file metadata
func (l *Local) Stat(ctx context.Context, path string) (*FileInfo, error) {
	fullPath := l.full(path)

	info, err := l.fs.Stat(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	relPath, err := filepath.Rel(l.rootPath, fullPath)
	if err != nil {
		return nil, err
	}

	return &FileInfo{
		Path:         fullPath,
		Size:         info.Size(),
		ModTime:      info.ModTime(),
		Mode:         info.Mode(),
		IsDir:        info.IsDir(),
		IsRegular:    info.Mode().IsRegular(),
		Permissions:  uint32(info.Mode().Perm()),
		RelativePath: relPath,
		stat:         info,
	}, nil
}

// CheckDirAccess opens the directory and, where the platform has one,
// checks the owner search bit
func (l *Local) CheckDirAccess(ctx context.Context, path string) error {
	fullPath := l.full(path)

	dir, err := l.fs.Open(fullPath)
	if err != nil {
		return fmt.Errorf("directory not readable: %w", err)
	}
	defer dir.Close()

	info, err := dir.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", fullPath)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0100 == 0 {
		return fmt.Errorf("directory not traversable: %s", fullPath)
	}

	return nil
}

// CheckFileAccess opens the file read-write without modifying it
func (l *Local) CheckFileAccess(ctx context.Context, path string) error {
	file, err := l.fs.OpenFile(l.full(path), os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("file not readable and writable: %w", err)
	}
	return file.Close()
}

// Root returns the backend root path
func (l *Local) Root() string {
	return l.rootPath
}

// Close releases resources (no-op for local filesystem)
func (l *Local) Close() error {
	return nil
}

func (l *Local) full(path string) string {
	return filepath.Join(l.rootPath, path)
}
