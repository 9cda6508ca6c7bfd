package storage

import (
	"context"
	"io"
	"io/fs"
	"os"
	"time"
)

// FileInfo represents metadata about a file
type FileInfo struct {
	Path         string
	Size         int64
	ModTime      time.Time
	Mode         fs.FileMode
	IsDir        bool
	IsRegular    bool
	Permissions  uint32
	RelativePath string

	stat fs.FileInfo
}

// SameFile reports whether fi and other describe the same file on disk.
// Filesystems without file identity never match.
func (fi *FileInfo) SameFile(other *FileInfo) bool {
	if fi == nil || other == nil || fi.stat == nil || other.stat == nil {
		return false
	}
	return os.SameFile(fi.stat, other.stat)
}

// Backend defines the interface for storage operations.
// Paths are relative to the backend root; "" is the root itself.
type Backend interface {
	// ReadDir returns the entry names of a directory in listing order
	ReadDir(ctx context.Context, path string) ([]string, error)

	// Read opens a file for reading
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Lock makes the read-decode-write of one path exclusive across runs.
	// The caller must call the returned func once it is done with path.
	Lock(ctx context.Context, path string) (func(), error)

	// Write replaces a file's content. The new content becomes visible at
	// once; readers never observe a partial write. If metadata is provided
	// its permissions are applied to the new content.
	Write(ctx context.Context, path string, reader io.Reader, size int64, metadata *FileInfo) error

	// Stat returns file metadata, following symlinks
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// CheckDirAccess verifies a directory can be listed and entered
	CheckDirAccess(ctx context.Context, path string) error

	// CheckFileAccess verifies a file can be read and written
	CheckFileAccess(ctx context.Context, path string) error

	// Root returns the absolute root path
	Root() string

	// Close releases any resources held by the backend
	Close() error
}
