package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// TestNewLocal tests the Local backend constructor
func TestNewLocal(t *testing.T) {
	t.Run("ValidDirectory", func(t *testing.T) {
		local, err := NewLocal(t.TempDir())
		if err != nil {
			t.Fatalf("NewLocal() error = %v", err)
		}
		defer local.Close()

		if !filepath.IsAbs(local.Root()) {
			t.Errorf("Root() = %s, want absolute path", local.Root())
		}
	})

	t.Run("NonExistentPath", func(t *testing.T) {
		_, err := NewLocal("/nonexistent/path/that/does/not/exist")
		if err == nil {
			t.Error("NewLocal() should fail for non-existent path")
		}
	})

	t.Run("FileNotDirectory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file.txt")
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}

		_, err := NewLocal(path)
		if err == nil {
			t.Error("NewLocal() should fail for file path (not directory)")
		}
	})

	t.Run("MemoryFilesystem", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		if err := fsys.MkdirAll("/root", 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}

		local, err := NewLocalFs(fsys, "/root")
		if err != nil {
			t.Fatalf("NewLocalFs() error = %v", err)
		}
		if local.lockable {
			t.Error("memory filesystem should not be lockable")
		}
	})
}

func newMemBackend(t *testing.T, files map[string]string) (*Local, afero.Fs) {
	t.Helper()

	fsys := afero.NewMemMapFs()
	if err := fsys.MkdirAll("/data", 0755); err != nil {
		t.Fatalf("failed to create root: %v", err)
	}
	for path, content := range files {
		full := filepath.Join("/data", path)
		if err := fsys.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := afero.WriteFile(fsys, full, []byte(content), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}

	local, err := NewLocalFs(fsys, "/data")
	if err != nil {
		t.Fatalf("NewLocalFs() error = %v", err)
	}
	return local, fsys
}

// TestLocalReadDir tests the ReadDir method
func TestLocalReadDir(t *testing.T) {
	local, _ := newMemBackend(t, map[string]string{
		"b.txt":         "b",
		"a.txt":         "a",
		"sub/c.txt":     "c",
		".hidden":       "h",
		"sub/deep/d.md": "d",
	})
	ctx := context.Background()

	t.Run("RootSorted", func(t *testing.T) {
		names, err := local.ReadDir(ctx, "")
		if err != nil {
			t.Fatalf("ReadDir() error = %v", err)
		}

		want := []string{".hidden", "a.txt", "b.txt", "sub"}
		if len(names) != len(want) {
			t.Fatalf("ReadDir() = %v, want %v", names, want)
		}
		for i := range want {
			if names[i] != want[i] {
				t.Errorf("names[%d] = %s, want %s", i, names[i], want[i])
			}
		}
	})

	t.Run("Subdirectory", func(t *testing.T) {
		names, err := local.ReadDir(ctx, "sub")
		if err != nil {
			t.Fatalf("ReadDir() error = %v", err)
		}
		if len(names) != 2 {
			t.Errorf("ReadDir() = %v, want 2 entries", names)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		if _, err := local.ReadDir(ctx, "missing"); err == nil {
			t.Error("ReadDir() should fail for missing directory")
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := local.ReadDir(cctx, ""); err == nil {
			t.Error("ReadDir() should fail on a cancelled context")
		}
	})
}

// TestLocalStat tests the Stat method
func TestLocalStat(t *testing.T) {
	local, _ := newMemBackend(t, map[string]string{"sub/file.txt": "hello"})
	ctx := context.Background()

	info, err := local.Stat(ctx, "sub/file.txt")
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size != 5 {
		t.Errorf("Size = %d, want 5", info.Size)
	}
	if info.IsDir || !info.IsRegular {
		t.Errorf("IsDir = %v, IsRegular = %v, want regular file", info.IsDir, info.IsRegular)
	}
	if info.RelativePath != filepath.Join("sub", "file.txt") {
		t.Errorf("RelativePath = %s", info.RelativePath)
	}

	dirInfo, err := local.Stat(ctx, "sub")
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if !dirInfo.IsDir || dirInfo.IsRegular {
		t.Error("sub should be a directory")
	}

	if _, err := local.Stat(ctx, "nope"); err == nil {
		t.Error("Stat() should fail for missing file")
	}
}

// TestLocalReadWrite tests Read and Write on an in-memory filesystem
func TestLocalReadWrite(t *testing.T) {
	local, fsys := newMemBackend(t, map[string]string{"file.txt": "old content"})
	ctx := context.Background()

	content := []byte("new")
	if err := local.Write(ctx, "file.txt", bytes.NewReader(content), int64(len(content)), nil); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	reader, err := local.Read(ctx, "file.txt")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	defer reader.Close()

	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != "new" {
		t.Errorf("content = %q, want %q", got, "new")
	}

	// No temp files may be left behind
	names, _ := local.ReadDir(ctx, "")
	if len(names) != 1 {
		t.Errorf("ReadDir() = %v, want only file.txt", names)
	}

	t.Run("IncompleteWrite", func(t *testing.T) {
		err := local.Write(ctx, "file.txt", bytes.NewReader([]byte("abc")), 10, nil)
		if err == nil {
			t.Fatal("Write() should fail when size does not match")
		}
		data, _ := afero.ReadFile(fsys, "/data/file.txt")
		if string(data) != "new" {
			t.Errorf("content after failed write = %q, want unchanged", data)
		}
	})
}

// TestLocalWritePreservesPermissions runs on the OS filesystem so the
// flock path is exercised too
func TestLocalWritePreservesPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "script.txt")
	if err := os.WriteFile(path, []byte("old"), 0600); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	local, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	ctx := context.Background()

	info, err := local.Stat(ctx, "script.txt")
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}

	content := []byte("rewritten")
	if err := local.Write(ctx, "script.txt", bytes.NewReader(content), int64(len(content)), info); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "rewritten" {
		t.Errorf("content = %q, want rewritten", got)
	}

	after, _ := os.Stat(path)
	if after.Mode().Perm() != 0600 {
		t.Errorf("permissions = %o, want 600", after.Mode().Perm())
	}
}

// TestLocalAccessChecks tests CheckDirAccess and CheckFileAccess
func TestLocalAccessChecks(t *testing.T) {
	local, _ := newMemBackend(t, map[string]string{"sub/file.txt": "x"})
	ctx := context.Background()

	if err := local.CheckDirAccess(ctx, "sub"); err != nil {
		t.Errorf("CheckDirAccess() error = %v", err)
	}
	if err := local.CheckDirAccess(ctx, "sub/file.txt"); err == nil {
		t.Error("CheckDirAccess() should fail for a file")
	}
	if err := local.CheckDirAccess(ctx, "missing"); err == nil {
		t.Error("CheckDirAccess() should fail for a missing directory")
	}

	if err := local.CheckFileAccess(ctx, "sub/file.txt"); err != nil {
		t.Errorf("CheckFileAccess() error = %v", err)
	}
	if err := local.CheckFileAccess(ctx, "missing.txt"); err == nil {
		t.Error("CheckFileAccess() should fail for a missing file")
	}
}

// TestPathLock tests that a held lock excludes a second holder
func TestPathLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".locked.txt.textnorris.lock")

	first := NewPathLock(path)
	if err := first.LockContext(context.Background()); err != nil {
		t.Fatalf("LockContext() error = %v", err)
	}

	second := NewPathLock(path)
	acquired, err := second.TryLock()
	if err != nil {
		t.Fatalf("TryLock() error = %v", err)
	}
	if acquired {
		t.Error("TryLock() should not acquire a held lock")
	}

	if err := first.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}

	acquired, err = second.TryLock()
	if err != nil {
		t.Fatalf("TryLock() error = %v", err)
	}
	if !acquired {
		t.Error("TryLock() should acquire a released lock")
	}
	second.Unlock()
}

func TestSidecarPath(t *testing.T) {
	got := SidecarPath(filepath.Join("dir", "notes.txt"))
	want := filepath.Join("dir", ".notes.txt.textnorris.lock")
	if got != want {
		t.Errorf("SidecarPath() = %s, want %s", got, want)
	}
}

// TestLocalLockBlocksSecondHolder holds the sidecar lock of a file the way a
// concurrent run would and checks nobody else gets it until it is released
func TestLocalLockBlocksSecondHolder(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sidecar locks are not taken on Windows")
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "file.txt"), []byte("old"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	local, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	ctx := context.Background()

	unlock, err := local.Lock(ctx, "file.txt")
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	sidecar := filepath.Join(dir, ".file.txt.textnorris.lock")
	if _, err := os.Stat(sidecar); err != nil {
		t.Fatalf("sidecar lock file missing: %v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	if _, err := local.Lock(waitCtx, "file.txt"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Lock() error = %v, want deadline exceeded while held", err)
	}

	acquired := make(chan func(), 1)
	go func() {
		if u, err := local.Lock(ctx, "file.txt"); err == nil {
			acquired <- u
		}
	}()

	select {
	case <-acquired:
		t.Fatal("Lock() returned while the first holder still had it")
	case <-time.After(100 * time.Millisecond):
	}

	unlock()

	select {
	case u := <-acquired:
		u()
	case <-time.After(2 * time.Second):
		t.Fatal("Lock() did not return after release")
	}

	if _, err := os.Stat(sidecar); !os.IsNotExist(err) {
		t.Errorf("sidecar lock file left behind: %v", err)
	}
}

func TestLocalLockMemoryFilesystem(t *testing.T) {
	local, fsys := newMemBackend(t, map[string]string{"file.txt": "x"})

	unlock, err := local.Lock(context.Background(), "file.txt")
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	unlock()

	if exists, _ := afero.Exists(fsys, "/data/.file.txt.textnorris.lock"); exists {
		t.Error("memory filesystem should not get a sidecar lock file")
	}
}

// TestFileInfoSameFile resolves a symlink to its target directory
func TestFileInfoSameFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on Windows")
	}

	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.Symlink(dir, filepath.Join(dir, "sub", "up")); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	local, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	ctx := context.Background()

	root, err := local.Stat(ctx, "")
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	up, err := local.Stat(ctx, filepath.Join("sub", "up"))
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	sub, err := local.Stat(ctx, "sub")
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}

	if !up.SameFile(root) {
		t.Error("symlink to the root should be the same file as the root")
	}
	if sub.SameFile(root) {
		t.Error("sub should not be the same file as the root")
	}
	if root.SameFile(nil) {
		t.Error("SameFile(nil) should be false")
	}

	mem, _ := newMemBackend(t, map[string]string{"a.txt": "a"})
	memInfo, _ := mem.Stat(ctx, "a.txt")
	if memInfo.SameFile(memInfo) {
		t.Error("memory filesystem has no file identity")
	}
}
