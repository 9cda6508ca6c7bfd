package platform

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ResolveDir(dir + string(filepath.Separator) + ".")
	if err != nil {
		t.Fatalf("ResolveDir() error = %v", err)
	}
	if got != filepath.Clean(dir) {
		t.Errorf("ResolveDir() = %q, want %q", got, filepath.Clean(dir))
	}

	tests := []struct {
		name string
		path string
	}{
		{"Empty", ""},
		{"Missing", filepath.Join(dir, "missing")},
		{"File", file},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveDir(tt.path)
			var pathErr *PathError
			if !errors.As(err, &pathErr) {
				t.Fatalf("ResolveDir(%q) error = %v, want *PathError", tt.path, err)
			}
		})
	}
}

func TestResolveDir_Relative(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	got, err := ResolveDir("sub")
	if err != nil {
		t.Fatalf("ResolveDir() error = %v", err)
	}
	if !filepath.IsAbs(got) || filepath.Base(got) != "sub" {
		t.Errorf("ResolveDir() = %q, want absolute path ending in sub", got)
	}
}

func TestNormalizePath(t *testing.T) {
	if got := NormalizePath("a/./b/../c"); got != filepath.Join("a", "c") {
		t.Errorf("NormalizePath() = %q", got)
	}
}
