// Package testutil provides common test utilities for the coce service.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestEnv is a per-test temporary directory. Paths handed out by it never
// leave that directory.
type TestEnv struct {
	t       *testing.T
	rootDir string
}

// NewTestEnv creates a TestEnv rooted in t.TempDir.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return &TestEnv{t: t, rootDir: t.TempDir()}
}

// RootDir returns the sandbox directory.
func (e *TestEnv) RootDir() string {
	return e.rootDir
}

// Path joins elem under the sandbox and fails the test if the result escapes it.
func (e *TestEnv) Path(elem ...string) string {
	e.t.Helper()

	p := filepath.Join(append([]string{e.rootDir}, elem...)...)
	if p != e.rootDir && !strings.HasPrefix(p, e.rootDir+string(filepath.Separator)) {
		e.t.Fatalf("path %q escapes test sandbox %q", p, e.rootDir)
	}
	return p
}

// WriteFileString writes content to path, creating parent directories.
func (e *TestEnv) WriteFileString(path, content string) {
	e.t.Helper()

	p := e.Path(path)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		e.t.Fatalf("failed to create directory for %q: %v", p, err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		e.t.Fatalf("failed to write %q: %v", p, err)
	}
}

// FileExists reports whether path exists inside the sandbox.
func (e *TestEnv) FileExists(path string) bool {
	e.t.Helper()
	_, err := os.Stat(e.Path(path))
	return err == nil
}
