// Package testutil holds helpers shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"
)

// TempDir returns a per-test directory removed when the test ends.
func TempDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

// DBPath returns a fresh SQLite file path inside the test's temp dir.
func DBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(TempDir(t), "threatone-test.db")
}
