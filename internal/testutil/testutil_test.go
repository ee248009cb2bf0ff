package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTempDir(t *testing.T) {
	dir := TempDir(t)
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("temp dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("temp dir is not a directory: %s", dir)
	}
}

func TestDBPathIsFresh(t *testing.T) {
	a, b := DBPath(t), DBPath(t)
	if a == b {
		t.Fatalf("expected distinct paths, got %s twice", a)
	}
	if _, err := os.Stat(filepath.Dir(a)); err != nil {
		t.Fatalf("db dir missing: %v", err)
	}
	if _, err := os.Stat(a); !os.IsNotExist(err) {
		t.Fatalf("db file should not exist yet: %v", err)
	}
}

func TestEventually(t *testing.T) {
	calls := 0
	Eventually(t, time.Second, func() bool {
		calls++
		return calls == 3
	}, "third poll")
	if calls != 3 {
		t.Fatalf("expected 3 polls, got %d", calls)
	}
}
