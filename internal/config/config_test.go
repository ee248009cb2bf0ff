package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sloppy/threatone/internal/testutil"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(testutil.TempDir(t), "absent.yaml"), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileRefillsZeroValues(t *testing.T) {
	path := filepath.Join(testutil.TempDir(t), "threatone.yaml")
	body := `
addr: ":9000"
database:
  driver: sqlite
  path: ""
timings:
  verify_delay: 250ms
  display_window: 0s
log:
  format: json
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.Log.Format != "json" {
		t.Fatalf("file values lost: %#v", cfg)
	}
	if cfg.Timings.VerifyDelay != 250*time.Millisecond {
		t.Fatalf("verify delay = %s", cfg.Timings.VerifyDelay)
	}
	if cfg.Database.Path != "threatone.db" || cfg.Timings.DisplayWindow != 5*time.Second {
		t.Fatalf("zero values not refilled: %#v", cfg)
	}
}

func TestEnvOverrides(t *testing.T) {
	cfg, err := Load("", env(map[string]string{
		"API_KEY":        "gemini-key",
		"DB_DRIVER":      "postgres",
		"DATABASE_URL":   "postgres://threatone@localhost/threatone?sslmode=disable",
		"THREATONE_ADDR": "0.0.0.0:8081",
		"NATS_URL":       "nats://127.0.0.1:4222",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Gemini.APIKey != "gemini-key" || cfg.Database.Driver != "postgres" || cfg.Addr != "0.0.0.0:8081" || cfg.NATS.URL != "nats://127.0.0.1:4222" {
		t.Fatalf("env not applied: %#v", cfg)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver":   {"DB_DRIVER": "mysql"},
		"postgres no url":  {"DB_DRIVER": "postgres"},
		"malformed secret": {"THREATONE_SECRET_KEY": "not-a-key"},
	}
	for name, vars := range cases {
		if _, err := Load("", env(vars)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(testutil.TempDir(t), "bad.yaml")
	os.WriteFile(path, []byte("addr: [unclosed"), 0o644)
	if _, err := Load(path, nil); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}
