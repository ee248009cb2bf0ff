// Package config loads threatone.yaml and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sloppy/threatone/internal/secret"
)

type Config struct {
	Addr      string   `yaml:"addr"`
	Database  Database `yaml:"database"`
	Gemini    Gemini   `yaml:"gemini"`
	Timings   Timings  `yaml:"timings"`
	SecretKey string   `yaml:"secret_key"`
	NATS      NATS     `yaml:"nats"`
	Log       Log      `yaml:"log"`
}

type Database struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	URL    string `yaml:"url"`
}

type Gemini struct {
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// Timings are the simulated delays and display windows of the dashboard.
type Timings struct {
	VerifyDelay    time.Duration `yaml:"verify_delay"`
	SimulatedDelay time.Duration `yaml:"simulated_delay"`
	UploadDelay    time.Duration `yaml:"upload_delay"`
	ReportDelay    time.Duration `yaml:"report_delay"`
	DisplayWindow  time.Duration `yaml:"display_window"`
}

type NATS struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type Log struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

func Default() Config {
	return Config{
		Addr: "127.0.0.1:8080",
		Database: Database{
			Driver: "sqlite",
			Path:   "threatone.db",
		},
		Gemini: Gemini{
			Model:     "gemini-2.5-flash",
			BaseURL:   "https://generativelanguage.googleapis.com",
			Timeout:   60 * time.Second,
			CacheSize: 64,
			CacheTTL:  10 * time.Minute,
		},
		Timings: Timings{
			VerifyDelay:    3 * time.Second,
			SimulatedDelay: 2 * time.Second,
			UploadDelay:    1500 * time.Millisecond,
			ReportDelay:    1500 * time.Millisecond,
			DisplayWindow:  5 * time.Second,
		},
		NATS: NATS{SubjectPrefix: "threatone"},
		Log:  Log{Format: "text", Level: "info"},
	}
}

// Load reads path over the defaults, re-fills zero values and applies the
// environment read through getenv. A missing file is not an error.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	cfg.fillDefaults()
	if getenv != nil {
		cfg.applyEnv(getenv)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.Addr == "" {
		c.Addr = def.Addr
	}
	if c.Database.Driver == "" {
		c.Database.Driver = def.Database.Driver
	}
	if c.Database.Path == "" {
		c.Database.Path = def.Database.Path
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = def.Gemini.Model
	}
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = def.Gemini.BaseURL
	}
	if c.Gemini.Timeout <= 0 {
		c.Gemini.Timeout = def.Gemini.Timeout
	}
	if c.Gemini.CacheSize <= 0 {
		c.Gemini.CacheSize = def.Gemini.CacheSize
	}
	if c.Gemini.CacheTTL <= 0 {
		c.Gemini.CacheTTL = def.Gemini.CacheTTL
	}
	if c.Timings.VerifyDelay <= 0 {
		c.Timings.VerifyDelay = def.Timings.VerifyDelay
	}
	if c.Timings.SimulatedDelay <= 0 {
		c.Timings.SimulatedDelay = def.Timings.SimulatedDelay
	}
	if c.Timings.UploadDelay <= 0 {
		c.Timings.UploadDelay = def.Timings.UploadDelay
	}
	if c.Timings.ReportDelay <= 0 {
		c.Timings.ReportDelay = def.Timings.ReportDelay
	}
	if c.Timings.DisplayWindow <= 0 {
		c.Timings.DisplayWindow = def.Timings.DisplayWindow
	}
	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = def.NATS.SubjectPrefix
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, name string) {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			*dst = v
		}
	}
	set(&c.Gemini.APIKey, "API_KEY")
	set(&c.Database.Driver, "DB_DRIVER")
	set(&c.Database.Path, "DB_PATH")
	set(&c.Database.URL, "DATABASE_URL")
	set(&c.Addr, "THREATONE_ADDR")
	set(&c.SecretKey, "THREATONE_SECRET_KEY")
	set(&c.NATS.URL, "NATS_URL")
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.SecretKey != "" {
		if _, err := secret.ParseKey(c.SecretKey); err != nil {
			return fmt.Errorf("secret_key: %w", err)
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %s", c.Log.Format)
	}
	return nil
}
