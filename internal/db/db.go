package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/sloppy/threatone/internal/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// DB is the SQLite implementation of Store.
type DB struct {
	*sql.DB
}

var _ Store = (*DB)(nil)

var pragmas = []struct{ sql, what string }{
	{`PRAGMA busy_timeout = 5000;`, "set busy timeout"},
	{`PRAGMA journal_mode = WAL;`, "enable WAL"},
}

// Open opens or creates the database file at path and applies any embedded
// migration it has not seen yet.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	for _, p := range pragmas {
		if _, err := sqlDB.Exec(p.sql); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("%s: %w", p.what, err)
		}
	}
	if err := runMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return &DB{sqlDB}, nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// runMigrations applies migrations/*.sql in name order. Applied names are
// recorded in schema_migration so each file runs once per database.
func runMigrations(sqlDB *sql.DB) error {
	if _, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS schema_migration (
		name TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create migration table: %w", err)
	}

	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	for _, path := range names {
		name := strings.TrimPrefix(path, "migrations/")
		var seen int
		if err := sqlDB.QueryRow(`SELECT COUNT(*) FROM schema_migration WHERE name = ?`, name).Scan(&seen); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if seen > 0 {
			continue
		}
		if err := applyMigration(sqlDB, name, path); err != nil {
			return err
		}
		logger.Debug("Applied migration", "name", name)
	}
	return nil
}

func applyMigration(sqlDB *sql.DB, name, path string) error {
	content, err := migrationFiles.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}
	tx, err := sqlDB.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", name, err)
	}
	defer tx.Rollback()

	if text := strings.TrimSpace(string(content)); text != "" {
		if _, err := tx.Exec(text); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_migration (name) VALUES (?)`, name); err != nil {
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", name, err)
	}
	return nil
}
