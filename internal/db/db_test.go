package db

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sloppy/threatone/internal/testutil"
)

func TestMigrationsCreateSchema(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	tables := names(t, db, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	want := []string{"audit_question", "monitored_auth_site", "schema_migration", "scope_asset", "system_setting"}
	if diff := cmp.Diff(want, tables); diff != "" {
		t.Fatalf("tables mismatch (-want +got):\n%s", diff)
	}

	indexes := names(t, db, `SELECT name FROM sqlite_master WHERE type = 'index' AND name NOT LIKE 'sqlite_%'`)
	if i := sort.SearchStrings(indexes, "idx_scope_asset_status"); i == len(indexes) || indexes[i] != "idx_scope_asset_status" {
		t.Fatalf("expected idx_scope_asset_status, got %v", indexes)
	}

	applied := names(t, db, `SELECT name FROM schema_migration ORDER BY name`)
	if diff := cmp.Diff([]string{"001_init.sql"}, applied); diff != "" {
		t.Fatalf("applied migrations mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenEnablesWALAndAllowsConcurrentOpens(t *testing.T) {
	path := filepath.Join(testutil.TempDir(t), "shared.db")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("open first: %v", err)
	}
	defer first.Close()

	var mode string
	if err := first.QueryRow(`PRAGMA journal_mode;`).Scan(&mode); err != nil {
		t.Fatalf("read journal mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("expected journal_mode wal, got %q", mode)
	}

	if _, err := first.UpsertSetting(Setting{Key: "theme", Value: "dark"}); err != nil {
		t.Fatalf("upsert via first: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("open second: %v", err)
	}
	defer second.Close()

	if _, err := second.UpsertSetting(Setting{Key: "lang", Value: "en"}); err != nil {
		t.Fatalf("upsert via second: %v", err)
	}
	settings, err := first.ListSettings()
	if err != nil {
		t.Fatalf("list settings: %v", err)
	}
	if len(settings) != 2 {
		t.Fatalf("expected 2 settings, got %#v", settings)
	}
}

func TestMigrationsAreReentrant(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	if _, err := db.CreateQuestion(questionFixture("Is MFA enforced?")); err != nil {
		t.Fatalf("create question: %v", err)
	}
	if err := runMigrations(db.DB); err != nil {
		t.Fatalf("re-run migrations: %v", err)
	}
	questions, err := db.ListQuestions()
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("re-running migrations lost rows: %#v", questions)
	}
	if applied := names(t, db, `SELECT name FROM schema_migration`); len(applied) != 1 {
		t.Fatalf("migration recorded twice: %v", applied)
	}
}

func names(t *testing.T, db *DB, query string) []string {
	t.Helper()
	rows, err := db.Query(query)
	if err != nil {
		t.Fatalf("query %q: %v", query, err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan name: %v", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	sort.Strings(out)
	return out
}
