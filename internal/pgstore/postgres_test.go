package pgstore

import (
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sloppy/threatone/internal/db"
	"github.com/sloppy/threatone/internal/intel"
)

// newTestStore connects to THREATONE_TEST_DATABASE_URL and empties the
// tables. Tests are skipped when it is unset.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("THREATONE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("THREATONE_TEST_DATABASE_URL not set")
	}
	s, err := Open(dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if _, err := s.db.Exec(`TRUNCATE scope_asset, system_setting, monitored_auth_site, audit_question RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return s
}

func TestSchemaIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.db.Exec(schema); err != nil {
		t.Fatalf("re-apply schema: %v", err)
	}
}

func TestAssetRoundTrip(t *testing.T) {
	s := newTestStore(t)

	checked := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	in := intel.ScopeAsset{ID: "a-1", Kind: intel.AssetEmailDomain, Value: "corp.example", Status: intel.AssetVerifying, LastChecked: checked, Tags: []string{"mail"}}
	if _, err := s.CreateAsset(in); err != nil {
		t.Fatalf("create asset: %v", err)
	}
	if err := s.UpdateAssetStatus("a-1", intel.AssetExposed, checked); err != nil {
		t.Fatalf("update status: %v", err)
	}
	assets, err := s.ListAssets()
	if err != nil {
		t.Fatalf("list assets: %v", err)
	}
	in.Status = intel.AssetExposed
	if diff := cmp.Diff([]intel.ScopeAsset{in}, assets); diff != "" {
		t.Fatalf("assets mismatch (-want +got):\n%s", diff)
	}
	if err := s.DeleteAsset("a-1"); err != nil {
		t.Fatalf("delete asset: %v", err)
	}
	if err := s.DeleteAsset("a-1"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
}

func TestUpsertSettingReplaces(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.UpsertSetting(db.Setting{Key: "gemini_api_key", Value: "one", Sealed: true}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := s.UpsertSetting(db.Setting{Key: "gemini_api_key", Value: "two", Sealed: true}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	settings, err := s.ListSettings()
	if err != nil {
		t.Fatalf("list settings: %v", err)
	}
	if len(settings) != 1 || settings[0].Value != "two" {
		t.Fatalf("unexpected settings: %#v", settings)
	}
}

func TestSeedQuestionsOnce(t *testing.T) {
	s := newTestStore(t)

	first, err := s.SeedQuestions(intel.SeedQuestions())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	second, err := s.SeedQuestions(intel.SeedQuestions())
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if len(first) != len(intel.SeedQuestions()) {
		t.Fatalf("expected %d questions, got %d", len(intel.SeedQuestions()), len(first))
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("reseed changed rows (-want +got):\n%s", diff)
	}
}
