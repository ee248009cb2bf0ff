// Package pgstore is the PostgreSQL persistence gateway.
package pgstore

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/sloppy/threatone/internal/db"
	"github.com/sloppy/threatone/internal/intel"
	"github.com/sloppy/threatone/internal/logger"
)

//go:embed schema.sql
var schema string

// Store implements db.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ db.Store = (*Store)(nil)

// Open connects to the database at dsn and creates missing tables.
func Open(dsn string) (*Store, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if _, err := sqlDB.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	logger.Info("PostgreSQL store ready")
	return &Store{db: sqlDB}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListAssets() ([]intel.ScopeAsset, error) {
	rows, err := s.db.Query(
		`SELECT id, kind, value, status, last_checked, tags
		 FROM scope_asset ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	assets := []intel.ScopeAsset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return assets, nil
}

func (s *Store) CreateAsset(a intel.ScopeAsset) (intel.ScopeAsset, error) {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	row := s.db.QueryRow(
		`INSERT INTO scope_asset (id, kind, value, status, last_checked, tags)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, kind, value, status, last_checked, tags`,
		a.ID, string(a.Kind), a.Value, string(a.Status), nullTime(a.LastChecked), pq.Array(tags),
	)
	out, err := scanAsset(row)
	if err != nil {
		return intel.ScopeAsset{}, fmt.Errorf("insert scope_asset: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateAssetStatus(id string, status intel.AssetStatus, checkedAt time.Time) error {
	return s.execOne("update asset status",
		`UPDATE scope_asset SET status = $1, last_checked = $2 WHERE id = $3`,
		string(status), nullTime(checkedAt), id)
}

func (s *Store) UpdateAssetTags(id string, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	return s.execOne("update asset tags", `UPDATE scope_asset SET tags = $1 WHERE id = $2`, pq.Array(tags), id)
}

func (s *Store) DeleteAsset(id string) error {
	return s.execOne("delete asset", `DELETE FROM scope_asset WHERE id = $1`, id)
}

func (s *Store) ListSettings() ([]db.Setting, error) {
	rows, err := s.db.Query(`SELECT key, value, sealed, updated_at FROM system_setting ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	settings := []db.Setting{}
	for rows.Next() {
		var st db.Setting
		if err := rows.Scan(&st.Key, &st.Value, &st.Sealed, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings = append(settings, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	return settings, nil
}

// UpsertSetting inserts or replaces a setting keyed by key.
func (s *Store) UpsertSetting(st db.Setting) (db.Setting, error) {
	var out db.Setting
	err := s.db.QueryRow(
		`INSERT INTO system_setting (key, value, sealed, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			sealed = EXCLUDED.sealed,
			updated_at = NOW()
		 RETURNING key, value, sealed, updated_at`,
		st.Key, st.Value, st.Sealed,
	).Scan(&out.Key, &out.Value, &out.Sealed, &out.UpdatedAt)
	if err != nil {
		return db.Setting{}, fmt.Errorf("upsert setting: %w", err)
	}
	return out, nil
}

func (s *Store) ListAuthSites() ([]db.AuthSite, error) {
	rows, err := s.db.Query(`SELECT id, name, url, username, password, created_at FROM monitored_auth_site ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list auth sites: %w", err)
	}
	defer rows.Close()

	sites := []db.AuthSite{}
	for rows.Next() {
		var site db.AuthSite
		if err := rows.Scan(&site.ID, &site.Name, &site.URL, &site.Username, &site.Password, &site.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan auth site: %w", err)
		}
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate auth sites: %w", err)
	}
	return sites, nil
}

func (s *Store) CreateAuthSite(site db.AuthSite) (db.AuthSite, error) {
	var out db.AuthSite
	err := s.db.QueryRow(
		`INSERT INTO monitored_auth_site (name, url, username, password) VALUES ($1, $2, $3, $4)
		 RETURNING id, name, url, username, password, created_at`,
		site.Name, site.URL, site.Username, site.Password,
	).Scan(&out.ID, &out.Name, &out.URL, &out.Username, &out.Password, &out.CreatedAt)
	if err != nil {
		return db.AuthSite{}, fmt.Errorf("insert auth site: %w", err)
	}
	return out, nil
}

func (s *Store) ListQuestions() ([]intel.AuditQuestion, error) {
	rows, err := s.db.Query(`SELECT id, text, category FROM audit_question ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	questions := []intel.AuditQuestion{}
	for rows.Next() {
		var q intel.AuditQuestion
		if err := rows.Scan(&q.ID, &q.Text, &q.Category); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return questions, nil
}

func (s *Store) CreateQuestion(q intel.AuditQuestion) (intel.AuditQuestion, error) {
	var out intel.AuditQuestion
	err := s.db.QueryRow(
		`INSERT INTO audit_question (text, category) VALUES ($1, $2) RETURNING id, text, category`,
		q.Text, q.Category,
	).Scan(&out.ID, &out.Text, &out.Category)
	if err != nil {
		return intel.AuditQuestion{}, fmt.Errorf("insert question: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateQuestion(q intel.AuditQuestion) error {
	return s.execOne("update question", `UPDATE audit_question SET text = $1, category = $2 WHERE id = $3`, q.Text, q.Category, q.ID)
}

func (s *Store) DeleteQuestion(id int64) error {
	return s.execOne("delete question", `DELETE FROM audit_question WHERE id = $1`, id)
}

// SeedQuestions stores the default questionnaire when the table is empty.
// The table is locked for the duration so concurrent instances seed once.
func (s *Store) SeedQuestions(questions []intel.AuditQuestion) ([]intel.AuditQuestion, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`LOCK TABLE audit_question IN EXCLUSIVE MODE`); err != nil {
		return nil, fmt.Errorf("lock questions: %w", err)
	}
	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM audit_question`).Scan(&count); err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	if count == 0 {
		stmt, err := tx.Prepare(`INSERT INTO audit_question (text, category) VALUES ($1, $2)`)
		if err != nil {
			return nil, fmt.Errorf("prepare seed: %w", err)
		}
		defer stmt.Close()
		for _, q := range questions {
			if _, err := stmt.Exec(q.Text, q.Category); err != nil {
				return nil, fmt.Errorf("insert question: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit seed: %w", err)
	}
	return s.ListQuestions()
}

func (s *Store) execOne(what, query string, args ...any) error {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(s scanner) (intel.ScopeAsset, error) {
	var a intel.ScopeAsset
	var kind, status string
	var checked sql.NullTime
	var tags []string
	if err := s.Scan(&a.ID, &kind, &a.Value, &status, &checked, pq.Array(&tags)); err != nil {
		return intel.ScopeAsset{}, fmt.Errorf("scan asset: %w", err)
	}
	a.Kind = intel.AssetKind(kind)
	a.Status = intel.AssetStatus(status)
	if checked.Valid {
		a.LastChecked = checked.Time.UTC()
	}
	if tags == nil {
		tags = []string{}
	}
	a.Tags = tags
	return a, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: !t.IsZero()}
}
