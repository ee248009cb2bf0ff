package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sloppy/threatone/internal/intel"
)

// Store is the persistence gateway for the tables the dashboard keeps
// across restarts. Each call is atomic on its own; nothing spans calls.
type Store interface {
	ListAssets() ([]intel.ScopeAsset, error)
	CreateAsset(a intel.ScopeAsset) (intel.ScopeAsset, error)
	UpdateAssetStatus(id string, status intel.AssetStatus, checkedAt time.Time) error
	UpdateAssetTags(id string, tags []string) error
	DeleteAsset(id string) error

	ListSettings() ([]Setting, error)
	UpsertSetting(s Setting) (Setting, error)

	ListAuthSites() ([]AuthSite, error)
	CreateAuthSite(s AuthSite) (AuthSite, error)

	ListQuestions() ([]intel.AuditQuestion, error)
	CreateQuestion(q intel.AuditQuestion) (intel.AuditQuestion, error)
	UpdateQuestion(q intel.AuditQuestion) error
	DeleteQuestion(id int64) error
	SeedQuestions(questions []intel.AuditQuestion) ([]intel.AuditQuestion, error)

	Close() error
}

// Setting is a key/value row of system_setting. Sealed values hold
// ciphertext and are only ever shown redacted.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"-"`
	Sealed    bool      `json:"sealed"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuthSite is a monitored site that requires a login. Password is sealed.
type AuthSite struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(data), nil
}

func decodeTags(raw string) ([]string, error) {
	var tags []string
	if raw == "" {
		return []string{}, nil
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return tags, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: !t.IsZero()}
}
