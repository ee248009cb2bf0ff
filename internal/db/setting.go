package db

import "fmt"

// ListSettings returns all settings ordered by key.
func (db *DB) ListSettings() ([]Setting, error) {
	rows, err := db.Query(`SELECT key, value, sealed, updated_at FROM system_setting ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	settings := []Setting{}
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.Sealed, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings = append(settings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return settings, nil
}

// UpsertSetting inserts or replaces a setting keyed by key.
func (db *DB) UpsertSetting(s Setting) (Setting, error) {
	var out Setting
	err := db.QueryRow(
		`INSERT INTO system_setting (key, value, sealed) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   value=excluded.value,
		   sealed=excluded.sealed,
		   updated_at=CURRENT_TIMESTAMP
		 RETURNING key, value, sealed, updated_at`,
		s.Key, s.Value, s.Sealed,
	).Scan(&out.Key, &out.Value, &out.Sealed, &out.UpdatedAt)
	if err != nil {
		return Setting{}, fmt.Errorf("upsert setting: %w", err)
	}
	return out, nil
}
