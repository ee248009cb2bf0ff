package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sloppy/threatone/internal/intel"
)

// ListAssets returns every scope asset, newest first.
func (db *DB) ListAssets() ([]intel.ScopeAsset, error) {
	rows, err := db.Query(
		`SELECT id, kind, value, status, last_checked, tags
		 FROM scope_asset ORDER BY created_at DESC, rowid DESC`,
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
		return nil, err
	}
	return assets, nil
}

// CreateAsset inserts an asset under the id the caller assigned.
func (db *DB) CreateAsset(a intel.ScopeAsset) (intel.ScopeAsset, error) {
	tags, err := encodeTags(a.Tags)
	if err != nil {
		return intel.ScopeAsset{}, err
	}
	row := db.QueryRow(
		`INSERT INTO scope_asset (id, kind, value, status, last_checked, tags)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING id, kind, value, status, last_checked, tags`,
		a.ID, a.Kind, a.Value, a.Status, nullTime(a.LastChecked), tags,
	)
	out, err := scanAsset(row)
	if err != nil {
		return intel.ScopeAsset{}, fmt.Errorf("insert scope_asset: %w", err)
	}
	return out, nil
}

// UpdateAssetStatus records a verification outcome.
func (db *DB) UpdateAssetStatus(id string, status intel.AssetStatus, checkedAt time.Time) error {
	res, err := db.Exec(
		`UPDATE scope_asset SET status = ?, last_checked = ? WHERE id = ?`,
		status, nullTime(checkedAt), id,
	)
	if err != nil {
		return fmt.Errorf("update asset status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (db *DB) UpdateAssetTags(id string, tags []string) error {
	encoded, err := encodeTags(tags)
	if err != nil {
		return err
	}
	res, err := db.Exec(`UPDATE scope_asset SET tags = ? WHERE id = ?`, encoded, id)
	if err != nil {
		return fmt.Errorf("update asset tags: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteAsset removes an asset by ID.
func (db *DB) DeleteAsset(id string) error {
	res, err := db.Exec(`DELETE FROM scope_asset WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
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
	var checked sql.NullTime
	var tags string
	if err := s.Scan(&a.ID, &a.Kind, &a.Value, &a.Status, &checked, &tags); err != nil {
		return intel.ScopeAsset{}, fmt.Errorf("scan asset: %w", err)
	}
	if checked.Valid {
		a.LastChecked = checked.Time.UTC()
	}
	decoded, err := decodeTags(tags)
	if err != nil {
		return intel.ScopeAsset{}, err
	}
	a.Tags = decoded
	return a, nil
}
