package db

import "fmt"

func (db *DB) ListAuthSites() ([]AuthSite, error) {
	rows, err := db.Query(
		`SELECT id, name, url, username, password, created_at FROM monitored_auth_site ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list auth sites: %w", err)
	}
	defer rows.Close()

	sites := []AuthSite{}
	for rows.Next() {
		var s AuthSite
		if err := rows.Scan(&s.ID, &s.Name, &s.URL, &s.Username, &s.Password, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan auth site: %w", err)
		}
		sites = append(sites, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sites, nil
}

// CreateAuthSite inserts a site and returns it with its generated id.
// The password must already be sealed.
func (db *DB) CreateAuthSite(s AuthSite) (AuthSite, error) {
	var out AuthSite
	err := db.QueryRow(
		`INSERT INTO monitored_auth_site (name, url, username, password) VALUES (?, ?, ?, ?)
		 RETURNING id, name, url, username, password, created_at`,
		s.Name, s.URL, s.Username, s.Password,
	).Scan(&out.ID, &out.Name, &out.URL, &out.Username, &out.Password, &out.CreatedAt)
	if err != nil {
		return AuthSite{}, fmt.Errorf("insert auth site: %w", err)
	}
	return out, nil
}
