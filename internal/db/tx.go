package db

import (
	"database/sql"
	"fmt"

	"github.com/sloppy/threatone/internal/intel"
)

// Tx wraps sql.Tx to reuse DB helpers within a transaction.
type Tx struct {
	*sql.Tx
}

// Begin starts a transaction on the DB.
func (db *DB) Begin() (*Tx, error) {
	tx, err := db.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &Tx{Tx: tx}, nil
}

// InsertQuestion inserts one question within a transaction.
func (tx *Tx) InsertQuestion(q intel.AuditQuestion) (intel.AuditQuestion, error) {
	var out intel.AuditQuestion
	err := tx.QueryRow(
		`INSERT INTO audit_question (text, category) VALUES (?, ?) RETURNING id, text, category`,
		q.Text, q.Category,
	).Scan(&out.ID, &out.Text, &out.Category)
	if err != nil {
		return intel.AuditQuestion{}, fmt.Errorf("insert question: %w", err)
	}
	return out, nil
}

// SeedQuestions stores the default questionnaire when the table is empty and
// returns the stored questions. A non-empty table is returned untouched.
func (db *DB) SeedQuestions(questions []intel.AuditQuestion) ([]intel.AuditQuestion, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM audit_question`).Scan(&count); err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	if count > 0 {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit seed: %w", err)
		}
		return db.ListQuestions()
	}

	stored := make([]intel.AuditQuestion, 0, len(questions))
	for _, q := range questions {
		out, err := tx.InsertQuestion(q)
		if err != nil {
			return nil, err
		}
		stored = append(stored, out)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit seed: %w", err)
	}
	return stored, nil
}
