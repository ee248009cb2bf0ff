package db

import (
	"database/sql"
	"fmt"

	"github.com/sloppy/threatone/internal/intel"
)

// ListQuestions returns the questionnaire in id order.
func (db *DB) ListQuestions() ([]intel.AuditQuestion, error) {
	rows, err := db.Query(`SELECT id, text, category FROM audit_question ORDER BY id`)
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
		return nil, err
	}
	return questions, nil
}

// CreateQuestion inserts a question; the database assigns its id.
func (db *DB) CreateQuestion(q intel.AuditQuestion) (intel.AuditQuestion, error) {
	var out intel.AuditQuestion
	err := db.QueryRow(
		`INSERT INTO audit_question (text, category) VALUES (?, ?) RETURNING id, text, category`,
		q.Text, q.Category,
	).Scan(&out.ID, &out.Text, &out.Category)
	if err != nil {
		return intel.AuditQuestion{}, fmt.Errorf("insert question: %w", err)
	}
	return out, nil
}

func (db *DB) UpdateQuestion(q intel.AuditQuestion) error {
	res, err := db.Exec(`UPDATE audit_question SET text = ?, category = ? WHERE id = ?`, q.Text, q.Category, q.ID)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (db *DB) DeleteQuestion(id int64) error {
	res, err := db.Exec(`DELETE FROM audit_question WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
