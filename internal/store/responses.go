package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/elonfeng/playsignal/pkg/score"
)

type questionBounds struct {
	ID       string  `db:"id"`
	MinValue float64 `db:"min_value"`
	MaxValue float64 `db:"max_value"`
}

// SubmitResponse stores a response and its answers in one transaction.
// Every answer must belong to the form and lie within its stat bounds.
func (s *SQLiteStore) SubmitResponse(ctx context.Context, r *Response) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin response tx: %w", err)
	}
	defer tx.Rollback()

	var active bool
	err = tx.GetContext(ctx, &active, "SELECT active FROM forms WHERE id = ?", r.FormID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("form %s: %w", r.FormID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get form %s: %w", r.FormID, err)
	}
	if !active {
		return fmt.Errorf("form %s: %w", r.FormID, ErrFormInactive)
	}

	var bounds []questionBounds
	err = tx.SelectContext(ctx, &bounds, `
		SELECT q.id, s.min_value, s.max_value
		FROM questions q JOIN stats s ON s.id = q.stat_id
		WHERE q.form_id = ?
	`, r.FormID)
	if err != nil {
		return fmt.Errorf("load questions for form %s: %w", r.FormID, err)
	}
	byID := make(map[string]questionBounds, len(bounds))
	for _, b := range bounds {
		byID[b.ID] = b
	}

	for _, a := range r.Answers {
		b, ok := byID[a.QuestionID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownQuestion, a.QuestionID)
		}
		if a.Value < b.MinValue || a.Value > b.MaxValue {
			return fmt.Errorf("%w: question %s value %g not in [%g, %g]",
				ErrOutOfRange, a.QuestionID, a.Value, b.MinValue, b.MaxValue)
		}
	}

	if r.ID == "" {
		r.ID = newID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO responses (id, form_id, comment, respondent, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, r.ID, r.FormID, r.Comment, r.Respondent, r.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}

	for _, a := range r.Answers {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO answers (response_id, question_id, value) VALUES (?, ?, ?)",
			r.ID, a.QuestionID, a.Value)
		if err != nil {
			return fmt.Errorf("insert answer for %s: %w", a.QuestionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit response: %w", err)
	}
	return nil
}

// ListAnswers returns every answer given to a project's forms, keyed by
// the stat its question measures.
func (s *SQLiteStore) ListAnswers(ctx context.Context, projectID string) ([]score.Answer, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT q.stat_id, a.value
		FROM answers a
		JOIN questions q ON q.id = a.question_id
		JOIN forms f ON f.id = q.form_id
		WHERE f.project_id = ?
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list answers %s: %w", projectID, err)
	}
	defer rows.Close()

	var answers []score.Answer
	for rows.Next() {
		var a score.Answer
		if err := rows.Scan(&a.StatID, &a.Value); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func (s *SQLiteStore) ListResponseTimes(ctx context.Context, projectID string, since time.Time) ([]time.Time, error) {
	var times []time.Time
	err := s.db.SelectContext(ctx, &times, `
		SELECT r.created_at
		FROM responses r JOIN forms f ON f.id = r.form_id
		WHERE f.project_id = ? AND r.created_at >= ?
		ORDER BY r.created_at
	`, projectID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("list response times %s: %w", projectID, err)
	}
	return times, nil
}

// ResponseCounts returns, per project with responses, the all-time count and
// the count created at or after since.
func (s *SQLiteStore) ResponseCounts(ctx context.Context, since time.Time) ([]ResponseCount, error) {
	var counts []ResponseCount
	err := s.db.SelectContext(ctx, &counts, `
		SELECT f.project_id AS project_id,
			SUM(CASE WHEN r.created_at >= ? THEN 1 ELSE 0 END) AS recent,
			COUNT(*) AS total
		FROM responses r JOIN forms f ON f.id = r.form_id
		GROUP BY f.project_id
	`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("count responses: %w", err)
	}
	return counts, nil
}
