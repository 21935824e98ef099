package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const questionColumns = `id, category, level, difficulty, question_text, option_a, option_b, option_c, option_d, correct_answer, COALESCE(explanation, ''), points, time_limit, times_used, correct_count, wrong_count, success_rate, is_active, created_at`

func scanQuestion(row pgx.Row) (*Question, error) {
	var q Question
	err := row.Scan(&q.ID, &q.Category, &q.Level, &q.Difficulty, &q.Text,
		&q.Options[0], &q.Options[1], &q.Options[2], &q.Options[3],
		&q.CorrectIndex, &q.Explanation, &q.Points, &q.TimeLimit,
		&q.TimesUsed, &q.CorrectCount, &q.WrongCount, &q.SuccessRate,
		&q.IsActive, &q.CreatedAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &q, nil
}

func (s *Store) CreateQuestion(ctx context.Context, q *Question) error {
	if q.ID == "" {
		q.ID = NewID()
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO questions (id, category, level, difficulty, question_text, option_a, option_b, option_c, option_d, correct_answer, explanation, points, time_limit, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, q.ID, q.Category, q.Level, q.Difficulty, q.Text,
		q.Options[0], q.Options[1], q.Options[2], q.Options[3],
		q.CorrectIndex, q.Explanation, q.Points, q.TimeLimit, q.IsActive)
	return err
}

func (s *Store) GetQuestion(ctx context.Context, id string) (*Question, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id)
	return scanQuestion(row)
}

// ListRandomCandidates returns up to limit active questions of the level
// in uniform random storage order, excluding the given ids. Random
// ordering at the storage layer avoids take-top-N bias.
func (s *Store) ListRandomCandidates(ctx context.Context, level string, excludeIDs []string, limit int) ([]Question, error) {
	if excludeIDs == nil {
		excludeIDs = []string{}
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE level = $1 AND is_active AND NOT (id = ANY($2))
		ORDER BY random()
		LIMIT $3
	`, level, excludeIDs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func (s *Store) CountActiveQuestions(ctx context.Context, level string) (int, error) {
	row := s.Pool.QueryRow(ctx, `SELECT COUNT(1) FROM questions WHERE level = $1 AND is_active`, level)
	var c int
	err := row.Scan(&c)
	return c, err
}

func (s *Store) ListQuestions(ctx context.Context, level string, limit, offset int) ([]Question, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows pgx.Rows
	var err error
	if level == "" {
		rows, err = s.Pool.Query(ctx, `SELECT `+questionColumns+` FROM questions ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	} else {
		rows, err = s.Pool.Query(ctx, `SELECT `+questionColumns+` FROM questions WHERE level = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, level, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func (s *Store) SetQuestionActive(ctx context.Context, id string, active bool) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE questions SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// applyAnswerStats bumps usage counters and recomputes the derived
// success rate from them in the same statement.
func applyAnswerStats(ctx context.Context, tx pgx.Tx, questionID string, correct bool) error {
	correctDelta := 0
	wrongDelta := 1
	if correct {
		correctDelta, wrongDelta = 1, 0
	}
	_, err := tx.Exec(ctx, `
		UPDATE questions
		SET times_used = times_used + 1,
		    correct_count = correct_count + $1,
		    wrong_count = wrong_count + $2,
		    success_rate = (correct_count + $1)::float / (times_used + 1) * 100
		WHERE id = $3
	`, correctDelta, wrongDelta, questionID)
	return err
}
