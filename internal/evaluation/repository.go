package evaluation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Store {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) Create(ctx context.Context, rec *Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("evaluation: begin: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO evaluations (user_id, scenario_id, full_transcript) VALUES ($1, $2, $3) RETURNING id, created_at`,
		rec.UserID, rec.ScenarioID, rec.Transcript,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("evaluation: insert: %w", err)
	}

	for _, s := range rec.Scores {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO evaluation_scores (evaluation_id, skill_name, score, justification) VALUES ($1, $2, $3, $4)`,
			rec.ID, s.Skill, s.Score, s.Justification,
		)
		if err != nil {
			return fmt.Errorf("evaluation: insert score %q: %w", s.Skill, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("evaluation: commit: %w", err)
	}
	return nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, scenario_id, full_transcript, created_at
		FROM evaluations WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("evaluation: list: %w", err)
	}
	defer rows.Close()

	recs := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ScenarioID, &rec.Transcript, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("evaluation: list scan: %w", err)
		}
		rec.Scores = []Score{}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("evaluation: list rows: %w", err)
	}
	if len(recs) == 0 {
		return recs, nil
	}

	ids := make([]int64, len(recs))
	index := make(map[int64]int, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
		index[rec.ID] = i
	}
	scores, err := r.scores(ctx, ids)
	if err != nil {
		return nil, err
	}
	for id, s := range scores {
		recs[index[id]].Scores = s
	}
	return recs, nil
}

func (r *postgresRepo) GetForUser(ctx context.Context, id int64, userID uuid.UUID) (*Record, error) {
	var rec Record
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, scenario_id, full_transcript, created_at
		FROM evaluations WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&rec.ID, &rec.UserID, &rec.ScenarioID, &rec.Transcript, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("evaluation: get %d: %w", id, err)
	}

	scores, err := r.scores(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	rec.Scores = scores[id]
	if rec.Scores == nil {
		rec.Scores = []Score{}
	}
	return &rec, nil
}

func (r *postgresRepo) scores(ctx context.Context, ids []int64) (map[int64][]Score, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT evaluation_id, skill_name, score, justification
		FROM evaluation_scores WHERE evaluation_id = ANY($1) ORDER BY id`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("evaluation: scores: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]Score, len(ids))
	for rows.Next() {
		var id int64
		var s Score
		if err := rows.Scan(&id, &s.Skill, &s.Score, &s.Justification); err != nil {
			return nil, fmt.Errorf("evaluation: scores scan: %w", err)
		}
		out[id] = append(out[id], s)
	}
	return out, rows.Err()
}
