package coach

import (
	"context"
	"database/sql"
	"fmt"
)

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) FeedbackStore {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) SaveFeedback(ctx context.Context, evaluationID int64, text string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO coach_feedback (evaluation_id, feedback_text) VALUES ($1, $2)`, evaluationID, text)
	if err != nil {
		return fmt.Errorf("coach: save feedback: %w", err)
	}
	return nil
}
