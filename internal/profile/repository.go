package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Store {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) Get(ctx context.Context, userID uuid.UUID) (*Settings, error) {
	var s Settings
	err := r.db.QueryRowContext(ctx,
		`SELECT preferred_language FROM user_settings WHERE user_id = $1`, userID,
	).Scan(&s.PreferredLanguage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile: get settings: %w", err)
	}
	return &s, nil
}

func (r *postgresRepo) Save(ctx context.Context, userID uuid.UUID, s Settings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, preferred_language, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET preferred_language = EXCLUDED.preferred_language, updated_at = NOW()`,
		userID, s.PreferredLanguage)
	if err != nil {
		return fmt.Errorf("profile: save settings: %w", err)
	}
	return nil
}
