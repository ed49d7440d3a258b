package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"mbti/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS user_data (
	user_id    TEXT PRIMARY KEY,
	mbti       TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	model_id   TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// ResultRepo keeps the latest prediction per user in user_data.
type ResultRepo struct {
	db *DB
}

func NewResultRepo(db *DB) *ResultRepo {
	return &ResultRepo{db: db}
}

// Migrate creates the user_data table if needed.
func (r *ResultRepo) Migrate(ctx context.Context) error {
	if _, err := r.db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate user_data: %w", err)
	}
	return nil
}

func (r *ResultRepo) SaveResult(ctx context.Context, res domain.StoredResult) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO user_data (user_id, mbti, confidence, model_id, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE
SET mbti=EXCLUDED.mbti, confidence=EXCLUDED.confidence, model_id=EXCLUDED.model_id, updated_at=EXCLUDED.updated_at`,
		res.UserID, res.MBTI, res.Confidence, res.ModelID, res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (r *ResultRepo) GetResult(ctx context.Context, userID string) (*domain.StoredResult, error) {
	res := domain.StoredResult{UserID: userID}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT mbti, confidence, model_id, updated_at FROM user_data WHERE user_id=$1`, userID).
		Scan(&res.MBTI, &res.Confidence, &res.ModelID, &res.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	return &res, nil
}
