package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/sporty/internal/model"
)

// PostgresTokenRepo はPostgreSQLを使用したトークンリポジトリ。
// 再起動をまたいでトークンを保持する。
type PostgresTokenRepo struct {
	db *sql.DB
}

// NewPostgresTokenRepo はPostgresTokenRepoを生成する。
func NewPostgresTokenRepo(db *sql.DB) *PostgresTokenRepo {
	return &PostgresTokenRepo{db: db}
}

// Save はトークンをUPSERTする。同一アスリートの行は上書きされる。
func (r *PostgresTokenRepo) Save(ctx context.Context, tokens *model.StravaTokens) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO strava_tokens (athlete_id, access_token, refresh_token, expires_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (athlete_id) DO UPDATE SET
		   access_token = EXCLUDED.access_token,
		   refresh_token = EXCLUDED.refresh_token,
		   expires_at = EXCLUDED.expires_at,
		   updated_at = EXCLUDED.updated_at`,
		tokens.AthleteID, tokens.AccessToken, tokens.RefreshToken, tokens.ExpiresAt, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save tokens: %w", err)
	}
	return nil
}

// Get は最後に保存されたトークンを取得する。未保存の場合はnilを返す。
func (r *PostgresTokenRepo) Get(ctx context.Context) (*model.StravaTokens, error) {
	tokens := &model.StravaTokens{}
	err := r.db.QueryRowContext(ctx,
		`SELECT athlete_id, access_token, refresh_token, expires_at, updated_at
		 FROM strava_tokens
		 ORDER BY updated_at DESC
		 LIMIT 1`,
	).Scan(&tokens.AthleteID, &tokens.AccessToken, &tokens.RefreshToken, &tokens.ExpiresAt, &tokens.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tokens: %w", err)
	}

	return tokens, nil
}

// Has はトークンが保存されているかどうかを返す。
func (r *PostgresTokenRepo) Has(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM strava_tokens)`,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check tokens: %w", err)
	}
	return exists, nil
}

// Delete は保存された全トークンを削除する。
func (r *PostgresTokenRepo) Delete(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM strava_tokens`); err != nil {
		return fmt.Errorf("failed to delete tokens: %w", err)
	}
	return nil
}

// compile-time interface check
var _ TokenRepository = (*PostgresTokenRepo)(nil)
