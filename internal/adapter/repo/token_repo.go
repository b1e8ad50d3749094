package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"postpilot/internal/domain"
)

// TokenRepositoryPG implements domain.TokenRepository on PostgreSQL.
type TokenRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewTokenRepository creates a new token repository backed by PostgreSQL.
func NewTokenRepository(pool *pgxpool.Pool) *TokenRepositoryPG {
	return &TokenRepositoryPG{pool: pool}
}

// Upsert stores or refreshes the token for an Instagram account.
func (r *TokenRepositoryPG) Upsert(ctx context.Context, token *domain.OAuthToken) error {
	query := `
INSERT INTO oauth_tokens (ig_user_id, access_token, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (ig_user_id) DO UPDATE
SET access_token = EXCLUDED.access_token,
    expires_at = EXCLUDED.expires_at,
    updated_at = NOW();
`
	_, err := r.pool.Exec(ctx, query, token.IGUserID, token.AccessToken, token.ExpiresAt)
	return err
}

// GetByIGUserID fetches the token for one account.
func (r *TokenRepositoryPG) GetByIGUserID(ctx context.Context, igUserID string) (*domain.OAuthToken, error) {
	query := `
SELECT ig_user_id, access_token, expires_at, created_at, updated_at
FROM oauth_tokens
WHERE ig_user_id = $1;
`
	return scanToken(r.pool.QueryRow(ctx, query, igUserID))
}

// Latest returns the most recently refreshed token.
func (r *TokenRepositoryPG) Latest(ctx context.Context) (*domain.OAuthToken, error) {
	query := `
SELECT ig_user_id, access_token, expires_at, created_at, updated_at
FROM oauth_tokens
ORDER BY updated_at DESC
LIMIT 1;
`
	return scanToken(r.pool.QueryRow(ctx, query))
}

func scanToken(row pgx.Row) (*domain.OAuthToken, error) {
	var t domain.OAuthToken
	if err := row.Scan(&t.IGUserID, &t.AccessToken, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

var _ domain.TokenRepository = (*TokenRepositoryPG)(nil)
