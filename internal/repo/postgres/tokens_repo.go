package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TokensRepo holds the active bearer-token set per user. Only HMAC
// hashes of issued tokens are stored; removing a row revokes the token
// even though its signature would still verify.
type TokensRepo struct {
	pool *pgxpool.Pool
}

func NewTokensRepo(pool *pgxpool.Pool) *TokensRepo {
	return &TokensRepo{pool: pool}
}

func (r *TokensRepo) Add(ctx context.Context, userID, tokenHash string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO auth_tokens(user_id, token_hash, created_at)
		 VALUES($1,$2,$3)
		 ON CONFLICT (user_id, token_hash) DO NOTHING`,
		userID, tokenHash, time.Now().UTC())

	return err
}

func (r *TokensRepo) Exists(ctx context.Context, userID, tokenHash string) (bool, error) {
	var exists bool

	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM auth_tokens WHERE user_id = $1 AND token_hash = $2
		)`,
		userID, tokenHash).Scan(&exists)

	if err != nil {
		return false, err
	}

	return exists, nil
}

// Remove revokes a single token. Idempotent.
func (r *TokensRepo) Remove(ctx context.Context, userID, tokenHash string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM auth_tokens WHERE user_id = $1 AND token_hash = $2`,
		userID, tokenHash)

	return err
}

func (r *TokensRepo) RemoveAll(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM auth_tokens WHERE user_id = $1`,
		userID)

	return err
}
