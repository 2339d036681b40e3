package postgres

import (
	"context"
	"time"

	"library-backend/internal/repository"

	"github.com/jmoiron/sqlx"
)

type tokenRepository struct {
	q sqlx.ExtContext
}

func NewTokenRepository(db *sqlx.DB) repository.TokenRepository {
	return &tokenRepository{q: db}
}

func (r *tokenRepository) Revoke(ctx context.Context, jti string, expiresOn time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_on) VALUES ($1, $2) ON CONFLICT (jti) DO NOTHING`, jti, expiresOn)
	return translateError(err)
}

func (r *tokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := sqlx.GetContext(ctx, r.q, &revoked, `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1)`, jti)
	return revoked, translateError(err)
}

func (r *tokenRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_on < $1`, now)
	if err != nil {
		return 0, translateError(err)
	}
	return res.RowsAffected()
}
