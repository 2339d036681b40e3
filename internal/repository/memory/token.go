package memory

import (
	"context"
	"time"
)

type tokenRepository struct {
	access
}

func (r *tokenRepository) Revoke(ctx context.Context, jti string, expiresOn time.Time) error {
	return r.do(func(st *state) error {
		if _, ok := st.revoked[jti]; !ok {
			st.revoked[jti] = expiresOn
		}
		return nil
	})
}

func (r *tokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := r.do(func(st *state) error {
		_, revoked = st.revoked[jti]
		return nil
	})
	return revoked, err
}

func (r *tokenRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.do(func(st *state) error {
		for jti, exp := range st.revoked {
			if exp.Before(now) {
				delete(st.revoked, jti)
				n++
			}
		}
		return nil
	})
	return n, err
}
