package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/idgate/internal/gateway/domain"
)

type refreshTokensRepo struct {
	db *sql.DB
}

func (r *refreshTokensRepo) Create(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, token, created_at, expire_at)
		VALUES (?, ?, ?, ?)
	`, t.ID, t.Token, toUnix(t.CreatedAt), toUnix(t.ExpireAt))
	return err
}

func (r *refreshTokensRepo) GetByToken(ctx context.Context, token string) (domain.RefreshToken, error) {
	var (
		t                  domain.RefreshToken
		createdAt, expires int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, token, created_at, expire_at
		FROM refresh_tokens
		WHERE token = ?
	`, token).Scan(&t.ID, &t.Token, &createdAt, &expires)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	t.CreatedAt = fromUnix(createdAt)
	t.ExpireAt = fromUnix(expires)
	return t, nil
}

func (r *refreshTokensRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = ?`, token)
	return err
}

func (r *refreshTokensRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expire_at < ?`, time.Now().Unix())
	return err
}
