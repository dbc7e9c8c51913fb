package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/aussiebroadwan/idgate/internal/gateway/domain"
)

type accessTokensRepo struct {
	db *sql.DB
}

const accessTokenColumns = `id, token, client_id, subject, scopes, refresh_token, created_at, expire_at`

func scanAccessToken(row *sql.Row) (domain.AccessToken, error) {
	var (
		t                  domain.AccessToken
		scopes             string
		createdAt, expires int64
	)
	err := row.Scan(&t.ID, &t.Token, &t.ClientID, &t.Subject, &scopes, &t.RefreshToken, &createdAt, &expires)
	if err != nil {
		return domain.AccessToken{}, mapNotFound(err)
	}
	if scopes != "" {
		t.Scopes = strings.Split(scopes, " ")
	}
	t.CreatedAt = fromUnix(createdAt)
	t.ExpireAt = fromUnix(expires)
	return t, nil
}

func (r *accessTokensRepo) GetByToken(ctx context.Context, token string) (domain.AccessToken, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+accessTokenColumns+`
		FROM access_tokens
		WHERE token = ?
	`, token)
	return scanAccessToken(row)
}

// FindByCriteria matches on the canonical scope string so scope order in the
// request never matters. Most recently created wins when duplicates exist.
func (r *accessTokensRepo) FindByCriteria(ctx context.Context, c domain.TokenCriteria) (domain.AccessToken, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+accessTokenColumns+`
		FROM access_tokens
		WHERE client_id = ? AND scopes = ? AND subject = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, c.ClientID, c.ScopeKey(), c.Subject)
	return scanAccessToken(row)
}

func (r *accessTokensRepo) Create(ctx context.Context, t domain.AccessToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO access_tokens (`+accessTokenColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.Token, t.ClientID, t.Subject,
		domain.CanonicalScopes(t.Scopes), t.RefreshToken,
		toUnix(t.CreatedAt), toUnix(t.ExpireAt),
	)
	return err
}

func (r *accessTokensRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM access_tokens WHERE token = ?`, token)
	return err
}

func (r *accessTokensRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM access_tokens WHERE expire_at < ?`, time.Now().Unix())
	return err
}
