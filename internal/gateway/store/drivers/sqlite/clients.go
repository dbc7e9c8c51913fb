package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/aussiebroadwan/idgate/internal/gateway/domain"
	"github.com/aussiebroadwan/idgate/internal/gateway/store"
)

type clientsRepo struct {
	db *sql.DB
}

const clientColumns = `id, client_id, name, secret_hash, domain, scopes,
	access_token_validity_seconds, refresh_token_validity_seconds,
	created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (domain.Client, error) {
	var (
		c                  domain.Client
		secretHash         sql.NullString
		scopes             string
		createdAt, updated int64
	)
	err := row.Scan(
		&c.ID, &c.ClientID, &c.Name, &secretHash, &c.Domain, &scopes,
		&c.AccessTokenValiditySeconds, &c.RefreshTokenValiditySeconds,
		&createdAt, &updated,
	)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	c.SecretHash = mapNullString(secretHash)
	if scopes != "" {
		c.Scopes = strings.Split(scopes, " ")
	}
	c.CreatedAt = fromUnix(createdAt)
	c.UpdatedAt = fromUnix(updated)
	return c, nil
}

func (r *clientsRepo) GetByClientID(ctx context.Context, clientID string) (domain.Client, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+clientColumns+`
		FROM clients
		WHERE client_id = ?
	`, clientID)
	return scanClient(row)
}

func (r *clientsRepo) ListByDomain(ctx context.Context, dom string) ([]domain.Client, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+clientColumns+`
		FROM clients
		WHERE domain = ?
		ORDER BY created_at DESC, id DESC
	`, dom)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *clientsRepo) Create(ctx context.Context, c domain.Client) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (`+clientColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, c.ClientID, c.Name, mapStringNull(c.SecretHash), c.Domain,
		strings.Join(c.Scopes, " "),
		c.AccessTokenValiditySeconds, c.RefreshTokenValiditySeconds,
		toUnix(c.CreatedAt), toUnix(c.UpdatedAt),
	)
	if err != nil && isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *clientsRepo) Update(ctx context.Context, c domain.Client) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE clients
		SET name = ?, secret_hash = ?, scopes = ?,
		    access_token_validity_seconds = ?, refresh_token_validity_seconds = ?,
		    updated_at = ?
		WHERE client_id = ?
	`,
		c.Name, mapStringNull(c.SecretHash), strings.Join(c.Scopes, " "),
		c.AccessTokenValiditySeconds, c.RefreshTokenValiditySeconds,
		toUnix(c.UpdatedAt), c.ClientID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *clientsRepo) Delete(ctx context.Context, clientID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE client_id = ?`, clientID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
