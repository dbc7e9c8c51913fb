package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/idgate/internal/gateway/domain"
	"github.com/aussiebroadwan/idgate/internal/gateway/store"
)

type scopesRepo struct {
	db *sql.DB
}

const scopeColumns = `id, key, name, description, domain, created_at, updated_at`

func scanScope(row rowScanner) (domain.Scope, error) {
	var (
		s                  domain.Scope
		createdAt, updated int64
	)
	err := row.Scan(&s.ID, &s.Key, &s.Name, &s.Description, &s.Domain, &createdAt, &updated)
	if err != nil {
		return domain.Scope{}, mapNotFound(err)
	}
	s.CreatedAt = fromUnix(createdAt)
	s.UpdatedAt = fromUnix(updated)
	return s, nil
}

func (r *scopesRepo) GetByKeyAndDomain(ctx context.Context, key, dom string) (domain.Scope, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+scopeColumns+`
		FROM scopes
		WHERE key = ? AND domain = ?
	`, key, dom)
	return scanScope(row)
}

func (r *scopesRepo) ListByDomain(ctx context.Context, dom string) ([]domain.Scope, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+scopeColumns+`
		FROM scopes
		WHERE domain = ?
		ORDER BY key ASC
	`, dom)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Scope
	for rows.Next() {
		s, err := scanScope(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *scopesRepo) Create(ctx context.Context, s domain.Scope) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scopes (`+scopeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.Key, s.Name, s.Description, s.Domain, toUnix(s.CreatedAt), toUnix(s.UpdatedAt))
	if err != nil && isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *scopesRepo) Update(ctx context.Context, s domain.Scope) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scopes
		SET name = ?, description = ?, updated_at = ?
		WHERE key = ? AND domain = ?
	`, s.Name, s.Description, toUnix(s.UpdatedAt), s.Key, s.Domain)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *scopesRepo) Delete(ctx context.Context, key, dom string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scopes WHERE key = ? AND domain = ?`, key, dom)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
