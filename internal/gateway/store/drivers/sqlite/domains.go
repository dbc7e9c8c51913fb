package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/idgate/internal/gateway/domain"
	"github.com/aussiebroadwan/idgate/internal/gateway/store"
)

type domainsRepo struct {
	db *sql.DB
}

const domainColumns = `id, name, description, enabled, created_at, updated_at`

func scanDomain(row rowScanner) (domain.SecurityDomain, error) {
	var (
		d                  domain.SecurityDomain
		createdAt, updated int64
	)
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.Enabled, &createdAt, &updated)
	if err != nil {
		return domain.SecurityDomain{}, mapNotFound(err)
	}
	d.CreatedAt = fromUnix(createdAt)
	d.UpdatedAt = fromUnix(updated)
	return d, nil
}

func (r *domainsRepo) GetByName(ctx context.Context, name string) (domain.SecurityDomain, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+domainColumns+`
		FROM domains
		WHERE name = ?
	`, name)
	return scanDomain(row)
}

func (r *domainsRepo) List(ctx context.Context) ([]domain.SecurityDomain, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+domainColumns+`
		FROM domains
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SecurityDomain
	for rows.Next() {
		d, err := scanDomain(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *domainsRepo) Create(ctx context.Context, d domain.SecurityDomain) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO domains (`+domainColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`, d.ID, d.Name, d.Description, d.Enabled, toUnix(d.CreatedAt), toUnix(d.UpdatedAt))
	if err != nil && isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *domainsRepo) Update(ctx context.Context, d domain.SecurityDomain) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE domains
		SET description = ?, enabled = ?, updated_at = ?
		WHERE name = ?
	`, d.Description, d.Enabled, toUnix(d.UpdatedAt), d.Name)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *domainsRepo) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM domains WHERE name = ?`, name)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
