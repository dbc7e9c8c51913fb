package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/idgate/internal/gateway/domain"
	"github.com/aussiebroadwan/idgate/internal/gateway/store"
)

type usersRepo struct {
	db *sql.DB
}

const userColumns = `id, username, domain, password_hash, first_name, last_name,
	email, source, mfa_secret, mfa_enabled_at, logged_at, logins_count,
	created_at, updated_at`

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u                  domain.User
		mfaEnabledAt       sql.NullInt64
		loggedAt           sql.NullInt64
		createdAt, updated int64
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Domain, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Email, &u.Source, &u.MFASecret, &mfaEnabledAt, &loggedAt, &u.LoginsCount,
		&createdAt, &updated,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.MFAEnabledAt = fromUnixPtr(mfaEnabledAt)
	u.LoggedAt = fromUnixPtr(loggedAt)
	u.CreatedAt = fromUnix(createdAt)
	u.UpdatedAt = fromUnix(updated)
	return u, nil
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = ?
	`, id)
	return scanUser(row)
}

func (r *usersRepo) GetByUsernameAndDomain(ctx context.Context, username, dom string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE username = ? AND domain = ?
	`, username, dom)
	return scanUser(row)
}

func (r *usersRepo) ListByDomain(ctx context.Context, dom string) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE domain = ?
		ORDER BY username ASC
	`, dom)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *usersRepo) PageByDomain(ctx context.Context, dom string, page, size int) (domain.Page[domain.User], error) {
	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM users WHERE domain = ?
	`, dom).Scan(&total)
	if err != nil {
		return domain.Page[domain.User]{}, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE domain = ?
		ORDER BY username ASC
		LIMIT ? OFFSET ?
	`, dom, size, page*size)
	if err != nil {
		return domain.Page[domain.User]{}, err
	}
	defer rows.Close()

	users, err := collectUsers(rows)
	if err != nil {
		return domain.Page[domain.User]{}, err
	}
	return domain.Page[domain.User]{
		Data:       users,
		Page:       page,
		Size:       size,
		TotalCount: total,
	}, nil
}

func collectUsers(rows *sql.Rows) ([]domain.User, error) {
	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *usersRepo) Create(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		u.ID, u.Username, u.Domain, u.PasswordHash, u.FirstName, u.LastName,
		u.Email, u.Source, u.MFASecret, toUnixPtr(u.MFAEnabledAt), toUnixPtr(u.LoggedAt),
		u.LoginsCount, toUnix(u.CreatedAt), toUnix(u.UpdatedAt),
	)
	if err != nil && isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *usersRepo) Update(ctx context.Context, u domain.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET username = ?, password_hash = ?, first_name = ?, last_name = ?,
		    email = ?, source = ?, mfa_secret = ?, mfa_enabled_at = ?,
		    logged_at = ?, logins_count = ?, updated_at = ?
		WHERE id = ?
	`,
		u.Username, u.PasswordHash, u.FirstName, u.LastName,
		u.Email, u.Source, u.MFASecret, toUnixPtr(u.MFAEnabledAt),
		toUnixPtr(u.LoggedAt), u.LoginsCount, toUnix(u.UpdatedAt), u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
