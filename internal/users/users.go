package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"civictrack/internal/auth"
	"civictrack/internal/db"
)

var ErrNotFound = errors.New("users: not found")

// Repository reads and updates user accounts. Every row leaving this
// package has been through auth.NewUser, so roles are always in range.
type Repository struct {
	db *db.DB
}

func NewRepository(db *db.DB) *Repository {
	return &Repository{db: db}
}

const selectUser = `
	SELECT u.id, u.email, u.role, u.email_verified, u.image,
	       p.first_name, p.last_name, p.phone, p.address, p.city, p.state, p.zip_code
	FROM users u
	LEFT JOIN user_profiles p ON p.user_id = u.id
`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (auth.User, error) {
	var (
		raw      auth.RawUser
		image    sql.NullString
		profile  [7]sql.NullString
		verified bool
	)
	err := row.Scan(
		&raw.ID, &raw.Email, &raw.Role, &verified, &image,
		&profile[0], &profile[1], &profile[2], &profile[3], &profile[4], &profile[5], &profile[6],
	)
	if err != nil {
		return auth.User{}, err
	}

	raw.IsVerified = verified
	raw.Image = image.String
	raw.Profile = auth.Profile{
		FirstName: nullable(profile[0]),
		LastName:  nullable(profile[1]),
		Phone:     nullable(profile[2]),
		Address:   nullable(profile[3]),
		City:      nullable(profile[4]),
		State:     nullable(profile[5]),
		ZipCode:   nullable(profile[6]),
	}
	return auth.NewUser(raw)
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return auth.Ptr(ns.String)
}

func (r *Repository) GetByID(ctx context.Context, id string) (auth.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUser+`WHERE u.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, ErrNotFound
	}
	return u, err
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (auth.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUser+`WHERE LOWER(u.email) = LOWER($1)`, strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, ErrNotFound
	}
	return u, err
}

func (r *Repository) SetVerified(ctx context.Context, id string) error {
	return r.execOne(ctx, `
		UPDATE users SET email_verified = true, updated_at = NOW()
		WHERE id = $1
	`, id)
}

func (r *Repository) TouchLastLogin(ctx context.Context, id string) error {
	return r.execOne(ctx, `
		UPDATE users SET last_login_at = NOW()
		WHERE id = $1
	`, id)
}

// UpdateRole changes a user's authorization tier. Only values from the
// closed role set are accepted.
func (r *Repository) UpdateRole(ctx context.Context, id string, role auth.Role) (auth.User, error) {
	if !role.Valid() {
		return auth.User{}, fmt.Errorf("%w: %q", auth.ErrInvalidRole, role)
	}
	if err := r.execOne(ctx, `
		UPDATE users SET role = $1, updated_at = NOW()
		WHERE id = $2
	`, string(role), id); err != nil {
		return auth.User{}, err
	}
	return r.GetByID(ctx, id)
}

// UpsertProfile stores the provided profile. Nil fields keep their
// current value.
func (r *Repository) UpsertProfile(ctx context.Context, id string, p auth.Profile) (auth.User, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, first_name, last_name, phone, address, city, state, zip_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
		    first_name = COALESCE(EXCLUDED.first_name, user_profiles.first_name),
		    last_name  = COALESCE(EXCLUDED.last_name, user_profiles.last_name),
		    phone      = COALESCE(EXCLUDED.phone, user_profiles.phone),
		    address    = COALESCE(EXCLUDED.address, user_profiles.address),
		    city       = COALESCE(EXCLUDED.city, user_profiles.city),
		    state      = COALESCE(EXCLUDED.state, user_profiles.state),
		    zip_code   = COALESCE(EXCLUDED.zip_code, user_profiles.zip_code),
		    updated_at = NOW()
	`, id, p.FirstName, p.LastName, p.Phone, p.Address, p.City, p.State, p.ZipCode)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return auth.User{}, ErrNotFound
		}
		return auth.User{}, err
	}
	return r.GetByID(ctx, id)
}

// List returns a page of users, optionally filtered by role, plus the
// total number of matches.
func (r *Repository) List(ctx context.Context, role string, limit, offset int) ([]auth.User, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	where := "1=1"
	args := []any{}
	if role != "" {
		parsed, err := auth.ParseRole(role)
		if err != nil {
			return nil, 0, err
		}
		args = append(args, string(parsed))
		where = "u.role = $1"
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users u WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		selectUser+`WHERE %s ORDER BY u.created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args),
	), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []auth.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (r *Repository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
