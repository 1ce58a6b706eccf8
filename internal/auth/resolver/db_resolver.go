package resolver

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"civictrack/internal/auth"
	"civictrack/internal/db"

	"github.com/google/uuid"
)

// ErrAccountNotLinked is returned when an identity with an unconfirmed
// email matches an existing account.
var ErrAccountNotLinked = errors.New("resolver: email belongs to another account")

// DBResolver resolves identities using the database. Accounts created
// through an external provider start as CITIZEN, verified exactly when the
// provider reports the email as verified. An existing account is linked
// only to an identity whose email the provider has verified.
type DBResolver struct {
	db *db.DB
}

func NewDBResolver(db *db.DB) *DBResolver {
	return &DBResolver{db: db}
}

func (r *DBResolver) Resolve(
	ctx context.Context,
	identity *auth.Identity,
) (string, error) {

	if identity == nil {
		return "", errors.New("identity is nil")
	}
	if identity.Provider == "" || identity.ProviderUserID == "" || identity.Email == "" {
		return "", errors.New("identity is incomplete")
	}

	// 1. Known identity
	var userID uuid.UUID
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id
		FROM identities
		WHERE provider = $1
		  AND provider_user_id = $2
	`,
		identity.Provider,
		identity.ProviderUserID,
	).Scan(&userID)

	if err == nil {
		return userID.String(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	// 2. Existing user with the same email, new provider
	err = tx.QueryRowContext(ctx, `
		SELECT id
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`,
		identity.Email,
	).Scan(&userID)

	switch {
	case err == nil:
		if !identity.EmailVerified {
			return "", ErrAccountNotLinked
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE users SET email_verified = true, updated_at = NOW()
			WHERE id = $1
		`, userID); err != nil {
			return "", err
		}
	case errors.Is(err, sql.ErrNoRows):
		// 3. New user
		err = tx.QueryRowContext(ctx, `
			INSERT INTO users (email, email_verified, role, image)
			VALUES ($1, $2, $3, NULLIF($4, ''))
			RETURNING id
		`,
			identity.Email,
			identity.EmailVerified,
			string(auth.RoleCitizen),
			identity.Picture,
		).Scan(&userID)
		if err != nil {
			return "", err
		}

		first, last := names(identity)
		if first != "" || last != "" {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO user_profiles (user_id, first_name, last_name)
				VALUES ($1, NULLIF($2, ''), NULLIF($3, ''))
			`, userID, first, last); err != nil {
				return "", err
			}
		}
	default:
		return "", err
	}

	// 4. Link identity
	_, err = tx.ExecContext(ctx, `
		INSERT INTO identities (user_id, provider, provider_user_id)
		VALUES ($1, $2, $3)
	`,
		userID,
		identity.Provider,
		identity.ProviderUserID,
	)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return userID.String(), nil
}

func names(identity *auth.Identity) (first, last string) {
	if identity.GivenName != "" || identity.FamilyName != "" {
		return identity.GivenName, identity.FamilyName
	}
	first, last, _ = strings.Cut(strings.TrimSpace(identity.Name), " ")
	return first, last
}
