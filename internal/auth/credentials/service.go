package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"civictrack/internal/auth"
	"civictrack/internal/db"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyRegistered  = errors.New("credentials already exist")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrMissingName        = errors.New("first and last name are required")
)

type Service struct {
	db *db.DB
}

func NewService(db *db.DB) *Service {
	return &Service{db: db}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register creates an unverified CITIZEN account with a password.
func (s *Service) Register(ctx context.Context, in RegisterInput) (string, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if err := validateEmail(in.Email); err != nil {
		return "", err
	}
	if in.FirstName == "" || in.LastName == "" {
		return "", ErrMissingName
	}

	hash, version, err := HashPassword(in.Password)
	if err != nil {
		return "", err
	}

	var userID uuid.UUID
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO users (email, email_verified, role)
			VALUES ($1, false, $2)
			RETURNING id
		`, in.Email, string(auth.RoleCitizen)).Scan(&userID)
		if db.IsUniqueViolation(err) {
			return ErrAlreadyRegistered
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_profiles (user_id, first_name, last_name)
			VALUES ($1, $2, $3)
		`, userID, in.FirstName, in.LastName); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO credentials (user_id, password_hash, hash_version)
			VALUES ($1, $2, $3)
		`, userID, hash, version)
		return err
	})
	if err != nil {
		return "", err
	}

	return userID.String(), nil
}

// Authenticate checks an email/password pair and returns the user id.
func (s *Service) Authenticate(ctx context.Context, email string, password string) (string, error) {
	var (
		userID       uuid.UUID
		passwordHash string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, c.password_hash
		FROM users u
		JOIN credentials c ON c.user_id = u.id
		WHERE LOWER(u.email) = LOWER($1)
	`, strings.TrimSpace(email)).Scan(&userID, &passwordHash)

	if errors.Is(err, sql.ErrNoRows) {
		// same bcrypt cost as a real check so timing does not reveal the account
		_ = verifyPassword(dummyHash(), password)
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := verifyPassword(passwordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	return userID.String(), nil
}

// EnsureAdmin provisions an ADMIN account with the given password. An
// existing account with the same email is promoted and its password
// replaced. Safe to run on every start.
func (s *Service) EnsureAdmin(ctx context.Context, email, password, name string) (string, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return "", err
	}

	hash, version, err := HashPassword(password)
	if err != nil {
		return "", err
	}

	first, last, _ := strings.Cut(strings.TrimSpace(name), " ")

	var userID uuid.UUID
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO users (email, email_verified, role)
			VALUES ($1, true, $2)
			ON CONFLICT ((LOWER(email))) DO UPDATE
			    SET role = EXCLUDED.role, email_verified = true, updated_at = NOW()
			RETURNING id
		`, email, string(auth.RoleAdmin)).Scan(&userID)
		if err != nil {
			return err
		}

		if first != "" {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO user_profiles (user_id, first_name, last_name)
				VALUES ($1, $2, NULLIF($3, ''))
				ON CONFLICT (user_id) DO NOTHING
			`, userID, first, last); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO credentials (user_id, password_hash, hash_version)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id) DO UPDATE
			    SET password_hash = EXCLUDED.password_hash,
			        hash_version = EXCLUDED.hash_version,
			        updated_at = NOW()
		`, userID, hash, version)
		return err
	})
	if err != nil {
		return "", err
	}

	return userID.String(), nil
}

func (s *Service) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("credentials: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return ErrInvalidEmail
	}
	return nil
}
