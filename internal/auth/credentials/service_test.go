package credentials

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"civictrack/internal/db"
)

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = sqlDB.Close()
	})
	return NewService(&db.DB{DB: sqlDB}), mock
}

func TestRegisterCreatesCitizen(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("jane@example.com", "CITIZEN").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("0b7e1d8c-6f4e-4d8a-9a4a-0d7b1c6a2f10"))
	mock.ExpectExec(`INSERT INTO user_profiles`).
		WithArgs(sqlmock.AnyArg(), "Jane", "Doe").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO credentials`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), HashVersionBcrypt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := svc.Register(context.Background(), RegisterInput{
		FirstName: " Jane ",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Password:  "long enough",
	})
	require.NoError(t, err)
	assert.Equal(t, "0b7e1d8c-6f4e-4d8a-9a4a-0d7b1c6a2f10", id)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Password:  "long enough",
	})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newMockService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{FirstName: "J", LastName: "D", Email: "not-an-email", Password: "long enough"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Register(ctx, RegisterInput{FirstName: "J", LastName: "D", Email: "j@localhost", Password: "long enough"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Register(ctx, RegisterInput{Email: "j@example.com", Password: "long enough"})
	assert.ErrorIs(t, err, ErrMissingName)

	_, err = svc.Register(ctx, RegisterInput{FirstName: "J", LastName: "D", Email: "j@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestAuthenticate(t *testing.T) {
	hash, _, err := HashPassword("right password")
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		svc, mock := newMockService(t)
		mock.ExpectQuery(`JOIN credentials c ON c.user_id = u.id`).
			WithArgs("a@b.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash"}).
				AddRow("0b7e1d8c-6f4e-4d8a-9a4a-0d7b1c6a2f10", hash))

		id, err := svc.Authenticate(context.Background(), "a@b.com", "right password")
		require.NoError(t, err)
		assert.Equal(t, "0b7e1d8c-6f4e-4d8a-9a4a-0d7b1c6a2f10", id)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, mock := newMockService(t)
		mock.ExpectQuery(`JOIN credentials`).
			WithArgs("a@b.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash"}).
				AddRow("0b7e1d8c-6f4e-4d8a-9a4a-0d7b1c6a2f10", hash))

		_, err := svc.Authenticate(context.Background(), "a@b.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, mock := newMockService(t)
		mock.ExpectQuery(`JOIN credentials`).
			WithArgs("ghost@b.com").
			WillReturnError(sql.ErrNoRows)

		var compared []string
		orig := verifyPassword
		verifyPassword = func(hash, password string) error {
			compared = append(compared, hash)
			return orig(hash, password)
		}
		t.Cleanup(func() { verifyPassword = orig })

		_, err := svc.Authenticate(context.Background(), "ghost@b.com", "whatever")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		require.Len(t, compared, 1)
		cost, err := bcrypt.Cost([]byte(compared[0]))
		require.NoError(t, err)
		assert.Equal(t, bcryptCost, cost)
	})
}

func TestEnsureAdmin(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`ON CONFLICT \(\(LOWER\(email\)\)\) DO UPDATE`).
		WithArgs("admin@civictrack.org", "ADMIN").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("0b7e1d8c-6f4e-4d8a-9a4a-0d7b1c6a2f11"))
	mock.ExpectExec(`INSERT INTO user_profiles`).
		WithArgs(sqlmock.AnyArg(), "Admin", "User").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO credentials`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := svc.EnsureAdmin(context.Background(), "admin@civictrack.org", "a strong secret", "Admin User")
	require.NoError(t, err)
	assert.Equal(t, "0b7e1d8c-6f4e-4d8a-9a4a-0d7b1c6a2f11", id)
}
