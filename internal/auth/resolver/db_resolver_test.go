package resolver

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civictrack/internal/auth"
	"civictrack/internal/db"
)

const existingID = "2f6c1f0e-0c55-4a0f-9f3e-7b1d5a3c9e01"

func newMockResolver(t *testing.T) (*DBResolver, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = sqlDB.Close()
	})
	return NewDBResolver(&db.DB{DB: sqlDB}), mock
}

var googleIdentity = &auth.Identity{
	Provider:       "google",
	ProviderUserID: "sub-1",
	Email:          "jane@gmail.com",
	EmailVerified:  true,
	GivenName:      "Jane",
	FamilyName:     "Doe",
}

func TestResolveKnownIdentity(t *testing.T) {
	r, mock := newMockResolver(t)

	mock.ExpectQuery(`FROM identities`).
		WithArgs("google", "sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(existingID))

	id, err := r.Resolve(context.Background(), googleIdentity)
	require.NoError(t, err)
	assert.Equal(t, existingID, id)
}

func TestResolveLinksExistingEmail(t *testing.T) {
	r, mock := newMockResolver(t)

	mock.ExpectQuery(`FROM identities`).WillReturnError(sql.ErrNoRows)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM users`).
		WithArgs("jane@gmail.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(existingID))
	mock.ExpectExec(`UPDATE users SET email_verified = true`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO identities`).
		WithArgs(sqlmock.AnyArg(), "google", "sub-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := r.Resolve(context.Background(), googleIdentity)
	require.NoError(t, err)
	assert.Equal(t, existingID, id)
}

func TestResolveCreatesCitizen(t *testing.T) {
	r, mock := newMockResolver(t)

	mock.ExpectQuery(`FROM identities`).WillReturnError(sql.ErrNoRows)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM users`).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("jane@gmail.com", true, "CITIZEN", "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(existingID))
	mock.ExpectExec(`INSERT INTO user_profiles`).
		WithArgs(sqlmock.AnyArg(), "Jane", "Doe").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO identities`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := r.Resolve(context.Background(), googleIdentity)
	require.NoError(t, err)
	assert.Equal(t, existingID, id)
}

func TestResolveRefusesUnverifiedLink(t *testing.T) {
	r, mock := newMockResolver(t)

	unverified := *googleIdentity
	unverified.EmailVerified = false

	mock.ExpectQuery(`FROM identities`).WillReturnError(sql.ErrNoRows)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM users`).
		WithArgs("jane@gmail.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(existingID))
	mock.ExpectRollback()

	id, err := r.Resolve(context.Background(), &unverified)
	assert.ErrorIs(t, err, ErrAccountNotLinked)
	assert.Empty(t, id)
}

func TestResolveCreatesUnverifiedCitizen(t *testing.T) {
	r, mock := newMockResolver(t)

	unverified := *googleIdentity
	unverified.EmailVerified = false

	mock.ExpectQuery(`FROM identities`).WillReturnError(sql.ErrNoRows)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM users`).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("jane@gmail.com", false, "CITIZEN", "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(existingID))
	mock.ExpectExec(`INSERT INTO user_profiles`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO identities`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := r.Resolve(context.Background(), &unverified)
	require.NoError(t, err)
	assert.Equal(t, existingID, id)
}

func TestResolveRejectsIncompleteIdentity(t *testing.T) {
	r, _ := newMockResolver(t)

	_, err := r.Resolve(context.Background(), nil)
	assert.Error(t, err)

	_, err = r.Resolve(context.Background(), &auth.Identity{Provider: "google"})
	assert.Error(t, err)
}

func TestNamesFallsBackToFullName(t *testing.T) {
	first, last := names(&auth.Identity{Name: "Ada Lovelace"})
	assert.Equal(t, "Ada", first)
	assert.Equal(t, "Lovelace", last)
}
