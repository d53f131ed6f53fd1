package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var verificationColumns = []string{"identity_key", "code", "created_at", "expires_at", "verified", "attempts"}

func newVerificationRepoWithMock(t *testing.T) (*VerificationRepository, sqlmock.Sqlmock) {
	conn, mock := newMockConnection(t)
	repo := NewVerificationRepository(conn)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

func TestVerificationRepository_SetCode(t *testing.T) {
	repo, mock := newVerificationRepoWithMock(t)
	mock.ExpectExec(`(?s)^INSERT INTO verification_codes .+ ON CONFLICT \(identity_key\) DO UPDATE`).
		WithArgs("a@x.com", "123456", fixedNow, fixedNow.Add(5*time.Minute)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO verification_codes`).
		WillReturnError(errors.New("db down"))

	require.NoError(t, repo.SetCode(context.Background(), "a@x.com", "123456", 5*time.Minute))

	err := repo.SetCode(context.Background(), "a@x.com", "123456", 5*time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestVerificationRepository_CheckCode(t *testing.T) {
	const selectQuery = `(?s)^SELECT identity_key, code, .+ FROM verification_codes WHERE identity_key = \$1$`

	t.Run("live", func(t *testing.T) {
		repo, mock := newVerificationRepoWithMock(t)
		mock.ExpectQuery(selectQuery).
			WithArgs("a@x.com").
			WillReturnRows(sqlmock.NewRows(verificationColumns).
				AddRow("a@x.com", "123456", fixedNow, fixedNow.Add(time.Minute), false, 0))

		code, ok, err := repo.CheckCode(context.Background(), "a@x.com")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "123456", code)
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock := newVerificationRepoWithMock(t)
		mock.ExpectQuery(selectQuery).WillReturnError(sql.ErrNoRows)

		code, ok, err := repo.CheckCode(context.Background(), "a@x.com")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, code)
	})

	t.Run("expired row is removed", func(t *testing.T) {
		repo, mock := newVerificationRepoWithMock(t)
		expiresAt := fixedNow.Add(-time.Second)
		mock.ExpectQuery(selectQuery).
			WillReturnRows(sqlmock.NewRows(verificationColumns).
				AddRow("a@x.com", "123456", fixedNow.Add(-time.Hour), expiresAt, true, 0))
		mock.ExpectExec(`DELETE FROM verification_codes WHERE identity_key = \$1 AND expires_at = \$2`).
			WithArgs("a@x.com", expiresAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		_, ok, err := repo.CheckCode(context.Background(), "a@x.com")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newVerificationRepoWithMock(t)
		mock.ExpectQuery(selectQuery).WillReturnError(errors.New("db down"))

		_, _, err := repo.CheckCode(context.Background(), "a@x.com")
		assert.Error(t, err)
	})
}

func TestVerificationRepository_Verified(t *testing.T) {
	repo, mock := newVerificationRepoWithMock(t)
	mock.ExpectExec(`UPDATE verification_codes SET verified = TRUE WHERE identity_key = \$1 AND expires_at >= \$2`).
		WithArgs("a@x.com", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM verification_codes WHERE identity_key`).
		WillReturnRows(sqlmock.NewRows(verificationColumns).
			AddRow("a@x.com", "123456", fixedNow, fixedNow.Add(time.Minute), true, 0))

	require.NoError(t, repo.MarkVerified(context.Background(), "a@x.com"))

	verified, err := repo.IsVerified(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestVerificationRepository_DeleteCode(t *testing.T) {
	repo, mock := newVerificationRepoWithMock(t)
	mock.ExpectExec(`^DELETE FROM verification_codes WHERE identity_key = \$1$`).
		WithArgs("a@x.com").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.DeleteCode(context.Background(), "a@x.com"))
}

func TestVerificationRepository_RegisterFailure(t *testing.T) {
	const updateQuery = `(?s)^UPDATE verification_codes SET attempts = attempts \+ 1 .+ RETURNING attempts$`

	t.Run("below limit", func(t *testing.T) {
		repo, mock := newVerificationRepoWithMock(t)
		mock.ExpectQuery(updateQuery).
			WithArgs("a@x.com", fixedNow).
			WillReturnRows(sqlmock.NewRows([]string{"attempts"}).AddRow(2))

		attempts, err := repo.RegisterFailure(context.Background(), "a@x.com", 5)
		require.NoError(t, err)
		assert.Equal(t, 2, attempts)
	})

	t.Run("limit deletes the row", func(t *testing.T) {
		repo, mock := newVerificationRepoWithMock(t)
		mock.ExpectQuery(updateQuery).
			WillReturnRows(sqlmock.NewRows([]string{"attempts"}).AddRow(5))
		mock.ExpectExec(`^DELETE FROM verification_codes WHERE identity_key = \$1 AND attempts >= \$2$`).
			WithArgs("a@x.com", 5).
			WillReturnResult(sqlmock.NewResult(0, 1))

		attempts, err := repo.RegisterFailure(context.Background(), "a@x.com", 5)
		require.NoError(t, err)
		assert.Equal(t, 5, attempts)
	})

	t.Run("code reissued before the drop survives", func(t *testing.T) {
		repo, mock := newVerificationRepoWithMock(t)
		mock.ExpectQuery(updateQuery).
			WillReturnRows(sqlmock.NewRows([]string{"attempts"}).AddRow(5))
		mock.ExpectExec(`^DELETE FROM verification_codes WHERE identity_key = \$1 AND attempts >= \$2$`).
			WithArgs("a@x.com", 5).
			WillReturnResult(sqlmock.NewResult(0, 0))

		attempts, err := repo.RegisterFailure(context.Background(), "a@x.com", 5)
		require.NoError(t, err)
		assert.Equal(t, 5, attempts)
	})

	t.Run("no live row", func(t *testing.T) {
		repo, mock := newVerificationRepoWithMock(t)
		mock.ExpectQuery(updateQuery).WillReturnError(sql.ErrNoRows)

		attempts, err := repo.RegisterFailure(context.Background(), "a@x.com", 5)
		require.NoError(t, err)
		assert.Equal(t, 0, attempts)
	})
}

func TestVerificationRepository_Sweep(t *testing.T) {
	repo, mock := newVerificationRepoWithMock(t)
	mock.ExpectExec(`DELETE FROM verification_codes WHERE expires_at < \$1`).
		WithArgs(fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 3))

	removed, err := repo.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
}
