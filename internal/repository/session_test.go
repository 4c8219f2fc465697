package repository_test

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/motorsoft/msadmin-bot/internal/models"
	"github.com/motorsoft/msadmin-bot/internal/repository"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const upsertSession = `
	INSERT INTO admin_sessions \(telegram_id, token, username, role, logged_in_at\)
	\s*VALUES \(\$1, \$2, \$3, \$4, \$5\)
	\s*ON CONFLICT \(telegram_id\) DO UPDATE SET token = \$2, username = \$3, role = \$4, logged_in_at = \$5`

const selectSession = "SELECT token, username, role, logged_in_at FROM admin_sessions WHERE telegram_id = \\$1"

const deleteSession = "DELETE FROM admin_sessions WHERE telegram_id = \\$1"

func TestSaveSession(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	session := models.AdminSession{
		TelegramID: 12345,
		Token:      "tok-abc",
		Username:   "boss",
		Role:       "admin",
		LoggedInAt: time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC),
	}

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectExec(upsertSession).
			WithArgs(session.TelegramID, session.Token, session.Username, session.Role, session.LoggedInAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err = repo.SaveSession(ctx, session)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - exec failed", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectExec(upsertSession).
			WithArgs(session.TelegramID, session.Token, session.Username, session.Role, session.LoggedInAt).
			WillReturnError(assert.AnError)

		err = repo.SaveSession(ctx, session)

		require.Error(t, err)
		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "failed to save session")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetSession(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	telegramID := int64(12345)
	loggedInAt := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(selectSession).
			WithArgs(telegramID).
			WillReturnRows(pgxmock.NewRows([]string{"token", "username", "role", "logged_in_at"}).
				AddRow("tok-abc", "boss", "admin", loggedInAt))

		session, err := repo.GetSession(ctx, telegramID)

		require.NoError(t, err)
		assert.Equal(t, telegramID, session.TelegramID)
		assert.Equal(t, "tok-abc", session.Token)
		assert.Equal(t, "boss", session.Username)
		assert.True(t, session.IsAdmin())
		assert.Equal(t, loggedInAt, session.LoggedInAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - session not found", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(selectSession).WithArgs(telegramID).WillReturnError(pgx.ErrNoRows)

		_, err = repo.GetSession(ctx, telegramID)

		require.Error(t, err)
		require.ErrorIs(t, err, repository.ErrSessionNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - query failed", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(selectSession).WithArgs(telegramID).WillReturnError(assert.AnError)

		_, err = repo.GetSession(ctx, telegramID)

		require.Error(t, err)
		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "failed to get session")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteSession(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	telegramID := int64(12345)

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectExec(deleteSession).
			WithArgs(telegramID).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		err = repo.DeleteSession(ctx, telegramID)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - no row to delete", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectExec(deleteSession).
			WithArgs(telegramID).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err = repo.DeleteSession(ctx, telegramID)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - exec failed", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectExec(deleteSession).WithArgs(telegramID).WillReturnError(assert.AnError)

		err = repo.DeleteSession(ctx, telegramID)

		require.Error(t, err)
		require.ErrorContains(t, err, "failed to delete session")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
