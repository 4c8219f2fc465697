package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/motorsoft/msadmin-bot/internal/models"
)

// ErrSessionNotFound is returned when no session row exists for the given
// telegram ID, i.e. the admin is not logged in.
var ErrSessionNotFound = errors.New("no active admin session for this telegram ID")

// SaveSession stores or replaces the session for the admin identified by the
// session's telegram ID. A re-login simply overwrites the previous token.
func (r *Repository) SaveSession(ctx context.Context, session models.AdminSession) error {
	_, err := r.db.Exec(
		ctx,
		`INSERT INTO admin_sessions (telegram_id, token, username, role, logged_in_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (telegram_id) DO UPDATE SET token = $2, username = $3, role = $4, logged_in_at = $5`,
		session.TelegramID,
		session.Token,
		session.Username,
		session.Role,
		session.LoggedInAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session for %d: %w", session.TelegramID, err)
	}

	return nil
}

// GetSession retrieves the session for a telegram admin ID. Returns
// ErrSessionNotFound when the admin is not logged in. A present session does
// not imply the token is still valid; only the server confirms that.
func (r *Repository) GetSession(ctx context.Context, telegramID int64) (models.AdminSession, error) {
	session := models.AdminSession{TelegramID: telegramID}

	err := r.db.QueryRow(
		ctx,
		"SELECT token, username, role, logged_in_at FROM admin_sessions WHERE telegram_id = $1",
		telegramID,
	).Scan(&session.Token, &session.Username, &session.Role, &session.LoggedInAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AdminSession{}, ErrSessionNotFound
		}
		return models.AdminSession{}, fmt.Errorf("failed to get session for %d: %w", telegramID, err)
	}

	return session, nil
}

// DeleteSession removes the session row for a telegram admin ID. Deleting a
// missing session is not an error.
func (r *Repository) DeleteSession(ctx context.Context, telegramID int64) error {
	_, err := r.db.Exec(ctx, "DELETE FROM admin_sessions WHERE telegram_id = $1", telegramID)
	if err != nil {
		return fmt.Errorf("failed to delete session for %d: %w", telegramID, err)
	}

	return nil
}
