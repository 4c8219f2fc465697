package repository

import (
	"context"
	"fmt"

	"github.com/motorsoft/msadmin-bot/internal/models"
)

type Repository struct {
	db Database
}

// SessionManager defines the persistence operations for admin panel sessions.
// A session row is the bot-side equivalent of the browser's stored bearer
// token: its presence gates every admin handler, and it is removed either by
// an explicit logout or by the API client after a 401.
type SessionManager interface {
	SaveSession(ctx context.Context, session models.AdminSession) error
	GetSession(ctx context.Context, telegramID int64) (models.AdminSession, error)
	DeleteSession(ctx context.Context, telegramID int64) error
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the session table if it does not exist yet. Called
// once at startup.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS admin_sessions (
			telegram_id BIGINT PRIMARY KEY,
			token TEXT NOT NULL,
			username TEXT NOT NULL,
			role TEXT NOT NULL,
			logged_in_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create admin_sessions table: %w", err)
	}

	return nil
}
