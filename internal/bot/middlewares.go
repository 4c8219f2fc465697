package bot

import (
	"context"
	"errors"
	"time"

	"github.com/motorsoft/msadmin-bot/internal/repository"
	"gopkg.in/telebot.v4"
)

// requireSession gates a handler behind a stored admin session. Without one
// the operator is dropped to the login menu, the bot-side equivalent of the
// admin panel redirecting to its login page.
func (b *Bot) requireSession(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(ctx telebot.Context) error {
		userID := ctx.Sender().ID
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		_, err := b.sessions.GetSession(timeoutCtx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrSessionNotFound) {
				b.log.Info("Access denied", "username", ctx.Sender().Username, "id", userID)
				if ctx.Callback() != nil {
					return ctx.Respond(&telebot.CallbackResponse{
						Text:      "Access denied. Please log in.",
						ShowAlert: true,
					})
				}
				return ctx.Send("🔒 Please log in first.", guestMenu)
			}

			b.log.Error("Failed to check admin session", "id", userID, "error", err)
			return ctx.Send(ErrInternal)
		}

		return next(ctx)
	}
}
