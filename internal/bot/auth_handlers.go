package bot

import (
	"context"
	"time"

	"github.com/motorsoft/msadmin-bot/internal/models"
	"gopkg.in/telebot.v4"
)

// loginHandler starts the credential flow. It prompts the user to enter
// their admin panel username; the password is asked for in the next step.
func (b *Bot) loginHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("login").Inc()
	b.stateManager.Set(ctx.Sender().ID, UserState{WaitingFor: stateAwaitingUsername})

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send("👨‍🔧 Enter your admin panel username:")
}

// usernameReceivedHandler stores the entered username and asks for the password.
func (b *Bot) usernameReceivedHandler(ctx telebot.Context) error {
	b.stateManager.Set(ctx.Sender().ID, UserState{
		WaitingFor: stateAwaitingPassword,
		Form:       map[string]string{"username": ctx.Text()},
	})

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send("🔑 Now enter your password:")
}

// passwordReceivedHandler completes the credential flow: it exchanges the
// collected username and password for a bearer token and persists the
// session row keyed by the operator's Telegram ID. Wrong credentials keep
// the user on the guest menu with the server's own rejection message.
func (b *Bot) passwordReceivedHandler(ctx telebot.Context, state UserState) error {
	userID := ctx.Sender().ID
	username := state.Form["username"]
	password := ctx.Text()

	// The password stays in the chat history; remove at least our copy.
	if err := ctx.Delete(); err != nil {
		b.log.Warn("Failed to delete password message", "error", err, "user", userID)
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b.log.Info("User is trying to log in", "user", userID, "username", username)

	startTime := time.Now()
	result, err := b.api(userID).Login(timeoutCtx, username, password)
	b.observeAPI("login", startTime, err)
	if err != nil {
		b.log.Info("Login rejected", "user", userID, "username", username, "error", err)
		return b.replyAPIError(ctx, err)
	}

	session := models.AdminSession{
		TelegramID: userID,
		Token:      result.AccessToken,
		Username:   result.Username,
		Role:       result.Role,
		LoggedInAt: time.Now(),
	}
	if err = b.sessions.SaveSession(timeoutCtx, session); err != nil {
		b.log.Error("Failed to persist admin session", "error", err, "user", userID)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal)
	}

	b.log.Info("User successfully logged in", "user", userID, "username", result.Username, "role", result.Role)
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send("✅ Logged in as *"+result.Username+"* ("+result.Role+")", adminMenu, telebot.ModeMarkdown)
}

// logoutHandler handles the logout process for a user. It drops any pending
// state, deletes the stored session row and returns the user to the guest
// menu. The bearer token itself is not revoked server-side; forgetting it is
// the whole logout.
func (b *Bot) logoutHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	timeoutCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	b.stateManager.Get(userID)
	b.log.Info("User logged out", "user", userID)
	b.metrics.CommandReceived.WithLabelValues("logout").Inc()

	if err := b.sessions.DeleteSession(timeoutCtx, userID); err != nil {
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send("💩 Failed to logout, please try later")
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send("😢 Logout was successfull", guestMenu)
}
