package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/motorsoft/msadmin-bot/internal/client/msapi"
	"github.com/motorsoft/msadmin-bot/internal/metrics"
	"github.com/motorsoft/msadmin-bot/internal/repository"
	"gopkg.in/telebot.v4"
)

// ErrInternal is the generic failure reply shown when nothing more specific
// can be told to the operator.
const ErrInternal = "🚫 Internal server error, please try again later"

// Bot contains the bot API instance and other information.
type Bot struct {
	bot          *telebot.Bot
	log          *slog.Logger
	sessions     repository.SessionManager
	metrics      *metrics.Metrics
	apiBase      string
	httpClient   *http.Client
	stateManager *StateManager
}

// NewBot creates a new bot with the given token. apiBase is the admin API
// root URL; httpClient carries the per-request timeout for every API call
// made on behalf of an operator.
func NewBot(
	log *slog.Logger,
	sessions repository.SessionManager,
	metrics *metrics.Metrics,
	token string,
	poller time.Duration,
	apiBase string,
	httpClient *http.Client,
) (*Bot, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: poller},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.Info("Authorized on account", "account", bot.Me.Username)

	botInstance := &Bot{
		bot:          bot,
		log:          log,
		sessions:     sessions,
		metrics:      metrics,
		apiBase:      apiBase,
		httpClient:   httpClient,
		stateManager: NewStateManager(),
	}

	botInstance.registerRoutes()

	return botInstance, nil
}

// Start launches the bot to listen for updates.
func (b *Bot) Start() {
	b.log.Info("Telegram bot is starting...")
	b.bot.Start()
}

// Stop gracefully stops the Telegram bot and logs the action.
func (b *Bot) Stop() {
	b.log.Info("Telegram bot is stopped...")
	b.bot.Stop()
}

// registerRoutes configures all routes (commands).
func (b *Bot) registerRoutes() {
	// Public routes.
	b.bot.Handle("/start", b.startHandler)
	b.bot.Handle(&btnLogin, b.loginHandler)
	b.bot.Handle(&btnPriceRequest, b.priceRequestHandler)
	b.bot.Handle(telebot.OnText, b.routeTextHandler)

	// Admin reply-keyboard routes, gated by a stored session.
	b.bot.Handle(&btnDashboard, b.requireSession(b.dashboardHandler))
	b.bot.Handle(&btnUsers, b.requireSession(b.usersHandler))
	b.bot.Handle(&btnOrders, b.requireSession(b.ordersHandler))
	b.bot.Handle(&btnFirmwares, b.requireSession(b.firmwaresHandler))
	b.bot.Handle(&btnStaff, b.requireSession(b.staffHandler))
	b.bot.Handle(&btnLogout, b.requireSession(b.logoutHandler))
	b.bot.Handle(telebot.OnDocument, b.requireSession(b.uploadFirmwareHandler))

	// Inline button callbacks.
	b.bot.Handle(&btnUserDetails, b.requireSession(b.userDetailsHandler))
	b.bot.Handle(&btnUserBlock, b.requireSession(b.userBlockHandler))
	b.bot.Handle(&btnUserUnblock, b.requireSession(b.userBlockHandler))
	b.bot.Handle(&btnUserDelete, b.requireSession(b.userDeleteHandler))
	b.bot.Handle(&btnUserDeleteConfirm, b.requireSession(b.userDeleteConfirmHandler))
	b.bot.Handle(&btnUserDeleteCancel, b.requireSession(b.deleteCancelHandler))
	b.bot.Handle(&btnUserPartner, b.requireSession(b.userPartnerHandler))
	b.bot.Handle(&btnUserSlave, b.requireSession(b.userSlaveHandler))
	b.bot.Handle(&btnUserCoefficient, b.requireSession(b.userCoefficientHandler))
	b.bot.Handle(&btnUserBalance, b.requireSession(b.userBalanceHandler))
	b.bot.Handle(&btnUserSearch, b.requireSession(b.userSearchHandler))
	b.bot.Handle(&btnFirmwarePage, b.requireSession(b.firmwarePageHandler))
	b.bot.Handle(&btnOrdersExport, b.requireSession(b.ordersExportHandler))
	b.bot.Handle(&btnStaffCreate, b.requireSession(b.staffCreateHandler))
	b.bot.Handle(&btnStaffDelete, b.requireSession(b.staffDeleteHandler))
	b.bot.Handle(&btnStaffDeleteConfirm, b.requireSession(b.staffDeleteConfirmHandler))
	b.bot.Handle(&btnStaffDeleteCancel, b.requireSession(b.deleteCancelHandler))
}

// api builds an admin API client bound to one operator: the bearer token is
// read from that operator's session row on every request, and a 401 from the
// server deletes the row so the next interaction falls back to login.
func (b *Bot) api(telegramID int64) *msapi.Client {
	return msapi.NewClient(b.apiBase, b.httpClient, b.log, &sessionTokens{
		telegramID: telegramID,
		sessions:   b.sessions,
		log:        b.log,
	})
}

// observeAPI records the duration of one admin API call and counts failures.
func (b *Bot) observeAPI(operation string, start time.Time, err error) {
	b.metrics.APIRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		b.metrics.APIErrors.WithLabelValues(operation).Inc()
	}
}

// replyAPIError translates an admin API failure into an operator-facing
// message. An expired session drops the operator back to the guest menu;
// server-side rejections surface the server's own detail text.
func (b *Bot) replyAPIError(ctx telebot.Context, err error) error {
	b.metrics.SentMessages.WithLabelValues("error").Inc()

	if errors.Is(err, msapi.ErrUnauthorized) {
		return ctx.Send("🔒 Your session has expired. Please log in again.", guestMenu)
	}

	var httpErr *msapi.HTTPError
	if errors.As(err, &httpErr) {
		return ctx.Send("⚠️ " + httpErr.Message)
	}

	return ctx.Send(ErrInternal)
}

// sessionTokens adapts one operator's session row to the token source the
// API client reads from.
type sessionTokens struct {
	telegramID int64
	sessions   repository.SessionManager
	log        *slog.Logger
}

func (s *sessionTokens) Token(ctx context.Context) string {
	session, err := s.sessions.GetSession(ctx, s.telegramID)
	if err != nil {
		if !errors.Is(err, repository.ErrSessionNotFound) {
			s.log.ErrorContext(ctx, "Failed to read admin session", "error", err, "user", s.telegramID)
		}
		return ""
	}

	return session.Token
}

func (s *sessionTokens) Invalidate(ctx context.Context) {
	if err := s.sessions.DeleteSession(ctx, s.telegramID); err != nil {
		s.log.ErrorContext(ctx, "Failed to clear rejected admin session", "error", err, "user", s.telegramID)
	}
}
