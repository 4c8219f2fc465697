package bot

import (
	"context"
	"strings"
	"time"

	"gopkg.in/telebot.v4"
)

const (
	// stateAwaitingUsername indicates that the bot is waiting for the admin login.
	stateAwaitingUsername = "awaiting_username"
	// stateAwaitingPassword indicates that the bot is waiting for the admin password.
	stateAwaitingPassword = "awaiting_password"
	// stateAwaitingUserSearch indicates a pending search term for the users page.
	stateAwaitingUserSearch = "awaiting_user_search"
	// stateAwaitingCoefficient indicates a pending price coefficient value.
	stateAwaitingCoefficient = "awaiting_coefficient"
	// stateAwaitingBalanceAmount indicates a pending balance adjustment amount.
	stateAwaitingBalanceAmount = "awaiting_balance_amount"
	// stateAwaitingBalanceReason indicates a pending balance adjustment reason.
	stateAwaitingBalanceReason = "awaiting_balance_reason"
	// staff creation steps, in order.
	stateAwaitingStaffUsername = "awaiting_staff_username"
	stateAwaitingStaffPassword = "awaiting_staff_password"
	stateAwaitingStaffRole     = "awaiting_staff_role"
	// stateLeadPrefix marks price-request form steps; the suffix is the field key.
	stateLeadPrefix = "lead:"
)

// startHandler process command /start.
func (b *Bot) startHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.log.Info("User started the bot", "id", userID, "username", ctx.Sender().Username)
	b.metrics.CommandReceived.WithLabelValues("start").Inc()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if session, err := b.sessions.GetSession(timeoutCtx, userID); err == nil {
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send("🔧 Welcome back, "+session.Username+"!", adminMenu)
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	responseText := "🏁 Welcome to the MotorSoft chip-tuning assistant!\n" +
		"Log in to manage the shop, or request a price for your car."
	return ctx.Send(responseText, guestMenu)
}

// routeTextHandler processes incoming text messages. Free text only means
// something when a multi-step flow is waiting for it; the state is consumed
// on read, so an abandoned flow dies on the next unrelated message.
func (b *Bot) routeTextHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID

	state, ok := b.stateManager.Get(userID)
	if !ok {
		return ctx.Reply("🐒 Use the buttons, please. Who did I make them for?")
	}

	if strings.HasPrefix(state.WaitingFor, stateLeadPrefix) {
		return b.leadStepHandler(ctx, state)
	}

	switch state.WaitingFor {
	case stateAwaitingUsername:
		return b.usernameReceivedHandler(ctx)
	case stateAwaitingPassword:
		return b.passwordReceivedHandler(ctx, state)
	case stateAwaitingUserSearch:
		return b.userSearchReceivedHandler(ctx)
	case stateAwaitingCoefficient:
		return b.coefficientReceivedHandler(ctx, state)
	case stateAwaitingBalanceAmount:
		return b.balanceAmountReceivedHandler(ctx, state)
	case stateAwaitingBalanceReason:
		return b.balanceReasonReceivedHandler(ctx, state)
	case stateAwaitingStaffUsername, stateAwaitingStaffPassword, stateAwaitingStaffRole:
		return b.staffCreateStepHandler(ctx, state)
	default:
		b.log.Warn("Unknown pending state", "state", state.WaitingFor, "user", userID)
		return ctx.Reply("🐒 Use the buttons, please. Who did I make them for?")
	}
}

// deleteCancelHandler handles the cancel action of both delete confirmations.
func (b *Bot) deleteCancelHandler(ctx telebot.Context) error {
	b.log.Info("User canceled deletion", "user", ctx.Sender().ID)
	b.metrics.SentMessages.WithLabelValues("edit").Inc()
	return ctx.Edit("❌ Operation canceled.")
}
