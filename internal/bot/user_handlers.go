package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/motorsoft/msadmin-bot/internal/client/msapi"
	"github.com/motorsoft/msadmin-bot/internal/models"
	"gopkg.in/telebot.v4"
)

// maxListedUsers caps how many users one message lists; Telegram cuts
// messages at 4096 characters.
const maxListedUsers = 10

var errUserNotFound = errors.New("user not found in the admin API listing")

// usersHandler renders the users page: a capped listing with per-user detail
// buttons and a search entry point. The server returns the full list; any
// narrowing happens on our side.
func (b *Bot) usersHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.log.Info("User requested users page", "user", userID)
	b.metrics.CommandReceived.WithLabelValues("users").Inc()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	startTime := time.Now()
	users, err := b.api(userID).Users(timeoutCtx)
	b.observeAPI("get_users", startTime, err)
	if err != nil {
		b.log.Error("Failed to get users", "error", err, "user", userID)
		return b.replyAPIError(ctx, err)
	}

	return b.sendUserList(ctx, users, fmt.Sprintf("👥 *Users* (%d total)", len(users)))
}

// userSearchHandler asks for a search term to filter the user list with.
func (b *Bot) userSearchHandler(ctx telebot.Context) error {
	_ = ctx.Respond()
	b.stateManager.Set(ctx.Sender().ID, UserState{WaitingFor: stateAwaitingUserSearch})

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send("🔍 Send a username or ID to search for:")
}

// userSearchReceivedHandler filters the full user list by the entered term.
// Matching is case-insensitive on username and exact on the numeric IDs.
func (b *Bot) userSearchReceivedHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	term := strings.TrimSpace(ctx.Text())

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	startTime := time.Now()
	users, err := b.api(userID).Users(timeoutCtx)
	b.observeAPI("get_users", startTime, err)
	if err != nil {
		b.log.Error("Failed to get users for search", "error", err, "user", userID)
		return b.replyAPIError(ctx, err)
	}

	matched := make([]models.User, 0, len(users))
	for _, user := range users {
		if strings.Contains(strings.ToLower(user.Username), strings.ToLower(term)) ||
			strconv.Itoa(user.ID) == term ||
			strconv.FormatInt(user.TelegramID, 10) == term {
			matched = append(matched, user)
		}
	}

	if len(matched) == 0 {
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send("🤷 Nobody matches \"" + term + "\".")
	}

	return b.sendUserList(ctx, matched, fmt.Sprintf("🔍 *Search results* (%d)", len(matched)))
}

// sendUserList renders one page of users with a detail button per entry.
func (b *Bot) sendUserList(ctx telebot.Context, users []models.User, title string) error {
	shown := users
	if len(shown) > maxListedUsers {
		shown = shown[:maxListedUsers]
	}

	var builder strings.Builder
	builder.WriteString(title + "\n\n")
	for _, user := range shown {
		marker := "🟢"
		if user.IsBlocked {
			marker = "⛔"
		}
		builder.WriteString(fmt.Sprintf("%s #%d %s — balance %.2f, %d purchases\n",
			marker, user.ID, displayName(user), user.Balance, user.TotalPurchases))
	}
	if len(users) > maxListedUsers {
		builder.WriteString(fmt.Sprintf("\n…and %d more. Use search to narrow down.", len(users)-maxListedUsers))
	}

	// detail buttons, three per row
	var rows [][]telebot.InlineButton
	buttons := make([]telebot.InlineButton, 0, 3)
	for idx, user := range shown {
		btn := telebot.InlineButton{
			Unique: btnUserDetails.Unique,
			Text:   fmt.Sprintf("#%d", user.ID),
			Data:   strconv.Itoa(user.ID),
		}
		buttons = append(buttons, btn)
		if (idx+1)%3 == 0 || idx == len(shown)-1 {
			rows = append(rows, buttons)
			buttons = nil
		}
	}
	rows = append(rows, []telebot.InlineButton{{Unique: btnUserSearch.Unique, Text: "🔍 Search"}})

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	menu := &telebot.ReplyMarkup{InlineKeyboard: rows}
	return ctx.Send(builder.String(), menu, telebot.ModeMarkdown)
}

// userDetailsHandler shows one user's card with the action keyboard.
func (b *Bot) userDetailsHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("user_details").Inc()

	targetID, err := strconv.Atoi(ctx.Data())
	if err != nil {
		b.log.Error("Invalid user ID in callback", "error", err, "data", ctx.Data())
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal)
	}

	return b.showUserCard(ctx, targetID)
}

// showUserCard fetches the current state of one user and renders it, editing
// the originating message when the request came from a callback.
func (b *Bot) showUserCard(ctx telebot.Context, targetID int) error {
	userID := ctx.Sender().ID
	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := b.fetchUser(timeoutCtx, userID, targetID)
	if err != nil {
		if errors.Is(err, errUserNotFound) {
			b.metrics.SentMessages.WithLabelValues("text").Inc()
			return ctx.Send(fmt.Sprintf("🤷 User #%d no longer exists.", targetID))
		}
		b.log.Error("Failed to get user card", "error", err, "target", targetID)
		return b.replyAPIError(ctx, err)
	}

	markup := buildUserKeyboard(user)
	text := formatUserCard(user)

	b.metrics.SentMessages.WithLabelValues("edit").Inc()
	if ctx.Callback() != nil {
		err = ctx.Edit(text, telebot.ModeMarkdown, markup)
		if err != nil && !errors.Is(err, telebot.ErrSameMessageContent) {
			b.log.Error("Failed to edit user card", "error", err)
		}
		return err
	}
	return ctx.Send(text, telebot.ModeMarkdown, markup)
}

// fetchUser resolves one user out of the full listing. The admin API has no
// single-user endpoint, so the lookup is client-side.
func (b *Bot) fetchUser(ctx context.Context, operatorID int64, targetID int) (models.User, error) {
	startTime := time.Now()
	users, err := b.api(operatorID).Users(ctx)
	b.observeAPI("get_users", startTime, err)
	if err != nil {
		return models.User{}, err
	}

	for _, user := range users {
		if user.ID == targetID {
			return user, nil
		}
	}
	return models.User{}, errUserNotFound
}

// userBlockHandler flips the blocked flag. The same handler serves both the
// block and the unblock button; the callback unique tells them apart.
func (b *Bot) userBlockHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	block := ctx.Callback().Unique == btnUserBlock.Unique
	b.metrics.CommandReceived.WithLabelValues("user_block").Inc()

	targetID, err := strconv.Atoi(ctx.Data())
	if err != nil {
		b.log.Error("Invalid user ID in callback", "error", err, "data", ctx.Data())
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal)
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b.log.Info("User toggles block flag", "user", userID, "target", targetID, "block", block)

	startTime := time.Now()
	err = b.api(userID).ToggleUserBlock(timeoutCtx, targetID, block)
	b.observeAPI("toggle_block", startTime, err)
	if err != nil {
		b.log.Error("Failed to toggle block flag", "error", err, "target", targetID)
		return b.replyAPIError(ctx, err)
	}

	_ = ctx.Respond(&telebot.CallbackResponse{Text: "Done."})
	return b.showUserCard(ctx, targetID)
}

// userDeleteHandler asks for confirmation before the destructive call.
func (b *Bot) userDeleteHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("user_delete").Inc()
	targetData := ctx.Data()

	confirmMenu := &telebot.ReplyMarkup{InlineKeyboard: [][]telebot.InlineButton{{
		{Unique: btnUserDeleteConfirm.Unique, Text: "🗑 Yes, delete", Data: targetData},
		{Unique: btnUserDeleteCancel.Unique, Text: "Cancel"},
	}}}

	b.metrics.SentMessages.WithLabelValues("edit").Inc()
	return ctx.Edit("⚠️ Delete user #"+targetData+" permanently? All their orders stay on record.", confirmMenu)
}

// userDeleteConfirmHandler executes the deletion after confirmation. Two taps
// on the confirm button mean two DELETE calls; the second one gets the
// server's not-found reply.
func (b *Bot) userDeleteConfirmHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID

	targetID, err := strconv.Atoi(ctx.Data())
	if err != nil {
		b.log.Error("Invalid user ID in callback", "error", err, "data", ctx.Data())
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal)
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b.log.Info("User confirmed deletion", "user", userID, "target", targetID)

	startTime := time.Now()
	err = b.api(userID).DeleteUser(timeoutCtx, targetID)
	b.observeAPI("delete_user", startTime, err)
	if err != nil {
		b.log.Error("Failed to delete user", "error", err, "target", targetID)
		return b.replyAPIError(ctx, err)
	}

	b.metrics.SentMessages.WithLabelValues("edit").Inc()
	return ctx.Edit(fmt.Sprintf("🗑 User #%d deleted.", targetID))
}

// userPartnerHandler toggles the partner tier flag and re-renders the card.
func (b *Bot) userPartnerHandler(ctx telebot.Context) error {
	return b.togglePartnerFlag(ctx, "user_partner")
}

// userSlaveHandler toggles the sub-account tier flag and re-renders the card.
func (b *Bot) userSlaveHandler(ctx telebot.Context) error {
	return b.togglePartnerFlag(ctx, "user_slave")
}

func (b *Bot) togglePartnerFlag(ctx telebot.Context, command string) error {
	userID := ctx.Sender().ID
	b.metrics.CommandReceived.WithLabelValues(command).Inc()

	targetID, err := strconv.Atoi(ctx.Data())
	if err != nil {
		b.log.Error("Invalid user ID in callback", "error", err, "data", ctx.Data())
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal)
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// The update is partial, so we need the current value to flip it.
	user, err := b.fetchUser(timeoutCtx, userID, targetID)
	if err != nil {
		b.log.Error("Failed to get user before tier toggle", "error", err, "target", targetID)
		return b.replyAPIError(ctx, err)
	}

	var update msapi.PartnerUpdate
	if command == "user_partner" {
		next := !user.IsPartner
		update.IsPartner = &next
	} else {
		next := !user.IsSlave
		update.IsSlave = &next
	}

	startTime := time.Now()
	status, err := b.api(userID).UpdateUserPartnerStatus(timeoutCtx, targetID, update)
	b.observeAPI("update_partner", startTime, err)
	if err != nil {
		b.log.Error("Failed to update partner status", "error", err, "target", targetID)
		return b.replyAPIError(ctx, err)
	}

	_ = ctx.Respond(&telebot.CallbackResponse{
		Text: fmt.Sprintf("Partner: %t, slave: %t, discount %d%%",
			status.IsPartner, status.IsSlave, status.DiscountPercent),
	})
	return b.showUserCard(ctx, targetID)
}

// userCoefficientHandler asks for a new price coefficient for the user.
func (b *Bot) userCoefficientHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("user_coefficient").Inc()

	targetID, err := strconv.Atoi(ctx.Data())
	if err != nil {
		b.log.Error("Invalid user ID in callback", "error", err, "data", ctx.Data())
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal)
	}

	_ = ctx.Respond()
	b.stateManager.Set(ctx.Sender().ID, UserState{WaitingFor: stateAwaitingCoefficient, UserID: targetID})

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send("💸 Send the new price coefficient (e.g. 0.85 for a 15% discount):")
}

// coefficientReceivedHandler applies the entered coefficient. The value is
// parsed but not range-checked; the server owns the business rules.
func (b *Bot) coefficientReceivedHandler(ctx telebot.Context, state UserState) error {
	userID := ctx.Sender().ID

	coefficient, err := strconv.ParseFloat(strings.TrimSpace(ctx.Text()), 64)
	if err != nil {
		b.stateManager.Set(userID, state)
		return ctx.Reply("🔢 That is not a number. Try again, e.g. 0.85:")
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	startTime := time.Now()
	status, err := b.api(userID).UpdateUserPartnerStatus(timeoutCtx, state.UserID,
		msapi.PartnerUpdate{Coefficient: &coefficient})
	b.observeAPI("update_partner", startTime, err)
	if err != nil {
		b.log.Error("Failed to update coefficient", "error", err, "target", state.UserID)
		return b.replyAPIError(ctx, err)
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(fmt.Sprintf("✅ Coefficient for user #%d is now %.2f (%d%% discount).",
		state.UserID, status.Coefficient, status.DiscountPercent))
}

// userBalanceHandler starts the balance adjustment flow: amount, then reason.
func (b *Bot) userBalanceHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("user_balance").Inc()

	targetID, err := strconv.Atoi(ctx.Data())
	if err != nil {
		b.log.Error("Invalid user ID in callback", "error", err, "data", ctx.Data())
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal)
	}

	_ = ctx.Respond()
	b.stateManager.Set(ctx.Sender().ID, UserState{WaitingFor: stateAwaitingBalanceAmount, UserID: targetID})

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send("💰 Send the amount to add (negative to charge):")
}

func (b *Bot) balanceAmountReceivedHandler(ctx telebot.Context, state UserState) error {
	userID := ctx.Sender().ID

	amount := strings.TrimSpace(ctx.Text())
	if _, err := strconv.ParseFloat(amount, 64); err != nil {
		b.stateManager.Set(userID, state)
		return ctx.Reply("🔢 That is not a number. Try again, e.g. -25.50:")
	}

	b.stateManager.Set(userID, UserState{
		WaitingFor: stateAwaitingBalanceReason,
		UserID:     state.UserID,
		Form:       map[string]string{"amount": amount},
	})

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send("📝 Now send a short reason for the adjustment:")
}

func (b *Bot) balanceReasonReceivedHandler(ctx telebot.Context, state UserState) error {
	userID := ctx.Sender().ID

	amount, err := strconv.ParseFloat(state.Form["amount"], 64)
	if err != nil {
		b.log.Error("Invalid stored balance amount", "error", err, "amount", state.Form["amount"])
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal)
	}
	reason := ctx.Text()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b.log.Info("User adjusts balance", "user", userID, "target", state.UserID, "amount", amount)

	startTime := time.Now()
	newBalance, err := b.api(userID).UpdateUserBalance(timeoutCtx, state.UserID, amount, reason)
	b.observeAPI("update_balance", startTime, err)
	if err != nil {
		b.log.Error("Failed to adjust balance", "error", err, "target", state.UserID)
		return b.replyAPIError(ctx, err)
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(fmt.Sprintf("✅ Balance of user #%d is now %.2f.", state.UserID, newBalance))
}

// buildUserKeyboard assembles the action keyboard for one user card.
func buildUserKeyboard(user models.User) *telebot.ReplyMarkup {
	data := strconv.Itoa(user.ID)

	blockBtn := telebot.InlineButton{Unique: btnUserBlock.Unique, Text: "⛔ Block", Data: data}
	if user.IsBlocked {
		blockBtn = telebot.InlineButton{Unique: btnUserUnblock.Unique, Text: "🟢 Unblock", Data: data}
	}

	return &telebot.ReplyMarkup{InlineKeyboard: [][]telebot.InlineButton{
		{
			blockBtn,
			{Unique: btnUserDelete.Unique, Text: "🗑 Delete", Data: data},
		},
		{
			{Unique: btnUserPartner.Unique, Text: "🤝 Partner", Data: data},
			{Unique: btnUserSlave.Unique, Text: "⛓ Slave", Data: data},
		},
		{
			{Unique: btnUserCoefficient.Unique, Text: "💸 Coefficient", Data: data},
			{Unique: btnUserBalance.Unique, Text: "💰 Balance", Data: data},
		},
	}}
}

// formatUserCard its a helper function to keep the code DRY.
func formatUserCard(user models.User) string {
	lastActive := "never"
	if user.LastActive != nil {
		lastActive = user.LastActive.Format("02.01.2006 15:04")
	}

	return fmt.Sprintf(`
👤 *User #%d — %s*

*Telegram ID:* %d
*Level:* %s
*Balance:* %.2f
*Purchases:* %d
*Coefficient:* %.2f (%d%% discount)
*Partner:* %t   *Slave:* %t
*Blocked:* %t
*Registered:* %s
*Last active:* %s
`,
		user.ID, displayName(user),
		user.TelegramID,
		user.Level,
		user.Balance,
		user.TotalPurchases,
		user.Coefficient, models.DiscountPercent(user.Coefficient),
		user.IsPartner, user.IsSlave,
		user.IsBlocked,
		user.CreatedAt.Format("02.01.2006"),
		lastActive)
}

func displayName(user models.User) string {
	if user.Username != "" {
		return "@" + user.Username
	}
	return strconv.FormatInt(user.TelegramID, 10)
}
