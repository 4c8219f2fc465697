package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/telebot.v4"
)

// staffRoles are the roles the admin API accepts for new staff members.
var staffRoles = []string{"admin", "operator"}

// staffHandler renders the staff list. Operators get a read-only view;
// the create and delete actions are reserved for the admin role.
func (b *Bot) staffHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.log.Info("User requested staff page", "user", userID)
	b.metrics.CommandReceived.WithLabelValues("staff").Inc()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	startTime := time.Now()
	staff, err := b.api(userID).Staff(timeoutCtx)
	b.observeAPI("get_staff", startTime, err)
	if err != nil {
		b.log.Error("Failed to get staff", "error", err, "user", userID)
		return b.replyAPIError(ctx, err)
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🛡 *Staff* (%d)\n\n", len(staff)))
	for _, member := range staff {
		builder.WriteString(fmt.Sprintf("#%d %s — %s, since %s\n",
			member.ID, member.Username, member.Role, member.CreatedAt.Format("02.01.2006")))
	}

	menu := &telebot.ReplyMarkup{}
	if b.hasAdminRole(timeoutCtx, userID) {
		var rows [][]telebot.InlineButton
		deleteButtons := make([]telebot.InlineButton, 0, 3)
		for idx, member := range staff {
			btn := telebot.InlineButton{
				Unique: btnStaffDelete.Unique,
				Text:   "🗑 " + member.Username,
				Data:   strconv.Itoa(member.ID),
			}
			deleteButtons = append(deleteButtons, btn)
			if (idx+1)%3 == 0 || idx == len(staff)-1 {
				rows = append(rows, deleteButtons)
				deleteButtons = nil
			}
		}
		rows = append(rows, []telebot.InlineButton{{Unique: btnStaffCreate.Unique, Text: "➕ Add staff member"}})
		menu.InlineKeyboard = rows
	} else {
		builder.WriteString("\n👀 Read-only view. Staff management needs the admin role.")
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(builder.String(), menu, telebot.ModeMarkdown)
}

// staffCreateHandler starts the create flow: username, password, then role.
func (b *Bot) staffCreateHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.metrics.CommandReceived.WithLabelValues("staff_create").Inc()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if !b.hasAdminRole(timeoutCtx, userID) {
		return ctx.Respond(&telebot.CallbackResponse{Text: "Admin role required.", ShowAlert: true})
	}

	_ = ctx.Respond()
	b.stateManager.Set(userID, UserState{WaitingFor: stateAwaitingStaffUsername})

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send("👨‍🔧 Username for the new staff member:")
}

// staffCreateStepHandler walks the remaining create steps. The role step
// validates locally only that the entered role is one of the two the server
// knows about, to save a doomed round trip on a typo.
func (b *Bot) staffCreateStepHandler(ctx telebot.Context, state UserState) error {
	userID := ctx.Sender().ID
	input := strings.TrimSpace(ctx.Text())

	switch state.WaitingFor {
	case stateAwaitingStaffUsername:
		b.stateManager.Set(userID, UserState{
			WaitingFor: stateAwaitingStaffPassword,
			Form:       map[string]string{"username": input},
		})
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send("🔑 Password for *" + input + "*:")

	case stateAwaitingStaffPassword:
		if err := ctx.Delete(); err != nil {
			b.log.Warn("Failed to delete password message", "error", err, "user", userID)
		}
		state.Form["password"] = input
		b.stateManager.Set(userID, UserState{WaitingFor: stateAwaitingStaffRole, Form: state.Form})
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send("🎭 Role? (admin or operator)")

	case stateAwaitingStaffRole:
		role := strings.ToLower(input)
		if role != staffRoles[0] && role != staffRoles[1] {
			b.stateManager.Set(userID, state)
			return ctx.Reply("🎭 Pick one of: admin, operator")
		}
		return b.createStaffMember(ctx, state.Form["username"], state.Form["password"], role)
	}

	return nil
}

func (b *Bot) createStaffMember(ctx telebot.Context, username, password, role string) error {
	userID := ctx.Sender().ID
	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b.log.Info("User creates staff member", "user", userID, "username", username, "role", role)

	startTime := time.Now()
	staffID, err := b.api(userID).CreateStaff(timeoutCtx, username, password, role)
	b.observeAPI("create_staff", startTime, err)
	if err != nil {
		b.log.Error("Failed to create staff member", "error", err, "username", username)
		return b.replyAPIError(ctx, err)
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(fmt.Sprintf("✅ Staff member *%s* created with ID #%d.", username, staffID), telebot.ModeMarkdown)
}

// staffDeleteHandler asks for confirmation before removing a staff member.
func (b *Bot) staffDeleteHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("staff_delete").Inc()
	targetData := ctx.Data()

	confirmMenu := &telebot.ReplyMarkup{InlineKeyboard: [][]telebot.InlineButton{{
		{Unique: btnStaffDeleteConfirm.Unique, Text: "🗑 Yes, remove", Data: targetData},
		{Unique: btnStaffDeleteCancel.Unique, Text: "Cancel"},
	}}}

	b.metrics.SentMessages.WithLabelValues("edit").Inc()
	return ctx.Edit("⚠️ Remove staff member #"+targetData+"? They lose panel access immediately.", confirmMenu)
}

func (b *Bot) staffDeleteConfirmHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID

	staffID, err := strconv.Atoi(ctx.Data())
	if err != nil {
		b.log.Error("Invalid staff ID in callback", "error", err, "data", ctx.Data())
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal)
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if !b.hasAdminRole(timeoutCtx, userID) {
		return ctx.Respond(&telebot.CallbackResponse{Text: "Admin role required.", ShowAlert: true})
	}

	b.log.Info("User removes staff member", "user", userID, "target", staffID)

	startTime := time.Now()
	err = b.api(userID).DeleteStaff(timeoutCtx, staffID)
	b.observeAPI("delete_staff", startTime, err)
	if err != nil {
		b.log.Error("Failed to delete staff member", "error", err, "target", staffID)
		return b.replyAPIError(ctx, err)
	}

	b.metrics.SentMessages.WithLabelValues("edit").Inc()
	return ctx.Edit(fmt.Sprintf("🗑 Staff member #%d removed.", staffID))
}

// hasAdminRole reports whether the operator's stored session carries the
// full admin role. The server enforces this on its side too; the check here
// only shapes the UI.
func (b *Bot) hasAdminRole(ctx context.Context, telegramID int64) bool {
	session, err := b.sessions.GetSession(ctx, telegramID)
	if err != nil {
		b.log.Warn("Failed to read session for role check", "error", err, "user", telegramID)
		return false
	}
	return session.IsAdmin()
}
