package bot

import (
	"strings"

	"github.com/motorsoft/msadmin-bot/internal/leads"
	"gopkg.in/telebot.v4"
)

// leadSteps is the price-request form, asked in order. Answering "-" skips
// a field.
var leadSteps = []struct {
	key    string
	prompt string
}{
	{"name", "👤 Your name?"},
	{"email", "📧 Email?"},
	{"phone", "📱 Phone number?"},
	{"city", "🏙 City?"},
	{"brand", "🚘 Car brand?"},
	{"model", "🚗 Model?"},
	{"year", "📅 Year?"},
	{"engine", "⚙️ Engine? (e.g. 2.0 TDI)"},
	{"power", "🐎 Stock power? (hp)"},
	{"contact", "📞 How should we contact you? (phone, telegram, email — comma-separated)"},
	{"comment", "💬 Anything else we should know?"},
}

// priceRequestHandler starts the public price-request form. No session is
// needed; this is the one flow meant for customers, not operators.
func (b *Bot) priceRequestHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.log.Info("User started price request", "user", userID, "username", ctx.Sender().Username)
	b.metrics.CommandReceived.WithLabelValues("price_request").Inc()

	b.stateManager.Set(userID, UserState{
		WaitingFor: stateLeadPrefix + leadSteps[0].key,
		Form:       make(map[string]string),
	})

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send("📋 A few questions and we will calculate your price. Answer \"-\" to skip one.\n\n" +
		leadSteps[0].prompt)
}

// leadStepHandler stores the answer to the current form step and asks the
// next question, or finishes the form after the last one.
func (b *Bot) leadStepHandler(ctx telebot.Context, state UserState) error {
	userID := ctx.Sender().ID
	key := strings.TrimPrefix(state.WaitingFor, stateLeadPrefix)

	answer := strings.TrimSpace(ctx.Text())
	if answer == "-" {
		answer = ""
	}
	state.Form[key] = answer

	for idx, step := range leadSteps {
		if step.key != key {
			continue
		}
		if idx+1 < len(leadSteps) {
			state.WaitingFor = stateLeadPrefix + leadSteps[idx+1].key
			b.stateManager.Set(userID, state)
			b.metrics.SentMessages.WithLabelValues("text").Inc()
			return ctx.Send(leadSteps[idx+1].prompt)
		}
		return b.finishLead(ctx, state.Form)
	}

	b.log.Warn("Unknown lead form step", "step", key, "user", userID)
	b.metrics.SentMessages.WithLabelValues("error").Inc()
	return ctx.Send(ErrInternal)
}

// finishLead assembles the collected answers into the lead message. The
// message is logged for the operators and echoed back to the customer; no
// delivery channel exists beyond that.
func (b *Bot) finishLead(ctx telebot.Context, form map[string]string) error {
	userID := ctx.Sender().ID

	var contactMethods []string
	for _, method := range strings.Split(form["contact"], ",") {
		if method = strings.TrimSpace(method); method != "" {
			contactMethods = append(contactMethods, method)
		}
	}

	request := leads.Request{
		Name:           form["name"],
		Email:          form["email"],
		Phone:          form["phone"],
		City:           form["city"],
		Brand:          form["brand"],
		Model:          form["model"],
		Year:           form["year"],
		Engine:         form["engine"],
		Power:          form["power"],
		ContactMethods: contactMethods,
		Comment:        form["comment"],
	}
	message := request.Message()

	b.log.Info("Captured price request lead",
		"user", userID,
		"username", ctx.Sender().Username,
		"lead", message)
	b.metrics.LeadsCaptured.Inc()

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send("✅ Thanks! We received your request:\n\n"+message+
		"\nOur team will get back to you shortly.", telebot.ModeMarkdown)
}
