package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/motorsoft/msadmin-bot/internal/models"
	"github.com/motorsoft/msadmin-bot/internal/report"
	"gopkg.in/telebot.v4"
)

const (
	// ordersListLimit bounds the on-screen listing.
	ordersListLimit = 20
	// ordersExportLimit bounds the Excel export. The API has no "all"
	// mode, so the export takes the most recent slice.
	ordersExportLimit = 500
)

// ordersHandler renders the recent orders with an export button.
func (b *Bot) ordersHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.log.Info("User requested orders page", "user", userID)
	b.metrics.CommandReceived.WithLabelValues("orders").Inc()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	startTime := time.Now()
	orders, err := b.api(userID).Orders(timeoutCtx, ordersListLimit)
	b.observeAPI("get_orders", startTime, err)
	if err != nil {
		b.log.Error("Failed to get orders", "error", err, "user", userID)
		return b.replyAPIError(ctx, err)
	}

	if len(orders) == 0 {
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send("📭 No orders yet.")
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📦 *Last %d orders*\n\n", len(orders)))
	for _, order := range orders {
		builder.WriteString(fmt.Sprintf("#%d %s — %s/%s, %.2f (%s)\n",
			order.ID,
			orderCustomer(order),
			order.Stage, order.Status,
			order.Price,
			order.CreatedAt.Format("02.01.2006")))
	}

	menu := &telebot.ReplyMarkup{InlineKeyboard: [][]telebot.InlineButton{
		{{Unique: btnOrdersExport.Unique, Text: "📊 Export to Excel"}},
	}}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(builder.String(), menu, telebot.ModeMarkdown)
}

// ordersExportHandler generates the Excel workbook, one sheet per tuning
// stage, and sends it back as a document.
func (b *Bot) ordersExportHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.log.Info("User requested orders export", "user", userID)
	b.metrics.CommandReceived.WithLabelValues("orders_export").Inc()
	_ = ctx.Respond(&telebot.CallbackResponse{Text: "🔧 One moment, generating your report..."})

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startTime := time.Now()
	orders, err := b.api(userID).Orders(timeoutCtx, ordersExportLimit)
	b.observeAPI("get_orders", startTime, err)
	if err != nil {
		b.log.Error("Failed to get orders for export", "error", err, "user", userID)
		return b.replyAPIError(ctx, err)
	}

	rows := make([]report.OrderRow, 0, len(orders))
	for _, order := range orders {
		rows = append(rows, report.OrderRow{
			ID:        order.ID,
			Stage:     order.Stage,
			Status:    order.Status,
			Customer:  orderCustomer(order),
			Firmware:  orderFirmware(order),
			Price:     order.Price,
			CreatedAt: order.CreatedAt,
		})
	}

	reportBuffer, err := report.GenerateOrdersReport(rows)
	if err != nil {
		if errors.Is(err, report.ErrNoOrders) {
			b.metrics.SentMessages.WithLabelValues("text").Inc()
			return ctx.Send("📭 There are no orders to export.")
		}
		b.log.Error("Failed to generate orders report", "error", err, "user", userID)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal)
	}

	reportFile := &telebot.Document{
		File:     telebot.FromReader(reportBuffer),
		FileName: fmt.Sprintf("orders_%s.xlsx", time.Now().Format("2006-01-02")),
		MIME:     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}

	b.log.Info("Succesfully generated orders report", "user", userID, "orders", len(rows))
	b.metrics.SentMessages.WithLabelValues("file").Inc()
	return ctx.Send(reportFile)
}

func orderCustomer(order models.Order) string {
	if order.User != nil {
		return displayName(*order.User)
	}
	return fmt.Sprintf("user #%d", order.UserID)
}

func orderFirmware(order models.Order) string {
	if order.Firmware != nil {
		return fmt.Sprintf("%s %s (%s)", order.Firmware.Brand, order.Firmware.Model, order.Firmware.ECUType)
	}
	return fmt.Sprintf("firmware #%d", order.FirmwareID)
}
