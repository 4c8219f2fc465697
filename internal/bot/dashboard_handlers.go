package bot

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/telebot.v4"
)

// dashboardHandler renders the aggregate snapshot the admin panel shows on
// its landing page. The numbers are recomputed server-side on every request;
// nothing is cached here.
func (b *Bot) dashboardHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.log.Info("User requested dashboard", "user", userID)
	b.metrics.CommandReceived.WithLabelValues("dashboard").Inc()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	startTime := time.Now()
	stats, err := b.api(userID).DashboardStats(timeoutCtx)
	b.observeAPI("get_stats", startTime, err)
	if err != nil {
		b.log.Error("Failed to get dashboard stats", "error", err, "user", userID)
		return b.replyAPIError(ctx, err)
	}

	responseText := fmt.Sprintf(`
📊 *MotorSoft dashboard*

👥 Users: %d (+%d today)
💾 Firmwares: %d
📦 Orders: %d (+%d today)
💰 Revenue: %.2f (today: %.2f)
`,
		stats.TotalUsers, stats.NewUsersToday,
		stats.TotalFirmwares,
		stats.TotalOrders, stats.OrdersToday,
		stats.TotalRevenue, stats.RevenueToday)

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(responseText, telebot.ModeMarkdown)
}
