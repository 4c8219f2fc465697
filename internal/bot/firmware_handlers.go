package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/telebot.v4"
)

// firmwarePageSize is the offset step of the catalog pagination.
const firmwarePageSize = 10

// firmwaresHandler renders the first page of the firmware catalog.
func (b *Bot) firmwaresHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("firmwares").Inc()
	return b.sendFirmwarePage(ctx, 0, false)
}

// firmwarePageHandler serves the prev/next buttons; the callback data is the
// requested offset.
func (b *Bot) firmwarePageHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("firmware_page").Inc()

	offset, err := strconv.Atoi(ctx.Data())
	if err != nil || offset < 0 {
		b.log.Error("Invalid firmware page offset in callback", "error", err, "data", ctx.Data())
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal)
	}

	return b.sendFirmwarePage(ctx, offset, true)
}

// sendFirmwarePage fetches one page at the given offset and renders it with
// navigation buttons. A full page implies a next one may exist; the catalog
// has no total count, so the last "next" simply lands on an empty page.
func (b *Bot) sendFirmwarePage(ctx telebot.Context, offset int, edit bool) error {
	userID := ctx.Sender().ID
	b.log.Info("User requested firmware page", "user", userID, "offset", offset)

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	startTime := time.Now()
	firmwares, err := b.api(userID).Firmwares(timeoutCtx, firmwarePageSize, offset)
	b.observeAPI("get_firmwares", startTime, err)
	if err != nil {
		b.log.Error("Failed to get firmwares", "error", err, "user", userID)
		return b.replyAPIError(ctx, err)
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("💾 *Firmware catalog* (from #%d)\n\n", offset+1))
	if len(firmwares) == 0 {
		builder.WriteString("Nothing here. You reached the end of the catalog.\n")
	}
	for _, firmware := range firmwares {
		builder.WriteString(fmt.Sprintf("#%d %s %s — ECU %s, HW %s, SW %s, %.2f\n",
			firmware.ID,
			firmware.Brand, firmware.Model,
			firmware.ECUType, firmware.HWNumber, firmware.SWNumber,
			firmware.Price))
	}
	builder.WriteString("\n📎 Send a file to this chat to add it to the catalog.")

	var navRow []telebot.InlineButton
	if offset > 0 {
		prev := offset - firmwarePageSize
		if prev < 0 {
			prev = 0
		}
		navRow = append(navRow, telebot.InlineButton{
			Unique: btnFirmwarePage.Unique, Text: "⬅️ Prev", Data: strconv.Itoa(prev),
		})
	}
	if len(firmwares) == firmwarePageSize {
		navRow = append(navRow, telebot.InlineButton{
			Unique: btnFirmwarePage.Unique, Text: "Next ➡️", Data: strconv.Itoa(offset + firmwarePageSize),
		})
	}

	menu := &telebot.ReplyMarkup{}
	if len(navRow) > 0 {
		menu.InlineKeyboard = [][]telebot.InlineButton{navRow}
	}

	if edit {
		b.metrics.SentMessages.WithLabelValues("edit").Inc()
		return ctx.Edit(builder.String(), telebot.ModeMarkdown, menu)
	}
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(builder.String(), telebot.ModeMarkdown, menu)
}

// uploadFirmwareHandler accepts a Telegram document and streams it to the
// admin API as a new catalog entry. The file goes through untouched; brand,
// model and ECU metadata are extracted server-side from the file itself.
func (b *Bot) uploadFirmwareHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	document := ctx.Message().Document
	b.log.Info("User uploads firmware file", "user", userID, "filename", document.FileName, "size", document.FileSize)
	b.metrics.CommandReceived.WithLabelValues("upload_firmware").Inc()

	reader, err := b.bot.File(&document.File)
	if err != nil {
		b.log.Error("Failed to download document from Telegram", "error", err, "user", userID)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal)
	}
	defer reader.Close()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	startTime := time.Now()
	firmwareID, err := b.api(userID).UploadFirmware(timeoutCtx, document.FileName, reader)
	b.observeAPI("upload_firmware", startTime, err)
	if err != nil {
		b.log.Error("Failed to upload firmware", "error", err, "user", userID, "filename", document.FileName)
		return b.replyAPIError(ctx, err)
	}

	b.log.Info("Firmware uploaded", "user", userID, "firmware", firmwareID)
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(fmt.Sprintf("✅ Firmware uploaded as catalog entry #%d.", firmwareID))
}
