package handlers

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	msgStoreUnavailable = "The message store is currently unavailable. Please try again later."
	msgAggregateError   = "Could not compute the requested statistics. Please try again later."
	msgNoMessages       = "No messages recorded for this chat yet."
)

// reply sends a plain-text message to the chat, logging send failures.
func reply(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
	}
}

// messageChat extracts the message and chat id from an update, or reports
// that the update carries no usable message.
func messageChat(update *models.Update) (*models.Message, int64, bool) {
	if update.Message == nil {
		return nil, 0, false
	}
	return update.Message, update.Message.Chat.ID, true
}

// storeReady probes the store and replies with the unavailable message if
// the probe fails. Read handlers call this before aggregating.
func storeReady(ctx context.Context, b *bot.Bot, deps HandlerDeps, log *slog.Logger, chatID int64) bool {
	if err := deps.Store.Ping(ctx); err != nil {
		log.WarnContext(ctx, "Store not ready", "error", err, "chat_id", chatID)
		reply(ctx, b, log, chatID, msgStoreUnavailable)
		return false
	}
	return true
}
