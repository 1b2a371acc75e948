package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/mlavrik/coinpulse/internal/ingest"
)

// NewMessageHandler returns the default handler that feeds every group text
// message into the ingest pipeline. It never replies; the bot is a passive
// listener outside of commands.
func NewMessageHandler(deps HandlerDeps) bot.HandlerFunc {
	return messageHandler{deps}.Handle
}

type messageHandler struct {
	deps HandlerDeps
}

func (h messageHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg, _, ok := messageChat(update)
	if !ok || msg.Text == "" {
		return
	}

	ev := ingest.Event{
		ChatType:  string(msg.Chat.Type),
		ChatID:    msg.Chat.ID,
		ChatTitle: msg.Chat.Title,
		MessageID: int64(msg.ID),
		Date:      int64(msg.Date),
		Text:      msg.Text,
	}
	if msg.From != nil {
		ev.From = &ingest.Sender{
			ID:        msg.From.ID,
			Username:  msg.From.Username,
			FirstName: msg.From.FirstName,
			LastName:  msg.From.LastName,
		}
	}

	h.deps.Ingest.Process(ctx, ev)
}
