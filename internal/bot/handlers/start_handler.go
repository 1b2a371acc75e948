package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const welcomeMessage = "Hi! Add me to a group and I'll quietly analyze the chat. " +
	"Try /stats, /topics, /leaderboard or /price <symbol>."

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	_, chatID, ok := messageChat(update)
	if !ok {
		return
	}
	log.InfoContext(ctx, "Handling /start command", "chat_id", chatID)
	reply(ctx, b, log, chatID, welcomeMessage)
}
