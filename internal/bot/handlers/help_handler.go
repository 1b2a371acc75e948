package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const helpMessage = `Commands:
/stats - chat overview: messages, users, sentiment, top topics
/topics - topic insights with trends and related topics
/leaderboard - quality-weighted user ranking
/crypto - coin mentions, market mood and scam warnings
/price <symbol> - spot price, e.g. /price btc
/health - bot and analyzer status
/help - this message

Regular group messages are analyzed automatically; the bot never replies to them.`

// NewHelpHandler returns a handler for the /help command.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	return helpHandler{deps}.Handle
}

type helpHandler struct {
	deps HandlerDeps
}

func (h helpHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "help")

	_, chatID, ok := messageChat(update)
	if !ok {
		return
	}
	log.InfoContext(ctx, "Handling /help command", "chat_id", chatID)
	reply(ctx, b, log, chatID, helpMessage)
}
