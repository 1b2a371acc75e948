package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStatsHandler returns a handler for the /stats command.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")

	_, chatID, ok := messageChat(update)
	if !ok {
		return
	}
	if !storeReady(ctx, b, h.deps, log, chatID) {
		return
	}

	stats, err := h.deps.Aggregator.ChatStats(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Chat stats aggregation failed", "error", err, "chat_id", chatID)
		reply(ctx, b, log, chatID, msgAggregateError)
		return
	}
	if stats.TotalMessages == 0 {
		reply(ctx, b, log, chatID, msgNoMessages)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Chat statistics\n\n")
	fmt.Fprintf(&sb, "Messages: %d\n", stats.TotalMessages)
	fmt.Fprintf(&sb, "Unique users: %d\n", stats.UniqueUsers)

	if len(stats.Sentiments) > 0 {
		sb.WriteString("\nSentiment:\n")
		for _, vc := range stats.Sentiments {
			fmt.Fprintf(&sb, "  %s: %d\n", vc.Value, vc.Count)
		}
	}
	if len(stats.Topics) > 0 {
		sb.WriteString("\nTop topics:\n")
		for i, vc := range stats.Topics {
			fmt.Fprintf(&sb, "  %d. %s (%d)\n", i+1, vc.Value, vc.Count)
		}
	}
	if len(stats.ActiveUsers) > 0 {
		sb.WriteString("\nMost active:\n")
		for i, u := range stats.ActiveUsers {
			fmt.Fprintf(&sb, "  %d. %s: %d messages\n", i+1, displayUser(u.Username, u.FirstName), u.MessageCount)
		}
	}

	reply(ctx, b, log, chatID, sb.String())
}

func displayUser(username, firstName string) string {
	if username != "" {
		return "@" + username
	}
	if firstName != "" {
		return firstName
	}
	return "anonymous"
}
