package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/mlavrik/coinpulse/internal/analytics"
)

// NewTopicsHandler returns a handler for the /topics command.
func NewTopicsHandler(deps HandlerDeps) bot.HandlerFunc {
	return topicsHandler{deps}.Handle
}

type topicsHandler struct {
	deps HandlerDeps
}

func (h topicsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "topics")

	_, chatID, ok := messageChat(update)
	if !ok {
		return
	}
	if !storeReady(ctx, b, h.deps, log, chatID) {
		return
	}

	report, err := h.deps.Aggregator.Topics(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Topic aggregation failed", "error", err, "chat_id", chatID)
		reply(ctx, b, log, chatID, msgAggregateError)
		return
	}

	if report.Degraded {
		reply(ctx, b, log, chatID, formatSimpleTopics(report.Simple))
		return
	}
	if len(report.Insights) == 0 {
		reply(ctx, b, log, chatID, msgNoMessages)
		return
	}

	var sb strings.Builder
	sb.WriteString("Topic insights\n")
	for i, t := range report.Insights {
		fmt.Fprintf(&sb, "\n%d. %s - %d mentions, %d users", i+1, t.Topic, t.Count, t.UniqueUsers)
		if t.DominantSentiment != "" && t.DominantSentiment != "unknown" {
			fmt.Fprintf(&sb, ", mostly %s", t.DominantSentiment)
		}
		sb.WriteString("\n")
		if t.DaysActive > 1 {
			fmt.Fprintf(&sb, "   active %d days (%.1f/day)\n", t.DaysActive, t.MessagesPerDay)
		}
		if len(t.RelatedTopics) > 0 {
			related := make([]string, 0, len(t.RelatedTopics))
			for _, r := range t.RelatedTopics {
				related = append(related, r.Value)
			}
			fmt.Fprintf(&sb, "   related: %s\n", strings.Join(related, ", "))
		}
	}

	reply(ctx, b, log, chatID, sb.String())
}

func formatSimpleTopics(simple []analytics.SimpleTopic) string {
	if len(simple) == 0 {
		return msgNoMessages
	}
	var sb strings.Builder
	sb.WriteString("Top topics\n\n")
	for i, t := range simple {
		fmt.Fprintf(&sb, "%d. %s (%d)\n", i+1, t.Topic, t.Count)
	}
	return sb.String()
}
