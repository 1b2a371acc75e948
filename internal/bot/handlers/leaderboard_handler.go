package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewLeaderboardHandler returns a handler for the /leaderboard command.
func NewLeaderboardHandler(deps HandlerDeps) bot.HandlerFunc {
	return leaderboardHandler{deps}.Handle
}

type leaderboardHandler struct {
	deps HandlerDeps
}

func (h leaderboardHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "leaderboard")

	_, chatID, ok := messageChat(update)
	if !ok {
		return
	}
	if !storeReady(ctx, b, h.deps, log, chatID) {
		return
	}

	entries, err := h.deps.Aggregator.Leaderboard(ctx, chatID, 0)
	if err != nil {
		log.ErrorContext(ctx, "Leaderboard aggregation failed", "error", err, "chat_id", chatID)
		reply(ctx, b, log, chatID, msgAggregateError)
		return
	}
	if len(entries) == 0 {
		reply(ctx, b, log, chatID, msgNoMessages)
		return
	}

	var sb strings.Builder
	sb.WriteString("Quality leaderboard\n")
	for i, e := range entries {
		fmt.Fprintf(&sb, "\n%d. %s - %d pts\n", i+1, displayUser(e.Username, e.FirstName), e.TotalPoints)
		fmt.Fprintf(&sb, "   %d messages, %.1f avg, best %d\n", e.MessageCount, e.AveragePoints, e.HighestScore)
		fmt.Fprintf(&sb, "   %d%% positive, %d%% questions\n", e.PositiveRate, e.QuestionsRate)
		if len(e.TopTopics) > 0 {
			fmt.Fprintf(&sb, "   talks about: %s\n", strings.Join(e.TopTopics, ", "))
		}
	}

	reply(ctx, b, log, chatID, sb.String())
}
