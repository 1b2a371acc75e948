package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewCryptoHandler returns a handler for the /crypto command: coin
// mentions, bullish/bearish split and potential scam warnings.
func NewCryptoHandler(deps HandlerDeps) bot.HandlerFunc {
	return cryptoHandler{deps}.Handle
}

type cryptoHandler struct {
	deps HandlerDeps
}

func (h cryptoHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "crypto")

	_, chatID, ok := messageChat(update)
	if !ok {
		return
	}
	if !storeReady(ctx, b, h.deps, log, chatID) {
		return
	}

	stats, err := h.deps.Aggregator.CryptoStats(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Crypto stats aggregation failed", "error", err, "chat_id", chatID)
		reply(ctx, b, log, chatID, msgAggregateError)
		return
	}
	if stats.TotalMessages == 0 {
		reply(ctx, b, log, chatID, "No crypto talk recorded in this chat yet.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Crypto chatter (%d messages)\n", stats.TotalMessages)

	if len(stats.CryptoSentiment) > 0 {
		sb.WriteString("\nMarket mood:\n")
		for _, mood := range []string{"bullish", "bearish", "neutral"} {
			if n := stats.CryptoSentiment[mood]; n > 0 {
				fmt.Fprintf(&sb, "  %s: %d\n", mood, n)
			}
		}
	}
	if len(stats.MentionedCoins) > 0 {
		sb.WriteString("\nMost mentioned:\n")
		for i, c := range stats.MentionedCoins {
			if i >= 10 {
				break
			}
			fmt.Fprintf(&sb, "  %d. %s - %d mentions (%d bullish / %d bearish)\n",
				i+1, c.Coin, c.Count, c.BullishCount, c.BearishCount)
		}
	}
	if len(stats.PotentialScams) > 0 {
		sb.WriteString("\nPossible scams:\n")
		for _, s := range stats.PotentialScams {
			fmt.Fprintf(&sb, "  %s - %d red flags across %d messages\n",
				s.Coin, s.IndicatorCount, s.MessageCount)
		}
	}

	reply(ctx, b, log, chatID, sb.String())
}
