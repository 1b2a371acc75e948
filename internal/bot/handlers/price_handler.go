package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/mlavrik/coinpulse/internal/market"
)

// NewPriceHandler returns a handler for the /price <symbol> command.
func NewPriceHandler(deps HandlerDeps) bot.HandlerFunc {
	return priceHandler{deps}.Handle
}

type priceHandler struct {
	deps HandlerDeps
}

func (h priceHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "price")

	msg, chatID, ok := messageChat(update)
	if !ok {
		return
	}

	symbol := commandArgument(msg.Text)
	if symbol == "" {
		reply(ctx, b, log, chatID, "Usage: /price <symbol>, e.g. /price btc")
		return
	}

	quote, err := h.deps.Market.Price(ctx, symbol)
	if err != nil {
		if errors.Is(err, market.ErrUnknownSymbol) {
			reply(ctx, b, log, chatID, fmt.Sprintf("Unknown coin %q.", symbol))
			return
		}
		log.WarnContext(ctx, "Price lookup failed", "symbol", symbol, "error", err)
		reply(ctx, b, log, chatID, "Price lookup failed. Please try again later.")
		return
	}

	sign := ""
	if quote.Change24h > 0 {
		sign = "+"
	}
	reply(ctx, b, log, chatID,
		fmt.Sprintf("%s: $%s (%s%.2f%% 24h)", quote.Symbol, formatPrice(quote.PriceUSD), sign, quote.Change24h))
}

// commandArgument returns the first argument after the command word,
// ignoring a @botname suffix on the command itself.
func commandArgument(text string) string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// formatPrice keeps small-cap prices readable without trailing zero noise
// on large ones.
func formatPrice(p float64) string {
	switch {
	case p >= 1:
		return fmt.Sprintf("%.2f", p)
	case p >= 0.01:
		return fmt.Sprintf("%.4f", p)
	default:
		return fmt.Sprintf("%.8f", p)
	}
}
