// Package telegram handles the setup and registration of Telegram bot
// handlers, plus the launch retry against the Telegram API.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/mlavrik/coinpulse/internal/bot/handlers"
)

// NewTelegramBot creates a Telegram bot instance using the go-telegram/bot
// library.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return b, nil
}

// Connect verifies the bot can reach the Telegram API via GetMe, retrying
// with a doubling backoff (base delay, maxRetries attempts). It returns the
// bot identity and the number of retries that were needed; the count is
// surfaced through the health command. A second poller holding the token
// produces a conflict error, which is retried the same way.
func Connect(ctx context.Context, b *bot.Bot, logger *slog.Logger, maxRetries int, baseDelay time.Duration) (*models.User, int, error) {
	if maxRetries < 1 {
		maxRetries = 1
	}
	log := logger.With("component", "telegram_bot")

	delay := baseDelay
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			log.WarnContext(ctx, "Retrying Telegram API connection",
				"attempt", attempt+1, "max_attempts", maxRetries, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, attempt, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		me, err := b.GetMe(ctx)
		if err == nil {
			log.InfoContext(ctx, "Connected to Telegram API",
				"bot_id", me.ID, "bot_username", me.Username, "retries", attempt)
			return me, attempt, nil
		}
		lastErr = err
	}
	return nil, maxRetries - 1, fmt.Errorf("telegram connection failed after %d attempts: %w", maxRetries, lastErr)
}

// applyMiddleware wraps a handler function with a slice of middleware.
// Middleware are applied in reverse order so the first one in the slice is
// the outermost.
func applyMiddleware(handler bot.HandlerFunc, mw []bot.Middleware) bot.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// RegisterHandlers registers command handlers with the bot instance,
// applying each handler's own middleware.
func RegisterHandlers(b *bot.Bot, logger *slog.Logger, registeredHandlers map[string]handlers.RegisteredHandler) error {
	if b == nil {
		return fmt.Errorf("bot instance cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "handler_registry")

	if len(registeredHandlers) == 0 {
		log.Warn("No handlers provided for registration.")
		return nil
	}

	for _, regHandler := range registeredHandlers {
		if regHandler.Handler == nil {
			log.Warn("Skipping registration for nil handler", "pattern", regHandler.Pattern)
			continue
		}
		finalHandler := applyMiddleware(regHandler.Handler, regHandler.Middleware)
		b.RegisterHandler(regHandler.HandlerType, regHandler.Pattern, regHandler.MatchType, finalHandler)
		log.Debug("Registered handler", "pattern", regHandler.Pattern, "middleware_count", len(regHandler.Middleware))
	}

	log.Info("Registered Telegram handlers", "count", len(registeredHandlers))
	return nil
}
