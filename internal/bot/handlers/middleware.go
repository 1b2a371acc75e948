// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"
	"runtime/debug"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Recover creates a middleware that catches panics from downstream
// handlers, logs them with a stack trace, and keeps the process running.
// A single bad update must never take the bot down.
func Recover(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			defer func() {
				if r := recover(); r != nil {
					deps.Logger.ErrorContext(ctx, "Handler panicked",
						"update_id", update.ID,
						"panic", r,
						"stack", string(debug.Stack()))
				}
			}()
			next(ctx, bot, update)
		}
	}
}
