package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewHealthHandler returns a handler for the /health command. It reports
// the startup state, the store probe, and the analyzer breaker status.
func NewHealthHandler(deps HandlerDeps) bot.HandlerFunc {
	return healthHandler{deps}.Handle
}

type healthHandler struct {
	deps HandlerDeps
}

func (h healthHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "health")

	_, chatID, ok := messageChat(update)
	if !ok {
		return
	}

	initialized, retries, initErr := h.deps.Health.Snapshot()
	dbConnected := h.deps.Store.Ping(ctx) == nil
	analyzerStatus := h.deps.Analyzer.Status()

	var sb strings.Builder
	sb.WriteString("Health\n\n")
	fmt.Fprintf(&sb, "botInitialized: %t\n", initialized)
	fmt.Fprintf(&sb, "databaseConnected: %t\n", dbConnected)
	fmt.Fprintf(&sb, "openAIAvailable: %t\n", analyzerStatus.Available)
	if analyzerStatus.LastError != "" {
		fmt.Fprintf(&sb, "openAIError: %s\n", analyzerStatus.LastError)
	}
	if initErr != "" {
		fmt.Fprintf(&sb, "initializationError: %s\n", initErr)
	}
	if retries > 0 {
		fmt.Fprintf(&sb, "launchRetryCount: %d\n", retries)
	}

	reply(ctx, b, log, chatID, sb.String())
}
