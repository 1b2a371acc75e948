package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler represents a command handler with its middleware.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands initializes and returns a map of all available bot
// commands. Every handler gets the panic-recovery middleware.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	base := []tgbot.Middleware{Recover(deps)}

	command := func(pattern string, handler tgbot.HandlerFunc) RegisteredHandler {
		return RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     pattern,
			Handler:     handler,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Middleware:  base,
		}
	}

	return map[string]RegisteredHandler{
		"/start":       command("start", NewStartHandler(deps)),
		"/help":        command("help", NewHelpHandler(deps)),
		"/stats":       command("stats", NewStatsHandler(deps)),
		"/topics":      command("topics", NewTopicsHandler(deps)),
		"/leaderboard": command("leaderboard", NewLeaderboardHandler(deps)),
		"/crypto":      command("crypto", NewCryptoHandler(deps)),
		"/health":      command("health", NewHealthHandler(deps)),
		"/price":       command("price", NewPriceHandler(deps)),
	}
}
