// Package main contains the entrypoint for the Telegram analytics bot.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/mlavrik/coinpulse/internal/analytics"
	"github.com/mlavrik/coinpulse/internal/analyzer"
	"github.com/mlavrik/coinpulse/internal/bot"
	"github.com/mlavrik/coinpulse/internal/bot/handlers"
	"github.com/mlavrik/coinpulse/internal/bot/tasks"
	"github.com/mlavrik/coinpulse/internal/config"
	"github.com/mlavrik/coinpulse/internal/database"
	"github.com/mlavrik/coinpulse/internal/ingest"
	"github.com/mlavrik/coinpulse/internal/logger"
	"github.com/mlavrik/coinpulse/internal/market"
	"github.com/mlavrik/coinpulse/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components, handles graceful
// shutdown, and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info("Logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	db, err := database.NewDB(cfg.Store.URI)
	if err != nil {
		log.Error("Failed to connect to database", "uri", cfg.Store.URI, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	analyzerClient, err := analyzer.New(ctx, analyzer.Config{
		Provider:    cfg.Analyzer.Provider,
		APIKey:      cfg.Analyzer.APIKey,
		Model:       cfg.Analyzer.Model,
		Timeout:     cfg.Analyzer.Timeout,
		Temperature: cfg.Analyzer.Temperature,
		MaxTokens:   cfg.Analyzer.MaxTokens,
		RateRPS:     cfg.Analyzer.RateRPS,
	}, log)
	if err != nil {
		log.Error("Failed to initialize analyzer", "error", err)
		return 1
	}

	health := &handlers.HealthState{}
	hDeps := handlers.HandlerDeps{
		Logger:     log,
		Config:     cfg,
		Store:      store,
		Analyzer:   analyzerClient,
		Aggregator: analytics.New(store, log),
		Ingest:     ingest.New(analyzerClient, store, log),
		Market:     market.NewClient(market.Config{}),
		Health:     health,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewMessageHandler(hDeps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	me, retries, err := telegram.Connect(ctx, tg, log,
		cfg.Telegram.MaxLaunchRetries, cfg.Telegram.LaunchRetryBase)
	if err != nil {
		health.SetInitializationError(err.Error())
		log.Error("Failed to connect to Telegram API", "error", err)
		return 1
	}
	health.SetInitialized(retries)
	log.Info("Bot identity confirmed", "bot_id", me.ID, "bot_username", me.Username)

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	tDeps := tasks.TaskDeps{Logger: log, Store: store, Config: cfg}
	sched, err := bot.NewScheduler(log, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app := bot.NewBot(log, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
