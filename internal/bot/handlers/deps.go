package handlers

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mlavrik/coinpulse/internal/analytics"
	"github.com/mlavrik/coinpulse/internal/analyzer"
	"github.com/mlavrik/coinpulse/internal/config"
	"github.com/mlavrik/coinpulse/internal/database"
	"github.com/mlavrik/coinpulse/internal/ingest"
	"github.com/mlavrik/coinpulse/internal/market"
)

// PriceSource is the market-data capability the price handler needs.
type PriceSource interface {
	Price(ctx context.Context, symbol string) (market.Quote, error)
}

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger     *slog.Logger
	Config     *config.Config
	Store      database.Store
	Analyzer   analyzer.Client
	Aggregator *analytics.Aggregator
	Ingest     *ingest.Pipeline
	Market     PriceSource
	Health     *HealthState
}

// HealthState is the mutable startup state the health command reports.
// Written once during startup, read concurrently by handlers.
type HealthState struct {
	mu sync.Mutex

	botInitialized      bool
	launchRetryCount    int
	initializationError string
}

// SetInitialized records a successful startup and the launch retries it took.
func (h *HealthState) SetInitialized(retries int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.botInitialized = true
	h.launchRetryCount = retries
}

// SetInitializationError records a startup failure message.
func (h *HealthState) SetInitializationError(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.initializationError = msg
}

// Snapshot returns a consistent copy of the state.
func (h *HealthState) Snapshot() (initialized bool, retries int, initErr string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.botInitialized, h.launchRetryCount, h.initializationError
}
