// Package tasks implements the periodic housekeeping jobs run by the
// scheduler.
package tasks

import (
	"log/slog"

	"github.com/mlavrik/coinpulse/internal/config"
	"github.com/mlavrik/coinpulse/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}
