package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/mlavrik/coinpulse/internal/bot/tasks"
)

// Scheduler runs the housekeeping tasks on their intervals using gocron.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	tasks     []tasks.Scheduled
	mu        sync.Mutex
	running   bool
}

// NewScheduler creates a scheduler for the given tasks.
func NewScheduler(logger *slog.Logger, scheduled []tasks.Scheduled) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "scheduler")

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    log,
		tasks:     scheduled,
	}, nil
}

// Start schedules all tasks and starts the scheduler's internal ticking.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	for _, task := range s.tasks {
		_, err := s.scheduler.NewJob(
			gocron.DurationJob(task.Interval),
			gocron.NewTask(
				func(ctx context.Context, t tasks.Scheduled) {
					startTime := time.Now()
					if taskErr := t.Func(ctx); taskErr != nil {
						s.logger.Error("Scheduled task failed",
							"task_name", t.Name, "error", taskErr, "duration", time.Since(startTime))
						return
					}
					s.logger.Debug("Finished scheduled task",
						"task_name", t.Name, "duration", time.Since(startTime))
				},
				context.Background(),
				task,
			),
			gocron.WithName(task.Name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("schedule task %s: %w", task.Name, err)
		}
		s.logger.Info("Scheduled task", "task_name", task.Name, "interval", task.Interval)
	}

	s.scheduler.Start()
	s.running = true
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	err := s.scheduler.Shutdown()
	s.running = false
	if err != nil {
		return fmt.Errorf("scheduler shutdown: %w", err)
	}
	s.logger.Info("Scheduler stopped gracefully.")
	return nil
}
