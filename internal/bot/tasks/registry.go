package tasks

import (
	"context"
	"time"
)

// ScheduledTaskFunc is the signature every scheduled task implements. The
// context provided by the scheduler must be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// Scheduled binds a task function to its name and run interval.
type Scheduled struct {
	Name     string
	Interval time.Duration
	Func     ScheduledTaskFunc
}

// RegisterAllTasks initializes and returns all scheduled tasks.
func RegisterAllTasks(deps TaskDeps) []Scheduled {
	tasks := []Scheduled{
		{
			Name:     "subscription_expiry",
			Interval: deps.Config.Tasks.HousekeepingInterval,
			Func:     newSubscriptionExpiryTask(deps),
		},
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
