package tasks

import (
	"context"
	"fmt"
	"time"
)

const expiryNote = "expired by housekeeping sweep"

// newSubscriptionExpiryTask creates the sweep that transitions overdue
// subscriptions to expired. The sweep is idempotent and stateless between
// runs; a run that times out is simply retried on the next tick.
func newSubscriptionExpiryTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "subscription_expiry")

	return func(ctx context.Context) error {
		startTime := time.Now()

		expired, err := deps.Store.ExpireDueSubscriptions(ctx, time.Now().UTC(), expiryNote)
		if err != nil {
			log.ErrorContext(ctx, "Subscription expiry sweep failed",
				"error", err, "duration", time.Since(startTime))
			return fmt.Errorf("subscription expiry sweep: %w", err)
		}

		if expired > 0 {
			log.InfoContext(ctx, "Expired overdue subscriptions",
				"count", expired, "duration", time.Since(startTime))
		}
		return nil
	}
}
