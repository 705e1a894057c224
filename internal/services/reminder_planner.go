package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"billa/internal/amqp"
	"billa/internal/billing"
	"billa/internal/core"
	"billa/internal/store"
)

// ReminderPublisher is the queue side of the reminder pipeline.
// *amqp.Client satisfies it.
type ReminderPublisher interface {
	PublishReminder(ctx context.Context, msg *amqp.ReminderMessage) error
}

// ReminderPlanner scans every owner's monthly subscriptions and
// enqueues a reminder for each one that is unpaid and past its due day.
// De-duplication happens at consumption time: the worker re-evaluates
// the payment state before sending anything.
type ReminderPlanner struct {
	store     store.Store
	publisher ReminderPublisher
	batchSize int
}

func NewReminderPlanner(st store.Store, publisher ReminderPublisher, batchSize int) *ReminderPlanner {
	if batchSize < 1 {
		batchSize = 100
	}
	return &ReminderPlanner{
		store:     st,
		publisher: publisher,
		batchSize: batchSize,
	}
}

// Scan walks all users and publishes reminders for due subscriptions,
// stopping after batchSize messages. It returns how many it published.
func (p *ReminderPlanner) Scan(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.publisher == nil {
		return 0, fmt.Errorf("planner not properly initialized")
	}

	users, err := p.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	slog.InfoContext(ctx, "Scanning for due payments",
		"users", len(users),
		"scan_date", now.Format("2006-01-02"))

	published := 0
	for _, u := range users {
		subs, err := p.store.ListByOwner(ctx, u.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to list subscriptions for owner",
				"owner_id", u.ID, "error", err)
			continue
		}

		for i := range subs {
			sub := &subs[i]
			due, dueDate := p.isDue(sub, now)
			if !due {
				continue
			}

			msg := amqp.NewReminderMessage(sub.ID, sub.OwnerID, dueDate, now)
			if err := p.publisher.PublishReminder(ctx, msg); err != nil {
				slog.ErrorContext(ctx, "Failed to publish reminder",
					"subscription_id", sub.ID,
					"owner_id", sub.OwnerID,
					"error", err)
				continue
			}

			published++
			if published >= p.batchSize {
				slog.WarnContext(ctx, "Reminder batch limit reached",
					"batch_size", p.batchSize)
				return published, nil
			}
		}
	}

	slog.InfoContext(ctx, "Reminder scan complete", "published", published)
	return published, nil
}

// isDue reports whether a reminder should go out for sub as of now,
// and the due date to put in the message. Only monthly subscriptions
// that are unpaid for the current month and at or past their due day
// qualify.
func (p *ReminderPlanner) isDue(sub *core.Subscription, now time.Time) (bool, time.Time) {
	if sub.Cycle != core.Monthly {
		return false, time.Time{}
	}

	state := billing.EvaluatePaymentState(*sub, now)
	if state.IsPaidForCurrentPeriod || state.NextDue == nil {
		return false, time.Time{}
	}

	// NextDue for an unpaid monthly subscription is the due day within
	// the current month, clamped to the month's length.
	if now.Before(*state.NextDue) {
		return false, time.Time{}
	}
	return true, *state.NextDue
}
