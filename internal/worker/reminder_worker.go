// Package worker consumes queued payment reminders and turns them into
// emails.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"billa/internal/amqp"
	"billa/internal/billing"
	"billa/internal/core"
	"billa/internal/mail"
	"billa/internal/store"
)

// ReminderWorker handles one reminder message at a time. It re-fetches
// the subscription and re-evaluates payment state before sending, so a
// payment recorded while the message sat in the queue suppresses the
// email cleanly.
type ReminderWorker struct {
	store  store.Store
	sender mail.Sender
}

func NewReminderWorker(st store.Store, sender mail.Sender) *ReminderWorker {
	return &ReminderWorker{
		store:  st,
		sender: sender,
	}
}

// HandleReminder processes a single reminder message. Missing records
// and settled subscriptions are acknowledged without sending; only
// delivery failures surface as errors, so the broker redelivers them.
func (w *ReminderWorker) HandleReminder(ctx context.Context, msg *amqp.ReminderMessage) error {
	slog.InfoContext(ctx, "Processing reminder",
		"subscription_id", msg.SubscriptionID,
		"owner_id", msg.OwnerID)

	sub, err := w.store.GetForOwner(ctx, msg.SubscriptionID, msg.OwnerID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrNotOwner) {
			slog.WarnContext(ctx, "Subscription gone, dropping reminder",
				"subscription_id", msg.SubscriptionID,
				"owner_id", msg.OwnerID)
			return nil
		}
		return fmt.Errorf("get subscription: %w", err)
	}

	state := billing.EvaluatePaymentState(sub, msg.Timestamp)
	if state.IsPaidForCurrentPeriod {
		slog.InfoContext(ctx, "Subscription already settled, skipping email",
			"subscription_id", sub.ID,
			"owner_id", sub.OwnerID)
		return nil
	}

	owner, err := w.store.GetUser(ctx, msg.OwnerID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			slog.WarnContext(ctx, "Owner record missing, dropping reminder",
				"owner_id", msg.OwnerID)
			return nil
		}
		return fmt.Errorf("get owner: %w", err)
	}

	subject, textBody, htmlBody := mail.ReminderContent(&sub, msg.DueDate)
	if err := w.sender.Send(ctx, owner.Email, subject, textBody, htmlBody); err != nil {
		return fmt.Errorf("send reminder to %s: %w", owner.Email, err)
	}

	slog.InfoContext(ctx, "Sent payment reminder",
		"subscription_id", sub.ID,
		"owner_id", sub.OwnerID,
		"to", owner.Email)
	return nil
}
