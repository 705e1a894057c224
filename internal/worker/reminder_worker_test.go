package worker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"billa/internal/amqp"
	"billa/internal/core"
	"billa/internal/store/memory"
)

type sentMail struct {
	to, subject, text, html string
}

type fakeSender struct {
	sent []sentMail
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, text, html})
	return nil
}

func setup(t *testing.T) (*memory.Store, *fakeSender, *ReminderWorker) {
	t.Helper()
	st := memory.New()
	sender := &fakeSender{}
	return st, sender, NewReminderWorker(st, sender)
}

func seedOwnerAndSub(t *testing.T, st *memory.Store, lastPaid *time.Time) (core.User, core.Subscription) {
	t.Helper()
	owner := core.User{ID: "owner-1", Email: "alice@example.com", Name: "Alice", CreatedAt: time.Now()}
	if err := st.CreateUser(context.Background(), owner); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	sub := core.Subscription{
		ID:           "sub-1",
		OwnerID:      owner.ID,
		Name:         "Netflix",
		Cost:         core.Money{Cents: 1599},
		Cycle:        core.Monthly,
		Category:     "Streaming",
		StartDate:    time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		LastPaidDate: lastPaid,
		CreatedAt:    time.Now(),
	}
	if err := st.Create(context.Background(), sub); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return owner, sub
}

func reminderFor(sub core.Subscription, now time.Time) *amqp.ReminderMessage {
	due := time.Date(now.Year(), now.Month(), 15, 0, 0, 0, 0, time.UTC)
	return amqp.NewReminderMessage(sub.ID, sub.OwnerID, due, now)
}

func TestHandleReminder_SendsEmail(t *testing.T) {
	st, sender, w := setup(t)
	now := time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)
	_, sub := seedOwnerAndSub(t, st, nil)

	if err := w.HandleReminder(context.Background(), reminderFor(sub, now)); err != nil {
		t.Fatalf("HandleReminder: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(sender.sent))
	}
	got := sender.sent[0]
	if got.to != "alice@example.com" {
		t.Errorf("to = %q", got.to)
	}
	if !strings.Contains(got.subject, "Netflix") {
		t.Errorf("subject = %q", got.subject)
	}
	if !strings.Contains(got.text, "15.99") {
		t.Errorf("text body missing cost: %q", got.text)
	}
}

func TestHandleReminder_SkipsWhenPaidMeanwhile(t *testing.T) {
	st, sender, w := setup(t)
	now := time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)
	paid := time.Date(2025, 3, 18, 0, 0, 0, 0, time.UTC)
	_, sub := seedOwnerAndSub(t, st, &paid)

	if err := w.HandleReminder(context.Background(), reminderFor(sub, now)); err != nil {
		t.Fatalf("HandleReminder: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("sent %d emails for a settled subscription, want 0", len(sender.sent))
	}
}

func TestHandleReminder_DropsWhenSubscriptionGone(t *testing.T) {
	st, sender, w := setup(t)
	now := time.Now()
	_, sub := seedOwnerAndSub(t, st, nil)
	if err := st.Delete(context.Background(), sub.ID, sub.OwnerID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// A deleted subscription is not an error; the message is acked away.
	if err := w.HandleReminder(context.Background(), reminderFor(sub, now)); err != nil {
		t.Fatalf("HandleReminder: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("sent %d emails, want 0", len(sender.sent))
	}
}

func TestHandleReminder_DeliveryFailureSurfaces(t *testing.T) {
	st, sender, w := setup(t)
	now := time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)
	_, sub := seedOwnerAndSub(t, st, nil)
	sender.err = errors.New("smtp down")

	if err := w.HandleReminder(context.Background(), reminderFor(sub, now)); err == nil {
		t.Fatal("expected delivery failure to surface for redelivery")
	}
}
