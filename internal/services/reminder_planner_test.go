package services

import (
	"context"
	"testing"
	"time"

	"billa/internal/amqp"
	"billa/internal/core"
	"billa/internal/store/memory"
)

type capturePublisher struct {
	published []*amqp.ReminderMessage
}

func (c *capturePublisher) PublishReminder(_ context.Context, msg *amqp.ReminderMessage) error {
	c.published = append(c.published, msg)
	return nil
}

func seedOwner(t *testing.T, st *memory.Store, id string) {
	t.Helper()
	err := st.CreateUser(context.Background(), core.User{
		ID:        id,
		Email:     id + "@example.com",
		Name:      id,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", id, err)
	}
}

func seedSub(t *testing.T, st *memory.Store, ownerID, name string, cycle core.BillingCycle, dueDay int, lastPaid *time.Time) core.Subscription {
	t.Helper()
	sub := core.Subscription{
		ID:            name,
		OwnerID:       ownerID,
		Name:          name,
		Cost:          core.Money{Cents: 1000},
		Cycle:         cycle,
		Category:      core.DefaultCategory,
		StartDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		DueDayOfMonth: &dueDay,
		LastPaidDate:  lastPaid,
		CreatedAt:     time.Now(),
	}
	if err := st.Create(context.Background(), sub); err != nil {
		t.Fatalf("Create(%s): %v", name, err)
	}
	return sub
}

func TestScan_PublishesOnlyUnpaidPastDue(t *testing.T) {
	st := memory.New()
	seedOwner(t, st, "owner-1")

	now := time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)
	paidThisMonth := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)

	seedSub(t, st, "owner-1", "due-unpaid", core.Monthly, 15, nil)           // past due day, never paid
	seedSub(t, st, "owner-1", "not-yet-due", core.Monthly, 25, nil)          // due day still ahead
	seedSub(t, st, "owner-1", "already-paid", core.Monthly, 15, &paidThisMonth)
	seedSub(t, st, "owner-1", "yearly", core.Yearly, 15, nil)                // never reminded

	pub := &capturePublisher{}
	planner := NewReminderPlanner(st, pub, 100)

	n, err := planner.Scan(context.Background(), now)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if n != 1 || len(pub.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.published))
	}

	msg := pub.published[0]
	if msg.SubscriptionID != "due-unpaid" {
		t.Errorf("published for %q, want due-unpaid", msg.SubscriptionID)
	}
	if msg.OwnerID != "owner-1" {
		t.Errorf("OwnerID = %q", msg.OwnerID)
	}
	wantDue := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	if !msg.DueDate.Equal(wantDue) {
		t.Errorf("DueDate = %v, want %v", msg.DueDate, wantDue)
	}
}

func TestScan_DueDayClampedToMonthEnd(t *testing.T) {
	st := memory.New()
	seedOwner(t, st, "owner-1")
	seedSub(t, st, "owner-1", "eom", core.Monthly, 31, nil)

	pub := &capturePublisher{}
	planner := NewReminderPlanner(st, pub, 100)

	// April has 30 days, so a due day of 31 resolves to the 30th.
	now := time.Date(2025, 4, 30, 8, 0, 0, 0, time.UTC)
	n, err := planner.Scan(context.Background(), now)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if n != 1 {
		t.Fatalf("published %d, want 1", n)
	}
	wantDue := time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)
	if !pub.published[0].DueDate.Equal(wantDue) {
		t.Errorf("DueDate = %v, want clamped %v", pub.published[0].DueDate, wantDue)
	}
}

func TestScan_HonorsBatchSize(t *testing.T) {
	st := memory.New()
	seedOwner(t, st, "owner-1")

	now := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	for _, name := range []string{"a", "b", "c", "d"} {
		seedSub(t, st, "owner-1", name, core.Monthly, 1, nil)
	}

	pub := &capturePublisher{}
	planner := NewReminderPlanner(st, pub, 2)

	n, err := planner.Scan(context.Background(), now)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if n != 2 || len(pub.published) != 2 {
		t.Errorf("published %d, want batch limit 2", n)
	}
}

func TestScan_MultipleOwners(t *testing.T) {
	st := memory.New()
	seedOwner(t, st, "owner-1")
	seedOwner(t, st, "owner-2")

	now := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	seedSub(t, st, "owner-1", "one", core.Monthly, 1, nil)
	seedSub(t, st, "owner-2", "two", core.Monthly, 1, nil)

	pub := &capturePublisher{}
	planner := NewReminderPlanner(st, pub, 100)

	n, err := planner.Scan(context.Background(), now)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if n != 2 {
		t.Errorf("published %d, want one per owner", n)
	}
}
