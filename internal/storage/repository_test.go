package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"billa/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "billa.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *SQLiteRepository, id string) {
	t.Helper()
	err := repo.CreateUser(context.Background(), core.User{
		ID:        id,
		Email:     id + "@example.com",
		Name:      id,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", id, err)
	}
}

func testSub(id, owner string) core.Subscription {
	day := 15
	due := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return core.Subscription{
		ID:            id,
		OwnerID:       owner,
		Name:          "Netflix",
		Cost:          core.Money{Cents: 1599},
		Cycle:         core.Monthly,
		Category:      "Streaming",
		StartDate:     time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		DueDate:       &due,
		DueDayOfMonth: &day,
		CreatedAt:     time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC),
	}
}

func TestRepository_CreateAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seedUser(t, repo, "alice")

	want := testSub("s1", "alice")
	if err := repo.Create(ctx, want); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetForOwner(ctx, "s1", "alice")
	if err != nil {
		t.Fatalf("GetForOwner: %v", err)
	}
	if got.Name != want.Name || got.Cost != want.Cost || got.Cycle != want.Cycle || got.Category != want.Category {
		t.Errorf("round trip mismatch: got %+v", got)
	}
	if !got.StartDate.Equal(want.StartDate) || !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("timestamps mismatch: got start=%v created=%v", got.StartDate, got.CreatedAt)
	}
	if got.LastPaidDate != nil {
		t.Errorf("LastPaidDate = %v, want nil", got.LastPaidDate)
	}
	if got.DueDate == nil || !got.DueDate.Equal(*want.DueDate) {
		t.Errorf("DueDate = %v, want %v", got.DueDate, want.DueDate)
	}
	if got.DueDayOfMonth == nil || *got.DueDayOfMonth != 15 {
		t.Errorf("DueDayOfMonth = %v, want 15", got.DueDayOfMonth)
	}
}

func TestRepository_OwnershipVsNotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seedUser(t, repo, "alice")
	seedUser(t, repo, "bob")

	if err := repo.Create(ctx, testSub("s1", "alice")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := repo.GetForOwner(ctx, "missing", "alice"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing id: got %v, want ErrNotFound", err)
	}
	if _, err := repo.GetForOwner(ctx, "s1", "bob"); !errors.Is(err, core.ErrNotOwner) {
		t.Errorf("foreign get: got %v, want ErrNotOwner", err)
	}
	if err := repo.Delete(ctx, "s1", "bob"); !errors.Is(err, core.ErrNotOwner) {
		t.Errorf("foreign delete: got %v, want ErrNotOwner", err)
	}
	sub := testSub("s1", "bob")
	if err := repo.Update(ctx, sub); !errors.Is(err, core.ErrNotOwner) {
		t.Errorf("foreign update: got %v, want ErrNotOwner", err)
	}
}

func TestRepository_UpdateKeepsLastPaidDate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seedUser(t, repo, "alice")

	if err := repo.Create(ctx, testSub("s1", "alice")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	paidAt := time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)
	if _, err := repo.MarkPaid(ctx, "s1", "alice", paidAt); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	// Switching the billing cycle must not clear or adjust lastPaidDate.
	updated := testSub("s1", "alice")
	updated.Cycle = core.Yearly
	updated.Name = "Netflix Premium"
	if err := repo.Update(ctx, updated); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetForOwner(ctx, "s1", "alice")
	if err != nil {
		t.Fatalf("GetForOwner: %v", err)
	}
	if got.Cycle != core.Yearly || got.Name != "Netflix Premium" {
		t.Errorf("update not applied: %+v", got)
	}
	if got.LastPaidDate == nil || !got.LastPaidDate.Equal(paidAt) {
		t.Errorf("LastPaidDate = %v, want %v (stale value retained)", got.LastPaidDate, paidAt)
	}
}

func TestRepository_ListByOwnerNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seedUser(t, repo, "alice")
	seedUser(t, repo, "bob")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		sub := testSub(id, "alice")
		sub.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if err := repo.Create(ctx, sub); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}
	if err := repo.Create(ctx, testSub("foreign", "bob")); err != nil {
		t.Fatalf("Create foreign: %v", err)
	}

	subs, err := repo.ListByOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(subs) != 3 {
		t.Fatalf("got %d subscriptions, want 3", len(subs))
	}
	for i, want := range []string{"new", "mid", "old"} {
		if subs[i].ID != want {
			t.Errorf("subs[%d] = %s, want %s", i, subs[i].ID, want)
		}
	}
}

func TestRepository_DeleteRemovesRecord(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seedUser(t, repo, "alice")

	if err := repo.Create(ctx, testSub("s1", "alice")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Delete(ctx, "s1", "alice"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetForOwner(ctx, "s1", "alice"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("after delete: got %v, want ErrNotFound", err)
	}
}
