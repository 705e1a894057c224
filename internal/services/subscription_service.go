package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"billa/internal/billing"
	"billa/internal/cache"
	"billa/internal/core"
	"billa/internal/store"
)

// DefaultPageSize bounds listings when the client does not ask for a size.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// SubscriptionService orchestrates subscription CRUD, payment marking
// and analytics on top of a store. Summaries are memoized per owner
// and invalidated on every mutation.
type SubscriptionService struct {
	store        store.Store
	summaryCache *cache.LRU[core.Summary]
}

func NewSubscriptionService(st store.Store, summaryCache *cache.LRU[core.Summary]) *SubscriptionService {
	return &SubscriptionService{
		store:        st,
		summaryCache: summaryCache,
	}
}

// CreateInput carries the caller-supplied fields for a new subscription.
type CreateInput struct {
	Name          string
	Cost          core.Money
	Cycle         core.BillingCycle
	Category      string
	StartDate     time.Time
	DueDate       *time.Time
	DueDayOfMonth *int
}

// Create validates the input, fills in server-side fields and persists
// the subscription. A blank category becomes DefaultCategory.
func (s *SubscriptionService) Create(ctx context.Context, ownerID string, in CreateInput, now time.Time) (core.Subscription, error) {
	sub := core.Subscription{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Name:          strings.TrimSpace(in.Name),
		Cost:          in.Cost,
		Cycle:         in.Cycle,
		Category:      strings.TrimSpace(in.Category),
		StartDate:     in.StartDate,
		DueDate:       in.DueDate,
		DueDayOfMonth: in.DueDayOfMonth,
		CreatedAt:     now,
	}
	if sub.Category == "" {
		sub.Category = core.DefaultCategory
	}
	if sub.StartDate.IsZero() {
		sub.StartDate = now
	}

	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}

	if err := s.store.Create(ctx, sub); err != nil {
		return core.Subscription{}, fmt.Errorf("create subscription: %w", err)
	}

	s.invalidateSummary(ownerID, now)
	slog.InfoContext(ctx, "Created subscription",
		"subscription_id", sub.ID,
		"owner_id", ownerID,
		"billing_cycle", sub.Cycle)

	return sub, nil
}

// List returns one page of the owner's subscriptions, newest first,
// along with the total count before paging. Page numbers start at 1.
func (s *SubscriptionService) List(ctx context.Context, ownerID string, page, pageSize int) ([]core.Subscription, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	all, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, 0, fmt.Errorf("list subscriptions: %w", err)
	}

	total := len(all)
	start := (page - 1) * pageSize
	if start >= total {
		return []core.Subscription{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (s *SubscriptionService) Get(ctx context.Context, id, ownerID string) (core.Subscription, error) {
	return s.store.GetForOwner(ctx, id, ownerID)
}

// UpdateInput carries the fields of a partial update. A nil field keeps
// the stored value; lastPaidDate is never touched here.
type UpdateInput struct {
	Name          *string
	Cost          *core.Money
	Cycle         *core.BillingCycle
	Category      *string
	StartDate     *time.Time
	DueDate       *time.Time
	DueDayOfMonth *int
}

// Update merges the supplied fields onto the stored subscription, so a
// cycle change alone leaves the due-date hints and payment history
// intact.
func (s *SubscriptionService) Update(ctx context.Context, id, ownerID string, in UpdateInput, now time.Time) (core.Subscription, error) {
	existing, err := s.store.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return core.Subscription{}, err
	}

	if in.Name != nil {
		existing.Name = strings.TrimSpace(*in.Name)
	}
	if in.Cost != nil {
		existing.Cost = *in.Cost
	}
	if in.Cycle != nil {
		existing.Cycle = *in.Cycle
	}
	if in.Category != nil {
		existing.Category = strings.TrimSpace(*in.Category)
		if existing.Category == "" {
			existing.Category = core.DefaultCategory
		}
	}
	if in.StartDate != nil && !in.StartDate.IsZero() {
		existing.StartDate = *in.StartDate
	}
	if in.DueDate != nil {
		existing.DueDate = in.DueDate
	}
	if in.DueDayOfMonth != nil {
		existing.DueDayOfMonth = in.DueDayOfMonth
	}

	if err := existing.Validate(); err != nil {
		return core.Subscription{}, err
	}

	if err := s.store.Update(ctx, existing); err != nil {
		return core.Subscription{}, fmt.Errorf("update subscription: %w", err)
	}

	s.invalidateSummary(ownerID, now)
	return existing, nil
}

func (s *SubscriptionService) Delete(ctx context.Context, id, ownerID string, now time.Time) error {
	if err := s.store.Delete(ctx, id, ownerID); err != nil {
		return err
	}
	s.invalidateSummary(ownerID, now)
	slog.InfoContext(ctx, "Deleted subscription", "subscription_id", id, "owner_id", ownerID)
	return nil
}

// MarkPaid records a payment at now. Calling it again in the same
// period only moves lastPaidDate forward; the operation is idempotent
// with respect to paid state.
func (s *SubscriptionService) MarkPaid(ctx context.Context, id, ownerID string, now time.Time) (core.Subscription, error) {
	updated, err := s.store.MarkPaid(ctx, id, ownerID, now)
	if err != nil {
		return core.Subscription{}, err
	}
	s.invalidateSummary(ownerID, now)
	slog.InfoContext(ctx, "Marked subscription paid",
		"subscription_id", id,
		"owner_id", ownerID,
		"paid_at", now)
	return updated, nil
}

// Summary aggregates the owner's full subscription set as of now.
// Results are cached per owner until the next mutation or TTL expiry.
func (s *SubscriptionService) Summary(ctx context.Context, ownerID string, now time.Time) (core.Summary, error) {
	key := summaryKey(ownerID, now)
	if s.summaryCache != nil {
		if cached, ok := s.summaryCache.Get(key); ok {
			return cached, nil
		}
	}

	subs, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return core.Summary{}, fmt.Errorf("list subscriptions for summary: %w", err)
	}

	summary := billing.Summarize(subs, now)
	if s.summaryCache != nil {
		s.summaryCache.Set(key, summary)
	}
	return summary, nil
}

// PaymentState evaluates one subscription's paid status as of now.
func (s *SubscriptionService) PaymentState(ctx context.Context, id, ownerID string, now time.Time) (core.Subscription, billing.PaymentState, error) {
	sub, err := s.store.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return core.Subscription{}, billing.PaymentState{}, err
	}
	return sub, billing.EvaluatePaymentState(sub, now), nil
}

func (s *SubscriptionService) invalidateSummary(ownerID string, now time.Time) {
	if s.summaryCache == nil {
		return
	}
	s.summaryCache.Delete(summaryKey(ownerID, now))
}

// summaryKey scopes cache entries to the owner and the billing month,
// so a summary computed in one month can never serve the next.
func summaryKey(ownerID string, now time.Time) string {
	return fmt.Sprintf("%s:%04d-%02d", ownerID, now.Year(), int(now.Month()))
}
