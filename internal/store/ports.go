// Package store defines the persistence ports for subscriptions and
// users. Implementations live in internal/storage (SQLite) and
// internal/store/memory.
package store

import (
	"context"
	"time"

	"billa/internal/core"
)

type (
	// SubscriptionStore is the port the service layer talks to. Every
	// owner-scoped operation distinguishes a missing record
	// (core.ErrNotFound) from a record owned by someone else
	// (core.ErrNotOwner).
	SubscriptionStore interface {
		// ListByOwner returns the owner's complete subscription set,
		// newest first. Pagination is applied by callers; aggregation
		// always consumes the full set.
		ListByOwner(ctx context.Context, ownerID string) ([]core.Subscription, error)

		// GetForOwner fetches one subscription, enforcing ownership.
		GetForOwner(ctx context.Context, id, ownerID string) (core.Subscription, error)

		// Create persists a new subscription.
		Create(ctx context.Context, sub core.Subscription) error

		// Update replaces the mutable fields of an existing subscription.
		// The record's owner must match sub.OwnerID.
		Update(ctx context.Context, sub core.Subscription) error

		// Delete removes the record entirely; there is no soft delete.
		Delete(ctx context.Context, id, ownerID string) error

		// MarkPaid sets lastPaidDate to paidAt and returns the updated
		// record. It touches no other column, so a concurrent update
		// cannot be lost to it.
		MarkPaid(ctx context.Context, id, ownerID string, paidAt time.Time) (core.Subscription, error)
	}

	// UserStore provides the minimal user lookup the reminder pipeline
	// and notify endpoints need. Registration is out of scope; records
	// are provisioned out-of-band.
	UserStore interface {
		CreateUser(ctx context.Context, u core.User) error
		GetUser(ctx context.Context, id string) (core.User, error)
		ListUsers(ctx context.Context) ([]core.User, error)
	}

	// Store is the combined backend surface the binaries wire up.
	Store interface {
		SubscriptionStore
		UserStore
		Close() error
	}
)
