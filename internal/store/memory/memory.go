// Package memory provides an in-memory store implementation used by the
// default local backend and by tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"billa/internal/core"
	"billa/internal/store"
)

type Store struct {
	mu    sync.Mutex
	subs  map[string]core.Subscription
	users map[string]core.User
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		subs:  make(map[string]core.Subscription),
		users: make(map[string]core.User),
	}
}

func (s *Store) ListByOwner(_ context.Context, ownerID string) ([]core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Subscription
	for _, sub := range s.subs {
		if sub.OwnerID == ownerID {
			out = append(out, copySub(sub))
		}
	}
	// Newest first; id breaks creation-time ties so listings are stable.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetForOwner(_ context.Context, id, ownerID string) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id, ownerID)
}

func (s *Store) getLocked(id, ownerID string) (core.Subscription, error) {
	sub, ok := s.subs[id]
	if !ok {
		return core.Subscription{}, core.ErrNotFound
	}
	if sub.OwnerID != ownerID {
		return core.Subscription{}, core.ErrNotOwner
	}
	return copySub(sub), nil
}

func (s *Store) Create(_ context.Context, sub core.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.ID] = copySub(sub)
	return nil
}

func (s *Store) Update(_ context.Context, sub core.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.getLocked(sub.ID, sub.OwnerID); err != nil {
		return err
	}
	s.subs[sub.ID] = copySub(sub)
	return nil
}

func (s *Store) Delete(_ context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.getLocked(id, ownerID); err != nil {
		return err
	}
	delete(s.subs, id)
	return nil
}

func (s *Store) MarkPaid(_ context.Context, id, ownerID string, paidAt time.Time) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, err := s.getLocked(id, ownerID)
	if err != nil {
		return core.Subscription{}, err
	}
	sub.LastPaidDate = &paidAt
	s.subs[id] = copySub(sub)
	return sub, nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Close() error { return nil }

// copySub deep-copies pointer fields so callers can never mutate stored
// state through a returned record.
func copySub(sub core.Subscription) core.Subscription {
	out := sub
	if sub.LastPaidDate != nil {
		t := *sub.LastPaidDate
		out.LastPaidDate = &t
	}
	if sub.DueDate != nil {
		t := *sub.DueDate
		out.DueDate = &t
	}
	if sub.DueDayOfMonth != nil {
		d := *sub.DueDayOfMonth
		out.DueDayOfMonth = &d
	}
	return out
}
