// Package storage implements the store ports on SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"billa/internal/core"
	"billa/internal/store"

	_ "modernc.org/sqlite"
)

// timeLayout is how timestamps are stored; TEXT keeps the schema
// portable across sqlite drivers.
const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const subscriptionColumns = `id, owner_id, name, cost_cents, billing_cycle, category,
	start_date, last_paid_date, due_date, due_day_of_month, created_at`

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE owner_id = ? ORDER BY created_at DESC, id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []core.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}

func (r *SQLiteRepository) GetForOwner(ctx context.Context, id, ownerID string) (core.Subscription, error) {
	// Fetch by id alone so a foreign record surfaces as ErrNotOwner, not
	// ErrNotFound.
	row := r.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`, id)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Subscription{}, core.ErrNotFound
	}
	if err != nil {
		return core.Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	if sub.OwnerID != ownerID {
		return core.Subscription{}, core.ErrNotOwner
	}
	return sub, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, sub core.Subscription) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions (`+subscriptionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.OwnerID, sub.Name, sub.Cost.Cents, string(sub.Cycle), sub.Category,
		formatTime(sub.StartDate), formatTimePtr(sub.LastPaidDate), formatTimePtr(sub.DueDate),
		nullableInt(sub.DueDayOfMonth), formatTime(sub.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}

	slog.InfoContext(ctx, "Subscription saved",
		"id", sub.ID,
		"owner_id", sub.OwnerID,
		"name", sub.Name,
		"cost_cents", sub.Cost.Cents,
		"billing_cycle", sub.Cycle)
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, sub core.Subscription) error {
	if _, err := r.GetForOwner(ctx, sub.ID, sub.OwnerID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions
		 SET name = ?, cost_cents = ?, billing_cycle = ?, category = ?,
		     start_date = ?, due_date = ?, due_day_of_month = ?
		 WHERE id = ?`,
		sub.Name, sub.Cost.Cents, string(sub.Cycle), sub.Category,
		formatTime(sub.StartDate), formatTimePtr(sub.DueDate), nullableInt(sub.DueDayOfMonth),
		sub.ID)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id, ownerID string) error {
	if _, err := r.GetForOwner(ctx, id, ownerID); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	slog.InfoContext(ctx, "Subscription deleted", "id", id, "owner_id", ownerID)
	return nil
}

func (r *SQLiteRepository) MarkPaid(ctx context.Context, id, ownerID string, paidAt time.Time) (core.Subscription, error) {
	if _, err := r.GetForOwner(ctx, id, ownerID); err != nil {
		return core.Subscription{}, err
	}
	// Single-column update: a concurrent field update cannot be clobbered,
	// and concurrent mark-paid calls are last-write-wins by design.
	_, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET last_paid_date = ? WHERE id = ?`,
		formatTime(paidAt), id)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("mark subscription paid: %w", err)
	}
	return r.GetForOwner(ctx, id, ownerID)
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, formatTime(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	var u core.User
	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return core.User{}, fmt.Errorf("parse user created_at: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, email, name, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		var u core.User
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if u.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse user created_at: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (core.Subscription, error) {
	var (
		sub                           core.Subscription
		cycle                         string
		startDate, createdAt          string
		lastPaid, dueDate             sql.NullString
		dueDay                        sql.NullInt64
	)
	err := row.Scan(&sub.ID, &sub.OwnerID, &sub.Name, &sub.Cost.Cents, &cycle, &sub.Category,
		&startDate, &lastPaid, &dueDate, &dueDay, &createdAt)
	if err != nil {
		return core.Subscription{}, err
	}

	sub.Cycle = core.BillingCycle(cycle)
	if sub.StartDate, err = parseTime(startDate); err != nil {
		return core.Subscription{}, fmt.Errorf("parse start_date: %w", err)
	}
	if sub.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Subscription{}, fmt.Errorf("parse created_at: %w", err)
	}
	if sub.LastPaidDate, err = parseTimePtr(lastPaid); err != nil {
		return core.Subscription{}, fmt.Errorf("parse last_paid_date: %w", err)
	}
	if sub.DueDate, err = parseTimePtr(dueDate); err != nil {
		return core.Subscription{}, fmt.Errorf("parse due_date: %w", err)
	}
	if dueDay.Valid {
		d := int(dueDay.Int64)
		sub.DueDayOfMonth = &d
	}
	return sub, nil
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}
