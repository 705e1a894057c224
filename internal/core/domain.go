package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Monthly BillingCycle = "Monthly"
	Yearly  BillingCycle = "Yearly"
	OneTime BillingCycle = "OneTime"
)

// DefaultCategory is applied when a subscription is created without one.
const DefaultCategory = "General"

type (
	// BillingCycle is the recurrence pattern of a subscription.
	BillingCycle string

	// Subscription is a recurring or one-time financial obligation owned
	// by a single user. LastPaidDate is nil until the owner records a
	// payment. DueDate is meaningful only for OneTime subscriptions,
	// DueDayOfMonth only for Monthly ones; updates never reconcile them
	// when the cycle changes.
	Subscription struct {
		ID            string       `json:"id"`
		OwnerID       string       `json:"ownerId"`
		Name          string       `json:"name"`
		Cost          Money        `json:"cost"`
		Cycle         BillingCycle `json:"billingCycle"`
		Category      string       `json:"category"`
		StartDate     time.Time    `json:"startDate"`
		LastPaidDate  *time.Time   `json:"lastPaidDate"`
		DueDate       *time.Time   `json:"dueDate"`
		DueDayOfMonth *int         `json:"dueDayOfMonth"`
		CreatedAt     time.Time    `json:"createdAt"`
	}

	// User identifies an owner of subscriptions. Credential storage and
	// registration flows live outside this service; users are provisioned
	// out-of-band and referenced by ID from bearer tokens.
	User struct {
		ID        string    `json:"id"`
		Email     string    `json:"email"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"createdAt"`
	}
)

var (
	ErrEmptyName     = errors.New("empty subscription name")
	ErrNameTooLong   = errors.New("subscription name too long (max 200 characters)")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidCycle  = errors.New("invalid billing cycle")
	ErrInvalidDueDay = errors.New("due day of month must be between 1 and 31")
	ErrInvalidEmail  = errors.New("invalid email address")

	ErrNotFound = errors.New("subscription not found")
	ErrNotOwner = errors.New("caller does not own this subscription")

	ErrUserNotFound = errors.New("user not found")
)

// ParseBillingCycle normalizes a wire-level cycle label. The legacy
// "One-time" spelling from older clients maps to OneTime.
func ParseBillingCycle(s string) (BillingCycle, error) {
	switch strings.TrimSpace(s) {
	case string(Monthly), "monthly":
		return Monthly, nil
	case string(Yearly), "yearly":
		return Yearly, nil
	case string(OneTime), "One-time", "one-time":
		return OneTime, nil
	default:
		return "", ErrInvalidCycle
	}
}

func (c BillingCycle) Valid() bool {
	switch c {
	case Monthly, Yearly, OneTime:
		return true
	}
	return false
}

func (s Subscription) Validate() error {
	if len(strings.TrimSpace(s.Name)) == 0 {
		return ErrEmptyName
	}
	if len(s.Name) > 200 {
		return ErrNameTooLong
	}
	if s.Cost.Cents < 0 {
		return ErrInvalidAmount
	}
	if !s.Cycle.Valid() {
		return ErrInvalidCycle
	}
	if s.DueDayOfMonth != nil && (*s.DueDayOfMonth < 1 || *s.DueDayOfMonth > 31) {
		return ErrInvalidDueDay
	}
	return nil
}

func (u User) Validate() error {
	if !strings.Contains(u.Email, "@") {
		return ErrInvalidEmail
	}
	return nil
}
