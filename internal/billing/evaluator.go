// Package billing implements the payment state evaluator and the
// aggregation engine. Both are pure functions of a subscription set and a
// caller-supplied reference instant: nothing in this package reads the
// wall clock or mutates its inputs.
//
// Payment state checking uses the Strategy Pattern: each billing cycle has
// its own checker encapsulating what "paid for the current period" means
// for that cycle.
package billing

import (
	"fmt"
	"time"

	"billa/internal/core"
)

// PaymentState is the evaluator's result for one subscription.
type PaymentState struct {
	// IsPaidForCurrentPeriod reports whether the current billing period is
	// settled. Yearly and OneTime subscriptions always report true: they
	// are excluded from the monthly paid/unpaid distinction.
	IsPaidForCurrentPeriod bool

	// NextDue is the next obligation date, or nil when none can be
	// computed (a OneTime subscription without a due date).
	NextDue *time.Time
}

// PaymentChecker is the strategy interface for one billing cycle.
type PaymentChecker interface {
	// IsPaid reports whether the subscription's current period is settled
	// relative to now.
	IsPaid(sub core.Subscription, now time.Time) bool

	// NextDue computes the next obligation date relative to now.
	NextDue(sub core.Subscription, now time.Time) *time.Time
}

// MonthlyChecker implements PaymentChecker for Monthly subscriptions.
type MonthlyChecker struct{}

// IsPaid reports paid iff the last payment falls in the same calendar
// month and year as now. The comparison is component-wise, not a rolling
// 30-day window: a payment on the 1st covers the whole month, and a
// payment in a prior month never counts.
func (MonthlyChecker) IsPaid(sub core.Subscription, now time.Time) bool {
	if sub.LastPaidDate == nil {
		return false
	}
	return SameBillingMonth(*sub.LastPaidDate, now)
}

// NextDue returns the due day in the current month, or in the next month
// once the current period is paid. The target day comes from
// DueDayOfMonth when set, otherwise the start date's day, clamped to the
// length of the target month.
func (c MonthlyChecker) NextDue(sub core.Subscription, now time.Time) *time.Time {
	targetDay := sub.StartDate.Day()
	if sub.DueDayOfMonth != nil {
		targetDay = *sub.DueDayOfMonth
	}

	year, month := now.Year(), now.Month()
	if c.IsPaid(sub, now) {
		month++
	}
	due := time.Date(year, month, ClampDay(targetDay, year, month), 0, 0, 0, 0, now.Location())
	return &due
}

// YearlyChecker implements PaymentChecker for Yearly subscriptions.
// The engine does not track due/overdue state for yearly obligations in
// the current-period sense, so they always report paid.
type YearlyChecker struct{}

func (YearlyChecker) IsPaid(core.Subscription, time.Time) bool { return true }

// NextDue returns the next anniversary of the start date at or after now.
func (YearlyChecker) NextDue(sub core.Subscription, now time.Time) *time.Time {
	year := now.Year()
	month, day := sub.StartDate.Month(), sub.StartDate.Day()
	due := time.Date(year, month, ClampDay(day, year, month), 0, 0, 0, 0, now.Location())
	if due.Before(now) {
		due = time.Date(year+1, month, ClampDay(day, year+1, month), 0, 0, 0, 0, now.Location())
	}
	return &due
}

// OneTimeChecker implements PaymentChecker for OneTime subscriptions,
// which are excluded from the paid/unpaid distinction entirely.
type OneTimeChecker struct{}

func (OneTimeChecker) IsPaid(core.Subscription, time.Time) bool { return true }

func (OneTimeChecker) NextDue(sub core.Subscription, _ time.Time) *time.Time {
	return sub.DueDate
}

var paymentCheckers = map[core.BillingCycle]PaymentChecker{
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
	core.OneTime: OneTimeChecker{},
}

// CheckerFor returns the payment checker for a billing cycle.
func CheckerFor(cycle core.BillingCycle) (PaymentChecker, error) {
	checker, ok := paymentCheckers[cycle]
	if !ok {
		return nil, fmt.Errorf("unknown billing cycle: %s", cycle)
	}
	return checker, nil
}

// EvaluatePaymentState classifies one subscription relative to now.
// Unknown cycles degrade to unpaid with no due date rather than failing:
// stored records always carry a valid cycle, so this path only guards
// against future enum growth.
func EvaluatePaymentState(sub core.Subscription, now time.Time) PaymentState {
	checker, err := CheckerFor(sub.Cycle)
	if err != nil {
		return PaymentState{}
	}
	return PaymentState{
		IsPaidForCurrentPeriod: checker.IsPaid(sub, now),
		NextDue:                checker.NextDue(sub, now),
	}
}

// SameBillingMonth reports whether two instants fall in the same calendar
// month and year.
func SameBillingMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// ClampDay limits a target day of month to the length of the given month,
// so "due on the 31st" resolves to Feb 28/29, Apr 30, and so on.
func ClampDay(day int, year int, month time.Month) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}
