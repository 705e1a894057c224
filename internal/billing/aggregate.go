package billing

import (
	"sort"
	"time"

	"billa/internal/core"
)

// Summarize folds a user's complete subscription set into spend totals
// for the billing month containing now. The input must be the full,
// unpaginated set; listing pagination is a transport concern and never
// reaches aggregation.
//
// An empty input yields an all-zero summary with an empty (non-nil)
// category breakdown, not an error.
func Summarize(subs []core.Subscription, now time.Time) core.Summary {
	summary := core.Summary{
		ByCategory:         make([]core.CategoryTotal, 0, 8),
		TotalSubscriptions: len(subs),
	}

	byCategory := make(map[string]core.CategoryTotal)
	for _, sub := range subs {
		category := sub.Category
		if category == "" {
			category = core.DefaultCategory
		}
		row := byCategory[category]
		row.Category = category
		row.TotalCost = row.TotalCost.Add(sub.Cost)
		row.Count++
		byCategory[category] = row

		switch sub.Cycle {
		case core.Monthly:
			summary.TotalMonthly = summary.TotalMonthly.Add(sub.Cost)
			if sub.LastPaidDate != nil && SameBillingMonth(*sub.LastPaidDate, now) {
				summary.TotalPaid = summary.TotalPaid.Add(sub.Cost)
			}
		case core.Yearly:
			summary.TotalYearly = summary.TotalYearly.Add(sub.Cost)
		}
		// OneTime costs appear in the category breakdown only.
	}

	for _, row := range byCategory {
		summary.ByCategory = append(summary.ByCategory, row)
	}

	// Largest categories first; ties resolve by name for determinism.
	sort.SliceStable(summary.ByCategory, func(i, j int) bool {
		a, b := summary.ByCategory[i], summary.ByCategory[j]
		if a.TotalCost.Cents != b.TotalCost.Cents {
			return a.TotalCost.Cents > b.TotalCost.Cents
		}
		return a.Category < b.Category
	})

	// Literal subtraction: a stale lastPaidDate against a changed cost can
	// push this negative, which is surfaced as-is.
	summary.TotalUnpaid = summary.TotalMonthly.Sub(summary.TotalPaid)
	return summary
}
