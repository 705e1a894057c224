package core

// CategoryTotal is one row of the per-category spend breakdown.
type CategoryTotal struct {
	Category  string `json:"category"`
	TotalCost Money  `json:"totalCost"`
	Count     int    `json:"count"`
}

// Summary aggregates one user's full subscription set for a reference
// instant. TotalUnpaid is the literal TotalMonthly - TotalPaid and may be
// negative when a recorded payment no longer matches the current cost;
// it is intentionally not clamped.
type Summary struct {
	ByCategory         []CategoryTotal `json:"byCategory"`
	TotalMonthly       Money           `json:"totalMonthly"`
	TotalYearly        Money           `json:"totalYearly"`
	TotalPaid          Money           `json:"totalPaid"`
	TotalUnpaid        Money           `json:"totalUnpaid"`
	TotalSubscriptions int             `json:"totalSubscriptions"`
}
