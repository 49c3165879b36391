package finance

import (
	"tourdesk/internal/core/types"
)

// Outstanding is anything with an amount, a paid part and a settlement status.
type Outstanding interface {
	OutstandingParts() (amount, paid types.Money, status Status)
}

// OutstandingAmount is what remains to be settled on a single entry.
// Only pending and partial entries carry a balance, and a malformed entry
// (paid more than its amount) contributes zero rather than a negative figure.
func OutstandingAmount(o Outstanding) types.Money {
	amount, paid, status := o.OutstandingParts()
	if !status.IsOpen() {
		return types.Zero()
	}
	return types.NonNegative(amount.Sub(paid))
}

// OutstandingTotal sums OutstandingAmount over entries. The result is exact;
// round it with types.RoundMoney only when displaying.
func OutstandingTotal[T Outstanding](entries []T) types.Money {
	total := types.Zero()
	for _, e := range entries {
		total = total.Add(OutstandingAmount(e))
	}
	return total
}
