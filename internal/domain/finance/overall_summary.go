package finance

import (
	"tourdesk/internal/core/types"
)

// OverallInputs are the open ledger rows the overall summary is built from.
type OverallInputs struct {
	EmployeePayables    []LedgerEntry
	SupplierPayables    []LedgerEntry
	EmployeeReceivables []LedgerEntry
	SupplierReceivables []LedgerEntry
	ClientPayments      []ClientPayment
}

// outstandingIn totals entries of the given direction, ignoring any row a
// reader returned under the wrong direction.
func outstandingIn(entries []LedgerEntry, dir Direction) types.Money {
	total := types.Zero()
	for _, e := range entries {
		if e.Direction == dir {
			total = total.Add(OutstandingAmount(e))
		}
	}
	return total
}

// BuildOverall computes what the company owes (kitna dena), what it is owed
// (kitna lena) and the balance between them. A positive balance means a net
// amount is owed to the company.
func BuildOverall(period PeriodKind, window PeriodWindow, in OverallInputs) *OverallSummary {
	b := OverallBreakdown{
		EmployeePayables:    outstandingIn(in.EmployeePayables, DirectionPayable),
		SupplierPayables:    outstandingIn(in.SupplierPayables, DirectionPayable),
		EmployeeReceivables: outstandingIn(in.EmployeeReceivables, DirectionReceivable),
		SupplierReceivables: outstandingIn(in.SupplierReceivables, DirectionReceivable),
		ClientPending:       OutstandingTotal(in.ClientPayments),
	}

	dena := types.RoundMoney(b.EmployeePayables.Add(b.SupplierPayables))
	lena := types.RoundMoney(b.EmployeeReceivables.Add(b.SupplierReceivables).Add(b.ClientPending))

	return &OverallSummary{
		Period:    period,
		Window:    window,
		KitnaDena: dena,
		KitnaLena: lena,
		Balance:   types.RoundMoney(lena.Sub(dena)),
		Breakdown: b,
	}
}

// BuildBalance computes one counterparty's outstanding position.
func BuildBalance(payables, receivables []LedgerEntry) Balance {
	dena := types.RoundMoney(outstandingIn(payables, DirectionPayable))
	lena := types.RoundMoney(outstandingIn(receivables, DirectionReceivable))
	return Balance{
		Dena:    dena,
		Lena:    lena,
		Balance: types.RoundMoney(lena.Sub(dena)),
	}
}
