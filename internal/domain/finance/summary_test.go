package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tourdesk/internal/core/types"
)

func m(s string) types.Money { return types.MustMoney(s) }

func assertMoney(t *testing.T, want string, got types.Money) {
	t.Helper()
	assert.Truef(t, m(want).Equal(got), "want %s, got %s", want, got.String())
}

func TestOutstandingTotal(t *testing.T) {
	entries := []LedgerEntry{
		{Amount: m("100"), PaidAmount: m("0"), Status: StatusPending},
		{Amount: m("50"), PaidAmount: m("50"), Status: StatusPaid},
		{Amount: m("80"), PaidAmount: m("30"), Status: StatusPartial},
	}
	assertMoney(t, "150.00", types.RoundMoney(OutstandingTotal(entries)))
}

func TestOutstandingAmount_Clamp(t *testing.T) {
	e := LedgerEntry{Amount: m("100"), PaidAmount: m("150"), Status: StatusPartial}
	assertMoney(t, "0", OutstandingAmount(e))

	total := OutstandingTotal([]LedgerEntry{e, {Amount: m("20"), Status: StatusPending, PaidAmount: m("0")}})
	assertMoney(t, "20", total)
}

func TestOutstandingAmount_TerminalStatuses(t *testing.T) {
	for _, st := range []Status{StatusPaid, StatusSettled, StatusConfirmed, StatusCancelled, "refunded"} {
		t.Run(string(st), func(t *testing.T) {
			p := ClientPayment{Amount: m("75"), PaidAmount: m("0"), Status: st}
			assertMoney(t, "0", OutstandingAmount(p))
		})
	}
}

func TestOutstandingTotal_ExactUntilRounded(t *testing.T) {
	var entries []ClientPayment
	for i := 0; i < 3; i++ {
		entries = append(entries, ClientPayment{Amount: m("0.005"), PaidAmount: m("0"), Status: StatusPending})
	}
	total := OutstandingTotal(entries)
	assertMoney(t, "0.015", total)
	assertMoney(t, "0.02", types.RoundMoney(total))
}

func TestBuildProfitLoss_RevenueFallback(t *testing.T) {
	leads := []Lead{{ID: 1, Status: LeadConfirmed}}
	payments := []ClientPayment{{LeadID: 1, Amount: m("500"), Status: StatusPaid}}

	t.Run("no revenue on cost records uses payments", func(t *testing.T) {
		records := []CostRecord{{LeadID: 1, CostAmount: m("200"), RevenueAmount: m("0")}}
		pl, detail := BuildProfitLoss(records, payments, leads)
		assertMoney(t, "500", pl.Revenue)
		assert.Equal(t, RevenueFromPayments, detail.Source)
		assertMoney(t, "300", pl.Profit)
	})

	t.Run("positive cost record revenue wins", func(t *testing.T) {
		records := []CostRecord{{LeadID: 1, CostAmount: m("200"), RevenueAmount: m("300")}}
		pl, detail := BuildProfitLoss(records, payments, leads)
		assertMoney(t, "300", pl.Revenue)
		assert.Equal(t, RevenueFromCostRecords, detail.Source)
		assertMoney(t, "500", detail.RevenueFromPayments)
	})
}

func TestBuildProfitLoss_OnlyConfirmedLeadPaymentsCount(t *testing.T) {
	records := []CostRecord{
		{LeadID: 1, CostAmount: m("10")},
		{LeadID: 2, CostAmount: m("10")},
	}
	leads := []Lead{
		{ID: 1, Status: LeadConfirmed},
		{ID: 2, Status: "in_progress"},
	}
	payments := []ClientPayment{
		{LeadID: 1, Amount: m("100"), Status: StatusPending},
		{LeadID: 2, Amount: m("900"), Status: StatusPaid},
		// Not one of this resource's leads.
		{LeadID: 3, Amount: m("5000"), Status: StatusPaid},
	}

	pl, _ := BuildProfitLoss(records, payments, leads)
	assertMoney(t, "100", pl.Revenue)
}

func TestBuildProfitLoss_DistinctLeadLoss(t *testing.T) {
	records := []CostRecord{
		{LeadID: 7, CostAmount: m("40")},
		{LeadID: 7, CostAmount: m("60")},
	}
	leads := []Lead{{ID: 7, Status: LeadCancelled, EstimatedValue: m("1000")}}

	pl, detail := BuildProfitLoss(records, nil, leads)
	assertMoney(t, "1000", pl.Loss)
	assertMoney(t, "100", pl.Cost)
	assert.Equal(t, 1, detail.LeadCount)
	assert.Equal(t, 1, detail.CancelledLeadCount)
	// Sunk cost is not netted against the loss.
	assertMoney(t, "-100", pl.Profit)
	assertMoney(t, "-1100", pl.NetProfit)
}

func TestBuildProfitLoss_DuplicateLeadRowsCountOnce(t *testing.T) {
	records := []CostRecord{{LeadID: 7, CostAmount: m("1")}}
	leads := []Lead{
		{ID: 7, Status: LeadCancelled, EstimatedValue: m("250")},
		{ID: 7, Status: LeadCancelled, EstimatedValue: m("250")},
	}
	pl, _ := BuildProfitLoss(records, nil, leads)
	assertMoney(t, "250", pl.Loss)
}

func TestBuildProfitLoss_NetProfitComposition(t *testing.T) {
	records := []CostRecord{
		{LeadID: 1, CostAmount: m("400"), RevenueAmount: m("1000")},
		{LeadID: 2, CostAmount: m("0"), RevenueAmount: m("0")},
	}
	leads := []Lead{
		{ID: 1, Status: LeadConfirmed},
		{ID: 2, Status: LeadCancelled, EstimatedValue: m("150")},
	}

	pl, _ := BuildProfitLoss(records, nil, leads)
	assertMoney(t, "1000", pl.Revenue)
	assertMoney(t, "400", pl.Cost)
	assertMoney(t, "600", pl.Profit)
	assertMoney(t, "150", pl.Loss)
	assertMoney(t, "450", pl.NetProfit)
}

func TestBuildProfitLoss_Empty(t *testing.T) {
	pl, detail := BuildProfitLoss(nil, nil, nil)
	assert.True(t, pl.Revenue.IsZero())
	assert.True(t, pl.NetProfit.IsZero())
	assert.Equal(t, RevenueFromPayments, detail.Source)
	assert.Zero(t, detail.LeadCount)
}

func TestBuildProfitLoss_RoundsHalfUp(t *testing.T) {
	records := []CostRecord{{LeadID: 1, CostAmount: m("0.994"), RevenueAmount: m("2")}}
	pl, _ := BuildProfitLoss(records, nil, []Lead{{ID: 1, Status: LeadConfirmed}})
	// 2 - 0.994 = 1.006
	assertMoney(t, "1.01", pl.Profit)
}

func TestBuildOverall(t *testing.T) {
	in := OverallInputs{
		EmployeePayables: []LedgerEntry{
			{Direction: DirectionPayable, Amount: m("300"), PaidAmount: m("0"), Status: StatusPending},
		},
		SupplierPayables: []LedgerEntry{
			{Direction: DirectionPayable, Amount: m("250"), PaidAmount: m("50"), Status: StatusPartial},
			{Direction: DirectionPayable, Amount: m("999"), PaidAmount: m("999"), Status: StatusPaid},
		},
		EmployeeReceivables: []LedgerEntry{
			{Direction: DirectionReceivable, Amount: m("100"), PaidAmount: m("0"), Status: StatusPending},
		},
		SupplierReceivables: []LedgerEntry{
			{Direction: DirectionReceivable, Amount: m("200"), PaidAmount: m("0"), Status: StatusPending},
		},
		ClientPayments: []ClientPayment{
			{Amount: m("600"), PaidAmount: m("100"), Status: StatusPartial},
			{Amount: m("700"), PaidAmount: m("0"), Status: StatusCancelled},
		},
	}
	w := PeriodWindow{Start: day("2024-03-01"), End: day("2024-03-31")}

	got := BuildOverall(PeriodMonthly, w, in)

	assertMoney(t, "500", got.KitnaDena)
	assertMoney(t, "800", got.KitnaLena)
	assertMoney(t, "300", got.Balance)
	assertMoney(t, "300", got.Breakdown.EmployeePayables)
	assertMoney(t, "200", got.Breakdown.SupplierPayables)
	assertMoney(t, "100", got.Breakdown.EmployeeReceivables)
	assertMoney(t, "200", got.Breakdown.SupplierReceivables)
	assertMoney(t, "500", got.Breakdown.ClientPending)
	assert.Equal(t, w, got.Window)
	assert.Equal(t, PeriodMonthly, got.Period)
}

func TestBuildOverall_NegativeBalance(t *testing.T) {
	in := OverallInputs{
		EmployeePayables: []LedgerEntry{
			{Direction: DirectionPayable, Amount: m("1000"), PaidAmount: m("0"), Status: StatusPending},
		},
		ClientPayments: []ClientPayment{
			{Amount: m("250.25"), PaidAmount: m("0"), Status: StatusPending},
		},
	}
	got := BuildOverall(PeriodYearly, PeriodWindow{}, in)
	assertMoney(t, "-749.75", got.Balance)
}

func TestBuildOverall_IgnoresMisdirectedRows(t *testing.T) {
	in := OverallInputs{
		EmployeePayables: []LedgerEntry{
			{Direction: DirectionReceivable, Amount: m("40"), PaidAmount: m("0"), Status: StatusPending},
		},
	}
	got := BuildOverall(PeriodMonthly, PeriodWindow{}, in)
	assert.True(t, got.KitnaDena.IsZero())
}

func TestBuildBalance(t *testing.T) {
	b := BuildBalance(
		[]LedgerEntry{{Direction: DirectionPayable, Amount: m("120.50"), PaidAmount: m("20.50"), Status: StatusPartial}},
		[]LedgerEntry{{Direction: DirectionReceivable, Amount: m("30"), PaidAmount: m("0"), Status: StatusPending}},
	)
	assertMoney(t, "100", b.Dena)
	assertMoney(t, "30", b.Lena)
	assertMoney(t, "-70", b.Balance)
}

func TestBuildEmployeeProfitLoss(t *testing.T) {
	leads := []Lead{
		{ID: 1, Status: LeadConfirmed},
		{ID: 2, Status: LeadCancelled, EstimatedValue: m("300")},
		{ID: 3, Status: "new", EstimatedValue: m("999")},
	}
	payments := []ClientPayment{
		{LeadID: 1, Amount: m("800"), Status: StatusPaid},
		{LeadID: 1, Amount: m("200"), Status: StatusPending},
		{LeadID: 3, Amount: m("50"), Status: StatusPaid},
	}

	profit, loss, net := BuildEmployeeProfitLoss(leads, payments)
	assertMoney(t, "1000", profit)
	assertMoney(t, "300", loss)
	assertMoney(t, "700", net)
}

func TestBuildLeadCostList(t *testing.T) {
	records := []CostRecord{
		{ID: 3, LeadID: 9, CostAmount: m("10.10"), RevenueAmount: m("15")},
		{ID: 2, LeadID: 8, CostAmount: m("5"), RevenueAmount: m("0")},
		{ID: 1, LeadID: 9, CostAmount: m("1"), RevenueAmount: m("2")},
	}
	leads := []Lead{{ID: 9, ClientName: "Ayesha", Status: LeadConfirmed}}

	list := BuildLeadCostList(Profile{ID: 4, Name: "Pearl"}, nil, records, leads)

	assert.Len(t, list.Lines, 3)
	assert.Equal(t, int64(3), list.Lines[0].ID)
	if assert.NotNil(t, list.Lines[0].Lead) {
		assert.Equal(t, "Ayesha", list.Lines[0].Lead.ClientName)
	}
	assert.Nil(t, list.Lines[1].Lead)
	assertMoney(t, "16.10", list.TotalCost)
	assertMoney(t, "17", list.TotalRevenue)
	assert.Nil(t, list.Window)
}
