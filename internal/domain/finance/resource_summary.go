package finance

import (
	"tourdesk/internal/core/types"
)

// tallyCosts sums cost and revenue over records and collects the distinct
// lead ids they reference, in first-seen order.
func tallyCosts(records []CostRecord) (cost, revenue types.Money, leadIDs []int64) {
	cost, revenue = types.Zero(), types.Zero()
	seen := make(map[int64]struct{}, len(records))
	for _, r := range records {
		cost = cost.Add(r.CostAmount)
		revenue = revenue.Add(r.RevenueAmount)
		if _, ok := seen[r.LeadID]; ok {
			continue
		}
		seen[r.LeadID] = struct{}{}
		leadIDs = append(leadIDs, r.LeadID)
	}
	return cost, revenue, leadIDs
}

// indexLeads keeps the leads whose id is in ids, one entry per lead.
func indexLeads(leads []Lead, ids []int64) map[int64]Lead {
	wanted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	byID := make(map[int64]Lead, len(ids))
	for _, l := range leads {
		if _, ok := wanted[l.ID]; ok {
			byID[l.ID] = l
		}
	}
	return byID
}

// confirmedPaymentTotal is the gross amount of payments whose lead is confirmed.
func confirmedPaymentTotal(payments []ClientPayment, leads map[int64]Lead) types.Money {
	total := types.Zero()
	for _, p := range payments {
		if lead, ok := leads[p.LeadID]; ok && lead.Status == LeadConfirmed {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// cancelledExposure books the full estimated value of every cancelled lead,
// once per lead, without netting any cost already spent on it.
func cancelledExposure(leads map[int64]Lead) (types.Money, int) {
	loss := types.Zero()
	n := 0
	for _, l := range leads {
		if l.Status == LeadCancelled {
			loss = loss.Add(l.EstimatedValue)
			n++
		}
	}
	return loss, n
}

// BuildProfitLoss computes a resource's profit/loss from its cost records in the
// window, the payments of the leads those records reference and the status of
// those leads.
//
// Revenue comes from the cost records when they carry any, otherwise from the
// gross payments of confirmed leads.
func BuildProfitLoss(records []CostRecord, payments []ClientPayment, leads []Lead) (ProfitLoss, ProfitLossDetail) {
	cost, revenueFromCosts, leadIDs := tallyCosts(records)
	byID := indexLeads(leads, leadIDs)

	revenueFromPayments := confirmedPaymentTotal(payments, byID)

	revenue, source := revenueFromCosts, RevenueFromCostRecords
	if !revenueFromCosts.IsPositive() {
		revenue, source = revenueFromPayments, RevenueFromPayments
	}

	rawLoss, cancelled := cancelledExposure(byID)

	profit := types.RoundMoney(revenue.Sub(cost))
	loss := types.RoundMoney(rawLoss)

	figures := ProfitLoss{
		Revenue:   revenue,
		Cost:      cost,
		Profit:    profit,
		Loss:      loss,
		NetProfit: types.RoundMoney(profit.Sub(loss)),
	}
	detail := ProfitLossDetail{
		RevenueFromCosts:    revenueFromCosts,
		RevenueFromPayments: revenueFromPayments,
		Source:              source,
		LeadCount:           len(leadIDs),
		CancelledLeadCount:  cancelled,
	}
	return figures, detail
}

// BuildEmployeeProfitLoss computes profit (gross payments of confirmed leads)
// and loss (estimated value of cancelled leads) over an employee's leads.
func BuildEmployeeProfitLoss(leads []Lead, payments []ClientPayment) (profit, loss, net types.Money) {
	ids := make([]int64, 0, len(leads))
	for _, l := range leads {
		ids = append(ids, l.ID)
	}
	byID := indexLeads(leads, ids)

	profit = types.RoundMoney(confirmedPaymentTotal(payments, byID))
	rawLoss, _ := cancelledExposure(byID)
	loss = types.RoundMoney(rawLoss)
	return profit, loss, types.RoundMoney(profit.Sub(loss))
}

// BuildLeadCostList pairs records with their leads and totals them.
func BuildLeadCostList(resource Profile, window *PeriodWindow, records []CostRecord, leads []Lead) *LeadCostList {
	cost, revenue, ids := tallyCosts(records)
	byID := indexLeads(leads, ids)

	lines := make([]LeadCostLine, len(records))
	for i, r := range records {
		lines[i] = LeadCostLine{CostRecord: r}
		if l, ok := byID[r.LeadID]; ok {
			lead := l
			lines[i].Lead = &lead
		}
	}

	return &LeadCostList{
		Resource:     resource,
		Window:       window,
		Lines:        lines,
		TotalCost:    types.RoundMoney(cost),
		TotalRevenue: types.RoundMoney(revenue),
	}
}

// leadIDsWithStatus returns the ids of leads with the given status.
func leadIDsWithStatus(leads []Lead, status LeadStatus) []int64 {
	var ids []int64
	for _, l := range leads {
		if l.Status == status {
			ids = append(ids, l.ID)
		}
	}
	return ids
}
