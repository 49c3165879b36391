package dto

import (
	"tourdesk/internal/core/types"
	"tourdesk/internal/domain/finance"
)

// --- Overall summary ---

// BalanceResponse is a payable/receivable position.
type BalanceResponse struct {
	KitnaDena types.Amount `json:"kitna_dena"`
	KitnaLena types.Amount `json:"kitna_lena"`
	Balance   types.Amount `json:"balance"`
}

// DenaBreakdown lists what the company owes, per source.
type DenaBreakdown struct {
	Employees types.Amount `json:"employees"`
	Suppliers types.Amount `json:"suppliers"`
	Total     types.Amount `json:"total"`
}

// LenaBreakdown lists what the company is owed, per source.
type LenaBreakdown struct {
	Employees      types.Amount `json:"employees"`
	Suppliers      types.Amount `json:"suppliers"`
	ClientsPending types.Amount `json:"clients_pending"`
	Total          types.Amount `json:"total"`
}

// OverallBreakdownResponse is the drill-down of the overall summary.
type OverallBreakdownResponse struct {
	Dena DenaBreakdown `json:"dena"`
	Lena LenaBreakdown `json:"lena"`
}

// OverallSummaryResponse is returned by GET /financial-summary/overall.
type OverallSummaryResponse struct {
	Period    string                   `json:"period"`
	DateRange DateRange                `json:"date_range"`
	Summary   BalanceResponse          `json:"summary"`
	Breakdown OverallBreakdownResponse `json:"breakdown"`
}

// FromOverallSummary converts domain summary to response DTO.
func FromOverallSummary(s *finance.OverallSummary) OverallSummaryResponse {
	b := s.Breakdown
	return OverallSummaryResponse{
		Period:    string(s.Period),
		DateRange: FromWindow(s.Window),
		Summary: BalanceResponse{
			KitnaDena: types.NewAmount(s.KitnaDena),
			KitnaLena: types.NewAmount(s.KitnaLena),
			Balance:   types.NewAmount(s.Balance),
		},
		Breakdown: OverallBreakdownResponse{
			Dena: DenaBreakdown{
				Employees: types.NewAmount(b.EmployeePayables),
				Suppliers: types.NewAmount(b.SupplierPayables),
				Total:     types.NewAmount(s.KitnaDena),
			},
			Lena: LenaBreakdown{
				Employees:      types.NewAmount(b.EmployeeReceivables),
				Suppliers:      types.NewAmount(b.SupplierReceivables),
				ClientsPending: types.NewAmount(b.ClientPending),
				Total:          types.NewAmount(s.KitnaLena),
			},
		},
	}
}

// --- Resource summaries ---

// ProfitLossResponse holds the profit/loss figures of a report.
type ProfitLossResponse struct {
	Revenue   types.Amount `json:"revenue"`
	Cost      types.Amount `json:"cost"`
	Profit    types.Amount `json:"profit"`
	Loss      types.Amount `json:"loss"`
	NetProfit types.Amount `json:"net_profit"`
}

// FromProfitLoss converts domain figures.
func FromProfitLoss(pl finance.ProfitLoss) ProfitLossResponse {
	return ProfitLossResponse{
		Revenue:   types.NewAmount(pl.Revenue),
		Cost:      types.NewAmount(pl.Cost),
		Profit:    types.NewAmount(pl.Profit),
		Loss:      types.NewAmount(pl.Loss),
		NetProfit: types.NewAmount(pl.NetProfit),
	}
}

// ResourceSummaryResponse is returned by the hotel and transfer summary endpoints.
type ResourceSummaryResponse struct {
	ResourceRef
	Period           string             `json:"period"`
	DateRange        DateRange          `json:"date_range"`
	FinancialSummary ProfitLossResponse `json:"financial_summary"`
}

// FromResourceSummary converts domain summary to response DTO.
func FromResourceSummary(s *finance.ResourceSummary) ResourceSummaryResponse {
	return ResourceSummaryResponse{
		ResourceRef:      NewResourceRef(s.Resource),
		Period:           string(s.Period),
		DateRange:        FromWindow(s.Window),
		FinancialSummary: FromProfitLoss(s.Figures),
	}
}

// PartyBalance is the outstanding position of one supplier or employee.
type PartyBalance struct {
	Dena    types.Amount    `json:"dena"`
	Lena    types.Amount    `json:"lena"`
	Summary BalanceResponse `json:"summary"`
}

// FromBalance converts a domain balance.
func FromBalance(b finance.Balance) PartyBalance {
	return PartyBalance{
		Dena: types.NewAmount(b.Dena),
		Lena: types.NewAmount(b.Lena),
		Summary: BalanceResponse{
			KitnaDena: types.NewAmount(b.Dena),
			KitnaLena: types.NewAmount(b.Lena),
			Balance:   types.NewAmount(b.Balance),
		},
	}
}

// SupplierFinancialSummary is profit/loss plus the supplier's outstanding position.
type SupplierFinancialSummary struct {
	ProfitLossResponse
	PartyBalance
}

// SupplierSummaryResponse is returned by GET /suppliers/:id/financial-summary.
type SupplierSummaryResponse struct {
	ResourceRef
	Period           string                   `json:"period"`
	DateRange        DateRange                `json:"date_range"`
	FinancialSummary SupplierFinancialSummary `json:"financial_summary"`
}

// FromSupplierSummary converts domain summary to response DTO.
func FromSupplierSummary(s *finance.SupplierSummary) SupplierSummaryResponse {
	return SupplierSummaryResponse{
		ResourceRef: NewResourceRef(s.Resource),
		Period:      string(s.Period),
		DateRange:   FromWindow(s.Window),
		FinancialSummary: SupplierFinancialSummary{
			ProfitLossResponse: FromProfitLoss(s.Figures),
			PartyBalance:       FromBalance(s.Balance),
		},
	}
}

// EmployeeFinancialSummary holds an employee's figures.
type EmployeeFinancialSummary struct {
	Profit    types.Amount `json:"profit"`
	Loss      types.Amount `json:"loss"`
	NetProfit types.Amount `json:"net_profit"`
	PartyBalance
}

// EmployeeSummaryResponse is returned by GET /employees/:id/financial-summary.
type EmployeeSummaryResponse struct {
	ResourceRef
	Period           string                   `json:"period"`
	DateRange        DateRange                `json:"date_range"`
	FinancialSummary EmployeeFinancialSummary `json:"financial_summary"`
}

// FromEmployeeSummary converts domain summary to response DTO.
func FromEmployeeSummary(s *finance.EmployeeSummary) EmployeeSummaryResponse {
	return EmployeeSummaryResponse{
		ResourceRef: NewResourceRef(s.Employee),
		Period:      string(s.Period),
		DateRange:   FromWindow(s.Window),
		FinancialSummary: EmployeeFinancialSummary{
			Profit:       types.NewAmount(s.Profit),
			Loss:         types.NewAmount(s.Loss),
			NetProfit:    types.NewAmount(s.NetProfit),
			PartyBalance: FromBalance(s.Balance),
		},
	}
}

// --- Lead costs ---

// LeadRef is the short form of a lead.
type LeadRef struct {
	ID         int64  `json:"id"`
	ClientName string `json:"client_name"`
	Status     string `json:"status"`
}

// LeadCostResponse is one cost record in a listing.
type LeadCostResponse struct {
	ID              int64        `json:"id"`
	LeadID          int64        `json:"lead_id"`
	Lead            *LeadRef     `json:"lead"`
	CostAmount      types.Amount `json:"cost_amount"`
	RevenueAmount   types.Amount `json:"revenue_amount"`
	TransactionDate types.Date   `json:"transaction_date"`
	Description     string       `json:"description"`
}

// LeadCostListResponse is returned by the lead-costs endpoints.
type LeadCostListResponse struct {
	ResourceRef
	DateRange    *DateRange         `json:"date_range,omitempty"`
	Costs        []LeadCostResponse `json:"costs"`
	TotalCost    types.Amount       `json:"total_cost"`
	TotalRevenue types.Amount       `json:"total_revenue"`
}

// FromLeadCostList converts domain listing to response DTO.
func FromLeadCostList(l *finance.LeadCostList) LeadCostListResponse {
	resp := LeadCostListResponse{
		ResourceRef:  NewResourceRef(l.Resource),
		Costs:        make([]LeadCostResponse, 0, len(l.Lines)),
		TotalCost:    types.NewAmount(l.TotalCost),
		TotalRevenue: types.NewAmount(l.TotalRevenue),
	}
	if l.Window != nil {
		r := FromWindow(*l.Window)
		resp.DateRange = &r
	}

	for _, line := range l.Lines {
		item := LeadCostResponse{
			ID:              line.ID,
			LeadID:          line.LeadID,
			CostAmount:      types.NewAmount(line.CostAmount),
			RevenueAmount:   types.NewAmount(line.RevenueAmount),
			TransactionDate: types.Date(line.TransactionDate),
			Description:     line.Description,
		}
		if line.Lead != nil {
			item.Lead = &LeadRef{
				ID:         line.Lead.ID,
				ClientName: line.Lead.ClientName,
				Status:     string(line.Lead.Status),
			}
		}
		resp.Costs = append(resp.Costs, item)
	}
	return resp
}
