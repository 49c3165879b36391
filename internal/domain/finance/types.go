// Package finance computes receivable/payable and profit/loss summaries from the
// agency's ledgers. It only reads: ledger rows, payments, cost records and lead
// statuses are owned by the modules that create them.
package finance

import (
	"time"

	"tourdesk/internal/core/types"
)

// --- Period ---

// PeriodKind selects a canonical report window.
type PeriodKind string

const (
	PeriodWeekly  PeriodKind = "weekly"
	PeriodMonthly PeriodKind = "monthly"
	PeriodYearly  PeriodKind = "yearly"
)

// Valid reports whether k is a known period kind.
func (k PeriodKind) Valid() bool {
	switch k {
	case PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// PeriodWindow is an inclusive [Start, End] range of calendar dates.
type PeriodWindow struct {
	Start time.Time
	End   time.Time
}

// PeriodRequest is what a caller asks for: a period kind plus an optional
// explicit range that overrides the canonical window when both ends are set.
type PeriodRequest struct {
	Kind  PeriodKind
	Start *time.Time
	End   *time.Time
}

// --- Statuses ---

// Status is the settlement state of a ledger entry or client payment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPartial   Status = "partial"
	StatusPaid      Status = "paid"
	StatusSettled   Status = "settled"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// OpenStatuses are the statuses that still carry an outstanding amount.
var OpenStatuses = []Status{StatusPending, StatusPartial}

// IsOpen reports whether s contributes to outstanding balances.
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusPartial
}

// LeadStatus is the pipeline state of a lead. Only confirmed and cancelled
// matter to the engine.
type LeadStatus string

const (
	LeadConfirmed LeadStatus = "confirmed"
	LeadCancelled LeadStatus = "cancelled"
)

// --- Ledger rows ---

// Counterparty identifies which ledger an entry belongs to.
type Counterparty string

const (
	CounterpartyEmployee Counterparty = "employee"
	CounterpartySupplier Counterparty = "supplier"
)

// Direction tells who owes whom.
type Direction string

const (
	// DirectionPayable is money the company owes (dena).
	DirectionPayable Direction = "payable"
	// DirectionReceivable is money owed to the company (lena).
	DirectionReceivable Direction = "receivable"
)

// LedgerEntry is an employee or supplier financial transaction.
type LedgerEntry struct {
	ID              int64        `db:"id"`
	Counterparty    Counterparty `db:"counterparty"`
	CounterpartyID  int64        `db:"counterparty_id"`
	Direction       Direction    `db:"direction"`
	Amount          types.Money  `db:"amount"`
	PaidAmount      types.Money  `db:"paid_amount"`
	Status          Status       `db:"status"`
	TransactionDate time.Time    `db:"transaction_date"`
}

// OutstandingParts implements Outstanding.
func (e LedgerEntry) OutstandingParts() (types.Money, types.Money, Status) {
	return e.Amount, e.PaidAmount, e.Status
}

// ClientPayment is a payment expected from or made by a client against a lead.
type ClientPayment struct {
	ID         int64       `db:"id"`
	LeadID     int64       `db:"lead_id"`
	Amount     types.Money `db:"amount"`
	PaidAmount types.Money `db:"paid_amount"`
	Status     Status      `db:"status"`
}

// OutstandingParts implements Outstanding.
func (p ClientPayment) OutstandingParts() (types.Money, types.Money, Status) {
	return p.Amount, p.PaidAmount, p.Status
}

// --- Cost records and leads ---

// Entity names a master-data record a report can be scoped to.
type Entity string

const (
	EntityHotel    Entity = "hotel"
	EntityTransfer Entity = "transfer"
	EntitySupplier Entity = "supplier"
	EntityEmployee Entity = "employee"
)

// HasCostRecords reports whether per-lead cost records exist for e.
func (e Entity) HasCostRecords() bool {
	return e == EntityHotel || e == EntityTransfer || e == EntitySupplier
}

// CostRecord is the cost (and optionally revenue) booked against a resource
// for one lead. Supplier cost records carry no revenue, so RevenueAmount is zero.
type CostRecord struct {
	ID              int64       `db:"id"`
	ResourceID      int64       `db:"resource_id"`
	LeadID          int64       `db:"lead_id"`
	CostAmount      types.Money `db:"cost_amount"`
	RevenueAmount   types.Money `db:"revenue_amount"`
	TransactionDate time.Time   `db:"transaction_date"`
	Description     string      `db:"description"`
}

// Lead is the engine's read-only view of a lead. EstimatedValue is derived by
// the store and treated as opaque here.
type Lead struct {
	ID             int64       `db:"id"`
	ClientName     string      `db:"client_name"`
	Status         LeadStatus  `db:"status"`
	EstimatedValue types.Money `db:"estimated_value"`
}

// Profile is the descriptive header of the entity a report is about.
// Fields not relevant to an entity are left empty.
type Profile struct {
	Entity      Entity `db:"-"`
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Destination string `db:"destination"`
	Category    string `db:"category"`
	Status      string `db:"status"`
	CompanyName string `db:"company_name"`
	Email       string `db:"email"`
}

// --- Report results ---

// ProfitLoss holds the profit/loss figures of one report.
type ProfitLoss struct {
	Revenue   types.Money
	Cost      types.Money
	Profit    types.Money
	Loss      types.Money
	NetProfit types.Money
}

// RevenueSource records which input won the revenue selection rule.
type RevenueSource string

const (
	RevenueFromCostRecords RevenueSource = "cost_records"
	RevenueFromPayments    RevenueSource = "payments"
)

// ProfitLossDetail keeps the intermediate figures of a resource summary.
type ProfitLossDetail struct {
	RevenueFromCosts    types.Money
	RevenueFromPayments types.Money
	Source              RevenueSource
	LeadCount           int
	CancelledLeadCount  int
}

// Balance is an outstanding payable/receivable position.
type Balance struct {
	Dena    types.Money // payable
	Lena    types.Money // receivable
	Balance types.Money // Lena - Dena; positive means owed to the company
}

// ResourceSummary is the profit/loss report for a hotel, transfer or supplier.
type ResourceSummary struct {
	Resource Profile
	Period   PeriodKind
	Window   PeriodWindow
	Figures  ProfitLoss
	Detail   ProfitLossDetail
}

// SupplierSummary adds the supplier's outstanding position to its profit/loss.
type SupplierSummary struct {
	ResourceSummary
	Balance Balance
}

// EmployeeSummary is the per-employee report over leads assigned to them.
type EmployeeSummary struct {
	Employee  Profile
	Period    PeriodKind
	Window    PeriodWindow
	Profit    types.Money
	Loss      types.Money
	NetProfit types.Money
	Balance   Balance
}

// OverallBreakdown lists every addend of the overall summary.
type OverallBreakdown struct {
	EmployeePayables    types.Money
	SupplierPayables    types.Money
	EmployeeReceivables types.Money
	SupplierReceivables types.Money
	ClientPending       types.Money
}

// OverallSummary is the company-wide payable/receivable snapshot.
type OverallSummary struct {
	Period    PeriodKind
	Window    PeriodWindow
	KitnaDena types.Money
	KitnaLena types.Money
	Balance   types.Money
	Breakdown OverallBreakdown
}

// LeadCostQuery selects cost records for a listing. The period is optional.
type LeadCostQuery struct {
	Kind  PeriodKind
	Start *time.Time
	End   *time.Time
}

// LeadCostLine is a cost record with the lead it belongs to, if still present.
type LeadCostLine struct {
	CostRecord
	Lead *Lead
}

// LeadCostList is the cost listing of a resource.
type LeadCostList struct {
	Resource     Profile
	Window       *PeriodWindow
	Lines        []LeadCostLine
	TotalCost    types.Money
	TotalRevenue types.Money
}
