package finance

import (
	"context"
)

// LedgerFilter selects employee or supplier ledger entries.
type LedgerFilter struct {
	Counterparty Counterparty

	// CounterpartyID restricts to one employee/supplier; nil means all.
	CounterpartyID *int64

	// Direction restricts to payables or receivables; empty means both.
	Direction Direction

	// Statuses restricts by status; empty means any.
	Statuses []Status
}

// PaymentFilter selects client payments.
type PaymentFilter struct {
	// LeadIDs restricts to payments of these leads; nil means any lead.
	LeadIDs []int64

	// Statuses restricts by status; empty means any.
	Statuses []Status
}

// CostFilter selects per-lead cost records of one resource.
type CostFilter struct {
	Entity     Entity
	ResourceID int64

	// Window restricts by transaction date (inclusive); nil means all dates.
	Window *PeriodWindow
}

// LedgerReader reads employee and supplier financial transactions.
type LedgerReader interface {
	LedgerEntries(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, error)
}

// PaymentReader reads client payments.
type PaymentReader interface {
	ClientPayments(ctx context.Context, filter PaymentFilter) ([]ClientPayment, error)
}

// CostReader reads hotel, transfer and supplier cost records.
// Implementations return records newest first.
type CostReader interface {
	CostRecords(ctx context.Context, filter CostFilter) ([]CostRecord, error)
}

// LeadStatusLookup exposes lead status and estimated value without tying the
// engine to the lead module.
type LeadStatusLookup interface {
	// LeadsByID returns the leads that exist among ids, in any order.
	LeadsByID(ctx context.Context, ids []int64) ([]Lead, error)

	// LeadsAssignedTo returns leads assigned to an employee and created
	// inside the window.
	LeadsAssignedTo(ctx context.Context, employeeID int64, window PeriodWindow) ([]Lead, error)
}

// Directory resolves the master-data header of a report.
// Unknown ids yield an apperror not-found error.
type Directory interface {
	Profile(ctx context.Context, entity Entity, id int64) (*Profile, error)
}

// Repositories bundles the read interfaces the service needs.
type Repositories struct {
	Ledger    LedgerReader
	Payments  PaymentReader
	Costs     CostReader
	Leads     LeadStatusLookup
	Directory Directory
}
