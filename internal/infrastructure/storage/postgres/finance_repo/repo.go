// Package finance_repo provides the PostgreSQL read side of the financial
// reporting engine.
package finance_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tourdesk/internal/core/apperror"
	"tourdesk/internal/domain/finance"
	"tourdesk/internal/infrastructure/storage/postgres"
)

// Compile-time checks.
var (
	_ finance.LedgerReader     = (*FinanceRepo)(nil)
	_ finance.PaymentReader    = (*FinanceRepo)(nil)
	_ finance.CostReader       = (*FinanceRepo)(nil)
	_ finance.LeadStatusLookup = (*FinanceRepo)(nil)
	_ finance.Directory        = (*FinanceRepo)(nil)
)

// FinanceRepo reads ledgers, payments, cost records, leads and master data.
type FinanceRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewFinanceRepo creates a new finance repository.
func NewFinanceRepo(txm *postgres.TxManager) *FinanceRepo {
	return &FinanceRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Repositories bundles the repo under every interface the service needs.
func (r *FinanceRepo) Repositories() finance.Repositories {
	return finance.Repositories{
		Ledger:    r,
		Payments:  r,
		Costs:     r,
		Leads:     r,
		Directory: r,
	}
}

func (r *FinanceRepo) selectAll(ctx context.Context, dst any, q squirrel.SelectBuilder) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return pgxscan.Select(ctx, r.txm.GetQuerier(ctx), dst, sql, args...)
}

// --- Ledgers ---

var ledgerTables = map[finance.Counterparty]struct {
	table, partyCol string
}{
	finance.CounterpartyEmployee: {"employee_financial_transactions", "user_id"},
	finance.CounterpartySupplier: {"supplier_financial_transactions", "supplier_id"},
}

func (r *FinanceRepo) ledgerQuery(filter finance.LedgerFilter) (squirrel.SelectBuilder, error) {
	t, ok := ledgerTables[filter.Counterparty]
	if !ok {
		return squirrel.SelectBuilder{}, fmt.Errorf("unknown counterparty %q", filter.Counterparty)
	}

	q := r.builder.
		Select(
			"id",
			fmt.Sprintf("'%s' AS counterparty", filter.Counterparty),
			t.partyCol+" AS counterparty_id",
			"type AS direction",
			"amount",
			"COALESCE(paid_amount, 0) AS paid_amount",
			"status",
			"transaction_date",
		).
		From(t.table)

	if filter.CounterpartyID != nil {
		q = q.Where(squirrel.Eq{t.partyCol: *filter.CounterpartyID})
	}
	if filter.Direction != "" {
		q = q.Where(squirrel.Eq{"type": string(filter.Direction)})
	}
	if len(filter.Statuses) > 0 {
		q = q.Where(squirrel.Eq{"status": statusStrings(filter.Statuses)})
	}
	return q.OrderBy("id"), nil
}

// LedgerEntries implements finance.LedgerReader.
func (r *FinanceRepo) LedgerEntries(ctx context.Context, filter finance.LedgerFilter) ([]finance.LedgerEntry, error) {
	q, err := r.ledgerQuery(filter)
	if err != nil {
		return nil, err
	}
	var out []finance.LedgerEntry
	if err := r.selectAll(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("select %s ledger: %w", filter.Counterparty, err)
	}
	return out, nil
}

// --- Client payments ---

func (r *FinanceRepo) paymentQuery(filter finance.PaymentFilter) squirrel.SelectBuilder {
	q := r.builder.
		Select("id", "lead_id", "amount", "COALESCE(paid_amount, 0) AS paid_amount", "status").
		From("lead_payments")

	if filter.LeadIDs != nil {
		q = q.Where(squirrel.Eq{"lead_id": filter.LeadIDs})
	}
	if len(filter.Statuses) > 0 {
		q = q.Where(squirrel.Eq{"status": statusStrings(filter.Statuses)})
	}
	return q.OrderBy("id")
}

// ClientPayments implements finance.PaymentReader.
func (r *FinanceRepo) ClientPayments(ctx context.Context, filter finance.PaymentFilter) ([]finance.ClientPayment, error) {
	if filter.LeadIDs != nil && len(filter.LeadIDs) == 0 {
		return nil, nil
	}
	var out []finance.ClientPayment
	if err := r.selectAll(ctx, &out, r.paymentQuery(filter)); err != nil {
		return nil, fmt.Errorf("select client payments: %w", err)
	}
	return out, nil
}

// --- Cost records ---

// Supplier costs carry no revenue column.
var costTables = map[finance.Entity]struct {
	table, resourceCol, revenueExpr string
}{
	finance.EntityHotel:    {"lead_hotel_costs", "hotel_id", "COALESCE(revenue_amount, 0)"},
	finance.EntityTransfer: {"lead_transfer_costs", "transfer_id", "COALESCE(revenue_amount, 0)"},
	finance.EntitySupplier: {"lead_supplier_costs", "supplier_id", "0::numeric"},
}

func (r *FinanceRepo) costQuery(filter finance.CostFilter) (squirrel.SelectBuilder, error) {
	t, ok := costTables[filter.Entity]
	if !ok {
		return squirrel.SelectBuilder{}, fmt.Errorf("no cost records for %q", filter.Entity)
	}

	q := r.builder.
		Select(
			"id",
			t.resourceCol+" AS resource_id",
			"lead_id",
			"cost_amount",
			t.revenueExpr+" AS revenue_amount",
			"transaction_date",
			"COALESCE(description, '') AS description",
		).
		From(t.table).
		Where(squirrel.Eq{t.resourceCol: filter.ResourceID})

	if filter.Window != nil {
		q = q.Where(squirrel.And{
			squirrel.GtOrEq{"transaction_date": filter.Window.Start},
			squirrel.LtOrEq{"transaction_date": filter.Window.End},
		})
	}
	return q.OrderBy("transaction_date DESC", "id DESC"), nil
}

// CostRecords implements finance.CostReader.
func (r *FinanceRepo) CostRecords(ctx context.Context, filter finance.CostFilter) ([]finance.CostRecord, error) {
	q, err := r.costQuery(filter)
	if err != nil {
		return nil, err
	}
	var out []finance.CostRecord
	if err := r.selectAll(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("select %s cost records: %w", filter.Entity, err)
	}
	return out, nil
}

// --- Leads ---

// estimatedValueExpr values a lead by its invoiced total, falling back to the
// payments scheduled against it.
const estimatedValueExpr = `COALESCE(
	(SELECT SUM(i.total_amount) FROM lead_invoices i WHERE i.lead_id = l.id),
	(SELECT SUM(p.amount) FROM lead_payments p WHERE p.lead_id = l.id),
	0) AS estimated_value`

func (r *FinanceRepo) leadsQuery() squirrel.SelectBuilder {
	return r.builder.
		Select("l.id", "l.client_name", "l.status", estimatedValueExpr).
		From("leads l")
}

// LeadsByID implements finance.LeadStatusLookup.
func (r *FinanceRepo) LeadsByID(ctx context.Context, ids []int64) ([]finance.Lead, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []finance.Lead
	if err := r.selectAll(ctx, &out, r.leadsQuery().Where(squirrel.Eq{"l.id": ids})); err != nil {
		return nil, fmt.Errorf("select leads: %w", err)
	}
	return out, nil
}

func (r *FinanceRepo) assignedLeadsQuery(employeeID int64, window finance.PeriodWindow) squirrel.SelectBuilder {
	return r.leadsQuery().
		Where(squirrel.Eq{"l.assigned_to": employeeID}).
		Where(squirrel.And{
			squirrel.GtOrEq{"l.created_at::date": window.Start},
			squirrel.LtOrEq{"l.created_at::date": window.End},
		}).
		OrderBy("l.id")
}

// LeadsAssignedTo implements finance.LeadStatusLookup.
func (r *FinanceRepo) LeadsAssignedTo(ctx context.Context, employeeID int64, window finance.PeriodWindow) ([]finance.Lead, error) {
	var out []finance.Lead
	if err := r.selectAll(ctx, &out, r.assignedLeadsQuery(employeeID, window)); err != nil {
		return nil, fmt.Errorf("select leads assigned to %d: %w", employeeID, err)
	}
	return out, nil
}

// --- Directory ---

var profileColumns = map[finance.Entity]struct {
	table   string
	columns []string
}{
	finance.EntityHotel: {"hotels", []string{
		"id", "name", "destination", "COALESCE(category::text, '') AS category", "status",
	}},
	finance.EntityTransfer: {"transfers", []string{
		"id", "name", "destination", "status",
	}},
	finance.EntitySupplier: {"suppliers", []string{
		"id", "TRIM(first_name || ' ' || COALESCE(last_name, '')) AS name", "company_name", "COALESCE(email, '') AS email",
	}},
	finance.EntityEmployee: {"users", []string{
		"id", "name", "COALESCE(email, '') AS email",
	}},
}

func (r *FinanceRepo) profileQuery(entity finance.Entity, id int64) (squirrel.SelectBuilder, error) {
	p, ok := profileColumns[entity]
	if !ok {
		return squirrel.SelectBuilder{}, fmt.Errorf("unknown entity %q", entity)
	}
	return r.builder.Select(p.columns...).From(p.table).Where(squirrel.Eq{"id": id}), nil
}

// Profile implements finance.Directory.
func (r *FinanceRepo) Profile(ctx context.Context, entity finance.Entity, id int64) (*finance.Profile, error) {
	q, err := r.profileQuery(entity, id)
	if err != nil {
		return nil, err
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p finance.Profile
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(string(entity), id)
		}
		return nil, fmt.Errorf("select %s: %w", entity, err)
	}
	p.Entity = entity
	return &p, nil
}

func statusStrings(statuses []finance.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
