package finance

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourdesk/internal/core/apperror"
	appctx "tourdesk/internal/core/context"
	"tourdesk/internal/core/types"
)

// inWindow mirrors the date filter the SQL store applies.
func inWindow(w PeriodWindow, t time.Time) bool {
	d := types.TruncateDay(t.In(w.Start.Location()))
	return !d.Before(w.Start) && !d.After(w.End)
}

// fakeStore is an in-memory stand-in for every reader the service needs.
type fakeStore struct {
	mu sync.Mutex

	ledger   []LedgerEntry
	payments []ClientPayment
	costs    map[Entity][]CostRecord
	leads    []Lead
	assigned map[int64][]int64
	profiles map[Entity]map[int64]Profile

	err   error
	calls []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		costs:    map[Entity][]CostRecord{},
		assigned: map[int64][]int64{},
		profiles: map[Entity]map[int64]Profile{
			EntityHotel:    {1: {ID: 1, Name: "Pearl Continental", Destination: "Lahore"}},
			EntityTransfer: {2: {ID: 2, Name: "Airport Shuttle"}},
			EntitySupplier: {3: {ID: 3, Name: "Ali", CompanyName: "Ali Travels"}},
			EntityEmployee: {4: {ID: 4, Name: "Sana", Email: "sana@example.com"}},
		},
	}
}

func (f *fakeStore) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeStore) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Contains(f.calls, call)
}

func (f *fakeStore) repos() Repositories {
	return Repositories{Ledger: f, Payments: f, Costs: f, Leads: f, Directory: f}
}

func (f *fakeStore) LedgerEntries(_ context.Context, filter LedgerFilter) ([]LedgerEntry, error) {
	if err := f.record("ledger"); err != nil {
		return nil, err
	}
	var out []LedgerEntry
	for _, e := range f.ledger {
		if e.Counterparty != filter.Counterparty {
			continue
		}
		if filter.CounterpartyID != nil && e.CounterpartyID != *filter.CounterpartyID {
			continue
		}
		if filter.Direction != "" && e.Direction != filter.Direction {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, e.Status) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeStore) ClientPayments(_ context.Context, filter PaymentFilter) ([]ClientPayment, error) {
	if err := f.record("payments"); err != nil {
		return nil, err
	}
	var out []ClientPayment
	for _, p := range f.payments {
		if filter.LeadIDs != nil && !slices.Contains(filter.LeadIDs, p.LeadID) {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, p.Status) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) CostRecords(_ context.Context, filter CostFilter) ([]CostRecord, error) {
	if err := f.record("costs"); err != nil {
		return nil, err
	}
	var out []CostRecord
	for _, r := range f.costs[filter.Entity] {
		if r.ResourceID != filter.ResourceID {
			continue
		}
		if filter.Window != nil && !inWindow(*filter.Window, r.TransactionDate) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) LeadsByID(_ context.Context, ids []int64) ([]Lead, error) {
	if err := f.record("leads"); err != nil {
		return nil, err
	}
	var out []Lead
	for _, l := range f.leads {
		if slices.Contains(ids, l.ID) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) LeadsAssignedTo(ctx context.Context, employeeID int64, _ PeriodWindow) ([]Lead, error) {
	if err := f.record("assigned"); err != nil {
		return nil, err
	}
	var out []Lead
	for _, l := range f.leads {
		if slices.Contains(f.assigned[employeeID], l.ID) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) Profile(_ context.Context, entity Entity, id int64) (*Profile, error) {
	if err := f.record("profile"); err != nil {
		return nil, err
	}
	p, ok := f.profiles[entity][id]
	if !ok {
		return nil, apperror.NewNotFound(string(entity), id)
	}
	return &p, nil
}

type countingSnapshot struct {
	calls int
}

func (c *countingSnapshot) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	c.calls++
	return fn(ctx)
}

// failingSnapshot fails before running any read, like a transaction that
// cannot begin.
type failingSnapshot struct {
	err error
}

func (f failingSnapshot) ReadOnly(context.Context, func(ctx context.Context) error) error {
	return fmt.Errorf("begin transaction: %w", f.err)
}

type reportLog struct {
	mu      sync.Mutex
	reports []string
	failed  []string
}

func (r *reportLog) ObserveReport(report string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
	if err != nil {
		r.failed = append(r.failed, report)
	}
}

var march17 = time.Date(2024, 3, 17, 10, 30, 0, 0, time.UTC)

func newTestService(store *fakeStore, opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return march17 })}, opts...)
	return NewService(store.repos(), opts...)
}

func seedOverall(store *fakeStore) {
	store.ledger = []LedgerEntry{
		{ID: 1, Counterparty: CounterpartyEmployee, CounterpartyID: 4, Direction: DirectionPayable, Amount: m("300"), PaidAmount: m("0"), Status: StatusPending, TransactionDate: day("2019-01-01")},
		{ID: 2, Counterparty: CounterpartySupplier, CounterpartyID: 3, Direction: DirectionPayable, Amount: m("250"), PaidAmount: m("50"), Status: StatusPartial, TransactionDate: day("2024-03-02")},
		{ID: 3, Counterparty: CounterpartySupplier, CounterpartyID: 3, Direction: DirectionPayable, Amount: m("80"), PaidAmount: m("80"), Status: StatusPaid, TransactionDate: day("2024-03-02")},
		{ID: 4, Counterparty: CounterpartyEmployee, CounterpartyID: 4, Direction: DirectionReceivable, Amount: m("100"), PaidAmount: m("0"), Status: StatusPending, TransactionDate: day("2024-03-05")},
		{ID: 5, Counterparty: CounterpartySupplier, CounterpartyID: 3, Direction: DirectionReceivable, Amount: m("200"), PaidAmount: m("0"), Status: StatusPending, TransactionDate: day("2030-01-01")},
	}
	store.payments = []ClientPayment{
		{ID: 1, LeadID: 10, Amount: m("600"), PaidAmount: m("100"), Status: StatusPartial},
		{ID: 2, LeadID: 11, Amount: m("400"), PaidAmount: m("0"), Status: StatusConfirmed},
	}
}

func TestGetOverallSummary(t *testing.T) {
	store := newFakeStore()
	seedOverall(store)
	svc := newTestService(store)

	got, err := svc.GetOverallSummary(context.Background(), PeriodRequest{Kind: PeriodMonthly})
	require.NoError(t, err)

	assertMoney(t, "500", got.KitnaDena)
	assertMoney(t, "800", got.KitnaLena)
	assertMoney(t, "300", got.Balance)
	assertMoney(t, "500", got.Breakdown.ClientPending)
	assert.Equal(t, day("2024-03-01"), got.Window.Start)
	assert.Equal(t, day("2024-03-31"), got.Window.End)
}

func TestGetOverallSummary_WindowDoesNotFilter(t *testing.T) {
	store := newFakeStore()
	seedOverall(store)
	svc := newTestService(store)

	req := PeriodRequest{Kind: PeriodWeekly, Start: ptr(day("2000-01-01")), End: ptr(day("2000-01-02"))}
	got, err := svc.GetOverallSummary(context.Background(), req)
	require.NoError(t, err)

	assertMoney(t, "500", got.KitnaDena)
	assertMoney(t, "800", got.KitnaLena)
	assert.Equal(t, day("2000-01-01"), got.Window.Start)
}

func TestGetOverallSummary_InvalidRangeReadsNothing(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	req := PeriodRequest{Kind: PeriodMonthly, Start: ptr(day("2024-01-10")), End: ptr(day("2024-01-01"))}
	_, err := svc.GetOverallSummary(context.Background(), req)

	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Empty(t, store.calls)
}

func TestGetOverallSummary_UsesPinnedRequestTime(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	ctx := appctx.WithRequestTime(context.Background(), time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC))
	got, err := svc.GetOverallSummary(ctx, PeriodRequest{Kind: PeriodYearly})
	require.NoError(t, err)
	assert.Equal(t, 2023, got.Window.Start.Year())
}

func TestGetOverallSummary_StoreFailure(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("connection refused")
	rec := &reportLog{}
	svc := newTestService(store, WithRecorder(rec))

	got, err := svc.GetOverallSummary(context.Background(), PeriodRequest{Kind: PeriodMonthly})

	assert.Nil(t, got)
	assert.True(t, apperror.IsDataAccess(err))
	assert.Equal(t, []string{"overall"}, rec.failed)
}

func TestGetOverallSummary_TimeoutIsUnavailable(t *testing.T) {
	store := newFakeStore()
	store.err = fmt.Errorf("query: %w", context.DeadlineExceeded)
	svc := newTestService(store)

	_, err := svc.GetOverallSummary(context.Background(), PeriodRequest{Kind: PeriodMonthly})
	assert.True(t, apperror.IsUnavailable(err))
}

func TestGetOverallSummary_SnapshotRunsOnce(t *testing.T) {
	store := newFakeStore()
	seedOverall(store)
	snap := &countingSnapshot{}
	svc := newTestService(store, WithSnapshot(snap))

	got, err := svc.GetOverallSummary(context.Background(), PeriodRequest{Kind: PeriodMonthly})
	require.NoError(t, err)
	assert.Equal(t, 1, snap.calls)
	assertMoney(t, "300", got.Balance)
	assert.Len(t, store.calls, 5)
}

func TestGetOverallSummary_SnapshotBeginFailure(t *testing.T) {
	tests := []struct {
		name  string
		cause error
		check func(error) bool
	}{
		{"deadline", context.DeadlineExceeded, apperror.IsUnavailable},
		{"unreachable", errors.New("dial tcp: connection refused"), apperror.IsDataAccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := newTestService(store, WithSnapshot(failingSnapshot{err: tt.cause}))

			_, err := svc.GetOverallSummary(context.Background(), PeriodRequest{Kind: PeriodMonthly})
			require.Error(t, err)
			assert.True(t, tt.check(err), "got %v", err)
			assert.ErrorIs(t, err, tt.cause)
			assert.Empty(t, store.calls)
		})
	}
}

func seedHotel(store *fakeStore) {
	store.costs[EntityHotel] = []CostRecord{
		{ID: 1, ResourceID: 1, LeadID: 10, CostAmount: m("400"), RevenueAmount: m("0"), TransactionDate: day("2024-03-05")},
		{ID: 2, ResourceID: 1, LeadID: 10, CostAmount: m("100"), RevenueAmount: m("0"), TransactionDate: day("2024-03-06")},
		{ID: 3, ResourceID: 1, LeadID: 11, CostAmount: m("50"), RevenueAmount: m("0"), TransactionDate: day("2024-03-07")},
		// Outside March.
		{ID: 4, ResourceID: 1, LeadID: 12, CostAmount: m("999"), RevenueAmount: m("999"), TransactionDate: day("2024-02-29")},
		// Another hotel.
		{ID: 5, ResourceID: 9, LeadID: 10, CostAmount: m("777"), RevenueAmount: m("0"), TransactionDate: day("2024-03-05")},
	}
	store.leads = []Lead{
		{ID: 10, Status: LeadConfirmed, EstimatedValue: m("1200")},
		{ID: 11, Status: LeadCancelled, EstimatedValue: m("150")},
		{ID: 12, Status: LeadCancelled, EstimatedValue: m("5000")},
	}
	store.payments = []ClientPayment{
		{ID: 1, LeadID: 10, Amount: m("700"), PaidAmount: m("700"), Status: StatusPaid},
		{ID: 2, LeadID: 10, Amount: m("300"), PaidAmount: m("0"), Status: StatusPending},
		{ID: 3, LeadID: 11, Amount: m("150"), PaidAmount: m("0"), Status: StatusPending},
	}
}

func TestGetHotelFinancialSummary(t *testing.T) {
	store := newFakeStore()
	seedHotel(store)
	svc := newTestService(store)

	got, err := svc.GetHotelFinancialSummary(context.Background(), 1, PeriodRequest{Kind: PeriodMonthly})
	require.NoError(t, err)

	assert.Equal(t, "Pearl Continental", got.Resource.Name)
	assert.Equal(t, EntityHotel, got.Resource.Entity)
	assertMoney(t, "1000", got.Figures.Revenue)
	assertMoney(t, "550", got.Figures.Cost)
	assertMoney(t, "450", got.Figures.Profit)
	assertMoney(t, "150", got.Figures.Loss)
	assertMoney(t, "300", got.Figures.NetProfit)
	assert.Equal(t, RevenueFromPayments, got.Detail.Source)
	assert.Equal(t, 2, got.Detail.LeadCount)
}

func TestGetHotelFinancialSummary_NotFound(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.GetHotelFinancialSummary(context.Background(), 404, PeriodRequest{Kind: PeriodMonthly})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
	assert.False(t, store.called("costs"))
}

func TestGetHotelFinancialSummary_ValidationBeforeLookup(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.GetHotelFinancialSummary(context.Background(), 404, PeriodRequest{Kind: "daily"})
	assert.True(t, apperror.IsValidation(err))
	assert.Empty(t, store.calls)
}

func TestGetHotelFinancialSummary_NoRecordsSkipsLeadReads(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	got, err := svc.GetHotelFinancialSummary(context.Background(), 1, PeriodRequest{Kind: PeriodWeekly})
	require.NoError(t, err)
	assert.True(t, got.Figures.NetProfit.IsZero())
	assert.False(t, store.called("payments"))
	assert.False(t, store.called("leads"))
}

func TestGetHotelFinancialSummary_ExplicitRange(t *testing.T) {
	store := newFakeStore()
	seedHotel(store)
	svc := newTestService(store)

	req := PeriodRequest{Kind: PeriodMonthly, Start: ptr(day("2024-02-01")), End: ptr(day("2024-02-29"))}
	got, err := svc.GetHotelFinancialSummary(context.Background(), 1, req)
	require.NoError(t, err)

	assertMoney(t, "999", got.Figures.Revenue)
	assertMoney(t, "999", got.Figures.Cost)
	assertMoney(t, "5000", got.Figures.Loss)
	assertMoney(t, "-5000", got.Figures.NetProfit)
}

func TestGetTransferFinancialSummary(t *testing.T) {
	store := newFakeStore()
	store.costs[EntityTransfer] = []CostRecord{
		{ID: 1, ResourceID: 2, LeadID: 20, CostAmount: m("80"), RevenueAmount: m("120"), TransactionDate: day("2024-03-12")},
	}
	store.leads = []Lead{{ID: 20, Status: LeadConfirmed}}
	svc := newTestService(store)

	got, err := svc.GetTransferFinancialSummary(context.Background(), 2, PeriodRequest{Kind: PeriodWeekly})
	require.NoError(t, err)
	assertMoney(t, "40", got.Figures.Profit)
	assert.Equal(t, RevenueFromCostRecords, got.Detail.Source)
}

func TestGetSupplierFinancialSummary(t *testing.T) {
	store := newFakeStore()
	seedOverall(store)
	store.costs[EntitySupplier] = []CostRecord{
		{ID: 1, ResourceID: 3, LeadID: 10, CostAmount: m("100"), TransactionDate: day("2024-03-01")},
	}
	store.leads = []Lead{{ID: 10, Status: LeadConfirmed}}
	svc := newTestService(store)

	got, err := svc.GetSupplierFinancialSummary(context.Background(), 3, PeriodRequest{Kind: PeriodMonthly})
	require.NoError(t, err)

	assert.Equal(t, "Ali Travels", got.Resource.CompanyName)
	assertMoney(t, "600", got.Figures.Revenue)
	assertMoney(t, "500", got.Figures.Profit)
	assertMoney(t, "200", got.Balance.Dena)
	assertMoney(t, "200", got.Balance.Lena)
	assert.True(t, got.Balance.Balance.IsZero())
}

func TestGetEmployeeFinancialSummary(t *testing.T) {
	store := newFakeStore()
	seedOverall(store)
	store.leads = []Lead{
		{ID: 10, Status: LeadConfirmed},
		{ID: 11, Status: LeadCancelled, EstimatedValue: m("250")},
		{ID: 12, Status: LeadConfirmed},
	}
	store.assigned[4] = []int64{10, 11}
	svc := newTestService(store)

	got, err := svc.GetEmployeeFinancialSummary(context.Background(), 4, PeriodRequest{Kind: PeriodMonthly})
	require.NoError(t, err)

	assert.Equal(t, "Sana", got.Employee.Name)
	assertMoney(t, "600", got.Profit)
	assertMoney(t, "250", got.Loss)
	assertMoney(t, "350", got.NetProfit)
	assertMoney(t, "300", got.Balance.Dena)
	assertMoney(t, "100", got.Balance.Lena)
	assertMoney(t, "-200", got.Balance.Balance)
}

func TestGetEmployeeFinancialSummary_NoConfirmedLeadsSkipsPayments(t *testing.T) {
	store := newFakeStore()
	store.leads = []Lead{{ID: 11, Status: LeadCancelled, EstimatedValue: m("90")}}
	store.assigned[4] = []int64{11}
	svc := newTestService(store)

	got, err := svc.GetEmployeeFinancialSummary(context.Background(), 4, PeriodRequest{Kind: PeriodMonthly})
	require.NoError(t, err)
	assertMoney(t, "-90", got.NetProfit)
	assert.False(t, store.called("payments"))
}

func TestListLeadCosts(t *testing.T) {
	store := newFakeStore()
	seedHotel(store)
	svc := newTestService(store)

	t.Run("no period lists everything", func(t *testing.T) {
		got, err := svc.ListLeadCosts(context.Background(), EntityHotel, 1, LeadCostQuery{})
		require.NoError(t, err)
		assert.Nil(t, got.Window)
		assert.Len(t, got.Lines, 4)
		assertMoney(t, "1549", got.TotalCost)
		assertMoney(t, "999", got.TotalRevenue)
	})

	t.Run("explicit range", func(t *testing.T) {
		q := LeadCostQuery{Start: ptr(day("2024-03-06")), End: ptr(day("2024-03-31"))}
		got, err := svc.ListLeadCosts(context.Background(), EntityHotel, 1, q)
		require.NoError(t, err)
		require.NotNil(t, got.Window)
		assert.Len(t, got.Lines, 2)
		assertMoney(t, "150", got.TotalCost)
	})

	t.Run("employees have no cost records", func(t *testing.T) {
		_, err := svc.ListLeadCosts(context.Background(), EntityEmployee, 4, LeadCostQuery{})
		require.Error(t, err)
		assert.False(t, apperror.IsValidation(err))
	})
}

func TestService_RecordsEveryReport(t *testing.T) {
	store := newFakeStore()
	rec := &reportLog{}
	svc := newTestService(store, WithRecorder(rec))
	ctx := context.Background()
	req := PeriodRequest{Kind: PeriodMonthly}

	_, _ = svc.GetOverallSummary(ctx, req)
	_, _ = svc.GetHotelFinancialSummary(ctx, 1, req)
	_, _ = svc.GetEmployeeFinancialSummary(ctx, 999, req)

	assert.Equal(t, []string{"overall", "hotel", "employee"}, rec.reports)
	assert.Equal(t, []string{"employee"}, rec.failed)
}
