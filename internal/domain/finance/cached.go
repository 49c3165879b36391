package finance

import (
	"context"
	"strconv"
	"strings"
	"time"

	appctx "tourdesk/internal/core/context"
	"tourdesk/internal/core/types"
)

// Reporter is the set of financial reports the engine serves.
type Reporter interface {
	GetOverallSummary(ctx context.Context, req PeriodRequest) (*OverallSummary, error)
	GetHotelFinancialSummary(ctx context.Context, hotelID int64, req PeriodRequest) (*ResourceSummary, error)
	GetTransferFinancialSummary(ctx context.Context, transferID int64, req PeriodRequest) (*ResourceSummary, error)
	GetSupplierFinancialSummary(ctx context.Context, supplierID int64, req PeriodRequest) (*SupplierSummary, error)
	GetEmployeeFinancialSummary(ctx context.Context, employeeID int64, req PeriodRequest) (*EmployeeSummary, error)
	ListLeadCosts(ctx context.Context, entity Entity, id int64, q LeadCostQuery) (*LeadCostList, error)
}

var (
	_ Reporter = (*Service)(nil)
	_ Reporter = (*CachedReporter)(nil)
)

// ReportCache returns the value stored under key decoded into dest. On a miss
// it runs load and stores the result. Errors from load are returned unchanged
// and never stored.
type ReportCache interface {
	FetchJSON(ctx context.Context, key string, dest any, load func(ctx context.Context) (any, error)) error
}

// CachedReporter serves reports through a ReportCache.
//
// Keys carry the calendar date of the request, so canonical windows roll over
// at midnight in the business time zone.
type CachedReporter struct {
	next  Reporter
	cache ReportCache
	loc   *time.Location
	now   func() time.Time
}

// NewCachedReporter wraps next with cache.
func NewCachedReporter(next Reporter, cache ReportCache, loc *time.Location) *CachedReporter {
	if loc == nil {
		loc = time.UTC
	}
	return &CachedReporter{next: next, cache: cache, loc: loc, now: time.Now}
}

func (c *CachedReporter) key(ctx context.Context, parts ...string) string {
	t, ok := appctx.RequestTime(ctx)
	if !ok {
		t = c.now()
	}
	return strings.Join(append([]string{"finance", t.In(c.loc).Format(types.DateLayout)}, parts...), ":")
}

func dateToken(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(types.DateLayout)
}

func periodParts(kind PeriodKind, start, end *time.Time) []string {
	k := string(kind)
	if k == "" {
		k = "-"
	}
	return []string{k, dateToken(start), dateToken(end)}
}

func fetch[T any](ctx context.Context, cache ReportCache, key string, load func(ctx context.Context) (*T, error)) (*T, error) {
	var out T
	err := cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOverallSummary implements Reporter.
func (c *CachedReporter) GetOverallSummary(ctx context.Context, req PeriodRequest) (*OverallSummary, error) {
	key := c.key(ctx, append([]string{"overall"}, periodParts(req.Kind, req.Start, req.End)...)...)
	return fetch(ctx, c.cache, key, func(ctx context.Context) (*OverallSummary, error) {
		return c.next.GetOverallSummary(ctx, req)
	})
}

// GetHotelFinancialSummary implements Reporter.
func (c *CachedReporter) GetHotelFinancialSummary(ctx context.Context, hotelID int64, req PeriodRequest) (*ResourceSummary, error) {
	key := c.key(ctx, append([]string{string(EntityHotel), strconv.FormatInt(hotelID, 10)}, periodParts(req.Kind, req.Start, req.End)...)...)
	return fetch(ctx, c.cache, key, func(ctx context.Context) (*ResourceSummary, error) {
		return c.next.GetHotelFinancialSummary(ctx, hotelID, req)
	})
}

// GetTransferFinancialSummary implements Reporter.
func (c *CachedReporter) GetTransferFinancialSummary(ctx context.Context, transferID int64, req PeriodRequest) (*ResourceSummary, error) {
	key := c.key(ctx, append([]string{string(EntityTransfer), strconv.FormatInt(transferID, 10)}, periodParts(req.Kind, req.Start, req.End)...)...)
	return fetch(ctx, c.cache, key, func(ctx context.Context) (*ResourceSummary, error) {
		return c.next.GetTransferFinancialSummary(ctx, transferID, req)
	})
}

// GetSupplierFinancialSummary implements Reporter.
func (c *CachedReporter) GetSupplierFinancialSummary(ctx context.Context, supplierID int64, req PeriodRequest) (*SupplierSummary, error) {
	key := c.key(ctx, append([]string{string(EntitySupplier), strconv.FormatInt(supplierID, 10)}, periodParts(req.Kind, req.Start, req.End)...)...)
	return fetch(ctx, c.cache, key, func(ctx context.Context) (*SupplierSummary, error) {
		return c.next.GetSupplierFinancialSummary(ctx, supplierID, req)
	})
}

// GetEmployeeFinancialSummary implements Reporter.
func (c *CachedReporter) GetEmployeeFinancialSummary(ctx context.Context, employeeID int64, req PeriodRequest) (*EmployeeSummary, error) {
	key := c.key(ctx, append([]string{string(EntityEmployee), strconv.FormatInt(employeeID, 10)}, periodParts(req.Kind, req.Start, req.End)...)...)
	return fetch(ctx, c.cache, key, func(ctx context.Context) (*EmployeeSummary, error) {
		return c.next.GetEmployeeFinancialSummary(ctx, employeeID, req)
	})
}

// ListLeadCosts implements Reporter.
func (c *CachedReporter) ListLeadCosts(ctx context.Context, entity Entity, id int64, q LeadCostQuery) (*LeadCostList, error) {
	key := c.key(ctx, append([]string{string(entity) + "_lead_costs", strconv.FormatInt(id, 10)}, periodParts(q.Kind, q.Start, q.End)...)...)
	return fetch(ctx, c.cache, key, func(ctx context.Context) (*LeadCostList, error) {
		return c.next.ListLeadCosts(ctx, entity, id, q)
	})
}
