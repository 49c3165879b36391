package finance

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tourdesk/internal/core/apperror"
	appctx "tourdesk/internal/core/context"
	"tourdesk/internal/core/tx"
	"tourdesk/pkg/logger"
)

var tracer = otel.Tracer("tourdesk/finance")

// Recorder observes how long each report took and whether it failed.
type Recorder interface {
	ObserveReport(report string, d time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveReport(string, time.Duration, error) {}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now. Used when the request carries no pinned time.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone calendar windows are computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithSnapshot makes every report read from one read-only transaction.
func WithSnapshot(m tx.ReadOnlyManager) Option {
	return func(s *Service) { s.snapshot = m }
}

// WithRecorder sets the report duration observer.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// Service is the entry point of the financial reporting engine.
// It is stateless between calls and safe for concurrent use.
type Service struct {
	repos    Repositories
	now      func() time.Time
	loc      *time.Location
	snapshot tx.ReadOnlyManager
	recorder Recorder
}

// NewService creates a new financial reporting service.
func NewService(repos Repositories, opts ...Option) *Service {
	s := &Service{
		repos:    repos,
		now:      time.Now,
		loc:      time.UTC,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// clock returns the instant windows are resolved against.
func (s *Service) clock(ctx context.Context) time.Time {
	t, ok := appctx.RequestTime(ctx)
	if !ok {
		t = s.now()
	}
	return t.In(s.loc)
}

// observe wraps one report in a span and records its duration.
func (s *Service) observe(ctx context.Context, report string, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := tracer.Start(ctx, "finance."+report, trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	s.recorder.ObserveReport(report, elapsed, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !apperror.IsValidation(err) && !apperror.IsNotFound(err) {
			logger.Error(ctx, "financial report failed", "report", report, "error", err)
		}
		return err
	}

	logger.Debug(ctx, "financial report built", "report", report, "duration", elapsed)
	return nil
}

// --- Read steps ---

func (s *Service) profileStep(entity Entity, id int64, dst **Profile) step {
	return func(ctx context.Context) error {
		p, err := s.repos.Directory.Profile(ctx, entity, id)
		if err != nil {
			return apperror.FromQuery(fmt.Sprintf("load %s", entity), err)
		}
		p.Entity = entity
		*dst = p
		return nil
	}
}

func (s *Service) ledgerStep(filter LedgerFilter, dst *[]LedgerEntry) step {
	return func(ctx context.Context) error {
		entries, err := s.repos.Ledger.LedgerEntries(ctx, filter)
		if err != nil {
			return apperror.FromQuery(fmt.Sprintf("read %s %s ledger", filter.Counterparty, filter.Direction), err)
		}
		*dst = entries
		return nil
	}
}

func (s *Service) paymentStep(filter PaymentFilter, dst *[]ClientPayment) step {
	return func(ctx context.Context) error {
		payments, err := s.repos.Payments.ClientPayments(ctx, filter)
		if err != nil {
			return apperror.FromQuery("read client payments", err)
		}
		*dst = payments
		return nil
	}
}

func (s *Service) leadsStep(ids []int64, dst *[]Lead) step {
	return func(ctx context.Context) error {
		leads, err := s.repos.Leads.LeadsByID(ctx, ids)
		if err != nil {
			return apperror.FromQuery("read lead statuses", err)
		}
		*dst = leads
		return nil
	}
}

func (s *Service) costStep(filter CostFilter, dst *[]CostRecord) step {
	return func(ctx context.Context) error {
		records, err := s.repos.Costs.CostRecords(ctx, filter)
		if err != nil {
			return apperror.FromQuery(fmt.Sprintf("read %s cost records", filter.Entity), err)
		}
		*dst = records
		return nil
	}
}

func openLedger(party Counterparty, dir Direction, id *int64) LedgerFilter {
	return LedgerFilter{
		Counterparty:   party,
		CounterpartyID: id,
		Direction:      dir,
		Statuses:       OpenStatuses,
	}
}

// --- Reports ---

// GetOverallSummary returns the company-wide payable/receivable position.
//
// The figures are a point-in-time snapshot of every open ledger row and client
// payment. The resolved window is reported back but does not filter them.
func (s *Service) GetOverallSummary(ctx context.Context, req PeriodRequest) (*OverallSummary, error) {
	var out *OverallSummary
	err := s.observe(ctx, "overall", func(ctx context.Context) error {
		window, err := Resolve(req.Kind, s.clock(ctx), req.Start, req.End)
		if err != nil {
			return err
		}

		var in OverallInputs
		err = s.read(ctx, func(ctx context.Context) error {
			return s.fanout(ctx,
				s.ledgerStep(openLedger(CounterpartyEmployee, DirectionPayable, nil), &in.EmployeePayables),
				s.ledgerStep(openLedger(CounterpartySupplier, DirectionPayable, nil), &in.SupplierPayables),
				s.ledgerStep(openLedger(CounterpartyEmployee, DirectionReceivable, nil), &in.EmployeeReceivables),
				s.ledgerStep(openLedger(CounterpartySupplier, DirectionReceivable, nil), &in.SupplierReceivables),
				s.paymentStep(PaymentFilter{Statuses: OpenStatuses}, &in.ClientPayments),
			)
		})
		if err != nil {
			return err
		}

		out = BuildOverall(req.Kind, window, in)
		return nil
	}, attribute.String("period", string(req.Kind)))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetHotelFinancialSummary returns one hotel's profit/loss over the window.
func (s *Service) GetHotelFinancialSummary(ctx context.Context, hotelID int64, req PeriodRequest) (*ResourceSummary, error) {
	return s.resourceReport(ctx, EntityHotel, hotelID, req)
}

// GetTransferFinancialSummary returns one transfer's profit/loss over the window.
func (s *Service) GetTransferFinancialSummary(ctx context.Context, transferID int64, req PeriodRequest) (*ResourceSummary, error) {
	return s.resourceReport(ctx, EntityTransfer, transferID, req)
}

func (s *Service) resourceReport(ctx context.Context, entity Entity, id int64, req PeriodRequest) (*ResourceSummary, error) {
	var out *ResourceSummary
	err := s.observe(ctx, string(entity), func(ctx context.Context) error {
		window, err := Resolve(req.Kind, s.clock(ctx), req.Start, req.End)
		if err != nil {
			return err
		}
		return s.read(ctx, func(ctx context.Context) error {
			out, err = s.buildResource(ctx, entity, id, req.Kind, window)
			return err
		})
	}, attribute.String("period", string(req.Kind)), attribute.Int64(string(entity)+".id", id))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// buildResource loads the resource header, its cost records in the window and
// the payments and statuses of the leads those records reference.
func (s *Service) buildResource(ctx context.Context, entity Entity, id int64, kind PeriodKind, window PeriodWindow) (*ResourceSummary, error) {
	var profile *Profile
	if err := s.profileStep(entity, id, &profile)(ctx); err != nil {
		return nil, err
	}

	var records []CostRecord
	if err := s.costStep(CostFilter{Entity: entity, ResourceID: id, Window: &window}, &records)(ctx); err != nil {
		return nil, err
	}

	var (
		payments []ClientPayment
		leads    []Lead
	)
	if _, _, ids := tallyCosts(records); len(ids) > 0 {
		err := s.fanout(ctx,
			s.paymentStep(PaymentFilter{LeadIDs: ids}, &payments),
			s.leadsStep(ids, &leads),
		)
		if err != nil {
			return nil, err
		}
	}

	figures, detail := BuildProfitLoss(records, payments, leads)
	return &ResourceSummary{
		Resource: *profile,
		Period:   kind,
		Window:   window,
		Figures:  figures,
		Detail:   detail,
	}, nil
}

// GetSupplierFinancialSummary returns a supplier's profit/loss over the window
// together with its outstanding payable/receivable position.
func (s *Service) GetSupplierFinancialSummary(ctx context.Context, supplierID int64, req PeriodRequest) (*SupplierSummary, error) {
	var out *SupplierSummary
	err := s.observe(ctx, "supplier", func(ctx context.Context) error {
		window, err := Resolve(req.Kind, s.clock(ctx), req.Start, req.End)
		if err != nil {
			return err
		}
		return s.read(ctx, func(ctx context.Context) error {
			summary, err := s.buildResource(ctx, EntitySupplier, supplierID, req.Kind, window)
			if err != nil {
				return err
			}

			var payables, receivables []LedgerEntry
			err = s.fanout(ctx,
				s.ledgerStep(openLedger(CounterpartySupplier, DirectionPayable, &supplierID), &payables),
				s.ledgerStep(openLedger(CounterpartySupplier, DirectionReceivable, &supplierID), &receivables),
			)
			if err != nil {
				return err
			}

			out = &SupplierSummary{ResourceSummary: *summary, Balance: BuildBalance(payables, receivables)}
			return nil
		})
	}, attribute.String("period", string(req.Kind)), attribute.Int64("supplier.id", supplierID))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetEmployeeFinancialSummary reports on the leads assigned to an employee and
// created inside the window: profit is the gross payments of confirmed leads,
// loss the estimated value of cancelled ones. The employee's own open ledger
// position is added as dena/lena.
func (s *Service) GetEmployeeFinancialSummary(ctx context.Context, employeeID int64, req PeriodRequest) (*EmployeeSummary, error) {
	var out *EmployeeSummary
	err := s.observe(ctx, "employee", func(ctx context.Context) error {
		window, err := Resolve(req.Kind, s.clock(ctx), req.Start, req.End)
		if err != nil {
			return err
		}
		return s.read(ctx, func(ctx context.Context) error {
			var profile *Profile
			if err := s.profileStep(EntityEmployee, employeeID, &profile)(ctx); err != nil {
				return err
			}

			leads, err := s.repos.Leads.LeadsAssignedTo(ctx, employeeID, window)
			if err != nil {
				return apperror.FromQuery("read assigned leads", err)
			}

			var (
				payments              []ClientPayment
				payables, receivables []LedgerEntry
			)
			steps := []step{
				s.ledgerStep(openLedger(CounterpartyEmployee, DirectionPayable, &employeeID), &payables),
				s.ledgerStep(openLedger(CounterpartyEmployee, DirectionReceivable, &employeeID), &receivables),
			}
			if confirmed := leadIDsWithStatus(leads, LeadConfirmed); len(confirmed) > 0 {
				steps = append(steps, s.paymentStep(PaymentFilter{LeadIDs: confirmed}, &payments))
			}
			if err := s.fanout(ctx, steps...); err != nil {
				return err
			}

			profit, loss, net := BuildEmployeeProfitLoss(leads, payments)
			out = &EmployeeSummary{
				Employee:  *profile,
				Period:    req.Kind,
				Window:    window,
				Profit:    profit,
				Loss:      loss,
				NetProfit: net,
				Balance:   BuildBalance(payables, receivables),
			}
			return nil
		})
	}, attribute.String("period", string(req.Kind)), attribute.Int64("employee.id", employeeID))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListLeadCosts lists a resource's cost records, newest first, with the lead
// each belongs to. Without a period every record is listed.
func (s *Service) ListLeadCosts(ctx context.Context, entity Entity, id int64, q LeadCostQuery) (*LeadCostList, error) {
	if !entity.HasCostRecords() {
		return nil, apperror.NewInternal(fmt.Errorf("no cost records for %s", entity))
	}

	var out *LeadCostList
	err := s.observe(ctx, string(entity)+"_lead_costs", func(ctx context.Context) error {
		window, err := resolveOptional(q, s.clock(ctx))
		if err != nil {
			return err
		}
		return s.read(ctx, func(ctx context.Context) error {
			var profile *Profile
			if err := s.profileStep(entity, id, &profile)(ctx); err != nil {
				return err
			}

			var records []CostRecord
			if err := s.costStep(CostFilter{Entity: entity, ResourceID: id, Window: window}, &records)(ctx); err != nil {
				return err
			}

			var leads []Lead
			if _, _, ids := tallyCosts(records); len(ids) > 0 {
				if err := s.leadsStep(ids, &leads)(ctx); err != nil {
					return err
				}
			}

			out = BuildLeadCostList(*profile, window, records, leads)
			return nil
		})
	}, attribute.Int64(string(entity)+".id", id))
	if err != nil {
		return nil, err
	}
	return out, nil
}
