package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"tourdesk/internal/domain/finance"
	"tourdesk/internal/infrastructure/http/v1/dto"
)

// FinanceService is the reporting surface the handler depends on.
type FinanceService interface {
	GetOverallSummary(ctx context.Context, req finance.PeriodRequest) (*finance.OverallSummary, error)
	GetHotelFinancialSummary(ctx context.Context, hotelID int64, req finance.PeriodRequest) (*finance.ResourceSummary, error)
	GetTransferFinancialSummary(ctx context.Context, transferID int64, req finance.PeriodRequest) (*finance.ResourceSummary, error)
	GetSupplierFinancialSummary(ctx context.Context, supplierID int64, req finance.PeriodRequest) (*finance.SupplierSummary, error)
	GetEmployeeFinancialSummary(ctx context.Context, employeeID int64, req finance.PeriodRequest) (*finance.EmployeeSummary, error)
	ListLeadCosts(ctx context.Context, entity finance.Entity, id int64, q finance.LeadCostQuery) (*finance.LeadCostList, error)
}

// FinanceHandler handles HTTP requests for financial summaries.
type FinanceHandler struct {
	*BaseHandler
	service FinanceService
	loc     *time.Location
}

// NewFinanceHandler creates a new finance handler. Query dates are read in loc.
func NewFinanceHandler(base *BaseHandler, service FinanceService, loc *time.Location) *FinanceHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &FinanceHandler{
		BaseHandler: base,
		service:     service,
		loc:         loc,
	}
}

// bindPeriod reads period, start_date and end_date.
func (h *FinanceHandler) bindPeriod(c *gin.Context) (finance.PeriodRequest, bool) {
	var req dto.PeriodRequest
	if !h.BindQuery(c, &req) {
		return finance.PeriodRequest{}, false
	}
	return req.ToDomain(h.loc), true
}

// GetOverallSummary handles GET /financial-summary/overall
func (h *FinanceHandler) GetOverallSummary(c *gin.Context) {
	req, ok := h.bindPeriod(c)
	if !ok {
		return
	}

	summary, err := h.service.GetOverallSummary(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromOverallSummary(summary))
}

// GetHotelSummary handles GET /hotels/:id/financial-summary
func (h *FinanceHandler) GetHotelSummary(c *gin.Context) {
	h.resourceSummary(c, h.service.GetHotelFinancialSummary)
}

// GetTransferSummary handles GET /transfers/:id/financial-summary
func (h *FinanceHandler) GetTransferSummary(c *gin.Context) {
	h.resourceSummary(c, h.service.GetTransferFinancialSummary)
}

type resourceSummaryFunc func(ctx context.Context, id int64, req finance.PeriodRequest) (*finance.ResourceSummary, error)

func (h *FinanceHandler) resourceSummary(c *gin.Context, get resourceSummaryFunc) {
	id, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	req, ok := h.bindPeriod(c)
	if !ok {
		return
	}

	summary, err := get(c.Request.Context(), id, req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromResourceSummary(summary))
}

// GetSupplierSummary handles GET /suppliers/:id/financial-summary
func (h *FinanceHandler) GetSupplierSummary(c *gin.Context) {
	id, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	req, ok := h.bindPeriod(c)
	if !ok {
		return
	}

	summary, err := h.service.GetSupplierFinancialSummary(c.Request.Context(), id, req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSupplierSummary(summary))
}

// GetEmployeeSummary handles GET /employees/:id/financial-summary
func (h *FinanceHandler) GetEmployeeSummary(c *gin.Context) {
	id, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	req, ok := h.bindPeriod(c)
	if !ok {
		return
	}

	summary, err := h.service.GetEmployeeFinancialSummary(c.Request.Context(), id, req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromEmployeeSummary(summary))
}

// ListLeadCosts returns the handler for GET /{hotels|transfers|suppliers}/:id/lead-costs.
func (h *FinanceHandler) ListLeadCosts(entity finance.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.ParseIDParam(c, "id")
		if !ok {
			return
		}
		var req dto.LeadCostsRequest
		if !h.BindQuery(c, &req) {
			return
		}

		list, err := h.service.ListLeadCosts(c.Request.Context(), entity, id, req.ToDomain(h.loc))
		if err != nil {
			h.Error(c, err)
			return
		}

		h.OK(c, dto.FromLeadCostList(list))
	}
}
