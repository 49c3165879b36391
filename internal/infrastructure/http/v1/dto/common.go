// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"tourdesk/internal/core/types"
	"tourdesk/internal/domain/finance"
)

// --- Period request ---

// PeriodRequest carries the period of a summary endpoint.
type PeriodRequest struct {
	Period    string `form:"period" binding:"required,oneof=weekly monthly yearly"`
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

// ToDomain converts the request. Dates were already format-checked by binding.
func (r PeriodRequest) ToDomain(loc *time.Location) finance.PeriodRequest {
	start, end := parseRange(r.StartDate, r.EndDate, loc)
	return finance.PeriodRequest{Kind: finance.PeriodKind(r.Period), Start: start, End: end}
}

// LeadCostsRequest carries the optional period of a cost listing.
type LeadCostsRequest struct {
	Period    string `form:"period" binding:"omitempty,oneof=weekly monthly yearly"`
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

// ToDomain converts the request.
func (r LeadCostsRequest) ToDomain(loc *time.Location) finance.LeadCostQuery {
	start, end := parseRange(r.StartDate, r.EndDate, loc)
	return finance.LeadCostQuery{Kind: finance.PeriodKind(r.Period), Start: start, End: end}
}

func parseRange(start, end string, loc *time.Location) (*time.Time, *time.Time) {
	return parseOptionalDate(start, loc), parseOptionalDate(end, loc)
}

func parseOptionalDate(s string, loc *time.Location) *time.Time {
	if s == "" {
		return nil
	}
	t, err := types.ParseDate(s, loc)
	if err != nil {
		return nil
	}
	return &t
}

// --- Shared response pieces ---

// DateRange is the inclusive window a report covers.
type DateRange struct {
	StartDate types.Date `json:"start_date"`
	EndDate   types.Date `json:"end_date"`
}

// FromWindow converts a period window.
func FromWindow(w finance.PeriodWindow) DateRange {
	return DateRange{StartDate: types.Date(w.Start), EndDate: types.Date(w.End)}
}

// ProfileResponse is the header of the entity a report is about.
type ProfileResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Destination string `json:"destination,omitempty"`
	Category    string `json:"category,omitempty"`
	Status      string `json:"status,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Email       string `json:"email,omitempty"`
}

// FromProfile converts a directory profile.
func FromProfile(p finance.Profile) *ProfileResponse {
	return &ProfileResponse{
		ID:          p.ID,
		Name:        p.Name,
		Destination: p.Destination,
		Category:    p.Category,
		Status:      p.Status,
		CompanyName: p.CompanyName,
		Email:       p.Email,
	}
}

// ResourceRef puts the profile under the key of its entity.
type ResourceRef struct {
	Hotel    *ProfileResponse `json:"hotel,omitempty"`
	Vehicle  *ProfileResponse `json:"vehicle,omitempty"`
	Supplier *ProfileResponse `json:"supplier,omitempty"`
	Employee *ProfileResponse `json:"employee,omitempty"`
}

// NewResourceRef keys p by its entity.
func NewResourceRef(p finance.Profile) ResourceRef {
	var ref ResourceRef
	switch p.Entity {
	case finance.EntityHotel:
		ref.Hotel = FromProfile(p)
	case finance.EntityTransfer:
		ref.Vehicle = FromProfile(p)
	case finance.EntitySupplier:
		ref.Supplier = FromProfile(p)
	case finance.EntityEmployee:
		ref.Employee = FromProfile(p)
	}
	return ref
}
