package finance

import (
	"time"

	"tourdesk/internal/core/apperror"
	"tourdesk/internal/core/types"
)

// Resolve turns a period kind into a concrete inclusive date window relative to now.
//
// When both start and end are given they are used as-is (date part only) and
// end must not precede start. Otherwise the canonical window containing now is
// returned: weeks run Monday through Sunday, months and years are calendar
// months and years. Dates are taken in now's location.
func Resolve(kind PeriodKind, now time.Time, start, end *time.Time) (PeriodWindow, error) {
	fields := apperror.FieldErrors{}
	if kind == "" {
		fields.Add("period", "The period field is required.")
	} else if !kind.Valid() {
		fields.Add("period", "The selected period is invalid.")
	}

	var explicit *PeriodWindow
	if start != nil && end != nil {
		w := PeriodWindow{Start: types.TruncateDay(*start), End: types.TruncateDay(*end)}
		if w.End.Before(w.Start) {
			fields.Add("end_date", "The end date must be a date after or equal to start date.")
		}
		explicit = &w
	}

	if len(fields) > 0 {
		return PeriodWindow{}, apperror.NewFieldValidation(fields)
	}
	if explicit != nil {
		return *explicit, nil
	}
	return canonicalWindow(kind, now), nil
}

func canonicalWindow(kind PeriodKind, now time.Time) PeriodWindow {
	today := types.TruncateDay(now)
	switch kind {
	case PeriodWeekly:
		// Weekday() is 0 for Sunday; shift so Monday is day 0.
		offset := (int(today.Weekday()) + 6) % 7
		monday := today.AddDate(0, 0, -offset)
		return PeriodWindow{Start: monday, End: monday.AddDate(0, 0, 6)}
	case PeriodYearly:
		first := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
		return PeriodWindow{Start: first, End: first.AddDate(1, 0, -1)}
	default:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return PeriodWindow{Start: first, End: first.AddDate(0, 1, -1)}
	}
}

// resolveOptional is used by listings where the period may be omitted
// entirely. A nil window means "no date filter".
func resolveOptional(q LeadCostQuery, now time.Time) (*PeriodWindow, error) {
	if q.Kind != "" && !q.Kind.Valid() {
		return nil, apperror.NewFieldError("period", "The selected period is invalid.")
	}
	if q.Start != nil && q.End != nil {
		w, err := Resolve(PeriodMonthly, now, q.Start, q.End)
		if err != nil {
			return nil, err
		}
		return &w, nil
	}
	if q.Kind == "" {
		return nil, nil
	}
	w := canonicalWindow(q.Kind, now)
	return &w, nil
}
