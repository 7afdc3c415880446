package domain

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// EfficiencyFilter scopes one computation request.
type EfficiencyFilter struct {
	DateFrom    time.Time
	DateTo      time.Time
	Client      string
	Product     string
	CategoryID  *int64
	OrderNumber *int64
}

// HasDateRange reports whether both bounds are set.
func (f EfficiencyFilter) HasDateRange() bool {
	return !f.DateFrom.IsZero() && !f.DateTo.IsZero()
}

// Validate checks the required parameters. A date range is required unless
// the request drills into a single order.
func (f EfficiencyFilter) Validate() error {
	if f.OrderNumber != nil {
		if *f.OrderNumber <= 0 {
			return NewValidationError("order_number", "must be a positive integer")
		}
		return nil
	}
	if f.DateFrom.IsZero() {
		return NewValidationError("date_from", "is required")
	}
	if f.DateTo.IsZero() {
		return NewValidationError("date_to", "is required")
	}
	if f.DateFrom.After(f.DateTo) {
		return NewValidationError("date_from", "must not be after date_to")
	}
	return nil
}

// Shift moves the date window back by its own length, producing the
// immediately preceding equal-length period.
func (f EfficiencyFilter) Shift() EfficiencyFilter {
	span := PeriodSpan(f.DateFrom, f.DateTo)
	prev := f
	prev.DateFrom = f.DateFrom.Add(-span)
	prev.DateTo = f.DateTo.Add(-span)
	return prev
}

// PeriodSpan is the window length rounded up to whole days, at least one day.
// An end-of-day bound (23:59:59.999…) therefore counts its day in full.
func PeriodSpan(from, to time.Time) time.Duration {
	const day = 24 * time.Hour
	days := (to.Sub(from) + day - 1) / day
	if days < 1 {
		days = 1
	}
	return days * day
}

// ParseDateRange parses YYYY-MM-DD bounds and normalizes them to start and end of day (UTC).
func ParseDateRange(from, to string) (time.Time, time.Time, error) {
	start, err := parseDay("date_from", from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDay("date_to", to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end = end.Add(24*time.Hour - time.Nanosecond)
	if start.After(end) {
		return time.Time{}, time.Time{}, NewValidationError("date_from", "must not be after date_to")
	}
	return start, end, nil
}

func parseDay(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, NewValidationError(field, "is required")
	}
	if len(value) > len(DateLayout) {
		// accept full ISO timestamps by keeping the date part
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, NewValidationError(field, "invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

// MatchesClient is a case-insensitive substring match; an empty filter matches everything.
func (f EfficiencyFilter) MatchesClient(name string) bool {
	return containsFold(name, f.Client)
}

// MatchesProduct matches the filter against an item code or description.
func (f EfficiencyFilter) MatchesProduct(code, description string) bool {
	if strings.TrimSpace(f.Product) == "" {
		return true
	}
	return containsFold(code, f.Product) || containsFold(description, f.Product)
}

func containsFold(s, substr string) bool {
	substr = strings.TrimSpace(substr)
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
