// Package model defines the core domain models used throughout the
// application: simulation results, calendar months, claim documents and
// recoupment decision documents.
package model

import (
	"fmt"
	"time"
)

// Month is a single calendar month. Simulations, timelines and claims are
// all keyed by month; a month that is absent from a list means "no
// activity", which is distinct from a month present with a zero amount.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses "2006-01" formatted input.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Start returns the first day of the month (UTC midnight).
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the month (UTC midnight).
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, -1)
}

// Range returns the full-month date range.
func (m Month) Range() DateRange {
	return DateRange{From: m.Start(), To: m.End()}
}

// Before reports whether m is chronologically before other.
func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// MarshalJSON encodes the month as "2006-01".
func (m Month) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON decodes a "2006-01" formatted month.
func (m *Month) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid month literal: %s", data)
	}
	parsed, err := ParseMonth(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// DateRange is an inclusive day range. Simulated lines carry their own
// effective range, which is not guaranteed to align with month boundaries.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Equal reports whether both endpoints match to the day.
func (r DateRange) Equal(other DateRange) bool {
	return sameDay(r.From, other.From) && sameDay(r.To, other.To)
}

// IsZero reports whether the range is unset.
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Overlap returns the intersection of the two ranges, if any.
func (r DateRange) Overlap(other DateRange) (DateRange, bool) {
	from := r.From
	if other.From.After(from) {
		from = other.From
	}
	to := r.To
	if other.To.Before(to) {
		to = other.To
	}
	if to.Before(from) {
		return DateRange{}, false
	}
	return DateRange{From: from, To: to}, true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MonthAmount pairs a month with an amount in whole kroner.
type MonthAmount struct {
	Period Month
	Amount int64
}

// MonthAmounts is an ordered list of per-month amounts.
type MonthAmounts []MonthAmount

// Sum returns the total across all months.
func (m MonthAmounts) Sum() int64 {
	var sum int64
	for _, ma := range m {
		sum += ma.Amount
	}
	return sum
}

// Equal reports whether both lists contain the same months with the same
// amounts, in the same order. Used for the claim-vs-simulation
// consistency check, where order carries meaning.
func (m MonthAmounts) Equal(other MonthAmounts) bool {
	if len(m) != len(other) {
		return false
	}
	for i := range m {
		if m[i] != other[i] {
			return false
		}
	}
	return true
}
