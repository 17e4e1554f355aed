package billing

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD KEY - The (month, year) pair identifying a billing cycle
// =============================================================================

// PeriodKey identifies one billing cycle. It is immutable and used purely
// as a lookup/uniqueness key: records are unique per (entity, period, family).
type PeriodKey struct {
	Month time.Month
	Year  int
}

func NewPeriodKey(month time.Month, year int) PeriodKey {
	return PeriodKey{Month: month, Year: year}
}

// CurrentPeriod returns the period containing now.
func CurrentPeriod(now time.Time) PeriodKey {
	return PeriodKey{Month: now.Month(), Year: now.Year()}
}

// Valid reports whether the key names a real month and a plausible year.
func (p PeriodKey) Valid() bool {
	return p.Month >= time.January && p.Month <= time.December && p.Year > 0
}

// Start returns the first day of the period (UTC midnight).
func (p PeriodKey) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the period (UTC midnight).
func (p PeriodKey) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

// Contains reports whether date falls within the period.
func (p PeriodKey) Contains(date time.Time) bool {
	return date.Year() == p.Year && date.Month() == p.Month
}

func (p PeriodKey) Next() PeriodKey {
	t := p.Start().AddDate(0, 1, 0)
	return PeriodKey{Month: t.Month(), Year: t.Year()}
}

func (p PeriodKey) Previous() PeriodKey {
	t := p.Start().AddDate(0, -1, 0)
	return PeriodKey{Month: t.Month(), Year: t.Year()}
}

func (p PeriodKey) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// =============================================================================
// DAY HELPERS - Attendance records key on a single day, not a period
// =============================================================================

// Day truncates t to UTC midnight. All day-keyed lookups normalize through
// this so two timestamps on the same calendar day compare equal.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayString formats a day key the way stores persist it.
func DayString(t time.Time) string {
	return Day(t).Format("2006-01-02")
}
