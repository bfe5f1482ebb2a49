package parking

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar date, no time component
// =============================================================================

// Date is a date-only value. Reservations are pinned to dates, never to
// times of day; all comparisons normalize to midnight UTC.
type Date struct {
	Time time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date { return DateOf(time.Now().UTC()) }

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return Date{Time: t}, nil
}

// Comparison
func (d Date) Before(other Date) bool { return d.midnight().Before(other.midnight()) }
func (d Date) After(other Date) bool  { return d.midnight().After(other.midnight()) }
func (d Date) Equal(other Date) bool  { return d.midnight().Equal(other.midnight()) }
func (d Date) IsZero() bool           { return d.Time.IsZero() }

func (d Date) midnight() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Midnight returns the instant the date begins, UTC.
func (d Date) Midnight() time.Time { return d.midnight() }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

// Properties
func (d Date) Weekday() time.Weekday { return d.midnight().Weekday() }
func (d Date) String() string        { return d.midnight().Format(dateLayout) }

// StartOfWeek returns the Sunday on or before the date. Weeks start Sunday.
func (d Date) StartOfWeek() Date {
	return Date{Time: d.midnight().AddDate(0, 0, -int(d.Weekday()))}
}

// =============================================================================
// CLOCK ARITHMETIC - Leaf dependencies of the policy engine
// =============================================================================

// DaysUntil returns the number of calendar days from now until the date,
// rounding up: any partial day counts as a full day ahead. A date earlier
// than now yields a non-positive result.
func DaysUntil(date Date, now time.Time) int {
	diff := date.midnight().Sub(now.UTC())
	days := int(diff.Hours() / 24)
	if diff > time.Duration(days)*24*time.Hour {
		days++
	}
	return days
}

// HoursUntil returns the hours from now until the date's midnight. Negative
// once the date has started.
func HoursUntil(date Date, now time.Time) float64 {
	return date.midnight().Sub(now.UTC()).Hours()
}

// WeeksBetween returns the number of Sunday-aligned week boundaries between
// the week containing from and the week containing to. Same week yields 0.
func WeeksBetween(from, to Date) int {
	diff := to.StartOfWeek().midnight().Sub(from.StartOfWeek().midnight())
	return int(diff.Hours() / (24 * 7))
}
