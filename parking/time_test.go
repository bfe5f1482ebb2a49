package parking

import (
	"testing"
	"time"
)

func TestDaysUntil_RoundsPartialDaysUp(t *testing.T) {
	target := NewDate(2026, time.March, 12)

	cases := []struct {
		name string
		now  time.Time
		want int
	}{
		{"exact midnight", time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), 11},
		{"mid-day, partial counts", time.Date(2026, time.March, 1, 18, 0, 0, 0, time.UTC), 11},
		{"one second into the day", time.Date(2026, time.March, 11, 23, 59, 59, 0, time.UTC), 1},
		{"same day", time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC), 0},
		{"date already passed", time.Date(2026, time.March, 13, 6, 0, 0, 0, time.UTC), -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DaysUntil(target, tc.now); got != tc.want {
				t.Errorf("DaysUntil = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestHoursUntil_MeasuresToMidnight(t *testing.T) {
	target := NewDate(2026, time.March, 10)

	now := time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC)
	if got := HoursUntil(target, now); got != 12 {
		t.Errorf("HoursUntil = %v, want 12", got)
	}

	after := time.Date(2026, time.March, 10, 6, 0, 0, 0, time.UTC)
	if got := HoursUntil(target, after); got != -6 {
		t.Errorf("HoursUntil = %v, want -6", got)
	}
}

func TestStartOfWeek_SnapsToSunday(t *testing.T) {
	// 2026-03-04 is a Wednesday; its week starts Sunday 2026-03-01.
	wednesday := NewDate(2026, time.March, 4)
	if got := wednesday.StartOfWeek(); !got.Equal(NewDate(2026, time.March, 1)) {
		t.Errorf("StartOfWeek = %s, want 2026-03-01", got)
	}

	sunday := NewDate(2026, time.March, 1)
	if got := sunday.StartOfWeek(); !got.Equal(sunday) {
		t.Errorf("StartOfWeek of a Sunday = %s, want itself", got)
	}
}

func TestWeeksBetween_CountsSundayBoundaries(t *testing.T) {
	wednesday := NewDate(2026, time.March, 4)

	cases := []struct {
		name string
		to   Date
		want int
	}{
		{"same week", NewDate(2026, time.March, 7), 0},
		{"next week sunday", NewDate(2026, time.March, 8), 1},
		{"next week saturday", NewDate(2026, time.March, 14), 1},
		{"two weeks", NewDate(2026, time.March, 15), 2},
		{"previous week", NewDate(2026, time.February, 28), -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WeeksBetween(wednesday, tc.to); got != tc.want {
				t.Errorf("WeeksBetween = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestParseDate_RejectsMalformedInput(t *testing.T) {
	for _, bad := range []string{"", "03/10/2026", "2026-3-1", "2026-13-01"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q) accepted malformed input", bad)
		}
	}

	d, err := ParseDate("2026-03-10")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}
	if d.String() != "2026-03-10" {
		t.Errorf("round trip = %s", d)
	}
}

func TestEffectiveStatus_DerivesCompletion(t *testing.T) {
	today := NewDate(2026, time.March, 10)

	past := &Reservation{Status: StatusActive, Date: NewDate(2026, time.March, 9)}
	if got := past.EffectiveStatus(today); got != StatusCompleted {
		t.Errorf("past active = %s, want completed", got)
	}

	upcoming := &Reservation{Status: StatusActive, Date: today}
	if got := upcoming.EffectiveStatus(today); got != StatusActive {
		t.Errorf("today's active = %s, want active", got)
	}

	cancelled := &Reservation{Status: StatusCancelled, Date: NewDate(2026, time.March, 9)}
	if got := cancelled.EffectiveStatus(today); got != StatusCancelled {
		t.Errorf("past cancelled = %s, want cancelled", got)
	}
}
