package parking

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

func one() decimal.Decimal { return decimal.NewFromInt(1) }

// =============================================================================
// TEN-DAY BUCKET POLICY
// =============================================================================

func TestTenDayPolicy_GraceWindowBoundaries(t *testing.T) {
	// GIVEN: now is midnight UTC on 2026-03-01
	// WHEN: booking 10, 11, 20 and 21 days ahead
	// THEN: 10 days is free; 11 and 20 cost one period; 21 costs two

	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	policy := TenDayBucketPolicy{}

	cases := []struct {
		name   string
		date   string
		points int
		exempt bool
	}{
		{"same day", "2026-03-01", 0, true},
		{"10 days ahead, last free day", "2026-03-11", 0, true},
		{"11 days ahead, first charged day", "2026-03-12", 1, false},
		{"20 days ahead, still one period", "2026-03-21", 1, false},
		{"21 days ahead, second period starts", "2026-03-22", 2, false},
		{"31 days ahead, third period", "2026-04-01", 3, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := policy.EvaluateBooking(mustDate(t, tc.date), now, one())
			if decision.Exempt != tc.exempt {
				t.Errorf("exempt = %v, want %v", decision.Exempt, tc.exempt)
			}
			if !decision.Points.Equal(NewPointsFromInt(tc.points)) {
				t.Errorf("points = %s, want %d", decision.Points, tc.points)
			}
		})
	}
}

func TestTenDayPolicy_PartialDayRoundsUp(t *testing.T) {
	// GIVEN: now is 18:00, so the 11th calendar day ahead is only
	//        10 days 6 hours away by the clock
	// WHEN: evaluating that date
	// THEN: partial days count as full, so it is 11 days ahead and charged

	now := time.Date(2026, time.March, 1, 18, 0, 0, 0, time.UTC)
	decision := TenDayBucketPolicy{}.EvaluateBooking(mustDate(t, "2026-03-12"), now, one())

	if decision.Exempt {
		t.Fatal("expected a charge, got exemption")
	}
	if !decision.Points.Equal(NewPointsFromInt(1)) {
		t.Errorf("points = %s, want 1", decision.Points)
	}
}

func TestTenDayPolicy_MultiplierScalesPoints(t *testing.T) {
	// GIVEN: a multiplier of 2.5
	// WHEN: booking 21 days ahead (2 periods)
	// THEN: the charge is 5 points

	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	multiplier := decimal.NewFromFloat(2.5)

	decision := TenDayBucketPolicy{}.EvaluateBooking(mustDate(t, "2026-03-22"), now, multiplier)
	if !decision.Points.Equal(NewPoints(5)) {
		t.Errorf("points = %s, want 5", decision.Points)
	}
}

// =============================================================================
// WEEK-ALIGNED POLICY
// =============================================================================

func TestWeekAlignedPolicy_SundayBoundaries(t *testing.T) {
	// GIVEN: now is Wednesday 2026-03-04 (week starting Sunday 2026-03-01)
	// WHEN: booking in the same week, next week, and further out
	// THEN: up to one week boundary is free, each extra week costs one point

	now := time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)
	policy := WeekAlignedPolicy{}

	cases := []struct {
		name   string
		date   string
		points int
		exempt bool
	}{
		{"same week saturday", "2026-03-07", 0, true},
		{"next week sunday", "2026-03-08", 0, true},
		{"next week saturday", "2026-03-14", 0, true},
		{"two weeks out", "2026-03-15", 1, false},
		{"four weeks out", "2026-03-29", 3, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := policy.EvaluateBooking(mustDate(t, tc.date), now, one())
			if decision.Exempt != tc.exempt {
				t.Errorf("exempt = %v, want %v", decision.Exempt, tc.exempt)
			}
			if !decision.Points.Equal(NewPointsFromInt(tc.points)) {
				t.Errorf("points = %s, want %d", decision.Points, tc.points)
			}
		})
	}
}

func TestBookingPolicyByName_UnknownFallsBackToDefault(t *testing.T) {
	if name := BookingPolicyByName("nonsense").Name(); name != PolicyTenDayBucket {
		t.Errorf("fallback policy = %s, want %s", name, PolicyTenDayBucket)
	}
	if name := BookingPolicyByName(PolicyWeekAligned).Name(); name != PolicyWeekAligned {
		t.Errorf("policy = %s, want %s", name, PolicyWeekAligned)
	}
}

// =============================================================================
// CANCELLATION RULE
// =============================================================================

func TestEvaluateCancellation_TwelveHourBoundary(t *testing.T) {
	// GIVEN: a reservation for 2026-03-10 (midnight UTC)
	// WHEN: cancelling at exactly 12h before, just under 12h, and after start
	// THEN: exactly 12h is free; anything closer costs the flat multiplier

	date := mustDate(t, "2026-03-10")

	cases := []struct {
		name   string
		now    time.Time
		exempt bool
	}{
		{"exactly 12 hours before", time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC), true},
		{"one minute inside the window", time.Date(2026, time.March, 9, 12, 1, 0, 0, time.UTC), false},
		{"one hour before", time.Date(2026, time.March, 9, 23, 0, 0, 0, time.UTC), false},
		{"after the date started", time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC), false},
		{"a day ahead", time.Date(2026, time.March, 8, 12, 0, 0, 0, time.UTC), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := EvaluateCancellation(date, tc.now, one())
			if decision.Exempt != tc.exempt {
				t.Errorf("exempt = %v, want %v", decision.Exempt, tc.exempt)
			}
			if !tc.exempt {
				if !decision.Points.Equal(NewPointsFromInt(1)) {
					t.Errorf("points = %s, want 1", decision.Points)
				}
				if decision.Reason != "cancelled less than 12 hours before reservation" {
					t.Errorf("unexpected reason %q", decision.Reason)
				}
			}
		})
	}
}

func TestEvaluateCancellation_FlatChargeDoesNotScale(t *testing.T) {
	// GIVEN: two cancellations, one 11 hours out and one 1 hour out
	// WHEN: evaluated with the same multiplier
	// THEN: both cost exactly the multiplier

	date := mustDate(t, "2026-03-10")
	multiplier := decimal.NewFromInt(3)

	early := EvaluateCancellation(date, time.Date(2026, time.March, 9, 13, 0, 0, 0, time.UTC), multiplier)
	late := EvaluateCancellation(date, time.Date(2026, time.March, 9, 23, 0, 0, 0, time.UTC), multiplier)

	if !early.Points.Equal(late.Points) {
		t.Errorf("charges differ: %s vs %s", early.Points, late.Points)
	}
	if !early.Points.Equal(NewPointsFromInt(3)) {
		t.Errorf("points = %s, want 3", early.Points)
	}
}
