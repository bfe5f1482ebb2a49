/*
policy.go - Penalty policy engine

PURPOSE:
  Pure decision functions answering two questions:
    1. How many points does booking this far ahead cost?
    2. How many points does cancelling this close to the date cost?
  No side effects, no I/O, no storage. The ledger manager feeds in the
  reservation date, the current time, and the configured multiplier.

BOOKING POLICIES:
  Two incompatible definitions of "how far ahead" exist and materially
  change point totals, so exactly one is active per deployment, selected
  by the PENALTY_POLICY setting:

  TenDayBucketPolicy (default):
    daysAhead = ceil(days until the date). The first 10 days are a free
    grace window. Beyond it, every started 10-day period costs
    multiplier points: 10 days out is free, 11 days is 1 period,
    20 days is still 1 period, 21 days is 2.

  WeekAlignedPolicy:
    Advance is measured in Sunday-aligned calendar weeks between the
    current week and the reservation's week. The first week boundary is
    free; each additional week costs multiplier points.

  The two are never mixed: the ledger resolves one policy per operation
  and the preview path resolves through the same code.

CANCELLATION RULE:
  A single flat rule, not pluggable: cancelling less than 12 hours
  before the reservation's midnight costs the configured flat
  multiplier. Lateness does not scale the charge.

SEE ALSO:
  - time.go: DaysUntil / WeeksBetween arithmetic
  - ledger.go: Applies decisions to user accounts
*/
package parking

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PENALTY DECISION - Output of every policy evaluation
// =============================================================================

// PenaltyDecision is the outcome of a policy evaluation. Exempt decisions
// carry zero points and must not produce ledger entries.
type PenaltyDecision struct {
	Points Points
	Reason string
	Exempt bool
}

func exemptDecision(reason string) PenaltyDecision {
	return PenaltyDecision{Points: ZeroPoints(), Reason: reason, Exempt: true}
}

// =============================================================================
// BOOKING POLICIES
// =============================================================================

// BookingPolicy decides the advance-booking penalty for a reservation date
// relative to now. Implementations are pure and deterministic.
type BookingPolicy interface {
	// EvaluateBooking returns the penalty for booking date as seen from now.
	EvaluateBooking(date Date, now time.Time, multiplier decimal.Decimal) PenaltyDecision

	// Name is the configuration identifier for this policy.
	Name() string
}

// Policy names accepted by the PENALTY_POLICY setting.
const (
	PolicyTenDayBucket = "ten-day"
	PolicyWeekAligned  = "weekly"
)

// GraceDays is the penalty-free booking window shared by the default booking
// policy and the cancellation reversal rule in the ledger. A reservation
// within this many days of now incurs no advance-booking charge.
const GraceDays = 10

// BookingPolicyByName resolves a policy identifier to its implementation.
// Unknown names fall back to the ten-day default so a mistyped setting can
// never silently mix variants.
func BookingPolicyByName(name string) BookingPolicy {
	if name == PolicyWeekAligned {
		return WeekAlignedPolicy{}
	}
	return TenDayBucketPolicy{}
}

// -----------------------------------------------------------------------------
// Ten-day bucket policy (default)
// -----------------------------------------------------------------------------

type TenDayBucketPolicy struct{}

func (TenDayBucketPolicy) Name() string { return PolicyTenDayBucket }

func (TenDayBucketPolicy) EvaluateBooking(date Date, now time.Time, multiplier decimal.Decimal) PenaltyDecision {
	daysAhead := DaysUntil(date, now)
	if daysAhead <= GraceDays {
		return exemptDecision(fmt.Sprintf("booked %d days ahead, within the %d-day grace window", daysAhead, GraceDays))
	}

	// Number of started 10-day periods beyond the first free one:
	// 11..20 days -> 1, 21..30 -> 2, ...
	periods := (daysAhead + GraceDays - 1) / GraceDays
	periods--

	points := NewPointsFromInt(periods).Mul(multiplier)
	return PenaltyDecision{
		Points: points,
		Reason: fmt.Sprintf("booked %d days ahead: %d %s beyond the grace window", daysAhead, periods, pluralPeriods(periods)),
	}
}

// -----------------------------------------------------------------------------
// Week-aligned policy (alternative variant)
// -----------------------------------------------------------------------------

type WeekAlignedPolicy struct{}

func (WeekAlignedPolicy) Name() string { return PolicyWeekAligned }

func (WeekAlignedPolicy) EvaluateBooking(date Date, now time.Time, multiplier decimal.Decimal) PenaltyDecision {
	weeksAhead := WeeksBetween(DateOf(now.UTC()), date)
	if weeksAhead <= 1 {
		return exemptDecision(fmt.Sprintf("booked %d weeks ahead, within the one-week grace window", weeksAhead))
	}

	periods := weeksAhead - 1
	points := NewPointsFromInt(periods).Mul(multiplier)
	return PenaltyDecision{
		Points: points,
		Reason: fmt.Sprintf("booked %d weeks ahead: %d %s beyond the grace window", weeksAhead, periods, pluralPeriods(periods)),
	}
}

func pluralPeriods(n int) string {
	if n == 1 {
		return "penalty period"
	}
	return "penalty periods"
}

// =============================================================================
// CANCELLATION RULE
// =============================================================================

// LateCancellationHours is the boundary below which a cancellation is late.
const LateCancellationHours = 12

// EvaluateCancellation returns the penalty for cancelling a reservation at
// now. Cancelling at least 12 hours before the reservation's midnight is
// free; anything closer costs the flat multiplier regardless of how late.
func EvaluateCancellation(date Date, now time.Time, multiplier decimal.Decimal) PenaltyDecision {
	hoursUntil := HoursUntil(date, now)
	if hoursUntil >= LateCancellationHours {
		return exemptDecision(fmt.Sprintf("cancelled %.0f hours before reservation", hoursUntil))
	}

	return PenaltyDecision{
		Points: Points{Value: multiplier},
		Reason: "cancelled less than 12 hours before reservation",
	}
}
