/*
Package parking provides the core reservation and penalty engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking
  parking-slot reservations and the penalty points they generate. Users
  reserve one of a fixed set of named slots for a calendar date; booking
  too far in advance or cancelling too close to the date accrues penalty
  points, and crossing a configured threshold suspends the account.

KEY CONCEPTS IN THIS FILE (types.go):
  - Points: A penalty point quantity (possibly fractional)
  - User: An account with a running penalty point total
  - Reservation: One slot pinned to one calendar date
  - Penalty: A ledger entry charging points to a user

DESIGN PRINCIPLES:
  1. Reconciliation: User.PenaltyPoints always equals the sum of the
     user's penalty rows; charges are reversed by deleting the row and
     subtracting its points, never by editing
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Purity: Policy decisions (policy.go) never touch storage

SEE ALSO:
  - policy.go: Booking and cancellation penalty rules
  - ledger.go: The stateful manager keeping points consistent
  - store.go: Persistence contract
*/
package parking

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// POINTS - Penalty point quantity
// =============================================================================

type Points struct {
	Value decimal.Decimal
}

func NewPoints(value float64) Points    { return Points{Value: decimal.NewFromFloat(value)} }
func NewPointsFromInt(value int) Points { return Points{Value: decimal.NewFromInt(int64(value))} }
func ZeroPoints() Points                { return Points{Value: decimal.Zero} }

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (p Points) Add(o Points) Points          { return Points{Value: p.Value.Add(o.Value)} }
func (p Points) Sub(o Points) Points          { return Points{Value: p.Value.Sub(o.Value)} }
func (p Points) Mul(s decimal.Decimal) Points { return Points{Value: p.Value.Mul(s)} }
func (p Points) Neg() Points                  { return Points{Value: p.Value.Neg()} }
func (p Points) IsZero() bool                 { return p.Value.IsZero() }
func (p Points) IsNegative() bool             { return p.Value.IsNegative() }
func (p Points) Equal(o Points) bool          { return p.Value.Equal(o.Value) }
func (p Points) GreaterThanOrEqual(o Points) bool {
	return p.Value.GreaterThanOrEqual(o.Value)
}
func (p Points) Float64() float64 { f, _ := p.Value.Float64(); return f }
func (p Points) String() string   { return p.Value.String() }

// ClampNonNegative floors the value at zero. Penalty totals never go negative,
// even when a reversal is larger than the remaining balance.
func (p Points) ClampNonNegative() Points {
	if p.Value.IsNegative() {
		return ZeroPoints()
	}
	return p
}

// =============================================================================
// SLOTS - Fixed closed set of parking-space identifiers
// =============================================================================

// Slots is the full set of reservable parking spaces. The set is a deployment
// constant, not data.
var Slots = []string{"24", "25", "37", "38", "39", "40", "41", "42"}

func IsValidSlot(slot string) bool {
	for _, s := range Slots {
		if s == slot {
			return true
		}
	}
	return false
}

// =============================================================================
// USER - Account with penalty accumulator
// =============================================================================

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type User struct {
	ID            string
	Username      string
	Password      string // opaque secret, compared verbatim at login
	Role          Role
	PenaltyPoints Points
	Suspended     bool
	CreatedAt     time.Time
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// =============================================================================
// RESERVATION - One slot, one calendar date, one owner
// =============================================================================

type ReservationStatus string

const (
	StatusActive    ReservationStatus = "active"
	StatusCancelled ReservationStatus = "cancelled"
	StatusCompleted ReservationStatus = "completed"
)

type Reservation struct {
	ID        string
	UserID    string
	Slot      string
	Date      Date
	Status    ReservationStatus
	CreatedAt time.Time
}

// EffectiveStatus derives completion for past-dated active reservations.
// The stored status is authoritative for cancelled/completed; an active
// reservation whose date has passed reads as completed even before the
// sweep persists it.
func (r *Reservation) EffectiveStatus(today Date) ReservationStatus {
	if r.Status == StatusActive && r.Date.Before(today) {
		return StatusCompleted
	}
	return r.Status
}

// =============================================================================
// PENALTY - Ledger entry charging points to a user
// =============================================================================

type PenaltyType string

const (
	PenaltyFutureBooking    PenaltyType = "future-booking"
	PenaltyLateCancellation PenaltyType = "late-cancellation"
)

type Penalty struct {
	ID            string
	UserID        string
	ReservationID string // empty when not tied to a reservation
	Type          PenaltyType
	Points        Points
	Reason        string
	CreatedAt     time.Time
}

// SumPenalties totals the points over a set of ledger rows. The result must
// match the owning user's PenaltyPoints accumulator.
func SumPenalties(penalties []Penalty) Points {
	total := ZeroPoints()
	for _, p := range penalties {
		total = total.Add(p.Points)
	}
	return total
}
