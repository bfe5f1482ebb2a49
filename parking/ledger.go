/*
ledger.go - Reservation / penalty ledger manager

PURPOSE:
  The stateful half of the core. The policy engine (policy.go) decides
  how many points an action costs; this manager applies those decisions
  so that three pieces of state stay mutually consistent:
    1. Reservation.Status transitions
    2. The Penalty ledger rows
    3. User.PenaltyPoints and the derived Suspended flag

CRITICAL INVARIANTS:
  1. RECONCILED: User.PenaltyPoints == sum of the user's penalty rows
  2. NO DOUBLE CHARGE: cancelling a non-active reservation is rejected
  3. NO DOUBLE REFUND: a reversal deletes the penalty row it refunds
  4. FLOOR AT ZERO: a reversal never drives the total negative
  5. ONE ACTIVE HOLDER: at most one active reservation per (slot, date)

CANCELLATION RULES:
  A cancellation resolves to exactly one of two outcomes:
    - Late (less than 12 hours before the date starts): a flat
      late-cancellation penalty is added; any booking charge stands.
    - Timely (12 hours or more): any future-booking penalty attached
      to the reservation is refunded and its row deleted, however far
      away the date now is.

CONCURRENCY:
  Each create/cancel runs its read-modify-write sequence under keyed
  mutexes (per user, per slot+date), so two bookings racing for the
  same pair serialize on the "slot free" check. Cancellation re-reads
  the reservation after taking the lock, so racing cancels cannot both
  observe it active. The SQL backend also carries a unique index on
  active (slot, date) as a second line.

CONSISTENCY MODEL:
  Best effort, not ACID. A penalty-application failure after a
  reservation is persisted is logged and does not roll the reservation
  back. Validation failures reject before any mutation.

SEE ALSO:
  - policy.go: Pure penalty decisions
  - settings.go: Multiplier / threshold / policy resolution
  - store.go: Persistence contract
*/
package parking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// =============================================================================
// LEDGER - The only writer of penalty and suspension state
// =============================================================================

type Ledger struct {
	store Store
	log   zerolog.Logger
	clock func() time.Time
	locks *keyedMutex
}

func NewLedger(store Store, logger zerolog.Logger) *Ledger {
	return &Ledger{
		store: store,
		log:   logger,
		clock: time.Now,
		locks: newKeyedMutex(),
	}
}

// SetClock overrides the time source. Tests pin "now" with this.
func (l *Ledger) SetClock(clock func() time.Time) { l.clock = clock }

// =============================================================================
// RESERVATION OPERATIONS
// =============================================================================

// CreateReservation books a slot for a date on behalf of a user, applying
// any advance-booking penalty and the suspension trigger. The returned
// reservation never carries penalty info inline; callers query penalties
// separately.
func (l *Ledger) CreateReservation(ctx context.Context, userID, slot string, date Date) (*Reservation, error) {
	if !IsValidSlot(slot) {
		return nil, &ValidationError{Field: "slot", Message: fmt.Sprintf("%q is not a parking slot", slot)}
	}
	if date.IsZero() {
		return nil, &ValidationError{Field: "date", Message: "date is required"}
	}

	now := l.clock()
	if date.Before(DateOf(now.UTC())) {
		return nil, &ValidationError{Field: "date", Message: "date is in the past"}
	}

	unlock := l.locks.lock(userKey(userID), slotKey(slot, date))
	defer unlock()

	user, err := l.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Suspended {
		return nil, ErrSuspended
	}

	existing, err := l.store.FindActiveBySlotAndDate(ctx, slot, date)
	if err == nil {
		return nil, &SlotTakenError{Slot: slot, Date: date, ReservationID: existing.ID}
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	reservation := &Reservation{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Slot:      slot,
		Date:      date,
		Status:    StatusActive,
		CreatedAt: now,
	}
	if err := l.store.CreateReservation(ctx, reservation); err != nil {
		return nil, err
	}

	// The reservation stands even if the penalty cannot be applied.
	if err := l.applyBookingPenalty(ctx, user, reservation, now); err != nil {
		l.log.Error().Err(err).
			Str("user_id", user.ID).
			Str("reservation_id", reservation.ID).
			Msg("booking penalty not applied")
	}

	return reservation, nil
}

// CancelReservation transitions an active reservation to cancelled, then
// either charges a late-cancellation penalty or reverses the advance-booking
// one, depending on which side of the 12-hour line the cancellation falls.
func (l *Ledger) CancelReservation(ctx context.Context, reservationID string) (*Reservation, error) {
	reservation, err := l.store.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	unlock := l.locks.lock(userKey(reservation.UserID), slotKey(reservation.Slot, reservation.Date))
	defer unlock()

	// Re-read under the lock: a racing cancel may have flipped the status
	// between the first fetch and lock acquisition.
	reservation, err = l.store.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation.Status != StatusActive {
		return nil, ErrNotActive
	}

	user, err := l.store.GetUser(ctx, reservation.UserID)
	if err != nil {
		return nil, err
	}
	if user.Suspended {
		return nil, ErrSuspended
	}

	reservation.Status = StatusCancelled
	if err := l.store.UpdateReservation(ctx, reservation); err != nil {
		return nil, err
	}

	now := l.clock()

	multiplier, err := LateCancelMultiplier(ctx, l.store)
	if err != nil {
		// The cancellation is already persisted; from here the penalty
		// outcome is best effort, like the booking path.
		l.log.Error().Err(err).
			Str("reservation_id", reservation.ID).
			Msg("cancellation penalty not evaluated")
		return reservation, nil
	}

	decision := EvaluateCancellation(reservation.Date, now, multiplier)
	if decision.Exempt {
		// A timely cancellation hands back the advance-booking charge,
		// however close to the date it happens.
		if err := l.reverseBookingPenalty(ctx, user, reservation.ID); err != nil {
			l.log.Error().Err(err).
				Str("reservation_id", reservation.ID).
				Msg("booking penalty not reversed")
		}
		return reservation, nil
	}

	penalty := &Penalty{
		UserID:        user.ID,
		ReservationID: reservation.ID,
		Type:          PenaltyLateCancellation,
		Points:        decision.Points,
		Reason:        decision.Reason,
	}
	if err := l.chargeUser(ctx, user, penalty, now); err != nil {
		l.log.Error().Err(err).
			Str("reservation_id", reservation.ID).
			Msg("late-cancellation penalty not applied")
	}

	return reservation, nil
}

// PreviewBooking returns the penalty a booking for date would incur right
// now, resolved through the same policy path as CreateReservation. Pure
// with respect to state: nothing is persisted.
func (l *Ledger) PreviewBooking(ctx context.Context, date Date) (PenaltyDecision, error) {
	policy, err := ActiveBookingPolicy(ctx, l.store)
	if err != nil {
		return PenaltyDecision{}, err
	}
	multiplier, err := BookingMultiplier(ctx, l.store)
	if err != nil {
		return PenaltyDecision{}, err
	}
	return policy.EvaluateBooking(date, l.clock(), multiplier), nil
}

// CompletePastReservations marks active reservations whose date has passed
// as completed. Advisory housekeeping run by the scheduler; reads derive the
// same status regardless.
func (l *Ledger) CompletePastReservations(ctx context.Context) (int, error) {
	reservations, err := l.store.ListReservations(ctx)
	if err != nil {
		return 0, err
	}

	today := DateOf(l.clock().UTC())
	completed := 0
	for i := range reservations {
		r := &reservations[i]
		if r.Status != StatusActive || !r.Date.Before(today) {
			continue
		}
		r.Status = StatusCompleted
		if err := l.store.UpdateReservation(ctx, r); err != nil {
			return completed, err
		}
		completed++
	}
	return completed, nil
}

// =============================================================================
// PENALTY APPLICATION
// =============================================================================

func (l *Ledger) applyBookingPenalty(ctx context.Context, user *User, reservation *Reservation, now time.Time) error {
	policy, err := ActiveBookingPolicy(ctx, l.store)
	if err != nil {
		return err
	}
	multiplier, err := BookingMultiplier(ctx, l.store)
	if err != nil {
		return err
	}

	decision := policy.EvaluateBooking(reservation.Date, now, multiplier)
	if decision.Exempt {
		return nil
	}

	penalty := &Penalty{
		UserID:        user.ID,
		ReservationID: reservation.ID,
		Type:          PenaltyFutureBooking,
		Points:        decision.Points,
		Reason:        decision.Reason,
	}
	return l.chargeUser(ctx, user, penalty, now)
}

// chargeUser writes a penalty row, adds its points to the user, and applies
// the suspension trigger. The threshold is re-read from settings here, never
// cached.
func (l *Ledger) chargeUser(ctx context.Context, user *User, penalty *Penalty, now time.Time) error {
	penalty.ID = uuid.NewString()
	penalty.CreatedAt = now
	if err := l.store.CreatePenalty(ctx, penalty); err != nil {
		return err
	}

	user.PenaltyPoints = user.PenaltyPoints.Add(penalty.Points)

	threshold, err := SuspendThreshold(ctx, l.store)
	if err != nil {
		return err
	}
	if !user.Suspended && user.PenaltyPoints.GreaterThanOrEqual(threshold) {
		user.Suspended = true
		l.log.Warn().
			Str("user_id", user.ID).
			Str("points", user.PenaltyPoints.String()).
			Str("threshold", threshold.String()).
			Msg("auto-suspension threshold crossed")
	}

	if err := l.store.UpdateUser(ctx, user); err != nil {
		return err
	}

	l.log.Info().
		Str("user_id", user.ID).
		Str("penalty_id", penalty.ID).
		Str("type", string(penalty.Type)).
		Str("points", penalty.Points.String()).
		Msg("penalty charged")
	return nil
}

// reverseBookingPenalty refunds the future-booking charge attached to a
// reservation: subtract its points (floored at zero) and delete the row.
// Refund and deletion travel together so a charge can never be refunded
// twice. Suspension is never auto-lifted here.
func (l *Ledger) reverseBookingPenalty(ctx context.Context, user *User, reservationID string) error {
	penalties, err := l.store.ListPenaltiesByUser(ctx, user.ID)
	if err != nil {
		return err
	}

	for i := range penalties {
		p := &penalties[i]
		if p.ReservationID != reservationID || p.Type != PenaltyFutureBooking {
			continue
		}

		if err := l.store.DeletePenalty(ctx, p.ID); err != nil {
			return err
		}
		user.PenaltyPoints = user.PenaltyPoints.Sub(p.Points).ClampNonNegative()
		if err := l.store.UpdateUser(ctx, user); err != nil {
			return err
		}

		l.log.Info().
			Str("user_id", user.ID).
			Str("penalty_id", p.ID).
			Str("points", p.Points.String()).
			Msg("booking penalty reversed")
		return nil
	}
	return nil
}

// =============================================================================
// USER OPERATIONS
// =============================================================================

// CreateUser registers an account. Usernames are unique; the credential is
// stored as given and compared verbatim at login.
func (l *Ledger) CreateUser(ctx context.Context, username, password string, role Role) (*User, error) {
	if username == "" {
		return nil, &ValidationError{Field: "username", Message: "username is required"}
	}
	if password == "" {
		return nil, &ValidationError{Field: "password", Message: "password is required"}
	}
	if role != RoleAdmin && role != RoleUser {
		role = RoleUser
	}

	unlock := l.locks.lock(userKey("create:" + username))
	defer unlock()

	if _, err := l.store.GetUserByUsername(ctx, username); err == nil {
		return nil, &ValidationError{Field: "username", Message: "username already taken"}
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user := &User{
		ID:            uuid.NewString(),
		Username:      username,
		Password:      password,
		Role:          role,
		PenaltyPoints: ZeroPoints(),
		CreatedAt:     l.clock(),
	}
	if err := l.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks a credential pair. A wrong password and an unknown
// username both return ErrForbidden.
func (l *Ledger) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := l.store.GetUserByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	if user.Password != password {
		return nil, ErrForbidden
	}
	return user, nil
}

// SetSuspended is the explicit admin suspension toggle. Clearing suspension
// happens only here, never by point reversal.
func (l *Ledger) SetSuspended(ctx context.Context, userID string, suspended bool) (*User, error) {
	unlock := l.locks.lock(userKey(userID))
	defer unlock()

	user, err := l.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Suspended = suspended
	if err := l.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetPassword replaces a user's credential.
func (l *Ledger) SetPassword(ctx context.Context, userID, password string) error {
	if password == "" {
		return &ValidationError{Field: "password", Message: "password is required"}
	}

	unlock := l.locks.lock(userKey(userID))
	defer unlock()

	user, err := l.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	user.Password = password
	return l.store.UpdateUser(ctx, user)
}

// DeleteUser removes an account. Rejected while the user still holds active
// reservations; otherwise the user's reservations and penalties are removed
// with the account so no orphaned rows remain.
func (l *Ledger) DeleteUser(ctx context.Context, userID string) error {
	unlock := l.locks.lock(userKey(userID))
	defer unlock()

	if _, err := l.store.GetUser(ctx, userID); err != nil {
		return err
	}

	reservations, err := l.store.ListReservationsByUser(ctx, userID)
	if err != nil {
		return err
	}
	today := DateOf(l.clock().UTC())
	for i := range reservations {
		if reservations[i].EffectiveStatus(today) == StatusActive {
			return ErrHasActiveReservations
		}
	}

	for i := range reservations {
		if err := l.store.DeleteReservation(ctx, reservations[i].ID); err != nil {
			return err
		}
	}
	penalties, err := l.store.ListPenaltiesByUser(ctx, userID)
	if err != nil {
		return err
	}
	for i := range penalties {
		if err := l.store.DeletePenalty(ctx, penalties[i].ID); err != nil {
			return err
		}
	}
	return l.store.DeleteUser(ctx, userID)
}

// =============================================================================
// KEYED MUTEX - Serialization point for check-then-act sequences
// =============================================================================

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutexes for all keys in sorted order (sorted so two
// operations over the same key set cannot deadlock) and returns the
// combined unlock.
func (km *keyedMutex) lock(keys ...string) func() {
	sort.Strings(keys)

	acquired := make([]*sync.Mutex, 0, len(keys))
	for _, key := range keys {
		km.mu.Lock()
		m, ok := km.locks[key]
		if !ok {
			m = &sync.Mutex{}
			km.locks[key] = m
		}
		km.mu.Unlock()

		m.Lock()
		acquired = append(acquired, m)
	}

	return func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].Unlock()
		}
	}
}

func userKey(id string) string           { return "user:" + id }
func slotKey(slot string, d Date) string { return "slot:" + slot + ":" + d.String() }
