/*
store.go - Persistence contract consumed by the core

PURPOSE:
  Defines the interface between the domain logic and the storage backend.
  Three interchangeable implementations exist:
    store/memory:   transient maps, for tests and dev
    store/jsonfile: maps persisted to a JSON snapshot on disk
    store/sqldb:    sqlite3 (embedded) or postgres (remote) via database/sql

  The active backend is chosen once at startup from configuration and
  injected into the ledger manager. Nothing in this package holds a
  process-wide store.

NOT-FOUND CONTRACT:
  Every lookup that can miss returns parking.ErrNotFound (possibly
  wrapped) rather than a nil result, so callers can branch with
  errors.Is. Deletes of missing rows also return ErrNotFound.

CONSISTENCY:
  Backends are CRUD-only. The ledger manager owns every multi-step
  mutation; a crash between its steps can leave a reservation without a
  penalty row (best effort, not ACID). The SQL backend additionally
  enforces active (slot, date) uniqueness with a partial unique index.

SEE ALSO:
  - ledger.go: The only writer of penalty and point state
  - store/memory, store/jsonfile, store/sqldb: Implementations
*/
package parking

import "context"

// =============================================================================
// PER-ENTITY STORES
// =============================================================================

// UserStore persists user accounts.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	CreateUser(ctx context.Context, u *User) error
	// UpdateUser overwrites the stored row with u. ErrNotFound if missing.
	UpdateUser(ctx context.Context, u *User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]User, error)
}

// ReservationStore persists reservations.
type ReservationStore interface {
	GetReservation(ctx context.Context, id string) (*Reservation, error)
	ListReservationsByUser(ctx context.Context, userID string) ([]Reservation, error)
	ListReservationsByDate(ctx context.Context, date Date) ([]Reservation, error)
	// FindActiveBySlotAndDate returns the active reservation occupying the
	// pair, or ErrNotFound when the slot is free.
	FindActiveBySlotAndDate(ctx context.Context, slot string, date Date) (*Reservation, error)
	CreateReservation(ctx context.Context, r *Reservation) error
	UpdateReservation(ctx context.Context, r *Reservation) error
	DeleteReservation(ctx context.Context, id string) error
	ListReservations(ctx context.Context) ([]Reservation, error)
}

// PenaltyStore persists the penalty ledger.
type PenaltyStore interface {
	GetPenalty(ctx context.Context, id string) (*Penalty, error)
	ListPenaltiesByUser(ctx context.Context, userID string) ([]Penalty, error)
	CreatePenalty(ctx context.Context, p *Penalty) error
	DeletePenalty(ctx context.Context, id string) error
	ListPenalties(ctx context.Context) ([]Penalty, error)
}

// SettingsStore persists flat key/value configuration. One row per key,
// no history; Set overwrites.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	ListSettings(ctx context.Context) (map[string]string, error)
}

// =============================================================================
// COMPOSED STORE
// =============================================================================

// Store is the full persistence contract a backend must satisfy.
type Store interface {
	UserStore
	ReservationStore
	PenaltyStore
	SettingsStore
}
