/*
Package jsonfile provides the file-persisted Store implementation.

PURPOSE:
  Same semantics as the memory backend, with durability: the full state
  is written to a JSON snapshot after every mutation and reloaded on
  open. Suited to single-instance deployments that must survive a
  restart without running a database.

PERSISTENCE MODEL:
  Whole-state snapshot, written to a temp file and renamed into place
  so a crash mid-write never leaves a truncated snapshot. Writes are
  serialized by the store's own mutex; read paths go straight to the
  in-memory state.

SEE ALSO:
  - store/memory: The in-memory state this wraps
  - store/sqldb: The SQL alternative for multi-instance deployments
*/
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/warp/slotkeeper/parking"
	"github.com/warp/slotkeeper/store/memory"
)

// Store wraps the memory backend with snapshot persistence.
type Store struct {
	mem  *memory.Store
	path string

	// mu serializes mutate+persist sequences. The inner memory store has
	// its own lock for plain reads.
	mu sync.Mutex
}

func New(path string) (*Store, error) {
	s := &Store{
		mem:  memory.New(),
		path: path,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

var _ parking.Store = (*Store)(nil)

// =============================================================================
// SNAPSHOT FORMAT
// =============================================================================

type snapshot struct {
	Users        []userRecord        `json:"users"`
	Reservations []reservationRecord `json:"reservations"`
	Penalties    []penaltyRecord     `json:"penalties"`
	Settings     map[string]string   `json:"settings"`
}

type userRecord struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Password      string    `json:"password"`
	Role          string    `json:"role"`
	PenaltyPoints string    `json:"penalty_points"`
	Suspended     bool      `json:"suspended"`
	CreatedAt     time.Time `json:"created_at"`
}

type reservationRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Slot      string    `json:"slot"`
	Date      string    `json:"date"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type penaltyRecord struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	ReservationID string    `json:"reservation_id,omitempty"`
	Type          string    `json:"type"`
	Points        string    `json:"points"`
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"created_at"`
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to parse snapshot %s: %w", s.path, err)
	}

	ctx := context.Background()
	for _, u := range snap.Users {
		user := parking.User{
			ID:            u.ID,
			Username:      u.Username,
			Password:      u.Password,
			Role:          parking.Role(u.Role),
			PenaltyPoints: parking.Points{Value: parking.MustParseDecimal(u.PenaltyPoints)},
			Suspended:     u.Suspended,
			CreatedAt:     u.CreatedAt,
		}
		if err := s.mem.CreateUser(ctx, &user); err != nil {
			return err
		}
	}
	for _, r := range snap.Reservations {
		date, err := parking.ParseDate(r.Date)
		if err != nil {
			return fmt.Errorf("snapshot reservation %s: %w", r.ID, err)
		}
		reservation := parking.Reservation{
			ID:        r.ID,
			UserID:    r.UserID,
			Slot:      r.Slot,
			Date:      date,
			Status:    parking.ReservationStatus(r.Status),
			CreatedAt: r.CreatedAt,
		}
		if err := s.mem.CreateReservation(ctx, &reservation); err != nil {
			return err
		}
	}
	for _, p := range snap.Penalties {
		penalty := parking.Penalty{
			ID:            p.ID,
			UserID:        p.UserID,
			ReservationID: p.ReservationID,
			Type:          parking.PenaltyType(p.Type),
			Points:        parking.Points{Value: parking.MustParseDecimal(p.Points)},
			Reason:        p.Reason,
			CreatedAt:     p.CreatedAt,
		}
		if err := s.mem.CreatePenalty(ctx, &penalty); err != nil {
			return err
		}
	}
	for k, v := range snap.Settings {
		if err := s.mem.SetSetting(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) persist(ctx context.Context) error {
	users, err := s.mem.ListUsers(ctx)
	if err != nil {
		return err
	}
	reservations, err := s.mem.ListReservations(ctx)
	if err != nil {
		return err
	}
	penalties, err := s.mem.ListPenalties(ctx)
	if err != nil {
		return err
	}
	settings, err := s.mem.ListSettings(ctx)
	if err != nil {
		return err
	}

	snap := snapshot{Settings: settings}
	for _, u := range users {
		snap.Users = append(snap.Users, userRecord{
			ID:            u.ID,
			Username:      u.Username,
			Password:      u.Password,
			Role:          string(u.Role),
			PenaltyPoints: u.PenaltyPoints.String(),
			Suspended:     u.Suspended,
			CreatedAt:     u.CreatedAt,
		})
	}
	for _, r := range reservations {
		snap.Reservations = append(snap.Reservations, reservationRecord{
			ID:        r.ID,
			UserID:    r.UserID,
			Slot:      r.Slot,
			Date:      r.Date.String(),
			Status:    string(r.Status),
			CreatedAt: r.CreatedAt,
		})
	}
	for _, p := range penalties {
		snap.Penalties = append(snap.Penalties, penaltyRecord{
			ID:            p.ID,
			UserID:        p.UserID,
			ReservationID: p.ReservationID,
			Type:          string(p.Type),
			Points:        p.Points.String(),
			Reason:        p.Reason,
			CreatedAt:     p.CreatedAt,
		})
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	// Temp file + rename keeps the snapshot intact if the process dies
	// mid-write.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *Store) mutate(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(); err != nil {
		return err
	}
	return s.persist(ctx)
}

// =============================================================================
// USERS
// =============================================================================

func (s *Store) GetUser(ctx context.Context, id string) (*parking.User, error) {
	return s.mem.GetUser(ctx, id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*parking.User, error) {
	return s.mem.GetUserByUsername(ctx, username)
}

func (s *Store) CreateUser(ctx context.Context, u *parking.User) error {
	return s.mutate(ctx, func() error { return s.mem.CreateUser(ctx, u) })
}

func (s *Store) UpdateUser(ctx context.Context, u *parking.User) error {
	return s.mutate(ctx, func() error { return s.mem.UpdateUser(ctx, u) })
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.mutate(ctx, func() error { return s.mem.DeleteUser(ctx, id) })
}

func (s *Store) ListUsers(ctx context.Context) ([]parking.User, error) {
	return s.mem.ListUsers(ctx)
}

// =============================================================================
// RESERVATIONS
// =============================================================================

func (s *Store) GetReservation(ctx context.Context, id string) (*parking.Reservation, error) {
	return s.mem.GetReservation(ctx, id)
}

func (s *Store) ListReservationsByUser(ctx context.Context, userID string) ([]parking.Reservation, error) {
	return s.mem.ListReservationsByUser(ctx, userID)
}

func (s *Store) ListReservationsByDate(ctx context.Context, date parking.Date) ([]parking.Reservation, error) {
	return s.mem.ListReservationsByDate(ctx, date)
}

func (s *Store) FindActiveBySlotAndDate(ctx context.Context, slot string, date parking.Date) (*parking.Reservation, error) {
	return s.mem.FindActiveBySlotAndDate(ctx, slot, date)
}

func (s *Store) CreateReservation(ctx context.Context, r *parking.Reservation) error {
	return s.mutate(ctx, func() error { return s.mem.CreateReservation(ctx, r) })
}

func (s *Store) UpdateReservation(ctx context.Context, r *parking.Reservation) error {
	return s.mutate(ctx, func() error { return s.mem.UpdateReservation(ctx, r) })
}

func (s *Store) DeleteReservation(ctx context.Context, id string) error {
	return s.mutate(ctx, func() error { return s.mem.DeleteReservation(ctx, id) })
}

func (s *Store) ListReservations(ctx context.Context) ([]parking.Reservation, error) {
	return s.mem.ListReservations(ctx)
}

// =============================================================================
// PENALTIES
// =============================================================================

func (s *Store) GetPenalty(ctx context.Context, id string) (*parking.Penalty, error) {
	return s.mem.GetPenalty(ctx, id)
}

func (s *Store) ListPenaltiesByUser(ctx context.Context, userID string) ([]parking.Penalty, error) {
	return s.mem.ListPenaltiesByUser(ctx, userID)
}

func (s *Store) CreatePenalty(ctx context.Context, p *parking.Penalty) error {
	return s.mutate(ctx, func() error { return s.mem.CreatePenalty(ctx, p) })
}

func (s *Store) DeletePenalty(ctx context.Context, id string) error {
	return s.mutate(ctx, func() error { return s.mem.DeletePenalty(ctx, id) })
}

func (s *Store) ListPenalties(ctx context.Context) ([]parking.Penalty, error) {
	return s.mem.ListPenalties(ctx)
}

// =============================================================================
// SETTINGS
// =============================================================================

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	return s.mem.GetSetting(ctx, key)
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	return s.mutate(ctx, func() error { return s.mem.SetSetting(ctx, key, value) })
}

func (s *Store) ListSettings(ctx context.Context) (map[string]string, error) {
	return s.mem.ListSettings(ctx)
}
