// Package memory provides the transient in-memory Store implementation.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/slotkeeper/parking"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Store keeps everything in maps guarded by one RWMutex. Values are copied
// on the way in and out so callers can never mutate shared state through a
// returned pointer.
type Store struct {
	mu           sync.RWMutex
	users        map[string]parking.User
	reservations map[string]parking.Reservation
	penalties    map[string]parking.Penalty
	settings     map[string]string
}

func New() *Store {
	return &Store{
		users:        make(map[string]parking.User),
		reservations: make(map[string]parking.Reservation),
		penalties:    make(map[string]parking.Penalty),
		settings:     make(map[string]string),
	}
}

var _ parking.Store = (*Store)(nil)

// =============================================================================
// USERS
// =============================================================================

func (s *Store) GetUser(_ context.Context, id string) (*parking.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, parking.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*parking.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, parking.ErrNotFound
}

func (s *Store) CreateUser(_ context.Context, u *parking.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[u.ID] = *u
	return nil
}

func (s *Store) UpdateUser(_ context.Context, u *parking.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; !ok {
		return parking.ErrNotFound
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return parking.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]parking.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]parking.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

// =============================================================================
// RESERVATIONS
// =============================================================================

func (s *Store) GetReservation(_ context.Context, id string) (*parking.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reservations[id]
	if !ok {
		return nil, parking.ErrNotFound
	}
	return &r, nil
}

func (s *Store) ListReservationsByUser(_ context.Context, userID string) ([]parking.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []parking.Reservation
	for _, r := range s.reservations {
		if r.UserID == userID {
			result = append(result, r)
		}
	}
	sortReservations(result)
	return result, nil
}

func (s *Store) ListReservationsByDate(_ context.Context, date parking.Date) ([]parking.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []parking.Reservation
	for _, r := range s.reservations {
		if r.Date.Equal(date) {
			result = append(result, r)
		}
	}
	sortReservations(result)
	return result, nil
}

func (s *Store) FindActiveBySlotAndDate(_ context.Context, slot string, date parking.Date) (*parking.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.reservations {
		if r.Slot == slot && r.Date.Equal(date) && r.Status == parking.StatusActive {
			r := r
			return &r, nil
		}
	}
	return nil, parking.ErrNotFound
}

func (s *Store) CreateReservation(_ context.Context, r *parking.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reservations[r.ID] = *r
	return nil
}

func (s *Store) UpdateReservation(_ context.Context, r *parking.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reservations[r.ID]; !ok {
		return parking.ErrNotFound
	}
	s.reservations[r.ID] = *r
	return nil
}

func (s *Store) DeleteReservation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reservations[id]; !ok {
		return parking.ErrNotFound
	}
	delete(s.reservations, id)
	return nil
}

func (s *Store) ListReservations(_ context.Context) ([]parking.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]parking.Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		result = append(result, r)
	}
	sortReservations(result)
	return result, nil
}

func sortReservations(rs []parking.Reservation) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].Date.Equal(rs[j].Date) {
			return rs[i].Date.Before(rs[j].Date)
		}
		return rs[i].Slot < rs[j].Slot
	})
}

// =============================================================================
// PENALTIES
// =============================================================================

func (s *Store) GetPenalty(_ context.Context, id string) (*parking.Penalty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.penalties[id]
	if !ok {
		return nil, parking.ErrNotFound
	}
	return &p, nil
}

func (s *Store) ListPenaltiesByUser(_ context.Context, userID string) ([]parking.Penalty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []parking.Penalty
	for _, p := range s.penalties {
		if p.UserID == userID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) CreatePenalty(_ context.Context, p *parking.Penalty) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.penalties[p.ID] = *p
	return nil
}

func (s *Store) DeletePenalty(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.penalties[id]; !ok {
		return parking.ErrNotFound
	}
	delete(s.penalties, id)
	return nil
}

func (s *Store) ListPenalties(_ context.Context) ([]parking.Penalty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]parking.Penalty, 0, len(s.penalties))
	for _, p := range s.penalties {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// =============================================================================
// SETTINGS
// =============================================================================

func (s *Store) GetSetting(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.settings[key]
	if !ok {
		return "", parking.ErrNotFound
	}
	return value, nil
}

func (s *Store) SetSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[key] = value
	return nil
}

func (s *Store) ListSettings(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.settings))
	for k, v := range s.settings {
		out[k] = v
	}
	return out, nil
}
