/*
dto.go - Request/response data structures for the HTTP API

PURPOSE:
  Defines the JSON shapes exchanged with clients, separate from domain
  types. Points travel as decimal strings so clients never see float
  rounding; dates travel as YYYY-MM-DD.

SEE ALSO:
  - handlers.go: Uses these DTOs
  - parking/types.go: Domain types these mirror
*/
package api

import (
	"time"

	"github.com/warp/slotkeeper/parking"
)

// =============================================================================
// AUTH
// =============================================================================

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// =============================================================================
// USERS
// =============================================================================

type UserDTO struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Role          string `json:"role"`
	PenaltyPoints string `json:"penalty_points"`
	Suspended     bool   `json:"suspended"`
	CreatedAt     string `json:"created_at"`
}

func toUserDTO(u *parking.User) UserDTO {
	return UserDTO{
		ID:            u.ID,
		Username:      u.Username,
		Role:          string(u.Role),
		PenaltyPoints: u.PenaltyPoints.String(),
		Suspended:     u.Suspended,
		CreatedAt:     u.CreatedAt.Format(time.RFC3339),
	}
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type ChangePasswordRequest struct {
	Password string `json:"password"`
}

type SuspendRequest struct {
	Suspended bool `json:"suspended"`
}

// =============================================================================
// RESERVATIONS
// =============================================================================

type ReservationDTO struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Slot      string `json:"slot"`
	Date      string `json:"date"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

func toReservationDTO(r *parking.Reservation, today parking.Date) ReservationDTO {
	return ReservationDTO{
		ID:        r.ID,
		UserID:    r.UserID,
		Slot:      r.Slot,
		Date:      r.Date.String(),
		Status:    string(r.EffectiveStatus(today)),
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
}

type CreateReservationRequest struct {
	Slot string `json:"slot"`
	Date string `json:"date"`

	// UserID lets an admin book on behalf of another account. Ignored for
	// non-admin callers.
	UserID string `json:"user_id,omitempty"`
}

// =============================================================================
// PENALTIES
// =============================================================================

type PenaltyDTO struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	ReservationID string `json:"reservation_id,omitempty"`
	Type          string `json:"type"`
	Points        string `json:"points"`
	Reason        string `json:"reason"`
	CreatedAt     string `json:"created_at"`
}

func toPenaltyDTO(p *parking.Penalty) PenaltyDTO {
	return PenaltyDTO{
		ID:            p.ID,
		UserID:        p.UserID,
		ReservationID: p.ReservationID,
		Type:          string(p.Type),
		Points:        p.Points.String(),
		Reason:        p.Reason,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
}

type PenaltyPreviewDTO struct {
	Date   string `json:"date"`
	Points string `json:"points"`
	Reason string `json:"reason"`
	Exempt bool   `json:"exempt"`
}

// =============================================================================
// SLOTS
// =============================================================================

type SlotAvailabilityDTO struct {
	Slot          string `json:"slot"`
	Reserved      bool   `json:"reserved"`
	ReservationID string `json:"reservation_id,omitempty"`
	UserID        string `json:"user_id,omitempty"`
}

// =============================================================================
// ANALYTICS
// =============================================================================

type SlotUsageDTO struct {
	Slot      string `json:"slot"`
	Active    int    `json:"active"`
	Cancelled int    `json:"cancelled"`
	Completed int    `json:"completed"`
}

type AnalyticsDTO struct {
	TotalUsers         int            `json:"total_users"`
	SuspendedUsers     int            `json:"suspended_users"`
	TotalReservations  int            `json:"total_reservations"`
	ActiveReservations int            `json:"active_reservations"`
	TotalPenalties     int            `json:"total_penalties"`
	TotalPenaltyPoints string         `json:"total_penalty_points"`
	PenaltiesByType    map[string]int `json:"penalties_by_type"`
	SlotUsage          []SlotUsageDTO `json:"slot_usage"`
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
