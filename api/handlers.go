/*
handlers.go - HTTP API handlers for the parking reservation system

PURPOSE:
  Exposes the reservation ledger via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Auth:
    POST   /api/auth/login                 Exchange credentials for a token

  Users:
    GET    /api/users                      List all users (admin)
    POST   /api/users                      Create user (admin)
    GET    /api/users/{id}                 Get user (self or admin)
    DELETE /api/users/{id}                 Delete user (admin)
    PUT    /api/users/{id}/password        Change password (self or admin)
    PUT    /api/users/{id}/suspend         Suspend/unsuspend (admin)
    GET    /api/users/{id}/penalties       Penalty history (self or admin)

  Reservations:
    GET    /api/reservations               List own (admin: all or ?user_id=)
    POST   /api/reservations               Book a slot
    GET    /api/reservations/{id}          Get one (owner or admin)
    POST   /api/reservations/{id}/cancel   Cancel (owner or admin)

  Slots & penalties:
    GET    /api/parking-slots?date=        Availability grid for a date
    GET    /api/penalties/preview?date=    Cost of booking a date right now

  Admin:
    GET    /api/analytics                  Usage aggregates
    GET    /api/settings                   Penalty parameters
    PUT    /api/settings                   Update penalty parameters

ERROR HANDLING:
  Domain errors are mapped to HTTP status via errors.Is:
  - 400: validation
  - 403: suspended account, wrong credentials, ownership violations
  - 404: missing user/reservation
  - 409: slot taken, reservation not active, user has active reservations
  - 500: everything else

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Token issuing and middleware
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/warp/slotkeeper/parking"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  parking.Store
	Ledger *parking.Ledger

	log          zerolog.Logger
	jwtSecret    []byte
	loginLimiter *loginLimiter
}

// NewHandler creates a new handler around the store and ledger.
func NewHandler(store parking.Store, ledger *parking.Ledger, logger zerolog.Logger, jwtSecret []byte) *Handler {
	return &Handler{
		Store:        store,
		Ledger:       ledger,
		log:          logger,
		jwtSecret:    jwtSecret,
		loginLimiter: newLoginLimiter(),
	}
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// Login exchanges a credential pair for a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Ledger.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, parking.ErrForbidden) {
			writeError(w, http.StatusForbidden, "Invalid username or password", nil)
			return
		}
		h.internalError(w, "login failed", err)
		return
	}

	token, err := h.issueToken(user, time.Now())
	if err != nil {
		h.internalError(w, "token signing failed", err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token, User: toUserDTO(user)})
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// ListUsers returns all users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		h.internalError(w, "failed to list users", err)
		return
	}

	dtos := make([]UserDTO, len(users))
	for i := range users {
		dtos[i] = toUserDTO(&users[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateUser registers a new account.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Ledger.CreateUser(r.Context(), req.Username, req.Password, parking.Role(req.Role))
	if err != nil {
		h.domainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(user))
}

// GetUser returns a single user. Non-admin callers may only fetch themselves.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.mayActOn(w, r, id) {
		return
	}

	user, err := h.Store.GetUser(r.Context(), id)
	if err != nil {
		h.domainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// DeleteUser removes an account and its history.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Ledger.DeleteUser(r.Context(), id); err != nil {
		h.domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword replaces a user's credential. Self or admin.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.mayActOn(w, r, id) {
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Ledger.SetPassword(r.Context(), id, req.Password); err != nil {
		h.domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetSuspended is the explicit admin suspension toggle.
func (h *Handler) SetSuspended(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req SuspendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Ledger.SetSuspended(r.Context(), id, req.Suspended)
	if err != nil {
		h.domainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// ListUserPenalties returns a user's penalty rows. Self or admin.
func (h *Handler) ListUserPenalties(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.mayActOn(w, r, id) {
		return
	}

	if _, err := h.Store.GetUser(r.Context(), id); err != nil {
		h.domainError(w, err)
		return
	}

	penalties, err := h.Store.ListPenaltiesByUser(r.Context(), id)
	if err != nil {
		h.internalError(w, "failed to list penalties", err)
		return
	}

	dtos := make([]PenaltyDTO, len(penalties))
	for i := range penalties {
		dtos[i] = toPenaltyDTO(&penalties[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESERVATION HANDLERS
// =============================================================================

// CreateReservation books a slot. Admins may book on behalf of another user
// via the user_id field.
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	var req CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	userID := identity.UserID
	if req.UserID != "" && identity.IsAdmin() {
		userID = req.UserID
	}

	date, err := parking.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
		return
	}

	reservation, err := h.Ledger.CreateReservation(r.Context(), userID, req.Slot, date)
	if err != nil {
		h.domainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationDTO(reservation, parking.Today()))
}

// ListReservations returns the caller's reservations. Admins see everything,
// optionally filtered by ?user_id=.
func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	var (
		reservations []parking.Reservation
		err          error
	)
	switch {
	case !identity.IsAdmin():
		reservations, err = h.Store.ListReservationsByUser(r.Context(), identity.UserID)
	case r.URL.Query().Get("user_id") != "":
		reservations, err = h.Store.ListReservationsByUser(r.Context(), r.URL.Query().Get("user_id"))
	default:
		reservations, err = h.Store.ListReservations(r.Context())
	}
	if err != nil {
		h.internalError(w, "failed to list reservations", err)
		return
	}

	today := parking.Today()
	dtos := make([]ReservationDTO, len(reservations))
	for i := range reservations {
		dtos[i] = toReservationDTO(&reservations[i], today)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetReservation returns one reservation. Owner or admin.
func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	reservation, err := h.Store.GetReservation(r.Context(), id)
	if err != nil {
		h.domainError(w, err)
		return
	}
	if !h.mayActOn(w, r, reservation.UserID) {
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(reservation, parking.Today()))
}

// CancelReservation cancels an active reservation. Owner or admin.
func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	reservation, err := h.Store.GetReservation(r.Context(), id)
	if err != nil {
		h.domainError(w, err)
		return
	}
	if !h.mayActOn(w, r, reservation.UserID) {
		return
	}

	cancelled, err := h.Ledger.CancelReservation(r.Context(), id)
	if err != nil {
		h.domainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(cancelled, parking.Today()))
}

// =============================================================================
// SLOT AND PENALTY HANDLERS
// =============================================================================

// GetSlotGrid returns the availability of every slot on a date.
func (h *Handler) GetSlotGrid(w http.ResponseWriter, r *http.Request) {
	date, err := parking.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
		return
	}

	grid, err := parking.SlotGrid(r.Context(), h.Store, date)
	if err != nil {
		h.internalError(w, "failed to build slot grid", err)
		return
	}

	dtos := make([]SlotAvailabilityDTO, len(grid))
	for i, entry := range grid {
		dtos[i] = SlotAvailabilityDTO{
			Slot:          entry.Slot,
			Reserved:      entry.Reserved,
			ReservationID: entry.ReservationID,
			UserID:        entry.UserID,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// PreviewPenalty returns what booking a date would cost right now, without
// creating anything.
func (h *Handler) PreviewPenalty(w http.ResponseWriter, r *http.Request) {
	date, err := parking.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
		return
	}

	decision, err := h.Ledger.PreviewBooking(r.Context(), date)
	if err != nil {
		h.internalError(w, "failed to preview penalty", err)
		return
	}

	writeJSON(w, http.StatusOK, PenaltyPreviewDTO{
		Date:   date.String(),
		Points: decision.Points.String(),
		Reason: decision.Reason,
		Exempt: decision.Exempt,
	})
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// GetAnalytics returns usage aggregates.
func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	report, err := parking.BuildReport(r.Context(), h.Store, parking.Today())
	if err != nil {
		h.internalError(w, "failed to build analytics", err)
		return
	}

	dto := AnalyticsDTO{
		TotalUsers:         report.TotalUsers,
		SuspendedUsers:     report.SuspendedUsers,
		TotalReservations:  report.TotalReservations,
		ActiveReservations: report.ActiveReservations,
		TotalPenalties:     report.TotalPenalties,
		TotalPenaltyPoints: report.TotalPenaltyPoints.String(),
		PenaltiesByType:    make(map[string]int, len(report.PenaltiesByType)),
	}
	for t, n := range report.PenaltiesByType {
		dto.PenaltiesByType[string(t)] = n
	}
	for _, u := range report.SlotUsage {
		dto.SlotUsage = append(dto.SlotUsage, SlotUsageDTO{
			Slot:      u.Slot,
			Active:    u.Active,
			Cancelled: u.Cancelled,
			Completed: u.Completed,
		})
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetSettings returns all penalty parameters, defaults filled in for unset
// keys.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Store.ListSettings(r.Context())
	if err != nil {
		h.internalError(w, "failed to list settings", err)
		return
	}
	for key, value := range parking.DefaultSettings {
		if _, ok := settings[key]; !ok {
			settings[key] = value
		}
	}
	writeJSON(w, http.StatusOK, settings)
}

// UpdateSettings writes penalty parameters. Only known keys are accepted.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var updates map[string]string
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	for key, value := range updates {
		if _, ok := parking.DefaultSettings[key]; !ok {
			writeError(w, http.StatusBadRequest, "Unknown setting: "+key, nil)
			return
		}
		if err := h.Store.SetSetting(r.Context(), key, value); err != nil {
			h.internalError(w, "failed to update setting", err)
			return
		}
	}

	settings, err := h.Store.ListSettings(r.Context())
	if err != nil {
		h.internalError(w, "failed to list settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// =============================================================================
// HELPERS
// =============================================================================

// mayActOn enforces the self-or-admin rule. Writes the 403 itself and
// returns false when the caller is neither.
func (h *Handler) mayActOn(w http.ResponseWriter, r *http.Request, ownerID string) bool {
	identity, ok := IdentityFrom(r.Context())
	if !ok || (!identity.IsAdmin() && identity.UserID != ownerID) {
		writeError(w, http.StatusForbidden, "Forbidden", nil)
		return false
	}
	return true
}

// domainError maps a domain error to its HTTP status.
func (h *Handler) domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, parking.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, parking.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", nil)
	case errors.Is(err, parking.ErrSuspended), errors.Is(err, parking.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, parking.ErrSlotTaken),
		errors.Is(err, parking.ErrNotActive),
		errors.Is(err, parking.ErrHasActiveReservations):
		writeError(w, http.StatusConflict, err.Error(), nil)
	default:
		h.internalError(w, "request failed", err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, msg string, err error) {
	h.log.Error().Err(err).Msg(msg)
	writeError(w, http.StatusInternalServerError, "Internal error", err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
