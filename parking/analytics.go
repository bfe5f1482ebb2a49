package parking

import "context"

// =============================================================================
// ANALYTICS - Aggregates derived on read, never persisted
// =============================================================================

// SlotUsage counts reservations for one slot by status.
type SlotUsage struct {
	Slot      string
	Active    int
	Cancelled int
	Completed int
}

// Report is the aggregate view served to administrators.
type Report struct {
	TotalUsers          int
	SuspendedUsers      int
	TotalReservations   int
	ActiveReservations  int
	TotalPenalties      int
	TotalPenaltyPoints  Points
	PenaltiesByType     map[PenaltyType]int
	SlotUsage           []SlotUsage
}

// BuildReport computes aggregates over the full store. Statuses are the
// derived ones: a past-dated active reservation counts as completed.
func BuildReport(ctx context.Context, store Store, today Date) (*Report, error) {
	report := &Report{
		TotalPenaltyPoints: ZeroPoints(),
		PenaltiesByType:    make(map[PenaltyType]int),
	}

	users, err := store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	report.TotalUsers = len(users)
	for i := range users {
		if users[i].Suspended {
			report.SuspendedUsers++
		}
	}

	usage := make(map[string]*SlotUsage, len(Slots))
	for _, slot := range Slots {
		usage[slot] = &SlotUsage{Slot: slot}
	}

	reservations, err := store.ListReservations(ctx)
	if err != nil {
		return nil, err
	}
	report.TotalReservations = len(reservations)
	for i := range reservations {
		r := &reservations[i]
		u, ok := usage[r.Slot]
		if !ok {
			continue
		}
		switch r.EffectiveStatus(today) {
		case StatusActive:
			u.Active++
			report.ActiveReservations++
		case StatusCancelled:
			u.Cancelled++
		case StatusCompleted:
			u.Completed++
		}
	}
	for _, slot := range Slots {
		report.SlotUsage = append(report.SlotUsage, *usage[slot])
	}

	penalties, err := store.ListPenalties(ctx)
	if err != nil {
		return nil, err
	}
	report.TotalPenalties = len(penalties)
	for i := range penalties {
		report.PenaltiesByType[penalties[i].Type]++
		report.TotalPenaltyPoints = report.TotalPenaltyPoints.Add(penalties[i].Points)
	}

	return report, nil
}

// SlotAvailability describes one slot on one date.
type SlotAvailability struct {
	Slot          string
	Reserved      bool
	ReservationID string
	UserID        string
}

// SlotGrid returns the availability of every slot on a date. Only active
// reservations occupy a slot; cancelled and completed ones do not.
func SlotGrid(ctx context.Context, store ReservationStore, date Date) ([]SlotAvailability, error) {
	reservations, err := store.ListReservationsByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	bySlot := make(map[string]*Reservation)
	for i := range reservations {
		if reservations[i].Status == StatusActive {
			bySlot[reservations[i].Slot] = &reservations[i]
		}
	}

	grid := make([]SlotAvailability, 0, len(Slots))
	for _, slot := range Slots {
		entry := SlotAvailability{Slot: slot}
		if r, ok := bySlot[slot]; ok {
			entry.Reserved = true
			entry.ReservationID = r.ID
			entry.UserID = r.UserID
		}
		grid = append(grid, entry)
	}
	return grid, nil
}
