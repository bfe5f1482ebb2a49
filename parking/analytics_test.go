package parking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/slotkeeper/parking"
)

func TestBuildReport_AggregatesWithDerivedStatuses(t *testing.T) {
	// GIVEN: a far-ahead booking (charged), a past active one, and a
	//        cancelled one
	// WHEN: building the report as of a later date
	// THEN: counts use derived statuses and the point total matches the
	//       penalty rows

	ledger, store := newTestLedger(t)
	user := newTestUser(t, ledger)
	ctx := context.Background()

	_, err := ledger.CreateReservation(ctx, user.ID, "24", date("2026-03-22"))
	require.NoError(t, err)
	_, err = ledger.CreateReservation(ctx, user.ID, "25", date("2026-03-02"))
	require.NoError(t, err)
	toCancel, err := ledger.CreateReservation(ctx, user.ID, "37", date("2026-03-05"))
	require.NoError(t, err)
	_, err = ledger.CancelReservation(ctx, toCancel.ID)
	require.NoError(t, err)

	report, err := parking.BuildReport(ctx, store, parking.NewDate(2026, time.March, 4))
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalUsers)
	assert.Equal(t, 3, report.TotalReservations)
	assert.Equal(t, 1, report.ActiveReservations, "the past active reads as completed")
	assert.Equal(t, 1, report.TotalPenalties)
	assert.True(t, report.TotalPenaltyPoints.Equal(parking.NewPointsFromInt(2)))
	assert.Equal(t, 1, report.PenaltiesByType[parking.PenaltyFutureBooking])
	assert.Len(t, report.SlotUsage, len(parking.Slots))
}

func TestSlotGrid_OnlyActiveOccupies(t *testing.T) {
	ledger, store := newTestLedger(t)
	user := newTestUser(t, ledger)
	ctx := context.Background()

	kept, err := ledger.CreateReservation(ctx, user.ID, "24", date("2026-03-05"))
	require.NoError(t, err)
	dropped, err := ledger.CreateReservation(ctx, user.ID, "25", date("2026-03-05"))
	require.NoError(t, err)
	_, err = ledger.CancelReservation(ctx, dropped.ID)
	require.NoError(t, err)

	grid, err := parking.SlotGrid(ctx, store, date("2026-03-05"))
	require.NoError(t, err)
	require.Len(t, grid, len(parking.Slots))

	bySlot := make(map[string]parking.SlotAvailability)
	for _, entry := range grid {
		bySlot[entry.Slot] = entry
	}

	assert.True(t, bySlot["24"].Reserved)
	assert.Equal(t, kept.ID, bySlot["24"].ReservationID)
	assert.False(t, bySlot["25"].Reserved, "cancelled reservations release the slot")
	assert.False(t, bySlot["42"].Reserved)
}
