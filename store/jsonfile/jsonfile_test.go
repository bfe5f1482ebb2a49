package jsonfile_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/slotkeeper/parking"
	"github.com/warp/slotkeeper/store/jsonfile"
)

func TestStore_SurvivesReopen(t *testing.T) {
	// GIVEN: a store with a user, a reservation, a penalty and a setting
	// WHEN: the file is reopened from disk
	// THEN: the full state round-trips, decimals and dates included

	path := filepath.Join(t.TempDir(), "state.json")
	ctx := context.Background()

	store, err := jsonfile.New(path)
	require.NoError(t, err)

	user := parking.User{
		ID:            "u-1",
		Username:      "alice",
		Password:      "secret",
		Role:          parking.RoleUser,
		PenaltyPoints: parking.NewPoints(2.5),
		CreatedAt:     time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.CreateUser(ctx, &user))

	reservation := parking.Reservation{
		ID:        "r-1",
		UserID:    "u-1",
		Slot:      "24",
		Date:      parking.NewDate(2026, time.March, 22),
		Status:    parking.StatusActive,
		CreatedAt: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.CreateReservation(ctx, &reservation))

	penalty := parking.Penalty{
		ID:            "p-1",
		UserID:        "u-1",
		ReservationID: "r-1",
		Type:          parking.PenaltyFutureBooking,
		Points:        parking.NewPoints(2.5),
		Reason:        "booked 21 days ahead",
		CreatedAt:     time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.CreatePenalty(ctx, &penalty))
	require.NoError(t, store.SetSetting(ctx, parking.SettingBookingMultiplier, "2"))

	reopened, err := jsonfile.New(path)
	require.NoError(t, err)

	gotUser, err := reopened.GetUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", gotUser.Username)
	assert.True(t, gotUser.PenaltyPoints.Equal(parking.NewPoints(2.5)))

	gotReservation, err := reopened.GetReservation(ctx, "r-1")
	require.NoError(t, err)
	assert.True(t, gotReservation.Date.Equal(parking.NewDate(2026, time.March, 22)))
	assert.Equal(t, parking.StatusActive, gotReservation.Status)

	gotPenalty, err := reopened.GetPenalty(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "r-1", gotPenalty.ReservationID)
	assert.True(t, gotPenalty.Points.Equal(parking.NewPoints(2.5)))

	value, err := reopened.GetSetting(ctx, parking.SettingBookingMultiplier)
	require.NoError(t, err)
	assert.Equal(t, "2", value)
}

func TestStore_DeletePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	ctx := context.Background()

	store, err := jsonfile.New(path)
	require.NoError(t, err)

	user := parking.User{ID: "u-1", Username: "alice", PenaltyPoints: parking.ZeroPoints()}
	require.NoError(t, store.CreateUser(ctx, &user))
	require.NoError(t, store.DeleteUser(ctx, "u-1"))

	reopened, err := jsonfile.New(path)
	require.NoError(t, err)
	_, err = reopened.GetUser(ctx, "u-1")
	assert.ErrorIs(t, err, parking.ErrNotFound)
}

func TestStore_MissingFileStartsEmpty(t *testing.T) {
	store, err := jsonfile.New(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	users, err := store.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

var _ parking.Store = (*jsonfile.Store)(nil)
