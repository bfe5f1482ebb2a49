package parking_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/slotkeeper/parking"
	"github.com/warp/slotkeeper/store/memory"
)

func TestSeedDefaultSettings_DoesNotOverwrite(t *testing.T) {
	// GIVEN: a store where the multiplier was already customized
	// WHEN: seeding defaults
	// THEN: the custom value survives and missing keys are filled in

	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.SetSetting(ctx, parking.SettingBookingMultiplier, "3"))

	require.NoError(t, parking.SeedDefaultSettings(ctx, store))

	value, err := store.GetSetting(ctx, parking.SettingBookingMultiplier)
	require.NoError(t, err)
	assert.Equal(t, "3", value)

	value, err = store.GetSetting(ctx, parking.SettingAutoSuspendThreshold)
	require.NoError(t, err)
	assert.Equal(t, "90", value)
}

func TestSettingAccessors_FallBackOnBadValues(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.SetSetting(ctx, parking.SettingBookingMultiplier, "not-a-number"))

	multiplier, err := parking.BookingMultiplier(ctx, store)
	require.NoError(t, err)
	assert.True(t, multiplier.Equal(decimal.NewFromInt(1)), "falls back to default 1")

	// Unset key also falls back.
	threshold, err := parking.SuspendThreshold(ctx, store)
	require.NoError(t, err)
	assert.True(t, threshold.Equal(parking.NewPointsFromInt(90)))
}

func TestActiveBookingPolicy_ReadsSetting(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	policy, err := parking.ActiveBookingPolicy(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, parking.PolicyTenDayBucket, policy.Name(), "default when unset")

	require.NoError(t, store.SetSetting(ctx, parking.SettingPenaltyPolicy, parking.PolicyWeekAligned))
	policy, err = parking.ActiveBookingPolicy(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, parking.PolicyWeekAligned, policy.Name())
}
