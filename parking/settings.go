package parking

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SETTINGS - Penalty parameters, read at evaluation time
// =============================================================================

// Setting keys. Values are stored as strings; typed accessors below parse
// them with per-key defaults.
const (
	SettingBookingMultiplier    = "WEEKLY_PENALTY_MULTIPLIER"
	SettingLateCancelPenalty    = "LATE_CANCELLATION_PENALTY"
	SettingAutoSuspendThreshold = "AUTO_SUSPEND_PENALTY_THRESHOLD"
	SettingPenaltyPolicy        = "PENALTY_POLICY"
)

// DefaultSettings are seeded at bootstrap and used as fallbacks for unset or
// unparsable values.
var DefaultSettings = map[string]string{
	SettingBookingMultiplier:    "1",
	SettingLateCancelPenalty:    "1",
	SettingAutoSuspendThreshold: "90",
	SettingPenaltyPolicy:        PolicyTenDayBucket,
}

// SeedDefaultSettings writes defaults for any key not already present.
// Existing values are never overwritten.
func SeedDefaultSettings(ctx context.Context, store SettingsStore) error {
	for key, value := range DefaultSettings {
		_, err := store.GetSetting(ctx, key)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := store.SetSetting(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

// settingDecimal reads a decimal-valued setting, falling back to the default
// when the key is unset or unparsable. Storage errors other than ErrNotFound
// are surfaced.
func settingDecimal(ctx context.Context, store SettingsStore, key string) (decimal.Decimal, error) {
	raw, err := store.GetSetting(ctx, key)
	if errors.Is(err, ErrNotFound) {
		raw = DefaultSettings[key]
	} else if err != nil {
		return decimal.Zero, err
	}

	d, perr := decimal.NewFromString(raw)
	if perr != nil {
		return MustParseDecimal(DefaultSettings[key]), nil
	}
	return d, nil
}

// BookingMultiplier returns the per-period advance-booking multiplier.
func BookingMultiplier(ctx context.Context, store SettingsStore) (decimal.Decimal, error) {
	return settingDecimal(ctx, store, SettingBookingMultiplier)
}

// LateCancelMultiplier returns the flat late-cancellation charge.
func LateCancelMultiplier(ctx context.Context, store SettingsStore) (decimal.Decimal, error) {
	return settingDecimal(ctx, store, SettingLateCancelPenalty)
}

// SuspendThreshold returns the auto-suspension point threshold. Read on every
// evaluation, never cached.
func SuspendThreshold(ctx context.Context, store SettingsStore) (Points, error) {
	d, err := settingDecimal(ctx, store, SettingAutoSuspendThreshold)
	if err != nil {
		return Points{}, err
	}
	return Points{Value: d}, nil
}

// ActiveBookingPolicy resolves the configured booking-penalty variant.
func ActiveBookingPolicy(ctx context.Context, store SettingsStore) (BookingPolicy, error) {
	name, err := store.GetSetting(ctx, SettingPenaltyPolicy)
	if errors.Is(err, ErrNotFound) {
		name = DefaultSettings[SettingPenaltyPolicy]
	} else if err != nil {
		return nil, err
	}
	return BookingPolicyByName(name), nil
}
