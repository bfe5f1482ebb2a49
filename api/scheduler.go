/*
scheduler.go - Background completion sweep

PURPOSE:
  Periodically marks active reservations whose date has passed as
  completed. Reads already derive the completed status on the fly, so
  the sweep only keeps stored rows in line with what clients see.

DESIGN:
  - Cron-driven, hourly by default
  - Runs once immediately on Start so a restart catches up right away
  - Idempotent: sweeping twice finds nothing the second time

USAGE:
  sweeper := NewCompletionSweeper(ledger, logger)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - parking/ledger.go: CompletePastReservations
  - parking/types.go: EffectiveStatus (the read-side derivation)
*/
package api

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/warp/slotkeeper/parking"
)

// CompletionSweeper drives the periodic reservation-completion sweep.
type CompletionSweeper struct {
	Ledger   *parking.Ledger
	Schedule string

	log  zerolog.Logger
	cron *cron.Cron
}

// NewCompletionSweeper creates a sweeper on the default hourly schedule.
func NewCompletionSweeper(ledger *parking.Ledger, logger zerolog.Logger) *CompletionSweeper {
	return &CompletionSweeper{
		Ledger:   ledger,
		Schedule: "@hourly",
		log:      logger,
	}
}

// Start registers the cron entry and runs one sweep immediately.
func (cs *CompletionSweeper) Start() error {
	cs.cron = cron.New()
	if _, err := cs.cron.AddFunc(cs.Schedule, cs.RunNow); err != nil {
		return err
	}
	cs.cron.Start()
	cs.log.Info().Str("schedule", cs.Schedule).Msg("completion sweeper started")

	cs.RunNow()
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (cs *CompletionSweeper) Stop() {
	if cs.cron == nil {
		return
	}
	<-cs.cron.Stop().Done()
	cs.log.Info().Msg("completion sweeper stopped")
}

// RunNow triggers an immediate sweep (for testing/admin).
func (cs *CompletionSweeper) RunNow() {
	completed, err := cs.Ledger.CompletePastReservations(context.Background())
	if err != nil {
		cs.log.Error().Err(err).Msg("completion sweep failed")
		return
	}
	if completed > 0 {
		cs.log.Info().Int("completed", completed).Msg("completion sweep finished")
	}
}
