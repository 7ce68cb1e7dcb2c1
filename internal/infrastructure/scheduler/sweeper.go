// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/capachica/turismo-api/internal/pkg/metrics"
)

const defaultSweepInterval = 15 * time.Minute

// recoveryTokenCleaner is satisfied by the account repository.
type recoveryTokenCleaner interface {
	ClearExpiredRecoveryTokens(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper clears expired password-reset tokens on a fixed interval. Revoked
// session tokens need no sweep: their Redis entries expire on their own.
type Sweeper struct {
	accounts recoveryTokenCleaner
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

func NewSweeper(accounts recoveryTokenCleaner, interval time.Duration, log zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{accounts: accounts, interval: interval, log: log, now: time.Now}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.SweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single pass and returns the number of tokens cleared.
func (s *Sweeper) SweepOnce(ctx context.Context) int64 {
	n, err := s.accounts.ClearExpiredRecoveryTokens(ctx, s.now().UTC())
	if err != nil {
		if ctx.Err() == nil {
			s.log.Error().Err(err).Msg("recovery token sweep failed")
		}
		return 0
	}
	if n > 0 {
		metrics.RecoveryTokensSweptTotal.Add(float64(n))
		s.log.Info().Int64("cleared", n).Msg("expired recovery tokens cleared")
	}
	return n
}
