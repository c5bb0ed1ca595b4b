package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RunSessionSweeper deletes expired sessions every interval until ctx is done.
// A non-positive interval disables the sweep.
func RunSessionSweeper(ctx context.Context, authUsecase AuthUsecase, interval time.Duration, logger *zerolog.Logger) {
	if interval <= 0 {
		logger.Error().Dur("interval", interval).Msg("session sweeper disabled: interval must be positive")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := authUsecase.SweepExpiredSessions(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("failed to sweep expired sessions")
				continue
			}
			if removed > 0 {
				logger.Info().Int("removed", removed).Msg("swept expired sessions")
			}
		}
	}
}
