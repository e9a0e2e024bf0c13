package reservation

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/reservation-engine/core"
)

const sweepBatchSize = 100

// Sweeper reclaims stale PENDING and CONFIRMED reservations whose hold window
// has passed. It is the only protection against orphaned reservations from
// crashed or abandoned checkout flows, and it re-drives failed compensations.
type Sweeper struct {
	repo     Repository
	service  Service
	interval time.Duration
}

func NewSweeper(repo Repository, service Service, interval time.Duration) *Sweeper {
	return &Sweeper{repo: repo, service: service, interval: interval}
}

// Run loops until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	log.Info().Dur("interval", s.interval).Msg("starting reservation expiry sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping reservation expiry sweeper")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				log.Error().Err(err).Msg("reservation sweep failed")
			}
		}
	}
}

// Sweep performs a single pass. Exported so a pass can be driven directly.
func (s *Sweeper) Sweep(ctx context.Context) error {
	const funcName = "Sweep"

	expired, err := s.repo.GetExpired(ctx, time.Now(), sweepBatchSize)
	if err != nil {
		return errors.WithStack(err)
	}

	for _, res := range expired {
		log.Info().
			Str("func", funcName).
			Str("reservationId", res.ReservationID).
			Str("state", string(res.State)).
			Time("expiresAt", res.ExpiresAt).
			Msg("reclaiming expired reservation")

		if _, err := s.service.ReleaseReservation(ctx, res.ReservationID); err != nil {
			// Leave it for the next pass; the record stays PENDING/CONFIRMED.
			log.Error().Err(err).
				Str("reservationId", res.ReservationID).
				Msg("failed to reclaim expired reservation")
			continue
		}

		if err := s.repo.UpdateReservationState(ctx, res.ReservationID, Expired, "ReservationExpired"); err != nil {
			if errors.Is(err, core.ErrConflict) {
				// A commit or release slipped in underneath; its state stands.
				continue
			}
			log.Error().Err(err).
				Str("reservationId", res.ReservationID).
				Msg("failed to mark reservation expired")
			continue
		}

		expiredReclaimed.Inc()
	}

	return nil
}
