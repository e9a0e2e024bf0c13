package reservation

import (
	"context"
	"time"

	"github.com/sksmith/reservation-engine/core"
)

type Repository interface {
	GetReservation(ctx context.Context, reservationID string, options ...core.QueryOptions) (Reservation, error)

	// CreateReservation inserts the reservation only if the id is unused and sets
	// res.Version. A duplicate id, stored or concurrent, yields core.ErrConflict
	// without writing anything.
	CreateReservation(ctx context.Context, res *Reservation, options ...core.UpdateOptions) error

	// SaveReservation writes the reservation and its lines conditioned on
	// res.Version being current and bumps it; a stale version yields
	// core.ErrConflict.
	SaveReservation(ctx context.Context, res *Reservation, options ...core.UpdateOptions) error

	// UpdateReservationState applies the transition only if the stored state
	// still permits it; a lost race yields core.ErrConflict.
	UpdateReservationState(ctx context.Context, reservationID string, state State, declineReason string, options ...core.UpdateOptions) error

	// GetExpired returns reservations still PENDING or CONFIRMED whose expiresAt
	// is before cutoff, oldest first.
	GetExpired(ctx context.Context, cutoff time.Time, limit int, options ...core.QueryOptions) ([]Reservation, error)
}

type Queue interface {
	PublishReservation(ctx context.Context, res Reservation) error
}
