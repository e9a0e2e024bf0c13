package resrepo

import (
	"context"
	"time"

	"github.com/sksmith/reservation-engine/core"
	"github.com/sksmith/reservation-engine/core/reservation"
)

type MockRepo struct {
	GetReservationFunc         func(ctx context.Context, reservationID string, options ...core.QueryOptions) (reservation.Reservation, error)
	CreateReservationFunc      func(ctx context.Context, res *reservation.Reservation, options ...core.UpdateOptions) error
	SaveReservationFunc        func(ctx context.Context, res *reservation.Reservation, options ...core.UpdateOptions) error
	UpdateReservationStateFunc func(ctx context.Context, reservationID string, state reservation.State, declineReason string, options ...core.UpdateOptions) error
	GetExpiredFunc             func(ctx context.Context, cutoff time.Time, limit int, options ...core.QueryOptions) ([]reservation.Reservation, error)
}

func NewMockRepo() MockRepo {
	return MockRepo{
		GetReservationFunc: func(ctx context.Context, reservationID string, options ...core.QueryOptions) (reservation.Reservation, error) {
			return reservation.Reservation{}, core.ErrNotFound
		},
		CreateReservationFunc: func(ctx context.Context, res *reservation.Reservation, options ...core.UpdateOptions) error {
			return nil
		},
		SaveReservationFunc: func(ctx context.Context, res *reservation.Reservation, options ...core.UpdateOptions) error {
			return nil
		},
		UpdateReservationStateFunc: func(ctx context.Context, reservationID string, state reservation.State, declineReason string, options ...core.UpdateOptions) error {
			return nil
		},
		GetExpiredFunc: func(ctx context.Context, cutoff time.Time, limit int, options ...core.QueryOptions) ([]reservation.Reservation, error) {
			return nil, nil
		},
	}
}

func (r MockRepo) GetReservation(ctx context.Context, reservationID string, options ...core.QueryOptions) (reservation.Reservation, error) {
	return r.GetReservationFunc(ctx, reservationID, options...)
}

func (r MockRepo) CreateReservation(ctx context.Context, res *reservation.Reservation, options ...core.UpdateOptions) error {
	return r.CreateReservationFunc(ctx, res, options...)
}

func (r MockRepo) SaveReservation(ctx context.Context, res *reservation.Reservation, options ...core.UpdateOptions) error {
	return r.SaveReservationFunc(ctx, res, options...)
}

func (r MockRepo) UpdateReservationState(ctx context.Context, reservationID string, state reservation.State, declineReason string, options ...core.UpdateOptions) error {
	return r.UpdateReservationStateFunc(ctx, reservationID, state, declineReason, options...)
}

func (r MockRepo) GetExpired(ctx context.Context, cutoff time.Time, limit int, options ...core.QueryOptions) ([]reservation.Reservation, error) {
	return r.GetExpiredFunc(ctx, cutoff, limit, options...)
}
