package order

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/reservation-engine/core"
	"github.com/sksmith/reservation-engine/core/reservation"
)

func NewService(repo Repository, resSvc reservation.Service, q Queue, failedPolicy FailedPolicy) *service {
	return &service{repo: repo, reservations: resSvc, queue: q, failedPolicy: failedPolicy}
}

type Service interface {
	CreateOrder(ctx context.Context, orderID, reservationID string) (Order, error)
	Transition(ctx context.Context, orderID string, to Status) (Order, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
}

type Repository interface {
	GetOrder(ctx context.Context, orderID string, options ...core.QueryOptions) (Order, error)
	SaveOrder(ctx context.Context, order *Order, options ...core.UpdateOptions) error
	UpdateOrderStatus(ctx context.Context, orderID string, status Status, options ...core.UpdateOptions) error
}

type Queue interface {
	PublishOrder(ctx context.Context, order Order) error
}

type service struct {
	repo         Repository
	reservations reservation.Service
	queue        Queue
	failedPolicy FailedPolicy
}

// CreateOrder places an order on top of a CONFIRMED reservation. Creating the
// same order twice returns the stored order unchanged.
func (s *service) CreateOrder(ctx context.Context, orderID, reservationID string) (Order, error) {
	const funcName = "CreateOrder"

	log.Info().
		Str("func", funcName).
		Str("orderId", orderID).
		Str("reservationId", reservationID).
		Msg("placing order")

	if orderID == "" {
		return Order{}, errors.New("order id is required")
	}

	existing, err := s.repo.GetOrder(ctx, orderID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return Order{}, errors.WithStack(err)
	}
	if err == nil {
		log.Debug().Str("func", funcName).Str("orderId", orderID).Msg("order already exists, returning it")
		return existing, nil
	}

	res, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return Order{}, errors.WithMessage(err, "failed to get reservation")
	}
	if res.State != reservation.Confirmed {
		return Order{}, errors.Errorf("cannot place order on reservation in state %s", res.State)
	}

	order := Order{
		OrderID:       orderID,
		ReservationID: reservationID,
		Lines:         res.Lines,
		Pincode:       res.Pincode,
		SlotID:        res.SlotID,
		Date:          res.Date,
		Status:        Placed,
		Created:       time.Now(),
		Updated:       time.Now(),
	}

	if err = s.repo.SaveOrder(ctx, &order); err != nil {
		return Order{}, errors.WithStack(err)
	}

	s.publish(ctx, order)
	return order, nil
}

// Transition applies one lifecycle event and triggers the matching reservation
// operation: DELIVERED commits, CANCELLED releases, FAILED follows the
// configured policy.
func (s *service) Transition(ctx context.Context, orderID string, to Status) (Order, error) {
	const funcName = "Transition"

	log.Info().
		Str("func", funcName).
		Str("orderId", orderID).
		Str("to", string(to)).
		Msg("transitioning order")

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, errors.WithStack(err)
	}

	if order.Status == to {
		log.Debug().Str("func", funcName).Str("orderId", orderID).Msg("order already in requested status")
		return order, nil
	}

	if !canTransition(order.Status, to) {
		return order, errors.Errorf("invalid transition %s -> %s", order.Status, to)
	}

	switch to {
	case Delivered:
		if _, err = s.reservations.CommitReservation(ctx, order.ReservationID); err != nil {
			return order, errors.WithMessage(err, "failed to commit reservation")
		}
	case Cancelled:
		if _, err = s.reservations.ReleaseReservation(ctx, order.ReservationID); err != nil {
			return order, errors.WithMessage(err, "failed to release reservation")
		}
	case Failed:
		if s.failedPolicy == FailedRelease {
			if _, err = s.reservations.ReleaseReservation(ctx, order.ReservationID); err != nil {
				return order, errors.WithMessage(err, "failed to release reservation")
			}
		}
		// Under the redeliver policy the reservation stays held so the order
		// can go back out without re-reserving.
	}

	order.Status = to
	order.Updated = time.Now()
	if err = s.repo.UpdateOrderStatus(ctx, orderID, to); err != nil {
		return order, errors.WithStack(err)
	}

	s.publish(ctx, order)
	return order, nil
}

func (s *service) GetOrder(ctx context.Context, orderID string) (Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return order, errors.WithStack(err)
	}
	return order, nil
}

func (s *service) publish(ctx context.Context, order Order) {
	if err := s.queue.PublishOrder(ctx, order); err != nil {
		log.Warn().Err(err).Str("orderId", order.OrderID).Msg("failed to publish order update")
	}
}
