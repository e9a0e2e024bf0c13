package reservation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/reservation-engine/core"
	"github.com/sksmith/reservation-engine/core/catalog"
	"github.com/sksmith/reservation-engine/core/slot"
	"github.com/sksmith/reservation-engine/core/stock"
)

func NewService(repo Repository, stockSvc stock.Service, slotSvc slot.Service, cat catalog.Service, q Queue, holdDuration time.Duration) *service {
	return &service{
		repo:         repo,
		stock:        stockSvc,
		slots:        slotSvc,
		catalog:      cat,
		queue:        q,
		holdDuration: holdDuration,
		resSubs:      make(map[ReservationSubscriptionID]chan<- Reservation),
	}
}

type Service interface {
	CreateReservation(ctx context.Context, req CreateReservationRequest) (Reservation, error)
	ReleaseReservation(ctx context.Context, reservationID string) (Reservation, error)
	CommitReservation(ctx context.Context, reservationID string) (Reservation, error)
	GetReservation(ctx context.Context, reservationID string) (Reservation, error)

	SubscribeReservations(ch chan<- Reservation) (id ReservationSubscriptionID)
	UnsubscribeReservations(id ReservationSubscriptionID)
}

type ReservationSubscriptionID string

type service struct {
	repo         Repository
	stock        stock.Service
	slots        slot.Service
	catalog      catalog.Service
	queue        Queue
	holdDuration time.Duration

	subMu   sync.Mutex
	resSubs map[ReservationSubscriptionID]chan<- Reservation
}

// CreateReservation runs the saga: all stock legs in line order, then the slot
// leg, compensating in strict reverse order on any failure. Calling it again
// with the same reservationId returns the stored outcome without touching any
// counter, so callers retry on timeout with the same id.
func (s *service) CreateReservation(ctx context.Context, req CreateReservationRequest) (Reservation, error) {
	const funcName = "CreateReservation"

	log.Info().
		Str("func", funcName).
		Str("reservationId", req.ReservationID).
		Str("orderId", req.OrderID).
		Str("pincode", req.Pincode).
		Str("slotId", req.SlotID).
		Str("date", req.Date).
		Int("lines", len(req.Lines)).
		Msg("creating reservation")

	if req.ReservationID == "" {
		return Reservation{}, errors.New("reservation id is required")
	}
	if len(req.Lines) == 0 {
		return Reservation{}, errors.New("at least one line is required")
	}

	existing, err := s.repo.GetReservation(ctx, req.ReservationID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return Reservation{}, errors.WithStack(err)
	}
	if err == nil {
		log.Debug().
			Str("func", funcName).
			Str("reservationId", req.ReservationID).
			Str("state", string(existing.State)).
			Msg("reservation already exists, returning it")
		return existing, nil
	}

	weight, err := s.totalWeight(ctx, req.Lines)
	if err != nil {
		return Reservation{}, errors.WithMessage(err, "failed to compute order weight")
	}

	res := Reservation{
		ReservationID: req.ReservationID,
		OrderID:       req.OrderID,
		Lines:         req.Lines,
		Pincode:       req.Pincode,
		SlotID:        req.SlotID,
		Date:          req.Date,
		Weight:        weight,
		State:         Pending,
		Created:       time.Now(),
		ExpiresAt:     time.Now().Add(s.holdDuration),
	}

	// Persisted before any leg is taken: if we crash mid-saga the sweeper finds
	// this record and releases whatever legs were recorded. The insert only
	// succeeds for an unused id, so of two concurrent requests carrying the same
	// id exactly one runs the saga; the other returns the winner's record.
	if err = s.repo.CreateReservation(ctx, &res); err != nil {
		if !errors.Is(err, core.ErrConflict) {
			return Reservation{}, errors.WithStack(err)
		}
		existing, err := s.repo.GetReservation(ctx, req.ReservationID)
		if err != nil {
			return Reservation{}, errors.WithStack(err)
		}
		log.Debug().
			Str("func", funcName).
			Str("reservationId", req.ReservationID).
			Str("state", string(existing.State)).
			Msg("lost the insert to a concurrent request, returning its reservation")
		return existing, nil
	}

	for i := range res.Lines {
		line := &res.Lines[i]

		leg, err := s.stock.Reserve(ctx, stock.ReserveRequest{
			ProductID:  line.ProductID,
			VariantID:  line.VariantID,
			LocationID: line.LocationID,
			Quantity:   line.Quantity,
		})
		if err != nil {
			return s.decline(ctx, &res, i, err)
		}

		line.StockLegID = leg.LegID
		line.Allocations = leg.Allocations
		if err = s.repo.SaveReservation(ctx, &res); err != nil {
			return s.decline(ctx, &res, i+1, err)
		}
	}

	slotLeg, err := s.slots.ReserveSlot(ctx, req.Pincode, req.SlotID, req.Date, weight)
	if err != nil {
		return s.decline(ctx, &res, len(res.Lines), err)
	}
	res.SlotLegID = slotLeg.LegID

	res.State = Confirmed
	if err = s.repo.SaveReservation(ctx, &res); err != nil {
		return Reservation{}, errors.WithStack(err)
	}

	s.publish(ctx, res)
	return res, nil
}

// decline compensates the first reservedLines stock legs in reverse order, marks
// the reservation released with the decline reason, and returns cause.
func (s *service) decline(ctx context.Context, res *Reservation, reservedLines int, cause error) (Reservation, error) {
	const funcName = "decline"

	declineCount.WithLabelValues(reason(cause)).Inc()

	for i := reservedLines - 1; i >= 0; i-- {
		line := res.Lines[i]
		if line.StockLegID == "" {
			continue
		}
		if err := s.stock.Release(ctx, line.StockLegID); err != nil {
			compensationFailures.Inc()
			cerr := &CompensationError{ReservationID: res.ReservationID, Cause: cause, ReleaseErr: err}
			log.Error().
				Stack().
				Err(cerr).
				Str("func", funcName).
				Str("reservationId", res.ReservationID).
				Str("stockLegId", line.StockLegID).
				Str("productId", line.ProductID).
				Int64("quantity", line.Quantity).
				Msg("stock leg release failed during compensation, sweeper will re-drive")
			return *res, cerr
		}
	}

	res.State = Released
	res.DeclineReason = reason(cause)
	if err := s.repo.UpdateReservationState(ctx, res.ReservationID, Released, res.DeclineReason); err != nil {
		// The legs are released; a stale state here only delays the sweeper.
		log.Error().Err(err).
			Str("reservationId", res.ReservationID).
			Msg("failed to mark declined reservation released")
	}

	s.publish(ctx, *res)
	return *res, cause
}

// ReleaseReservation releases both legs and marks the reservation RELEASED.
// Terminal reservations are left untouched; releasing twice is a no-op.
func (s *service) ReleaseReservation(ctx context.Context, reservationID string) (Reservation, error) {
	const funcName = "ReleaseReservation"

	log.Info().Str("func", funcName).Str("reservationId", reservationID).Msg("releasing reservation")

	res, err := s.repo.GetReservation(ctx, reservationID)
	if err != nil {
		return Reservation{}, errors.WithStack(err)
	}

	if res.State.Terminal() {
		log.Debug().
			Str("func", funcName).
			Str("reservationId", reservationID).
			Str("state", string(res.State)).
			Msg("reservation already terminal")
		return res, nil
	}

	if err = s.releaseLegs(ctx, &res); err != nil {
		return res, err
	}

	res.State = Released
	if err = s.repo.UpdateReservationState(ctx, reservationID, Released, res.DeclineReason); err != nil {
		if errors.Is(err, core.ErrConflict) {
			// Another transition won the record. The legs are individually
			// idempotent, so nothing was credited twice; return what it stored.
			return s.repo.GetReservation(ctx, reservationID)
		}
		return res, errors.WithStack(err)
	}

	s.publish(ctx, res)
	return res, nil
}

// releaseLegs undoes the saga in reverse order of acquisition: slot leg first,
// then stock legs from last line to first.
func (s *service) releaseLegs(ctx context.Context, res *Reservation) error {
	if res.SlotLegID != "" {
		if err := s.slots.ReleaseSlot(ctx, res.SlotLegID); err != nil {
			compensationFailures.Inc()
			cerr := &CompensationError{ReservationID: res.ReservationID, ReleaseErr: err}
			log.Error().
				Stack().
				Err(cerr).
				Str("reservationId", res.ReservationID).
				Str("slotLegId", res.SlotLegID).
				Msg("slot leg release failed, sweeper will re-drive")
			return cerr
		}
	}

	for i := len(res.Lines) - 1; i >= 0; i-- {
		line := res.Lines[i]
		if line.StockLegID == "" {
			continue
		}
		if err := s.stock.Release(ctx, line.StockLegID); err != nil {
			compensationFailures.Inc()
			cerr := &CompensationError{ReservationID: res.ReservationID, ReleaseErr: err}
			log.Error().
				Stack().
				Err(cerr).
				Str("reservationId", res.ReservationID).
				Str("stockLegId", line.StockLegID).
				Msg("stock leg release failed, sweeper will re-drive")
			return cerr
		}
	}

	return nil
}

// CommitReservation converts the stock hold into a permanent deduction. Slot
// capacity is not returned: the delivery consumed it. Valid only from CONFIRMED;
// terminal states are a no-op.
func (s *service) CommitReservation(ctx context.Context, reservationID string) (Reservation, error) {
	const funcName = "CommitReservation"

	log.Info().Str("func", funcName).Str("reservationId", reservationID).Msg("committing reservation")

	res, err := s.repo.GetReservation(ctx, reservationID)
	if err != nil {
		return Reservation{}, errors.WithStack(err)
	}

	if res.State.Terminal() {
		log.Debug().
			Str("func", funcName).
			Str("reservationId", reservationID).
			Str("state", string(res.State)).
			Msg("reservation already terminal")
		return res, nil
	}

	if res.State != Confirmed {
		return res, errors.Errorf("cannot commit reservation in state %s", res.State)
	}

	for _, line := range res.Lines {
		if err = s.stock.Commit(ctx, line.StockLegID); err != nil {
			return res, errors.WithMessage(err, "failed to commit stock leg")
		}
	}

	res.State = Committed
	if err = s.repo.UpdateReservationState(ctx, reservationID, Committed, ""); err != nil {
		if errors.Is(err, core.ErrConflict) {
			return s.repo.GetReservation(ctx, reservationID)
		}
		return res, errors.WithStack(err)
	}

	s.publish(ctx, res)
	return res, nil
}

func (s *service) GetReservation(ctx context.Context, reservationID string) (Reservation, error) {
	res, err := s.repo.GetReservation(ctx, reservationID)
	if err != nil {
		return res, errors.WithStack(err)
	}
	return res, nil
}

func (s *service) totalWeight(ctx context.Context, lines []Line) (float64, error) {
	var weight float64
	for _, line := range lines {
		if line.Quantity < 1 {
			return 0, errors.New("line quantity must be greater than zero")
		}
		unit, err := s.catalog.GetUnitWeight(ctx, line.ProductID, line.VariantID)
		if err != nil {
			return 0, err
		}
		weight += unit * float64(line.Quantity)
	}
	return weight, nil
}

func (s *service) SubscribeReservations(ch chan<- Reservation) (id ReservationSubscriptionID) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id = ReservationSubscriptionID(uuid.NewString())
	s.resSubs[id] = ch
	log.Debug().Interface("clientId", id).Msg("subscribing to reservation updates")
	return id
}

func (s *service) UnsubscribeReservations(id ReservationSubscriptionID) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	log.Debug().Interface("clientId", id).Msg("unsubscribing from reservation updates")
	if ch, ok := s.resSubs[id]; ok {
		close(ch)
		delete(s.resSubs, id)
	}
}

func (s *service) publish(ctx context.Context, res Reservation) {
	if err := s.queue.PublishReservation(ctx, res); err != nil {
		log.Warn().Err(err).Str("reservationId", res.ReservationID).Msg("failed to publish reservation update")
	}
	go s.notifySubscribers(res)
}

func (s *service) notifySubscribers(res Reservation) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.resSubs {
		log.Debug().Interface("clientId", id).Str("reservationId", res.ReservationID).Msg("notifying subscriber of reservation update")
		ch <- res
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, stock.ErrInsufficientStock):
		return "InsufficientStock"
	case errors.Is(err, slot.ErrSlotFull):
		return "SlotFull"
	case errors.Is(err, slot.ErrSlotWeightExceeded):
		return "SlotWeightExceeded"
	case errors.Is(err, slot.ErrSlotClosed):
		return "SlotClosed"
	case errors.Is(err, core.ErrTemporaryUnavailable):
		return "TemporaryUnavailable"
	default:
		return "InternalError"
	}
}
