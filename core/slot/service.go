package slot

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/reservation-engine/core"
)

func NewService(repo Repository, zones Zones, retry core.RetryPolicy) *service {
	return &service{repo: repo, zones: zones, retry: retry}
}

type Service interface {
	CheckAvailability(ctx context.Context, pincode, date string) ([]Availability, error)
	ReserveSlot(ctx context.Context, pincode, slotID, date string, weight float64) (SlotLeg, error)
	ReleaseSlot(ctx context.Context, legID string) error
}

type service struct {
	repo  Repository
	zones Zones
	retry core.RetryPolicy
}

// CheckAvailability lists the zone's slots for the date with current headroom.
// Slots with no record yet report full template capacity.
func (s *service) CheckAvailability(ctx context.Context, pincode, date string) ([]Availability, error) {
	const funcName = "CheckAvailability"

	log.Info().
		Str("func", funcName).
		Str("pincode", pincode).
		Str("date", date).
		Msg("checking slot availability")

	zone, ok := s.zones.Resolve(pincode)
	if !ok {
		return nil, ErrNoZoneForPincode
	}

	day, err := dayOfWeek(date)
	if err != nil {
		return nil, err
	}

	avail := make([]Availability, 0)
	for _, tmpl := range zone.Slots {
		if !dayAvailable(tmpl, day) {
			continue
		}

		rec, err := s.repo.GetSlotRecord(ctx, pincode, tmpl.SlotID, date)
		if err != nil {
			if !errors.Is(err, core.ErrNotFound) {
				return nil, errors.WithStack(err)
			}
			rec = newRecordFromTemplate(pincode, date, tmpl)
		}

		avail = append(avail, Availability{
			SlotID:            tmpl.SlotID,
			Name:              tmpl.Name,
			StartTime:         tmpl.StartTime,
			EndTime:           tmpl.EndTime,
			RemainingCapacity: rec.MaxCapacity - rec.CurrentBookings,
			RemainingWeight:   rec.MaxWeight - rec.CurrentWeight,
			Charge:            rec.DeliveryCharge,
			Status:            rec.Status,
		})
	}

	return avail, nil
}

// ReserveSlot books one delivery against the slot's count and weight capacity.
// The increment is conditioned on the version read at the start of the attempt.
func (s *service) ReserveSlot(ctx context.Context, pincode, slotID, date string, weight float64) (SlotLeg, error) {
	const funcName = "ReserveSlot"

	log.Info().
		Str("func", funcName).
		Str("pincode", pincode).
		Str("slotId", slotID).
		Str("date", date).
		Float64("weight", weight).
		Msg("reserving slot capacity")

	zone, ok := s.zones.Resolve(pincode)
	if !ok {
		return SlotLeg{}, ErrNoZoneForPincode
	}
	tmpl, ok := zone.Template(slotID)
	if !ok {
		return SlotLeg{}, errors.WithStack(core.ErrNotFound)
	}

	var leg SlotLeg
	err := s.retry.Retry(ctx, func(ctx context.Context) error {
		l, err := s.tryReserve(ctx, pincode, date, tmpl, weight)
		if err != nil {
			return err
		}
		leg = l
		return nil
	})
	if err != nil {
		return SlotLeg{}, err
	}

	return leg, nil
}

func (s *service) tryReserve(ctx context.Context, pincode, date string, tmpl SlotTemplate, weight float64) (SlotLeg, error) {
	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return SlotLeg{}, errors.WithStack(err)
	}

	defer func() {
		if err != nil {
			rollback(ctx, tx, err)
		}
	}()

	rec, err := s.repo.GetSlotRecord(ctx, pincode, tmpl.SlotID, date, core.QueryOptions{Tx: tx})
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			return SlotLeg{}, errors.WithStack(err)
		}

		// First booking for this (pincode, slot, date); seed from the template.
		rec = newRecordFromTemplate(pincode, date, tmpl)
		if err = s.repo.CreateSlotRecord(ctx, rec, core.UpdateOptions{Tx: tx}); err != nil {
			return SlotLeg{}, err
		}
	}

	if rec.Status == StatusClosed {
		err = ErrSlotClosed
		return SlotLeg{}, err
	}
	if rec.CurrentBookings >= rec.MaxCapacity {
		err = ErrSlotFull
		return SlotLeg{}, err
	}
	if rec.CurrentWeight+weight > rec.MaxWeight {
		err = ErrSlotWeightExceeded
		return SlotLeg{}, err
	}

	rec.CurrentBookings++
	rec.CurrentWeight += weight
	if rec.CurrentBookings >= rec.MaxCapacity {
		rec.Status = StatusFull
	}
	rec.LastUpdated = time.Now()

	if err = s.repo.UpdateSlotRecord(ctx, rec, core.UpdateOptions{Tx: tx}); err != nil {
		return SlotLeg{}, err
	}

	leg := SlotLeg{
		LegID:   uuid.NewString(),
		Pincode: pincode,
		SlotID:  tmpl.SlotID,
		Date:    date,
		Weight:  weight,
		State:   LegReserved,
	}
	if err = s.repo.SaveSlotLeg(ctx, leg, core.UpdateOptions{Tx: tx}); err != nil {
		return SlotLeg{}, errors.WithStack(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return SlotLeg{}, errors.WithStack(err)
	}

	return leg, nil
}

// ReleaseSlot returns the booking and weight taken at reserve time. Releasing an
// already released leg is a no-op, decided again inside the transaction so two
// racing releases return the capacity exactly once.
func (s *service) ReleaseSlot(ctx context.Context, legID string) error {
	const funcName = "ReleaseSlot"

	log.Info().Str("func", funcName).Str("legId", legID).Msg("releasing slot capacity")

	leg, err := s.repo.GetSlotLeg(ctx, legID)
	if err != nil {
		return errors.WithStack(err)
	}

	if leg.State != LegReserved {
		log.Debug().
			Str("func", funcName).
			Str("legId", legID).
			Str("state", string(leg.State)).
			Msg("slot leg not reserved, skipping")
		return nil
	}

	return s.retry.Retry(ctx, func(ctx context.Context) error {
		return s.tryRelease(ctx, legID)
	})
}

func (s *service) tryRelease(ctx context.Context, legID string) error {
	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	defer func() {
		if err != nil {
			rollback(ctx, tx, err)
		}
	}()

	// The state read before the transaction may be stale; only this one counts.
	leg, err := s.repo.GetSlotLeg(ctx, legID, core.QueryOptions{Tx: tx})
	if err != nil {
		return errors.WithStack(err)
	}
	if leg.State != LegReserved {
		return tx.Commit(ctx)
	}

	// Flip the state before returning any capacity. The update is conditioned on
	// the leg still being RESERVED, so of two racing releases only one gets past
	// this line; the loser retries, re-reads RELEASED, and no-ops.
	if err = s.repo.UpdateSlotLegState(ctx, leg.LegID, LegReleased, core.UpdateOptions{Tx: tx}); err != nil {
		return errors.WithStack(err)
	}

	rec, err := s.repo.GetSlotRecord(ctx, leg.Pincode, leg.SlotID, leg.Date, core.QueryOptions{Tx: tx})
	if err != nil {
		return errors.WithStack(err)
	}

	rec.CurrentBookings--
	rec.CurrentWeight -= leg.Weight
	if rec.Status == StatusFull && rec.CurrentBookings < rec.MaxCapacity {
		rec.Status = StatusAvailable
	}
	rec.LastUpdated = time.Now()

	if err = s.repo.UpdateSlotRecord(ctx, rec, core.UpdateOptions{Tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func newRecordFromTemplate(pincode, date string, tmpl SlotTemplate) SlotRecord {
	return SlotRecord{
		Pincode:        pincode,
		SlotID:         tmpl.SlotID,
		Date:           date,
		MaxCapacity:    tmpl.MaxCapacity,
		MaxWeight:      tmpl.MaxWeightKg,
		DeliveryCharge: tmpl.DeliveryCharge,
		Status:         StatusAvailable,
		LastUpdated:    time.Now(),
	}
}

func dayOfWeek(date string) (string, error) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", errors.New("invalid date, expected YYYY-MM-DD")
	}
	return strings.ToUpper(d.Weekday().String()[:3]), nil
}

func dayAvailable(tmpl SlotTemplate, day string) bool {
	if len(tmpl.DaysAvailable) == 0 {
		return true
	}
	for _, d := range tmpl.DaysAvailable {
		if strings.EqualFold(d, day) {
			return true
		}
	}
	return false
}
