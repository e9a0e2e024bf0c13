package reservation_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sksmith/reservation-engine/core"
	"github.com/sksmith/reservation-engine/core/reservation"
	"github.com/sksmith/reservation-engine/db/resrepo"
)

func TestSweep(t *testing.T) {
	t.Run("expired reservations are released and marked expired", func(t *testing.T) {
		expired := []reservation.Reservation{
			{ReservationID: "res1", State: reservation.Pending, ExpiresAt: time.Now().Add(-time.Hour)},
			{ReservationID: "res2", State: reservation.Confirmed, ExpiresAt: time.Now().Add(-time.Minute)},
		}

		released := []string{}
		marked := map[string]reservation.State{}

		mockRepo := resrepo.NewMockRepo()
		mockRepo.GetExpiredFunc = func(ctx context.Context, cutoff time.Time, limit int, options ...core.QueryOptions) ([]reservation.Reservation, error) {
			return expired, nil
		}
		mockRepo.UpdateReservationStateFunc = func(ctx context.Context, reservationID string, state reservation.State, declineReason string, options ...core.UpdateOptions) error {
			marked[reservationID] = state
			return nil
		}

		mockService := reservation.NewMockReservationService()
		mockService.ReleaseReservationFunc = func(ctx context.Context, reservationID string) (reservation.Reservation, error) {
			released = append(released, reservationID)
			return reservation.Reservation{ReservationID: reservationID, State: reservation.Released}, nil
		}

		sweeper := reservation.NewSweeper(mockRepo, &mockService, time.Minute)

		if err := sweeper.Sweep(context.Background()); err != nil {
			t.Fatalf("did not want error, got=%v", err)
		}

		if len(released) != 2 {
			t.Errorf("unexpected releases %v", released)
		}
		for _, id := range []string{"res1", "res2"} {
			if marked[id] != reservation.Expired {
				t.Errorf("reservation %s not marked expired, got=%s", id, marked[id])
			}
		}
	})

	t.Run("a failed release leaves the record for the next pass", func(t *testing.T) {
		expired := []reservation.Reservation{
			{ReservationID: "res1", State: reservation.Pending, ExpiresAt: time.Now().Add(-time.Hour)},
			{ReservationID: "res2", State: reservation.Pending, ExpiresAt: time.Now().Add(-time.Hour)},
		}

		marked := map[string]reservation.State{}

		mockRepo := resrepo.NewMockRepo()
		mockRepo.GetExpiredFunc = func(ctx context.Context, cutoff time.Time, limit int, options ...core.QueryOptions) ([]reservation.Reservation, error) {
			return expired, nil
		}
		mockRepo.UpdateReservationStateFunc = func(ctx context.Context, reservationID string, state reservation.State, declineReason string, options ...core.UpdateOptions) error {
			marked[reservationID] = state
			return nil
		}

		mockService := reservation.NewMockReservationService()
		mockService.ReleaseReservationFunc = func(ctx context.Context, reservationID string) (reservation.Reservation, error) {
			if reservationID == "res1" {
				return reservation.Reservation{}, errors.New("database unreachable")
			}
			return reservation.Reservation{ReservationID: reservationID, State: reservation.Released}, nil
		}

		sweeper := reservation.NewSweeper(mockRepo, &mockService, time.Minute)

		if err := sweeper.Sweep(context.Background()); err != nil {
			t.Fatalf("did not want error, got=%v", err)
		}

		if _, ok := marked["res1"]; ok {
			t.Error("failed release must not mark the reservation expired")
		}
		if marked["res2"] != reservation.Expired {
			t.Errorf("unexpected state for res2 got=%s", marked["res2"])
		}
	})

	t.Run("nothing expired is a quiet pass", func(t *testing.T) {
		mockRepo := resrepo.NewMockRepo()
		mockService := reservation.NewMockReservationService()

		sweeper := reservation.NewSweeper(mockRepo, &mockService, time.Minute)

		if err := sweeper.Sweep(context.Background()); err != nil {
			t.Fatalf("did not want error, got=%v", err)
		}
	})
}
