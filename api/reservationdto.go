package api

import (
	"errors"
	"net/http"

	"github.com/sksmith/reservation-engine/core/reservation"
)

type CreateReservationRequestDto struct {
	*reservation.CreateReservationRequest
}

func (d *CreateReservationRequestDto) Bind(_ *http.Request) error {
	if d.CreateReservationRequest == nil {
		return errors.New("missing required reservation fields")
	}
	if d.ReservationID == "" {
		return errors.New("reservationId is required")
	}
	if len(d.Lines) == 0 {
		return errors.New("at least one line is required")
	}
	for _, line := range d.Lines {
		if line.ProductID == "" || line.VariantID == "" || line.LocationID == "" {
			return errors.New("productId, variantId and locationId are required on every line")
		}
		if line.Quantity < 1 {
			return errors.New("line quantity must be greater than zero")
		}
	}
	if d.Pincode == "" || d.SlotID == "" || d.Date == "" {
		return errors.New("pincode, slotId and date are required")
	}

	return nil
}

type ReservationResponse struct {
	reservation.Reservation
}

func (r *ReservationResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}
