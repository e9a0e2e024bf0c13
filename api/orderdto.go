package api

import (
	"errors"
	"net/http"

	"github.com/sksmith/reservation-engine/core/order"
)

type CreateOrderRequestDto struct {
	OrderID       string `json:"orderId"`
	ReservationID string `json:"reservationId"`
}

func (d *CreateOrderRequestDto) Bind(_ *http.Request) error {
	if d.OrderID == "" {
		return errors.New("orderId is required")
	}
	if d.ReservationID == "" {
		return errors.New("reservationId is required")
	}

	return nil
}

type TransitionRequestDto struct {
	Status string `json:"status"`

	status order.Status
}

func (d *TransitionRequestDto) Bind(_ *http.Request) error {
	status, err := order.ParseStatus(d.Status)
	if err != nil {
		return err
	}
	d.status = status

	return nil
}

type OrderResponse struct {
	order.Order
}

func (o *OrderResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}
