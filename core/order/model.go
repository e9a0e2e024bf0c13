// Package order drives the delivery lifecycle. Transitions are one-directional;
// the terminal DELIVERED state commits the underlying reservation and CANCELLED
// or FAILED releases it, depending on the failed-delivery policy.
package order

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sksmith/reservation-engine/core/reservation"
)

type Status string

const (
	Placed         Status = "PLACED"
	Packed         Status = "PACKED"
	OutForDelivery Status = "OUT_FOR_DELIVERY"
	Delivered      Status = "DELIVERED"
	Cancelled      Status = "CANCELLED"
	Failed         Status = "FAILED"
)

func ParseStatus(v string) (Status, error) {
	switch Status(v) {
	case Placed, Packed, OutForDelivery, Delivered, Cancelled, Failed:
		return Status(v), nil
	default:
		return "", errors.New("invalid order status")
	}
}

func (s Status) Terminal() bool {
	return s == Delivered || s == Cancelled
}

// FailedPolicy decides what a FAILED delivery does to the reservation.
type FailedPolicy string

const (
	// FailedRelease releases the reservation; the order terminates FAILED.
	FailedRelease FailedPolicy = "release"
	// FailedRedeliver keeps the reservation held; the order may go back
	// OUT_FOR_DELIVERY without re-reserving.
	FailedRedeliver FailedPolicy = "redeliver"
)

func ParseFailedPolicy(v string) (FailedPolicy, error) {
	switch FailedPolicy(v) {
	case FailedRelease, FailedRedeliver:
		return FailedPolicy(v), nil
	default:
		return "", errors.New("invalid failed delivery policy")
	}
}

// Order is an entity, created when its reservation reaches CONFIRMED.
type Order struct {
	OrderID       string             `json:"orderId"`
	ReservationID string             `json:"reservationId"`
	Lines         []reservation.Line `json:"lines"`
	Pincode       string             `json:"pincode"`
	SlotID        string             `json:"slotId"`
	Date          string             `json:"date"`
	Status        Status             `json:"status"`
	Created       time.Time          `json:"created"`
	Updated       time.Time          `json:"updated"`
	Version       int64              `json:"-"`
}

// transitions holds the permitted forward edges. FAILED -> OUT_FOR_DELIVERY is
// the redelivery retry; it does not re-reserve because the original reservation
// is still held under the redeliver policy.
var transitions = map[Status][]Status{
	Placed:         {Packed, Cancelled},
	Packed:         {OutForDelivery, Cancelled},
	OutForDelivery: {Delivered, Failed, Cancelled},
	Failed:         {OutForDelivery},
}

func canTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
