// Package reservation coordinates the cross-resource allocation: one order's
// stock debit tied to one delivery-slot booking. The two resources live in
// separate records with no shared atomicity, so the coordinator runs a saga with
// explicit, ordered compensation instead of a distributed transaction.
package reservation

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sksmith/reservation-engine/core/stock"
)

type State string

const (
	// Pending is held from the moment the reservation record is persisted until
	// both legs succeed. A crash or failed compensation leaves the record
	// Pending; the sweeper re-drives the release after expiry.
	Pending   State = "PENDING"
	Confirmed State = "CONFIRMED"
	Committed State = "COMMITTED"
	Released  State = "RELEASED"
	Expired   State = "EXPIRED"
)

func ParseState(v string) (State, error) {
	switch State(v) {
	case Pending, Confirmed, Committed, Released, Expired:
		return State(v), nil
	case "":
		return "", nil
	default:
		return "", errors.New("invalid reservation state")
	}
}

func (s State) Terminal() bool {
	return s == Committed || s == Released || s == Expired
}

// Line is one order line with, once reserved, the stock leg that holds it.
type Line struct {
	ProductID   string                  `json:"productId"`
	VariantID   string                  `json:"variantId"`
	LocationID  string                  `json:"locationId"`
	Quantity    int64                   `json:"quantity"`
	StockLegID  string                  `json:"stockLegId,omitempty"`
	Allocations []stock.BatchAllocation `json:"batchAllocations,omitempty"`
}

// Reservation is an entity, the unit of compensation. The caller-supplied
// ReservationID doubles as the idempotency token.
type Reservation struct {
	ReservationID string    `json:"reservationId"`
	OrderID       string    `json:"orderId"`
	Lines         []Line    `json:"lines"`
	Pincode       string    `json:"pincode"`
	SlotID        string    `json:"slotId"`
	Date          string    `json:"date"`
	Weight        float64   `json:"weight"`
	SlotLegID     string    `json:"slotLegId,omitempty"`
	State         State     `json:"state"`
	DeclineReason string    `json:"declineReason,omitempty"`
	Created       time.Time `json:"created"`
	ExpiresAt     time.Time `json:"expiresAt"`
	Version       int64     `json:"-"`
}

type CreateReservationRequest struct {
	ReservationID string `json:"reservationId"`
	OrderID       string `json:"orderId"`
	Lines         []Line `json:"lines"`
	Pincode       string `json:"pincode"`
	SlotID        string `json:"slotId"`
	Date          string `json:"date"`
}

// CompensationError reports that one leg's release failed after another leg had
// already been taken: real capacity or stock is stuck reserved with no live
// order until the sweeper re-drives the release. It is never swallowed.
type CompensationError struct {
	ReservationID string
	Cause         error
	ReleaseErr    error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("reservation %s: compensation failed: %v (after: %v)", e.ReservationID, e.ReleaseErr, e.Cause)
}

func (e *CompensationError) Unwrap() error { return e.ReleaseErr }
