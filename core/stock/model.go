// Package stock is the ledger of on-hand quantities. Every mutation funnels through
// the service so that the aggregate invariant available + reserved + damaged +
// expired == total holds for each record at all times.
package stock

import (
	"time"

	"github.com/pkg/errors"
)

// ErrInsufficientStock is a decline, not a failure: no combination of batches at
// the location can cover the requested quantity.
var ErrInsufficientStock = errors.New("stock: insufficient stock")

// StockRecord is an entity. The denormalized aggregate for a product variant at a
// location; its available quantity mirrors the sum of batch remainders.
type StockRecord struct {
	ProductID   string    `json:"productId"`
	VariantID   string    `json:"variantId"`
	LocationID  string    `json:"locationId"`
	Total       int64     `json:"total"`
	Available   int64     `json:"available"`
	Reserved    int64     `json:"reserved"`
	Damaged     int64     `json:"damaged"`
	Expired     int64     `json:"expired"`
	Version     int64     `json:"-"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Balanced reports whether the aggregate invariant holds.
func (r StockRecord) Balanced() bool {
	return r.Available+r.Reserved+r.Damaged+r.Expired == r.Total
}

// Batch is an entity. A quantity of a product variant received together, debited
// earliest expiry first.
type Batch struct {
	BatchID    string    `json:"batchId"`
	ProductID  string    `json:"productId"`
	VariantID  string    `json:"variantId"`
	LocationID string    `json:"locationId"`
	ExpiryDate time.Time `json:"expiryDate"`
	Remaining  int64     `json:"remaining"`
	Version    int64     `json:"-"`
}

type LegState string

const (
	LegReserved  LegState = "RESERVED"
	LegReleased  LegState = "RELEASED"
	LegCommitted LegState = "COMMITTED"
)

// BatchAllocation records a single batch debit belonging to a reservation leg.
// The persisted state makes release and commit idempotent per leg.
type BatchAllocation struct {
	LegID      string   `json:"legId"`
	BatchID    string   `json:"batchId"`
	ProductID  string   `json:"productId"`
	VariantID  string   `json:"variantId"`
	LocationID string   `json:"locationId"`
	Quantity   int64    `json:"quantity"`
	State      LegState `json:"state"`
}

// ReservationLeg is the result of a successful Reserve call.
type ReservationLeg struct {
	LegID       string            `json:"legId"`
	Allocations []BatchAllocation `json:"allocations"`
}

type ReserveRequest struct {
	ProductID  string `json:"productId"`
	VariantID  string `json:"variantId"`
	LocationID string `json:"locationId"`
	Quantity   int64  `json:"quantity"`
}

type AdjustmentKind string

const (
	AdjustDamaged AdjustmentKind = "DAMAGED"
	AdjustExpired AdjustmentKind = "EXPIRED"
)

func ParseAdjustmentKind(v string) (AdjustmentKind, error) {
	switch v {
	case string(AdjustDamaged):
		return AdjustDamaged, nil
	case string(AdjustExpired):
		return AdjustExpired, nil
	default:
		return "", errors.New("invalid adjustment kind")
	}
}

// AdjustmentRequest moves quantity out of available (or reserved, when damage is
// found mid-pick) into the damaged or expired bucket.
type AdjustmentRequest struct {
	LocationID   string         `json:"locationId"`
	BatchID      string         `json:"batchId"`
	Quantity     int64          `json:"quantity"`
	Kind         AdjustmentKind `json:"kind"`
	FromReserved bool           `json:"fromReserved"`
}
