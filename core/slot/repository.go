package slot

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/sksmith/reservation-engine/core"
)

func rollback(ctx context.Context, tx core.Transaction, err error) {
	if tx == nil {
		return
	}
	e := tx.Rollback(ctx)
	if e != nil {
		log.Warn().Err(err).Msg("failed to rollback")
	}
}

type Transactional interface {
	BeginTransaction(ctx context.Context) (core.Transaction, error)
}

type Repository interface {
	Transactional

	GetSlotRecord(ctx context.Context, pincode, slotID, date string, options ...core.QueryOptions) (SlotRecord, error)
	CreateSlotRecord(ctx context.Context, rec SlotRecord, options ...core.UpdateOptions) error

	// UpdateSlotRecord writes rec conditioned on rec.Version being current and
	// bumps it; a stale version yields core.ErrConflict.
	UpdateSlotRecord(ctx context.Context, rec SlotRecord, options ...core.UpdateOptions) error

	SaveSlotLeg(ctx context.Context, leg SlotLeg, options ...core.UpdateOptions) error
	GetSlotLeg(ctx context.Context, legID string, options ...core.QueryOptions) (SlotLeg, error)

	// UpdateSlotLegState applies the transition only while the leg is still
	// RESERVED; a lost race yields core.ErrConflict.
	UpdateSlotLegState(ctx context.Context, legID string, state LegState, options ...core.UpdateOptions) error
}
