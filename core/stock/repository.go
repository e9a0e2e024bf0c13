package stock

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

	GetStockRecord(ctx context.Context, productID, variantID, locationID string, options ...core.QueryOptions) (StockRecord, error)

	// UpdateStockRecord writes rec conditioned on rec.Version being current and
	// bumps it; a stale version yields core.ErrConflict.
	UpdateStockRecord(ctx context.Context, rec StockRecord, options ...core.UpdateOptions) error

	// GetBatches returns batches with remaining quantity at the location ordered
	// by ascending expiry date.
	GetBatches(ctx context.Context, productID, variantID, locationID string, options ...core.QueryOptions) ([]Batch, error)
	GetBatch(ctx context.Context, batchID string, options ...core.QueryOptions) (Batch, error)

	// UpdateBatch is conditioned on batch.Version, like UpdateStockRecord.
	UpdateBatch(ctx context.Context, batch Batch, options ...core.UpdateOptions) error

	SaveAllocation(ctx context.Context, alloc BatchAllocation, options ...core.UpdateOptions) error
	GetAllocations(ctx context.Context, legID string, options ...core.QueryOptions) ([]BatchAllocation, error)
	GetAllocation(ctx context.Context, legID, batchID string, options ...core.QueryOptions) (BatchAllocation, error)

	// UpdateAllocationState applies the transition only while the allocation is
	// still RESERVED; a lost race yields core.ErrConflict.
	UpdateAllocationState(ctx context.Context, legID, batchID string, state LegState, options ...core.UpdateOptions) error
}

type Queue interface {
	PublishStock(ctx context.Context, rec StockRecord) error
}
