package stockrepo

import (
	"context"

	"github.com/sksmith/reservation-engine/core"
	"github.com/sksmith/reservation-engine/core/stock"
	"github.com/sksmith/reservation-engine/db"
)

type MockRepo struct {
	GetStockRecordFunc    func(ctx context.Context, productID, variantID, locationID string, options ...core.QueryOptions) (stock.StockRecord, error)
	UpdateStockRecordFunc func(ctx context.Context, rec stock.StockRecord, options ...core.UpdateOptions) error

	GetBatchesFunc  func(ctx context.Context, productID, variantID, locationID string, options ...core.QueryOptions) ([]stock.Batch, error)
	GetBatchFunc    func(ctx context.Context, batchID string, options ...core.QueryOptions) (stock.Batch, error)
	UpdateBatchFunc func(ctx context.Context, batch stock.Batch, options ...core.UpdateOptions) error

	SaveAllocationFunc        func(ctx context.Context, alloc stock.BatchAllocation, options ...core.UpdateOptions) error
	GetAllocationsFunc        func(ctx context.Context, legID string, options ...core.QueryOptions) ([]stock.BatchAllocation, error)
	GetAllocationFunc         func(ctx context.Context, legID, batchID string, options ...core.QueryOptions) (stock.BatchAllocation, error)
	UpdateAllocationStateFunc func(ctx context.Context, legID, batchID string, state stock.LegState, options ...core.UpdateOptions) error

	BeginTransactionFunc func(ctx context.Context) (core.Transaction, error)
}

func NewMockRepo() MockRepo {
	return MockRepo{
		GetStockRecordFunc: func(ctx context.Context, productID, variantID, locationID string, options ...core.QueryOptions) (stock.StockRecord, error) {
			return stock.StockRecord{}, nil
		},
		UpdateStockRecordFunc: func(ctx context.Context, rec stock.StockRecord, options ...core.UpdateOptions) error {
			return nil
		},
		GetBatchesFunc: func(ctx context.Context, productID, variantID, locationID string, options ...core.QueryOptions) ([]stock.Batch, error) {
			return nil, nil
		},
		GetBatchFunc: func(ctx context.Context, batchID string, options ...core.QueryOptions) (stock.Batch, error) {
			return stock.Batch{}, nil
		},
		UpdateBatchFunc: func(ctx context.Context, batch stock.Batch, options ...core.UpdateOptions) error { return nil },
		SaveAllocationFunc: func(ctx context.Context, alloc stock.BatchAllocation, options ...core.UpdateOptions) error {
			return nil
		},
		GetAllocationsFunc: func(ctx context.Context, legID string, options ...core.QueryOptions) ([]stock.BatchAllocation, error) {
			return nil, nil
		},
		GetAllocationFunc: func(ctx context.Context, legID, batchID string, options ...core.QueryOptions) (stock.BatchAllocation, error) {
			return stock.BatchAllocation{LegID: legID, BatchID: batchID, State: stock.LegReserved}, nil
		},
		UpdateAllocationStateFunc: func(ctx context.Context, legID, batchID string, state stock.LegState, options ...core.UpdateOptions) error {
			return nil
		},
		BeginTransactionFunc: func(ctx context.Context) (core.Transaction, error) { return db.NewMockTransaction(), nil },
	}
}

func (r MockRepo) GetStockRecord(ctx context.Context, productID, variantID, locationID string, options ...core.QueryOptions) (stock.StockRecord, error) {
	return r.GetStockRecordFunc(ctx, productID, variantID, locationID, options...)
}

func (r MockRepo) UpdateStockRecord(ctx context.Context, rec stock.StockRecord, options ...core.UpdateOptions) error {
	return r.UpdateStockRecordFunc(ctx, rec, options...)
}

func (r MockRepo) GetBatches(ctx context.Context, productID, variantID, locationID string, options ...core.QueryOptions) ([]stock.Batch, error) {
	return r.GetBatchesFunc(ctx, productID, variantID, locationID, options...)
}

func (r MockRepo) GetBatch(ctx context.Context, batchID string, options ...core.QueryOptions) (stock.Batch, error) {
	return r.GetBatchFunc(ctx, batchID, options...)
}

func (r MockRepo) UpdateBatch(ctx context.Context, batch stock.Batch, options ...core.UpdateOptions) error {
	return r.UpdateBatchFunc(ctx, batch, options...)
}

func (r MockRepo) SaveAllocation(ctx context.Context, alloc stock.BatchAllocation, options ...core.UpdateOptions) error {
	return r.SaveAllocationFunc(ctx, alloc, options...)
}

func (r MockRepo) GetAllocations(ctx context.Context, legID string, options ...core.QueryOptions) ([]stock.BatchAllocation, error) {
	return r.GetAllocationsFunc(ctx, legID, options...)
}

func (r MockRepo) GetAllocation(ctx context.Context, legID, batchID string, options ...core.QueryOptions) (stock.BatchAllocation, error) {
	return r.GetAllocationFunc(ctx, legID, batchID, options...)
}

func (r MockRepo) UpdateAllocationState(ctx context.Context, legID, batchID string, state stock.LegState, options ...core.UpdateOptions) error {
	return r.UpdateAllocationStateFunc(ctx, legID, batchID, state, options...)
}

func (r MockRepo) BeginTransaction(ctx context.Context) (core.Transaction, error) {
	return r.BeginTransactionFunc(ctx)
}
