package slotrepo

import (
	"context"

	"github.com/sksmith/reservation-engine/core"
	"github.com/sksmith/reservation-engine/core/slot"
	"github.com/sksmith/reservation-engine/db"
)

type MockRepo struct {
	GetSlotRecordFunc    func(ctx context.Context, pincode, slotID, date string, options ...core.QueryOptions) (slot.SlotRecord, error)
	CreateSlotRecordFunc func(ctx context.Context, rec slot.SlotRecord, options ...core.UpdateOptions) error
	UpdateSlotRecordFunc func(ctx context.Context, rec slot.SlotRecord, options ...core.UpdateOptions) error

	SaveSlotLegFunc        func(ctx context.Context, leg slot.SlotLeg, options ...core.UpdateOptions) error
	GetSlotLegFunc         func(ctx context.Context, legID string, options ...core.QueryOptions) (slot.SlotLeg, error)
	UpdateSlotLegStateFunc func(ctx context.Context, legID string, state slot.LegState, options ...core.UpdateOptions) error

	BeginTransactionFunc func(ctx context.Context) (core.Transaction, error)
}

func NewMockRepo() MockRepo {
	return MockRepo{
		GetSlotRecordFunc: func(ctx context.Context, pincode, slotID, date string, options ...core.QueryOptions) (slot.SlotRecord, error) {
			return slot.SlotRecord{}, nil
		},
		CreateSlotRecordFunc: func(ctx context.Context, rec slot.SlotRecord, options ...core.UpdateOptions) error { return nil },
		UpdateSlotRecordFunc: func(ctx context.Context, rec slot.SlotRecord, options ...core.UpdateOptions) error { return nil },
		SaveSlotLegFunc:      func(ctx context.Context, leg slot.SlotLeg, options ...core.UpdateOptions) error { return nil },
		GetSlotLegFunc: func(ctx context.Context, legID string, options ...core.QueryOptions) (slot.SlotLeg, error) {
			return slot.SlotLeg{}, nil
		},
		UpdateSlotLegStateFunc: func(ctx context.Context, legID string, state slot.LegState, options ...core.UpdateOptions) error {
			return nil
		},
		BeginTransactionFunc: func(ctx context.Context) (core.Transaction, error) { return db.NewMockTransaction(), nil },
	}
}

func (r MockRepo) GetSlotRecord(ctx context.Context, pincode, slotID, date string, options ...core.QueryOptions) (slot.SlotRecord, error) {
	return r.GetSlotRecordFunc(ctx, pincode, slotID, date, options...)
}

func (r MockRepo) CreateSlotRecord(ctx context.Context, rec slot.SlotRecord, options ...core.UpdateOptions) error {
	return r.CreateSlotRecordFunc(ctx, rec, options...)
}

func (r MockRepo) UpdateSlotRecord(ctx context.Context, rec slot.SlotRecord, options ...core.UpdateOptions) error {
	return r.UpdateSlotRecordFunc(ctx, rec, options...)
}

func (r MockRepo) SaveSlotLeg(ctx context.Context, leg slot.SlotLeg, options ...core.UpdateOptions) error {
	return r.SaveSlotLegFunc(ctx, leg, options...)
}

func (r MockRepo) GetSlotLeg(ctx context.Context, legID string, options ...core.QueryOptions) (slot.SlotLeg, error) {
	return r.GetSlotLegFunc(ctx, legID, options...)
}

func (r MockRepo) UpdateSlotLegState(ctx context.Context, legID string, state slot.LegState, options ...core.UpdateOptions) error {
	return r.UpdateSlotLegStateFunc(ctx, legID, state, options...)
}

func (r MockRepo) BeginTransaction(ctx context.Context) (core.Transaction, error) {
	return r.BeginTransactionFunc(ctx)
}
