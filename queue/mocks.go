package queue

import (
	"context"

	"github.com/sksmith/reservation-engine/core/order"
	"github.com/sksmith/reservation-engine/core/reservation"
	"github.com/sksmith/reservation-engine/core/stock"
	"github.com/sksmith/reservation-engine/test"
)

type MockQueue struct {
	PublishStockFunc       func(ctx context.Context, rec stock.StockRecord) error
	PublishReservationFunc func(ctx context.Context, res reservation.Reservation) error
	PublishOrderFunc       func(ctx context.Context, o order.Order) error
	test.CallWatcher
}

func NewMockQueue() *MockQueue {
	return &MockQueue{
		PublishStockFunc: func(ctx context.Context, rec stock.StockRecord) error {
			return nil
		},
		PublishReservationFunc: func(ctx context.Context, res reservation.Reservation) error {
			return nil
		},
		PublishOrderFunc: func(ctx context.Context, o order.Order) error {
			return nil
		},
		CallWatcher: *test.NewCallWatcher(),
	}
}

func (m *MockQueue) PublishStock(ctx context.Context, rec stock.StockRecord) error {
	m.AddCall(ctx, rec)
	return m.PublishStockFunc(ctx, rec)
}

func (m *MockQueue) PublishReservation(ctx context.Context, res reservation.Reservation) error {
	m.AddCall(ctx, res)
	return m.PublishReservationFunc(ctx, res)
}

func (m *MockQueue) PublishOrder(ctx context.Context, o order.Order) error {
	m.AddCall(ctx, o)
	return m.PublishOrderFunc(ctx, o)
}
