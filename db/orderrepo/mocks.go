package orderrepo

import (
	"context"

	"github.com/sksmith/reservation-engine/core"
	"github.com/sksmith/reservation-engine/core/order"
)

type MockRepo struct {
	GetOrderFunc          func(ctx context.Context, orderID string, options ...core.QueryOptions) (order.Order, error)
	SaveOrderFunc         func(ctx context.Context, o *order.Order, options ...core.UpdateOptions) error
	UpdateOrderStatusFunc func(ctx context.Context, orderID string, status order.Status, options ...core.UpdateOptions) error
}

func NewMockRepo() MockRepo {
	return MockRepo{
		GetOrderFunc: func(ctx context.Context, orderID string, options ...core.QueryOptions) (order.Order, error) {
			return order.Order{}, core.ErrNotFound
		},
		SaveOrderFunc: func(ctx context.Context, o *order.Order, options ...core.UpdateOptions) error { return nil },
		UpdateOrderStatusFunc: func(ctx context.Context, orderID string, status order.Status, options ...core.UpdateOptions) error {
			return nil
		},
	}
}

func (r MockRepo) GetOrder(ctx context.Context, orderID string, options ...core.QueryOptions) (order.Order, error) {
	return r.GetOrderFunc(ctx, orderID, options...)
}

func (r MockRepo) SaveOrder(ctx context.Context, o *order.Order, options ...core.UpdateOptions) error {
	return r.SaveOrderFunc(ctx, o, options...)
}

func (r MockRepo) UpdateOrderStatus(ctx context.Context, orderID string, status order.Status, options ...core.UpdateOptions) error {
	return r.UpdateOrderStatusFunc(ctx, orderID, status, options...)
}
