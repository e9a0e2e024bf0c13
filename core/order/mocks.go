package order

import "context"

type MockOrderService struct {
	CreateOrderFunc func(ctx context.Context, orderID, reservationID string) (Order, error)
	TransitionFunc  func(ctx context.Context, orderID string, to Status) (Order, error)
	GetOrderFunc    func(ctx context.Context, orderID string) (Order, error)
}

func NewMockOrderService() MockOrderService {
	return MockOrderService{
		CreateOrderFunc: func(ctx context.Context, orderID, reservationID string) (Order, error) {
			return Order{}, nil
		},
		TransitionFunc: func(ctx context.Context, orderID string, to Status) (Order, error) {
			return Order{}, nil
		},
		GetOrderFunc: func(ctx context.Context, orderID string) (Order, error) { return Order{}, nil },
	}
}

func (s *MockOrderService) CreateOrder(ctx context.Context, orderID, reservationID string) (Order, error) {
	return s.CreateOrderFunc(ctx, orderID, reservationID)
}

func (s *MockOrderService) Transition(ctx context.Context, orderID string, to Status) (Order, error) {
	return s.TransitionFunc(ctx, orderID, to)
}

func (s *MockOrderService) GetOrder(ctx context.Context, orderID string) (Order, error) {
	return s.GetOrderFunc(ctx, orderID)
}
