package stock

import "context"

type MockStockService struct {
	ReserveFunc                 func(ctx context.Context, rr ReserveRequest) (ReservationLeg, error)
	ReleaseFunc                 func(ctx context.Context, legID string) error
	CommitFunc                  func(ctx context.Context, legID string) error
	AdjustForDamageOrExpiryFunc func(ctx context.Context, ar AdjustmentRequest) error
	GetStockRecordFunc          func(ctx context.Context, productID, variantID, locationID string) (StockRecord, error)
	GetBatchesFunc              func(ctx context.Context, productID, variantID, locationID string) ([]Batch, error)
	SubscribeStockFunc          func(ch chan<- StockRecord) StockSubscriptionID
	UnsubscribeStockFunc        func(id StockSubscriptionID)
}

func NewMockStockService() MockStockService {
	return MockStockService{
		ReserveFunc: func(ctx context.Context, rr ReserveRequest) (ReservationLeg, error) {
			return ReservationLeg{}, nil
		},
		ReleaseFunc:                 func(ctx context.Context, legID string) error { return nil },
		CommitFunc:                  func(ctx context.Context, legID string) error { return nil },
		AdjustForDamageOrExpiryFunc: func(ctx context.Context, ar AdjustmentRequest) error { return nil },
		GetStockRecordFunc: func(ctx context.Context, productID, variantID, locationID string) (StockRecord, error) {
			return StockRecord{}, nil
		},
		GetBatchesFunc: func(ctx context.Context, productID, variantID, locationID string) ([]Batch, error) {
			return []Batch{}, nil
		},
		SubscribeStockFunc:   func(ch chan<- StockRecord) StockSubscriptionID { return "" },
		UnsubscribeStockFunc: func(id StockSubscriptionID) {},
	}
}

func (s *MockStockService) Reserve(ctx context.Context, rr ReserveRequest) (ReservationLeg, error) {
	return s.ReserveFunc(ctx, rr)
}

func (s *MockStockService) Release(ctx context.Context, legID string) error {
	return s.ReleaseFunc(ctx, legID)
}

func (s *MockStockService) Commit(ctx context.Context, legID string) error {
	return s.CommitFunc(ctx, legID)
}

func (s *MockStockService) AdjustForDamageOrExpiry(ctx context.Context, ar AdjustmentRequest) error {
	return s.AdjustForDamageOrExpiryFunc(ctx, ar)
}

func (s *MockStockService) GetStockRecord(ctx context.Context, productID, variantID, locationID string) (StockRecord, error) {
	return s.GetStockRecordFunc(ctx, productID, variantID, locationID)
}

func (s *MockStockService) GetBatches(ctx context.Context, productID, variantID, locationID string) ([]Batch, error) {
	return s.GetBatchesFunc(ctx, productID, variantID, locationID)
}

func (s *MockStockService) SubscribeStock(ch chan<- StockRecord) StockSubscriptionID {
	return s.SubscribeStockFunc(ch)
}

func (s *MockStockService) UnsubscribeStock(id StockSubscriptionID) {
	s.UnsubscribeStockFunc(id)
}
