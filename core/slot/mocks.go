package slot

import "context"

type MockSlotService struct {
	CheckAvailabilityFunc func(ctx context.Context, pincode, date string) ([]Availability, error)
	ReserveSlotFunc       func(ctx context.Context, pincode, slotID, date string, weight float64) (SlotLeg, error)
	ReleaseSlotFunc       func(ctx context.Context, legID string) error
}

func NewMockSlotService() MockSlotService {
	return MockSlotService{
		CheckAvailabilityFunc: func(ctx context.Context, pincode, date string) ([]Availability, error) {
			return []Availability{}, nil
		},
		ReserveSlotFunc: func(ctx context.Context, pincode, slotID, date string, weight float64) (SlotLeg, error) {
			return SlotLeg{}, nil
		},
		ReleaseSlotFunc: func(ctx context.Context, legID string) error { return nil },
	}
}

func (s *MockSlotService) CheckAvailability(ctx context.Context, pincode, date string) ([]Availability, error) {
	return s.CheckAvailabilityFunc(ctx, pincode, date)
}

func (s *MockSlotService) ReserveSlot(ctx context.Context, pincode, slotID, date string, weight float64) (SlotLeg, error) {
	return s.ReserveSlotFunc(ctx, pincode, slotID, date, weight)
}

func (s *MockSlotService) ReleaseSlot(ctx context.Context, legID string) error {
	return s.ReleaseSlotFunc(ctx, legID)
}
