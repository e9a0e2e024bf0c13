package reservation

import "context"

type MockReservationService struct {
	CreateReservationFunc  func(ctx context.Context, req CreateReservationRequest) (Reservation, error)
	ReleaseReservationFunc func(ctx context.Context, reservationID string) (Reservation, error)
	CommitReservationFunc  func(ctx context.Context, reservationID string) (Reservation, error)
	GetReservationFunc     func(ctx context.Context, reservationID string) (Reservation, error)

	SubscribeReservationsFunc   func(ch chan<- Reservation) ReservationSubscriptionID
	UnsubscribeReservationsFunc func(id ReservationSubscriptionID)
}

func NewMockReservationService() MockReservationService {
	return MockReservationService{
		CreateReservationFunc: func(ctx context.Context, req CreateReservationRequest) (Reservation, error) {
			return Reservation{}, nil
		},
		ReleaseReservationFunc: func(ctx context.Context, reservationID string) (Reservation, error) {
			return Reservation{}, nil
		},
		CommitReservationFunc: func(ctx context.Context, reservationID string) (Reservation, error) {
			return Reservation{}, nil
		},
		GetReservationFunc: func(ctx context.Context, reservationID string) (Reservation, error) {
			return Reservation{}, nil
		},
		SubscribeReservationsFunc:   func(ch chan<- Reservation) ReservationSubscriptionID { return "" },
		UnsubscribeReservationsFunc: func(id ReservationSubscriptionID) {},
	}
}

func (s *MockReservationService) CreateReservation(ctx context.Context, req CreateReservationRequest) (Reservation, error) {
	return s.CreateReservationFunc(ctx, req)
}

func (s *MockReservationService) ReleaseReservation(ctx context.Context, reservationID string) (Reservation, error) {
	return s.ReleaseReservationFunc(ctx, reservationID)
}

func (s *MockReservationService) CommitReservation(ctx context.Context, reservationID string) (Reservation, error) {
	return s.CommitReservationFunc(ctx, reservationID)
}

func (s *MockReservationService) GetReservation(ctx context.Context, reservationID string) (Reservation, error) {
	return s.GetReservationFunc(ctx, reservationID)
}

func (s *MockReservationService) SubscribeReservations(ch chan<- Reservation) ReservationSubscriptionID {
	return s.SubscribeReservationsFunc(ch)
}

func (s *MockReservationService) UnsubscribeReservations(id ReservationSubscriptionID) {
	s.UnsubscribeReservationsFunc(id)
}
