package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/gobwas/ws"
	"github.com/sksmith/reservation-engine/api"
	"github.com/sksmith/reservation-engine/core"
	"github.com/sksmith/reservation-engine/core/reservation"
	"github.com/sksmith/reservation-engine/core/slot"
	"github.com/sksmith/reservation-engine/core/stock"
)

func setupReservationTestServer() (*httptest.Server, *reservation.MockReservationService) {
	mockSvc := reservation.NewMockReservationService()
	resApi := api.NewReservationApi(&mockSvc)
	r := chi.NewRouter()
	resApi.ConfigureRouter(r)
	ts := httptest.NewServer(r)

	return ts, &mockSvc
}

func createReservationRequest() *api.CreateReservationRequestDto {
	return &api.CreateReservationRequestDto{CreateReservationRequest: &reservation.CreateReservationRequest{
		ReservationID: "res1",
		OrderID:       "ord1",
		Lines: []reservation.Line{
			{ProductID: "MILK-1L", VariantID: "FULL", LocationID: "HYD-01", Quantity: 2},
		},
		Pincode: "500086",
		SlotID:  "MORNING_1",
		Date:    "2026-08-03",
	}}
}

func confirmedReservation() reservation.Reservation {
	return reservation.Reservation{
		ReservationID: "res1",
		OrderID:       "ord1",
		Lines: []reservation.Line{
			{ProductID: "MILK-1L", VariantID: "FULL", LocationID: "HYD-01", Quantity: 2, StockLegID: "stockleg-0"},
		},
		Pincode:   "500086",
		SlotID:    "MORNING_1",
		Date:      "2026-08-03",
		SlotLegID: "slotleg-1",
		State:     reservation.Confirmed,
	}
}

func TestReservationSubscribe(t *testing.T) {
	ts, mockSvc := setupReservationTestServer()
	defer ts.Close()

	subscribeCalled := false
	expectedSubID := reservation.ReservationSubscriptionID("subid1")
	unsubscribeCalled := false

	states := []reservation.State{reservation.Pending, reservation.Confirmed, reservation.Committed}

	mockSvc.SubscribeReservationsFunc = func(ch chan<- reservation.Reservation) (id reservation.ReservationSubscriptionID) {
		subscribeCalled = true
		go func() {
			res := confirmedReservation()
			for _, state := range states {
				res.State = state
				ch <- res
			}
			close(ch)
		}()

		return expectedSubID
	}

	mockSvc.UnsubscribeReservationsFunc = func(id reservation.ReservationSubscriptionID) {
		if id != expectedSubID {
			t.Errorf("unexpected subscription id got=%s want=%s", id, expectedSubID)
		}
		unsubscribeCalled = true
	}

	url := strings.Replace(ts.URL, "http", "ws", 1) + "/subscribe"

	conn, br, _, err := ws.DefaultDialer.Dial(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	rw := wsReadWriter(conn, br)

	for i, state := range states {
		got := &reservation.Reservation{}
		readWs(rw, got, t)

		if got.State != state {
			t.Errorf("unexpected ws response[%d] got=%s want=%s", i, got.State, state)
		}
	}

	// The server unsubscribes before closing the connection, so a failed read
	// means the unsubscribe has happened.
	if _, err := conn.Read(make([]byte, 1)); err == nil {
		conn.Close()
	}

	if !subscribeCalled {
		t.Errorf("subscribe never called")
	}

	if !unsubscribeCalled {
		t.Errorf("unsubscribe never called")
	}
}

func TestReservationCreate(t *testing.T) {
	ts, mockSvc := setupReservationTestServer()
	defer ts.Close()

	tests := []struct {
		name string

		createReservationFunc func(ctx context.Context, req reservation.CreateReservationRequest) (reservation.Reservation, error)
		request               *api.CreateReservationRequestDto

		wantState      reservation.State
		wantErr        *api.ErrResponse
		wantStatusCode int
	}{
		{
			name: "both legs reserved",
			createReservationFunc: func(ctx context.Context, req reservation.CreateReservationRequest) (reservation.Reservation, error) {
				return confirmedReservation(), nil
			},
			request:        createReservationRequest(),
			wantState:      reservation.Confirmed,
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "insufficient stock is a decline",
			createReservationFunc: func(ctx context.Context, req reservation.CreateReservationRequest) (reservation.Reservation, error) {
				return reservation.Reservation{}, stock.ErrInsufficientStock
			},
			request:        createReservationRequest(),
			wantErr:        &api.ErrResponse{StatusText: "Reservation declined."},
			wantStatusCode: http.StatusConflict,
		},
		{
			name: "full slot is a decline",
			createReservationFunc: func(ctx context.Context, req reservation.CreateReservationRequest) (reservation.Reservation, error) {
				return reservation.Reservation{}, slot.ErrSlotFull
			},
			request:        createReservationRequest(),
			wantErr:        &api.ErrResponse{StatusText: "Reservation declined."},
			wantStatusCode: http.StatusConflict,
		},
		{
			name: "contention exhaustion asks the client to retry",
			createReservationFunc: func(ctx context.Context, req reservation.CreateReservationRequest) (reservation.Reservation, error) {
				return reservation.Reservation{}, core.ErrTemporaryUnavailable
			},
			request:        createReservationRequest(),
			wantErr:        &api.ErrResponse{StatusText: "Temporarily unavailable, please retry."},
			wantStatusCode: http.StatusServiceUnavailable,
		},
		{
			name: "unserved pincode is a bad request",
			createReservationFunc: func(ctx context.Context, req reservation.CreateReservationRequest) (reservation.Reservation, error) {
				return reservation.Reservation{}, slot.ErrNoZoneForPincode
			},
			request:        createReservationRequest(),
			wantErr:        &api.ErrResponse{StatusText: "Invalid request."},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "failed compensation is an internal error",
			createReservationFunc: func(ctx context.Context, req reservation.CreateReservationRequest) (reservation.Reservation, error) {
				return reservation.Reservation{}, &reservation.CompensationError{
					ReservationID: req.ReservationID,
					Cause:         slot.ErrSlotFull,
					ReleaseErr:    errors.New("database unreachable"),
				}
			},
			request:        createReservationRequest(),
			wantErr:        api.ErrInternalServer,
			wantStatusCode: http.StatusInternalServerError,
		},
		{
			name: "missing slot is rejected before the service is called",
			createReservationFunc: func(ctx context.Context, req reservation.CreateReservationRequest) (reservation.Reservation, error) {
				t.Error("service must not be called for an invalid request")
				return reservation.Reservation{}, nil
			},
			request: &api.CreateReservationRequestDto{CreateReservationRequest: &reservation.CreateReservationRequest{
				ReservationID: "res1",
				Lines:         []reservation.Line{{ProductID: "MILK-1L", VariantID: "FULL", LocationID: "HYD-01", Quantity: 2}},
			}},
			wantErr:        &api.ErrResponse{StatusText: "Invalid request."},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "zero quantity line is rejected",
			createReservationFunc: func(ctx context.Context, req reservation.CreateReservationRequest) (reservation.Reservation, error) {
				t.Error("service must not be called for an invalid request")
				return reservation.Reservation{}, nil
			},
			request: &api.CreateReservationRequestDto{CreateReservationRequest: &reservation.CreateReservationRequest{
				ReservationID: "res1",
				Lines:         []reservation.Line{{ProductID: "MILK-1L", VariantID: "FULL", LocationID: "HYD-01", Quantity: 0}},
				Pincode:       "500086",
				SlotID:        "MORNING_1",
				Date:          "2026-08-03",
			}},
			wantErr:        &api.ErrResponse{StatusText: "Invalid request."},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockSvc.CreateReservationFunc = tc.createReservationFunc

			res := put(ts.URL, tc.request, t)

			if res.StatusCode != tc.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, tc.wantStatusCode)
			}

			if tc.wantErr == nil {
				got := api.ReservationResponse{}
				unmarshal(res, &got, t)
				if got.State != tc.wantState {
					t.Errorf("state got=%s want=%s", got.State, tc.wantState)
				}
			} else {
				got := &api.ErrResponse{}
				unmarshal(res, got, t)
				if got.StatusText != tc.wantErr.StatusText {
					t.Errorf("status text got=%s want=%s", got.StatusText, tc.wantErr.StatusText)
				}
			}
		})
	}
}

func TestReservationGet(t *testing.T) {
	ts, mockSvc := setupReservationTestServer()
	defer ts.Close()

	tests := []struct {
		name string

		getReservationFunc func(ctx context.Context, reservationID string) (reservation.Reservation, error)

		wantErr        *api.ErrResponse
		wantStatusCode int
	}{
		{
			name: "reservation found",
			getReservationFunc: func(ctx context.Context, reservationID string) (reservation.Reservation, error) {
				return confirmedReservation(), nil
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "reservation not found",
			getReservationFunc: func(ctx context.Context, reservationID string) (reservation.Reservation, error) {
				return reservation.Reservation{}, core.ErrNotFound
			},
			wantErr:        api.ErrNotFound,
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "unexpected error",
			getReservationFunc: func(ctx context.Context, reservationID string) (reservation.Reservation, error) {
				return reservation.Reservation{}, errors.New("some unexpected error")
			},
			wantErr:        api.ErrInternalServer,
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockSvc.GetReservationFunc = tc.getReservationFunc

			res, err := http.Get(ts.URL + "/res1")
			if err != nil {
				t.Fatal(err)
			}

			if res.StatusCode != tc.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, tc.wantStatusCode)
			}

			if tc.wantErr == nil {
				got := api.ReservationResponse{}
				unmarshal(res, &got, t)
				if got.ReservationID != "res1" {
					t.Errorf("reservation id got=%s want=res1", got.ReservationID)
				}
			}
		})
	}
}

func TestReservationRelease(t *testing.T) {
	ts, mockSvc := setupReservationTestServer()
	defer ts.Close()

	mockSvc.GetReservationFunc = func(ctx context.Context, reservationID string) (reservation.Reservation, error) {
		return confirmedReservation(), nil
	}

	released := confirmedReservation()
	released.State = reservation.Released
	mockSvc.ReleaseReservationFunc = func(ctx context.Context, reservationID string) (reservation.Reservation, error) {
		return released, nil
	}

	res := del(ts.URL+"/res1", t)

	if res.StatusCode != http.StatusOK {
		t.Errorf("status code got=%d want=%d", res.StatusCode, http.StatusOK)
	}

	got := api.ReservationResponse{}
	unmarshal(res, &got, t)
	if got.State != reservation.Released {
		t.Errorf("state got=%s want=%s", got.State, reservation.Released)
	}
}

func TestReservationCommit(t *testing.T) {
	ts, mockSvc := setupReservationTestServer()
	defer ts.Close()

	mockSvc.GetReservationFunc = func(ctx context.Context, reservationID string) (reservation.Reservation, error) {
		return confirmedReservation(), nil
	}

	committed := confirmedReservation()
	committed.State = reservation.Committed
	mockSvc.CommitReservationFunc = func(ctx context.Context, reservationID string) (reservation.Reservation, error) {
		return committed, nil
	}

	res := post(ts.URL+"/res1/commit", nil, t)

	if res.StatusCode != http.StatusOK {
		t.Errorf("status code got=%d want=%d", res.StatusCode, http.StatusOK)
	}

	got := api.ReservationResponse{}
	unmarshal(res, &got, t)
	if got.State != reservation.Committed {
		t.Errorf("state got=%s want=%s", got.State, reservation.Committed)
	}
}
