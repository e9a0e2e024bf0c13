package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/sksmith/reservation-engine/api"
	"github.com/sksmith/reservation-engine/core/slot"
)

func setupSlotTestServer() (*httptest.Server, *slot.MockSlotService) {
	mockSvc := slot.NewMockSlotService()
	slotApi := api.NewSlotApi(&mockSvc)
	r := chi.NewRouter()
	slotApi.ConfigureRouter(r)
	ts := httptest.NewServer(r)

	return ts, &mockSvc
}

func getTestAvailability() []slot.Availability {
	return []slot.Availability{
		{SlotID: "MORNING_1", Name: "Morning", StartTime: "06:00", EndTime: "09:00", RemainingCapacity: 2, RemainingWeight: 8, Status: slot.StatusAvailable},
		{SlotID: "EVENING_1", Name: "Evening", StartTime: "18:00", EndTime: "21:00", RemainingCapacity: 0, RemainingWeight: 0, Status: slot.StatusFull},
	}
}

func TestSlotGetAvailability(t *testing.T) {
	ts, mockSvc := setupSlotTestServer()
	defer ts.Close()

	tests := []struct {
		name string

		checkAvailabilityFunc func(ctx context.Context, pincode, date string) ([]slot.Availability, error)

		wantLen        int
		wantErr        *api.ErrResponse
		wantStatusCode int
	}{
		{
			name: "availability for a served pincode",
			checkAvailabilityFunc: func(ctx context.Context, pincode, date string) ([]slot.Availability, error) {
				return getTestAvailability(), nil
			},
			wantLen:        2,
			wantStatusCode: http.StatusOK,
		},
		{
			name: "no slots on the requested date",
			checkAvailabilityFunc: func(ctx context.Context, pincode, date string) ([]slot.Availability, error) {
				return []slot.Availability{}, nil
			},
			wantLen:        0,
			wantStatusCode: http.StatusOK,
		},
		{
			name: "unserved pincode",
			checkAvailabilityFunc: func(ctx context.Context, pincode, date string) ([]slot.Availability, error) {
				return nil, slot.ErrNoZoneForPincode
			},
			wantErr:        &api.ErrResponse{StatusText: "Invalid request."},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "unexpected error",
			checkAvailabilityFunc: func(ctx context.Context, pincode, date string) ([]slot.Availability, error) {
				return nil, errors.New("some unexpected error")
			},
			wantErr:        api.ErrInternalServer,
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockSvc.CheckAvailabilityFunc = tc.checkAvailabilityFunc

			res, err := http.Get(ts.URL + "/500086/2026-08-03")
			if err != nil {
				t.Fatal(err)
			}

			if res.StatusCode != tc.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, tc.wantStatusCode)
			}

			if tc.wantErr == nil {
				got := []slot.Availability{}
				unmarshal(res, &got, t)
				if len(got) != tc.wantLen {
					t.Errorf("availability count got=%d want=%d", len(got), tc.wantLen)
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
