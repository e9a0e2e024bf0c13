package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/sksmith/reservation-engine/core/slot"
)

type SlotService interface {
	CheckAvailability(ctx context.Context, pincode, date string) ([]slot.Availability, error)
}

type SlotApi struct {
	service SlotService
}

func NewSlotApi(service SlotService) *SlotApi {
	return &SlotApi{service: service}
}

func (a *SlotApi) ConfigureRouter(r chi.Router) {
	r.Get("/{pincode}/{date}", a.GetAvailability)
}

func (a *SlotApi) GetAvailability(w http.ResponseWriter, r *http.Request) {
	pincode := chi.URLParam(r, "pincode")
	date := chi.URLParam(r, "date")
	if pincode == "" || date == "" {
		Render(w, r, ErrInvalidRequest(errors.New("pincode and date are required")))
		return
	}

	availability, err := a.service.CheckAvailability(r.Context(), pincode, date)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	RenderList(w, r, NewAvailabilityListResponse(availability))
}
