package api

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/sksmith/reservation-engine/core/slot"
)

type AvailabilityResponse struct {
	slot.Availability
}

func (a *AvailabilityResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

func NewAvailabilityListResponse(availability []slot.Availability) []render.Renderer {
	list := make([]render.Renderer, 0)
	for _, av := range availability {
		list = append(list, &AvailabilityResponse{Availability: av})
	}
	return list
}
