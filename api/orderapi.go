package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/sksmith/reservation-engine/core/order"
)

type OrderService interface {
	CreateOrder(ctx context.Context, orderID, reservationID string) (order.Order, error)
	Transition(ctx context.Context, orderID string, to order.Status) (order.Order, error)
	GetOrder(ctx context.Context, orderID string) (order.Order, error)
}

type OrderApi struct {
	service OrderService
}

func NewOrderApi(service OrderService) *OrderApi {
	return &OrderApi{service: service}
}

func (a *OrderApi) ConfigureRouter(r chi.Router) {
	r.Route("/", func(r chi.Router) {
		r.Put("/", a.Create)

		r.Route("/{orderID}", func(r chi.Router) {
			r.Get("/", a.Get)
			r.Post("/transition", a.Transition)
		})
	})
}

func (a *OrderApi) Create(w http.ResponseWriter, r *http.Request) {
	data := &CreateOrderRequestDto{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	o, err := a.service.CreateOrder(r.Context(), data.OrderID, data.ReservationID)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	Render(w, r, &OrderResponse{Order: o})
}

func (a *OrderApi) Get(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		Render(w, r, ErrInvalidRequest(errors.New("order id is required")))
		return
	}

	o, err := a.service.GetOrder(r.Context(), orderID)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	Render(w, r, &OrderResponse{Order: o})
}

func (a *OrderApi) Transition(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		Render(w, r, ErrInvalidRequest(errors.New("order id is required")))
		return
	}

	data := &TransitionRequestDto{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	o, err := a.service.Transition(r.Context(), orderID, data.status)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	Render(w, r, &OrderResponse{Order: o})
}
