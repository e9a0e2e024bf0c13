package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/reservation-engine/core/reservation"
)

type ReservationService interface {
	CreateReservation(ctx context.Context, req reservation.CreateReservationRequest) (reservation.Reservation, error)
	ReleaseReservation(ctx context.Context, reservationID string) (reservation.Reservation, error)
	CommitReservation(ctx context.Context, reservationID string) (reservation.Reservation, error)
	GetReservation(ctx context.Context, reservationID string) (reservation.Reservation, error)

	SubscribeReservations(ch chan<- reservation.Reservation) (id reservation.ReservationSubscriptionID)
	UnsubscribeReservations(id reservation.ReservationSubscriptionID)
}

type ReservationApi struct {
	service ReservationService
}

func NewReservationApi(service ReservationService) *ReservationApi {
	return &ReservationApi{service: service}
}

const (
	CtxKeyReservation CtxKey = "reservation"
)

func (a *ReservationApi) ConfigureRouter(r chi.Router) {
	r.HandleFunc("/subscribe", a.Subscribe)

	r.Route("/", func(r chi.Router) {
		r.Put("/", a.Create)

		r.Route("/{reservationID}", func(r chi.Router) {
			r.Use(a.ReservationCtx)
			r.Get("/", a.Get)
			r.Delete("/", a.Release)
			r.Post("/commit", a.Commit)
		})
	})
}

// Subscribe streams reservation state changes to the client over a websocket
// connection. Same caveat as stock subscriptions: updates are only seen for
// the connected instance.
func (a *ReservationApi) Subscribe(w http.ResponseWriter, r *http.Request) {
	log.Info().Msg("client requesting reservation subscription")

	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		log.Err(err).Msg("failed to establish reservation subscription connection")
		Render(w, r, ErrInternalServer)
		return
	}
	go func() {
		defer conn.Close()

		ch := make(chan reservation.Reservation, 1)

		id := a.service.SubscribeReservations(ch)
		defer func() {
			a.service.UnsubscribeReservations(id)
		}()

		for res := range ch {
			resp := &ReservationResponse{Reservation: res}
			body, err := json.Marshal(resp)
			if err != nil {
				log.Err(err).Interface("clientId", id).Msg("failed to marshal reservation response")
				continue
			}

			log.Debug().Interface("clientId", id).Str("reservationId", res.ReservationID).Msg("sending reservation update to client")
			err = wsutil.WriteServerText(conn, body)
			if err != nil {
				log.Err(err).Interface("clientId", id).Msg("failed to write server message, disconnecting client")
				return
			}
		}
	}()
}

// Create is idempotent on reservationId: a client that times out retries with
// the same id and gets the stored outcome back.
func (a *ReservationApi) Create(w http.ResponseWriter, r *http.Request) {
	data := &CreateReservationRequestDto{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	res, err := a.service.CreateReservation(r.Context(), *data.CreateReservationRequest)
	if err != nil {
		var cerr *reservation.CompensationError
		if errors.As(err, &cerr) {
			log.Error().Stack().Err(err).Msg("compensation failed while declining reservation")
			Render(w, r, ErrInternalServer)
			return
		}
		RenderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	Render(w, r, &ReservationResponse{Reservation: res})
}

func (a *ReservationApi) Get(w http.ResponseWriter, r *http.Request) {
	res := r.Context().Value(CtxKeyReservation).(reservation.Reservation)

	render.Status(r, http.StatusOK)
	Render(w, r, &ReservationResponse{Reservation: res})
}

func (a *ReservationApi) Release(w http.ResponseWriter, r *http.Request) {
	res := r.Context().Value(CtxKeyReservation).(reservation.Reservation)

	released, err := a.service.ReleaseReservation(r.Context(), res.ReservationID)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	Render(w, r, &ReservationResponse{Reservation: released})
}

func (a *ReservationApi) Commit(w http.ResponseWriter, r *http.Request) {
	res := r.Context().Value(CtxKeyReservation).(reservation.Reservation)

	committed, err := a.service.CommitReservation(r.Context(), res.ReservationID)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	Render(w, r, &ReservationResponse{Reservation: committed})
}

func (a *ReservationApi) ReservationCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reservationID := chi.URLParam(r, "reservationID")
		if reservationID == "" {
			Render(w, r, ErrInvalidRequest(errors.New("reservation id is required")))
			return
		}

		res, err := a.service.GetReservation(r.Context(), reservationID)
		if err != nil {
			RenderError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), CtxKeyReservation, res)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
