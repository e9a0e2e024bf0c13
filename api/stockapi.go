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
	"github.com/sksmith/reservation-engine/core/stock"
	"github.com/sksmith/reservation-engine/core/user"
)

type StockService interface {
	GetStockRecord(ctx context.Context, productID, variantID, locationID string) (stock.StockRecord, error)
	GetBatches(ctx context.Context, productID, variantID, locationID string) ([]stock.Batch, error)
	AdjustForDamageOrExpiry(ctx context.Context, ar stock.AdjustmentRequest) error

	SubscribeStock(ch chan<- stock.StockRecord) (id stock.StockSubscriptionID)
	UnsubscribeStock(id stock.StockSubscriptionID)
}

type StockApi struct {
	service StockService
	users   user.Service
}

func NewStockApi(service StockService, users user.Service) *StockApi {
	return &StockApi{service: service, users: users}
}

func (a *StockApi) ConfigureRouter(r chi.Router) {
	r.HandleFunc("/subscribe", a.Subscribe)

	r.Route("/", func(r chi.Router) {
		r.With(Authenticate(a.users), AdminOnly).Post("/adjustment", a.CreateAdjustment)

		r.Route("/{productID}/{variantID}/{locationID}", func(r chi.Router) {
			r.Get("/", a.GetStockRecord)
			r.Get("/batches", a.GetBatches)
		})
	})
}

// Subscribe sends real-time stock updates to the client over a websocket
// connection.
//
// Note: clients only see updates that happen in their connected instance, so
// this endpoint is only useful behind sticky routing or a single instance.
func (a *StockApi) Subscribe(w http.ResponseWriter, r *http.Request) {
	log.Info().Msg("client requesting stock subscription")

	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		log.Err(err).Msg("failed to establish stock subscription connection")
		Render(w, r, ErrInternalServer)
		return
	}
	go func() {
		defer conn.Close()

		ch := make(chan stock.StockRecord, 1)

		id := a.service.SubscribeStock(ch)
		defer func() {
			a.service.UnsubscribeStock(id)
		}()

		for rec := range ch {
			resp := &StockResponse{StockRecord: rec}
			body, err := json.Marshal(resp)
			if err != nil {
				log.Err(err).Interface("clientId", id).Msg("failed to marshal stock response")
				continue
			}

			log.Debug().Interface("clientId", id).Interface("stockResponse", resp).Msg("sending stock update to client")
			err = wsutil.WriteServerText(conn, body)
			if err != nil {
				log.Err(err).Interface("clientId", id).Msg("failed to write server message, disconnecting client")
				return
			}
		}
	}()
}

func (a *StockApi) GetStockRecord(w http.ResponseWriter, r *http.Request) {
	productID, variantID, locationID, err := stockParams(r)
	if err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	rec, err := a.service.GetStockRecord(r.Context(), productID, variantID, locationID)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	Render(w, r, &StockResponse{StockRecord: rec})
}

func (a *StockApi) GetBatches(w http.ResponseWriter, r *http.Request) {
	productID, variantID, locationID, err := stockParams(r)
	if err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	batches, err := a.service.GetBatches(r.Context(), productID, variantID, locationID)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	RenderList(w, r, NewBatchListResponse(batches))
}

// CreateAdjustment is the warehouse write-off endpoint, admin only.
func (a *StockApi) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	data := &AdjustmentRequestDto{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	if err := a.service.AdjustForDamageOrExpiry(r.Context(), *data.AdjustmentRequest); err != nil {
		RenderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	Render(w, r, &AdjustmentResponse{})
}

func stockParams(r *http.Request) (productID, variantID, locationID string, err error) {
	productID = chi.URLParam(r, "productID")
	variantID = chi.URLParam(r, "variantID")
	locationID = chi.URLParam(r, "locationID")
	if productID == "" || variantID == "" || locationID == "" {
		return "", "", "", errors.New("productId, variantId and locationId are required")
	}
	return productID, variantID, locationID, nil
}
