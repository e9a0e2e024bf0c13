package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/sksmith/reservation-engine/core/stock"
)

type StockResponse struct {
	stock.StockRecord
}

func (s *StockResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

type BatchResponse struct {
	stock.Batch
}

func (b *BatchResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

func NewBatchListResponse(batches []stock.Batch) []render.Renderer {
	list := make([]render.Renderer, 0)
	for _, b := range batches {
		list = append(list, &BatchResponse{Batch: b})
	}
	return list
}

type AdjustmentRequestDto struct {
	*stock.AdjustmentRequest
}

func (d *AdjustmentRequestDto) Bind(_ *http.Request) error {
	if d.AdjustmentRequest == nil {
		return errors.New("missing required adjustment fields")
	}
	if d.LocationID == "" || d.BatchID == "" {
		return errors.New("locationId and batchId are required")
	}
	if d.Quantity < 1 {
		return errors.New("quantity must be greater than zero")
	}
	if _, err := stock.ParseAdjustmentKind(string(d.Kind)); err != nil {
		return err
	}

	return nil
}

type AdjustmentResponse struct {
}

func (a *AdjustmentResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}
