package api

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/reservation-engine/core"
	"github.com/sksmith/reservation-engine/core/slot"
	"github.com/sksmith/reservation-engine/core/stock"
)

//--
// Error response payloads & renderers
//--

// ErrResponse renderer type for handling all sorts of errors.
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText string `json:"status"`          // user-level status message
	AppCode    int64  `json:"code,omitempty"`  // application-specific error code
	ErrorText  string `json:"error,omitempty"` // application-level error message, for debugging
}

func (e *ErrResponse) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

// ErrDecline is a business outcome, not a fault: the request was understood but
// cannot be satisfied with the stock or capacity on hand.
func ErrDecline(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusConflict,
		StatusText:     "Reservation declined.",
		ErrorText:      err.Error(),
	}
}

func ErrUnavailable(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusServiceUnavailable,
		StatusText:     "Temporarily unavailable, please retry.",
		ErrorText:      err.Error(),
	}
}

var ErrNotFound = &ErrResponse{HTTPStatusCode: http.StatusNotFound, StatusText: "Resource not found."}
var ErrInternalServer = &ErrResponse{
	Err:            nil,
	HTTPStatusCode: http.StatusInternalServerError,
	StatusText:     "Internal server error.",
	ErrorText:      "An internal server error has occurred.",
}

// RenderError maps service errors onto the API's error taxonomy: declines are
// 409, contention exhaustion is 503 with a retry hint, unknown resources are
// 404 and anything else is a 500.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		Render(w, r, ErrNotFound)
	case errors.Is(err, stock.ErrInsufficientStock),
		errors.Is(err, slot.ErrSlotFull),
		errors.Is(err, slot.ErrSlotWeightExceeded),
		errors.Is(err, slot.ErrSlotClosed):
		Render(w, r, ErrDecline(err))
	case errors.Is(err, core.ErrTemporaryUnavailable):
		Render(w, r, ErrUnavailable(err))
	case errors.Is(err, slot.ErrNoZoneForPincode):
		Render(w, r, ErrInvalidRequest(err))
	default:
		log.Error().Stack().Err(err).Send()
		Render(w, r, ErrInternalServer)
	}
}
