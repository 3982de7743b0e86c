package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pishop/storefront/internal/service"
	"github.com/pishop/storefront/pkg/httputil"
	"github.com/pishop/storefront/pkg/validator"
)

// ShippingHandler handles HTTP requests for standalone rate quotes, e.g. a
// "estimate shipping" widget before checkout.
type ShippingHandler struct {
	rates  *service.RateService
	logger *slog.Logger
}

// NewShippingHandler creates a new shipping HTTP handler.
func NewShippingHandler(rates *service.RateService, logger *slog.Logger) *ShippingHandler {
	return &ShippingHandler{
		rates:  rates,
		logger: logger,
	}
}

// QuoteRequest is the JSON request body for computing a delivery quote.
type QuoteRequest struct {
	Address ShippingAddressRequest `json:"address" validate:"required"`
}

// QuoteResponse is the JSON response for a computed quote.
type QuoteResponse struct {
	QuoteID string `json:"quote_id"`
	Zone    string `json:"zone"`
	Options any    `json:"options"`
}

// Quote handles POST /api/v1/shipping/quotes
func (h *ShippingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.rates.Quote(r.Context(), req.Address.toDomain())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: QuoteResponse{
		QuoteID: result.QuoteID,
		Zone:    string(result.Zone),
		Options: result.Options,
	}})
}
