package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/pishop/storefront/internal/domain"
	"github.com/pishop/storefront/internal/service"
	"github.com/pishop/storefront/pkg/httputil"
	"github.com/pishop/storefront/pkg/validator"
)

// CartHandler handles HTTP requests for cart and checkout endpoints.
type CartHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CheckoutService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding a product to the cart.
type AddItemRequest struct {
	ProductID string  `json:"product_id" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	Category  string  `json:"category"`
	Price     float64 `json:"price" validate:"gte=0"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
}

// UpdateQuantityRequest is the JSON request body for changing a line quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// ShippingAddressRequest is the JSON request body for setting the destination.
type ShippingAddressRequest struct {
	FullName   string `json:"full_name" validate:"required"`
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required,len=2"`
	Phone      string `json:"phone"`
}

func (req *ShippingAddressRequest) toDomain() domain.Address {
	return domain.Address{
		FullName:   req.FullName,
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		Phone:      req.Phone,
	}
}

// SelectOptionRequest is the JSON request body for choosing a delivery option.
type SelectOptionRequest struct {
	OptionID string `json:"option_id" validate:"required"`
}

// --- Response DTOs ---

// CartSummary is the cart session together with its derived totals.
type CartSummary struct {
	Session      *domain.CartSession `json:"session"`
	Subtotal     decimal.Decimal     `json:"subtotal"`
	ShippingCost decimal.Decimal     `json:"shipping_cost"`
	Total        decimal.Decimal     `json:"total"`
	ItemCount    int                 `json:"item_count"`
}

func summarize(session *domain.CartSession) *CartSummary {
	return &CartSummary{
		Session:      session,
		Subtotal:     session.Subtotal(),
		ShippingCost: session.ShippingCost(),
		Total:        session.Total(),
		ItemCount:    session.ItemCount(),
	}
}

// --- Handlers ---

// CreateSession handles POST /api/v1/cart/sessions
func (h *CartHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.CreateSession(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: summarize(session)})
}

// GetSession handles GET /api/v1/cart/sessions/{id}
func (h *CartHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summarize(session)})
}

// AddItem handles POST /api/v1/cart/sessions/{id}/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req AddItemRequest
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

	input := &service.AddItemInput{
		ProductID: req.ProductID,
		Name:      req.Name,
		Category:  req.Category,
		Price:     decimal.NewFromFloat(req.Price),
		Quantity:  req.Quantity,
	}

	session, err := h.service.AddItem(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summarize(session)})
}

// RemoveItem handles DELETE /api/v1/cart/sessions/{id}/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.RemoveItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "productId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summarize(session)})
}

// UpdateQuantity handles PUT /api/v1/cart/sessions/{id}/items/{productId}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateQuantityRequest
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

	session, err := h.service.UpdateQuantity(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "productId"), req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summarize(session)})
}

// SetShippingAddress handles PUT /api/v1/cart/sessions/{id}/shipping-address
func (h *CartHandler) SetShippingAddress(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ShippingAddressRequest
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

	session, err := h.service.SetShippingAddress(r.Context(), chi.URLParam(r, "id"), req.toDomain())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summarize(session)})
}

// SelectDeliveryOption handles POST /api/v1/cart/sessions/{id}/delivery-option
func (h *CartHandler) SelectDeliveryOption(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SelectOptionRequest
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

	session, err := h.service.SelectDeliveryOption(r.Context(), chi.URLParam(r, "id"), req.OptionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summarize(session)})
}

// ResetShipping handles DELETE /api/v1/cart/sessions/{id}/shipping
func (h *CartHandler) ResetShipping(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.ResetShipping(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summarize(session)})
}

// PlaceOrder handles POST /api/v1/cart/sessions/{id}/order
func (h *CartHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.PlaceOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: order})
}
