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

// AdminHandler handles HTTP requests for the admin provider and origin API.
type AdminHandler struct {
	service *service.ProviderService
	logger  *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(svc *service.ProviderService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// ProviderRequest is the JSON request body for creating or updating a provider.
type ProviderRequest struct {
	ID              string  `json:"id" validate:"required"`
	Name            string  `json:"name" validate:"required"`
	Enabled         bool    `json:"enabled"`
	BaseRate        float64 `json:"base_rate" validate:"gte=0"`
	PerDistanceRate float64 `json:"per_distance_rate" validate:"gte=0"`
	SpeedLabel      string  `json:"speed_label" validate:"required"`
	LocalOnly       bool    `json:"local_only"`
}

func (req *ProviderRequest) toInput() *service.ProviderInput {
	return &service.ProviderInput{
		ID:              req.ID,
		Name:            req.Name,
		Enabled:         req.Enabled,
		BaseRate:        decimal.NewFromFloat(req.BaseRate),
		PerDistanceRate: decimal.NewFromFloat(req.PerDistanceRate),
		SpeedLabel:      req.SpeedLabel,
		LocalOnly:       req.LocalOnly,
	}
}

// OriginRequest is the JSON request body for updating the warehouse origin.
type OriginRequest struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required,len=2"`
}

// --- Handlers ---

// ListProviders handles GET /api/v1/admin/providers
func (h *AdminHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.service.ListProviders(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: providers})
}

// GetProvider handles GET /api/v1/admin/providers/{id}
func (h *AdminHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	provider, err := h.service.GetProvider(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: provider})
}

// CreateProvider handles POST /api/v1/admin/providers
func (h *AdminHandler) CreateProvider(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ProviderRequest
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

	provider, err := h.service.CreateProvider(r.Context(), req.toInput())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: provider})
}

// UpdateProvider handles PUT /api/v1/admin/providers/{id}
func (h *AdminHandler) UpdateProvider(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	req.ID = chi.URLParam(r, "id")

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	provider, err := h.service.UpdateProvider(r.Context(), req.toInput())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: provider})
}

// DeleteProvider handles DELETE /api/v1/admin/providers/{id}
func (h *AdminHandler) DeleteProvider(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProvider(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetOrigin handles GET /api/v1/admin/origin
func (h *AdminHandler) GetOrigin(w http.ResponseWriter, r *http.Request) {
	origin, err := h.service.GetOrigin(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: origin})
}

// UpdateOrigin handles PUT /api/v1/admin/origin
func (h *AdminHandler) UpdateOrigin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req OriginRequest
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

	origin := &domain.OriginAddress{
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
	}

	if err := h.service.UpdateOrigin(r.Context(), origin); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: origin})
}
