package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pishop/storefront/internal/service"
	"github.com/pishop/storefront/pkg/health"
	"github.com/pishop/storefront/pkg/middleware"
)

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	checkoutService *service.CheckoutService,
	rateService *service.RateService,
	providerService *service.ProviderService,
	healthHandler *health.Handler,
	adminPassword string,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("storefront"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	cartHandler := NewCartHandler(checkoutService, logger)
	shippingHandler := NewShippingHandler(rateService, logger)
	adminHandler := NewAdminHandler(providerService, logger)

	r.Route("/api/v1/cart/sessions", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", cartHandler.CreateSession)
		r.Get("/{id}", cartHandler.GetSession)
		r.Post("/{id}/items", cartHandler.AddItem)
		r.Put("/{id}/items/{productId}", cartHandler.UpdateQuantity)
		r.Delete("/{id}/items/{productId}", cartHandler.RemoveItem)
		r.Put("/{id}/shipping-address", cartHandler.SetShippingAddress)
		r.Post("/{id}/delivery-option", cartHandler.SelectDeliveryOption)
		r.Delete("/{id}/shipping", cartHandler.ResetShipping)
		r.Post("/{id}/order", cartHandler.PlaceOrder)
	})

	r.Route("/api/v1/shipping", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/quotes", shippingHandler.Quote)
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(AdminAuth(adminPassword))

		r.Get("/providers", adminHandler.ListProviders)
		r.Post("/providers", adminHandler.CreateProvider)
		r.Get("/providers/{id}", adminHandler.GetProvider)
		r.Put("/providers/{id}", adminHandler.UpdateProvider)
		r.Delete("/providers/{id}", adminHandler.DeleteProvider)
		r.Get("/origin", adminHandler.GetOrigin)
		r.Put("/origin", adminHandler.UpdateOrigin)
	})

	return r
}
