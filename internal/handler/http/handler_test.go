package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pishop/storefront/internal/domain"
	"github.com/pishop/storefront/internal/gateway"
	"github.com/pishop/storefront/internal/repository/memory"
	"github.com/pishop/storefront/internal/service"
	apperrors "github.com/pishop/storefront/pkg/errors"
	"github.com/pishop/storefront/pkg/health"
)

const testAdminPassword = "hunter2"

func domainNotFound(id string) error {
	return apperrors.NotFound("provider", id)
}

// --- In-memory provider and settings stores ---

type stubProviderRepo struct {
	providers map[string]domain.ProviderConfig
}

func newStubProviderRepo(seed ...domain.ProviderConfig) *stubProviderRepo {
	r := &stubProviderRepo{providers: map[string]domain.ProviderConfig{}}
	for _, p := range seed {
		r.providers[p.ID] = p
	}
	return r
}

func (r *stubProviderRepo) Create(_ context.Context, p *domain.ProviderConfig) error {
	r.providers[p.ID] = *p
	return nil
}

func (r *stubProviderRepo) GetByID(_ context.Context, id string) (*domain.ProviderConfig, error) {
	p, ok := r.providers[id]
	if !ok {
		return nil, domainNotFound(id)
	}
	return &p, nil
}

func (r *stubProviderRepo) List(_ context.Context) ([]domain.ProviderConfig, error) {
	out := []domain.ProviderConfig{}
	for _, p := range r.providers {
		out = append(out, p)
	}
	return out, nil
}

func (r *stubProviderRepo) ListEnabled(_ context.Context) ([]domain.ProviderConfig, error) {
	out := []domain.ProviderConfig{}
	for _, p := range r.providers {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubProviderRepo) Update(_ context.Context, p *domain.ProviderConfig) error {
	if _, ok := r.providers[p.ID]; !ok {
		return domainNotFound(p.ID)
	}
	r.providers[p.ID] = *p
	return nil
}

func (r *stubProviderRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.providers[id]; !ok {
		return domainNotFound(id)
	}
	delete(r.providers, id)
	return nil
}

type stubSettingsRepo struct {
	origin domain.OriginAddress
}

func (r *stubSettingsRepo) GetOrigin(_ context.Context) (*domain.OriginAddress, error) {
	o := r.origin
	return &o, nil
}

func (r *stubSettingsRepo) UpdateOrigin(_ context.Context, origin *domain.OriginAddress) error {
	r.origin = *origin
	return nil
}

type noopPublisher struct{}

func (noopPublisher) PublishQuoteComputed(context.Context, *domain.CartSession, domain.Zone) error {
	return nil
}

func (noopPublisher) PublishOrderPlaced(context.Context, string, *domain.Order) error {
	return nil
}

// --- Test server wiring ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func seedProviders() []domain.ProviderConfig {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return []domain.ProviderConfig{
		{ID: "local_post", Name: "Local Post", Enabled: true, BaseRate: decimal.Zero, PerDistanceRate: decimal.RequireFromString("0.1"), SpeedLabel: "5-7 Days", CreatedAt: now, UpdatedAt: now},
		{ID: "express_courier", Name: "Express Courier", Enabled: true, BaseRate: decimal.RequireFromString("15"), PerDistanceRate: decimal.RequireFromString("0.5"), SpeedLabel: "1-2 Days", CreatedAt: now.Add(time.Second), UpdatedAt: now},
		{ID: "drone", Name: "Drone Delivery", Enabled: true, BaseRate: decimal.RequireFromString("40"), PerDistanceRate: decimal.Zero, SpeedLabel: "2 Hours", LocalOnly: true, CreatedAt: now.Add(2 * time.Second), UpdatedAt: now},
	}
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	logger := testLogger()

	providerRepo := newStubProviderRepo(seedProviders()...)
	settingsRepo := &stubSettingsRepo{origin: domain.OriginAddress{
		Street: "1 Warehouse Way", City: "San Mateo", State: "CA", PostalCode: "94000", Country: "US",
	}}

	rates := service.NewRateService(
		providerRepo, settingsRepo,
		gateway.NewSimulatedCarrier(0),
		service.DefaultCarrierBreakerConfig(),
		time.Second, logger,
	)
	checkout := service.NewCheckoutService(
		memory.NewCartSessionRepository(),
		rates,
		gateway.NewSimulatedPayment(),
		noopPublisher{},
		"USD",
		logger,
	)
	providers := service.NewProviderService(providerRepo, settingsRepo, logger)

	return NewRouter(checkout, rates, providers, health.NewHandler(), testAdminPassword, logger)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

type cartSummaryDTO struct {
	Session struct {
		ID         string                  `json:"id"`
		Items      []domain.CartItem       `json:"items"`
		QuoteID    string                  `json:"quote_id"`
		Options    []domain.DeliveryOption `json:"options"`
		SelectedID string                  `json:"selected_id"`
	} `json:"session"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Total        decimal.Decimal `json:"total"`
	ItemCount    int             `json:"item_count"`
}

func decodeSummary(t *testing.T, rec *httptest.ResponseRecorder) cartSummaryDTO {
	t.Helper()
	env := decodeEnvelope(t, rec)
	var s cartSummaryDTO
	require.NoError(t, json.Unmarshal(env.Data, &s))
	return s
}

func createSession(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/v1/cart/sessions", nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeSummary(t, rec).Session.ID
}

func addressBody(postal string) map[string]any {
	return map[string]any{
		"full_name":   "Test Customer",
		"street":      "2 Main St",
		"city":        "Menlo Park",
		"state":       "CA",
		"postal_code": postal,
		"country":     "US",
	}
}

// ---------------------------------------------------------------------------
// Cart flow
// ---------------------------------------------------------------------------

func TestCartFlow_AddItemsAndTotals(t *testing.T) {
	h := newTestServer(t)
	sessionID := createSession(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/cart/sessions/"+sessionID+"/items", map[string]any{
		"product_id": "prod-1", "name": "Widget", "price": 100.00, "quantity": 1,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/cart/sessions/"+sessionID+"/items", map[string]any{
		"product_id": "prod-1", "name": "Widget", "price": 100.00, "quantity": 1,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	summary := decodeSummary(t, rec)
	require.Len(t, summary.Session.Items, 1)
	assert.Equal(t, 2, summary.Session.Items[0].Quantity)
	assert.Equal(t, 2, summary.ItemCount)
	assert.True(t, summary.Subtotal.Equal(decimal.RequireFromString("200.00")), "subtotal = %s", summary.Subtotal)
}

func TestCartFlow_AddItem_ValidationError(t *testing.T) {
	h := newTestServer(t)
	sessionID := createSession(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/cart/sessions/"+sessionID+"/items", map[string]any{
		"name": "Widget", "price": 1.00, "quantity": 1,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestCartFlow_GetSession_NotFound(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/cart/sessions/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartFlow_ShippingAddressQuotesAndAutoSelects(t *testing.T) {
	h := newTestServer(t)
	sessionID := createSession(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/cart/sessions/"+sessionID+"/items", map[string]any{
		"product_id": "prod-1", "name": "Widget", "price": 100.00, "quantity": 1,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPut, "/api/v1/cart/sessions/"+sessionID+"/shipping-address", addressBody("94025"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	summary := decodeSummary(t, rec)
	// Local zone: all three providers are eligible, cheapest (local_post 1.00) auto-selected.
	require.Len(t, summary.Session.Options, 3)
	assert.NotEmpty(t, summary.Session.QuoteID)
	assert.Equal(t, summary.Session.Options[0].ID, summary.Session.SelectedID)
	assert.True(t, summary.ShippingCost.Equal(decimal.RequireFromString("1.00")), "shipping = %s", summary.ShippingCost)
	assert.True(t, summary.Total.Equal(decimal.RequireFromString("101.00")), "total = %s", summary.Total)
}

func TestCartFlow_NationalDestinationExcludesLocalOnly(t *testing.T) {
	h := newTestServer(t)
	sessionID := createSession(t, h)

	rec := doJSON(t, h, http.MethodPut, "/api/v1/cart/sessions/"+sessionID+"/shipping-address", addressBody("10001"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	summary := decodeSummary(t, rec)
	require.Len(t, summary.Session.Options, 2)
	for _, opt := range summary.Session.Options {
		assert.NotEqual(t, "drone", opt.ProviderID)
		assert.Equal(t, domain.ZoneNational, opt.Zone)
		assert.Contains(t, opt.Duration, "+2 Days")
	}
}

func TestCartFlow_SelectOptionAndPlaceOrder(t *testing.T) {
	h := newTestServer(t)
	sessionID := createSession(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/cart/sessions/"+sessionID+"/items", map[string]any{
		"product_id": "prod-1", "name": "Widget", "price": 100.00, "quantity": 1,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPut, "/api/v1/cart/sessions/"+sessionID+"/shipping-address", addressBody("94025"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeSummary(t, rec)

	// Switch to the most expensive option (drone, 40.00).
	last := summary.Session.Options[len(summary.Session.Options)-1]
	rec = doJSON(t, h, http.MethodPost, "/api/v1/cart/sessions/"+sessionID+"/delivery-option", map[string]any{
		"option_id": last.ID,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary = decodeSummary(t, rec)
	assert.Equal(t, last.ID, summary.Session.SelectedID)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/cart/sessions/"+sessionID+"/order", nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	env := decodeEnvelope(t, rec)
	var order domain.Order
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.NotEmpty(t, order.ID)
	assert.NotEmpty(t, order.PaymentRef)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("140.00")), "total = %s", order.Total)

	// Cart is emptied afterwards.
	rec = doJSON(t, h, http.MethodGet, "/api/v1/cart/sessions/"+sessionID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary = decodeSummary(t, rec)
	assert.Empty(t, summary.Session.Items)
	assert.Equal(t, 0, summary.ItemCount)
}

func TestCartFlow_PlaceOrder_EmptyCart(t *testing.T) {
	h := newTestServer(t)
	sessionID := createSession(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/cart/sessions/"+sessionID+"/order", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartFlow_SelectStaleOptionRejected(t *testing.T) {
	h := newTestServer(t)
	sessionID := createSession(t, h)

	rec := doJSON(t, h, http.MethodPut, "/api/v1/cart/sessions/"+sessionID+"/shipping-address", addressBody("94025"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stale := decodeSummary(t, rec).Session.Options[0].ID

	// Requote for a different destination invalidates the old option IDs.
	rec = doJSON(t, h, http.MethodPut, "/api/v1/cart/sessions/"+sessionID+"/shipping-address", addressBody("10001"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/cart/sessions/"+sessionID+"/delivery-option", map[string]any{
		"option_id": stale,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartFlow_ResetShipping(t *testing.T) {
	h := newTestServer(t)
	sessionID := createSession(t, h)

	rec := doJSON(t, h, http.MethodPut, "/api/v1/cart/sessions/"+sessionID+"/shipping-address", addressBody("94025"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/v1/cart/sessions/"+sessionID+"/shipping", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	summary := decodeSummary(t, rec)
	assert.Empty(t, summary.Session.QuoteID)
	assert.Empty(t, summary.Session.Options)
	assert.True(t, summary.ShippingCost.IsZero())
}

// ---------------------------------------------------------------------------
// Shipping quotes
// ---------------------------------------------------------------------------

func TestShippingQuote_LocalScenario(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/shipping/quotes", map[string]any{
		"address": addressBody("94025"),
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	var quote struct {
		QuoteID string                  `json:"quote_id"`
		Zone    string                  `json:"zone"`
		Options []domain.DeliveryOption `json:"options"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &quote))

	assert.NotEmpty(t, quote.QuoteID)
	assert.Equal(t, "Local", quote.Zone)
	require.Len(t, quote.Options, 3)

	// Ranked ascending: local_post 1.00, express_courier 20.00, drone 40.00.
	assert.Equal(t, "local_post", quote.Options[0].ProviderID)
	assert.True(t, quote.Options[0].Price.Equal(decimal.RequireFromString("1.00")))
	assert.Equal(t, "express_courier", quote.Options[1].ProviderID)
	assert.True(t, quote.Options[1].Price.Equal(decimal.RequireFromString("20.00")))
	assert.Equal(t, "Express Courier (Local)", quote.Options[1].Name)
	assert.Equal(t, "drone", quote.Options[2].ProviderID)
}

func TestShippingQuote_MissingAddress(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/shipping/quotes", map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---------------------------------------------------------------------------
// Admin API
// ---------------------------------------------------------------------------

func adminHeaders() map[string]string {
	return map[string]string{"X-Admin-Password": testAdminPassword}
}

func TestAdmin_RequiresPassword(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/admin/providers", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/admin/providers", nil, map[string]string{"X-Admin-Password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/admin/providers", nil, adminHeaders())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdmin_CreateAndDeleteProvider(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/admin/providers", map[string]any{
		"id": "bike_courier", "name": "Bike Courier", "enabled": true,
		"base_rate": 5.0, "per_distance_rate": 0.25, "speed_label": "Same Day", "local_only": true,
	}, adminHeaders())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/admin/providers/bike_courier", nil, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	var p domain.ProviderConfig
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "Bike Courier", p.Name)
	assert.True(t, p.LocalOnly)

	rec = doJSON(t, h, http.MethodDelete, "/api/v1/admin/providers/bike_courier", nil, adminHeaders())
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/admin/providers/bike_courier", nil, adminHeaders())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmin_UpdateProvider_DisableRemovesFromQuotes(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPut, "/api/v1/admin/providers/drone", map[string]any{
		"id": "drone", "name": "Drone Delivery", "enabled": false,
		"base_rate": 40.0, "per_distance_rate": 0.0, "speed_label": "2 Hours", "local_only": true,
	}, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/shipping/quotes", map[string]any{
		"address": addressBody("94025"),
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	var quote struct {
		Options []domain.DeliveryOption `json:"options"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &quote))
	require.Len(t, quote.Options, 2)
	for _, opt := range quote.Options {
		assert.NotEqual(t, "drone", opt.ProviderID)
	}
}

func TestAdmin_UpdateOrigin_ChangesZoneClassification(t *testing.T) {
	h := newTestServer(t)

	// Move the warehouse near the test destination's numeric postal range.
	rec := doJSON(t, h, http.MethodPut, "/api/v1/admin/origin", map[string]any{
		"street": "9 North Depot", "city": "New York", "state": "NY",
		"postal_code": "10002", "country": "US",
	}, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/shipping/quotes", map[string]any{
		"address": addressBody("10001"),
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	var quote struct {
		Zone string `json:"zone"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &quote))
	assert.Equal(t, "Local", quote.Zone)
}

func TestAdmin_CreateProvider_ValidationError(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/admin/providers", map[string]any{
		"id": "bad", "name": "Bad", "base_rate": -1.0, "speed_label": "Never",
	}, adminHeaders())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
