package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prairiemarket/storefront-backend/internal/address"
	"github.com/prairiemarket/storefront-backend/internal/ratelimit"
	"github.com/prairiemarket/storefront-backend/internal/shipping"
	"github.com/prairiemarket/storefront-backend/pkg/enums"
	"github.com/prairiemarket/storefront-backend/pkg/usps"
)

type stubShipping struct{}

func (stubShipping) GetRates(context.Context, shipping.RatesRequest) (shipping.RatesResult, error) {
	return shipping.RatesResult{
		OriginZIP:      "66217",
		DestinationZIP: "66215",
		Rates:          []usps.RateOption{{MailClass: enums.MailClassPriority, PriceCents: 850}},
	}, nil
}

type stubAddress struct{}

func (stubAddress) Validate(context.Context, address.ValidateRequest) (usps.StandardizedAddress, error) {
	return usps.StandardizedAddress{State: "KS", ZIPCode: "66215"}, nil
}

func newTestRouter(limiter *ratelimit.Limiter) http.Handler {
	return NewRouter(Deps{
		Limiter:         limiter,
		ShippingService: stubShipping{},
		AddressService:  stubAddress{},
	})
}

func TestRouterHealthLive(t *testing.T) {
	router := newTestRouter(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRouterCalculateRates(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipping/rates", strings.NewReader(`{"destinationZip":"66215","weight":2.0,"length":12,"width":9,"height":6}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"priceCents":850`)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestRouterValidateAddress(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipping/address/validate", strings.NewReader(`{"streetAddress":"11222 W 75th St","state":"KS","zipCode":"66214"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"zipCode":"66215"`)
}

func TestRouterRatesScopeThrottled(t *testing.T) {
	limiter := ratelimit.New(ratelimit.NewMemoryStore(), []ratelimit.Policy{
		{Scope: ratelimit.ScopeRates, Window: time.Minute, Max: 1},
		{Scope: ratelimit.ScopeAPI, Window: time.Minute, Max: 100},
	})
	router := newTestRouter(limiter)

	body := `{"destinationZip":"66215","weight":2.0,"length":12,"width":9,"height":6}`

	first := httptest.NewRequest(http.MethodPost, "/api/v1/shipping/rates", strings.NewReader(body))
	first.RemoteAddr = "10.1.1.1:50000"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, first)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	second := httptest.NewRequest(http.MethodPost, "/api/v1/shipping/rates", strings.NewReader(body))
	second.RemoteAddr = "10.1.1.1:50000"
	w = httptest.NewRecorder()
	router.ServeHTTP(w, second)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
