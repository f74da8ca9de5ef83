package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"khadamat/internal/config"
	"khadamat/internal/http/handlers"
	"khadamat/internal/modules/location"
	"khadamat/internal/modules/matching"
	"khadamat/internal/modules/pricing"
	"khadamat/internal/types"
)

var origin = types.Point{Lat: 33.5731, Lng: -7.5898}

type memoryPositions struct {
	set     map[types.ID]types.Point
	removed []types.ID
}

func (m *memoryPositions) SetPosition(_ context.Context, id types.ID, p types.Point) error {
	m.set[id] = p
	return nil
}

func (m *memoryPositions) RemovePosition(_ context.Context, id types.ID) error {
	m.removed = append(m.removed, id)
	return nil
}

func (m *memoryPositions) Positions(_ context.Context, _ []types.ID) (map[types.ID]types.Point, error) {
	return m.set, nil
}

type fixture struct {
	router    *gin.Engine
	pricing   *pricing.Service
	positions *memoryPositions
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rates := pricing.RatesFromConfig(config.PricingConfig{
		NightStartHour: 22, NightEndHour: 6,
		SingleNightRate: 50, DoubleNightRate: 100,
		CommissionRate:      0.2,
		DefaultFreeRadiusKm: 10, DefaultPricePerExtraKm: 5,
		Currency: "MAD",
	})
	rp, err := pricing.NewRateProvider(rates)
	if err != nil {
		t.Fatalf("NewRateProvider() error = %v", err)
	}
	catalog := pricing.NewMemoryCatalog(pricing.ServiceRecord{
		ID: "svc_cleaning", BasePrice: decimal.NewFromInt(150), DurationMinutes: 60,
	})
	pricingSvc := pricing.NewService(catalog, rp, nil, nil)

	providers := matching.NewMemoryProviders(
		matching.Provider{ID: "p_near", Position: types.Point{Lat: origin.Lat + 0.01, Lng: origin.Lng},
			IsAvailable: true, Rating: 4.5, ServiceIDs: []types.ID{"svc_cleaning"}},
		matching.Provider{ID: "p_far", Position: types.Point{Lat: origin.Lat + 0.1, Lng: origin.Lng},
			IsAvailable: false, Rating: 4.9, ServiceIDs: []types.ID{"svc_cleaning"}},
	)
	positions := &memoryPositions{set: map[types.ID]types.Point{}}
	matchingSvc := matching.NewService(matching.ServiceDeps{
		Providers: providers,
		Pricing:   pricingSvc,
		Config:    config.SearchConfig{DefaultRadiusKm: 20, MaxAlternatives: 5},
	})

	r := gin.New()
	ph := handlers.NewPricingHandler(pricingSvc)
	r.POST("/pricing/calculate", ph.Calculate)
	r.POST("/pricing/check-night", ph.CheckNight)
	r.GET("/pricing/check-night-quick", ph.CheckNightQuick)
	r.GET("/pricing/night-rates", ph.NightRates)
	r.GET("/services/:service_id/nearby-providers", handlers.NewProviderHandler(matchingSvc).Nearby)
	r.PUT("/providers/:id/location", handlers.NewLocationHandler(location.NewService(positions, nil)).Update)
	r.PUT("/admin/pricing/rates", handlers.NewAdminHandler(pricingSvc).PublishRates)
	return fixture{router: r, pricing: pricingSvc, positions: positions}
}

func doRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestCalculate_Premium(t *testing.T) {
	f := newFixture(t)
	w := doRequest(f.router, http.MethodPost, "/pricing/calculate", map[string]any{
		"service_id":     "svc_cleaning",
		"formula_type":   "premium",
		"scheduled_time": "2024-01-15 14:00:00",
		"duration_hours": 1,
		"distance_km":    0,
		"quantity":       1,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	for _, want := range []string{
		`"formula_modifier":45.00`,
		`"subtotal":195.00`,
		`"commission_amount":39.00`,
		`"provider_amount":156.00`,
		`"total":195.00`,
		`"formula_modifier_display":"+30%"`,
		`"service_id":"svc_cleaning"`,
	} {
		if !bytes.Contains([]byte(body), []byte(want)) {
			t.Errorf("response missing %s: %s", want, body)
		}
	}
}

func TestCalculate_Errors(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name  string
		body  map[string]any
		want  int
		field string
	}{
		{"unknown formula", map[string]any{"service_id": "svc_cleaning", "formula_type": "weekly",
			"scheduled_time": "2024-01-15T14:00:00", "duration_hours": 1}, http.StatusBadRequest, "formula_type"},
		{"bad time", map[string]any{"service_id": "svc_cleaning", "formula_type": "standard",
			"scheduled_time": "tomorrow", "duration_hours": 1}, http.StatusBadRequest, "scheduled_time"},
		{"zero duration", map[string]any{"service_id": "svc_cleaning", "formula_type": "standard",
			"scheduled_time": "2024-01-15T14:00:00", "duration_hours": 0}, http.StatusBadRequest, "duration_hours"},
		{"negative distance", map[string]any{"service_id": "svc_cleaning", "formula_type": "standard",
			"scheduled_time": "2024-01-15T14:00:00", "duration_hours": 1, "distance_km": -2}, http.StatusBadRequest, "distance_km"},
		{"unknown service", map[string]any{"service_id": "svc_missing", "formula_type": "standard",
			"scheduled_time": "2024-01-15T14:00:00", "duration_hours": 1}, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(f.router, http.MethodPost, "/pricing/calculate", tt.body)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			if tt.field != "" {
				if got := decode(t, w)["field"]; got != tt.field {
					t.Fatalf("field = %v, want %s", got, tt.field)
				}
			}
		})
	}
}

func TestCheckNight(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		start  string
		hours  float64
		typ    string
		nights float64
		fee    float64
	}{
		{"2024-01-15 23:00:00", 2, "single", 1, 50},
		{"2024-01-15 23:00:00", 9, "single", 1, 50},
		{"2024-01-15 22:00:00", 33, "double", 2, 100},
		{"2024-01-15 14:00:00", 2, "none", 0, 0},
	}
	for _, tt := range tests {
		w := doRequest(f.router, http.MethodPost, "/pricing/check-night", map[string]any{
			"scheduled_time":           tt.start,
			"estimated_duration_hours": tt.hours,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("%s +%vh: expected 200, got %d", tt.start, tt.hours, w.Code)
		}
		got := decode(t, w)
		if got["type"] != tt.typ || got["nights_count"] != tt.nights || got["fee"] != tt.fee {
			t.Errorf("%s +%vh = %v, want %s/%v/%v", tt.start, tt.hours, got, tt.typ, tt.nights, tt.fee)
		}
		if got["explanation"] == "" {
			t.Errorf("%s +%vh: empty explanation", tt.start, tt.hours)
		}
	}
}

func TestCheckNightQuick(t *testing.T) {
	f := newFixture(t)
	for ts, want := range map[string]bool{
		"2024-01-15T21:59:00": false,
		"2024-01-15T22:00:00": true,
		"2024-01-16T05:59:00": true,
		"2024-01-16T06:00:00": false,
	} {
		w := doRequest(f.router, http.MethodGet, "/pricing/check-night-quick?time="+ts, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", ts, w.Code)
		}
		if got := decode(t, w)["is_night"]; got != want {
			t.Errorf("%s: is_night = %v, want %v", ts, got, want)
		}
	}
	if w := doRequest(f.router, http.MethodGet, "/pricing/check-night-quick?time=garbage", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad time, got %d", w.Code)
	}
}

func TestNightRates(t *testing.T) {
	f := newFixture(t)
	w := doRequest(f.router, http.MethodGet, "/pricing/night-rates", nil)
	got := decode(t, w)
	if got["single"] != 50.0 || got["double"] != 100.0 || got["night_start_hour"] != 22.0 || got["night_end_hour"] != 6.0 {
		t.Fatalf("rates = %v", got)
	}
}

func TestNearby(t *testing.T) {
	f := newFixture(t)
	w := doRequest(f.router, http.MethodGet,
		"/services/svc_cleaning/nearby-providers?lat=33.5731&lng=-7.5898&formula=standard&scheduled_time=2024-01-15T14:00:00", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res struct {
		Nearest *struct {
			ProviderID      string  `json:"provider_id"`
			DistanceKm      float64 `json:"distance_km"`
			CalculatedPrice *struct {
				Subtotal float64 `json:"subtotal"`
			} `json:"calculated_price"`
		} `json:"nearest"`
		Alternatives []struct {
			ProviderID      string  `json:"provider_id"`
			DistanceKm      float64 `json:"distance_km"`
			WithinRadius    bool    `json:"within_radius"`
			CalculatedPrice *struct {
				DistanceFee float64 `json:"distance_fee"`
			} `json:"calculated_price"`
		} `json:"alternatives"`
		TotalFound   int `json:"total_found"`
		SearchParams struct {
			RadiusKm float64 `json:"radius_km"`
		} `json:"search_params"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Nearest == nil || res.Nearest.ProviderID != "p_near" || res.Nearest.DistanceKm != 1.1 {
		t.Fatalf("nearest = %+v", res.Nearest)
	}
	if res.Nearest.CalculatedPrice == nil || res.Nearest.CalculatedPrice.Subtotal != 150 {
		t.Fatalf("nearest price = %+v", res.Nearest.CalculatedPrice)
	}
	if len(res.Alternatives) != 1 || res.Alternatives[0].WithinRadius || res.Alternatives[0].DistanceKm != 11.1 {
		t.Fatalf("alternatives = %+v", res.Alternatives)
	}
	if res.Alternatives[0].CalculatedPrice.DistanceFee != 10 {
		t.Fatalf("alternative distance fee = %v, want 10", res.Alternatives[0].CalculatedPrice.DistanceFee)
	}
	if res.TotalFound != 2 || res.SearchParams.RadiusKm != 20 {
		t.Fatalf("total = %d radius = %v", res.TotalFound, res.SearchParams.RadiusKm)
	}
}

func TestNearby_EmptyAndInvalid(t *testing.T) {
	f := newFixture(t)

	w := doRequest(f.router, http.MethodGet, "/services/svc_cleaning/nearby-providers?lat=33.5731&lng=-7.5898&radius=0.5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty result, got %d", w.Code)
	}
	if body := w.Body.String(); !bytes.Contains([]byte(body), []byte(`"nearest":null`)) ||
		!bytes.Contains([]byte(body), []byte(`"alternatives":[]`)) ||
		!bytes.Contains([]byte(body), []byte(`"total_found":0`)) {
		t.Fatalf("unexpected empty body: %s", body)
	}

	w = doRequest(f.router, http.MethodGet, "/services/svc_cleaning/nearby-providers?lat=33.5731&lng=-7.5898&only_available=true", nil)
	if got := decode(t, w)["total_found"]; got != 1.0 {
		t.Fatalf("only_available total_found = %v, want 1", got)
	}

	for _, q := range []string{"lat=95&lng=0", "lat=abc&lng=0", "lat=33", "", "lat=33&lng=-7&radius=-1", "lat=33&lng=-7&only_available=maybe"} {
		w := doRequest(f.router, http.MethodGet, "/services/svc_cleaning/nearby-providers?"+q, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("query %q: expected 400, got %d", q, w.Code)
		}
	}

	w = doRequest(f.router, http.MethodGet, "/services/svc_cleaning/nearby-providers?lat=33&lng=-7&include_out_of_range=true", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("diagnostics with flag off: expected 403, got %d", w.Code)
	}
}

func TestLocationUpdate(t *testing.T) {
	f := newFixture(t)
	w := doRequest(f.router, http.MethodPut, "/providers/p_near/location", map[string]any{"lat": 33.6, "lng": -7.6})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := f.positions.set["p_near"]; got.Lat != 33.6 || got.Lng != -7.6 {
		t.Fatalf("stored position = %+v", got)
	}

	w = doRequest(f.router, http.MethodPut, "/providers/p_near/location", map[string]any{"offline": true})
	if w.Code != http.StatusOK || len(f.positions.removed) != 1 {
		t.Fatalf("offline: status %d removed %v", w.Code, f.positions.removed)
	}

	for _, body := range []map[string]any{{"lat": 33.6}, {"lat": 120, "lng": 0}} {
		if w := doRequest(f.router, http.MethodPut, "/providers/p_near/location", body); w.Code != http.StatusBadRequest {
			t.Errorf("body %v: expected 400, got %d", body, w.Code)
		}
	}
}

func TestPublishRates(t *testing.T) {
	f := newFixture(t)
	w := doRequest(f.router, http.MethodPut, "/admin/pricing/rates", map[string]any{"single_night_rate": 60, "double_night_rate": 120})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	got := decode(t, w)
	if got["version"] != 2.0 || got["single"] != 60.0 || got["double"] != 120.0 || got["commission_rate"] != 0.2 {
		t.Fatalf("published = %v", got)
	}
	if v := f.pricing.Rates().Version; v != 2 {
		t.Fatalf("current version = %d, want 2", v)
	}

	w = doRequest(f.router, http.MethodPut, "/admin/pricing/rates", map[string]any{"double_night_rate": 10})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("inconsistent rates: expected 400, got %d", w.Code)
	}
	if v := f.pricing.Rates().Version; v != 2 {
		t.Fatalf("rejected publish changed version to %d", v)
	}
}
