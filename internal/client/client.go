// README: Typed HTTP client for the pricing API, retrying transient failures.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

// ErrUnavailable marks transport failures and 5xx answers; callers may fall
// back to LocalEstimate.
var ErrUnavailable = errors.New("pricing service unavailable")

// APIError is a 4xx answer from the pricing service.
type APIError struct {
	Status  int
	Message string `json:"error"`
	Field   string `json:"field"`
	Reason  string `json:"reason"`
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("pricing api %d: %s (field %s)", e.Status, e.Message, e.Field)
	}
	return fmt.Sprintf("pricing api %d: %s", e.Status, e.Message)
}

type QuoteRequest struct {
	ServiceID       string   `json:"service_id"`
	FormulaType     string   `json:"formula_type"`
	ScheduledTime   string   `json:"scheduled_time"`
	DurationHours   float64  `json:"duration_hours"`
	DistanceKm      float64  `json:"distance_km"`
	Quantity        int      `json:"quantity"`
	FreeRadiusKm    *float64 `json:"free_radius_km,omitempty"`
	PricePerExtraKm *float64 `json:"price_per_extra_km,omitempty"`
	CommissionRate  *float64 `json:"commission_rate,omitempty"`
}

type Quote struct {
	ServiceID              string  `json:"service_id"`
	FormulaType            string  `json:"formula_type"`
	FormulaModifierDisplay string  `json:"formula_modifier_display"`
	BasePrice              float64 `json:"base_price"`
	FormulaModifier        float64 `json:"formula_modifier"`
	DurationHours          float64 `json:"duration_hours"`
	Quantity               int     `json:"quantity"`
	DistanceFee            float64 `json:"distance_fee"`
	BillableExcessKm       int64   `json:"billable_excess_km"`
	NightFee               float64 `json:"night_fee"`
	NightType              string  `json:"night_type"`
	NightsCount            int     `json:"nights_count"`
	Subtotal               float64 `json:"subtotal"`
	CommissionRate         float64 `json:"commission_rate"`
	CommissionAmount       float64 `json:"commission_amount"`
	ProviderAmount         float64 `json:"provider_amount"`
	Total                  float64 `json:"total"`
	Currency               string  `json:"currency"`
	RatesVersion           int64   `json:"rates_version"`
	// Authoritative is false for local estimates; those are never settled.
	Authoritative bool `json:"authoritative"`
}

type NightCheck struct {
	Type         string  `json:"type"`
	Fee          float64 `json:"fee"`
	NightsCount  int     `json:"nights_count"`
	IsNightShift bool    `json:"is_night_shift"`
	Explanation  string  `json:"explanation"`
}

type RateTable struct {
	Version                int64   `json:"version"`
	Single                 float64 `json:"single"`
	Double                 float64 `json:"double"`
	NightStartHour         int     `json:"night_start_hour"`
	NightEndHour           int     `json:"night_end_hour"`
	CommissionRate         float64 `json:"commission_rate"`
	DefaultFreeRadiusKm    float64 `json:"default_free_radius_km"`
	DefaultPricePerExtraKm float64 `json:"default_price_per_extra_km"`
	Currency               string  `json:"currency"`
}

// DefaultRateTable mirrors the server defaults; used before any successful fetch.
var DefaultRateTable = RateTable{
	Single:                 50,
	Double:                 100,
	NightStartHour:         22,
	NightEndHour:           6,
	CommissionRate:         0.20,
	DefaultFreeRadiusKm:    10,
	DefaultPricePerExtraKm: 5,
	Currency:               "MAD",
}

type Client struct {
	baseURL    string
	http       *http.Client
	maxRetries uint64
	backoff    time.Duration

	mu    sync.RWMutex
	rates RateTable
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithRetries(n uint64, base time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = n
		c.backoff = base
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: 10 * time.Second},
		maxRetries: 2,
		backoff:    200 * time.Millisecond,
		rates:      DefaultRateTable,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Quote(ctx context.Context, req QuoteRequest) (Quote, error) {
	var q Quote
	err := c.do(ctx, http.MethodPost, "/pricing/calculate", req, &q)
	return q, err
}

func (c *Client) CheckNight(ctx context.Context, scheduledTime string, durationHours float64) (NightCheck, error) {
	var n NightCheck
	body := map[string]any{"scheduled_time": scheduledTime, "estimated_duration_hours": durationHours}
	err := c.do(ctx, http.MethodPost, "/pricing/check-night", body, &n)
	return n, err
}

func (c *Client) IsNightTime(ctx context.Context, instant string) (bool, error) {
	var out struct {
		IsNight bool `json:"is_night"`
	}
	err := c.do(ctx, http.MethodGet, "/pricing/check-night-quick?time="+url.QueryEscape(instant), nil, &out)
	return out.IsNight, err
}

// NightRates fetches the current rates and remembers them for local estimates.
func (c *Client) NightRates(ctx context.Context) (RateTable, error) {
	var r RateTable
	if err := c.do(ctx, http.MethodGet, "/pricing/night-rates", nil, &r); err != nil {
		return RateTable{}, err
	}
	c.mu.Lock()
	c.rates = r
	c.mu.Unlock()
	return r, nil
}

// CachedRates returns the last fetched rates, or DefaultRateTable.
func (c *Client) CachedRates() RateTable {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rates
}

// QuoteOrEstimate asks the service and, only when it is unreachable, computes
// a local estimate from the cached rates. basePrice is the catalogue tariff
// the caller already displays.
func (c *Client) QuoteOrEstimate(ctx context.Context, req QuoteRequest, basePrice float64) (Quote, error) {
	q, err := c.Quote(ctx, req)
	if err == nil || !errors.Is(err, ErrUnavailable) {
		return q, err
	}
	return LocalEstimate(req, basePrice, c.CachedRates())
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		payload = b
	}

	base := c.backoff
	if base <= 0 {
		base = time.Millisecond
	}
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(base))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %w", ErrUnavailable, err)
			}
			return retry.RetryableError(fmt.Errorf("%w: %w", ErrUnavailable, err))
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("%w: reading response: %w", ErrUnavailable, err))
		}
		switch {
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode))
		case resp.StatusCode >= 400:
			apiErr := &APIError{Status: resp.StatusCode}
			if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
				apiErr.Message = strings.TrimSpace(string(data))
			}
			return apiErr
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	})
}
