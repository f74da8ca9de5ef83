// README: Benchmark cases: literal pricing scenarios, endpoint status checks, store connectivity and load.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"khadamat/internal/client"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	api   *client.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	httpc := &http.Client{Timeout: 10 * time.Second}
	return &Runner{
		cfg:   cfg,
		httpc: httpc,
		api:   client.New(cfg.BaseURL, client.WithHTTPClient(httpc), client.WithRetries(0, time.Millisecond)),
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	calc := map[string]any{
		"service_id": "svc_cleaning", "formula_type": "premium",
		"scheduled_time": "2024-01-15 14:00:00", "duration_hours": 1, "quantity": 1,
	}
	return []TestCase{
		{Name: "Env: Postgres connect", Run: func(ctx context.Context, r *Runner) Result {
			if r.db == nil {
				return Result{Status: "SKIP", Note: "no DSN"}
			}
			start := time.Now()
			if err := r.db.Ping(ctx); err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			return Result{Status: "PASS", Latency: time.Since(start)}
		}},
		{Name: "Env: Redis connect", Run: func(ctx context.Context, r *Runner) Result {
			if r.redis == nil {
				return Result{Status: "SKIP", Note: "no redis address"}
			}
			start := time.Now()
			if err := r.redis.Ping(ctx).Err(); err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			return Result{Status: "PASS", Latency: time.Since(start)}
		}},
		httpCase("GET /health", http.MethodGet, base+"/health", nil, http.StatusOK),
		httpCase("GET /pricing/night-rates", http.MethodGet, base+"/pricing/night-rates", nil, http.StatusOK),
		httpCase("POST /pricing/calculate unknown formula", http.MethodPost, base+"/pricing/calculate",
			map[string]any{"service_id": "svc_cleaning", "formula_type": "weekly", "scheduled_time": "2024-01-15 14:00:00", "duration_hours": 1},
			http.StatusBadRequest),
		httpCase("GET nearby-providers bad latitude", http.MethodGet,
			base+"/services/svc_cleaning/nearby-providers?lat=95&lng=0", nil, http.StatusBadRequest),
		httpCase("GET nearby-providers empty area", http.MethodGet,
			base+"/services/svc_cleaning/nearby-providers?lat=0&lng=0&radius=1", nil, http.StatusOK),
		nightCase("Night: 23:00 +2h is single", "2024-01-15 23:00:00", 2, "single"),
		nightCase("Night: 23:00 +9h is single", "2024-01-15 23:00:00", 9, "single"),
		nightCase("Night: 22:00 +33h is double", "2024-01-15 22:00:00", 33, "double"),
		nightCase("Night: 14:00 +2h is none", "2024-01-15 14:00:00", 2, "none"),
		{Name: "Quote: premium 150 daytime", Run: func(ctx context.Context, r *Runner) Result {
			start := time.Now()
			q, err := r.api.Quote(ctx, client.QuoteRequest{
				ServiceID: "svc_cleaning", FormulaType: "premium",
				ScheduledTime: "2024-01-15 14:00:00", DurationHours: 1, Quantity: 1,
			})
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			if q.CommissionAmount+q.ProviderAmount != q.Subtotal {
				return Result{Status: "FAIL", Note: fmt.Sprintf("commission %v + provider %v != subtotal %v", q.CommissionAmount, q.ProviderAmount, q.Subtotal)}
			}
			return Result{Status: "PASS", Latency: time.Since(start), Note: fmt.Sprintf("subtotal=%.2f %s", q.Subtotal, q.Currency)}
		}},
		{Name: "Admin: publish rates requires token", Run: func(ctx context.Context, r *Runner) Result {
			if r.cfg.AdminToken != "" {
				return Result{Status: "SKIP", Note: "token configured; not mutating live rates"}
			}
			return statusCheck(ctx, r, http.MethodPut, base+"/admin/pricing/rates", map[string]any{}, nil,
				http.StatusForbidden, http.StatusUnauthorized)
		}},
		{Name: "Perf: POST /pricing/calculate", Run: func(ctx context.Context, r *Runner) Result {
			return perfLoad(ctx, r, base+"/pricing/calculate", calc)
		}},
	}
}

func nightCase(name, start string, hours float64, want string) TestCase {
	return TestCase{Name: name, Run: func(ctx context.Context, r *Runner) Result {
		t0 := time.Now()
		n, err := r.api.CheckNight(ctx, start, hours)
		if err != nil {
			return Result{Status: "FAIL", Note: err.Error()}
		}
		if n.Type != want {
			return Result{Status: "FAIL", Note: fmt.Sprintf("type=%s nights=%d", n.Type, n.NightsCount)}
		}
		return Result{Status: "PASS", Latency: time.Since(t0), Note: fmt.Sprintf("nights=%d fee=%.2f", n.NightsCount, n.Fee)}
	}}
}

func httpCase(name, method, url string, body any, okStatuses ...int) TestCase {
	return TestCase{Name: name, Run: func(ctx context.Context, r *Runner) Result {
		return statusCheck(ctx, r, method, url, body, nil, okStatuses...)
	}}
}

func statusCheck(ctx context.Context, r *Runner, method, url string, body any, header map[string]string, okStatuses ...int) Result {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	latency := time.Since(start)

	for _, s := range okStatuses {
		if resp.StatusCode == s {
			return Result{Status: "PASS", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
		}
	}
	return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	b, _ := json.Marshal(payload)
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount, limited int64
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(b)))
				req.Header.Set("Content-Type", "application/json")
				resp, err := r.httpc.Do(req)
				mu.Lock()
				switch {
				case err != nil:
					errCount++
				case resp.StatusCode == http.StatusTooManyRequests:
					limited++
				default:
					count++
				}
				mu.Unlock()
				if err == nil {
					_, _ = io.Copy(io.Discard, resp.Body)
					resp.Body.Close()
				}
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: "FAIL", Note: fmt.Sprintf("no requests completed (errors=%d limited=%d)", errCount, limited)}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: "PASS", Note: fmt.Sprintf("rps=%.1f errors=%d rate_limited=%d", rps, errCount, limited)}
}
