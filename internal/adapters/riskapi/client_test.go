package riskapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fraudshield/internal/core/phone"
	perr "fraudshield/internal/platform/errors"
)

const testPhone = phone.Number("01712345678")

func checkBody(t *testing.T, r *http.Request) checkRequest {
	t.Helper()
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	return req
}

func okPayload() string {
	return `{
		"status": "success",
		"data": {
			"phone": "` + testPhone.String() + `",
			"courierData": {
				"summary": {"total_parcel": 10, "success_parcel": 7, "cancelled_parcel": 3, "success_ratio": 70},
				"steadfast": {"name": "SteadFast", "total_parcel": 4, "success_parcel": 2, "cancelled_parcel": 2, "success_ratio": 50},
				"pathao": {"name": "Pathao", "total_parcel": 6, "success_parcel": 5, "cancelled_parcel": 1, "success_ratio": 83.33},
				"plan": "free"
			},
			"reports": [{"courier": "pathao", "comment": "refused delivery"}]
		}
	}`
}

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(Options{
		BaseURL:       srv.URL,
		Token:         "tok-123",
		Source:        "fraudshield",
		ClientVersion: "1.0.0",
	})
	return c, srv
}

func TestCheckParsesAndAggregates(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != checkPath {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("auth header = %q", got)
		}
		if got := r.Header.Get("X-Request-Source"); got != "fraudshield" {
			t.Errorf("source header = %q", got)
		}
		if req := checkBody(t, r); req.Phone != testPhone.String() {
			t.Errorf("phone = %q", req.Phone)
		}
		w.Header().Set("X-Daily-Limit", "100")
		w.Header().Set("X-Daily-Remaining", "42")
		_, _ = w.Write([]byte(okPayload()))
	})

	res, err := c.Check(context.Background(), testPhone)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.TotalParcels != 10 || res.SuccessParcels != 7 || res.CancelParcels != 3 {
		t.Fatalf("totals = %d/%d/%d", res.TotalParcels, res.SuccessParcels, res.CancelParcels)
	}
	if res.SuccessRatio != 70 {
		t.Fatalf("ratio = %v", res.SuccessRatio)
	}
	// the summary and non-object entries never become couriers, and the
	// breakdown comes back sorted by id
	if len(res.Couriers) != 2 {
		t.Fatalf("couriers = %+v", res.Couriers)
	}
	if res.Couriers[0].ID != "pathao" || res.Couriers[1].ID != "steadfast" {
		t.Fatalf("couriers not sorted: %+v", res.Couriers)
	}
	if res.Couriers[0].Name != "Pathao" || res.Couriers[0].SuccessRatio != 83.33 {
		t.Fatalf("courier stats = %+v", res.Couriers[0])
	}
	if res.Rate.Limit != 100 || res.Rate.Remaining != 42 || res.Rate.Source != "api" {
		t.Fatalf("rate = %+v", res.Rate)
	}
	if len(res.Reports) != 1 || res.FromCache {
		t.Fatalf("reports/cache flags wrong: %+v", res)
	}
}

func TestCheckStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		code   perr.ErrorCode
	}{
		{400, perr.ErrorCodeBadRequest},
		{401, perr.ErrorCodeUnauthorized},
		{402, perr.ErrorCodeNoSubscription},
		{403, perr.ErrorCodeForbidden},
		{429, perr.ErrorCodeRateLimited},
		{502, perr.ErrorCodeUpstream},
		{503, perr.ErrorCodeUnavailable},
		{418, perr.ErrorCodeUnknownAPI},
	}
	for _, tc := range cases {
		c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
		})
		_, err := c.Check(context.Background(), testPhone)
		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		if got := perr.CodeOf(err); got != tc.code {
			t.Fatalf("status %d: code = %v, want %v", tc.status, got, tc.code)
		}
	}
}

func TestCheckKeepsUpstreamMessage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message": "daily quota exhausted, resets at midnight"}`))
	})

	_, err := c.Check(context.Background(), testPhone)
	if !perr.IsCode(err, perr.ErrorCodeRateLimited) {
		t.Fatalf("code = %v", perr.CodeOf(err))
	}
	if !strings.Contains(err.Error(), "daily quota exhausted") {
		t.Fatalf("upstream message lost: %v", err)
	}
}

func TestAggregateDefaultsMissingSummary(t *testing.T) {
	data := checkData{
		Couriers: map[string]json.RawMessage{
			"pathao": json.RawMessage(`{"name": "Pathao", "total_parcel": 3, "success_parcel": 3}`),
		},
	}
	res := aggregate(testPhone, data, RateLimit{}, time.Now())
	if res.TotalParcels != 0 || res.SuccessRatio != 0 {
		t.Fatalf("missing summary must leave totals at zero: %+v", res)
	}
	if len(res.Couriers) != 1 || res.Couriers[0].ID != "pathao" {
		t.Fatalf("couriers = %+v", res.Couriers)
	}
}

func TestCheckNoCredentialShortCircuits(t *testing.T) {
	var hit atomic.Int32
	c, _ := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		hit.Add(1)
	})
	c.opts.Token = ""

	_, err := c.Check(context.Background(), testPhone)
	if !perr.IsCode(err, perr.ErrorCodeNoCredential) {
		t.Fatalf("code = %v", perr.CodeOf(err))
	}
	if hit.Load() != 0 {
		t.Fatalf("client reached the network without a credential")
	}
}

func TestCheckConnectionError(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1", Token: "tok"})
	_, err := c.Check(context.Background(), testPhone)
	if !perr.IsCode(err, perr.ErrorCodeConnection) {
		t.Fatalf("code = %v", perr.CodeOf(err))
	}
}

func TestCheckTimeout(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	})
	c.http.Timeout = 50 * time.Millisecond

	_, err := c.Check(context.Background(), testPhone)
	if !perr.IsCode(err, perr.ErrorCodeTimeout) {
		t.Fatalf("code = %v", perr.CodeOf(err))
	}
}

func TestCheckCachesSuccess(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(okPayload()))
	})

	first, err := c.Check(context.Background(), testPhone)
	if err != nil {
		t.Fatalf("first Check: %v", err)
	}
	second, err := c.Check(context.Background(), testPhone)
	if err != nil {
		t.Fatalf("second Check: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("upstream hit %d times, want 1", hits.Load())
	}
	if !second.FromCache || second.Rate.Source != "cache" {
		t.Fatalf("second result not from cache: %+v", second.Rate)
	}
	if first.FromCache {
		t.Fatalf("first result flagged as cached")
	}
	if second.TotalParcels != first.TotalParcels {
		t.Fatalf("cached result diverged")
	}
}

func TestCheckFailureNotCached(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(okPayload()))
	})

	if _, err := c.Check(context.Background(), testPhone); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("first call code = %v", perr.CodeOf(err))
	}
	res, err := c.Check(context.Background(), testPhone)
	if err != nil {
		t.Fatalf("second Check: %v", err)
	}
	if res.FromCache {
		t.Fatalf("failure must not seed the cache")
	}
	if hits.Load() != 2 {
		t.Fatalf("upstream hit %d times, want 2", hits.Load())
	}
}

func TestCheckExpiryGoesUpstreamAgain(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(okPayload()))
	})

	clock := time.Now()
	now := func() time.Time { return clock }
	c.cache = newCache(c.opts.CacheTTL, now)

	if _, err := c.Check(context.Background(), testPhone); err != nil {
		t.Fatalf("seed Check: %v", err)
	}
	clock = clock.Add(c.opts.CacheTTL + time.Second)
	res, err := c.Check(context.Background(), testPhone)
	if err != nil {
		t.Fatalf("post-expiry Check: %v", err)
	}
	if res.FromCache {
		t.Fatalf("expired entry served from cache")
	}
	if hits.Load() != 2 {
		t.Fatalf("upstream hit %d times, want 2", hits.Load())
	}
}

func TestInvalidateBustsCache(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(okPayload()))
	})

	if _, err := c.Check(context.Background(), testPhone); err != nil {
		t.Fatalf("seed Check: %v", err)
	}
	c.Invalidate(testPhone)
	if _, err := c.Check(context.Background(), testPhone); err != nil {
		t.Fatalf("post-invalidate Check: %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("upstream hit %d times, want 2", hits.Load())
	}
}

func TestConcurrentChecksCollapse(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(okPayload()))
	})

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Check(context.Background(), testPhone)
		}(i)
	}
	// give the goroutines time to pile onto the flight before releasing
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("goroutine %d: %v", i, err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("upstream hit %d times, want 1", got)
	}
}

func TestTestConnection(t *testing.T) {
	cases := []struct {
		name   string
		status int
		ok     bool
		code   perr.ErrorCode
	}{
		{"bad request means authorized", 400, true, 0},
		{"ok", 200, true, 0},
		{"bad token", 401, false, perr.ErrorCodeUnauthorized},
		{"expired subscription", 402, false, perr.ErrorCodeNoSubscription},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			})
			err := c.TestConnection(context.Background())
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !perr.IsCode(err, tc.code) {
				t.Fatalf("code = %v, want %v", perr.CodeOf(err), tc.code)
			}
		})
	}
}
