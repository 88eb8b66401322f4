// Package riskapi talks to the external courier-history risk service.
//
// One POST per phone number, bearer auth, aggressive result caching.
// The service meters daily quota, so the client never retries and never
// caches failures; a failed check costs nothing and a successful one is
// reused for the TTL window.
package riskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"fraudshield/internal/core/phone"
	perr "fraudshield/internal/platform/errors"
	"fraudshield/internal/platform/logger"

	"golang.org/x/sync/singleflight"
)

const (
	checkPath       = "/api/v1/courier-check"
	defaultTimeout  = 20 * time.Second
	defaultCacheTTL = 5 * time.Minute
	sweepInterval   = time.Minute

	headerDailyLimit     = "X-Daily-Limit"
	headerDailyRemaining = "X-Daily-Remaining"
	headerDataSource     = "X-Data-Source"
)

// Options configures the Client
type Options struct {
	BaseURL string
	Token   string

	// Source and ClientVersion identify this app to the risk service
	Source        string
	ClientVersion string

	Timeout  time.Duration
	CacheTTL time.Duration
}

// Client is the risk service client with a per-process result cache
type Client struct {
	http  *http.Client
	opts  Options
	cache *cache
	sf    singleflight.Group
	log   logger.Logger
	now   func() time.Time
}

// NewClient creates a Client with sane defaults
func NewClient(o Options) *Client {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = defaultCacheTTL
	}
	now := time.Now
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		cache: newCache(o.CacheTTL, now),
		log:   *logger.Named("riskapi"),
		now:   now,
	}
}

// StartSweeper runs cache eviction in the background until ctx is done
func (c *Client) StartSweeper(ctx context.Context) {
	go c.cache.sweep(ctx, sweepInterval)
}

// Check fetches the delivery history for a normalized phone number.
// Concurrent checks for the same number collapse into one upstream call
func (c *Client) Check(ctx context.Context, num phone.Number) (Result, error) {
	if c.opts.Token == "" {
		return Result{}, perr.NoCredentialf("risk service token not configured")
	}

	if res, ok := c.cache.get(num); ok {
		res.FromCache = true
		res.Rate.Source = "cache"
		return res, nil
	}

	v, err, _ := c.sf.Do(num.String(), func() (any, error) {
		// a winner may have populated the cache while we queued
		if res, ok := c.cache.get(num); ok {
			res.FromCache = true
			res.Rate.Source = "cache"
			return res, nil
		}
		res, err := c.fetch(ctx, num)
		if err != nil {
			return Result{}, err
		}
		c.cache.put(num, res)
		return res, nil
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

// Invalidate drops one number from the cache so the next Check goes upstream
func (c *Client) Invalidate(num phone.Number) { c.cache.invalidate(num) }

// FlushCache drops all cached results
func (c *Client) FlushCache() { c.cache.flush() }

// CacheSize reports how many results are currently cached
func (c *Client) CacheSize() int { return c.cache.len() }

func (c *Client) fetch(ctx context.Context, num phone.Number) (Result, error) {
	body, err := json.Marshal(checkRequest{Phone: num.String()})
	if err != nil {
		return Result{}, perr.Wrap(err, perr.ErrorCodeJSON, "riskapi: encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+checkPath, bytes.NewReader(body))
	if err != nil {
		return Result{}, perr.Wrap(err, perr.ErrorCodeUnknown, "riskapi: new request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	if c.opts.Source != "" {
		req.Header.Set("X-Request-Source", c.opts.Source)
	}
	if c.opts.ClientVersion != "" {
		req.Header.Set("X-Client-Version", c.opts.ClientVersion)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("phone", num.String()).Msg("risk check transport failure")
		return Result{}, transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg := upstreamMessage(resp.Body)
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("phone", num.String()).
			Str("message", msg).
			Msg("risk check rejected")
		return Result{}, statusError(resp.StatusCode, msg)
	}

	var out checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, perr.Wrap(err, perr.ErrorCodeUpstream, "riskapi: decode response")
	}

	rate := RateLimit{
		Limit:     headerInt(resp.Header, headerDailyLimit),
		Remaining: headerInt(resp.Header, headerDailyRemaining),
		Source:    resp.Header.Get(headerDataSource),
	}
	if rate.Source == "" {
		rate.Source = "api"
	}

	res := aggregate(num, out.Data, rate, c.now())
	c.log.Debug().
		Str("phone", num.String()).
		Int("couriers", len(res.Couriers)).
		Int("total", res.TotalParcels).
		Dur("took", c.now().Sub(start)).
		Msg("risk check ok")
	return res, nil
}

// upstreamMessage pulls the error text out of a rejection body, if any
func upstreamMessage(r io.Reader) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 4<<10)).Decode(&body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

func headerInt(h http.Header, key string) int {
	n, err := strconv.Atoi(h.Get(key))
	if err != nil {
		return 0
	}
	return n
}
