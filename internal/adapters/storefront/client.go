// Package storefront is the client for the e-commerce platform's admin
// API: reading orders and writing tags, metafields, and notes back.
//
// All writes are best effort from the pipeline's point of view; the
// caller decides whether a failed annotation fails the whole check.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	perr "fraudshield/internal/platform/errors"
	"fraudshield/internal/platform/logger"

	"github.com/go-resty/resty/v2"
)

const (
	// Namespace scopes every order field this app writes
	Namespace = "fsbd"

	apiVersion     = "2024-01"
	defaultTimeout = 10 * time.Second
	fieldType      = "single_line_text_field"
)

// Options configures the Client
type Options struct {
	// Scheme is overridable for tests, defaults to https
	Scheme  string
	Timeout time.Duration
}

// Client talks to the storefront admin API for any installed shop
type Client struct {
	rc     *resty.Client
	scheme string
	log    logger.Logger
}

// NewClient creates a Client with sane defaults
func NewClient(o Options) *Client {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Scheme == "" {
		o.Scheme = "https"
	}
	rc := resty.New().
		SetTimeout(o.Timeout).
		SetHeader("Content-Type", "application/json")
	return &Client{rc: rc, scheme: o.Scheme, log: *logger.Named("storefront")}
}

func (c *Client) url(s Session, format string, a ...any) string {
	return fmt.Sprintf("%s://%s/admin/api/%s/%s", c.scheme, s.Shop, apiVersion, fmt.Sprintf(format, a...))
}

func (c *Client) req(ctx context.Context, s Session) *resty.Request {
	return c.rc.R().
		SetContext(ctx).
		SetHeader("X-Access-Token", s.Token)
}

// GetOrder fetches one order by id
func (c *Client) GetOrder(ctx context.Context, s Session, orderID int64) (Order, error) {
	var out orderEnvelope
	resp, err := c.req(ctx, s).
		SetResult(&out).
		Get(c.url(s, "orders/%d.json", orderID))
	if err := c.check(resp, err, "get order"); err != nil {
		return Order{}, err
	}
	return out.Order, nil
}

// SetTags replaces the order's tag list
func (c *Client) SetTags(ctx context.Context, s Session, orderID int64, tags string) error {
	resp, err := c.req(ctx, s).
		SetBody(orderPatch{Order: orderPatchBody{ID: orderID, Tags: &tags}}).
		Put(c.url(s, "orders/%d.json", orderID))
	return c.check(resp, err, "set tags")
}

// SetNote replaces the order's note
func (c *Client) SetNote(ctx context.Context, s Session, orderID int64, note string) error {
	resp, err := c.req(ctx, s).
		SetBody(orderPatch{Order: orderPatchBody{ID: orderID, Note: &note}}).
		Put(c.url(s, "orders/%d.json", orderID))
	return c.check(resp, err, "set note")
}

// GetFields lists the order's fields under this app's namespace
func (c *Client) GetFields(ctx context.Context, s Session, orderID int64) ([]Field, error) {
	var out fieldsEnvelope
	resp, err := c.req(ctx, s).
		SetQueryParam("namespace", Namespace).
		SetResult(&out).
		Get(c.url(s, "orders/%d/metafields.json", orderID))
	if err := c.check(resp, err, "get fields"); err != nil {
		return nil, err
	}
	return out.Fields, nil
}

// SetField upserts one namespaced field on the order
func (c *Client) SetField(ctx context.Context, s Session, orderID int64, key, value string) error {
	body := fieldEnvelope{Field: Field{
		Namespace: Namespace,
		Key:       key,
		Type:      fieldType,
		Value:     value,
	}}
	resp, err := c.req(ctx, s).
		SetBody(body).
		Post(c.url(s, "orders/%d/metafields.json", orderID))
	return c.check(resp, err, "set field")
}

// check folds transport and status failures into typed errors
func (c *Client) check(resp *resty.Response, err error, op string) error {
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return perr.Wrapf(err, perr.ErrorCodeTimeout, "storefront: %s timed out", op)
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return perr.Wrapf(err, perr.ErrorCodeTimeout, "storefront: %s timed out", op)
		}
		return perr.Wrapf(err, perr.ErrorCodeConnection, "storefront: %s unreachable", op)
	}
	switch code := resp.StatusCode(); {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized:
		return perr.Newf(perr.ErrorCodeUnauthorized, "storefront: %s rejected the access token", op)
	case code == http.StatusNotFound:
		return perr.Newf(perr.ErrorCodeNotFound, "storefront: %s target missing", op)
	case code == http.StatusTooManyRequests:
		return perr.Newf(perr.ErrorCodeRateLimited, "storefront: %s throttled", op)
	default:
		return perr.Newf(perr.ErrorCodeUpstream, "storefront: %s returned status %d", op, code)
	}
}
