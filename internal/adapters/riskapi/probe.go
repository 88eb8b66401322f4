package riskapi

import (
	"context"
	"io"
	"net/http"
	"strings"

	perr "fraudshield/internal/platform/errors"
)

// TestConnection verifies the credential and reachability without
// spending daily quota. It POSTs an empty payload: the service checks
// auth before validation, so a 400 proves the credential is good
func (c *Client) TestConnection(ctx context.Context) error {
	if c.opts.Token == "" {
		return perr.NoCredentialf("risk service token not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+checkPath, strings.NewReader("{}"))
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "riskapi: new probe request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	if c.opts.Source != "" {
		req.Header.Set("X-Request-Source", c.opts.Source)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusBadRequest:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil
	default:
		return statusError(resp.StatusCode, upstreamMessage(resp.Body))
	}
}
