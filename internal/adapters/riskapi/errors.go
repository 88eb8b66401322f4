package riskapi

import (
	"context"
	"errors"
	"net"
	"net/http"

	perr "fraudshield/internal/platform/errors"
)

// statusError maps a non-200 risk service status to a typed error,
// keeping the upstream-provided message when there is one. Every
// documented status gets its own code so callers can branch on it;
// anything undocumented lands in UnknownAPI
func statusError(status int, upstream string) error {
	var (
		code perr.ErrorCode
		msg  string
	)
	switch status {
	case http.StatusBadRequest:
		code, msg = perr.ErrorCodeBadRequest, "risk service rejected the request"
	case http.StatusUnauthorized:
		code, msg = perr.ErrorCodeUnauthorized, "risk service credential rejected"
	case http.StatusPaymentRequired:
		code, msg = perr.ErrorCodeNoSubscription, "risk service subscription inactive"
	case http.StatusForbidden:
		code, msg = perr.ErrorCodeForbidden, "risk service access denied"
	case http.StatusTooManyRequests:
		code, msg = perr.ErrorCodeRateLimited, "risk service daily limit reached"
	case http.StatusBadGateway:
		code, msg = perr.ErrorCodeUpstream, "risk service upstream failure"
	case http.StatusServiceUnavailable:
		code, msg = perr.ErrorCodeUnavailable, "risk service unavailable"
	default:
		return perr.Newf(perr.ErrorCodeUnknownAPI, "risk service returned unexpected status %d", status)
	}
	if upstream != "" {
		return perr.Newf(code, "%s: %s", msg, upstream)
	}
	return perr.New(code, msg)
}

// transportError classifies request-level failures into timeout vs connection
func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return perr.Wrap(err, perr.ErrorCodeTimeout, "risk service call timed out")
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return perr.Wrap(err, perr.ErrorCodeTimeout, "risk service call timed out")
	}
	return perr.Wrap(err, perr.ErrorCodeConnection, "risk service unreachable")
}
