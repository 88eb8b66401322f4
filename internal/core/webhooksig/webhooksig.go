// Package webhooksig verifies storefront webhook HMAC signatures.
//
// The platform signs the raw request body with HMAC-SHA256 keyed by the
// app's shared secret and sends the base64 digest in a header. Verify
// recomputes the digest over the exact bytes received and compares in
// constant time. Any failure is treated the same by callers: reject
// before touching the payload.
package webhooksig

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	perr "fraudshield/internal/platform/errors"
)

// Header carries the base64 HMAC-SHA256 digest of the raw body
const Header = "X-Fsbd-Hmac-Sha256"

// Verify checks sig against the HMAC-SHA256 of body under secret
func Verify(body []byte, sig, secret string) error {
	if secret == "" {
		return perr.New(perr.ErrorCodeNoCredential, "webhook secret not configured")
	}
	if sig == "" {
		return perr.New(perr.ErrorCodeUnauthorized, "missing webhook signature")
	}
	if len(body) == 0 {
		return perr.New(perr.ErrorCodeUnauthorized, "empty webhook body")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(want), []byte(sig)) {
		return perr.New(perr.ErrorCodeUnauthorized, "webhook signature mismatch")
	}
	return nil
}

// Sign computes the base64 HMAC-SHA256 digest for body; used by tests
// and the local webhook replay tool
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
