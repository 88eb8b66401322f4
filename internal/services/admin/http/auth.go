package http

import (
	"crypto/hmac"
	stdhttp "net/http"
	"strings"

	perr "fraudshield/internal/platform/errors"
)

// BearerAuth gates the admin surface with a static API token.
// The caller also names the shop it is acting for in a header
type BearerAuth struct {
	Token string
}

// Parse implements middleware.AuthPort
func (a BearerAuth) Parse(r *stdhttp.Request) (string, error) {
	if a.Token == "" {
		return "", perr.New(perr.ErrorCodeNoCredential, "admin token not configured")
	}
	raw := r.Header.Get("Authorization")
	tok, ok := strings.CutPrefix(raw, "Bearer ")
	if !ok || !hmac.Equal([]byte(tok), []byte(a.Token)) {
		return "", perr.Unauthorizedf("invalid admin token")
	}
	shop := r.Header.Get("X-Shop-Domain")
	if shop == "" {
		return "", perr.Validationf("missing X-Shop-Domain header")
	}
	return shop, nil
}
