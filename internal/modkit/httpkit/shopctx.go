package httpkit

import (
	"net/http"

	perr "fraudshield/internal/platform/errors"
	pnet "fraudshield/internal/platform/net"
)

// ShopDomain returns the authenticated shop domain stashed on the request context
func ShopDomain(r *http.Request) string {
	return pnet.ShopDomain(r.Context())
}

// RequireShop returns the shop domain or an unauthorized error when absent
func RequireShop(r *http.Request) (string, error) {
	shop := pnet.ShopDomain(r.Context())
	if shop == "" {
		return "", perr.New(perr.ErrorCodeUnauthorized, "missing shop identity")
	}
	return shop, nil
}
