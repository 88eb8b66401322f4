package middleware

import (
	"net/http"

	pnet "fraudshield/internal/platform/net"
)

// AuthPort is a tiny seam an auth implementation satisfies
type AuthPort interface {
	// Parse returns the caller's shop domain from the request or an error
	Parse(r *http.Request) (shop string, err error)
}

// Auth is a no-op until wired. It uses the port when provided
func Auth(p AuthPort, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			shop, err := p.Parse(r)
			if err != nil {
				status, body := pnet.Error(err, pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			next.ServeHTTP(w, r.WithContext(pnet.WithShop(r.Context(), shop)))
		})
	}
}
