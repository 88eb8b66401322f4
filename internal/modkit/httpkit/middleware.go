package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	phttp "fraudshield/internal/platform/net/http"
	"fraudshield/internal/platform/net/middleware"
)

// CommonStack returns a baseline per module middleware slice
// compose with your auth middleware as needed in main
func CommonStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		// tracing / correlation
		middleware.RequestID(),
		middleware.RealIP(),

		// safety
		middleware.RecoverJSON,

		// cache / freshness
		middleware.NoCache(),

		// observability
		middleware.AccessLog,

		// cross-origin (tweak config in main if needed)
		middleware.CORS(middleware.CORSOptions{}),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.StripSlashes(),
		middleware.Timeout(30 * time.Second),
	}
}

// Auth wires the auth middleware to the platform JSON writer
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.Auth(p, phttp.JSON)
}
