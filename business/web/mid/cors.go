package mid

import (
	"context"
	"net/http"
	"slices"

	"github.com/taikoxyz/taiko-mono/foundation/web"
)

// Cors allows cross origin reads of the query API from the listed origins.
// A "*" entry allows every origin. Preflight requests are answered here and
// never reach the handler.
func Cors(origins ...string) web.Middleware {
	anyOrigin := slices.Contains(origins, "*")

	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			origin := r.Header.Get("Origin")

			switch {
			case anyOrigin:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case AllowedOrigin(origins, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}

			if r.Method != http.MethodOptions {
				return handler(ctx, w, r)
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")
			w.Header().Set("Access-Control-Max-Age", "86400")

			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		return h
	}

	return m
}

// AllowedOrigin reports whether the origin is listed or a "*" entry allows
// every origin.
func AllowedOrigin(origins []string, origin string) bool {
	if slices.Contains(origins, "*") {
		return true
	}
	return origin != "" && slices.Contains(origins, origin)
}
