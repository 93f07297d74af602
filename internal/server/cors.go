package server

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
)

const corsMaxAge = 600

// corsOptions allows credentialed requests from origins with any method and
// header. "*" echoes the request origin since browsers reject a literal "*"
// alongside credentials. No origins disables cross-origin access.
func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodDelete,
			http.MethodGet,
			http.MethodHead,
			http.MethodOptions,
			http.MethodPatch,
			http.MethodPost,
			http.MethodPut,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
	}

	switch {
	case slices.Contains(origins, "*"):
		opts.AllowOriginFunc = func(_ *http.Request, origin string) bool {
			return origin != ""
		}
	case len(origins) == 0:
		opts.AllowOriginFunc = func(*http.Request, string) bool {
			return false
		}
	default:
		opts.AllowedOrigins = origins
	}

	return opts
}
