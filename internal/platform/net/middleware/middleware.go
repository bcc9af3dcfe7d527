// Package middleware holds the http middleware the ops server mounts
package middleware

import (
	"net/http"
	"time"

	pstrings "gscsync/internal/platform/strings"

	chicors "github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// CORSOptions is a narrow surface over go-chi/cors
type CORSOptions struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// CORS wraps go-chi/cors; probes are read only so methods default to GET and HEAD.
// No origins means no CORS headers at all.
func CORS(o CORSOptions) func(http.Handler) http.Handler {
	if len(o.AllowedOrigins) == 0 {
		return passthrough
	}
	return chicors.Handler(chicors.Options{
		AllowedOrigins: o.AllowedOrigins,
		AllowedMethods: pstrings.IfEmpty(o.AllowedMethods, []string{http.MethodGet, http.MethodHead, http.MethodOptions}),
		AllowedHeaders: pstrings.IfEmpty(o.AllowedHeaders, []string{"Accept", "Content-Type"}),
		MaxAge:         o.MaxAge,
	})
}

// RateLimitByIP allows requests per window for each client ip; requests <= 0 disables it
func RateLimitByIP(requests int, window time.Duration) func(http.Handler) http.Handler {
	if requests <= 0 {
		return passthrough
	}
	if window <= 0 {
		window = time.Minute
	}
	return httprate.Limit(requests, window, httprate.WithKeyFuncs(httprate.KeyByIP))
}

func passthrough(next http.Handler) http.Handler { return next }
