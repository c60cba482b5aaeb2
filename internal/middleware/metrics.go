package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/content-studio/internal/metrics"
)

// unmatchedRoute labels requests no route matched, so random 404 paths
// cannot blow up the label cardinality.
const unmatchedRoute = "unmatched"

// Metrics records request count, duration and in-flight gauge per route.
//
// The route label is chi's route pattern ("/api/content/{id}"), not the raw
// path, so every record ID lands in the same series. The pattern is only
// complete after routing, which is why it is read after next.ServeHTTP.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			wrapped := wrap(w)
			next.ServeHTTP(wrapped, r)

			route := unmatchedRoute
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			m.ObserveRequest(r.Method, route, wrapped.statusCode, time.Since(start))
		})
	}
}
