package middleware

import (
	"net/http"
	"slices"
)

var preflightBody = []byte(`{"status":"OK"}` + "\n")

// CORS sets cross-origin headers and answers OPTIONS/HEAD with a neutral OK
// before routing, so preflight traffic never reaches a handler.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	wildcard := slices.Contains(allowedOrigins, "*")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case wildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && slices.Contains(allowedOrigins, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions || r.Method == http.MethodHead {
				h := w.Header()
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, HEAD")
				h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
				h.Set("Access-Control-Max-Age", "600")
				h.Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				if r.Method == http.MethodOptions {
					_, _ = w.Write(preflightBody)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
