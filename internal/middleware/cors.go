// internal/middleware/cors.go
//
// CORS for the browser frontend.
//
// The catalog UI is a single-page app served from a different origin, so
// every endpoint answers cross-origin requests—but only for origins on
// the configured allow-list.  Unlisted origins receive no CORS headers
// at all, which the browser treats as a refusal.  Credentials are
// allowed because the admin session rides a cookie.
//
// Preflight OPTIONS requests are answered here with 204 and never reach
// the routed handlers.

package middleware

import "net/http"

// CORS returns a middleware enforcing the explicit origin allow-list.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if _, ok := allowed[origin]; ok {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type")
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
