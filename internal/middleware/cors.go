package middleware

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// CORS creates a CORS middleware allowing the given origins and
// request headers. A non-empty, non-matching Origin is logged at
// debug level and left without an Access-Control-Allow-Origin header,
// so the browser enforces the rejection.
func CORS(allowedOrigins, allowedHeaders []string, logger *logrus.Logger) func(http.Handler) http.Handler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origins[origin] = true
	}
	headers := strings.Join(allowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			switch {
			case origin == "":
			case origins["*"] || origins[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
			default:
				logger.WithField("origin", origin).Debug("middleware: rejected cross-origin request")
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", headers)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Max-Age", "3600")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
