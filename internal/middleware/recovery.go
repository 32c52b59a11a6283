package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// Recovery creates a panic recovery middleware.
func Recovery(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.WithFields(logrus.Fields{
						"panic": err,
						"stack": string(debug.Stack()),
					}).Error("http: recovered panic")

					w.WriteHeader(http.StatusInternalServerError)
					fmt.Fprint(w, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
