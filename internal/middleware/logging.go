package middleware

import (
	"fmt"
	"net/http"
	"time"

	"go-cosense/internal/logger"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger logs one line per request through log.
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.With(map[string]interface{}{
				"request_id": chimiddleware.GetReqID(r.Context()),
				"status":     ww.Status(),
				"duration":   time.Since(start).String(),
			}).Info(fmt.Sprintf("%s %s", r.Method, r.URL.Path))
		})
	}
}
