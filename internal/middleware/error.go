package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go-cosense/internal/logger"
)

// AppError represents a custom error type for the application. Name is the
// error name clients match on, e.g. "NotFoundError".
type AppError struct {
	Error   error
	Name    string
	Message string
	Code    int
}

// AppHandler is a custom handler function type that returns an AppError.
type AppHandler func(http.ResponseWriter, *http.Request) *AppError

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, code int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, name, message string) {
	_ = WriteJSON(w, code, map[string]string{"name": name, "message": message})
}

// Error is a middleware that converts handler errors into JSON error bodies
// of the form {"name": ..., "message": ...}.
func Error(log logger.Logger) func(AppHandler) http.Handler {
	return func(next AppHandler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err, ok := rec.(error)
					if !ok {
						err = fmt.Errorf("%v", rec)
					}
					log.Error(err, "Panic recovered")
					writeError(w, http.StatusInternalServerError, "InternalServerError", "Internal Server Error")
				}
			}()

			appErr := next(w, r)
			if appErr == nil {
				return
			}
			if appErr.Code >= http.StatusInternalServerError {
				log.Error(appErr.Error, appErr.Message)
			} else {
				log.Debug(fmt.Sprintf("%s %s: %s", r.Method, r.URL.Path, appErr.Message))
			}
			name := appErr.Name
			if name == "" {
				name = http.StatusText(appErr.Code)
			}
			writeError(w, appErr.Code, name, appErr.Message)
		})
	}
}
