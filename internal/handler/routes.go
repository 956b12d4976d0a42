package handler

import (
	"net/http"

	"go-cosense/internal/logger"
	"go-cosense/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and configures a new chi router serving the REST API,
// the socket.io endpoint and, when the page handler has a view, HTML pages.
func NewRouter(pageHandler *PageHandler, socketHandler *SocketHandler, authMiddleware func(http.Handler) http.Handler, log logger.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(authMiddleware)

	errorMiddleware := middleware.Error(log)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/users/me", errorMiddleware(pageHandler.userHandler))
		r.Method(http.MethodGet, "/projects/{project}", errorMiddleware(pageHandler.projectHandler))
		r.Method(http.MethodGet, "/pages/{project}", errorMiddleware(pageHandler.listHandler))
		r.Method(http.MethodGet, "/pages/{project}/{title}", errorMiddleware(pageHandler.pageHandler))
	})
	r.Method(http.MethodGet, "/socket.io/", errorMiddleware(socketHandler.serveSocket))

	if pageHandler.view != nil {
		r.Method(http.MethodGet, "/{project}", errorMiddleware(pageHandler.listView))
		r.Method(http.MethodGet, "/{project}/{title}", errorMiddleware(pageHandler.pageView))
	}
	return r
}
