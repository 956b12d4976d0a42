package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go-cosense/internal/data"
	"go-cosense/internal/devserver"
	"go-cosense/internal/logger"
	"go-cosense/internal/middleware"
	"go-cosense/internal/view"

	"github.com/go-chi/chi/v5"
)

// PageHandler holds the dependencies for the page handlers.
type PageHandler struct {
	store *devserver.Store
	view  *view.View
	log   logger.Logger
}

// NewPageHandler creates a new PageHandler. A nil view disables the HTML
// pages.
func NewPageHandler(store *devserver.Store, v *view.View, log logger.Logger) *PageHandler {
	return &PageHandler{
		store: store,
		view:  v,
		log:   log,
	}
}

func titleParam(r *http.Request) string {
	raw := chi.URLParam(r, "title")
	title, err := url.PathUnescape(raw)
	if err != nil {
		title = raw
	}
	return strings.ReplaceAll(title, "_", " ")
}

func notFound(message string) *middleware.AppError {
	return &middleware.AppError{Error: errors.New(message), Name: "NotFoundError", Message: message, Code: http.StatusNotFound}
}

func internalError(err error, message string) *middleware.AppError {
	return &middleware.AppError{Error: err, Message: message, Code: http.StatusInternalServerError}
}

func writeJSON(w http.ResponseWriter, v interface{}, what string) *middleware.AppError {
	if err := middleware.WriteJSON(w, http.StatusOK, v); err != nil {
		return internalError(err, "Failed to write "+what)
	}
	return nil
}

// userHandler answers guests with {"isGuest": true} like the real service.
func (h *PageHandler) userHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if middleware.GetUserInfo(r.Context()) == nil {
		return writeJSON(w, map[string]bool{"isGuest": true}, "user")
	}
	return writeJSON(w, h.store.User(), "user")
}

func (h *PageHandler) projectHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	project, ok := h.store.Project(chi.URLParam(r, "project"))
	if !ok {
		return notFound("Project not found.")
	}
	return writeJSON(w, project, "project")
}

func (h *PageHandler) listHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	project := chi.URLParam(r, "project")
	if _, ok := h.store.Project(project); !ok {
		return notFound("Project not found.")
	}
	titles := h.store.Titles(project)
	pages := make([]map[string]string, len(titles))
	for i, title := range titles {
		pages[i] = map[string]string{"title": title}
	}
	return writeJSON(w, map[string]interface{}{"projectName": project, "count": len(pages), "pages": pages}, "page list")
}

func (h *PageHandler) pageHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	page, ok := h.store.Page(chi.URLParam(r, "project"), titleParam(r))
	if !ok {
		return notFound("Project not found.")
	}
	if page.Lines == nil {
		page.Lines = []data.Line{}
	}
	return writeJSON(w, page, "page")
}

func (h *PageHandler) listView(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	project := chi.URLParam(r, "project")
	if _, ok := h.store.Project(project); !ok {
		return notFound("Project not found.")
	}
	err := h.view.Render(w, "list.html", map[string]interface{}{
		"Project": project,
		"Titles":  h.store.Titles(project),
	})
	if err != nil {
		return internalError(err, "Failed to render list")
	}
	return nil
}

func (h *PageHandler) pageView(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	project := chi.URLParam(r, "project")
	page, ok := h.store.Page(project, titleParam(r))
	if !ok {
		return notFound("Project not found.")
	}
	err := h.view.Render(w, "page.html", map[string]interface{}{
		"Project": project,
		"Page":    page,
		"Blocks":  renderPage(project, page),
	})
	if err != nil {
		return internalError(err, "Failed to render page")
	}
	return nil
}
