//go:build unit

package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-cosense/internal/data"
	"go-cosense/internal/devserver"
	"go-cosense/internal/logger"
	"go-cosense/internal/middleware"
)

func setupRouter(t *testing.T) (http.Handler, *devserver.Store) {
	t.Helper()
	user := data.User{ID: "5ef2bdebb60650001e1280f0", Name: "tester"}
	store := devserver.NewStore(user, "test")
	log := logger.Nop()
	auth := middleware.Authenticate("sid", &middleware.UserInfo{ID: user.ID, Name: user.Name})
	return NewRouter(NewPageHandler(store, nil, log), NewSocketHandler(store, log), auth, log), store
}

func get(router http.Handler, path string, sid string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "connect.sid", Value: sid})
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestPageHandler(t *testing.T) {
	router, store := setupRouter(t)

	t.Run("guest user", func(t *testing.T) {
		rr := get(router, "/api/users/me", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
		var body map[string]interface{}
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if body["isGuest"] != true {
			t.Errorf("expected a guest, got %v", body)
		}
	})

	t.Run("logged in user", func(t *testing.T) {
		rr := get(router, "/api/users/me", "sid")
		var user data.User
		if err := json.Unmarshal(rr.Body.Bytes(), &user); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if user.ID != store.User().ID {
			t.Errorf("expected user %s, got %+v", store.User().ID, user)
		}
	})

	t.Run("missing project", func(t *testing.T) {
		rr := get(router, "/api/projects/nope", "sid")
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rr.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if body["name"] != "NotFoundError" {
			t.Errorf("expected NotFoundError, got %v", body)
		}
	})

	t.Run("draft page", func(t *testing.T) {
		rr := get(router, "/api/pages/test/new_page", "sid")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
		var page data.Page
		if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if page.Title != "new page" || page.Persistent || page.Lines == nil {
			t.Errorf("unexpected draft %+v", page)
		}
	})

	t.Run("html views are off without a view", func(t *testing.T) {
		if rr := get(router, "/test/new_page", "sid"); rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})

	t.Run("socket rejects polling", func(t *testing.T) {
		rr := get(router, "/socket.io/?EIO=4&transport=polling", "sid")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})
}

func TestRenderPage(t *testing.T) {
	page := &data.Page{Lines: []data.Line{
		{ID: "1", Text: "title"},
		{ID: "2", Text: "see [other page] and #tag"},
	}}
	blocks := renderPage("test", page)
	var hrefs []string
	for _, b := range blocks {
		for _, s := range b.Segments {
			if s.Href != "" {
				hrefs = append(hrefs, s.Href)
			}
		}
	}
	want := map[string]bool{"/test/other_page": true, "/test/tag": true}
	for _, href := range hrefs {
		delete(want, href)
	}
	if len(want) != 0 {
		t.Errorf("missing hrefs %v in %v", want, hrefs)
	}
}
