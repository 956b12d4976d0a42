package data

import (
	"context"
	"fmt"

	"go-cosense/internal/cache"
)

// RESTPageRepository reads pages, the current user and projects over the
// REST API. Resolved user and project ids are kept in an IDCache.
type RESTPageRepository struct {
	client *Client
	ids    *cache.IDCache
}

// NewRESTPageRepository creates a new RESTPageRepository. A nil ids cache
// gets an in-memory one.
func NewRESTPageRepository(client *Client, ids *cache.IDCache) *RESTPageRepository {
	if ids == nil {
		ids = cache.NewIDCache(nil, 0)
	}
	return &RESTPageRepository{client: client, ids: ids}
}

// GetPage retrieves a page with its lines.
func (r *RESTPageRepository) GetPage(ctx context.Context, project, title string) (*Page, error) {
	var page Page
	path := fmt.Sprintf("/api/pages/%s/%s", project, EncodeTitle(title))
	if err := r.client.getJSON(ctx, path, &page); err != nil {
		return nil, fmt.Errorf("failed to get page %s/%s: %w", project, title, err)
	}
	return &page, nil
}

// GetUserID returns the id of the logged-in user.
func (r *RESTPageRepository) GetUserID(ctx context.Context) (string, error) {
	if id := r.ids.UserID(); id != "" {
		return id, nil
	}
	var user User
	if err := r.client.getJSON(ctx, "/api/users/me", &user); err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if user.ID == "" {
		return "", &APIError{Status: 401, Name: "NotLoggedInError", Message: "not logged in"}
	}
	if err := r.ids.SetUserID(user.ID); err != nil {
		return "", err
	}
	return user.ID, nil
}

// GetProjectID returns the id of the named project.
func (r *RESTPageRepository) GetProjectID(ctx context.Context, project string) (string, error) {
	if id := r.ids.ProjectID(project); id != "" {
		return id, nil
	}
	var p Project
	if err := r.client.getJSON(ctx, "/api/projects/"+project, &p); err != nil {
		return "", fmt.Errorf("failed to get project %s: %w", project, err)
	}
	if err := r.ids.SetProjectID(project, p.ID); err != nil {
		return "", err
	}
	return p.ID, nil
}

// Pull reads the page and resolves the project and user ids in one go.
func (r *RESTPageRepository) Pull(ctx context.Context, project, title string) (*PageMetadata, error) {
	page, err := r.GetPage(ctx, project, title)
	if err != nil {
		return nil, err
	}
	projectID, err := r.GetProjectID(ctx, project)
	if err != nil {
		return nil, err
	}
	userID, err := r.GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	return &PageMetadata{Page: *page, ProjectID: projectID, UserID: userID}, nil
}
