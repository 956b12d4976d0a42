package socketio

import "go-cosense/internal/data"

// Commit is the data of a "commit" request.
type Commit struct {
	Kind      string        `json:"kind"`
	ParentID  string        `json:"parentId"`
	ProjectID string        `json:"projectId"`
	PageID    string        `json:"pageId"`
	UserID    string        `json:"userId"`
	Changes   []data.Change `json:"changes"`
	Cursor    *int          `json:"cursor"`
	Freeze    bool          `json:"freeze"`
}
