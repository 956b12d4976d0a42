package data

// Line is a single line of a page. Its id never moves to another page.
type Line struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	UserID  string `json:"userId"`
	Created int64  `json:"created"`
	Updated int64  `json:"updated"`
}

// Page is a snapshot of a page as returned by the pages API.
type Page struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Image             *string  `json:"image"`
	Descriptions      []string `json:"descriptions"`
	Pin               int64    `json:"pin"`
	Views             int      `json:"views"`
	Linked            int      `json:"linked"`
	CommitID          string   `json:"commitId"`
	Created           int64    `json:"created"`
	Updated           int64    `json:"updated"`
	Persistent        bool     `json:"persistent"`
	Lines             []Line   `json:"lines"`
	Links             []string `json:"links"`
	ProjectLinks      []string `json:"projectLinks"`
	Icons             []string `json:"icons"`
	Files             []string `json:"files"`
	Helpfeels         []string `json:"helpfeels"`
	InfoboxDefinition []string `json:"infoboxDefinition"`
}

// Texts returns the text of every line.
func (p *Page) Texts() []string {
	texts := make([]string, len(p.Lines))
	for i, l := range p.Lines {
		texts[i] = l.Text
	}
	return texts
}

// PageMetadata is a pulled page together with the ids a commit needs.
type PageMetadata struct {
	Page
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId"`
}

// User is the subset of /api/users/me the client needs.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// Project is the subset of /api/projects/:project the client needs.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}
