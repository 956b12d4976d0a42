// Package devserver is the in-memory page store behind the local stand-in
// for a Cosense host.
package devserver

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"go-cosense/internal/data"
	"go-cosense/internal/metadata"
)

// CommitError is a rejected commit. Name is reported to the client.
type CommitError struct {
	Name    string
	Message string
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// CommitRequest is a decoded commit.
type CommitRequest struct {
	ParentID  string
	ProjectID string
	PageID    string
	UserID    string
	Changes   []data.Change
}

const (
	draftTTL  = time.Hour
	maxDrafts = 1000
)

type project struct {
	info  data.Project
	pages map[string]*data.Page
	// drafts maps the id of each non-persistent page to when it was reserved.
	drafts map[string]time.Time
}

// Store holds projects and their pages. Commits are applied atomically: a
// rejected commit leaves the page untouched.
type Store struct {
	mu        sync.RWMutex
	user      data.User
	projects  map[string]*project
	now       func() time.Time
	draftTTL  time.Duration
	maxDrafts int
}

// NewStore creates a store that knows user and the given project names.
func NewStore(user data.User, projects ...string) *Store {
	s := &Store{
		user:      user,
		projects:  make(map[string]*project),
		now:       time.Now,
		draftTTL:  draftTTL,
		maxDrafts: maxDrafts,
	}
	for _, name := range projects {
		s.projects[name] = &project{
			info:   data.Project{ID: s.NewID(), Name: name, DisplayName: name},
			pages:  make(map[string]*data.Page),
			drafts: make(map[string]time.Time),
		}
	}
	return s
}

// NewID returns a fresh 24 hex character id.
func (s *Store) NewID() string {
	return fmt.Sprintf("%08x%016x", s.now().Unix(), rand.Uint64())
}

// User returns the only user of the store.
func (s *Store) User() data.User {
	return s.user
}

// Project looks up a project by name.
func (s *Store) Project(name string) (data.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[name]
	if !ok {
		return data.Project{}, false
	}
	return p.info, true
}

func (p *project) find(title string) *data.Page {
	key := metadata.ToTitleLc(title)
	var draft *data.Page
	for _, page := range p.pages {
		if metadata.ToTitleLc(page.Title) != key {
			continue
		}
		if page.Persistent {
			return page
		}
		draft = page
	}
	return draft
}

// Page returns a copy of the page titled title. A missing page is reserved
// as a draft so that a commit can create it. Drafts expire after draftTTL and
// at most maxDrafts are kept per project.
func (s *Store) Page(projectName, title string) (*data.Page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectName]
	if !ok {
		return nil, false
	}
	now := s.now()
	s.evictDrafts(p, now)
	page := p.find(title)
	if page == nil {
		page = &data.Page{
			ID:       s.NewID(),
			Title:    title,
			CommitID: s.NewID(),
		}
		p.pages[page.ID] = page
		p.drafts[page.ID] = now
		s.capDrafts(p)
	}
	return clonePage(page), true
}

func (p *project) remove(id string) {
	delete(p.pages, id)
	delete(p.drafts, id)
}

func (s *Store) evictDrafts(p *project, now time.Time) {
	for id, reserved := range p.drafts {
		if now.Sub(reserved) >= s.draftTTL {
			p.remove(id)
		}
	}
}

func (s *Store) capDrafts(p *project) {
	for len(p.drafts) > s.maxDrafts {
		oldest := ""
		for id, reserved := range p.drafts {
			if oldest == "" || reserved.Before(p.drafts[oldest]) {
				oldest = id
			}
		}
		p.remove(oldest)
	}
}

// Titles lists the persistent pages of a project, pinned first.
func (s *Store) Titles(projectName string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[projectName]
	if !ok {
		return nil
	}
	var pages []*data.Page
	for _, page := range p.pages {
		if page.Persistent {
			pages = append(pages, page)
		}
	}
	slices.SortFunc(pages, func(a, b *data.Page) int {
		if a.Pin != b.Pin {
			if a.Pin > b.Pin {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Title, b.Title)
	})
	titles := make([]string, len(pages))
	for i, page := range pages {
		titles[i] = page.Title
	}
	return titles
}

func clonePage(p *data.Page) *data.Page {
	c := *p
	c.Lines = slices.Clone(p.Lines)
	return &c
}

// Commit applies a changeset to the head of a page and returns the new
// commit id.
func (s *Store) Commit(req CommitRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p *project
	for _, candidate := range s.projects {
		if candidate.info.ID == req.ProjectID {
			p = candidate
			break
		}
	}
	if p == nil {
		return "", &CommitError{Name: "NotFoundError", Message: "project not found"}
	}
	if req.UserID != s.user.ID {
		return "", &CommitError{Name: "NotMemberError", Message: "user is not a member of the project"}
	}
	page, ok := p.pages[req.PageID]
	if !ok {
		return "", &CommitError{Name: "NotFoundError", Message: "page not found"}
	}
	if req.ParentID != page.CommitID {
		return "", &CommitError{Name: "NotFastForwardError", Message: "parentId is not the head of the page"}
	}

	next := clonePage(page)
	now := s.now().Unix()
	deleted := false
	for i, change := range req.Changes {
		if err := s.apply(next, change, now); err != nil {
			return "", &CommitError{Name: "InvalidChangesError", Message: fmt.Sprintf("change %d: %v", i, err)}
		}
		if _, ok := change.(data.DeletePageChange); ok {
			deleted = true
		}
	}

	commitID := s.NewID()
	if deleted {
		p.remove(page.ID)
		return commitID, nil
	}

	if next.Title != page.Title || !page.Persistent {
		if other := p.find(next.Title); other != nil && other.ID != page.ID && other.Persistent {
			return "", &CommitError{Name: "DuplicateTitleError", Message: fmt.Sprintf("%q already exists", next.Title)}
		}
	}
	// Drafts sharing the new title would shadow the committed page.
	for id, other := range p.pages {
		if id != page.ID && !other.Persistent && metadata.ToTitleLc(other.Title) == metadata.ToTitleLc(next.Title) {
			p.remove(id)
		}
	}

	next.Persistent = len(next.Lines) > 0
	if next.Persistent {
		delete(p.drafts, page.ID)
	} else {
		p.drafts[page.ID] = s.now()
	}
	next.CommitID = commitID
	next.Updated = now
	if next.Created == 0 {
		next.Created = now
	}
	p.pages[page.ID] = next
	return commitID, nil
}

func (s *Store) apply(page *data.Page, change data.Change, now int64) error {
	indexOf := func(id string) (int, error) {
		i := slices.IndexFunc(page.Lines, func(l data.Line) bool { return l.ID == id })
		if i < 0 {
			return 0, fmt.Errorf("line %s not found", id)
		}
		return i, nil
	}

	switch c := change.(type) {
	case data.InsertChange:
		at := len(page.Lines)
		if c.Insert != data.EndOfPage {
			i, err := indexOf(c.Insert)
			if err != nil {
				return err
			}
			at = i
		}
		if slices.ContainsFunc(page.Lines, func(l data.Line) bool { return l.ID == c.Lines.ID }) {
			return fmt.Errorf("line %s already exists", c.Lines.ID)
		}
		page.Lines = slices.Insert(page.Lines, at, data.Line{
			ID: c.Lines.ID, Text: c.Lines.Text, UserID: s.user.ID, Created: now, Updated: now,
		})
	case data.UpdateChange:
		i, err := indexOf(c.Update)
		if err != nil {
			return err
		}
		page.Lines[i].Text = c.Lines.Text
		page.Lines[i].Updated = now
	case data.DeleteChange:
		i, err := indexOf(c.Delete)
		if err != nil {
			return err
		}
		page.Lines = slices.Delete(page.Lines, i, i+1)
	case data.TitleChange:
		page.Title = c.Title
	case data.DescriptionsChange:
		page.Descriptions = c.Descriptions
	case data.LinksChange:
		page.Links = c.Links
	case data.ProjectLinksChange:
		page.ProjectLinks = c.ProjectLinks
	case data.IconsChange:
		page.Icons = c.Icons
	case data.ImageChange:
		page.Image = c.Image
	case data.FilesChange:
		page.Files = c.Files
	case data.HelpfeelsChange:
		page.Helpfeels = c.Helpfeels
	case data.InfoboxDefinitionChange:
		page.InfoboxDefinition = c.InfoboxDefinition
	case data.PinChange:
		page.Pin = c.Pin
	case data.DeletePageChange:
	default:
		return fmt.Errorf("unsupported change %T", change)
	}
	return nil
}
