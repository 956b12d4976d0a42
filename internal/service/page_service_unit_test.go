//go:build unit

package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go-cosense/internal/data"
	"go-cosense/internal/socketio"
)

// mockPuller returns a copy of page on every pull.
type mockPuller struct {
	page        data.PageMetadata
	errToReturn error
	pullCalled  int
}

var _ Puller = (*mockPuller)(nil)

func (m *mockPuller) Pull(ctx context.Context, project, title string) (*data.PageMetadata, error) {
	m.pullCalled++
	if m.errToReturn != nil {
		return nil, m.errToReturn
	}
	page := m.page
	return &page, nil
}

// seqPuller returns pages in order and repeats the last one.
type seqPuller struct {
	pages      []data.PageMetadata
	pullCalled int
}

var _ Puller = (*seqPuller)(nil)

func (m *seqPuller) Pull(ctx context.Context, project, title string) (*data.PageMetadata, error) {
	i := min(m.pullCalled, len(m.pages)-1)
	m.pullCalled++
	page := m.pages[i]
	return &page, nil
}

// mockCommitter answers joins with joinErrs and commits with errs in order,
// then succeeds.
type mockCommitter struct {
	joinErrs     []error
	errs         []error
	commitCalled int
	joinCalled   int
	lastCommit   socketio.Commit
	commits      []socketio.Commit
}

var _ Committer = (*mockCommitter)(nil)

func (m *mockCommitter) JoinRoom(ctx context.Context, projectID, pageID string) error {
	m.joinCalled++
	if len(m.joinErrs) > 0 {
		err := m.joinErrs[0]
		m.joinErrs = m.joinErrs[1:]
		return err
	}
	return nil
}

func (m *mockCommitter) Commit(ctx context.Context, commit socketio.Commit) (string, error) {
	m.commitCalled++
	m.lastCommit = commit
	m.commits = append(m.commits, commit)
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return "", err
	}
	return "commit-" + string(rune('0'+m.commitCalled)), nil
}

// recordSleep records backoffs instead of waiting.
type recordSleep struct {
	delays []time.Duration
}

func (r *recordSleep) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func newPage() data.PageMetadata {
	return data.PageMetadata{
		Page: data.Page{
			ID:         "page1",
			Title:      "test",
			CommitID:   "commit-0",
			Persistent: true,
			Lines: []data.Line{
				{ID: "line1", Text: "test"},
				{ID: "line2", Text: "body"},
			},
		},
		ProjectID: "project1",
		UserID:    "5ef2bdebb60650001e1280f0",
	}
}

func sioErr(name string) error {
	return &socketio.Error{Name: name, Message: "test"}
}

func appendLine(text string) UpdateFunc {
	return func(ctx context.Context, lines []data.Line, page *data.PageMetadata) (*Edit, error) {
		texts := make([]string, 0, len(lines)+1)
		for _, l := range lines {
			texts = append(texts, l.Text)
		}
		return &Edit{Lines: append(texts, text)}, nil
	}
}

func TestPageService_Push(t *testing.T) {
	t.Run("NotFastForward pulls again", func(t *testing.T) {
		puller := &mockPuller{page: newPage()}
		committer := &mockCommitter{errs: []error{sioErr(NotFastForwardError)}}
		rec := &recordSleep{}
		s := NewPageService(puller, committer, nil, "")

		var reasons []string
		commitID, err := s.Push(context.Background(), "project", "test",
			func(ctx context.Context, page *data.PageMetadata, attempt int, prev []data.Change, reason string) ([]data.Change, error) {
				reasons = append(reasons, reason)
				if attempt == 2 && len(prev) != 1 {
					t.Errorf("expected the previous changeset on the second attempt, got %v", prev)
				}
				return []data.Change{data.PinChange{Pin: 1}}, nil
			},
			PushOptions{MaxAttempts: 3, Sleep: rec.sleep})

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if puller.pullCalled != 2 {
			t.Errorf("expected exactly 2 pulls, got %d", puller.pullCalled)
		}
		if commitID != "commit-2" {
			t.Errorf("expected the id of the second submission, got %s", commitID)
		}
		if len(reasons) != 2 || reasons[0] != "" || reasons[1] != NotFastForwardError {
			t.Errorf("unexpected reasons %q", reasons)
		}
		if len(rec.delays) != 1 || rec.delays[0] != conflictBackoff {
			t.Errorf("unexpected backoffs %v", rec.delays)
		}
		if committer.joinCalled != 1 {
			t.Errorf("expected a single room join, got %d", committer.joinCalled)
		}
	})

	t.Run("timeout resubmits the same changeset", func(t *testing.T) {
		puller := &mockPuller{page: newPage()}
		committer := &mockCommitter{errs: []error{sioErr(TimeoutError), sioErr(SocketIOError)}}
		rec := &recordSleep{}
		s := NewPageService(puller, committer, nil, "")

		builds := 0
		_, err := s.Push(context.Background(), "project", "test",
			func(ctx context.Context, page *data.PageMetadata, attempt int, prev []data.Change, reason string) ([]data.Change, error) {
				builds++
				return []data.Change{data.PinChange{Pin: 1}}, nil
			},
			PushOptions{Sleep: rec.sleep})

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if builds != 1 || puller.pullCalled != 1 {
			t.Errorf("expected one build and one pull, got %d and %d", builds, puller.pullCalled)
		}
		if committer.commitCalled != 3 {
			t.Errorf("expected 3 submissions, got %d", committer.commitCalled)
		}
		if len(rec.delays) != 2 || rec.delays[0] != transportBackoff {
			t.Errorf("unexpected backoffs %v", rec.delays)
		}
	})

	t.Run("fatal error stops", func(t *testing.T) {
		committer := &mockCommitter{errs: []error{sioErr(UnexpectedRequestError)}}
		s := NewPageService(&mockPuller{page: newPage()}, committer, nil, "")

		_, err := s.Push(context.Background(), "project", "test",
			func(ctx context.Context, page *data.PageMetadata, attempt int, prev []data.Change, reason string) ([]data.Change, error) {
				return []data.Change{data.PinChange{Pin: 1}}, nil
			},
			PushOptions{MaxAttempts: 5, Sleep: (&recordSleep{}).sleep})

		var pushErr *PushError
		if !errors.As(err, &pushErr) || pushErr.Name != UnexpectedRequestError {
			t.Fatalf("expected an UnexpectedRequestError, got %v", err)
		}
		if committer.commitCalled != 1 {
			t.Errorf("expected a single submission, got %d", committer.commitCalled)
		}
	})

	t.Run("unknown errors are unexpected", func(t *testing.T) {
		committer := &mockCommitter{errs: []error{errors.New("boom")}}
		s := NewPageService(&mockPuller{page: newPage()}, committer, nil, "")

		_, err := s.Push(context.Background(), "project", "test",
			func(ctx context.Context, page *data.PageMetadata, attempt int, prev []data.Change, reason string) ([]data.Change, error) {
				return []data.Change{data.PinChange{Pin: 1}}, nil
			},
			PushOptions{})

		var pushErr *PushError
		if !errors.As(err, &pushErr) || pushErr.Name != UnexpectedError {
			t.Errorf("expected an UnexpectedError, got %v", err)
		}
	})

	t.Run("attempts run out", func(t *testing.T) {
		committer := &mockCommitter{errs: []error{sioErr(NotFastForwardError), sioErr(NotFastForwardError), sioErr(NotFastForwardError)}}
		puller := &mockPuller{page: newPage()}
		s := NewPageService(puller, committer, nil, "")

		_, err := s.Push(context.Background(), "project", "test",
			func(ctx context.Context, page *data.PageMetadata, attempt int, prev []data.Change, reason string) ([]data.Change, error) {
				return []data.Change{data.PinChange{Pin: 1}}, nil
			},
			PushOptions{MaxAttempts: 3, Sleep: (&recordSleep{}).sleep})

		var retryErr *RetryError
		if !errors.As(err, &retryErr) || retryErr.Attempts != 3 {
			t.Fatalf("expected a RetryError after 3 attempts, got %v", err)
		}
		if committer.commitCalled != 3 {
			t.Errorf("expected 3 submissions, got %d", committer.commitCalled)
		}
	})

	t.Run("empty changeset succeeds without submitting", func(t *testing.T) {
		committer := &mockCommitter{}
		s := NewPageService(&mockPuller{page: newPage()}, committer, nil, "")

		commitID, err := s.Push(context.Background(), "project", "test",
			func(ctx context.Context, page *data.PageMetadata, attempt int, prev []data.Change, reason string) ([]data.Change, error) {
				return nil, nil
			},
			PushOptions{})

		if err != nil || commitID != "commit-0" {
			t.Errorf("expected the current commit id, got %q, %v", commitID, err)
		}
		if committer.commitCalled != 0 || committer.joinCalled != 0 {
			t.Errorf("expected no socket traffic, got %d commits and %d joins", committer.commitCalled, committer.joinCalled)
		}
	})

	t.Run("pull failure", func(t *testing.T) {
		puller := &mockPuller{errToReturn: &data.APIError{Status: 404, Name: "NotFoundError"}}
		s := NewPageService(puller, &mockCommitter{}, nil, "")

		_, err := s.Push(context.Background(), "project", "test",
			func(ctx context.Context, page *data.PageMetadata, attempt int, prev []data.Change, reason string) ([]data.Change, error) {
				t.Error("builder must not run without a snapshot")
				return nil, nil
			},
			PushOptions{})

		var apiErr *data.APIError
		if !errors.As(err, &apiErr) || apiErr.Status != 404 {
			t.Errorf("expected the API error, got %v", err)
		}
	})
}

func TestPageService_Patch(t *testing.T) {
	t.Run("appends a line", func(t *testing.T) {
		committer := &mockCommitter{}
		s := NewPageService(&mockPuller{page: newPage()}, committer, nil, "")

		if _, err := s.Patch(context.Background(), "project", "test", appendLine("new"), PushOptions{}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		changes := committer.lastCommit.Changes
		if len(changes) == 0 {
			t.Fatal("expected changes")
		}
		ins, ok := changes[0].(data.InsertChange)
		if !ok || ins.Insert != data.EndOfPage || ins.Lines.Text != "new" {
			t.Errorf("unexpected first change %#v", changes[0])
		}
		if c := committer.lastCommit; c.ParentID != "commit-0" || c.PageID != "page1" || c.ProjectID != "project1" {
			t.Errorf("unexpected commit header %+v", c)
		}
	})

	t.Run("duplicate title renames the previous changeset", func(t *testing.T) {
		page := newPage()
		page.Persistent = false
		page.Lines = nil
		committer := &mockCommitter{errs: []error{sioErr(DuplicateTitleError)}}
		s := NewPageService(&mockPuller{page: page}, committer, nil, "")

		updates := 0
		_, err := s.Patch(context.Background(), "project", "test",
			func(ctx context.Context, lines []data.Line, page *data.PageMetadata) (*Edit, error) {
				updates++
				return &Edit{Lines: []string{"test", "body"}}, nil
			},
			PushOptions{Sleep: (&recordSleep{}).sleep})

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if updates != 1 {
			t.Errorf("expected update to run once, got %d", updates)
		}
		first, second := committer.commits[0].Changes, committer.commits[1].Changes
		if len(first) != len(second) {
			t.Fatalf("expected the same changeset size, got %d and %d", len(first), len(second))
		}
		for i := range first {
			if title, ok := second[i].(data.TitleChange); ok {
				if title.Title != "test_2" {
					t.Errorf("expected the title to become test_2, got %s", title.Title)
				}
				continue
			}
			if !reflect.DeepEqual(first[i], second[i]) {
				t.Errorf("change %d differs: %#v vs %#v", i, first[i], second[i])
			}
		}
	})

	t.Run("nil edit aborts", func(t *testing.T) {
		committer := &mockCommitter{}
		s := NewPageService(&mockPuller{page: newPage()}, committer, nil, "")

		commitID, err := s.Patch(context.Background(), "project", "test",
			func(ctx context.Context, lines []data.Line, page *data.PageMetadata) (*Edit, error) {
				return nil, nil
			},
			PushOptions{})

		if err != nil || commitID != "commit-0" || committer.commitCalled != 0 {
			t.Errorf("expected a no-op, got %q, %v, %d commits", commitID, err, committer.commitCalled)
		}
	})

	t.Run("empty lines delete the page", func(t *testing.T) {
		committer := &mockCommitter{}
		s := NewPageService(&mockPuller{page: newPage()}, committer, nil, "")

		_, err := s.Patch(context.Background(), "project", "test",
			func(ctx context.Context, lines []data.Line, page *data.PageMetadata) (*Edit, error) {
				return &Edit{}, nil
			},
			PushOptions{})

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if changes := committer.lastCommit.Changes; len(changes) != 1 || changes[0] != (data.DeletePageChange{}) {
			t.Errorf("expected a page deletion, got %#v", changes)
		}
	})

	t.Run("update error is returned", func(t *testing.T) {
		s := NewPageService(&mockPuller{page: newPage()}, &mockCommitter{}, nil, "")
		boom := errors.New("boom")

		_, err := s.Patch(context.Background(), "project", "test",
			func(ctx context.Context, lines []data.Line, page *data.PageMetadata) (*Edit, error) {
				return nil, boom
			},
			PushOptions{})

		if !errors.Is(err, boom) {
			t.Errorf("expected the update error, got %v", err)
		}
	})
}

func TestPageService_PinAndDelete(t *testing.T) {
	t.Run("pin", func(t *testing.T) {
		committer := &mockCommitter{}
		s := NewPageService(&mockPuller{page: newPage()}, committer, nil, "")

		if _, err := s.Pin(context.Background(), "project", "test", PinOptions{}, PushOptions{}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		changes := committer.lastCommit.Changes
		if len(changes) != 1 {
			t.Fatalf("expected a single change, got %#v", changes)
		}
		if pin, ok := changes[0].(data.PinChange); !ok || pin.Pin <= 0 {
			t.Errorf("expected a positive pin, got %#v", changes[0])
		}
	})

	t.Run("pin a missing page without create", func(t *testing.T) {
		page := newPage()
		page.Persistent = false
		committer := &mockCommitter{}
		s := NewPageService(&mockPuller{page: page}, committer, nil, "")

		if _, err := s.Pin(context.Background(), "project", "test", PinOptions{}, PushOptions{}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if committer.commitCalled != 0 {
			t.Errorf("expected no commit, got %d", committer.commitCalled)
		}
	})

	t.Run("pin creates the page", func(t *testing.T) {
		page := newPage()
		page.Persistent = false
		page.Lines = nil
		committer := &mockCommitter{}
		s := NewPageService(&mockPuller{page: page}, committer, nil, "")

		if _, err := s.Pin(context.Background(), "project", "test", PinOptions{Create: true}, PushOptions{}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		changes := committer.lastCommit.Changes
		if _, ok := changes[0].(data.InsertChange); !ok {
			t.Errorf("expected the title line first, got %#v", changes[0])
		}
		if _, ok := changes[len(changes)-1].(data.PinChange); !ok {
			t.Errorf("expected the pin last, got %#v", changes[len(changes)-1])
		}
	})

	t.Run("unpin", func(t *testing.T) {
		page := newPage()
		page.Pin = 42
		committer := &mockCommitter{}
		s := NewPageService(&mockPuller{page: page}, committer, nil, "")

		if _, err := s.Unpin(context.Background(), "project", "test", PushOptions{}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if changes := committer.lastCommit.Changes; len(changes) != 1 || changes[0] != (data.PinChange{Pin: 0}) {
			t.Errorf("expected pin 0, got %#v", changes)
		}
	})

	t.Run("delete a missing page", func(t *testing.T) {
		page := newPage()
		page.Persistent = false
		committer := &mockCommitter{}
		s := NewPageService(&mockPuller{page: page}, committer, nil, "")

		if _, err := s.DeletePage(context.Background(), "project", "test", PushOptions{}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if committer.commitCalled != 0 {
			t.Errorf("expected no commit, got %d", committer.commitCalled)
		}
	})
}

func TestPageService_DuplicateTitleStaysOnPage(t *testing.T) {
	draft := newPage()
	draft.ID = "draft"
	draft.CommitID = "draft-head"
	draft.Persistent = false
	draft.Lines = nil

	// The title now resolves to a page someone else created.
	other := newPage()
	other.ID = "other-page"
	other.CommitID = "other-head"
	other.Lines = []data.Line{{ID: "o1", Text: "test"}, {ID: "o2", Text: "their body"}}

	puller := &seqPuller{pages: []data.PageMetadata{draft, other}}
	committer := &mockCommitter{errs: []error{sioErr(DuplicateTitleError)}}
	s := NewPageService(puller, committer, nil, "")

	_, err := s.Patch(context.Background(), "project", "test",
		func(ctx context.Context, lines []data.Line, page *data.PageMetadata) (*Edit, error) {
			return &Edit{Lines: []string{"test", "my new body"}}, nil
		},
		PushOptions{Sleep: (&recordSleep{}).sleep})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if puller.pullCalled != 1 {
		t.Errorf("expected a single pull, got %d", puller.pullCalled)
	}
	if len(committer.commits) != 2 {
		t.Fatalf("expected 2 commits, got %d", len(committer.commits))
	}
	for i, c := range committer.commits {
		if c.PageID != "draft" || c.ParentID != "draft-head" {
			t.Errorf("commit %d: expected draft/draft-head, got %s/%s", i, c.PageID, c.ParentID)
		}
	}
	var renamed bool
	for _, c := range committer.commits[1].Changes {
		if title, ok := c.(data.TitleChange); ok && title.Title == "test_2" {
			renamed = true
		}
	}
	if !renamed {
		t.Errorf("expected a test_2 title change, got %#v", committer.commits[1].Changes)
	}
}

func TestPageService_JoinRoomRetry(t *testing.T) {
	t.Run("transport error on join is retried", func(t *testing.T) {
		committer := &mockCommitter{joinErrs: []error{sioErr(TimeoutError)}}
		sleeper := &recordSleep{}
		s := NewPageService(&mockPuller{page: newPage()}, committer, nil, "")

		commitID, err := s.Patch(context.Background(), "project", "test", appendLine("new"), PushOptions{Sleep: sleeper.sleep})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if commitID != "commit-1" {
			t.Errorf("expected commit-1, got %s", commitID)
		}
		if committer.joinCalled != 2 || committer.commitCalled != 1 {
			t.Errorf("expected 2 joins and 1 commit, got %d and %d", committer.joinCalled, committer.commitCalled)
		}
		if !reflect.DeepEqual(sleeper.delays, []time.Duration{transportBackoff}) {
			t.Errorf("expected one transport backoff, got %v", sleeper.delays)
		}
	})

	t.Run("fatal error on join aborts", func(t *testing.T) {
		committer := &mockCommitter{joinErrs: []error{sioErr(socketio.UnexpectedRequestError)}}
		s := NewPageService(&mockPuller{page: newPage()}, committer, nil, "")

		_, err := s.Patch(context.Background(), "project", "test", appendLine("new"), PushOptions{Sleep: (&recordSleep{}).sleep})
		var pushErr *PushError
		if !errors.As(err, &pushErr) || pushErr.Name != socketio.UnexpectedRequestError {
			t.Errorf("expected an UnexpectedRequestError, got %v", err)
		}
		if committer.commitCalled != 0 {
			t.Errorf("expected no commits, got %d", committer.commitCalled)
		}
	})
}
