// Package service implements the push protocol: pull a page, build a
// changeset, submit it, and retry on conflicts.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-cosense/internal/data"
	"go-cosense/internal/logger"
	"go-cosense/internal/metadata"
	"go-cosense/internal/socketio"
)

const (
	transportBackoff = 3000 * time.Millisecond
	conflictBackoff  = 1000 * time.Millisecond
)

// Puller fetches a page snapshot with the ids a commit needs.
type Puller interface {
	Pull(ctx context.Context, project, title string) (*data.PageMetadata, error)
}

// Committer submits changesets.
type Committer interface {
	JoinRoom(ctx context.Context, projectID, pageID string) error
	Commit(ctx context.Context, commit socketio.Commit) (string, error)
}

// CommitBuilder returns the changeset for the current snapshot. attempt starts
// at 1; prev is the changeset of the previous attempt and reason the name of
// the error that rejected it. An empty changeset ends the push successfully.
type CommitBuilder func(ctx context.Context, page *data.PageMetadata, attempt int, prev []data.Change, reason string) ([]data.Change, error)

// PushOptions tunes a push.
type PushOptions struct {
	// MaxAttempts bounds submissions. Zero means no bound.
	MaxAttempts int
	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// PageService pushes changes to pages.
type PageService struct {
	puller    Puller
	committer Committer
	log       logger.Logger
	mdOpts    []metadata.Option
}

// NewPageService creates a PageService. host selects which /files/ URLs are
// recorded as page files; empty keeps the default.
func NewPageService(puller Puller, committer Committer, log logger.Logger, host string) *PageService {
	if log == nil {
		log = logger.Nop()
	}
	s := &PageService{
		puller:    puller,
		committer: committer,
		log:       log.With(map[string]interface{}{"component": "push"}),
	}
	if host != "" {
		s.mdOpts = append(s.mdOpts, metadata.WithHost(host))
	}
	return s
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Push pulls the page, asks build for a changeset and submits it until the
// server accepts it, a fatal error occurs or the attempts run out. It returns
// the page's commit id after the push.
func (s *PageService) Push(ctx context.Context, project, title string, build CommitBuilder, opts PushOptions) (string, error) {
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	log := s.log.With(map[string]interface{}{"project": project, "title": title})

	page, err := s.puller.Pull(ctx, project, title)
	if err != nil {
		return "", fmt.Errorf("failed to pull %s/%s: %w", project, title, err)
	}

	var (
		changes []data.Change
		prev    []data.Change
		reason  string
		joined  string
		lastErr error
	)
	rebuild := true
	attempt := 0
	exhausted := func() bool { return opts.MaxAttempts > 0 && attempt >= opts.MaxAttempts }
	for !exhausted() {
		attempt++

		if rebuild {
			changes, err = build(ctx, page, attempt, prev, reason)
			if err != nil {
				return "", fmt.Errorf("failed to build changes: %w", err)
			}
			if len(changes) == 0 {
				log.Debug("nothing to commit")
				return page.CommitID, nil
			}
			rebuild = false
		}

		var commitID string
		err = nil
		if joined != page.ID {
			if err = s.committer.JoinRoom(ctx, page.ProjectID, page.ID); err == nil {
				joined = page.ID
			}
		}
		if err == nil {
			log.Debug(fmt.Sprintf("attempt %d: submitting %d changes on %s", attempt, len(changes), page.CommitID))
			commitID, err = s.committer.Commit(ctx, socketio.Commit{
				ParentID:  page.CommitID,
				ProjectID: page.ProjectID,
				PageID:    page.ID,
				UserID:    page.UserID,
				Changes:   changes,
			})
		}
		if err == nil {
			page.CommitID = commitID
			log.Info("committed " + commitID)
			return commitID, nil
		}

		err = classify(err)
		var pushErr *PushError
		if !errors.As(err, &pushErr) {
			return "", err
		}
		lastErr = pushErr

		switch pushErr.Name {
		case TimeoutError, SocketIOError, NotFastForwardError, DuplicateTitleError:
			if exhausted() {
				log.Warn(fmt.Sprintf("attempt %d: %v, giving up", attempt, pushErr))
				return "", &RetryError{Attempts: attempt, Last: lastErr}
			}
		}

		switch pushErr.Name {
		case TimeoutError, SocketIOError:
			log.Warn(fmt.Sprintf("attempt %d: %v, resubmitting", attempt, pushErr))
			if err := opts.Sleep(ctx, transportBackoff); err != nil {
				return "", err
			}

		case NotFastForwardError:
			log.Warn(fmt.Sprintf("attempt %d: %v, pulling again", attempt, pushErr))
			if err := opts.Sleep(ctx, conflictBackoff); err != nil {
				return "", err
			}
			page, err = s.puller.Pull(ctx, project, title)
			if err != nil {
				return "", fmt.Errorf("failed to pull %s/%s: %w", project, title, err)
			}
			prev, reason, rebuild = changes, pushErr.Name, true

		case DuplicateTitleError:
			// A pull by title would now find the page holding the title.
			// The rebuilt changeset goes to the same page and parent.
			log.Warn(fmt.Sprintf("attempt %d: %v, rebuilding", attempt, pushErr))
			prev, reason, rebuild = changes, pushErr.Name, true

		default:
			log.Error(pushErr, "commit failed")
			return "", pushErr
		}
	}

	return "", &RetryError{Attempts: attempt, Last: lastErr}
}
