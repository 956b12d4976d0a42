package service

import (
	"context"
	"slices"

	"go-cosense/internal/changeset"
	"go-cosense/internal/data"
)

// Edit is the desired state of a page.
type Edit struct {
	// Lines are the new texts, title first. Empty deletes the page.
	Lines []string
	// Pin, when set, becomes the page's pin value.
	Pin *int64
}

// UpdateFunc computes the new state of a page from its current lines. A nil
// Edit leaves the page alone.
type UpdateFunc func(ctx context.Context, lines []data.Line, page *data.PageMetadata) (*Edit, error)

// Patch rewrites a page to whatever update returns. A rejected title is
// renamed with SuggestUnDupTitle and the rest of the changeset is kept.
func (s *PageService) Patch(ctx context.Context, project, title string, update UpdateFunc, opts PushOptions) (string, error) {
	return s.Push(ctx, project, title, func(ctx context.Context, page *data.PageMetadata, attempt int, prev []data.Change, reason string) ([]data.Change, error) {
		if reason == DuplicateTitleError && len(prev) > 0 {
			return renameTitle(prev), nil
		}

		edit, err := update(ctx, page.Lines, page)
		if err != nil || edit == nil {
			return nil, err
		}
		if len(edit.Lines) == 0 {
			if !page.Persistent {
				return nil, nil
			}
			return []data.Change{data.DeletePageChange{}}, nil
		}

		changes := changeset.MakeChanges(&page.Page, edit.Lines, page.UserID, s.mdOpts...)
		if edit.Pin != nil && *edit.Pin != page.Pin {
			changes = append(changes, data.PinChange{Pin: *edit.Pin})
		}
		return changes, nil
	}, opts)
}

func renameTitle(changes []data.Change) []data.Change {
	out := slices.Clone(changes)
	for i, c := range out {
		if t, ok := c.(data.TitleChange); ok {
			out[i] = data.TitleChange{Title: changeset.SuggestUnDupTitle(t.Title)}
		}
	}
	return out
}

// PinOptions tunes Pin.
type PinOptions struct {
	// Create makes an empty page with the title when it does not exist yet.
	Create bool
}

// Pin moves a page to the top of its project. Pinned pages are left alone.
func (s *PageService) Pin(ctx context.Context, project, title string, pin PinOptions, opts PushOptions) (string, error) {
	return s.Push(ctx, project, title, func(ctx context.Context, page *data.PageMetadata, _ int, _ []data.Change, _ string) ([]data.Change, error) {
		if page.Pin != 0 || (!page.Persistent && !pin.Create) {
			return nil, nil
		}
		var changes []data.Change
		if !page.Persistent {
			changes = changeset.MakeChanges(&page.Page, []string{title}, page.UserID, s.mdOpts...)
		}
		return append(changes, data.PinChange{Pin: changeset.PinNumber()}), nil
	}, opts)
}

// Unpin clears the pin of a page.
func (s *PageService) Unpin(ctx context.Context, project, title string, opts PushOptions) (string, error) {
	return s.Push(ctx, project, title, func(ctx context.Context, page *data.PageMetadata, _ int, _ []data.Change, _ string) ([]data.Change, error) {
		if page.Pin == 0 || !page.Persistent {
			return nil, nil
		}
		return []data.Change{data.PinChange{Pin: 0}}, nil
	}, opts)
}

// DeletePage removes a page. Missing pages are left alone.
func (s *PageService) DeletePage(ctx context.Context, project, title string, opts PushOptions) (string, error) {
	return s.Push(ctx, project, title, func(ctx context.Context, page *data.PageMetadata, _ int, _ []data.Change, _ string) ([]data.Change, error) {
		if !page.Persistent {
			return nil, nil
		}
		return []data.Change{data.DeletePageChange{}}, nil
	}, opts)
}
