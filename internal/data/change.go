package data

import (
	"encoding/json"
	"fmt"
)

// EndOfPage is the insert anchor that appends after the last line.
const EndOfPage = "_end"

// Change is one operation of a commit. The set of implementations is closed.
type Change interface {
	change()
}

// InsertChange inserts a line before Insert, or at the end for EndOfPage.
type InsertChange struct {
	Insert string     `json:"_insert"`
	Lines  InsertLine `json:"lines"`
}

type InsertLine struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// UpdateChange replaces the text of an existing line.
type UpdateChange struct {
	Update string     `json:"_update"`
	Lines  UpdateLine `json:"lines"`
}

type UpdateLine struct {
	Text string `json:"text"`
}

// DeleteChange removes an existing line.
type DeleteChange struct {
	Delete string
}

func (c DeleteChange) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Delete string `json:"_delete"`
		Lines  int    `json:"lines"`
	}{c.Delete, -1})
}

type TitleChange struct {
	Title string `json:"title"`
}

type DescriptionsChange struct {
	Descriptions []string `json:"descriptions"`
}

type LinksChange struct {
	Links []string `json:"links"`
}

type ProjectLinksChange struct {
	ProjectLinks []string `json:"projectLinks"`
}

type IconsChange struct {
	Icons []string `json:"icons"`
}

// ImageChange sets the preview image; nil clears it.
type ImageChange struct {
	Image *string `json:"image"`
}

type FilesChange struct {
	Files []string `json:"files"`
}

type HelpfeelsChange struct {
	Helpfeels []string `json:"helpfeels"`
}

type InfoboxDefinitionChange struct {
	InfoboxDefinition []string `json:"infoboxDefinition"`
}

// PinChange sets the pin number; 0 unpins.
type PinChange struct {
	Pin int64 `json:"pin"`
}

// DeletePageChange deletes the whole page.
type DeletePageChange struct{}

func (DeletePageChange) MarshalJSON() ([]byte, error) {
	return []byte(`{"deleted":true}`), nil
}

func (InsertChange) change()            {}
func (UpdateChange) change()            {}
func (DeleteChange) change()            {}
func (TitleChange) change()             {}
func (DescriptionsChange) change()      {}
func (LinksChange) change()             {}
func (ProjectLinksChange) change()      {}
func (IconsChange) change()             {}
func (ImageChange) change()             {}
func (FilesChange) change()             {}
func (HelpfeelsChange) change()         {}
func (InfoboxDefinitionChange) change() {}
func (PinChange) change()               {}
func (DeletePageChange) change()        {}

// UnmarshalChange decodes a single wire change, picking the variant by the
// key it carries.
func UnmarshalChange(raw json.RawMessage) (Change, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode change: %w", err)
	}

	decode := func(c Change) (Change, error) {
		if err := json.Unmarshal(raw, c); err != nil {
			return nil, fmt.Errorf("failed to decode change: %w", err)
		}
		// Return the value, not the pointer, so type switches see one shape.
		switch v := c.(type) {
		case *InsertChange:
			return *v, nil
		case *UpdateChange:
			return *v, nil
		case *TitleChange:
			return *v, nil
		case *DescriptionsChange:
			return *v, nil
		case *LinksChange:
			return *v, nil
		case *ProjectLinksChange:
			return *v, nil
		case *IconsChange:
			return *v, nil
		case *ImageChange:
			return *v, nil
		case *FilesChange:
			return *v, nil
		case *HelpfeelsChange:
			return *v, nil
		case *InfoboxDefinitionChange:
			return *v, nil
		case *PinChange:
			return *v, nil
		}
		return c, nil
	}

	has := func(key string) bool {
		_, ok := fields[key]
		return ok
	}

	switch {
	case has("_insert"):
		return decode(&InsertChange{})
	case has("_update"):
		return decode(&UpdateChange{})
	case has("_delete"):
		var id string
		if err := json.Unmarshal(fields["_delete"], &id); err != nil {
			return nil, fmt.Errorf("failed to decode change: %w", err)
		}
		return DeleteChange{Delete: id}, nil
	case has("title"):
		return decode(&TitleChange{})
	case has("descriptions"):
		return decode(&DescriptionsChange{})
	case has("links"):
		return decode(&LinksChange{})
	case has("projectLinks"):
		return decode(&ProjectLinksChange{})
	case has("icons"):
		return decode(&IconsChange{})
	case has("image"):
		return decode(&ImageChange{})
	case has("files"):
		return decode(&FilesChange{})
	case has("helpfeels"):
		return decode(&HelpfeelsChange{})
	case has("infoboxDefinition"):
		return decode(&InfoboxDefinitionChange{})
	case has("pin"):
		return decode(&PinChange{})
	case has("deleted"):
		return DeletePageChange{}, nil
	}
	return nil, fmt.Errorf("unknown change: %s", raw)
}

// UnmarshalChanges decodes a whole changeset.
func UnmarshalChanges(raw json.RawMessage) ([]Change, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode changes: %w", err)
	}
	changes := make([]Change, 0, len(items))
	for _, item := range items {
		c, err := UnmarshalChange(item)
		if err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, nil
}
