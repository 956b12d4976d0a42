// Package changeset compiles text edits into the line operations and side
// table updates of a single commit.
package changeset

import (
	"go-cosense/internal/data"
	"go-cosense/internal/diff"
)

// DiffToChanges turns the difference between the current lines and the
// target texts into insert, update and delete operations. Every operation
// addresses a line id of the current lines, so the result is valid against
// the snapshot it was computed from. An empty page gets every target line
// appended at the end.
func DiffToChanges(lines []data.Line, targets []string, userID string) []data.Change {
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}

	cursor := 0
	lineID := func() string {
		if cursor >= len(lines) {
			return data.EndOfPage
		}
		return lines[cursor].ID
	}

	var changes []data.Change
	for c := range diff.ToExtended(diff.New(texts, targets).BuildSES()) {
		switch c.Type {
		case diff.Added:
			changes = append(changes, data.InsertChange{
				Insert: lineID(),
				Lines:  data.InsertLine{ID: NewLineID(userID), Text: c.Value},
			})
			// The anchor is not consumed.
			continue
		case diff.Deleted:
			changes = append(changes, data.DeleteChange{Delete: lineID()})
		case diff.Replaced:
			changes = append(changes, data.UpdateChange{
				Update: lineID(),
				Lines:  data.UpdateLine{Text: c.Value},
			})
		}
		cursor++
	}
	return changes
}
