package changeset

import (
	"slices"
	"strings"

	"go-cosense/internal/data"
	"go-cosense/internal/metadata"
)

// MakeChanges builds the commit that turns before into the page whose lines
// are after. Content changes come first, then the title, the descriptions and
// every side table that actually changed.
func MakeChanges(before *data.Page, after []string, userID string, opts ...metadata.Option) []data.Change {
	var targets []string
	for _, entry := range after {
		targets = append(targets, strings.Split(entry, "\n")...)
	}

	changes := DiffToChanges(before.Lines, targets, userID)

	current := before.Texts()
	if first(targets) != first(current) || !before.Persistent {
		changes = append(changes, data.TitleChange{Title: first(targets)})
	}

	md := metadata.Extract(strings.Join(targets, "\n"), opts...)

	if !slices.Equal(window(current, 1, 6), window(targets, 1, 6)) {
		changes = append(changes, data.DescriptionsChange{Descriptions: md.Descriptions})
	}

	if !isSame(before.Links, md.Links) {
		changes = append(changes, data.LinksChange{Links: md.Links})
	}
	if !isSame(before.ProjectLinks, md.ProjectLinks) {
		changes = append(changes, data.ProjectLinksChange{ProjectLinks: md.ProjectLinks})
	}
	if !isSame(before.Icons, md.Icons) {
		changes = append(changes, data.IconsChange{Icons: md.Icons})
	}
	if !sameImage(before.Image, md.Image) {
		changes = append(changes, data.ImageChange{Image: md.Image})
	}
	if !isSame(before.Files, md.Files) {
		changes = append(changes, data.FilesChange{Files: md.Files})
	}
	if !isSame(before.Helpfeels, md.Helpfeels) {
		changes = append(changes, data.HelpfeelsChange{Helpfeels: md.Helpfeels})
	}
	if !isSame(before.InfoboxDefinition, md.InfoboxDefinition) {
		changes = append(changes, data.InfoboxDefinitionChange{InfoboxDefinition: md.InfoboxDefinition})
	}
	return changes
}

func first(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return lines[0]
}

func window(lines []string, from, to int) []string {
	from = min(from, len(lines))
	to = min(to, len(lines))
	return lines[from:to]
}

// isSame compares as sets: order does not matter.
func isSame(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[s] = struct{}{}
	}
	for _, s := range a {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}

func sameImage(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
