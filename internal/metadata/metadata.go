// Package metadata derives the side tables of a page (links, icons, image,
// files, helpfeels, infobox rows and descriptions) from its text.
package metadata

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"go-cosense/internal/parser"
)

const (
	maxDescriptions     = 5
	maxDescriptionRunes = 200
)

var (
	lineAnchorPattern   = regexp.MustCompile(`#[a-f\d]{24,32}$`)
	projectOnlyPattern  = regexp.MustCompile(`^/[\w\d-]+/?$`)
	thumbPattern        = regexp.MustCompile(`/thumb/1000$`)
	youtubeWatchPattern = regexp.MustCompile(`^https?://(?:www\.|music\.|m\.)?youtube\.com/watch\?(?:.*&)?v=([a-zA-Z\d_-]+)`)
	youtubeShortPattern = regexp.MustCompile(`^https?://(?:youtu\.be|(?:www\.)?youtube\.com/(?:embed|shorts))/([a-zA-Z\d_-]+)`)
)

// Metadata is everything the server keeps next to a page's lines.
type Metadata struct {
	Title             string   `json:"title"`
	Links             []string `json:"links"`
	ProjectLinks      []string `json:"projectLinks"`
	Icons             []string `json:"icons"`
	Image             *string  `json:"image"`
	Descriptions      []string `json:"descriptions"`
	Files             []string `json:"files"`
	Helpfeels         []string `json:"helpfeels"`
	InfoboxDefinition []string `json:"infoboxDefinition"`
	LineCount         int      `json:"linesCount"`
	CharCount         int      `json:"charsCount"`
}

// Option configures Extract.
type Option func(*extractor)

// WithHost sets the host whose /files/ URLs are collected (default scrapbox.io).
func WithHost(host string) Option {
	return func(e *extractor) {
		e.fileURL = fileURLPattern(host)
	}
}

func fileURLPattern(host string) *regexp.Regexp {
	host = strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://")
	host = strings.TrimRight(host, "/")
	return regexp.MustCompile(`^https?://` + regexp.QuoteMeta(host) + `/files/([a-f\d]{24})`)
}

// ToTitleLc normalizes a title for comparison.
func ToTitleLc(title string) string {
	return strings.ToLower(strings.ReplaceAll(title, " ", "_"))
}

// orderedSet keeps first-seen order of values keyed by their titleLc.
type orderedSet struct {
	index  map[string]int
	values []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{index: make(map[string]int), values: []string{}}
}

func (s *orderedSet) add(key, value string) bool {
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = len(s.values)
	s.values = append(s.values, value)
	return true
}

type extractor struct {
	fileURL *regexp.Regexp

	links        *orderedSet
	bracketLinks map[string]bool
	projectLinks *orderedSet
	icons        *orderedSet
	files        *orderedSet
	helpfeels    *orderedSet
	image        *string
}

// Extract parses text (title on the first line) and collects its metadata.
func Extract(text string, opts ...Option) Metadata {
	e := &extractor{
		fileURL:      fileURLPattern("scrapbox.io"),
		links:        newOrderedSet(),
		bracketLinks: make(map[string]bool),
		projectLinks: newOrderedSet(),
		icons:        newOrderedSet(),
		files:        newOrderedSet(),
		helpfeels:    newOrderedSet(),
	}
	for _, opt := range opts {
		opt(e)
	}

	md := Metadata{
		Descriptions:      []string{},
		InfoboxDefinition: []string{},
		LineCount:         strings.Count(text, "\n") + 1,
		CharCount:         utf8.RuneCountInString(text),
	}

	for _, block := range parser.Parse(text, parser.Options{HasTitle: true}) {
		switch block.Type {
		case parser.BlockTitle:
			md.Title = block.Text

		case parser.BlockLine:
			for _, node := range block.Nodes {
				e.lookup(node)
			}
			if len(md.Descriptions) < maxDescriptions && len(block.Nodes) > 0 {
				md.Descriptions = append(md.Descriptions, describeLine(block.Nodes))
			}

		case parser.BlockCodeBlock:
			if len(md.Descriptions) < maxDescriptions {
				md.Descriptions = append(md.Descriptions, inlineCode(block.Content))
			}

		case parser.BlockTable:
			for _, row := range block.Cells {
				for _, cell := range row {
					for _, node := range cell {
						e.lookup(node)
					}
				}
			}
			if block.FileName != "infobox" && block.FileName != "cosense" {
				continue
			}
			for _, row := range block.Cells {
				cells := make([]string, len(row))
				for i, cell := range row {
					var raw strings.Builder
					for _, node := range cell {
						raw.WriteString(node.Raw())
					}
					cells[i] = raw.String()
				}
				md.InfoboxDefinition = append(md.InfoboxDefinition, strings.TrimSpace(strings.Join(cells, "\t")))
			}
		}
	}

	md.Links = e.links.values
	md.ProjectLinks = e.projectLinks.values
	md.Icons = e.icons.values
	md.Image = e.image
	md.Files = e.files.values
	md.Helpfeels = e.helpfeels.values
	return md
}

func (e *extractor) lookup(node parser.Node) {
	switch n := node.(type) {
	case parser.HashTagNode:
		e.links.add(ToTitleLc(n.Href), n.Href)

	case parser.LinkNode:
		switch n.PathType {
		case parser.PathRelative:
			link := lineAnchorPattern.ReplaceAllString(n.Href, "")
			key := ToTitleLc(link)
			if e.bracketLinks[key] {
				return
			}
			e.bracketLinks[key] = true
			if i, ok := e.links.index[key]; ok {
				// A bracket link wins over an earlier hashtag, in place.
				e.links.values[i] = link
				return
			}
			e.links.add(key, link)

		case parser.PathRoot:
			link := lineAnchorPattern.ReplaceAllString(n.Href, "")
			if projectOnlyPattern.MatchString(link) {
				return
			}
			e.projectLinks.add(ToTitleLc(link), link)

		case parser.PathAbsolute:
			if n.Content != "" || e.image != nil {
				return
			}
			if id := youtubeID(n.Href); id != "" {
				thumb := "https://i.ytimg.com/vi/" + id + "/mqdefault.jpg"
				e.image = &thumb
			}
		}

	case parser.IconNode:
		if n.PathType != parser.PathRelative {
			return
		}
		e.icons.add(ToTitleLc(n.Path), n.Path)

	case parser.ImageNode:
		if e.image == nil {
			src := thumbPattern.ReplaceAllString(n.Src, "/raw")
			e.image = &src
		}
		if m := e.fileURL.FindStringSubmatch(n.Src); m != nil {
			e.files.add(m[1], m[1])
		}
		if m := e.fileURL.FindStringSubmatch(n.Link); m != nil {
			e.files.add(m[1], m[1])
		}

	case parser.HelpfeelNode:
		e.helpfeels.add(n.Text, n.Text)

	case parser.Container:
		for _, child := range n.Children() {
			e.lookup(child)
		}
	}
}

func youtubeID(href string) string {
	if m := youtubeWatchPattern.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	if m := youtubeShortPattern.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return ""
}

func describeLine(nodes []parser.Node) string {
	switch nodes[0].Type() {
	case parser.TypeHelpfeel, parser.TypeCommandLine:
		return inlineCode(nodes[0].Raw())
	}
	var raw strings.Builder
	for _, n := range nodes {
		raw.WriteString(n.Raw())
	}
	return truncate(strings.TrimSpace(raw.String()), maxDescriptionRunes)
}

func inlineCode(text string) string {
	escaped := strings.ReplaceAll(text, "`", "\\`")
	return "`" + truncate(escaped, maxDescriptionRunes-2) + "`"
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
