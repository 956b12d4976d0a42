package handler

import (
	"net/url"
	"strings"

	"go-cosense/internal/data"
	"go-cosense/internal/parser"
)

type segment struct {
	Text  string
	Href  string
	Image string
	Code  bool
}

type renderedBlock struct {
	Indent   int
	Segments []segment
	FileName string
	Code     string
	Rows     [][]string
}

func renderPage(project string, page *data.Page) []renderedBlock {
	var blocks []renderedBlock
	for _, b := range parser.Parse(strings.Join(page.Texts(), "\n"), parser.Options{HasTitle: true}) {
		switch b.Type {
		case parser.BlockLine:
			rb := renderedBlock{Indent: b.Indent}
			for _, n := range b.Nodes {
				rb.Segments = appendSegments(rb.Segments, project, n)
			}
			blocks = append(blocks, rb)
		case parser.BlockCodeBlock:
			blocks = append(blocks, renderedBlock{Indent: b.Indent, FileName: b.FileName, Code: b.Content})
		case parser.BlockTable:
			rb := renderedBlock{Indent: b.Indent, FileName: b.FileName}
			for _, row := range b.Cells {
				cells := make([]string, len(row))
				for i, cell := range row {
					var raw strings.Builder
					for _, n := range cell {
						raw.WriteString(n.Raw())
					}
					cells[i] = raw.String()
				}
				rb.Rows = append(rb.Rows, cells)
			}
			blocks = append(blocks, rb)
		}
	}
	return blocks
}

func pageHref(project, title string) string {
	return "/" + project + "/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}

func appendSegments(segments []segment, project string, node parser.Node) []segment {
	switch n := node.(type) {
	case parser.LinkNode:
		text := n.Content
		if text == "" {
			text = n.Href
		}
		switch n.PathType {
		case parser.PathRelative:
			return append(segments, segment{Text: text, Href: pageHref(project, n.Href)})
		default:
			return append(segments, segment{Text: text, Href: n.Href})
		}
	case parser.HashTagNode:
		return append(segments, segment{Text: "#" + n.Href, Href: pageHref(project, n.Href)})
	case parser.ImageNode:
		return append(segments, segment{Image: n.Src})
	case parser.IconNode:
		return append(segments, segment{Text: n.Path, Href: pageHref(project, n.Path)})
	case parser.CodeNode:
		return append(segments, segment{Text: n.Text, Code: true})
	case parser.Container:
		for _, child := range n.Children() {
			segments = appendSegments(segments, project, child)
		}
		return segments
	}
	return append(segments, segment{Text: node.Raw()})
}
