// Package markdown converts Markdown documents into Cosense notation lines.
package markdown

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const hrIcon = "[/icons/hr.icon]"

// Converter turns Markdown into Cosense lines. Raw HTML is reduced to its
// text.
type Converter struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// NewConverter creates a Converter with GFM tables and strikethrough.
func NewConverter() *Converter {
	return &Converter{
		md:        goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough)),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Convert returns the body lines for src. Top-level blocks are separated by
// an empty line.
func (c *Converter) Convert(src []byte) []string {
	doc := c.md.Parser().Parse(text.NewReader(src))
	w := &writer{src: src, c: c}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if len(w.lines) > 0 && w.lines[len(w.lines)-1] != "" {
			w.lines = append(w.lines, "")
		}
		w.block(n, 0)
	}
	for len(w.lines) > 0 && w.lines[len(w.lines)-1] == "" {
		w.lines = w.lines[:len(w.lines)-1]
	}
	return w.lines
}

// Page returns the lines of a page titled title with src as its body.
func (c *Converter) Page(title string, src []byte) []string {
	return append([]string{title}, c.Convert(src)...)
}

func (c *Converter) stripHTML(s string) string {
	return html.UnescapeString(c.sanitizer.Sanitize(s))
}

type writer struct {
	src   []byte
	c     *Converter
	lines []string
}

func (w *writer) emit(indent int, prefix, body string) {
	for _, line := range strings.Split(body, "\n") {
		w.lines = append(w.lines, strings.Repeat(" ", indent)+prefix+line)
	}
}

func (w *writer) block(n ast.Node, indent int) {
	switch n := n.(type) {
	case *ast.Heading:
		body := w.inline(n)
		switch n.Level {
		case 1:
			w.emit(indent, "", "[*** "+body+"]")
		case 2:
			w.emit(indent, "", "[** "+body+"]")
		default:
			w.emit(indent, "", "[* "+body+"]")
		}

	case *ast.Paragraph, *ast.TextBlock:
		w.emit(indent, "", w.inline(n))

	case *ast.List:
		number := n.Start
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			marker := ""
			if n.IsOrdered() {
				marker = fmt.Sprintf("%d. ", number)
				number++
			}
			w.listItem(item, indent+1, marker)
		}

	case *ast.FencedCodeBlock:
		name := string(n.Language(w.src))
		if name == "" {
			name = "text"
		}
		w.code(n, indent, name)

	case *ast.CodeBlock:
		w.code(n, indent, "text")

	case *ast.Blockquote:
		inner := &writer{src: w.src, c: w.c}
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			inner.block(child, 0)
		}
		for _, line := range inner.lines {
			w.emit(indent, "> ", line)
		}

	case *ast.ThematicBreak:
		w.emit(indent, "", hrIcon)

	case *ast.HTMLBlock:
		var raw strings.Builder
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			raw.Write(seg.Value(w.src))
		}
		for _, line := range strings.Split(w.c.stripHTML(raw.String()), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				w.emit(indent, "", line)
			}
		}

	case *extast.Table:
		w.emit(indent, "", "table:table")
		for row := n.FirstChild(); row != nil; row = row.NextSibling() {
			var cells []string
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				cells = append(cells, strings.ReplaceAll(w.inline(cell), "\n", " "))
			}
			w.emit(indent+1, "", strings.Join(cells, "\t"))
		}

	default:
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			w.block(child, indent)
		}
	}
}

func (w *writer) listItem(item ast.Node, indent int, marker string) {
	first := true
	for child := item.FirstChild(); child != nil; child = child.NextSibling() {
		switch child.(type) {
		case *ast.Paragraph, *ast.TextBlock:
			body := w.inline(child)
			if first {
				lines := strings.Split(body, "\n")
				w.emit(indent, marker, lines[0])
				if len(lines) > 1 {
					w.emit(indent, "", strings.Join(lines[1:], "\n"))
				}
			} else {
				w.emit(indent, "", body)
			}
		case *ast.List:
			w.block(child, indent)
		default:
			w.block(child, indent+1)
		}
		first = false
	}
}

func (w *writer) code(n ast.Node, indent int, name string) {
	w.emit(indent, "", "code:"+name)
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := strings.TrimRight(string(seg.Value(w.src)), "\n")
		w.emit(indent+1, "", line)
	}
}

func (w *writer) inline(n ast.Node) string {
	var b strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		w.writeInline(&b, child)
	}
	return b.String()
}

func (w *writer) writeInline(b *strings.Builder, n ast.Node) {
	switch n := n.(type) {
	case *ast.Text:
		b.Write(n.Segment.Value(w.src))
		if n.SoftLineBreak() || n.HardLineBreak() {
			b.WriteString("\n")
		}
	case *ast.String:
		b.Write(n.Value)
	case *ast.CodeSpan:
		b.WriteString("`" + w.inline(n) + "`")
	case *ast.Emphasis:
		if n.Level >= 2 {
			b.WriteString("[* " + w.inline(n) + "]")
		} else {
			b.WriteString("[/ " + w.inline(n) + "]")
		}
	case *extast.Strikethrough:
		b.WriteString("[- " + w.inline(n) + "]")
	case *ast.Link:
		label := w.inline(n)
		dest := string(n.Destination)
		if label == "" || label == dest {
			b.WriteString("[" + dest + "]")
		} else {
			b.WriteString("[" + label + " " + dest + "]")
		}
	case *ast.Image:
		b.WriteString("[" + string(n.Destination) + "]")
	case *ast.AutoLink:
		b.Write(n.URL(w.src))
	case *ast.RawHTML:
		var raw strings.Builder
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			raw.Write(seg.Value(w.src))
		}
		b.WriteString(w.c.stripHTML(raw.String()))
	default:
		b.WriteString(w.inline(n))
	}
}
