//go:build unit

package parser

import (
	"strings"
	"testing"
)

func TestParse_Blocks(t *testing.T) {
	text := strings.Join([]string{
		"Title",
		"first line",
		"code:main.go",
		" package main",
		"  func main() {}",
		"table:infobox",
		" Name\t[takker.icon]",
		" Home\t[Tokyo]",
		"after",
	}, "\n")

	blocks := Parse(text, Options{HasTitle: true})
	if len(blocks) != 5 {
		t.Fatalf("expected 5 blocks, got %d", len(blocks))
	}

	if blocks[0].Type != BlockTitle || blocks[0].Text != "Title" {
		t.Errorf("unexpected title block: %+v", blocks[0])
	}
	if blocks[1].Type != BlockLine {
		t.Errorf("expected a line block, got %s", blocks[1].Type)
	}

	code := blocks[2]
	if code.Type != BlockCodeBlock || code.FileName != "main.go" {
		t.Errorf("unexpected code block: %+v", code)
	}
	if code.Content != "package main\n func main() {}" {
		t.Errorf("unexpected code content %q", code.Content)
	}

	table := blocks[3]
	if table.Type != BlockTable || table.FileName != "infobox" || len(table.Cells) != 2 {
		t.Fatalf("unexpected table block: %+v", table)
	}
	if len(table.Cells[0]) != 2 {
		t.Fatalf("expected 2 cells in the first row, got %d", len(table.Cells[0]))
	}
	icon, ok := table.Cells[0][1][0].(IconNode)
	if !ok || icon.Path != "takker" {
		t.Errorf("expected a takker icon, got %#v", table.Cells[0][1][0])
	}

	if blocks[4].Type != BlockLine || blocks[4].Nodes[0].Raw() != "after" {
		t.Errorf("unexpected trailing block: %+v", blocks[4])
	}
}

func TestParse_LinePrefixes(t *testing.T) {
	testCases := []struct {
		line string
		want NodeType
	}{
		{"? how do I log in", TypeHelpfeel},
		{"$ go test ./...", TypeCommandLine},
		{"% ls", TypeCommandLine},
		{"1. first [item]", TypeNumberList},
		{"> quoted [link]", TypeQuote},
		{"plain text", TypePlain},
	}

	for _, tc := range testCases {
		t.Run(tc.line, func(t *testing.T) {
			blocks := Parse(tc.line, Options{})
			if len(blocks) != 1 || len(blocks[0].Nodes) == 0 {
				t.Fatalf("expected one line with nodes, got %+v", blocks)
			}
			node := blocks[0].Nodes[0]
			if node.Type() != tc.want {
				t.Errorf("expected %s, got %s", tc.want, node.Type())
			}
			if node.Raw() != tc.line {
				t.Errorf("expected raw %q, got %q", tc.line, node.Raw())
			}
		})
	}
}

func TestParseInline(t *testing.T) {
	testCases := []struct {
		name  string
		src   string
		check func(t *testing.T, nodes []Node)
	}{
		{"relative link", "[foo bar]", func(t *testing.T, nodes []Node) {
			l := nodes[0].(LinkNode)
			if l.PathType != PathRelative || l.Href != "foo bar" {
				t.Errorf("unexpected link %#v", l)
			}
		}},
		{"root link", "[/help-jp/page]", func(t *testing.T, nodes []Node) {
			l := nodes[0].(LinkNode)
			if l.PathType != PathRoot || l.Href != "/help-jp/page" {
				t.Errorf("unexpected link %#v", l)
			}
		}},
		{"link with caption", "[Go https://go.dev]", func(t *testing.T, nodes []Node) {
			l := nodes[0].(LinkNode)
			if l.PathType != PathAbsolute || l.Href != "https://go.dev" || l.Content != "Go" {
				t.Errorf("unexpected link %#v", l)
			}
		}},
		{"bare url", "see https://go.dev now", func(t *testing.T, nodes []Node) {
			l := nodes[1].(LinkNode)
			if l.Href != "https://go.dev" {
				t.Errorf("unexpected link %#v", l)
			}
		}},
		{"hashtag", "a #tag b", func(t *testing.T, nodes []Node) {
			h := nodes[1].(HashTagNode)
			if h.Href != "tag" {
				t.Errorf("unexpected hashtag %#v", h)
			}
		}},
		{"lonely hash", "a # b", func(t *testing.T, nodes []Node) {
			if len(nodes) != 1 || nodes[0].Type() != TypePlain {
				t.Errorf("expected plain text, got %#v", nodes)
			}
		}},
		{"inline code hides links", "`[not a link]`", func(t *testing.T, nodes []Node) {
			if len(nodes) != 1 || nodes[0].Type() != TypeCode {
				t.Errorf("expected a code node, got %#v", nodes)
			}
		}},
		{"strong icon", "[[takker.icon]]", func(t *testing.T, nodes []Node) {
			if nodes[0].Type() != TypeStrongIcon {
				t.Errorf("expected a strong icon, got %#v", nodes[0])
			}
		}},
		{"strong", "[[bold text]]", func(t *testing.T, nodes []Node) {
			if nodes[0].Type() != TypeStrong {
				t.Errorf("expected strong, got %#v", nodes[0])
			}
		}},
		{"image with link", "[https://example.com/a.png https://example.com]", func(t *testing.T, nodes []Node) {
			img := nodes[0].(ImageNode)
			if img.Src != "https://example.com/a.png" || img.Link != "https://example.com" {
				t.Errorf("unexpected image %#v", img)
			}
		}},
		{"gyazo", "[https://gyazo.com/0123456789abcdef0123456789abcdef]", func(t *testing.T, nodes []Node) {
			if nodes[0].Type() != TypeImage {
				t.Errorf("expected an image, got %#v", nodes[0])
			}
		}},
		{"decoration with nested link", "[* bold [link]]", func(t *testing.T, nodes []Node) {
			d := nodes[0].(DecorationNode)
			if d.Decos != "*" || len(d.Nodes) != 2 || d.Nodes[1].Type() != TypeLink {
				t.Errorf("unexpected decoration %#v", d)
			}
		}},
		{"formula", "[$ x^2]", func(t *testing.T, nodes []Node) {
			if nodes[0].Type() != TypeFormula {
				t.Errorf("expected a formula, got %#v", nodes[0])
			}
		}},
		{"unclosed bracket", "[oops", func(t *testing.T, nodes []Node) {
			if len(nodes) != 1 || nodes[0].Raw() != "[oops" {
				t.Errorf("expected plain text, got %#v", nodes)
			}
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			nodes := parseInline(tc.src)
			var raw strings.Builder
			for _, n := range nodes {
				raw.WriteString(n.Raw())
			}
			if raw.String() != tc.src {
				t.Errorf("raws do not rebuild the source: %q", raw.String())
			}
			tc.check(t, nodes)
		})
	}
}
