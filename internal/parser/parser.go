// Package parser turns Cosense notation into blocks of typed inline nodes.
package parser

import (
	"strings"
	"unicode"
)

// BlockType identifies a block.
type BlockType string

const (
	BlockTitle     BlockType = "title"
	BlockLine      BlockType = "line"
	BlockCodeBlock BlockType = "codeBlock"
	BlockTable     BlockType = "table"
)

// Block is a top level unit of a page. Only the fields of its type are set.
type Block struct {
	Type   BlockType
	Indent int

	// title
	Text string

	// line
	Nodes []Node

	// codeBlock and table
	FileName string
	Content  string     // codeBlock: body lines without the block indentation
	Cells    [][][]Node // table: rows of cells of nodes
}

// Options controls parsing.
type Options struct {
	// HasTitle treats the first line as the page title.
	HasTitle bool
}

// Parse splits text into blocks.
func Parse(text string, opts Options) []Block {
	lines := strings.Split(text, "\n")
	var blocks []Block

	i := 0
	if opts.HasTitle && len(lines) > 0 {
		blocks = append(blocks, Block{Type: BlockTitle, Text: lines[0]})
		i = 1
	}

	for i < len(lines) {
		indent, body := splitIndent(lines[i])

		if name, ok := strings.CutPrefix(body, "code:"); ok && name != "" {
			var content []string
			j := i + 1
			for ; j < len(lines); j++ {
				childIndent, _ := splitIndent(lines[j])
				if childIndent <= indent {
					break
				}
				content = append(content, dropIndent(lines[j], indent+1))
			}
			blocks = append(blocks, Block{
				Type:     BlockCodeBlock,
				Indent:   indent,
				FileName: name,
				Content:  strings.Join(content, "\n"),
			})
			i = j
			continue
		}

		if name, ok := strings.CutPrefix(body, "table:"); ok && name != "" {
			var cells [][][]Node
			j := i + 1
			for ; j < len(lines); j++ {
				childIndent, _ := splitIndent(lines[j])
				if childIndent <= indent {
					break
				}
				var row [][]Node
				for _, cell := range strings.Split(dropIndent(lines[j], indent+1), "\t") {
					row = append(row, parseInline(cell))
				}
				cells = append(cells, row)
			}
			blocks = append(blocks, Block{
				Type:     BlockTable,
				Indent:   indent,
				FileName: name,
				Cells:    cells,
			})
			i = j
			continue
		}

		blocks = append(blocks, Block{Type: BlockLine, Indent: indent, Nodes: parseLine(body)})
		i++
	}
	return blocks
}

func isIndentRune(r rune) bool {
	return r == ' ' || r == '\t' || r == '　'
}

// splitIndent counts leading indentation runes.
func splitIndent(line string) (int, string) {
	n := 0
	for i, r := range line {
		if !isIndentRune(r) {
			return n, line[i:]
		}
		n++
	}
	return n, ""
}

// dropIndent removes up to n leading indentation runes.
func dropIndent(line string, n int) string {
	for i, r := range line {
		if n == 0 || !isIndentRune(r) {
			return line[i:]
		}
		n--
	}
	return ""
}

// parseLine handles the prefixes that only apply at the start of a line.
func parseLine(body string) []Node {
	if body == "" {
		return nil
	}

	if rest, ok := strings.CutPrefix(body, ">"); ok {
		return []Node{QuoteNode{base: base{raw: body}, Nodes: parseInline(rest)}}
	}
	if text, ok := strings.CutPrefix(body, "? "); ok {
		return []Node{HelpfeelNode{base: base{raw: body}, Text: text}}
	}
	if len(body) > 2 && (body[0] == '$' || body[0] == '%') && body[1] == ' ' {
		return []Node{CommandLineNode{base: base{raw: body}, Symbol: body[:1], Text: body[2:]}}
	}
	if n, rest, ok := cutNumberPrefix(body); ok {
		return []Node{NumberListNode{base: base{raw: body}, Number: n, Nodes: parseInline(rest)}}
	}
	return parseInline(body)
}

// cutNumberPrefix recognises "12. rest".
func cutNumberPrefix(s string) (int, string, bool) {
	n, i := 0, 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		n = n*10 + int(s[i]-'0')
		i++
	}
	if i == 0 || i+1 >= len(s) || s[i] != '.' || s[i+1] != ' ' {
		return 0, "", false
	}
	return n, s[i+2:], true
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r)
}
