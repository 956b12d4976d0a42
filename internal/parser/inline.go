package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	iconPattern  = regexp.MustCompile(`^(.+?)\.icon(?:\*[1-9]\d*)?$`)
	urlPattern   = regexp.MustCompile(`^https?://[^\s\]]+`)
	imagePattern = regexp.MustCompile(`(?i)^https?://[^\s\]]+\.(?:png|jpe?g|gif|svg|webp|bmp)(?:\?[^\s\]]*)?$`)
	gyazoPattern = regexp.MustCompile(`^https?://(?:i\.)?gyazo\.com/[0-9a-f]{32}(?:/raw|/thumb/\d+)?$`)
	decoPattern  = regexp.MustCompile(`^[*\-/!_~"#%&'()+,.<=>?@^|]+\s`)
)

func isURL(s string) bool {
	return urlPattern.FindString(s) == s && s != ""
}

// IsImageURL reports whether a URL is rendered as an image.
func IsImageURL(s string) bool {
	return imagePattern.MatchString(s) || gyazoPattern.MatchString(s)
}

type inlineParser struct {
	src   string
	pos   int
	nodes []Node
	plain strings.Builder
}

// parseInline parses the nodes of a line body or a table cell.
func parseInline(src string) []Node {
	p := &inlineParser{src: src}
	p.run()
	return p.nodes
}

func (p *inlineParser) flush() {
	if p.plain.Len() == 0 {
		return
	}
	text := p.plain.String()
	p.nodes = append(p.nodes, PlainNode{base: base{raw: text}, Text: text})
	p.plain.Reset()
}

func (p *inlineParser) emit(n Node, width int) {
	p.flush()
	p.nodes = append(p.nodes, n)
	p.pos += width
}

// atWordStart reports whether pos follows whitespace or the start of input.
func (p *inlineParser) atWordStart() bool {
	if p.pos == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(p.src[:p.pos])
	return isSpace(r)
}

func (p *inlineParser) run() {
	for p.pos < len(p.src) {
		rest := p.src[p.pos:]

		switch {
		case rest[0] == '`':
			if end := strings.IndexByte(rest[1:], '`'); end >= 0 {
				raw := rest[:end+2]
				p.emit(CodeNode{base: base{raw: raw}, Text: raw[1 : len(raw)-1]}, len(raw))
				continue
			}

		case strings.HasPrefix(rest, "[["):
			if end := strings.Index(rest[2:], "]]"); end >= 0 {
				raw := rest[:end+4]
				p.emit(strongBracket(raw, raw[2:len(raw)-2]), len(raw))
				continue
			}

		case rest[0] == '[':
			if n, width, ok := bracket(rest); ok {
				p.emit(n, width)
				continue
			}

		case rest[0] == '#' && p.atWordStart():
			end := strings.IndexFunc(rest[1:], func(r rune) bool {
				return isSpace(r) || r == '[' || r == ']'
			})
			if end < 0 {
				end = len(rest) - 1
			}
			if end > 0 {
				raw := rest[:end+1]
				p.emit(HashTagNode{base: base{raw: raw}, Href: raw[1:]}, len(raw))
				continue
			}

		case (rest[0] == 'h') && p.atWordStart():
			if u := urlPattern.FindString(rest); u != "" {
				p.emit(LinkNode{base: base{raw: u}, PathType: PathAbsolute, Href: u}, len(u))
				continue
			}
		}

		r, size := utf8.DecodeRuneInString(rest)
		p.plain.WriteRune(r)
		p.pos += size
	}
	p.flush()
}

// strongBracket parses the inside of [[...]].
func strongBracket(raw, inner string) Node {
	if m := iconPattern.FindStringSubmatch(inner); m != nil && !strings.ContainsAny(m[1], "[]") {
		return iconNode(raw, m[1], true)
	}
	if IsImageURL(inner) {
		return ImageNode{base: base{raw: raw}, Src: inner, Strong: true}
	}
	return StrongNode{base: base{raw: raw}, Nodes: parseInline(inner)}
}

// bracket parses a single-bracket notation at the start of s.
func bracket(s string) (Node, int, bool) {
	inner := s[1:]

	// Decorations may hold nested brackets, so match by depth.
	if decoPattern.MatchString(inner) {
		depth := 0
		for i, r := range s {
			switch r {
			case '[':
				depth++
			case ']':
				depth--
				if depth == 0 {
					raw := s[:i+1]
					body := raw[1 : len(raw)-1]
					sp := strings.IndexFunc(body, isSpace)
					return DecorationNode{
						base:  base{raw: raw},
						Decos: body[:sp],
						Nodes: parseInline(strings.TrimLeft(body[sp:], " ")),
					}, len(raw), true
				}
			}
		}
		return nil, 0, false
	}

	end := strings.IndexByte(inner, ']')
	if end < 0 {
		return nil, 0, false
	}
	raw := s[:end+2]
	body := inner[:end]
	b := base{raw: raw}

	if strings.TrimSpace(body) == "" {
		return BlankNode{base: b}, len(raw), true
	}
	if formula, ok := strings.CutPrefix(body, "$ "); ok {
		return FormulaNode{base: b, Formula: formula}, len(raw), true
	}
	if m := iconPattern.FindStringSubmatch(body); m != nil && !strings.Contains(m[1], " ") {
		return iconNode(raw, m[1], false), len(raw), true
	}
	if IsImageURL(body) {
		return ImageNode{base: b, Src: body}, len(raw), true
	}

	// "[a b]" where one side is a URL: image with link, or link with caption.
	if first, second, ok := strings.Cut(body, " "); ok {
		switch {
		case IsImageURL(first) && isURL(second):
			return ImageNode{base: b, Src: first, Link: second}, len(raw), true
		case isURL(first) && IsImageURL(second):
			return ImageNode{base: b, Src: second, Link: first}, len(raw), true
		}
		if i := strings.LastIndexByte(body, ' '); i >= 0 && isURL(body[i+1:]) {
			return LinkNode{base: b, PathType: PathAbsolute, Href: body[i+1:], Content: body[:i]}, len(raw), true
		}
		if isURL(first) {
			return LinkNode{base: b, PathType: PathAbsolute, Href: first, Content: second}, len(raw), true
		}
	}
	if isURL(body) {
		return LinkNode{base: b, PathType: PathAbsolute, Href: body}, len(raw), true
	}
	if strings.HasPrefix(body, "/") {
		return LinkNode{base: b, PathType: PathRoot, Href: body}, len(raw), true
	}
	return LinkNode{base: b, PathType: PathRelative, Href: body}, len(raw), true
}

func iconNode(raw, path string, strong bool) IconNode {
	pt := PathRelative
	if strings.HasPrefix(path, "/") {
		pt = PathRoot
	}
	return IconNode{base: base{raw: raw}, PathType: pt, Path: path, Strong: strong}
}
