package parser

// NodeType identifies an inline node.
type NodeType string

const (
	TypePlain       NodeType = "plain"
	TypeHashTag     NodeType = "hashTag"
	TypeLink        NodeType = "link"
	TypeIcon        NodeType = "icon"
	TypeStrongIcon  NodeType = "strongIcon"
	TypeImage       NodeType = "image"
	TypeStrongImage NodeType = "strongImage"
	TypeHelpfeel    NodeType = "helpfeel"
	TypeCommandLine NodeType = "commandLine"
	TypeNumberList  NodeType = "numberList"
	TypeStrong      NodeType = "strong"
	TypeQuote       NodeType = "quote"
	TypeDecoration  NodeType = "decoration"
	TypeCode        NodeType = "code"
	TypeFormula     NodeType = "formula"
	TypeBlank       NodeType = "blank"
)

// PathType tells how a link or icon path is rooted.
type PathType string

const (
	PathRelative PathType = "relative"
	PathRoot     PathType = "root"
	PathAbsolute PathType = "absolute"
)

// Node is an inline element of a line. Raw is the exact source text.
type Node interface {
	Type() NodeType
	Raw() string
}

// Container is implemented by nodes that wrap other nodes.
type Container interface {
	Node
	Children() []Node
}

type base struct {
	raw string
}

func (b base) Raw() string { return b.raw }

type PlainNode struct {
	base
	Text string
}

type HashTagNode struct {
	base
	Href string
}

// LinkNode is a bracket link or a bare URL. Content is the caption of an
// absolute link, if any.
type LinkNode struct {
	base
	PathType PathType
	Href     string
	Content  string
}

type IconNode struct {
	base
	PathType PathType
	Path     string
	Strong   bool
}

type ImageNode struct {
	base
	Src    string
	Link   string
	Strong bool
}

type HelpfeelNode struct {
	base
	Text string
}

type CommandLineNode struct {
	base
	Symbol string
	Text   string
}

type NumberListNode struct {
	base
	Number int
	Nodes  []Node
}

type StrongNode struct {
	base
	Nodes []Node
}

type QuoteNode struct {
	base
	Nodes []Node
}

type DecorationNode struct {
	base
	Decos string
	Nodes []Node
}

type CodeNode struct {
	base
	Text string
}

type FormulaNode struct {
	base
	Formula string
}

type BlankNode struct {
	base
}

func (PlainNode) Type() NodeType       { return TypePlain }
func (HashTagNode) Type() NodeType     { return TypeHashTag }
func (LinkNode) Type() NodeType        { return TypeLink }
func (HelpfeelNode) Type() NodeType    { return TypeHelpfeel }
func (CommandLineNode) Type() NodeType { return TypeCommandLine }
func (NumberListNode) Type() NodeType  { return TypeNumberList }
func (StrongNode) Type() NodeType      { return TypeStrong }
func (QuoteNode) Type() NodeType       { return TypeQuote }
func (DecorationNode) Type() NodeType  { return TypeDecoration }
func (CodeNode) Type() NodeType        { return TypeCode }
func (FormulaNode) Type() NodeType     { return TypeFormula }
func (BlankNode) Type() NodeType       { return TypeBlank }

func (n IconNode) Type() NodeType {
	if n.Strong {
		return TypeStrongIcon
	}
	return TypeIcon
}

func (n ImageNode) Type() NodeType {
	if n.Strong {
		return TypeStrongImage
	}
	return TypeImage
}

func (n NumberListNode) Children() []Node { return n.Nodes }
func (n StrongNode) Children() []Node     { return n.Nodes }
func (n QuoteNode) Children() []Node      { return n.Nodes }
func (n DecorationNode) Children() []Node { return n.Nodes }
