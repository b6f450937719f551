package ast

import (
	"fmt"
	"io"
	"strings"
)

// Printer controls pretty-printing of the AST nodes.
type Printer struct {
	// Output is the io.Writer to print to.
	Output io.Writer

	// Pos reports source positions alongside each node when true.
	Pos bool
}

// Print pretty-prints the AST rooted at n, one line per node, each line
// indented to show nesting depth via a depth-tracked traversal driven
// through Walk.
func (p *Printer) Print(n Node) error {
	pp := &printer{w: p.Output, pos: p.Pos}
	Walk(pp, n)
	return pp.err
}

type printer struct {
	w     io.Writer
	pos   bool
	depth int
	err   error
}

func (p *printer) Visit(n Node, dir VisitDirection) Visitor {
	if dir == VisitExit {
		p.depth--
		return nil
	}
	if p.err != nil {
		return nil
	}

	indent := strings.Repeat(". ", p.depth)
	p.depth++

	if p.pos {
		start, end := n.Span()
		sl, sc := start.LineCol()
		el, ec := end.LineCol()
		_, p.err = fmt.Fprintf(p.w, "%s[%d:%d-%d:%d] %T\n", indent, sl, sc, el, ec, n)
		return p
	}
	_, p.err = fmt.Fprintf(p.w, "%s%T\n", indent, n)
	return p
}
