package rubyparse

import "github.com/standardbeagle/turbocop/internal/codemap"

// ParseResult is the output of Parse: the AST root, the raw comment
// tokens and the non-code byte ranges the lexer collected along the
// way. A ParseResult borrows no state from its source.File and is safe
// to read concurrently, but its Nodes must not outlive the byte slice
// Parse was called with (Node.Start/End index into it).
type ParseResult struct {
	Root     *Node
	Comments []Token
	NonCode  []codemap.Range
}

// CodeMap builds the CodeMap for this parse, merging the lexer's
// collected non-code ranges.
func (r *ParseResult) CodeMap() *codemap.CodeMap {
	return codemap.Build(r.NonCode)
}

// Walk performs a pre-order traversal of the tree rooted at r.Root,
// calling visit for every node including the root. Traversal order is
// deterministic: a node's own fields are visited in their declared
// order (Receiver, ArgList, Children, Body, Else) to match how a reader
// would scan the source left to right.
func (r *ParseResult) Walk(visit func(*Node)) {
	walk(r.Root, visit)
}

func walk(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	if n.Receiver != nil {
		walk(n.Receiver, visit)
	}
	for _, a := range n.ArgList {
		walk(a, visit)
	}
	for _, c := range n.Children {
		walk(c, visit)
	}
	if n.Body != nil {
		walk(n.Body, visit)
	}
	if n.Else != nil {
		walk(n.Else, visit)
	}
}

// CommentText returns the comment's source text including the leading #.
func (t Token) CommentText() string { return t.Text }
