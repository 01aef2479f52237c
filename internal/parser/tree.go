// Package parser implements the LR driver that walks a token stream against
// an SLR(1) table built by package grammar, producing a concrete parse tree
// with panic-mode error recovery.
package parser

import "vslrv/internal/util"

// Node is a concrete parse tree node: {symbol, isTerminal, children[],
// lexeme, startPos, endPos}. This is the untyped parse tree, not the typed
// AST — package ast builds the typed AST from this.
type Node struct {
	Symbol     string
	IsTerminal bool
	Children   []*Node
	Lexeme     string
	Start, End util.Pos
}
