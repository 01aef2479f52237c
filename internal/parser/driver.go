package parser

import (
	"vslrv/internal/grammar"
	"vslrv/internal/lexer"
	"vslrv/internal/util"
)

// Driver walks a token stream against an SLR(1) table. State is
// (stateStack, nodeStack, inputCursor): shift pushes a state and leaf node,
// reduce pops |RHS| pairs and pushes the new non-terminal's node (its
// children are the top |RHS| stack entries, taken in source order), and
// panic-mode recovery discards tokens until a shift or reduce succeeds
// again or EOF is reached, emitting at most one diagnostic per panic
// episode. An empty right-hand side reduces to a non-terminal node with no
// children and a zero-width range at the current token.
type Driver struct {
	Grammar *grammar.Grammar
	Table   *grammar.Table
	Errors  *util.Errors
}

// New returns a Driver bound to a built grammar and table.
func New(g *grammar.Grammar, t *grammar.Table, errs *util.Errors) *Driver {
	return &Driver{Grammar: g, Table: t, Errors: errs}
}

// symbolOf maps a scanned token to the grammar terminal it represents.
func symbolOf(tok lexer.Token) string {
	if tok.Kind == lexer.EOF {
		return grammar.EOF
	}
	return tok.Kind.String()
}

// Parse drives tokens through the ACTION/GOTO table, returning the parse
// tree root. A nil root (with Errors populated) means the input could not
// be recovered from: EOF was reached while still in panic mode.
func (d *Driver) Parse(tokens []lexer.Token) *Node {
	stateStack := []int{0}
	var nodeStack []*Node
	cursor := 0
	panicking := false

	cur := func() lexer.Token { return tokens[cursor] }

	for {
		top := stateStack[len(stateStack)-1]
		sym := symbolOf(cur())
		act, ok := d.Table.Action[top][sym]
		if !ok {
			if !panicking {
				tok := cur()
				d.Errors.Append(tok.Pos, util.Parse, "unexpected token %q", tok.Lexeme)
				panicking = true
			}
			if cur().Kind == lexer.EOF {
				return nil
			}
			cursor++
			continue
		}

		switch act.Kind {
		case grammar.ActionShift:
			tok := cur()
			node := &Node{Symbol: sym, IsTerminal: true, Lexeme: tok.Lexeme, Start: tok.Pos, End: tok.Pos}
			nodeStack = append(nodeStack, node)
			stateStack = append(stateStack, act.State)
			if tok.Kind == lexer.EOF {
				return nil
			}
			cursor++
			panicking = false

		case grammar.ActionReduce, grammar.ActionAccept:
			prod := d.Grammar.Productions[act.Prod]
			n := len(prod.RHS)
			var children []*Node
			var start, end util.Pos
			if n == 0 {
				pos := cur().Pos
				start, end = pos, pos
			} else {
				children = append([]*Node(nil), nodeStack[len(nodeStack)-n:]...)
				nodeStack = nodeStack[:len(nodeStack)-n]
				stateStack = stateStack[:len(stateStack)-n]
				start, end = children[0].Start, children[len(children)-1].End
			}
			node := &Node{Symbol: prod.LHS, Children: children, Start: start, End: end}

			if act.Kind == grammar.ActionAccept {
				return node
			}

			nodeStack = append(nodeStack, node)
			gotoTop := stateStack[len(stateStack)-1]
			target, ok := d.Table.GotoTable[gotoTop][prod.LHS]
			if !ok {
				d.Errors.Append(node.Start, util.Parse, "no GOTO entry for %q from state %d", prod.LHS, gotoTop)
				return nil
			}
			stateStack = append(stateStack, target)
			panicking = false
		}
	}
}
