// Package grammar parses an EBNF-style grammar file and builds LR(0) item
// sets, FIRST/FOLLOW sets and an SLR(1) ACTION/GOTO table with documented
// conflict resolution: shift is always preferred over reduce, and a
// reduce/reduce collision keeps the later-encountered production while
// flagging the table.
package grammar

import (
	"bufio"
	_ "embed"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Source is the text of vsl.grammar, embedded at build time: the driver has
// no separate grammar path argument, so the compiler always builds its table
// from this fixed grammar rather than loading one from disk at runtime.
//
//go:embed vsl.grammar
var Source string

// EOF is the injected end-of-input terminal.
const EOF = "EOF"

// Epsilon denotes an empty right-hand side in the grammar file.
const Epsilon = "ε"

// Production is one grammar rule; its index in Grammar.Productions is its
// production ID, assigned in encounter order. Production 0 is the accepting
// production.
type Production struct {
	LHS string
	RHS []string // Empty for an ε production.
}

// Grammar holds the full production list plus the derived terminal/
// non-terminal vocabularies and the start symbol.
type Grammar struct {
	Productions  []Production
	Start        string
	NonTerminals map[string]bool
	Terminals    map[string]bool
}

// IsNonTerminal reports whether sym is a non-terminal.
func (g *Grammar) IsNonTerminal(sym string) bool {
	return g.NonTerminals[sym]
}

// Parse reads a grammar file of the form "LHS -> α | β | …", one production
// group per line, terminated by a blank line. ε denotes the empty
// right-hand side. The first LHS encountered is the start symbol.
// Production 0 is synthesized as `Start' -> Start`, the augmented start
// production the accept state is built from: production 0's dot reaching
// the end on EOF is the ACCEPT condition.
func Parse(r io.Reader) (*Grammar, error) {
	g := &Grammar{NonTerminals: make(map[string]bool), Terminals: make(map[string]bool)}

	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "reading grammar file")
	}

	// First pass: collect non-terminals and the start symbol.
	for _, line := range lines {
		idx := strings.Index(line, "->")
		if idx < 0 {
			continue
		}
		lhs := strings.TrimSpace(line[:idx])
		if lhs == "" {
			return nil, errors.Errorf("grammar: empty left-hand side in line %q", line)
		}
		g.NonTerminals[lhs] = true
		if g.Start == "" {
			g.Start = lhs
		}
	}
	if g.Start == "" {
		return nil, errors.New("grammar: no productions found")
	}

	augmentedStart := g.Start + "'"
	g.NonTerminals[augmentedStart] = true
	g.Productions = append(g.Productions, Production{LHS: augmentedStart, RHS: []string{g.Start}})

	// Second pass: collect productions and terminals.
	for _, line := range lines {
		idx := strings.Index(line, "->")
		if idx < 0 {
			continue
		}
		lhs := strings.TrimSpace(line[:idx])
		alts := strings.Split(line[idx+2:], "|")
		for _, alt := range alts {
			fields := strings.Fields(alt)
			if len(fields) == 1 && fields[0] == Epsilon {
				fields = nil
			}
			for _, sym := range fields {
				if !g.NonTerminals[sym] {
					g.Terminals[sym] = true
				}
			}
			g.Productions = append(g.Productions, Production{LHS: lhs, RHS: fields})
		}
	}
	g.Terminals[EOF] = true
	return g, nil
}
