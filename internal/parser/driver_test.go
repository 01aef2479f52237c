// Drives the SLR(1) parser over the real vsl.grammar against small,
// concrete token streams produced by package lexer, exercising both a
// clean parse and the panic-mode recovery path.
package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"vslrv/internal/grammar"
	"vslrv/internal/lexer"
	"vslrv/internal/util"
)

func buildTable(t *testing.T) (*grammar.Grammar, *grammar.Table) {
	t.Helper()
	g, err := grammar.Parse(strings.NewReader(grammar.Source))
	require.NoError(t, err)
	first := g.First()
	follow := g.Follow(first)
	states := g.CanonicalCollection()
	tbl, err := grammar.Build(g, states, follow)
	require.NoError(t, err)
	return g, tbl
}

func TestParseSimpleAssignment(t *testing.T) {
	g, tbl := buildTable(t)
	tokens, err := lexer.Tokenize("int x; x=1;")
	require.NoError(t, err)

	errs := util.NewErrors(4)
	d := New(g, tbl, errs)
	root := d.Parse(tokens)

	require.Equal(t, 0, errs.Len())
	require.NotNil(t, root)
	require.Equal(t, "Program", root.Symbol)
}

func TestParseFunctionWithCall(t *testing.T) {
	g, tbl := buildTable(t)
	src := "float f(int a; int b;) { return a+b; } int r; r=f(1;2;);"
	tokens, err := lexer.Tokenize(src)
	require.NoError(t, err)

	errs := util.NewErrors(4)
	d := New(g, tbl, errs)
	root := d.Parse(tokens)

	require.Equal(t, 0, errs.Len())
	require.NotNil(t, root)
}

func TestParseRecoversFromUnexpectedToken(t *testing.T) {
	g, tbl := buildTable(t)
	// A stray ")" with no matching context forces the driver into
	// panic mode before it can keep making progress.
	tokens, err := lexer.Tokenize("int x; ) x=1;")
	require.NoError(t, err)

	errs := util.NewErrors(4)
	d := New(g, tbl, errs)
	d.Parse(tokens)

	require.Greater(t, errs.Len(), 0)
}
