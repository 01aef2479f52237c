// Exercises the IR builder end-to-end, driving real source text through the
// lexer/parser/AST/type-check stages first (cheaper to write correctly
// than hand-building typed AST nodes, and it doubles as an integration
// check across the front end) and then asserting on the lowered IR.
package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"vslrv/internal/ast"
	"vslrv/internal/check"
	"vslrv/internal/grammar"
	"vslrv/internal/lexer"
	"vslrv/internal/parser"
	"vslrv/internal/util"
)

func buildIR(t *testing.T, src string) *IRProgram {
	t.Helper()
	g, err := grammar.Parse(strings.NewReader(grammar.Source))
	require.NoError(t, err)
	first := g.First()
	follow := g.Follow(first)
	states := g.CanonicalCollection()
	tbl, err := grammar.Build(g, states, follow)
	require.NoError(t, err)

	tokens, err := lexer.Tokenize(src)
	require.NoError(t, err)

	errs := util.NewErrors(8)
	root := parser.New(g, tbl, errs).Parse(tokens)
	require.Equal(t, 0, errs.Len())
	require.NotNil(t, root)

	prog := ast.Build(root)
	check.New(errs).Check(prog)
	require.Equal(t, 0, errs.Len())

	return Build(prog)
}

func findFunc(p *IRProgram, name string) *IRFunc {
	for _, f := range p.Functions {
		if f.Sym.Name == "@"+name {
			return f
		}
	}
	return nil
}

// "int x; x=1;" compiles to a program with a global @x and a __main__
// that stores 1 into @x and ends with a ret.
func TestBuildScalarAssignSynthesizesMain(t *testing.T) {
	p := buildIR(t, "int x; x=1;")

	require.Len(t, p.Globals, 1)
	require.Equal(t, "@x", p.Globals[0].Name)

	main := findFunc(p, "__main__")
	require.NotNil(t, main)

	var sawStore bool
	for _, blk := range main.Blocks {
		for _, in := range blk.Instrs {
			if st, ok := in.(*Store); ok {
				sawStore = true
				require.Equal(t, IntConst(1), st.Src)
				require.Equal(t, "@x", st.Dst.Name)
			}
		}
	}
	require.True(t, sawStore, "expected a store of 1 into @x")

	last := main.Blocks[len(main.Blocks)-1]
	_, ok := last.Instrs[len(last.Instrs)-1].(*Ret)
	require.True(t, ok, "main's last instruction should be a Ret")
}

// A while loop re-tests its condition on every iteration via a dedicated
// header block, rather than jumping straight back into the body (which
// would re-enter without ever re-checking the condition). The body's
// last instruction must jump back to that same header label, and the
// header block itself must hold the single Br the condition is tested
// with.
func TestBuildWhileLoopHasHeaderBlock(t *testing.T) {
	p := buildIR(t, "int n; n=10; while (n) n=n+(-1);")
	main := findFunc(p, "__main__")
	require.NotNil(t, main)

	var headerLabel string
	var headerBr *Br
	for _, blk := range main.Blocks {
		for _, in := range blk.Instrs {
			if br, ok := in.(*Br); ok {
				headerLabel = blk.Label
				headerBr = br
			}
		}
	}
	require.NotNil(t, headerBr, "expected the while loop's header block to hold a Br")

	// The body block is headerBr.Then; its last instruction must jump back
	// to the header, not fall through past it.
	var body *BasicBlock
	for _, blk := range main.Blocks {
		if blk.Label == headerBr.Then {
			body = blk
		}
	}
	require.NotNil(t, body)
	last := body.Instrs[len(body.Instrs)-1]
	jump, ok := last.(*Jump)
	require.True(t, ok, "the loop body's last instruction should be a Jump back to the header")
	require.Equal(t, headerLabel, jump.Label)
}

// "int a[3]; a[2]=7;" allocates 12 bytes and emits a GetElPtr with
// offset 2.
func TestBuildArrayIndexEmitsGetElPtr(t *testing.T) {
	p := buildIR(t, "int a[3]; a[2]=7;")
	main := findFunc(p, "__main__")
	require.NotNil(t, main)

	var found *GetElPtr
	for _, blk := range main.Blocks {
		for _, in := range blk.Instrs {
			if g, ok := in.(*GetElPtr); ok {
				found = g
			}
		}
	}
	require.NotNil(t, found)
	require.Equal(t, IntConst(2), found.Offset)
}

// A function casting an int sum to float, called with two register
// arguments.
func TestBuildCallLowersArgsAndCastsResult(t *testing.T) {
	src := "float f(int a; int b;) { return a+b; } int r; r=f(1;2;);"
	p := buildIR(t, src)

	f := findFunc(p, "f")
	require.NotNil(t, f)
	require.Len(t, f.Params, 2)

	var sawI2F bool
	for _, blk := range f.Blocks {
		for _, in := range blk.Instrs {
			if _, ok := in.(*I2F); ok {
				sawI2F = true
			}
		}
	}
	require.True(t, sawI2F, "returning an int sum as float must insert an I2F cast")

	main := findFunc(p, "__main__")
	var call *Call
	for _, blk := range main.Blocks {
		for _, in := range blk.Instrs {
			if c, ok := in.(*Call); ok {
				call = c
			}
		}
	}
	require.NotNil(t, call)
	require.Equal(t, "@f", call.Callee)
	require.Len(t, call.Args, 2)
}
