// Exercises the allocator against real lowered IR, checking that after
// allocation every live IRSym used by any non-terminator instruction has a
// non-null Storage, and that values live across a call are force-spilled.
package regalloc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"vslrv/internal/ast"
	"vslrv/internal/check"
	"vslrv/internal/grammar"
	"vslrv/internal/ir"
	"vslrv/internal/lexer"
	"vslrv/internal/parser"
	"vslrv/internal/util"
)

func buildIR(t *testing.T, src string) *ir.IRProgram {
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

	prog := ast.Build(root)
	check.New(errs).Check(prog)
	require.Equal(t, 0, errs.Len())

	return ir.Build(prog)
}

func findFunc(p *ir.IRProgram, name string) *ir.IRFunc {
	for _, f := range p.Functions {
		if f.Sym.Name == "@"+name {
			return f
		}
	}
	return nil
}

// every non-terminator instruction's Def/Use symbols must have Storage set
// once Allocate has run.
func assertFullyAllocated(t *testing.T, f *ir.IRFunc) {
	t.Helper()
	for _, blk := range f.Blocks {
		for _, in := range blk.Instrs {
			for _, d := range in.Def() {
				require.NotNilf(t, d.Storage, "def %s in block %s has no Storage", d.Name, blk.Label)
			}
			for _, u := range in.Use() {
				if s, ok := u.(*ir.Sym); ok {
					require.NotNilf(t, s.Storage, "use %s in block %s has no Storage", s.Name, blk.Label)
				}
			}
		}
	}
}

func TestAllocateAssignsStorageToEveryValue(t *testing.T) {
	p := buildIR(t, "int a[3]; int n; a[2]=7; n=10; while (n) n=n+(-1);")
	main := findFunc(p, "__main__")
	require.NotNil(t, main)

	Allocate(main)
	assertFullyAllocated(t, main)
	require.Equal(t, 0, main.FrameSize%stackAlign, "frame size must respect RV32's 16-byte stack alignment")
}

func TestAllocateAssignsParamRegistersInOrder(t *testing.T) {
	src := "float f(int a; int b;) { return a+b; } int r; r=f(1;2;);"
	p := buildIR(t, src)
	f := findFunc(p, "f")
	require.NotNil(t, f)

	Allocate(f)
	require.Len(t, f.Params, 2)
	require.Equal(t, ir.RegStorage{Reg: "a0"}, f.Params[0].Storage)
	require.Equal(t, ir.RegStorage{Reg: "a1"}, f.Params[1].Storage)
}

// Any value live across a Call must be spilled to the stack: this design
// carries no callee-saved register class, so a register assignment could
// not survive the call.
func TestAllocateForceSpillsValuesLiveAcrossCalls(t *testing.T) {
	src := "int g(int x;) { return x; } int a; int b; a=1; b=g(2;)+a;"
	p := buildIR(t, src)
	main := findFunc(p, "__main__")
	require.NotNil(t, main)

	Allocate(main)
	assertFullyAllocated(t, main)

	for _, blk := range main.Blocks {
		for i, in := range blk.Instrs {
			call, ok := in.(*ir.Call)
			if !ok {
				continue
			}
			for j := 0; j < i; j++ {
				for _, d := range blk.Instrs[j].Def() {
					usedLater := false
					for k := i + 1; k < len(blk.Instrs); k++ {
						for _, u := range blk.Instrs[k].Use() {
							if s, ok := u.(*ir.Sym); ok && s == d {
								usedLater = true
							}
						}
					}
					if usedLater {
						_, isStack := d.Storage.(ir.StackStorage)
						require.Truef(t, isStack, "%s is live across call %v but was not spilled", d.Name, call)
					}
				}
			}
		}
	}
}
