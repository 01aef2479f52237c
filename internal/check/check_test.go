// Exercises the type checker by driving real source through lexer/parser/AST
// building first, then running the checker and asserting on the resulting
// Cast insertions, resolved symbols and accumulated diagnostics.
package check

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"vslrv/internal/ast"
	"vslrv/internal/grammar"
	"vslrv/internal/lexer"
	"vslrv/internal/parser"
	"vslrv/internal/types"
	"vslrv/internal/util"
)

func buildChecked(t *testing.T, src string) (*ast.Program, *util.Errors) {
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
	New(errs).Check(prog)
	return prog, errs
}

// A differing int/float pair on an Assign wraps the value in
// a Cast to the target's base type.
func TestCheckAssignInsertsCastOnTypeMismatch(t *testing.T) {
	prog, errs := buildChecked(t, "float f; f=1;")
	require.Equal(t, 0, errs.Len())
	assign := prog.Stmts[0].(*ast.AssignStmt)
	cast, ok := assign.Value.(*ast.CastExpr)
	require.True(t, ok, "assigning an int literal to a float variable must insert a Cast")
	require.Equal(t, types.KindInt, cast.From.Kind)
	require.Equal(t, types.KindFloat, cast.Type().Kind)
}

// A non-bool If/While condition is wrapped in a Cast to bool.
func TestCheckConditionCastsNonBoolToBool(t *testing.T) {
	prog, errs := buildChecked(t, "int n; while (n) n=n+1;")
	require.Equal(t, 0, errs.Len())
	while := prog.Stmts[0].(*ast.WhileStmt)
	cast, ok := while.Cond.(*ast.CastExpr)
	require.True(t, ok)
	require.Equal(t, types.KindBool, cast.Type().Kind)
}

// An int/float operand pair casts the integer side to float; the result
// type is bool for relational operators.
func TestCheckBinaryWidensIntToFloatAndTypesComparisonAsBool(t *testing.T) {
	prog, errs := buildChecked(t, "float f; int n; if (n < f) f=1;")
	require.Equal(t, 0, errs.Len())
	ifStmt := prog.Stmts[0].(*ast.IfStmt)
	bin := ifStmt.Cond.(*ast.BinaryExpr)
	require.Equal(t, types.KindBool, bin.Type().Kind)
	_, leftIsCast := bin.Left.(*ast.CastExpr)
	require.True(t, leftIsCast, "the int operand n must be cast to float")
}

// Undeclared identifiers and calls are recorded as Semantic errors and
// traversal substitutes int so it can continue.
func TestCheckUndeclaredFunctionIsSemanticError(t *testing.T) {
	prog, errs := buildChecked(t, "int r; r=g(1;);")
	require.Equal(t, 1, errs.Len())
	require.Equal(t, util.Semantic, errs.List()[0].Category)

	assign := prog.Stmts[0].(*ast.AssignStmt)
	call := assign.Value.(*ast.CallExpr)
	require.Equal(t, types.KindInt, call.Type().Kind)
}

// Redefinition in the same scope is an error, never a silent overwrite.
func TestCheckRedefinitionIsSemanticError(t *testing.T) {
	_, errs := buildChecked(t, "int x; float x;")
	require.Equal(t, 1, errs.Len())
}

// Defining a function within a function body is rejected.
func TestCheckNestedFunctionDeclIsRejected(t *testing.T) {
	_, errs := buildChecked(t, "void outer() { int inner(int a;) { return a; } }")
	require.GreaterOrEqual(t, errs.Len(), 1)
}

// A Call's arguments are cast to their formal's base type.
func TestCheckCallArgumentCast(t *testing.T) {
	prog, errs := buildChecked(t, "float f(float a;) { return a; } float r; r=f(1;);")
	require.Equal(t, 0, errs.Len())

	fn := prog.Decls[0].(*ast.FuncDecl)
	ret := fn.Stmts[0].(*ast.ReturnStmt)
	_, isCast := ret.Value.(*ast.CastExpr)
	require.False(t, isCast, "a already float a, returning it needs no cast")

	assign := prog.Stmts[0].(*ast.AssignStmt)
	call := assign.Value.(*ast.CallExpr)
	_, argCast := call.Args[0].(*ast.CastExpr)
	require.True(t, argCast, "passing an int literal to a float formal must cast")
}

// Index requires an Array receiver and an int index; the
// expression's type is the array's element type.
func TestCheckIndexType(t *testing.T) {
	prog, errs := buildChecked(t, "float a[3]; int i; a[i]=1;")
	require.Equal(t, 0, errs.Len())
	assign := prog.Stmts[0].(*ast.AssignStmt)
	idx := assign.Target.(*ast.IndexExpr)
	require.Equal(t, types.KindFloat, idx.Type().Kind)
}
