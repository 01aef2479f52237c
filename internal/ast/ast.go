// Package ast defines the typed abstract syntax tree and builds it from a
// parser.Node concrete parse tree.
//
// Each node family (decl/expr/stmt) is a tagged variant: an interface plus
// one concrete struct per shape. Every later pass (internal/check,
// internal/ir) dispatches on these with a Go type switch instead of a
// virtual-call chain.
package ast

import (
	"vslrv/internal/types"
	"vslrv/internal/util"
)

// Decl is the family of top-level/nested declarations.
type Decl interface{ declNode() }

// Stmt is the family of statements.
type Stmt interface{ stmtNode() }

// Expr is the family of expressions. Every expression carries a resolved
// type once type checking completes.
type Expr interface {
	exprNode()
	Type() types.Type
	SetType(types.Type)
	Position() util.Pos
}

// typed is embedded by every Expr implementation to supply Type/SetType.
type typed struct {
	Typ types.Type
	Pos util.Pos
}

func (t *typed) Type() types.Type      { return t.Typ }
func (t *typed) SetType(ty types.Type) { t.Typ = ty }
func (t *typed) Position() util.Pos    { return t.Pos }

// Program is the AST root: Program -> Decls Stmts. The free-floating Stmts
// become the body of an implicit __main__ function, synthesized by the IR
// builder, not here — the AST layer only records them as given.
type Program struct {
	Decls []Decl
	Stmts []Stmt
}

// VarDecl is a scalar or array variable declaration. Len == 0 is scalar,
// Len > 0 is a fixed-size array, Len == -1 is an array parameter whose size
// is unknown.
type VarDecl struct {
	Type types.Type
	Name string
	Len  int
	Pos  util.Pos
	Sym  *types.Symbol
}

func (*VarDecl) declNode() {}

// FuncDecl is a function definition, including the synthesized __main__.
type FuncDecl struct {
	RetType types.Type
	Name    string
	// Params holds *VarDecl for scalar/array parameters and *FuncDecl for
	// function-typed parameters: a function-typed formal (Type ID (Type)) is
	// modelled as a FuncDecl with a single unnamed parameter.
	Params []Decl
	Locals []*VarDecl
	// NestedFuncs holds function definitions found among this function's own
	// body declarations. The grammar permits them (Decl's function form
	// contains Decls, and Decls -> Decls Decl), but the language forbids
	// them: type checking rejects every entry here.
	NestedFuncs []*FuncDecl
	Stmts       []Stmt
	Scope       *types.SymbolTable
	Sym         *types.Symbol
	Pos         util.Pos
	// IsParam marks a function-typed formal parameter modelled as a
	// FuncDecl with a single unnamed parameter — such a FuncDecl has no
	// body.
	IsParam bool
}

func (*FuncDecl) declNode() {}

// AssignStmt assigns Value to Target (an Id or Index expression).
type AssignStmt struct {
	Target Expr
	Value  Expr
	Pos    util.Pos
}

func (*AssignStmt) stmtNode() {}

// IfStmt is `if (Cond) Then [else Else]`. Else is nil when absent — that
// absence is load-bearing: the IR builder must not synthesize an Lelse
// block when Else == nil.
type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt
	Pos  util.Pos
}

func (*IfStmt) stmtNode() {}

// WhileStmt is `while (Cond) Body`.
type WhileStmt struct {
	Cond Expr
	Body Stmt
	Pos  util.Pos
}

func (*WhileStmt) stmtNode() {}

// ReturnStmt is `return [Value];`. Value is nil for a bare return.
type ReturnStmt struct {
	Value Expr
	Pos   util.Pos
}

func (*ReturnStmt) stmtNode() {}

// BlockStmt is `{ Body... }`. Blocks do not introduce a new scope: this
// language forbids declarations inside blocks.
type BlockStmt struct {
	Body []Stmt
	Pos  util.Pos
}

func (*BlockStmt) stmtNode() {}

// ExprEvalStmt is a statement that is only a call expression, syntactically.
type ExprEvalStmt struct {
	Expr Expr
	Pos  util.Pos
}

func (*ExprEvalStmt) stmtNode() {}

// BinOp is the canonical Binary operator set: {+,*,=,<,≤}. The surface
// grammar's >,≥,≠ never reach this type — they are lowered at AST-build time
// (see build.go, buildCond).
type BinOp int

const (
	OpAdd BinOp = iota
	OpMul
	OpEq
	OpLt
	OpLe
)

// IntLit is a 32-bit integer literal.
type IntLit struct {
	typed
	Val int32
}

func (*IntLit) exprNode() {}

// FloatLit is a 32-bit floating point literal.
type FloatLit struct {
	typed
	Val float32
}

func (*FloatLit) exprNode() {}

// IdExpr is an identifier reference, resolved to a Symbol by type checking.
type IdExpr struct {
	typed
	Name string
	Sym  *types.Symbol
}

func (*IdExpr) exprNode() {}

// IndexExpr is `Array[Index]`.
type IndexExpr struct {
	typed
	Array Expr
	Index Expr
}

func (*IndexExpr) exprNode() {}

// BinaryExpr is a canonical binary operation.
type BinaryExpr struct {
	typed
	Op          BinOp
	Left, Right Expr
}

func (*BinaryExpr) exprNode() {}

// CallExpr is `Name(Args...)`, resolved to a function Symbol (global or a
// function-typed parameter) by type checking.
type CallExpr struct {
	typed
	Name string
	Args []Expr
	Fn   *types.Symbol
}

func (*CallExpr) exprNode() {}

// CastExpr wraps Inner (whose type equals From) to produce a value of
// type To: the wrapper's own Type() equals To.
type CastExpr struct {
	typed
	From  types.Type
	Inner Expr
}

func (*CastExpr) exprNode() {}
