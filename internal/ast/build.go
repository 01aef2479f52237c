package ast

import (
	"strconv"

	"vslrv/internal/parser"
	"vslrv/internal/types"
)

// Build performs the pure structural translation from a concrete parse
// tree to the typed-shape (not yet type-checked) AST, keyed on non-terminal
// name and shape (child count / first child symbol).
func Build(root *parser.Node) *Program {
	decls := buildDecls(child(root, 0))
	stmts := buildStmts(child(root, 1))
	return &Program{Decls: decls, Stmts: stmts}
}

func child(n *parser.Node, i int) *parser.Node {
	if n == nil || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// buildDecls flattens the left-recursive `Decls -> Decls Decl | ε`.
func buildDecls(n *parser.Node) []Decl {
	if n == nil || len(n.Children) == 0 {
		return nil
	}
	return append(buildDecls(child(n, 0)), buildDecl(child(n, 1)))
}

// buildStmts flattens the left-recursive `Stmts -> Stmts Stmt | ε`.
func buildStmts(n *parser.Node) []Stmt {
	if n == nil || len(n.Children) == 0 {
		return nil
	}
	return append(buildStmts(child(n, 0)), buildStmt(child(n, 1)))
}

func buildType(n *parser.Node) types.Type {
	switch child(n, 0).Symbol {
	case "INT_KW":
		return types.Int
	case "FLOAT_KW":
		return types.Float
	default:
		return types.Void
	}
}

// buildDecl dispatches the three Decl shapes by child count: scalar
// (Type ID SEMI, 3 children), array (Type ID [ NUM ] SEMI, 6 children),
// function definition (9 children).
func buildDecl(n *parser.Node) Decl {
	typ := buildType(child(n, 0))
	name := child(n, 1).Lexeme
	switch len(n.Children) {
	case 3:
		return &VarDecl{Type: typ, Name: name, Len: 0, Pos: n.Start}
	case 6:
		length := parseArrayLen(child(n, 3))
		return &VarDecl{Type: typ, Name: name, Len: length, Pos: n.Start}
	default: // 9: function definition
		params := buildParams(child(n, 3))
		locals := buildDecls(child(n, 6))
		var localVars []*VarDecl
		var nestedFuncs []*FuncDecl
		for _, d := range locals {
			switch ld := d.(type) {
			case *VarDecl:
				localVars = append(localVars, ld)
			case *FuncDecl:
				nestedFuncs = append(nestedFuncs, ld)
			}
		}
		stmts := buildStmts(child(n, 7))
		return &FuncDecl{RetType: typ, Name: name, Params: params, Locals: localVars, NestedFuncs: nestedFuncs, Stmts: stmts, Pos: n.Start}
	}
}

// parseArrayLen reads the NUM literal giving an array's declared length.
// A length that is not > 0 is corrected to 1 here. No diagnostic is raised
// for it, here or in type checking, which only ever sees the corrected
// length.
func parseArrayLen(numNode *parser.Node) int {
	v, err := strconv.Atoi(numNode.Lexeme)
	if err != nil || v <= 0 {
		return 1
	}
	return v
}

// buildParams flattens `Params -> ε | ParamList` and
// `ParamList -> Param SEMI | ParamList Param SEMI`.
func buildParams(n *parser.Node) []Decl {
	if n == nil || len(n.Children) == 0 {
		return nil
	}
	return buildParamList(child(n, 0))
}

func buildParamList(n *parser.Node) []Decl {
	if len(n.Children) == 2 {
		return []Decl{buildParam(child(n, 0))}
	}
	return append(buildParamList(child(n, 0)), buildParam(child(n, 1)))
}

// buildParam dispatches the three Param shapes by child count: scalar (2),
// array with unknown length (4, Len=-1), function-typed (5, modelled as a
// FuncDecl with one unnamed VarDecl parameter).
func buildParam(n *parser.Node) Decl {
	typ := buildType(child(n, 0))
	name := child(n, 1).Lexeme
	switch len(n.Children) {
	case 2:
		return &VarDecl{Type: typ, Name: name, Len: 0, Pos: n.Start}
	case 4:
		return &VarDecl{Type: typ, Name: name, Len: -1, Pos: n.Start}
	default: // 5: Type ID ( Type )
		innerType := buildType(child(n, 3))
		inner := &VarDecl{Type: innerType, Name: "", Len: 0, Pos: n.Start}
		return &FuncDecl{RetType: typ, Name: name, Params: []Decl{inner}, IsParam: true, Pos: n.Start}
	}
}

// buildStmt dispatches on the first (or, for RETURN, second) child symbol.
func buildStmt(n *parser.Node) Stmt {
	first := child(n, 0)
	switch first.Symbol {
	case "Assign":
		return buildAssign(first)
	case "If":
		return buildIf(first)
	case "While":
		return buildWhile(first)
	case "RETURN":
		if len(n.Children) == 2 {
			return &ReturnStmt{Pos: n.Start}
		}
		return &ReturnStmt{Value: buildExpr(child(n, 1)), Pos: n.Start}
	case "Block":
		return buildBlock(first)
	case "ExprEval":
		call := buildExpr(child(first, 0))
		return &ExprEvalStmt{Expr: call, Pos: n.Start}
	default:
		return &BlockStmt{Pos: n.Start}
	}
}

func buildAssign(n *parser.Node) *AssignStmt {
	if len(n.Children) == 3 {
		// ID ASSIGN Expr
		id := &IdExpr{Name: child(n, 0).Lexeme, typed: typed{Pos: child(n, 0).Start}}
		return &AssignStmt{Target: id, Value: buildExpr(child(n, 2)), Pos: n.Start}
	}
	// ID [ Expr ] ASSIGN Expr
	id := &IdExpr{Name: child(n, 0).Lexeme, typed: typed{Pos: child(n, 0).Start}}
	idx := &IndexExpr{Array: id, Index: buildExpr(child(n, 2)), typed: typed{Pos: n.Start}}
	return &AssignStmt{Target: idx, Value: buildExpr(child(n, 5)), Pos: n.Start}
}

func buildIf(n *parser.Node) *IfStmt {
	cond := buildCond(child(n, 2))
	then := buildStmt(child(n, 4))
	if len(n.Children) == 7 {
		els := buildStmt(child(n, 6))
		return &IfStmt{Cond: cond, Then: then, Else: els, Pos: n.Start}
	}
	return &IfStmt{Cond: cond, Then: then, Pos: n.Start}
}

func buildWhile(n *parser.Node) *WhileStmt {
	cond := buildCond(child(n, 2))
	body := buildStmt(child(n, 4))
	return &WhileStmt{Cond: cond, Body: body, Pos: n.Start}
}

func buildBlock(n *parser.Node) *BlockStmt {
	return &BlockStmt{Body: buildStmts(child(n, 1)), Pos: n.Start}
}

// buildCond lowers the non-canonical surface relational operators (>,≥,≠)
// onto the canonical Binary op set {+,*,=,<,≤}. A bare Expr alternative (no
// comparison) passes through unchanged — this is what lets `while (n) ...`
// treat n itself as a truth value, cast to bool later by type checking.
func buildCond(n *parser.Node) Expr {
	if len(n.Children) == 1 {
		return buildExpr(child(n, 0))
	}
	left := buildExpr(child(n, 0))
	right := buildExpr(child(n, 2))
	pos := n.Start
	switch child(n, 1).Symbol {
	case "LT":
		return &BinaryExpr{Op: OpLt, Left: left, Right: right, typed: typed{Pos: pos}}
	case "LE":
		return &BinaryExpr{Op: OpLe, Left: left, Right: right, typed: typed{Pos: pos}}
	case "EQ":
		return &BinaryExpr{Op: OpEq, Left: left, Right: right, typed: typed{Pos: pos}}
	case "GT":
		// a > b  ==  b < a (operand swap).
		return &BinaryExpr{Op: OpLt, Left: right, Right: left, typed: typed{Pos: pos}}
	case "GE":
		// a >= b  ==  !(a < b)  ==  (a<b) == 0
		lt := &BinaryExpr{Op: OpLt, Left: left, Right: right, typed: typed{Pos: pos}}
		zero := &IntLit{Val: 0, typed: typed{Pos: pos}}
		return &BinaryExpr{Op: OpEq, Left: lt, Right: zero, typed: typed{Pos: pos}}
	default: // NE
		// a != b  ==  (a==b) == 0
		eq := &BinaryExpr{Op: OpEq, Left: left, Right: right, typed: typed{Pos: pos}}
		zero := &IntLit{Val: 0, typed: typed{Pos: pos}}
		return &BinaryExpr{Op: OpEq, Left: eq, Right: zero, typed: typed{Pos: pos}}
	}
}

// buildExpr handles the left-recursive `Expr -> Expr PLUS Term | Term` and
// `Term -> Term STAR Factor | Factor` chains, plus Factor's leaves.
func buildExpr(n *parser.Node) Expr {
	switch n.Symbol {
	case "Expr":
		if len(n.Children) == 1 {
			return buildExpr(child(n, 0))
		}
		return &BinaryExpr{Op: OpAdd, Left: buildExpr(child(n, 0)), Right: buildExpr(child(n, 2)), typed: typed{Pos: n.Start}}
	case "Term":
		if len(n.Children) == 1 {
			return buildExpr(child(n, 0))
		}
		return &BinaryExpr{Op: OpMul, Left: buildExpr(child(n, 0)), Right: buildExpr(child(n, 2)), typed: typed{Pos: n.Start}}
	case "Factor":
		return buildFactor(n)
	case "Call":
		return buildCall(n)
	default:
		return buildFactor(n)
	}
}

// buildFactor dispatches Factor's seven alternatives, including unary minus
// folded directly into a negated int/float literal rather than modelled as
// a general unary operator.
func buildFactor(n *parser.Node) Expr {
	first := child(n, 0)
	switch {
	case first.Symbol == "NUM":
		v, _ := strconv.ParseInt(first.Lexeme, 10, 32)
		return &IntLit{Val: int32(v), typed: typed{Pos: n.Start}}
	case first.Symbol == "FLOATNUM":
		v, _ := strconv.ParseFloat(first.Lexeme, 32)
		return &FloatLit{Val: float32(v), typed: typed{Pos: n.Start}}
	case first.Symbol == "MINUS" && child(n, 1).Symbol == "NUM":
		v, _ := strconv.ParseInt(child(n, 1).Lexeme, 10, 32)
		return &IntLit{Val: int32(-v), typed: typed{Pos: n.Start}}
	case first.Symbol == "MINUS":
		v, _ := strconv.ParseFloat(child(n, 1).Lexeme, 32)
		return &FloatLit{Val: float32(-v), typed: typed{Pos: n.Start}}
	case first.Symbol == "ID" && len(n.Children) == 1:
		return &IdExpr{Name: first.Lexeme, typed: typed{Pos: n.Start}}
	case first.Symbol == "ID": // ID [ Expr ]
		id := &IdExpr{Name: first.Lexeme, typed: typed{Pos: n.Start}}
		return &IndexExpr{Array: id, Index: buildExpr(child(n, 2)), typed: typed{Pos: n.Start}}
	case first.Symbol == "Call":
		return buildCall(first)
	default: // ( Expr )
		return buildExpr(child(n, 1))
	}
}

func buildCall(n *parser.Node) *CallExpr {
	name := child(n, 0).Lexeme
	args := buildArgs(child(n, 2))
	return &CallExpr{Name: name, Args: args, typed: typed{Pos: n.Start}}
}

// buildArgs flattens `Args -> ε | ArgList` and
// `ArgList -> Expr SEMI | ArgList Expr SEMI`.
func buildArgs(n *parser.Node) []Expr {
	if n == nil || len(n.Children) == 0 {
		return nil
	}
	return buildArgList(child(n, 0))
}

func buildArgList(n *parser.Node) []Expr {
	if len(n.Children) == 2 {
		return []Expr{buildExpr(child(n, 0))}
	}
	return append(buildArgList(child(n, 0)), buildExpr(child(n, 1)))
}
