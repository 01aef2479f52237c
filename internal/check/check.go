// Package check implements one traversal of the AST doing name resolution,
// expression type inference, implicit-conversion (Cast) insertion and error
// accumulation, dispatching on node shape with a Go type switch.
package check

import (
	"vslrv/internal/ast"
	"vslrv/internal/types"
	"vslrv/internal/util"
)

// Checker holds the one piece of mutable traversal state: the current
// scope and the symbol of the function currently being checked (nil at
// the top level, where free statements live; checkReturn treats that as a
// void return type).
type Checker struct {
	Global  *types.SymbolTable
	Errors  *util.Errors
	scope   *types.SymbolTable
	current *types.Symbol // nil at top level.
}

// New returns a Checker with a fresh global scope.
func New(errs *util.Errors) *Checker {
	g := types.NewSymbolTable()
	return &Checker{Global: g, Errors: errs, scope: g}
}

// Check runs the one traversal over prog, mutating it in place (inserting
// Cast nodes, resolving Sym pointers) and recording diagnostics.
func (c *Checker) Check(prog *ast.Program) {
	for _, d := range prog.Decls {
		c.checkDecl(d, true)
	}
	for i, s := range prog.Stmts {
		prog.Stmts[i] = c.checkStmt(s)
	}
}

// checkDecl installs and checks one declaration. topLevel distinguishes
// global declarations from ones nested in a function body, where a nested
// FuncDecl is rejected.
func (c *Checker) checkDecl(d ast.Decl, topLevel bool) {
	switch n := d.(type) {
	case *ast.VarDecl:
		c.checkVarDecl(n)
	case *ast.FuncDecl:
		if !topLevel && !n.IsParam {
			c.Errors.Append(n.Pos, util.Semantic, "defining function within function body: %s", n.Name)
			return
		}
		c.checkFuncDecl(n)
	}
}

func (c *Checker) declType(d ast.Decl) (name string, t types.Type) {
	switch n := d.(type) {
	case *ast.VarDecl:
		if n.Len > 0 {
			return n.Name, types.Array(n.Type, n.Len)
		}
		if n.Len < 0 {
			return n.Name, types.Array(n.Type, 0)
		}
		return n.Name, n.Type
	case *ast.FuncDecl:
		return n.Name, types.Void // Function-typed param type is filled in by checkFuncDecl.
	}
	return "", types.Void
}

// checkVarDecl rejects void-typed variables and redefinitions.
func (c *Checker) checkVarDecl(n *ast.VarDecl) {
	if n.Type.Kind == types.KindVoid {
		c.Errors.Append(n.Pos, util.Semantic, "variable %q declared void", n.Name)
	}
	_, declType := c.declType(n)
	sym := types.NewVariable(n.Name, declType)
	n.Sym = sym
	if c.scope.Put(sym) {
		c.Errors.Append(n.Pos, util.Semantic, "redefinition of %q", n.Name)
	}
}

// checkFuncDecl installs the function before descending (so recursive
// calls resolve), pushes a new scope, installs parameters, rejects nested
// function declarations in the body, then pops the scope on exit.
func (c *Checker) checkFuncDecl(n *ast.FuncDecl) {
	paramSyms := make([]*types.Symbol, 0, len(n.Params))
	for _, p := range n.Params {
		paramSyms = append(paramSyms, c.paramSymbol(p))
	}
	fn := types.NewFunction(n.Name, n.RetType, paramSyms)
	fn.IsParam = n.IsParam
	n.Sym = fn
	if c.scope.Put(fn) {
		c.Errors.Append(n.Pos, util.Semantic, "redefinition of %q", n.Name)
	}
	if n.IsParam {
		return // Signature only — no body to check.
	}

	outer := c.scope
	outerFn := c.current
	c.scope = outer.NewChild()
	c.current = fn
	n.Scope = c.scope

	for i, p := range n.Params {
		sym := paramSyms[i]
		if c.scope.Put(sym) {
			c.Errors.Append(n.Pos, util.Semantic, "redefinition of parameter %q", sym.Name)
		}
		switch pn := p.(type) {
		case *ast.FuncDecl:
			pn.Sym = sym
		case *ast.VarDecl:
			pn.Sym = sym
		}
	}
	for _, l := range n.Locals {
		c.checkVarDecl(l)
	}
	for _, nf := range n.NestedFuncs {
		c.checkDecl(nf, false)
	}
	for i, s := range n.Stmts {
		n.Stmts[i] = c.checkStmt(s)
	}

	c.scope = outer
	c.current = outerFn
}

// paramSymbol builds the Symbol for one formal parameter without
// installing it — installation happens once the function's own child
// scope exists.
func (c *Checker) paramSymbol(p ast.Decl) *types.Symbol {
	switch n := p.(type) {
	case *ast.VarDecl:
		if n.Len != 0 {
			return types.NewVariable(n.Name, types.Array(n.Type, 0))
		}
		return types.NewVariable(n.Name, n.Type)
	case *ast.FuncDecl:
		inner := n.Params[0].(*ast.VarDecl)
		fn := types.NewFunction(n.Name, n.RetType, []*types.Symbol{types.NewVariable("", inner.Type)})
		fn.IsParam = true
		return fn
	}
	return nil
}

func (c *Checker) checkStmt(s ast.Stmt) ast.Stmt {
	switch n := s.(type) {
	case *ast.AssignStmt:
		return c.checkAssign(n)
	case *ast.IfStmt:
		n.Cond = c.checkCondition(n.Cond)
		n.Then = c.checkStmt(n.Then)
		if n.Else != nil {
			n.Else = c.checkStmt(n.Else)
		}
		return n
	case *ast.WhileStmt:
		n.Cond = c.checkCondition(n.Cond)
		n.Body = c.checkStmt(n.Body)
		return n
	case *ast.ReturnStmt:
		return c.checkReturn(n)
	case *ast.BlockStmt:
		for i, st := range n.Body {
			n.Body[i] = c.checkStmt(st)
		}
		return n
	case *ast.ExprEvalStmt:
		n.Expr = c.checkExpr(n.Expr)
		return n
	}
	return s
}

// checkAssign enforces the Assign rules: target must be Id or Index;
// neither side may be array/function-typed or void; a differing base type
// on the value side is wrapped in a Cast.
func (c *Checker) checkAssign(n *ast.AssignStmt) *ast.AssignStmt {
	switch n.Target.(type) {
	case *ast.IdExpr, *ast.IndexExpr:
	default:
		c.Errors.Append(n.Pos, util.Semantic, "assignment target must be a variable or array element")
	}
	n.Target = c.checkExpr(n.Target)
	n.Value = c.checkExpr(n.Value)

	tt := n.Target.Type()
	vt := n.Value.Type()
	if tt.Kind == types.KindArray || tt.Kind == types.KindFunc || tt.Kind == types.KindVoid {
		c.Errors.Append(n.Pos, util.Semantic, "cannot assign to %s-typed target", types.ToString(tt))
		return n
	}
	if vt.Kind == types.KindArray || vt.Kind == types.KindFunc || vt.Kind == types.KindVoid {
		c.Errors.Append(n.Pos, util.Semantic, "cannot assign %s-typed value", types.ToString(vt))
		return n
	}
	if !types.Equals(tt, vt) {
		n.Value = castTo(n.Value, tt)
	}
	return n
}

// checkCondition casts a non-bool condition to bool.
func (c *Checker) checkCondition(e ast.Expr) ast.Expr {
	e = c.checkExpr(e)
	if e.Type().Kind != types.KindBool {
		return castTo(e, types.Bool)
	}
	return e
}

// checkReturn requires a value exactly when the enclosing function's
// return type is non-void, casting it to match.
func (c *Checker) checkReturn(n *ast.ReturnStmt) *ast.ReturnStmt {
	retType := types.Void
	if c.current != nil {
		retType = *c.current.Type.Ret
	}
	if n.Value == nil {
		if retType.Kind != types.KindVoid {
			c.Errors.Append(n.Pos, util.Semantic, "missing return value for non-void function")
		}
		return n
	}
	n.Value = c.checkExpr(n.Value)
	if retType.Kind == types.KindVoid {
		c.Errors.Append(n.Pos, util.Semantic, "return value in void function")
		return n
	}
	if !types.Equals(n.Value.Type(), retType) {
		n.Value = castTo(n.Value, retType)
	}
	return n
}

// checkExpr resolves and annotates one expression, returning the
// (possibly Cast-wrapped) replacement.
func (c *Checker) checkExpr(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.IntLit:
		n.SetType(types.Int)
		return n
	case *ast.FloatLit:
		n.SetType(types.Float)
		return n
	case *ast.IdExpr:
		sym := c.scope.GetRecursive(n.Name)
		if sym == nil {
			c.Errors.Append(n.Position(), util.Semantic, "undeclared identifier: %s", n.Name)
			n.SetType(types.Int)
			return n
		}
		n.Sym = sym
		n.SetType(sym.Type)
		return n
	case *ast.IndexExpr:
		return c.checkIndex(n)
	case *ast.BinaryExpr:
		return c.checkBinary(n)
	case *ast.CallExpr:
		return c.checkCall(n)
	case *ast.CastExpr:
		n.Inner = c.checkExpr(n.Inner)
		return n
	}
	return e
}

// checkIndex requires an Array(b,n) receiver and an int index.
func (c *Checker) checkIndex(n *ast.IndexExpr) ast.Expr {
	n.Array = c.checkExpr(n.Array)
	n.Index = c.checkExpr(n.Index)
	at := n.Array.Type()
	if at.Kind != types.KindArray {
		c.Errors.Append(n.Position(), util.Semantic, "indexed expression is not an array")
		n.SetType(types.Int)
		return n
	}
	if n.Index.Type().Kind != types.KindInt {
		c.Errors.Append(n.Position(), util.Semantic, "array index must be int")
	}
	n.SetType(*at.Elem)
	return n
}

// checkBinary requires scalar numeric operands; a differing int/float pair
// casts the integer side to float.
func (c *Checker) checkBinary(n *ast.BinaryExpr) ast.Expr {
	n.Left = c.checkExpr(n.Left)
	n.Right = c.checkExpr(n.Right)

	lt, rt := n.Left.Type(), n.Right.Type()
	if !types.IsNumeric(lt) || !types.IsNumeric(rt) {
		c.Errors.Append(n.Position(), util.Semantic, "binary operands must be numeric")
		n.SetType(types.Int)
		return n
	}
	if !types.Equals(lt, rt) {
		if lt.Kind == types.KindInt {
			n.Left = castTo(n.Left, types.Float)
		} else {
			n.Right = castTo(n.Right, types.Float)
		}
	}
	common := n.Left.Type()
	switch n.Op {
	case ast.OpAdd, ast.OpMul:
		n.SetType(common)
	default: // OpEq, OpLt, OpLe
		n.SetType(types.Bool)
	}
	return n
}

// checkCall requires the name to resolve to a function (global or a
// function-typed parameter visible through the scope chain), matching
// arity, and casts each argument to its formal's base type.
func (c *Checker) checkCall(n *ast.CallExpr) ast.Expr {
	sym := c.scope.GetRecursive(n.Name)
	if sym == nil || !sym.IsFunction {
		c.Errors.Append(n.Position(), util.Semantic, "undeclared function: %s", n.Name)
		n.SetType(types.Int)
		for i, a := range n.Args {
			n.Args[i] = c.checkExpr(a)
		}
		return n
	}
	n.Fn = sym
	if len(n.Args) != len(sym.Params) {
		c.Errors.Append(n.Position(), util.Semantic, "function %s expects %d argument(s), got %d", n.Name, len(sym.Params), len(n.Args))
	}
	for i, a := range n.Args {
		a = c.checkExpr(a)
		if i < len(sym.Params) {
			formal := sym.Params[i].Type
			if (formal.Kind == types.KindArray) != (a.Type().Kind == types.KindArray) {
				c.Errors.Append(a.Position(), util.Semantic, "argument %d of %s: array/scalar mismatch", i+1, n.Name)
			} else if !types.Equals(formal, a.Type()) && types.IsNumeric(formal) && types.IsNumeric(a.Type()) {
				a = castTo(a, formal)
			}
		}
		n.Args[i] = a
	}
	n.SetType(*sym.Type.Ret)
	return n
}

// castTo wraps e in a Cast node unless it is already of type to.
func castTo(e ast.Expr, to types.Type) ast.Expr {
	if types.Equals(e.Type(), to) {
		return e
	}
	c := &ast.CastExpr{From: e.Type(), Inner: e}
	c.SetType(to)
	c.Pos = e.Position()
	return c
}
