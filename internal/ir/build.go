package ir

import (
	"fmt"

	"vslrv/internal/ast"
	"vslrv/internal/types"
	"vslrv/internal/util"
)

// Build performs one traversal of the typed AST, emitting a typed
// three-address IRProgram: alloc/load/store memory discipline, getelptr
// array indexing, and structured control flow lowered to labelled basic
// blocks, dispatching on AST node shape with a Go type switch rather than a
// visitor interface.
//
// Two design points worth calling out: (1) array and function-typed
// parameters are modelled with one extra level of pointer indirection —
// their "home" alloc slot holds the incoming address itself, loaded through
// once to produce the Pointer(Array)/Pointer(Func) value a GetElPtr base or
// Call callee needs; (2) the `while` back-edge targets a header block that
// re-evaluates the condition every iteration, so the loop body's own
// assignments to the condition's variables are observed on every pass
// rather than only the first.
type builder struct {
	globals map[*types.Symbol]*Sym
	funcs   map[*types.Symbol]*Sym

	fn     *IRFunc
	block  *BasicBlock
	vars   map[*types.Symbol]*Sym
	labels util.Labels
	tmp    int
}

// Build lowers a fully type-checked Program into an IRProgram. prog must
// already have been passed through check.Checker.Check.
func Build(prog *ast.Program) *IRProgram {
	b := &builder{globals: map[*types.Symbol]*Sym{}, funcs: map[*types.Symbol]*Sym{}}
	p := &IRProgram{}

	for _, d := range prog.Decls {
		if vd, ok := d.(*ast.VarDecl); ok {
			g := &Sym{Name: "@" + vd.Name, Type: types.Pointer(vd.Sym.Type), Storage: StaticStorage{}}
			b.globals[vd.Sym] = g
			p.Globals = append(p.Globals, g)
		}
	}
	for _, d := range prog.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok && !fd.IsParam {
			b.funcs[fd.Sym] = &Sym{Name: "@" + fd.Name, Type: fd.Sym.Type, Storage: StaticStorage{}}
		}
	}
	for _, d := range prog.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok && !fd.IsParam {
			p.Functions = append(p.Functions, b.buildFunc(fd))
		}
	}

	// Implicit __main__: the program's free-floating
	// statements become its body. These statements were type-checked
	// against the global scope directly (check.Checker.Check never pushes
	// a child scope for them), so __main__ needs no parameters/locals of
	// its own — every Id it touches resolves through b.globals.
	mainSym := types.NewFunction("__main__", types.Void, nil)
	b.funcs[mainSym] = &Sym{Name: "@__main__", Type: mainSym.Type, Storage: StaticStorage{}}
	main := &ast.FuncDecl{Name: "__main__", RetType: types.Void, Stmts: prog.Stmts, Sym: mainSym}
	p.Functions = append(p.Functions, b.buildFunc(main))

	return p
}

func (b *builder) buildFunc(fd *ast.FuncDecl) *IRFunc {
	f := &IRFunc{Sym: b.funcs[fd.Sym], EpilogueLabel: ".Lepilogue_" + fd.Name}
	b.fn = f
	b.vars = map[*types.Symbol]*Sym{}
	b.tmp = 0
	b.labels = util.Labels{}

	entry := &BasicBlock{Label: "entry"}
	f.Blocks = append(f.Blocks, entry)
	b.block = entry

	for _, p := range fd.Params {
		sym := paramSymbolOf(p)
		if sym == nil {
			continue
		}
		var rawType types.Type
		switch {
		case sym.IsFunction, sym.Type.Kind == types.KindArray:
			// Function-typed and array parameters receive an address from
			// the caller; their home slot stores that address, one level
			// of indirection deeper than a plain scalar local.
			rawType = types.Pointer(sym.Type)
		default:
			rawType = sym.Type
		}
		raw := b.newTemp(rawType)
		f.Params = append(f.Params, raw)
		slot := b.emitAlloc(sym.Name, rawType)
		b.emit(&Store{Src: raw, Dst: slot})
		b.vars[sym] = slot
	}
	for _, l := range fd.Locals {
		slot := b.emitAlloc(l.Name, l.Sym.Type)
		b.vars[l.Sym] = slot
	}
	for _, s := range fd.Stmts {
		b.buildStmt(s)
	}
	b.finalize(fd.RetType)
	return f
}

func paramSymbolOf(d ast.Decl) *types.Symbol {
	switch n := d.(type) {
	case *ast.VarDecl:
		return n.Sym
	case *ast.FuncDecl:
		return n.Sym
	}
	return nil
}

// ---- emission plumbing ----

func (b *builder) emit(i Instr) { b.block.Instrs = append(b.block.Instrs, i) }

func (b *builder) newBlock(label string) *BasicBlock {
	blk := &BasicBlock{Label: label}
	b.fn.Blocks = append(b.fn.Blocks, blk)
	b.block = blk
	return blk
}

func (b *builder) newTemp(t types.Type) *Sym {
	s := &Sym{Name: fmt.Sprintf("%%t%d", b.tmp), Type: t}
	b.tmp++
	return s
}

// emitAlloc reserves storage for allocType, naming the slot after a
// source-level variable name. Dst's type is Pointer(allocType) — every
// later Load/Store through it obeys the pointer-typed-destination
// invariant every Store requires.
func (b *builder) emitAlloc(name string, allocType types.Type) *Sym {
	dst := &Sym{Name: "%" + name, Type: types.Pointer(allocType)}
	a := &Alloc{Dst: dst, AllocType: allocType}
	b.emit(a)
	b.fn.AllocList = append(b.fn.AllocList, a)
	return dst
}

func (b *builder) slotFor(sym *types.Symbol) *Sym {
	if s, ok := b.vars[sym]; ok {
		return s
	}
	return b.globals[sym]
}

// arrayBaseFor returns a Pointer(Array(T,n))-typed symbol usable directly
// as a GetElPtr base. For true (local/global) arrays that is the alloc'd
// slot itself. For array parameters (Length == 0 is the load-bearing
// signal reserved for "array parameter whose size is unknown") the slot
// instead holds the incoming address one level deeper, so a Load is
// inserted first.
func (b *builder) arrayBaseFor(sym *types.Symbol) *Sym {
	slot := b.slotFor(sym)
	if sym.Type.Length != 0 {
		return slot
	}
	loaded := b.newTemp(types.Pointer(sym.Type))
	b.emit(&Load{Dst: loaded, Src: slot})
	return loaded
}

// funcValue returns the address of a function symbol as a usable operand:
// the static function label for a plain function, or a Load through the
// parameter's home slot for a function-typed parameter.
func (b *builder) funcValue(sym *types.Symbol) Value {
	if sym.IsParam {
		slot := b.slotFor(sym)
		dst := b.newTemp(types.Pointer(sym.Type))
		b.emit(&Load{Dst: dst, Src: slot})
		return dst
	}
	return b.funcs[sym]
}

// materialize forces a Value into a *Sym, synthesizing a no-op arithmetic
// instruction for bare constants — I2F/F2I operands and an indirect call's
// callee must be a *Sym, not an immediate.
func (b *builder) materialize(v Value, t types.Type) *Sym {
	if s, ok := v.(*Sym); ok {
		return s
	}
	dst := b.newTemp(t)
	switch c := v.(type) {
	case IntConst:
		b.emit(&Binary{Dst: dst, Op: OpAdd, A: c, B: IntConst(0)})
	case FloatConst:
		b.emit(&Binary{Dst: dst, Op: OpAdd, A: c, B: FloatConst(0)})
	}
	return dst
}

// finalize ensures the function's current block ends in a terminator:
// every function must end with an explicit Ret.
// Every block opened mid-function already receives one from its owning
// construct (buildIf/buildWhile/buildReturn); only the block left current
// after the last top-level statement can still be missing one.
func (b *builder) finalize(retType types.Type) {
	if n := len(b.block.Instrs); n > 0 {
		switch b.block.Instrs[n-1].(type) {
		case *Br, *Jump, *Ret:
			return
		}
	}
	switch retType.Kind {
	case types.KindVoid:
		b.emit(&Ret{})
	case types.KindFloat:
		b.emit(&Ret{Value: FloatConst(0)})
	default:
		b.emit(&Ret{Value: IntConst(0)})
	}
}

// ---- statements ----

func (b *builder) buildStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.AssignStmt:
		b.buildAssign(n)
	case *ast.IfStmt:
		b.buildIf(n)
	case *ast.WhileStmt:
		b.buildWhile(n)
	case *ast.ReturnStmt:
		b.buildReturn(n)
	case *ast.BlockStmt:
		for _, st := range n.Body {
			b.buildStmt(st)
		}
	case *ast.ExprEvalStmt:
		b.buildExpr(n.Expr)
	}
}

func (b *builder) buildAssign(n *ast.AssignStmt) {
	val := b.buildExpr(n.Value)
	switch t := n.Target.(type) {
	case *ast.IdExpr:
		b.emit(&Store{Src: val, Dst: b.slotFor(t.Sym)})
	case *ast.IndexExpr:
		b.emit(&Store{Src: val, Dst: b.indexPtr(t)})
	}
}

// buildIf lowers If(c,t) and If(c,t,e), never synthesizing an Lelse block
// when Else is nil.
func (b *builder) buildIf(n *ast.IfStmt) {
	cond := b.buildExpr(n.Cond)
	lthen := b.labels.NewLabel(util.LabelIf)
	lend := b.labels.NewLabel(util.LabelIfEnd)

	if n.Else == nil {
		b.emit(&Br{Cond: cond, Then: lthen, Else: lend})
		b.newBlock(lthen)
		b.buildStmt(n.Then)
		b.emit(&Jump{Label: lend})
		b.newBlock(lend)
		return
	}

	lelse := b.labels.NewLabel(util.LabelIfElse)
	b.emit(&Br{Cond: cond, Then: lthen, Else: lelse})
	b.newBlock(lthen)
	b.buildStmt(n.Then)
	b.emit(&Jump{Label: lend})
	b.newBlock(lelse)
	b.buildStmt(n.Else)
	b.emit(&Jump{Label: lend})
	b.newBlock(lend)
}

// buildWhile lowers While(c,b) with a header block that re-evaluates c on
// every iteration, so an assignment to a condition variable inside the
// loop body is observed on every pass.
func (b *builder) buildWhile(n *ast.WhileStmt) {
	lhead := b.labels.NewLabel(util.LabelWhileHead)
	lbody := b.labels.NewLabel(util.LabelWhileBody)
	lend := b.labels.NewLabel(util.LabelWhileEnd)

	b.emit(&Jump{Label: lhead})
	b.newBlock(lhead)
	cond := b.buildExpr(n.Cond)
	b.emit(&Br{Cond: cond, Then: lbody, Else: lend})
	b.newBlock(lbody)
	b.buildStmt(n.Body)
	b.emit(&Jump{Label: lhead})
	b.newBlock(lend)
}

func (b *builder) buildReturn(n *ast.ReturnStmt) {
	var v Value
	if n.Value != nil {
		v = b.buildExpr(n.Value)
	}
	b.emit(&Ret{Value: v})
	b.newBlock(b.labels.NewLabel(util.LabelJump))
}

// ---- expressions ----

func (b *builder) buildExpr(e ast.Expr) Value {
	switch n := e.(type) {
	case *ast.IntLit:
		return IntConst(n.Val)
	case *ast.FloatLit:
		return FloatConst(n.Val)
	case *ast.IdExpr:
		return b.buildId(n)
	case *ast.IndexExpr:
		return b.buildIndexRead(n)
	case *ast.BinaryExpr:
		return b.buildBinary(n)
	case *ast.CallExpr:
		return b.buildCall(n)
	case *ast.CastExpr:
		return b.buildCast(n)
	}
	return IntConst(0)
}

func (b *builder) buildId(n *ast.IdExpr) Value {
	sym := n.Sym
	if sym.IsFunction {
		return b.funcValue(sym)
	}
	if sym.Type.Kind == types.KindArray {
		return b.arrayBaseFor(sym)
	}
	slot := b.slotFor(sym)
	dst := b.newTemp(sym.Type)
	b.emit(&Load{Dst: dst, Src: slot})
	return dst
}

func (b *builder) indexPtr(n *ast.IndexExpr) *Sym {
	id := n.Array.(*ast.IdExpr)
	base := b.arrayBaseFor(id.Sym)
	idx := b.buildExpr(n.Index)
	dst := b.newTemp(types.Pointer(n.Type()))
	b.emit(&GetElPtr{Dst: dst, Base: base, Offset: idx})
	return dst
}

func (b *builder) buildIndexRead(n *ast.IndexExpr) Value {
	ptr := b.indexPtr(n)
	dst := b.newTemp(n.Type())
	b.emit(&Load{Dst: dst, Src: ptr})
	return dst
}

var binOps = map[ast.BinOp]BinOp{
	ast.OpAdd: OpAdd,
	ast.OpMul: OpMul,
	ast.OpEq:  OpEq,
	ast.OpLt:  OpLt,
	ast.OpLe:  OpLe,
}

func (b *builder) buildBinary(n *ast.BinaryExpr) Value {
	a := b.buildExpr(n.Left)
	bv := b.buildExpr(n.Right)
	dst := b.newTemp(n.Type())
	b.emit(&Binary{Dst: dst, Op: binOps[n.Op], A: a, B: bv})
	return dst
}

// buildCall lowers a direct or indirect call. Args
// that are array identifiers already arrive as base-address Values via
// buildId/arrayBaseFor, matching the by-reference passing convention
// array parameters require.
func (b *builder) buildCall(n *ast.CallExpr) Value {
	args := make([]Value, 0, len(n.Args))
	for _, a := range n.Args {
		args = append(args, b.buildExpr(a))
	}
	retType := *n.Fn.Type.Ret
	var result *Sym
	if retType.Kind != types.KindVoid {
		result = b.newTemp(retType)
	}
	call := &Call{Result: result, Args: args}
	if n.Fn.IsParam {
		call.Indirect = true
		call.CalleeSym = b.materialize(b.funcValue(n.Fn), types.Pointer(n.Fn.Type))
	} else {
		call.Callee = b.funcs[n.Fn].Name
	}
	b.emit(call)
	b.fn.Calls = append(b.fn.Calls, call)
	if result == nil {
		return IntConst(0) // Only legal as the sole content of an ExprEvalStmt — value is discarded.
	}
	return result
}

// buildCast lowers the four Cast shapes: int<->float and int/float<->bool.
func (b *builder) buildCast(n *ast.CastExpr) Value {
	inner := b.buildExpr(n.Inner)
	to := n.Type()
	switch {
	case n.From.Kind == types.KindInt && to.Kind == types.KindBool:
		dst := b.newTemp(types.Bool)
		b.emit(&Binary{Dst: dst, Op: OpNe, A: inner, B: IntConst(0)})
		return dst
	case n.From.Kind == types.KindFloat && to.Kind == types.KindBool:
		dst := b.newTemp(types.Bool)
		b.emit(&Binary{Dst: dst, Op: OpNe, A: inner, B: FloatConst(0)})
		return dst
	case n.From.Kind == types.KindFloat && to.Kind == types.KindInt:
		dst := b.newTemp(types.Int)
		b.emit(&F2I{Dst: dst, Src: b.materialize(inner, types.Float)})
		return dst
	case n.From.Kind == types.KindInt && to.Kind == types.KindFloat:
		dst := b.newTemp(types.Float)
		b.emit(&I2F{Dst: dst, Src: b.materialize(inner, types.Int)})
		return dst
	}
	return inner
}
