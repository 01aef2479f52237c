// Package ir implements a typed three-address IR: alloc/load/store memory
// discipline, getelptr array indexing, and structured control flow lowered
// to labelled basic blocks with conditional/unconditional jumps.
package ir

import "vslrv/internal/types"

// Storage is the per-symbol storage-class assignment produced by the
// register allocator: Register(reg), Stack(offsetFromFP), or Static() for
// globals and function labels. It lives here, not in package regalloc,
// because Sym carries an optional Storage from the moment it exists (nil
// until allocation runs).
type Storage interface{ isStorage() }

// RegStorage assigns a symbol to a physical register name (e.g. "t0",
// "ft3", "a0").
type RegStorage struct{ Reg string }

func (RegStorage) isStorage() {}

// StackStorage assigns a symbol to a frame-relative offset from FP.
type StackStorage struct{ Offset int }

func (StackStorage) isStorage() {}

// StaticStorage marks a symbol resolved by name at link time (globals and
// function labels).
type StaticStorage struct{}

func (StaticStorage) isStorage() {}

// Sym is a uniquely named symbol: prefix "%" for local, "@" for
// global/function, ".L" for label.
type Sym struct {
	Name    string
	Type    types.Type
	Storage Storage
}

// Value is IRValue = IRSym | IntConst | FloatConst.
type Value interface{ isValue() }

func (*Sym) isValue() {}

// IntConst is an integer literal operand.
type IntConst int32

func (IntConst) isValue() {}

// FloatConst is a floating point literal operand.
type FloatConst float32

func (FloatConst) isValue() {}

// BinOp is the IR-level binary operator set. It is a superset of the AST's
// canonical {+,*,=,<,≤}: the IR builder additionally synthesizes ≠
// (OpNe) when lowering int/float-to-bool Casts.
type BinOp int

const (
	OpAdd BinOp = iota
	OpMul
	OpEq
	OpLt
	OpLe
	OpNe
)

// Instr is one IR instruction. Def/Use expose the symbols it defines and
// reads, for the register allocator's liveness analysis, mirroring the
// instr->getDef()/getUse().
type Instr interface {
	instrNode()
	Def() []*Sym
	Use() []Value
}

func symsOf(vs ...Value) []*Sym {
	var out []*Sym
	for _, v := range vs {
		if s, ok := v.(*Sym); ok && s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Alloc reserves storage for a local (scalar or array); emitted into the
// function's entry block before any computation. Position is filled in by
// the register allocator.
type Alloc struct {
	Dst       *Sym
	AllocType types.Type
	Position  int
}

func (*Alloc) instrNode()    {}
func (a *Alloc) Def() []*Sym { return []*Sym{a.Dst} }
func (a *Alloc) Use() []Value { return nil }

// Load reads through a pointer-typed symbol.
type Load struct {
	Dst *Sym
	Src *Sym
}

func (*Load) instrNode()     {}
func (l *Load) Def() []*Sym  { return []*Sym{l.Dst} }
func (l *Load) Use() []Value { return []Value{l.Src} }

// Store writes Src through the pointer-typed symbol Dst.
type Store struct {
	Src Value
	Dst *Sym
}

func (*Store) instrNode()     {}
func (s *Store) Def() []*Sym  { return nil }
func (s *Store) Use() []Value { return []Value{s.Src, s.Dst} }

// GetElPtr computes an element address: Dst = Base + Offset*sizeof(elem).
type GetElPtr struct {
	Dst    *Sym
	Base   *Sym
	Offset Value
}

func (*GetElPtr) instrNode()     {}
func (g *GetElPtr) Def() []*Sym  { return []*Sym{g.Dst} }
func (g *GetElPtr) Use() []Value { return []Value{g.Base, g.Offset} }

// Binary computes Dst = A op B.
type Binary struct {
	Dst  *Sym
	Op   BinOp
	A, B Value
}

func (*Binary) instrNode()     {}
func (b *Binary) Def() []*Sym  { return []*Sym{b.Dst} }
func (b *Binary) Use() []Value { return []Value{b.A, b.B} }

// Br is the two-armed conditional branch: "bnez v, then; beqz v, else" —
// both arms always emitted, never a single
// conditional jump with fallthrough.
type Br struct {
	Cond       Value
	Then, Else string
}

func (*Br) instrNode()     {}
func (b *Br) Def() []*Sym  { return nil }
func (b *Br) Use() []Value { return []Value{b.Cond} }

// Jump is an unconditional jump to a label.
type Jump struct{ Label string }

func (*Jump) instrNode()    {}
func (*Jump) Def() []*Sym   { return nil }
func (*Jump) Use() []Value  { return nil }

// I2F converts an int-typed symbol to float.
type I2F struct{ Dst, Src *Sym }

func (*I2F) instrNode()     {}
func (c *I2F) Def() []*Sym  { return []*Sym{c.Dst} }
func (c *I2F) Use() []Value { return []Value{c.Src} }

// F2I converts a float-typed symbol to int, truncating toward zero.
type F2I struct{ Dst, Src *Sym }

func (*F2I) instrNode()     {}
func (c *F2I) Def() []*Sym  { return []*Sym{c.Dst} }
func (c *F2I) Use() []Value { return []Value{c.Src} }

// Call invokes Callee (direct, by label) or, when Indirect is set, a
// function-typed parameter symbol held in CalleeSym. Result is nil for a
// void call.
type Call struct {
	Result    *Sym
	Callee    string // Direct call target label.
	Indirect  bool
	CalleeSym *Sym // Indirect call target symbol.
	Args      []Value
}

func (*Call) instrNode() {}
func (c *Call) Def() []*Sym {
	if c.Result == nil {
		return nil
	}
	return []*Sym{c.Result}
}
func (c *Call) Use() []Value {
	vs := append([]Value(nil), c.Args...)
	if c.Indirect {
		vs = append(vs, c.CalleeSym)
	}
	return vs
}

// Ret returns from the function, optionally carrying a value.
type Ret struct{ Value Value }

func (*Ret) instrNode()     {}
func (*Ret) Def() []*Sym    { return nil }
func (r *Ret) Use() []Value {
	if r.Value == nil {
		return nil
	}
	return []Value{r.Value}
}

// BasicBlock is a maximal straight-line instruction sequence with one
// entry and one terminator (GLOSSARY).
type BasicBlock struct {
	Label  string
	Instrs []Instr
}

// IRFunc is one function's IR body.
type IRFunc struct {
	Sym    *Sym
	Params []*Sym
	Blocks []*BasicBlock // Blocks[0] is the entry block.

	// AllocList caches, in order, the Alloc instructions in the entry
	// block — the register allocator walks exactly this list to lay out
	// locals.
	AllocList []*Alloc

	EpilogueLabel string
	FrameSize     int
	ParamAreaSize int // Outgoing stack-argument area this function's own calls need.
	Calls         []*Call
}

// IRProgram is the whole translation unit.
type IRProgram struct {
	Globals   []*Sym
	Functions []*IRFunc
}
