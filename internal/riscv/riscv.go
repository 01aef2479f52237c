// Package riscv materializes fully register-allocated IR into 32-bit
// RISC-V assembly text.
//
// Prologue/epilogue shape follows the standard RV32 calling convention.
// There is no blanket save/restore of caller-saved registers around a
// call: the register allocator already force-spills any value live across
// a call site, so no value can be stranded in a clobbered register when a
// callee returns.
package riscv

import (
	"fmt"
	"math"

	"vslrv/internal/ir"
	"vslrv/internal/types"
	"vslrv/internal/util"
)

const wordSize = 4
const stackAlign = 16

// Argument register files, RV32 calling convention order.
var intArgRegs = []string{"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7"}
var floatArgRegs = []string{"fa0", "fa1", "fa2", "fa3", "fa4", "fa5", "fa6", "fa7"}

// Scratch registers reserved by this package and never handed out by
// package regalloc: t6/ft11 for address/primary-operand materialization,
// a0/fa0 (otherwise dead after a function's own entry-block param spill)
// for the second operand of a binary op.
const (
	intScratch   = "t6"
	floatScratch = "ft11"
)

const floatLabelPrefix = ".LCF"

// emitter holds whole-program state: the output buffer and the
// deduplicated floating point constant pool, keyed by value so repeated
// constants share one label instead of a linear table scan per use.
type emitter struct {
	w         *util.Writer
	floatPool []float32
	floatIdx  map[float32]int
}

// Emit renders a fully allocated IRProgram to assembly text. Every IRFunc
// in prog must already have been passed through regalloc.Allocate.
func Emit(prog *ir.IRProgram) string {
	e := &emitter{floatIdx: map[float32]int{}}

	text := util.NewWriter()
	e.w = text
	for _, f := range prog.Functions {
		e.emitFunction(f)
	}

	data := util.NewWriter()
	data.Directive(".bss")
	for _, g := range prog.Globals {
		name := strip(g.Name)
		size := types.SizeOf(*g.Type.Elem)
		data.Directive(".globl %s", name)
		data.Directive(".align 2")
		data.Directive(".type %s, @object", name)
		data.Directive(".size %s, %d", name, size)
		data.Label(name)
		data.Directive(".zero %d", size)
	}
	if len(e.floatPool) > 0 {
		data.Directive(".data")
		data.Write("\n# Floating point constants.\n")
		for i, f := range e.floatPool {
			data.Write("%s%d:\n\t.word\t0x%x\n", floatLabelPrefix, i, math.Float32bits(f))
		}
	}

	return data.String() + "\n.text\n" + text.String()
}

func strip(s string) string {
	if len(s) > 0 && (s[0] == '@' || s[0] == '%') {
		return s[1:]
	}
	return s
}

func (e *emitter) floatConst(f float32) string {
	if idx, ok := e.floatIdx[f]; ok {
		return fmt.Sprintf("%s%d", floatLabelPrefix, idx)
	}
	idx := len(e.floatPool)
	e.floatPool = append(e.floatPool, f)
	e.floatIdx[f] = idx
	return fmt.Sprintf("%s%d", floatLabelPrefix, idx)
}

// emitFunction writes one function's prologue, body and epilogue. The
// frame layout mirrors src/backend/riscv/function.go's genFunction
// exactly: grow the stack by FrameSize, save ra/fp in its top 8 bytes,
// point fp at the top of the frame.
func (e *emitter) emitFunction(f *ir.IRFunc) {
	name := strip(f.Sym.Name)
	allocSlots := map[*ir.Sym]bool{}
	for _, a := range f.AllocList {
		allocSlots[a.Dst] = true
	}
	fe := &funcEmitter{e: e, w: e.w, f: f, allocSlots: allocSlots}

	e.w.Directive(".globl %s", name)
	e.w.Label(name)
	e.w.Ins2imm("addi", "sp", "sp", -f.FrameSize)
	e.w.LoadStore("sw", "ra", f.FrameSize-4, "sp")
	e.w.LoadStore("sw", "fp", f.FrameSize-8, "sp")
	e.w.Ins2imm("addi", "fp", "sp", f.FrameSize)

	for i, blk := range f.Blocks {
		if i > 0 {
			e.w.Label(blk.Label)
		}
		for _, in := range blk.Instrs {
			fe.emitInstr(in)
		}
	}

	e.w.Label(f.EpilogueLabel)
	e.w.LoadStore("lw", "ra", f.FrameSize-4, "sp")
	e.w.LoadStore("lw", "fp", f.FrameSize-8, "sp")
	e.w.Ins2imm("addi", "sp", "sp", f.FrameSize)
	e.w.Write("\tret\n")
}

// funcEmitter carries the per-function state emitInstr's dispatch needs.
type funcEmitter struct {
	e          *emitter
	w          *util.Writer
	f          *ir.IRFunc
	allocSlots map[*ir.Sym]bool
}

func isFloatValue(v ir.Value) bool {
	switch x := v.(type) {
	case ir.FloatConst:
		return true
	case *ir.Sym:
		return x.Type.Kind == types.KindFloat
	default:
		return false
	}
}

// addrOf resolves sym to a register holding its address. An alloc slot or
// a global resolves via addi fp,off / la, scratch (its "value" is the
// address itself, never loaded from memory); any other pointer-typed
// symbol (a GetElPtr result, a loaded array-parameter base) is a normal
// value, resolved like any other operand.
func (fe *funcEmitter) addrOf(sym *ir.Sym, scratch string) string {
	if fe.allocSlots[sym] {
		ss := sym.Storage.(ir.StackStorage)
		fe.w.Ins2imm("addi", scratch, "fp", ss.Offset)
		return scratch
	}
	switch s := sym.Storage.(type) {
	case ir.StaticStorage:
		fe.w.Write("\tla\t%s, %s\n", scratch, strip(sym.Name))
		return scratch
	case ir.RegStorage:
		return s.Reg
	case ir.StackStorage:
		fe.w.LoadStore("lw", scratch, s.Offset, "fp")
		return scratch
	}
	return scratch
}

func (fe *funcEmitter) readInt(v ir.Value, scratch string) string {
	switch x := v.(type) {
	case ir.IntConst:
		fe.w.Write("\tli\t%s, %d\n", scratch, int32(x))
		return scratch
	case *ir.Sym:
		switch s := x.Storage.(type) {
		case ir.RegStorage:
			return s.Reg
		case ir.StackStorage:
			fe.w.LoadStore("lw", scratch, s.Offset, "fp")
			return scratch
		case ir.StaticStorage:
			fe.w.Write("\tla\t%s, %s\n", scratch, strip(x.Name))
			return scratch
		}
	}
	return scratch
}

func (fe *funcEmitter) readFloat(v ir.Value, scratch string) string {
	switch x := v.(type) {
	case ir.FloatConst:
		lbl := fe.e.floatConst(float32(x))
		fe.w.Write("\tflw\t%s, %s\n", scratch, lbl)
		return scratch
	case *ir.Sym:
		switch s := x.Storage.(type) {
		case ir.RegStorage:
			return s.Reg
		case ir.StackStorage:
			fe.w.LoadStore("flw", scratch, s.Offset, "fp")
			return scratch
		}
	}
	return scratch
}

func (fe *funcEmitter) destInt(dst *ir.Sym) (string, bool) {
	if rs, ok := dst.Storage.(ir.RegStorage); ok {
		return rs.Reg, false
	}
	return intScratch, true
}

func (fe *funcEmitter) destFloat(dst *ir.Sym) (string, bool) {
	if rs, ok := dst.Storage.(ir.RegStorage); ok {
		return rs.Reg, false
	}
	return floatScratch, true
}

func (fe *funcEmitter) commitInt(dst *ir.Sym, reg string, spilled bool) {
	if spilled {
		ss := dst.Storage.(ir.StackStorage)
		fe.w.LoadStore("sw", reg, ss.Offset, "fp")
	}
}

func (fe *funcEmitter) commitFloat(dst *ir.Sym, reg string, spilled bool) {
	if spilled {
		ss := dst.Storage.(ir.StackStorage)
		fe.w.LoadStore("fsw", reg, ss.Offset, "fp")
	}
}

func (fe *funcEmitter) emitInstr(in ir.Instr) {
	switch n := in.(type) {
	case *ir.Alloc:
		// Storage is a pure compile-time frame offset; nothing to emit.
	case *ir.Load:
		fe.emitLoad(n)
	case *ir.Store:
		fe.emitStore(n)
	case *ir.GetElPtr:
		fe.emitGetElPtr(n)
	case *ir.Binary:
		fe.emitBinary(n)
	case *ir.Br:
		c := fe.readInt(n.Cond, intScratch)
		fe.w.Write("\tbnez\t%s, %s\n", c, n.Then)
		fe.w.Write("\tbeqz\t%s, %s\n", c, n.Else)
	case *ir.Jump:
		fe.w.Ins1("j", n.Label)
	case *ir.I2F:
		src := fe.readInt(n.Src, intScratch)
		dreg, spilled := fe.destFloat(n.Dst)
		fe.w.Write("\tfcvt.s.w\t%s, %s\n", dreg, src)
		fe.commitFloat(n.Dst, dreg, spilled)
	case *ir.F2I:
		src := fe.readFloat(n.Src, floatScratch)
		dreg, spilled := fe.destInt(n.Dst)
		fe.w.Write("\tfcvt.w.s\t%s, %s, rtz\n", dreg, src)
		fe.commitInt(n.Dst, dreg, spilled)
	case *ir.Call:
		fe.emitCall(n)
	case *ir.Ret:
		fe.emitRet(n)
	}
}

func (fe *funcEmitter) emitLoad(n *ir.Load) {
	addr := fe.addrOf(n.Src, intScratch)
	if n.Dst.Type.Kind == types.KindFloat {
		dreg, spilled := fe.destFloat(n.Dst)
		fe.w.LoadStore("flw", dreg, 0, addr)
		fe.commitFloat(n.Dst, dreg, spilled)
	} else {
		dreg, spilled := fe.destInt(n.Dst)
		fe.w.LoadStore("lw", dreg, 0, addr)
		fe.commitInt(n.Dst, dreg, spilled)
	}
}

func (fe *funcEmitter) emitStore(n *ir.Store) {
	addr := fe.addrOf(n.Dst, intScratch)
	if isFloatValue(n.Src) {
		v := fe.readFloat(n.Src, floatScratch)
		fe.w.LoadStore("fsw", v, 0, addr)
	} else {
		v := fe.readInt(n.Src, "a0")
		fe.w.LoadStore("sw", v, 0, addr)
	}
}

// emitGetElPtr computes Dst = Base + Offset*sizeof(elem). Every array
// element in this language is a 4-byte scalar (arrays hold int or float
// elements only), so the scale is always a left shift by 2.
func (fe *funcEmitter) emitGetElPtr(n *ir.GetElPtr) {
	base := fe.addrOf(n.Base, intScratch)
	off := fe.readInt(n.Offset, "a0")
	elem := *n.Base.Type.Elem.Elem
	size := types.SizeOf(elem)
	dreg, spilled := fe.destInt(n.Dst)
	switch size {
	case 1:
	case 4:
		fe.w.Ins2imm("slli", off, off, 2)
	default:
		fe.w.Write("\tli\t%s, %d\n", "a1", size)
		fe.w.Ins3("mul", off, off, "a1")
	}
	fe.w.Ins3("add", dreg, base, off)
	fe.commitInt(n.Dst, dreg, spilled)
}

func (fe *funcEmitter) emitBinary(n *ir.Binary) {
	if n.Dst.Type.Kind == types.KindFloat || isFloatValue(n.A) || isFloatValue(n.B) {
		fe.emitBinaryFloat(n)
		return
	}
	a := fe.readInt(n.A, intScratch)
	b := fe.readInt(n.B, "a0")
	dreg, spilled := fe.destInt(n.Dst)
	switch n.Op {
	case ir.OpAdd:
		fe.w.Ins3("add", dreg, a, b)
	case ir.OpMul:
		fe.w.Ins3("mul", dreg, a, b)
	case ir.OpEq:
		fe.w.Ins3("xor", dreg, a, b)
		fe.w.Ins2("seqz", dreg, dreg)
	case ir.OpNe:
		fe.w.Ins3("xor", dreg, a, b)
		fe.w.Ins2("snez", dreg, dreg)
	case ir.OpLt:
		fe.w.Ins3("slt", dreg, a, b)
	case ir.OpLe:
		// a<=b == !(b<a): swap operands into slt, then invert.
		fe.w.Ins3("slt", dreg, b, a)
		fe.w.Ins2imm("xori", dreg, dreg, 1)
	}
	fe.commitInt(n.Dst, dreg, spilled)
}

func (fe *funcEmitter) emitBinaryFloat(n *ir.Binary) {
	a := fe.readFloat(n.A, floatScratch)
	b := fe.readFloat(n.B, "fa0")
	switch n.Op {
	case ir.OpAdd:
		dreg, spilled := fe.destFloat(n.Dst)
		fe.w.Ins3("fadd.s", dreg, a, b)
		fe.commitFloat(n.Dst, dreg, spilled)
	case ir.OpMul:
		dreg, spilled := fe.destFloat(n.Dst)
		fe.w.Ins3("fmul.s", dreg, a, b)
		fe.commitFloat(n.Dst, dreg, spilled)
	case ir.OpEq:
		dreg, spilled := fe.destInt(n.Dst)
		fe.w.Ins3("feq.s", dreg, a, b)
		fe.commitInt(n.Dst, dreg, spilled)
	case ir.OpNe:
		dreg, spilled := fe.destInt(n.Dst)
		fe.w.Ins3("feq.s", dreg, a, b)
		fe.w.Ins2imm("xori", dreg, dreg, 1)
		fe.commitInt(n.Dst, dreg, spilled)
	case ir.OpLt:
		dreg, spilled := fe.destInt(n.Dst)
		fe.w.Ins3("flt.s", dreg, a, b)
		fe.commitInt(n.Dst, dreg, spilled)
	case ir.OpLe:
		dreg, spilled := fe.destInt(n.Dst)
		fe.w.Ins3("fle.s", dreg, a, b)
		fe.commitInt(n.Dst, dreg, spilled)
	}
}

// emitCall marshals arguments into a0-a7/fa0-fa7 (overflow args beyond the
// eighth of either kind onto the stack, a combined index shared by both
// streams so it agrees with package regalloc's assignParams) and invokes
// the callee directly or through CalleeSym for an indirect call.
func (fe *funcEmitter) emitCall(n *ir.Call) {
	ni, nf, stackIdx := 0, 0, 0
	for _, arg := range n.Args {
		if isFloatValue(arg) {
			if nf < len(floatArgRegs) {
				v := fe.readFloat(arg, floatArgRegs[nf])
				if v != floatArgRegs[nf] {
					fe.w.Ins2("fmv.s", floatArgRegs[nf], v)
				}
				nf++
			} else {
				v := fe.readFloat(arg, floatScratch)
				fe.w.LoadStore("fsw", v, stackIdx*wordSize, "sp")
				stackIdx++
			}
		} else {
			if ni < len(intArgRegs) {
				v := fe.readInt(arg, intArgRegs[ni])
				if v != intArgRegs[ni] {
					fe.w.Ins2("mv", intArgRegs[ni], v)
				}
				ni++
			} else {
				v := fe.readInt(arg, intScratch)
				fe.w.LoadStore("sw", v, stackIdx*wordSize, "sp")
				stackIdx++
			}
		}
	}

	if n.Indirect {
		reg := fe.readInt(n.CalleeSym, intScratch)
		fe.w.Ins1("jalr", reg)
	} else {
		fe.w.Ins1("call", strip(n.Callee))
	}

	if n.Result == nil {
		return
	}
	if n.Result.Type.Kind == types.KindFloat {
		dreg, spilled := fe.destFloat(n.Result)
		if dreg != "fa0" {
			fe.w.Ins2("fmv.s", dreg, "fa0")
		}
		fe.commitFloat(n.Result, dreg, spilled)
	} else {
		dreg, spilled := fe.destInt(n.Result)
		if dreg != "a0" {
			fe.w.Ins2("mv", dreg, "a0")
		}
		fe.commitInt(n.Result, dreg, spilled)
	}
}

func (fe *funcEmitter) emitRet(n *ir.Ret) {
	if n.Value != nil {
		if isFloatValue(n.Value) {
			v := fe.readFloat(n.Value, "fa0")
			if v != "fa0" {
				fe.w.Ins2("fmv.s", "fa0", v)
			}
		} else {
			v := fe.readInt(n.Value, "a0")
			if v != "a0" {
				fe.w.Ins2("mv", "a0", v)
			}
		}
	}
	fe.w.Ins1("j", fe.f.EpilogueLabel)
}
