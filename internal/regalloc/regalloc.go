// Package regalloc implements per-function stack frame layout followed by
// per-basic-block graph-colouring register allocation: a
// node/register-interference-graph/simplify-stack algorithm (see
// http://web.cecs.pdx.edu/~mperkows/temp/register-allocation.pdf), run
// single-threaded and rescoped from whole-function to one basic block at a
// time.
package regalloc

import (
	"vslrv/internal/ir"
	"vslrv/internal/types"
	"vslrv/internal/util"
)

const wordSize = 4
const stackAlign = 16

// retry bounds the simplify-stack's outer loop.
const retry = 128

// Scratch pools available to the colourer. t6/ft11 and a0/fa0 are reserved
// by the emitter as address/move scratch and are never handed out here.
var intScratch = []string{"t0", "t1", "t2", "t3", "t4", "t5"}
var floatScratch = []string{"ft0", "ft1", "ft2", "ft3", "ft4", "ft5", "ft6", "ft7", "ft8", "ft9", "ft10"}

var intArgRegs = []string{"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7"}
var floatArgRegs = []string{"fa0", "fa1", "fa2", "fa3", "fa4", "fa5", "fa6", "fa7"}

// node is one register-interference-graph vertex, wrapping the IR symbol
// that needs a physical assignment.
type node struct {
	sym        *ir.Sym
	neighbours []*node
	enabled    bool
	spill      bool
}

func (n *node) enabledNeighbours() []*node {
	res := make([]*node, 0, len(n.neighbours))
	for _, nb := range n.neighbours {
		if nb.enabled {
			res = append(res, nb)
		}
	}
	return res
}

type allocator struct {
	f          *ir.IRFunc
	nextOffset int // Next free FP-relative stack slot; locals/spills both draw from this.
}

// Allocate assigns every IR symbol in f a concrete Storage: incoming
// parameters to argument registers (or the incoming stack area beyond the
// eighth), locals to FP-relative stack slots, and every remaining
// temporary to a scratch register via per-block graph colouring, spilling
// to the stack when a block's pressure or a call crossing forces it.
func Allocate(f *ir.IRFunc) {
	a := &allocator{f: f, nextOffset: -12} // FP-4: saved RA, FP-8: saved old FP.
	a.assignParams()
	a.layoutLocals()
	for _, blk := range f.Blocks {
		a.colourBlock(blk)
	}
	a.finalizeFrame()
}

// assignParams assigns the function's own incoming parameters, in
// declaration order, to a0-a7/fa0-fa7 by kind; any parameter beyond the
// eighth of its kind instead reads from the incoming stack argument area
// above FP, at the next slot of a single index shared between the int and
// float streams (so an overflow int parameter and an overflow float
// parameter never claim the same offset; this must agree with the
// emitter's call-site marshalling in package riscv).
func (a *allocator) assignParams() {
	ni, nf, stackIdx := 0, 0, 0
	for _, p := range a.f.Params {
		if p.Type.Kind == types.KindFloat {
			if nf < len(floatArgRegs) {
				p.Storage = ir.RegStorage{Reg: floatArgRegs[nf]}
				nf++
			} else {
				p.Storage = ir.StackStorage{Offset: stackIdx * wordSize}
				stackIdx++
			}
		} else {
			if ni < len(intArgRegs) {
				p.Storage = ir.RegStorage{Reg: intArgRegs[ni]}
				ni++
			} else {
				p.Storage = ir.StackStorage{Offset: stackIdx * wordSize}
				stackIdx++
			}
		}
	}
}

// layoutLocals walks f.AllocList in order (the order the entry block's
// Alloc instructions were emitted in), placing each object directly below
// the previous one, starting at FP-12. An object's offset is its lowest
// address, so a multi-word array extends upward from it without reaching
// the saved RA/FP words.
func (a *allocator) layoutLocals() {
	for _, al := range a.f.AllocList {
		size := types.SizeOf(al.AllocType)
		if size < wordSize {
			size = wordSize
		}
		base := a.nextOffset + wordSize - size
		al.Position = base
		al.Dst.Storage = ir.StackStorage{Offset: base}
		a.nextOffset = base - wordSize
	}
}

// colourBlock runs liveness analysis and graph colouring over one basic
// block, scoped so that no value's register assignment needs to survive a
// branch.
func (a *allocator) colourBlock(blk *ir.BasicBlock) {
	nodes := map[*ir.Sym]*node{}
	var order []*node

	get := func(s *ir.Sym) *node {
		if s == nil || s.Storage != nil {
			return nil // Already fixed: a param, a local/global slot, or a static symbol.
		}
		if n, ok := nodes[s]; ok {
			return n
		}
		n := &node{sym: s, enabled: true}
		nodes[s] = n
		order = append(order, n)
		return n
	}

	for _, in := range blk.Instrs {
		for _, d := range in.Def() {
			get(d)
		}
		for _, u := range in.Use() {
			if s, ok := u.(*ir.Sym); ok {
				get(s)
			}
		}
	}

	addEdge := func(x, y *node) {
		if x == nil || y == nil || x == y {
			return
		}
		for _, nb := range x.neighbours {
			if nb == y {
				return
			}
		}
		x.neighbours = append(x.neighbours, y)
		y.neighbours = append(y.neighbours, x)
	}

	// Backward liveness walk: a symbol is live-in to instruction i if it is
	// used at i or live-in to i+1 without being defined at i.
	live := map[*node]bool{}
	for i := len(blk.Instrs) - 1; i >= 0; i-- {
		in := blk.Instrs[i]

		// A value live across a call must not be left in a caller-saved
		// scratch register: every register this allocator hands out
		// (t0-t5/ft0-ft10) is caller-saved in the RV32 ABI, and this design
		// carries no callee-saved class, so the only conforming fix is to
		// force such values to the stack.
		if _, isCall := in.(*ir.Call); isCall {
			for n := range live {
				n.spill = true
			}
		}

		for _, d := range in.Def() {
			dn := get(d)
			if dn == nil {
				continue
			}
			for n := range live {
				addEdge(dn, n)
			}
			delete(live, dn)
		}
		for _, u := range in.Use() {
			if s, ok := u.(*ir.Sym); ok {
				if un := get(s); un != nil {
					live[un] = true
				}
			}
		}
	}

	a.colourNodes(order)
}

func (a *allocator) kFor(s *ir.Sym) int {
	if s.Type.Kind == types.KindFloat {
		return len(floatScratch)
	}
	return len(intScratch)
}

// colourNodes simplifies the RIG onto a stack (removing low-degree nodes
// first, as src/backend/lir/regalloc.go's allocateRegisterFunc does), then
// pops and assigns registers, falling back to a stack slot whenever no
// register choice survives.
func (a *allocator) colourNodes(nodes []*node) {
	pending := make([]*node, 0, len(nodes))
	for _, n := range nodes {
		if n.spill {
			a.spillNode(n)
			continue
		}
		pending = append(pending, n)
	}
	if len(pending) == 0 {
		return
	}

	st := util.Stack{}
	rt := retry
	for st.Size() < len(pending) && rt > 0 {
		for i := len(pending) - 1; i >= 0; i-- {
			n := pending[i]
			if !n.enabled {
				continue
			}
			if len(n.enabledNeighbours()) < a.kFor(n.sym) {
				n.enabled = false
				st.Push(n)
			}
		}
		rt--
	}
	if st.Size() < len(pending) {
		// Simplify could not fully untangle this block's RIG within the
		// retry budget: spill whatever is left rather than fail the build.
		for _, n := range pending {
			if n.enabled {
				a.spillNode(n)
			}
		}
	}

	for e := st.Pop(); e != nil; e = st.Pop() {
		n := e.(*node)
		n.enabled = true

		excl := map[string]bool{}
		for _, nb := range n.neighbours {
			if nb.enabled {
				if rs, ok := nb.sym.Storage.(ir.RegStorage); ok {
					excl[rs.Reg] = true
				}
			}
		}

		reg := a.pickRegister(n.sym, excl)
		if reg == "" {
			a.spillNode(n)
			continue
		}
		n.sym.Storage = ir.RegStorage{Reg: reg}
	}
}

func (a *allocator) pickRegister(s *ir.Sym, excl map[string]bool) string {
	pool := intScratch
	if s.Type.Kind == types.KindFloat {
		pool = floatScratch
	}
	for _, r := range pool {
		if !excl[r] {
			return r
		}
	}
	return ""
}

func (a *allocator) spillNode(n *node) {
	a.nextOffset -= wordSize
	n.sym.Storage = ir.StackStorage{Offset: a.nextOffset}
}

// computeOutgoingArea sizes the stack area this function must reserve for
// the stack-passed tail of its own calls' arguments, using the same shared
// int/float stack index as assignParams and the emitter's call marshalling
// so offsets agree on both sides of every call.
func (a *allocator) computeOutgoingArea() {
	max := 0
	for _, c := range a.f.Calls {
		ni, nf, stackIdx := 0, 0, 0
		for _, arg := range c.Args {
			if valueIsFloat(arg) {
				if nf < len(floatArgRegs) {
					nf++
				} else {
					stackIdx++
				}
			} else {
				if ni < len(intArgRegs) {
					ni++
				} else {
					stackIdx++
				}
			}
		}
		n := stackIdx * wordSize
		if n > max {
			max = n
		}
	}
	a.f.ParamAreaSize = max
}

func valueIsFloat(v ir.Value) bool {
	switch x := v.(type) {
	case ir.FloatConst:
		return true
	case *ir.Sym:
		return x.Type.Kind == types.KindFloat
	default:
		return false
	}
}

// finalizeFrame computes the total frame size: N bytes of
// locals/spills/outgoing-args, rounded up to the 16-byte stack alignment
// RISC-V requires, plus 16 fixed bytes for the saved RA/FP pair and
// padding.
func (a *allocator) finalizeFrame() {
	a.computeOutgoingArea()
	used := -a.nextOffset - 12 + a.f.ParamAreaSize
	if used < 0 {
		used = 0
	}
	if r := used % stackAlign; r != 0 {
		used += stackAlign - r
	}
	a.f.FrameSize = used + 16
}
