package ir

import (
	"fmt"
	"strings"
)

// valueString renders one value operand in the three-address text form this
// package uses throughout ("alloc int; store 1; ret").
func valueString(v Value) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case *Sym:
		return x.String()
	case IntConst:
		return fmt.Sprintf("%d", int32(x))
	case FloatConst:
		return fmt.Sprintf("%g", float32(x))
	default:
		return "?"
	}
}

// String renders a symbol with its type and, once register allocation has
// run, its assigned storage — this is what distinguishes a .ir dump
// (Storage == nil throughout) from a .alloc dump of the same function.
func (s *Sym) String() string {
	if s == nil {
		return "-"
	}
	if s.Storage == nil {
		return fmt.Sprintf("%s:%s", s.Name, s.Type.ToString())
	}
	switch st := s.Storage.(type) {
	case RegStorage:
		return fmt.Sprintf("%s:%s<%s>", s.Name, s.Type.ToString(), st.Reg)
	case StackStorage:
		return fmt.Sprintf("%s:%s<fp%+d>", s.Name, s.Type.ToString(), st.Offset)
	case StaticStorage:
		return fmt.Sprintf("%s:%s<static>", s.Name, s.Type.ToString())
	default:
		return fmt.Sprintf("%s:%s", s.Name, s.Type.ToString())
	}
}

var binOpNames = map[BinOp]string{OpAdd: "+", OpMul: "*", OpEq: "=", OpLt: "<", OpLe: "<=", OpNe: "!="}

func instrString(in Instr) string {
	switch n := in.(type) {
	case *Alloc:
		return fmt.Sprintf("%s = alloc %s", n.Dst, n.AllocType.ToString())
	case *Load:
		return fmt.Sprintf("%s = load %s", n.Dst, n.Src)
	case *Store:
		return fmt.Sprintf("store %s, %s", valueString(n.Src), n.Dst)
	case *GetElPtr:
		return fmt.Sprintf("%s = getelptr %s, %s", n.Dst, n.Base, valueString(n.Offset))
	case *Binary:
		return fmt.Sprintf("%s = %s %s %s", n.Dst, valueString(n.A), binOpNames[n.Op], valueString(n.B))
	case *Br:
		return fmt.Sprintf("br %s, %s, %s", valueString(n.Cond), n.Then, n.Else)
	case *Jump:
		return fmt.Sprintf("jump %s", n.Label)
	case *I2F:
		return fmt.Sprintf("%s = i2f %s", n.Dst, n.Src)
	case *F2I:
		return fmt.Sprintf("%s = f2i %s", n.Dst, n.Src)
	case *Call:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = valueString(a)
		}
		callee := n.Callee
		if n.Indirect {
			callee = n.CalleeSym.String()
		}
		if n.Result != nil {
			return fmt.Sprintf("%s = call %s(%s)", n.Result, callee, strings.Join(args, ", "))
		}
		return fmt.Sprintf("call %s(%s)", callee, strings.Join(args, ", "))
	case *Ret:
		if n.Value == nil {
			return "ret"
		}
		return fmt.Sprintf("ret %s", valueString(n.Value))
	default:
		return "?"
	}
}

// Dump renders prog as "<label>:\n\tinstr\n..." text, one IRFunc at a time.
// Called on the same *IRProgram before and after register allocation runs,
// to produce the .ir and .alloc sidecars respectively.
func Dump(prog *IRProgram) string {
	var b strings.Builder
	for _, g := range prog.Globals {
		fmt.Fprintf(&b, "global %s\n", g)
	}
	if len(prog.Globals) > 0 {
		b.WriteString("\n")
	}
	for i, f := range prog.Functions {
		if i > 0 {
			b.WriteString("\n")
		}
		params := make([]string, len(f.Params))
		for j, p := range f.Params {
			params[j] = p.String()
		}
		fmt.Fprintf(&b, "func %s(%s):\n", f.Sym.Name, strings.Join(params, ", "))
		for _, blk := range f.Blocks {
			fmt.Fprintf(&b, "%s:\n", blk.Label)
			for _, in := range blk.Instrs {
				fmt.Fprintf(&b, "\t%s\n", instrString(in))
			}
		}
		fmt.Fprintf(&b, "%s:\n", f.EpilogueLabel)
	}
	return b.String()
}
