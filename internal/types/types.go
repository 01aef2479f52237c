// Package types implements the semantic type lattice and scoped symbol
// tables shared by every later pipeline stage: int, float, bool, void,
// arrays, functions and pointers, plus the chained SymbolTable used for
// name resolution. Kind/Type form a real sum type rather than a pair of
// bare integer constants, so each variant carries exactly the fields it
// needs (array length, function signature).
package types

import "fmt"

// Kind discriminates the variants of the Type sum type.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindVoid
	KindLabel
	KindArray
	KindFunc
	KindPointer
)

// Type is a structural sum type: Base(int|float|bool|void|label),
// Array(Base, length), Func(returnBase, paramTypes), Pointer(innerType).
type Type struct {
	Kind   Kind
	Elem   *Type  // Array element type or Pointer inner type.
	Length int    // Array length; meaningless for other kinds.
	Ret    *Type  // Func return type.
	Params []Type // Func parameter types.
}

// Base type singletons. Treated as values, not pointers: Type equality is
// structural, so two separately-constructed Int types compare equal.
var (
	Int   = Type{Kind: KindInt}
	Float = Type{Kind: KindFloat}
	Bool  = Type{Kind: KindBool}
	Void  = Type{Kind: KindVoid}
	Label = Type{Kind: KindLabel}
)

// Array returns an Array(elem, length) type.
func Array(elem Type, length int) Type {
	e := elem
	return Type{Kind: KindArray, Elem: &e, Length: length}
}

// Func returns a Func(ret, params) type.
func Func(ret Type, params []Type) Type {
	r := ret
	return Type{Kind: KindFunc, Ret: &r, Params: params}
}

// Pointer returns a Pointer(inner) type.
func Pointer(inner Type) Type {
	i := inner
	return Type{Kind: KindPointer, Elem: &i}
}

// Equals reports structural equality.
func Equals(a, b Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindArray:
		return a.Length == b.Length && Equals(*a.Elem, *b.Elem)
	case KindPointer:
		return Equals(*a.Elem, *b.Elem)
	case KindFunc:
		if !Equals(*a.Ret, *b.Ret) || len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !Equals(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Clone returns a deep copy of t.
func Clone(t Type) Type {
	c := Type{Kind: t.Kind, Length: t.Length}
	if t.Elem != nil {
		e := Clone(*t.Elem)
		c.Elem = &e
	}
	if t.Ret != nil {
		r := Clone(*t.Ret)
		c.Ret = &r
	}
	if t.Params != nil {
		c.Params = make([]Type, len(t.Params))
		for i, p := range t.Params {
			c.Params[i] = Clone(p)
		}
	}
	return c
}

// SizeOf returns a type's size in bytes: base/pointer = 4, array =
// 4*length, function = 0 (never stored).
func SizeOf(t Type) int {
	switch t.Kind {
	case KindArray:
		return 4 * t.Length
	case KindFunc:
		return 0
	default:
		return 4
	}
}

// IsNumeric reports whether t is int or float.
func IsNumeric(t Type) bool {
	return t.Kind == KindInt || t.Kind == KindFloat
}

// ToString renders a Type for diagnostics and sidecar output.
func ToString(t Type) string {
	switch t.Kind {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindVoid:
		return "void"
	case KindLabel:
		return "label"
	case KindArray:
		return fmt.Sprintf("%s[%d]", ToString(*t.Elem), t.Length)
	case KindPointer:
		return fmt.Sprintf("*%s", ToString(*t.Elem))
	case KindFunc:
		s := "("
		for i, p := range t.Params {
			if i > 0 {
				s += ", "
			}
			s += ToString(p)
		}
		return s + ") -> " + ToString(*t.Ret)
	default:
		return "?"
	}
}
