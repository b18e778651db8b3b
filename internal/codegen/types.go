package codegen

import (
	"github.com/kd7tck/swissarmyNES/internal/ast"
	"github.com/kd7tck/swissarmyNES/internal/symtab"
)

// is16Bit reports whether a DataType's runtime representation is the 16-bit
// A=low/X=high convention (Word, Int, String-pointer, Array) rather than
// the 8-bit A=result convention (Byte, Bool, Enum) — spec §4.5.
func is16Bit(t ast.DataType) bool {
	switch t.(type) {
	case *ast.Word, *ast.Int, *ast.StringType:
		return true
	default:
		return false
	}
}

// isStringType reports whether a DataType is SwissBASIC's String, the one
// case bare PRINT must route through Runtime_Print_String rather than the
// numeric-to-decimal Runtime_Print_Number path.
func isStringType(t ast.DataType) bool {
	_, ok := t.(*ast.StringType)
	return ok
}

// isSigned reports whether a DataType's comparisons/arithmetic must use
// signed (N-XOR-V) rather than unsigned (CMP/BCC/BCS) tests — true only for
// Int, per spec §4.5 and the mixed Byte/Int/Word promotion decision
// recorded in DESIGN.md (any operand that is Int makes the operation
// signed 16-bit).
func isSigned(t ast.DataType) bool {
	_, ok := t.(*ast.Int)
	return ok
}

// resolveType is codegen's own lightweight re-derivation of spec §4.4's
// resolve_type(expr): by the time code generation runs, the analyzer has
// already accepted the program, so this never reports errors — it exists
// purely to pick 8-bit vs. 16-bit lowering and signed vs. unsigned
// comparisons.
func (g *Generator) resolveType(e ast.Expression) ast.DataType {
	switch expr := e.(type) {
	case *ast.Integer:
		return &ast.Word{}
	case *ast.StringLiteral:
		return &ast.StringType{}
	case *ast.Identifier:
		if sym, ok := g.Table.Resolve(expr.Name); ok {
			return sym.Type
		}
		return &ast.Word{}
	case *ast.BinaryOp:
		switch expr.Op {
		case ast.Equal, ast.NotEqual, ast.Less, ast.Greater, ast.LessEqual, ast.GreaterEqual:
			return &ast.Bool{}
		}
		lt := g.resolveType(expr.Left)
		rt := g.resolveType(expr.Right)
		if isSigned(lt) || isSigned(rt) {
			return &ast.Int{}
		}
		if is16Bit(lt) || is16Bit(rt) {
			return &ast.Word{}
		}
		return &ast.Byte{}
	case *ast.UnaryOp:
		if expr.Op == ast.Not {
			return &ast.Bool{}
		}
		return g.resolveType(expr.Operand)
	case *ast.Peek:
		return &ast.Byte{}
	case *ast.Call:
		return g.resolveCallType(expr)
	case *ast.MemberAccess:
		return g.resolveMemberType(expr)
	default:
		return &ast.Word{}
	}
}

func (g *Generator) resolveCallType(call *ast.Call) ast.DataType {
	if member, ok := call.Callee.(*ast.MemberAccess); ok {
		if recv, ok := member.Target.(*ast.Identifier); ok {
			switch recv.Name {
			case "Controller":
				if member.Name == "Read" {
					return &ast.Byte{}
				}
				return &ast.Bool{}
			}
		}
		return g.resolveMemberType(member)
	}
	if ident, ok := call.Callee.(*ast.Identifier); ok {
		switch upperBuiltinName(ident.Name) {
		case "LEN", "VAL":
			return &ast.Word{}
		case "ABS":
			if len(call.Args) > 0 {
				return g.resolveType(call.Args[0])
			}
			return &ast.Word{}
		case "SGN":
			return &ast.Int{}
		case "ASC":
			return &ast.Byte{}
		case "CHR", "STR", "LEFT", "RIGHT", "MID":
			return &ast.StringType{}
		}
		if sym, ok := g.Table.Resolve(ident.Name); ok {
			if arr, ok := sym.Type.(*ast.ArrayType); ok {
				return arr.Elem
			}
		}
	}
	return &ast.Byte{}
}

func (g *Generator) resolveMemberType(e *ast.MemberAccess) ast.DataType {
	if call, ok := e.Target.(*ast.Call); ok {
		if ident, ok := call.Callee.(*ast.Identifier); ok {
			if sym, ok := g.Table.Resolve(ident.Name); ok {
				if arr, ok := sym.Type.(*ast.ArrayType); ok {
					if st, ok := arr.Elem.(*ast.StructType); ok {
						if structSym, ok := g.Table.Global(st.Name); ok {
							for _, m := range structSym.Members {
								if m.Name == e.Name {
									return m.Type
								}
							}
						}
					}
				}
			}
		}
		return &ast.Byte{}
	}
	ident, ok := e.Target.(*ast.Identifier)
	if !ok {
		return &ast.Byte{}
	}
	sym, ok := g.Table.Resolve(ident.Name)
	if !ok {
		return &ast.Byte{}
	}
	if sym.Kind == symtab.EnumKind {
		return &ast.Int{}
	}
	if st, ok := sym.Type.(*ast.StructType); ok {
		if structSym, ok := g.Table.Global(st.Name); ok {
			for _, m := range structSym.Members {
				if m.Name == e.Name {
					return m.Type
				}
			}
		}
	}
	return &ast.Byte{}
}

func upperBuiltinName(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
