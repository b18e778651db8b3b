package codegen

import (
	"github.com/kd7tck/swissarmyNES/internal/ast"
	"github.com/kd7tck/swissarmyNES/internal/symtab"
)

// lowerExpr emits code whose postcondition is: A=result (Byte/Bool/Enum) or
// A=low,X=high (Word/Int/String-pointer/Array) — spec §4.5.
func (g *Generator) lowerExpr(e ast.Expression) {
	switch expr := e.(type) {
	case *ast.Integer:
		g.lowerIntegerLiteral(expr.Value)
	case *ast.StringLiteral:
		lbl := g.stringLiteralLabel(expr.Value)
		g.emit("  LDA #<%s", lbl)
		g.emit("  LDX #>%s", lbl)
	case *ast.Identifier:
		g.lowerIdentifierLoad(expr)
	case *ast.BinaryOp:
		g.lowerBinaryOp(expr)
	case *ast.UnaryOp:
		g.lowerUnaryOp(expr)
	case *ast.Peek:
		g.lowerPeek(expr)
	case *ast.Call:
		g.lowerCall(expr)
	case *ast.MemberAccess:
		g.lowerMemberAccessLoad(expr)
	default:
		g.defensiveTypeMismatch("lowerExpr", nil)
	}
}

func (g *Generator) lowerIntegerLiteral(v int32) {
	g.emit("  LDA #$%02X", uint8(v&0xFF))
	g.emit("  LDX #$%02X", uint8((v>>8)&0xFF))
}

func (g *Generator) lowerIdentifierLoad(id *ast.Identifier) {
	if sym, ok := g.Table.Resolve(id.Name); ok && sym.Kind == symtab.Constant && sym.Value != nil {
		g.lowerIntegerLiteral(*sym.Value)
		return
	}
	addr, ok := g.addrOf[id.Name]
	if !ok {
		// Sub-local/param: analyzer-assigned implicit locals share the RAM
		// allocator lazily on first reference.
		var err error
		addr, err = g.ram.alloc(id.Name, 2)
		if err == nil {
			g.addrOf[id.Name] = addr
		}
	}
	sym, _ := g.Table.Resolve(id.Name)
	var t ast.DataType = &ast.Word{}
	if sym != nil {
		t = sym.Type
	}
	g.emit("  LDA $%04X", addr)
	if is16Bit(t) {
		g.emit("  LDX $%04X", addr+1)
	}
}

func (g *Generator) lowerBinaryOp(b *ast.BinaryOp) {
	leftType := g.resolveType(b.Left)
	rightType := g.resolveType(b.Right)
	wide := is16Bit(leftType) || is16Bit(rightType)
	signed := isSigned(leftType) || isSigned(rightType)

	g.lowerExpr(b.Left)
	if wide {
		g.emit("  STA $00")
		g.emit("  STX $01")
	} else {
		g.emit("  STA $00")
	}
	g.lowerExpr(b.Right)

	switch b.Op {
	case ast.Add:
		if wide {
			g.emit("  CLC")
			g.emit("  ADC $00")
			g.emit("  PHA")
			g.emit("  TXA")
			g.emit("  ADC $01")
			g.emit("  TAX")
			g.emit("  PLA")
		} else {
			g.emit("  CLC")
			g.emit("  ADC $00")
		}
	case ast.Subtract:
		if wide {
			g.emit("  STA $02")
			g.emit("  STX $03")
			g.emit("  LDA $00")
			g.emit("  SEC")
			g.emit("  SBC $02")
			g.emit("  PHA")
			g.emit("  LDA $01")
			g.emit("  SBC $03")
			g.emit("  TAX")
			g.emit("  PLA")
		} else {
			g.emit("  STA $02")
			g.emit("  LDA $00")
			g.emit("  SEC")
			g.emit("  SBC $02")
		}
	case ast.Multiply:
		g.lowerRuntimeBinaryHelper("Math_Mul16")
	case ast.Divide:
		g.lowerRuntimeBinaryHelper("Math_Div16")
	case ast.Modulo:
		g.lowerRuntimeBinaryHelper("Math_Mod16")
	case ast.Equal, ast.NotEqual, ast.Less, ast.Greater, ast.LessEqual, ast.GreaterEqual:
		g.lowerComparison(b.Op, wide, signed)
	case ast.And, ast.Or, ast.Xor:
		g.lowerBitwise(b.Op, wide)
	default:
		g.defensiveTypeMismatch("lowerBinaryOp", leftType)
	}
}

func (g *Generator) lowerRuntimeBinaryHelper(name string) {
	g.emit("  STA $16")
	g.emit("  STX $17")
	g.emit("  LDA $00")
	g.emit("  STA $14")
	g.emit("  LDA $01")
	g.emit("  STA $15")
	g.emit("  JSR %s", name)
}

// lowerComparison implements spec §4.5: signed operands subtract with SBC
// and use the N-XOR-V BVC/BMI test, unsigned use CMP with BCC, and equality
// uses CMP with BNE. Result normalizes to
// Bool ($00/$FF). For a 16-bit operand, the high bytes are compared first
// and decide the result unless they're equal, in which case the low bytes
// (always compared unsigned — a lone low byte carries no sign of its own)
// decide it; the single-byte path (spec's original shape) handles Byte/Bool
// operands.
func (g *Generator) lowerComparison(op ast.BinaryOperator, wide, signed bool) {
	end := g.label("CmpEnd")
	truth := g.label("CmpTrue")
	g.emit("  STA $02")
	if wide {
		g.emit("  STX $03")
	}

	switch op {
	case ast.Equal:
		g.emitByteEquality(wide, truth)
	case ast.NotEqual:
		eq := g.label("CmpEqual")
		g.emitByteEquality(wide, eq)
		g.emit("  JMP %s", truth)
		g.emit("%s:", eq)
	case ast.Less:
		g.emitByteLess(wide, signed, truth)
	case ast.GreaterEqual:
		lt := g.label("CmpLess")
		g.emitByteLess(wide, signed, lt)
		g.emit("  JMP %s", truth)
		g.emit("%s:", lt)
	case ast.Greater:
		lt := g.label("CmpLess")
		eq := g.label("CmpEqual")
		g.emitByteLess(wide, signed, lt)
		g.emitByteEquality(wide, eq)
		g.emit("  JMP %s", truth)
		g.emit("%s:", lt)
		g.emit("%s:", eq)
	case ast.LessEqual:
		g.emitByteLess(wide, signed, truth)
		g.emitByteEquality(wide, truth)
	}

	g.emit("  LDA #$00")
	g.emit("  JMP %s", end)
	g.emit("%s:", truth)
	g.emit("  LDA #$FF")
	g.emit("%s:", end)
}

// emitByteEquality jumps to eq if the operand held in $00 (and $01 if
// wide) equals the operand held in $02 (and $03), else falls straight
// through to the next emitted instruction.
func (g *Generator) emitByteEquality(wide bool, eq string) {
	mismatch := g.label("CmpMismatch")
	g.emit("  LDA $00")
	g.emit("  CMP $02")
	g.emit("  BNE %s", mismatch)
	if wide {
		g.emit("  LDA $01")
		g.emit("  CMP $03")
		g.emit("  BNE %s", mismatch)
	}
	g.emit("  JMP %s", eq)
	g.emit("%s:", mismatch)
}

// emitByteLess jumps to lessLbl if the operand in $00/$01 is strictly
// less than the operand in $02/$03, else falls straight through.
func (g *Generator) emitByteLess(wide, signed bool, lessLbl string) {
	if !wide {
		g.emit("  LDA $00")
		if signed {
			g.emit("  SEC")
			g.emit("  SBC $02")
			g.emitSignedLess(lessLbl)
		} else {
			g.emit("  CMP $02")
			g.emitUnsignedLess(lessLbl)
		}
		return
	}
	highDiffers := g.label("CmpHighDiffers")
	done := g.label("CmpLessDone")
	g.emit("  LDA $01")
	g.emit("  CMP $03")
	g.emit("  BNE %s", highDiffers)
	g.emit("  LDA $00")
	g.emit("  CMP $02")
	g.emitUnsignedLess(lessLbl)
	g.emit("  JMP %s", done)
	g.emit("%s:", highDiffers)
	if signed {
		g.emit("  LDA $01")
		g.emit("  SEC")
		g.emit("  SBC $03")
		g.emitSignedLess(lessLbl)
	} else {
		g.emitUnsignedLess(lessLbl)
	}
	g.emit("%s:", done)
}

// emitUnsignedLess jumps to lessLbl if C is clear from the immediately
// preceding CMP (left < right, unsigned), else falls through.
func (g *Generator) emitUnsignedLess(lessLbl string) {
	g.emit("  BCC %s", lessLbl)
}

// emitSignedLess jumps to lessLbl if the immediately preceding SEC/SBC's
// operands compare as left < right when interpreted as signed bytes (SBC,
// unlike CMP, sets V),
// using the standard N-XOR-V overflow correction (spec §4.5) before
// testing the corrected sign via BMI, else falls through.
func (g *Generator) emitSignedLess(lessLbl string) {
	noOverflow := g.label("CmpNoOverflow")
	g.emit("  BVC %s", noOverflow)
	g.emit("  EOR #$80")
	g.emit("%s:", noOverflow)
	g.emit("  BMI %s", lessLbl)
}

func (g *Generator) lowerBitwise(op ast.BinaryOperator, wide bool) {
	op6502 := map[ast.BinaryOperator]string{ast.And: "AND", ast.Or: "ORA", ast.Xor: "EOR"}[op]
	if wide {
		g.emit("  STA $02")
		g.emit("  STX $03")
		g.emit("  LDA $00")
		g.emit("  %s $02", op6502)
		g.emit("  PHA")
		g.emit("  LDA $01")
		g.emit("  %s $03", op6502)
		g.emit("  TAX")
		g.emit("  PLA")
	} else {
		g.emit("  %s $00", op6502)
	}
}

func (g *Generator) lowerUnaryOp(u *ast.UnaryOp) {
	g.lowerExpr(u.Operand)
	switch u.Op {
	case ast.Not:
		g.emit("  EOR #$FF")
	case ast.Negate:
		g.emit("  EOR #$FF")
		g.emit("  CLC")
		g.emit("  ADC #1")
	}
}

// constAddr folds an address expression to a known compile-time value when
// possible: either a literal Integer, or an Identifier resolving to a
// Constant symbol with a recorded value (spec S1/S2's CONST-address
// scenarios require this fold to reach direct, rather than indirect,
// addressing).
func (g *Generator) constAddr(e ast.Expression) (uint16, bool) {
	switch expr := e.(type) {
	case *ast.Integer:
		return uint16(expr.Value), true
	case *ast.Identifier:
		if sym, ok := g.Table.Resolve(expr.Name); ok && sym.Kind == symtab.Constant && sym.Value != nil {
			return uint16(*sym.Value), true
		}
	}
	return 0, false
}

func (g *Generator) lowerPeek(p *ast.Peek) {
	if addr, ok := g.constAddr(p.Addr); ok {
		g.emit("  LDA $%04X", addr)
		return
	}
	g.lowerExpr(p.Addr)
	g.emit("  STA $02")
	g.emit("  STX $03")
	g.emit("  LDY #$00")
	g.emit("  LDA ($02),Y")
}

func (g *Generator) lowerMemberAccessLoad(m *ast.MemberAccess) {
	// Struct-field loads and enum-variant references both resolve to a
	// constant/offset at codegen time; for an enum variant, emit its value
	// directly. For a struct field, load from the struct's base address
	// plus the member's offset.
	if ident, ok := m.Target.(*ast.Identifier); ok {
		if sym, ok := g.Table.Resolve(ident.Name); ok {
			if enumSym, ok := g.Table.Global(ident.Name); ok && sym == enumSym && len(sym.Variants) > 0 {
				for _, v := range sym.Variants {
					if v.Name == m.Name {
						g.lowerIntegerLiteral(v.Value)
						return
					}
				}
			}
		}
		if base, ok := g.addrOf[ident.Name]; ok {
			if st, isStruct := g.structTypeOf(ident.Name); isStruct {
				for _, mem := range st.Members {
					if mem.Name == m.Name {
						g.emit("  LDA $%04X", base+uint16(mem.Offset))
						if is16Bit(mem.Type) {
							g.emit("  LDX $%04X", base+uint16(mem.Offset)+1)
						}
						return
					}
				}
			}
		}
	}
	if call, ok := m.Target.(*ast.Call); ok {
		if g.lowerIndexedStructMemberLoad(call, m.Name) {
			return
		}
	}
	g.emit("  LDA #$00 ; unresolved member access %s.%s", exprLabel(m.Target), m.Name)
}

// lowerIndexedStructMemberLoad handles `arr(i).member` reads (the read
// counterpart of emitIndexedStructMemberStore): a literal index 0 folds to a
// direct absolute load, any other index is scaled by the element size
// through Math_Mul16 and the load goes through indirect ($02),Y addressing.
func (g *Generator) lowerIndexedStructMemberLoad(call *ast.Call, memberName string) bool {
	ident, ok := call.Callee.(*ast.Identifier)
	if !ok || len(call.Args) != 1 {
		return false
	}
	sym, ok := g.Table.Resolve(ident.Name)
	if !ok {
		return false
	}
	arr, ok := sym.Type.(*ast.ArrayType)
	if !ok {
		return false
	}
	st, ok := arr.Elem.(*ast.StructType)
	if !ok {
		return false
	}
	structSym, ok := g.Table.Global(st.Name)
	if !ok {
		return false
	}
	base, ok := g.addrOf[ident.Name]
	if !ok {
		return false
	}
	elemSize := g.typeSize(arr.Elem)
	for _, mem := range structSym.Members {
		if mem.Name != memberName {
			continue
		}
		wide := is16Bit(mem.Type)
		if lit, ok := call.Args[0].(*ast.Integer); ok && lit.Value == 0 {
			addr := base + uint16(mem.Offset)
			g.emit("  LDA $%04X", addr)
			if wide {
				g.emit("  LDX $%04X", addr+1)
			}
			return true
		}
		g.emitElementAddress(base, call.Args[0], elemSize)
		g.emit("  LDY #$%02X", uint8(mem.Offset))
		g.emit("  LDA ($02),Y")
		if wide {
			g.emit("  LDY #$%02X", uint8(mem.Offset+1))
			g.emit("  LDA ($02),Y")
			g.emit("  TAX")
			g.emit("  LDY #$%02X", uint8(mem.Offset))
			g.emit("  LDA ($02),Y")
		}
		return true
	}
	return false
}

func (g *Generator) structTypeOf(varName string) (structInfo, bool) {
	sym, ok := g.Table.Resolve(varName)
	if !ok {
		return structInfo{}, false
	}
	st, ok := sym.Type.(*ast.StructType)
	if !ok {
		return structInfo{}, false
	}
	structSym, ok := g.Table.Global(st.Name)
	if !ok {
		return structInfo{}, false
	}
	return structInfo{Members: structSym.Members}, true
}

type structInfo struct {
	Members []symtab.Member
}

func exprLabel(e ast.Expression) string {
	if id, ok := e.(*ast.Identifier); ok {
		return id.Name
	}
	return "?"
}

func (g *Generator) lowerCall(c *ast.Call) {
	if member, ok := c.Callee.(*ast.MemberAccess); ok {
		if recv, ok := member.Target.(*ast.Identifier); ok {
			g.stageArgs(c.Args)
			g.emit("  JSR Runtime_%s_%s", recv.Name, member.Name)
			return
		}
	}
	if ident, ok := c.Callee.(*ast.Identifier); ok {
		if name, isBuiltin := builtinRuntimeName(ident.Name); isBuiltin {
			g.stageArgs(c.Args)
			g.emit("  JSR %s", name)
			return
		}
		for _, arg := range c.Args {
			g.lowerExpr(arg)
			g.emit("  PHA")
		}
		g.emit("  JSR %s", ident.Name)
		return
	}
	g.defensiveTypeMismatch("lowerCall", nil)
}

// stageArgs evaluates each of a receiver-method or built-in call's arguments
// and stores it into a fixed zero-page slot (spec §3: "$14-$1F: argument
// passing for built-ins"), two bytes per argument in declaration order
// (argument i at $14+2i) regardless of its width, so every Runtime_*
// routine can rely on one fixed layout without needing to know its caller's
// argument types. Arguments are staged through the hardware stack first and
// popped into their slots in reverse, so that evaluating a later argument —
// which may itself route through Math_Mul16/Div16's $14-$17 scratch — can
// never clobber an earlier argument's slot before that slot is written.
func (g *Generator) stageArgs(args []ast.Expression) {
	n := len(args)
	if n > 6 {
		n = 6 // $14-$1F holds six 2-byte argument slots
	}
	for i := 0; i < n; i++ {
		wide := is16Bit(g.resolveType(args[i]))
		g.lowerExpr(args[i])
		g.emit("  PHA")
		if wide {
			g.emit("  TXA")
		} else {
			g.emit("  LDA #$00")
		}
		g.emit("  PHA")
	}
	for i := n - 1; i >= 0; i-- {
		slot := 0x14 + i*2
		g.emit("  PLA")
		g.emit("  STA $%02X", slot+1)
		g.emit("  PLA")
		g.emit("  STA $%02X", slot)
	}
}

func builtinRuntimeName(name string) (string, bool) {
	m := map[string]string{
		"LEN": "Runtime_StringLen", "ABS": "Runtime_Abs", "SGN": "Runtime_Sgn",
		"ASC": "Runtime_Asc", "VAL": "Runtime_Val", "CHR": "Runtime_Chr",
		"STR": "Runtime_Str", "LEFT": "Runtime_Left", "RIGHT": "Runtime_Right",
		"MID": "Runtime_Mid",
	}
	r, ok := m[upperBuiltinName(name)]
	return r, ok
}
