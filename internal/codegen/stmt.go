package codegen

import (
	"fmt"

	"github.com/kd7tck/swissarmyNES/internal/ast"
	"github.com/kd7tck/swissarmyNES/internal/symtab"
)

func (g *Generator) emitSub(sub *ast.Sub) {
	g.emit("%s:", sub.Name)
	for i, p := range sub.Params {
		size := 1
		if p.Type != nil {
			size = g.typeSize(p.Type)
		}
		addr, err := g.ram.alloc(sub.Name+"."+p.Name, size)
		if err == nil {
			g.addrOf[p.Name] = addr
		}
		g.emit("  ; param %d: %s", i, p.Name)
	}
	g.emitBlock(sub.Body)
	g.emit("  RTS")
}

func (g *Generator) emitInterrupt(in *ast.Interrupt) {
	g.emit("%s:", in.Name)
	g.emitBlock(in.Body)
	g.emit("  RTS")
}

func (g *Generator) emitBlock(block ast.Block) {
	for _, stmt := range block {
		g.emitStmt(stmt)
	}
}

func (g *Generator) emitStmt(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Let:
		g.emitLet(s)
	case *ast.If:
		g.emitIf(s)
	case *ast.While:
		g.emitWhile(s)
	case *ast.DoWhile:
		g.emitDoWhile(s)
	case *ast.For:
		g.emitFor(s)
	case *ast.Return:
		if s.Value != nil {
			g.lowerExpr(s.Value)
		}
		g.emit("  RTS")
	case *ast.StmtCall:
		g.lowerExpr(&ast.Call{Callee: s.Callee, Args: s.Args})
	case *ast.Poke:
		g.emitPoke(s)
	case *ast.PlaySfx:
		g.lowerExpr(s.ID)
		g.emit("  STA $18")
		g.emit("  JSR Sound_Play")
	case *ast.Print:
		for _, arg := range s.Args {
			g.lowerExpr(arg)
			g.emit("  STA $14")
			g.emit("  STX $15")
			if isStringType(g.resolveType(arg)) {
				g.emit("  JSR Runtime_Print_String")
			} else {
				g.emit("  JSR Runtime_Print_Number")
			}
		}
	case *ast.Asm:
		g.lines = append(g.lines, s.Lines...)
	case *ast.Comment:
		g.emit("  ; %s", s.Text)
	case *ast.On:
		// Vectors are wired into the prologue by collectOnHandlers; nothing
		// to emit inline.
	case *ast.Read:
		for _, name := range s.Vars {
			g.emit("  JSR Runtime_ReadByte")
			if addr, ok := g.addrOf[name]; ok {
				g.emit("  STA $%04X", addr)
			}
		}
	case *ast.Restore:
		label := "DataCursorDefault"
		if s.Label != "" {
			label = "DataLabel_" + s.Label
		}
		g.emit("  LDA #<%s", label)
		g.emit("  STA DataCursorLow")
		g.emit("  LDA #>%s", label)
		g.emit("  STA DataCursorHigh")
	case *ast.Select:
		g.emitSelect(s)
	case *ast.WaitVBlank:
		g.emit("  JSR WaitVBlank2")
	case *ast.Randomize:
		g.lowerExpr(s.Seed)
		g.emit("  JSR Runtime_Randomize")
	}
}

func (g *Generator) emitLet(s *ast.Let) {
	g.lowerExpr(s.RValue)
	g.emitStore(s.LValue)
}

// emitStore writes A (and X for 16-bit targets) into the storage location
// named by lv.
func (g *Generator) emitStore(lv ast.Expression) {
	switch l := lv.(type) {
	case *ast.Identifier:
		addr, ok := g.addrOf[l.Name]
		if !ok {
			var err error
			addr, err = g.ram.alloc(l.Name, 2)
			if err != nil {
				return
			}
			g.addrOf[l.Name] = addr
		}
		sym, _ := g.Table.Resolve(l.Name)
		var t ast.DataType = &ast.Word{}
		if sym != nil {
			t = sym.Type
		}
		g.emit("  STA $%04X", addr)
		if is16Bit(t) {
			g.emit("  STX $%04X", addr+1)
		}
	case *ast.MemberAccess:
		switch target := l.Target.(type) {
		case *ast.Identifier:
			if base, ok := g.addrOf[target.Name]; ok {
				if st, isStruct := g.structTypeOf(target.Name); isStruct {
					for _, mem := range st.Members {
						if mem.Name == l.Name {
							g.emit("  STA $%04X", base+uint16(mem.Offset))
							if is16Bit(mem.Type) {
								g.emit("  STX $%04X", base+uint16(mem.Offset)+1)
							}
							return
						}
					}
				}
			}
		case *ast.Call:
			if g.emitIndexedStructMemberStore(target, l.Name) {
				return
			}
		}
		g.emit("  ; unresolved store to member access %s.%s", exprLabel(l.Target), l.Name)
	case *ast.Call:
		g.emitIndexedStore(l)
	default:
		g.defensiveTypeMismatch("emitStore", nil)
	}
}

func (g *Generator) emitIndexedStore(c *ast.Call) {
	ident, ok := c.Callee.(*ast.Identifier)
	if !ok || len(c.Args) != 1 {
		return
	}
	sym, ok := g.Table.Resolve(ident.Name)
	if !ok {
		return
	}
	arr, ok := sym.Type.(*ast.ArrayType)
	if !ok {
		return
	}
	base, ok := g.addrOf[ident.Name]
	if !ok {
		return
	}
	g.storeIndexedElementField(base, c.Args[0], g.typeSize(arr.Elem), 0, arr.Elem)
}

// emitIndexedStructMemberStore handles `arr(i).member = v` (spec §4.5's
// array-of-struct case): arr's element type must be a Struct, and the
// member's offset within that struct is added to the element's address.
func (g *Generator) emitIndexedStructMemberStore(c *ast.Call, memberName string) bool {
	ident, ok := c.Callee.(*ast.Identifier)
	if !ok || len(c.Args) != 1 {
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
		g.storeIndexedElementField(base, c.Args[0], elemSize, mem.Offset, mem.Type)
		return true
	}
	return false
}

// storeIndexedElementField stores the value already held in A (and X if
// fieldType is 16-bit) into base[index]+offset. Only a literal index of 0
// folds to a direct absolute store at compile time, since the multiply by
// elemSize vanishes; any other index, literal or not, is scaled by elemSize
// through Math_Mul16 and the store goes through indirect ($02),Y addressing
// with Y = offset (spec §4.5, §8 scenario S6).
func (g *Generator) storeIndexedElementField(base uint16, indexExpr ast.Expression, elemSize, offset int, fieldType ast.DataType) {
	wide := is16Bit(fieldType)
	if lit, ok := indexExpr.(*ast.Integer); ok && lit.Value == 0 {
		addr := base + uint16(offset)
		g.emit("  STA $%04X", addr)
		if wide {
			g.emit("  STX $%04X", addr+1)
		}
		return
	}
	g.emit("  PHA")
	if wide {
		g.emit("  TXA")
		g.emit("  PHA")
	}
	g.emitElementAddress(base, indexExpr, elemSize)
	if wide {
		g.emit("  PLA")
		g.emit("  TAX")
	}
	g.emit("  PLA")
	g.emit("  LDY #$%02X", uint8(offset))
	g.emit("  STA ($02),Y")
	if wide {
		g.emit("  TXA")
		g.emit("  LDY #$%02X", uint8(offset+1))
		g.emit("  STA ($02),Y")
	}
}

// emitElementAddress computes base + index*elemSize into zero-page $02/$03
// ("the effective element address"). elemSize is always a compile-time
// constant (an array element's byte size), but the index generally is not,
// so scaling goes through the Math_Mul16 runtime helper.
func (g *Generator) emitElementAddress(base uint16, indexExpr ast.Expression, elemSize int) {
	wide := is16Bit(g.resolveType(indexExpr))
	g.lowerExpr(indexExpr)
	g.emit("  STA $14")
	if wide {
		g.emit("  STX $15")
	} else {
		g.emit("  LDA #$00")
		g.emit("  STA $15")
	}
	g.emit("  LDA #$%02X", uint8(elemSize&0xFF))
	g.emit("  STA $16")
	g.emit("  LDA #$%02X", uint8((elemSize>>8)&0xFF))
	g.emit("  STA $17")
	g.emit("  JSR Math_Mul16")
	g.emit("  CLC")
	g.emit("  ADC #$%02X", uint8(base&0xFF))
	g.emit("  STA $02")
	g.emit("  TXA")
	g.emit("  ADC #$%02X", uint8((base>>8)&0xFF))
	g.emit("  STA $03")
}

func (g *Generator) emitPoke(p *ast.Poke) {
	g.lowerExpr(p.Value)
	if addr, ok := g.constAddr(p.Addr); ok {
		g.emit("  STA $%04X", addr)
		return
	}
	g.emit("  PHA")
	g.lowerExpr(p.Addr)
	g.emit("  STA $02")
	g.emit("  STX $03")
	g.emit("  PLA")
	g.emit("  LDY #$00")
	g.emit("  STA ($02),Y")
}

func (g *Generator) emitIf(s *ast.If) {
	elseLbl := g.label("Else")
	endLbl := g.label("EndIf")
	g.lowerExpr(s.Cond)
	g.emit("  CMP #$00")
	if s.Else != nil {
		g.emit("  BEQ %s", elseLbl)
	} else {
		g.emit("  BEQ %s", endLbl)
	}
	g.emitBlock(s.Then)
	if s.Else != nil {
		g.emit("  JMP %s", endLbl)
		g.emit("%s:", elseLbl)
		g.emitBlock(s.Else)
	}
	g.emit("%s:", endLbl)
}

func (g *Generator) emitWhile(s *ast.While) {
	top := g.label("WhileTop")
	end := g.label("WhileEnd")
	g.emit("%s:", top)
	g.lowerExpr(s.Cond)
	g.emit("  CMP #$00")
	g.emit("  BEQ %s", end)
	g.emitBlock(s.Body)
	g.emit("  JMP %s", top)
	g.emit("%s:", end)
}

func (g *Generator) emitDoWhile(s *ast.DoWhile) {
	top := g.label("DoTop")
	g.emit("%s:", top)
	g.emitBlock(s.Body)
	g.lowerExpr(s.Cond)
	g.emit("  CMP #$00")
	g.emit("  BNE %s", top)
}

// emitFor lowers FOR/NEXT. The loop-exit test must run in the opposite
// direction for a descending STEP (var < end exits, not var > end) — a
// constant Step's sign is known at compile time and picks the comparison
// directly; a non-constant Step's sign can only be known at runtime, so its
// value is evaluated once into a dedicated RAM slot (not $00-$1F scratch,
// since the loop body's own statements are free to call runtime helpers that
// clobber it between iterations) and the exit test branches on its high byte
// each time through, sharing one copy of the loop body.
func (g *Generator) emitFor(s *ast.For) {
	typ := g.resolveType(&ast.Identifier{Name: s.Var})
	wide := is16Bit(typ)
	signed := isSigned(typ)
	varExpr := &ast.Identifier{Name: s.Var}

	g.lowerExpr(s.Start)
	g.emitStore(varExpr)

	top := g.label("ForTop")
	end := g.label("ForEnd")
	g.emit("%s:", top)

	exitTest := func(op ast.BinaryOperator) {
		g.lowerExpr(varExpr)
		g.emit("  STA $00")
		if wide {
			g.emit("  STX $01")
		}
		g.lowerExpr(s.End)
		g.lowerComparison(op, wide, signed)
		g.emit("  CMP #$00")
		g.emit("  BNE %s", end)
	}

	switch {
	case s.Step == nil || !wide:
		// A Byte loop variable's STEP is always unsigned (Byte has no
		// negative representation), so the ascending test is always right.
		exitTest(ast.Greater)
	default:
		if lit, ok := g.constantStep(s.Step); ok {
			if lit < 0 {
				exitTest(ast.Less)
			} else {
				exitTest(ast.Greater)
			}
		} else {
			g.forTemp++
			stepAddr, err := g.ram.alloc(fmt.Sprintf("$for_step$%d", g.forTemp), 2)
			if err == nil {
				g.lowerExpr(s.Step)
				g.emit("  STA $%04X", stepAddr)
				g.emit("  STX $%04X", stepAddr+1)
			}
			descLbl := g.label("ForDescTest")
			bodyLbl := g.label("ForBody")
			g.emit("  LDA $%04X", stepAddr+1)
			g.emit("  BMI %s", descLbl)
			exitTest(ast.Greater)
			g.emit("  JMP %s", bodyLbl)
			g.emit("%s:", descLbl)
			exitTest(ast.Less)
			g.emit("%s:", bodyLbl)
		}
	}

	g.emitBlock(s.Body)

	g.lowerExpr(varExpr)
	if s.Step != nil {
		g.emit("  STA $00")
		if wide {
			g.emit("  STX $01")
		}
		g.lowerExpr(s.Step)
		g.emit("  CLC")
		g.emit("  ADC $00")
		if wide {
			g.emit("  PHA")
			g.emit("  TXA")
			g.emit("  ADC $01")
			g.emit("  TAX")
			g.emit("  PLA")
		}
	} else {
		g.emit("  CLC")
		g.emit("  ADC #1")
	}
	g.emitStore(varExpr)
	g.emit("  JMP %s", top)
	g.emit("%s:", end)
}

// constantStep folds a FOR loop's STEP expression to a compile-time value
// when possible, mirroring constAddr's literal-or-constant-identifier fold.
func (g *Generator) constantStep(e ast.Expression) (int32, bool) {
	switch expr := e.(type) {
	case *ast.Integer:
		return expr.Value, true
	case *ast.Identifier:
		if sym, ok := g.Table.Resolve(expr.Name); ok && sym.Kind == symtab.Constant && sym.Value != nil {
			return *sym.Value, true
		}
	}
	return 0, false
}

// emitSelect lowers SELECT CASE (spec §4.5). The discriminant is evaluated
// once into zero-page scratch ($04/$05, disjoint from the $00-$03 pair
// expression codegen already uses for its own operand staging) and each
// case compares against that copy, BNE-skipping to the next case — the
// same one-evaluation, repeated-comparison shape spec describes via a
// stack push, expressed here as a zero-page hold since NMOS 6502 has no
// stack-relative addressing mode to peek a pushed value without popping it.
func (g *Generator) emitSelect(s *ast.Select) {
	end := g.label("SelectEnd")
	wide := is16Bit(g.resolveType(s.Discriminant))
	g.lowerExpr(s.Discriminant)
	g.emit("  STA $04")
	if wide {
		g.emit("  STX $05")
	}
	for _, c := range s.Cases {
		nextCase := g.label("SelectNext")
		g.lowerExpr(c.Value)
		g.emit("  CMP $04")
		if wide {
			g.emit("  BNE %s", nextCase)
			g.emit("  TXA")
			g.emit("  CMP $05")
		}
		g.emit("  BNE %s", nextCase)
		g.emitBlock(c.Body)
		g.emit("  JMP %s", end)
		g.emit("%s:", nextCase)
	}
	if s.Else != nil {
		g.emitBlock(s.Else)
	}
	g.emit("%s:", end)
}
