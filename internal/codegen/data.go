package codegen

import "github.com/kd7tck/swissarmyNES/internal/ast"

// emitDataTables appends user DATA blocks, metasprite/animation tables, and
// the user-data pointer table (spec §4.5's final bullet).
func (g *Generator) emitDataTables() {
	g.emit("InitStrings:")
	g.emit("  RTS")
	for _, text := range g.strOrder {
		g.emit("%s: .STRZ %q", g.strLbl[text], text)
	}

	g.emit("InitData:")
	g.emit("  LDA #<DataStart")
	g.emit("  STA DataCursorLow")
	g.emit("  LDA #>DataStart")
	g.emit("  STA DataCursorHigh")
	g.emit("  RTS")
	g.emit("DataCursorLow: .RES 1, $00")
	g.emit("DataCursorHigh: .RES 1, $00")
	g.emit("DataCursorDefault = DataStart")

	g.emit("DataStart:")
	for _, block := range g.dataBlocks {
		if block.Label != "" {
			g.emit("DataLabel_%s:", block.Label)
		}
		for _, expr := range block.Exprs {
			g.emitDataExpr(expr)
		}
	}

	for i, ms := range g.metasprites {
		g.emit("Metasprite_%d_%s:", i, ms.Name)
		g.emit("  .BYTE $%02X", uint8(len(ms.Tiles)))
		for _, tile := range ms.Tiles {
			g.emit("  .BYTE $%02X, $%02X, $%02X, $%02X", uint8(tile.DX), uint8(tile.DY), uint8(tile.TileID), uint8(tile.Attr))
		}
	}

	for i, anim := range g.animations {
		loopFlag := 0
		if anim.Loops {
			loopFlag = 1
		}
		g.emit("Animation_%d_%s:", i, anim.Name)
		g.emit("  .BYTE $%02X, $%02X", uint8(len(anim.Frames)), uint8(loopFlag))
		for _, frame := range anim.Frames {
			g.emit("  .WORD Ptr_%s", frame.Metasprite)
			g.emit("  .BYTE $%02X", uint8(frame.Duration))
		}
	}

	for i, ms := range g.metasprites {
		g.emit("Ptr_%s: .WORD Metasprite_%d_%s", ms.Name, i, ms.Name)
	}
	g.emit("InitUserData: .WORD USER_DATA_START")
	g.emit("USER_DATA_START:")
}

// emitDataExpr encodes one DATA value: integers in [-128,255] take 1 byte,
// otherwise 2 bytes little-endian; strings are followed by a $00
// terminator (spec §4.5).
func (g *Generator) emitDataExpr(e ast.Expression) {
	switch v := e.(type) {
	case *ast.Integer:
		if v.Value >= -128 && v.Value <= 255 {
			g.emit("  .BYTE $%02X", uint8(v.Value))
		} else {
			g.emit("  .WORD $%04X", uint16(v.Value))
		}
	case *ast.StringLiteral:
		g.emit("  .STRZ %q", v.Value)
	default:
		g.emit("  ; unsupported DATA expression")
	}
}
