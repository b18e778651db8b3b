package codegen

import "github.com/kd7tck/swissarmyNES/internal/ast"

// emitPrologue emits the boot sequence and NMI/IRQ/BRK trampolines (spec
// §4.5, "Prologue and vectors").
func (g *Generator) emitPrologue(prog *ast.Program) {
	g.emit(".ORG $8000")
	g.emit("Reset:")
	g.emit("  SEI")
	g.emit("  CLD")
	g.emit("  LDX #$FF")
	g.emit("  TXS")
	g.emit("  LDA #$00")
	g.emit("  STA $2000")
	g.emit("  STA $2001")
	g.emit("  JSR WaitVBlank1")
	g.emit("  LDX #$00")
	zeroLoop := g.label("ZeroRAM")
	g.emit("%s:", zeroLoop)
	g.emit("  STA $0000,X")
	g.emit("  STA $0100,X")
	g.emit("  STA $0300,X")
	g.emit("  STA $0400,X")
	g.emit("  STA $0500,X")
	g.emit("  STA $0600,X")
	g.emit("  STA $0700,X")
	g.emit("  LDA #$FF")
	g.emit("  STA $0200,X")
	g.emit("  LDA #$00")
	g.emit("  INX")
	g.emit("  BNE %s", zeroLoop)
	g.emit("  JSR WaitVBlank2")
	g.emit("  JSR UploadPalette")
	g.emit("  JSR InitStrings")
	g.emit("  JSR InitData")
	g.emit("  JSR Sound_Init")
	if hasUserSub(prog, "Main") {
		g.emit("  JSR Main")
	}
	haltLoop := g.label("Halt")
	g.emit("%s:", haltLoop)
	g.emit("  JMP %s", haltLoop)

	g.emit("WaitVBlank1:")
	g.emit("  BIT $2002")
	wv1 := g.label("WaitVBlank1Loop")
	g.emit("%s:", wv1)
	g.emit("  BIT $2002")
	g.emit("  BPL %s", wv1)
	g.emit("  RTS")
	g.emit("WaitVBlank2:")
	wv2 := g.label("WaitVBlank2Loop")
	g.emit("%s:", wv2)
	g.emit("  BIT $2002")
	g.emit("  BPL %s", wv2)
	g.emit("  RTS")

	g.emit("UploadPalette:")
	g.emit("  LDA $2002")
	g.emit("  LDA #$3F")
	g.emit("  STA $2006")
	g.emit("  LDA #$00")
	g.emit("  STA $2006")
	g.emit("  LDX #$00")
	palLoop := g.label("PaletteUploadLoop")
	g.emit("%s:", palLoop)
	g.emit("  LDA $E000,X")
	g.emit("  STA $2007")
	g.emit("  INX")
	g.emit("  CPX #$20")
	g.emit("  BNE %s", palLoop)
	g.emit("  RTS")

	g.emitTrampolineNMI()
	g.emitTrampolineIRQ()
	g.emitTrampolineBRK()
}

func hasUserSub(prog *ast.Program, name string) bool {
	for _, d := range prog.Decls {
		if sub, ok := d.(*ast.Sub); ok && sub.Name == name {
			return true
		}
	}
	return false
}

// emitTrampolineNMI follows spec §4.5's NMI trampoline contract: register
// save, zero-page $00-$0F save, optional OAM DMA, deferred PPU writes,
// CallUserNMI (RTS-terminated, not RTI), restores, then RTI.
func (g *Generator) emitTrampolineNMI() {
	g.emit("TrampolineNMI:")
	g.emit("  PHA")
	g.emit("  TXA")
	g.emit("  PHA")
	g.emit("  TYA")
	g.emit("  PHA")
	g.emit("  LDX #$0F")
	saveZP := g.label("SaveZP")
	g.emit("%s:", saveZP)
	g.emit("  LDA $00,X")
	g.emit("  STA NmiZpShadow,X")
	g.emit("  DEX")
	g.emit("  BPL %s", saveZP)
	g.emit("  LDA #$00")
	g.emit("  STA $2003")
	g.emit("  LDA #$02")
	g.emit("  STA $4014")
	g.emit("  JSR ApplyDeferredPPUWrites")
	g.emit("  JSR Sound_Update")
	g.emit("  JSR CallUserNMI")
	g.emit("  LDX #$00")
	restoreZP := g.label("RestoreZP")
	g.emit("%s:", restoreZP)
	g.emit("  LDA NmiZpShadow,X")
	g.emit("  STA $00,X")
	g.emit("  INX")
	g.emit("  CPX #$10")
	g.emit("  BNE %s", restoreZP)
	g.emit("  PLA")
	g.emit("  TAY")
	g.emit("  PLA")
	g.emit("  TAX")
	g.emit("  PLA")
	g.emit("  RTI")

	g.emit("ApplyDeferredPPUWrites:")
	g.emit("  LDA $F8")
	g.emit("  STA $2000")
	g.emit("  LDA $E0")
	g.emit("  STA $2005")
	g.emit("  LDA $E1")
	g.emit("  STA $2005")
	g.emit("  RTS")

	g.emit("CallUserNMI:")
	if handler, ok := g.onHandlers["NMI"]; ok {
		g.emit("  JSR %s", handler)
	}
	g.emit("  RTS")

	g.emit("NmiZpShadow:")
	g.emit("  .RES 16, $00")
}

func (g *Generator) emitTrampolineIRQ() {
	g.emit("TrampolineIRQ:")
	if handler, ok := g.onHandlers["IRQ"]; ok {
		g.emit("  JSR %s", handler)
	}
	g.emit("  RTI")
}

func (g *Generator) emitTrampolineBRK() {
	g.emit("TrampolineBRK:")
	g.emit("  RTI")
}

// emitVectors emits the $FFFA/$FFFC/$FFFE vector table (spec §4.5).
func (g *Generator) emitVectors() {
	g.emit(".ORG $FFFA")
	g.emit("  .WORD TrampolineNMI")
	g.emit("  .WORD Reset")
	g.emit("  .WORD TrampolineIRQ")
}
