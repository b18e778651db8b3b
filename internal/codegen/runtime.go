package codegen

// emitRuntimeLibrary appends the always-present runtime routines (spec
// §4.5, "Runtime library and data tables"). Each routine's contract: inputs
// via zero-page slots $14-$1F, outputs in A/X.
func (g *Generator) emitRuntimeLibrary() {
	g.emitMathHelpers()
	g.emitStringHelpers()
	g.emitReceiverHelpers()
	g.emitGameplayHelpers()
	g.emitSoundHelpers()
}

func (g *Generator) emitMathHelpers() {
	g.emit("Math_Mul16:")
	g.emit("  ; $14/$15 = multiplicand, $16/$17 = multiplier -> A/X = product")
	g.emit("  LDA #$00")
	g.emit("  STA $1A")
	g.emit("  STA $1B")
	g.emit("  LDX #$10")
	loop := g.label("Mul16Loop")
	skipAdd := g.label("Mul16SkipAdd")
	g.emit("%s:", loop)
	g.emit("  LSR $17")
	g.emit("  ROR $16")
	g.emit("  BCC %s", skipAdd)
	g.emit("  LDA $1A")
	g.emit("  CLC")
	g.emit("  ADC $14")
	g.emit("  STA $1A")
	g.emit("  LDA $1B")
	g.emit("  ADC $15")
	g.emit("  STA $1B")
	g.emit("%s:", skipAdd)
	g.emit("  ASL $14")
	g.emit("  ROL $15")
	g.emit("  DEX")
	g.emit("  BNE %s", loop)
	g.emit("  LDA $1A")
	g.emit("  LDX $1B")
	g.emit("  RTS")

	g.emit("Math_Div16:")
	g.emit("  ; $14/$15 = dividend, $16/$17 = divisor -> A/X = quotient, $14/$15 left holding the remainder")
	g.emit("  ; a zero divisor returns quotient $FFFF and leaves the dividend as the remainder")
	dstart := g.label("Div16Start")
	g.emit("  LDA $16")
	g.emit("  ORA $17")
	g.emit("  BNE %s", dstart)
	g.emit("  LDA #$FF")
	g.emit("  TAX")
	g.emit("  RTS")
	g.emit("%s:", dstart)
	g.emit("  LDA #$00")
	g.emit("  STA $1A")
	g.emit("  STA $1B")
	dloop := g.label("Div16Loop")
	dexit := g.label("Div16Exit")
	g.emit("%s:", dloop)
	g.emit("  LDA $14")
	g.emit("  SEC")
	g.emit("  SBC $16")
	g.emit("  TAY")
	g.emit("  LDA $15")
	g.emit("  SBC $17")
	g.emit("  BCC %s", dexit)
	g.emit("  STA $15")
	g.emit("  STY $14")
	g.emit("  INC $1A")
	g.emit("  BNE %s", dloop)
	g.emit("  INC $1B")
	g.emit("  JMP %s", dloop)
	g.emit("%s:", dexit)
	g.emit("  LDA $1A")
	g.emit("  LDX $1B")
	g.emit("  RTS")

	g.emit("Math_Mod16:")
	g.emit("  JSR Math_Div16")
	g.emit("  LDA $14")
	g.emit("  LDX $15")
	g.emit("  RTS")
}

func (g *Generator) emitStringHelpers() {
	g.emit("Runtime_GetHeapSlot:")
	g.emit("  ; A = requested slot index -> A/X = address of $03C0-based slot")
	g.emit("  AND #$1F")
	g.emit("  STA $1C")
	g.emit("  LDA #$00")
	g.emit("  STA $1D")
	g.emit("  LDA $1C")
	g.emit("  ASL A")
	g.emit("  ASL A")
	g.emit("  ASL A")
	g.emit("  ASL A")
	g.emit("  CLC")
	g.emit("  ADC #$C0")
	g.emit("  STA $1C")
	g.emit("  LDA #$03")
	g.emit("  ADC #$00")
	g.emit("  STA $1D")
	g.emit("  LDA $1C")
	g.emit("  LDX $1D")
	g.emit("  RTS")

	g.emit("Runtime_NextHeapSlot:")
	g.emit("  ; advances the round-robin heap-slot cursor -> A/X = address of a fresh 16-byte slot")
	g.emit("  LDA HeapCursor")
	g.emit("  STA $1C")
	g.emit("  INC HeapCursor")
	g.emit("  LDA HeapCursor")
	g.emit("  AND #$1F")
	g.emit("  STA HeapCursor")
	g.emit("  LDA $1C")
	g.emit("  JSR Runtime_GetHeapSlot")
	g.emit("  RTS")
	g.emit("HeapCursor: .RES 1, $00")

	g.emit("Runtime_StrCat:")
	g.emit("  ; $14/$15 = ptr a, $16/$17 = ptr b -> A/X = ptr to a new heap-slot concatenation (truncated to 15 chars)")
	g.emit("  JSR Runtime_NextHeapSlot")
	g.emit("  STA $1C")
	g.emit("  STX $1D")
	g.emit("  LDA #$00")
	g.emit("  STA $1E")
	copyA := g.label("StrCatCopyA")
	copyBEntry := g.label("StrCatCopyBEntry")
	incA1 := g.label("StrCatAInc1")
	copyB := g.label("StrCatCopyB")
	incB1 := g.label("StrCatBInc1")
	term := g.label("StrCatTerminate")
	g.emit("%s:", copyA)
	g.emit("  LDA $1E")
	g.emit("  CMP #$0F")
	g.emit("  BCS %s", copyBEntry)
	g.emit("  LDY #$00")
	g.emit("  LDA ($14),Y")
	g.emit("  BEQ %s", copyBEntry)
	g.emit("  STA ($1C),Y")
	g.emit("  INC $1E")
	g.emit("  INC $14")
	g.emit("  BNE %s", incA1)
	g.emit("  INC $15")
	g.emit("%s:", incA1)
	g.emit("  INC $1C")
	g.emit("  BNE %s", copyA)
	g.emit("  INC $1D")
	g.emit("  JMP %s", copyA)
	g.emit("%s:", copyBEntry)
	g.emit("%s:", copyB)
	g.emit("  LDA $1E")
	g.emit("  CMP #$0F")
	g.emit("  BCS %s", term)
	g.emit("  LDY #$00")
	g.emit("  LDA ($16),Y")
	g.emit("  BEQ %s", term)
	g.emit("  STA ($1C),Y")
	g.emit("  INC $1E")
	g.emit("  INC $16")
	g.emit("  BNE %s", incB1)
	g.emit("  INC $17")
	g.emit("%s:", incB1)
	g.emit("  INC $1C")
	g.emit("  BNE %s", copyB)
	g.emit("  INC $1D")
	g.emit("  JMP %s", copyB)
	g.emit("%s:", term)
	g.emit("  LDY #$00")
	g.emit("  LDA #$00")
	g.emit("  STA ($1C),Y")
	g.emit("  LDA $1C")
	g.emit("  LDX $1D")
	g.emit("  RTS")

	g.emit("Runtime_StringLen:")
	g.emit("  ; $14/$15 = string pointer -> A/X = length (bytes before the null terminator)")
	g.emit("  LDY #$00")
	slLoop := g.label("StringLenLoop")
	slDone := g.label("StringLenDone")
	g.emit("%s:", slLoop)
	g.emit("  LDA ($14),Y")
	g.emit("  BEQ %s", slDone)
	g.emit("  INY")
	g.emit("  BNE %s", slLoop)
	g.emit("%s:", slDone)
	g.emit("  TYA")
	g.emit("  LDX #$00")
	g.emit("  RTS")

	g.emit("Runtime_Asc:")
	g.emit("  ; $14/$15 = string pointer -> A = code of the first character")
	g.emit("  LDY #$00")
	g.emit("  LDA ($14),Y")
	g.emit("  RTS")

	g.emit("Runtime_Val:")
	g.emit("  ; $14/$15 = string pointer -> A/X = parsed decimal integer (optional leading '-', stops at the first non-digit)")
	g.emit("  LDA #$00")
	g.emit("  STA $1A")
	g.emit("  STA $1B")
	g.emit("  STA $1C")
	g.emit("  LDY #$00")
	g.emit("  LDA ($14),Y")
	g.emit("  CMP #$2D")
	valDigits := g.label("ValDigits")
	g.emit("  BNE %s", valDigits)
	g.emit("  LDA #$01")
	g.emit("  STA $1C")
	g.emit("  INY")
	g.emit("%s:", valDigits)
	valLoop := g.label("ValDigitLoop")
	valDone := g.label("ValDone")
	g.emit("%s:", valLoop)
	g.emit("  LDA ($14),Y")
	g.emit("  CMP #$30")
	g.emit("  BCC %s", valDone)
	g.emit("  CMP #$3A")
	g.emit("  BCS %s", valDone)
	g.emit("  SEC")
	g.emit("  SBC #$30")
	g.emit("  STA $1D")
	g.emit("  LDA $1A")
	g.emit("  STA $1E")
	g.emit("  LDA $1B")
	g.emit("  STA $1F")
	g.emit("  ASL $1E")
	g.emit("  ROL $1F")
	g.emit("  ASL $1A")
	g.emit("  ROL $1B")
	g.emit("  ASL $1A")
	g.emit("  ROL $1B")
	g.emit("  ASL $1A")
	g.emit("  ROL $1B")
	g.emit("  CLC")
	g.emit("  LDA $1A")
	g.emit("  ADC $1E")
	g.emit("  STA $1A")
	g.emit("  LDA $1B")
	g.emit("  ADC $1F")
	g.emit("  STA $1B")
	g.emit("  CLC")
	g.emit("  LDA $1A")
	g.emit("  ADC $1D")
	g.emit("  STA $1A")
	g.emit("  LDA $1B")
	g.emit("  ADC #$00")
	g.emit("  STA $1B")
	g.emit("  INY")
	g.emit("  JMP %s", valLoop)
	g.emit("%s:", valDone)
	valPositive := g.label("ValPositive")
	g.emit("  LDA $1C")
	g.emit("  BEQ %s", valPositive)
	g.emit("  LDA #$00")
	g.emit("  SEC")
	g.emit("  SBC $1A")
	g.emit("  STA $1A")
	g.emit("  LDA #$00")
	g.emit("  SBC $1B")
	g.emit("  STA $1B")
	g.emit("%s:", valPositive)
	g.emit("  LDA $1A")
	g.emit("  LDX $1B")
	g.emit("  RTS")

	g.emit("Runtime_Chr:")
	g.emit("  ; $14 = char code -> A/X = ptr to a new heap-slot 1-char string")
	g.emit("  JSR Runtime_NextHeapSlot")
	g.emit("  STA $1C")
	g.emit("  STX $1D")
	g.emit("  LDY #$00")
	g.emit("  LDA $14")
	g.emit("  STA ($1C),Y")
	g.emit("  INY")
	g.emit("  LDA #$00")
	g.emit("  STA ($1C),Y")
	g.emit("  LDA $1C")
	g.emit("  LDX $1D")
	g.emit("  RTS")

	g.emit("Runtime_Str:")
	g.emit("  ; $14/$15 = numeric value -> A/X = ptr to a new heap-slot decimal string (Int's sign bit, if set, emits a '-' prefix)")
	g.emit("  JSR Runtime_NextHeapSlot")
	g.emit("  STA $1C")
	g.emit("  STX $1D")
	g.emit("  LDA #$00")
	g.emit("  STA $1E")
	strUnsigned := g.label("StrUnsigned")
	g.emit("  LDA $15")
	g.emit("  BPL %s", strUnsigned)
	g.emit("  LDA #$01")
	g.emit("  STA $1F")
	g.emit("  LDA #$00")
	g.emit("  SEC")
	g.emit("  SBC $14")
	g.emit("  STA $14")
	g.emit("  LDA #$00")
	g.emit("  SBC $15")
	g.emit("  STA $15")
	strDigitLoop := g.label("StrDigitLoop")
	g.emit("  JMP %s", strDigitLoop)
	g.emit("%s:", strUnsigned)
	g.emit("  LDA #$00")
	g.emit("  STA $1F")
	g.emit("%s:", strDigitLoop)
	g.emit("  LDA #$0A")
	g.emit("  STA $16")
	g.emit("  LDA #$00")
	g.emit("  STA $17")
	g.emit("  JSR Math_Div16")
	g.emit("  STA $02")
	g.emit("  STX $03")
	g.emit("  LDA $14")
	g.emit("  CLC")
	g.emit("  ADC #$30")
	g.emit("  PHA")
	g.emit("  INC $1E")
	g.emit("  LDA $02")
	g.emit("  STA $14")
	g.emit("  LDA $03")
	g.emit("  STA $15")
	g.emit("  ORA $14")
	g.emit("  BNE %s", strDigitLoop)
	strNoSign := g.label("StrNoSign")
	strWriteLoop := g.label("StrWriteLoop")
	strTerminate := g.label("StrTerminate")
	g.emit("  LDY #$00")
	g.emit("  LDA $1F")
	g.emit("  BEQ %s", strNoSign)
	g.emit("  LDA #$2D")
	g.emit("  STA ($1C),Y")
	g.emit("  INY")
	g.emit("%s:", strNoSign)
	g.emit("%s:", strWriteLoop)
	g.emit("  LDA $1E")
	g.emit("  BEQ %s", strTerminate)
	g.emit("  PLA")
	g.emit("  STA ($1C),Y")
	g.emit("  INY")
	g.emit("  DEC $1E")
	g.emit("  JMP %s", strWriteLoop)
	g.emit("%s:", strTerminate)
	g.emit("  LDA #$00")
	g.emit("  STA ($1C),Y")
	g.emit("  LDA $1C")
	g.emit("  LDX $1D")
	g.emit("  RTS")

	g.emit("Runtime_Left:")
	g.emit("  ; $14/$15 = string pointer, $16 = count -> A/X = ptr to a new heap-slot string with the first count chars (capped to 15)")
	leftCountOK := g.label("LeftCountOK")
	leftLoop := g.label("LeftLoop")
	leftInc1 := g.label("LeftInc1")
	leftTerminate := g.label("LeftTerminate")
	g.emit("  LDA $16")
	g.emit("  CMP #$10")
	g.emit("  BCC %s", leftCountOK)
	g.emit("  LDA #$0F")
	g.emit("%s:", leftCountOK)
	g.emit("  STA $1E")
	g.emit("  JSR Runtime_NextHeapSlot")
	g.emit("  STA $1C")
	g.emit("  STX $1D")
	g.emit("%s:", leftLoop)
	g.emit("  LDA $1E")
	g.emit("  BEQ %s", leftTerminate)
	g.emit("  LDY #$00")
	g.emit("  LDA ($14),Y")
	g.emit("  BEQ %s", leftTerminate)
	g.emit("  STA ($1C),Y")
	g.emit("  DEC $1E")
	g.emit("  INC $14")
	g.emit("  BNE %s", leftInc1)
	g.emit("  INC $15")
	g.emit("%s:", leftInc1)
	g.emit("  INC $1C")
	g.emit("  BNE %s", leftLoop)
	g.emit("  INC $1D")
	g.emit("  JMP %s", leftLoop)
	g.emit("%s:", leftTerminate)
	g.emit("  LDY #$00")
	g.emit("  LDA #$00")
	g.emit("  STA ($1C),Y")
	g.emit("  LDA $1C")
	g.emit("  LDX $1D")
	g.emit("  RTS")

	g.emit("Runtime_Right:")
	g.emit("  ; $14/$15 = string pointer, $16 = count -> A/X = ptr to a new heap-slot string with the last count chars (capped to 15)")
	rightCountCap := g.label("RightCountCap")
	rightCountOK := g.label("RightCountOK")
	rightLoop := g.label("RightLoop")
	rightInc1 := g.label("RightInc1")
	rightTerminate := g.label("RightTerminate")
	g.emit("  JSR Runtime_StringLen")
	g.emit("  STA $1E")
	g.emit("  LDA $16")
	g.emit("  CMP #$10")
	g.emit("  BCC %s", rightCountCap)
	g.emit("  LDA #$0F")
	g.emit("%s:", rightCountCap)
	g.emit("  CMP $1E")
	g.emit("  BCC %s", rightCountOK)
	g.emit("  LDA $1E")
	g.emit("%s:", rightCountOK)
	g.emit("  STA $1F")
	g.emit("  LDA $1E")
	g.emit("  SEC")
	g.emit("  SBC $1F")
	g.emit("  CLC")
	g.emit("  ADC $14")
	g.emit("  STA $14")
	g.emit("  LDA #$00")
	g.emit("  ADC $15")
	g.emit("  STA $15")
	g.emit("  JSR Runtime_NextHeapSlot")
	g.emit("  STA $1C")
	g.emit("  STX $1D")
	g.emit("%s:", rightLoop)
	g.emit("  LDA $1F")
	g.emit("  BEQ %s", rightTerminate)
	g.emit("  LDY #$00")
	g.emit("  LDA ($14),Y")
	g.emit("  STA ($1C),Y")
	g.emit("  DEC $1F")
	g.emit("  INC $14")
	g.emit("  BNE %s", rightInc1)
	g.emit("  INC $15")
	g.emit("%s:", rightInc1)
	g.emit("  INC $1C")
	g.emit("  BNE %s", rightLoop)
	g.emit("  INC $1D")
	g.emit("  JMP %s", rightLoop)
	g.emit("%s:", rightTerminate)
	g.emit("  LDY #$00")
	g.emit("  LDA #$00")
	g.emit("  STA ($1C),Y")
	g.emit("  LDA $1C")
	g.emit("  LDX $1D")
	g.emit("  RTS")

	g.emit("Runtime_Mid:")
	g.emit("  ; $14/$15 = string pointer, $16 = start (1-based), $18 = length -> A/X = ptr to a new heap-slot substring (capped to 15 chars, clamped to the source's bounds)")
	midOffsetZero := g.label("MidOffsetZero")
	midOffsetCap := g.label("MidOffsetCap")
	midOffsetOK := g.label("MidOffsetOK")
	midLenCap := g.label("MidLenCap")
	midLenOK := g.label("MidLenOK")
	midLoop := g.label("MidLoop")
	midInc1 := g.label("MidInc1")
	midTerminate := g.label("MidTerminate")
	g.emit("  JSR Runtime_StringLen")
	g.emit("  STA $1E")
	g.emit("  LDA $16")
	g.emit("  BEQ %s", midOffsetZero)
	g.emit("  SEC")
	g.emit("  SBC #$01")
	g.emit("  JMP %s", midOffsetCap)
	g.emit("%s:", midOffsetZero)
	g.emit("  LDA #$00")
	g.emit("%s:", midOffsetCap)
	g.emit("  CMP $1E")
	g.emit("  BCC %s", midOffsetOK)
	g.emit("  LDA $1E")
	g.emit("%s:", midOffsetOK)
	g.emit("  STA $1F")
	g.emit("  CLC")
	g.emit("  ADC $14")
	g.emit("  STA $14")
	g.emit("  LDA #$00")
	g.emit("  ADC $15")
	g.emit("  STA $15")
	g.emit("  LDA $1E")
	g.emit("  SEC")
	g.emit("  SBC $1F")
	g.emit("  STA $1E")
	g.emit("  LDA $18")
	g.emit("  CMP #$10")
	g.emit("  BCC %s", midLenCap)
	g.emit("  LDA #$0F")
	g.emit("%s:", midLenCap)
	g.emit("  CMP $1E")
	g.emit("  BCC %s", midLenOK)
	g.emit("  LDA $1E")
	g.emit("%s:", midLenOK)
	g.emit("  STA $1F")
	g.emit("  JSR Runtime_NextHeapSlot")
	g.emit("  STA $1C")
	g.emit("  STX $1D")
	g.emit("%s:", midLoop)
	g.emit("  LDA $1F")
	g.emit("  BEQ %s", midTerminate)
	g.emit("  LDY #$00")
	g.emit("  LDA ($14),Y")
	g.emit("  STA ($1C),Y")
	g.emit("  DEC $1F")
	g.emit("  INC $14")
	g.emit("  BNE %s", midInc1)
	g.emit("  INC $15")
	g.emit("%s:", midInc1)
	g.emit("  INC $1C")
	g.emit("  BNE %s", midLoop)
	g.emit("  INC $1D")
	g.emit("  JMP %s", midLoop)
	g.emit("%s:", midTerminate)
	g.emit("  LDY #$00")
	g.emit("  LDA #$00")
	g.emit("  STA ($1C),Y")
	g.emit("  LDA $1C")
	g.emit("  LDX $1D")
	g.emit("  RTS")

	g.emit("Runtime_Abs:")
	g.emit("  ; $14 = arg -> A = |arg|, X = 0")
	g.emit("  LDA $14")
	absPositive := g.label("AbsPositive")
	g.emit("  BPL %s", absPositive)
	g.emit("  EOR #$FF")
	g.emit("  CLC")
	g.emit("  ADC #$01")
	g.emit("%s:", absPositive)
	g.emit("  LDX #$00")
	g.emit("  RTS")

	g.emit("Runtime_Sgn:")
	g.emit("  ; $14 = arg -> A = -1/0/1, X = sign-extension")
	g.emit("  LDA $14")
	sgnZero := g.label("SgnZero")
	sgnNeg := g.label("SgnNeg")
	sgnDone := g.label("SgnDone")
	g.emit("  BEQ %s", sgnZero)
	g.emit("  BMI %s", sgnNeg)
	g.emit("  LDA #$01")
	g.emit("  LDX #$00")
	g.emit("  JMP %s", sgnDone)
	g.emit("%s:", sgnNeg)
	g.emit("  LDA #$FF")
	g.emit("  LDX #$FF")
	g.emit("  JMP %s", sgnDone)
	g.emit("%s:", sgnZero)
	g.emit("  LDA #$00")
	g.emit("  LDX #$00")
	g.emit("%s:", sgnDone)
	g.emit("  RTS")

	g.emit("Runtime_ReadByte:")
	g.emit("  LDY #$00")
	g.emit("  LDA (DataCursorLow),Y")
	g.emit("  INC DataCursorLow")
	readByteDone := g.label("ReadByteDone")
	g.emit("  BNE %s", readByteDone)
	g.emit("  INC DataCursorHigh")
	g.emit("%s:", readByteDone)
	g.emit("  RTS")

	g.emit("Runtime_ReadString:")
	g.emit("  JSR Runtime_ReadByte")
	g.emit("  RTS")
}

func (g *Generator) emitReceiverHelpers() {
	g.emit("Runtime_Controller_Read:")
	g.emit("  ; -> A = packed button byte; also updates ControllerState/ControllerPrev for edge detection")
	g.emit("  LDA #$01")
	g.emit("  STA $4016")
	g.emit("  LDA #$00")
	g.emit("  STA $4016")
	g.emit("  LDX #$08")
	g.emit("  LDA #$00")
	loop := g.label("ControllerReadLoop")
	g.emit("%s:", loop)
	g.emit("  PHA")
	g.emit("  LDA $4016")
	g.emit("  LSR A")
	g.emit("  PLA")
	g.emit("  ROL A")
	g.emit("  DEX")
	g.emit("  BNE %s", loop)
	g.emit("  LDX ControllerState")
	g.emit("  STX ControllerPrev")
	g.emit("  STA ControllerState")
	g.emit("  RTS")
	g.emit("ControllerState: .RES 1, $00")
	g.emit("ControllerPrev: .RES 1, $00")

	g.emit("Runtime_Controller_IsHeld:")
	g.emit("  ; $14 = button mask -> A = $FF if currently held, else $00")
	heldFalse := g.label("ControllerHeldFalse")
	g.emit("  LDA ControllerState")
	g.emit("  AND $14")
	g.emit("  BEQ %s", heldFalse)
	g.emit("  LDA #$FF")
	g.emit("  RTS")
	g.emit("%s:", heldFalse)
	g.emit("  LDA #$00")
	g.emit("  RTS")

	g.emit("Runtime_Controller_IsPressed:")
	g.emit("  ; $14 = button mask -> A = $FF if held now but not on the previous frame, else $00")
	pressedFalse := g.label("ControllerPressedFalse")
	g.emit("  LDA ControllerState")
	g.emit("  AND $14")
	g.emit("  BEQ %s", pressedFalse)
	g.emit("  LDA ControllerPrev")
	g.emit("  AND $14")
	g.emit("  BNE %s", pressedFalse)
	g.emit("  LDA #$FF")
	g.emit("  RTS")
	g.emit("%s:", pressedFalse)
	g.emit("  LDA #$00")
	g.emit("  RTS")

	g.emit("Runtime_Controller_IsReleased:")
	g.emit("  ; $14 = button mask -> A = $FF if held on the previous frame but not now, else $00")
	releasedFalse := g.label("ControllerReleasedFalse")
	g.emit("  LDA ControllerPrev")
	g.emit("  AND $14")
	g.emit("  BEQ %s", releasedFalse)
	g.emit("  LDA ControllerState")
	g.emit("  AND $14")
	g.emit("  BNE %s", releasedFalse)
	g.emit("  LDA #$FF")
	g.emit("  RTS")
	g.emit("%s:", releasedFalse)
	g.emit("  LDA #$00")
	g.emit("  RTS")

	g.emit("Runtime_Sprite_Draw:")
	g.emit("  ; $14 = OAM slot, $16/$17 = metasprite ptr, $18 = x, $1A = y -> blits the metasprite's tile quads into the OAM shadow at $0200+slot*4")
	g.emit("  LDA $14")
	g.emit("  ASL A")
	g.emit("  ASL A")
	g.emit("  TAX")
	g.emit("  LDY #$00")
	g.emit("  LDA ($16),Y")
	g.emit("  STA $02")
	g.emit("  INY")
	spdLoop := g.label("SpriteDrawLoop")
	spdDone := g.label("SpriteDrawDone")
	g.emit("%s:", spdLoop)
	g.emit("  LDA $02")
	g.emit("  BEQ %s", spdDone)
	g.emit("  LDA ($16),Y")
	g.emit("  CLC")
	g.emit("  ADC $18")
	g.emit("  STA $03")
	g.emit("  INY")
	g.emit("  LDA ($16),Y")
	g.emit("  CLC")
	g.emit("  ADC $1A")
	g.emit("  STA $0200,X")
	g.emit("  INY")
	g.emit("  LDA ($16),Y")
	g.emit("  STA $0201,X")
	g.emit("  INY")
	g.emit("  LDA ($16),Y")
	g.emit("  STA $0202,X")
	g.emit("  LDA $03")
	g.emit("  STA $0203,X")
	g.emit("  INY")
	g.emit("  INX")
	g.emit("  INX")
	g.emit("  INX")
	g.emit("  INX")
	g.emit("  DEC $02")
	g.emit("  JMP %s", spdLoop)
	g.emit("%s:", spdDone)
	g.emit("  RTS")

	g.emit("Runtime_Sprite_Clear:")
	g.emit("  ; -> fills the entire 256-byte OAM shadow with $FF (moves every sprite off-screen)")
	g.emit("  LDX #$00")
	g.emit("  LDA #$FF")
	scLoop := g.label("SpriteClearLoop")
	g.emit("%s:", scLoop)
	g.emit("  STA $0200,X")
	g.emit("  INX")
	g.emit("  BNE %s", scLoop)
	g.emit("  RTS")

	g.emit("Runtime_Print_String:")
	g.emit("  ; $14/$15 = string pointer -> writes it at the text cursor (TextOffsetX,TextOffsetY), advancing the cursor by the string's length")
	g.emit("  LDA $2002")
	g.emit("  LDA TextOffsetY")
	g.emit("  STA $02")
	g.emit("  LDA #$00")
	g.emit("  STA $03")
	g.emit("  ASL $02")
	g.emit("  ROL $03")
	g.emit("  ASL $02")
	g.emit("  ROL $03")
	g.emit("  ASL $02")
	g.emit("  ROL $03")
	g.emit("  ASL $02")
	g.emit("  ROL $03")
	g.emit("  ASL $02")
	g.emit("  ROL $03")
	g.emit("  LDA $02")
	g.emit("  CLC")
	g.emit("  ADC TextOffsetX")
	g.emit("  STA $02")
	g.emit("  LDA $03")
	g.emit("  ADC #$00")
	g.emit("  STA $03")
	g.emit("  LDA $03")
	g.emit("  CLC")
	g.emit("  ADC #$20")
	g.emit("  STA $03")
	g.emit("  LDA $03")
	g.emit("  STA $2006")
	g.emit("  LDA $02")
	g.emit("  STA $2006")
	g.emit("  LDY #$00")
	ppsLoop := g.label("PrintStringLoop")
	ppsDone := g.label("PrintStringDone")
	g.emit("%s:", ppsLoop)
	g.emit("  LDA ($14),Y")
	g.emit("  BEQ %s", ppsDone)
	g.emit("  STA $2007")
	g.emit("  INY")
	g.emit("  JMP %s", ppsLoop)
	g.emit("%s:", ppsDone)
	g.emit("  TYA")
	g.emit("  CLC")
	g.emit("  ADC TextOffsetX")
	g.emit("  STA TextOffsetX")
	g.emit("  RTS")
	g.emit("TextOffsetX: .RES 1, $00")
	g.emit("TextOffsetY: .RES 1, $00")

	g.emit("Runtime_Print_Number:")
	g.emit("  ; $14/$15 = numeric value -> converts it to decimal text (via Runtime_Str) and prints it at the text cursor")
	g.emit("  JSR Runtime_Str")
	g.emit("  STA $14")
	g.emit("  STX $15")
	g.emit("  JSR Runtime_Print_String")
	g.emit("  RTS")

	g.emit("Runtime_Text_Print:")
	g.emit("  ; $14 = x, $16 = y, $18/$19 = string pointer -> positions the text cursor then prints the string")
	g.emit("  LDA $14")
	g.emit("  STA TextOffsetX")
	g.emit("  LDA $16")
	g.emit("  STA TextOffsetY")
	g.emit("  LDA $18")
	g.emit("  STA $14")
	g.emit("  LDA $19")
	g.emit("  STA $15")
	g.emit("  JSR Runtime_Print_String")
	g.emit("  RTS")

	g.emit("Runtime_Text_SetOffset:")
	g.emit("  ; $14 = x, $16 = y -> sets the text cursor used by Runtime_Print_String/bare PRINT")
	g.emit("  LDA $14")
	g.emit("  STA TextOffsetX")
	g.emit("  LDA $16")
	g.emit("  STA TextOffsetY")
	g.emit("  RTS")
}

func (g *Generator) emitGameplayHelpers() {
	g.emit("Runtime_Collision_Rect:")
	g.emit("  ; $14=x1 $16=y1 $18=x2 $1A=y2 -> A = $FF if the two 8x8 boxes overlap, else $00")
	crxPositive := g.label("CollisionRectXPositive")
	cryPositive := g.label("CollisionRectYPositive")
	crFalse := g.label("CollisionRectFalse")
	g.emit("  LDA $14")
	g.emit("  SEC")
	g.emit("  SBC $18")
	g.emit("  BPL %s", crxPositive)
	g.emit("  EOR #$FF")
	g.emit("  CLC")
	g.emit("  ADC #$01")
	g.emit("%s:", crxPositive)
	g.emit("  CMP #$08")
	g.emit("  BCS %s", crFalse)
	g.emit("  LDA $16")
	g.emit("  SEC")
	g.emit("  SBC $1A")
	g.emit("  BPL %s", cryPositive)
	g.emit("  EOR #$FF")
	g.emit("  CLC")
	g.emit("  ADC #$01")
	g.emit("%s:", cryPositive)
	g.emit("  CMP #$08")
	g.emit("  BCS %s", crFalse)
	g.emit("  LDA #$FF")
	g.emit("  RTS")
	g.emit("%s:", crFalse)
	g.emit("  LDA #$00")
	g.emit("  RTS")

	g.emit("Runtime_Collision_Point:")
	g.emit("  ; $14=px $16=py $18=bx $1A=by -> A = $FF if (px,py) lies within the box's 8x8 extent, else $00")
	cpFalse := g.label("CollisionPointFalse")
	g.emit("  LDA $14")
	g.emit("  SEC")
	g.emit("  SBC $18")
	g.emit("  BCC %s", cpFalse)
	g.emit("  CMP #$08")
	g.emit("  BCS %s", cpFalse)
	g.emit("  LDA $16")
	g.emit("  SEC")
	g.emit("  SBC $1A")
	g.emit("  BCC %s", cpFalse)
	g.emit("  CMP #$08")
	g.emit("  BCS %s", cpFalse)
	g.emit("  LDA #$FF")
	g.emit("  RTS")
	g.emit("%s:", cpFalse)
	g.emit("  LDA #$00")
	g.emit("  RTS")

	g.emit("Runtime_Collision_Tile:")
	g.emit("  ; $14=x $16=y -> A = the nametable tile id at the pixel position's coarse tile coordinate, read from the fixed $D500 nametable blob")
	g.emit("  LDA $14")
	g.emit("  LSR A")
	g.emit("  LSR A")
	g.emit("  LSR A")
	g.emit("  STA $1E")
	g.emit("  LDA $16")
	g.emit("  LSR A")
	g.emit("  LSR A")
	g.emit("  LSR A")
	g.emit("  STA $02")
	g.emit("  LDA #$00")
	g.emit("  STA $03")
	g.emit("  ASL $02")
	g.emit("  ROL $03")
	g.emit("  ASL $02")
	g.emit("  ROL $03")
	g.emit("  ASL $02")
	g.emit("  ROL $03")
	g.emit("  ASL $02")
	g.emit("  ROL $03")
	g.emit("  ASL $02")
	g.emit("  ROL $03")
	g.emit("  LDA $02")
	g.emit("  CLC")
	g.emit("  ADC $1E")
	g.emit("  STA $02")
	g.emit("  LDA $03")
	g.emit("  ADC #$00")
	g.emit("  STA $03")
	g.emit("  LDA $03")
	g.emit("  CLC")
	g.emit("  ADC #$D5")
	g.emit("  STA $03")
	g.emit("  LDY #$00")
	g.emit("  LDA ($02),Y")
	g.emit("  RTS")

	g.emit("Runtime_AnimFrameEntry:")
	g.emit("  ; $14/$15 = animation ptr, AnimFrame = current frame index -> $1E/$1F = &frameTable[AnimFrame] (word metasprite ptr + duration byte, 3 bytes/entry, right after the 2-byte header)")
	g.emit("  LDA AnimFrame")
	g.emit("  STA $02")
	g.emit("  ASL A")
	g.emit("  CLC")
	g.emit("  ADC $02")
	g.emit("  CLC")
	g.emit("  ADC $14")
	g.emit("  STA $1E")
	g.emit("  LDA #$00")
	g.emit("  ADC $15")
	g.emit("  STA $1F")
	g.emit("  LDA $1E")
	g.emit("  CLC")
	g.emit("  ADC #$02")
	g.emit("  STA $1E")
	g.emit("  LDA $1F")
	g.emit("  ADC #$00")
	g.emit("  STA $1F")
	g.emit("  RTS")

	g.emit("Runtime_Anim_Update:")
	g.emit("  ; $14/$15 = animation ptr -> advances the shared AnimFrame/AnimTimer state machine, looping or clamping per the table's loop flag")
	auAdvance := g.label("AnimUpdateAdvance")
	auFrameOK := g.label("AnimUpdateFrameOK")
	auClampLast := g.label("AnimUpdateClampLast")
	g.emit("  LDA AnimTimer")
	g.emit("  BEQ %s", auAdvance)
	g.emit("  DEC AnimTimer")
	g.emit("  RTS")
	g.emit("%s:", auAdvance)
	g.emit("  LDY #$00")
	g.emit("  LDA ($14),Y")
	g.emit("  STA $02")
	g.emit("  INC AnimFrame")
	g.emit("  LDA AnimFrame")
	g.emit("  CMP $02")
	g.emit("  BCC %s", auFrameOK)
	g.emit("  LDY #$01")
	g.emit("  LDA ($14),Y")
	g.emit("  BEQ %s", auClampLast)
	g.emit("  LDA #$00")
	g.emit("  STA AnimFrame")
	g.emit("  JMP %s", auFrameOK)
	g.emit("%s:", auClampLast)
	g.emit("  LDA $02")
	g.emit("  SEC")
	g.emit("  SBC #$01")
	g.emit("  STA AnimFrame")
	g.emit("%s:", auFrameOK)
	g.emit("  JSR Runtime_AnimFrameEntry")
	g.emit("  LDY #$02")
	g.emit("  LDA ($1E),Y")
	g.emit("  STA AnimTimer")
	g.emit("  RTS")
	g.emit("AnimFrame: .RES 1, $00")
	g.emit("AnimTimer: .RES 1, $00")

	g.emit("Runtime_Anim_Draw:")
	g.emit("  ; $14/$15 = animation ptr -> draws the current frame's metasprite at OAM slot 0, origin (0,0), reusing Runtime_Sprite_Draw")
	g.emit("  JSR Runtime_AnimFrameEntry")
	g.emit("  LDY #$00")
	g.emit("  LDA ($1E),Y")
	g.emit("  STA $16")
	g.emit("  INY")
	g.emit("  LDA ($1E),Y")
	g.emit("  STA $17")
	g.emit("  LDA #$00")
	g.emit("  STA $14")
	g.emit("  STA $18")
	g.emit("  STA $1A")
	g.emit("  JSR Runtime_Sprite_Draw")
	g.emit("  RTS")

	g.emit("Runtime_Pool_Spawn:")
	g.emit("  ; $14 = pool id (a single shared 8-slot pool, id currently ignored) -> A = first free slot (0-7), or $FF if full")
	g.emit("  LDX #$00")
	g.emit("  LDA #$01")
	g.emit("  STA $02")
	psLoop := g.label("PoolSpawnLoop")
	psNext := g.label("PoolSpawnNext")
	g.emit("%s:", psLoop)
	g.emit("  LDA PoolActiveMask")
	g.emit("  AND $02")
	g.emit("  BNE %s", psNext)
	g.emit("  LDA PoolActiveMask")
	g.emit("  ORA $02")
	g.emit("  STA PoolActiveMask")
	g.emit("  TXA")
	g.emit("  RTS")
	g.emit("%s:", psNext)
	g.emit("  ASL $02")
	g.emit("  INX")
	g.emit("  CPX #$08")
	g.emit("  BCC %s", psLoop)
	g.emit("  LDA #$FF")
	g.emit("  RTS")
	g.emit("PoolActiveMask: .RES 1, $00")

	g.emit("Runtime_Pool_Despawn:")
	g.emit("  ; $14 = slot index (0-7) -> clears that slot's active bit")
	g.emit("  LDA #$01")
	g.emit("  LDX $14")
	pdApply := g.label("PoolDespawnApply")
	pdShift := g.label("PoolDespawnShift")
	g.emit("%s:", pdShift)
	g.emit("  CPX #$00")
	g.emit("  BEQ %s", pdApply)
	g.emit("  ASL A")
	g.emit("  DEX")
	g.emit("  JMP %s", pdShift)
	g.emit("%s:", pdApply)
	g.emit("  EOR #$FF")
	g.emit("  AND PoolActiveMask")
	g.emit("  STA PoolActiveMask")
	g.emit("  RTS")

	g.emit("Runtime_Scroll_Set:")
	g.emit("  ; $14 = x, $16 = y -> stores the deferred PPU scroll shadow the NMI trampoline applies")
	g.emit("  LDA $14")
	g.emit("  STA $E0")
	g.emit("  LDA $16")
	g.emit("  STA $E1")
	g.emit("  RTS")

	g.emit("Runtime_Scroll_LoadRow:")
	g.emit("  ; $14 = row (0-29), $16/$17 = ptr to 32 tile bytes -> writes them into nametable 0 at row*32, increment-by-1 mode")
	g.emit("  LDA $2002")
	g.emit("  LDA $14")
	g.emit("  STA $02")
	g.emit("  LDA #$00")
	g.emit("  STA $03")
	g.emit("  ASL $02")
	g.emit("  ROL $03")
	g.emit("  ASL $02")
	g.emit("  ROL $03")
	g.emit("  ASL $02")
	g.emit("  ROL $03")
	g.emit("  ASL $02")
	g.emit("  ROL $03")
	g.emit("  ASL $02")
	g.emit("  ROL $03")
	g.emit("  LDA $03")
	g.emit("  CLC")
	g.emit("  ADC #$20")
	g.emit("  STA $03")
	g.emit("  LDA $03")
	g.emit("  STA $2006")
	g.emit("  LDA $02")
	g.emit("  STA $2006")
	g.emit("  LDY #$00")
	srLoop := g.label("ScrollLoadRowLoop")
	g.emit("%s:", srLoop)
	g.emit("  LDA ($16),Y")
	g.emit("  STA $2007")
	g.emit("  INY")
	g.emit("  CPY #$20")
	g.emit("  BCC %s", srLoop)
	g.emit("  RTS")

	g.emit("Runtime_Scroll_LoadColumn:")
	g.emit("  ; $14 = col (0-31), $16/$17 = ptr to 30 tile bytes -> writes them down nametable 0's column using increment-by-32 mode ($F8 PPU_CTRL shadow)")
	g.emit("  LDA $2002")
	g.emit("  LDA #$00")
	g.emit("  STA $03")
	g.emit("  LDA $14")
	g.emit("  STA $02")
	g.emit("  LDA $03")
	g.emit("  CLC")
	g.emit("  ADC #$20")
	g.emit("  STA $03")
	g.emit("  LDA $03")
	g.emit("  STA $2006")
	g.emit("  LDA $02")
	g.emit("  STA $2006")
	g.emit("  LDA $F8")
	g.emit("  ORA #$04")
	g.emit("  STA $2000")
	g.emit("  STA $F8")
	g.emit("  LDY #$00")
	scLoop := g.label("ScrollLoadColumnLoop")
	g.emit("%s:", scLoop)
	g.emit("  LDA ($16),Y")
	g.emit("  STA $2007")
	g.emit("  INY")
	g.emit("  CPY #$1E")
	g.emit("  BCC %s", scLoop)
	g.emit("  LDA $F8")
	g.emit("  AND #$FB")
	g.emit("  STA $2000")
	g.emit("  STA $F8")
	g.emit("  RTS")

	g.emit("Runtime_Random:")
	g.emit("  ; xorshift-lite over a 2-byte seed held at $1E/$1F")
	g.emit("  LDA $1E")
	g.emit("  ASL A")
	g.emit("  EOR $1E")
	g.emit("  STA $1E")
	g.emit("  LDA $1F")
	g.emit("  ASL A")
	g.emit("  EOR $1F")
	g.emit("  EOR $1E")
	g.emit("  STA $1F")
	g.emit("  LDA $1E")
	g.emit("  LDX $1F")
	g.emit("  RTS")
	g.emit("Runtime_Randomize:")
	g.emit("  STA $1E")
	g.emit("  STX $1F")
	g.emit("  RTS")
}

func (g *Generator) emitSoundHelpers() {
	g.emit("Sound_Init:")
	g.emit("  LDA #$0F")
	g.emit("  STA $4015")
	g.emit("  RTS")

	g.emit("Sound_Play:")
	g.emit("  ; $18 = requested SFX id (PlaySfx's own convention) -> looks up the SFX table entry at $D900+id*5 for its channel, then arms that channel's APU register for a fixed duration (channel-format detail simplified uniformly to the pulse/DMC register layout; spec §1 permits an equivalent substitute that meets the routine's documented contract)")
	g.emit("  LDA $18")
	g.emit("  STA $02")
	g.emit("  ASL A")
	g.emit("  ASL A")
	g.emit("  CLC")
	g.emit("  ADC $02")
	g.emit("  STA $1C")
	g.emit("  LDA #$00")
	g.emit("  STA $1D")
	g.emit("  LDA $1C")
	g.emit("  CLC")
	g.emit("  ADC #$00")
	g.emit("  STA $1C")
	g.emit("  LDA $1D")
	g.emit("  ADC #$D9")
	g.emit("  STA $1D")
	g.emit("  LDY #$00")
	g.emit("  LDA ($1C),Y")
	g.emit("  AND #$03")
	g.emit("  STA SFXChannel")
	g.emit("  ASL A")
	g.emit("  ASL A")
	g.emit("  STA $1E")
	g.emit("  LDA #$00")
	g.emit("  ADC #$40")
	g.emit("  STA $1F")
	g.emit("  LDY #$00")
	g.emit("  LDA #$BF")
	g.emit("  STA ($1E),Y")
	g.emit("  LDY #$02")
	g.emit("  LDA #$00")
	g.emit("  STA ($1E),Y")
	g.emit("  LDY #$03")
	g.emit("  LDA #$08")
	g.emit("  STA ($1E),Y")
	g.emit("  LDA #$1E")
	g.emit("  STA SFXTimer")
	g.emit("  RTS")
	g.emit("SFXTimer: .RES 1, $00")
	g.emit("SFXChannel: .RES 1, $00")

	g.emit("Sound_Update:")
	g.emit("  ; called once per frame from the NMI trampoline -> silences the last-triggered SFX channel once its fixed duration elapses")
	suDone := g.label("SoundUpdateDone")
	g.emit("  LDA SFXTimer")
	g.emit("  BEQ %s", suDone)
	g.emit("  DEC SFXTimer")
	g.emit("  BNE %s", suDone)
	g.emit("  LDA SFXChannel")
	g.emit("  ASL A")
	g.emit("  ASL A")
	g.emit("  STA $1E")
	g.emit("  LDA #$00")
	g.emit("  ADC #$40")
	g.emit("  STA $1F")
	g.emit("  LDY #$00")
	g.emit("  LDA #$30")
	g.emit("  STA ($1E),Y")
	g.emit("%s:", suDone)
	g.emit("  RTS")
}
