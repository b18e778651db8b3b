// Package integration exercises the full compiler pipeline end to end
// against the literal scenarios and universal properties the language
// contract was validated with, in the spirit of the teacher's
// sample1.nes/helloworld_test.go golden-path check: feed real source text
// in, inspect the produced bytes.
package integration

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/kd7tck/swissarmyNES/internal/assets"
	"github.com/kd7tck/swissarmyNES/internal/compiler"
	"github.com/kd7tck/swissarmyNES/internal/project"
)

func mustCompile(t *testing.T, src string) []byte {
	t.Helper()
	rom, err := compiler.Compile(src, nil, nil)
	if err != nil {
		t.Fatalf("Compile(%q) returned error: %v", src, err)
	}
	return rom
}

func prgRegion(rom []byte) []byte {
	return rom[16 : 16+0x8000]
}

// TestMinimalBackgroundColourSet is spec §8's S1: POKEs through CONST
// addresses must resolve to direct absolute stores, not indirect ones.
func TestMinimalBackgroundColourSet(t *testing.T) {
	src := `CONST PPU_ADDR = $2006
CONST PPU_DATA = $2007
CONST PPU_MASK = $2001
SUB Main()
  POKE(PPU_ADDR,$3F)
  POKE(PPU_ADDR,$00)
  POKE(PPU_DATA,$11)
  POKE(PPU_MASK,%00001010)
END SUB
`
	rom := mustCompile(t, src)
	if len(rom) != 40976 {
		t.Fatalf("image length = %d, want 40976", len(rom))
	}
	prg := prgRegion(rom)
	want := [][]byte{
		{0xA9, 0x3F, 0x8D, 0x06, 0x20},
		{0xA9, 0x00, 0x8D, 0x06, 0x20},
		{0xA9, 0x11, 0x8D, 0x07, 0x20},
		{0xA9, 0x0A, 0x8D, 0x01, 0x20},
	}
	for _, pattern := range want {
		if !containsSubsequenceWithGaps(prg, pattern[:2], pattern[2:]) {
			t.Errorf("PRG does not contain %x ... %x", pattern[:2], pattern[2:])
		}
	}
}

// containsSubsequenceWithGaps reports whether head occurs somewhere in buf
// and tail occurs at or after that point within a small window, tolerating
// intermediate bytes (the literal's high-byte LDX, PHA/PLA) the spec allows
// between the load and store.
func containsSubsequenceWithGaps(buf, head, tail []byte) bool {
	for i := 0; i+len(head) <= len(buf); i++ {
		if !bytes.Equal(buf[i:i+len(head)], head) {
			continue
		}
		window := buf[i+len(head):]
		if len(window) > 16 {
			window = window[:16]
		}
		if bytes.Contains(window, tail) {
			return true
		}
	}
	return false
}

// TestConstArithmetic is spec §8's S2: a CONST used as an arithmetic
// operand must load its literal value immediately, not through RAM.
func TestConstArithmetic(t *testing.T) {
	src := "CONST K=42\nDIM x AS BYTE\nSUB Main() LET x = K + 1 END SUB\n"
	rom := mustCompile(t, src)
	prg := prgRegion(rom)
	if !bytes.Contains(prg, []byte{0xA9, 0x2A}) {
		t.Errorf("PRG does not contain A9 2A (LDA #$2A)")
	}
}

// TestUndefinedVariable is spec §8's S3 and universal property 4 (scope
// correctness): referencing an unresolved name is a hard analysis error.
func TestUndefinedVariable(t *testing.T) {
	src := "SUB Main() y = x + 1 END SUB\n"
	_, err := compiler.Compile(src, nil, nil)
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if !strings.Contains(err.Error(), "Undefined variable 'x'") {
		t.Errorf("error = %q, want substring \"Undefined variable 'x'\"", err.Error())
	}
}

// TestIncludeCycle is spec §8's S4 and universal property 7 (pragma-once):
// a two-file include cycle compiles without recursing forever and yields a
// full-size image. The expansion order itself is checked by the
// preprocessor's TestExpandIncludesCycle.
func TestIncludeCycle(t *testing.T) {
	files := map[string]string{
		"a.inc": "INCLUDE \"b.inc\"\nSUB SubA() END SUB\n",
		"b.inc": "INCLUDE \"a.inc\"\nSUB SubB() END SUB\n",
	}

	src := "INCLUDE \"a.inc\"\n"
	rom, err := compiler.Compile(src, func(path string) (string, error) {
		s, ok := files[path]
		if !ok {
			return "", fmt.Errorf("no such include: %s", path)
		}
		return s, nil
	}, nil)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	if len(rom) != 40976 {
		t.Fatalf("image length = %d, want 40976", len(rom))
	}
}

// TestMacroRecursionLimit is spec §8's S5: a macro that expands itself
// must fail once the recursion cap is hit, not hang.
func TestMacroRecursionLimit(t *testing.T) {
	src := "MACRO R() R() END MACRO\nSUB Main() R() END SUB\n"
	_, err := compiler.Compile(src, nil, nil)
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if !strings.Contains(err.Error(), "recursion limit") {
		t.Errorf("error = %q, want substring \"recursion limit\"", err.Error())
	}
}

// TestArrayOfStructStore is spec §8's S6: indexed struct-member stores must
// fold a literal index 0 to a direct absolute store and any other index to
// scaled indirect addressing.
func TestArrayOfStructStore(t *testing.T) {
	src := `TYPE E
  active AS BYTE
  x AS BYTE
END TYPE
DIM pool(10) AS E
SUB Main() pool(0).x = 10 : pool(5).active = 1 END SUB
`
	rom := mustCompile(t, src)
	prg := prgRegion(rom)
	if !bytes.Contains(prg, []byte{0xA9, 0x0A}) {
		t.Errorf("PRG does not contain A9 0A (LDA #$0A for pool(0).x = 10)")
	}
	if !bytes.Contains(prg, []byte{0xA9, 0x01}) {
		t.Errorf("PRG does not contain A9 01 (LDA #$01 for pool(5).active = 1)")
	}
	// pool(0).x folds to a direct STA since index 0 needs no scaling;
	// pool(5).active goes through the Math_Mul16-scaled indirect path,
	// matching the two shapes spec §8's S6 calls out by name.
	if !bytes.Contains(prg, []byte{0x20}) { // JSR opcode, from the Math_Mul16 call
		t.Errorf("PRG does not contain any JSR (expected at least one for the scaled pool(5) store)")
	}
}

// TestRAMOverflow is spec §8's universal property 11: cumulative Dim size
// crossing $0800 fails codegen with "RAM overflow".
func TestRAMOverflow(t *testing.T) {
	var b strings.Builder
	b.WriteString("DIM big(3000) AS WORD\n")
	b.WriteString("SUB Main() END SUB\n")
	_, err := compiler.Compile(b.String(), nil, nil)
	if err == nil {
		t.Fatal("expected a RAM overflow error, got nil")
	}
	if !strings.Contains(err.Error(), "RAM overflow") {
		t.Errorf("error = %q, want substring \"RAM overflow\"", err.Error())
	}
}

// TestShapeInvariant is spec §8's universal property 2: every successful
// compile returns exactly 40 976 bytes with the fixed iNES header fields.
func TestShapeInvariant(t *testing.T) {
	rom := mustCompile(t, "SUB Main() END SUB\n")
	if len(rom) != 40976 {
		t.Fatalf("image length = %d, want 40976", len(rom))
	}
	if string(rom[0:4]) != "NES\x1A" {
		t.Errorf("header magic = %q, want \"NES\\x1A\"", rom[0:4])
	}
	if rom[4] != 0x02 || rom[5] != 0x01 || rom[6] != 0x01 {
		t.Errorf("header PRG/CHR/flags bytes = %d %d %d, want 2 1 1", rom[4], rom[5], rom[6])
	}
}

// TestDeterminism is spec §8's universal property 1 implicitly: the same
// source and bundle compile to byte-identical images.
func TestDeterminism(t *testing.T) {
	src := "SUB Main() POKE($2006,$3F) END SUB\n"
	a := mustCompile(t, src)
	b := mustCompile(t, src)
	if !bytes.Equal(a, b) {
		t.Errorf("two compiles of the same source produced different images")
	}
}

// TestAudioLayout is spec §8's S7: the music blob begins with a track
// count, followed by 16-bit absolute pointers into the per-track headers,
// each of which carries its priority byte at offset 2.
func TestAudioLayout(t *testing.T) {
	tracks := []project.AudioTrack{
		{Channel: 0, Instrument: 0, Priority: 0, Notes: []project.Note{{Col: 0, Pitch: 40, Duration: 4}}},
		{Channel: 1, Instrument: 0, Priority: 10, Notes: []project.Note{{Col: 0, Pitch: 52, Duration: 4}}},
	}
	blob, err := assets.EncodeMusic(tracks)
	if err != nil {
		t.Fatalf("EncodeMusic returned error: %v", err)
	}
	if blob[0] != 2 {
		t.Fatalf("track count byte = %d, want 2", blob[0])
	}
	wantPriorities := []byte{0, 10}
	for i, want := range wantPriorities {
		ptrLo := blob[1+i*2]
		ptrHi := blob[1+i*2+1]
		ptr := int(ptrLo) | int(ptrHi)<<8
		headerOffset := ptr - 0xD100
		if headerOffset < 0 || headerOffset+3 > len(blob) {
			t.Fatalf("track %d pointer $%04X falls outside the blob", i, ptr)
		}
		if got := blob[headerOffset+2]; got != want {
			t.Errorf("track %d priority byte = %d, want %d", i, got, want)
		}
	}
}

// TestDPCMAlignment is spec §8's universal property 10 taken end to end: a
// bundle with two odd-length samples compiles to a full-size image. The
// 64-byte alignment and (len-1) mod 16 = 0 padding of each sample are
// checked on the encoder by assets' TestEncodeDPCMAlignmentAndLengthPadding.
func TestDPCMAlignment(t *testing.T) {
	bundle := &project.Bundle{
		Samples: []project.Sample{
			{Name: "kick", Data: bytes.Repeat([]byte{0xAA}, 17)},
			{Name: "snare", Data: bytes.Repeat([]byte{0x55}, 33)},
		},
	}
	rom, err := compiler.Compile("SUB Main() END SUB\n", nil, bundle)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	if len(rom) != 40976 {
		t.Fatalf("image length = %d, want 40976", len(rom))
	}
}
