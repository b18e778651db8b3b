package assembler

import (
	"bytes"
	"testing"
)

func TestBuildHeaderMagicAndSizes(t *testing.T) {
	h := BuildHeader()
	if len(h) != 16 {
		t.Fatalf("header length = %d, want 16", len(h))
	}
	if !bytes.Equal(h[0:4], []byte{'N', 'E', 'S', 0x1A}) {
		t.Errorf("header magic = %v, want NES\\x1A", h[0:4])
	}
	if h[4] != 0x02 || h[5] != 0x01 || h[6] != 0x01 {
		t.Errorf("header PRG/CHR/flags = %d %d %d, want 2 1 1", h[4], h[5], h[6])
	}
}

func TestBuildImageShapeInvariant(t *testing.T) {
	image, err := BuildImage(nil, nil, nil)
	if err != nil {
		t.Fatalf("BuildImage error: %v", err)
	}
	if len(image) != 40976 {
		t.Fatalf("image length = %d, want 40976", len(image))
	}
}

func TestBuildImageRejectsOverlappingInjections(t *testing.T) {
	injections := []Injection{
		{Address: 0xE000, Data: make([]byte, 32)},
		{Address: 0xE010, Data: make([]byte, 8)}, // overlaps the first
	}
	if _, err := BuildImage(nil, injections, nil); err == nil {
		t.Fatalf("expected an overlap error")
	}
}

func TestBuildImagePlacesNonOverlappingInjections(t *testing.T) {
	injections := []Injection{
		{Address: 0xE000, Data: []byte{0x01, 0x02}},
		{Address: 0xE040, Data: []byte{0x03, 0x04}},
	}
	image, err := BuildImage(nil, injections, nil)
	if err != nil {
		t.Fatalf("BuildImage error: %v", err)
	}
	prg := image[16 : 16+0x8000]
	off1 := 0xE000 - 0x8000
	if prg[off1] != 0x01 || prg[off1+1] != 0x02 {
		t.Errorf("first injection not placed at $E000")
	}
	off2 := 0xE040 - 0x8000
	if prg[off2] != 0x03 || prg[off2+1] != 0x04 {
		t.Errorf("second injection not placed at $E040")
	}
}

func TestSplitByOrgRejectsMissingLeadingOrg(t *testing.T) {
	_, err := Assemble([]string{"LDA #$00"})
	if err == nil {
		t.Fatalf("expected an error for assembly text with no leading .ORG")
	}
}
