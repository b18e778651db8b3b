// Package assembler implements spec §4.6: it hands the code generator's
// assembly text to an external 6502 assembler, lays the resulting segments
// (plus the asset encoders' binary injections) into a 32 KiB PRG buffer,
// and wraps the result in an iNES header with an appended CHR bank.
//
// Grounded on the teacher's nes/cartridge.go (readPRGROM/readCHRROM/isValid,
// inverted here from "parse an existing image" into "build one") and
// nes/mapper0.go's address bounds-check phrasing, adapted to the write
// direction. The external assembler itself is github.com/beevik/go6502/asm,
// a real published 6502 toolchain (see DESIGN.md).
package assembler

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	gasm "github.com/beevik/go6502/asm"
)

const (
	prgBase  uint16 = 0x8000
	prgSize         = 0x8000 // 32 KiB
	chrSize         = 0x2000 // 8 KiB
	imageLen        = 16 + prgSize + chrSize
)

// Segment is one assembled (address, code) span, as produced by the
// external assembler respecting its source's .ORG directives (spec §4.6).
type Segment struct {
	Address uint16
	Code    []byte
}

// Injection is one asset-encoder blob destined for a fixed PRG-ROM address
// (spec §4.7's reserved windows).
type Injection struct {
	Address uint16
	Data    []byte
}

// interval is a half-open [Start, End) byte range within the PRG buffer,
// used to detect overlap between assembled code and injected blobs.
type interval struct {
	start, end int // end exclusive
}

func (iv interval) overlaps(other interval) bool {
	return iv.start < other.end && other.start < iv.end
}

// Assemble splits generated assembly text into per-.ORG blocks and hands
// each to the external 6502 assembler, returning one Segment per block in
// source order. Because go6502's Assemble call is origin-scoped, a source
// with multiple .ORG directives (the reset/runtime block at $8000 and the
// vector table at $FFFA) is split into independent assembler invocations
// whose outputs are recombined as segments (spec §4.6: "respecting .ORG").
func Assemble(lines []string) ([]Segment, error) {
	blocks, err := splitByOrg(lines)
	if err != nil {
		return nil, fmt.Errorf("Assembler Error: %w", err)
	}
	segments := make([]Segment, 0, len(blocks))
	for _, b := range blocks {
		code, err := assembleBlock(b.origin, b.text)
		if err != nil {
			return nil, fmt.Errorf("Assembler Error: %w", err)
		}
		segments = append(segments, Segment{Address: b.origin, Code: code})
	}
	return segments, nil
}

type origBlock struct {
	origin uint16
	text   string
}

// splitByOrg groups lines into blocks starting at each ".ORG $xxxx"
// directive. A leading block with no .ORG yet is an error: every
// code-generator output begins with one (spec §4.5's first prologue line).
func splitByOrg(lines []string) ([]origBlock, error) {
	var blocks []origBlock
	var cur *origBlock
	for _, ln := range lines {
		trimmed := strings.TrimSpace(ln)
		upper := strings.ToUpper(trimmed)
		if strings.HasPrefix(upper, ".ORG ") || strings.HasPrefix(upper, ".ORG\t") {
			addrText := strings.TrimSpace(trimmed[4:])
			addr, err := parseOrgAddress(addrText)
			if err != nil {
				return nil, err
			}
			if cur != nil {
				blocks = append(blocks, *cur)
			}
			cur = &origBlock{origin: addr}
			continue
		}
		if cur == nil {
			return nil, fmt.Errorf("assembly text has no leading .ORG directive")
		}
		cur.text += ln + "\n"
	}
	if cur != nil {
		blocks = append(blocks, *cur)
	}
	return blocks, nil
}

func parseOrgAddress(text string) (uint16, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "$") {
		return 0, fmt.Errorf("malformed .ORG address %q", text)
	}
	var v uint16
	if _, err := fmt.Sscanf(text[1:], "%X", &v); err != nil {
		return 0, fmt.Errorf("malformed .ORG address %q: %w", text, err)
	}
	return v, nil
}

// assembleBlock invokes the external 6502 assembler on one origin-scoped
// source block and returns its assembled bytes.
func assembleBlock(origin uint16, text string) ([]byte, error) {
	var out bytes.Buffer
	_, errs := gasm.Assemble(strings.NewReader(text), origin, &out, "", gasm.PrintNone)
	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return out.Bytes(), nil
}

// BuildImage lays assembled segments and asset injections into a 32 KiB
// PRG buffer, detects overlap, and prepends/appends the iNES header and
// CHR bank (spec §4.6). chr is truncated or zero-padded to exactly 8 KiB;
// a nil chr yields an all-zero bank.
func BuildImage(segments []Segment, injections []Injection, chr []byte) ([]byte, error) {
	prg := make([]byte, prgSize)
	var used []interval

	place := func(addr uint16, data []byte, kind string) error {
		if addr < prgBase {
			return fmt.Errorf("%s at $%04X is below $8000", kind, addr)
		}
		end := int(addr) + len(data)
		if end > 0x10000 {
			return fmt.Errorf("%s at $%04X (%d bytes) exceeds $FFFF", kind, addr, len(data))
		}
		offset := int(addr) - int(prgBase)
		iv := interval{start: offset, end: offset + len(data)}
		for _, u := range used {
			if iv.overlaps(u) {
				return fmt.Errorf("overlap at $%04X", addr)
			}
		}
		copy(prg[offset:offset+len(data)], data)
		used = append(used, iv)
		return nil
	}

	sorted := append([]Segment(nil), segments...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Address < sorted[j].Address })
	for _, seg := range sorted {
		if err := place(seg.Address, seg.Code, "segment"); err != nil {
			return nil, fmt.Errorf("Assembler Error: %s", err)
		}
	}
	for _, inj := range injections {
		if err := place(inj.Address, inj.Data, "injection"); err != nil {
			return nil, fmt.Errorf("Assembler Error: %s", err)
		}
	}

	image := make([]byte, 0, imageLen)
	image = append(image, BuildHeader()...)
	image = append(image, prg...)
	image = append(image, padCHR(chr)...)

	if len(image) != imageLen {
		return nil, fmt.Errorf("Assembler Error: internal invariant violated: image length %d != %d", len(image), imageLen)
	}
	return image, nil
}

// BuildHeader emits the 16-byte iNES header for mapper 0 / NROM-256: 2
// 16 KiB PRG banks, 1 8 KiB CHR bank, vertical mirroring, mapper 0 (spec
// §4.6, step 4). Adapted from the teacher's nes/cartridge.go field layout,
// inverted into a writer.
func BuildHeader() []byte {
	h := make([]byte, 16)
	h[0], h[1], h[2], h[3] = 'N', 'E', 'S', 0x1A
	h[4] = 0x02 // PRG-ROM size in 16 KiB units
	h[5] = 0x01 // CHR-ROM size in 8 KiB units
	h[6] = 0x01 // vertical mirroring, mapper low nibble 0
	h[7] = 0x00
	return h
}

func padCHR(chr []byte) []byte {
	out := make([]byte, chrSize)
	copy(out, chr)
	return out
}
