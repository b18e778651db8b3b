// Package assets implements spec §4.7: deterministic, pure encoders that
// turn a project.Bundle into the fixed-size binary blobs the assembler
// injects at the reserved PRG-ROM addresses in spec §3's memory map.
//
// Grounded on the teacher's nes/ppu.go PPU-memory-map comments (consulted
// for the domain facts about palette/nametable byte layout — the PPU reads
// what this package writes, so the shapes must agree) and
// original_source/src/compiler/audio.rs for the music/SFX/envelope table
// shapes, widened to spec's richer per-track schema.
package assets

import "github.com/kd7tck/swissarmyNES/internal/project"

const (
	paletteBlobSize = 32
	defaultColor    = 0x0F
)

// EncodePalettes produces the 32-byte $E000 palette blob: up to 8
// palettes × 4 colours, unfilled slots defaulting to $0F (spec §4.7).
func EncodePalettes(palettes []project.Palette) []byte {
	blob := make([]byte, paletteBlobSize)
	for i := range blob {
		blob[i] = defaultColor
	}
	n := len(palettes)
	if n > 8 {
		n = 8
	}
	for i := 0; i < n; i++ {
		for c := 0; c < 4; c++ {
			blob[i*4+c] = palettes[i].Colors[c]
		}
	}
	return blob
}
