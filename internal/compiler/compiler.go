// Package compiler wires the pipeline of spec §2 into a single entry
// point: lex, parse, preprocess, analyze, generate, assemble, image —
// returning the iNES bytes or a single stage-prefixed error string (spec
// §6, §7). Grounded on the teacher's layered nes package composition
// (Cartridge -> Mapper -> CPUBus), adapted from "compose components that
// execute a ROM" into "compose stages that produce one".
package compiler

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/kd7tck/swissarmyNES/internal/analysis"
	"github.com/kd7tck/swissarmyNES/internal/assembler"
	"github.com/kd7tck/swissarmyNES/internal/assets"
	"github.com/kd7tck/swissarmyNES/internal/codegen"
	"github.com/kd7tck/swissarmyNES/internal/lexer"
	"github.com/kd7tck/swissarmyNES/internal/parser"
	"github.com/kd7tck/swissarmyNES/internal/preprocessor"
	"github.com/kd7tck/swissarmyNES/internal/project"
)

// SourceProvider resolves an INCLUDE path to source text (spec §6). The
// zero value rejects every include, which is correct for a single-file
// compile.
type SourceProvider = preprocessor.SourceProvider

// Compile runs the full pipeline over src and returns the 40 976-byte iNES
// image. provider may be nil if the program has no INCLUDE directives.
func Compile(src string, provider SourceProvider, bundle *project.Bundle) ([]byte, error) {
	if bundle == nil {
		bundle = &project.Bundle{}
	}
	if provider == nil {
		provider = func(path string) (string, error) {
			return "", fmt.Errorf("no source provider configured; cannot resolve INCLUDE %q", path)
		}
	}

	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, fmt.Errorf("Lexer Error: %w", err)
	}

	prog, err := parser.Parse(toks)
	if err != nil {
		return nil, fmt.Errorf("Parser Error: %w", err)
	}

	prog, err = preprocessor.ExpandIncludes(prog, provider)
	if err != nil {
		return nil, fmt.Errorf("Preprocessor Error: %w", err)
	}
	prog, err = preprocessor.ExpandMacros(prog)
	if err != nil {
		return nil, fmt.Errorf("Preprocessor Error: %w", err)
	}

	an := analysis.New()
	if err := an.Analyze(prog); err != nil {
		return nil, fmt.Errorf("Analysis Error: %w", err)
	}

	gen := codegen.New(an.Table)
	lines, err := gen.Generate(prog)
	if err != nil {
		return nil, fmt.Errorf("Codegen Error: %w", err)
	}

	segments, err := assembler.Assemble(lines)
	if err != nil {
		return nil, err // already stage-prefixed by internal/assembler
	}

	injections, err := buildInjections(bundle)
	if err != nil {
		return nil, err
	}

	image, err := assembler.BuildImage(segments, injections, bundle.CHRBank)
	if err != nil {
		return nil, err
	}

	if len(image) != 40976 {
		glog.Fatalf("compiler: internal invariant violated: image length %d != 40976", len(image))
	}
	return image, nil
}

// buildInjections runs the spec §4.7 asset encoders over bundle and
// returns the address-tagged blobs the assembler lays into the reserved
// PRG-ROM windows from spec §3.
func buildInjections(bundle *project.Bundle) ([]assembler.Injection, error) {
	envelopes, err := assets.EncodeEnvelopes(bundle.Envelopes, bundle.SoundEffects)
	if err != nil {
		return nil, fmt.Errorf("Assembler Error: %w", err)
	}

	music, err := assets.EncodeMusic(bundle.AudioTracks)
	if err != nil {
		return nil, fmt.Errorf("Assembler Error: %w", err)
	}

	sfxTable, err := assets.EncodeSFXTable(bundle.SoundEffects, envelopes)
	if err != nil {
		return nil, fmt.Errorf("Assembler Error: %w", err)
	}

	dpcm, err := assets.EncodeDPCM(bundle.Samples)
	if err != nil {
		return nil, fmt.Errorf("Assembler Error: %w", err)
	}

	injections := []assembler.Injection{
		{Address: assets.PaletteAddr, Data: assets.EncodePalettes(bundle.Palettes)},
		{Address: assets.PeriodTableAddr, Data: assets.EncodePeriodTable()},
		{Address: assets.MusicAddr, Data: music},
		{Address: assets.SFXTableAddr, Data: sfxTable},
		{Address: assets.EnvelopeAddr, Data: envelopes.Blob},
		{Address: assets.NametableAddr, Data: assets.EncodeNametable(bundle.Nametables)},
		{Address: assets.SampleTableAddr, Data: dpcm.TableBlob},
	}
	if len(dpcm.SamplesBlob) > 0 {
		injections = append(injections, assembler.Injection{Address: dpcm.SamplesAddr, Data: dpcm.SamplesBlob})
	}
	return injections, nil
}
