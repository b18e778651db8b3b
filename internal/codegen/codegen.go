package codegen

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/kd7tck/swissarmyNES/internal/ast"
	"github.com/kd7tck/swissarmyNES/internal/symtab"
)

// Generator walks an analyzed Program and produces an ordered list of
// assembly-text lines (spec §4.5).
type Generator struct {
	Table *symtab.Table

	lines        []string
	labelCounter int

	ram     *allocator
	addrOf  map[string]uint16 // variable name -> RAM address
	strLbl  map[string]string // string-literal text -> PRG-ROM label (dedup'd)
	strOrder []string          // insertion order of strLbl keys, for deterministic emission
	nextStr int

	onHandlers map[string]string // vector -> handler sub name

	forTemp int // counter minting unique RAM-backed FOR-loop step caches

	dataBlocks  []*ast.Data
	metasprites []*ast.Metasprite
	animations  []*ast.Animation
}

// New returns a Generator bound to an analyzed symbol table.
func New(table *symtab.Table) *Generator {
	return &Generator{
		Table:      table,
		ram:        newAllocator(),
		addrOf:     map[string]uint16{},
		strLbl:     map[string]string{},
		onHandlers: map[string]string{},
	}
}

// emit appends one line of assembly text.
func (g *Generator) emit(format string, args ...interface{}) {
	g.lines = append(g.lines, fmt.Sprintf(format, args...))
}

// label mints a fresh, globally-unique label (spec §3's GEN_L<n> invariant).
func (g *Generator) label(hint string) string {
	l := fmt.Sprintf("GEN_L%d_%s", g.labelCounter, hint)
	g.labelCounter++
	return l
}

// Generate runs all four codegen concerns in order and returns the final
// assembly-text line list, or the first fatal error encountered.
func (g *Generator) Generate(prog *ast.Program) ([]string, error) {
	if err := g.allocateMemory(prog); err != nil {
		return nil, err
	}
	g.collectOnHandlers(prog)
	g.collectDataAndAssets(prog)

	g.emitPrologue(prog)

	for _, d := range prog.Decls {
		switch decl := d.(type) {
		case *ast.Sub:
			g.emitSub(decl)
		case *ast.Interrupt:
			g.emitInterrupt(decl)
		case *ast.TopAsm:
			g.lines = append(g.lines, decl.Lines...)
		}
	}

	g.emitRuntimeLibrary()
	g.emitDataTables()
	g.emitVectors()

	return g.lines, nil
}

func (g *Generator) collectOnHandlers(prog *ast.Program) {
	for _, d := range prog.Decls {
		var body ast.Block
		switch decl := d.(type) {
		case *ast.Sub:
			body = decl.Body
		case *ast.Interrupt:
			body = decl.Body
		default:
			continue
		}
		collectOnFromBlock(body, g.onHandlers)
	}
}

func collectOnFromBlock(block ast.Block, out map[string]string) {
	for _, stmt := range block {
		switch s := stmt.(type) {
		case *ast.On:
			out[s.Vector] = s.Handler
		case *ast.If:
			collectOnFromBlock(s.Then, out)
			collectOnFromBlock(s.Else, out)
		case *ast.While:
			collectOnFromBlock(s.Body, out)
		case *ast.DoWhile:
			collectOnFromBlock(s.Body, out)
		case *ast.For:
			collectOnFromBlock(s.Body, out)
		case *ast.Select:
			for _, c := range s.Cases {
				collectOnFromBlock(c.Body, out)
			}
			collectOnFromBlock(s.Else, out)
		}
	}
}

func (g *Generator) collectDataAndAssets(prog *ast.Program) {
	for _, d := range prog.Decls {
		switch decl := d.(type) {
		case *ast.Data:
			g.dataBlocks = append(g.dataBlocks, decl)
		case *ast.Metasprite:
			g.metasprites = append(g.metasprites, decl)
		case *ast.Animation:
			g.animations = append(g.animations, decl)
		}
	}
}

// defensiveTypeMismatch is invoked by expression codegen when it encounters
// a type combination the analyzer should already have rejected. Spec §7
// names this as a genuine invariant violation, not a recoverable input
// error, so it logs fatally in the teacher's glog style (nes/cpubus.go's
// glog.Fatalf on a bus address the contract says can't occur) rather than
// returning an error to the caller.
func (g *Generator) defensiveTypeMismatch(where string, t ast.DataType) {
	glog.Fatalf("codegen: %s: unexpected type %T reached code generation; analysis should have rejected this", where, t)
}
