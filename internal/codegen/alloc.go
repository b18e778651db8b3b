// Package codegen implements spec §4.5: it consumes an analyzed AST and
// symbol table and emits an ordered list of 6502 assembly-text lines ready
// for internal/assembler. Grounded on the memory-map contract in spec §3
// and, for the RAM allocator's shape, on the teacher's nes/ram.go flat
// byte array — inverted here from "storage the CPU reads/writes" into "an
// arena that hands out addresses", since a compiler allocates space rather
// than executing loads and stores against it.
package codegen

import (
	"fmt"

	"github.com/kd7tck/swissarmyNES/internal/ast"
)

const (
	ramStart = 0x0200
	ramEnd   = 0x07FF // inclusive upper bound; spec §3
)

// allocator is a bump allocator over the user RAM region $0200-$07FF. It
// never frees: SwissBASIC has no dynamic deallocation of globals.
type allocator struct {
	next uint16
}

func newAllocator() *allocator {
	return &allocator{next: ramStart}
}

// alloc reserves size bytes and returns the starting address, or a fatal
// "RAM overflow" error naming the offending symbol if it would cross
// $07FF (spec §4.5).
func (al *allocator) alloc(name string, size int) (uint16, error) {
	if size <= 0 {
		size = 1
	}
	start := al.next
	end := uint64(start) + uint64(size) - 1
	if end > ramEnd {
		return 0, fmt.Errorf("RAM overflow allocating %q (%d byte(s)) past $%04X", name, size, ramEnd)
	}
	al.next = uint16(end + 1)
	return start, nil
}

// typeSize mirrors analysis.typeSize's byte-size rules, re-derived here so
// codegen does not need to import analysis's internals: Byte/Int/Bool/Enum
// = 1, Word/String = 2, Struct = sum of member sizes, Array = element size
// × count.
func (g *Generator) typeSize(dt ast.DataType) int {
	switch d := dt.(type) {
	case *ast.Byte, *ast.Int, *ast.Bool, *ast.EnumType:
		return 1
	case *ast.Word, *ast.StringType:
		return 2
	case *ast.StructType:
		if sym, ok := g.Table.Global(d.Name); ok && sym.Value != nil {
			return int(*sym.Value)
		}
		return 0
	case *ast.ArrayType:
		return g.typeSize(d.Elem) * int(d.Count)
	default:
		return 1
	}
}

// allocateMemory walks every Dim and assigns it an absolute RAM address,
// growing from $0200 (spec §4.5). String initializers are placed in
// PRG-ROM behind generated labels (see stringLiteralLabel) rather than in
// RAM; only the 2-byte pointer slot itself is RAM-allocated.
func (g *Generator) allocateMemory(prog *ast.Program) error {
	for _, d := range prog.Decls {
		dim, ok := d.(*ast.Dim)
		if !ok {
			continue
		}
		size := g.typeSize(dim.Type)
		addr, err := g.ram.alloc(dim.Name, size)
		if err != nil {
			return err
		}
		g.addrOf[dim.Name] = addr
		if lit, ok := dim.Init.(*ast.StringLiteral); ok {
			g.stringLiteralLabel(lit.Value)
		}
	}
	return nil
}

// stringLiteralLabel returns the PRG-ROM label for a string literal's
// null-terminated byte representation, minting and recording a new one the
// first time a given text is seen.
func (g *Generator) stringLiteralLabel(text string) string {
	if lbl, ok := g.strLbl[text]; ok {
		return lbl
	}
	lbl := fmt.Sprintf("STR_LIT_%d", g.nextStr)
	g.nextStr++
	g.strLbl[text] = lbl
	g.strOrder = append(g.strOrder, text)
	return lbl
}
