// Package analysis implements spec §4.4's two-pass semantic analyzer:
// global registration, then per-sub body analysis, accumulating diagnostics
// rather than halting at the first error. Grounded on spec §3's symbol
// table model (internal/symtab) and, for the accumulator shape, on
// holocm-holo-build's ErrorCollector.
package analysis

import (
	"fmt"

	"github.com/kd7tck/swissarmyNES/internal/ast"
	"github.com/kd7tck/swissarmyNES/internal/symtab"
)

// OnHandler records one ON vector DO handler declaration seen during body
// analysis; the code generator's prologue consults these to install NMI/IRQ
// trampoline targets.
type OnHandler struct {
	Vector  string
	Handler string
}

// Analyzer runs the two passes over a preprocessed Program.
type Analyzer struct {
	Table *symtab.Table
	Diags Diagnostics

	OnHandlers []OnHandler
}

// New returns an Analyzer with the standard-library surface pre-registered.
func New() *Analyzer {
	t := symtab.New()
	registerBuiltins(t)
	return &Analyzer{Table: t}
}

// Analyze runs both passes and returns an accumulated error if either pass
// recorded diagnostics.
func (a *Analyzer) Analyze(prog *ast.Program) error {
	a.pass1(prog)
	if a.Diags.HasErrors() {
		return a.combinedError()
	}
	a.pass2(prog)
	if a.Diags.HasErrors() {
		return a.combinedError()
	}
	return nil
}

func (a *Analyzer) combinedError() error {
	errs := a.Diags.Errs()
	if len(errs) == 1 {
		return errs[0]
	}
	msg := fmt.Sprintf("%d analysis error(s):", len(errs))
	for _, e := range errs {
		msg += "\n  " + e.Error()
	}
	return fmt.Errorf("%s", msg)
}

// --- pass 1: global registration --------------------------------------------

func (a *Analyzer) pass1(prog *ast.Program) {
	for _, d := range prog.Decls {
		switch decl := d.(type) {
		case *ast.Const:
			sym := &symtab.Symbol{Name: decl.Name, Kind: symtab.Constant, Type: &ast.Byte{}}
			if lit, ok := decl.Expr.(*ast.Integer); ok {
				v := lit.Value
				sym.Value = &v
			}
			a.define(sym)
		case *ast.Dim:
			if _, isArray := decl.Type.(*ast.ArrayType); isArray && decl.Init != nil {
				a.Diags.Addf("array %q cannot have an initializer", decl.Name)
			}
			if arr, isArray := decl.Type.(*ast.ArrayType); isArray && arr.Count <= 0 {
				a.Diags.Addf("array %q size must be a positive integer literal", decl.Name)
			}
			if _, isStr := decl.Type.(*ast.StringType); isStr && decl.Init != nil {
				if _, ok := decl.Init.(*ast.StringLiteral); !ok {
					a.Diags.Addf("string %q initializer must be a string literal", decl.Name)
				}
			}
			a.define(&symtab.Symbol{Name: decl.Name, Kind: symtab.Variable, Type: decl.Type})
		case *ast.Sub:
			paramTypes := make([]ast.DataType, len(decl.Params))
			for i, p := range decl.Params {
				paramTypes[i] = defaultType(p.Type)
			}
			a.define(&symtab.Symbol{Name: decl.Name, Kind: symtab.SubKind, Type: &ast.Byte{}, ParamTypes: paramTypes})
		case *ast.Interrupt:
			a.define(&symtab.Symbol{Name: decl.Name, Kind: symtab.SubKind, Type: &ast.Byte{}})
		case *ast.TypeDecl:
			a.registerTypeDecl(decl)
		case *ast.Enum:
			variants := make([]symtab.Variant, len(decl.Variants))
			for i, v := range decl.Variants {
				variants[i] = symtab.Variant{Name: v.Name, Value: v.Value}
			}
			a.define(&symtab.Symbol{Name: decl.Name, Kind: symtab.EnumKind, Type: &ast.EnumType{Name: decl.Name}, Variants: variants})
		case *ast.Metasprite:
			a.define(&symtab.Symbol{Name: decl.Name, Kind: symtab.MetaspriteKind, Type: &ast.Word{}})
		case *ast.Animation, *ast.Data, *ast.TopAsm, *ast.Include, *ast.Macro:
			// No symbol-table entry; handled by codegen/preprocessor directly.
		}
	}
}

func defaultType(t ast.DataType) ast.DataType {
	if t == nil {
		return &ast.Byte{}
	}
	return t
}

func (a *Analyzer) define(sym *symtab.Symbol) {
	if err := a.Table.Define(sym); err != nil {
		a.Diags.Add(err)
	}
}

func (a *Analyzer) registerTypeDecl(decl *ast.TypeDecl) {
	offset := 0
	members := make([]symtab.Member, 0, len(decl.Members))
	ok := true
	for _, m := range decl.Members {
		size, found := a.typeSize(m.Type)
		if !found {
			a.Diags.Addf("undefined member type for %s.%s", decl.Name, m.Name)
			ok = false
			continue
		}
		members = append(members, symtab.Member{Name: m.Name, Type: m.Type, Offset: offset})
		offset += size
	}
	if !ok {
		return
	}
	total := int32(offset)
	a.define(&symtab.Symbol{
		Name:    decl.Name,
		Kind:    symtab.StructKind,
		Type:    &ast.StructType{Name: decl.Name},
		Value:   &total,
		Members: members,
	})
}

// typeSize resolves the byte size of a DataType per spec §4.4: Byte/Int/
// Bool/Enum=1, Word/String=2, Struct=recorded size, Array=element size ×
// count.
func (a *Analyzer) typeSize(dt ast.DataType) (int, bool) {
	switch d := dt.(type) {
	case *ast.Byte, *ast.Int, *ast.Bool, *ast.EnumType:
		return 1, true
	case *ast.Word, *ast.StringType:
		return 2, true
	case *ast.StructType:
		sym, ok := a.Table.Global(d.Name)
		if !ok || sym.Kind != symtab.StructKind || sym.Value == nil {
			return 0, false
		}
		return int(*sym.Value), true
	case *ast.ArrayType:
		elemSize, ok := a.typeSize(d.Elem)
		if !ok {
			return 0, false
		}
		return elemSize * int(d.Count), true
	default:
		return 0, false
	}
}
