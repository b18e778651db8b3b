// Package symtab implements the symbol table model of spec §3: a stack of
// scopes, scope[0] always global, searched innermost to outermost.
package symtab

import (
	"fmt"

	"github.com/kd7tck/swissarmyNES/internal/ast"
)

// Kind classifies what a Symbol names.
type Kind int

const (
	Variable Kind = iota
	Constant
	SubKind
	Param
	Local
	StructKind
	EnumKind
	MetaspriteKind
)

// Member is one field of a struct Symbol, with its byte offset from the
// start of the struct's storage.
type Member struct {
	Name   string
	Type   ast.DataType
	Offset int
}

// Variant is one named value of an enum Symbol.
type Variant struct {
	Name  string
	Value int32
}

// Symbol is an entry in the table: a name bound to a kind, a type, and
// whatever optional metadata that kind carries (spec §3).
type Symbol struct {
	Name string
	Type ast.DataType
	Kind Kind

	Address    *uint16       // not set by the analyzer or codegen (codegen keeps addresses in its own map)
	Value      *int32        // constant value, or struct size in bytes
	ParamTypes []ast.DataType // for SubKind: parameter types in order
	Members    []Member       // for StructKind
	Variants   []Variant      // for EnumKind
}

// Table is a stack of scopes. Index 0 is always the global scope.
type Table struct {
	scopes []map[string]*Symbol
}

// New returns a Table with only the global scope pushed.
func New() *Table {
	return &Table{scopes: []map[string]*Symbol{{}}}
}

// PushScope opens a new, innermost scope (e.g. entering a Sub body).
func (t *Table) PushScope() {
	t.scopes = append(t.scopes, map[string]*Symbol{})
}

// PopScope closes the innermost scope. Popping the global scope is a
// programmer error and panics, since it would leave the table unusable.
func (t *Table) PopScope() {
	if len(t.scopes) <= 1 {
		panic("symtab: cannot pop the global scope")
	}
	t.scopes = t.scopes[:len(t.scopes)-1]
}

// Define adds sym to the innermost scope. Redefinition within the same
// scope is an error (spec §3); shadowing an outer scope's symbol is not.
func (t *Table) Define(sym *Symbol) error {
	innermost := t.scopes[len(t.scopes)-1]
	if _, exists := innermost[sym.Name]; exists {
		return fmt.Errorf("duplicate definition: %s", sym.Name)
	}
	innermost[sym.Name] = sym
	return nil
}

// Resolve searches from the innermost scope outward and returns the first
// match, or (nil, false) if name is undefined in any visible scope.
func (t *Table) Resolve(name string) (*Symbol, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if sym, ok := t.scopes[i][name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// Global returns the global scope's symbol directly, bypassing the stack
// (used by the analyzer for top-level registration before any Sub scope
// exists).
func (t *Table) Global(name string) (*Symbol, bool) {
	sym, ok := t.scopes[0][name]
	return sym, ok
}
