package symtab

import (
	"testing"

	"github.com/kd7tck/swissarmyNES/internal/ast"
)

func TestDefineAndResolveGlobal(t *testing.T) {
	tbl := New()
	if err := tbl.Define(&Symbol{Name: "X", Kind: Variable, Type: &ast.Byte{}}); err != nil {
		t.Fatalf("Define error: %v", err)
	}
	sym, ok := tbl.Resolve("X")
	if !ok || sym.Name != "X" {
		t.Fatalf("Resolve(X) = %#v, %v", sym, ok)
	}
}

func TestDuplicateDefinitionInSameScopeIsError(t *testing.T) {
	tbl := New()
	_ = tbl.Define(&Symbol{Name: "X", Kind: Variable, Type: &ast.Byte{}})
	if err := tbl.Define(&Symbol{Name: "X", Kind: Variable, Type: &ast.Byte{}}); err == nil {
		t.Fatalf("expected a duplicate-definition error")
	}
}

func TestInnerScopeShadowsOuter(t *testing.T) {
	tbl := New()
	_ = tbl.Define(&Symbol{Name: "X", Kind: Variable, Type: &ast.Byte{}})
	tbl.PushScope()
	_ = tbl.Define(&Symbol{Name: "X", Kind: Param, Type: &ast.Word{}})
	sym, _ := tbl.Resolve("X")
	if sym.Kind != Param {
		t.Fatalf("inner X kind = %v, want Param (shadowing outer)", sym.Kind)
	}
	tbl.PopScope()
	sym, _ = tbl.Resolve("X")
	if sym.Kind != Variable {
		t.Fatalf("after PopScope, X kind = %v, want Variable", sym.Kind)
	}
}

func TestResolveAfterPopIsUndefined(t *testing.T) {
	tbl := New()
	tbl.PushScope()
	_ = tbl.Define(&Symbol{Name: "Local1", Kind: Local, Type: &ast.Byte{}})
	tbl.PopScope()
	if _, ok := tbl.Resolve("Local1"); ok {
		t.Fatalf("Local1 should not resolve after its scope was popped")
	}
}

func TestPopGlobalScopePanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected a panic when popping the global scope")
		}
	}()
	tbl := New()
	tbl.PopScope()
}

func TestGlobalBypassesInnerScopes(t *testing.T) {
	tbl := New()
	_ = tbl.Define(&Symbol{Name: "G", Kind: Constant, Type: &ast.Byte{}})
	tbl.PushScope()
	if _, ok := tbl.Global("G"); !ok {
		t.Fatalf("Global(G) should find the global symbol regardless of scope depth")
	}
}
