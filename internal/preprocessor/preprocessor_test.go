package preprocessor

import (
	"fmt"
	"testing"

	"github.com/kd7tck/swissarmyNES/internal/ast"
	"github.com/kd7tck/swissarmyNES/internal/lexer"
	"github.com/kd7tck/swissarmyNES/internal/parser"
)

func parseSrc(t *testing.T, src string) *ast.Program {
	t.Helper()
	toks, err := lexer.Tokenize(src)
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parser error: %v", err)
	}
	return prog
}

func constNames(prog *ast.Program) []string {
	var names []string
	for _, d := range prog.Decls {
		if c, ok := d.(*ast.Const); ok {
			names = append(names, c.Name)
		}
	}
	return names
}

// TestExpandIncludesCycle mirrors spec's S4 scenario: the main program
// includes A, A includes B, and B includes A again. Pragma-once plus
// seen-before-recurse ordering should yield B's content once, then A's own
// remaining content, without infinite recursion.
func TestExpandIncludesCycle(t *testing.T) {
	sources := map[string]string{
		"a.bas": "INCLUDE \"b.bas\"\nCONST SubA = 1",
		"b.bas": "INCLUDE \"a.bas\"\nCONST SubB = 2",
	}
	provider := func(path string) (string, error) {
		src, ok := sources[path]
		if !ok {
			return "", fmt.Errorf("no such file: %s", path)
		}
		return src, nil
	}
	prog := parseSrc(t, "INCLUDE \"a.bas\"")
	expanded, err := ExpandIncludes(prog, provider)
	if err != nil {
		t.Fatalf("ExpandIncludes error: %v", err)
	}
	got := constNames(expanded)
	want := []string{"SubB", "SubA"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestExpandIncludesMissingSourceError(t *testing.T) {
	prog := parseSrc(t, `INCLUDE "missing.bas"`)
	provider := func(path string) (string, error) {
		return "", fmt.Errorf("not found")
	}
	if _, err := ExpandIncludes(prog, provider); err == nil {
		t.Fatalf("expected error for missing include")
	}
}

func TestExpandMacrosSimpleSubstitution(t *testing.T) {
	src := `MACRO AddTo(v, amount)
v = v + amount
END MACRO
SUB Main()
AddTo(Score, 5)
END SUB`
	prog := parseSrc(t, src)
	expanded, err := ExpandMacros(prog)
	if err != nil {
		t.Fatalf("ExpandMacros error: %v", err)
	}
	if len(expanded.Decls) != 1 {
		t.Fatalf("expected macro decl removed, got %d decls", len(expanded.Decls))
	}
	sub := expanded.Decls[0].(*ast.Sub)
	if len(sub.Body) != 1 {
		t.Fatalf("body len = %d, want 1", len(sub.Body))
	}
	let, ok := sub.Body[0].(*ast.Let)
	if !ok {
		t.Fatalf("stmt0 = %#v, want *ast.Let", sub.Body[0])
	}
	lv, ok := let.LValue.(*ast.Identifier)
	if !ok || lv.Name != "Score" {
		t.Fatalf("lvalue = %#v, want Identifier(Score)", let.LValue)
	}
}

func TestExpandMacrosDuplicateNameIsFatal(t *testing.T) {
	src := `MACRO Foo(x)
x = x
END MACRO
MACRO Foo(y)
y = y
END MACRO`
	prog := parseSrc(t, src)
	if _, err := ExpandMacros(prog); err == nil {
		t.Fatalf("expected duplicate macro error")
	}
}

func TestExpandMacrosArityMismatchIsFatal(t *testing.T) {
	src := `MACRO Foo(x, y)
x = y
END MACRO
SUB Main()
Foo(1)
END SUB`
	prog := parseSrc(t, src)
	if _, err := ExpandMacros(prog); err == nil {
		t.Fatalf("expected arity mismatch error")
	}
}

func TestExpandMacrosRecursionLimit(t *testing.T) {
	// A macro that calls itself must hit the depth-100 cap, not loop forever.
	src := `MACRO Loopy(x)
Loopy(x)
END MACRO
SUB Main()
Loopy(1)
END SUB`
	prog := parseSrc(t, src)
	if _, err := ExpandMacros(prog); err == nil {
		t.Fatalf("expected recursion limit error")
	}
}

func TestExpandMacrosIntoNestedIf(t *testing.T) {
	src := `MACRO SetFlag(f)
f = 1
END MACRO
SUB Main()
IF X > 0 THEN
SetFlag(Done)
END IF
END SUB`
	prog := parseSrc(t, src)
	expanded, err := ExpandMacros(prog)
	if err != nil {
		t.Fatalf("ExpandMacros error: %v", err)
	}
	sub := expanded.Decls[0].(*ast.Sub)
	ifStmt := sub.Body[0].(*ast.If)
	if len(ifStmt.Then) != 1 {
		t.Fatalf("then block len = %d, want 1", len(ifStmt.Then))
	}
	if _, ok := ifStmt.Then[0].(*ast.Let); !ok {
		t.Fatalf("then[0] = %#v, want *ast.Let", ifStmt.Then[0])
	}
}
