package analysis

import (
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

func TestAnalyzeConstAndDim(t *testing.T) {
	prog := parseSrc(t, "CONST MAX = 10\nDIM Score AS WORD")
	a := New()
	if err := a.Analyze(prog); err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	sym, ok := a.Table.Global("MAX")
	if !ok || sym.Value == nil || *sym.Value != 10 {
		t.Fatalf("MAX symbol = %#v", sym)
	}
	if _, ok := a.Table.Global("Score"); !ok {
		t.Fatalf("Score symbol missing")
	}
}

func TestAnalyzeButtonEnumPreregistered(t *testing.T) {
	a := New()
	sym, ok := a.Table.Global("Button")
	if !ok {
		t.Fatalf("Button enum not preregistered")
	}
	if len(sym.Variants) != 8 {
		t.Fatalf("button variants = %d, want 8", len(sym.Variants))
	}
	for _, v := range sym.Variants {
		if v.Name == "A" && v.Value != 0x80 {
			t.Fatalf("A = %#x, want 0x80", v.Value)
		}
	}
}

func TestAnalyzeUndefinedVariableIsError(t *testing.T) {
	src := `SUB Main()
PRINT UndefinedThing
END SUB`
	// UndefinedThing used as a bare identifier in PRINT triggers
	// resolveType's undefined-identifier diagnostic (spec's S3 scenario).
	prog := parseSrc(t, src)
	a := New()
	if err := a.Analyze(prog); err == nil {
		t.Fatalf("expected analysis error for undefined identifier")
	}
}

func TestAnalyzeImplicitLocalOnAssignment(t *testing.T) {
	src := `SUB Main()
X = 5
END SUB`
	prog := parseSrc(t, src)
	a := New()
	if err := a.Analyze(prog); err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
}

func TestAnalyzeAssignToConstantIsError(t *testing.T) {
	src := `CONST MAX = 10
SUB Main()
MAX = 20
END SUB`
	prog := parseSrc(t, src)
	a := New()
	if err := a.Analyze(prog); err == nil {
		t.Fatalf("expected error assigning to constant")
	}
}

func TestAnalyzeStructMemberAccess(t *testing.T) {
	src := `TYPE Point
x AS BYTE
y AS BYTE
END TYPE
DIM P AS Point
SUB Main()
P.x = 1
END SUB`
	prog := parseSrc(t, src)
	a := New()
	if err := a.Analyze(prog); err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	sym, _ := a.Table.Global("Point")
	if len(sym.Members) != 2 || sym.Members[1].Offset != 1 {
		t.Fatalf("Point members = %#v", sym.Members)
	}
}

func TestAnalyzeUnknownStructMemberIsError(t *testing.T) {
	src := `TYPE Point
x AS BYTE
END TYPE
DIM P AS Point
SUB Main()
P.z = 1
END SUB`
	prog := parseSrc(t, src)
	a := New()
	if err := a.Analyze(prog); err == nil {
		t.Fatalf("expected error for unknown struct member")
	}
}

func TestAnalyzeSubArityMismatchIsError(t *testing.T) {
	src := `SUB Add(a AS BYTE, b AS BYTE)
RETURN a + b
END SUB
SUB Main()
Add(1)
END SUB`
	prog := parseSrc(t, src)
	a := New()
	if err := a.Analyze(prog); err == nil {
		t.Fatalf("expected arity mismatch error")
	}
}

func TestAnalyzeControllerReadRecognised(t *testing.T) {
	src := `DIM Buttons AS BYTE
SUB Main()
Buttons = Controller.Read(0)
END SUB`
	prog := parseSrc(t, src)
	a := New()
	if err := a.Analyze(prog); err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
}

func TestAnalyzeBuiltinLenRequiresString(t *testing.T) {
	src := `DIM N AS WORD
SUB Main()
N = LEN(5)
END SUB`
	prog := parseSrc(t, src)
	a := New()
	if err := a.Analyze(prog); err == nil {
		t.Fatalf("expected error: LEN requires a string argument")
	}
}
