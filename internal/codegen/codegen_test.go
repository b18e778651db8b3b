package codegen

import (
	"strings"
	"testing"

	"github.com/kd7tck/swissarmyNES/internal/analysis"
	"github.com/kd7tck/swissarmyNES/internal/lexer"
	"github.com/kd7tck/swissarmyNES/internal/parser"
)

func generate(t *testing.T, src string) []string {
	t.Helper()
	toks, err := lexer.Tokenize(src)
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parser error: %v", err)
	}
	a := analysis.New()
	if err := a.Analyze(prog); err != nil {
		t.Fatalf("analysis error: %v", err)
	}
	gen := New(a.Table)
	lines, err := gen.Generate(prog)
	if err != nil {
		t.Fatalf("codegen error: %v", err)
	}
	return lines
}

func joined(lines []string) string {
	return strings.Join(lines, "\n")
}

func TestConstAddressFoldsToDirectPoke(t *testing.T) {
	src := `CONST PPU_ADDR = $2006
SUB Main()
POKE(PPU_ADDR,$3F)
END SUB`
	out := joined(generate(t, src))
	if !strings.Contains(out, "STA $2006") {
		t.Errorf("expected a direct STA $2006, got:\n%s", out)
	}
	if strings.Contains(out, "($02),Y") {
		t.Errorf("CONST-addressed POKE should not use indirect addressing, got:\n%s", out)
	}
}

func TestConstIdentifierLoadsImmediate(t *testing.T) {
	src := `CONST K=42
DIM x AS BYTE
SUB Main() LET x = K + 1 END SUB`
	out := joined(generate(t, src))
	if !strings.Contains(out, "LDA #$2A") {
		t.Errorf("expected an immediate load of K's value ($2A), got:\n%s", out)
	}
}

func TestArrayOfStructZeroIndexFoldsDirect(t *testing.T) {
	src := `TYPE E
active AS BYTE
x AS BYTE
END TYPE
DIM pool(10) AS E
SUB Main() pool(0).x = 10 : pool(5).active = 1 END SUB`
	out := joined(generate(t, src))
	if !strings.Contains(out, "LDA #$0A") {
		t.Errorf("expected LDA #$0A for the literal 10, got:\n%s", out)
	}
	if !strings.Contains(out, "STA $0201") {
		t.Errorf("expected pool(0).x to fold to a direct STA $0201, got:\n%s", out)
	}
	if !strings.Contains(out, "JSR Math_Mul16") {
		t.Errorf("expected pool(5).active to scale through Math_Mul16, got:\n%s", out)
	}
	if !strings.Contains(out, "($02),Y") {
		t.Errorf("expected pool(5).active to store through indirect ($02),Y, got:\n%s", out)
	}
}

func TestArrayOfStructReadUsesSameAddressing(t *testing.T) {
	src := `TYPE E
active AS BYTE
x AS BYTE
END TYPE
DIM pool(10) AS E
DIM out AS BYTE
SUB Main() out = pool(3).x END SUB`
	out := joined(generate(t, src))
	if !strings.Contains(out, "JSR Math_Mul16") {
		t.Errorf("expected a non-zero-literal indexed read to scale through Math_Mul16, got:\n%s", out)
	}
	if !strings.Contains(out, "LDA ($02),Y") {
		t.Errorf("expected the indexed read to load through indirect ($02),Y, got:\n%s", out)
	}
}

func TestRAMOverflowReturnsError(t *testing.T) {
	toks, err := lexer.Tokenize("DIM big(3000) AS WORD\nSUB Main() END SUB")
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parser error: %v", err)
	}
	a := analysis.New()
	if err := a.Analyze(prog); err != nil {
		t.Fatalf("analysis error: %v", err)
	}
	gen := New(a.Table)
	if _, err := gen.Generate(prog); err == nil || !strings.Contains(err.Error(), "RAM overflow") {
		t.Fatalf("Generate error = %v, want a \"RAM overflow\" error", err)
	}
}
