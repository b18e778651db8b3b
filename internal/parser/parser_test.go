package parser

import (
	"testing"

	"github.com/kd7tck/swissarmyNES/internal/ast"
	"github.com/kd7tck/swissarmyNES/internal/lexer"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	toks, err := lexer.Tokenize(src)
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	prog, err := Parse(toks)
	if err != nil {
		t.Fatalf("parser error: %v", err)
	}
	return prog
}

func TestParseConst(t *testing.T) {
	prog := mustParse(t, "CONST MAX = 10")
	if len(prog.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(prog.Decls))
	}
	c, ok := prog.Decls[0].(*ast.Const)
	if !ok {
		t.Fatalf("expected *ast.Const, got %T", prog.Decls[0])
	}
	if c.Name != "MAX" {
		t.Fatalf("name = %q, want MAX", c.Name)
	}
	i, ok := c.Expr.(*ast.Integer)
	if !ok || i.Value != 10 {
		t.Fatalf("expr = %#v, want Integer(10)", c.Expr)
	}
}

func TestParseDimWithArray(t *testing.T) {
	prog := mustParse(t, "DIM Scores(8) AS BYTE")
	d := prog.Decls[0].(*ast.Dim)
	arr, ok := d.Type.(*ast.ArrayType)
	if !ok {
		t.Fatalf("type = %#v, want *ast.ArrayType", d.Type)
	}
	if arr.Count != 8 {
		t.Fatalf("count = %d, want 8", arr.Count)
	}
	if _, ok := arr.Elem.(*ast.Byte); !ok {
		t.Fatalf("elem = %#v, want *ast.Byte", arr.Elem)
	}
}

func TestParseSubWithIfAndReturn(t *testing.T) {
	src := `SUB Clamp(x AS BYTE)
IF x > 10 THEN
RETURN 10
END IF
RETURN x
END SUB`
	prog := mustParse(t, src)
	sub := prog.Decls[0].(*ast.Sub)
	if sub.Name != "Clamp" {
		t.Fatalf("name = %q", sub.Name)
	}
	if len(sub.Params) != 1 || sub.Params[0].Name != "x" {
		t.Fatalf("params = %#v", sub.Params)
	}
	if len(sub.Body) != 2 {
		t.Fatalf("body len = %d, want 2", len(sub.Body))
	}
	ifStmt, ok := sub.Body[0].(*ast.If)
	if !ok {
		t.Fatalf("stmt0 = %#v, want *ast.If", sub.Body[0])
	}
	if len(ifStmt.Then) != 1 {
		t.Fatalf("then block len = %d", len(ifStmt.Then))
	}
}

func TestParseForLoop(t *testing.T) {
	src := `SUB Main()
FOR i = 1 TO 10 STEP 2
PRINT i
NEXT i
END SUB`
	prog := mustParse(t, src)
	sub := prog.Decls[0].(*ast.Sub)
	forStmt := sub.Body[0].(*ast.For)
	if forStmt.Var != "i" {
		t.Fatalf("var = %q", forStmt.Var)
	}
	if forStmt.Step == nil {
		t.Fatalf("step should not be nil")
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	// 1 + 2 * 3 should bind as 1 + (2 * 3)
	prog := mustParse(t, "CONST X = 1 + 2 * 3")
	c := prog.Decls[0].(*ast.Const)
	bin, ok := c.Expr.(*ast.BinaryOp)
	if !ok || bin.Op != ast.Add {
		t.Fatalf("top op = %#v, want Add", c.Expr)
	}
	right, ok := bin.Right.(*ast.BinaryOp)
	if !ok || right.Op != ast.Multiply {
		t.Fatalf("right = %#v, want Multiply", bin.Right)
	}
}

func TestParseAssignmentVsCallDisambiguation(t *testing.T) {
	src := `SUB Main()
arr(i) = 5
DoThing(1, 2)
END SUB`
	prog := mustParse(t, src)
	sub := prog.Decls[0].(*ast.Sub)
	if len(sub.Body) != 2 {
		t.Fatalf("body len = %d, want 2", len(sub.Body))
	}
	if _, ok := sub.Body[0].(*ast.Let); !ok {
		t.Fatalf("stmt0 = %#v, want *ast.Let", sub.Body[0])
	}
	call, ok := sub.Body[1].(*ast.StmtCall)
	if !ok {
		t.Fatalf("stmt1 = %#v, want *ast.StmtCall", sub.Body[1])
	}
	if len(call.Args) != 2 {
		t.Fatalf("args len = %d, want 2", len(call.Args))
	}
}

func TestParseAsmBlockCapturesLines(t *testing.T) {
	src := `SUB Main()
ASM
LDA #$01
STA $2000
END ASM
END SUB`
	prog := mustParse(t, src)
	sub := prog.Decls[0].(*ast.Sub)
	asm, ok := sub.Body[0].(*ast.Asm)
	if !ok {
		t.Fatalf("stmt0 = %#v, want *ast.Asm", sub.Body[0])
	}
	if len(asm.Lines) != 2 {
		t.Fatalf("lines = %#v, want 2 lines", asm.Lines)
	}
}

func TestParseSelectCase(t *testing.T) {
	src := `SUB Main()
SELECT CASE x
CASE 1
PRINT 1
CASE 2
PRINT 2
CASE ELSE
PRINT 0
END SELECT
END SUB`
	prog := mustParse(t, src)
	sub := prog.Decls[0].(*ast.Sub)
	sel, ok := sub.Body[0].(*ast.Select)
	if !ok {
		t.Fatalf("stmt0 = %#v, want *ast.Select", sub.Body[0])
	}
	if len(sel.Cases) != 2 {
		t.Fatalf("cases = %d, want 2", len(sel.Cases))
	}
	if sel.Else == nil {
		t.Fatalf("expected CASE ELSE block")
	}
}

func TestParseMacroDecl(t *testing.T) {
	src := `MACRO DoubleMove(dx, dy)
X = X + dx
Y = Y + dy
END MACRO`
	prog := mustParse(t, src)
	m, ok := prog.Decls[0].(*ast.Macro)
	if !ok {
		t.Fatalf("decl0 = %#v, want *ast.Macro", prog.Decls[0])
	}
	if len(m.Params) != 2 {
		t.Fatalf("params = %#v", m.Params)
	}
	if len(m.Body) != 2 {
		t.Fatalf("body len = %d, want 2", len(m.Body))
	}
}

func TestParseWhileAndDoWhile(t *testing.T) {
	src := `SUB Main()
WHILE x < 10
x = x + 1
WEND
DO
x = x - 1
LOOP WHILE x > 0
END SUB`
	prog := mustParse(t, src)
	sub := prog.Decls[0].(*ast.Sub)
	if _, ok := sub.Body[0].(*ast.While); !ok {
		t.Fatalf("stmt0 = %#v, want *ast.While", sub.Body[0])
	}
	if _, ok := sub.Body[1].(*ast.DoWhile); !ok {
		t.Fatalf("stmt1 = %#v, want *ast.DoWhile", sub.Body[1])
	}
}

func TestParseMemberAccessCallChain(t *testing.T) {
	prog := mustParse(t, "CONST X = Controller.Read(0)")
	c := prog.Decls[0].(*ast.Const)
	call, ok := c.Expr.(*ast.Call)
	if !ok {
		t.Fatalf("expr = %#v, want *ast.Call", c.Expr)
	}
	member, ok := call.Callee.(*ast.MemberAccess)
	if !ok || member.Name != "Read" {
		t.Fatalf("callee = %#v, want MemberAccess(.Read)", call.Callee)
	}
}

func TestParseHaltsAtFirstError(t *testing.T) {
	toks, err := lexer.Tokenize("CONST = 1")
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	if _, err := Parse(toks); err == nil {
		t.Fatalf("expected parser error for missing const name")
	}
}
