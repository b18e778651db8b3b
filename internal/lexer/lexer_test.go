package lexer

import (
	"testing"

	"github.com/kd7tck/swissarmyNES/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func assertKinds(t *testing.T, src string, want []token.Kind) []token.Token {
	t.Helper()
	toks, err := Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize(%q) returned error: %v", src, err)
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("Tokenize(%q) = %v, want %v", src, got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("Tokenize(%q)[%d] = %v, want %v (full: %v)", src, i, got[i], want[i], got)
		}
	}
	return toks
}

func TestTokenizeKeywordsCaseInsensitive(t *testing.T) {
	for _, src := range []string{"if then else", "IF THEN ELSE", "If Then Else"} {
		assertKinds(t, src, []token.Kind{token.IF, token.THEN, token.ELSE, token.EOF})
	}
}

func TestTokenizeIdentifierPreservesCase(t *testing.T) {
	toks := assertKinds(t, "PlayerX", []token.Kind{token.IDENT, token.EOF})
	if toks[0].Lit != "PlayerX" {
		t.Fatalf("identifier literal = %q, want %q", toks[0].Lit, "PlayerX")
	}
}

func TestTokenizeHexLiteral(t *testing.T) {
	toks := assertKinds(t, "$FF", []token.Kind{token.INTEGER, token.EOF})
	if toks[0].Int != 255 {
		t.Fatalf("int value = %d, want 255", toks[0].Int)
	}
}

func TestTokenizeBinaryLiteral(t *testing.T) {
	toks := assertKinds(t, "%1010", []token.Kind{token.INTEGER, token.EOF})
	if toks[0].Int != 10 {
		t.Fatalf("int value = %d, want 10", toks[0].Int)
	}
}

func TestTokenizeDecimalLiteral(t *testing.T) {
	toks := assertKinds(t, "1234", []token.Kind{token.INTEGER, token.EOF})
	if toks[0].Int != 1234 {
		t.Fatalf("int value = %d, want 1234", toks[0].Int)
	}
}

func TestTokenizeBareHexIsIllegal(t *testing.T) {
	if _, err := Tokenize("$"); err == nil {
		t.Fatalf("Tokenize(%q) should have returned an error", "$")
	}
}

func TestTokenizeBareBinaryIsIllegal(t *testing.T) {
	if _, err := Tokenize("%"); err == nil {
		t.Fatalf("Tokenize(%q) should have returned an error", "%")
	}
}

func TestTokenizeStringLiteral(t *testing.T) {
	toks := assertKinds(t, `"hello world"`, []token.Kind{token.STRING, token.EOF})
	if toks[0].Lit != "hello world" {
		t.Fatalf("string literal = %q, want %q", toks[0].Lit, "hello world")
	}
}

func TestTokenizeUnterminatedStringIsIllegal(t *testing.T) {
	if _, err := Tokenize(`"hello`); err == nil {
		t.Fatalf("unterminated string should be illegal")
	}
}

func TestTokenizeCommentsDropped(t *testing.T) {
	assertKinds(t, "LET X = 1 ' trailing comment\nLET Y = 2",
		[]token.Kind{
			token.LET, token.IDENT, token.EQUAL, token.INTEGER, token.NEWLINE,
			token.LET, token.IDENT, token.EQUAL, token.INTEGER, token.EOF,
		})
}

func TestTokenizeREMComment(t *testing.T) {
	assertKinds(t, "REM this whole line is a comment\nLET X = 1",
		[]token.Kind{token.NEWLINE, token.LET, token.IDENT, token.EQUAL, token.INTEGER, token.EOF})
}

func TestTokenizeMultiCharOperators(t *testing.T) {
	assertKinds(t, "<= <> >= < >",
		[]token.Kind{token.LESSEQUAL, token.NOTEQUAL, token.GREATEREQUAL, token.LESS, token.GREATER, token.EOF})
}

func TestTokenizeNewlinesSignificant(t *testing.T) {
	assertKinds(t, "DIM X AS BYTE\nDIM Y AS WORD",
		[]token.Kind{
			token.DIM, token.IDENT, token.AS, token.BYTE, token.NEWLINE,
			token.DIM, token.IDENT, token.AS, token.WORD, token.EOF,
		})
}

func TestTokenizeIllegalCharacter(t *testing.T) {
	if _, err := Tokenize("LET X = 1 @ 2"); err == nil {
		t.Fatalf("'@' should produce an illegal token error")
	}
}

func TestTokenizeDeclarationKeywords(t *testing.T) {
	assertKinds(t, "TYPE ENUM METASPRITE ANIMATION MACRO XOR",
		[]token.Kind{token.TYPE, token.ENUM, token.METASPRITE, token.ANIMATION, token.MACRO, token.XOR, token.EOF})
}
