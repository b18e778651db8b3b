// Package parser implements stage 2 of the pipeline (spec §4.2): recursive
// descent at statement level, Pratt precedence for expressions. Grounded on
// original_source/src/compiler/parser.rs for the precedence table and
// overall grammar shape; jyane-jnes has no parser of its own, so this
// package borrows only the teacher's error-as-value idiom, not its code.
package parser

import (
	"fmt"

	"github.com/kd7tck/swissarmyNES/internal/ast"
	"github.com/kd7tck/swissarmyNES/internal/token"
)

// Error carries the offending token and an explanatory phrase (spec §4.2).
type Error struct {
	Tok     token.Token
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at line %d (token %s)", e.Message, e.Tok.Line, e.Tok.Kind)
}

// Parser consumes a token stream produced by internal/lexer and builds an
// ast.Program. It halts at the first error, per spec §4.2.
type Parser struct {
	toks []token.Token
	pos  int
}

// New creates a Parser over a token stream that must be EOF-terminated.
func New(toks []token.Token) *Parser {
	return &Parser{toks: toks}
}

// Parse parses a full program (convenience wrapper mirroring lexer.Tokenize).
func Parse(toks []token.Token) (*ast.Program, error) {
	return New(toks).ParseProgram()
}

func (p *Parser) cur() token.Token  { return p.toks[p.pos] }
func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if p.cur().Kind != k {
		return token.Token{}, &Error{Tok: p.cur(), Message: fmt.Sprintf("expected %s, got %s", k, p.cur().Kind)}
	}
	return p.advance(), nil
}

// skipNewlines consumes zero or more NEWLINE tokens, used to allow blank
// lines between top-level declarations and between statements.
func (p *Parser) skipNewlines() {
	for p.at(token.NEWLINE) {
		p.advance()
	}
}

// skipSeparators consumes NEWLINE and COLON tokens (both terminate a
// statement in SwissBASIC's line-oriented grammar).
func (p *Parser) skipSeparators() {
	for p.at(token.NEWLINE) || p.at(token.COLON) {
		p.advance()
	}
}

// ParseProgram parses the whole token stream into an ast.Program.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	p.skipNewlines()
	for !p.at(token.EOF) {
		decl, err := p.parseTopLevel()
		if err != nil {
			return nil, err
		}
		prog.Decls = append(prog.Decls, decl)
		p.skipNewlines()
	}
	return prog, nil
}

// --- top-level declarations -------------------------------------------------

func (p *Parser) parseTopLevel() (ast.TopLevel, error) {
	switch p.cur().Kind {
	case token.CONST:
		return p.parseConst()
	case token.DIM:
		return p.parseDim()
	case token.TYPE:
		return p.parseTypeDecl()
	case token.ENUM:
		return p.parseEnumDecl()
	case token.SUB:
		return p.parseSub()
	case token.INTERRUPT:
		return p.parseInterrupt()
	case token.ASM:
		lines, err := p.parseAsmLines(token.ASM)
		if err != nil {
			return nil, err
		}
		return &ast.TopAsm{Lines: lines}, nil
	case token.DATA:
		return p.parseData()
	case token.INCLUDE:
		return p.parseInclude()
	case token.MACRO:
		return p.parseMacro()
	case token.METASPRITE:
		return p.parseMetasprite()
	case token.ANIMATION:
		return p.parseAnimation()
	default:
		return nil, &Error{Tok: p.cur(), Message: fmt.Sprintf("unexpected token %s at top level", p.cur().Kind)}
	}
}

func (p *Parser) parseConst() (*ast.Const, error) {
	p.advance() // CONST
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.EQUAL); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.Const{Name: name.Lit, Expr: expr}, nil
}

func (p *Parser) parseDim() (*ast.Dim, error) {
	p.advance() // DIM
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	var arraySize ast.Expression
	if p.at(token.LPAREN) {
		p.advance()
		arraySize, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.AS); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if arraySize != nil {
		n, ok := constIntOrZero(arraySize)
		_ = ok
		typ = &ast.ArrayType{Elem: typ, Count: n}
	}
	var init ast.Expression
	if p.at(token.EQUAL) {
		p.advance()
		init, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	return &ast.Dim{Name: name.Lit, Type: typ, Init: init}, nil
}

// constIntOrZero extracts an integer literal's value for a fixed array
// bound, or 0 when the size expression is not a literal integer (the
// analyzer rejects an array whose count is not a positive literal; sizes
// are never folded from constant expressions).
func constIntOrZero(e ast.Expression) (int32, bool) {
	if i, ok := e.(*ast.Integer); ok {
		return i.Value, true
	}
	return 0, false
}

func (p *Parser) parseType() (ast.DataType, error) {
	switch p.cur().Kind {
	case token.BYTE:
		p.advance()
		return &ast.Byte{}, nil
	case token.WORD:
		p.advance()
		return &ast.Word{}, nil
	case token.INT:
		p.advance()
		return &ast.Int{}, nil
	case token.BOOL:
		p.advance()
		return &ast.Bool{}, nil
	case token.STRING_KW:
		p.advance()
		return &ast.StringType{}, nil
	case token.IDENT:
		name := p.advance().Lit
		return &ast.StructType{Name: name}, nil
	default:
		return nil, &Error{Tok: p.cur(), Message: "expected a type name"}
	}
}

func (p *Parser) parseTypeDecl() (*ast.TypeDecl, error) {
	p.advance() // TYPE
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	var members []ast.StructMember
	for !(p.at(token.END)) {
		mname, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.AS); err != nil {
			return nil, err
		}
		mtyp, err := p.parseType()
		if err != nil {
			return nil, err
		}
		members = append(members, ast.StructMember{Name: mname.Lit, Type: mtyp})
		p.skipNewlines()
	}
	p.advance() // END
	if _, err := p.expect(token.TYPE); err != nil {
		return nil, err
	}
	return &ast.TypeDecl{Name: name.Lit, Members: members}, nil
}

func (p *Parser) parseEnumDecl() (*ast.Enum, error) {
	p.advance() // ENUM
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	var variants []ast.EnumVariant
	next := int32(0)
	for !p.at(token.END) {
		vname, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		val := next
		if p.at(token.EQUAL) {
			p.advance()
			lit, err := p.expect(token.INTEGER)
			if err != nil {
				return nil, err
			}
			val = lit.Int
		}
		variants = append(variants, ast.EnumVariant{Name: vname.Lit, Value: val})
		next = val + 1
		if p.at(token.COMMA) {
			p.advance()
		}
		p.skipNewlines()
	}
	p.advance() // END
	if _, err := p.expect(token.ENUM); err != nil {
		return nil, err
	}
	return &ast.Enum{Name: name.Lit, Variants: variants}, nil
}

func (p *Parser) parseParamList() ([]ast.Param, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var params []ast.Param
	for !p.at(token.RPAREN) {
		name, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		var typ ast.DataType
		if p.at(token.AS) {
			p.advance()
			typ, err = p.parseType()
			if err != nil {
				return nil, err
			}
		}
		params = append(params, ast.Param{Name: name.Lit, Type: typ})
		if p.at(token.COMMA) {
			p.advance()
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parseSub() (*ast.Sub, error) {
	p.advance() // SUB
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlockUntil(token.END)
	if err != nil {
		return nil, err
	}
	p.advance() // END
	if _, err := p.expect(token.SUB); err != nil {
		return nil, err
	}
	return &ast.Sub{Name: name.Lit, Params: params, Body: body}, nil
}

func (p *Parser) parseInterrupt() (*ast.Interrupt, error) {
	p.advance() // INTERRUPT
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseBlockUntil(token.END)
	if err != nil {
		return nil, err
	}
	p.advance() // END
	if _, err := p.expect(token.INTERRUPT); err != nil {
		return nil, err
	}
	return &ast.Interrupt{Name: name.Lit, Body: body}, nil
}

func (p *Parser) parseData() (*ast.Data, error) {
	p.advance() // DATA
	label := ""
	if p.at(token.IDENT) {
		// "label:" lookahead — a bare identifier followed by COLON.
		save := p.pos
		ident := p.advance()
		if p.at(token.COLON) {
			p.advance()
			label = ident.Lit
		} else {
			p.pos = save
		}
	}
	var exprs []ast.Expression
	for {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return &ast.Data{Label: label, Exprs: exprs}, nil
}

func (p *Parser) parseInclude() (*ast.Include, error) {
	p.advance() // INCLUDE
	path, err := p.expect(token.STRING)
	if err != nil {
		return nil, err
	}
	return &ast.Include{Path: path.Lit}, nil
}

// parseAsmLines captures the raw-ish, line-oriented body of an ASM block
// (spec §4.2): each source line between ASM/END and END ASM becomes one
// reconstructed text line. Kind is either token.ASM (top-level/statement
// ASM block) — in all cases the terminator is END ASM.
func (p *Parser) parseAsmLines(openKind token.Kind) ([]string, error) {
	p.advance() // ASM
	p.skipNewlines()
	var lines []string
	var cur []token.Token
	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, reconstructLine(cur))
			cur = nil
		}
	}
	for {
		if p.at(token.END) {
			save := p.pos
			p.advance()
			if p.at(token.ASM) {
				p.advance()
				flush()
				return lines, nil
			}
			p.pos = save
		}
		if p.at(token.EOF) {
			return nil, &Error{Tok: p.cur(), Message: "unterminated ASM block"}
		}
		if p.at(token.NEWLINE) {
			flush()
			p.advance()
			continue
		}
		cur = append(cur, p.advance())
	}
}

func reconstructLine(toks []token.Token) string {
	s := ""
	for i, t := range toks {
		if i > 0 {
			s += " "
		}
		switch t.Kind {
		case token.IDENT, token.STRING:
			s += t.Lit
		case token.INTEGER:
			s += fmt.Sprintf("%d", t.Int)
		default:
			s += t.Kind.String()
		}
	}
	return s
}

func (p *Parser) parseMacro() (*ast.Macro, error) {
	p.advance() // MACRO
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var params []string
	for !p.at(token.RPAREN) {
		pname, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		params = append(params, pname.Lit)
		if p.at(token.COMMA) {
			p.advance()
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseBlockUntil(token.END)
	if err != nil {
		return nil, err
	}
	p.advance() // END
	if _, err := p.expect(token.MACRO); err != nil {
		return nil, err
	}
	return &ast.Macro{Name: name.Lit, Params: params, Body: body}, nil
}

func (p *Parser) parseMetasprite() (*ast.Metasprite, error) {
	p.advance() // METASPRITE
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	var tiles []ast.MetaspriteTile
	for !p.at(token.END) {
		var vals [4]int32
		for i := 0; i < 4; i++ {
			lit, err := p.expect(token.INTEGER)
			if err != nil {
				return nil, err
			}
			vals[i] = lit.Int
			if i < 3 {
				if _, err := p.expect(token.COMMA); err != nil {
					return nil, err
				}
			}
		}
		tiles = append(tiles, ast.MetaspriteTile{DX: vals[0], DY: vals[1], TileID: vals[2], Attr: vals[3]})
		p.skipNewlines()
	}
	p.advance() // END
	if _, err := p.expect(token.METASPRITE); err != nil {
		return nil, err
	}
	return &ast.Metasprite{Name: name.Lit, Tiles: tiles}, nil
}

func (p *Parser) parseAnimation() (*ast.Animation, error) {
	p.advance() // ANIMATION
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	var frames []ast.AnimationFrame
	loops := false
	for !p.at(token.END) {
		if p.at(token.IDENT) && p.cur().Lit == "LOOP" {
			p.advance()
			loops = true
			p.skipNewlines()
			continue
		}
		mname, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.COMMA); err != nil {
			return nil, err
		}
		dur, err := p.expect(token.INTEGER)
		if err != nil {
			return nil, err
		}
		frames = append(frames, ast.AnimationFrame{Metasprite: mname.Lit, Duration: dur.Int})
		p.skipNewlines()
	}
	p.advance() // END
	if _, err := p.expect(token.ANIMATION); err != nil {
		return nil, err
	}
	return &ast.Animation{Name: name.Lit, Frames: frames, Loops: loops}, nil
}

// --- statements --------------------------------------------------------------

// parseBlockUntil parses statements until the current token is terminator,
// without consuming it.
func (p *Parser) parseBlockUntil(terminator token.Kind) (ast.Block, error) {
	var block ast.Block
	p.skipSeparators()
	for !p.at(terminator) && !p.at(token.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block = append(block, stmt)
		p.skipSeparators()
	}
	return block, nil
}

// parseBlockUntilAny is like parseBlockUntil but stops at any of several
// terminators (used for IF ... ELSE ... END IF and DO ... LOOP WHILE).
func (p *Parser) parseBlockUntilAny(terminators ...token.Kind) (ast.Block, error) {
	var block ast.Block
	p.skipSeparators()
	for !p.at(token.EOF) {
		for _, t := range terminators {
			if p.at(t) {
				return block, nil
			}
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block = append(block, stmt)
		p.skipSeparators()
	}
	return block, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.cur().Kind {
	case token.LET:
		return p.parseLet(true)
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.DO:
		return p.parseDoWhile()
	case token.FOR:
		return p.parseFor()
	case token.RETURN:
		return p.parseReturn()
	case token.POKE:
		return p.parsePoke()
	case token.PLAY_SFX:
		return p.parsePlaySfx()
	case token.PRINT:
		return p.parsePrint()
	case token.READ:
		return p.parseRead()
	case token.RESTORE:
		return p.parseRestore()
	case token.SELECT:
		return p.parseSelect()
	case token.ON:
		return p.parseOn()
	case token.CALL:
		return p.parseCallStatement()
	case token.ASM:
		lines, err := p.parseAsmLines(token.ASM)
		if err != nil {
			return nil, err
		}
		return &ast.Asm{Lines: lines}, nil
	case token.IDENT:
		return p.parseAssignmentOrCall()
	default:
		if p.cur().Lit == "WAITVBLANK" {
			p.advance()
			return &ast.WaitVBlank{}, nil
		}
		if p.cur().Lit == "RANDOMIZE" {
			p.advance()
			seed, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			return &ast.Randomize{Seed: seed}, nil
		}
		return nil, &Error{Tok: p.cur(), Message: fmt.Sprintf("unexpected token %s at statement start", p.cur().Kind)}
	}
}

func (p *Parser) parseLet(consumeLet bool) (ast.Statement, error) {
	if consumeLet {
		p.advance() // LET
	}
	lv, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.EQUAL); err != nil {
		return nil, err
	}
	rv, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.Let{LValue: lv, RValue: rv}, nil
}

// parseAssignmentOrCall disambiguates a bare identifier statement: parse the
// left-hand side at Comparison precedence, then check for a following `=`
// (assignment) vs. treating it as a call/expression statement (spec §4.2).
func (p *Parser) parseAssignmentOrCall() (ast.Statement, error) {
	lhs, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if p.at(token.EQUAL) {
		p.advance()
		rv, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.Let{LValue: lhs, RValue: rv}, nil
	}
	if call, ok := lhs.(*ast.Call); ok {
		return &ast.StmtCall{Callee: call.Callee, Args: call.Args}, nil
	}
	return &ast.StmtCall{Callee: lhs, Args: nil}, nil
}

func (p *Parser) parseCallStatement() (*ast.StmtCall, error) {
	p.advance() // CALL
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if call, ok := e.(*ast.Call); ok {
		return &ast.StmtCall{Callee: call.Callee, Args: call.Args}, nil
	}
	return &ast.StmtCall{Callee: e, Args: nil}, nil
}

func (p *Parser) parseIf() (*ast.If, error) {
	p.advance() // IF
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.THEN); err != nil {
		return nil, err
	}
	thenBlock, err := p.parseBlockUntilAny(token.ELSE, token.END)
	if err != nil {
		return nil, err
	}
	var elseBlock ast.Block
	if p.at(token.ELSE) {
		p.advance()
		elseBlock, err = p.parseBlockUntil(token.END)
		if err != nil {
			return nil, err
		}
	}
	p.advance() // END
	if _, err := p.expect(token.IF); err != nil {
		return nil, err
	}
	return &ast.If{Cond: cond, Then: thenBlock, Else: elseBlock}, nil
}

func (p *Parser) parseWhile() (*ast.While, error) {
	p.advance() // WHILE
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlockUntil(token.WEND)
	if err != nil {
		return nil, err
	}
	p.advance() // WEND
	return &ast.While{Cond: cond, Body: body}, nil
}

func (p *Parser) parseDoWhile() (*ast.DoWhile, error) {
	p.advance() // DO
	body, err := p.parseBlockUntil(token.LOOP)
	if err != nil {
		return nil, err
	}
	p.advance() // LOOP
	if _, err := p.expect(token.WHILE); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.DoWhile{Body: body, Cond: cond}, nil
}

func (p *Parser) parseFor() (*ast.For, error) {
	p.advance() // FOR
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.EQUAL); err != nil {
		return nil, err
	}
	start, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.TO); err != nil {
		return nil, err
	}
	end, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	var step ast.Expression
	if p.at(token.STEP) {
		p.advance()
		step, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	body, err := p.parseBlockUntil(token.NEXT)
	if err != nil {
		return nil, err
	}
	p.advance() // NEXT
	if p.at(token.IDENT) {
		p.advance() // optional loop-variable echo
	}
	return &ast.For{Var: name.Lit, Start: start, End: end, Step: step, Body: body}, nil
}

func (p *Parser) parseReturn() (*ast.Return, error) {
	p.advance() // RETURN
	if p.at(token.NEWLINE) || p.at(token.COLON) || p.at(token.EOF) || p.at(token.END) {
		return &ast.Return{}, nil
	}
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.Return{Value: e}, nil
}

func (p *Parser) parsePoke() (*ast.Poke, error) {
	p.advance() // POKE
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	addr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COMMA); err != nil {
		return nil, err
	}
	val, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return &ast.Poke{Addr: addr, Value: val}, nil
}

func (p *Parser) parsePlaySfx() (*ast.PlaySfx, error) {
	p.advance() // PLAY_SFX
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	id, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return &ast.PlaySfx{ID: id}, nil
}

func (p *Parser) parsePrint() (*ast.Print, error) {
	p.advance() // PRINT
	var args []ast.Expression
	if p.at(token.NEWLINE) || p.at(token.EOF) || p.at(token.COLON) {
		return &ast.Print{}, nil
	}
	for {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return &ast.Print{Args: args}, nil
}

func (p *Parser) parseRead() (*ast.Read, error) {
	p.advance() // READ
	var names []string
	for {
		name, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		names = append(names, name.Lit)
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return &ast.Read{Vars: names}, nil
}

func (p *Parser) parseRestore() (*ast.Restore, error) {
	p.advance() // RESTORE
	label := ""
	if p.at(token.IDENT) {
		label = p.advance().Lit
	}
	return &ast.Restore{Label: label}, nil
}

func (p *Parser) parseSelect() (*ast.Select, error) {
	p.advance() // SELECT
	if _, err := p.expect(token.CASE); err != nil {
		return nil, err
	}
	disc, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	sel := &ast.Select{Discriminant: disc}
	for p.at(token.CASE) {
		p.advance() // CASE
		if p.at(token.ELSE) {
			p.advance()
			body, err := p.parseBlockUntilAny(token.CASE, token.END)
			if err != nil {
				return nil, err
			}
			sel.Else = body
			break
		}
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlockUntilAny(token.CASE, token.END)
		if err != nil {
			return nil, err
		}
		sel.Cases = append(sel.Cases, ast.SelectCase{Value: val, Body: body})
	}
	p.advance() // END
	if _, err := p.expect(token.SELECT); err != nil {
		return nil, err
	}
	return sel, nil
}

func (p *Parser) parseOn() (*ast.On, error) {
	p.advance() // ON
	vector, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if !(p.cur().Kind == token.DO || p.cur().Lit == "DO") {
		return nil, &Error{Tok: p.cur(), Message: "expected DO in ON statement"}
	}
	p.advance() // DO
	handler, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	return &ast.On{Vector: vector.Lit, Handler: handler.Lit}, nil
}

// --- expressions: Pratt parser -----------------------------------------------
//
// Precedence (low to high): Or, And, Equality, Comparison, Term, Factor,
// Unary, Call, Primary. All binary operators are left-associative.

func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(token.OR) || p.at(token.XOR) {
		op := ast.Or
		if p.at(token.XOR) {
			op = ast.Xor
		}
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expression, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.at(token.AND) {
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Left: left, Op: ast.And, Right: right}
	}
	return left, nil
}

func (p *Parser) parseEquality() (ast.Expression, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.at(token.EQUAL) || p.at(token.NOTEQUAL) {
		op := ast.Equal
		if p.at(token.NOTEQUAL) {
			op = ast.NotEqual
		}
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseComparison() (ast.Expression, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOperator
		switch p.cur().Kind {
		case token.LESS:
			op = ast.Less
		case token.GREATER:
			op = ast.Greater
		case token.LESSEQUAL:
			op = ast.LessEqual
		case token.GREATEREQUAL:
			op = ast.GreaterEqual
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Left: left, Op: op, Right: right}
	}
}

func (p *Parser) parseTerm() (ast.Expression, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.at(token.PLUS) || p.at(token.MINUS) {
		op := ast.Add
		if p.at(token.MINUS) {
			op = ast.Subtract
		}
		p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseFactor() (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(token.STAR) || p.at(token.SLASH) || p.at(token.MOD) {
		var op ast.BinaryOperator
		switch p.cur().Kind {
		case token.STAR:
			op = ast.Multiply
		case token.SLASH:
			op = ast.Divide
		case token.MOD:
			op = ast.Modulo
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	if p.at(token.NOT) {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: ast.Not, Operand: operand}, nil
	}
	if p.at(token.MINUS) {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: ast.Negate, Operand: operand}, nil
	}
	return p.parseCallOrMember()
}

func (p *Parser) parseCallOrMember() (ast.Expression, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.at(token.DOT):
			p.advance()
			// A member name may spell a keyword (Controller.Read, Text.Print);
			// keyword tokens keep their source text in Lit.
			name := p.cur()
			if name.Kind != token.IDENT && (name.Lit == "" || name.Kind == token.STRING) {
				return nil, &Error{Tok: name, Message: fmt.Sprintf("expected member name after '.', got %s", name.Kind)}
			}
			p.advance()
			expr = &ast.MemberAccess{Target: expr, Name: name.Lit}
		case p.at(token.LPAREN):
			p.advance()
			var args []ast.Expression
			for !p.at(token.RPAREN) {
				a, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.at(token.COMMA) {
					p.advance()
				}
			}
			if _, err := p.expect(token.RPAREN); err != nil {
				return nil, err
			}
			expr = &ast.Call{Callee: expr, Args: args}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	switch p.cur().Kind {
	case token.INTEGER:
		t := p.advance()
		return &ast.Integer{Value: t.Int}, nil
	case token.STRING:
		t := p.advance()
		return &ast.StringLiteral{Value: t.Lit}, nil
	case token.IDENT:
		t := p.advance()
		return &ast.Identifier{Name: t.Lit}, nil
	case token.PEEK:
		p.advance()
		if _, err := p.expect(token.LPAREN); err != nil {
			return nil, err
		}
		addr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return &ast.Peek{Addr: addr}, nil
	case token.LPAREN:
		p.advance()
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, &Error{Tok: p.cur(), Message: fmt.Sprintf("unexpected token %s in expression", p.cur().Kind)}
	}
}
