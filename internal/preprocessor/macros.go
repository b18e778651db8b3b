package preprocessor

import (
	"fmt"

	"github.com/kd7tck/swissarmyNES/internal/ast"
)

const macroRecursionLimit = 100

// ExpandMacros collects and removes every top-level Macro, then replaces
// every matching call in every remaining Sub/Interrupt body with a
// substituted copy of the macro body (spec §4.3).
func ExpandMacros(prog *ast.Program) (*ast.Program, error) {
	macros := map[string]*ast.Macro{}
	var rest []ast.TopLevel
	for _, d := range prog.Decls {
		m, ok := d.(*ast.Macro)
		if !ok {
			rest = append(rest, d)
			continue
		}
		if _, dup := macros[m.Name]; dup {
			return nil, fmt.Errorf("duplicate macro definition: %s", m.Name)
		}
		macros[m.Name] = m
	}

	for _, d := range rest {
		var err error
		switch decl := d.(type) {
		case *ast.Sub:
			decl.Body, err = expandBlock(decl.Body, macros, 0)
		case *ast.Interrupt:
			decl.Body, err = expandBlock(decl.Body, macros, 0)
		}
		if err != nil {
			return nil, err
		}
	}
	return &ast.Program{Decls: rest}, nil
}

func expandBlock(block ast.Block, macros map[string]*ast.Macro, depth int) (ast.Block, error) {
	if depth > macroRecursionLimit {
		return nil, fmt.Errorf("macro expansion recursion limit exceeded")
	}
	var out ast.Block
	for _, stmt := range block {
		expanded, err := expandStatement(stmt, macros, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

// expandStatement returns the statements that stmt expands to: normally a
// single-element slice, or the substituted macro body when stmt is a
// matching macro call.
func expandStatement(stmt ast.Statement, macros map[string]*ast.Macro, depth int) (ast.Block, error) {
	switch s := stmt.(type) {
	case *ast.StmtCall:
		if ident, ok := s.Callee.(*ast.Identifier); ok {
			if m, found := macros[ident.Name]; found {
				if len(s.Args) != len(m.Params) {
					return nil, fmt.Errorf("macro %s: expected %d argument(s), got %d", m.Name, len(m.Params), len(s.Args))
				}
				bindings := map[string]ast.Expression{}
				for i, param := range m.Params {
					bindings[param] = s.Args[i]
				}
				substituted := substituteBlock(m.Body, bindings)
				return expandBlock(substituted, macros, depth+1)
			}
		}
		return ast.Block{s}, nil
	case *ast.If:
		then, err := expandBlock(s.Then, macros, depth)
		if err != nil {
			return nil, err
		}
		var els ast.Block
		if s.Else != nil {
			els, err = expandBlock(s.Else, macros, depth)
			if err != nil {
				return nil, err
			}
		}
		return ast.Block{&ast.If{Cond: s.Cond, Then: then, Else: els}}, nil
	case *ast.While:
		body, err := expandBlock(s.Body, macros, depth)
		if err != nil {
			return nil, err
		}
		return ast.Block{&ast.While{Cond: s.Cond, Body: body}}, nil
	case *ast.DoWhile:
		body, err := expandBlock(s.Body, macros, depth)
		if err != nil {
			return nil, err
		}
		return ast.Block{&ast.DoWhile{Body: body, Cond: s.Cond}}, nil
	case *ast.For:
		body, err := expandBlock(s.Body, macros, depth)
		if err != nil {
			return nil, err
		}
		return ast.Block{&ast.For{Var: s.Var, Start: s.Start, End: s.End, Step: s.Step, Body: body}}, nil
	case *ast.Select:
		var cases []ast.SelectCase
		for _, c := range s.Cases {
			body, err := expandBlock(c.Body, macros, depth)
			if err != nil {
				return nil, err
			}
			cases = append(cases, ast.SelectCase{Value: c.Value, Body: body})
		}
		var els ast.Block
		if s.Else != nil {
			var err error
			els, err = expandBlock(s.Else, macros, depth)
			if err != nil {
				return nil, err
			}
		}
		return ast.Block{&ast.Select{Discriminant: s.Discriminant, Cases: cases, Else: els}}, nil
	default:
		return ast.Block{stmt}, nil
	}
}

// substituteBlock returns a deep copy of block with every Identifier whose
// name is a key of bindings replaced by the bound expression.
func substituteBlock(block ast.Block, bindings map[string]ast.Expression) ast.Block {
	out := make(ast.Block, len(block))
	for i, stmt := range block {
		out[i] = substituteStatement(stmt, bindings)
	}
	return out
}

func substituteStatement(stmt ast.Statement, bindings map[string]ast.Expression) ast.Statement {
	switch s := stmt.(type) {
	case *ast.Let:
		return &ast.Let{LValue: substituteExpr(s.LValue, bindings), RValue: substituteExpr(s.RValue, bindings)}
	case *ast.If:
		return &ast.If{
			Cond: substituteExpr(s.Cond, bindings),
			Then: substituteBlock(s.Then, bindings),
			Else: substituteBlock(s.Else, bindings),
		}
	case *ast.While:
		return &ast.While{Cond: substituteExpr(s.Cond, bindings), Body: substituteBlock(s.Body, bindings)}
	case *ast.DoWhile:
		return &ast.DoWhile{Body: substituteBlock(s.Body, bindings), Cond: substituteExpr(s.Cond, bindings)}
	case *ast.For:
		var step ast.Expression
		if s.Step != nil {
			step = substituteExpr(s.Step, bindings)
		}
		return &ast.For{
			Var: s.Var, Start: substituteExpr(s.Start, bindings), End: substituteExpr(s.End, bindings),
			Step: step, Body: substituteBlock(s.Body, bindings),
		}
	case *ast.Return:
		if s.Value == nil {
			return s
		}
		return &ast.Return{Value: substituteExpr(s.Value, bindings)}
	case *ast.StmtCall:
		args := make([]ast.Expression, len(s.Args))
		for i, a := range s.Args {
			args[i] = substituteExpr(a, bindings)
		}
		return &ast.StmtCall{Callee: substituteExpr(s.Callee, bindings), Args: args}
	case *ast.Poke:
		return &ast.Poke{Addr: substituteExpr(s.Addr, bindings), Value: substituteExpr(s.Value, bindings)}
	case *ast.PlaySfx:
		return &ast.PlaySfx{ID: substituteExpr(s.ID, bindings)}
	case *ast.Print:
		args := make([]ast.Expression, len(s.Args))
		for i, a := range s.Args {
			args[i] = substituteExpr(a, bindings)
		}
		return &ast.Print{Args: args}
	case *ast.Select:
		var cases []ast.SelectCase
		for _, c := range s.Cases {
			cases = append(cases, ast.SelectCase{Value: substituteExpr(c.Value, bindings), Body: substituteBlock(c.Body, bindings)})
		}
		return &ast.Select{
			Discriminant: substituteExpr(s.Discriminant, bindings),
			Cases:        cases,
			Else:         substituteBlock(s.Else, bindings),
		}
	case *ast.Randomize:
		return &ast.Randomize{Seed: substituteExpr(s.Seed, bindings)}
	default:
		return stmt
	}
}

func substituteExpr(expr ast.Expression, bindings map[string]ast.Expression) ast.Expression {
	if expr == nil {
		return nil
	}
	switch e := expr.(type) {
	case *ast.Identifier:
		if bound, ok := bindings[e.Name]; ok {
			return bound
		}
		return e
	case *ast.BinaryOp:
		return &ast.BinaryOp{Left: substituteExpr(e.Left, bindings), Op: e.Op, Right: substituteExpr(e.Right, bindings)}
	case *ast.UnaryOp:
		return &ast.UnaryOp{Op: e.Op, Operand: substituteExpr(e.Operand, bindings)}
	case *ast.Call:
		args := make([]ast.Expression, len(e.Args))
		for i, a := range e.Args {
			args[i] = substituteExpr(a, bindings)
		}
		return &ast.Call{Callee: substituteExpr(e.Callee, bindings), Args: args}
	case *ast.Peek:
		return &ast.Peek{Addr: substituteExpr(e.Addr, bindings)}
	case *ast.MemberAccess:
		return &ast.MemberAccess{Target: substituteExpr(e.Target, bindings), Name: e.Name}
	default:
		return expr
	}
}
