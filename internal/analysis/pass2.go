package analysis

import (
	"strings"

	"github.com/kd7tck/swissarmyNES/internal/ast"
	"github.com/kd7tck/swissarmyNES/internal/symtab"
)

func (a *Analyzer) pass2(prog *ast.Program) {
	for _, d := range prog.Decls {
		switch decl := d.(type) {
		case *ast.Sub:
			a.Table.PushScope()
			for i, p := range decl.Params {
				a.define(&symtab.Symbol{Name: p.Name, Kind: symtab.Param, Type: defaultType(p.Type)})
				_ = i
			}
			a.analyzeBlock(decl.Body)
			a.Table.PopScope()
		case *ast.Interrupt:
			a.Table.PushScope()
			a.analyzeBlock(decl.Body)
			a.Table.PopScope()
		}
	}
}

func (a *Analyzer) analyzeBlock(block ast.Block) {
	for _, stmt := range block {
		a.analyzeStmt(stmt)
	}
}

func (a *Analyzer) analyzeStmt(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Let:
		a.analyzeLValue(s.LValue)
		a.resolveType(s.RValue)
	case *ast.If:
		a.resolveType(s.Cond)
		a.analyzeBlock(s.Then)
		a.analyzeBlock(s.Else)
	case *ast.While:
		a.resolveType(s.Cond)
		a.analyzeBlock(s.Body)
	case *ast.DoWhile:
		a.analyzeBlock(s.Body)
		a.resolveType(s.Cond)
	case *ast.For:
		if _, found := a.Table.Resolve(s.Var); !found {
			a.define(&symtab.Symbol{Name: s.Var, Kind: symtab.Local, Type: &ast.Word{}})
		}
		a.resolveType(s.Start)
		a.resolveType(s.End)
		if s.Step != nil {
			a.resolveType(s.Step)
		}
		a.analyzeBlock(s.Body)
	case *ast.Return:
		if s.Value != nil {
			a.resolveType(s.Value)
		}
	case *ast.StmtCall:
		a.analyzeCall(s.Callee, s.Args)
	case *ast.Poke:
		a.resolveType(s.Addr)
		a.resolveType(s.Value)
	case *ast.PlaySfx:
		a.resolveType(s.ID)
	case *ast.Print:
		for _, arg := range s.Args {
			a.resolveType(arg)
		}
	case *ast.Asm, *ast.Comment, *ast.WaitVBlank:
		// no semantic content
	case *ast.On:
		if sym, found := a.Table.Resolve(s.Handler); !found || sym.Kind != symtab.SubKind {
			a.Diags.Addf("ON %s DO %s: handler does not resolve to a Sub", s.Vector, s.Handler)
		}
		a.OnHandlers = append(a.OnHandlers, OnHandler{Vector: s.Vector, Handler: s.Handler})
	case *ast.Read:
		for _, name := range s.Vars {
			if _, found := a.Table.Resolve(name); !found {
				a.Diags.Addf("READ target %q is undefined", name)
			}
		}
	case *ast.Restore:
		// label resolution, if any, is deferred to codegen's DATA-label table.
	case *ast.Select:
		a.resolveType(s.Discriminant)
		for _, c := range s.Cases {
			a.resolveType(c.Value)
			a.analyzeBlock(c.Body)
		}
		a.analyzeBlock(s.Else)
	case *ast.Randomize:
		a.resolveType(s.Seed)
	}
}

// analyzeLValue implements spec §4.4's Let-target rules: an identifier
// (implicit local creation if unknown; constants rejected), a member access
// of a known struct, an indexed access (arity-checked), or a bad call
// target (error).
func (a *Analyzer) analyzeLValue(lv ast.Expression) {
	switch e := lv.(type) {
	case *ast.Identifier:
		sym, found := a.Table.Resolve(e.Name)
		if !found {
			a.define(&symtab.Symbol{Name: e.Name, Kind: symtab.Local, Type: &ast.Word{}})
			return
		}
		if sym.Kind == symtab.Constant {
			a.Diags.Addf("Cannot assign to constant %q", e.Name)
		}
	case *ast.MemberAccess:
		a.analyzeMemberAccessTarget(e)
	case *ast.Call:
		ident, ok := e.Callee.(*ast.Identifier)
		if !ok {
			a.Diags.Addf("invalid assignment target")
			return
		}
		sym, found := a.Table.Resolve(ident.Name)
		if !found {
			a.Diags.Addf("undefined array/struct-array %q", ident.Name)
			return
		}
		if sym.Kind == symtab.SubKind {
			a.Diags.Addf("cannot assign to a call of sub %q", ident.Name)
			return
		}
		if _, isArray := sym.Type.(*ast.ArrayType); !isArray {
			a.Diags.Addf("%q is not indexable", ident.Name)
			return
		}
		if len(e.Args) != 1 {
			a.Diags.Addf("%q: expected 1 index argument, got %d", ident.Name, len(e.Args))
		}
		for _, arg := range e.Args {
			a.resolveType(arg)
		}
	default:
		a.Diags.Addf("invalid assignment target")
	}
}

func (a *Analyzer) analyzeMemberAccessTarget(e *ast.MemberAccess) {
	ident, ok := e.Target.(*ast.Identifier)
	if !ok {
		a.resolveType(e.Target)
		return
	}
	sym, found := a.Table.Resolve(ident.Name)
	if !found {
		a.Diags.Addf("Undefined variable '%s'", ident.Name)
		return
	}
	structName, isStruct := structTypeName(sym.Type)
	if !isStruct {
		return
	}
	structSym, ok := a.Table.Global(structName)
	if !ok {
		a.Diags.Addf("undefined struct type %q", structName)
		return
	}
	if !hasMember(structSym.Members, e.Name) {
		a.Diags.Addf("struct %q has no member %q", structName, e.Name)
	}
}

func structTypeName(t ast.DataType) (string, bool) {
	if st, ok := t.(*ast.StructType); ok {
		return st.Name, true
	}
	return "", false
}

func hasMember(members []symtab.Member, name string) bool {
	for _, m := range members {
		if m.Name == name {
			return true
		}
	}
	return false
}

// analyzeCall implements spec §4.4's Call resolution: a receiver method
// call, a built-in function, or a user Sub, each arity- and (for builtins)
// type-checked.
func (a *Analyzer) analyzeCall(callee ast.Expression, args []ast.Expression) {
	for _, arg := range args {
		a.resolveType(arg)
	}
	if member, ok := callee.(*ast.MemberAccess); ok {
		if recv, ok := member.Target.(*ast.Identifier); ok {
			if methods, isReceiver := receivers[recv.Name]; isReceiver {
				method, found := methods[member.Name]
				if !found {
					a.Diags.Addf("%s has no method %q", recv.Name, member.Name)
					return
				}
				if len(args) != method.arity {
					a.Diags.Addf("%s.%s expects %d arguments, got %d", recv.Name, member.Name, method.arity, len(args))
				}
				return
			}
		}
		a.analyzeMemberAccessTarget(member)
		return
	}
	ident, ok := callee.(*ast.Identifier)
	if !ok {
		a.Diags.Addf("invalid call target")
		return
	}
	upper := strings.ToUpper(ident.Name)
	if builtin, isBuiltin := builtinFuncs[upper]; isBuiltin {
		if len(args) != builtin.arity {
			a.Diags.Addf("%s expects %d arguments, got %d", upper, builtin.arity, len(args))
			return
		}
		if builtin.wantsStringArg && len(args) > 0 {
			if t := a.resolveType(args[0]); !isStringType(t) {
				a.Diags.Addf("%s: first argument must be a string", upper)
			}
		}
		if builtin.wantsNumericArg && len(args) > 0 {
			if t := a.resolveType(args[0]); isStringType(t) {
				a.Diags.Addf("%s expects a numeric argument", upper)
			}
		}
		return
	}
	sym, found := a.Table.Resolve(ident.Name)
	if !found {
		a.Diags.Addf("undefined sub or array %q", ident.Name)
		return
	}
	switch sym.Kind {
	case symtab.SubKind:
		if len(args) != len(sym.ParamTypes) {
			a.Diags.Addf("%s expects %d arguments, got %d", ident.Name, len(sym.ParamTypes), len(args))
		}
	case symtab.Variable, symtab.Local:
		if _, isArray := sym.Type.(*ast.ArrayType); !isArray {
			a.Diags.Addf("%q is not callable", ident.Name)
		} else if len(args) != 1 {
			a.Diags.Addf("%q: expected 1 index argument, got %d", ident.Name, len(args))
		}
	default:
		a.Diags.Addf("%q is not callable", ident.Name)
	}
}

func isStringType(t ast.DataType) bool {
	_, ok := t.(*ast.StringType)
	return ok
}

// resolveType implements spec §4.4's resolve_type(expr) table, recording
// diagnostics for what it cannot resolve. The code generator does not call
// it; codegen/types.go re-derives expression types on its own.
func (a *Analyzer) resolveType(e ast.Expression) ast.DataType {
	switch expr := e.(type) {
	case *ast.Integer:
		return &ast.Word{}
	case *ast.StringLiteral:
		return &ast.StringType{}
	case *ast.Identifier:
		if sym, found := a.Table.Resolve(expr.Name); found {
			return sym.Type
		}
		a.Diags.Addf("Undefined variable '%s'", expr.Name)
		return &ast.Word{}
	case *ast.BinaryOp:
		leftType := a.resolveType(expr.Left)
		a.resolveType(expr.Right)
		switch expr.Op {
		case ast.Equal, ast.NotEqual, ast.Less, ast.Greater, ast.LessEqual, ast.GreaterEqual:
			return &ast.Bool{}
		default:
			return leftType
		}
	case *ast.UnaryOp:
		if expr.Op == ast.Not {
			return &ast.Bool{}
		}
		return a.resolveType(expr.Operand)
	case *ast.Call:
		a.analyzeCall(expr.Callee, expr.Args)
		return a.resolveCallType(expr)
	case *ast.Peek:
		a.resolveType(expr.Addr)
		return &ast.Byte{}
	case *ast.MemberAccess:
		return a.resolveMemberAccessType(expr)
	default:
		return &ast.Word{}
	}
}

func (a *Analyzer) resolveCallType(call *ast.Call) ast.DataType {
	if member, ok := call.Callee.(*ast.MemberAccess); ok {
		if recv, ok := member.Target.(*ast.Identifier); ok {
			if methods, isReceiver := receivers[recv.Name]; isReceiver {
				if method, found := methods[member.Name]; found {
					return method.returnType
				}
			}
		}
		return a.resolveMemberAccessType(member)
	}
	if ident, ok := call.Callee.(*ast.Identifier); ok {
		upper := strings.ToUpper(ident.Name)
		if builtin, isBuiltin := builtinFuncs[upper]; isBuiltin {
			var argType ast.DataType = &ast.Word{}
			if len(call.Args) > 0 {
				argType = a.resolveType(call.Args[0])
			}
			return builtin.returnType(argType)
		}
		if sym, found := a.Table.Resolve(ident.Name); found {
			if arr, ok := sym.Type.(*ast.ArrayType); ok {
				return arr.Elem
			}
			if sym.Kind == symtab.SubKind {
				return &ast.Byte{}
			}
		}
	}
	return &ast.Byte{}
}

func (a *Analyzer) resolveMemberAccessType(e *ast.MemberAccess) ast.DataType {
	ident, ok := e.Target.(*ast.Identifier)
	if !ok {
		a.resolveType(e.Target)
		return &ast.Byte{}
	}
	sym, found := a.Table.Resolve(ident.Name)
	if !found {
		return &ast.Byte{}
	}
	if sym.Kind == symtab.EnumKind {
		return &ast.Int{}
	}
	if structName, isStruct := structTypeName(sym.Type); isStruct {
		if structSym, ok := a.Table.Global(structName); ok {
			for _, m := range structSym.Members {
				if m.Name == e.Name {
					return m.Type
				}
			}
		}
	}
	return &ast.Byte{}
}
