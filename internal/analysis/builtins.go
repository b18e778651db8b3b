package analysis

import (
	"github.com/kd7tck/swissarmyNES/internal/ast"
	"github.com/kd7tck/swissarmyNES/internal/symtab"
)

// buttonVariants is the hardware NES controller bit layout (spec §4.4),
// adapted verbatim from the teacher's nes/controller.go button constants —
// the one piece of teacher runtime logic reused near-identically, since the
// hardware fact is the same in both an emulator and a compiler targeting
// the same machine.
var buttonVariants = []symtab.Variant{
	{Name: "A", Value: 0x80},
	{Name: "B", Value: 0x40},
	{Name: "Select", Value: 0x20},
	{Name: "Start", Value: 0x10},
	{Name: "Up", Value: 0x08},
	{Name: "Down", Value: 0x04},
	{Name: "Left", Value: 0x02},
	{Name: "Right", Value: 0x01},
}

// receiverMethod describes one member-call form recognised by the analyzer
// (spec §4.4): Receiver.Method(args...).
type receiverMethod struct {
	arity      int
	returnType ast.DataType
}

// receivers maps receiver name -> method name -> signature.
var receivers = map[string]map[string]receiverMethod{
	"Controller": {
		"Read":      {arity: 1, returnType: &ast.Byte{}},
		"IsPressed": {arity: 1, returnType: &ast.Bool{}},
		"IsHeld":    {arity: 1, returnType: &ast.Bool{}},
		"IsReleased": {arity: 1, returnType: &ast.Bool{}},
	},
	"Sprite": {
		"Draw":  {arity: 4, returnType: &ast.Byte{}},
		"Clear": {arity: 0, returnType: &ast.Byte{}},
	},
	"Text": {
		"Print":     {arity: 3, returnType: &ast.Byte{}},
		"SetOffset": {arity: 2, returnType: &ast.Byte{}},
	},
}

// builtinFunc describes one free-standing built-in (spec §4.4).
type builtinFunc struct {
	arity          int
	wantsStringArg bool
	wantsNumericArg bool
	returnType     func(argType ast.DataType) ast.DataType
}

var builtinFuncs = map[string]builtinFunc{
	"LEN":   {arity: 1, wantsStringArg: true, returnType: func(ast.DataType) ast.DataType { return &ast.Word{} }},
	"ABS":   {arity: 1, wantsNumericArg: true, returnType: func(t ast.DataType) ast.DataType { return t }},
	"SGN":   {arity: 1, wantsNumericArg: true, returnType: func(ast.DataType) ast.DataType { return &ast.Int{} }},
	"ASC":   {arity: 1, wantsStringArg: true, returnType: func(ast.DataType) ast.DataType { return &ast.Byte{} }},
	"VAL":   {arity: 1, wantsStringArg: true, returnType: func(ast.DataType) ast.DataType { return &ast.Word{} }},
	"CHR":   {arity: 1, wantsNumericArg: true, returnType: func(ast.DataType) ast.DataType { return &ast.StringType{} }},
	"STR":   {arity: 1, wantsNumericArg: true, returnType: func(ast.DataType) ast.DataType { return &ast.StringType{} }},
	"LEFT":  {arity: 2, wantsStringArg: true, returnType: func(ast.DataType) ast.DataType { return &ast.StringType{} }},
	"RIGHT": {arity: 2, wantsStringArg: true, returnType: func(ast.DataType) ast.DataType { return &ast.StringType{} }},
	"MID":   {arity: 3, wantsStringArg: true, returnType: func(ast.DataType) ast.DataType { return &ast.StringType{} }},
}

// registerBuiltins pre-registers the standard-library surface into the
// global scope: the Button enum and the three built-in receiver names.
// Receiver names are registered as Struct-kind placeholders purely so
// MemberAccess resolution has a symbol to find; their real behavior is
// table-driven through receivers above.
func registerBuiltins(t *symtab.Table) {
	_ = t.Define(&symtab.Symbol{
		Name:     "Button",
		Kind:     symtab.EnumKind,
		Type:     &ast.EnumType{Name: "Button"},
		Variants: buttonVariants,
	})
	for name := range receivers {
		_ = t.Define(&symtab.Symbol{
			Name: name,
			Kind: symtab.StructKind,
			Type: &ast.StructType{Name: name},
		})
	}
}
