// Package preprocessor implements spec §4.3's two sequential passes over a
// parsed Program: include expansion, then macro expansion. Grounded
// directly on original_source/src/compiler/preprocessor.rs, in particular
// its seen-set-inserted-before-recursion ordering.
package preprocessor

import (
	"fmt"

	"github.com/kd7tck/swissarmyNES/internal/ast"
	"github.com/kd7tck/swissarmyNES/internal/lexer"
	"github.com/kd7tck/swissarmyNES/internal/parser"
)

// SourceProvider resolves an INCLUDE path to source text (spec §6).
type SourceProvider func(path string) (string, error)

// ExpandIncludes walks prog's declaration list and splices in the expanded
// contents of every Include, pragma-once per path and cycle-safe.
func ExpandIncludes(prog *ast.Program, provider SourceProvider) (*ast.Program, error) {
	seen := map[string]bool{}
	decls, err := expandIncludeList(prog.Decls, provider, seen)
	if err != nil {
		return nil, err
	}
	return &ast.Program{Decls: decls}, nil
}

func expandIncludeList(decls []ast.TopLevel, provider SourceProvider, seen map[string]bool) ([]ast.TopLevel, error) {
	var out []ast.TopLevel
	for _, d := range decls {
		inc, ok := d.(*ast.Include)
		if !ok {
			out = append(out, d)
			continue
		}
		if seen[inc.Path] {
			continue // pragma-once; also breaks cycles
		}
		seen[inc.Path] = true
		expanded, err := expandOneInclude(inc.Path, provider, seen)
		if err != nil {
			return nil, fmt.Errorf("in %s: %w", inc.Path, err)
		}
		out = append(out, expanded...)
	}
	return out, nil
}

func expandOneInclude(path string, provider SourceProvider, seen map[string]bool) ([]ast.TopLevel, error) {
	src, err := provider(path)
	if err != nil {
		return nil, err
	}
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		return nil, err
	}
	return expandIncludeList(prog.Decls, provider, seen)
}
