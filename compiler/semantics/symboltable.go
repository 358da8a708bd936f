// Package semantics builds the hierarchical symbol table (spec §4.4) and
// rewrites the AST so every identifier that can be resolved at compile
// time becomes a concrete Register or TypedLiteral node.
package semantics

import (
	"strings"

	"github.com/rainco77/evochora/compiler/ast"
)

// Kind classifies a Symbol.
type Kind string

const (
	KindConstant      Kind = "CONSTANT"
	KindRegisterAlias Kind = "REGISTER_ALIAS"
	KindProcedure     Kind = "PROCEDURE"
	KindLabel         Kind = "LABEL"
)

// ProcSignature records a procedure's REF/VAL formal parameter names in
// declaration order (spec §4.4, §4.7).
type ProcSignature struct {
	RefParams []string
	ValParams []string
}

// Symbol is one entry in the table, keyed by its dotted path.
type Symbol struct {
	Path   string
	Kind   Kind
	Export bool

	// Populated depending on Kind.
	Constant *ast.TypedLiteral
	Register *ast.Register
	Proc     *ProcSignature
}

// Table is a hierarchical symbol store indexed by dotted path
// ("scope.sub.name"); resolve walks from innermost scope outward (spec §4.4,
// §9 design note "Symbol table").
type Table struct {
	symbols map[string]*Symbol
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{symbols: make(map[string]*Symbol)}
}

// Define adds sym under its Path, overwriting any existing entry with the
// same path: a later definition silently replaces an earlier one. Neither
// Table nor Analyzer reports duplicate symbols.
func (t *Table) Define(sym *Symbol) {
	t.symbols[sym.Path] = sym
}

// Lookup returns the symbol exactly at path, if any.
func (t *Table) Lookup(path string) (*Symbol, bool) {
	s, ok := t.symbols[path]
	return s, ok
}

// Resolve looks up name starting from scopePath (innermost first),
// walking outward one scope segment at a time until the root, honoring
// export visibility: a symbol defined in a scope other than the current
// one is only visible if Export is true.
func (t *Table) Resolve(scopePath []string, name string) (*Symbol, bool) {
	for i := len(scopePath); i >= 0; i-- {
		candidatePath := joinPath(append(append([]string(nil), scopePath[:i]...), name))
		if sym, ok := t.symbols[candidatePath]; ok {
			if i == len(scopePath) || sym.Export {
				return sym, true
			}
		}
	}
	// Also allow a fully-dotted reference (e.g. "SCOPE.SUB.NAME") resolved
	// directly against the root.
	if sym, ok := t.symbols[name]; ok {
		return sym, true
	}
	return nil, false
}

func joinPath(parts []string) string {
	return strings.Join(parts, ".")
}

// All returns every symbol in the table, for diagnostics/tests.
func (t *Table) All() map[string]*Symbol {
	return t.symbols
}
