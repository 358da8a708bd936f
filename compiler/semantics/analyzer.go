package semantics

import (
	"fmt"

	"github.com/rainco77/evochora/compiler/ast"
	"github.com/rainco77/evochora/compiler/diagnostics"
	"github.com/rainco77/evochora/compiler/parser"
)

// Analyzer builds the hierarchical symbol table and rewrites the AST in
// place so every statically-resolvable identifier becomes a Register or
// TypedLiteral node (spec §4.4).
type Analyzer struct {
	table   *Table
	sink    diagnostics.Sink
	aliases map[string]parser.Alias
}

// New creates an Analyzer. aliases is the parser's .REG/.PREG table,
// keyed by dotted scope path (parser.Parser.Aliases()).
func New(aliases map[string]parser.Alias, sink diagnostics.Sink) *Analyzer {
	return &Analyzer{table: NewTable(), sink: sink, aliases: aliases}
}

// Table returns the symbol table built by Analyze.
func (a *Analyzer) Table() *Table {
	return a.table
}

// Analyze collects every symbol in prog, seeds register aliases, then
// rewrites identifiers. Errors are reported to the sink, and the first one
// is returned; the symbol table is available through Table.
func (a *Analyzer) Analyze(prog *ast.Program) error {
	a.seedAliases()
	a.collect(prog.Statements, nil)

	var firstErr error
	for _, stmt := range prog.Statements {
		if err := a.resolveStatement(stmt, nil, nil); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (a *Analyzer) seedAliases() {
	for path, al := range a.aliases {
		a.table.Define(&Symbol{
			Path: path,
			Kind: KindRegisterAlias,
			Register: &ast.Register{
				RKind: al.RKind,
				Index: al.Index,
			},
		})
	}
}

// collect walks the tree once, populating CONSTANT/PROCEDURE/LABEL symbols
// so forward references (a label used before its definition, a procedure
// called before ".PROC" appears) resolve correctly.
func (a *Analyzer) collect(stmts []ast.Node, scopePath []string) {
	for _, n := range stmts {
		a.collectNode(n, scopePath)
	}
}

func (a *Analyzer) collectNode(n ast.Node, scopePath []string) {
	switch v := n.(type) {
	case *ast.Label:
		path := joinPath(append(append([]string(nil), scopePath...), v.Name))
		a.table.Define(&Symbol{Path: path, Kind: KindLabel})
		if v.Target != nil {
			a.collectNode(v.Target, scopePath)
		}
	case *ast.Define:
		path := joinPath(append(append([]string(nil), scopePath...), v.Name))
		tl, _ := v.Value.(*ast.TypedLiteral)
		a.table.Define(&Symbol{Path: path, Kind: KindConstant, Constant: tl})
	case *ast.Scope:
		inner := append(append([]string(nil), scopePath...), v.Name)
		a.collect(v.Body, inner)
	case *ast.Proc:
		path := joinPath(append(append([]string(nil), scopePath...), v.Name))
		a.table.Define(&Symbol{
			Path: path, Kind: KindProcedure, Export: v.Export,
			Proc: &ProcSignature{RefParams: v.RefParams, ValParams: v.ValParams},
		})
		inner := append(append([]string(nil), scopePath...), v.Name)
		a.collect(v.Body, inner)
	}
}

// resolveStatement rewrites identifiers within n. proc is non-nil while
// inside a .PROC body, so REF/VAL parameter names can resolve to
// REFPARAM/VALPARAM registers.
func (a *Analyzer) resolveStatement(n ast.Node, scopePath []string, proc *ast.Proc) error {
	var firstErr error
	noteErr := func(e error) {
		if e != nil && firstErr == nil {
			firstErr = e
		}
	}

	switch v := n.(type) {
	case *ast.Label:
		if v.Target != nil {
			noteErr(a.resolveStatement(v.Target, scopePath, proc))
		}
	case *ast.Instruction:
		for i, arg := range v.Args {
			resolved, err := a.resolveArg(arg, scopePath, proc)
			noteErr(err)
			if resolved != nil {
				v.Args[i] = resolved
			}
		}
	case *ast.Call:
		for i, arg := range v.RefActuals {
			resolved, err := a.resolveArg(arg, scopePath, proc)
			noteErr(err)
			if resolved != nil {
				v.RefActuals[i] = resolved
			}
		}
		for i, arg := range v.ValActuals {
			resolved, err := a.resolveArg(arg, scopePath, proc)
			noteErr(err)
			if resolved != nil {
				v.ValActuals[i] = resolved
			}
		}
	case *ast.Scope:
		inner := append(append([]string(nil), scopePath...), v.Name)
		for _, stmt := range v.Body {
			noteErr(a.resolveStatement(stmt, inner, proc))
		}
	case *ast.Proc:
		inner := append(append([]string(nil), scopePath...), v.Name)
		for _, stmt := range v.Body {
			noteErr(a.resolveStatement(stmt, inner, v))
		}
	}
	return firstErr
}

// resolveArg resolves a single argument node. Identifier nodes that match
// a REF/VAL parameter, a register alias, or a constant are replaced;
// identifiers matching a known label/procedure name are left untouched to
// become a LabelRef at IR-generation time; anything else is a semantic
// error (spec §4.4).
func (a *Analyzer) resolveArg(n ast.Node, scopePath []string, proc *ast.Proc) (ast.Node, error) {
	id, ok := n.(*ast.Identifier)
	if !ok {
		return nil, nil
	}

	if proc != nil {
		for i, p := range proc.RefParams {
			if p == id.Name {
				return &ast.Register{Pos_: id.Pos_, RKind: "REFPARAM", Index: i}, nil
			}
		}
		for i, p := range proc.ValParams {
			if p == id.Name {
				return &ast.Register{Pos_: id.Pos_, RKind: "VALPARAM", Index: i}, nil
			}
		}
	}

	if sym, ok := a.table.Resolve(scopePath, id.Name); ok {
		switch sym.Kind {
		case KindRegisterAlias:
			return &ast.Register{Pos_: id.Pos_, RKind: sym.Register.RKind, Index: sym.Register.Index}, nil
		case KindConstant:
			if sym.Constant == nil {
				break
			}
			return &ast.TypedLiteral{Pos_: id.Pos_, Tag: sym.Constant.Tag, Payload: sym.Constant.Payload}, nil
		case KindLabel, KindProcedure:
			return nil, nil // left as Identifier, resolved at IR-gen time
		}
	}

	msg := fmt.Sprintf("unresolved identifier %q", id.Name)
	a.sink.Report(diagnostics.LevelError, id.Pos_, diagnostics.KindSemantic, msg)
	return nil, fmt.Errorf("%s: %s", id.Pos_, msg)
}
