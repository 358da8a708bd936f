// Package parser is a recursive-descent parser driven by a directive
// handler registry (spec §4.3, §9): each directive name maps to a handler
// tagged with the compiler phase it belongs to. Only PARSING-phase
// handlers are consulted here; .INCLUDE/.MACRO (PREPROCESSING phase) are
// resolved upstream by compiler/preprocess and must never reach the
// parser.
package parser

import "github.com/rainco77/evochora/compiler/ast"

// Phase is the compiler stage a directive belongs to.
type Phase int

const (
	Preprocessing Phase = iota
	Parsing
)

// Handler parses one directive's arguments starting after the directive
// token itself and returns the AST node it produces (nil for directives
// like .REG that only mutate parser state).
type Handler func(p *Parser) (ast.Node, error)

type registration struct {
	phase   Phase
	handler Handler
}

// Registry maps directive names (uppercased, with leading '.') to
// handlers. Built once at parser construction, mirroring the teacher's
// one-shot registration style (instr.ISA.registerNewInst, core.Builder).
type Registry struct {
	entries map[string]registration
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registration)}
}

// Register adds or replaces the handler for name (e.g. ".PROC").
func (r *Registry) Register(name string, phase Phase, h Handler) {
	r.entries[name] = registration{phase: phase, handler: h}
}

// Lookup returns the handler for name and whether it was found.
func (r *Registry) Lookup(name string) (Handler, Phase, bool) {
	e, ok := r.entries[name]
	return e.handler, e.phase, ok
}

// DefaultRegistry builds the registry covering every PARSING-phase
// directive in spec §4.3, plus PREPROCESSING-phase entries for .INCLUDE
// and .MACRO/.ENDM. Those entries are never invoked: parseStatement
// rejects any non-PARSING directive that reaches it as a parse error.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(".REG", Parsing, (*Parser).handleReg)
	r.Register(".PREG", Parsing, (*Parser).handlePreg)
	r.Register(".DEFINE", Parsing, (*Parser).handleDefine)
	r.Register(".ORG", Parsing, (*Parser).handleOrg)
	r.Register(".DIR", Parsing, (*Parser).handleDir)
	r.Register(".PLACE", Parsing, (*Parser).handlePlace)
	r.Register(".REQUIRE", Parsing, (*Parser).handleRequire)
	r.Register(".PROC", Parsing, (*Parser).handleProc)
	r.Register(".SCOPE", Parsing, (*Parser).handleScope)

	leftover := func(p *Parser) (ast.Node, error) {
		return nil, p.errorf(p.cur(), "directive %s should have been resolved by the preprocessor", p.cur().Text)
	}
	r.Register(".INCLUDE", Preprocessing, leftover)
	r.Register(".MACRO", Preprocessing, leftover)
	r.Register(".ENDM", Preprocessing, leftover)

	return r
}
