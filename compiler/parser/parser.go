package parser

import (
	"fmt"

	"github.com/rainco77/evochora/compiler/ast"
	"github.com/rainco77/evochora/compiler/diagnostics"
	"github.com/rainco77/evochora/compiler/lexer"
)

// Alias is one ".REG"/".PREG" binding: a name usable in argument position
// resolving to a concrete register.
type Alias struct {
	Proc  bool
	RKind string // "DR", "PR", "FPR"
	Index int
}

// Parser consumes a flat, preprocessed token stream and produces an
// ast.Program, dispatching directives through a Registry (spec §4.3).
type Parser struct {
	registry *Registry
	sink     diagnostics.Sink
	toks     []lexer.Token
	pos      int

	aliases    map[string]Alias // keyed by dotted scope path, e.g. "ADD.COUNTER"
	scopeStack []string
}

// New creates a Parser over toks (already preprocessed — no .INCLUDE or
// .MACRO tokens should remain), reporting problems to sink.
func New(toks []lexer.Token, sink diagnostics.Sink) *Parser {
	return &Parser{
		registry: DefaultRegistry(),
		sink:     sink,
		toks:     toks,
		aliases:  make(map[string]Alias),
	}
}

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(off int) lexer.Token {
	i := p.pos + off
	if i >= len(p.toks) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.toks[i]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) skipNewlines() {
	for p.cur().Kind == lexer.Newline {
		p.advance()
	}
}

func (p *Parser) errorf(t lexer.Token, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	p.sink.Report(diagnostics.LevelError, pos(t), diagnostics.KindParse, msg)
	return fmt.Errorf("%s: %s", pos(t), msg)
}

func pos(t lexer.Token) diagnostics.Position {
	return diagnostics.Position{File: t.File, Line: t.Line, Column: t.Column}
}

// Parse consumes the entire token stream and returns the resulting
// ast.Program. Parsing continues past individual statement errors where
// possible so multiple diagnostics can surface in one pass (spec §7).
func (p *Parser) Parse() (*ast.Program, error) {
	prog := &ast.Program{}
	if len(p.toks) > 0 {
		prog.Pos_ = pos(p.toks[0])
	}

	p.skipNewlines()
	for p.cur().Kind != lexer.EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			p.synchronize()
			continue
		}
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		p.skipNewlines()
	}
	return prog, nil
}

// synchronize skips to the next newline after a parse error, the simplest
// recovery that still lets later diagnostics surface independently.
func (p *Parser) synchronize() {
	for p.cur().Kind != lexer.Newline && p.cur().Kind != lexer.EOF {
		p.advance()
	}
	p.skipNewlines()
}

// parseStatement parses one top-level or nested statement: a label, a
// directive, a CALL, or a plain instruction.
func (p *Parser) parseStatement() (ast.Node, error) {
	t := p.cur()

	if t.Kind == lexer.Identifier && p.peekAt(1).Kind == lexer.Punctuation && p.peekAt(1).Text == ":" {
		p.advance() // name
		p.advance() // ':'
		p.skipNewlines()
		target, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return &ast.Label{Pos_: pos(t), Name: t.Upper(), Target: target}, nil
	}

	if t.Kind == lexer.Directive {
		name := t.Upper()
		handler, phase, ok := p.registry.Lookup(name)
		if !ok {
			return nil, p.errorf(t, "unknown directive %s", t.Text)
		}
		if phase != Parsing {
			return nil, p.errorf(t, "directive %s is not valid here", t.Text)
		}
		p.advance()
		return handler(p)
	}

	if t.Kind == lexer.Identifier && t.Upper() == "CALL" {
		return p.parseCall()
	}

	if t.Kind == lexer.Identifier {
		return p.parseInstruction()
	}

	return nil, p.errorf(t, "unexpected token %s", t.Text)
}

// parseInstruction parses "OPCODE arg arg ...".
func (p *Parser) parseInstruction() (ast.Node, error) {
	opTok := p.advance()
	inst := &ast.Instruction{Pos_: pos(opTok), Opcode: opTok.Upper()}
	for p.cur().Kind != lexer.Newline && p.cur().Kind != lexer.EOF {
		if p.cur().Kind == lexer.Punctuation && p.cur().Text == "," {
			p.advance()
			continue
		}
		arg, err := p.parseArgument()
		if err != nil {
			return nil, err
		}
		inst.Args = append(inst.Args, arg)
	}
	return inst, nil
}

// parseArgument parses one argument node, rejecting the legacy WITH
// keyword wherever it appears in argument position (spec §4.3 "Legacy
// WITH syntax is rejected", §8 property 4).
func (p *Parser) parseArgument() (ast.Node, error) {
	t := p.cur()
	if t.Kind == lexer.Identifier && t.Upper() == "WITH" {
		return nil, p.errorf(t, "legacy WITH syntax is no longer supported (token %q); use CALL target REF ... VAL ...", t.Text)
	}

	switch t.Kind {
	case lexer.Register:
		p.advance()
		if t.RegKind == lexer.AliasRegister {
			return &ast.Identifier{Pos_: pos(t), Name: t.RegName}, nil
		}
		return &ast.Register{Pos_: pos(t), RKind: regKindName(t.RegKind), Index: t.RegIndex}, nil
	case lexer.TypedLiteral:
		p.advance()
		return &ast.TypedLiteral{Pos_: pos(t), Tag: t.TypedTag, Payload: t.TypedPayload}, nil
	case lexer.VectorLiteral:
		p.advance()
		return &ast.VectorLiteral{Pos_: pos(t), Components: append([]int(nil), t.VectorParts...)}, nil
	case lexer.Number:
		p.advance()
		return &ast.Number{Pos_: pos(t), Value: t.IntValue}, nil
	case lexer.Identifier:
		p.advance()
		return &ast.Identifier{Pos_: pos(t), Name: t.Upper()}, nil
	}
	return nil, p.errorf(t, "unexpected argument token %s", t.Text)
}

func regKindName(k lexer.RegisterKind) string {
	switch k {
	case lexer.DataRegister:
		return "DR"
	case lexer.ProcRegister:
		return "PR"
	case lexer.FormalParamRegister:
		return "FPR"
	}
	return "ALIAS"
}

// parseCall parses "CALL target [REF a b ...] [VAL c d ...]".
func (p *Parser) parseCall() (ast.Node, error) {
	callTok := p.advance() // "CALL"
	if p.cur().Kind != lexer.Identifier {
		return nil, p.errorf(p.cur(), "CALL requires a target name")
	}
	target := p.advance().Upper()

	call := &ast.Call{Pos_: pos(callTok), Target: target}
	for p.cur().Kind != lexer.Newline && p.cur().Kind != lexer.EOF {
		t := p.cur()
		if t.Kind == lexer.Identifier && t.Upper() == "WITH" {
			return nil, p.errorf(t, "legacy WITH syntax is no longer supported (token %q); use CALL target REF ... VAL ...", t.Text)
		}
		if t.Kind == lexer.Identifier && t.Upper() == "REF" {
			p.advance()
			for p.isArgumentStart() {
				arg, err := p.parseArgument()
				if err != nil {
					return nil, err
				}
				call.RefActuals = append(call.RefActuals, arg)
			}
			continue
		}
		if t.Kind == lexer.Identifier && t.Upper() == "VAL" {
			p.advance()
			for p.isArgumentStart() {
				arg, err := p.parseArgument()
				if err != nil {
					return nil, err
				}
				call.ValActuals = append(call.ValActuals, arg)
			}
			continue
		}
		return nil, p.errorf(t, "unexpected token %s in CALL actuals", t.Text)
	}
	return call, nil
}

// isArgumentStart reports whether the current token can start a new
// argument, i.e. is not REF/VAL/WITH/a newline, so REF/VAL actual lists
// stop at the next keyword without needing a terminator token.
func (p *Parser) isArgumentStart() bool {
	t := p.cur()
	if t.Kind == lexer.Newline || t.Kind == lexer.EOF {
		return false
	}
	if t.Kind == lexer.Identifier {
		switch t.Upper() {
		case "REF", "VAL", "WITH":
			return false
		}
	}
	return true
}

// Aliases returns every .REG/.PREG binding collected during parsing, keyed
// by its dotted scope path (e.g. "ADD.COUNTER" for an alias declared
// inside ".PROC ADD"), so the semantic analyzer can seed the hierarchical
// symbol table's REGISTER_ALIAS entries (spec §4.4).
func (p *Parser) Aliases() map[string]Alias {
	return p.aliases
}

func (p *Parser) currentAliasPath(name string) string {
	if len(p.scopeStack) == 0 {
		return name
	}
	parts := append(append([]string(nil), p.scopeStack...), name)
	out := parts[0]
	for _, s := range parts[1:] {
		out += "." + s
	}
	return out
}

func (p *Parser) pushScope(name string) { p.scopeStack = append(p.scopeStack, name) }
func (p *Parser) popScope()             { p.scopeStack = p.scopeStack[:len(p.scopeStack)-1] }

// parseBlock parses statements until a directive token whose uppercase
// text equals terminator, consuming the terminator. Used by .PROC/.ENDP
// and .SCOPE/.ENDS.
func (p *Parser) parseBlock(terminator string) ([]ast.Node, error) {
	var body []ast.Node
	p.skipNewlines()
	for {
		if p.cur().Kind == lexer.EOF {
			return body, p.errorf(p.cur(), "unexpected end of input, expected %s", terminator)
		}
		if p.cur().Kind == lexer.Directive && p.cur().Upper() == terminator {
			p.advance()
			return body, nil
		}
		stmt, err := p.parseStatement()
		if err != nil {
			p.synchronize()
			continue
		}
		if stmt != nil {
			body = append(body, stmt)
		}
		p.skipNewlines()
	}
}
