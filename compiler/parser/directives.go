package parser

import (
	"github.com/rainco77/evochora/compiler/ast"
	"github.com/rainco77/evochora/compiler/lexer"
)

// expectRegister consumes a %DRn/%PRn/%FPRn register token (not an alias),
// since .REG/.PREG always bind an alias to a concrete register slot.
func (p *Parser) expectRegister() (lexer.Token, bool) {
	t := p.cur()
	if t.Kind != lexer.Register || t.RegKind == lexer.AliasRegister {
		p.errorf(t, "expected a concrete register (%%DRn/%%PRn/%%FPRn), got %s", t.Text)
		return t, false
	}
	p.advance()
	return t, true
}

// handleReg implements ".REG alias register": binds alias to a data (or
// procedure) register and does not emit an AST node (spec §4.3: "'.REG'
// does not emit an AST node; it updates the parser's alias table").
func (p *Parser) handleReg() (ast.Node, error) {
	return p.bindAlias(false)
}

// handlePreg implements ".PREG alias register" the same way, for
// procedure-scoped register aliases.
func (p *Parser) handlePreg() (ast.Node, error) {
	return p.bindAlias(true)
}

func (p *Parser) bindAlias(proc bool) (ast.Node, error) {
	nameTok := p.cur()
	if nameTok.Kind != lexer.Register || nameTok.RegKind != lexer.AliasRegister {
		return nil, p.errorf(nameTok, "expected an alias name (%%name), got %s", nameTok.Text)
	}
	p.advance()

	regTok, ok := p.expectRegister()
	if !ok {
		return nil, p.errorf(regTok, "malformed .REG/.PREG")
	}

	p.aliases[p.currentAliasPath(nameTok.RegName)] = Alias{Proc: proc, RKind: regKindName(regTok.RegKind), Index: regTok.RegIndex}
	return nil, nil
}

// handleDefine implements ".DEFINE name typed-literal".
func (p *Parser) handleDefine() (ast.Node, error) {
	start := p.cur()
	if p.cur().Kind != lexer.Identifier {
		return nil, p.errorf(p.cur(), ".DEFINE requires a name")
	}
	name := p.advance().Upper()

	valTok := p.cur()
	if valTok.Kind != lexer.TypedLiteral {
		return nil, p.errorf(valTok, ".DEFINE requires a typed literal value, got %s", valTok.Text)
	}
	p.advance()

	return &ast.Define{
		Pos_: pos(start), Name: name,
		Value: &ast.TypedLiteral{Pos_: pos(valTok), Tag: valTok.TypedTag, Payload: valTok.TypedPayload},
	}, nil
}

func (p *Parser) parseVector() (ast.Node, error) {
	t := p.cur()
	if t.Kind != lexer.VectorLiteral {
		return nil, p.errorf(t, "expected a vector literal, got %s", t.Text)
	}
	p.advance()
	return &ast.VectorLiteral{Pos_: pos(t), Components: append([]int(nil), t.VectorParts...)}, nil
}

// handleOrg implements ".ORG vec".
func (p *Parser) handleOrg() (ast.Node, error) {
	start := p.cur()
	vec, err := p.parseVector()
	if err != nil {
		return nil, err
	}
	return &ast.Org{Pos_: pos(start), Vec: vec}, nil
}

// handleDir implements ".DIR vec".
func (p *Parser) handleDir() (ast.Node, error) {
	start := p.cur()
	vec, err := p.parseVector()
	if err != nil {
		return nil, err
	}
	return &ast.Dir{Pos_: pos(start), Vec: vec}, nil
}

// handlePlace implements ".PLACE typed-literal @ vec".
func (p *Parser) handlePlace() (ast.Node, error) {
	start := p.cur()
	valTok := p.cur()
	if valTok.Kind != lexer.TypedLiteral {
		return nil, p.errorf(valTok, ".PLACE requires a typed literal value, got %s", valTok.Text)
	}
	p.advance()

	if p.cur().Kind != lexer.Punctuation || p.cur().Text != "@" {
		return nil, p.errorf(p.cur(), ".PLACE requires '@' before the target vector")
	}
	p.advance()

	vec, err := p.parseVector()
	if err != nil {
		return nil, err
	}

	return &ast.Place{
		Pos_:  pos(start),
		Value: &ast.TypedLiteral{Pos_: pos(valTok), Tag: valTok.TypedTag, Payload: valTok.TypedPayload},
		At:    vec,
	}, nil
}

// handleRequire implements ".REQUIRE \"path\" [AS alias]".
func (p *Parser) handleRequire() (ast.Node, error) {
	start := p.cur()
	if p.cur().Kind != lexer.String {
		return nil, p.errorf(p.cur(), ".REQUIRE requires a string path")
	}
	path := p.advance().StringValue

	alias := ""
	if p.cur().Kind == lexer.Identifier && p.cur().Upper() == "AS" {
		p.advance()
		if p.cur().Kind != lexer.Identifier {
			return nil, p.errorf(p.cur(), ".REQUIRE ... AS requires an alias name")
		}
		alias = p.advance().Upper()
	}

	return &ast.Require{Pos_: pos(start), Path: path, Alias: alias}, nil
}

// handleScope implements ".SCOPE name ... .ENDS".
func (p *Parser) handleScope() (ast.Node, error) {
	start := p.cur()
	if p.cur().Kind != lexer.Identifier {
		return nil, p.errorf(p.cur(), ".SCOPE requires a name")
	}
	name := p.advance().Upper()

	p.pushScope(name)
	body, err := p.parseBlock(".ENDS")
	p.popScope()
	if err != nil {
		return nil, err
	}
	return &ast.Scope{Pos_: pos(start), Name: name, Body: body}, nil
}

// handleProc implements ".PROC NAME [EXPORT] [REF r1 r2 ...] [VAL v1 v2 ...] ... .ENDP".
func (p *Parser) handleProc() (ast.Node, error) {
	start := p.cur()
	if p.cur().Kind != lexer.Identifier {
		return nil, p.errorf(p.cur(), ".PROC requires a name")
	}
	name := p.advance().Upper()
	p.pushScope(name)
	defer p.popScope()

	proc := &ast.Proc{Pos_: pos(start), Name: name}
	for p.cur().Kind != lexer.Newline && p.cur().Kind != lexer.EOF {
		t := p.cur()
		if t.Kind == lexer.Identifier && t.Upper() == "EXPORT" {
			proc.Export = true
			p.advance()
			continue
		}
		if t.Kind == lexer.Identifier && t.Upper() == "REF" {
			p.advance()
			for p.cur().Kind == lexer.Register && p.cur().RegKind == lexer.AliasRegister {
				proc.RefParams = append(proc.RefParams, p.advance().RegName)
			}
			continue
		}
		if t.Kind == lexer.Identifier && t.Upper() == "VAL" {
			p.advance()
			for p.cur().Kind == lexer.Register && p.cur().RegKind == lexer.AliasRegister {
				proc.ValParams = append(proc.ValParams, p.advance().RegName)
			}
			continue
		}
		return nil, p.errorf(t, "unexpected token %s in .PROC signature", t.Text)
	}

	body, err := p.parseBlock(".ENDP")
	if err != nil {
		return nil, err
	}
	proc.Body = body
	return proc, nil
}
