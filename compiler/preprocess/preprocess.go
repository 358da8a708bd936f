// Package preprocess resolves .INCLUDE and .MACRO directives (spec §4.1)
// before the token stream reaches the parser. Unlike the PARSING-phase
// directives handled by compiler/parser's handler registry, these two are
// fixed by spec and are not registry-driven: the preprocessor is the only
// component allowed to splice token streams from multiple files together.
package preprocess

import (
	"fmt"

	"github.com/rainco77/evochora/compiler/diagnostics"
	"github.com/rainco77/evochora/compiler/lexer"
)

// FileReader abstracts source access so tests can supply in-memory
// sources and the CLI can fall back to runtime resources, grounded on the
// teacher's core/program.go os.ReadFile-based loader generalized behind an
// interface.
type FileReader interface {
	// ReadFile returns the contents of path, or an error if it cannot be
	// read.
	ReadFile(path string) (string, error)
	// Resolve turns a possibly-relative include path into an absolute one,
	// relative to includingFile; if that lookup fails it retries relative
	// to any configured runtime resource roots.
	Resolve(includingFile, includePath string) (string, error)
}

type macroDef struct {
	params []string
	body   []lexer.Token // excluding the .MACRO/.ENDM lines themselves
}

// Preprocessor expands .INCLUDE and .MACRO across one compilation unit.
type Preprocessor struct {
	reader    FileReader
	sink      diagnostics.Sink
	included  map[string]bool
	macros    map[string]macroDef
	expanding map[string]bool // guards against a macro recursively expanding itself
}

// New creates a Preprocessor that resolves includes through reader and
// reports problems to sink.
func New(reader FileReader, sink diagnostics.Sink) *Preprocessor {
	return &Preprocessor{
		reader:    reader,
		sink:      sink,
		included:  make(map[string]bool),
		macros:    make(map[string]macroDef),
		expanding: make(map[string]bool),
	}
}

// Process tokenizes path and every file it (transitively) includes,
// expands every macro invocation, and returns one flat token stream with
// per-token provenance preserved (spec §4.1).
func (p *Preprocessor) Process(path string) ([]lexer.Token, error) {
	abs, err := p.reader.Resolve("", path)
	if err != nil {
		return nil, fmt.Errorf("preprocess: cannot resolve %s: %w", path, err)
	}
	return p.processFile(abs)
}

func (p *Preprocessor) processFile(abs string) ([]lexer.Token, error) {
	if p.included[abs] {
		// Repeat include of an already-processed file is a no-op (spec
		// §4.1 include idempotence, tested in §8 property 1).
		return nil, nil
	}
	p.included[abs] = true

	text, err := p.reader.ReadFile(abs)
	if err != nil {
		p.sink.Report(diagnostics.LevelFatal, diagnostics.Position{File: abs}, diagnostics.KindInclude,
			fmt.Sprintf("cannot read %s: %v", abs, err))
		return nil, err
	}

	toks, err := lexer.New(abs, text).Tokenize()
	if err != nil {
		if le, ok := err.(*lexer.Error); ok {
			p.sink.Report(diagnostics.LevelError, diagnostics.Position{File: le.File, Line: le.Line, Column: le.Column}, diagnostics.KindLex, le.Message)
		}
		return nil, err
	}

	return p.expand(abs, toks)
}

// expand walks toks, splicing in included files and expanded macro bodies.
func (p *Preprocessor) expand(file string, toks []lexer.Token) ([]lexer.Token, error) {
	var out []lexer.Token
	i := 0
	for i < len(toks) {
		t := toks[i]

		if t.Kind == lexer.Directive && t.Upper() == ".INCLUDE" {
			j := i + 1
			for j < len(toks) && toks[j].Kind == lexer.Newline {
				j++
			}
			if j >= len(toks) || toks[j].Kind != lexer.String {
				p.sink.Report(diagnostics.LevelError, pos(t), diagnostics.KindInclude, ".INCLUDE requires a string path")
				i = j + 1
				continue
			}
			includePath := toks[j].StringValue
			abs, err := p.reader.Resolve(file, includePath)
			if err != nil {
				p.sink.Report(diagnostics.LevelError, pos(t), diagnostics.KindInclude, fmt.Sprintf("cannot resolve include %q: %v", includePath, err))
				i = j + 1
				continue
			}
			included, err := p.processFile(abs)
			if err != nil {
				return nil, err
			}
			out = append(out, included...)
			i = j + 1
			continue
		}

		if t.Kind == lexer.Directive && t.Upper() == ".MACRO" {
			def, name, consumed, err := p.parseMacroDef(toks[i:])
			if err != nil {
				p.sink.Report(diagnostics.LevelError, pos(t), diagnostics.KindInclude, err.Error())
				i++
				continue
			}
			p.macros[name] = def
			i += consumed
			continue
		}

		if t.Kind == lexer.Identifier {
			if def, ok := p.macros[t.Upper()]; ok && i+1 < len(toks) && toks[i+1].Kind == lexer.Punctuation && toks[i+1].Text == "(" {
				if p.expanding[t.Upper()] {
					p.sink.Report(diagnostics.LevelError, pos(t), diagnostics.KindInclude,
						fmt.Sprintf("macro %s may not recursively expand itself", t.Text))
					i++
					continue
				}
				args, consumed, err := p.parseMacroArgs(toks[i+1:])
				if err != nil {
					p.sink.Report(diagnostics.LevelError, pos(t), diagnostics.KindInclude, err.Error())
					i++
					continue
				}
				expanded, err := p.expandMacroCall(t.Upper(), def, args)
				if err != nil {
					p.sink.Report(diagnostics.LevelError, pos(t), diagnostics.KindInclude, err.Error())
					i += 1 + consumed
					continue
				}
				out = append(out, expanded...)
				i += 1 + consumed
				continue
			}
		}

		out = append(out, t)
		i++
	}
	return out, nil
}

// parseMacroDef reads ".MACRO name(params...) ... .ENDM" starting at toks[0]
// (the .MACRO directive token). Returns the definition, its name, and the
// number of tokens consumed.
func (p *Preprocessor) parseMacroDef(toks []lexer.Token) (macroDef, string, int, error) {
	i := 1
	for i < len(toks) && toks[i].Kind == lexer.Newline {
		i++
	}
	if i >= len(toks) || toks[i].Kind != lexer.Identifier {
		return macroDef{}, "", len(toks), fmt.Errorf(".MACRO requires a name")
	}
	name := toks[i].Upper()
	i++

	var params []string
	if i < len(toks) && toks[i].Kind == lexer.Punctuation && toks[i].Text == "(" {
		i++
		for i < len(toks) && !(toks[i].Kind == lexer.Punctuation && toks[i].Text == ")") {
			if toks[i].Kind == lexer.Identifier {
				params = append(params, toks[i].Upper())
			}
			i++
		}
		if i < len(toks) {
			i++ // ')'
		}
	}

	bodyStart := i
	depth := 1
	for i < len(toks) {
		if toks[i].Kind == lexer.Directive {
			switch toks[i].Upper() {
			case ".MACRO":
				depth++
			case ".ENDM":
				depth--
				if depth == 0 {
					body := append([]lexer.Token(nil), toks[bodyStart:i]...)
					return macroDef{params: params, body: body}, name, i + 1, nil
				}
			}
		}
		i++
	}
	return macroDef{}, "", len(toks), fmt.Errorf("macro %s missing .ENDM", name)
}

// parseMacroArgs reads "(arg, arg, ...)" starting at the opening paren
// token. Each argument is the raw token slice up to the next comma/paren at
// depth 0 — arguments may themselves be vector literals, typed literals,
// or identifiers.
func (p *Preprocessor) parseMacroArgs(toks []lexer.Token) ([][]lexer.Token, int, error) {
	if len(toks) == 0 || toks[0].Text != "(" {
		return nil, 0, fmt.Errorf("expected ( after macro name")
	}
	i := 1
	var args [][]lexer.Token
	var cur []lexer.Token
	depth := 0
	for i < len(toks) {
		t := toks[i]
		if t.Kind == lexer.Punctuation && t.Text == "(" {
			depth++
			cur = append(cur, t)
			i++
			continue
		}
		if t.Kind == lexer.Punctuation && t.Text == ")" {
			if depth == 0 {
				if len(cur) > 0 {
					args = append(args, cur)
				}
				return args, i + 1, nil
			}
			depth--
			cur = append(cur, t)
			i++
			continue
		}
		if t.Kind == lexer.Punctuation && t.Text == "," && depth == 0 {
			args = append(args, cur)
			cur = nil
			i++
			continue
		}
		if t.Kind != lexer.Newline {
			cur = append(cur, t)
		}
		i++
	}
	return nil, 0, fmt.Errorf("macro call missing closing )")
}

// expandMacroCall substitutes args for def's formal parameters, hygienically:
// the expansion is a private copy of the body, so nested calls never alias
// the caller's token slice.
func (p *Preprocessor) expandMacroCall(name string, def macroDef, args [][]lexer.Token) ([]lexer.Token, error) {
	if len(args) != len(def.params) {
		return nil, fmt.Errorf("macro %s expects %d arguments, got %d", name, len(def.params), len(args))
	}
	subst := make(map[string][]lexer.Token, len(def.params))
	for idx, param := range def.params {
		subst[param] = args[idx]
	}

	p.expanding[name] = true
	defer delete(p.expanding, name)

	var out []lexer.Token
	for _, t := range def.body {
		if t.Kind == lexer.Identifier {
			if repl, ok := subst[t.Upper()]; ok {
				out = append(out, repl...)
				continue
			}
		}
		out = append(out, t)
	}
	// Run expansion again over the substituted body so a macro may invoke
	// other macros (but never itself, guarded above).
	return p.expand(name, out)
}

func pos(t lexer.Token) diagnostics.Position {
	return diagnostics.Position{File: t.File, Line: t.Line, Column: t.Column}
}

// OSFileReader reads includes from disk relative to the including file,
// falling back to a fixed list of runtime resource roots.
type OSFileReader struct {
	ResourceRoots []string
	readFile      func(string) ([]byte, error)
}
