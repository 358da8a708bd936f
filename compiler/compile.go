// Package compiler wires the pipeline stages together: preprocess, lex,
// parse, analyze, generate IR, layout, link (spec §4.1-§4.6).
package compiler

import (
	"fmt"

	"github.com/rainco77/evochora/compiler/diagnostics"
	"github.com/rainco77/evochora/compiler/ir"
	"github.com/rainco77/evochora/compiler/parser"
	"github.com/rainco77/evochora/compiler/preprocess"
	"github.com/rainco77/evochora/compiler/semantics"
)

// Result carries everything a caller might want to inspect after a
// compile: the linked artifact plus the diagnostics collected along the
// way.
type Result struct {
	Artifact *ir.Artifact
	Sink     *diagnostics.MemorySink
}

// Compile runs the full pipeline over the source file at path, using
// reader to resolve .INCLUDE paths (.REQUIRE is parsed but not acted on)
// and dims as the target world's dimensionality (layout needs it for the
// default origin and direction and for the width of label operands).
func Compile(path string, dims int, reader preprocess.FileReader, sink *diagnostics.MemorySink) (*Result, error) {
	res := &Result{Sink: sink}

	pp := preprocess.New(reader, sink)
	toks, err := pp.Process(path)
	if err != nil {
		return res, fmt.Errorf("preprocess: %w", err)
	}

	p := parser.New(toks, sink)
	prog, err := p.Parse()
	if err != nil {
		return res, fmt.Errorf("parse: %w", err)
	}

	an := semantics.New(p.Aliases(), sink)
	if err := an.Analyze(prog); err != nil {
		return res, fmt.Errorf("semantics: %w", err)
	}

	items, err := ir.Generate(prog)
	if err != nil {
		return res, fmt.Errorf("ir generate: %w", err)
	}

	lay, err := ir.Place(items, dims)
	if err != nil {
		return res, fmt.Errorf("ir layout: %w", err)
	}

	art, err := ir.Link(lay, an.Table())
	if err != nil {
		return res, fmt.Errorf("ir link: %w", err)
	}
	res.Artifact = art

	if sink.HasErrors() {
		return res, fmt.Errorf("compile: %d diagnostic(s) reported", len(sink.Items()))
	}
	return res, nil
}
