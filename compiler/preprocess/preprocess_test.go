package preprocess

import (
	"fmt"
	"testing"

	"github.com/rainco77/evochora/compiler/diagnostics"
	"github.com/rainco77/evochora/compiler/lexer"
)

// memReader is an in-memory FileReader fixture: files are looked up by
// name directly, with no directory semantics, matching how tests across
// the pack stub filesystem collaborators.
type memReader struct {
	files map[string]string
}

func (r *memReader) ReadFile(path string) (string, error) {
	text, ok := r.files[path]
	if !ok {
		return "", fmt.Errorf("no such file %q", path)
	}
	return text, nil
}

func (r *memReader) Resolve(includingFile, includePath string) (string, error) {
	if _, ok := r.files[includePath]; !ok {
		return "", fmt.Errorf("cannot resolve %q", includePath)
	}
	return includePath, nil
}

// property 1 — include idempotence: a file included twice from the same
// unit contributes its tokens exactly once.
func TestIncludeIdempotence(t *testing.T) {
	reader := &memReader{files: map[string]string{
		"main.asm": ".INCLUDE \"shared.asm\"\n.INCLUDE \"shared.asm\"\nNOP\n",
		"shared.asm": "SETI %DR0 DATA:1\n",
	}}
	sink := diagnostics.NewMemorySink(nil)
	p := New(reader, sink)

	toks, err := p.Process("main.asm")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	count := 0
	for _, tok := range toks {
		if tok.Kind == lexer.Identifier && tok.Upper() == "SETI" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected shared.asm's SETI to appear exactly once across two .INCLUDEs, got %d", count)
	}
}

// A diamond-shaped include graph (A includes B and C, both of which
// include D) must still only emit D's tokens once.
func TestIncludeIdempotenceDiamond(t *testing.T) {
	reader := &memReader{files: map[string]string{
		"a.asm": ".INCLUDE \"b.asm\"\n.INCLUDE \"c.asm\"\n",
		"b.asm": ".INCLUDE \"d.asm\"\n",
		"c.asm": ".INCLUDE \"d.asm\"\n",
		"d.asm": "NOP\n",
	}}
	sink := diagnostics.NewMemorySink(nil)
	p := New(reader, sink)

	toks, err := p.Process("a.asm")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	count := 0
	for _, tok := range toks {
		if tok.Kind == lexer.Identifier && tok.Upper() == "NOP" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected d.asm's NOP to appear exactly once across the diamond, got %d", count)
	}
}
