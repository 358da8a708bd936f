package parser

import (
	"testing"

	"github.com/rainco77/evochora/compiler/diagnostics"
	"github.com/rainco77/evochora/compiler/lexer"
)

func tokenize(t *testing.T, src string) []lexer.Token {
	t.Helper()
	toks, err := lexer.New("test.asm", src).Tokenize()
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	return toks
}

// property 4 — legacy WITH syntax is rejected: only "CALL target REF ...
// VAL ..." is accepted.
func TestCallLegacyWithRejected(t *testing.T) {
	toks := tokenize(t, "CALL ADD WITH %DR0\n")
	sink := diagnostics.NewMemorySink(nil)
	p := New(toks, sink)
	if _, err := p.Parse(); err != nil {
		t.Fatalf("Parse itself should recover from a single bad statement and keep going: %v", err)
	}
	if !sink.HasErrors() {
		t.Fatalf("expected legacy WITH syntax to be reported as a syntax error")
	}
	found := false
	for _, d := range sink.Items() {
		if d.Level == diagnostics.LevelError && contains(d.Message, "WITH") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a diagnostic mentioning the legacy WITH keyword, got %+v", sink.Items())
	}
}

// The modern REF/VAL call form must still parse cleanly.
func TestCallRefValAccepted(t *testing.T) {
	toks := tokenize(t, "CALL ADD REF %DR0 VAL %DR1\n")
	sink := diagnostics.NewMemorySink(nil)
	p := New(toks, sink)
	_, err := p.Parse()
	if err != nil {
		t.Fatalf("unexpected parse error for REF/VAL call form: %v", err)
	}
	if sink.HasErrors() {
		t.Errorf("unexpected diagnostics: %+v", sink.Items())
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
