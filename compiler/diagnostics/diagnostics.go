// Package diagnostics defines the DiagnosticsSink collaborator interface
// every compiler phase reports through (spec §6, §7) plus a reference
// in-memory sink used by tests and the CLI.
package diagnostics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Level mirrors the teacher's custom slog levels (core/util.go's
// LevelTrace/LevelWaveform sit above slog.LevelInfo); LevelFatal sits
// above slog.LevelError so a Fatal diagnostic still stands out in a
// process-wide log stream shared with runtime traces.
const (
	LevelInfo  slog.Level = slog.LevelInfo
	LevelWarn  slog.Level = slog.LevelWarn
	LevelError slog.Level = slog.LevelError
	LevelFatal slog.Level = slog.LevelError + 4
)

// Position is a (file, line, column) source location.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Kind classifies a diagnostic by compiler phase, per the taxonomy in
// spec §7.
type Kind string

const (
	KindLex       Kind = "lex"
	KindParse     Kind = "parse"
	KindSemantic  Kind = "semantic"
	KindLayout    Kind = "layout"
	KindLink      Kind = "link"
	KindInclude   Kind = "include"
)

// Diagnostic is one reported issue.
type Diagnostic struct {
	Level   slog.Level
	Kind    Kind
	Pos     Position
	Message string
}

// Sink is the DiagnosticsSink collaborator interface (spec §6): report
// never throws, so every compiler phase can keep going and surface
// multiple issues in one pass.
type Sink interface {
	Report(level slog.Level, pos Position, kind Kind, message string)
}

// MemorySink accumulates diagnostics in order of arrival; it is the
// reference Sink used by tests and by the CLI before final reporting.
type MemorySink struct {
	logger *slog.Logger
	items  []Diagnostic
}

// NewMemorySink builds a MemorySink that also forwards every entry to
// logger at the matching slog level, the way every teacher package logs
// through a shared *slog.Logger rather than the global default.
func NewMemorySink(logger *slog.Logger) *MemorySink {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemorySink{logger: logger}
}

// Report implements Sink.
func (s *MemorySink) Report(level slog.Level, pos Position, kind Kind, message string) {
	d := Diagnostic{Level: level, Kind: kind, Pos: pos, Message: message}
	s.items = append(s.items, d)
	s.logger.Log(context.Background(), level, message,
		"kind", string(kind), "file", pos.File, "line", pos.Line, "column", pos.Column)
}

// Items returns every diagnostic reported so far, in report order.
func (s *MemorySink) Items() []Diagnostic {
	out := make([]Diagnostic, len(s.items))
	copy(out, s.items)
	return out
}

// HasErrors reports whether any diagnostic at LevelError or above was
// reported — the compile result is "success + artifact" only when this is
// false (spec §7).
func (s *MemorySink) HasErrors() bool {
	for _, d := range s.items {
		if d.Level >= LevelError {
			return true
		}
	}
	return false
}

// Table renders every diagnostic as a table, grounded on the teacher's
// PrintState (core/util.go), which builds a table.NewWriter() report of
// per-organism state for debugging.
func (s *MemorySink) Table() string {
	items := s.Items()
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Pos.File != items[j].Pos.File {
			return items[i].Pos.File < items[j].Pos.File
		}
		return items[i].Pos.Line < items[j].Pos.Line
	})

	t := table.NewWriter()
	t.SetTitle("Diagnostics")
	t.AppendHeader(table.Row{"Level", "Kind", "Location", "Message"})
	for _, d := range items {
		t.AppendRow(table.Row{d.Level.String(), d.Kind, d.Pos.String(), d.Message})
	}
	return t.Render()
}
