package ir

import (
	"testing"

	"github.com/rainco77/evochora/compiler/semantics"
	"github.com/rainco77/evochora/molecule"
)

// S1 — alias & constant resolution collapses to a plain Reg/Imm pair once
// the AST is already resolved; ir.Generate only has to convert node types,
// so this exercises the IR/layout/link path directly: SETI Reg(0) Imm(DATA,10).
func TestSETIRegImm(t *testing.T) {
	items := []Item{
		Instruction{Opcode: "SETI", Operands: []Operand{
			Reg{RKind: "DR", Index: 0},
			Imm{Molecule: molecule.New(molecule.Data, 10)},
		}},
	}
	lay, err := Place(items, 2)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	art, err := Link(lay, semantics.NewTable())
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if len(art.Cells) != 3 { // opcode + reg + imm
		t.Fatalf("expected 3 cells, got %d", len(art.Cells))
	}
	if art.Cells[1].Molecule.Payload != 0 {
		t.Errorf("expected register payload 0 (DR family*1000+0), got %d", art.Cells[1].Molecule.Payload)
	}
	if art.Cells[2].Molecule != molecule.New(molecule.Data, 10) {
		t.Errorf("expected DATA:10, got %s", art.Cells[2].Molecule)
	}
}

// S2 — label rewrite, 2-D: ".ORG 0|0 / L: NOP / JMPI L" in a 5x5 world;
// the JMPI operand must equal Vec(0,0) after linking.
func TestLabelRewrite2D(t *testing.T) {
	items := []Item{
		Directive{Namespace: "LAYOUT", Name: "ORG", Args: []Operand{Vec{Components: []int{0, 0}}}},
		LabelMarker{Name: "L"},
		Instruction{Opcode: "NOP"},
		Instruction{Opcode: "JMPI", Operands: []Operand{LabelRef{Name: "L"}}},
	}
	lay, err := Place(items, 2)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	table := semantics.NewTable()
	table.Define(&semantics.Symbol{Path: "L", Kind: semantics.KindLabel})

	art, err := Link(lay, table)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}

	addr, ok := art.LabelAddr["L"]
	if !ok || addr[0] != 0 || addr[1] != 0 {
		t.Fatalf("expected L at (0,0), got %v ok=%v", addr, ok)
	}

	// Cells: [0] NOP opcode at (0,0), [1] JMPI opcode at (1,0), [2..3] the
	// two resolved Vec components of the JMPI operand.
	if len(art.Cells) != 4 {
		t.Fatalf("expected 4 cells (NOP opcode, JMPI opcode, 2 resolved vec components), got %d", len(art.Cells))
	}
	if art.Cells[2].Molecule.Payload != 0 || art.Cells[3].Molecule.Payload != 0 {
		t.Errorf("expected JMPI operand to resolve to Vec(0,0), got (%d,%d)",
			art.Cells[2].Molecule.Payload, art.Cells[3].Molecule.Payload)
	}
}

// property 3 — label resolution completeness: every LabelRef-derived cell
// is rewritten to a DATA-tagged coordinate component, never left as a
// dangling reference, across a multi-dimensional target.
func TestLabelResolutionCompleteness3D(t *testing.T) {
	items := []Item{
		LabelMarker{Name: "TARGET"},
		Instruction{Opcode: "NOP"},
		Call{Target: LabelRef{Name: "TARGET"}},
	}
	lay, err := Place(items, 3)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	table := semantics.NewTable()
	table.Define(&semantics.Symbol{Path: "TARGET", Kind: semantics.KindLabel})
	art, err := Link(lay, table)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	// CALL opcode + 3 target components + 2 count cells = 6 cells after the NOP.
	if len(art.Cells) != 1+6 {
		t.Fatalf("expected 7 cells total, got %d", len(art.Cells))
	}
	for _, c := range art.Cells {
		if c.Molecule.Tag == molecule.Empty {
			t.Errorf("unresolved/empty cell in linked artifact: %+v", c)
		}
	}
}

// S3-adjacent — a REF/VAL call's actual lists round-trip through layout
// and linking as first-class fields, never collapsing to a shared cell
// count mismatch.
func TestCallRefValActualsLayout(t *testing.T) {
	items := []Item{
		LabelMarker{Name: "ADD"},
		Call{
			Target:     LabelRef{Name: "ADD"},
			RefActuals: []Operand{Reg{RKind: "DR", Index: 0}},
			ValActuals: []Operand{Reg{RKind: "DR", Index: 1}},
		},
	}
	lay, err := Place(items, 1)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	table := semantics.NewTable()
	table.Define(&semantics.Symbol{Path: "ADD", Kind: semantics.KindLabel})
	art, err := Link(lay, table)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	// opcode + 1 target component + refCount + valCount + 1 ref + 1 val = 6
	if len(art.Cells) != 6 {
		t.Fatalf("expected 6 cells, got %d", len(art.Cells))
	}
	if art.Cells[2].Molecule.Payload != 1 || art.Cells[3].Molecule.Payload != 1 {
		t.Errorf("expected refCount=1 valCount=1, got %d,%d", art.Cells[2].Molecule.Payload, art.Cells[3].Molecule.Payload)
	}
}

// compile determinism (property 2): linking the same layout twice yields
// byte-identical Bytes() output.
func TestLinkDeterminism(t *testing.T) {
	items := []Item{
		Instruction{Opcode: "SETI", Operands: []Operand{Reg{RKind: "DR", Index: 0}, Imm{Molecule: molecule.New(molecule.Data, 5)}}},
		Instruction{Opcode: "SETI", Operands: []Operand{Reg{RKind: "DR", Index: 1}, Imm{Molecule: molecule.New(molecule.Data, 6)}}},
	}
	table := semantics.NewTable()

	lay1, _ := Place(items, 1)
	art1, err := Link(lay1, table)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	b1, err := art1.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	lay2, _ := Place(items, 1)
	art2, err := Link(lay2, table)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	b2, err := art2.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	if string(b1) != string(b2) {
		t.Errorf("expected byte-identical artifacts across two compiles")
	}
}
