// Package ir defines the intermediate representation the semantic-checked
// AST lowers into, plus the layout and linker passes that turn it into a
// Program Artifact (spec §4.5).
package ir

import (
	"github.com/rainco77/evochora/compiler/diagnostics"
	"github.com/rainco77/evochora/molecule"
)

// Operand is an instruction operand after IR generation. LabelRef is the
// only unresolved operand kind; the linker rewrites every LabelRef into a
// Vec (spec §8 property 3).
type Operand interface {
	isOperand()
}

// Reg is a register operand: RKind is "DR", "PR", "FPR", "REFPARAM" or
// "VALPARAM" (the last two resolved through the active CallFrame at
// runtime, see organism.CallFrame).
type Reg struct {
	RKind string
	Index int
}

func (Reg) isOperand() {}

// Imm is an immediate typed-molecule operand.
type Imm struct {
	Molecule molecule.Molecule
}

func (Imm) isOperand() {}

// Vec is a resolved n-D vector operand (a literal, or a LabelRef after
// linking).
type Vec struct {
	Components []int
}

func (Vec) isOperand() {}

// LabelRef is an unresolved reference to a label or procedure name,
// scoped to ScopePath (the lexical scope it appeared in, innermost last)
// so the linker can resolve it the same way semantics.Table.Resolve does.
type LabelRef struct {
	Name      string
	ScopePath []string
}

func (LabelRef) isOperand() {}

// Item is one entry in the linear IR stream.
type Item interface {
	isItem()
}

// LabelMarker marks that Name becomes defined at the address of the next
// occupying item (an Instruction/Call/Place), without itself occupying a
// cell.
type LabelMarker struct {
	Name string // dotted path
}

func (LabelMarker) isItem() {}

// Instruction is a plain opcode + operand list; it occupies one coordinate
// for the opcode plus one per operand cell (a vector operand takes one per
// component, a label operand dims) along the current layout direction.
type Instruction struct {
	Opcode   string
	Operands []Operand
	Source   diagnostics.Position
}

func (Instruction) isItem() {}

// Call is CALL target REF... VAL..., kept distinct from Instruction
// because its actuals are first-class fields (spec §9's adopted
// alternative) rather than captured by a preceding directive.
type Call struct {
	Target     LabelRef
	RefActuals []Operand
	ValActuals []Operand
	Source     diagnostics.Position
}

func (Call) isItem() {}

// Directive is a layout-pass-only control item: namespace "LAYOUT", name
// "ORG" or "DIR", carrying the new origin/direction vector. It never
// occupies a cell.
type Directive struct {
	Namespace string
	Name      string
	Args      []Operand
}

func (Directive) isItem() {}

// Place is ".PLACE value @ vec": writes one cell at origin+vec without
// advancing the running layout cursor used for instructions.
type Place struct {
	Value  Imm
	Offset Vec
	Source diagnostics.Position
}

func (Place) isItem() {}

// ProcMarker records a procedure's REF/VAL signature at the point its body
// begins, so the layout pass can populate Artifact.ProcSignatures.
type ProcMarker struct {
	Path      string // dotted
	RefParams []string
	ValParams []string
}

func (ProcMarker) isItem() {}
