// Package isa implements the Evochora instruction set: decoding a fetched
// instruction out of world cells, executing its semantics against an
// organism's registers/stacks, and the per-tick organism state machine
// (spec §4.7).
package isa

import "github.com/rainco77/evochora/molecule"

// OperandKind classifies one decoded operand slot.
type OperandKind int

const (
	OperandReg OperandKind = iota
	OperandImm
	OperandVec // consumes exactly world dimensionality cells
)

// Spec maps an opcode to its fixed operand shape. CALL is decoded
// separately (its actual lists are variable-length, spec §4.7) and does
// not appear here.
var Spec = map[string][]OperandKind{
	"NOP":  {},
	"SETI": {OperandReg, OperandImm},
	"SETR": {OperandReg, OperandReg},
	"SETV": {OperandReg, OperandVec},
	"B2VR": {OperandReg, OperandImm},
	"V2BR": {OperandReg, OperandVec},

	"ADDI": {OperandReg, OperandImm},
	"ADDR": {OperandReg, OperandReg},
	"SUBI": {OperandReg, OperandImm},
	"SUBR": {OperandReg, OperandReg},
	"XORR": {OperandReg, OperandReg},
	"NOT":  {OperandReg},
	"ANDR": {OperandReg, OperandReg},
	"RTRR": {OperandReg, OperandImm, OperandImm},

	"IFR":  {OperandReg, OperandReg},
	"IFI":  {OperandReg, OperandImm},
	"IFTR": {OperandReg, OperandReg},
	"GTI":  {OperandReg, OperandImm},
	"LTI":  {OperandReg, OperandImm},

	"JMPI": {OperandVec},
	"RET":  {},

	"SCAN": {OperandReg, OperandVec},
	"PEEK": {OperandReg, OperandVec},
	"POKE": {OperandReg, OperandVec},
	"POKI": {OperandImm, OperandVec},
	"SEEK": {OperandVec},

	"PUSH": {OperandReg},
	"POP":  {OperandReg},

	"SNTI": {OperandReg, OperandImm},
	"RBIR": {OperandReg, OperandReg},
}

// Outcome is what one EXECUTE step produced (spec §4.7 "Failure
// semantics"): ok, skip_next, trap(kind), or halt(kind).
type Outcome struct {
	SkipNext bool
	Trap     string // non-empty if a trap occurred this step; most traps also set an er bit, a blocked SEEK does not
	Halt     string // non-empty if the organism must halt
	WroteIP  bool   // true if the instruction itself set ip (ADVANCE must not overwrite it)
}

var ok = Outcome{}

// decodedOperand is one resolved operand value at EXECUTE time.
type decodedOperand struct {
	Kind OperandKind
	Reg  regRef
	Imm  molecule.Molecule
	Vec  []int
}

// regRef names a register slot; Family is "DR", "PR", "FPR", "REFPARAM",
// "VALPARAM" (the encoding ir.operandCells and regCell agree on, see
// RegFamilyCode/RegFamilyName).
type regRef struct {
	Family string
	Index  int
}
