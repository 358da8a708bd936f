// Package organism models a running execution context: registers, stacks,
// instruction/direction/data pointers, energy, and the per-call frames that
// implement REF/VAL procedure parameters.
//
// The register and stack shapes are grounded on the teacher's coreState
// (core/emu.go): a flat register slice indexed by number, several named
// LIFO stacks, and a States map used for ad hoc per-organism flags — reused
// here to carry the "er" trap-flag bitset.
package organism

import (
	"fmt"

	"github.com/rainco77/evochora/molecule"
	"github.com/rainco77/evochora/world"
)

// Trap bits set in Organism.ER. Multiple traps may be set at once; traps
// never clear themselves, and no instruction in package isa clears them.
const (
	TrapTypeMismatch uint32 = 1 << iota
	TrapRegisterRange
	TrapStackOverflow
	TrapStackUnderflow
	TrapInsufficientEnergy
)

// CallFrame is pushed on Call and popped on Ret. RefRegisters holds the
// actual register index behind each REF parameter and ValValues the
// evaluated VAL arguments, both in declaration order; the callee reaches
// them by position (REFPARAM/VALPARAM index). RefNames/ValNames are not
// filled by isa's CALL and stay empty.
type CallFrame struct {
	// ReturnIP is already advanced past the calling CALL instruction's
	// full width (opcode, target vector, ref/val counts, actuals); RET
	// assigns it to ip verbatim, it does not add ReturnDV again.
	ReturnIP     world.Vector
	ReturnDV     world.Vector
	RefNames     []string
	RefRegisters []int
	ValNames     []string
	ValValues    []molecule.Molecule
	SavedPR      []molecule.Molecule
}

// Registers bound a fixed set of data registers (DR), procedure-scoped
// registers (PR) and formal-parameter registers (FPR).
type Registers struct {
	DR  []molecule.Molecule
	PR  []molecule.Molecule
	FPR []molecule.Molecule
}

// NewRegisters allocates ndr data registers, npr procedure registers and
// nfpr formal-parameter registers, all initialized to EMPTY. FPR is a
// plain, directly addressable register file like DR/PR (spec §3 lists it
// alongside DR*/PR*); the REF/VAL aliasing CALL performs (spec §4.7) is
// separate machinery resolved through the active CallFrame, not through
// this array — see readReg/writeReg in package isa.
func NewRegisters(ndr, npr, nfpr int) Registers {
	r := Registers{
		DR:  make([]molecule.Molecule, ndr),
		PR:  make([]molecule.Molecule, npr),
		FPR: make([]molecule.Molecule, nfpr),
	}
	for i := range r.DR {
		r.DR[i] = molecule.EmptyMolecule
	}
	for i := range r.PR {
		r.PR[i] = molecule.EmptyMolecule
	}
	for i := range r.FPR {
		r.FPR[i] = molecule.EmptyMolecule
	}
	return r
}

// Stack is a fixed-depth LIFO. Overflow/underflow is reported to the
// caller, never panics, so the organism's ISA layer can turn it into a
// configurable trap-or-halt per stacks.on_overflow.
type Stack[T any] struct {
	items []T
	max   int
}

// NewStack creates a stack bounded at max entries.
func NewStack[T any](max int) *Stack[T] {
	return &Stack[T]{max: max}
}

// Push appends v, returning false if the stack is already at capacity.
func (s *Stack[T]) Push(v T) bool {
	if len(s.items) >= s.max {
		return false
	}
	s.items = append(s.items, v)
	return true
}

// Pop removes and returns the top entry, returning false on an empty stack.
func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	if len(s.items) == 0 {
		return zero, false
	}
	v := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return v, true
}

// Peek returns the top entry without removing it.
func (s *Stack[T]) Peek() (T, bool) {
	var zero T
	if len(s.items) == 0 {
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

// Depth returns the current number of entries.
func (s *Stack[T]) Depth() int {
	return len(s.items)
}

// Items returns a snapshot-safe copy of the stack contents, bottom first.
func (s *Stack[T]) Items() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Organism is a running execution context placed in a World.
type Organism struct {
	ID         int64
	ParentID   int64
	HasParent  bool
	ProgramID  int64
	BirthTick  uint64
	Energy     int64

	IP world.Vector
	DV world.Vector
	DP []world.Vector

	Registers Registers

	DataStack      *Stack[molecule.Molecule]
	CallStack      *Stack[CallFrame]
	LocationStack  *Stack[world.Vector]
	FormalParams   *Stack[CallFrame]

	ReturnIP world.Vector
	ER       uint32

	Halted   bool
	LastTrap string

	// SkipNext is set by a conditional instruction whose predicate was
	// false; since each organism executes exactly one instruction per
	// tick (spec §4.8), the skip applies to the instruction fetched on
	// the organism's *next* tick, not a later one within the same tick.
	SkipNext bool

	// OnOverflow selects what isa.Execute does when a stack push/pop
	// exceeds its bound (spec §6 stacks.on_overflow): "trap" sets the
	// trap bit and continues, anything else (including "") halts. Fixed
	// at spawn from config.Stacks.OnOverflow.
	OnOverflow string
}

// Config bounds the fixed-depth stacks and register files an organism is
// created with.
type Config struct {
	DataRegisters  int
	ProcRegisters  int
	FormalRegisters int
	StackDepth     int

	// OnOverflow is copied onto every spawned Organism; see
	// Organism.OnOverflow.
	OnOverflow string
}

// New creates a freshly spawned organism at entry with the given direction
// vector, owned by no parent.
func New(id int64, programID int64, birthTick uint64, entry, dv world.Vector, energy int64, cfg Config) *Organism {
	return &Organism{
		ID:            id,
		ProgramID:     programID,
		BirthTick:     birthTick,
		Energy:        energy,
		IP:            entry.Clone(),
		DV:            dv.Clone(),
		DP:            []world.Vector{entry.Clone()},
		Registers:     NewRegisters(cfg.DataRegisters, cfg.ProcRegisters, cfg.FormalRegisters),
		DataStack:     NewStack[molecule.Molecule](cfg.StackDepth),
		CallStack:     NewStack[CallFrame](cfg.StackDepth),
		LocationStack: NewStack[world.Vector](cfg.StackDepth),
		FormalParams:  NewStack[CallFrame](cfg.StackDepth),
		ReturnIP:      entry.Clone(),
		OnOverflow:    cfg.OnOverflow,
	}
}

// SetParent records the organism's parent for snapshot reporting (§6).
func (o *Organism) SetParent(id int64) {
	o.ParentID = id
	o.HasParent = true
}

// DataRegister reads DRn, trapping TrapRegisterRange on an out-of-range n.
func (o *Organism) DataRegister(n int) (molecule.Molecule, bool) {
	if n < 0 || n >= len(o.Registers.DR) {
		o.ER |= TrapRegisterRange
		return molecule.EmptyMolecule, false
	}
	return o.Registers.DR[n], true
}

// SetDataRegister writes DRn, trapping TrapRegisterRange on an out-of-range n.
func (o *Organism) SetDataRegister(n int, m molecule.Molecule) bool {
	if n < 0 || n >= len(o.Registers.DR) {
		o.ER |= TrapRegisterRange
		return false
	}
	o.Registers.DR[n] = m
	return true
}

// ProcRegister reads PRn, trapping TrapRegisterRange on an out-of-range n.
func (o *Organism) ProcRegister(n int) (molecule.Molecule, bool) {
	if n < 0 || n >= len(o.Registers.PR) {
		o.ER |= TrapRegisterRange
		return molecule.EmptyMolecule, false
	}
	return o.Registers.PR[n], true
}

// SetProcRegister writes PRn, trapping TrapRegisterRange on an out-of-range n.
func (o *Organism) SetProcRegister(n int, m molecule.Molecule) bool {
	if n < 0 || n >= len(o.Registers.PR) {
		o.ER |= TrapRegisterRange
		return false
	}
	o.Registers.PR[n] = m
	return true
}

// FPRegister reads FPRn, trapping TrapRegisterRange on an out-of-range n.
func (o *Organism) FPRegister(n int) (molecule.Molecule, bool) {
	if n < 0 || n >= len(o.Registers.FPR) {
		o.ER |= TrapRegisterRange
		return molecule.EmptyMolecule, false
	}
	return o.Registers.FPR[n], true
}

// SetFPRegister writes FPRn, trapping TrapRegisterRange on an out-of-range n.
func (o *Organism) SetFPRegister(n int, m molecule.Molecule) bool {
	if n < 0 || n >= len(o.Registers.FPR) {
		o.ER |= TrapRegisterRange
		return false
	}
	o.Registers.FPR[n] = m
	return true
}

// Kill marks the organism halted with the given reason, reported in
// snapshots as the last trap/halt per organism (§7).
func (o *Organism) Kill(reason string) {
	o.Halted = true
	o.LastTrap = reason
}

// SpendEnergy deducts amount. A spend that would drive energy negative is
// refused and sets TrapInsufficientEnergy (§3 invariant); a spend that
// brings energy to exactly 0 kills the organism.
func (o *Organism) SpendEnergy(amount int64) bool {
	if amount < 0 {
		panic(fmt.Sprintf("organism: negative energy spend %d", amount))
	}
	if o.Energy < amount {
		o.ER |= TrapInsufficientEnergy
		return false
	}
	o.Energy -= amount
	if o.Energy == 0 {
		o.Kill("energy exhausted")
	}
	return true
}
