package isa

import (
	"testing"

	"github.com/rainco77/evochora/molecule"
	"github.com/rainco77/evochora/organism"
	"github.com/rainco77/evochora/world"
)

func newTestOrg(id int64, ip world.Vector, dv world.Vector) *organism.Organism {
	cfg := organism.Config{DataRegisters: 4, ProcRegisters: 4, FormalRegisters: 4, StackDepth: 8}
	return organism.New(id, id, 0, ip, dv, 100, cfg)
}

// S5 — toroidal wrap: SEEK 1|0 from position 3|1 in a 4x4 world moves IP
// to 0|1.
func TestSeekToroidalWrap(t *testing.T) {
	w := world.NewBuilder().WithDimensions([]int{4, 4}).WithSeed(1).Build()
	org := newTestOrg(1, world.NewVector(3, 1), world.NewVector(1, 0))

	d := Decoded{Opcode: "SEEK", Operands: []decodedOperand{
		{Kind: OperandVec, Vec: []int{1, 0}},
	}}
	out := Execute(org, w, 2, nil, d)
	if out.Trap != "" || out.Halt != "" {
		t.Fatalf("unexpected trap/halt: %+v", out)
	}
	if !org.IP.Equal(world.NewVector(0, 1)) {
		t.Errorf("expected IP wrapped to (0,1), got %v", org.IP)
	}
}

// S6 — energy trap: POKI (the immediate form of POKE) over a foreign
// non-empty cell with insufficient energy leaves the cell unchanged and
// sets the insufficient-energy trap.
func TestPokeInsufficientEnergyTrap(t *testing.T) {
	w := world.NewBuilder().WithDimensions([]int{4, 4}).WithSeed(1).Build()
	foreign := world.NewVector(1, 0)
	existing := molecule.New(molecule.Energy, 5)
	w.Set(foreign, existing, 99)

	org := newTestOrg(1, world.NewVector(0, 0), world.NewVector(1, 0))
	org.Energy = 3

	d := Decoded{Opcode: "POKI", Operands: []decodedOperand{
		{Kind: OperandImm, Imm: molecule.New(molecule.Data, 7)},
		{Kind: OperandVec, Vec: []int{1, 0}},
	}}
	out := Execute(org, w, 2, nil, d)
	if out.Trap != "insufficient energy" {
		t.Fatalf("expected insufficient energy trap, got %+v", out)
	}
	if org.ER&organism.TrapInsufficientEnergy == 0 {
		t.Errorf("expected TrapInsufficientEnergy bit set in er")
	}
	if org.Energy != 3 {
		t.Errorf("energy must be unchanged on a failed spend, got %d", org.Energy)
	}
	got := w.Get(foreign)
	if got.Molecule != existing || got.OwnerID != 99 {
		t.Errorf("foreign cell must be unchanged, got %+v", got)
	}
}

// property 8 — energy monotonicity outside PEEK/POKE: a SETI never
// changes energy.
func TestEnergyMonotonicityOutsideWrites(t *testing.T) {
	w := world.NewBuilder().WithDimensions([]int{4, 4}).WithSeed(1).Build()
	org := newTestOrg(1, world.NewVector(0, 0), world.NewVector(1, 0))
	before := org.Energy

	d := Decoded{Opcode: "SETI", Operands: []decodedOperand{
		{Kind: OperandReg, Reg: regRef{Family: "DR", Index: 0}},
		{Kind: OperandImm, Imm: molecule.New(molecule.Data, 42)},
	}}
	Execute(org, w, 2, nil, d)

	if org.Energy != before {
		t.Errorf("SETI must not change energy: before=%d after=%d", before, org.Energy)
	}
}

// S3 — REF vs VAL: after CALL ADD REF %DR0 VAL %DR1 / ADDR A B / RET,
// %DR0 = DATA:3 (mutated through the REF alias) and %DR1 = DATA:2
// (unmodified, since it was passed by value).
func TestCallRefVsValParameters(t *testing.T) {
	w := world.NewBuilder().WithDimensions([]int{8, 8}).WithSeed(1).Build()
	org := newTestOrg(1, world.NewVector(0, 0), world.NewVector(1, 0))
	org.SetDataRegister(0, molecule.New(molecule.Data, 1))
	org.SetDataRegister(1, molecule.New(molecule.Data, 2))

	// Width mirrors what FetchAt would compute for this shape: opcode (1)
	// + target vector (dims=2) + ref/val counts (2) + 1 ref + 1 val = 7.
	const callWidth = 7
	call := Decoded{
		Opcode:     "CALL",
		CallTarget: world.NewVector(2, 0),
		CallRefActuals: []regRef{
			{Family: "DR", Index: 0},
		},
		CallValActuals: []decodedOperand{
			{Kind: OperandReg, Reg: regRef{Family: "DR", Index: 1}},
		},
		Width: callWidth,
	}
	dataDepthBefore := org.DataStack.Depth()
	callDepthBefore := org.CallStack.Depth()
	wantReturnIP := w.Normalize(world.NewVector(0, 0).Add(world.NewVector(1, 0).Scale(callWidth)))

	out := Execute(org, w, 2, nil, call)
	if out.Halt != "" {
		t.Fatalf("unexpected halt on CALL: %+v", out)
	}
	if !org.IP.Equal(world.NewVector(2, 0)) {
		t.Fatalf("expected IP at call target, got %v", org.IP)
	}

	// Inside the callee: ADDR REFPARAM[0] VALPARAM[0] writes into the
	// REF-aliased %DR0 (value 1+2=3); VAL's %DR1 is untouched.
	addr := Decoded{Opcode: "ADDR", Operands: []decodedOperand{
		{Kind: OperandReg, Reg: regRef{Family: "REFPARAM", Index: 0}},
		{Kind: OperandReg, Reg: regRef{Family: "VALPARAM", Index: 0}},
	}}
	out = Execute(org, w, 2, nil, addr)
	if out.Trap != "" {
		t.Fatalf("unexpected trap on ADDR: %+v", out)
	}

	ret := Decoded{Opcode: "RET"}
	out = Execute(org, w, 2, nil, ret)
	if out.Halt != "" {
		t.Fatalf("unexpected halt on RET: %+v", out)
	}

	// RET must land on the instruction following CALL (the caller's ip
	// advanced by CALL's full width), never inside CALL's own operand
	// cells (target vector / ref-val counts / actuals).
	if !org.IP.Equal(wantReturnIP) {
		t.Errorf("expected ip after RET to be %v (call site advanced by width %d), got %v", wantReturnIP, callWidth, org.IP)
	}

	dr0, _ := org.DataRegister(0)
	dr1, _ := org.DataRegister(1)
	if dr0 != molecule.New(molecule.Data, 3) {
		t.Errorf("expected DR0 = DATA:3, got %s", dr0)
	}
	if dr1 != molecule.New(molecule.Data, 2) {
		t.Errorf("expected DR1 unchanged at DATA:2, got %s", dr1)
	}
	if org.ER != 0 {
		t.Errorf("expected er unchanged, got %d", org.ER)
	}

	// property 7 — stack balance: depths restored after RET.
	if org.DataStack.Depth() != dataDepthBefore {
		t.Errorf("data stack depth not restored: got %d want %d", org.DataStack.Depth(), dataDepthBefore)
	}
	if org.CallStack.Depth() != callDepthBefore {
		t.Errorf("call stack depth not restored: got %d want %d", org.CallStack.Depth(), callDepthBefore)
	}
}

// stacks.on_overflow: "trap" sets the trap bit and lets execution continue,
// anything else (the zero value included) halts, per config/config.go's
// {trap, halt} validation and organism.Organism.OnOverflow.
func TestStackOverflowTrapVsHalt(t *testing.T) {
	w := world.NewBuilder().WithDimensions([]int{4, 4}).WithSeed(1).Build()
	push := Decoded{Opcode: "PUSH", Operands: []decodedOperand{
		{Kind: OperandReg, Reg: regRef{Family: "DR", Index: 0}},
	}}

	halter := newTestOrg(1, world.NewVector(0, 0), world.NewVector(1, 0))
	halter.DataStack.Push(molecule.EmptyMolecule)
	for halter.DataStack.Depth() < 8 {
		halter.DataStack.Push(molecule.EmptyMolecule)
	}
	out := Execute(halter, w, 2, nil, push)
	if out.Halt == "" {
		t.Fatalf("expected halt on stack overflow with default on_overflow, got %+v", out)
	}
	if halter.ER&organism.TrapStackOverflow == 0 {
		t.Errorf("expected TrapStackOverflow bit set even when halting")
	}

	trapper := newTestOrg(2, world.NewVector(0, 0), world.NewVector(1, 0))
	trapper.OnOverflow = "trap"
	for trapper.DataStack.Depth() < 8 {
		trapper.DataStack.Push(molecule.EmptyMolecule)
	}
	out = Execute(trapper, w, 2, nil, push)
	if out.Halt != "" {
		t.Fatalf("expected no halt with on_overflow=trap, got %+v", out)
	}
	if out.Trap != "stack overflow" {
		t.Errorf("expected stack overflow trap, got %+v", out)
	}
	if trapper.ER&organism.TrapStackOverflow == 0 {
		t.Errorf("expected TrapStackOverflow bit set")
	}
	if trapper.DataStack.Depth() != 8 {
		t.Errorf("trapped push must not grow the stack past its bound, got depth %d", trapper.DataStack.Depth())
	}
}

// TickRNG must be a pure function of (seed, tick): same inputs, same
// sequence of draws (spec §8 property 5's determinism requirement applied
// at the RNG layer).
func TestTickRNGDeterministic(t *testing.T) {
	r1 := TickRNG(42, 7)
	r2 := TickRNG(42, 7)
	for i := 0; i < 10; i++ {
		a := r1.Intn(1000)
		b := r2.Intn(1000)
		if a != b {
			t.Fatalf("draw %d diverged: %d vs %d", i, a, b)
		}
	}
}
