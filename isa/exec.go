package isa

import (
	"github.com/rainco77/evochora/molecule"
	"github.com/rainco77/evochora/organism"
	"github.com/rainco77/evochora/world"
)

// RNG is the tick-seeded deterministic source RBIR draws from; never a
// process-global (spec §9 "Random-choice instructions").
type RNG interface {
	Intn(n int) int
}

func readReg(org *organism.Organism, ref regRef) (molecule.Molecule, bool) {
	switch ref.Family {
	case "DR":
		return org.DataRegister(ref.Index)
	case "PR":
		return org.ProcRegister(ref.Index)
	case "FPR":
		return org.FPRegister(ref.Index)
	case "REFPARAM":
		frame, ok := org.FormalParams.Peek()
		if !ok || ref.Index < 0 || ref.Index >= len(frame.RefRegisters) {
			org.ER |= organism.TrapRegisterRange
			return molecule.EmptyMolecule, false
		}
		return org.DataRegister(frame.RefRegisters[ref.Index])
	case "VALPARAM":
		frame, ok := org.FormalParams.Peek()
		if !ok || ref.Index < 0 || ref.Index >= len(frame.ValValues) {
			org.ER |= organism.TrapRegisterRange
			return molecule.EmptyMolecule, false
		}
		return frame.ValValues[ref.Index], true
	}
	org.ER |= organism.TrapRegisterRange
	return molecule.EmptyMolecule, false
}

func writeReg(org *organism.Organism, ref regRef, m molecule.Molecule) bool {
	switch ref.Family {
	case "DR":
		return org.SetDataRegister(ref.Index, m)
	case "PR":
		return org.SetProcRegister(ref.Index, m)
	case "FPR":
		return org.SetFPRegister(ref.Index, m)
	case "REFPARAM":
		frame, ok := org.FormalParams.Peek()
		if !ok || ref.Index < 0 || ref.Index >= len(frame.RefRegisters) {
			org.ER |= organism.TrapRegisterRange
			return false
		}
		return org.SetDataRegister(frame.RefRegisters[ref.Index], m)
	case "VALPARAM":
		frame, ok := org.FormalParams.Peek()
		if !ok || ref.Index < 0 || ref.Index >= len(frame.ValValues) {
			org.ER |= organism.TrapRegisterRange
			return false
		}
		frame.ValValues[ref.Index] = m // shared backing array: mutation is visible to later reads this call
		return true
	}
	org.ER |= organism.TrapRegisterRange
	return false
}

func operandValue(org *organism.Organism, op decodedOperand) (molecule.Molecule, bool) {
	if op.Kind == OperandImm {
		return op.Imm, true
	}
	return readReg(org, op.Reg)
}

// Execute runs one decoded instruction's semantics against org and w.
// dims is world dimensionality; rng backs RBIR.
func Execute(org *organism.Organism, w *world.World, dims int, rng RNG, d Decoded) Outcome {
	switch d.Opcode {
	case "NOP":
		return ok

	case "SETI", "SETR":
		dst := d.Operands[0].Reg
		val, valid := operandValue(org, d.Operands[1])
		if !valid {
			return Outcome{Trap: "register range"}
		}
		writeReg(org, dst, val)
		return ok

	case "SETV":
		dst := d.Operands[0].Reg
		vec := d.Operands[1].Vec
		writeReg(org, dst, moleculeFromVec(vec))
		return ok

	case "B2VR":
		dst := d.Operands[0].Reg
		mask := d.Operands[1].Imm.Payload
		writeReg(org, dst, moleculeFromVec(bitmaskToVec(mask, dims)))
		return ok

	case "V2BR":
		dst := d.Operands[0].Reg
		mask := vecToBitmask(d.Operands[1].Vec)
		writeReg(org, dst, molecule.New(molecule.Data, mask))
		return ok

	case "ADDI", "ADDR":
		return binaryArith(org, d, func(a, b int64) int64 { return a + b })
	case "SUBI", "SUBR":
		return binaryArith(org, d, func(a, b int64) int64 { return a - b })
	case "XORR":
		return binaryArith(org, d, func(a, b int64) int64 { return a ^ b })
	case "ANDR":
		return binaryArith(org, d, func(a, b int64) int64 { return a & b })

	case "NOT":
		a, valid := readReg(org, d.Operands[0].Reg)
		if !valid {
			return Outcome{Trap: "register range"}
		}
		writeReg(org, d.Operands[0].Reg, a.WithPayload(^a.Payload))
		return ok

	case "RTRR":
		reg := d.Operands[0].Reg
		axis1 := int(d.Operands[1].Imm.Payload)
		axis2 := int(d.Operands[2].Imm.Payload)
		val, valid := readReg(org, reg)
		if !valid {
			return Outcome{Trap: "register range"}
		}
		vec := bitmaskToVec(val.Payload, dims)
		if axis1 >= 0 && axis1 < dims && axis2 >= 0 && axis2 < dims {
			vec[axis1], vec[axis2] = vec[axis2], vec[axis1]
		}
		writeReg(org, reg, moleculeFromVec(vec))
		return ok

	case "IFR", "IFTR":
		a, av := readReg(org, d.Operands[0].Reg)
		b, bv := readReg(org, d.Operands[1].Reg)
		if !av || !bv {
			return Outcome{Trap: "register range"}
		}
		var pred bool
		if d.Opcode == "IFTR" {
			pred = a.Tag == b.Tag
		} else {
			pred = a == b
		}
		return Outcome{SkipNext: !pred}

	case "IFI":
		a, av := readReg(org, d.Operands[0].Reg)
		if !av {
			return Outcome{Trap: "register range"}
		}
		return Outcome{SkipNext: a != d.Operands[1].Imm}

	case "GTI", "LTI":
		a, av := readReg(org, d.Operands[0].Reg)
		if !av {
			return Outcome{Trap: "register range"}
		}
		if a.Tag != d.Operands[1].Imm.Tag {
			org.ER |= organism.TrapTypeMismatch
			return Outcome{Trap: "type mismatch", SkipNext: true}
		}
		var pred bool
		if d.Opcode == "GTI" {
			pred = a.Payload > d.Operands[1].Imm.Payload
		} else {
			pred = a.Payload < d.Operands[1].Imm.Payload
		}
		return Outcome{SkipNext: !pred}

	case "JMPI":
		org.IP = w.Normalize(world.NewVector(d.Operands[0].Vec...))
		return Outcome{WroteIP: true}

	case "CALL":
		return execCall(org, w, d)
	case "RET":
		return execRet(org, w)

	case "SCAN":
		dst := d.Operands[0].Reg
		dir := world.NewVector(d.Operands[1].Vec...)
		coord := w.Normalize(org.IP.Add(dir))
		writeReg(org, dst, w.Get(coord).Molecule)
		return ok

	case "PEEK":
		dst := d.Operands[0].Reg
		dir := world.NewVector(d.Operands[1].Vec...)
		coord := w.Normalize(org.IP.Add(dir))
		cell := w.Get(coord)
		if w.IsPassable(coord, org.ID) || cell.OwnerID == org.ID {
			writeReg(org, dst, cell.Molecule)
			w.Set(coord, molecule.EmptyMolecule, world.OwnerNone)
		} else {
			writeReg(org, dst, molecule.EmptyMolecule)
		}
		return ok

	case "POKE", "POKI":
		var val molecule.Molecule
		var dirIdx = 1
		if d.Opcode == "POKE" {
			v, valid := readReg(org, d.Operands[0].Reg)
			if !valid {
				return Outcome{Trap: "register range"}
			}
			val = v
		} else {
			val = d.Operands[0].Imm
		}
		dir := world.NewVector(d.Operands[dirIdx].Vec...)
		return execPoke(org, w, dir, val)

	case "SEEK":
		dir := world.NewVector(d.Operands[0].Vec...)
		target := w.Normalize(org.IP.Add(dir))
		if !w.IsPassable(target, org.ID) {
			return Outcome{Trap: "blocked"}
		}
		org.IP = target
		return Outcome{WroteIP: true}

	case "PUSH":
		val, valid := readReg(org, d.Operands[0].Reg)
		if !valid {
			return Outcome{Trap: "register range"}
		}
		if !org.DataStack.Push(val) {
			return stackFault(org, organism.TrapStackOverflow, "stack overflow", "data stack overflow")
		}
		return ok

	case "POP":
		val, okPop := org.DataStack.Pop()
		if !okPop {
			return stackFault(org, organism.TrapStackUnderflow, "stack underflow", "data stack underflow")
		}
		writeReg(org, d.Operands[0].Reg, val)
		return ok

	case "SNTI":
		dst := d.Operands[0].Reg
		tag := d.Operands[1].Imm.Tag
		var mask int64
		for i, nb := range w.Neighbors(org.IP) {
			if w.Get(nb.Coord).Molecule.Tag == tag {
				mask |= 1 << uint(i)
			}
		}
		writeReg(org, dst, molecule.New(molecule.Data, mask))
		return ok

	case "RBIR":
		dst := d.Operands[0].Reg
		maskReg, valid := readReg(org, d.Operands[1].Reg)
		if !valid {
			return Outcome{Trap: "register range"}
		}
		bits := setBits(maskReg.Payload)
		if len(bits) == 0 {
			writeReg(org, dst, molecule.New(molecule.Data, -1))
			return ok
		}
		choice := bits[rng.Intn(len(bits))]
		writeReg(org, dst, molecule.New(molecule.Data, int64(choice)))
		return ok
	}

	return Outcome{Halt: "unknown opcode " + d.Opcode}
}

// stackFault applies a stack overflow/underflow per org.OnOverflow (spec §6
// stacks.on_overflow): "trap" sets the er bit and lets execution continue;
// anything else halts, matching the previous unconditional behavior.
func stackFault(org *organism.Organism, bit uint32, trap, haltReason string) Outcome {
	org.ER |= bit
	if org.OnOverflow == "trap" {
		return Outcome{Trap: trap}
	}
	return Outcome{Trap: trap, Halt: haltReason}
}

func binaryArith(org *organism.Organism, d Decoded, f func(a, b int64) int64) Outcome {
	dst := d.Operands[0].Reg
	a, av := readReg(org, dst)
	b, bv := operandValue(org, d.Operands[1])
	if !av || !bv {
		return Outcome{Trap: "register range"}
	}
	if a.Tag != molecule.Empty && b.Tag != molecule.Empty && a.Tag != b.Tag {
		org.ER |= organism.TrapTypeMismatch
		return Outcome{Trap: "type mismatch"}
	}
	writeReg(org, dst, a.WithPayload(f(a.Payload, b.Payload)))
	return ok
}

func execCall(org *organism.Organism, w *world.World, d Decoded) Outcome {
	// ReturnIP is the saved coordinate already advanced past this CALL's
	// full width (opcode + target vector + ref/val counts + actuals), the
	// same ADVANCE rule every other instruction uses (isa/step.go): RET
	// must land on the instruction following CALL, never inside its own
	// operand cells.
	frame := organism.CallFrame{
		ReturnIP: w.Normalize(org.IP.Add(org.DV.Scale(d.Width))),
		ReturnDV: org.DV.Clone(),
		SavedPR:  append([]molecule.Molecule(nil), org.Registers.PR...),
	}
	for _, ref := range d.CallRefActuals {
		frame.RefRegisters = append(frame.RefRegisters, ref.Index)
	}
	for _, vop := range d.CallValActuals {
		val, valid := operandValue(org, vop)
		if !valid {
			return Outcome{Trap: "register range"}
		}
		frame.ValValues = append(frame.ValValues, val)
	}
	if !org.CallStack.Push(frame) || !org.FormalParams.Push(frame) {
		return stackFault(org, organism.TrapStackOverflow, "call stack overflow", "call stack overflow")
	}
	for i := range org.Registers.PR {
		org.Registers.PR[i] = molecule.EmptyMolecule
	}
	org.IP = d.CallTarget
	return Outcome{WroteIP: true}
}

func execRet(org *organism.Organism, w *world.World) Outcome {
	frame, ok1 := org.CallStack.Pop()
	_, ok2 := org.FormalParams.Pop()
	if !ok1 || !ok2 {
		return stackFault(org, organism.TrapStackUnderflow, "call stack underflow", "call stack underflow")
	}
	copy(org.Registers.PR, frame.SavedPR)
	org.IP = frame.ReturnIP
	org.DV = frame.ReturnDV
	return Outcome{WroteIP: true}
}

func execPoke(org *organism.Organism, w *world.World, dir world.Vector, val molecule.Molecule) Outcome {
	coord := w.Normalize(org.IP.Add(dir))
	cell := w.Get(coord)
	if w.IsPassable(coord, org.ID) {
		w.Set(coord, val, org.ID)
		return ok
	}
	cost := cell.Molecule.Payload
	if cost < 0 {
		cost = -cost
	}
	if !org.SpendEnergy(cost) {
		return Outcome{Trap: "insufficient energy"}
	}
	w.Set(coord, val, org.ID)
	return ok
}

func moleculeFromVec(vec []int) molecule.Molecule {
	return molecule.New(molecule.Data, int64(vecToBitmask(vec)))
}

func vecToBitmask(vec []int) int64 {
	var mask int64
	for i, c := range vec {
		if c > 0 {
			mask |= 1 << uint(2*i)
		} else if c < 0 {
			mask |= 1 << uint(2*i+1)
		}
	}
	return mask
}

func bitmaskToVec(mask int64, dims int) []int {
	vec := make([]int, dims)
	for i := 0; i < dims; i++ {
		if mask&(1<<uint(2*i)) != 0 {
			vec[i] = 1
		} else if mask&(1<<uint(2*i+1)) != 0 {
			vec[i] = -1
		}
	}
	return vec
}

func setBits(mask int64) []int {
	var out []int
	for i := 0; i < 64; i++ {
		if mask&(1<<uint(i)) != 0 {
			out = append(out, i)
		}
	}
	return out
}
