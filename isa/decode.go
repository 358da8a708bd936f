package isa

import (
	"github.com/rainco77/evochora/molecule"
	"github.com/rainco77/evochora/world"
)

// Decoded is one fetched, fully-decoded instruction ready for Execute.
type Decoded struct {
	Opcode   string
	Operands []decodedOperand
	// Call-only fields (Opcode == "CALL").
	CallTarget     world.Vector
	CallRefActuals []regRef
	CallValActuals []decodedOperand
	Width          int // total cells consumed, opcode cell included
}

// regCell decodes one CODE-tagged cell as a register reference, the
// encoding ir.operandCells/isa.RegFamilyCode agree on.
func regCell(m molecule.Molecule) (regRef, bool) {
	if m.Tag != molecule.Code {
		return regRef{}, false
	}
	return regRef{Family: RegFamilyName(int(m.Payload / 1000)), Index: int(m.Payload % 1000)}, true
}

// cellReader yields the next operand-position molecule each call, reading
// consecutive coordinates from ip along dv (the organism's own direction,
// spec §4.7 "ADVANCE sets ip to next slot").
type cellReader struct {
	w      *world.World
	cursor world.Vector
	dv     world.Vector
	count  int
}

func newCellReader(w *world.World, ip, dv world.Vector) *cellReader {
	return &cellReader{w: w, cursor: ip.Clone(), dv: dv}
}

func (r *cellReader) next() molecule.Molecule {
	r.cursor = r.w.Normalize(r.cursor.Add(r.dv))
	r.count++
	return r.w.Get(r.cursor).Molecule
}

// FetchAt decodes the instruction whose opcode cell sits at ip, reading
// operands from consecutive cells along dv.
func FetchAt(w *world.World, ip, dv world.Vector, dims int) (Decoded, bool) {
	opCell := w.Get(ip)
	if opCell.Molecule.Tag != molecule.Code {
		return Decoded{}, false
	}
	name, ok := OpcodeName(opCell.Molecule.Payload)
	if !ok {
		return Decoded{}, false
	}

	r := newCellReader(w, ip, dv)

	if name == "CALL" {
		comps := make([]int, dims)
		for i := range comps {
			comps[i] = int(r.next().Payload)
		}
		refCount := int(r.next().Payload)
		valCount := int(r.next().Payload)

		refs := make([]regRef, 0, refCount)
		for i := 0; i < refCount; i++ {
			ref, ok := regCell(r.next())
			if !ok {
				return Decoded{}, false
			}
			refs = append(refs, ref)
		}
		vals := make([]decodedOperand, 0, valCount)
		for i := 0; i < valCount; i++ {
			vals = append(vals, decodeOperandCell(r.next()))
		}
		return Decoded{
			Opcode: name, CallTarget: world.NewVector(comps...),
			CallRefActuals: refs, CallValActuals: vals,
			Width: 1 + r.count,
		}, true
	}

	shape, ok := Spec[name]
	if !ok {
		return Decoded{}, false
	}
	operands := make([]decodedOperand, 0, len(shape))
	for _, kind := range shape {
		switch kind {
		case OperandReg:
			ref, ok := regCell(r.next())
			if !ok {
				return Decoded{}, false
			}
			operands = append(operands, decodedOperand{Kind: OperandReg, Reg: ref})
		case OperandImm:
			operands = append(operands, decodedOperand{Kind: OperandImm, Imm: r.next()})
		case OperandVec:
			comps := make([]int, dims)
			for i := range comps {
				comps[i] = int(r.next().Payload)
			}
			operands = append(operands, decodedOperand{Kind: OperandVec, Vec: comps})
		}
	}
	return Decoded{Opcode: name, Operands: operands, Width: 1 + r.count}, true
}

// decodeOperandCell applies the shared convention: a CODE-tagged cell
// names a register (read its current value at Execute time is the
// caller's job); any other tag is the immediate value itself.
func decodeOperandCell(m molecule.Molecule) decodedOperand {
	if ref, ok := regCell(m); ok {
		return decodedOperand{Kind: OperandReg, Reg: ref}
	}
	return decodedOperand{Kind: OperandImm, Imm: m}
}
