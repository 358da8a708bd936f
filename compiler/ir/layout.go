package ir

import (
	"fmt"

	"github.com/rainco77/evochora/isa"
	"github.com/rainco77/evochora/world"
)

// Placement is one occupied coordinate assigned during layout: an
// instruction/call opcode cell or one of its operand cells, or a .PLACE
// target.
type Placement struct {
	Coord      world.Vector
	Molecule   placedMolecule
	Item       Item // the Instruction/Call/Place this coordinate belongs to
	OperandIdx int  // -1 for the opcode cell itself
}

// placedMolecule defers final encoding (operands referencing an
// as-yet-unresolved LabelRef) until after linking.
type placedMolecule struct {
	Tag     string
	Payload int64
	Ref     *LabelRef // non-nil if this cell encodes a label address, resolved by the linker
	RefComp int       // which component of the resolved address this cell carries, when Ref != nil
}

// Layout is the output of the layout pass: every occupied cell plus the
// address each label/procedure resolved to, ready for linking.
type Layout struct {
	Dims         int
	Placements   []Placement
	LabelAddr    map[string]world.Vector
	ProcSignatures map[string]ProcMarker
}

// Place walks items in order, tracking the current origin (mutated by
// ".ORG") and direction (mutated by ".DIR"), and assigns each occupying
// item consecutive coordinates along direction (spec §4.5): one for the
// opcode plus one per operand cell, where a vector operand takes one cell
// per component and a label operand takes dims cells. ".PLACE" writes its
// single cell at origin+offset without moving the running cursor.
func Place(items []Item, dims int) (*Layout, error) {
	lay := &Layout{
		Dims:           dims,
		LabelAddr:      make(map[string]world.Vector),
		ProcSignatures: make(map[string]ProcMarker),
	}

	origin := world.Zero(dims)
	dir := world.UnitVector(dims, 0, false)
	cursor := origin.Clone()

	var pendingLabels []string

	markPending := func(addr world.Vector) {
		for _, name := range pendingLabels {
			lay.LabelAddr[name] = addr
		}
		pendingLabels = nil
	}

	for _, it := range items {
		switch v := it.(type) {
		case LabelMarker:
			pendingLabels = append(pendingLabels, v.Name)

		case ProcMarker:
			lay.ProcSignatures[v.Path] = v

		case Directive:
			if v.Namespace != "LAYOUT" {
				return nil, fmt.Errorf("ir: unknown directive namespace %q", v.Namespace)
			}
			vecOp, ok := v.Args[0].(Vec)
			if !ok {
				return nil, fmt.Errorf("ir: %s %s requires a resolved vector argument", v.Namespace, v.Name)
			}
			vec := world.NewVector(vecOp.Components...)
			switch v.Name {
			case "ORG":
				origin = vec
				cursor = origin.Clone()
			case "DIR":
				dir = vec
			default:
				return nil, fmt.Errorf("ir: unknown layout directive %q", v.Name)
			}

		case Instruction:
			addr := cursor.Clone()
			markPending(addr)
			cells := []placedMolecule{opcodeMolecule(v.Opcode)}
			for _, op := range v.Operands {
				cells = append(cells, operandCells(op, dims)...)
			}
			cursor = placeCells(lay, addr, dir, cells, it)

		case Call:
			addr := cursor.Clone()
			markPending(addr)
			cells := []placedMolecule{opcodeMolecule("CALL")}
			cells = append(cells, operandCells(v.Target, dims)...)
			// Actual-list boundary markers: the runtime needs to know how
			// many of the flat cells that follow are REF actuals vs VAL
			// actuals, since that split is otherwise only known at compile
			// time (spec §4.7 call semantics steps 2-3).
			cells = append(cells,
				placedMolecule{Tag: "CODE", Payload: int64(len(v.RefActuals))},
				placedMolecule{Tag: "CODE", Payload: int64(len(v.ValActuals))},
			)
			for _, op := range v.RefActuals {
				cells = append(cells, operandCells(op, dims)...)
			}
			for _, op := range v.ValActuals {
				cells = append(cells, operandCells(op, dims)...)
			}
			cursor = placeCells(lay, addr, dir, cells, it)

		case Place:
			at := world.NewVector(v.Offset.Components...)
			coord := origin.Add(at)
			lay.Placements = append(lay.Placements, Placement{
				Coord:      coord,
				Molecule:   placedMolecule{Tag: v.Value.Molecule.Tag.Name(), Payload: v.Value.Molecule.Payload},
				Item:       it,
				OperandIdx: -1,
			})

		default:
			return nil, fmt.Errorf("ir: unhandled layout item %T", it)
		}
	}

	if len(pendingLabels) > 0 {
		markPending(cursor.Clone())
	}

	return lay, nil
}

func placeCells(lay *Layout, start world.Vector, dir world.Vector, cells []placedMolecule, it Item) world.Vector {
	coord := start
	for i, c := range cells {
		lay.Placements = append(lay.Placements, Placement{Coord: coord.Clone(), Molecule: c, Item: it, OperandIdx: i - 1})
		coord = coord.Add(dir)
	}
	return coord
}

func opcodeMolecule(opcode string) placedMolecule {
	return placedMolecule{Tag: "CODE", Payload: isa.OpcodeCode(opcode)}
}

// operandCells expands one IR operand into the cells it occupies. A plain
// vector literal emits one DATA cell per component; a LabelRef reserves
// exactly dims cells (one per coordinate component), each resolved by the
// linker — so every operand that started life as a LabelRef ends up
// rewritten into a coordinate vector of length n, cell for cell (spec §8
// property 3).
func operandCells(op Operand, dims int) []placedMolecule {
	switch v := op.(type) {
	case Reg:
		return []placedMolecule{{Tag: "CODE", Payload: int64(isa.RegFamilyCode(v.RKind)*1000 + v.Index)}}
	case Imm:
		return []placedMolecule{{Tag: v.Molecule.Tag.Name(), Payload: v.Molecule.Payload}}
	case Vec:
		if len(v.Components) == 0 {
			return []placedMolecule{{Tag: "DATA", Payload: 0}}
		}
		cells := make([]placedMolecule, len(v.Components))
		for i, c := range v.Components {
			cells[i] = placedMolecule{Tag: "DATA", Payload: int64(c)}
		}
		return cells
	case LabelRef:
		ref := v
		cells := make([]placedMolecule, dims)
		for i := range cells {
			cells[i] = placedMolecule{Ref: &ref, RefComp: i}
		}
		return cells
	}
	return []placedMolecule{{Tag: "DATA", Payload: 0}}
}

