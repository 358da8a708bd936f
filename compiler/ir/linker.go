package ir

import (
	"fmt"
	"sort"

	"github.com/rainco77/evochora/compiler/semantics"
	"github.com/rainco77/evochora/molecule"
	"github.com/rainco77/evochora/world"
)

// LinkedCell is one emplacement ready for the Program Artifact: an
// absolute coordinate and the final molecule written there.
type LinkedCell struct {
	Coord    world.Vector
	Molecule molecule.Molecule
}

// Artifact is the Program Artifact produced by the compiler pipeline
// (spec §4.5/§4.6): a deterministic, coordinate-sorted set of cells plus
// the metadata the runtime needs to place and resolve calls against a
// program.
type Artifact struct {
	Cells          []LinkedCell
	EntryPoint     world.Vector
	LabelAddr      map[string]world.Vector
	ProcSignatures map[string]ProcMarker
}

// Link resolves every LabelRef placement against lay.LabelAddr, using
// table to translate a scoped reference back to the dotted path the label
// was recorded under (the same resolution rule semantics.Table.Resolve
// applies to ordinary identifiers, spec §4.4/§4.5's "linker resolves
// LabelRefs into absolute coordinate vectors via the symbol table").
func Link(lay *Layout, table *semantics.Table) (*Artifact, error) {
	art := &Artifact{
		LabelAddr:      lay.LabelAddr,
		ProcSignatures: lay.ProcSignatures,
	}

	for _, p := range lay.Placements {
		mol, err := resolveCell(p, lay, table)
		if err != nil {
			return nil, err
		}
		art.Cells = append(art.Cells, LinkedCell{Coord: p.Coord, Molecule: mol})
	}

	// Deterministic output: stable order by coordinate string (spec §8
	// property 2, "compile determinism").
	sort.Slice(art.Cells, func(i, j int) bool {
		return art.Cells[i].Coord.String() < art.Cells[j].Coord.String()
	})

	if addr, ok := lay.LabelAddr["MAIN"]; ok {
		art.EntryPoint = addr
	} else {
		art.EntryPoint = world.Zero(lay.Dims)
	}

	return art, nil
}

func resolveCell(p Placement, lay *Layout, table *semantics.Table) (molecule.Molecule, error) {
	if p.Molecule.Ref == nil {
		tag, ok := molecule.ParseTag(p.Molecule.Tag)
		if !ok {
			return molecule.Molecule{}, fmt.Errorf("ir: linker: unknown tag %q", p.Molecule.Tag)
		}
		return molecule.New(tag, p.Molecule.Payload), nil
	}

	ref := p.Molecule.Ref
	path, ok := resolveLabelPath(lay, table, ref)
	if !ok {
		return molecule.Molecule{}, fmt.Errorf("ir: linker: unresolved label %q", ref.Name)
	}
	addr, ok := lay.LabelAddr[path]
	if !ok {
		return molecule.Molecule{}, fmt.Errorf("ir: linker: label %q has no address", path)
	}
	if p.Molecule.RefComp < 0 || p.Molecule.RefComp >= len(addr) {
		return molecule.Molecule{}, fmt.Errorf("ir: linker: label %q component %d out of range for %d-D address", path, p.Molecule.RefComp, len(addr))
	}
	// Every LabelRef operand reserved exactly dims cells at layout time
	// (ir.operandCells); the linker fills each with the matching component
	// of the resolved address, so the operand ends up rewritten into a
	// full coordinate vector of length n (spec §8 property 3).
	return molecule.New(molecule.Data, int64(addr[p.Molecule.RefComp])), nil
}

// resolveLabelPath finds the dotted path ref.Name resolves to from
// ref.ScopePath, trying the label/procedure symbol kinds the same way
// semantics.Analyzer.resolveArg does for unresolved identifiers.
func resolveLabelPath(lay *Layout, table *semantics.Table, ref *LabelRef) (string, bool) {
	if sym, ok := table.Resolve(ref.ScopePath, ref.Name); ok {
		if sym.Kind == semantics.KindLabel || sym.Kind == semantics.KindProcedure {
			if _, has := lay.LabelAddr[sym.Path]; has {
				return sym.Path, true
			}
		}
	}
	if _, has := lay.LabelAddr[ref.Name]; has {
		return ref.Name, true
	}
	return "", false
}
