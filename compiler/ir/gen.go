package ir

import (
	"fmt"

	"github.com/rainco77/evochora/compiler/ast"
	"github.com/rainco77/evochora/molecule"
)

// Generate lowers a semantically-resolved ast.Program into a flat IR
// stream. Any ast.Identifier still present at this point names a label or
// procedure (the analyzer leaves those unresolved deliberately); Generate
// turns each into a scoped LabelRef for the linker.
func Generate(prog *ast.Program) ([]Item, error) {
	g := &generator{}
	if err := g.stmts(prog.Statements, nil); err != nil {
		return nil, err
	}
	return g.items, nil
}

type generator struct {
	items []Item
}

func (g *generator) emit(it Item) { g.items = append(g.items, it) }

func (g *generator) stmts(stmts []ast.Node, scopePath []string) error {
	for _, n := range stmts {
		if err := g.stmt(n, scopePath); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) stmt(n ast.Node, scopePath []string) error {
	switch v := n.(type) {
	case *ast.Label:
		g.emit(LabelMarker{Name: dotted(scopePath, v.Name)})
		if v.Target != nil {
			return g.stmt(v.Target, scopePath)
		}
		return nil

	case *ast.Instruction:
		operands := make([]Operand, len(v.Args))
		for i, a := range v.Args {
			op, err := g.operand(a, scopePath)
			if err != nil {
				return err
			}
			operands[i] = op
		}
		g.emit(Instruction{Opcode: v.Opcode, Operands: operands, Source: v.Pos_})
		return nil

	case *ast.Call:
		refs := make([]Operand, len(v.RefActuals))
		for i, a := range v.RefActuals {
			op, err := g.operand(a, scopePath)
			if err != nil {
				return err
			}
			refs[i] = op
		}
		vals := make([]Operand, len(v.ValActuals))
		for i, a := range v.ValActuals {
			op, err := g.operand(a, scopePath)
			if err != nil {
				return err
			}
			vals[i] = op
		}
		g.emit(Call{
			Target:     LabelRef{Name: v.Target, ScopePath: append([]string(nil), scopePath...)},
			RefActuals: refs, ValActuals: vals, Source: v.Pos_,
		})
		return nil

	case *ast.Org:
		vec, err := g.operand(v.Vec, scopePath)
		if err != nil {
			return err
		}
		g.emit(Directive{Namespace: "LAYOUT", Name: "ORG", Args: []Operand{vec}})
		return nil

	case *ast.Dir:
		vec, err := g.operand(v.Vec, scopePath)
		if err != nil {
			return err
		}
		g.emit(Directive{Namespace: "LAYOUT", Name: "DIR", Args: []Operand{vec}})
		return nil

	case *ast.Place:
		valNode, ok := v.Value.(*ast.TypedLiteral)
		if !ok {
			return fmt.Errorf("%s: .PLACE value must be a typed literal", v.Pos_)
		}
		atNode, ok := v.At.(*ast.VectorLiteral)
		if !ok {
			return fmt.Errorf("%s: .PLACE target must be a vector literal", v.Pos_)
		}
		mol, err := typedMolecule(valNode.Tag, valNode.Payload)
		if err != nil {
			return fmt.Errorf("%s: %w", v.Pos_, err)
		}
		g.emit(Place{
			Value:  Imm{Molecule: mol},
			Offset: Vec{Components: append([]int(nil), atNode.Components...)},
			Source: v.Pos_,
		})
		return nil

	case *ast.Define, *ast.RegAlias, *ast.Require:
		return nil // pure compile-time; nothing to lower

	case *ast.Scope:
		inner := append(append([]string(nil), scopePath...), v.Name)
		return g.stmts(v.Body, inner)

	case *ast.Proc:
		path := dotted(scopePath, v.Name)
		g.emit(ProcMarker{Path: path, RefParams: v.RefParams, ValParams: v.ValParams})
		g.emit(LabelMarker{Name: path})
		inner := append(append([]string(nil), scopePath...), v.Name)
		return g.stmts(v.Body, inner)
	}

	return fmt.Errorf("%s: ir: unhandled statement %s", n.Pos(), n.Kind())
}

func (g *generator) operand(n ast.Node, scopePath []string) (Operand, error) {
	switch v := n.(type) {
	case *ast.Register:
		return Reg{RKind: v.RKind, Index: v.Index}, nil
	case *ast.TypedLiteral:
		mol, err := typedMolecule(v.Tag, v.Payload)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", v.Pos_, err)
		}
		return Imm{Molecule: mol}, nil
	case *ast.Number:
		return Imm{Molecule: molecule.New(molecule.Data, v.Value)}, nil
	case *ast.VectorLiteral:
		return Vec{Components: append([]int(nil), v.Components...)}, nil
	case *ast.Identifier:
		return LabelRef{Name: v.Name, ScopePath: append([]string(nil), scopePath...)}, nil
	}
	return nil, fmt.Errorf("%s: ir: unhandled operand %s", n.Pos(), n.Kind())
}

func typedMolecule(tag string, payload int64) (molecule.Molecule, error) {
	t, ok := molecule.ParseTag(tag)
	if !ok {
		return molecule.Molecule{}, fmt.Errorf("ir: unknown molecule tag %q", tag)
	}
	return molecule.New(t, payload), nil
}

func dotted(scopePath []string, name string) string {
	if len(scopePath) == 0 {
		return name
	}
	out := scopePath[0]
	for _, s := range scopePath[1:] {
		out += "." + s
	}
	return out + "." + name
}
