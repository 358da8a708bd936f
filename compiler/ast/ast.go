// Package ast defines the parser's output tree as a closed tagged variant:
// every node implements Children(), so a single generic Walk can traverse
// any node type without the walker knowing about it (spec §4.3, §9 design
// note "AST polymorphism").
package ast

import "github.com/rainco77/evochora/compiler/diagnostics"

// Node is any AST node. Kind identifies the concrete node type for
// diagnostics and pretty-printing; Children returns the node's immediate
// children in source order.
type Node interface {
	Kind() string
	Pos() diagnostics.Position
	Children() []Node
}

// Walk visits n and every descendant, pre-order, calling visit on each.
// Directive handlers are registered by directive name in parser.Registry,
// and Walk only follows Children, so this walker never needs to change
// when a new node type is added.
func Walk(n Node, visit func(Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, c := range n.Children() {
		Walk(c, visit)
	}
}

// Program is the root of a compiled source file.
type Program struct {
	Pos_       diagnostics.Position
	Statements []Node
}

func (n *Program) Kind() string                 { return "Program" }
func (n *Program) Pos() diagnostics.Position     { return n.Pos_ }
func (n *Program) Children() []Node              { return n.Statements }

// Label attaches Name to the statement immediately following it.
type Label struct {
	Pos_   diagnostics.Position
	Name   string
	Target Node
}

func (n *Label) Kind() string             { return "Label" }
func (n *Label) Pos() diagnostics.Position { return n.Pos_ }
func (n *Label) Children() []Node {
	if n.Target == nil {
		return nil
	}
	return []Node{n.Target}
}

// Instruction is one opcode plus its argument nodes.
type Instruction struct {
	Pos_   diagnostics.Position
	Opcode string
	Args   []Node
}

func (n *Instruction) Kind() string             { return "Instruction" }
func (n *Instruction) Pos() diagnostics.Position { return n.Pos_ }
func (n *Instruction) Children() []Node          { return n.Args }

// Call is CALL target [REF actual...] [VAL actual...]. Actuals are
// first-class fields rather than a captured preceding directive (spec §9:
// "an alternative, preferable in a rewrite, is to make actuals a
// first-class field of the call IR" — adopted here already at the AST
// level, ahead of IR).
type Call struct {
	Pos_       diagnostics.Position
	Target     string
	RefActuals []Node // Register nodes after resolution, Identifier before
	ValActuals []Node
}

func (n *Call) Kind() string             { return "Call" }
func (n *Call) Pos() diagnostics.Position { return n.Pos_ }
func (n *Call) Children() []Node {
	out := make([]Node, 0, len(n.RefActuals)+len(n.ValActuals))
	out = append(out, n.RefActuals...)
	out = append(out, n.ValActuals...)
	return out
}

// Scope is ".SCOPE name ... .ENDS".
type Scope struct {
	Pos_ diagnostics.Position
	Name string
	Body []Node
}

func (n *Scope) Kind() string             { return "Scope" }
func (n *Scope) Pos() diagnostics.Position { return n.Pos_ }
func (n *Scope) Children() []Node          { return n.Body }

// Proc is ".PROC name [EXPORT] [REF ...] [VAL ...] ... .ENDP".
type Proc struct {
	Pos_      diagnostics.Position
	Name      string
	Export    bool
	RefParams []string
	ValParams []string
	Body      []Node
}

func (n *Proc) Kind() string             { return "Proc" }
func (n *Proc) Pos() diagnostics.Position { return n.Pos_ }
func (n *Proc) Children() []Node          { return n.Body }

// Define is ".DEFINE name typed-literal".
type Define struct {
	Pos_  diagnostics.Position
	Name  string
	Value Node // TypedLiteral
}

func (n *Define) Kind() string             { return "Define" }
func (n *Define) Pos() diagnostics.Position { return n.Pos_ }
func (n *Define) Children() []Node          { return []Node{n.Value} }

// RegAlias is ".REG alias register" or ".PREG alias register". It never
// emits an AST node of its own into the surrounding statement list — the
// parser applies it directly to its alias table (spec §4.3) and constructs
// no RegAlias node; ir.Generate skips one if it is present.
type RegAlias struct {
	Pos_     diagnostics.Position
	Alias    string
	Proc     bool // true for .PREG
	RegKind  string
	RegIndex int
}

func (n *RegAlias) Kind() string             { return "RegAlias" }
func (n *RegAlias) Pos() diagnostics.Position { return n.Pos_ }
func (n *RegAlias) Children() []Node          { return nil }

// Org is ".ORG vec".
type Org struct {
	Pos_ diagnostics.Position
	Vec  Node
}

func (n *Org) Kind() string             { return "Org" }
func (n *Org) Pos() diagnostics.Position { return n.Pos_ }
func (n *Org) Children() []Node          { return []Node{n.Vec} }

// Dir is ".DIR vec".
type Dir struct {
	Pos_ diagnostics.Position
	Vec  Node
}

func (n *Dir) Kind() string             { return "Dir" }
func (n *Dir) Pos() diagnostics.Position { return n.Pos_ }
func (n *Dir) Children() []Node          { return []Node{n.Vec} }

// Place is ".PLACE typed-literal @ vec".
type Place struct {
	Pos_  diagnostics.Position
	Value Node
	At    Node
}

func (n *Place) Kind() string             { return "Place" }
func (n *Place) Pos() diagnostics.Position { return n.Pos_ }
func (n *Place) Children() []Node          { return []Node{n.Value, n.At} }

// Require is ".REQUIRE \"path\" [AS alias]".
type Require struct {
	Pos_  diagnostics.Position
	Path  string
	Alias string
}

func (n *Require) Kind() string             { return "Require" }
func (n *Require) Pos() diagnostics.Position { return n.Pos_ }
func (n *Require) Children() []Node          { return nil }

// Identifier is an unresolved name; the semantic analyzer's AST
// post-processor replaces it with a Register or a constant's TypedLiteral
// (spec §4.4), or leaves it to become a LabelRef at IR-generation time.
type Identifier struct {
	Pos_ diagnostics.Position
	Name string
}

func (n *Identifier) Kind() string             { return "Identifier" }
func (n *Identifier) Pos() diagnostics.Position { return n.Pos_ }
func (n *Identifier) Children() []Node          { return nil }

// Register is a resolved register reference.
type Register struct {
	Pos_  diagnostics.Position
	RKind string // "DR", "PR", "FPR"
	Index int
}

func (n *Register) Kind() string             { return "Register" }
func (n *Register) Pos() diagnostics.Position { return n.Pos_ }
func (n *Register) Children() []Node          { return nil }

// TypedLiteral is a resolved (tag, payload) value, e.g. "DATA:10".
type TypedLiteral struct {
	Pos_    diagnostics.Position
	Tag     string
	Payload int64
}

func (n *TypedLiteral) Kind() string             { return "TypedLiteral" }
func (n *TypedLiteral) Pos() diagnostics.Position { return n.Pos_ }
func (n *TypedLiteral) Children() []Node          { return nil }

// VectorLiteral is a literal n-D vector, e.g. "1|0|-1".
type VectorLiteral struct {
	Pos_       diagnostics.Position
	Components []int
}

func (n *VectorLiteral) Kind() string             { return "VectorLiteral" }
func (n *VectorLiteral) Pos() diagnostics.Position { return n.Pos_ }
func (n *VectorLiteral) Children() []Node          { return nil }

// Number is a bare integer literal.
type Number struct {
	Pos_  diagnostics.Position
	Value int64
}

func (n *Number) Kind() string             { return "Number" }
func (n *Number) Pos() diagnostics.Position { return n.Pos_ }
func (n *Number) Children() []Node          { return nil }
