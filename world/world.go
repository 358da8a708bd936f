// Package world implements the n-dimensional toroidal grid of typed cells
// that organisms execute inside. Addressing is always modular: every
// coordinate wraps on every axis.
package world

import (
	"fmt"
	"sync"

	"github.com/rainco77/evochora/molecule"
)

// OwnerNone is the owner id of an EMPTY cell.
const OwnerNone int64 = 0

// Cell is one grid position: a typed molecule plus the id of the organism
// that last wrote a non-EMPTY value there.
type Cell struct {
	Molecule molecule.Molecule
	OwnerID  int64
}

// Axis direction, generalized from the teacher's 2-D cgra.Side (North,
// West, South, East) to n dimensions: a direction is an axis index plus a
// sign. Names for the first two axes come from a package-level,
// mutex-guarded name table mirroring cgra.Side's; Name synthesizes a name
// for any other direction, and SetDirectionName adds table entries.
type Direction struct {
	Axis     int
	Negative bool
}

// Vector returns the unit vector this direction represents in an
// n-dimensional world.
func (d Direction) Vector(n int) Vector {
	return UnitVector(n, d.Axis, d.Negative)
}

var (
	directionNamesMu sync.RWMutex
	directionNames   = map[Direction]string{
		{Axis: 0, Negative: false}: "East",
		{Axis: 0, Negative: true}:  "West",
		{Axis: 1, Negative: false}: "North",
		{Axis: 1, Negative: true}:  "South",
	}
)

// Name returns a human name for the direction, synthesizing one for axes
// beyond the conventional first two.
func (d Direction) Name() string {
	directionNamesMu.RLock()
	defer directionNamesMu.RUnlock()
	if n, ok := directionNames[d]; ok {
		return n
	}
	sign := "+"
	if d.Negative {
		sign = "-"
	}
	return fmt.Sprintf("Axis%d%s", d.Axis, sign)
}

// SetDirectionName registers a display name for a direction, the way
// cgra.SetSideName lets callers extend the Side table.
func SetDirectionName(d Direction, name string) {
	directionNamesMu.Lock()
	defer directionNamesMu.Unlock()
	directionNames[d] = name
}

// World is a finite n-dimensional grid with modular addressing.
type World struct {
	dims []int
	seed int64

	mu    sync.RWMutex
	cells map[string]Cell
}

// Builder constructs a World with a fluent API, mirroring the teacher's
// config.DeviceBuilder.
type Builder struct {
	dims []int
	seed int64
}

// NewBuilder returns an empty world Builder.
func NewBuilder() Builder {
	return Builder{}
}

// WithDimensions sets the per-axis sizes. Must be called before Build.
func (b Builder) WithDimensions(dims []int) Builder {
	b.dims = append([]int(nil), dims...)
	return b
}

// WithSeed sets the world seed used to derive per-tick RNG streams.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// Build creates the World. Panics if no dimensions were set or any axis
// size is non-positive — a malformed world spec is a configuration error,
// not a runtime trap.
func (b Builder) Build() *World {
	if len(b.dims) == 0 {
		panic("world: no dimensions configured")
	}
	for i, s := range b.dims {
		if s <= 0 {
			panic(fmt.Sprintf("world: axis %d has non-positive size %d", i, s))
		}
	}
	return &World{
		dims:  append([]int(nil), b.dims...),
		seed:  b.seed,
		cells: make(map[string]Cell),
	}
}

// Dimensions returns the number of axes.
func (w *World) Dimensions() int {
	return len(w.dims)
}

// AxisSizes returns the per-axis sizes.
func (w *World) AxisSizes() []int {
	return append([]int(nil), w.dims...)
}

// Seed returns the world seed.
func (w *World) Seed() int64 {
	return w.seed
}

// Normalize wraps a coordinate onto the toroidal grid. Panics if the
// coordinate's dimensionality does not match the world's.
func (w *World) Normalize(coord Vector) Vector {
	if coord.Dim() != len(w.dims) {
		panic(fmt.Sprintf("world: coordinate has %d components, world has %d", coord.Dim(), len(w.dims)))
	}
	out := make(Vector, len(coord))
	for i, c := range coord {
		size := w.dims[i]
		m := c % size
		if m < 0 {
			m += size
		}
		out[i] = m
	}
	return out
}

func (w *World) key(coord Vector) string {
	return coord.String()
}

// Get reads the cell at coord (after toroidal wrap). Unwritten cells read
// as EMPTY with no owner.
func (w *World) Get(coord Vector) Cell {
	coord = w.Normalize(coord)
	w.mu.RLock()
	defer w.mu.RUnlock()
	if c, ok := w.cells[w.key(coord)]; ok {
		return c
	}
	return Cell{Molecule: molecule.EmptyMolecule, OwnerID: OwnerNone}
}

// Set writes m at coord, recording owner as the writer. Writing EMPTY
// clears the owner, per the invariant that EMPTY cells are unowned.
func (w *World) Set(coord Vector, m molecule.Molecule, owner int64) {
	coord = w.Normalize(coord)
	w.mu.Lock()
	defer w.mu.Unlock()
	if m.IsEmpty() {
		delete(w.cells, w.key(coord))
		return
	}
	w.cells[w.key(coord)] = Cell{Molecule: m, OwnerID: owner}
}

// IsPassable reports whether selfID may write to coord: the cell must be
// EMPTY or already owned by selfID.
func (w *World) IsPassable(coord Vector, selfID int64) bool {
	c := w.Get(coord)
	return c.Molecule.IsEmpty() || c.OwnerID == selfID
}

// NeighborCoord returns the coordinate one step from coord in direction d.
func (w *World) NeighborCoord(coord Vector, d Direction) Vector {
	return w.Normalize(coord.Add(d.Vector(w.Dimensions())))
}

// Neighbors yields every (direction, coordinate) pair adjacent to coord:
// one pair per axis per sign, i.e. 2*n neighbors in an n-dimensional world.
func (w *World) Neighbors(coord Vector) []struct {
	Dir   Direction
	Coord Vector
} {
	n := w.Dimensions()
	out := make([]struct {
		Dir   Direction
		Coord Vector
	}, 0, 2*n)
	for axis := 0; axis < n; axis++ {
		for _, neg := range [2]bool{false, true} {
			d := Direction{Axis: axis, Negative: neg}
			out = append(out, struct {
				Dir   Direction
				Coord Vector
			}{Dir: d, Coord: w.NeighborCoord(coord, d)})
		}
	}
	return out
}

// NonEmptyCells returns every non-EMPTY cell and its coordinate, used to
// build CellState snapshots (§6). Order is unspecified; callers that need
// determinism must sort.
func (w *World) NonEmptyCells() []struct {
	Coord Vector
	Cell  Cell
} {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]struct {
		Coord Vector
		Cell  Cell
	}, 0, len(w.cells))
	for k, c := range w.cells {
		coord := parseKey(k)
		out = append(out, struct {
			Coord Vector
			Cell  Cell
		}{Coord: coord, Cell: c})
	}
	return out
}

func parseKey(k string) Vector {
	var v Vector
	start := 0
	for i := 0; i <= len(k); i++ {
		if i == len(k) || k[i] == '|' {
			n := 0
			neg := false
			s := k[start:i]
			for j, ch := range s {
				if j == 0 && ch == '-' {
					neg = true
					continue
				}
				n = n*10 + int(ch-'0')
			}
			if neg {
				n = -n
			}
			v = append(v, n)
			start = i + 1
		}
	}
	return v
}
