package scheduler

import (
	"log/slog"
	"testing"

	"github.com/rainco77/evochora/isa"
	"github.com/rainco77/evochora/molecule"
	"github.com/rainco77/evochora/organism"
	"github.com/rainco77/evochora/snapshot"
	"github.com/rainco77/evochora/world"
)

// dirTo returns the direction vector from a to b, component-wise.
func dirTo(a, b world.Vector) world.Vector {
	d := make(world.Vector, a.Dim())
	for i := range d {
		d[i] = b[i] - a[i]
	}
	return d
}

func newTestScheduler(w *world.World) *Scheduler {
	return &Scheduler{
		world:         w,
		dims:          w.Dimensions(),
		seed:          w.Seed(),
		orgCfg:        organism.Config{DataRegisters: 4, ProcRegisters: 4, FormalRegisters: 4, StackDepth: 8},
		initialEnergy: 100,
		nextID:        1,
		logger:        slog.Default(),
	}
}

func placePoki(w *world.World, ip, dv world.Vector, owner int64, val int64, dir world.Vector) {
	cursor := ip.Clone()
	w.Set(cursor, molecule.New(molecule.Code, isa.OpcodeCode("POKI")), owner)
	cursor = w.Normalize(cursor.Add(dv))
	w.Set(cursor, molecule.New(molecule.Data, val), owner)
	for _, c := range dir {
		cursor = w.Normalize(cursor.Add(dv))
		w.Set(cursor, molecule.New(molecule.Data, int64(c)), owner)
	}
}

// S4 — id ordering: two organisms each POKI a value into the same cell
// within one sweep; the higher-id organism (stepped later, per §5's
// ascending-id ordering) wins and owns the cell afterward.
func TestSweepIDOrderingLastWriteWins(t *testing.T) {
	w := world.NewBuilder().WithDimensions([]int{8, 8}).WithSeed(1).Build()
	s := newTestScheduler(w)

	dv := world.NewVector(1, 0)
	target := world.NewVector(5, 5)

	org1 := organism.New(1, 1, 0, world.NewVector(0, 0), dv, 100, s.orgCfg)
	org2 := organism.New(2, 2, 0, world.NewVector(0, 1), dv, 100, s.orgCfg)
	placePoki(w, org1.IP, dv, 1, 1, dirTo(org1.IP, target))
	placePoki(w, org2.IP, dv, 2, 2, dirTo(org2.IP, target))

	s.active = []*organism.Organism{org2, org1} // deliberately out of order
	s.sweepLocked()

	cell := w.Get(target)
	if cell.Molecule != molecule.New(molecule.Data, 2) {
		t.Fatalf("expected higher-id organism's write (DATA:2) to win, got %s", cell.Molecule)
	}
	if cell.OwnerID != 2 {
		t.Errorf("expected owner 2, got %d", cell.OwnerID)
	}
}

// property 6 — ownership invariant: after a sweep every non-empty cell
// carries a non-zero owner and every empty cell carries world.OwnerNone.
func TestOwnershipInvariantAfterSweep(t *testing.T) {
	w := world.NewBuilder().WithDimensions([]int{8, 8}).WithSeed(1).Build()
	s := newTestScheduler(w)

	dv := world.NewVector(1, 0)
	target := world.NewVector(3, 3)
	org1 := organism.New(1, 1, 0, world.NewVector(0, 0), dv, 100, s.orgCfg)
	placePoki(w, org1.IP, dv, 1, 9, dirTo(org1.IP, target))

	s.active = []*organism.Organism{org1}
	s.sweepLocked()

	for _, cs := range snapshot.BuildCellStates(w) {
		if cs.OwnerID == world.OwnerNone {
			t.Errorf("non-empty cell at %v has no owner", cs.Position)
		}
	}
	empty := w.Get(world.NewVector(7, 7))
	if empty.OwnerID != world.OwnerNone {
		t.Errorf("expected empty cell owner OwnerNone, got %d", empty.OwnerID)
	}
}

// property 5 — scheduler determinism: two schedulers built from the same
// world spec/seed/program placement produce identical cell states after
// one sweep each.
func TestSweepDeterminism(t *testing.T) {
	run := func() snapshot.WorldStateMessage {
		w := world.NewBuilder().WithDimensions([]int{8, 8}).WithSeed(7).Build()
		s := newTestScheduler(w)
		dv := world.NewVector(1, 0)
		target := world.NewVector(2, 2)
		org := organism.New(1, 1, 0, world.NewVector(0, 0), dv, 100, s.orgCfg)
		placePoki(w, org.IP, dv, 1, 5, dirTo(org.IP, target))
		s.active = []*organism.Organism{org}
		s.sweepLocked()
		return snapshot.WorldStateMessage{
			CellStates:     snapshot.BuildCellStates(w),
			OrganismStates: []snapshot.OrganismState{snapshot.BuildOrganismState(org, "")},
		}
	}

	m1 := run()
	m2 := run()
	if len(m1.CellStates) != len(m2.CellStates) {
		t.Fatalf("cell state count diverged: %d vs %d", len(m1.CellStates), len(m2.CellStates))
	}
	for i := range m1.CellStates {
		a, b := m1.CellStates[i], m2.CellStates[i]
		if !a.Position.Equal(b.Position) || a.Type != b.Type || a.Value != b.Value || a.OwnerID != b.OwnerID {
			t.Errorf("cell state %d diverged: %+v vs %+v", i, a, b)
		}
	}
}
