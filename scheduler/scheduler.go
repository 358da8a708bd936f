// Package scheduler owns the world and the set of live organisms and
// drives the per-tick sweep (§4.8, §5).
//
// Grounded on the teacher's sim.TickingComponent pattern (core/builder.go,
// api/driver.go): the scheduler is itself an akita component whose Tick
// method runs one full sweep. Akita supplies only the outer wall-clock /
// event-queue pacing; the sweep itself stays the single-threaded,
// id-ordered, lock-free loop §5 requires — akita never parallelizes what
// happens inside one Tick call.
package scheduler

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/rainco77/evochora/compiler/ir"
	"github.com/rainco77/evochora/isa"
	"github.com/rainco77/evochora/organism"
	"github.com/rainco77/evochora/snapshot"
	"github.com/rainco77/evochora/world"
)

// Scheduler is the tick-driven simulation kernel. It embeds
// sim.TickingComponent the way core.Core does, so it can be plugged into
// any akita engine/domain the same way every other akita component is.
type Scheduler struct {
	*sim.TickingComponent

	mu sync.Mutex

	world *world.World
	dims  int
	seed  int64
	tick  uint64

	orgCfg        organism.Config
	initialEnergy int64

	nextID int64

	// active is this tick's frozen roster (ascending id order); pending
	// holds organisms Spawn created since the last sweep, promoted into
	// active at the start of the next Tick — "organisms born this tick do
	// not act until next tick" (spec §4.8 step 1).
	active  []*organism.Organism
	pending []*organism.Organism

	sink    snapshot.Sink
	monitor *monitoring.Monitor
	logger  *slog.Logger
	trace   bool

	stopRequested bool
	stopped       bool
}

// Builder assembles a Scheduler fluently, mirroring config.DeviceBuilder's
// WithEngine/WithFreq/.../Build chain.
type Builder struct {
	engine  sim.Engine
	freq    sim.Freq
	monitor *monitoring.Monitor
	logger  *slog.Logger

	world         *world.World
	orgCfg        organism.Config
	initialEnergy int64
	sink          snapshot.Sink
	trace         bool
}

// NewBuilder returns an empty Scheduler Builder.
func NewBuilder() Builder {
	return Builder{}
}

// WithEngine sets the akita engine driving the simulation.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the tick frequency.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithMonitor attaches a monitor that Build registers the scheduler
// component with, the way config.DeviceBuilder.WithMonitor registers
// tiles. The scheduler does not record per-tick organism or trap counts
// into it.
func (b Builder) WithMonitor(monitor *monitoring.Monitor) Builder {
	b.monitor = monitor
	return b
}

// WithLogger sets the structured logger every tick/trap event is reported
// through.
func (b Builder) WithLogger(logger *slog.Logger) Builder {
	b.logger = logger
	return b
}

// WithWorld sets the world the scheduler sweeps.
func (b Builder) WithWorld(w *world.World) Builder {
	b.world = w
	return b
}

// WithOrganismConfig sets the register/stack sizing new organisms are
// spawned with.
func (b Builder) WithOrganismConfig(cfg organism.Config) Builder {
	b.orgCfg = cfg
	return b
}

// WithInitialEnergy sets the energy new organisms are spawned with.
func (b Builder) WithInitialEnergy(e int64) Builder {
	b.initialEnergy = e
	return b
}

// WithSink sets the SnapshotSink every tick's WorldStateMessage is
// submitted to.
func (b Builder) WithSink(sink snapshot.Sink) Builder {
	b.sink = sink
	return b
}

// WithTrace enables the per-tick organism table (debug aid, grounded on
// core/util.go's PrintState).
func (b Builder) WithTrace(trace bool) Builder {
	b.trace = trace
	return b
}

// Build constructs the Scheduler and wires it into the akita engine as a
// ticking component named name.
func (b Builder) Build(name string) *Scheduler {
	if b.world == nil {
		panic("scheduler: no world configured")
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		world:         b.world,
		dims:          b.world.Dimensions(),
		seed:          b.world.Seed(),
		orgCfg:        b.orgCfg,
		initialEnergy: b.initialEnergy,
		nextID:        1,
		sink:          b.sink,
		monitor:       b.monitor,
		logger:        logger,
		trace:         b.trace,
	}
	s.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, s)
	if b.monitor != nil {
		b.monitor.RegisterComponent(s)
	}
	return s
}

// Spawn places a compiled program's cells at origin (owned by the new
// organism) and creates a live organism whose IP starts at the program's
// entry point. The organism does not participate in any tick already in
// progress; it joins the roster at the start of the next Tick call (§4.8
// step 1).
func (s *Scheduler) Spawn(art *ir.Artifact, origin, dv world.Vector) *organism.Organism {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	for _, c := range art.Cells {
		s.world.Set(origin.Add(c.Coord), c.Molecule, id)
	}

	entry := s.world.Normalize(origin.Add(art.EntryPoint))
	org := organism.New(id, id, s.tick, entry, dv, s.initialEnergy, s.orgCfg)
	s.pending = append(s.pending, org)
	return org
}

// Organisms returns a snapshot-safe copy of the currently active roster
// (ascending id order), for inspection between ticks.
func (s *Scheduler) Organisms() []*organism.Organism {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*organism.Organism, len(s.active))
	copy(out, s.active)
	return out
}

// World returns the world the scheduler sweeps.
func (s *Scheduler) World() *world.World {
	return s.world
}

// Tick runs exactly one sweep and reports whether it did any work, the
// shape every akita TickingComponent's method takes (core/core.go).
func (s *Scheduler) Tick(now sim.VTimeInSec) (madeProgress bool) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	s.sweepLocked()
	stopping := s.stopRequested
	s.mu.Unlock()

	if stopping {
		s.Stop()
	}
	return true
}

// sweepLocked performs one full §4.8 sweep. Caller holds s.mu.
func (s *Scheduler) sweepLocked() {
	// Step 1: promote organisms spawned since the last sweep; they do not
	// act this tick either, they just join next tick's frozen roster.
	s.active = append(s.active, s.pending...)
	s.pending = nil
	sort.Slice(s.active, func(i, j int) bool { return s.active[i].ID < s.active[j].ID })

	roster := s.active
	rng := isa.TickRNG(s.seed, s.tick)

	// Step 2: id-ordered single-threaded sweep. World writes by organism i
	// are visible to organism j > i immediately (§5 ordering guarantee) —
	// this falls out naturally from the loop sharing one *world.World.
	survivors := make([]*organism.Organism, 0, len(roster))
	for _, org := range roster {
		if org.Halted {
			continue
		}
		res := isa.Step(org, s.world, s.dims, rng)
		if res.Trap != "" {
			s.logger.Warn("organism trapped", "organism", org.ID, "trap", res.Trap)
		}
		if org.Halted {
			s.logger.Info("organism halted", "organism", org.ID, "reason", org.LastTrap)
			// Step 3: halted organisms are removed from the roster; their
			// cells remain (spec §9 "Ownership of cells vs organisms").
			continue
		}
		survivors = append(survivors, org)
	}
	s.active = survivors

	if s.trace {
		s.logger.Debug("tick", "table", s.renderTable())
	}

	// Step 4: emit a snapshot via the collaborator interface.
	s.emitLocked()

	s.tick++
}

// emitLocked builds and submits this tick's WorldStateMessage.
func (s *Scheduler) emitLocked() {
	if s.sink == nil {
		return
	}
	msg := snapshot.WorldStateMessage{
		TickNumber: s.tick,
		CellStates: snapshot.BuildCellStates(s.world),
	}
	for _, org := range s.active {
		msg.OrganismStates = append(msg.OrganismStates, snapshot.BuildOrganismState(org, ""))
	}
	s.sink.Submit(msg)
}

// renderTable builds a per-organism debug table, grounded on the
// teacher's PrintState (core/util.go).
func (s *Scheduler) renderTable() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"ID", "IP", "Energy", "ER", "Halted"})
	for _, org := range s.active {
		t.AppendRow(table.Row{org.ID, org.IP.String(), org.Energy, org.ER, org.Halted})
	}
	return t.Render()
}

// Stop completes cancellation (§5 "Cancellation"): it waits for an
// in-flight tick to release the lock, drains a RingSink's buffered
// snapshots (the drained messages are discarded), and makes every later
// Tick a no-op. Stop emits no snapshot
// of its own; the last snapshot is the one the final completed tick
// emitted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	if rs, ok := s.sink.(*snapshot.RingSink); ok {
		rs.Drain()
	}
}

// RequestStop marks the scheduler for cancellation after the current tick
// completes, rather than stopping immediately mid-sweep — individual
// organism halts are cooperative and so is scheduler shutdown (§5).
func (s *Scheduler) RequestStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopRequested = true
}
