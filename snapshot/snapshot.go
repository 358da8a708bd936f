// Package snapshot defines the per-tick WorldStateMessage contract (§6)
// and a bounded reference Sink implementation.
//
// Grounded on the teacher's per-direction send/receive queues
// (gitlab.com/akita/util/v2/buffering.Buffer): a fixed-capacity ring that
// either blocks the producer or drops the newest item when full, proving
// the two backpressure configurations named in config.Config.
package snapshot

import (
	"fmt"

	"github.com/rainco77/evochora/molecule"
	"github.com/rainco77/evochora/organism"
	"github.com/rainco77/evochora/world"
)

// OrganismState is the per-organism slice of a WorldStateMessage (§6).
type OrganismState struct {
	ID              int64
	ProgramID       int64
	ParentID        int64
	HasParent       bool
	BirthTick       uint64
	Energy          int64
	Position        world.Vector
	DPs             []world.Vector
	DV              world.Vector
	ReturnIP        world.Vector
	IP              world.Vector
	ER              uint32
	DataRegisters   []string
	ProcRegisters   []string
	DataStack       []string
	CallStack       []string
	FormalParams    []string
	FPRs            []string
	LocationStack   []string
	Disassembled    string
}

// CellState is emitted only for non-EMPTY cells (§6).
type CellState struct {
	Position world.Vector
	Type     string
	Value    int64
	OwnerID  int64
}

// WorldStateMessage is the full per-tick snapshot (§6).
type WorldStateMessage struct {
	TickNumber     uint64
	TimestampUS    int64
	OrganismStates []OrganismState
	CellStates     []CellState
}

// moleculeString renders a Molecule as the "TAG:value" strings §6 asks
// register/stack dumps to use.
func moleculeString(m molecule.Molecule) string {
	return m.String()
}

// BuildOrganismState projects a live organism into its snapshot form. dis
// is the optional disassembled-instruction string for the instruction the
// organism is about to execute; callers that don't disassemble pass "".
func BuildOrganismState(org *organism.Organism, dis string) OrganismState {
	s := OrganismState{
		ID:        org.ID,
		ProgramID: org.ProgramID,
		ParentID:  org.ParentID,
		HasParent: org.HasParent,
		BirthTick: org.BirthTick,
		Energy:    org.Energy,
		Position:  org.IP.Clone(),
		DPs:       append([]world.Vector(nil), org.DP...),
		DV:        org.DV.Clone(),
		ReturnIP:  org.ReturnIP.Clone(),
		IP:        org.IP.Clone(),
		ER:        org.ER,
		Disassembled: dis,
	}
	for _, r := range org.Registers.DR {
		s.DataRegisters = append(s.DataRegisters, moleculeString(r))
	}
	for _, r := range org.Registers.PR {
		s.ProcRegisters = append(s.ProcRegisters, moleculeString(r))
	}
	for _, r := range org.Registers.FPR {
		s.FPRs = append(s.FPRs, moleculeString(r))
	}
	for _, m := range org.DataStack.Items() {
		s.DataStack = append(s.DataStack, moleculeString(m))
	}
	for _, f := range org.CallStack.Items() {
		s.CallStack = append(s.CallStack, fmt.Sprintf("return=%s refs=%d vals=%d", f.ReturnIP, len(f.RefRegisters), len(f.ValValues)))
	}
	for _, f := range org.FormalParams.Items() {
		s.FormalParams = append(s.FormalParams, fmt.Sprintf("refs=%v vals=%v", f.RefNames, f.ValNames))
	}
	for _, v := range org.LocationStack.Items() {
		s.LocationStack = append(s.LocationStack, v.String())
	}
	return s
}

// BuildCellStates projects every non-EMPTY world cell into CellState form,
// sorted by coordinate so repeated calls against the same world state are
// byte-identical (spec §8 property 5, "scheduler determinism").
func BuildCellStates(w *world.World) []CellState {
	raw := w.NonEmptyCells()
	out := make([]CellState, 0, len(raw))
	for _, r := range raw {
		out = append(out, CellState{
			Position: r.Coord,
			Type:     r.Cell.Molecule.Tag.Name(),
			Value:    r.Cell.Molecule.Payload,
			OwnerID:  r.Cell.OwnerID,
		})
	}
	sortCellStates(out)
	return out
}

func sortCellStates(cs []CellState) {
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0 && cs[j-1].Position.String() > cs[j].Position.String(); j-- {
			cs[j-1], cs[j] = cs[j], cs[j-1]
		}
	}
}

// Sink is the SnapshotSink collaborator interface (§6): Submit is
// non-blocking by default, blocking under a "block" backpressure config.
type Sink interface {
	Submit(msg WorldStateMessage) bool
}

// Backpressure selects what a bounded Sink does when its buffer is full.
type Backpressure int

const (
	// Drop discards the newest snapshot rather than letting Submit block.
	Drop Backpressure = iota
	// Block makes Submit wait for room, applying backpressure to the
	// scheduler tick that produced the snapshot.
	Block
)

// RingSink is the reference bounded Sink: a fixed-capacity ring buffer,
// grounded on the teacher's buffering.Buffer (a fixed-size channel-backed
// queue per connection direction). Capacity is scheduler.snapshot_queue_depth.
type RingSink struct {
	backpressure Backpressure
	ch           chan WorldStateMessage
}

// NewRingSink builds a RingSink with the given capacity and backpressure
// policy.
func NewRingSink(capacity int, bp Backpressure) *RingSink {
	if capacity <= 0 {
		capacity = 1
	}
	return &RingSink{backpressure: bp, ch: make(chan WorldStateMessage, capacity)}
}

// Submit implements Sink. Under Block it waits for room; under Drop it
// discards msg and reports false when the buffer is full.
func (s *RingSink) Submit(msg WorldStateMessage) bool {
	if s.backpressure == Block {
		s.ch <- msg
		return true
	}
	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}

// Drain removes and returns every buffered message, oldest first. Used by
// the scheduler's cancellation path ("drain the queue, then stop", §5).
func (s *RingSink) Drain() []WorldStateMessage {
	out := make([]WorldStateMessage, 0, len(s.ch))
	for {
		select {
		case m := <-s.ch:
			out = append(out, m)
		default:
			return out
		}
	}
}
