package isa

import (
	"github.com/rainco77/evochora/organism"
	"github.com/rainco77/evochora/world"
)

// StepResult summarizes what one Step call did, for scheduler
// bookkeeping.
type StepResult struct {
	Halted     bool
	HaltReason string
	Trap       string
	Skipped    bool
	Opcode     string
}

// Step runs exactly one state-machine cycle for org against w: READY ->
// FETCH -> DECODE -> EXECUTE -> (ADVANCE|HALT) (spec §4.7). dims is the
// world's dimensionality; rng backs RBIR and must be seeded per (world
// seed, tick) by the caller, never process-global (spec §9).
func Step(org *organism.Organism, w *world.World, dims int, rng RNG) StepResult {
	if org.Halted {
		return StepResult{Halted: true, HaltReason: org.LastTrap}
	}
	if org.Energy <= 0 {
		org.Kill("energy exhausted")
		return StepResult{Halted: true, HaltReason: org.LastTrap}
	}

	d, ok := FetchAt(w, org.IP, org.DV, dims)
	if !ok {
		org.Kill("invalid opcode")
		return StepResult{Halted: true, HaltReason: org.LastTrap}
	}

	if org.SkipNext {
		org.SkipNext = false
		org.IP = w.Normalize(org.IP.Add(org.DV.Scale(d.Width)))
		return StepResult{Skipped: true, Opcode: d.Opcode}
	}

	out := Execute(org, w, dims, rng, d)

	if out.Halt != "" {
		org.Kill(out.Halt)
		return StepResult{Halted: true, HaltReason: out.Halt, Opcode: d.Opcode}
	}

	if !out.WroteIP {
		org.IP = w.Normalize(org.IP.Add(org.DV.Scale(d.Width)))
	}
	if out.SkipNext {
		org.SkipNext = true
	}

	if org.Energy <= 0 {
		org.Kill("energy exhausted")
		return StepResult{Halted: true, HaltReason: org.LastTrap, Opcode: d.Opcode}
	}

	return StepResult{Trap: out.Trap, Opcode: d.Opcode}
}
