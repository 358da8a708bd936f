// Command evochora wires configuration, the world, the compiler pipeline,
// and the scheduler together and runs a simulation to completion, the way
// every teacher sample under samples/ wires an api.Driver and a
// config.DeviceBuilder to a sim.Engine and calls atexit.Exit(0) on exit.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/tebeka/atexit"

	"github.com/rainco77/evochora/compiler"
	"github.com/rainco77/evochora/compiler/diagnostics"
	"github.com/rainco77/evochora/compiler/preprocess"
	"github.com/rainco77/evochora/config"
	"github.com/rainco77/evochora/organism"
	"github.com/rainco77/evochora/scheduler"
	"github.com/rainco77/evochora/snapshot"
	"github.com/rainco77/evochora/world"
)

func main() {
	configPath := flag.String("config", "evochora.yaml", "path to the YAML configuration")
	sourcePath := flag.String("program", "", "path to the assembly source to compile and place at the origin")
	ticks := flag.Uint64("ticks", 100, "number of ticks to run before shutting down")
	trace := flag.Bool("trace", false, "log a per-tick organism table")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	data, err := os.ReadFile(*configPath)
	if err != nil {
		logger.Error("reading config", "error", err)
		atexit.Exit(1)
		return
	}
	cfg, err := config.Parse(data)
	if err != nil {
		logger.Error("parsing config", "error", err)
		atexit.Exit(1)
		return
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		atexit.Exit(1)
		return
	}

	w := world.NewBuilder().
		WithDimensions(cfg.World.Dimensions).
		WithSeed(cfg.World.Seed).
		Build()
	dims := w.Dimensions()

	orgCfg := organism.Config{
		DataRegisters:   8,
		ProcRegisters:   8,
		FormalRegisters: 8,
		StackDepth:      cfg.Stacks.MaxDepth,
		OnOverflow:      cfg.Stacks.OnOverflow,
	}

	bp := snapshot.Drop
	if cfg.Scheduler.Backpressure == "block" {
		bp = snapshot.Block
	}
	sink := snapshot.NewRingSink(cfg.Scheduler.SnapshotQueueDepth, bp)

	engine := sim.NewSerialEngine()
	monitor := monitoring.NewMonitor()
	monitor.RegisterEngine(engine)

	sched := scheduler.NewBuilder().
		WithEngine(engine).
		WithFreq(1 * sim.GHz).
		WithMonitor(monitor).
		WithLogger(logger).
		WithWorld(w).
		WithOrganismConfig(orgCfg).
		WithInitialEnergy(cfg.World.InitialEnergy).
		WithSink(sink).
		WithTrace(*trace).
		Build("Scheduler")

	if *sourcePath != "" {
		dsink := diagnostics.NewMemorySink(logger)
		res, err := compiler.Compile(*sourcePath, dims, preprocess.NewOSFileReader(), dsink)
		if err != nil {
			fmt.Fprintln(os.Stderr, dsink.Table())
			logger.Error("compile failed", "error", err)
			atexit.Exit(1)
			return
		}
		sched.Spawn(res.Artifact, world.Zero(dims), world.UnitVector(dims, 0, false))
	}

	for t := uint64(0); t < *ticks; t++ {
		sched.Tick(sim.VTimeInSec(t))
	}
	sched.Stop()

	atexit.Exit(0)
}
