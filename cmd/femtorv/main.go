// Package main provides the entry point for the FemtoRV simulator.
// It runs RV32 firmware on the cycle-accurate FemtoRV core, clocked by an
// akita engine, or on the functional emulator.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/femtorv/emu"
	"github.com/sarchlab/femtorv/loader"
	"github.com/sarchlab/femtorv/timing/core"
	"github.com/sarchlab/femtorv/timing/latency"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options holds the parsed command line.
type options struct {
	configPath  string
	hex         bool
	maxCycles   uint64
	functional  bool
	verbose     bool
	trace       bool
	programPath string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("femtorv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Path to core configuration JSON file")
	fs.BoolVar(&opts.hex, "hex", false, "Treat the program as a $readmemh image (implied by .hex)")
	fs.Uint64Var(&opts.maxCycles, "max-cycles", 0, "Stop after this many cycles, or instructions with -functional (overrides the config)")
	fs.BoolVar(&opts.functional, "functional", false, "Run on the functional emulator instead of the core")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose output")
	fs.BoolVar(&opts.trace, "trace", false, "Log every state transition")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: femtorv [options] <program.elf|program.hex>\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, fmt.Errorf("expected one program, got %d", fs.NArg())
	}

	opts.programPath = fs.Arg(0)
	if strings.EqualFold(filepath.Ext(opts.programPath), ".hex") {
		opts.hex = true
	}
	return opts, nil
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	switch {
	case opts.trace:
		logger.SetLevel(logrus.TraceLevel)
	case opts.verbose:
		logger.SetLevel(logrus.DebugLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	config, err := loadConfig(opts)
	if err != nil {
		logger.WithError(err).Error("failed to load config")
		return 1
	}

	prog, err := loadProgram(opts)
	if err != nil {
		logger.WithError(err).Error("failed to load program")
		return 1
	}
	if !opts.hex {
		config.ResetAddr = prog.EntryPoint
	}
	if err := config.Validate(); err != nil {
		logger.WithError(err).Error("invalid config")
		return 1
	}

	memory := emu.NewMemory(config.MemSize)
	if err := prog.WriteTo(memory); err != nil {
		logger.WithError(err).Error("failed to load program")
		return 1
	}
	bus := emu.NewBusDevice(memory, emu.WithUART(stdout), emu.WithBusLogger(logger))

	logger.WithFields(logrus.Fields{
		"program":  opts.programPath,
		"entry":    fmt.Sprintf("0x%X", config.ResetAddr),
		"segments": len(prog.Segments),
		"alu":      config.ALU,
	}).Info("program loaded")

	if opts.functional {
		return runFunctional(bus, config, logger, stdout)
	}
	return runTiming(bus, config, logger, stdout)
}

func loadConfig(opts *options) (*core.Config, error) {
	config := core.DefaultConfig()
	if opts.configPath != "" {
		var err error
		config, err = core.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
	}
	if opts.maxCycles != 0 {
		config.MaxCycles = opts.maxCycles
	}
	return config, nil
}

func loadProgram(opts *options) (*loader.Program, error) {
	if opts.hex {
		return loader.LoadHex(opts.programPath)
	}
	return loader.Load(opts.programPath)
}

// runFunctional runs the program on the functional emulator.
func runFunctional(bus *emu.BusDevice, config *core.Config, logger *logrus.Logger, stdout io.Writer) int {
	opts := []emu.EmulatorOption{
		emu.WithAddrWidth(config.AddrWidth),
		emu.WithMulDivExtension(config.ALUVariant() == emu.ALULarge),
		emu.WithMaxInstructions(config.MaxCycles),
	}
	if config.Counters {
		opts = append(opts, emu.WithCounterWidth(config.CounterWidth))
	}
	emulator := emu.NewEmulator(bus, opts...)
	emulator.SetPC(config.ResetAddr)

	err := emulator.Run()

	fmt.Fprintf(stdout, "\n")
	fmt.Fprintf(stdout, "Instructions executed: %d\n", emulator.InstructionCount())
	fmt.Fprintf(stdout, "Final PC: 0x%X\n", emulator.PC())

	if err != nil {
		logger.WithError(err).Error("emulation stopped")
		return 1
	}
	return 0
}

// runTiming runs the program on the cycle-accurate core, clocked by an
// akita serial engine.
func runTiming(bus *emu.BusDevice, config *core.Config, logger *logrus.Logger, stdout io.Writer) int {
	c, err := core.NewCore(bus, core.WithConfig(config), core.WithLogger(logger))
	if err != nil {
		logger.WithError(err).Error("failed to create core")
		return 1
	}

	engine := sim.NewSerialEngine()
	comp := core.NewComponent("FemtoRV", engine, c)
	comp.TickLater()

	if err := engine.Run(); err != nil {
		logger.WithError(err).Error("engine failed")
		return 1
	}

	printReport(stdout, c, config)

	if err := c.Err(); err != nil {
		logger.WithError(err).Error("simulation stopped")
		return 1
	}
	return 0
}

func printReport(w io.Writer, c *core.Core, config *core.Config) {
	stats := c.Stats()
	table := latency.NewTableWithConfig(latency.DefaultCosts(), config.ALUVariant())

	totalCycles := stats.Cycles
	if totalCycles == 0 {
		totalCycles = 1
	}
	percent := func(n uint64) float64 {
		return 100.0 * float64(n) / float64(totalCycles)
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Final PC: 0x%X\n", c.PC())
	fmt.Fprintf(w, "Total Instructions: %d\n", stats.Instructions)
	fmt.Fprintf(w, "Total Cycles: %d\n", stats.Cycles)
	fmt.Fprintf(w, "CPI: %.2f\n", stats.CPI())
	fmt.Fprintf(w, "Simulated time: %.3f us at %.0f MHz\n",
		float64(stats.Cycles)/config.FreqMHz, config.FreqMHz)
	fmt.Fprintf(w, "Estimated Cycles: %d\n", table.Estimate(stats))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Breakdown:\n")
	fmt.Fprintf(w, "  ALU wait:  %6d cycles (%5.1f%%)\n", stats.WaitALUCycles, percent(stats.WaitALUCycles))
	fmt.Fprintf(w, "  Load wait: %6d cycles (%5.1f%%)\n", stats.LoadCycles, percent(stats.LoadCycles))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Instruction Mix:\n")
	fmt.Fprintf(w, "  Loads:              %d\n", stats.Loads)
	fmt.Fprintf(w, "  Stores:             %d\n", stats.Stores)
	fmt.Fprintf(w, "  Jumps:              %d\n", stats.Jumps)
	fmt.Fprintf(w, "  Branches taken:     %d\n", stats.BranchesTaken)
	fmt.Fprintf(w, "  Branches not taken: %d\n", stats.BranchesNotTaken)
}
