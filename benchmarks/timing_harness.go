// Package benchmarks provides timing benchmark infrastructure for FemtoRV
// cost-model calibration.
package benchmarks

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/femtorv/emu"
	"github.com/sarchlab/femtorv/timing/core"
	"github.com/sarchlab/femtorv/timing/latency"
)

// ResultReg is the register holding a benchmark's result (a0).
const ResultReg = 10

// DefaultMaxCycles bounds benchmark runs whose configuration sets no limit.
const DefaultMaxCycles = 1_000_000

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// Skipped is set when the configured core cannot run the benchmark
	Skipped bool `json:"skipped,omitempty"`

	// SimulatedCycles is the total cycle count from the core
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// WaitALUCycles is cycles spent waiting for shifts, MUL and DIV
	WaitALUCycles uint64 `json:"wait_alu_cycles"`

	// LoadCycles is cycles spent waiting for load data
	LoadCycles uint64 `json:"load_cycles"`

	Jumps            uint64 `json:"jumps"`
	BranchesTaken    uint64 `json:"branches_taken"`
	BranchesNotTaken uint64 `json:"branches_not_taken"`
	Loads            uint64 `json:"loads"`
	Stores           uint64 `json:"stores"`

	// EstimatedCycles is the cost-model prediction from the counted events
	EstimatedCycles uint64 `json:"estimated_cycles"`

	// Result is the final value of a0
	Result uint32 `json:"result"`

	// ResultOK reports whether Result matched the expected value
	ResultOK bool `json:"result_ok"`

	// FunctionalMatch reports whether the functional emulator agreed on the
	// register file and the instruction count. Only set when checked.
	FunctionalMatch bool `json:"functional_match,omitempty"`

	// UART is everything the program wrote to the UART
	UART string `json:"uart,omitempty"`

	// Error is the reason the run stopped abnormally, if any
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Setup prepares memory contents before the program is loaded
	Setup func(memory *emu.Memory)

	// Program is the RV32 machine code to execute, loaded at the reset address
	Program []byte

	// NeedsMulDiv marks programs that use the M extension
	NeedsMulDiv bool

	// ExpectedResult is the expected final a0 (for validation)
	ExpectedResult uint32
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Core is the configuration each benchmark core is built from
	Core *core.Config

	// Costs is the cost model used for EstimatedCycles
	Costs *latency.Costs

	// CheckFunctional also runs every benchmark on the functional emulator
	CheckFunctional bool

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Logger receives the core's log output (default: discarded)
	Logger *logrus.Logger

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Core:            core.DefaultConfig(),
		Costs:           latency.DefaultCosts(),
		CheckFunctional: true,
		Output:          os.Stdout,
		Verbose:         false,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Core == nil {
		config.Core = core.DefaultConfig()
	}
	if config.Costs == nil {
		config.Costs = latency.DefaultCosts()
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
		config.Logger.SetOutput(io.Discard)
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		results = append(results, result)
	}

	return results
}

// newMemory builds a fresh memory image holding the benchmark.
func (h *Harness) newMemory(bench Benchmark) (*emu.Memory, error) {
	memory := emu.NewMemory(h.config.Core.MemSize)
	if bench.Setup != nil {
		bench.Setup(memory)
	}
	if err := memory.LoadProgram(h.config.Core.ResetAddr, bench.Program); err != nil {
		return nil, err
	}
	return memory, nil
}

// runBenchmark executes a single benchmark.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
	}

	config := h.config.Core.Clone()
	if bench.NeedsMulDiv && config.ALUVariant() != emu.ALULarge {
		result.Skipped = true
		return result
	}
	if config.MaxCycles == 0 {
		config.MaxCycles = DefaultMaxCycles
	}

	memory, err := h.newMemory(bench)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	uart := &bytes.Buffer{}
	bus := emu.NewBusDevice(memory, emu.WithUART(uart), emu.WithBusLogger(h.config.Logger))
	c, err := core.NewCore(bus, core.WithConfig(config), core.WithLogger(h.config.Logger))
	if err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	runErr := c.Run()
	result.WallTime = time.Since(start)

	stats := c.Stats()
	table := latency.NewTableWithConfig(h.config.Costs, config.ALUVariant())

	result.SimulatedCycles = stats.Cycles
	result.InstructionsRetired = stats.Instructions
	result.CPI = stats.CPI()
	result.WaitALUCycles = stats.WaitALUCycles
	result.LoadCycles = stats.LoadCycles
	result.Jumps = stats.Jumps
	result.BranchesTaken = stats.BranchesTaken
	result.BranchesNotTaken = stats.BranchesNotTaken
	result.Loads = stats.Loads
	result.Stores = stats.Stores
	result.EstimatedCycles = table.Estimate(stats)
	result.Result = c.RegFile().ReadReg(ResultReg)
	result.ResultOK = runErr == nil && result.Result == bench.ExpectedResult
	result.UART = uart.String()
	if runErr != nil {
		result.Error = runErr.Error()
	}

	if h.config.CheckFunctional && runErr == nil {
		result.FunctionalMatch = h.checkFunctional(bench, c)
	}

	if h.config.Verbose {
		h.config.Logger.WithFields(logrus.Fields{
			"benchmark": bench.Name,
			"cycles":    result.SimulatedCycles,
			"estimate":  result.EstimatedCycles,
		}).Info("benchmark finished")
	}

	return result
}

// checkFunctional replays the benchmark on the functional emulator and
// compares the architectural outcome with the core's.
func (h *Harness) checkFunctional(bench Benchmark, c *core.Core) bool {
	memory, err := h.newMemory(bench)
	if err != nil {
		return false
	}

	config := c.Config()
	opts := []emu.EmulatorOption{
		emu.WithAddrWidth(config.AddrWidth),
		emu.WithMulDivExtension(config.ALUVariant() == emu.ALULarge),
		emu.WithMaxInstructions(c.Stats().Instructions + 1),
	}
	if config.Counters {
		opts = append(opts, emu.WithCounterWidth(config.CounterWidth))
	}
	e := emu.NewEmulator(emu.NewBusDevice(memory, emu.WithUART(io.Discard)), opts...)
	e.SetPC(config.ResetAddr)
	if err := e.Run(); err != nil {
		return false
	}

	return e.RegFile().X == c.RegFile().X &&
		e.InstructionCount() == c.Stats().Instructions
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== FemtoRV Timing Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		if r.Skipped {
			_, _ = fmt.Fprintln(h.config.Output, "  Skipped: needs the M extension (large ALU)")
			_, _ = fmt.Fprintln(h.config.Output, "")
			continue
		}
		_, _ = fmt.Fprintf(h.config.Output, "  Result (a0): %d (ok=%v)\n", r.Result, r.ResultOK)
		if r.Error != "" {
			_, _ = fmt.Fprintf(h.config.Output, "  Error: %s\n", r.Error)
		}
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Estimated Cycles:     %d\n", r.EstimatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(h.config.Output, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(h.config.Output, "  ALU Wait Cycles:      %d\n", r.WaitALUCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Load Wait Cycles:     %d\n", r.LoadCycles)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Control Flow ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Jumps:              %d\n", r.Jumps)
		_, _ = fmt.Fprintf(h.config.Output, "  Branches Taken:     %d\n", r.BranchesTaken)
		_, _ = fmt.Fprintf(h.config.Output, "  Branches Not Taken: %d\n", r.BranchesNotTaken)
		if r.Loads > 0 || r.Stores > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- Memory ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Loads:  %d\n", r.Loads)
			_, _ = fmt.Fprintf(h.config.Output, "  Stores: %d\n", r.Stores)
		}
		if h.config.CheckFunctional {
			_, _ = fmt.Fprintf(h.config.Output, "  Functional Match: %v\n", r.FunctionalMatch)
		}

		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,estimated_cycles,instructions,cpi,wait_alu_cycles,load_cycles,jumps,branches_taken,branches_not_taken,loads,stores,result,skipped")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%.3f,%d,%d,%d,%d,%d,%d,%d,%d,%v\n",
			r.Name,
			r.SimulatedCycles,
			r.EstimatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.WaitALUCycles,
			r.LoadCycles,
			r.Jumps,
			r.BranchesTaken,
			r.BranchesNotTaken,
			r.Loads,
			r.Stores,
			r.Result,
			r.Skipped,
		)
	}
}

// BuildProgram assembles instruction words into a little-endian byte slice.
func BuildProgram(instrs ...uint32) []byte {
	program := make([]byte, 0, len(instrs)*4)
	for _, inst := range instrs {
		program = binary.LittleEndian.AppendUint32(program, inst)
	}
	return program
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Core is the core configuration used
	Core *core.Config `json:"core"`

	// Costs is the cost model used for the estimates
	Costs *latency.Costs `json:"costs"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// Skipped is the number of benchmarks the core could not run
	Skipped int `json:"skipped"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// TotalEstimatedCycles is the sum of all cost-model estimates
	TotalEstimatedCycles uint64 `json:"total_estimated_cycles"`

	// TotalInstructions is the sum of all instructions retired
	TotalInstructions uint64 `json:"total_instructions"`

	// AverageCPI is the average cycles per instruction
	AverageCPI float64 `json:"average_cpi"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// Summarize computes aggregate statistics over results.
func Summarize(results []BenchmarkResult) ReportSummary {
	s := ReportSummary{TotalBenchmarks: len(results)}
	for _, r := range results {
		if r.Skipped {
			s.Skipped++
			continue
		}
		s.TotalCycles += r.SimulatedCycles
		s.TotalEstimatedCycles += r.EstimatedCycles
		s.TotalInstructions += r.InstructionsRetired
		s.TotalWallTime += r.WallTime
	}
	if s.TotalInstructions > 0 {
		s.AverageCPI = float64(s.TotalCycles) / float64(s.TotalInstructions)
	}
	return s
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Core:      h.config.Core,
			Costs:     h.config.Costs,
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
