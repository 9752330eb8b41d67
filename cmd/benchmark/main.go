// Command benchmark runs the FemtoRV timing benchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv        Output results in CSV format (default: human-readable)
//	-json       Output results in JSON format
//	-alu        ALU variant: small or large (default: small)
//	-config     Core configuration JSON file
//	-costs      Cost model JSON file
//	-core       Run only the 3 core benchmarks
//
// Example:
//
//	# Run all benchmarks with human-readable output
//	go run ./cmd/benchmark
//
//	# Output CSV for the large ALU
//	go run ./cmd/benchmark -alu large -csv > results.csv
//
// The simulated cycle counts are compared against the cost model's
// estimates, and the architectural results against the functional emulator.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/femtorv/benchmarks"
	"github.com/sarchlab/femtorv/timing/core"
	"github.com/sarchlab/femtorv/timing/latency"
)

func main() {
	// Parse flags
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results in JSON format")
	alu := flag.String("alu", "", "ALU variant: small or large (overrides the config)")
	configPath := flag.String("config", "", "Path to core configuration JSON file")
	costsPath := flag.String("costs", "", "Path to cost model JSON file")
	coreOnly := flag.Bool("core", false, "Run only the core benchmarks")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if *verbose {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}

	// Configure harness
	config := benchmarks.DefaultConfig()
	config.Output = os.Stdout
	config.Logger = logger
	config.Verbose = *verbose

	if *configPath != "" {
		c, err := core.LoadConfig(*configPath)
		if err != nil {
			logger.WithError(err).Fatal("failed to load config")
		}
		config.Core = c
	}
	if *alu != "" {
		config.Core.ALU = *alu
	}
	if err := config.Core.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid config")
	}

	if *costsPath != "" {
		costs, err := loadCosts(*costsPath)
		if err != nil {
			logger.WithError(err).Fatal("failed to load costs")
		}
		config.Costs = costs
	}

	// Create harness and add benchmarks
	harness := benchmarks.NewHarness(config)
	if *coreOnly {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	humanReadable := !*csvOutput && !*jsonOutput
	if humanReadable {
		fmt.Println("FemtoRV Timing Benchmark Harness")
		fmt.Println("================================")
		fmt.Printf("ALU:      %s\n", config.Core.ALU)
		fmt.Printf("Counters: %v\n", config.Core.Counters)
		fmt.Println("")
	}

	// Run benchmarks
	results := harness.RunAll()

	// Output results
	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			logger.WithError(err).Fatal("failed to write JSON")
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)

		summary := benchmarks.Summarize(results)
		fmt.Println("=== Summary ===")
		fmt.Println("")
		fmt.Printf("Benchmarks:       %d (%d skipped)\n", summary.TotalBenchmarks, summary.Skipped)
		fmt.Printf("Total Cycles:     %d\n", summary.TotalCycles)
		fmt.Printf("Estimated Cycles: %d\n", summary.TotalEstimatedCycles)
		fmt.Printf("Average CPI:      %.3f\n", summary.AverageCPI)
	}

	for _, r := range results {
		if !r.Skipped && (!r.ResultOK || (config.CheckFunctional && !r.FunctionalMatch)) {
			logger.WithField("benchmark", r.Name).Error("benchmark failed validation")
			os.Exit(1)
		}
	}
}

func loadCosts(path string) (*latency.Costs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read costs: %w", err)
	}

	costs := latency.DefaultCosts()
	if err := json.Unmarshal(data, costs); err != nil {
		return nil, fmt.Errorf("failed to parse costs: %w", err)
	}
	if err := costs.Validate(); err != nil {
		return nil, err
	}
	return costs, nil
}
