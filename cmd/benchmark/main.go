// Command benchmark runs the RV32Sim microbenchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv           Output results in CSV format (default: human-readable)
//	-json          Output results as a JSON report
//	-no-icache     Disable instruction cache simulation
//	-no-dcache     Disable data cache simulation
//	-cache-config  Path to a cache hierarchy JSON file
//	-core          Run only the core loop/copy/branch benchmarks
//	-v             Log each benchmark as it finishes
//
// Example:
//
//	# Run all benchmarks with human-readable output
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32sim/benchmarks"
	"github.com/sarchlab/rv32sim/timing/cache"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("benchmark", flag.ContinueOnError)
	fs.SetOutput(stderr)

	csvOutput := fs.Bool("csv", false, "Output results in CSV format")
	jsonOutput := fs.Bool("json", false, "Output results as a JSON report")
	noICache := fs.Bool("no-icache", false, "Disable instruction cache simulation")
	noDCache := fs.Bool("no-dcache", false, "Disable data cache simulation")
	cacheConfig := fs.String("cache-config", "", "Path to cache hierarchy JSON file")
	coreOnly := fs.Bool("core", false, "Run only the core benchmarks")
	verbose := fs.Bool("v", false, "Log each benchmark as it finishes")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if *csvOutput && *jsonOutput {
		_, _ = fmt.Fprintln(stderr, "Error: -csv and -json are mutually exclusive")
		return 1
	}

	logger := logrus.New()
	logger.SetOutput(stderr)

	// Configure harness
	config := benchmarks.DefaultConfig()
	config.EnableICache = !*noICache
	config.EnableDCache = !*noDCache
	config.Output = stdout
	config.Logger = logger
	config.Verbose = *verbose

	if *cacheConfig != "" {
		hc, err := cache.LoadConfig(*cacheConfig)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error loading cache config: %v\n", err)
			return 1
		}
		if err := hc.Validate(); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: invalid cache config: %v\n", err)
			return 1
		}
		config.CacheConfig = hc
	}

	harness := benchmarks.NewHarness(config)
	if *coreOnly {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	if !*csvOutput && !*jsonOutput {
		_, _ = fmt.Fprintln(stdout, "RV32Sim Benchmark Harness")
		_, _ = fmt.Fprintln(stdout, "=========================")
		_, _ = fmt.Fprintf(stdout, "I-Cache: %v\n", config.EnableICache)
		_, _ = fmt.Fprintf(stdout, "D-Cache: %v\n", config.EnableDCache)
		_, _ = fmt.Fprintln(stdout, "")
	}

	results := harness.RunAll()

	switch {
	case *csvOutput:
		harness.PrintCSV(results)
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error writing JSON: %v\n", err)
			return 1
		}
	default:
		harness.PrintResults(results)

		summary := benchmarks.Summarize(results)
		_, _ = fmt.Fprintln(stdout, "=== Summary ===")
		_, _ = fmt.Fprintf(stdout, "Passed:       %d/%d\n", summary.Passed, summary.TotalBenchmarks)
		_, _ = fmt.Fprintf(stdout, "Instructions: %d\n", summary.TotalInstructions)
		_, _ = fmt.Fprintf(stdout, "Average CPI:  %.3f\n", summary.AverageCPI)
	}

	for _, r := range results {
		if !r.Passed {
			return 1
		}
	}
	return 0
}
