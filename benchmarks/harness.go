// Package benchmarks provides RV32I micro-programs and a harness that runs
// them through the CPU with the cache model attached.
package benchmarks

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32sim/ecall"
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/timing/cache"
)

// ProgramBase is the address the harness loads every program at.
const ProgramBase uint32 = 0x1000

// dataAlign is the alignment of the data area that follows the program.
const dataAlign = 64

// BenchmarkResult holds the results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// Instructions is the number of executed instructions
	Instructions uint64 `json:"instructions"`

	// EstimatedCycles is one cycle per instruction plus memory stalls
	EstimatedCycles uint64 `json:"estimated_cycles"`

	// CPI is EstimatedCycles over Instructions
	CPI float64 `json:"cpi"`

	// StallCycles is the accumulated cache miss penalty
	StallCycles uint64 `json:"stall_cycles"`

	// ICacheHits/Misses (if cache enabled)
	ICacheHits   uint64 `json:"icache_hits,omitempty"`
	ICacheMisses uint64 `json:"icache_misses,omitempty"`

	// DCacheHits/Misses (if cache enabled)
	DCacheHits   uint64 `json:"dcache_hits,omitempty"`
	DCacheMisses uint64 `json:"dcache_misses,omitempty"`

	// ExitCode is the program's exit code
	ExitCode int32 `json:"exit_code"`

	// Passed is true if the program exited with the expected code
	Passed bool `json:"passed"`

	// Error describes a simulation failure, if any
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

	// Setup prepares the CPU state before the run. gp already points at
	// the data area.
	Setup func(regFile *emu.RegFile, memory *emu.Memory)

	// Program is the RV32I machine code to execute
	Program []byte

	// DataSize is the number of zeroed bytes placed after the program
	DataSize int

	// ExpectedExit is the expected exit code (for validation)
	ExpectedExit int32
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// EnableICache enables instruction cache simulation
	EnableICache bool

	// EnableDCache enables data cache simulation
	EnableDCache bool

	// CacheConfig sets the cache geometry (default: DefaultHierarchyConfig)
	CacheConfig *cache.HierarchyConfig

	// MaxInstructions bounds each run (0 means no limit)
	MaxInstructions uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Logger receives per-benchmark progress when Verbose is set
	Logger *logrus.Logger

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		EnableICache:    true,
		EnableDCache:    true,
		CacheConfig:     cache.DefaultHierarchyConfig(),
		MaxInstructions: 10_000_000,
		Output:          os.Stdout,
		Verbose:         false,
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.CacheConfig == nil {
		config.CacheConfig = cache.DefaultHierarchyConfig()
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
		config.Logger.SetOutput(os.Stderr)
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
		if h.config.Verbose {
			h.config.Logger.WithFields(logrus.Fields{
				"benchmark":    result.Name,
				"instructions": result.Instructions,
				"cpi":          fmt.Sprintf("%.3f", result.CPI),
				"exit":         result.ExitCode,
				"passed":       result.Passed,
			}).Info("Benchmark finished")
		}
		results = append(results, result)
	}

	return results
}

// cacheFilter forwards only the access kinds whose cache is enabled.
type cacheFilter struct {
	hierarchy *cache.Hierarchy
	fetches   bool
	data      bool
}

func (f cacheFilter) ObserveAccess(kind emu.AccessKind, addr uint32, size int) {
	if kind == emu.AccessFetch && !f.fetches {
		return
	}
	if kind != emu.AccessFetch && !f.data {
		return
	}
	f.hierarchy.ObserveAccess(kind, addr, size)
}

// runBenchmark executes a single benchmark.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
	}

	// Program first, then the data area.
	codeSize := (len(bench.Program) + dataAlign - 1) &^ (dataAlign - 1)
	image := make([]byte, codeSize+bench.DataSize)
	copy(image, bench.Program)

	memory, err := emu.NewMemory(image, ProgramBase, ProgramBase+uint32(len(image)))
	if err != nil {
		result.Error = err.Error()
		return result
	}

	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	console := ecall.NewConsole(io.Discard, io.Discard, ecall.WithConsoleLogger(quiet))
	opts := []emu.CPUOption{
		emu.WithLogger(quiet),
		emu.WithECallHandler(console),
		emu.WithMaxInstructions(h.config.MaxInstructions),
	}

	var hierarchy *cache.Hierarchy
	if h.config.EnableICache || h.config.EnableDCache {
		hierarchy, err = cache.NewHierarchy(h.config.CacheConfig)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		opts = append(opts, emu.WithAccessObserver(cacheFilter{
			hierarchy: hierarchy,
			fetches:   h.config.EnableICache,
			data:      h.config.EnableDCache,
		}))
	}

	cpu := emu.NewCPU(memory, opts...)
	cpu.RegFile().SetGP(ProgramBase + uint32(codeSize))

	if bench.Setup != nil {
		bench.Setup(cpu.RegFile(), memory)
	}

	start := time.Now()
	runErr := cpu.Run()
	result.WallTime = time.Since(start)

	result.Instructions = cpu.InstructionCount()
	result.ExitCode = console.ExitCode()
	result.Passed = runErr == nil && console.Exited() && console.ExitCode() == bench.ExpectedExit
	if runErr != nil {
		result.Error = runErr.Error()
	} else if !console.Exited() {
		result.Error = "program did not exit"
	}

	report := cache.Report{}
	if hierarchy != nil {
		report = hierarchy.Report()
		if h.config.EnableICache {
			result.ICacheHits = report.L1I.Hits
			result.ICacheMisses = report.L1I.Misses
		}
		if h.config.EnableDCache {
			result.DCacheHits = report.L1D.Hits
			result.DCacheMisses = report.L1D.Misses
		}
	}

	result.StallCycles = report.StallCycles
	result.EstimatedCycles = result.Instructions + report.StallCycles
	result.CPI = report.CPI(result.Instructions)

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	out := h.config.Output

	_, _ = fmt.Fprintln(out, "=== RV32Sim Benchmark Results ===")
	_, _ = fmt.Fprintln(out, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(out, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(out, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(out, "  Exit Code: %d (passed: %v)\n", r.ExitCode, r.Passed)
		if r.Error != "" {
			_, _ = fmt.Fprintf(out, "  Error: %s\n", r.Error)
		}
		_, _ = fmt.Fprintln(out, "  --- Execution ---")
		_, _ = fmt.Fprintf(out, "  Instructions:     %d\n", r.Instructions)
		_, _ = fmt.Fprintf(out, "  Estimated Cycles: %d\n", r.EstimatedCycles)
		_, _ = fmt.Fprintf(out, "  CPI:              %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(out, "  Stall Cycles:     %d\n", r.StallCycles)

		if r.ICacheHits > 0 || r.ICacheMisses > 0 {
			_, _ = fmt.Fprintln(out, "  --- I-Cache ---")
			_, _ = fmt.Fprintf(out, "  Hits:   %d\n", r.ICacheHits)
			_, _ = fmt.Fprintf(out, "  Misses: %d\n", r.ICacheMisses)
		}

		if r.DCacheHits > 0 || r.DCacheMisses > 0 {
			_, _ = fmt.Fprintln(out, "  --- D-Cache ---")
			_, _ = fmt.Fprintf(out, "  Hits:   %d\n", r.DCacheHits)
			_, _ = fmt.Fprintf(out, "  Misses: %d\n", r.DCacheMisses)
		}

		_, _ = fmt.Fprintf(out, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(out, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,instructions,cycles,cpi,stalls,icache_hits,icache_misses,dcache_hits,dcache_misses,exit_code,passed")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%d,%v\n",
			r.Name,
			r.Instructions,
			r.EstimatedCycles,
			r.CPI,
			r.StallCycles,
			r.ICacheHits,
			r.ICacheMisses,
			r.DCacheHits,
			r.DCacheMisses,
			r.ExitCode,
			r.Passed,
		)
	}
}

// BenchmarkReport is the JSON document written by PrintJSON.
type BenchmarkReport struct {
	Metadata ReportMetadata    `json:"metadata"`
	Results  []BenchmarkResult `json:"results"`
	Summary  ReportSummary     `json:"summary"`
}

// ReportMetadata describes the run that produced a report.
type ReportMetadata struct {
	Timestamp string                 `json:"timestamp"`
	ICache    bool                   `json:"icache_enabled"`
	DCache    bool                   `json:"dcache_enabled"`
	Caches    *cache.HierarchyConfig `json:"caches,omitempty"`
}

// ReportSummary aggregates all results.
type ReportSummary struct {
	TotalBenchmarks   int           `json:"total_benchmarks"`
	Passed            int           `json:"passed"`
	TotalInstructions uint64        `json:"total_instructions"`
	TotalCycles       uint64        `json:"total_cycles"`
	AverageCPI        float64       `json:"average_cpi"`
	TotalWallTime     time.Duration `json:"total_wall_time_ns"`
}

// Summarize aggregates results.
func Summarize(results []BenchmarkResult) ReportSummary {
	summary := ReportSummary{TotalBenchmarks: len(results)}

	for _, r := range results {
		if r.Passed {
			summary.Passed++
		}
		summary.TotalInstructions += r.Instructions
		summary.TotalCycles += r.EstimatedCycles
		summary.TotalWallTime += r.WallTime
	}

	if summary.TotalInstructions > 0 {
		summary.AverageCPI = float64(summary.TotalCycles) / float64(summary.TotalInstructions)
	}

	return summary
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			ICache:    h.config.EnableICache,
			DCache:    h.config.EnableDCache,
		},
		Results: results,
		Summary: Summarize(results),
	}
	if h.config.EnableICache || h.config.EnableDCache {
		report.Metadata.Caches = h.config.CacheConfig
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// BuildProgram assembles instruction words into a byte slice.
func BuildProgram(instrs ...uint32) []byte {
	program := make([]byte, len(instrs)*4)
	for i, inst := range instrs {
		binary.LittleEndian.PutUint32(program[i*4:], inst)
	}
	return program
}
