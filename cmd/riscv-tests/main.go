// Command riscv-tests runs the rv32ui tests from the riscv-tests suite.
//
// Usage:
//
//	go run ./cmd/riscv-tests [flags]
//
// Flags:
//
//	-dir        Directory holding the compiled tests (default: riscv-tests/isa)
//	-test       Run a single test, e.g. -test add runs rv32ui-p-add
//	-v          Trace every executed instruction
//	-log-level  Log level for simulator diagnostics (default: error)
//
// Each test reports its status through an exit environment call: a0 is 0
// on success, otherwise it encodes the number of the failing case.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32sim/ecall"
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/loader"
)

const testPrefix = "rv32ui-p-"

// maxTestInstructions bounds a single test so a broken one cannot hang the run.
const maxTestInstructions = 10_000_000

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type config struct {
	dir      string
	testName string
	verbose  bool
	logger   *logrus.Logger
}

// testResult is the outcome of one test binary.
type testResult struct {
	name         string
	instructions uint64
	err          error
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg := config{}
	var logLevel string

	fs := flag.NewFlagSet("riscv-tests", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.dir, "dir", filepath.Join("riscv-tests", "isa"), "Directory holding the compiled tests")
	fs.StringVar(&cfg.testName, "test", "", "Run only rv32ui-p-<name>")
	fs.BoolVar(&cfg.verbose, "v", false, "Trace every executed instruction")
	fs.StringVar(&logLevel, "log-level", "error", "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error parsing log level: %v\n", err)
		return 1
	}
	if cfg.verbose && level < logrus.InfoLevel {
		level = logrus.InfoLevel
	}

	cfg.logger = logrus.New()
	cfg.logger.SetOutput(stderr)
	cfg.logger.SetLevel(level)

	paths, err := findTests(cfg.dir, cfg.testName)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error finding tests: %v\n", err)
		return 1
	}

	failed := 0
	for _, path := range paths {
		result := runTest(path, cfg)
		if result.err != nil {
			failed++
			_, _ = fmt.Fprintf(stdout, "FAIL %s: %v\n", result.name, result.err)
			continue
		}
		_, _ = fmt.Fprintf(stdout, "PASS %s (%d instructions)\n", result.name, result.instructions)
	}

	_, _ = fmt.Fprintf(stdout, "\n%d passed, %d failed\n", len(paths)-failed, failed)

	if failed > 0 {
		return 1
	}
	return 0
}

// findTests lists the test binaries in dir, skipping disassembly dumps.
func findTests(dir, testName string) ([]string, error) {
	if testName != "" {
		path := filepath.Join(dir, testPrefix+testName)
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read test directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, testPrefix) || strings.HasSuffix(name, ".dump") {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no %s* tests in %s", testPrefix, dir)
	}

	return paths, nil
}

func runTest(path string, cfg config) testResult {
	result := testResult{name: strings.TrimPrefix(filepath.Base(path), testPrefix)}

	cfg.logger.WithField("path", path).Info("Running test")

	prog, err := loader.Load(path)
	if err != nil {
		result.err = err
		return result
	}

	memory, err := prog.Memory()
	if err != nil {
		result.err = err
		return result
	}

	harness := ecall.NewTestHarness(cfg.logger)
	cpu := emu.NewCPU(memory,
		emu.WithLogger(cfg.logger),
		emu.WithVerbose(cfg.verbose),
		emu.WithECallHandler(harness),
		emu.WithHaltOnUnimp(true),
		emu.WithMaxInstructions(maxTestInstructions),
	)

	runErr := cpu.Run()
	result.instructions = cpu.InstructionCount()

	if runErr != nil {
		result.err = runErr
		return result
	}

	result.err = harness.Err()
	return result
}
