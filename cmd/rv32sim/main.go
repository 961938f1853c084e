// Package main provides the entry point for RV32Sim.
// RV32Sim is a cycle-stepped RISC-V RV32I instruction-set simulator.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/pprof"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32sim/ecall"
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/loader"
	"github.com/sarchlab/rv32sim/timing/cache"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	verbose     bool
	maxInsts    uint64
	useCache    bool
	cacheConfig string
	dump        bool
	logLevel    string
	strict      bool
	haltOnUnimp bool
	cpuProfile  string
	memProfile  string
}

func parseFlags(args []string, stderr io.Writer) (*options, string, error) {
	opts := &options{}

	fs := flag.NewFlagSet("rv32sim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&opts.verbose, "v", false, "Trace every executed instruction")
	fs.Uint64Var(&opts.maxInsts, "max-insts", 0, "Maximum instructions to execute (0 = unlimited)")
	fs.BoolVar(&opts.useCache, "cache", false, "Attach the L1 cache model and report statistics")
	fs.StringVar(&opts.cacheConfig, "cache-config", "", "Path to cache configuration JSON file")
	fs.BoolVar(&opts.dump, "dump", false, "Dump the final register file")
	fs.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.BoolVar(&opts.strict, "strict", false, "Treat unrecognized instructions as fatal")
	fs.BoolVar(&opts.haltOnUnimp, "halt-on-unimp", false, "Stop when the unimp instruction is fetched")
	fs.StringVar(&opts.cpuProfile, "cpuprofile", "", "Write CPU profile to file")
	fs.StringVar(&opts.memProfile, "memprofile", "", "Write memory profile to file")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: rv32sim [options] <program.elf>\n")
		_, _ = fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}

	if fs.NArg() < 1 {
		fs.Usage()
		return nil, "", fmt.Errorf("missing program path")
	}

	return opts, fs.Arg(0), nil
}

// run executes the simulator and returns the process exit code: the
// program's exit status, or 1 on a simulator error.
func run(args []string, stdout, stderr io.Writer) int {
	opts, programPath, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 1
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	level, err := logrus.ParseLevel(opts.logLevel)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error parsing log level: %v\n", err)
		return 1
	}
	logger.SetLevel(level)

	if opts.cpuProfile != "" {
		f, err := os.Create(opts.cpuProfile)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error creating CPU profile: %v\n", err)
			return 1
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error starting CPU profile: %v\n", err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	prog, err := loader.Load(programPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return 1
	}

	logger.WithFields(logrus.Fields{
		"program": programPath,
		"start":   fmt.Sprintf("0x%08x", prog.StartAddr),
		"end":     fmt.Sprintf("0x%08x", prog.EndAddr),
		"entry":   fmt.Sprintf("0x%08x", prog.EntryPoint),
	}).Debug("Loaded program")

	memory, err := prog.Memory()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error creating memory: %v\n", err)
		return 1
	}

	console := ecall.NewConsole(stdout, stderr, ecall.WithConsoleLogger(logger))

	cpuOpts := []emu.CPUOption{
		emu.WithLogger(logger),
		emu.WithVerbose(opts.verbose),
		emu.WithECallHandler(console),
		emu.WithMaxInstructions(opts.maxInsts),
		emu.WithStrictDecode(opts.strict),
		emu.WithHaltOnUnimp(opts.haltOnUnimp),
	}

	var hierarchy *cache.Hierarchy
	if opts.useCache || opts.cacheConfig != "" {
		hierarchy, err = newHierarchy(opts.cacheConfig)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error configuring caches: %v\n", err)
			return 1
		}
		cpuOpts = append(cpuOpts, emu.WithAccessObserver(hierarchy))
	}

	cpu := emu.NewCPU(memory, cpuOpts...)
	runErr := cpu.Run()

	logger.WithFields(logrus.Fields{
		"instructions": cpu.InstructionCount(),
		"pc":           fmt.Sprintf("0x%08x", cpu.PC()),
	}).Info("Simulation finished")

	if hierarchy != nil {
		report := hierarchy.Report()
		report.Log(logger)
		logger.WithField("cpi", fmt.Sprintf("%.3f", report.CPI(cpu.InstructionCount()))).
			Info("Estimated CPI")
	}

	if opts.dump {
		dumper := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true}
		dumper.Fdump(stderr, *cpu.RegFile())
	}

	if opts.memProfile != "" {
		if err := writeMemProfile(opts.memProfile); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error writing memory profile: %v\n", err)
		}
	}

	if runErr != nil {
		_, _ = fmt.Fprintf(stderr, "Error running program: %v\n", runErr)
		return 1
	}

	if console.Exited() {
		return int(console.ExitCode())
	}

	return 0
}

func newHierarchy(configPath string) (*cache.Hierarchy, error) {
	config := cache.DefaultHierarchyConfig()
	if configPath != "" {
		var err error
		config, err = cache.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
	}
	return cache.NewHierarchy(config)
}

func writeMemProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return pprof.WriteHeapProfile(f)
}
