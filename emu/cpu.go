package emu

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32sim/insts"
)

// CPU errors.
var (
	// ErrAlreadyRun is returned when Run is called on a CPU that is not idle.
	ErrAlreadyRun = errors.New("cpu has already been run")
	// ErrUnimplemented means an operation reached the executor without a
	// handler. It indicates a decoder/executor mismatch, not a guest fault.
	ErrUnimplemented = errors.New("instruction not implemented")
	// ErrUnknownInstruction is returned in strict mode for encodings outside RV32I.
	ErrUnknownInstruction = errors.New("unknown instruction")
	// ErrMaxInstructions is returned when the instruction limit is reached.
	ErrMaxInstructions = errors.New("max instructions reached")
)

type cpuState uint8

const (
	stateIdle cpuState = iota
	stateRunning
	stateFinished
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Redirected is true if the instruction set PC itself (taken branch or jump).
	Redirected bool

	// Halted is true if the instruction stopped the CPU (unimp stop or an
	// ECALL handler calling Abort).
	Halted bool

	// Err is set if a fatal error occurred during execution.
	Err error
}

// CPU executes RV32I instructions functionally over a memory window.
type CPU struct {
	regFile *RegFile
	memory  *Memory
	decoder *insts.Decoder

	// Execution units
	alu        *ALU
	lsu        *LoadStoreUnit
	branchUnit *BranchUnit

	halt  HaltFlag
	state cpuState

	ecallHandler ECallHandler
	observer     AccessObserver
	logger       *logrus.Logger

	verbose     bool
	haltOnUnimp bool
	strict      bool

	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// CPUOption is a functional option for configuring the CPU.
type CPUOption func(*CPU)

// WithVerbose enables a trace line per executed instruction.
func WithVerbose(verbose bool) CPUOption {
	return func(c *CPU) {
		c.verbose = verbose
	}
}

// WithLogger sets the logger used for traces and diagnostics.
func WithLogger(logger *logrus.Logger) CPUOption {
	return func(c *CPU) {
		c.logger = logger
	}
}

// WithECallHandler sets the handler invoked by ECALL.
// Without one, ECALL has no effect.
func WithECallHandler(handler ECallHandler) CPUOption {
	return func(c *CPU) {
		c.ecallHandler = handler
	}
}

// WithAccessObserver sets an observer for fetches, loads and stores.
func WithAccessObserver(observer AccessObserver) CPUOption {
	return func(c *CPU) {
		c.observer = observer
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) CPUOption {
	return func(c *CPU) {
		c.maxInstructions = max
	}
}

// WithHaltOnUnimp stops the run when the canonical unimp word is fetched.
// Test programs use it to mark the end of their code.
func WithHaltOnUnimp(halt bool) CPUOption {
	return func(c *CPU) {
		c.haltOnUnimp = halt
	}
}

// WithStrictDecode makes unrecognized encodings fatal instead of no-ops.
func WithStrictDecode(strict bool) CPUOption {
	return func(c *CPU) {
		c.strict = strict
	}
}

// NewCPU creates a CPU over memory. PC starts at the first address of the
// window and the stack pointer at its end, so the first push lands on the
// last word of the window.
func NewCPU(memory *Memory, opts ...CPUOption) *CPU {
	regFile := &RegFile{}
	regFile.PC = memory.StartAddr()
	regFile.SetSP(memory.EndAddr())

	c := &CPU{
		regFile: regFile,
		memory:  memory,
		decoder: insts.NewDecoder(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.SetOutput(os.Stderr)
	}

	c.alu = NewALU(regFile)
	c.lsu = NewLoadStoreUnit(regFile, memory)
	c.lsu.SetObserver(c.observer)
	c.branchUnit = NewBranchUnit(regFile)

	return c
}

// RegFile returns the CPU's register file.
func (c *CPU) RegFile() *RegFile {
	return c.regFile
}

// PC returns the program counter.
func (c *CPU) PC() uint32 {
	return c.regFile.PC
}

// Memory returns the CPU's memory window.
func (c *CPU) Memory() *Memory {
	return c.memory
}

// InstructionCount returns the number of instructions executed.
func (c *CPU) InstructionCount() uint64 {
	return c.instructionCount
}

// Running reports whether the run loop is active.
func (c *CPU) Running() bool {
	return c.halt.Running()
}

// Abort stops the run loop before its next cycle. It may be called from an
// ECallHandler, from another goroutine, or before Run, in which case Run
// returns without executing anything.
func (c *CPU) Abort() {
	c.halt.Abort()
}

// Run executes instructions until PC leaves the memory window, the CPU is
// aborted, or a fatal error occurs. A CPU can only be run once.
func (c *CPU) Run() error {
	if c.state != stateIdle {
		return ErrAlreadyRun
	}

	c.state = stateRunning
	c.halt.Start()

	defer func() {
		c.halt.Abort()
		c.state = stateFinished
	}()

	for c.memory.Contains(c.regFile.PC) && c.halt.Running() {
		if c.maxInstructions > 0 && c.instructionCount >= c.maxInstructions {
			return fmt.Errorf("%w: %d", ErrMaxInstructions, c.maxInstructions)
		}

		result := c.Step()
		if result.Err != nil {
			return result.Err
		}
	}

	return nil
}

// Step executes a single fetch-decode-execute cycle.
func (c *CPU) Step() StepResult {
	// Hard-wire x0.
	c.regFile.ClearZero()
	defer c.regFile.ClearZero()

	pc := c.regFile.PC

	// 1. Fetch
	word, err := c.lsu.Fetch(pc)
	if err != nil {
		return StepResult{Err: fmt.Errorf("fetch at 0x%08x: %w", pc, err)}
	}

	if c.haltOnUnimp && word == insts.WordUnimp {
		c.halt.Abort()
		return StepResult{Halted: true}
	}

	// 2. Decode
	inst := c.decoder.Decode(word)

	if c.verbose {
		c.trace(pc, inst)
	}

	// 3. Execute
	result := c.execute(inst, pc)
	if result.Err != nil {
		return result
	}

	c.instructionCount++

	// Advance PC by 4 (for instructions that did not redirect it)
	if !result.Redirected {
		c.regFile.PC = pc + 4
	}

	if !c.halt.Running() && c.state == stateRunning {
		result.Halted = true
	}

	return result
}

// execute dispatches a decoded instruction located at pc.
func (c *CPU) execute(inst *insts.Instruction, pc uint32) StepResult {
	w := inst.Word

	switch {
	case inst.Op == insts.OpUnknown:
		return c.executeUnknown(inst, pc)

	case inst.Op == insts.OpLUI:
		c.alu.LUI(w.Rd(), w.ImmU())

	case inst.Op == insts.OpAUIPC:
		c.alu.AUIPC(w.Rd(), pc, w.ImmU())

	case inst.Op == insts.OpJAL:
		c.branchUnit.JAL(w.Rd(), pc, w.ImmJ())
		return StepResult{Redirected: true}

	case inst.Op == insts.OpJALR:
		c.branchUnit.JALR(w.Rd(), w.Rs1(), pc, w.ImmI())
		return StepResult{Redirected: true}

	case inst.Op.IsBranch():
		taken := c.branchUnit.Branch(inst.Op, w.Rs1(), w.Rs2(), pc, w.ImmB())
		return StepResult{Redirected: taken}

	case inst.Op.IsLoad():
		if err := c.lsu.Load(inst.Op, w.Rd(), w.Rs1(), w.ImmI()); err != nil {
			return StepResult{Err: fmt.Errorf("%s at 0x%08x: %w", inst.Op, pc, err)}
		}

	case inst.Op.IsStore():
		if err := c.lsu.Store(inst.Op, w.Rs1(), w.Rs2(), w.ImmS()); err != nil {
			return StepResult{Err: fmt.Errorf("%s at 0x%08x: %w", inst.Op, pc, err)}
		}

	case inst.Format == insts.FormatR:
		if !c.alu.ExecuteReg(inst.Op, w.Rd(), w.Rs1(), w.Rs2()) {
			return c.unimplemented(inst, pc)
		}

	case inst.Op == insts.OpSLLI || inst.Op == insts.OpSRLI || inst.Op == insts.OpSRAI:
		if !c.alu.ExecuteImm(inst.Op, w.Rd(), w.Rs1(), int32(w.Shamt())) {
			return c.unimplemented(inst, pc)
		}

	case inst.Op == insts.OpECALL:
		c.executeECall()

	case inst.Op == insts.OpFENCE || inst.Op == insts.OpEBREAK:
		// Single hart, no debugger: nothing to do.

	case inst.Format == insts.FormatI:
		if !c.alu.ExecuteImm(inst.Op, w.Rd(), w.Rs1(), w.ImmI()) {
			return c.unimplemented(inst, pc)
		}

	default:
		return c.unimplemented(inst, pc)
	}

	return StepResult{}
}

// executeECall hands control to the environment call handler, if any.
func (c *CPU) executeECall() {
	if c.ecallHandler == nil {
		return
	}
	c.ecallHandler.HandleECall(hartView{cpu: c})
}

func (c *CPU) executeUnknown(inst *insts.Instruction, pc uint32) StepResult {
	if c.strict {
		return StepResult{
			Err: fmt.Errorf("%w 0x%08x at PC=0x%08x", ErrUnknownInstruction, uint32(inst.Word), pc),
		}
	}

	c.logger.WithFields(logrus.Fields{
		"pc":   fmt.Sprintf("0x%08x", pc),
		"word": fmt.Sprintf("0x%08x", uint32(inst.Word)),
	}).Warn("Unrecognized instruction, skipping")

	return StepResult{}
}

func (c *CPU) unimplemented(inst *insts.Instruction, pc uint32) StepResult {
	return StepResult{
		Err: fmt.Errorf("%w: %s at PC=0x%08x", ErrUnimplemented, inst.Op, pc),
	}
}

func (c *CPU) trace(pc uint32, inst *insts.Instruction) {
	c.logger.WithFields(logrus.Fields{
		"pc":   fmt.Sprintf("0x%08x", pc),
		"word": fmt.Sprintf("0x%08x", uint32(inst.Word)),
	}).Info(inst.String())
}
