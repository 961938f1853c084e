package benchmarks

import (
	"github.com/sarchlab/rv32sim/insts"
)

// ABI register numbers used by the programs below.
const (
	zero uint8 = 0
	ra   uint8 = 1
	gp   uint8 = 3
	t0   uint8 = 5
	t1   uint8 = 6
	t2   uint8 = 7
	a0   uint8 = 10
	a7   uint8 = 17
	t3   uint8 = 28
	t4   uint8 = 29
	t5   uint8 = 30
)

// GetMicrobenchmarks returns the standard set of microbenchmarks.
// Each benchmark targets a specific CPU characteristic and exits with its
// result in a0.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		memorySequential(),
		functionCalls(),
		branchTaken(),
		arithmeticLoop(),
		memoryCopy(),
		branchHeavy(),
	}
}

// GetCoreBenchmarks returns a minimal set of 3 core benchmarks for quick
// validation: a loop, a memory copy and branch-heavy code.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticLoop(),
		memoryCopy(),
		branchHeavy(),
	}
}

// 1. Arithmetic Sequential - Tests ALU throughput with independent operations
func arithmeticSequential() Benchmark {
	instrs := make([]uint32, 0, 22)
	for i := 0; i < 4; i++ {
		for r := uint8(0); r < 5; r++ {
			instrs = append(instrs, addi(a0+r, a0+r, 1))
		}
	}
	instrs = append(instrs, exit()...)

	return Benchmark{
		Name:         "arithmetic_sequential",
		Description:  "20 independent ADDI operations - measures ALU throughput",
		Program:      BuildProgram(instrs...),
		ExpectedExit: 4, // a0 = 4*1
	}
}

// 2. Dependency Chain - Tests back-to-back dependent instructions
func dependencyChain() Benchmark {
	instrs := make([]uint32, 0, 22)
	for i := 0; i < 20; i++ {
		instrs = append(instrs, addi(a0, a0, 1))
	}
	instrs = append(instrs, exit()...)

	return Benchmark{
		Name:         "dependency_chain",
		Description:  "20 dependent ADDIs (a0 = a0 + 1) - measures RAW chains",
		Program:      BuildProgram(instrs...),
		ExpectedExit: 20,
	}
}

// 3. Memory Sequential - Tests cache/memory performance
func memorySequential() Benchmark {
	instrs := []uint32{addi(a0, zero, 42)}
	for i := int32(0); i < 10; i++ {
		instrs = append(instrs, sw(a0, gp, i*4), lw(a0, gp, i*4))
	}
	instrs = append(instrs, exit()...)

	return Benchmark{
		Name:         "memory_sequential",
		Description:  "10 store/load pairs to sequential words - measures memory latency",
		Program:      BuildProgram(instrs...),
		DataSize:     64,
		ExpectedExit: 42,
	}
}

// 4. Function Calls - Tests JAL/JALR overhead
func functionCalls() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "5 function calls (JAL + RET pairs) - measures call overhead",
		Program: BuildProgram(
			// main: call add_one 5 times
			jal(ra, 28), // add_one is instruction 7
			jal(ra, 24),
			jal(ra, 20),
			jal(ra, 16),
			jal(ra, 12),
			addi(a7, zero, 93),
			insts.WordECALL,

			// add_one
			addi(a0, a0, 1),
			ret(),
		),
		ExpectedExit: 5,
	}
}

// 5. Branch Taken - Tests unconditional jump overhead
func branchTaken() Benchmark {
	instrs := make([]uint32, 0, 17)
	for i := 0; i < 5; i++ {
		instrs = append(instrs,
			jal(zero, 8),     // skip next instruction
			addi(t1, t1, 99), // skipped
			addi(a0, a0, 1),
		)
	}
	instrs = append(instrs, exit()...)

	return Benchmark{
		Name:         "branch_taken",
		Description:  "5 forward jumps over dead code - measures jump overhead",
		Program:      BuildProgram(instrs...),
		ExpectedExit: 5,
	}
}

// 6. Arithmetic Loop - Counted loop closed by a backward BNE
func arithmeticLoop() Benchmark {
	return Benchmark{
		Name:        "arithmetic_loop",
		Description: "100-iteration counted loop - measures loop-closing branches",
		Program: BuildProgram(
			addi(t0, zero, 0),
			addi(t1, zero, 100),
			// loop:
			addi(a0, a0, 1),
			addi(t0, t0, 1),
			branch(insts.OpBNE, t0, t1, -8),
			addi(a7, zero, 93),
			insts.WordECALL,
		),
		ExpectedExit: 100,
	}
}

// 7. Memory Copy - Fills a 16-word buffer, copies it and sums the copy
func memoryCopy() Benchmark {
	return Benchmark{
		Name:        "memory_copy",
		Description: "Fill, copy and sum 16 words - measures load/store streams",
		Program: BuildProgram(
			addi(t0, zero, 0),
			addi(t1, zero, 16),
			addi(t2, gp, 0),
			// fill: store 1..16
			addi(t0, t0, 1),
			sw(t0, t2, 0),
			addi(t2, t2, 4),
			branch(insts.OpBNE, t0, t1, -12),
			// copy gp[0:64] to gp[64:128] and sum
			addi(t2, gp, 0),
			addi(t3, gp, 64),
			addi(t4, gp, 64),
			lw(t5, t2, 0),
			sw(t5, t3, 0),
			insts.Encode(insts.OpADD, a0, a0, t5, 0),
			addi(t2, t2, 4),
			addi(t3, t3, 4),
			branch(insts.OpBNE, t2, t4, -20),
			addi(a7, zero, 93),
			insts.WordECALL,
		),
		DataSize:     128,
		ExpectedExit: 136, // 1 + 2 + ... + 16
	}
}

// 8. Branch Heavy - Data-dependent branch taken every other iteration
func branchHeavy() Benchmark {
	return Benchmark{
		Name:        "branch_heavy",
		Description: "Count even numbers below 20 - alternating taken/not-taken branches",
		Program: BuildProgram(
			addi(t0, zero, 0),
			addi(t1, zero, 20),
			// loop:
			insts.Encode(insts.OpANDI, t2, t0, 0, 1),
			branch(insts.OpBNE, t2, zero, 8), // odd: skip the count
			addi(a0, a0, 1),
			addi(t0, t0, 1),
			branch(insts.OpBLT, t0, t1, -16),
			addi(a7, zero, 93),
			insts.WordECALL,
		),
		ExpectedExit: 10,
	}
}

// Instruction helpers

func addi(rd, rs1 uint8, imm int32) uint32 {
	return insts.Encode(insts.OpADDI, rd, rs1, 0, imm)
}

func lw(rd, rs1 uint8, offset int32) uint32 {
	return insts.Encode(insts.OpLW, rd, rs1, 0, offset)
}

func sw(rs2, rs1 uint8, offset int32) uint32 {
	return insts.Encode(insts.OpSW, 0, rs1, rs2, offset)
}

func jal(rd uint8, offset int32) uint32 {
	return insts.Encode(insts.OpJAL, rd, 0, 0, offset)
}

func ret() uint32 {
	return insts.Encode(insts.OpJALR, zero, ra, 0, 0)
}

func branch(op insts.Op, rs1, rs2 uint8, offset int32) uint32 {
	return insts.Encode(op, 0, rs1, rs2, offset)
}

// exit returns the exit sequence with the result already in a0.
func exit() []uint32 {
	return []uint32{
		addi(a7, zero, 93),
		insts.WordECALL,
	}
}
