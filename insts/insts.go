// Package insts provides RV32I instruction definitions and decoding.
//
// This package implements decoding of RISC-V machine code into structured
// instruction representations. It covers the whole RV32I base integer set:
//   - Upper immediates: LUI, AUIPC
//   - Jumps and branches: JAL, JALR, BEQ, BNE, BLT, BGE, BLTU, BGEU
//   - Loads and stores: LB, LH, LW, LBU, LHU, SB, SH, SW
//   - Register-immediate and register-register ALU operations
//   - FENCE, ECALL and EBREAK
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x02a00093) // addi ra, zero, 42
//	fmt.Printf("Op: %v, Rd: %d, Imm: %d\n", inst.Op, inst.Word.Rd(), inst.Word.ImmI())
package insts
