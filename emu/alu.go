package emu

import "github.com/sarchlab/rv32sim/insts"

// ALU implements RV32I integer arithmetic and logic operations.
// All arithmetic wraps modulo 2^32; nothing traps on overflow.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// ExecuteReg performs a register-register operation: rd = rs1 OP rs2.
func (a *ALU) ExecuteReg(op insts.Op, rd, rs1, rs2 uint8) bool {
	op1 := a.regFile.ReadReg(rs1)
	op2 := a.regFile.ReadReg(rs2)

	result, ok := Compute(op, op1, op2)
	if !ok {
		return false
	}

	a.regFile.WriteReg(rd, result)
	return true
}

// ExecuteImm performs a register-immediate operation: rd = rs1 OP imm.
// The immediate is already sign-extended.
func (a *ALU) ExecuteImm(op insts.Op, rd, rs1 uint8, imm int32) bool {
	op1 := a.regFile.ReadReg(rs1)

	result, ok := Compute(op, op1, uint32(imm))
	if !ok {
		return false
	}

	a.regFile.WriteReg(rd, result)
	return true
}

// LUI loads a left-justified upper immediate: rd = imm.
func (a *ALU) LUI(rd uint8, imm int32) {
	a.regFile.WriteReg(rd, uint32(imm))
}

// AUIPC adds an upper immediate to the instruction address: rd = pc + imm.
func (a *ALU) AUIPC(rd uint8, pc uint32, imm int32) {
	a.regFile.WriteReg(rd, pc+uint32(imm))
}

// Compute evaluates an ALU operation on two operands. Shift operations use
// only the low 5 bits of op2. It reports false if op is not an ALU operation.
func Compute(op insts.Op, op1, op2 uint32) (uint32, bool) {
	shamt := op2 & 0x1F

	switch op {
	case insts.OpADD, insts.OpADDI:
		return op1 + op2, true
	case insts.OpSUB:
		return op1 - op2, true
	case insts.OpSLT, insts.OpSLTI:
		return boolToWord(int32(op1) < int32(op2)), true
	case insts.OpSLTU, insts.OpSLTIU:
		return boolToWord(op1 < op2), true
	case insts.OpXOR, insts.OpXORI:
		return op1 ^ op2, true
	case insts.OpOR, insts.OpORI:
		return op1 | op2, true
	case insts.OpAND, insts.OpANDI:
		return op1 & op2, true
	case insts.OpSLL, insts.OpSLLI:
		return op1 << shamt, true
	case insts.OpSRL, insts.OpSRLI:
		return op1 >> shamt, true
	case insts.OpSRA, insts.OpSRAI:
		return uint32(int32(op1) >> shamt), true
	}

	return 0, false
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
