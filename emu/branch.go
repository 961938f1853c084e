package emu

import "github.com/sarchlab/rv32sim/insts"

// BranchUnit implements RV32I jumps and conditional branches.
// Targets are computed from the address of the instruction itself, and the
// unit writes the new PC straight into the register file.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a new BranchUnit connected to the given register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// JAL jumps to pc + offset and links pc + 4 into rd.
func (b *BranchUnit) JAL(rd uint8, pc uint32, offset int32) {
	b.regFile.WriteReg(rd, pc+4)
	b.regFile.PC = pc + uint32(offset)
}

// JALR jumps to (rs1 + offset) with the low bit cleared and links pc + 4
// into rd.
func (b *BranchUnit) JALR(rd, rs1 uint8, pc uint32, offset int32) {
	// Read the base first in case rd == rs1.
	target := (b.regFile.ReadReg(rs1) + uint32(offset)) &^ 1

	b.regFile.WriteReg(rd, pc+4)
	b.regFile.PC = target
}

// Branch evaluates a conditional branch and, if taken, sets PC to
// pc + offset. It reports whether the branch was taken.
func (b *BranchUnit) Branch(op insts.Op, rs1, rs2 uint8, pc uint32, offset int32) bool {
	if !b.CheckCondition(op, b.regFile.ReadReg(rs1), b.regFile.ReadReg(rs2)) {
		return false
	}

	b.regFile.PC = pc + uint32(offset)
	return true
}

// CheckCondition evaluates the comparison of a branch operation.
func (b *BranchUnit) CheckCondition(op insts.Op, a, c uint32) bool {
	switch op {
	case insts.OpBEQ:
		return a == c
	case insts.OpBNE:
		return a != c
	case insts.OpBLT:
		return int32(a) < int32(c)
	case insts.OpBGE:
		return int32(a) >= int32(c)
	case insts.OpBLTU:
		return a < c
	case insts.OpBGEU:
		return a >= c
	default:
		return false
	}
}
