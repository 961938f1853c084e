package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/insts"
)

var _ = Describe("Classify", func() {
	DescribeTable("RV32I opcode map",
		func(opcode, funct3, funct7 uint32, want insts.Op) {
			Expect(insts.Classify(opcode, funct3, funct7)).To(Equal(want))
		},
		Entry("LUI ignores funct fields", insts.OpcodeLUI, uint32(0b101), uint32(0x7F), insts.OpLUI),
		Entry("AUIPC", insts.OpcodeAUIPC, uint32(0), uint32(0), insts.OpAUIPC),
		Entry("JAL", insts.OpcodeJAL, uint32(0b111), uint32(0), insts.OpJAL),
		Entry("JALR", insts.OpcodeJALR, uint32(0b000), uint32(0), insts.OpJALR),
		Entry("JALR with bad funct3", insts.OpcodeJALR, uint32(0b001), uint32(0), insts.OpUnknown),
		Entry("BEQ", insts.OpcodeBranch, uint32(0b000), uint32(0), insts.OpBEQ),
		Entry("BNE", insts.OpcodeBranch, uint32(0b001), uint32(0), insts.OpBNE),
		Entry("branch funct3=010", insts.OpcodeBranch, uint32(0b010), uint32(0), insts.OpUnknown),
		Entry("BLT", insts.OpcodeBranch, uint32(0b100), uint32(0), insts.OpBLT),
		Entry("BGE", insts.OpcodeBranch, uint32(0b101), uint32(0), insts.OpBGE),
		Entry("BLTU", insts.OpcodeBranch, uint32(0b110), uint32(0), insts.OpBLTU),
		Entry("BGEU", insts.OpcodeBranch, uint32(0b111), uint32(0), insts.OpBGEU),
		Entry("LB", insts.OpcodeLoad, uint32(0b000), uint32(0), insts.OpLB),
		Entry("LH", insts.OpcodeLoad, uint32(0b001), uint32(0), insts.OpLH),
		Entry("LW", insts.OpcodeLoad, uint32(0b010), uint32(0), insts.OpLW),
		Entry("load funct3=011", insts.OpcodeLoad, uint32(0b011), uint32(0), insts.OpUnknown),
		Entry("LBU", insts.OpcodeLoad, uint32(0b100), uint32(0), insts.OpLBU),
		Entry("LHU", insts.OpcodeLoad, uint32(0b101), uint32(0), insts.OpLHU),
		Entry("SB", insts.OpcodeStore, uint32(0b000), uint32(0), insts.OpSB),
		Entry("SH", insts.OpcodeStore, uint32(0b001), uint32(0), insts.OpSH),
		Entry("SW", insts.OpcodeStore, uint32(0b010), uint32(0), insts.OpSW),
		Entry("store funct3=100", insts.OpcodeStore, uint32(0b100), uint32(0), insts.OpUnknown),
		Entry("ADDI with immediate bits in funct7", insts.OpcodeOpImm, uint32(0b000), uint32(0x7F), insts.OpADDI),
		Entry("SLTI", insts.OpcodeOpImm, uint32(0b010), uint32(0), insts.OpSLTI),
		Entry("SLTIU", insts.OpcodeOpImm, uint32(0b011), uint32(0), insts.OpSLTIU),
		Entry("XORI", insts.OpcodeOpImm, uint32(0b100), uint32(0x20), insts.OpXORI),
		Entry("ORI", insts.OpcodeOpImm, uint32(0b110), uint32(0), insts.OpORI),
		Entry("ANDI", insts.OpcodeOpImm, uint32(0b111), uint32(0), insts.OpANDI),
		Entry("SLLI", insts.OpcodeOpImm, uint32(0b001), uint32(0b0000000), insts.OpSLLI),
		Entry("SLLI with funct7=0100000", insts.OpcodeOpImm, uint32(0b001), uint32(0b0100000), insts.OpUnknown),
		Entry("SRLI", insts.OpcodeOpImm, uint32(0b101), uint32(0b0000000), insts.OpSRLI),
		Entry("SRAI", insts.OpcodeOpImm, uint32(0b101), uint32(0b0100000), insts.OpSRAI),
		Entry("shift-right with funct7=0000001", insts.OpcodeOpImm, uint32(0b101), uint32(0b0000001), insts.OpUnknown),
		Entry("ADD", insts.OpcodeOp, uint32(0b000), uint32(0b0000000), insts.OpADD),
		Entry("SUB", insts.OpcodeOp, uint32(0b000), uint32(0b0100000), insts.OpSUB),
		Entry("SLL", insts.OpcodeOp, uint32(0b001), uint32(0b0000000), insts.OpSLL),
		Entry("SLT", insts.OpcodeOp, uint32(0b010), uint32(0b0000000), insts.OpSLT),
		Entry("SLTU", insts.OpcodeOp, uint32(0b011), uint32(0b0000000), insts.OpSLTU),
		Entry("XOR", insts.OpcodeOp, uint32(0b100), uint32(0b0000000), insts.OpXOR),
		Entry("SRL", insts.OpcodeOp, uint32(0b101), uint32(0b0000000), insts.OpSRL),
		Entry("SRA", insts.OpcodeOp, uint32(0b101), uint32(0b0100000), insts.OpSRA),
		Entry("OR", insts.OpcodeOp, uint32(0b110), uint32(0b0000000), insts.OpOR),
		Entry("AND", insts.OpcodeOp, uint32(0b111), uint32(0b0000000), insts.OpAND),
		Entry("M-extension MUL", insts.OpcodeOp, uint32(0b000), uint32(0b0000001), insts.OpUnknown),
		Entry("XOR with funct7=0100000", insts.OpcodeOp, uint32(0b100), uint32(0b0100000), insts.OpUnknown),
		Entry("FENCE", insts.OpcodeFence, uint32(0b000), uint32(0), insts.OpFENCE),
		Entry("FENCE.I", insts.OpcodeFence, uint32(0b001), uint32(0), insts.OpUnknown),
		Entry("SYSTEM funct3=000", insts.OpcodeSystem, uint32(0b000), uint32(0), insts.OpECALL),
		Entry("CSRRW", insts.OpcodeSystem, uint32(0b001), uint32(0), insts.OpUnknown),
		Entry("unassigned opcode", uint32(0b1111111), uint32(0), uint32(0), insts.OpUnknown),
	)

	It("should be total over every funct combination", func() {
		for opcode := uint32(0); opcode < 1<<7; opcode++ {
			for funct3 := uint32(0); funct3 < 1<<3; funct3++ {
				for _, funct7 := range []uint32{0, 0b0100000, 0b0000001, 0x7F} {
					Expect(func() { insts.Classify(opcode, funct3, funct7) }).NotTo(Panic())
				}
			}
		}
	})
})

var _ = Describe("Op", func() {
	It("should print lowercase mnemonics", func() {
		Expect(insts.OpADDI.String()).To(Equal("addi"))
		Expect(insts.OpBGEU.String()).To(Equal("bgeu"))
		Expect(insts.OpEBREAK.String()).To(Equal("ebreak"))
		Expect(insts.OpUnknown.String()).To(Equal("<unknown>"))
		Expect(insts.Op(200).String()).To(Equal("<unknown>"))
	})

	It("should report the encoding format", func() {
		Expect(insts.OpLUI.Format()).To(Equal(insts.FormatU))
		Expect(insts.OpJAL.Format()).To(Equal(insts.FormatJ))
		Expect(insts.OpJALR.Format()).To(Equal(insts.FormatI))
		Expect(insts.OpBLT.Format()).To(Equal(insts.FormatB))
		Expect(insts.OpLHU.Format()).To(Equal(insts.FormatI))
		Expect(insts.OpSH.Format()).To(Equal(insts.FormatS))
		Expect(insts.OpSRAI.Format()).To(Equal(insts.FormatI))
		Expect(insts.OpSRA.Format()).To(Equal(insts.FormatR))
		Expect(insts.OpECALL.Format()).To(Equal(insts.FormatI))
		Expect(insts.OpUnknown.Format()).To(Equal(insts.FormatUnknown))
	})

	It("should classify groups", func() {
		Expect(insts.OpBNE.IsBranch()).To(BeTrue())
		Expect(insts.OpJAL.IsBranch()).To(BeFalse())
		Expect(insts.OpLBU.IsLoad()).To(BeTrue())
		Expect(insts.OpSW.IsStore()).To(BeTrue())
		Expect(insts.OpADDI.IsStore()).To(BeFalse())
	})
})

var _ = Describe("Encode", func() {
	It("should produce words that classify back to the same op", func() {
		for op := insts.OpLUI; op <= insts.OpEBREAK; op++ {
			word := insts.Encode(op, 1, 2, 3, 4)
			Expect(insts.ClassifyWord(insts.Word(word))).To(Equal(op), "op %s", op)
		}
	})

	It("should return zero for unknown ops", func() {
		Expect(insts.Encode(insts.OpUnknown, 1, 2, 3, 4)).To(Equal(uint32(0)))
	})

	It("should match reference encodings", func() {
		Expect(insts.Encode(insts.OpADDI, 1, 0, 0, 5)).To(Equal(uint32(0x00500093)))
		Expect(insts.Encode(insts.OpJAL, 1, 0, 0, 8)).To(Equal(uint32(0x008000EF)))
		Expect(insts.Encode(insts.OpBEQ, 0, 0, 0, -8)).To(Equal(uint32(0xFE000CE3)))
		Expect(insts.Encode(insts.OpSW, 0, 1, 2, 0)).To(Equal(uint32(0x0020A023)))
		Expect(insts.Encode(insts.OpLUI, 10, 0, 0, 0x12345000)).To(Equal(uint32(0x12345537)))
	})
})
