package insts

// Instruction encoders. They are the inverse of the Word accessors and are
// used to assemble test and benchmark programs.

// EncodeR encodes an R-type instruction.
func EncodeR(opcode uint32, rd uint8, funct3 uint32, rs1, rs2 uint8, funct7 uint32) uint32 {
	return funct7<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 | funct3<<12 | uint32(rd)<<7 | opcode
}

// EncodeI encodes an I-type instruction. Only the low 12 bits of imm are used.
func EncodeI(opcode uint32, rd uint8, funct3 uint32, rs1 uint8, imm int32) uint32 {
	return (uint32(imm)&0xFFF)<<20 | uint32(rs1)<<15 | funct3<<12 | uint32(rd)<<7 | opcode
}

// EncodeS encodes an S-type instruction.
func EncodeS(opcode uint32, funct3 uint32, rs1, rs2 uint8, imm int32) uint32 {
	u := uint32(imm)
	return (u>>5&0x7F)<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 | funct3<<12 | (u&0x1F)<<7 | opcode
}

// EncodeB encodes a B-type instruction. imm is a byte offset; bit 0 is dropped.
func EncodeB(opcode uint32, funct3 uint32, rs1, rs2 uint8, imm int32) uint32 {
	u := uint32(imm)
	return (u>>12&0x1)<<31 | (u>>5&0x3F)<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 |
		funct3<<12 | (u>>1&0xF)<<8 | (u>>11&0x1)<<7 | opcode
}

// EncodeU encodes a U-type instruction. imm is the left-justified value;
// its low 12 bits are dropped.
func EncodeU(opcode uint32, rd uint8, imm int32) uint32 {
	return uint32(imm)&0xFFFFF000 | uint32(rd)<<7 | opcode
}

// EncodeJ encodes a J-type instruction. imm is a byte offset; bit 0 is dropped.
func EncodeJ(opcode uint32, rd uint8, imm int32) uint32 {
	u := uint32(imm)
	return (u>>20&0x1)<<31 | (u>>1&0x3FF)<<21 | (u>>11&0x1)<<20 | (u>>12&0xFF)<<12 |
		uint32(rd)<<7 | opcode
}

type encoding struct {
	opcode uint32
	funct3 uint32
	funct7 uint32
}

var encodings = map[Op]encoding{
	OpLUI:   {OpcodeLUI, 0, 0},
	OpAUIPC: {OpcodeAUIPC, 0, 0},
	OpJAL:   {OpcodeJAL, 0, 0},
	OpJALR:  {OpcodeJALR, 0b000, 0},
	OpBEQ:   {OpcodeBranch, 0b000, 0},
	OpBNE:   {OpcodeBranch, 0b001, 0},
	OpBLT:   {OpcodeBranch, 0b100, 0},
	OpBGE:   {OpcodeBranch, 0b101, 0},
	OpBLTU:  {OpcodeBranch, 0b110, 0},
	OpBGEU:  {OpcodeBranch, 0b111, 0},
	OpLB:    {OpcodeLoad, 0b000, 0},
	OpLH:    {OpcodeLoad, 0b001, 0},
	OpLW:    {OpcodeLoad, 0b010, 0},
	OpLBU:   {OpcodeLoad, 0b100, 0},
	OpLHU:   {OpcodeLoad, 0b101, 0},
	OpSB:    {OpcodeStore, 0b000, 0},
	OpSH:    {OpcodeStore, 0b001, 0},
	OpSW:    {OpcodeStore, 0b010, 0},
	OpADDI:  {OpcodeOpImm, 0b000, 0},
	OpSLTI:  {OpcodeOpImm, 0b010, 0},
	OpSLTIU: {OpcodeOpImm, 0b011, 0},
	OpXORI:  {OpcodeOpImm, 0b100, 0},
	OpORI:   {OpcodeOpImm, 0b110, 0},
	OpANDI:  {OpcodeOpImm, 0b111, 0},
	OpSLLI:  {OpcodeOpImm, 0b001, 0b0000000},
	OpSRLI:  {OpcodeOpImm, 0b101, 0b0000000},
	OpSRAI:  {OpcodeOpImm, 0b101, 0b0100000},
	OpADD:   {OpcodeOp, 0b000, 0b0000000},
	OpSUB:   {OpcodeOp, 0b000, 0b0100000},
	OpSLL:   {OpcodeOp, 0b001, 0b0000000},
	OpSLT:   {OpcodeOp, 0b010, 0b0000000},
	OpSLTU:  {OpcodeOp, 0b011, 0b0000000},
	OpXOR:   {OpcodeOp, 0b100, 0b0000000},
	OpSRL:   {OpcodeOp, 0b101, 0b0000000},
	OpSRA:   {OpcodeOp, 0b101, 0b0100000},
	OpOR:    {OpcodeOp, 0b110, 0b0000000},
	OpAND:   {OpcodeOp, 0b111, 0b0000000},
	OpFENCE: {OpcodeFence, 0b000, 0},
}

// Encode assembles op with the given operands. Operands that the format
// does not use are ignored; for shift-immediates imm is the shift amount.
// Encode returns 0 for OpUnknown.
func Encode(op Op, rd, rs1, rs2 uint8, imm int32) uint32 {
	switch op {
	case OpECALL:
		return WordECALL
	case OpEBREAK:
		return WordEBREAK
	}

	enc, ok := encodings[op]
	if !ok {
		return 0
	}

	switch op.Format() {
	case FormatR:
		return EncodeR(enc.opcode, rd, enc.funct3, rs1, rs2, enc.funct7)
	case FormatS:
		return EncodeS(enc.opcode, enc.funct3, rs1, rs2, imm)
	case FormatB:
		return EncodeB(enc.opcode, enc.funct3, rs1, rs2, imm)
	case FormatU:
		return EncodeU(enc.opcode, rd, imm)
	case FormatJ:
		return EncodeJ(enc.opcode, rd, imm)
	}

	if op == OpSLLI || op == OpSRLI || op == OpSRAI {
		imm = int32(enc.funct7<<5) | imm&0x1F
	}
	return EncodeI(enc.opcode, rd, enc.funct3, rs1, imm)
}
