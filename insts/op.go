package insts

// Op represents an RV32I operation.
type Op uint8

// RV32I operations.
const (
	OpUnknown Op = iota
	OpLUI
	OpAUIPC
	OpJAL
	OpJALR
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU
	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU
	OpSB
	OpSH
	OpSW
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND
	OpFENCE
	OpECALL
	OpEBREAK

	numOps
)

// Major opcodes, bits [6:0] of the instruction word.
const (
	OpcodeLoad   uint32 = 0b0000011
	OpcodeFence  uint32 = 0b0001111
	OpcodeOpImm  uint32 = 0b0010011
	OpcodeAUIPC  uint32 = 0b0010111
	OpcodeStore  uint32 = 0b0100011
	OpcodeOp     uint32 = 0b0110011
	OpcodeLUI    uint32 = 0b0110111
	OpcodeBranch uint32 = 0b1100011
	OpcodeJALR   uint32 = 0b1100111
	OpcodeJAL    uint32 = 0b1101111
	OpcodeSystem uint32 = 0b1110011
)

// Fixed encodings of the SYSTEM instructions this simulator knows about.
const (
	WordECALL  uint32 = 0x00000073
	WordEBREAK uint32 = 0x00100073
	// WordUnimp is the canonical "unimp" encoding (csrrw zero, cycle, zero).
	WordUnimp uint32 = 0xC0001073
)

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR              // register-register
	FormatI              // register-immediate, loads, JALR, SYSTEM
	FormatS              // stores
	FormatB              // conditional branches
	FormatU              // upper immediates
	FormatJ              // JAL
)

var opNames = [numOps]string{
	OpUnknown: "<unknown>",
	OpLUI:     "lui",
	OpAUIPC:   "auipc",
	OpJAL:     "jal",
	OpJALR:    "jalr",
	OpBEQ:     "beq",
	OpBNE:     "bne",
	OpBLT:     "blt",
	OpBGE:     "bge",
	OpBLTU:    "bltu",
	OpBGEU:    "bgeu",
	OpLB:      "lb",
	OpLH:      "lh",
	OpLW:      "lw",
	OpLBU:     "lbu",
	OpLHU:     "lhu",
	OpSB:      "sb",
	OpSH:      "sh",
	OpSW:      "sw",
	OpADDI:    "addi",
	OpSLTI:    "slti",
	OpSLTIU:   "sltiu",
	OpXORI:    "xori",
	OpORI:     "ori",
	OpANDI:    "andi",
	OpSLLI:    "slli",
	OpSRLI:    "srli",
	OpSRAI:    "srai",
	OpADD:     "add",
	OpSUB:     "sub",
	OpSLL:     "sll",
	OpSLT:     "slt",
	OpSLTU:    "sltu",
	OpXOR:     "xor",
	OpSRL:     "srl",
	OpSRA:     "sra",
	OpOR:      "or",
	OpAND:     "and",
	OpFENCE:   "fence",
	OpECALL:   "ecall",
	OpEBREAK:  "ebreak",
}

// String returns the lowercase mnemonic of the operation.
func (op Op) String() string {
	if op >= numOps {
		return opNames[OpUnknown]
	}
	return opNames[op]
}

// Format returns the encoding format used by the operation.
func (op Op) Format() Format {
	switch {
	case op == OpLUI || op == OpAUIPC:
		return FormatU
	case op == OpJAL:
		return FormatJ
	case op >= OpBEQ && op <= OpBGEU:
		return FormatB
	case op >= OpSB && op <= OpSW:
		return FormatS
	case op >= OpADD && op <= OpAND:
		return FormatR
	case op == OpUnknown || op >= numOps:
		return FormatUnknown
	default:
		return FormatI
	}
}

// IsBranch reports whether op is one of the six conditional branches.
func (op Op) IsBranch() bool {
	return op >= OpBEQ && op <= OpBGEU
}

// IsLoad reports whether op reads memory.
func (op Op) IsLoad() bool {
	return op >= OpLB && op <= OpLHU
}

// IsStore reports whether op writes memory.
func (op Op) IsStore() bool {
	return op >= OpSB && op <= OpSW
}

// Classify maps an (opcode, funct3, funct7) tuple to an operation.
// It never fails; tuples outside the RV32I map yield OpUnknown.
//
// SYSTEM instructions are distinguished by bits outside these three fields,
// so for OpcodeSystem Classify only recognises the funct3=000 group as
// ECALL. Use ClassifyWord to tell ECALL from EBREAK.
func Classify(opcode, funct3, funct7 uint32) Op {
	switch opcode {
	case OpcodeLUI:
		return OpLUI
	case OpcodeAUIPC:
		return OpAUIPC
	case OpcodeJAL:
		return OpJAL
	case OpcodeJALR:
		if funct3 == 0b000 {
			return OpJALR
		}
	case OpcodeBranch:
		return classifyBranch(funct3)
	case OpcodeLoad:
		return classifyLoad(funct3)
	case OpcodeStore:
		return classifyStore(funct3)
	case OpcodeOpImm:
		return classifyOpImm(funct3, funct7)
	case OpcodeOp:
		return classifyOp(funct3, funct7)
	case OpcodeFence:
		if funct3 == 0b000 {
			return OpFENCE
		}
	case OpcodeSystem:
		if funct3 == 0b000 && funct7 == 0 {
			return OpECALL
		}
	}

	return OpUnknown
}

// ClassifyWord classifies a full instruction word.
func ClassifyWord(w Word) Op {
	if w.Opcode() == OpcodeSystem {
		switch uint32(w) {
		case WordECALL:
			return OpECALL
		case WordEBREAK:
			return OpEBREAK
		default:
			return OpUnknown
		}
	}

	return Classify(w.Opcode(), w.Funct3(), w.Funct7())
}

func classifyBranch(funct3 uint32) Op {
	switch funct3 {
	case 0b000:
		return OpBEQ
	case 0b001:
		return OpBNE
	case 0b100:
		return OpBLT
	case 0b101:
		return OpBGE
	case 0b110:
		return OpBLTU
	case 0b111:
		return OpBGEU
	}
	return OpUnknown
}

func classifyLoad(funct3 uint32) Op {
	switch funct3 {
	case 0b000:
		return OpLB
	case 0b001:
		return OpLH
	case 0b010:
		return OpLW
	case 0b100:
		return OpLBU
	case 0b101:
		return OpLHU
	}
	return OpUnknown
}

func classifyStore(funct3 uint32) Op {
	switch funct3 {
	case 0b000:
		return OpSB
	case 0b001:
		return OpSH
	case 0b010:
		return OpSW
	}
	return OpUnknown
}

// classifyOpImm decodes the OP-IMM group. Only the shifts look at funct7;
// for the others those bits belong to the immediate.
func classifyOpImm(funct3, funct7 uint32) Op {
	switch funct3 {
	case 0b000:
		return OpADDI
	case 0b010:
		return OpSLTI
	case 0b011:
		return OpSLTIU
	case 0b100:
		return OpXORI
	case 0b110:
		return OpORI
	case 0b111:
		return OpANDI
	case 0b001:
		if funct7 == 0b0000000 {
			return OpSLLI
		}
	case 0b101:
		switch funct7 {
		case 0b0000000:
			return OpSRLI
		case 0b0100000:
			return OpSRAI
		}
	}
	return OpUnknown
}

func classifyOp(funct3, funct7 uint32) Op {
	switch funct7 {
	case 0b0000000:
		switch funct3 {
		case 0b000:
			return OpADD
		case 0b001:
			return OpSLL
		case 0b010:
			return OpSLT
		case 0b011:
			return OpSLTU
		case 0b100:
			return OpXOR
		case 0b101:
			return OpSRL
		case 0b110:
			return OpOR
		case 0b111:
			return OpAND
		}
	case 0b0100000:
		switch funct3 {
		case 0b000:
			return OpSUB
		case 0b101:
			return OpSRA
		}
	}
	return OpUnknown
}
