package insts

import "fmt"

// Word is a raw 32-bit RV32I instruction word.
// All field and immediate accessors are pure functions of the word.
type Word uint32

// Opcode returns bits [6:0].
func (w Word) Opcode() uint32 { return uint32(w) & 0x7F }

// Rd returns bits [11:7].
func (w Word) Rd() uint8 { return uint8((w >> 7) & 0x1F) }

// Funct3 returns bits [14:12].
func (w Word) Funct3() uint32 { return uint32(w>>12) & 0x7 }

// Rs1 returns bits [19:15].
func (w Word) Rs1() uint8 { return uint8((w >> 15) & 0x1F) }

// Rs2 returns bits [24:20].
func (w Word) Rs2() uint8 { return uint8((w >> 20) & 0x1F) }

// Funct7 returns bits [31:25].
func (w Word) Funct7() uint32 { return uint32(w>>25) & 0x7F }

// ImmI returns the I-type immediate: imm[11:0] = bits [31:20].
func (w Word) ImmI() int32 {
	return SignExtend(uint32(w)>>20, 12)
}

// ImmS returns the S-type immediate: imm[11:5] = bits [31:25], imm[4:0] = bits [11:7].
func (w Word) ImmS() int32 {
	v := (uint32(w)>>25)<<5 | (uint32(w)>>7)&0x1F
	return SignExtend(v, 12)
}

// ImmB returns the B-type immediate.
// Format: imm[12|10:5] in bits [31:25], imm[4:1|11] in bits [11:7].
func (w Word) ImmB() int32 {
	u := uint32(w)
	v := (u>>31&0x1)<<12 | // imm[12]
		(u>>7&0x1)<<11 | // imm[11]
		(u>>25&0x3F)<<5 | // imm[10:5]
		(u>>8&0xF)<<1 // imm[4:1]
	return SignExtend(v, 13)
}

// ImmU returns the U-type immediate, left-justified with the low 12 bits zero.
func (w Word) ImmU() int32 {
	return SignExtend(uint32(w)>>12, 20) << 12
}

// ImmJ returns the J-type immediate.
// Format: imm[20|10:1|11|19:12] in bits [31:12].
func (w Word) ImmJ() int32 {
	u := uint32(w)
	v := (u>>31&0x1)<<20 | // imm[20]
		(u>>12&0xFF)<<12 | // imm[19:12]
		(u>>20&0x1)<<11 | // imm[11]
		(u>>21&0x3FF)<<1 // imm[10:1]
	return SignExtend(v, 21)
}

// Shamt returns the shift amount of a shift-immediate, the low 5 bits of imm[11:0].
func (w Word) Shamt() uint32 {
	return uint32(w.ImmI()) & 0x1F
}

// SignExtend interprets the low width bits of v as a two's-complement
// number and extends it to 32 bits. Bits above width are ignored.
func SignExtend(v uint32, width uint) int32 {
	if width == 0 || width >= 32 {
		return int32(v)
	}
	shift := 32 - width
	return int32(v<<shift) >> shift
}

// Instruction represents a decoded RV32I instruction.
// Operand fields are not copied out; read them from Word.
type Instruction struct {
	Word   Word   // Raw instruction word
	Op     Op     // Operation
	Format Format // Encoding format
}

// Decoder decodes RV32I machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new RV32I instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit RV32I instruction word.
func (d *Decoder) Decode(word uint32) *Instruction {
	w := Word(word)
	op := ClassifyWord(w)

	return &Instruction{
		Word:   w,
		Op:     op,
		Format: op.Format(),
	}
}

// String renders the instruction in assembler syntax using ABI register names.
func (i *Instruction) String() string {
	w := i.Word
	rd, rs1, rs2 := RegName(w.Rd()), RegName(w.Rs1()), RegName(w.Rs2())

	switch {
	case i.Op == OpUnknown:
		return fmt.Sprintf("%s 0x%08x", i.Op, uint32(w))
	case i.Op == OpFENCE || i.Op == OpECALL || i.Op == OpEBREAK:
		return i.Op.String()
	case i.Op.IsLoad() || i.Op == OpJALR:
		return fmt.Sprintf("%s %s, %d(%s)", i.Op, rd, w.ImmI(), rs1)
	case i.Op == OpSLLI || i.Op == OpSRLI || i.Op == OpSRAI:
		return fmt.Sprintf("%s %s, %s, %d", i.Op, rd, rs1, w.Shamt())
	}

	switch i.Format {
	case FormatR:
		return fmt.Sprintf("%s %s, %s, %s", i.Op, rd, rs1, rs2)
	case FormatI:
		return fmt.Sprintf("%s %s, %s, %d", i.Op, rd, rs1, w.ImmI())
	case FormatS:
		return fmt.Sprintf("%s %s, %d(%s)", i.Op, rs2, w.ImmS(), rs1)
	case FormatB:
		return fmt.Sprintf("%s %s, %s, %d", i.Op, rs1, rs2, w.ImmB())
	case FormatU:
		return fmt.Sprintf("%s %s, 0x%x", i.Op, rd, uint32(w.ImmU())>>12)
	case FormatJ:
		return fmt.Sprintf("%s %s, %d", i.Op, rd, w.ImmJ())
	}

	return i.Op.String()
}
