package emu

// Hart is the view of a running CPU given to an ECallHandler. It exposes
// registers and memory for reading, plus the ability to stop the run.
type Hart interface {
	// ReadReg reads an integer register.
	ReadReg(reg uint8) uint32
	// Registers returns a copy of the register file, PC included.
	Registers() RegFile
	// PC returns the address of the ECALL instruction being executed.
	PC() uint32
	// Read8 reads a byte of guest memory.
	Read8(addr uint32) (uint8, error)
	// Abort stops the CPU before its next cycle.
	Abort()
}

// ECallHandler supplies the behaviour of the ECALL instruction.
// RISC-V environment call convention:
//   - Call number in a7 (x17)
//   - Arguments in a0-a6
type ECallHandler interface {
	HandleECall(h Hart)
}

// ECallHandlerFunc adapts a function to the ECallHandler interface.
type ECallHandlerFunc func(h Hart)

// HandleECall calls f(h).
func (f ECallHandlerFunc) HandleECall(h Hart) {
	f(h)
}

type hartView struct {
	cpu *CPU
}

func (v hartView) ReadReg(reg uint8) uint32 {
	return v.cpu.regFile.ReadReg(reg)
}

func (v hartView) Registers() RegFile {
	return *v.cpu.regFile
}

func (v hartView) PC() uint32 {
	return v.cpu.regFile.PC
}

func (v hartView) Read8(addr uint32) (uint8, error) {
	return v.cpu.memory.Read8(addr)
}

func (v hartView) Abort() {
	v.cpu.halt.Abort()
}
