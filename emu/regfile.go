// Package emu provides functional RV32I emulation.
package emu

import (
	"fmt"

	"github.com/sarchlab/rv32sim/insts"
)

// RegFile represents the RV32I register file.
// It contains 32 general-purpose registers (x0-x31) and the program counter.
type RegFile struct {
	// X holds general-purpose registers x0-x31.
	// X[0] is hard-wired to zero; the CPU clears it at every cycle boundary.
	X [32]uint32

	// PC is the program counter.
	PC uint32
}

// ReadReg reads a register value.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	return r.X[reg&0x1F]
}

// WriteReg writes a value to a register. Writes to x0 are accepted and
// discarded at the next cycle boundary.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	r.X[reg&0x1F] = value
}

// ClearZero forces x0 back to zero.
func (r *RegFile) ClearZero() {
	r.X[0] = 0
}

// ABIName returns the calling-convention name of a register.
func ABIName(reg uint8) string {
	return insts.RegName(reg)
}

// Named accessors. They alias X and hold no storage of their own.

// Zero returns x0.
func (r *RegFile) Zero() uint32 { return r.X[0] }

// RA returns the return address register (x1).
func (r *RegFile) RA() uint32 { return r.X[1] }

// SP returns the stack pointer (x2).
func (r *RegFile) SP() uint32 { return r.X[2] }

// GP returns the global pointer (x3).
func (r *RegFile) GP() uint32 { return r.X[3] }

// TP returns the thread pointer (x4).
func (r *RegFile) TP() uint32 { return r.X[4] }

// T returns temporary register tN. It panics unless 0 <= n <= 6.
func (r *RegFile) T(n int) uint32 {
	checkABIIndex("t", n, 7)
	if n < 3 {
		return r.X[5+n]
	}
	return r.X[28+n-3]
}

// S returns saved register sN; s0 doubles as the frame pointer.
// It panics unless 0 <= n <= 11.
func (r *RegFile) S(n int) uint32 {
	checkABIIndex("s", n, 12)
	if n < 2 {
		return r.X[8+n]
	}
	return r.X[18+n-2]
}

// A returns argument register aN. It panics unless 0 <= n <= 7.
func (r *RegFile) A(n int) uint32 {
	checkABIIndex("a", n, 8)
	return r.X[10+n]
}

// checkABIIndex panics when n is outside a register class of the given size.
func checkABIIndex(class string, n, size int) {
	if n < 0 || n >= size {
		panic(fmt.Sprintf("emu: register %s%d out of range (%s0-%s%d)", class, n, class, class, size-1))
	}
}

// A0 returns a0, the first argument and return value register.
func (r *RegFile) A0() uint32 { return r.X[10] }

// A1 returns a1.
func (r *RegFile) A1() uint32 { return r.X[11] }

// A2 returns a2.
func (r *RegFile) A2() uint32 { return r.X[12] }

// A7 returns a7, which carries the environment call number.
func (r *RegFile) A7() uint32 { return r.X[17] }

// SetRA sets the return address register.
func (r *RegFile) SetRA(v uint32) { r.X[1] = v }

// SetSP sets the stack pointer.
func (r *RegFile) SetSP(v uint32) { r.X[2] = v }

// SetGP sets the global pointer.
func (r *RegFile) SetGP(v uint32) { r.X[3] = v }

// SetA sets argument register aN. It panics unless 0 <= n <= 7.
func (r *RegFile) SetA(n int, v uint32) {
	checkABIIndex("a", n, 8)
	r.X[10+n] = v
}
