package emu

import (
	"fmt"

	"github.com/sarchlab/rv32sim/insts"
)

// AccessKind tells an AccessObserver what caused a memory access.
type AccessKind uint8

// Access kinds.
const (
	AccessFetch AccessKind = iota
	AccessLoad
	AccessStore
)

// String returns a short name for the access kind.
func (k AccessKind) String() string {
	switch k {
	case AccessFetch:
		return "fetch"
	case AccessLoad:
		return "load"
	case AccessStore:
		return "store"
	default:
		return fmt.Sprintf("AccessKind(%d)", uint8(k))
	}
}

// AccessObserver is notified of every successful memory access the CPU
// performs. It is used by timing models and never changes the outcome.
type AccessObserver interface {
	ObserveAccess(kind AccessKind, addr uint32, size int)
}

// LoadStoreUnit implements RV32I load and store operations.
// Multi-byte values are little-endian and composed from byte accesses.
// Misaligned addresses are allowed.
type LoadStoreUnit struct {
	regFile  *RegFile
	memory   *Memory
	observer AccessObserver
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and memory.
func NewLoadStoreUnit(regFile *RegFile, memory *Memory) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		memory:  memory,
	}
}

// SetObserver installs an access observer. nil disables observation.
func (lsu *LoadStoreUnit) SetObserver(o AccessObserver) {
	lsu.observer = o
}

// Load performs rd = mem[rs1 + offset], sign- or zero-extended per op.
func (lsu *LoadStoreUnit) Load(op insts.Op, rd, rs1 uint8, offset int32) error {
	addr := lsu.regFile.ReadReg(rs1) + uint32(offset)

	var (
		size   int
		signed bool
	)
	switch op {
	case insts.OpLB:
		size, signed = 1, true
	case insts.OpLH:
		size, signed = 2, true
	case insts.OpLW:
		size = 4
	case insts.OpLBU:
		size = 1
	case insts.OpLHU:
		size = 2
	default:
		return fmt.Errorf("%w: %s is not a load", ErrUnimplemented, op)
	}

	value, err := lsu.read(addr, size)
	if err != nil {
		return err
	}

	if signed {
		value = uint32(insts.SignExtend(value, uint(size*8)))
	}

	lsu.regFile.WriteReg(rd, value)
	lsu.observe(AccessLoad, addr, size)

	return nil
}

// Store performs mem[rs1 + offset] = rs2, truncated to the width of op.
func (lsu *LoadStoreUnit) Store(op insts.Op, rs1, rs2 uint8, offset int32) error {
	addr := lsu.regFile.ReadReg(rs1) + uint32(offset)
	value := lsu.regFile.ReadReg(rs2)

	var size int
	switch op {
	case insts.OpSB:
		size = 1
	case insts.OpSH:
		size = 2
	case insts.OpSW:
		size = 4
	default:
		return fmt.Errorf("%w: %s is not a store", ErrUnimplemented, op)
	}

	if err := lsu.write(addr, size, value); err != nil {
		return err
	}

	lsu.observe(AccessStore, addr, size)

	return nil
}

// Fetch reads the 32-bit instruction word at addr.
func (lsu *LoadStoreUnit) Fetch(addr uint32) (uint32, error) {
	word, err := lsu.read(addr, 4)
	if err != nil {
		return 0, err
	}

	lsu.observe(AccessFetch, addr, 4)

	return word, nil
}

// read assembles size bytes starting at addr, little-endian.
func (lsu *LoadStoreUnit) read(addr uint32, size int) (uint32, error) {
	var value uint32
	for i := 0; i < size; i++ {
		b, err := lsu.memory.Read8(addr + uint32(i))
		if err != nil {
			return 0, err
		}
		value |= uint32(b) << (8 * i)
	}
	return value, nil
}

// write stores the low size bytes of value at addr, little-endian. The whole
// range is checked first so a faulting store leaves memory untouched.
func (lsu *LoadStoreUnit) write(addr uint32, size int, value uint32) error {
	for i := 0; i < size; i++ {
		if a := addr + uint32(i); !lsu.memory.Contains(a) {
			return lsu.memory.boundsError(a)
		}
	}

	for i := 0; i < size; i++ {
		if err := lsu.memory.Write8(addr+uint32(i), uint8(value>>(8*i))); err != nil {
			return err
		}
	}
	return nil
}

func (lsu *LoadStoreUnit) observe(kind AccessKind, addr uint32, size int) {
	if lsu.observer != nil {
		lsu.observer.ObserveAccess(kind, addr, size)
	}
}
