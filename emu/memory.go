package emu

import (
	"errors"
	"fmt"
)

// ErrOutOfBounds is returned for any access outside the memory window.
var ErrOutOfBounds = errors.New("memory access out of bounds")

// Memory is a byte-addressable window over a caller-owned buffer covering
// the address range [start, end). Address a maps to buffer offset a-start.
type Memory struct {
	bytes []byte
	start uint32
	end   uint32
}

// NewMemory wraps buf as the window [start, end). The buffer is borrowed,
// not copied; writes through the Memory are visible to the caller.
func NewMemory(buf []byte, start, end uint32) (*Memory, error) {
	if end < start {
		return nil, fmt.Errorf("invalid memory window [0x%08x, 0x%08x)", start, end)
	}
	if uint64(len(buf)) < uint64(end-start) {
		return nil, fmt.Errorf("buffer of %d bytes is smaller than window [0x%08x, 0x%08x)",
			len(buf), start, end)
	}

	return &Memory{
		bytes: buf[:end-start],
		start: start,
		end:   end,
	}, nil
}

// Read8 reads the byte at addr.
func (m *Memory) Read8(addr uint32) (uint8, error) {
	if !m.Contains(addr) {
		return 0, m.boundsError(addr)
	}
	return m.bytes[addr-m.start], nil
}

// Write8 writes the byte at addr.
func (m *Memory) Write8(addr uint32, value uint8) error {
	if !m.Contains(addr) {
		return m.boundsError(addr)
	}
	m.bytes[addr-m.start] = value
	return nil
}

// Contains reports whether addr lies inside the window.
func (m *Memory) Contains(addr uint32) bool {
	return addr >= m.start && addr < m.end
}

// Size returns end - start.
func (m *Memory) Size() uint32 {
	return m.end - m.start
}

// StartAddr returns the first valid address.
func (m *Memory) StartAddr() uint32 {
	return m.start
}

// EndAddr returns the first address past the window.
func (m *Memory) EndAddr() uint32 {
	return m.end
}

func (m *Memory) boundsError(addr uint32) error {
	return fmt.Errorf("%w: address 0x%08x not in [0x%08x, 0x%08x)", ErrOutOfBounds, addr, m.start, m.end)
}
