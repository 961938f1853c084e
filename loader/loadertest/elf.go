// Package loadertest builds small ELF32 executables in memory for tests.
package loadertest

import (
	"encoding/binary"
	"os"
)

// ELF constants used by tests.
const (
	MachineRISCV  = 243
	MachineX86_64 = 62
	SegmentLoad   = 1
	SegmentNote   = 4
	FlagsRX       = 0x5
	FlagsRW       = 0x6
)

const (
	elf32HeaderSize  = 52
	elf32PhdrSize    = 32
	elf32ShdrSize    = 40
	elf32SymSize     = 16
	sectionSymtab    = 2
	sectionStrtab    = 3
	sectionIndexAbs  = 0xFFF1
	symbolInfoGlobal = 0x10
)

// Segment is a program header and its file contents.
type Segment struct {
	Type  uint32
	Vaddr uint32
	Data  []byte
	Memsz uint32
	Flags uint32
}

// Symbol is an absolute global symbol.
type Symbol struct {
	Name  string
	Value uint32
}

// ELF describes a little-endian ELF32 executable. Machine defaults to
// RISC-V.
type ELF struct {
	Machine  uint16
	Entry    uint32
	Segments []Segment
	Symbols  []Symbol
}

// Words encodes instruction words little-endian.
func Words(ws ...uint32) []byte {
	out := make([]byte, len(ws)*4)
	for i, w := range ws {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

// CodeSegment returns a readable, executable PT_LOAD segment.
func CodeSegment(vaddr uint32, data []byte) Segment {
	return Segment{
		Type:  SegmentLoad,
		Vaddr: vaddr,
		Data:  data,
		Memsz: uint32(len(data)),
		Flags: FlagsRX,
	}
}

// Build lays out: ELF header, program headers, segment data, and when
// symbols are present .strtab, .shstrtab, .symtab and section headers.
func (e ELF) Build() []byte {
	le := binary.LittleEndian

	machine := e.Machine
	if machine == 0 {
		machine = MachineRISCV
	}

	phoff := uint32(elf32HeaderSize)
	offset := phoff + uint32(len(e.Segments))*elf32PhdrSize

	out := make([]byte, offset)

	copy(out[0:4], []byte{0x7f, 'E', 'L', 'F'})
	out[4] = 1 // ELFCLASS32
	out[5] = 1 // little endian
	out[6] = 1 // version

	le.PutUint16(out[16:], 2) // ET_EXEC
	le.PutUint16(out[18:], machine)
	le.PutUint32(out[20:], 1)
	le.PutUint32(out[24:], e.Entry)
	le.PutUint32(out[28:], phoff)
	le.PutUint16(out[40:], elf32HeaderSize)
	le.PutUint16(out[42:], elf32PhdrSize)
	le.PutUint16(out[44:], uint16(len(e.Segments)))
	le.PutUint16(out[46:], elf32ShdrSize)

	for i, seg := range e.Segments {
		ph := out[phoff+uint32(i)*elf32PhdrSize:]
		le.PutUint32(ph[0:], seg.Type)
		le.PutUint32(ph[4:], uint32(len(out)))
		le.PutUint32(ph[8:], seg.Vaddr)
		le.PutUint32(ph[12:], seg.Vaddr)
		le.PutUint32(ph[16:], uint32(len(seg.Data)))
		le.PutUint32(ph[20:], seg.Memsz)
		le.PutUint32(ph[24:], seg.Flags)
		le.PutUint32(ph[28:], 4)
		out = append(out, seg.Data...)
	}

	if len(e.Symbols) == 0 {
		return out
	}

	// .strtab
	strtab := []byte{0}
	nameOffsets := make([]uint32, len(e.Symbols))
	for i, sym := range e.Symbols {
		nameOffsets[i] = uint32(len(strtab))
		strtab = append(strtab, sym.Name...)
		strtab = append(strtab, 0)
	}

	// .shstrtab
	shstrtab := []byte{0}
	shNames := map[string]uint32{}
	for _, n := range []string{".symtab", ".strtab", ".shstrtab"} {
		shNames[n] = uint32(len(shstrtab))
		shstrtab = append(shstrtab, n...)
		shstrtab = append(shstrtab, 0)
	}

	// .symtab, starting with the null symbol.
	symtab := make([]byte, elf32SymSize*(len(e.Symbols)+1))
	for i, sym := range e.Symbols {
		s := symtab[(i+1)*elf32SymSize:]
		le.PutUint32(s[0:], nameOffsets[i])
		le.PutUint32(s[4:], sym.Value)
		s[12] = symbolInfoGlobal
		le.PutUint16(s[14:], sectionIndexAbs)
	}

	align4 := func() {
		for len(out)%4 != 0 {
			out = append(out, 0)
		}
	}

	align4()
	symtabOff := uint32(len(out))
	out = append(out, symtab...)
	strtabOff := uint32(len(out))
	out = append(out, strtab...)
	shstrtabOff := uint32(len(out))
	out = append(out, shstrtab...)
	align4()

	shoff := uint32(len(out))
	shdrs := make([]byte, 4*elf32ShdrSize)
	putShdr := func(idx int, name, typ, off, size, link, info, entsize uint32) {
		sh := shdrs[idx*elf32ShdrSize:]
		le.PutUint32(sh[0:], name)
		le.PutUint32(sh[4:], typ)
		le.PutUint32(sh[16:], off)
		le.PutUint32(sh[20:], size)
		le.PutUint32(sh[24:], link)
		le.PutUint32(sh[28:], info)
		le.PutUint32(sh[32:], 1)
		le.PutUint32(sh[36:], entsize)
	}
	putShdr(1, shNames[".symtab"], sectionSymtab, symtabOff, uint32(len(symtab)), 2, 1, elf32SymSize)
	putShdr(2, shNames[".strtab"], sectionStrtab, strtabOff, uint32(len(strtab)), 0, 0, 0)
	putShdr(3, shNames[".shstrtab"], sectionStrtab, shstrtabOff, uint32(len(shstrtab)), 0, 0, 0)
	out = append(out, shdrs...)

	le.PutUint32(out[32:], shoff)
	le.PutUint16(out[48:], 4)
	le.PutUint16(out[50:], 3)

	return out
}

// WriteFile writes the built executable to path.
func (e ELF) WriteFile(path string) error {
	return os.WriteFile(path, e.Build(), 0o644)
}

// Minimal64Bit returns an ELF64 RISC-V header with no segments.
func Minimal64Bit() []byte {
	h := make([]byte, 64)
	copy(h[0:4], []byte{0x7f, 'E', 'L', 'F'})
	h[4] = 2 // ELFCLASS64
	h[5] = 1
	h[6] = 1
	binary.LittleEndian.PutUint16(h[16:], 2)
	binary.LittleEndian.PutUint16(h[18:], MachineRISCV)
	binary.LittleEndian.PutUint32(h[20:], 1)
	binary.LittleEndian.PutUint16(h[52:], 64)
	binary.LittleEndian.PutUint16(h[54:], 56)
	binary.LittleEndian.PutUint16(h[58:], 64)
	return h
}
