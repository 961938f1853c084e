// Package loader provides ELF binary loading for RV32I executables.
package loader

import (
	"debug/elf"
	"errors"
	"fmt"
	"io"

	"github.com/sarchlab/rv32sim/emu"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// Symbols used to delimit the image.
const (
	SymbolStart  = "_start"
	SymbolEnd    = "_end"
	SymbolToHost = "tohost"
)

// ErrEmptyImage is returned when an ELF file has nothing to load.
var ErrEmptyImage = errors.New("empty program image")

// Segment represents a loadable segment from an ELF binary.
type Segment struct {
	// VirtAddr is the virtual address where this segment should be loaded.
	VirtAddr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Program represents a loaded ELF program ready for execution.
type Program struct {
	// EntryPoint is the ELF entry address.
	EntryPoint uint32
	// StartAddr is the first address of the image, from _start when present.
	StartAddr uint32
	// EndAddr is one past the last address of the image, from _end when
	// present.
	EndAddr uint32
	// ToHost is the address of the tohost symbol, valid if HasToHost.
	ToHost    uint32
	HasToHost bool
	// Segments contains all loadable segments from the ELF file.
	Segments []Segment
	// Image is the flat contents of [StartAddr, EndAddr) with BSS zeroed.
	Image []byte
}

// Memory wraps the program image in a memory window. The window shares
// the Image buffer, so stores made by the CPU are visible in Image.
func (p *Program) Memory() (*emu.Memory, error) {
	return emu.NewMemory(p.Image, p.StartAddr, p.EndAddr)
}

// Load parses an RV32 ELF binary from path.
func Load(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return load(f)
}

// Parse parses an RV32 ELF binary from r.
func Parse(r io.ReaderAt) (*Program, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ELF file: %w", err)
	}

	return load(f)
}

func load(f *elf.File) (*Program, error) {
	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("not a 32-bit ELF file")
	}

	if f.Data != elf.ELFDATA2LSB {
		return nil, fmt.Errorf("not a little-endian ELF file")
	}

	if f.Machine != elf.EM_RISCV {
		return nil, fmt.Errorf("not a RISC-V ELF file (machine type: %v)", f.Machine)
	}

	prog := &Program{
		EntryPoint: uint32(f.Entry),
	}

	segments, err := readSegments(f)
	if err != nil {
		return nil, err
	}
	prog.Segments = segments

	if err := prog.resolveBounds(f); err != nil {
		return nil, err
	}

	prog.buildImage()

	return prog, nil
}

func readSegments(f *elf.File) ([]Segment, error) {
	var segments []Segment

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		segments = append(segments, Segment{
			VirtAddr: uint32(phdr.Vaddr),
			Data:     data,
			MemSize:  uint32(phdr.Memsz),
			Flags:    flags,
		})
	}

	return segments, nil
}

// resolveBounds sets the image window from the _start, _end and tohost
// symbols, falling back to the extent of the loadable segments.
func (p *Program) resolveBounds(f *elf.File) error {
	symbols := symbolTable(f)

	start, hasStart := symbols[SymbolStart]
	end, hasEnd := symbols[SymbolEnd]
	p.ToHost, p.HasToHost = symbols[SymbolToHost]

	if !hasStart || !hasEnd {
		lo, hi, ok := p.segmentExtent()
		if !ok {
			return ErrEmptyImage
		}
		if !hasStart {
			start = lo
		}
		if !hasEnd {
			end = hi
		}
	}

	if end <= start {
		return fmt.Errorf("%w: end 0x%08x is not after start 0x%08x", ErrEmptyImage, end, start)
	}

	p.StartAddr = start
	p.EndAddr = end

	return nil
}

func (p *Program) segmentExtent() (lo, hi uint32, ok bool) {
	for _, seg := range p.Segments {
		if seg.MemSize == 0 {
			continue
		}
		segEnd := seg.VirtAddr + seg.MemSize
		if !ok || seg.VirtAddr < lo {
			lo = seg.VirtAddr
		}
		if !ok || segEnd > hi {
			hi = segEnd
		}
		ok = true
	}
	return lo, hi, ok
}

// buildImage copies segment bytes that fall inside the window. Bytes past
// a segment's file size stay zero.
func (p *Program) buildImage() {
	p.Image = make([]byte, p.EndAddr-p.StartAddr)

	for _, seg := range p.Segments {
		for i, b := range seg.Data {
			addr := seg.VirtAddr + uint32(i)
			if addr < p.StartAddr || addr >= p.EndAddr {
				continue
			}
			p.Image[addr-p.StartAddr] = b
		}
	}
}

// symbolTable returns the values of the symbols of interest. Files without
// a symbol table yield an empty map.
func symbolTable(f *elf.File) map[string]uint32 {
	values := make(map[string]uint32)

	syms, err := f.Symbols()
	if err != nil {
		return values
	}

	for _, sym := range syms {
		switch sym.Name {
		case SymbolStart, SymbolEnd, SymbolToHost:
			if _, seen := values[sym.Name]; !seen {
				values[sym.Name] = uint32(sym.Value)
			}
		}
	}

	return values
}
