package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
)

var _ = Describe("Memory", func() {
	var (
		buf []byte
		mem *emu.Memory
	)

	BeforeEach(func() {
		buf = []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88}
		var err error
		mem, err = emu.NewMemory(buf, 0x1000, 0x1008)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should report its bounds", func() {
		Expect(mem.StartAddr()).To(Equal(uint32(0x1000)))
		Expect(mem.EndAddr()).To(Equal(uint32(0x1008)))
		Expect(mem.Size()).To(Equal(uint32(8)))
	})

	It("should read relative to the start address", func() {
		b, err := mem.Read8(0x1000)
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(Equal(uint8(0x11)))

		b, err = mem.Read8(0x1007)
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(Equal(uint8(0x88)))
	})

	It("should write through to the borrowed buffer", func() {
		Expect(mem.Write8(0x1003, 0xAB)).To(Succeed())
		Expect(buf[3]).To(Equal(uint8(0xAB)))
	})

	It("should reject addresses below the window", func() {
		_, err := mem.Read8(0x0FFF)
		Expect(err).To(MatchError(emu.ErrOutOfBounds))
	})

	It("should reject the end address", func() {
		_, err := mem.Read8(0x1008)
		Expect(err).To(MatchError(emu.ErrOutOfBounds))
		Expect(mem.Write8(0x1008, 1)).To(MatchError(emu.ErrOutOfBounds))
	})

	It("should check Contains against the half-open range", func() {
		Expect(mem.Contains(0x1000)).To(BeTrue())
		Expect(mem.Contains(0x1007)).To(BeTrue())
		Expect(mem.Contains(0x1008)).To(BeFalse())
		Expect(mem.Contains(0)).To(BeFalse())
	})

	It("should reject an inverted window", func() {
		_, err := emu.NewMemory(buf, 0x2000, 0x1000)
		Expect(err).To(HaveOccurred())
	})

	It("should reject a buffer smaller than the window", func() {
		_, err := emu.NewMemory(buf, 0, 16)
		Expect(err).To(HaveOccurred())
	})

	It("should allow an empty window", func() {
		m, err := emu.NewMemory(nil, 0x100, 0x100)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Size()).To(Equal(uint32(0)))
		Expect(m.Contains(0x100)).To(BeFalse())
	})
})
