package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

type access struct {
	kind emu.AccessKind
	addr uint32
	size int
}

type recordingObserver struct {
	accesses []access
}

func (r *recordingObserver) ObserveAccess(kind emu.AccessKind, addr uint32, size int) {
	r.accesses = append(r.accesses, access{kind: kind, addr: addr, size: size})
}

var _ = Describe("LoadStoreUnit", func() {
	var (
		regFile *emu.RegFile
		memory  *emu.Memory
		lsu     *emu.LoadStoreUnit
	)

	BeforeEach(func() {
		var err error
		memory, err = emu.NewMemory(make([]byte, 64), 0x1000, 0x1040)
		Expect(err).NotTo(HaveOccurred())

		regFile = &emu.RegFile{}
		regFile.WriteReg(1, 0x1000)
		lsu = emu.NewLoadStoreUnit(regFile, memory)
	})

	It("should round trip a word through SW and LW", func() {
		regFile.WriteReg(2, 0xDEADBEEF)
		Expect(lsu.Store(insts.OpSW, 1, 2, 8)).To(Succeed())
		Expect(lsu.Load(insts.OpLW, 3, 1, 8)).To(Succeed())
		Expect(regFile.ReadReg(3)).To(Equal(uint32(0xDEADBEEF)))
	})

	It("should store little-endian", func() {
		regFile.WriteReg(2, 0x11223344)
		Expect(lsu.Store(insts.OpSW, 1, 2, 0)).To(Succeed())

		b, _ := memory.Read8(0x1000)
		Expect(b).To(Equal(uint8(0x44)))
		b, _ = memory.Read8(0x1003)
		Expect(b).To(Equal(uint8(0x11)))
	})

	It("should truncate SB and SH", func() {
		regFile.WriteReg(2, 0xAABBCCDD)
		Expect(lsu.Store(insts.OpSB, 1, 2, 0)).To(Succeed())
		Expect(lsu.Store(insts.OpSH, 1, 2, 4)).To(Succeed())
		Expect(lsu.Load(insts.OpLW, 3, 1, 0)).To(Succeed())
		Expect(regFile.ReadReg(3)).To(Equal(uint32(0xDD)))
		Expect(lsu.Load(insts.OpLW, 3, 1, 4)).To(Succeed())
		Expect(regFile.ReadReg(3)).To(Equal(uint32(0xCCDD)))
	})

	It("should sign-extend LB and zero-extend LBU", func() {
		Expect(memory.Write8(0x1010, 0x80)).To(Succeed())

		Expect(lsu.Load(insts.OpLB, 3, 1, 0x10)).To(Succeed())
		Expect(regFile.ReadReg(3)).To(Equal(uint32(0xFFFFFF80)))

		Expect(lsu.Load(insts.OpLBU, 3, 1, 0x10)).To(Succeed())
		Expect(regFile.ReadReg(3)).To(Equal(uint32(0x80)))
	})

	It("should sign-extend LH and zero-extend LHU", func() {
		regFile.WriteReg(2, 0x8001)
		Expect(lsu.Store(insts.OpSH, 1, 2, 0x20)).To(Succeed())

		Expect(lsu.Load(insts.OpLH, 3, 1, 0x20)).To(Succeed())
		Expect(regFile.ReadReg(3)).To(Equal(uint32(0xFFFF8001)))

		Expect(lsu.Load(insts.OpLHU, 3, 1, 0x20)).To(Succeed())
		Expect(regFile.ReadReg(3)).To(Equal(uint32(0x8001)))
	})

	It("should allow misaligned accesses", func() {
		regFile.WriteReg(2, 0x01020304)
		Expect(lsu.Store(insts.OpSW, 1, 2, 1)).To(Succeed())
		Expect(lsu.Load(insts.OpLW, 3, 1, 1)).To(Succeed())
		Expect(regFile.ReadReg(3)).To(Equal(uint32(0x01020304)))
	})

	It("should apply a negative offset", func() {
		regFile.WriteReg(1, 0x1010)
		regFile.WriteReg(2, 7)
		Expect(lsu.Store(insts.OpSW, 1, 2, -16)).To(Succeed())
		Expect(lsu.Load(insts.OpLW, 3, 0, 0x1000)).To(Succeed())
		Expect(regFile.ReadReg(3)).To(Equal(uint32(7)))
	})

	It("should fail loads outside the window and leave rd untouched", func() {
		regFile.WriteReg(3, 42)
		err := lsu.Load(insts.OpLW, 3, 1, 0x3E)
		Expect(err).To(MatchError(emu.ErrOutOfBounds))
		Expect(regFile.ReadReg(3)).To(Equal(uint32(42)))
	})

	It("should not partially write a store that crosses the window end", func() {
		regFile.WriteReg(2, 0xFFFFFFFF)
		err := lsu.Store(insts.OpSW, 1, 2, 0x3E)
		Expect(err).To(MatchError(emu.ErrOutOfBounds))

		b, _ := memory.Read8(0x103E)
		Expect(b).To(Equal(uint8(0)))
	})

	It("should fetch instruction words", func() {
		Expect(memory.Write8(0x1004, 0x93)).To(Succeed())
		word, err := lsu.Fetch(0x1004)
		Expect(err).NotTo(HaveOccurred())
		Expect(word).To(Equal(uint32(0x93)))

		_, err = lsu.Fetch(0x1040)
		Expect(err).To(MatchError(emu.ErrOutOfBounds))
	})

	It("should report accesses to the observer", func() {
		obs := &recordingObserver{}
		lsu.SetObserver(obs)

		Expect(lsu.Store(insts.OpSH, 1, 0, 2)).To(Succeed())
		Expect(lsu.Load(insts.OpLBU, 3, 1, 5)).To(Succeed())
		_, err := lsu.Fetch(0x1008)
		Expect(err).NotTo(HaveOccurred())

		Expect(obs.accesses).To(Equal([]access{
			{emu.AccessStore, 0x1002, 2},
			{emu.AccessLoad, 0x1005, 1},
			{emu.AccessFetch, 0x1008, 4},
		}))
	})

	It("should not report failed accesses", func() {
		obs := &recordingObserver{}
		lsu.SetObserver(obs)

		Expect(lsu.Load(insts.OpLW, 3, 0, 0)).NotTo(Succeed())
		Expect(obs.accesses).To(BeEmpty())
	})

	It("should name access kinds", func() {
		Expect(emu.AccessFetch.String()).To(Equal("fetch"))
		Expect(emu.AccessLoad.String()).To(Equal("load"))
		Expect(emu.AccessStore.String()).To(Equal("store"))
	})
})
