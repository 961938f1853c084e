package cache_test

import (
	"bytes"
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/timing/cache"
)

var _ = Describe("Hierarchy", func() {
	var h *cache.Hierarchy

	BeforeEach(func() {
		var err error
		h, err = cache.NewHierarchy(cache.DefaultHierarchyConfig())
		Expect(err).NotTo(HaveOccurred())
	})

	It("should reject an invalid configuration", func() {
		config := cache.DefaultHierarchyConfig()
		config.L1D.BlockSize = 3
		_, err := cache.NewHierarchy(config)
		Expect(err).To(MatchError(ContainSubstring("invalid cache config")))
	})

	It("should route accesses by kind", func() {
		h.ObserveAccess(emu.AccessFetch, 0x0, 4)
		h.ObserveAccess(emu.AccessLoad, 0x100, 4)
		h.ObserveAccess(emu.AccessStore, 0x104, 2)

		Expect(h.L1I().Stats().Reads).To(Equal(uint64(1)))
		Expect(h.L1I().Stats().Writes).To(BeZero())
		Expect(h.L1D().Stats().Reads).To(Equal(uint64(1)))
		Expect(h.L1D().Stats().Writes).To(Equal(uint64(1)))
		Expect(h.L1D().Stats().Hits).To(Equal(uint64(1)))
	})

	It("should charge the miss penalty as stall cycles", func() {
		h.ObserveAccess(emu.AccessFetch, 0x0, 4)  // 20 - 1
		h.ObserveAccess(emu.AccessFetch, 0x4, 4)  // hit
		h.ObserveAccess(emu.AccessLoad, 0x100, 4) // 20 - 2

		Expect(h.StallCycles()).To(Equal(uint64(19 + 18)))
	})

	It("should reset caches and stalls", func() {
		h.ObserveAccess(emu.AccessFetch, 0x0, 4)
		h.Reset()

		Expect(h.StallCycles()).To(BeZero())
		Expect(h.Report()).To(Equal(cache.Report{}))
	})

	It("should observe a running CPU", func() {
		// Sum 0..9 into a0 with a loop, storing the running total.
		program := []uint32{
			insts.Encode(insts.OpADDI, 5, 0, 0, 0),     // t0 = 0
			insts.Encode(insts.OpADDI, 6, 0, 0, 10),    // t1 = 10
			insts.Encode(insts.OpADD, 10, 10, 5, 0),    // a0 += t0
			insts.Encode(insts.OpSW, 0, 0, 10, 0x40),   // store a0
			insts.Encode(insts.OpADDI, 5, 5, 0, 1),     // t0++
			insts.Encode(insts.OpBNE, 0, 5, 6, -12),    // loop
			insts.Encode(insts.OpJAL, 0, 0, 0, 0x1000), // exit
		}
		buf := make([]byte, 0x44)
		for i, w := range program {
			binary.LittleEndian.PutUint32(buf[i*4:], w)
		}

		mem, err := emu.NewMemory(buf, 0, uint32(len(buf)))
		Expect(err).NotTo(HaveOccurred())

		cpu := emu.NewCPU(mem, emu.WithAccessObserver(h))
		Expect(cpu.Run()).To(Succeed())
		Expect(cpu.RegFile().A0()).To(Equal(uint32(45)))

		report := h.Report()
		Expect(report.L1I.Reads).To(Equal(cpu.InstructionCount()))
		Expect(report.L1I.Misses).To(Equal(uint64(1)))
		Expect(report.L1D.Writes).To(Equal(uint64(10)))
		Expect(report.L1D.Misses).To(Equal(uint64(1)))
		Expect(report.CPI(cpu.InstructionCount())).To(BeNumerically(">", 1))
	})

	It("should log statistics", func() {
		var out bytes.Buffer
		logger := logrus.New()
		logger.SetOutput(&out)

		h.ObserveAccess(emu.AccessLoad, 0x0, 4)
		h.Report().Log(logger)

		Expect(out.String()).To(ContainSubstring("cache=l1d"))
		Expect(out.String()).To(ContainSubstring("misses=1"))
		Expect(out.String()).To(ContainSubstring("stall_cycles=18"))
	})

	It("should estimate CPI", func() {
		Expect(cache.Report{StallCycles: 10}.CPI(10)).To(Equal(2.0))
		Expect(cache.Report{}.CPI(0)).To(BeZero())
	})
})
