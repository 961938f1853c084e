package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/timing/cache"
)

var _ = Describe("Cache", func() {
	var c *cache.Cache

	BeforeEach(func() {
		// Small cache for testing: 4KB, 4-way, 64B lines
		config := cache.Config{
			Size:          4 * 1024,
			Associativity: 4,
			BlockSize:     64,
			HitLatency:    1,
			MissLatency:   10,
		}
		Expect(config.Validate()).To(Succeed())
		c = cache.New(config)
	})

	Describe("Read operations", func() {
		It("should miss on cold cache", func() {
			result := c.Read(0x1000, 4)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Latency).To(Equal(uint64(10)))

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(0)))
		})

		It("should hit on cached lines", func() {
			c.Read(0x1000, 4)

			result := c.Read(0x1000, 4)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Latency).To(Equal(uint64(1)))
			Expect(c.Stats().HitRate()).To(BeNumerically("~", 0.5))
		})

		It("should hit on different addresses in same cache line", func() {
			c.Read(0x1000, 4)

			result := c.Read(0x103C, 4)
			Expect(result.Hit).To(BeTrue())
			Expect(c.Contains(0x1020)).To(BeTrue())
			Expect(c.Contains(0x1040)).To(BeFalse())
		})

		It("should touch both lines of a misaligned access", func() {
			c.Read(0x1000, 4)

			result := c.Read(0x103E, 4)
			Expect(result.Hit).To(BeFalse())
			Expect(c.Contains(0x1040)).To(BeTrue())

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(2)))
			Expect(stats.Hits).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(2)))
		})
	})

	Describe("Write operations", func() {
		It("should write-allocate on miss", func() {
			result := c.Write(0x1000, 4)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Latency).To(Equal(uint64(10)))

			Expect(c.Read(0x1000, 4).Hit).To(BeTrue())
		})

		It("should hit on cached lines", func() {
			c.Write(0x1000, 4)

			result := c.Write(0x1004, 4)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Latency).To(Equal(uint64(1)))
			Expect(c.Stats().Writes).To(Equal(uint64(2)))
		})
	})

	Describe("Eviction", func() {
		// 4KB / (4 ways * 64B) = 16 sets, so set 0 holds 0x0000, 0x0400,
		// 0x0800, 0x0C00 and 0x1000.
		fillSet0 := func(write bool) {
			for _, addr := range []uint32{0x0000, 0x0400, 0x0800, 0x0C00} {
				if write {
					c.Write(addr, 4)
				} else {
					c.Read(addr, 4)
				}
			}
		}

		It("should evict when the set is full", func() {
			fillSet0(false)

			Expect(c.Read(0x0000, 4).Hit).To(BeTrue())
			Expect(c.Read(0x0400, 4).Hit).To(BeTrue())
			Expect(c.Read(0x0800, 4).Hit).To(BeTrue())
			Expect(c.Read(0x0C00, 4).Hit).To(BeTrue())

			result := c.Read(0x1000, 4)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Evicted).To(BeTrue())
			Expect(result.EvictedAddr).To(Equal(uint32(0x0000)))
			Expect(result.Writeback).To(BeFalse())

			Expect(c.Stats().Evictions).To(Equal(uint64(1)))
			Expect(c.Contains(0x0000)).To(BeFalse())
		})

		It("should evict the least recently used block", func() {
			fillSet0(false)

			c.Read(0x0000, 4)
			result := c.Read(0x1000, 4)
			Expect(result.EvictedAddr).To(Equal(uint32(0x0400)))
			Expect(c.Contains(0x0000)).To(BeTrue())
		})

		It("should count writebacks of dirty evicted blocks", func() {
			fillSet0(true)

			c.Read(0x0400, 4)
			c.Read(0x0800, 4)
			c.Read(0x0C00, 4)

			result := c.Write(0x1000, 4)
			Expect(result.Evicted).To(BeTrue())
			Expect(result.Writeback).To(BeTrue())
			Expect(c.Stats().Writebacks).To(Equal(uint64(1)))
		})
	})

	Describe("Flush", func() {
		It("should write back all dirty blocks", func() {
			c.Write(0x0000, 4)
			c.Write(0x1000, 4)
			c.Read(0x2000, 4)

			c.Flush()

			Expect(c.Stats().Writebacks).To(Equal(uint64(2)))
			Expect(c.Contains(0x0000)).To(BeFalse())
			Expect(c.Contains(0x2000)).To(BeFalse())
		})
	})

	Describe("Invalidate and Reset", func() {
		It("should drop a single line", func() {
			c.Read(0x1000, 4)
			c.Invalidate(0x1010)
			Expect(c.Contains(0x1000)).To(BeFalse())
		})

		It("should clear lines and statistics", func() {
			c.Read(0x1000, 4)
			c.Reset()
			Expect(c.Stats()).To(Equal(cache.Statistics{}))
			Expect(c.Read(0x1000, 4).Hit).To(BeFalse())
		})

		It("should clear only statistics", func() {
			c.Read(0x1000, 4)
			c.ResetStats()
			Expect(c.Stats().Accesses()).To(BeZero())
			Expect(c.Read(0x1000, 4).Hit).To(BeTrue())
		})
	})
})
