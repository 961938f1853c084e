// Package cache provides cache hierarchy modeling using Akita cache components.
//
// The caches track tags and dirty state only. Data always lives in the
// emulator's memory window; the caches estimate hit rates and stall cycles
// for the accesses the CPU reports.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether every line touched by the access was present.
	Hit bool
	// Latency is the number of cycles this access takes.
	Latency uint64
	// Evicted is true if a valid block was replaced.
	Evicted bool
	// EvictedAddr is the address of the evicted block (if Evicted is true).
	EvictedAddr uint32
	// Writeback is true if the evicted block was dirty.
	Writeback bool
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// Accesses returns the number of reads and writes.
func (s Statistics) Accesses() uint64 {
	return s.Reads + s.Writes
}

// HitRate returns hits over line lookups, or 0 before any access.
func (s Statistics) HitRate() float64 {
	lookups := s.Hits + s.Misses
	if lookups == 0 {
		return 0
	}
	return float64(s.Hits) / float64(lookups)
}

// Cache represents an L1 cache using Akita cache components.
type Cache struct {
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	stats Statistics
}

// New creates a new cache with the given configuration. The configuration
// must pass Validate.
func New(config Config) *Cache {
	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			config.NumSets(),
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

// Read records a load or fetch of size bytes at addr.
func (c *Cache) Read(addr uint32, size int) AccessResult {
	c.stats.Reads++
	return c.access(addr, size, false)
}

// Write records a store of size bytes at addr.
// Uses write-allocate policy: on miss, the block is brought in and marked
// dirty.
func (c *Cache) Write(addr uint32, size int) AccessResult {
	c.stats.Writes++
	return c.access(addr, size, true)
}

// Contains reports whether the line holding addr is cached.
func (c *Cache) Contains(addr uint32) bool {
	block := c.directory.Lookup(0, uint64(c.blockAddr(addr)))
	return block != nil && block.IsValid
}

// access touches every line spanned by [addr, addr+size). Misaligned
// accesses may span two lines; the access hits only if both do.
func (c *Cache) access(addr uint32, size int, isWrite bool) AccessResult {
	if size < 1 {
		size = 1
	}

	first := c.blockAddr(addr)
	last := c.blockAddr(addr + uint32(size-1))

	result := AccessResult{Hit: true, Latency: c.config.HitLatency}

	for line := first; ; line += uint32(c.config.BlockSize) {
		lineResult := c.accessLine(line, isWrite)
		if !lineResult.Hit {
			result.Hit = false
			result.Latency = c.config.MissLatency
		}
		if lineResult.Evicted {
			result.Evicted = true
			result.EvictedAddr = lineResult.EvictedAddr
			result.Writeback = result.Writeback || lineResult.Writeback
		}

		if line == last {
			break
		}
	}

	return result
}

func (c *Cache) accessLine(blockAddr uint32, isWrite bool) AccessResult {
	block := c.directory.Lookup(0, uint64(blockAddr))

	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block) // Update LRU
		if isWrite {
			block.IsDirty = true
		}
		return AccessResult{Hit: true}
	}

	c.stats.Misses++
	return c.handleMiss(blockAddr, isWrite)
}

// handleMiss allocates a block for blockAddr, evicting the LRU way.
func (c *Cache) handleMiss(blockAddr uint32, isWrite bool) AccessResult {
	result := AccessResult{}

	victim := c.directory.FindVictim(uint64(blockAddr))
	if victim == nil {
		return result
	}

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = uint32(victim.Tag) // Tag stores block-aligned address

		if victim.IsDirty {
			c.stats.Writebacks++
			result.Writeback = true
		}
	}

	victim.Tag = uint64(blockAddr)
	victim.IsValid = true
	victim.IsDirty = isWrite

	c.directory.Visit(victim)

	return result
}

// Invalidate marks a cache line as invalid.
func (c *Cache) Invalidate(addr uint32) {
	block := c.directory.Lookup(0, uint64(c.blockAddr(addr)))
	if block != nil && block.IsValid {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Flush counts a writeback for every dirty block and invalidates all blocks.
func (c *Cache) Flush() {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty {
				c.stats.Writebacks++
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
}

// Reset invalidates all cache lines and clears statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}

func (c *Cache) blockAddr(addr uint32) uint32 {
	return addr &^ uint32(c.config.BlockSize-1)
}
